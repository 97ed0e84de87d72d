package service

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// PricedItem is one line of an order as seen by the pricing calculation.
type PricedItem struct {
	Price    float64
	Quantity int
	// TaxRate is the per-product rate, used only in inclusive mode.
	TaxRate *float64
}

type PricingInput struct {
	Items             []PricedItem
	TaxType           models.TaxType
	RestaurantTaxRate float64
	Discount          float64
	ServiceCharge     float64
	PackingCharge     float64
	DeliveryCharge    float64
}

// OrderTotal represents the pricing breakdown for an order.
type OrderTotal struct {
	ItemsTotal     float64 `json:"items_total"`
	Discount       float64 `json:"discount"`
	Tax            float64 `json:"tax"`
	ServiceCharge  float64 `json:"service_charge"`
	PackingCharge  float64 `json:"packing_charge"`
	DeliveryCharge float64 `json:"delivery_charge"`
	FinalTotal     float64 `json:"final_total"`
}

// CalculateOrderPricing computes items total, tax and final total.
//
// Inclusive tax is extracted from the item prices and reported but not
// added; exclusive tax is added on top of the items total using the
// restaurant rate. The final total is rounded half-up to two places.
func CalculateOrderPricing(in PricingInput) (OrderTotal, error) {
	if err := checkFinite(in); err != nil {
		return OrderTotal{}, err
	}

	itemsTotal := decimal.Zero
	inclusiveTax := decimal.Zero
	for _, item := range in.Items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsTotal = itemsTotal.Add(line)

		if in.TaxType == models.TaxTypeInclusive && item.TaxRate != nil && *item.TaxRate != 0 {
			rate := decimal.NewFromFloat(*item.TaxRate)
			inclusiveTax = inclusiveTax.Add(line.Mul(rate).Div(hundred.Add(rate)))
		}
	}

	discount := decimal.NewFromFloat(in.Discount)
	extras := decimal.NewFromFloat(in.ServiceCharge).
		Add(decimal.NewFromFloat(in.PackingCharge)).
		Add(decimal.NewFromFloat(in.DeliveryCharge))

	var tax, addedTax decimal.Decimal
	switch in.TaxType {
	case models.TaxTypeNone, "":
		tax = decimal.Zero
	case models.TaxTypeInclusive:
		tax = inclusiveTax
	case models.TaxTypeExclusive:
		tax = itemsTotal.Mul(decimal.NewFromFloat(in.RestaurantTaxRate)).Div(hundred)
		addedTax = tax
	default:
		return OrderTotal{}, apperrors.NewValidationError("tax_type", "must be one of none, inclusive, exclusive")
	}

	final := itemsTotal.Sub(discount).Add(addedTax).Round(2).Add(extras.Round(2))

	return OrderTotal{
		ItemsTotal:     round2(itemsTotal),
		Discount:       round2(discount),
		Tax:            round2(tax),
		ServiceCharge:  round2(decimal.NewFromFloat(in.ServiceCharge)),
		PackingCharge:  round2(decimal.NewFromFloat(in.PackingCharge)),
		DeliveryCharge: round2(decimal.NewFromFloat(in.DeliveryCharge)),
		FinalTotal:     final.InexactFloat64(),
	}, nil
}

// CalculateCouponDiscount returns the discount a coupon grants on subtotal,
// never more than the subtotal itself.
func CalculateCouponDiscount(coupon *models.CouponCode, subtotal float64) float64 {
	sub := decimal.NewFromFloat(subtotal)
	value := decimal.NewFromFloat(coupon.DiscountValue)

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = sub.Mul(value).Div(hundred)
	default:
		discount = value
	}

	if discount.GreaterThan(sub) {
		discount = sub
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return round2(discount)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// namedAmount pairs a request field with its value so checks report
// fields in a fixed order.
type namedAmount struct {
	field string
	value float64
}

func checkFinite(in PricingInput) error {
	values := []namedAmount{
		{"restaurant_tax_rate", in.RestaurantTaxRate},
		{"discount", in.Discount},
		{"service_charge", in.ServiceCharge},
		{"packing_charge", in.PackingCharge},
		{"delivery_charge", in.DeliveryCharge},
	}
	for _, a := range values {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return apperrors.NewValidationError(a.field, "must be a finite number")
		}
	}

	for _, item := range in.Items {
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
			return apperrors.NewValidationError("items", "price must be a finite number")
		}
		if item.TaxRate != nil {
			if math.IsNaN(*item.TaxRate) || math.IsInf(*item.TaxRate, 0) {
				return apperrors.NewValidationError("items", "tax rate must be a finite number")
			}
			if *item.TaxRate < 0 {
				return apperrors.NewValidationError("items", "tax rate cannot be negative")
			}
		}
	}
	return nil
}
