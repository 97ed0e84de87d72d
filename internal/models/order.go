package models

import "time"

// OrderStatus is the kitchen workflow state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusServed    OrderStatus = "Served"
)

// orderTransitions lists the single forward step allowed from each state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing},
	OrderStatusPreparing: {OrderStatusServed},
	OrderStatusServed:    {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// TaxType selects how tax is derived from line item prices.
type TaxType string

const (
	TaxTypeNone      TaxType = "none"
	TaxTypeInclusive TaxType = "inclusive"
	TaxTypeExclusive TaxType = "exclusive"
)

func (t TaxType) IsValid() bool {
	switch t {
	case TaxTypeNone, TaxTypeInclusive, TaxTypeExclusive:
		return true
	}
	return false
}

// LineItem is a product/quantity pair frozen at order time.
type LineItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Quantity  int      `json:"quantity"`
	TaxRate   *float64 `json:"tax_rate,omitempty"`
}

type Order struct {
	ID             string        `json:"id"`
	RestaurantID   string        `json:"restaurant_id"`
	UserID         string        `json:"user_id"`
	OrderNumber    int           `json:"order_number"`
	Items          []LineItem    `json:"items"`
	TaxType        TaxType       `json:"tax_type"`
	ItemsTotal     float64       `json:"items_total"`
	Discount       float64       `json:"discount"`
	Tax            float64       `json:"tax"`
	ServiceCharge  float64       `json:"service_charge"`
	PackingCharge  float64       `json:"packing_charge"`
	DeliveryCharge float64       `json:"delivery_charge"`
	FinalTotal     float64       `json:"final_total"`
	Status         OrderStatus   `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentMethod  string        `json:"payment_method,omitempty"`
	CouponCode     string        `json:"coupon_code,omitempty"`
	TableNumber    string        `json:"table_number,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	User           *User         `json:"user,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// WithoutCustomer returns a shallow copy of o with the customer record
// removed, for surfaces that are readable without authentication.
func (o *Order) WithoutCustomer() *Order {
	c := *o
	c.User = nil
	return &c
}

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items"`
	CustomerPhone  string             `json:"customer_phone"`
	CustomerName   string             `json:"customer_name"`
	CouponCode     string             `json:"coupon_code"`
	PaymentMethod  string             `json:"payment_method"`
	TableNumber    string             `json:"table_number"`
	Notes          string             `json:"notes"`
	ServiceCharge  float64            `json:"service_charge"`
	PackingCharge  float64            `json:"packing_charge"`
	DeliveryCharge float64            `json:"delivery_charge"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type UpdatePaymentRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
}

const (
	DefaultOrderListLimit = 50
	MaxOrderListLimit     = 200
)

// OrderFilter narrows a merchant's order listing.
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}

// WithDefaults returns f with the page size the listing actually uses: a
// missing limit becomes DefaultOrderListLimit and large ones are capped.
func (f OrderFilter) WithDefaults() OrderFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultOrderListLimit
	}
	if f.Limit > MaxOrderListLimit {
		f.Limit = MaxOrderListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
