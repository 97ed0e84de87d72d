package service

import (
	"math"
	"net/mail"
	"strings"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

const (
	minPasswordLength = 8
	maxNotesLength    = 1000
	maxOrderQuantity  = 1000
)

// ValidateRegisterRequest validates a merchant sign-up.
func ValidateRegisterRequest(req *models.RegisterRestaurantRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name", "name is required")
	}

	if err := validateEmail(req.Email); err != nil {
		return err
	}

	if len(req.Password) < minPasswordLength {
		return apperrors.NewValidationError("password", "password must be at least 8 characters")
	}

	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.NewValidationError("email", "email is invalid")
	}
	return nil
}

// ValidateTaxRequest validates a restaurant tax configuration change.
func ValidateTaxRequest(req *models.UpdateTaxRequest) error {
	if !req.TaxType.IsValid() {
		return apperrors.NewValidationError("tax_type", "must be one of none, inclusive, exclusive")
	}

	if !isFinite(req.TaxPercentage) || req.TaxPercentage < 0 || req.TaxPercentage > 100 {
		return apperrors.NewValidationError("tax_percentage", "must be between 0 and 100")
	}

	return nil
}

// ValidateCreateOrderRequest validates an order placed by a customer.
// Prices never come from the request, so only references and
// quantities are checked here.
func ValidateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return apperrors.NewValidationError("items", "at least one item is required")
	}

	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperrors.NewValidationError("items", "product ID is required for item")
		}
		if item.Quantity <= 0 {
			return apperrors.NewValidationError("items", "quantity must be positive")
		}
		if item.Quantity > maxOrderQuantity {
			return apperrors.NewValidationError("items", "quantity is too large")
		}
	}

	if strings.TrimSpace(req.CustomerPhone) == "" {
		return apperrors.NewValidationError("customer_phone", "customer phone is required")
	}

	charges := []namedAmount{
		{"service_charge", req.ServiceCharge},
		{"packing_charge", req.PackingCharge},
		{"delivery_charge", req.DeliveryCharge},
	}
	for _, c := range charges {
		if !isFinite(c.value) || c.value < 0 {
			return apperrors.NewValidationError(c.field, "must be a non-negative number")
		}
	}

	return nil
}

// ValidateUpdateOrderStatusRequest validates a status update request.
func ValidateUpdateOrderStatusRequest(req *models.UpdateOrderStatusRequest) error {
	if req.Status == "" {
		return apperrors.NewValidationError("status", "status is required")
	}
	if !req.Status.IsValid() {
		return apperrors.NewValidationError("status", "must be one of Pending, Preparing, Served")
	}
	return nil
}

func ValidateUpdatePaymentRequest(req *models.UpdatePaymentRequest) error {
	if !req.PaymentStatus.IsValid() {
		return apperrors.NewValidationError("payment_status", "must be one of unpaid, paid, failed, refunded")
	}
	return nil
}

// ValidateOrderFilter validates and normalizes a list filter.
func ValidateOrderFilter(filter *models.OrderFilter) error {
	if filter.Status != "" && !filter.Status.IsValid() {
		return apperrors.NewValidationError("status", "invalid order status")
	}

	if filter.Limit < 0 {
		return apperrors.NewValidationError("limit", "limit cannot be negative")
	}

	if filter.Offset < 0 {
		return apperrors.NewValidationError("offset", "offset cannot be negative")
	}

	return nil
}

func ValidateCategoryRequest(req *models.CategoryRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	return validateAmount("price", req.Price)
}

func ValidateProductRequest(req *models.ProductRequest) error {
	if strings.TrimSpace(req.CategoryID) == "" {
		return apperrors.NewValidationError("category_id", "category ID is required")
	}

	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name", "name is required")
	}

	if err := validateAmount("price", req.Price); err != nil {
		return err
	}

	if req.TaxRate != nil {
		if !isFinite(*req.TaxRate) || *req.TaxRate < 0 || *req.TaxRate > 100 {
			return apperrors.NewValidationError("tax_rate", "must be between 0 and 100")
		}
	}

	return nil
}

func ValidateOffer(o *models.Offer) error {
	if strings.TrimSpace(o.Title) == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if !isFinite(o.DiscountPercentage) || o.DiscountPercentage < 0 || o.DiscountPercentage > 100 {
		return apperrors.NewValidationError("discount_percentage", "must be between 0 and 100")
	}
	return validateWindow(o.Window)
}

func ValidateCoupon(c *models.CouponCode) error {
	if strings.TrimSpace(c.Code) == "" {
		return apperrors.NewValidationError("code", "code is required")
	}

	switch c.DiscountType {
	case models.DiscountTypeFlat:
		if err := validateAmount("discount_value", c.DiscountValue); err != nil {
			return err
		}
	case models.DiscountTypePercentage:
		if !isFinite(c.DiscountValue) || c.DiscountValue < 0 || c.DiscountValue > 100 {
			return apperrors.NewValidationError("discount_value", "percentage must be between 0 and 100")
		}
	default:
		return apperrors.NewValidationError("discount_type", "must be flat or percentage")
	}

	if err := validateAmount("min_order_value", c.MinOrderValue); err != nil {
		return err
	}

	if c.UsageLimit < 0 {
		return apperrors.NewValidationError("usage_limit", "usage limit cannot be negative")
	}

	return validateWindow(c.Window)
}

func ValidateCombo(c *models.ComboDeal) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	if len(c.ProductIDs) == 0 {
		return apperrors.NewValidationError("product_ids", "at least one product is required")
	}
	if err := validateAmount("combo_price", c.ComboPrice); err != nil {
		return err
	}
	return validateWindow(c.Window)
}

// ValidateImage validates pop-up and slider images.
func ValidateImage(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("image_url", "image URL is required")
	}
	return nil
}

func ValidateRegisterUserRequest(req *models.RegisterUserRequest) error {
	if strings.TrimSpace(req.Phone) == "" {
		return apperrors.NewValidationError("phone", "phone is required")
	}
	if req.Email != "" {
		return validateEmail(req.Email)
	}
	return nil
}

func validateAmount(field string, v float64) error {
	if !isFinite(v) {
		return apperrors.NewValidationError(field, "must be a finite number")
	}
	if v < 0 {
		return apperrors.NewValidationError(field, "cannot be negative")
	}
	return nil
}

func validateWindow(w models.Window) error {
	if w.StartsAt != nil && w.EndsAt != nil && w.StartsAt.After(*w.EndsAt) {
		return apperrors.NewValidationError("starts_at", "start cannot be after end")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SanitizeOrderNotes escapes markup in customer notes and caps their length.
func SanitizeOrderNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "<", "&lt;")
	notes = strings.ReplaceAll(notes, ">", "&gt;")
	notes = strings.ReplaceAll(notes, "\"", "&quot;")
	notes = strings.TrimSpace(notes)

	if len(notes) > maxNotesLength {
		notes = notes[:maxNotesLength]
	}

	return notes
}

// NormalizeCouponCode is the canonical form codes are stored and looked up in.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
