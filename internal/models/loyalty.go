package models

import "time"

// Window is an optional activation period. Nil bounds are open.
type Window struct {
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.StartsAt != nil && t.Before(*w.StartsAt) {
		return false
	}
	if w.EndsAt != nil && t.After(*w.EndsAt) {
		return false
	}
	return true
}

type Offer struct {
	ID                 string  `json:"id"`
	RestaurantID       string  `json:"restaurant_id"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	DiscountPercentage float64 `json:"discount_percentage"`
	ImageURL           string  `json:"image_url,omitempty"`
	Window
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DiscountType string

const (
	DiscountTypeFlat       DiscountType = "flat"
	DiscountTypePercentage DiscountType = "percentage"
)

type CouponCode struct {
	ID            string       `json:"id"`
	RestaurantID  string       `json:"restaurant_id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	MinOrderValue float64      `json:"min_order_value"`
	// UsageLimit of zero means unlimited.
	UsageLimit int `json:"usage_limit"`
	UsedCount  int `json:"used_count"`
	Window
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exhausted reports whether the coupon has hit its usage limit.
func (c *CouponCode) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}

type ComboDeal struct {
	ID           string   `json:"id"`
	RestaurantID string   `json:"restaurant_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	ProductIDs   []string `json:"product_ids"`
	ComboPrice   float64  `json:"combo_price"`
	ImageURL     string   `json:"image_url,omitempty"`
	Window
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PopUpImage struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Title        string    `json:"title,omitempty"`
	ImageURL     string    `json:"image_url"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SliderImage struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Title        string    `json:"title,omitempty"`
	ImageURL     string    `json:"image_url"`
	Position     int       `json:"position"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ValidateCouponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

type CouponValidation struct {
	Code     string  `json:"code"`
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Reason   string  `json:"reason,omitempty"`
}
