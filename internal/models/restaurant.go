package models

import "time"

type Restaurant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	TaxType       TaxType   `json:"tax_type"`
	TaxPercentage float64   `json:"tax_percentage"`
	LogoURL       string    `json:"logo_url,omitempty"`
	BannerURL     string    `json:"banner_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type RegisterRestaurantRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token      string      `json:"token"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Restaurant *Restaurant `json:"restaurant"`
}

type UpdateRestaurantRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	LogoURL   string `json:"logo_url"`
	BannerURL string `json:"banner_url"`
}

type UpdateTaxRequest struct {
	TaxType       TaxType `json:"tax_type"`
	TaxPercentage float64 `json:"tax_percentage"`
}
