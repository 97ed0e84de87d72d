package models

import "time"

type Category struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url,omitempty"`
	ProductIDs   []string  `json:"product_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	CategoryID   string    `json:"category_id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	TaxRate      *float64  `json:"tax_rate,omitempty"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MenuCategory is a category with its products, as served to customers.
type MenuCategory struct {
	Category
	Products []*Product `json:"products"`
}

type Menu struct {
	RestaurantID string          `json:"restaurant_id"`
	Categories   []*MenuCategory `json:"categories"`
}

type CategoryRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

type ProductRequest struct {
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	TaxRate     *float64 `json:"tax_rate"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	IsAvailable *bool    `json:"is_available"`
}
