package models

import "time"

// User is a customer, identified by phone number.
type User struct {
	ID            string    `json:"id"`
	Phone         string    `json:"phone"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email,omitempty"`
	RestaurantIDs []string  `json:"restaurant_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type RegisterUserRequest struct {
	Phone        string `json:"phone"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	RestaurantID string `json:"restaurant_id"`
}
