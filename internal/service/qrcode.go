package service

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

const qrSize = 256

// QRCodeService renders the table QR that opens a restaurant's menu.
type QRCodeService struct {
	restaurants repository.RestaurantRepository
	baseURL     string
}

func NewQRCodeService(restaurants repository.RestaurantRepository, baseURL string) *QRCodeService {
	return &QRCodeService{restaurants: restaurants, baseURL: baseURL}
}

// MenuURL is the customer app address encoded in the QR.
func (s *QRCodeService) MenuURL(restaurantID string) string {
	return fmt.Sprintf("%s/r/%s", s.baseURL, restaurantID)
}

// Generate returns a PNG for an existing restaurant.
func (s *QRCodeService) Generate(ctx context.Context, restaurantID string) ([]byte, error) {
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	return qrcode.Encode(s.MenuURL(restaurantID), qrcode.Medium, qrSize)
}
