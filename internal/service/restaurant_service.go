package service

import (
	"context"
	"strings"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

// requireScope returns the restaurant scope the auth middleware placed
// on ctx. Merchant operations fail closed without one.
func requireScope(ctx context.Context) (repository.Scope, error) {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok {
		return repository.Scope{}, apperrors.ErrUnauthorized
	}
	return scope, nil
}

// RestaurantService manages the signed-in merchant's restaurant profile.
type RestaurantService struct {
	restaurants repository.RestaurantRepository
	cache       repository.Cache
	logger      *logging.Logger
}

// NewRestaurantService wires the service. cache may be nil.
func NewRestaurantService(restaurants repository.RestaurantRepository, cache repository.Cache, logger *logging.Logger) *RestaurantService {
	return &RestaurantService{
		restaurants: restaurants,
		cache:       cache,
		logger:      logger.Component("restaurant-service"),
	}
}

// Current returns the restaurant of the signed-in merchant.
func (s *RestaurantService) Current(ctx context.Context) (*models.Restaurant, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.restaurants.GetByID(ctx, scope.RestaurantID)
}

// GetPublic returns the customer-facing profile of any restaurant.
func (s *RestaurantService) GetPublic(ctx context.Context, id string) (*models.Restaurant, error) {
	return s.restaurants.GetByID(ctx, id)
}

func (s *RestaurantService) Update(ctx context.Context, req *models.UpdateRestaurantRequest) (*models.Restaurant, error) {
	restaurant, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		restaurant.Name = name
	}
	if req.Phone != "" {
		restaurant.Phone = strings.TrimSpace(req.Phone)
	}
	if req.Address != "" {
		restaurant.Address = strings.TrimSpace(req.Address)
	}
	if req.LogoURL != "" {
		restaurant.LogoURL = req.LogoURL
	}
	if req.BannerURL != "" {
		restaurant.BannerURL = req.BannerURL
	}

	if err := s.restaurants.Update(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

// UpdateTax changes how future orders are taxed. Existing orders keep the
// tax they were priced with.
func (s *RestaurantService) UpdateTax(ctx context.Context, req *models.UpdateTaxRequest) (*models.Restaurant, error) {
	if err := ValidateTaxRequest(req); err != nil {
		return nil, err
	}

	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.restaurants.UpdateTax(ctx, scope.RestaurantID, req.TaxType, req.TaxPercentage); err != nil {
		return nil, err
	}

	s.logger.Info("Tax configuration updated", logging.Fields{
		"restaurant_id":  scope.RestaurantID,
		"tax_type":       req.TaxType,
		"tax_percentage": req.TaxPercentage,
	})
	return s.restaurants.GetByID(ctx, scope.RestaurantID)
}

// Delete removes the restaurant and everything it owns.
func (s *RestaurantService) Delete(ctx context.Context) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}

	if err := s.restaurants.Delete(ctx, scope.RestaurantID); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateMenu(ctx, scope.RestaurantID); err != nil {
			s.logger.Warn("Failed to invalidate menu cache", logging.Fields{"error": err.Error()})
		}
	}

	s.logger.Info("Restaurant deleted", logging.Fields{"restaurant_id": scope.RestaurantID})
	return nil
}
