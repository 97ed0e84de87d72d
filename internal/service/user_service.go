package service

import (
	"context"
	"strings"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

// UserService manages customers. Customers are keyed by phone and shared
// across restaurants; a restaurant sees the customers who ordered there.
type UserService struct {
	users       repository.UserRepository
	restaurants repository.RestaurantRepository
	logger      *logging.Logger
}

func NewUserService(users repository.UserRepository, restaurants repository.RestaurantRepository, logger *logging.Logger) *UserService {
	return &UserService{
		users:       users,
		restaurants: restaurants,
		logger:      logger.Component("user-service"),
	}
}

// Register returns the customer for req.Phone, creating it on first use.
func (s *UserService) Register(ctx context.Context, req *models.RegisterUserRequest) (*models.User, error) {
	if err := ValidateRegisterUserRequest(req); err != nil {
		return nil, err
	}

	if req.RestaurantID != "" {
		if _, err := s.restaurants.GetByID(ctx, req.RestaurantID); err != nil {
			return nil, err
		}
	}

	user, err := s.users.UpsertByPhone(ctx, &models.User{
		Phone: strings.TrimSpace(req.Phone),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Customer registered", logging.Fields{"user_id": user.ID})
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.List(ctx, scope)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, scope, id)
}

// Remove forgets the customer for the signed-in restaurant only.
func (s *UserService) Remove(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	return s.users.Unlink(ctx, scope, id)
}
