package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers merchants and exchanges credentials for tokens.
type AuthService struct {
	restaurants repository.RestaurantRepository
	tokens      *TokenIssuer
	logger      *logging.Logger
}

func NewAuthService(restaurants repository.RestaurantRepository, tokens *TokenIssuer, logger *logging.Logger) *AuthService {
	return &AuthService{
		restaurants: restaurants,
		tokens:      tokens,
		logger:      logger.Component("auth-service"),
	}
}

// Register creates a restaurant account and signs the merchant in.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRestaurantRequest) (*models.AuthResponse, error) {
	if err := ValidateRegisterRequest(req); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	restaurant := &models.Restaurant{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		TaxType:      models.TaxTypeNone,
	}

	if err := s.restaurants.Create(ctx, restaurant); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", apperrors.ErrDuplicate)
		}
		s.logger.Error("Failed to create restaurant", logging.Fields{"error": err.Error()})
		return nil, err
	}

	s.logger.Info("Restaurant registered", logging.Fields{"restaurant_id": restaurant.ID})
	return s.respond(restaurant)
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("email", "email and password are required")
	}

	restaurant, err := s.restaurants.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(restaurant.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("Password mismatch", logging.Fields{"restaurant_id": restaurant.ID})
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.respond(restaurant)
}

// VerifyToken returns the restaurant a token was issued for.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) respond(restaurant *models.Restaurant) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(restaurant.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:      token,
		ExpiresAt:  expiresAt,
		Restaurant: restaurant,
	}, nil
}
