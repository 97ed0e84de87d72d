package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, Issuer: "restaurant-service"})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer()

	token, expiresAt, err := issuer.Issue("r-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "r-1", id)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := testIssuer()
	token, _, err := issuer.Issue("r-1")
	require.NoError(t, err)

	other := NewTokenIssuer(config.AuthConfig{JWTSecret: "other-secret", Issuer: "restaurant-service"})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	expired := testIssuer()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("r-1")
	require.NoError(t, err)
	_, err = issuer.Verify(old)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Register(t *testing.T) {
	repo := new(mockRestaurantRepo)
	svc := NewAuthService(repo, testIssuer(), logging.Nop())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Restaurant) bool {
		return r.Email == "owner@spice.example" &&
			r.TaxType == models.TaxTypeNone &&
			bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte("correct-horse")) == nil
	})).Return(nil).Once()

	resp, err := svc.Register(context.Background(), &models.RegisterRestaurantRequest{
		Name:     "Spice Route",
		Email:    " Owner@Spice.example ",
		Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	id, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Restaurant.ID, id)
	repo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := new(mockRestaurantRepo)
	svc := NewAuthService(repo, testIssuer(), logging.Nop())

	repo.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: restaurants_email_key", apperrors.ErrDuplicate)).Once()

	_, err := svc.Register(context.Background(), &models.RegisterRestaurantRequest{
		Name: "Spice Route", Email: "owner@spice.example", Password: "correct-horse",
	})

	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(new(mockRestaurantRepo), testIssuer(), logging.Nop())

	tests := []struct {
		name  string
		req   models.RegisterRestaurantRequest
		field string
	}{
		{"missing name", models.RegisterRestaurantRequest{Email: "a@b.co", Password: "longenough"}, "name"},
		{"bad email", models.RegisterRestaurantRequest{Name: "X", Email: "nope", Password: "longenough"}, "email"},
		{"short password", models.RegisterRestaurantRequest{Name: "X", Email: "a@b.co", Password: "short"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tt.req)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.Restaurant{ID: "r-1", Email: "owner@spice.example", PasswordHash: string(hash)}

	tests := []struct {
		name     string
		email    string
		password string
		found    bool
		wantErr  error
	}{
		{name: "valid", email: "owner@spice.example", password: "correct-horse", found: true},
		{name: "wrong password", email: "owner@spice.example", password: "battery-staple", found: true, wantErr: apperrors.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@spice.example", password: "correct-horse", wantErr: apperrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRestaurantRepo)
			svc := NewAuthService(repo, testIssuer(), logging.Nop())
			if tt.found {
				repo.On("GetByEmail", mock.Anything, tt.email).Return(stored, nil).Once()
			} else {
				repo.On("GetByEmail", mock.Anything, tt.email).Return(nil, apperrors.ErrNotFound).Once()
			}

			resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: tt.email, Password: tt.password})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "r-1", resp.Restaurant.ID)
			assert.NotEmpty(t, resp.Token)
		})
	}
}
