package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

func newLoyaltyService(coupons *mockCouponRepo, popups *mockPopupRepo, products *mockProductRepo) *LoyaltyService {
	svc := NewLoyaltyService(nil, coupons, nil, popups, nil, products, logging.Nop())
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestLoyaltyService_ValidateCoupon(t *testing.T) {
	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		coupon   *models.CouponCode
		subtotal float64
		valid    bool
		discount float64
		reason   string
	}{
		{
			name:     "percentage",
			coupon:   &models.CouponCode{Code: "TEN", DiscountType: models.DiscountTypePercentage, DiscountValue: 10, IsActive: true},
			subtotal: 250,
			valid:    true,
			discount: 25,
		},
		{
			name:     "flat capped at subtotal",
			coupon:   &models.CouponCode{Code: "TEN", DiscountType: models.DiscountTypeFlat, DiscountValue: 50, IsActive: true},
			subtotal: 30,
			valid:    true,
			discount: 30,
		},
		{
			name:     "inactive",
			coupon:   &models.CouponCode{Code: "TEN", DiscountType: models.DiscountTypeFlat, DiscountValue: 5},
			subtotal: 30,
			reason:   "coupon is inactive",
		},
		{
			name:     "expired",
			coupon:   &models.CouponCode{Code: "TEN", DiscountType: models.DiscountTypeFlat, DiscountValue: 5, IsActive: true, Window: models.Window{EndsAt: &past}},
			subtotal: 30,
			reason:   "coupon is not valid at this time",
		},
		{
			name:     "exhausted",
			coupon:   &models.CouponCode{Code: "TEN", DiscountType: models.DiscountTypeFlat, DiscountValue: 5, IsActive: true, UsageLimit: 3, UsedCount: 3},
			subtotal: 30,
			reason:   "coupon usage limit reached",
		},
		{
			name:     "below minimum",
			coupon:   &models.CouponCode{Code: "TEN", DiscountType: models.DiscountTypeFlat, DiscountValue: 5, IsActive: true, MinOrderValue: 100},
			subtotal: 30,
			reason:   "minimum order value is 100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupons := new(mockCouponRepo)
			svc := newLoyaltyService(coupons, nil, nil)
			coupons.On("GetByCode", mock.Anything, scopeR1, "TEN").Return(tt.coupon, nil).Once()

			res, err := svc.ValidateCoupon(context.Background(), "r-1", &models.ValidateCouponRequest{Code: " ten", Subtotal: tt.subtotal})

			require.NoError(t, err)
			assert.Equal(t, "TEN", res.Code)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.discount, res.Discount)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestLoyaltyService_ValidateCoupon_Unknown(t *testing.T) {
	coupons := new(mockCouponRepo)
	svc := newLoyaltyService(coupons, nil, nil)
	coupons.On("GetByCode", mock.Anything, scopeR1, "NOPE").Return(nil, apperrors.ErrNotFound).Once()

	res, err := svc.ValidateCoupon(context.Background(), "r-1", &models.ValidateCouponRequest{Code: "nope", Subtotal: 10})

	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "unknown coupon code", res.Reason)
}

func TestLoyaltyService_CreateCoupon_NormalizesCode(t *testing.T) {
	coupons := new(mockCouponRepo)
	svc := newLoyaltyService(coupons, nil, nil)
	coupons.On("Create", mock.Anything, mock.MatchedBy(func(c *models.CouponCode) bool {
		return c.Code == "WELCOME" && c.RestaurantID == "r-1"
	})).Return(nil).Once()

	c, err := svc.CreateCoupon(merchantCtx("r-1"), &models.CouponCode{
		Code: " welcome ", DiscountType: models.DiscountTypePercentage, DiscountValue: 15, IsActive: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "WELCOME", c.Code)
	coupons.AssertExpectations(t)
}

func TestLoyaltyService_ActivatePopup(t *testing.T) {
	popups := new(mockPopupRepo)
	svc := newLoyaltyService(nil, popups, nil)

	popups.On("Activate", mock.Anything, scopeR1, "pop-2").Return(nil).Once()
	popups.On("GetByID", mock.Anything, scopeR1, "pop-2").
		Return(&models.PopUpImage{ID: "pop-2", RestaurantID: "r-1", IsActive: true}, nil).Once()

	p, err := svc.ActivatePopup(merchantCtx("r-1"), "pop-2")

	require.NoError(t, err)
	assert.True(t, p.IsActive)
	popups.AssertExpectations(t)
}

func TestLoyaltyService_ActivatePopup_OtherRestaurant(t *testing.T) {
	popups := new(mockPopupRepo)
	svc := newLoyaltyService(nil, popups, nil)
	popups.On("Activate", mock.Anything, scopeR1, "pop-9").Return(apperrors.ErrNotFound).Once()

	_, err := svc.ActivatePopup(merchantCtx("r-1"), "pop-9")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoyaltyService_CreateCombo_RejectsForeignProducts(t *testing.T) {
	products := new(mockProductRepo)
	svc := newLoyaltyService(nil, nil, products)
	products.On("ListByIDs", mock.Anything, scopeR1, []string{"p-1", "p-x"}).
		Return([]*models.Product{burger()}, nil).Once()

	_, err := svc.CreateCombo(merchantCtx("r-1"), &models.ComboDeal{
		Name: "Meal", ProductIDs: []string{"p-1", "p-x"}, ComboPrice: 150,
	})

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "product_ids", ve.Field)
}
