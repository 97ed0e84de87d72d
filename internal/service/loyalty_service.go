package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

// LoyaltyService manages the merchandising resources shown in the
// customer app: offers, coupons, combo deals, pop-ups and sliders.
type LoyaltyService struct {
	offers   repository.OfferRepository
	coupons  repository.CouponRepository
	combos   repository.ComboRepository
	popups   repository.PopupRepository
	sliders  repository.SliderRepository
	products repository.ProductRepository
	logger   *logging.Logger
	now      func() time.Time
}

func NewLoyaltyService(
	offers repository.OfferRepository,
	coupons repository.CouponRepository,
	combos repository.ComboRepository,
	popups repository.PopupRepository,
	sliders repository.SliderRepository,
	products repository.ProductRepository,
	logger *logging.Logger,
) *LoyaltyService {
	return &LoyaltyService{
		offers:   offers,
		coupons:  coupons,
		combos:   combos,
		popups:   popups,
		sliders:  sliders,
		products: products,
		logger:   logger.Component("loyalty-service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// checkCoupon reports why a coupon cannot be applied to subtotal at now.
// Unavailable coupons wrap ErrCouponUnavailable; a subtotal under the
// minimum is a validation error.
func checkCoupon(c *models.CouponCode, subtotal float64, now time.Time) error {
	switch {
	case !c.IsActive:
		return fmt.Errorf("%w: coupon is inactive", apperrors.ErrCouponUnavailable)
	case !c.Contains(now):
		return fmt.Errorf("%w: coupon is not valid at this time", apperrors.ErrCouponUnavailable)
	case c.Exhausted():
		return fmt.Errorf("%w: coupon usage limit reached", apperrors.ErrCouponUnavailable)
	case subtotal < c.MinOrderValue:
		return apperrors.NewValidationError("coupon_code", fmt.Sprintf("minimum order value is %.2f", c.MinOrderValue))
	}
	return nil
}

// ValidateCoupon checks a code against a subtotal for the customer app.
// An unusable code is reported in the result, not as an error.
func (s *LoyaltyService) ValidateCoupon(ctx context.Context, restaurantID string, req *models.ValidateCouponRequest) (*models.CouponValidation, error) {
	code := NormalizeCouponCode(req.Code)
	if code == "" {
		return nil, apperrors.NewValidationError("code", "code is required")
	}
	if !isFinite(req.Subtotal) || req.Subtotal < 0 {
		return nil, apperrors.NewValidationError("subtotal", "must be a non-negative number")
	}

	result := &models.CouponValidation{Code: code}

	coupon, err := s.coupons.GetByCode(ctx, repository.ForRestaurant(restaurantID), code)
	if errors.Is(err, apperrors.ErrNotFound) {
		result.Reason = "unknown coupon code"
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if err := checkCoupon(coupon, req.Subtotal, s.now()); err != nil {
		result.Reason = reason(err)
		return result, nil
	}

	result.Valid = true
	result.Discount = CalculateCouponDiscount(coupon, req.Subtotal)
	return result, nil
}

func reason(err error) string {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return strings.TrimPrefix(err.Error(), apperrors.ErrCouponUnavailable.Error()+": ")
}

// Offers

func (s *LoyaltyService) CreateOffer(ctx context.Context, o *models.Offer) (*models.Offer, error) {
	if err := ValidateOffer(o); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	o.RestaurantID = scope.RestaurantID
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *LoyaltyService) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.offers.GetByID(ctx, scope, id)
}

func (s *LoyaltyService) ListOffers(ctx context.Context) ([]*models.Offer, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.offers.List(ctx, scope, false)
}

func (s *LoyaltyService) ActiveOffers(ctx context.Context, restaurantID string) ([]*models.Offer, error) {
	return s.offers.List(ctx, repository.ForRestaurant(restaurantID), true)
}

func (s *LoyaltyService) UpdateOffer(ctx context.Context, id string, o *models.Offer) (*models.Offer, error) {
	if err := ValidateOffer(o); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.offers.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	o.ID = existing.ID
	o.RestaurantID = existing.RestaurantID
	o.CreatedAt = existing.CreatedAt
	if err := s.offers.Update(ctx, scope, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *LoyaltyService) DeleteOffer(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	return s.offers.Delete(ctx, scope, id)
}

// Coupons

func (s *LoyaltyService) CreateCoupon(ctx context.Context, c *models.CouponCode) (*models.CouponCode, error) {
	c.Code = NormalizeCouponCode(c.Code)
	if err := ValidateCoupon(c); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	c.RestaurantID = scope.RestaurantID
	if err := s.coupons.Create(ctx, c); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: coupon code %s already exists", apperrors.ErrDuplicate, c.Code)
		}
		return nil, err
	}
	return c, nil
}

func (s *LoyaltyService) GetCoupon(ctx context.Context, id string) (*models.CouponCode, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.coupons.GetByID(ctx, scope, id)
}

func (s *LoyaltyService) ListCoupons(ctx context.Context) ([]*models.CouponCode, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.coupons.List(ctx, scope)
}

func (s *LoyaltyService) UpdateCoupon(ctx context.Context, id string, c *models.CouponCode) (*models.CouponCode, error) {
	c.Code = NormalizeCouponCode(c.Code)
	if err := ValidateCoupon(c); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.coupons.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.RestaurantID = existing.RestaurantID
	c.UsedCount = existing.UsedCount
	c.CreatedAt = existing.CreatedAt
	if err := s.coupons.Update(ctx, scope, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *LoyaltyService) DeleteCoupon(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	return s.coupons.Delete(ctx, scope, id)
}

// Combos

func (s *LoyaltyService) CreateCombo(ctx context.Context, c *models.ComboDeal) (*models.ComboDeal, error) {
	if err := ValidateCombo(c); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkComboProducts(ctx, scope, c.ProductIDs); err != nil {
		return nil, err
	}
	c.RestaurantID = scope.RestaurantID
	if err := s.combos.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *LoyaltyService) GetCombo(ctx context.Context, id string) (*models.ComboDeal, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.combos.GetByID(ctx, scope, id)
}

func (s *LoyaltyService) ListCombos(ctx context.Context) ([]*models.ComboDeal, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.combos.List(ctx, scope, false)
}

func (s *LoyaltyService) ActiveCombos(ctx context.Context, restaurantID string) ([]*models.ComboDeal, error) {
	return s.combos.List(ctx, repository.ForRestaurant(restaurantID), true)
}

func (s *LoyaltyService) UpdateCombo(ctx context.Context, id string, c *models.ComboDeal) (*models.ComboDeal, error) {
	if err := ValidateCombo(c); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.combos.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkComboProducts(ctx, scope, c.ProductIDs); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.RestaurantID = existing.RestaurantID
	c.CreatedAt = existing.CreatedAt
	if err := s.combos.Update(ctx, scope, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *LoyaltyService) DeleteCombo(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	return s.combos.Delete(ctx, scope, id)
}

// checkComboProducts requires every product of a combo to belong to the
// restaurant.
func (s *LoyaltyService) checkComboProducts(ctx context.Context, scope repository.Scope, ids []string) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	products, err := s.products.ListByIDs(ctx, scope, ids)
	if err != nil {
		return err
	}
	if len(products) != len(unique) {
		return apperrors.NewValidationError("product_ids", "combo contains unknown products")
	}
	return nil
}

// Pop-ups

func (s *LoyaltyService) CreatePopup(ctx context.Context, p *models.PopUpImage) (*models.PopUpImage, error) {
	if err := ValidateImage(p.ImageURL); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	p.RestaurantID = scope.RestaurantID
	if err := s.popups.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *LoyaltyService) GetPopup(ctx context.Context, id string) (*models.PopUpImage, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.popups.GetByID(ctx, scope, id)
}

func (s *LoyaltyService) ListPopups(ctx context.Context) ([]*models.PopUpImage, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.popups.List(ctx, scope)
}

// ActivePopup returns the restaurant's active pop-up, or ErrNotFound.
func (s *LoyaltyService) ActivePopup(ctx context.Context, restaurantID string) (*models.PopUpImage, error) {
	return s.popups.GetActive(ctx, repository.ForRestaurant(restaurantID))
}

// UpdatePopup changes the title and image. Activation goes through
// ActivatePopup so the single-active rule holds.
func (s *LoyaltyService) UpdatePopup(ctx context.Context, id string, p *models.PopUpImage) (*models.PopUpImage, error) {
	if err := ValidateImage(p.ImageURL); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.popups.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	existing.Title = p.Title
	existing.ImageURL = p.ImageURL
	if err := s.popups.Update(ctx, scope, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *LoyaltyService) ActivatePopup(ctx context.Context, id string) (*models.PopUpImage, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.popups.Activate(ctx, scope, id); err != nil {
		return nil, err
	}

	s.logger.Info("Pop-up activated", logging.Fields{"restaurant_id": scope.RestaurantID, "popup_id": id})
	return s.popups.GetByID(ctx, scope, id)
}

func (s *LoyaltyService) DeletePopup(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	return s.popups.Delete(ctx, scope, id)
}

// Sliders

func (s *LoyaltyService) CreateSlider(ctx context.Context, sl *models.SliderImage) (*models.SliderImage, error) {
	if err := ValidateImage(sl.ImageURL); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	sl.RestaurantID = scope.RestaurantID
	if err := s.sliders.Create(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *LoyaltyService) GetSlider(ctx context.Context, id string) (*models.SliderImage, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.sliders.GetByID(ctx, scope, id)
}

func (s *LoyaltyService) ListSliders(ctx context.Context) ([]*models.SliderImage, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.sliders.List(ctx, scope, false)
}

func (s *LoyaltyService) ActiveSliders(ctx context.Context, restaurantID string) ([]*models.SliderImage, error) {
	return s.sliders.List(ctx, repository.ForRestaurant(restaurantID), true)
}

func (s *LoyaltyService) UpdateSlider(ctx context.Context, id string, sl *models.SliderImage) (*models.SliderImage, error) {
	if err := ValidateImage(sl.ImageURL); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.sliders.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	sl.ID = existing.ID
	sl.RestaurantID = existing.RestaurantID
	sl.CreatedAt = existing.CreatedAt
	if err := s.sliders.Update(ctx, scope, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *LoyaltyService) DeleteSlider(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	return s.sliders.Delete(ctx, scope, id)
}
