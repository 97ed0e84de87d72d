package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

type mockRestaurantRepo struct{ mock.Mock }

func (m *mockRestaurantRepo) Create(ctx context.Context, r *models.Restaurant) error {
	args := m.Called(ctx, r)
	if r.ID == "" {
		r.ID = "rest-new"
	}
	return args.Error(0)
}

func (m *mockRestaurantRepo) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*models.Restaurant)
	return r, args.Error(1)
}

func (m *mockRestaurantRepo) GetByEmail(ctx context.Context, email string) (*models.Restaurant, error) {
	args := m.Called(ctx, email)
	r, _ := args.Get(0).(*models.Restaurant)
	return r, args.Error(1)
}

func (m *mockRestaurantRepo) Update(ctx context.Context, r *models.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRestaurantRepo) UpdateTax(ctx context.Context, id string, taxType models.TaxType, percentage float64) error {
	return m.Called(ctx, id, taxType, percentage).Error(0)
}

func (m *mockRestaurantRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCategoryRepo struct{ mock.Mock }

func (m *mockCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, scope repository.Scope, id string) (*models.Category, error) {
	args := m.Called(ctx, scope, id)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCategoryRepo) List(ctx context.Context, scope repository.Scope) ([]*models.Category, error) {
	args := m.Called(ctx, scope)
	c, _ := args.Get(0).([]*models.Category)
	return c, args.Error(1)
}

func (m *mockCategoryRepo) Update(ctx context.Context, scope repository.Scope, c *models.Category) error {
	return m.Called(ctx, scope, c).Error(0)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) Create(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, scope repository.Scope, id string) (*models.Product, error) {
	args := m.Called(ctx, scope, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, scope repository.Scope, categoryID string) ([]*models.Product, error) {
	args := m.Called(ctx, scope, categoryID)
	p, _ := args.Get(0).([]*models.Product)
	return p, args.Error(1)
}

func (m *mockProductRepo) ListByIDs(ctx context.Context, scope repository.Scope, ids []string) ([]*models.Product, error) {
	args := m.Called(ctx, scope, ids)
	p, _ := args.Get(0).([]*models.Product)
	return p, args.Error(1)
}

func (m *mockProductRepo) Update(ctx context.Context, scope repository.Scope, p *models.Product) error {
	return m.Called(ctx, scope, p).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order, customer *models.User, couponID string) error {
	args := m.Called(ctx, order, customer, couponID)
	if args.Error(0) == nil {
		order.ID = "ord-1"
		order.OrderNumber = 1
		if customer != nil {
			order.UserID = "u-1"
			order.User = &models.User{ID: "u-1", Phone: customer.Phone, Name: customer.Name, RestaurantIDs: []string{order.RestaurantID}}
		}
	}
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, scope repository.Scope, id string) (*models.Order, error) {
	args := m.Called(ctx, scope, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, scope repository.Scope, filter models.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, scope, filter)
	o, _ := args.Get(0).([]*models.Order)
	return o, args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, scope repository.Scope, id string, from, to models.OrderStatus) error {
	return m.Called(ctx, scope, id, from, to).Error(0)
}

func (m *mockOrderRepo) UpdatePayment(ctx context.Context, scope repository.Scope, id string, status models.PaymentStatus, method string) error {
	return m.Called(ctx, scope, id, status, method).Error(0)
}

func (m *mockOrderRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) UpsertByPhone(ctx context.Context, user *models.User, restaurantID string) (*models.User, error) {
	args := m.Called(ctx, user, restaurantID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, scope repository.Scope, id string) (*models.User, error) {
	args := m.Called(ctx, scope, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, scope repository.Scope) ([]*models.User, error) {
	args := m.Called(ctx, scope)
	u, _ := args.Get(0).([]*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Unlink(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

type mockCouponRepo struct{ mock.Mock }

func (m *mockCouponRepo) Create(ctx context.Context, c *models.CouponCode) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCouponRepo) GetByID(ctx context.Context, scope repository.Scope, id string) (*models.CouponCode, error) {
	args := m.Called(ctx, scope, id)
	c, _ := args.Get(0).(*models.CouponCode)
	return c, args.Error(1)
}

func (m *mockCouponRepo) GetByCode(ctx context.Context, scope repository.Scope, code string) (*models.CouponCode, error) {
	args := m.Called(ctx, scope, code)
	c, _ := args.Get(0).(*models.CouponCode)
	return c, args.Error(1)
}

func (m *mockCouponRepo) List(ctx context.Context, scope repository.Scope) ([]*models.CouponCode, error) {
	args := m.Called(ctx, scope)
	c, _ := args.Get(0).([]*models.CouponCode)
	return c, args.Error(1)
}

func (m *mockCouponRepo) Update(ctx context.Context, scope repository.Scope, c *models.CouponCode) error {
	return m.Called(ctx, scope, c).Error(0)
}

func (m *mockCouponRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

type mockPopupRepo struct{ mock.Mock }

func (m *mockPopupRepo) Create(ctx context.Context, p *models.PopUpImage) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPopupRepo) GetByID(ctx context.Context, scope repository.Scope, id string) (*models.PopUpImage, error) {
	args := m.Called(ctx, scope, id)
	p, _ := args.Get(0).(*models.PopUpImage)
	return p, args.Error(1)
}

func (m *mockPopupRepo) GetActive(ctx context.Context, scope repository.Scope) (*models.PopUpImage, error) {
	args := m.Called(ctx, scope)
	p, _ := args.Get(0).(*models.PopUpImage)
	return p, args.Error(1)
}

func (m *mockPopupRepo) List(ctx context.Context, scope repository.Scope) ([]*models.PopUpImage, error) {
	args := m.Called(ctx, scope)
	p, _ := args.Get(0).([]*models.PopUpImage)
	return p, args.Error(1)
}

func (m *mockPopupRepo) Update(ctx context.Context, scope repository.Scope, p *models.PopUpImage) error {
	return m.Called(ctx, scope, p).Error(0)
}

func (m *mockPopupRepo) Activate(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

func (m *mockPopupRepo) Delete(ctx context.Context, scope repository.Scope, id string) error {
	return m.Called(ctx, scope, id).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	m.Called(ctx, order)
}

func (m *mockNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	m.Called(ctx, order, previous)
}

func (m *mockNotifier) OrderPaymentUpdated(ctx context.Context, order *models.Order) {
	m.Called(ctx, order)
}

func merchantCtx(restaurantID string) context.Context {
	return repository.WithScope(context.Background(), repository.ForRestaurant(restaurantID))
}
