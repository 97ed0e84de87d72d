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

// OrderNotifier receives order lifecycle changes. Implementations must not
// block the caller on slow consumers and must not fail the request.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus)
	OrderPaymentUpdated(ctx context.Context, order *models.Order)
}

// OrderObserver records order activity. Implemented by the metrics package.
type OrderObserver interface {
	OrderCreated(taxType string, finalTotal float64)
	OrderStatusChanged(from, to string)
}

// OrderService handles order business logic.
type OrderService struct {
	orders      repository.OrderRepository
	products    repository.ProductRepository
	restaurants repository.RestaurantRepository
	coupons     repository.CouponRepository
	cache       repository.Cache
	notifier    OrderNotifier
	observer    OrderObserver
	logger      *logging.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. cache may be nil.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	restaurants repository.RestaurantRepository,
	coupons repository.CouponRepository,
	cache repository.Cache,
	notifier OrderNotifier,
	logger *logging.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		products:    products,
		restaurants: restaurants,
		coupons:     coupons,
		cache:       cache,
		notifier:    notifier,
		logger:      logger.Component("order-service"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) WithObserver(o OrderObserver) *OrderService {
	s.observer = o
	return s
}

// CreateOrder places a customer order at restaurantID. Prices and tax
// rates are read from the menu; the request only names products and
// quantities.
func (s *OrderService) CreateOrder(ctx context.Context, restaurantID string, req *models.CreateOrderRequest) (*models.Order, error) {
	s.logger.Info("Creating order", logging.Fields{
		"restaurant_id": restaurantID,
		"item_count":    len(req.Items),
		"request_id":    logging.RequestIDFromContext(ctx),
	})

	if err := ValidateCreateOrderRequest(req); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	scope := repository.ForRestaurant(restaurantID)

	lineItems, priced, err := s.resolveItems(ctx, scope, req.Items)
	if err != nil {
		return nil, err
	}

	subtotal, err := CalculateOrderPricing(PricingInput{Items: priced, TaxType: models.TaxTypeNone})
	if err != nil {
		return nil, err
	}

	var coupon *models.CouponCode
	var discount float64
	if code := NormalizeCouponCode(req.CouponCode); code != "" {
		coupon, err = s.coupons.GetByCode(ctx, scope, code)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("coupon_code", "unknown coupon code")
		}
		if err != nil {
			return nil, err
		}
		if err := checkCoupon(coupon, subtotal.ItemsTotal, s.now()); err != nil {
			return nil, err
		}
		discount = CalculateCouponDiscount(coupon, subtotal.ItemsTotal)
	}

	totals, err := CalculateOrderPricing(PricingInput{
		Items:             priced,
		TaxType:           restaurant.TaxType,
		RestaurantTaxRate: restaurant.TaxPercentage,
		Discount:          discount,
		ServiceCharge:     req.ServiceCharge,
		PackingCharge:     req.PackingCharge,
		DeliveryCharge:    req.DeliveryCharge,
	})
	if err != nil {
		return nil, err
	}

	customer := &models.User{
		Phone: strings.TrimSpace(req.CustomerPhone),
		Name:  strings.TrimSpace(req.CustomerName),
	}
	order := &models.Order{
		RestaurantID:   restaurantID,
		Items:          lineItems,
		TaxType:        restaurant.TaxType,
		ItemsTotal:     totals.ItemsTotal,
		Discount:       totals.Discount,
		Tax:            totals.Tax,
		ServiceCharge:  totals.ServiceCharge,
		PackingCharge:  totals.PackingCharge,
		DeliveryCharge: totals.DeliveryCharge,
		FinalTotal:     totals.FinalTotal,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusUnpaid,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		TableNumber:    strings.TrimSpace(req.TableNumber),
		Notes:          SanitizeOrderNotes(req.Notes),
	}

	var couponID string
	if coupon != nil {
		couponID = coupon.ID
		order.CouponCode = coupon.Code
	}

	if err := s.orders.Create(ctx, order, customer, couponID); err != nil {
		s.logger.Error("Failed to create order", logging.Fields{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOrder(ctx, order.WithoutCustomer()); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{"order_id": order.ID, "error": err.Error()})
		}
	}

	s.notifier.OrderCreated(ctx, order)
	if s.observer != nil {
		s.observer.OrderCreated(string(order.TaxType), order.FinalTotal)
	}

	s.logger.Info("Order created successfully", logging.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"final_total":  order.FinalTotal,
	})

	return order, nil
}

// resolveItems replaces request lines with menu data. Repeated products
// are merged into one line.
func (s *OrderService) resolveItems(ctx context.Context, scope repository.Scope, reqItems []models.OrderItemRequest) ([]models.LineItem, []PricedItem, error) {
	quantities := make(map[string]int, len(reqItems))
	var ids []string
	for _, item := range reqItems {
		id := strings.TrimSpace(item.ProductID)
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += item.Quantity
	}

	products, err := s.products.ListByIDs(ctx, scope, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lineItems := make([]models.LineItem, 0, len(ids))
	priced := make([]PricedItem, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, nil, apperrors.NewValidationError("items", fmt.Sprintf("product %s does not exist", id))
		}
		if !p.IsAvailable {
			return nil, nil, apperrors.NewValidationError("items", fmt.Sprintf("%s is not available", p.Name))
		}

		qty := quantities[id]
		lineItems = append(lineItems, models.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			TaxRate:   p.TaxRate,
		})
		priced = append(priced, PricedItem{Price: p.Price, Quantity: qty, TaxRate: p.TaxRate})
	}
	return lineItems, priced, nil
}

// GetOrder returns an order owned by the signed-in merchant.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, scope, id)
}

// TrackOrder returns an order by id for the customer who placed it.
func (s *OrderService) TrackOrder(ctx context.Context, id string) (*models.Order, error) {
	s.logger.Debug("Tracking order", logging.Fields{"order_id": id})

	if s.cache != nil {
		if order, err := s.cache.GetOrder(ctx, id); err == nil && order != nil {
			return order, nil
		}
	}

	order, err := s.orders.GetByID(ctx, repository.Scope{}, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{"order_id": id, "error": err.Error()})
		}
	}
	return order, nil
}

// ListOrders retrieves the merchant's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	if err := ValidateOrderFilter(&filter); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.orders.List(ctx, scope, filter)
}

// UpdateOrderStatus moves an order one step along the kitchen workflow.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	if err := ValidateUpdateOrderStatusRequest(req); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": req.Status,
	})

	order, err := s.orders.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if !previous.CanTransitionTo(req.Status) {
		return nil, &apperrors.TransitionError{From: previous.String(), To: req.Status.String()}
	}

	// Another request may have moved the order since it was read; the
	// repository only applies the change if the status is still previous.
	if err := s.orders.UpdateStatus(ctx, scope, id, previous, req.Status); err != nil {
		return nil, err
	}
	order.Status = req.Status
	order.UpdatedAt = s.now()

	s.dropCachedOrder(ctx, id)
	s.notifier.OrderStatusChanged(ctx, order, previous)
	if s.observer != nil {
		s.observer.OrderStatusChanged(previous.String(), order.Status.String())
	}

	return order, nil
}

// UpdatePayment records a payment outcome entered by the merchant.
func (s *OrderService) UpdatePayment(ctx context.Context, id string, req *models.UpdatePaymentRequest) (*models.Order, error) {
	if err := ValidateUpdatePaymentRequest(req); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyPayment(ctx, scope, id, req.PaymentStatus, strings.TrimSpace(req.PaymentMethod))
}

// ApplyPaymentEvent records a payment outcome reported by the payment
// stream. It is not tied to a merchant session.
func (s *OrderService) ApplyPaymentEvent(ctx context.Context, orderID string, status models.PaymentStatus, method string) error {
	if !status.IsValid() {
		return apperrors.NewValidationError("payment_status", "invalid payment status")
	}
	_, err := s.applyPayment(ctx, repository.Scope{}, orderID, status, method)
	return err
}

func (s *OrderService) applyPayment(ctx context.Context, scope repository.Scope, id string, status models.PaymentStatus, method string) (*models.Order, error) {
	if err := s.orders.UpdatePayment(ctx, scope, id, status, method); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment status updated", logging.Fields{
		"order_id":       id,
		"payment_status": status,
	})

	s.dropCachedOrder(ctx, id)
	s.notifier.OrderPaymentUpdated(ctx, order)
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, scope, id); err != nil {
		return err
	}
	s.dropCachedOrder(ctx, id)
	return nil
}

func (s *OrderService) dropCachedOrder(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteOrder(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate order cache", logging.Fields{"order_id": id, "error": err.Error()})
	}
}
