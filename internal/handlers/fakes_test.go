package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

type memRestaurants struct {
	mu   sync.Mutex
	byID map[string]*models.Restaurant
	seq  int
}

func newMemRestaurants() *memRestaurants {
	return &memRestaurants{byID: make(map[string]*models.Restaurant)}
}

func (m *memRestaurants) Create(_ context.Context, r *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, r.Email) {
			return apperrors.ErrDuplicate
		}
	}
	m.seq++
	r.ID = fmt.Sprintf("r-%d", m.seq)
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *memRestaurants) GetByID(_ context.Context, id string) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRestaurants) GetByEmail(_ context.Context, email string) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if strings.EqualFold(r.Email, email) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memRestaurants) Update(_ context.Context, r *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *memRestaurants) UpdateTax(_ context.Context, id string, taxType models.TaxType, percentage float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.TaxType = taxType
	r.TaxPercentage = percentage
	return nil
}

func (m *memRestaurants) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memOrders keeps orders keyed by id and honours scope the way the
// Postgres repository does.
type memOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newMemOrders(orders ...*models.Order) *memOrders {
	m := &memOrders{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) visible(scope repository.Scope, id string) (*models.Order, bool) {
	o, ok := m.orders[id]
	if !ok || (scope.Valid() && o.RestaurantID != scope.RestaurantID) {
		return nil, false
	}
	return o, true
}

func (m *memOrders) Create(_ context.Context, order *models.Order, _ *models.User, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *memOrders) GetByID(_ context.Context, scope repository.Scope, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.visible(scope, id)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) List(_ context.Context, scope repository.Scope, filter models.OrderFilter) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.RestaurantID != scope.RestaurantID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, scope repository.Scope, id string, from, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.visible(scope, id)
	if !ok || o.Status != from {
		return apperrors.ErrConflict
	}
	o.Status = to
	return nil
}

func (m *memOrders) UpdatePayment(_ context.Context, scope repository.Scope, id string, status models.PaymentStatus, method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.visible(scope, id)
	if !ok {
		return apperrors.ErrNotFound
	}
	o.PaymentStatus = status
	if method != "" {
		o.PaymentMethod = method
	}
	return nil
}

func (m *memOrders) Delete(_ context.Context, scope repository.Scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visible(scope, id); !ok {
		return apperrors.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type fakeUploader struct {
	url      string
	err      error
	filename string
	body     string
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.filename = filename
	f.body = string(data)
	return f.url, f.err
}
