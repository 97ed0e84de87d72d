package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
	dayLoc *time.Location
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger.Component("order-repository"),
		now:    func() time.Time { return time.Now().UTC() },
		dayLoc: time.UTC,
	}
}

// WithDayLocation sets the zone whose calendar day numbers orders. A nil
// location keeps UTC.
func (r *PostgresOrderRepository) WithDayLocation(loc *time.Location) *PostgresOrderRepository {
	if loc != nil {
		r.dayLoc = loc
	}
	return r
}

const orderColumns = `id, restaurant_id, user_id, order_number, items, tax_type, items_total,
	discount, tax, service_charge, packing_charge, delivery_charge, final_total, status,
	payment_status, payment_method, coupon_code, table_number, notes, created_at, updated_at`

// Create persists a new order. The customer upsert and visit link, the
// order number counter, the insert and the coupon usage increment commit
// or roll back together.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order, customer *models.User, couponID string) error {
	if len(order.Items) == 0 {
		return apperrors.NewValidationError("items", "at least one item is required")
	}

	now := r.now()
	order.ID = newID()
	order.CreatedAt = now
	order.UpdatedAt = now

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if customer != nil {
		user, err := upsertCustomer(ctx, tx, customer, order.RestaurantID, now)
		if err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}
		order.UserID = user.ID
		order.User = user
	}

	number, err := nextOrderNumber(ctx, tx, order.RestaurantID, now.In(r.dayLoc))
	if err != nil {
		return fmt.Errorf("next order number: %w", translateError(err))
	}
	order.OrderNumber = number

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.RestaurantID,
		order.UserID,
		order.OrderNumber,
		itemsJSON,
		order.TaxType,
		order.ItemsTotal,
		order.Discount,
		order.Tax,
		order.ServiceCharge,
		order.PackingCharge,
		order.DeliveryCharge,
		order.FinalTotal,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.CouponCode,
		order.TableNumber,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", logging.Fields{
			"restaurant_id": order.RestaurantID,
			"error":         err.Error(),
		})
		return translateError(err)
	}

	if couponID != "" {
		if err := incrementCouponUsage(ctx, tx, couponID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"order_number":  order.OrderNumber,
	})
	return nil
}

// nextOrderNumber increments the per-restaurant counter for the calendar
// day of at, in at's location. The row lock taken by the upsert serializes concurrent
// creates until the surrounding transaction ends.
func nextOrderNumber(ctx context.Context, q querier, restaurantID string, at time.Time) (int, error) {
	query := `
		INSERT INTO order_counters (restaurant_id, day, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (restaurant_id, day)
		DO UPDATE SET last_value = order_counters.last_value + 1
		RETURNING last_value
	`
	var n int
	err := q.QueryRowContext(ctx, query, restaurantID, at.Format("2006-01-02")).Scan(&n)
	return n, err
}

func incrementCouponUsage(ctx context.Context, q querier, couponID string) error {
	query := `
		UPDATE coupon_codes
		SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1 AND is_active AND (usage_limit = 0 OR used_count < usage_limit)
	`
	res, err := q.ExecContext(ctx, query, couponID, time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrCouponUnavailable
	}
	return nil
}

// GetByID retrieves an order. An invalid scope reads across restaurants,
// which only the public tracking endpoint uses.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	args := []interface{}{id}
	if scope.Valid() {
		query, args = scope.Apply(query, args...)
	}
	return scanOrder(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresOrderRepository) List(ctx context.Context, scope Scope, filter models.OrderFilter) ([]*models.Order, error) {
	query, args := scope.Apply(`SELECT ` + orderColumns + ` FROM orders WHERE TRUE`)
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	page := filter.WithDefaults()
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateStatus moves an order from one status to another. The write only
// applies while the row still holds from; a concurrent change surfaces as
// ErrConflict.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, scope Scope, id string, from, to models.OrderStatus) error {
	query, args := scope.Apply(
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, to, r.now(), from,
	)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", apperrors.ErrConflict, id, from)
	}
	return nil
}

// UpdatePayment sets payment fields. An empty method keeps the stored one.
func (r *PostgresOrderRepository) UpdatePayment(ctx context.Context, scope Scope, id string, status models.PaymentStatus, method string) error {
	query := `
		UPDATE orders
		SET payment_status = $2,
		    payment_method = CASE WHEN $3::text = '' THEN payment_method ELSE $3::text END,
		    updated_at = $4
		WHERE id = $1`
	args := []interface{}{id, status, method, r.now()}
	if scope.Valid() {
		query, args = scope.Apply(query, args...)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func (r *PostgresOrderRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM orders WHERE id = $1`, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON []byte

	err := row.Scan(
		&order.ID,
		&order.RestaurantID,
		&order.UserID,
		&order.OrderNumber,
		&itemsJSON,
		&order.TaxType,
		&order.ItemsTotal,
		&order.Discount,
		&order.Tax,
		&order.ServiceCharge,
		&order.PackingCharge,
		&order.DeliveryCharge,
		&order.FinalTotal,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.CouponCode,
		&order.TableNumber,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return &order, nil
}
