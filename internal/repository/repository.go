package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

var (
	_ RestaurantRepository = (*PostgresRestaurantRepository)(nil)
	_ CategoryRepository   = (*PostgresCategoryRepository)(nil)
	_ ProductRepository    = (*PostgresProductRepository)(nil)
	_ OrderRepository      = (*PostgresOrderRepository)(nil)
	_ UserRepository       = (*PostgresUserRepository)(nil)
	_ OfferRepository      = (*PostgresOfferRepository)(nil)
	_ CouponRepository     = (*PostgresCouponRepository)(nil)
	_ ComboRepository      = (*PostgresComboRepository)(nil)
	_ PopupRepository      = (*PostgresPopupRepository)(nil)
	_ SliderRepository     = (*PostgresSliderRepository)(nil)
	_ Cache                = (*RedisCache)(nil)
)

type RestaurantRepository interface {
	Create(ctx context.Context, r *models.Restaurant) error
	GetByID(ctx context.Context, id string) (*models.Restaurant, error)
	GetByEmail(ctx context.Context, email string) (*models.Restaurant, error)
	Update(ctx context.Context, r *models.Restaurant) error
	UpdateTax(ctx context.Context, id string, taxType models.TaxType, percentage float64) error
	Delete(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.Category, error)
	List(ctx context.Context, scope Scope) ([]*models.Category, error)
	Update(ctx context.Context, scope Scope, c *models.Category) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.Product, error)
	List(ctx context.Context, scope Scope, categoryID string) ([]*models.Product, error)
	ListByIDs(ctx context.Context, scope Scope, ids []string) ([]*models.Product, error)
	Update(ctx context.Context, scope Scope, p *models.Product) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type OrderRepository interface {
	// Create assigns the daily order number and persists the order. A
	// non-nil customer is upserted and linked to the order's restaurant,
	// and a non-empty couponID has its usage counted, in the same
	// transaction.
	Create(ctx context.Context, order *models.Order, customer *models.User, couponID string) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.Order, error)
	List(ctx context.Context, scope Scope, filter models.OrderFilter) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, scope Scope, id string, from, to models.OrderStatus) error
	UpdatePayment(ctx context.Context, scope Scope, id string, status models.PaymentStatus, method string) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type UserRepository interface {
	// UpsertByPhone returns the user for phone, creating it if needed, and
	// records a visit to restaurantID.
	UpsertByPhone(ctx context.Context, user *models.User, restaurantID string) (*models.User, error)
	GetByID(ctx context.Context, scope Scope, id string) (*models.User, error)
	List(ctx context.Context, scope Scope) ([]*models.User, error)
	Unlink(ctx context.Context, scope Scope, id string) error
}

type OfferRepository interface {
	Create(ctx context.Context, o *models.Offer) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.Offer, error)
	List(ctx context.Context, scope Scope, activeOnly bool) ([]*models.Offer, error)
	Update(ctx context.Context, scope Scope, o *models.Offer) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type CouponRepository interface {
	Create(ctx context.Context, c *models.CouponCode) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.CouponCode, error)
	GetByCode(ctx context.Context, scope Scope, code string) (*models.CouponCode, error)
	List(ctx context.Context, scope Scope) ([]*models.CouponCode, error)
	Update(ctx context.Context, scope Scope, c *models.CouponCode) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type ComboRepository interface {
	Create(ctx context.Context, c *models.ComboDeal) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.ComboDeal, error)
	List(ctx context.Context, scope Scope, activeOnly bool) ([]*models.ComboDeal, error)
	Update(ctx context.Context, scope Scope, c *models.ComboDeal) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type PopupRepository interface {
	Create(ctx context.Context, p *models.PopUpImage) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.PopUpImage, error)
	GetActive(ctx context.Context, scope Scope) (*models.PopUpImage, error)
	List(ctx context.Context, scope Scope) ([]*models.PopUpImage, error)
	Update(ctx context.Context, scope Scope, p *models.PopUpImage) error
	// Activate marks id active and every other pop-up of the restaurant
	// inactive, atomically.
	Activate(ctx context.Context, scope Scope, id string) error
	Delete(ctx context.Context, scope Scope, id string) error
}

type SliderRepository interface {
	Create(ctx context.Context, s *models.SliderImage) error
	GetByID(ctx context.Context, scope Scope, id string) (*models.SliderImage, error)
	List(ctx context.Context, scope Scope, activeOnly bool) ([]*models.SliderImage, error)
	Update(ctx context.Context, scope Scope, s *models.SliderImage) error
	Delete(ctx context.Context, scope Scope, id string) error
}

// Cache holds derived read models in Redis.
type Cache interface {
	GetMenu(ctx context.Context, restaurantID string) (*models.Menu, error)
	SetMenu(ctx context.Context, menu *models.Menu) error
	InvalidateMenu(ctx context.Context, restaurantID string) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SetOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

//go:embed schema.sql
var schema string

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func newID() string {
	return uuid.NewString()
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translateError maps driver errors onto application errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

// expectOne turns a zero-row mutation into ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
