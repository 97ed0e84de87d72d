package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

var fixedNow = time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC)

func newOrderRepo(t *testing.T) (*PostgresOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgresOrderRepository(db, logging.Nop())
	repo.now = func() time.Time { return fixedNow }
	return repo, mock, db
}

func sampleOrder() *models.Order {
	return &models.Order{
		RestaurantID:  "r-1",
		UserID:        "u-1",
		Items:         []models.LineItem{{ProductID: "p-1", Name: "Paneer Tikka", Price: 100, Quantity: 2}},
		TaxType:       models.TaxTypeNone,
		ItemsTotal:    200,
		FinalTotal:    200,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}

func TestPostgresOrderRepository_Create(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO order_counters").
		WithArgs("r-1", "2024-05-10").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE coupon_codes").
		WithArgs("c-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := sampleOrder()
	err := repo.Create(context.Background(), order, nil, "c-1")

	require.NoError(t, err)
	assert.Equal(t, 7, order.OrderNumber)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, fixedNow, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_Create_CouponExhaustedRollsBack(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO order_counters").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(3))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE coupon_codes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder(), nil, "c-1")

	assert.ErrorIs(t, err, apperrors.ErrCouponUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_Create_CounterFollowsDayLocation(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)
	repo.WithDayLocation(time.FixedZone("IST", 5*3600+1800))
	repo.now = func() time.Time { return time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO order_counters").
		WithArgs("r-1", "2024-05-11").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(1))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := sampleOrder()
	err := repo.Create(context.Background(), order, nil, "")

	require.NoError(t, err)
	assert.Equal(t, 1, order.OrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectCustomerUpsert(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "555", "Asha", "", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-9"))
	mock.ExpectExec("INSERT INTO user_restaurants").
		WithArgs("u-9", "r-1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.id = $1 AND l.restaurant_id = $2")).
		WithArgs("u-9", "r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "name", "email", "restaurant_ids", "created_at", "updated_at"}).
			AddRow("u-9", "555", "Asha", "", "{r-1}", fixedNow, fixedNow))
}

func TestPostgresOrderRepository_Create_LinksCustomer(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectBegin()
	expectCustomerUpsert(mock)
	mock.ExpectQuery("INSERT INTO order_counters").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(1))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := sampleOrder()
	order.UserID = ""
	err := repo.Create(context.Background(), order, &models.User{Phone: "555", Name: "Asha"}, "")

	require.NoError(t, err)
	assert.Equal(t, "u-9", order.UserID)
	require.NotNil(t, order.User)
	assert.Equal(t, []string{"r-1"}, order.User.RestaurantIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_Create_InsertFailureRollsBackCustomerLink(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectBegin()
	expectCustomerUpsert(mock)
	mock.ExpectQuery("INSERT INTO order_counters").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(2))
	mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	order := sampleOrder()
	err := repo.Create(context.Background(), order, &models.User{Phone: "555", Name: "Asha"}, "")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_Create_CustomerFailureAbortsOrder(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder(), &models.User{Phone: "555"}, "")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_Create_RejectsEmptyItems(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	order := sampleOrder()
	order.Items = nil

	err := repo.Create(context.Background(), order, nil, "")

	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_GetByID_Scoped(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	items, _ := json.Marshal([]models.LineItem{{ProductID: "p-1", Name: "Dal", Price: 80, Quantity: 1}})
	rows := sqlmock.NewRows([]string{
		"id", "restaurant_id", "user_id", "order_number", "items", "tax_type", "items_total",
		"discount", "tax", "service_charge", "packing_charge", "delivery_charge", "final_total", "status",
		"payment_status", "payment_method", "coupon_code", "table_number", "notes", "created_at", "updated_at",
	}).AddRow(
		"o-1", "r-1", "u-1", 4, items, "exclusive", 80.0,
		0.0, 14.4, 0.0, 0.0, 0.0, 94.4, "Preparing",
		"paid", "cash", "", "T4", "", fixedNow, fixedNow,
	)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 AND restaurant_id = $2")).
		WithArgs("o-1", "r-1").
		WillReturnRows(rows)

	order, err := repo.GetByID(context.Background(), ForRestaurant("r-1"), "o-1")

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, order.Status)
	assert.Equal(t, models.TaxTypeExclusive, order.TaxType)
	assert.Equal(t, 94.4, order.FinalTotal)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Dal", order.Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectQuery("FROM orders").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), ForRestaurant("r-1"), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresOrderRepository_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"applied", 1, nil},
		{"lost race", 0, apperrors.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := newOrderRepo(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4 AND restaurant_id = $5")).
				WithArgs("o-1", models.OrderStatusPreparing, fixedNow, models.OrderStatusPending, "r-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.UpdateStatus(context.Background(), ForRestaurant("r-1"), "o-1", models.OrderStatusPending, models.OrderStatusPreparing)

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresOrderRepository_List_AppliesFilterAndPaging(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE TRUE AND restaurant_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("r-1", models.OrderStatusPending, models.MaxOrderListLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	orders, err := repo.List(context.Background(), ForRestaurant("r-1"), models.OrderFilter{
		Status: models.OrderStatusPending,
		Limit:  1000,
		Offset: -5,
	})

	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NotNil(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_UpdatePayment_Unscoped(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs("o-1", models.PaymentStatusPaid, "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePayment(context.Background(), Scope{}, "o-1", models.PaymentStatusPaid, "")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrderRepository_Delete_NotFound(t *testing.T) {
	repo, mock, _ := newOrderRepo(t)

	mock.ExpectExec("DELETE FROM orders").
		WithArgs("o-9", "r-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), ForRestaurant("r-1"), "o-9")

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
