package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// PostgresUserRepository stores customers and their restaurant visits.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// userSelect reads a user through one visit row l, so restaurant_ids only
// ever names the restaurant the query is scoped to.
const userSelect = `
	SELECT u.id, u.phone, u.name, u.email, ARRAY[l.restaurant_id],
	       u.created_at, u.updated_at
	FROM users u
	JOIN user_restaurants l ON l.user_id = u.id
`

// UpsertByPhone keeps an existing user's name and email unless new
// non-empty values are given.
func (r *PostgresUserRepository) UpsertByPhone(ctx context.Context, user *models.User, restaurantID string) (*models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	saved, err := upsertCustomer(ctx, tx, user, restaurantID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

// upsertCustomer writes the user row and, for a non-empty restaurantID,
// the visit link on q. Order creation calls it inside its own transaction.
func upsertCustomer(ctx context.Context, q querier, user *models.User, restaurantID string, now time.Time) (*models.User, error) {
	upsert := `
		INSERT INTO users (id, phone, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (phone) DO UPDATE
		SET name = CASE WHEN EXCLUDED.name = '' THEN users.name ELSE EXCLUDED.name END,
		    email = CASE WHEN EXCLUDED.email = '' THEN users.email ELSE EXCLUDED.email END,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	var id string
	if err := q.QueryRowContext(ctx, upsert, newID(), user.Phone, user.Name, user.Email, now).Scan(&id); err != nil {
		return nil, translateError(err)
	}

	if restaurantID == "" {
		return scanUser(q.QueryRowContext(ctx,
			`SELECT id, phone, name, email, ARRAY[]::text[], created_at, updated_at FROM users u WHERE u.id = $1`, id))
	}

	link := `
		INSERT INTO user_restaurants (user_id, restaurant_id, first_visit_at, last_visit_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id, restaurant_id) DO UPDATE SET last_visit_at = EXCLUDED.last_visit_at
	`
	if _, err := q.ExecContext(ctx, link, id, restaurantID, now); err != nil {
		return nil, translateError(err)
	}

	return scanUser(q.QueryRowContext(ctx, userSelect+` WHERE u.id = $1 AND l.restaurant_id = $2`, id, restaurantID))
}

// GetByID returns a user that has visited the scoped restaurant.
func (r *PostgresUserRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.User, error) {
	query, args := scope.ApplyAs("l.restaurant_id", userSelect+` WHERE u.id = $1`, id)
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresUserRepository) List(ctx context.Context, scope Scope) ([]*models.User, error) {
	query, args := scope.ApplyAs("l.restaurant_id", userSelect+` WHERE TRUE`)
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY l.last_visit_at DESC`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Unlink removes the scoped restaurant from the user's visit history. The
// user record itself is shared between restaurants and stays.
func (r *PostgresUserRepository) Unlink(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM user_restaurants WHERE user_id = $1`, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var restaurantIDs pq.StringArray
	if err := row.Scan(&u.ID, &u.Phone, &u.Name, &u.Email, &restaurantIDs, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	u.RestaurantIDs = []string(restaurantIDs)
	return &u, nil
}
