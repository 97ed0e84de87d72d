package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// PostgresRestaurantRepository stores restaurant accounts.
type PostgresRestaurantRepository struct {
	db *sql.DB
}

func NewPostgresRestaurantRepository(db *sql.DB) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{db: db}
}

const restaurantColumns = `id, name, email, password_hash, phone, address, tax_type,
	tax_percentage, logo_url, banner_url, created_at, updated_at`

func (r *PostgresRestaurantRepository) Create(ctx context.Context, rest *models.Restaurant) error {
	now := time.Now().UTC()
	if rest.ID == "" {
		rest.ID = newID()
	}
	if rest.TaxType == "" {
		rest.TaxType = models.TaxTypeNone
	}
	rest.CreatedAt = now
	rest.UpdatedAt = now

	query := `
		INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, rest.Email, rest.PasswordHash, rest.Phone, rest.Address,
		rest.TaxType, rest.TaxPercentage, rest.LogoURL, rest.BannerURL, rest.CreatedAt, rest.UpdatedAt,
	)
	return translateError(err)
}

func (r *PostgresRestaurantRepository) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRestaurantRepository) GetByEmail(ctx context.Context, email string) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE lower(email) = lower($1)`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRestaurantRepository) Update(ctx context.Context, rest *models.Restaurant) error {
	rest.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE restaurants
		SET name = $2, phone = $3, address = $4, logo_url = $5, banner_url = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, rest.Phone, rest.Address, rest.LogoURL, rest.BannerURL, rest.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func (r *PostgresRestaurantRepository) UpdateTax(ctx context.Context, id string, taxType models.TaxType, percentage float64) error {
	query := `UPDATE restaurants SET tax_type = $2, tax_percentage = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, taxType, percentage, time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

// Delete removes the restaurant; owned rows go with it via ON DELETE CASCADE.
func (r *PostgresRestaurantRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func scanRestaurant(row rowScanner) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := row.Scan(
		&rest.ID,
		&rest.Name,
		&rest.Email,
		&rest.PasswordHash,
		&rest.Phone,
		&rest.Address,
		&rest.TaxType,
		&rest.TaxPercentage,
		&rest.LogoURL,
		&rest.BannerURL,
		&rest.CreatedAt,
		&rest.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &rest, nil
}
