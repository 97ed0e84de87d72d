package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// PostgresCategoryRepository stores menu categories.
type PostgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

const categorySelect = `
	SELECT c.id, c.restaurant_id, c.name, c.price, c.image_url,
	       ARRAY(SELECT p.id FROM products p WHERE p.category_id = c.id ORDER BY p.created_at),
	       c.created_at, c.updated_at
	FROM categories c
`

func (r *PostgresCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.ProductIDs = []string{}

	query := `
		INSERT INTO categories (id, restaurant_id, name, price, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.RestaurantID, c.Name, c.Price, c.ImageURL, c.CreatedAt, c.UpdatedAt)
	return translateError(err)
}

func (r *PostgresCategoryRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.Category, error) {
	query, args := scope.ApplyAs("c.restaurant_id", categorySelect+` WHERE c.id = $1`, id)
	return scanCategory(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresCategoryRepository) List(ctx context.Context, scope Scope) ([]*models.Category, error) {
	query, args := scope.ApplyAs("c.restaurant_id", categorySelect+` WHERE TRUE`)
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY c.created_at`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresCategoryRepository) Update(ctx context.Context, scope Scope, c *models.Category) error {
	c.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(
		`UPDATE categories SET name = $2, price = $3, image_url = $4, updated_at = $5 WHERE id = $1`,
		c.ID, c.Name, c.Price, c.ImageURL, c.UpdatedAt,
	)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

// Delete removes the category and, through the foreign key, its products.
func (r *PostgresCategoryRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM categories WHERE id = $1`, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	var productIDs pq.StringArray
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Price, &c.ImageURL, &productIDs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	c.ProductIDs = []string(productIDs)
	if c.ProductIDs == nil {
		c.ProductIDs = []string{}
	}
	return &c, nil
}

// PostgresProductRepository stores menu products.
type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `id, restaurant_id, category_id, name, price, tax_rate, description,
	image_url, is_available, created_at, updated_at`

func (r *PostgresProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.RestaurantID, p.CategoryID, p.Name, p.Price, p.TaxRate, p.Description,
		p.ImageURL, p.IsAvailable, p.CreatedAt, p.UpdatedAt,
	)
	return translateError(err)
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.Product, error) {
	query, args := scope.Apply(`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(r.db.QueryRowContext(ctx, query, args...))
}

// List returns the restaurant's products, optionally limited to one category.
func (r *PostgresProductRepository) List(ctx context.Context, scope Scope, categoryID string) ([]*models.Product, error) {
	query, args := scope.Apply(`SELECT ` + productColumns + ` FROM products WHERE TRUE`)
	if categoryID != "" {
		args = append(args, categoryID)
		query += ` AND category_id = $2`
	}
	return r.query(ctx, query+` ORDER BY created_at`, args...)
}

func (r *PostgresProductRepository) ListByIDs(ctx context.Context, scope Scope, ids []string) ([]*models.Product, error) {
	query, args := scope.Apply(`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	return r.query(ctx, query, args...)
}

func (r *PostgresProductRepository) Update(ctx context.Context, scope Scope, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(`
		UPDATE products
		SET category_id = $2, name = $3, price = $4, tax_rate = $5, description = $6,
		    image_url = $7, is_available = $8, updated_at = $9
		WHERE id = $1`,
		p.ID, p.CategoryID, p.Name, p.Price, p.TaxRate, p.Description, p.ImageURL, p.IsAvailable, p.UpdatedAt,
	)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func (r *PostgresProductRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM products WHERE id = $1`, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

func (r *PostgresProductRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var taxRate sql.NullFloat64
	err := row.Scan(
		&p.ID,
		&p.RestaurantID,
		&p.CategoryID,
		&p.Name,
		&p.Price,
		&taxRate,
		&p.Description,
		&p.ImageURL,
		&p.IsAvailable,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	if taxRate.Valid {
		v := taxRate.Float64
		p.TaxRate = &v
	}
	return &p, nil
}
