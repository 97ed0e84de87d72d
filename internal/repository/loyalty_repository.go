package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
)

// activeNow is appended to listings that only want live records.
const activeNow = ` AND is_active AND (starts_at IS NULL OR starts_at <= now()) AND (ends_at IS NULL OR ends_at >= now())`

func execOne(ctx context.Context, db *sql.DB, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	return expectOne(res)
}

// PostgresOfferRepository stores promotional offers.
type PostgresOfferRepository struct {
	db *sql.DB
}

func NewPostgresOfferRepository(db *sql.DB) *PostgresOfferRepository {
	return &PostgresOfferRepository{db: db}
}

const offerColumns = `id, restaurant_id, title, description, discount_percentage, image_url,
	starts_at, ends_at, is_active, created_at, updated_at`

func (r *PostgresOfferRepository) Create(ctx context.Context, o *models.Offer) error {
	now := time.Now().UTC()
	o.ID = newID()
	o.CreatedAt = now
	o.UpdatedAt = now

	query := `INSERT INTO offers (` + offerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.RestaurantID, o.Title, o.Description, o.DiscountPercentage, o.ImageURL,
		o.StartsAt, o.EndsAt, o.IsActive, o.CreatedAt, o.UpdatedAt,
	)
	return translateError(err)
}

func (r *PostgresOfferRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.Offer, error) {
	query, args := scope.Apply(`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	return scanOffer(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresOfferRepository) List(ctx context.Context, scope Scope, activeOnly bool) ([]*models.Offer, error) {
	query, args := scope.Apply(`SELECT ` + offerColumns + ` FROM offers WHERE TRUE`)
	if activeOnly {
		query += activeNow
	}

	rows, err := r.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	offers := []*models.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r *PostgresOfferRepository) Update(ctx context.Context, scope Scope, o *models.Offer) error {
	o.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(`
		UPDATE offers
		SET title = $2, description = $3, discount_percentage = $4, image_url = $5,
		    starts_at = $6, ends_at = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		o.ID, o.Title, o.Description, o.DiscountPercentage, o.ImageURL, o.StartsAt, o.EndsAt, o.IsActive, o.UpdatedAt,
	)
	return execOne(ctx, r.db, query, args...)
}

func (r *PostgresOfferRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM offers WHERE id = $1`, id)
	return execOne(ctx, r.db, query, args...)
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	var o models.Offer
	var startsAt, endsAt sql.NullTime
	err := row.Scan(&o.ID, &o.RestaurantID, &o.Title, &o.Description, &o.DiscountPercentage, &o.ImageURL,
		&startsAt, &endsAt, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	o.StartsAt, o.EndsAt = timePtr(startsAt), timePtr(endsAt)
	return &o, nil
}

// PostgresCouponRepository stores coupon codes.
type PostgresCouponRepository struct {
	db *sql.DB
}

func NewPostgresCouponRepository(db *sql.DB) *PostgresCouponRepository {
	return &PostgresCouponRepository{db: db}
}

const couponColumns = `id, restaurant_id, code, discount_type, discount_value, min_order_value,
	usage_limit, used_count, starts_at, ends_at, is_active, created_at, updated_at`

func (r *PostgresCouponRepository) Create(ctx context.Context, c *models.CouponCode) error {
	now := time.Now().UTC()
	c.ID = newID()
	c.UsedCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO coupon_codes (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.RestaurantID, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderValue,
		c.UsageLimit, c.UsedCount, c.StartsAt, c.EndsAt, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	return translateError(err)
}

func (r *PostgresCouponRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.CouponCode, error) {
	query, args := scope.Apply(`SELECT `+couponColumns+` FROM coupon_codes WHERE id = $1`, id)
	return scanCoupon(r.db.QueryRowContext(ctx, query, args...))
}

// GetByCode matches codes case-insensitively.
func (r *PostgresCouponRepository) GetByCode(ctx context.Context, scope Scope, code string) (*models.CouponCode, error) {
	query, args := scope.Apply(`SELECT `+couponColumns+` FROM coupon_codes WHERE upper(code) = upper($1)`, code)
	return scanCoupon(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresCouponRepository) List(ctx context.Context, scope Scope) ([]*models.CouponCode, error) {
	query, args := scope.Apply(`SELECT ` + couponColumns + ` FROM coupon_codes WHERE TRUE`)
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	coupons := []*models.CouponCode{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// Update rewrites the coupon's terms. used_count is owned by order creation.
func (r *PostgresCouponRepository) Update(ctx context.Context, scope Scope, c *models.CouponCode) error {
	c.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(`
		UPDATE coupon_codes
		SET code = $2, discount_type = $3, discount_value = $4, min_order_value = $5,
		    usage_limit = $6, starts_at = $7, ends_at = $8, is_active = $9, updated_at = $10
		WHERE id = $1`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderValue, c.UsageLimit,
		c.StartsAt, c.EndsAt, c.IsActive, c.UpdatedAt,
	)
	return execOne(ctx, r.db, query, args...)
}

func (r *PostgresCouponRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM coupon_codes WHERE id = $1`, id)
	return execOne(ctx, r.db, query, args...)
}

func scanCoupon(row rowScanner) (*models.CouponCode, error) {
	var c models.CouponCode
	var startsAt, endsAt sql.NullTime
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinOrderValue,
		&c.UsageLimit, &c.UsedCount, &startsAt, &endsAt, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	c.StartsAt, c.EndsAt = timePtr(startsAt), timePtr(endsAt)
	return &c, nil
}

// PostgresComboRepository stores combo deals.
type PostgresComboRepository struct {
	db *sql.DB
}

func NewPostgresComboRepository(db *sql.DB) *PostgresComboRepository {
	return &PostgresComboRepository{db: db}
}

const comboColumns = `id, restaurant_id, name, description, product_ids, combo_price, image_url,
	starts_at, ends_at, is_active, created_at, updated_at`

func (r *PostgresComboRepository) Create(ctx context.Context, c *models.ComboDeal) error {
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO combo_deals (` + comboColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.RestaurantID, c.Name, c.Description, pq.Array(c.ProductIDs), c.ComboPrice, c.ImageURL,
		c.StartsAt, c.EndsAt, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	return translateError(err)
}

func (r *PostgresComboRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.ComboDeal, error) {
	query, args := scope.Apply(`SELECT `+comboColumns+` FROM combo_deals WHERE id = $1`, id)
	return scanCombo(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresComboRepository) List(ctx context.Context, scope Scope, activeOnly bool) ([]*models.ComboDeal, error) {
	query, args := scope.Apply(`SELECT ` + comboColumns + ` FROM combo_deals WHERE TRUE`)
	if activeOnly {
		query += activeNow
	}

	rows, err := r.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	combos := []*models.ComboDeal{}
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

func (r *PostgresComboRepository) Update(ctx context.Context, scope Scope, c *models.ComboDeal) error {
	c.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(`
		UPDATE combo_deals
		SET name = $2, description = $3, product_ids = $4, combo_price = $5, image_url = $6,
		    starts_at = $7, ends_at = $8, is_active = $9, updated_at = $10
		WHERE id = $1`,
		c.ID, c.Name, c.Description, pq.Array(c.ProductIDs), c.ComboPrice, c.ImageURL,
		c.StartsAt, c.EndsAt, c.IsActive, c.UpdatedAt,
	)
	return execOne(ctx, r.db, query, args...)
}

func (r *PostgresComboRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM combo_deals WHERE id = $1`, id)
	return execOne(ctx, r.db, query, args...)
}

func scanCombo(row rowScanner) (*models.ComboDeal, error) {
	var c models.ComboDeal
	var productIDs pq.StringArray
	var startsAt, endsAt sql.NullTime
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Description, &productIDs, &c.ComboPrice, &c.ImageURL,
		&startsAt, &endsAt, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	c.ProductIDs = []string(productIDs)
	c.StartsAt, c.EndsAt = timePtr(startsAt), timePtr(endsAt)
	return &c, nil
}

// PostgresPopupRepository stores pop-up images. At most one per
// restaurant is active; the partial unique index backs that up.
type PostgresPopupRepository struct {
	db *sql.DB
}

func NewPostgresPopupRepository(db *sql.DB) *PostgresPopupRepository {
	return &PostgresPopupRepository{db: db}
}

const popupColumns = `id, restaurant_id, title, image_url, is_active, created_at, updated_at`

// Create inserts the pop-up. An active pop-up deactivates its siblings
// first, in the same transaction.
func (r *PostgresPopupRepository) Create(ctx context.Context, p *models.PopUpImage) error {
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if p.IsActive {
		if err := deactivatePopups(ctx, tx, p.RestaurantID, now); err != nil {
			return err
		}
	}

	query := `INSERT INTO popup_images (` + popupColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query, p.ID, p.RestaurantID, p.Title, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt); err != nil {
		return translateError(err)
	}
	return tx.Commit()
}

func (r *PostgresPopupRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.PopUpImage, error) {
	query, args := scope.Apply(`SELECT `+popupColumns+` FROM popup_images WHERE id = $1`, id)
	return scanPopup(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresPopupRepository) GetActive(ctx context.Context, scope Scope) (*models.PopUpImage, error) {
	query, args := scope.Apply(`SELECT ` + popupColumns + ` FROM popup_images WHERE is_active`)
	return scanPopup(r.db.QueryRowContext(ctx, query+` LIMIT 1`, args...))
}

func (r *PostgresPopupRepository) List(ctx context.Context, scope Scope) ([]*models.PopUpImage, error) {
	query, args := scope.Apply(`SELECT ` + popupColumns + ` FROM popup_images WHERE TRUE`)
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	popups := []*models.PopUpImage{}
	for rows.Next() {
		p, err := scanPopup(rows)
		if err != nil {
			return nil, err
		}
		popups = append(popups, p)
	}
	return popups, rows.Err()
}

// Update changes title and image only. Activation goes through Activate.
func (r *PostgresPopupRepository) Update(ctx context.Context, scope Scope, p *models.PopUpImage) error {
	p.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(
		`UPDATE popup_images SET title = $2, image_url = $3, updated_at = $4 WHERE id = $1`,
		p.ID, p.Title, p.ImageURL, p.UpdatedAt,
	)
	return execOne(ctx, r.db, query, args...)
}

func (r *PostgresPopupRepository) Activate(ctx context.Context, scope Scope, id string) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deactivatePopups(ctx, tx, scope.RestaurantID, now); err != nil {
		return err
	}

	query, args := scope.Apply(`UPDATE popup_images SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresPopupRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM popup_images WHERE id = $1`, id)
	return execOne(ctx, r.db, query, args...)
}

func deactivatePopups(ctx context.Context, q querier, restaurantID string, at time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE popup_images SET is_active = FALSE, updated_at = $2 WHERE restaurant_id = $1 AND is_active`,
		restaurantID, at,
	)
	return translateError(err)
}

func scanPopup(row rowScanner) (*models.PopUpImage, error) {
	var p models.PopUpImage
	if err := row.Scan(&p.ID, &p.RestaurantID, &p.Title, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// PostgresSliderRepository stores carousel images.
type PostgresSliderRepository struct {
	db *sql.DB
}

func NewPostgresSliderRepository(db *sql.DB) *PostgresSliderRepository {
	return &PostgresSliderRepository{db: db}
}

const sliderColumns = `id, restaurant_id, title, image_url, position, is_active, created_at, updated_at`

func (r *PostgresSliderRepository) Create(ctx context.Context, s *models.SliderImage) error {
	now := time.Now().UTC()
	s.ID = newID()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO slider_images (` + sliderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.RestaurantID, s.Title, s.ImageURL, s.Position, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return translateError(err)
}

func (r *PostgresSliderRepository) GetByID(ctx context.Context, scope Scope, id string) (*models.SliderImage, error) {
	query, args := scope.Apply(`SELECT `+sliderColumns+` FROM slider_images WHERE id = $1`, id)
	return scanSlider(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresSliderRepository) List(ctx context.Context, scope Scope, activeOnly bool) ([]*models.SliderImage, error) {
	query, args := scope.Apply(`SELECT ` + sliderColumns + ` FROM slider_images WHERE TRUE`)
	if activeOnly {
		query += ` AND is_active`
	}

	rows, err := r.db.QueryContext(ctx, query+` ORDER BY position, created_at`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	sliders := []*models.SliderImage{}
	for rows.Next() {
		s, err := scanSlider(rows)
		if err != nil {
			return nil, err
		}
		sliders = append(sliders, s)
	}
	return sliders, rows.Err()
}

func (r *PostgresSliderRepository) Update(ctx context.Context, scope Scope, s *models.SliderImage) error {
	s.UpdatedAt = time.Now().UTC()
	query, args := scope.Apply(
		`UPDATE slider_images SET title = $2, image_url = $3, position = $4, is_active = $5, updated_at = $6 WHERE id = $1`,
		s.ID, s.Title, s.ImageURL, s.Position, s.IsActive, s.UpdatedAt,
	)
	return execOne(ctx, r.db, query, args...)
}

func (r *PostgresSliderRepository) Delete(ctx context.Context, scope Scope, id string) error {
	query, args := scope.Apply(`DELETE FROM slider_images WHERE id = $1`, id)
	return execOne(ctx, r.db, query, args...)
}

func scanSlider(row rowScanner) (*models.SliderImage, error) {
	var s models.SliderImage
	if err := row.Scan(&s.ID, &s.RestaurantID, &s.Title, &s.ImageURL, &s.Position, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}
