package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fresh-mart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponCodeTaken  = errors.New("coupon with this code already exists")
	ErrCouponExhausted  = errors.New("coupon usage limit reached")
)

// CouponRepository defines the interface for coupon data access
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]*domain.Coupon, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	IncrementUsage(ctx context.Context, q DBTX, id uuid.UUID) error
}

type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository creates a new instance of CouponRepository
func NewCouponRepository(db *sql.DB) CouponRepository {
	return &couponRepository{db: db}
}

const couponColumns = `id, code, description, discount_type, discount_value, min_order_amount,
		max_discount, usage_limit, used_count, is_active, valid_from, valid_until, created_at`

func scanCoupon(row interface{ Scan(...interface{}) error }) (*domain.Coupon, error) {
	coupon := &domain.Coupon{}
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&coupon.MinOrderAmount,
		&coupon.MaxDiscount,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.IsActive,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&coupon.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// Create inserts a new coupon into the database using parameterized queries
func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, description, discount_type, discount_value, min_order_amount,
			max_discount, usage_limit, used_count, is_active, valid_from, valid_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MinOrderAmount,
		coupon.MaxDiscount,
		coupon.UsageLimit,
		coupon.UsedCount,
		coupon.IsActive,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.CreatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "coupons_code_key") {
			return ErrCouponCodeTaken
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// FindByCode retrieves a coupon by its code
func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE code = $1`, couponColumns)

	coupon, err := scanCoupon(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find coupon by code: %w", err)
	}

	return coupon, nil
}

// List retrieves all coupons, newest first
func (r *couponRepository) List(ctx context.Context) ([]*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons ORDER BY created_at DESC`, couponColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*domain.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// SetActive toggles a coupon
func (r *couponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE coupons SET is_active = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set coupon active state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCouponNotFound
	}

	return nil
}

// IncrementUsage records a redemption through the given handle. The WHERE guard
// re-checks the usage cap so concurrent checkouts cannot overspend a limited
// coupon.
func (r *couponRepository) IncrementUsage(ctx context.Context, q DBTX, id uuid.UUID) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCouponExhausted
	}

	return nil
}
