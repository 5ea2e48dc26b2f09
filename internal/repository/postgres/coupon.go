package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/pkg/database"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// CouponRepository implements repository.CouponRepository using PostgreSQL.
type CouponRepository struct {
	pool database.DBTX
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool database.DBTX) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, description, discount_type, discount_value, minimum_order,
	   max_uses, times_used, is_active, expires_at, created_at, updated_at`

// Create inserts a new coupon into the database.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	query := `
		INSERT INTO coupons (
			id, code, description, discount_type, discount_value, minimum_order,
			max_uses, times_used, is_active, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Code,
		c.Description,
		c.DiscountType,
		c.DiscountValue,
		c.MinimumOrder,
		c.MaxUses,
		c.TimesUsed,
		c.IsActive,
		c.ExpiresAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("insert coupon: %w", err)
	}

	return nil
}

// GetByID retrieves a coupon by its ID.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE id = $1`, couponColumns)
	return r.scanCoupon(ctx, query, id)
}

// GetByCode retrieves a coupon by its code, case-insensitively.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE UPPER(code) = UPPER($1)`, couponColumns)
	return r.scanCoupon(ctx, query, code)
}

// List returns coupons matching the given filter with the total count.
func (r *CouponRepository) List(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Active != nil {
		conditions = append(conditions, cond("is_active", argIndex))
		args = append(args, *filter.Active)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM coupons
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		couponColumns, buildWhere(conditions), argIndex, argIndex+1,
	)

	limit, offset := pageArgs(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var (
		coupons    []domain.Coupon
		totalCount int
	)

	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(
			&c.ID,
			&c.Code,
			&c.Description,
			&c.DiscountType,
			&c.DiscountValue,
			&c.MinimumOrder,
			&c.MaxUses,
			&c.TimesUsed,
			&c.IsActive,
			&c.ExpiresAt,
			&c.CreatedAt,
			&c.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupon rows: %w", err)
	}

	if coupons == nil {
		coupons = []domain.Coupon{}
	}
	return coupons, totalCount, nil
}

// Update modifies an existing coupon in the database.
func (r *CouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE coupons
		SET code = $1, description = $2, discount_type = $3, discount_value = $4,
		    minimum_order = $5, max_uses = $6, is_active = $7, expires_at = $8,
		    updated_at = $9
		WHERE id = $10`

	ct, err := r.pool.Exec(ctx, query,
		c.Code,
		c.Description,
		c.DiscountType,
		c.DiscountValue,
		c.MinimumOrder,
		c.MaxUses,
		c.IsActive,
		c.ExpiresAt,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("coupon", "code", c.Code)
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", c.ID)
	}

	return nil
}

// Redeem atomically increments times_used. The usage guard lives in the
// UPDATE itself so two concurrent redemptions of a last-use coupon can never
// both succeed.
func (r *CouponRepository) Redeem(ctx context.Context, id string) error {
	query := `
		UPDATE coupons
		SET times_used = times_used + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses = 0 OR times_used < max_uses)`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.UsageExceeded("coupon usage limit reached")
	}

	return nil
}

// ReleaseUse returns one consumed use. GREATEST guards against unwinding
// more uses than were ever consumed.
func (r *CouponRepository) ReleaseUse(ctx context.Context, id string) error {
	query := `
		UPDATE coupons
		SET times_used = GREATEST(times_used - 1, 0), updated_at = NOW()
		WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("release coupon use: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", id)
	}

	return nil
}

func (r *CouponRepository) scanCoupon(ctx context.Context, query string, arg any) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinimumOrder,
		&c.MaxUses,
		&c.TimesUsed,
		&c.IsActive,
		&c.ExpiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("coupon", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}
