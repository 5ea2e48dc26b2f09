package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/pkg/database"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// GiftCardRepository implements repository.GiftCardRepository using PostgreSQL.
type GiftCardRepository struct {
	pool database.DBTX
}

// NewGiftCardRepository creates a new PostgreSQL-backed gift card repository.
func NewGiftCardRepository(pool database.DBTX) *GiftCardRepository {
	return &GiftCardRepository{pool: pool}
}

const giftCardColumns = `id, code, initial_balance, current_balance, recipient_name,
	   recipient_email, message, is_active, expires_at, created_at, updated_at`

// Create inserts a new gift card into the database.
func (r *GiftCardRepository) Create(ctx context.Context, g *domain.GiftCard) error {
	query := `
		INSERT INTO gift_cards (
			id, code, initial_balance, current_balance, recipient_name,
			recipient_email, message, is_active, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		g.ID,
		g.Code,
		g.InitialBalance,
		g.CurrentBalance,
		g.RecipientName,
		g.RecipientEmail,
		g.Message,
		g.IsActive,
		g.ExpiresAt,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("gift card", "code", g.Code)
		}
		return fmt.Errorf("insert gift card: %w", err)
	}

	return nil
}

// GetByCode retrieves a gift card by its code.
func (r *GiftCardRepository) GetByCode(ctx context.Context, code string) (*domain.GiftCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM gift_cards WHERE UPPER(code) = UPPER($1)`, giftCardColumns)

	var g domain.GiftCard
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&g.ID,
		&g.Code,
		&g.InitialBalance,
		&g.CurrentBalance,
		&g.RecipientName,
		&g.RecipientEmail,
		&g.Message,
		&g.IsActive,
		&g.ExpiresAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("gift card", code)
		}
		return nil, fmt.Errorf("get gift card: %w", err)
	}
	return &g, nil
}

// List returns gift cards matching the given filter with the total count.
func (r *GiftCardRepository) List(ctx context.Context, filter repository.GiftCardFilter) ([]domain.GiftCard, int, error) {
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
		FROM gift_cards
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		giftCardColumns, buildWhere(conditions), argIndex, argIndex+1,
	)

	limit, offset := pageArgs(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list gift cards: %w", err)
	}
	defer rows.Close()

	var (
		cards      []domain.GiftCard
		totalCount int
	)

	for rows.Next() {
		var g domain.GiftCard
		if err := rows.Scan(
			&g.ID,
			&g.Code,
			&g.InitialBalance,
			&g.CurrentBalance,
			&g.RecipientName,
			&g.RecipientEmail,
			&g.Message,
			&g.IsActive,
			&g.ExpiresAt,
			&g.CreatedAt,
			&g.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan gift card row: %w", err)
		}
		cards = append(cards, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate gift card rows: %w", err)
	}

	if cards == nil {
		cards = []domain.GiftCard{}
	}
	return cards, totalCount, nil
}

// SetActive enables or disables a gift card.
func (r *GiftCardRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE gift_cards SET is_active = $1, updated_at = NOW() WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set gift card active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("gift card", id)
	}

	return nil
}

// Deduct atomically removes up to amount from the balance. LEAST keeps
// concurrent deductions from ever overdrawing the card; the RETURNING clause
// reports what was actually taken.
func (r *GiftCardRepository) Deduct(ctx context.Context, id string, amount int64) (int64, int64, error) {
	if amount <= 0 {
		return 0, 0, apperrors.InvalidInput("deduction amount must be positive")
	}

	query := `
		UPDATE gift_cards g
		SET current_balance = g.current_balance - LEAST($1::bigint, g.current_balance),
		    updated_at = NOW()
		FROM (SELECT id, current_balance AS balance_before FROM gift_cards WHERE id = $2 FOR UPDATE) prev
		WHERE g.id = prev.id AND g.is_active = TRUE AND prev.balance_before > 0
		RETURNING LEAST($1::bigint, prev.balance_before) AS deducted, g.current_balance`

	var deducted, remaining int64
	err := r.pool.QueryRow(ctx, query, amount, id).Scan(&deducted, &remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, apperrors.NoBalance("gift card has no spendable balance")
		}
		return 0, 0, fmt.Errorf("deduct gift card balance: %w", err)
	}

	return deducted, remaining, nil
}

// Credit returns amount to the balance. LEAST caps the result at the card's
// initial balance so an unwound deduction can never mint value.
func (r *GiftCardRepository) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.InvalidInput("credit amount must be positive")
	}

	query := `
		UPDATE gift_cards
		SET current_balance = LEAST(current_balance + $1::bigint, initial_balance),
		    updated_at = NOW()
		WHERE id = $2
		RETURNING current_balance`

	var remaining int64
	err := r.pool.QueryRow(ctx, query, amount, id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("gift card", id)
		}
		return 0, fmt.Errorf("credit gift card balance: %w", err)
	}

	return remaining, nil
}
