package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/pkg/database"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

func setupGiftCardRepo(t *testing.T) (*GiftCardRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewGiftCardRepository(mock)
	return repo, mock
}

func sampleGiftCard() *domain.GiftCard {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &domain.GiftCard{
		ID:             "gc-001",
		Code:           "GIFT-ABCD-1234",
		InitialBalance: 5000,
		CurrentBalance: 3000,
		RecipientName:  "Rosa Winter",
		RecipientEmail: "rosa@example.com",
		Message:        "Happy birthday",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestGiftCardRepository_GetByCode_Success(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	g := sampleGiftCard()
	rows := pgxmock.NewRows([]string{
		"id", "code", "initial_balance", "current_balance", "recipient_name",
		"recipient_email", "message", "is_active", "expires_at", "created_at", "updated_at",
	}).AddRow(
		g.ID, g.Code, g.InitialBalance, g.CurrentBalance, g.RecipientName,
		g.RecipientEmail, g.Message, g.IsActive, g.ExpiresAt, g.CreatedAt, g.UpdatedAt,
	)

	mock.ExpectQuery("SELECT .+ FROM gift_cards WHERE UPPER").
		WithArgs("gift-abcd-1234").
		WillReturnRows(rows)

	got, err := repo.GetByCode(context.Background(), "gift-abcd-1234")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.CurrentBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardRepository_Deduct_FullAmount(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE gift_cards").
		WithArgs(int64(1000), "gc-001").
		WillReturnRows(pgxmock.NewRows([]string{"deducted", "current_balance"}).AddRow(int64(1000), int64(2000)))

	deducted, remaining, err := repo.Deduct(context.Background(), "gc-001", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), deducted)
	assert.Equal(t, int64(2000), remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardRepository_Deduct_PartialCover(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	// Card holds 3000; a 9000 deduction drains it and reports 3000 taken.
	mock.ExpectQuery("UPDATE gift_cards").
		WithArgs(int64(9000), "gc-001").
		WillReturnRows(pgxmock.NewRows([]string{"deducted", "current_balance"}).AddRow(int64(3000), int64(0)))

	deducted, remaining, err := repo.Deduct(context.Background(), "gc-001", 9000)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), deducted)
	assert.Zero(t, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardRepository_Deduct_NoBalance(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE gift_cards").
		WithArgs(int64(500), "gc-empty").
		WillReturnRows(pgxmock.NewRows([]string{"deducted", "current_balance"}))

	_, _, err := repo.Deduct(context.Background(), "gc-empty", 500)
	assert.ErrorIs(t, err, apperrors.ErrNoBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardRepository_Deduct_RejectsNonPositive(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	_, _, err := repo.Deduct(context.Background(), "gc-001", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = repo.Deduct(context.Background(), "gc-001", -100)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGiftCardRepository_Credit_Success(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE gift_cards").
		WithArgs(int64(1000), "gc-001").
		WillReturnRows(pgxmock.NewRows([]string{"current_balance"}).AddRow(int64(3000)))

	remaining, err := repo.Credit(context.Background(), "gc-001", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardRepository_Credit_RejectsNonPositive(t *testing.T) {
	repo, mock := setupGiftCardRepo(t)
	defer mock.Close()

	_, err := repo.Credit(context.Background(), "gc-001", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
