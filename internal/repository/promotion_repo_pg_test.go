package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotionRepository_GetByCode(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewPromotionRepository(mockDb)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	mockDb.ExpectQuery(regexp.QuoteMeta("FROM promotions WHERE code=$1")).
		WithArgs("SUMMER25").
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "discount_type", "discount_value", "valid_from", "valid_to", "usage_limit", "used_count", "status", "created_at", "updated_at"}).
			AddRow(int64(3), "SUMMER25", "percent", 25.0, from, to, 100, 4, "active", from, from))

	promo, err := repo.GetByCode(context.Background(), "SUMMER25")
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountPercent, promo.DiscountKind)
	assert.Equal(t, 25.0, promo.DiscountValue)
	assert.Equal(t, domain.PromotionStatusActive, promo.Status)
	assert.Equal(t, 100, promo.UsageLimit)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestPromotionRepository_GetByCode_NotFound(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewPromotionRepository(mockDb)

	mockDb.ExpectQuery(regexp.QuoteMeta("FROM promotions WHERE code=$1")).
		WithArgs("NOPE").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByCode(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, domain.ErrPromoNotFound))
}

func TestPromotionRepository_IncrementUsage(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewPromotionRepository(mockDb)

	query := regexp.QuoteMeta("SET used_count = used_count + 1, updated_at = now() WHERE id=$1 AND (usage_limit = 0 OR used_count < usage_limit)")
	mockDb.ExpectExec(query).WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockDb.ExpectExec(query).WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.IncrementUsage(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementUsage(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok, "limit reached")
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestPromotionRepository_StatusSweep(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewPromotionRepository(mockDb)
	now := time.Now()

	mockDb.ExpectExec(regexp.QuoteMeta("SET status = 'expired', updated_at = now() WHERE status IN ('active', 'scheduled') AND valid_to < $1")).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mockDb.ExpectExec(regexp.QuoteMeta("SET status = 'active', updated_at = now() WHERE status = 'scheduled' AND valid_from <= $1 AND valid_to >= $1")).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	expired, err := repo.ExpireEnded(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), expired)

	activated, err := repo.ActivateStarted(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}
