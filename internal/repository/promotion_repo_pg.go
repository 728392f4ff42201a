package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type PromotionRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	IncrementUsage(ctx context.Context, id int64) (bool, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	ActivateStarted(ctx context.Context, now time.Time) (int64, error)
}

type PGPromotionRepository struct {
	db DBConn
}

func NewPromotionRepository(db DBConn) PromotionRepository {
	return &PGPromotionRepository{db: db}
}

func (r *PGPromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	var (
		p      domain.Promotion
		kind   string
		status string
	)
	err := r.db.QueryRow(ctx, `SELECT id, code, discount_type, discount_value, valid_from, valid_to, usage_limit, used_count, status, created_at, updated_at FROM promotions WHERE code=$1`, code).
		Scan(&p.ID, &p.Code, &kind, &p.DiscountValue, &p.ValidFrom, &p.ValidTo, &p.UsageLimit, &p.UsedCount, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}
	p.DiscountKind = domain.DiscountKind(kind)
	p.Status = domain.PromotionStatus(status)
	return &p, nil
}

// IncrementUsage claims one use of the promotion. It reports false when the
// usage limit was reached by a concurrent booking.
func (r *PGPromotionRepository) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE promotions SET used_count = used_count + 1, updated_at = now() WHERE id=$1 AND (usage_limit = 0 OR used_count < usage_limit)`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGPromotionRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE promotions SET status = 'expired', updated_at = now() WHERE status IN ('active', 'scheduled') AND valid_to < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGPromotionRepository) ActivateStarted(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE promotions SET status = 'active', updated_at = now() WHERE status = 'scheduled' AND valid_from <= $1 AND valid_to >= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ PromotionRepository = (*PGPromotionRepository)(nil)
