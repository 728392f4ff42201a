package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	IncrementUsage(ctx context.Context, id int64) (bool, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	ActivateStarted(ctx context.Context, now time.Time) (int64, error)
}

type Validator struct {
	repo   Repository
	logger logrus.FieldLogger
}

func NewValidator(repo Repository, logger logrus.FieldLogger) *Validator {
	return &Validator{repo: repo, logger: logger}
}

// Validate checks status, usage limit and validity window of a code.
func (v *Validator) Validate(ctx context.Context, code string, now time.Time) (*domain.Discount, error) {
	code = domain.NormalizePromoCode(code)
	if code == "" {
		return nil, domain.ErrPromoNotFound
	}

	p, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load promotion %s: %w", code, err)
	}

	switch {
	case p.Status == domain.PromotionStatusInactive:
		return nil, domain.ErrPromoNotFound
	case p.Exhausted():
		return nil, domain.ErrPromoExhausted
	case now.Before(p.ValidFrom):
		return nil, domain.ErrPromoNotYetValid
	case now.After(p.ValidTo), p.Status == domain.PromotionStatusExpired:
		return nil, domain.ErrPromoExpired
	}

	return &domain.Discount{
		PromotionID: p.ID,
		Code:        p.Code,
		Kind:        p.DiscountKind,
		Value:       p.DiscountValue,
	}, nil
}

// ApplyDiscount never returns a negative amount.
func ApplyDiscount(amount int64, kind domain.DiscountKind, value float64) int64 {
	base := decimal.NewFromInt(amount)
	magnitude := decimal.NewFromFloat(value)

	var discounted decimal.Decimal
	switch kind {
	case domain.DiscountPercent:
		factor := decimal.NewFromInt(1).Sub(magnitude.Div(decimal.NewFromInt(100)))
		discounted = base.Mul(factor)
	case domain.DiscountFixed:
		discounted = base.Sub(magnitude)
	default:
		discounted = base
	}

	if discounted.IsNegative() {
		return 0
	}
	return discounted.Round(0).IntPart()
}

// RecordUsage claims one use of the promotion. It reports false when the
// limit was hit by a concurrent booking after validation.
func (v *Validator) RecordUsage(ctx context.Context, promotionID int64) (bool, error) {
	ok, err := v.repo.IncrementUsage(ctx, promotionID)
	if err != nil {
		return false, fmt.Errorf("record promotion %d usage: %w", promotionID, err)
	}
	return ok, nil
}

// RefreshStatuses moves scheduled codes to active and ended codes to
// expired, judged by the validity window only.
func (v *Validator) RefreshStatuses(ctx context.Context, now time.Time) (activated, expired int64, err error) {
	expired, err = v.repo.ExpireEnded(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("expire promotions: %w", err)
	}
	activated, err = v.repo.ActivateStarted(ctx, now)
	if err != nil {
		return 0, expired, fmt.Errorf("activate promotions: %w", err)
	}

	v.logger.WithFields(logrus.Fields{
		"activated": activated,
		"expired":   expired,
	}).Info("promotion statuses refreshed")
	return activated, expired, nil
}
