package domain

import (
	"strings"
	"time"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

type PromotionStatus string

const (
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusInactive  PromotionStatus = "inactive"
	PromotionStatusScheduled PromotionStatus = "scheduled"
	PromotionStatusExpired   PromotionStatus = "expired"
)

type Promotion struct {
	ID            int64
	Code          string
	DiscountKind  DiscountKind
	DiscountValue float64
	ValidFrom     time.Time
	ValidTo       time.Time
	UsageLimit    int // 0 means unlimited
	UsedCount     int
	Status        PromotionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizePromoCode upper-cases and trims a user supplied code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (p *Promotion) Exhausted() bool {
	return p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit
}

// WindowStatus derives the status from the validity window alone.
// Inactive promotions stay inactive.
func (p *Promotion) WindowStatus(now time.Time) PromotionStatus {
	switch {
	case p.Status == PromotionStatusInactive:
		return PromotionStatusInactive
	case now.After(p.ValidTo):
		return PromotionStatusExpired
	case now.Before(p.ValidFrom):
		return PromotionStatusScheduled
	default:
		return PromotionStatusActive
	}
}

// Discount is the outcome of a successful promo validation.
type Discount struct {
	PromotionID int64        `json:"-"`
	Code        string       `json:"code"`
	Kind        DiscountKind `json:"discount_type"`
	Value       float64      `json:"discount_value"`
}
