package promo

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPromoNotFound = errors.New("promo: code not found")
	ErrPromoExpired  = errors.New("promo: code expired")
	ErrPromoExceeded = errors.New("promo: usage limit reached")
)

// Promo is a global percentage discount code redeemable at booking time.
// Discount is a whole percent (20 means -20%).
type Promo struct {
	Code       string
	Discount   float64
	ExpiresAt  time.Time
	UsageLimit int
	Used       int
	Version    int64
}

type Repository interface {
	ByCode(ctx context.Context, code string) (*Promo, error)
	Save(ctx context.Context, promo *Promo) error
}

// Redeemable reports whether the code still applies at the given instant.
func (p *Promo) Redeemable(now time.Time) error {
	if !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt) {
		return ErrPromoExpired
	}
	if p.UsageLimit > 0 && p.Used >= p.UsageLimit {
		return ErrPromoExceeded
	}
	return nil
}

// Redeem counts one use after a successful booking.
func (p *Promo) Redeem(now time.Time) error {
	if err := p.Redeemable(now); err != nil {
		return err
	}
	p.Used++
	return nil
}
