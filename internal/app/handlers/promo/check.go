package promo

import (
	"context"
	"time"

	"rstays/internal/app/handlers/support"
	"rstays/internal/app/queries"
	"rstays/internal/app/uow"
)

const checkPromoKey = "promo.check"

type CheckQuery struct {
	Code string
}

func (q CheckQuery) Key() string { return checkPromoKey }

type CheckResult struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

type CheckHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

// Handle validates a promo code and reports its discount percentage.
func (h *CheckHandler) Handle(ctx context.Context, q CheckQuery) (*CheckResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	code, err := unit.Promos().ByCode(ctx, q.Code)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	if err := code.Redeemable(now); err != nil {
		return nil, err
	}
	return &CheckResult{Code: code.Code, Discount: code.Discount}, nil
}

var _ queries.Handler[CheckQuery, *CheckResult] = (*CheckHandler)(nil)
