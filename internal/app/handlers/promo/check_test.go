package promo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainpromo "rstays/internal/domain/promo"
	"rstays/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newHandler(t *testing.T, promos ...*domainpromo.Promo) *CheckHandler {
	t.Helper()
	factory := memory.NewFactory()
	for _, p := range promos {
		require.NoError(t, factory.PromosRepo.Save(context.Background(), p))
	}
	return &CheckHandler{UoWFactory: factory, Now: func() time.Time { return testNow }}
}

func TestCheckValidCode(t *testing.T) {
	h := newHandler(t, &domainpromo.Promo{
		Code: "WELCOME20", Discount: 20,
		ExpiresAt: testNow.AddDate(1, 0, 0), UsageLimit: 10,
	})

	result, err := h.Handle(context.Background(), CheckQuery{Code: "WELCOME20"})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME20", result.Code)
	assert.Equal(t, 20.0, result.Discount)
}

func TestCheckUnknownCode(t *testing.T) {
	h := newHandler(t)
	_, err := h.Handle(context.Background(), CheckQuery{Code: "nope"})
	assert.ErrorIs(t, err, domainpromo.ErrPromoNotFound)
}

func TestCheckExpiredCode(t *testing.T) {
	h := newHandler(t, &domainpromo.Promo{
		Code: "OLD", Discount: 10, ExpiresAt: testNow.AddDate(0, 0, -1),
	})
	_, err := h.Handle(context.Background(), CheckQuery{Code: "OLD"})
	assert.ErrorIs(t, err, domainpromo.ErrPromoExpired)
}

func TestCheckExhaustedCode(t *testing.T) {
	h := newHandler(t, &domainpromo.Promo{
		Code: "FULL", Discount: 10,
		ExpiresAt: testNow.AddDate(1, 0, 0), UsageLimit: 3, Used: 3,
	})
	_, err := h.Handle(context.Background(), CheckQuery{Code: "FULL"})
	assert.ErrorIs(t, err, domainpromo.ErrPromoExceeded)
}
