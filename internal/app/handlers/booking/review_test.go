package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rstays/internal/domain/booking"
	domainpayment "rstays/internal/domain/payment"
	"rstays/internal/infra/payments"
)

func (e env) reviewHandler(gateway *payments.Gateway) *ReviewHandler {
	return &ReviewHandler{
		UoWFactory: e.factory,
		Payments:   gateway,
		Outbox:     e.outbox,
		Now:        clock(testNow),
	}
}

func TestReviewApproveCapturesPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	attachPayment(t, e, gateway, bk)

	result, err := e.reviewHandler(gateway).Handle(ctx, ReviewCommand{
		CommandID: "cmd-2", BookingID: bk.ID, HostID: "host-1", Approve: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", result.Status)

	pay, err := e.factory.PaymentsRepo.ByBookingID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StateCaptured, pay.Status)
	// The default gateway takes 3% off the payout at capture.
	assert.Equal(t, int64(900), pay.GatewayFee)
}

func TestReviewDeclineReleasesInventory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	attachPayment(t, e, gateway, bk)

	result, err := e.reviewHandler(gateway).Handle(ctx, ReviewCommand{
		CommandID: "cmd-2", BookingID: bk.ID, HostID: "host-1", Approve: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "declined", result.Status)

	unit, err := e.factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.NoError(t, unit.Available([]string{"2026-06-10", "2026-06-11", "2026-06-12"}))

	pay, err := e.factory.PaymentsRepo.ByBookingID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StateDeclined, pay.Status)

	cal, err := e.factory.CalendarsRepo.ByUser(ctx, "guest-1")
	require.NoError(t, err)
	assert.Empty(t, cal.Entries)
}

func TestReviewGuardRails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	h := e.reviewHandler(gateway)

	_, err := h.Handle(ctx, ReviewCommand{BookingID: bk.ID, HostID: "not-the-host", Approve: true})
	assert.ErrorIs(t, err, ErrNotListingHost)

	// A pending booking has nothing to review yet.
	_, err = h.Handle(ctx, ReviewCommand{BookingID: bk.ID, HostID: "host-1", Approve: true})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	attachPayment(t, e, gateway, bk)
	_, err = h.Handle(ctx, ReviewCommand{BookingID: bk.ID, HostID: "host-1", Approve: true})
	require.NoError(t, err)

	// Confirmed is no longer reviewable.
	_, err = h.Handle(ctx, ReviewCommand{BookingID: bk.ID, HostID: "host-1", Approve: false})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}
