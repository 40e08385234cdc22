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

func (e env) payHandler(gateway *payments.Gateway) *PayHandler {
	return &PayHandler{
		UoWFactory: e.factory,
		Payments:   gateway,
		Outbox:     e.outbox,
		Now:        clock(testNow),
	}
}

func TestPayMovesBookingToPaid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)

	result, err := e.payHandler(gateway).Handle(ctx, PayCommand{
		CommandID: "cmd-2", BookingID: bk.ID, UserID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Status)
	assert.Len(t, result.PaymentID, domainbooking.PaymentIDDigits)
	assert.Equal(t, bk.Total, result.Total)

	pay, err := e.factory.PaymentsRepo.ByBookingID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StateAuthorized, pay.Status)
	assert.Equal(t, bk.Total, pay.PayoutAmount)

	stored, err := e.factory.BookingsRepo.ByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatePaid, stored.Status)
	assert.Equal(t, pay.ID, stored.PaymentID)
}

func TestPayWithBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)

	_, err := e.payHandler(gateway).Handle(ctx, PayCommand{
		BookingID: bk.ID, UserID: "guest-1", BalanceUsed: 5000,
	})
	require.NoError(t, err)

	pay, err := e.factory.PaymentsRepo.ByBookingID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), pay.BalanceUsed)
}

func TestPayGuardRails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	h := e.payHandler(gateway)

	_, err := h.Handle(ctx, PayCommand{BookingID: "0000000000", UserID: "guest-1"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	_, err = h.Handle(ctx, PayCommand{BookingID: bk.ID, UserID: "guest-2"})
	assert.ErrorIs(t, err, ErrNotBookingGuest)

	_, err = h.Handle(ctx, PayCommand{BookingID: bk.ID, UserID: "guest-1", BalanceUsed: -1})
	assert.ErrorIs(t, err, ErrBalanceInvalid)

	_, err = h.Handle(ctx, PayCommand{BookingID: bk.ID, UserID: "guest-1", BalanceUsed: bk.Total + 1})
	assert.ErrorIs(t, err, ErrBalanceInvalid)

	_, err = h.Handle(ctx, PayCommand{BookingID: bk.ID, UserID: "guest-1"})
	require.NoError(t, err)
	_, err = h.Handle(ctx, PayCommand{BookingID: bk.ID, UserID: "guest-1"})
	assert.ErrorIs(t, err, ErrPaymentExists)
}
