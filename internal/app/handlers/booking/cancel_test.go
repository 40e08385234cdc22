package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rstays/internal/domain/booking"
	domainpayment "rstays/internal/domain/payment"
	"rstays/internal/infra/payments"
)

func (e env) cancelHandler(gateway *payments.Gateway, now time.Time) *CancelHandler {
	return &CancelHandler{
		UoWFactory: e.factory,
		Payments:   gateway,
		Outbox:     e.outbox,
		Now:        clock(now),
	}
}

// createBooking runs the create flow and returns the stored aggregate.
func createBooking(t *testing.T, e env) *domainbooking.Booking {
	t.Helper()
	result, err := e.createHandler().Handle(context.Background(), singleCommand())
	require.NoError(t, err)
	bk, err := e.factory.BookingsRepo.ByID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	return bk
}

// attachPayment authorizes an intent on the gateway and stores the payment
// aggregate, moving the booking to paid.
func attachPayment(t *testing.T, e env, gateway *payments.Gateway, bk *domainbooking.Booking) *domainpayment.Payment {
	t.Helper()
	ctx := context.Background()
	intent, err := gateway.Authorize(ctx, bk.ID, bk.Total, bk.Currency)
	require.NoError(t, err)
	pay := domainpayment.New(domainpayment.CreateParams{
		ID:           domainbooking.NumericID(domainbooking.PaymentIDDigits),
		BookingID:    bk.ID,
		IntentID:     intent,
		PayoutAmount: bk.Total,
		Currency:     bk.Currency,
		Now:          testNow,
	})
	require.NoError(t, e.factory.PaymentsRepo.Save(ctx, pay))
	require.NoError(t, bk.MarkPaid(pay.ID, testNow))
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingsRepo.Save(ctx, bk))
	return pay
}

func TestCancelWithoutPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bk := createBooking(t, e)

	result, err := e.cancelHandler(nil, testNow).Handle(ctx, CancelCommand{
		CommandID: "cmd-2", BookingID: bk.ID, UserID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Status)
	assert.Equal(t, int64(0), result.Refund)

	// The dates are free again.
	unit, err := e.factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.NoError(t, unit.Available([]string{"2026-06-10", "2026-06-11", "2026-06-12"}))

	cal, err := e.factory.CalendarsRepo.ByUser(ctx, "guest-1")
	require.NoError(t, err)
	assert.Empty(t, cal.Entries)
}

func TestCancelGuardRails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bk := createBooking(t, e)
	h := e.cancelHandler(nil, testNow)

	_, err := h.Handle(ctx, CancelCommand{BookingID: "0000000000", UserID: "guest-1"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	_, err = h.Handle(ctx, CancelCommand{BookingID: bk.ID, UserID: "guest-2"})
	assert.ErrorIs(t, err, ErrNotBookingGuest)

	_, err = h.Handle(ctx, CancelCommand{BookingID: bk.ID, UserID: "guest-1"})
	require.NoError(t, err)
	_, err = h.Handle(ctx, CancelCommand{BookingID: bk.ID, UserID: "guest-1"})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelAfterStayEnded(t *testing.T) {
	e := newEnv(t)
	bk := createBooking(t, e)

	after := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	_, err := e.cancelHandler(nil, after).Handle(context.Background(), CancelCommand{
		BookingID: bk.ID, UserID: "guest-1",
	})
	assert.ErrorIs(t, err, ErrStayEnded)
}

func TestCancelUnconfirmedRefundsInFull(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	attachPayment(t, e, gateway, bk)

	result, err := e.cancelHandler(gateway, testNow).Handle(ctx, CancelCommand{
		BookingID: bk.ID, UserID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, bk.Total, result.Refund, "paid but unconfirmed refunds everything")

	pay, err := e.factory.PaymentsRepo.ByBookingID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StateCancelled, pay.Status)
}

func TestCancelConfirmedAppliesPolicy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	attachPayment(t, e, gateway, bk)
	require.NoError(t, bk.Confirm(testNow))
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingsRepo.Save(ctx, bk))

	// Nine days before check-in with a {7 days, 50%} policy: half back.
	result, err := e.cancelHandler(gateway, testNow).Handle(ctx, CancelCommand{
		BookingID: bk.ID, UserID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), result.Refund)
}

func TestCancelConfirmedInsideThresholdRefundsNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gateway := payments.NewGateway()
	bk := createBooking(t, e)
	attachPayment(t, e, gateway, bk)
	require.NoError(t, bk.Confirm(testNow))
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingsRepo.Save(ctx, bk))

	// Three days out is past the 7-day threshold.
	late := time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC)
	result, err := e.cancelHandler(gateway, late).Handle(ctx, CancelCommand{
		BookingID: bk.ID, UserID: "guest-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Refund)
}

func TestCancelReleasesPoolRooms(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.createHandler()

	cmd := CreateCommand{
		CommandID: "cmd-1", ListingID: "L2", GuestID: "guest-1",
		CheckIn: "2026-06-10", CheckOut: "2026-06-12",
		Guests: domainbooking.Guests{Adults: 2}, Currency: "EUR",
		Selections: []SelectionInput{{UnitID: "pool-1", Quantity: 3}},
	}
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	_, err = e.cancelHandler(nil, testNow).Handle(ctx, CancelCommand{
		BookingID: result.Booking.ID, UserID: "guest-1",
	})
	require.NoError(t, err)

	pool, err := e.factory.InventoryRepo.Pool(ctx, "pool-1")
	require.NoError(t, err)
	assert.Len(t, pool.FreeRooms([]string{"2026-06-10", "2026-06-11"}), 5)
}
