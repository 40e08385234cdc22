package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rstays/internal/domain/inventory"
	"rstays/internal/domain/pricing"
	"rstays/internal/domain/shared/daterange"
)

func testBooking(t *testing.T) *Booking {
	t.Helper()
	dr, err := daterange.Parse("2026-06-10", "2026-06-13")
	require.NoError(t, err)
	b, err := New(CreateParams{
		ID:        "1234567890",
		ListingID: "listing-1",
		GuestID:   "guest-1",
		HostID:    "host-1",
		Kind:      inventory.KindSingle,
		Range:     dr,
		Guests:    Guests{Adults: 2},
		Units:     []Line{{UnitID: "unit-1", Quantity: 1, Total: 30000}},
		Quote:     pricing.Quote{Currency: "EUR", Total: 30000},
		Policy:    DefaultRefundPolicy(),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	b.ClearEvents()
	return b
}

func TestNewValidation(t *testing.T) {
	valid := func() CreateParams {
		return CreateParams{
			GuestID: "guest-1",
			Guests:  Guests{Adults: 1},
			Units:   []Line{{UnitID: "unit-1"}},
		}
	}

	params := valid()
	params.GuestID = ""
	_, err := New(params)
	assert.ErrorIs(t, err, ErrGuestRequired)

	params = valid()
	params.Guests = Guests{Children: 2}
	_, err = New(params)
	assert.ErrorIs(t, err, ErrNoAdults)

	params = valid()
	params.Units = nil
	_, err = New(params)
	assert.ErrorIs(t, err, ErrNoUnits)
}

func TestGuestsCountedExcludesInfants(t *testing.T) {
	g := Guests{Adults: 2, Children: 1, Infants: 3}
	assert.Equal(t, 3, g.Counted())
}

func TestLifecycleHappyPath(t *testing.T) {
	now := time.Now()
	b := testBooking(t)
	assert.Equal(t, StatePending, b.Status)

	require.NoError(t, b.MarkPaid("pay-1", now))
	assert.Equal(t, StatePaid, b.Status)
	assert.Equal(t, "pay-1", b.PaymentID)

	require.NoError(t, b.Confirm(now))
	assert.Equal(t, StateConfirmed, b.Status)

	require.NoError(t, b.Cancel(0, now))
	assert.Equal(t, StateCancelled, b.Status)
}

func TestLifecycleDecline(t *testing.T) {
	now := time.Now()
	b := testBooking(t)
	require.NoError(t, b.MarkPaid("pay-1", now))
	require.NoError(t, b.Decline(now))
	assert.Equal(t, StateDeclined, b.Status)

	// Declined is terminal.
	assert.ErrorIs(t, b.Cancel(0, now), ErrInvalidState)
	assert.ErrorIs(t, b.Confirm(now), ErrInvalidState)
}

func TestLifecycleInvalidTransitions(t *testing.T) {
	now := time.Now()

	b := testBooking(t)
	assert.ErrorIs(t, b.Confirm(now), ErrInvalidState, "pending cannot confirm")
	assert.ErrorIs(t, b.Decline(now), ErrInvalidState, "pending cannot decline")

	require.NoError(t, b.Cancel(0, now))
	assert.ErrorIs(t, b.Cancel(0, now), ErrInvalidState, "cancelled is terminal")
	assert.ErrorIs(t, b.MarkPaid("pay-1", now), ErrInvalidState)
}

func TestPast(t *testing.T) {
	b := testBooking(t)
	assert.False(t, b.Past(time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)))
	assert.True(t, b.Past(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
}
