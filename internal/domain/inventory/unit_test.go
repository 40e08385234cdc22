package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rstays/internal/domain/pricing"
)

func testUnit() *Unit {
	return &Unit{
		ID:        "unit-1",
		ListingID: "listing-1",
		Guests:    4,
		Prices:    pricing.Prices{Rate: 10000, Currency: "EUR"},
	}
}

func TestUnitReserveAndRelease(t *testing.T) {
	u := testUnit()
	now := time.Now()
	dates := []string{"2026-06-10", "2026-06-11", "2026-06-12"}

	require.NoError(t, u.Available(dates))
	require.NoError(t, u.Reserve(dates, "b-1", SourceDirect, now))

	assert.ErrorIs(t, u.Available(dates), ErrDatesUnavailable)
	assert.ErrorIs(t, u.Available([]string{"2026-06-11"}), ErrDatesUnavailable)
	assert.NoError(t, u.Available([]string{"2026-06-13"}))

	released := u.Release("b-1", now)
	assert.ElementsMatch(t, dates, released)
	assert.NoError(t, u.Available(dates))
	assert.Empty(t, u.Ledger)
}

func TestUnitAvailableIsIdempotent(t *testing.T) {
	u := testUnit()
	dates := []string{"2026-06-10", "2026-06-11"}

	require.NoError(t, u.Available(dates))
	require.NoError(t, u.Available(dates))
	assert.Empty(t, u.Ledger, "availability reads must not mutate the ledger")
}

func TestUnitReserveRejectsOverlap(t *testing.T) {
	u := testUnit()
	now := time.Now()

	require.NoError(t, u.Reserve([]string{"2026-06-10", "2026-06-11"}, "b-1", SourceDirect, now))
	err := u.Reserve([]string{"2026-06-11", "2026-06-12"}, "b-2", SourceDirect, now)
	assert.ErrorIs(t, err, ErrDatesUnavailable)

	// The failed attempt left nothing behind.
	assert.NoError(t, u.Available([]string{"2026-06-12"}))
}

func TestUnitReleaseKeepsPriceOverrides(t *testing.T) {
	u := testUnit()
	now := time.Now()
	override := pricing.Override{Rate: 5000}

	u.SetDayPrice([]string{"2026-06-10"}, override, now)
	require.NoError(t, u.Reserve([]string{"2026-06-10", "2026-06-11"}, "b-1", SourceDirect, now))

	u.Release("b-1", now)

	overrides := u.Overrides([]string{"2026-06-10", "2026-06-11"})
	require.Len(t, overrides, 1)
	assert.Equal(t, "2026-06-10", overrides[0].Date)
	assert.Equal(t, int64(5000), overrides[0].Override.Rate)
	assert.NoError(t, u.Available([]string{"2026-06-10"}))
}

func TestUnitBlockUnblockRoundTrip(t *testing.T) {
	u := testUnit()
	now := time.Now()
	dates := []string{"2026-06-10", "2026-06-11"}
	u.SetDayPrice([]string{"2026-06-10"}, pricing.Override{Percent: 0.8, PercentOfBase: true}, now)

	u.Block(dates, now)
	assert.ErrorIs(t, u.Available(dates), ErrDatesUnavailable)

	u.Unblock(dates, now)
	assert.NoError(t, u.Available(dates))

	// The round trip preserved the override.
	overrides := u.Overrides(dates)
	require.Len(t, overrides, 1)
	assert.Equal(t, 0.8, overrides[0].Override.Percent)
	assert.True(t, overrides[0].Override.PercentOfBase)
}

func TestUnitBlockSkipsBookedDates(t *testing.T) {
	u := testUnit()
	now := time.Now()

	require.NoError(t, u.Reserve([]string{"2026-06-10"}, "b-1", SourceDirect, now))
	u.Block([]string{"2026-06-10", "2026-06-11"}, now)

	u.Unblock([]string{"2026-06-10", "2026-06-11"}, now)
	// The booking survived both the block and the unblock.
	assert.ErrorIs(t, u.Available([]string{"2026-06-10"}), ErrDatesUnavailable)
	assert.NoError(t, u.Available([]string{"2026-06-11"}))
}

func TestUnitClearDayPrice(t *testing.T) {
	u := testUnit()
	now := time.Now()

	u.SetDayPrice([]string{"2026-06-10", "2026-06-11"}, pricing.Override{Rate: 8000}, now)
	require.Len(t, u.Overrides([]string{"2026-06-10", "2026-06-11"}), 2)

	u.ClearDayPrice([]string{"2026-06-10"}, now)
	overrides := u.Overrides([]string{"2026-06-10", "2026-06-11"})
	require.Len(t, overrides, 1)
	assert.Equal(t, "2026-06-11", overrides[0].Date)
}

func TestUnitLedgerStaysSorted(t *testing.T) {
	u := testUnit()
	now := time.Now()

	require.NoError(t, u.Reserve([]string{"2026-06-20"}, "b-1", SourceDirect, now))
	require.NoError(t, u.Reserve([]string{"2026-06-10"}, "b-2", SourceDirect, now))

	require.Len(t, u.Ledger, 2)
	assert.Equal(t, "2026-06-10", u.Ledger[0].Date)
	assert.Equal(t, "2026-06-20", u.Ledger[1].Date)
}
