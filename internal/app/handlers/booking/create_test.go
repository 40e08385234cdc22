package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rstays/internal/domain/booking"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpricing "rstays/internal/domain/pricing"
	domainpromo "rstays/internal/domain/promo"
	"rstays/internal/infra/storage/memory"
)

type noHolidays struct{}

func (noHolidays) IsWeekend(ctx context.Context, days []string) ([]string, error) {
	return nil, nil
}

func (noHolidays) FindHolidayDaysInRange(ctx context.Context, rules []domainpricing.HolidayRule, days []string) ([]domainpricing.HolidayDay, error) {
	return nil, nil
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	factory memory.Factory
	outbox  *memory.Outbox
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()

	single, err := domainlistings.New(domainlistings.CreateParams{
		ID: "L1", HostID: "host-1", Title: "Seaside cottage",
		Country: "PT", City: "Lagos",
		Kind: domaininventory.KindSingle, UnitID: "unit-1", Now: testNow,
	})
	require.NoError(t, err)
	single.Activate(testNow)
	single.ClearEvents()
	require.NoError(t, factory.ListingsRepo.Save(ctx, single))

	pooled, err := domainlistings.New(domainlistings.CreateParams{
		ID: "L2", HostID: "host-1", Title: "Old town guesthouse",
		Country: "PT", City: "Porto",
		Kind: domaininventory.KindPool, PoolIDs: []string{"pool-1"}, Now: testNow,
	})
	require.NoError(t, err)
	pooled.Activate(testNow)
	pooled.ClearEvents()
	require.NoError(t, factory.ListingsRepo.Save(ctx, pooled))

	require.NoError(t, factory.InventoryRepo.SaveUnit(ctx, &domaininventory.Unit{
		ID: "unit-1", ListingID: "L1", Guests: 4,
		Requirements: domaininventory.Requirements{MinNights: 2, MaxNights: 30},
		Prices:       domainpricing.Prices{Rate: 10000, Currency: "EUR"},
		Cancellation: domaininventory.CancellationTerms{Days: 7, Percent: 0.5},
	}))
	require.NoError(t, factory.InventoryRepo.SavePool(ctx, &domaininventory.RoomPool{
		ID: "pool-1", ListingID: "L2", Guests: 2,
		Rooms:  []int{1, 2, 3, 4, 5},
		Prices: domainpricing.Prices{Rate: 6500, Currency: "EUR"},
	}))

	require.NoError(t, factory.PromosRepo.Save(ctx, &domainpromo.Promo{
		Code: "WELCOME20", Discount: 20,
		ExpiresAt: testNow.AddDate(1, 0, 0), UsageLimit: 10,
	}))

	return env{factory: factory, outbox: memory.NewOutbox()}
}

func (e env) createHandler() *CreateHandler {
	return &CreateHandler{
		UoWFactory: e.factory,
		Holidays:   noHolidays{},
		Outbox:     e.outbox,
		Now:        clock(testNow),
	}
}

func singleCommand() CreateCommand {
	return CreateCommand{
		CommandID: "cmd-1",
		ListingID: "L1",
		GuestID:   "guest-1",
		CheckIn:   "2026-06-10",
		CheckOut:  "2026-06-13",
		Guests:    domainbooking.Guests{Adults: 2},
		Currency:  "EUR",
		Selections: []SelectionInput{
			{UnitID: "unit-1", Quantity: 1},
		},
	}
}

func TestCreateBookingSingleUnit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	result, err := e.createHandler().Handle(ctx, singleCommand())
	require.NoError(t, err)

	view := result.Booking
	assert.Len(t, view.ID, domainbooking.BookingIDDigits)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, int64(30000), view.Total)
	assert.Equal(t, "EUR", view.Currency)

	stored, err := e.factory.BookingsRepo.ByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.RefundPolicy{Days: 7, Percent: 0.5}, stored.Policy)
	assert.Equal(t, "host-1", stored.HostID)

	unit, err := e.factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Available([]string{"2026-06-11"}), domaininventory.ErrDatesUnavailable)
	assert.NoError(t, unit.Available([]string{"2026-06-13"}), "checkout day stays free")

	cal, err := e.factory.CalendarsRepo.ByUser(ctx, "guest-1")
	require.NoError(t, err)
	require.Len(t, cal.Entries, 1)
	assert.Equal(t, view.ID, cal.Entries[0].BookingID)

	assert.NotEmpty(t, e.outbox.Records(), "domain events must reach the outbox")
}

func TestCreateBookingValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.createHandler()

	run := func(mutate func(*CreateCommand)) error {
		cmd := singleCommand()
		mutate(&cmd)
		_, err := h.Handle(ctx, cmd)
		return err
	}

	assert.ErrorIs(t, run(func(c *CreateCommand) { c.ListingID = "nope" }), domainlistings.ErrListingNotFound)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.GuestID = "host-1" }), ErrSelfBooking)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.Selections = nil }), ErrNoSelections)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.Selections[0].UnitID = "pool-1" }), ErrUnitNotOfListing)
	assert.Error(t, run(func(c *CreateCommand) { c.CheckIn = "garbage" }))
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.CheckIn = "2026-05-01"; c.CheckOut = "2026-05-03" }), ErrCheckInPast)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.CheckOut = "2026-06-11" }), ErrNightsOutOfRange)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.Guests = domainbooking.Guests{Children: 2} }), domainbooking.ErrNoAdults)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.Guests = domainbooking.Guests{Adults: 5} }), ErrCapacityExceeded)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.PromoCode = "nope" }), domainpromo.ErrPromoNotFound)
	assert.ErrorIs(t, run(func(c *CreateCommand) { c.Selections[0].Quantity = 2 }), domaininventory.ErrQuantityInvalid)

	// None of the rejected commands left ledger rows behind.
	unit, err := e.factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Empty(t, unit.Ledger)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.createHandler()

	_, err := h.Handle(ctx, singleCommand())
	require.NoError(t, err)

	overlap := singleCommand()
	overlap.GuestID = "guest-2"
	overlap.CheckIn = "2026-06-12"
	overlap.CheckOut = "2026-06-14"
	_, err = h.Handle(ctx, overlap)
	assert.ErrorIs(t, err, domaininventory.ErrDatesUnavailable)

	adjacent := singleCommand()
	adjacent.GuestID = "guest-2"
	adjacent.CheckIn = "2026-06-13"
	adjacent.CheckOut = "2026-06-15"
	_, err = h.Handle(ctx, adjacent)
	assert.NoError(t, err, "back-to-back stays share the checkout day")
}

func TestCreateBookingPoolCapacity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.createHandler()

	cmd := CreateCommand{
		CommandID: "cmd-1",
		ListingID: "L2",
		GuestID:   "guest-1",
		CheckIn:   "2026-06-10",
		CheckOut:  "2026-06-12",
		Guests:    domainbooking.Guests{Adults: 2},
		Currency:  "EUR",
		Selections: []SelectionInput{
			{UnitID: "pool-1", Quantity: 3},
		},
	}
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.Len(t, result.Booking.Units, 1)
	assert.Equal(t, []int{1, 2, 3}, result.Booking.Units[0].Rooms)

	// Two rooms remain; another party of three is rejected whole.
	cmd.GuestID = "guest-2"
	_, err = h.Handle(ctx, cmd)
	assert.ErrorIs(t, err, domaininventory.ErrInsufficientRooms)

	cmd.Selections[0].Quantity = 2
	result, err = h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, result.Booking.Units[0].Rooms)
}

func TestCreateBookingPromo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.createHandler()

	cmd := singleCommand()
	cmd.PromoCode = "WELCOME20"

	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(24000), result.Booking.Total)

	promo, err := e.factory.PromosRepo.ByCode(ctx, "WELCOME20")
	require.NoError(t, err)
	assert.Equal(t, 1, promo.Used)
}

func TestCreateBookingUsesDateOverrides(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	unit, err := e.factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	unit.SetDayPrice([]string{"2026-06-10"}, domainpricing.Override{Rate: 5000, Currency: "EUR"}, testNow)
	unit.ClearEvents()
	require.NoError(t, e.factory.InventoryRepo.SaveUnit(ctx, unit))

	result, err := e.createHandler().Handle(ctx, singleCommand())
	require.NoError(t, err)
	assert.Equal(t, int64(25000), result.Booking.Total)
}
