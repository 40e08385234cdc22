package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpricing "rstays/internal/domain/pricing"
	"rstays/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func newFactory(t *testing.T) memory.Factory {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()

	single, err := domainlistings.New(domainlistings.CreateParams{
		ID: "L1", HostID: "host-1", Title: "Seaside cottage",
		Kind: domaininventory.KindSingle, UnitID: "unit-1", Now: testNow,
	})
	require.NoError(t, err)
	single.Activate(testNow)
	single.ClearEvents()
	require.NoError(t, factory.ListingsRepo.Save(ctx, single))

	pooled, err := domainlistings.New(domainlistings.CreateParams{
		ID: "L2", HostID: "host-1", Title: "Old town guesthouse",
		Kind: domaininventory.KindPool, PoolIDs: []string{"pool-1"}, Now: testNow,
	})
	require.NoError(t, err)
	pooled.Activate(testNow)
	pooled.ClearEvents()
	require.NoError(t, factory.ListingsRepo.Save(ctx, pooled))

	require.NoError(t, factory.InventoryRepo.SaveUnit(ctx, &domaininventory.Unit{
		ID: "unit-1", ListingID: "L1", Guests: 4,
		Prices: domainpricing.Prices{Rate: 10000, Currency: "EUR"},
	}))
	require.NoError(t, factory.InventoryRepo.SavePool(ctx, &domaininventory.RoomPool{
		ID: "pool-1", ListingID: "L2", Guests: 2,
		Rooms:  []int{1, 2, 3},
		Prices: domainpricing.Prices{Rate: 6500, Currency: "EUR"},
	}))

	return factory
}

func TestBlockAndUnblockUnit(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	outbox := memory.NewOutbox()
	dates := []string{"2026-06-10", "2026-06-11"}

	block := &BlockHandler{UoWFactory: factory, Outbox: outbox, Now: clock}
	result, err := block.Handle(ctx, BlockCommand{
		CommandID: "cmd-1", ListingID: "L1", UnitID: "unit-1", UserID: "host-1", Dates: dates,
	})
	require.NoError(t, err)
	assert.Equal(t, "unit-1", result.UnitID)

	unit, err := factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Available(dates), domaininventory.ErrDatesUnavailable)

	unblock := &UnblockHandler{UoWFactory: factory, Outbox: outbox, Now: clock}
	_, err = unblock.Handle(ctx, UnblockCommand{
		CommandID: "cmd-2", ListingID: "L1", UnitID: "unit-1", UserID: "host-1", Dates: dates,
	})
	require.NoError(t, err)

	unit, err = factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.NoError(t, unit.Available(dates))
}

func TestBlockPoolDefaultsToFullCapacity(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	dates := []string{"2026-06-10"}

	block := &BlockHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: clock}
	_, err := block.Handle(ctx, BlockCommand{
		CommandID: "cmd-1", ListingID: "L2", UnitID: "pool-1", UserID: "host-1", Dates: dates,
	})
	require.NoError(t, err)

	pool, err := factory.InventoryRepo.Pool(ctx, "pool-1")
	require.NoError(t, err)
	assert.Empty(t, pool.FreeRooms(dates))
}

func TestBlockPoolPartialCount(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	dates := []string{"2026-06-10"}

	block := &BlockHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: clock}
	_, err := block.Handle(ctx, BlockCommand{
		CommandID: "cmd-1", ListingID: "L2", UnitID: "pool-1", UserID: "host-1", Dates: dates, Count: 2,
	})
	require.NoError(t, err)

	pool, err := factory.InventoryRepo.Pool(ctx, "pool-1")
	require.NoError(t, err)
	assert.Len(t, pool.FreeRooms(dates), 1)
}

func TestMutationAuthorization(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	block := &BlockHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: clock}

	_, err := block.Handle(ctx, BlockCommand{
		ListingID: "L1", UnitID: "unit-1", UserID: "stranger", Dates: []string{"2026-06-10"},
	})
	assert.ErrorIs(t, err, ErrNotManager)

	_, err = block.Handle(ctx, BlockCommand{
		ListingID: "L1", UnitID: "pool-1", UserID: "host-1", Dates: []string{"2026-06-10"},
	})
	assert.ErrorIs(t, err, domaininventory.ErrUnitNotFound)

	_, err = block.Handle(ctx, BlockCommand{
		ListingID: "L1", UnitID: "unit-1", UserID: "host-1",
	})
	assert.ErrorIs(t, err, domaininventory.ErrNoDates)

	_, err = block.Handle(ctx, BlockCommand{
		ListingID: "L1", UnitID: "unit-1", UserID: "host-1", Dates: []string{"June 10th"},
	})
	assert.Error(t, err)
}

func TestPricesSetAndReset(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	dates := []string{"2026-06-10", "2026-06-11"}

	prices := &PricesHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: clock}
	_, err := prices.Handle(ctx, PricesCommand{
		CommandID: "cmd-1", ListingID: "L1", UnitID: "unit-1", UserID: "host-1",
		Dates: dates, Rate: 5000, Currency: "EUR",
	})
	require.NoError(t, err)

	unit, err := factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	overrides := unit.Overrides(dates)
	require.Len(t, overrides, 2)
	assert.Equal(t, int64(5000), overrides[0].Override.Rate)

	_, err = prices.Handle(ctx, PricesCommand{
		CommandID: "cmd-2", ListingID: "L1", UnitID: "unit-1", UserID: "host-1",
		Dates: []string{"2026-06-10"}, Reset: true,
	})
	require.NoError(t, err)

	unit, err = factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	require.Len(t, unit.Overrides(dates), 1)
}

func TestPricesRequiresRateOrPercent(t *testing.T) {
	factory := newFactory(t)
	prices := &PricesHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: clock}

	_, err := prices.Handle(context.Background(), PricesCommand{
		ListingID: "L1", UnitID: "unit-1", UserID: "host-1", Dates: []string{"2026-06-10"},
	})
	assert.ErrorIs(t, err, ErrPriceRequired)
}

func TestPricesPercentOfBase(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()

	prices := &PricesHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: clock}
	_, err := prices.Handle(ctx, PricesCommand{
		CommandID: "cmd-1", ListingID: "L1", UnitID: "unit-1", UserID: "host-1",
		Dates: []string{"2026-06-10"}, Percent: 0.8, PercentOfBase: true,
	})
	require.NoError(t, err)

	unit, err := factory.InventoryRepo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	overrides := unit.Overrides([]string{"2026-06-10"})
	require.Len(t, overrides, 1)
	assert.Equal(t, 0.8, overrides[0].Override.Percent)
	assert.True(t, overrides[0].Override.PercentOfBase)
}
