package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rstays/internal/domain/booking"
	domaininventory "rstays/internal/domain/inventory"
	"rstays/internal/domain/pricing"
)

func seedUnit(t *testing.T, repo *InventoryRepository) {
	t.Helper()
	err := repo.SaveUnit(context.Background(), &domaininventory.Unit{
		ID:        "unit-1",
		ListingID: "listing-1",
		Guests:    4,
		Prices:    pricing.Prices{Rate: 10000, Currency: "EUR"},
	})
	require.NoError(t, err)
}

func TestInventoryRepositoryNotFound(t *testing.T) {
	repo := NewInventoryRepository()
	_, err := repo.Unit(context.Background(), "missing")
	assert.ErrorIs(t, err, domaininventory.ErrUnitNotFound)
	_, err = repo.Pool(context.Background(), "missing")
	assert.ErrorIs(t, err, domaininventory.ErrUnitNotFound)
}

func TestInventoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewInventoryRepository()
	seedUnit(t, repo)
	ctx := context.Background()

	first, err := repo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	first.Ledger = append(first.Ledger, domaininventory.DayEntry{Date: "2026-06-10", BookingID: "b-1"})

	second, err := repo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Empty(t, second.Ledger, "mutating a loaded aggregate must not leak into the store")
}

func TestInventoryRepositoryRejectsStaleWrites(t *testing.T) {
	repo := NewInventoryRepository()
	seedUnit(t, repo)
	ctx := context.Background()
	now := time.Now()

	a, err := repo.Unit(ctx, "unit-1")
	require.NoError(t, err)
	b, err := repo.Unit(ctx, "unit-1")
	require.NoError(t, err)

	require.NoError(t, a.Reserve([]string{"2026-06-10"}, "b-1", domaininventory.SourceDirect, now))
	require.NoError(t, repo.SaveUnit(ctx, a))

	require.NoError(t, b.Reserve([]string{"2026-06-10"}, "b-2", domaininventory.SourceDirect, now))
	assert.ErrorIs(t, repo.SaveUnit(ctx, b), ErrConcurrentUpdate)
}

func TestNoDoubleAllocationUnderConcurrentReserves(t *testing.T) {
	repo := NewInventoryRepository()
	ctx := context.Background()
	now := time.Now()
	dates := []string{"2026-06-10", "2026-06-11"}

	err := repo.SavePool(ctx, &domaininventory.RoomPool{
		ID:        "pool-1",
		ListingID: "listing-1",
		Guests:    2,
		Rooms:     []int{1, 2, 3, 4, 5},
		Prices:    pricing.Prices{Rate: 6500, Currency: "EUR"},
	})
	require.NoError(t, err)

	const workers = 16
	const perBooking = 2

	var wg sync.WaitGroup
	successes := make(chan string, workers)
	for i := 0; i < workers; i++ {
		bookingID := domainbooking.NumericID(domainbooking.BookingIDDigits)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 10; attempt++ {
				pool, err := repo.Pool(ctx, "pool-1")
				if err != nil {
					return
				}
				if _, err := pool.Reserve(dates, perBooking, bookingID, domaininventory.SourceDirect, now); err != nil {
					return // capacity gone, a legitimate loss
				}
				err = repo.SavePool(ctx, pool)
				if err == nil {
					successes <- bookingID
					return
				}
				if !errors.Is(err, ErrConcurrentUpdate) {
					return
				}
				// Stale snapshot: reload and retry.
			}
		}()
	}
	wg.Wait()
	close(successes)

	var winners []string
	for id := range successes {
		winners = append(winners, id)
	}
	// Five rooms, two per booking: at most two bookings can win.
	require.LessOrEqual(t, len(winners), 2)
	require.NotEmpty(t, winners)

	final, err := repo.Pool(ctx, "pool-1")
	require.NoError(t, err)
	for _, date := range dates {
		claimed := map[int]string{}
		for _, entry := range final.Ledger {
			if entry.Date != date {
				continue
			}
			for _, claim := range entry.Claims {
				for _, number := range claim.Numbers {
					prev, taken := claimed[number]
					require.False(t, taken, "room %d on %s allocated to both %s and %s", number, date, prev, claim.BookingID)
					claimed[number] = claim.BookingID
				}
			}
		}
		assert.Len(t, claimed, len(winners)*perBooking)
	}
}

func TestBookingRepositoryDuplicateAndLists(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	_, err := repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	first := &domainbooking.Booking{ID: "1111111111", ListingID: "listing-1", GuestID: "guest-1"}
	require.NoError(t, repo.Save(ctx, first))

	byGuest, err := repo.ListByGuest(ctx, "guest-1")
	require.NoError(t, err)
	assert.Len(t, byGuest, 1)

	byListing, err := repo.ListByListing(ctx, "listing-1")
	require.NoError(t, err)
	assert.Len(t, byListing, 1)

	// A second aggregate claiming the same id at version zero collides.
	dup := &domainbooking.Booking{ID: "1111111111", ListingID: "listing-2", GuestID: "guest-2"}
	assert.ErrorIs(t, repo.Save(ctx, dup), ErrConcurrentUpdate)
}

func TestBookingRepositoryVersionBumpsOnSave(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	b := &domainbooking.Booking{ID: "2222222222", GuestID: "guest-1"}
	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	loaded, err := repo.ByID(ctx, "2222222222")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)
}
