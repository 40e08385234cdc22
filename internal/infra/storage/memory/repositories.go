package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	domainbooking "rstays/internal/domain/booking"
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpayment "rstays/internal/domain/payment"
	domainpromo "rstays/internal/domain/promo"
)

// ErrConcurrentUpdate mirrors the Mongo store: a save with a stale version
// loses.
var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// ListingRepository keeps listings in memory for dev and tests.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[string]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[string]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id string) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[listing.ID]; ok && existing.Version != listing.Version {
		return ErrConcurrentUpdate
	}
	listing.Version++
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	cp := *l
	cp.Managers = append([]string(nil), l.Managers...)
	cp.PoolIDs = append([]string(nil), l.PoolIDs...)
	cp.ClearEvents()
	return &cp
}

// InventoryRepository keeps both inventory forms in memory.
type InventoryRepository struct {
	mu    sync.RWMutex
	units map[string]*domaininventory.Unit
	pools map[string]*domaininventory.RoomPool
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		units: make(map[string]*domaininventory.Unit),
		pools: make(map[string]*domaininventory.RoomPool),
	}
}

func (r *InventoryRepository) Unit(ctx context.Context, id string) (*domaininventory.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.units[id]
	if !ok {
		return nil, domaininventory.ErrUnitNotFound
	}
	return cloneUnit(unit), nil
}

func (r *InventoryRepository) Pool(ctx context.Context, id string) (*domaininventory.RoomPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[id]
	if !ok {
		return nil, domaininventory.ErrUnitNotFound
	}
	return clonePool(pool), nil
}

func (r *InventoryRepository) SaveUnit(ctx context.Context, unit *domaininventory.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.units[unit.ID]; ok && existing.Version != unit.Version {
		return ErrConcurrentUpdate
	}
	unit.Version++
	r.units[unit.ID] = cloneUnit(unit)
	return nil
}

func (r *InventoryRepository) SavePool(ctx context.Context, pool *domaininventory.RoomPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.pools[pool.ID]; ok && existing.Version != pool.Version {
		return ErrConcurrentUpdate
	}
	pool.Version++
	r.pools[pool.ID] = clonePool(pool)
	return nil
}

func cloneUnit(u *domaininventory.Unit) *domaininventory.Unit {
	cp := *u
	cp.RatePlans = append([]domaininventory.RatePlan(nil), u.RatePlans...)
	cp.Ledger = make([]domaininventory.DayEntry, len(u.Ledger))
	for i, entry := range u.Ledger {
		cp.Ledger[i] = entry
		if entry.Price != nil {
			price := *entry.Price
			cp.Ledger[i].Price = &price
		}
	}
	cp.ClearEvents()
	return &cp
}

func clonePool(p *domaininventory.RoomPool) *domaininventory.RoomPool {
	cp := *p
	cp.RatePlans = append([]domaininventory.RatePlan(nil), p.RatePlans...)
	cp.Rooms = append([]int(nil), p.Rooms...)
	cp.Ledger = make([]domaininventory.PoolDayEntry, len(p.Ledger))
	for i, entry := range p.Ledger {
		cp.Ledger[i] = entry
		if entry.Price != nil {
			price := *entry.Price
			cp.Ledger[i].Price = &price
		}
		cp.Ledger[i].Claims = make([]domaininventory.Claim, len(entry.Claims))
		for j, claim := range entry.Claims {
			cp.Ledger[i].Claims[j] = claim
			cp.Ledger[i].Claims[j].Numbers = append([]int(nil), claim.Numbers...)
		}
	}
	cp.ClearEvents()
	return &cp
}

// BookingRepository keeps bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[string]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[string]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id string) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[booking.ID]; ok && existing.Version != booking.Version {
		return ErrConcurrentUpdate
	}
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.ListingID == listingID })
}

func (r *BookingRepository) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, booking := range r.items {
		if match(booking) {
			out = append(out, cloneBooking(booking))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.Units = make([]domainbooking.Line, len(b.Units))
	for i, line := range b.Units {
		cp.Units[i] = line
		cp.Units[i].Rooms = append([]int(nil), line.Rooms...)
	}
	cp.Discounts = append(cp.Discounts[:0:0], b.Discounts...)
	cp.Services = append(cp.Services[:0:0], b.Services...)
	cp.Taxes = append(cp.Taxes[:0:0], b.Taxes...)
	cp.ClearEvents()
	return &cp
}

// PaymentRepository keeps payments in memory, indexed by booking id.
type PaymentRepository struct {
	mu        sync.RWMutex
	byBooking map[string]*domainpayment.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{byBooking: make(map[string]*domainpayment.Payment)}
}

func (r *PaymentRepository) ByBookingID(ctx context.Context, bookingID string) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domainpayment.ErrPaymentNotFound
	}
	cp := *payment
	cp.ClearEvents()
	return &cp, nil
}

func (r *PaymentRepository) Save(ctx context.Context, payment *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byBooking[payment.BookingID]; ok && existing.Version != payment.Version {
		return ErrConcurrentUpdate
	}
	payment.Version++
	cp := *payment
	cp.ClearEvents()
	r.byBooking[payment.BookingID] = &cp
	return nil
}

// PromoRepository keeps promo codes in memory.
type PromoRepository struct {
	mu    sync.RWMutex
	items map[string]*domainpromo.Promo
}

func NewPromoRepository() *PromoRepository {
	return &PromoRepository{items: make(map[string]*domainpromo.Promo)}
}

func (r *PromoRepository) ByCode(ctx context.Context, code string) (*domainpromo.Promo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	promo, ok := r.items[code]
	if !ok {
		return nil, domainpromo.ErrPromoNotFound
	}
	cp := *promo
	return &cp, nil
}

func (r *PromoRepository) Save(ctx context.Context, promo *domainpromo.Promo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[promo.Code]; ok && existing.Version != promo.Version {
		return ErrConcurrentUpdate
	}
	promo.Version++
	cp := *promo
	r.items[promo.Code] = &cp
	return nil
}

// CalendarRepository keeps guest calendars in memory.
type CalendarRepository struct {
	mu    sync.RWMutex
	items map[string]*domaincalendars.GuestCalendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{items: make(map[string]*domaincalendars.GuestCalendar)}
}

func (r *CalendarRepository) ByUser(ctx context.Context, userID string) (*domaincalendars.GuestCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.items[userID]
	if !ok {
		return nil, domaincalendars.ErrCalendarNotFound
	}
	cp := *cal
	cp.Entries = append([]domaincalendars.Entry(nil), cal.Entries...)
	return &cp, nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendars.GuestCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[cal.UserID]; ok && existing.Version != cal.Version {
		return ErrConcurrentUpdate
	}
	cal.Version++
	cp := *cal
	cp.Entries = append([]domaincalendars.Entry(nil), cal.Entries...)
	r.items[cal.UserID] = &cp
	return nil
}
