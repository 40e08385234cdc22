package inventory

import (
	"sort"
	"time"

	"rstays/internal/domain/pricing"
	"rstays/internal/domain/shared/events"
)

// PoolDayEntry is one ledger row of a room pool: the claims holding specific
// room numbers on that date, plus an optional price override.
type PoolDayEntry struct {
	Date   string            `bson:"date"`
	Claims []Claim           `bson:"units"`
	Price  *pricing.Override `bson:"price,omitempty"`
	Notes  string            `bson:"notes,omitempty"`
}

// RoomPool is the pooled-inventory form: a class of interchangeable rooms
// numbered 1..N under one listing.
type RoomPool struct {
	ID           string
	ListingID    string
	Guests       int // per room
	CheckInTime  string
	CheckOutTime string
	Requirements Requirements
	Prices       pricing.Prices
	Rules        pricing.Rules
	Cancellation CancellationTerms
	RatePlans    []RatePlan
	Rooms        []int
	Ledger       []PoolDayEntry
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

// Capacity is the total number of rooms in the pool.
func (p *RoomPool) Capacity() int {
	return len(p.Rooms)
}

func (p *RoomPool) entry(date string) *PoolDayEntry {
	for i := range p.Ledger {
		if p.Ledger[i].Date == date {
			return &p.Ledger[i]
		}
	}
	return nil
}

func (p *RoomPool) claimed(date string) map[int]bool {
	taken := map[int]bool{}
	entry := p.entry(date)
	if entry == nil {
		return taken
	}
	for _, claim := range entry.Claims {
		for _, number := range claim.Numbers {
			taken[number] = true
		}
	}
	return taken
}

// FreeRooms resolves the room numbers free on every requested date: the
// intersection of each day's free set, in room-number order.
func (p *RoomPool) FreeRooms(dates []string) []int {
	free := append([]int(nil), p.Rooms...)
	sort.Ints(free)
	for _, date := range dates {
		taken := p.claimed(date)
		next := free[:0]
		for _, number := range free {
			if !taken[number] {
				next = append(next, number)
			}
		}
		free = next
		if len(free) == 0 {
			break
		}
	}
	return free
}

// Overrides returns the price overrides covering any of the given dates.
func (p *RoomPool) Overrides(dates []string) []pricing.DatedOverride {
	var out []pricing.DatedOverride
	for _, date := range dates {
		entry := p.entry(date)
		if entry == nil {
			continue
		}
		if ov, ok := overrideFor(entry.Price, entry.Date); ok {
			out = append(out, ov)
		}
	}
	return out
}

// Reserve allocates quantity rooms across every date for the booking and
// returns the allocated numbers. Allocation is first-fit in room-number
// order; no optimization beyond feasibility.
func (p *RoomPool) Reserve(dates []string, quantity int, bookingID, source string, now time.Time) ([]int, error) {
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}
	if len(dates) == 0 {
		return nil, ErrNoDates
	}
	free := p.FreeRooms(dates)
	if len(free) < quantity {
		p.Record(OverbookingPrevented{UnitID: p.ID, Dates: dates, At: now.UTC()})
		return nil, ErrInsufficientRooms
	}
	allocated := append([]int(nil), free[:quantity]...)
	claim := Claim{Numbers: allocated, BookingID: bookingID, Source: source}
	for _, date := range dates {
		if entry := p.entry(date); entry != nil {
			entry.Claims = append(entry.Claims, claim)
			continue
		}
		p.Ledger = append(p.Ledger, PoolDayEntry{Date: date, Claims: []Claim{claim}})
	}
	p.sortLedger()
	p.touch(now)
	p.Record(InventoryReserved{UnitID: p.ID, BookingID: bookingID, Dates: dates, Rooms: allocated, At: now.UTC()})
	return allocated, nil
}

// Release drops every claim this booking holds and returns the affected
// dates. Rows left with no claims disappear unless they carry a price
// override.
func (p *RoomPool) Release(bookingID string, now time.Time) []string {
	var released []string
	kept := p.Ledger[:0]
	for _, entry := range p.Ledger {
		claims := entry.Claims[:0]
		removed := false
		for _, claim := range entry.Claims {
			if claim.BookingID == bookingID {
				removed = true
				continue
			}
			claims = append(claims, claim)
		}
		entry.Claims = claims
		if removed {
			released = append(released, entry.Date)
		}
		if len(entry.Claims) == 0 && entry.Price == nil {
			continue
		}
		kept = append(kept, entry)
	}
	p.Ledger = kept
	if len(released) > 0 {
		p.touch(now)
		p.Record(InventoryReleased{UnitID: p.ID, BookingID: bookingID, Dates: released, At: now.UTC()})
	}
	return released
}

// Block claims count free rooms per date under the host-block sentinel.
func (p *RoomPool) Block(dates []string, count int, now time.Time) error {
	if count <= 0 {
		return ErrQuantityInvalid
	}
	for _, date := range dates {
		taken := p.claimed(date)
		var free []int
		for _, number := range p.Rooms {
			if !taken[number] {
				free = append(free, number)
			}
		}
		if len(free) == 0 {
			continue
		}
		if len(free) > count {
			free = free[:count]
		}
		claim := Claim{Numbers: free, BookingID: BlockedReference, Source: SourceDirect}
		if entry := p.entry(date); entry != nil {
			entry.Claims = append(entry.Claims, claim)
			continue
		}
		p.Ledger = append(p.Ledger, PoolDayEntry{Date: date, Claims: []Claim{claim}})
	}
	p.sortLedger()
	p.touch(now)
	p.Record(DatesBlocked{UnitID: p.ID, Dates: dates, At: now.UTC()})
	return nil
}

// Unblock removes count blocked rooms per date. Booking claims are never
// touched; price overrides survive emptied rows.
func (p *RoomPool) Unblock(dates []string, count int, now time.Time) error {
	if count <= 0 {
		return ErrQuantityInvalid
	}
	for _, date := range dates {
		entry := p.entry(date)
		if entry == nil {
			continue
		}
		remaining := count
		claims := entry.Claims[:0]
		for _, claim := range entry.Claims {
			if claim.BookingID == BlockedReference && remaining > 0 {
				drop := remaining
				if drop > len(claim.Numbers) {
					drop = len(claim.Numbers)
				}
				claim.Numbers = claim.Numbers[:len(claim.Numbers)-drop]
				remaining -= drop
			}
			if len(claim.Numbers) > 0 {
				claims = append(claims, claim)
			}
		}
		entry.Claims = claims
	}
	kept := p.Ledger[:0]
	for _, entry := range p.Ledger {
		if len(entry.Claims) == 0 && entry.Price == nil {
			continue
		}
		kept = append(kept, entry)
	}
	p.Ledger = kept
	p.touch(now)
	p.Record(DatesUnblocked{UnitID: p.ID, Dates: dates, At: now.UTC()})
	return nil
}

// SetDayPrice installs or replaces a price override on each date.
func (p *RoomPool) SetDayPrice(dates []string, override pricing.Override, now time.Time) {
	for _, date := range dates {
		if entry := p.entry(date); entry != nil {
			ov := override
			entry.Price = &ov
			continue
		}
		ov := override
		p.Ledger = append(p.Ledger, PoolDayEntry{Date: date, Price: &ov})
	}
	p.sortLedger()
	p.touch(now)
	p.Record(DayPriceAdjusted{UnitID: p.ID, Dates: dates, At: now.UTC()})
}

// ClearDayPrice drops overrides; rows with no claims left are removed.
func (p *RoomPool) ClearDayPrice(dates []string, now time.Time) {
	requested := make(map[string]bool, len(dates))
	for _, date := range dates {
		requested[date] = true
	}
	kept := p.Ledger[:0]
	for _, entry := range p.Ledger {
		if requested[entry.Date] {
			entry.Price = nil
			if len(entry.Claims) == 0 {
				continue
			}
		}
		kept = append(kept, entry)
	}
	p.Ledger = kept
	p.touch(now)
}

// Plan resolves a rate plan by id.
func (p *RoomPool) Plan(id string) (RatePlan, bool) {
	return planFor(p.RatePlans, id)
}

func (p *RoomPool) sortLedger() {
	sort.Slice(p.Ledger, func(i, j int) bool { return p.Ledger[i].Date < p.Ledger[j].Date })
}

func (p *RoomPool) touch(now time.Time) {
	p.UpdatedAt = now.UTC()
}
