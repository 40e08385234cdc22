package inventory

import (
	"sort"
	"time"

	"rstays/internal/domain/pricing"
	"rstays/internal/domain/shared/events"
)

// DayEntry is one sparse ledger row of a single unit. A row with a BookingID
// is occupied; a row carrying only a price override leaves the date free.
type DayEntry struct {
	Date      string            `bson:"date"`
	BookingID string            `bson:"booking_id,omitempty"`
	Source    string            `bson:"source,omitempty"`
	Price     *pricing.Override `bson:"price,omitempty"`
	Notes     string            `bson:"notes,omitempty"`
}

// Unit is the single-inventory form: one rentable entity per listing. The
// ledger holds at most one entry per date, ordered by date.
type Unit struct {
	ID           string
	ListingID    string
	Guests       int
	CheckInTime  string
	CheckOutTime string
	Requirements Requirements
	Prices       pricing.Prices
	Rules        pricing.Rules
	Cancellation CancellationTerms
	RatePlans    []RatePlan
	Ledger       []DayEntry
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

func (u *Unit) entry(date string) *DayEntry {
	for i := range u.Ledger {
		if u.Ledger[i].Date == date {
			return &u.Ledger[i]
		}
	}
	return nil
}

// Available reports whether every requested date is free of bookings.
// Price-only entries do not occupy a date.
func (u *Unit) Available(dates []string) error {
	if len(dates) == 0 {
		return ErrNoDates
	}
	for _, date := range dates {
		if entry := u.entry(date); entry != nil && entry.BookingID != "" {
			return ErrDatesUnavailable
		}
	}
	return nil
}

// Overrides returns the price overrides covering any of the given dates.
func (u *Unit) Overrides(dates []string) []pricing.DatedOverride {
	var out []pricing.DatedOverride
	for _, date := range dates {
		entry := u.entry(date)
		if entry == nil {
			continue
		}
		if ov, ok := overrideFor(entry.Price, entry.Date); ok {
			out = append(out, ov)
		}
	}
	return out
}

// Reserve claims every date for the booking. Existing price-only entries are
// occupied in place so the override survives a later release.
func (u *Unit) Reserve(dates []string, bookingID, source string, now time.Time) error {
	if err := u.Available(dates); err != nil {
		u.Record(OverbookingPrevented{UnitID: u.ID, Dates: dates, At: now.UTC()})
		return err
	}
	for _, date := range dates {
		if entry := u.entry(date); entry != nil {
			entry.BookingID = bookingID
			entry.Source = source
			continue
		}
		u.Ledger = append(u.Ledger, DayEntry{Date: date, BookingID: bookingID, Source: source})
	}
	u.sortLedger()
	u.touch(now)
	u.Record(InventoryReserved{UnitID: u.ID, BookingID: bookingID, Dates: dates, At: now.UTC()})
	return nil
}

// Release removes exactly the rows this booking claimed. Rows that also carry
// a price override stay, with the booking fields cleared.
func (u *Unit) Release(bookingID string, now time.Time) []string {
	var released []string
	kept := u.Ledger[:0]
	for _, entry := range u.Ledger {
		if entry.BookingID != bookingID {
			kept = append(kept, entry)
			continue
		}
		released = append(released, entry.Date)
		if entry.Price != nil {
			entry.BookingID = ""
			entry.Source = ""
			kept = append(kept, entry)
		}
	}
	u.Ledger = kept
	if len(released) > 0 {
		u.touch(now)
		u.Record(InventoryReleased{UnitID: u.ID, BookingID: bookingID, Dates: released, At: now.UTC()})
	}
	return released
}

// Block marks dates unavailable with the host-block sentinel. Dates already
// booked are left untouched.
func (u *Unit) Block(dates []string, now time.Time) {
	var blocked []string
	for _, date := range dates {
		if entry := u.entry(date); entry != nil {
			if entry.BookingID != "" {
				continue
			}
			entry.BookingID = BlockedReference
			entry.Source = SourceDirect
			blocked = append(blocked, date)
			continue
		}
		u.Ledger = append(u.Ledger, DayEntry{Date: date, BookingID: BlockedReference, Source: SourceDirect})
		blocked = append(blocked, date)
	}
	if len(blocked) > 0 {
		u.sortLedger()
		u.touch(now)
		u.Record(DatesBlocked{UnitID: u.ID, Dates: blocked, At: now.UTC()})
	}
}

// Unblock removes host blocks on the given dates. Bookings are never removed
// this way, and price overrides survive.
func (u *Unit) Unblock(dates []string, now time.Time) {
	requested := make(map[string]bool, len(dates))
	for _, date := range dates {
		requested[date] = true
	}
	var unblocked []string
	kept := u.Ledger[:0]
	for _, entry := range u.Ledger {
		if !requested[entry.Date] || entry.BookingID != BlockedReference {
			kept = append(kept, entry)
			continue
		}
		unblocked = append(unblocked, entry.Date)
		if entry.Price != nil {
			entry.BookingID = ""
			entry.Source = ""
			kept = append(kept, entry)
		}
	}
	u.Ledger = kept
	if len(unblocked) > 0 {
		u.touch(now)
		u.Record(DatesUnblocked{UnitID: u.ID, Dates: unblocked, At: now.UTC()})
	}
}

// SetDayPrice installs or replaces a price override on each date.
func (u *Unit) SetDayPrice(dates []string, override pricing.Override, now time.Time) {
	for _, date := range dates {
		if entry := u.entry(date); entry != nil {
			ov := override
			entry.Price = &ov
			continue
		}
		ov := override
		u.Ledger = append(u.Ledger, DayEntry{Date: date, Price: &ov})
	}
	u.sortLedger()
	u.touch(now)
	u.Record(DayPriceAdjusted{UnitID: u.ID, Dates: dates, At: now.UTC()})
}

// ClearDayPrice drops overrides; rows left with neither booking nor price are
// removed.
func (u *Unit) ClearDayPrice(dates []string, now time.Time) {
	requested := make(map[string]bool, len(dates))
	for _, date := range dates {
		requested[date] = true
	}
	kept := u.Ledger[:0]
	for _, entry := range u.Ledger {
		if requested[entry.Date] {
			entry.Price = nil
			if entry.BookingID == "" {
				continue
			}
		}
		kept = append(kept, entry)
	}
	u.Ledger = kept
	u.touch(now)
}

// Plan resolves a rate plan by id.
func (u *Unit) Plan(id string) (RatePlan, bool) {
	return planFor(u.RatePlans, id)
}

func (u *Unit) sortLedger() {
	sort.Slice(u.Ledger, func(i, j int) bool { return u.Ledger[i].Date < u.Ledger[j].Date })
}

func (u *Unit) touch(now time.Time) {
	u.UpdatedAt = now.UTC()
}
