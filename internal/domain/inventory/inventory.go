package inventory

import (
	"context"
	"errors"

	"rstays/internal/domain/pricing"
)

var (
	ErrUnitNotFound      = errors.New("inventory: unit not found")
	ErrDatesUnavailable  = errors.New("inventory: one or more dates already booked")
	ErrInsufficientRooms = errors.New("inventory: not enough rooms available")
	ErrQuantityInvalid   = errors.New("inventory: quantity must be positive")
	ErrNoDates           = errors.New("inventory: at least one date required")
)

// Kind tags the two inventory variants a listing can own.
type Kind string

const (
	// KindSingle is one rentable entity tied 1:1 to a listing.
	KindSingle Kind = "unit"
	// KindPool is a class of interchangeable numbered rooms.
	KindPool Kind = "multiunit"
)

// BlockedReference marks ledger rows created by host blocks rather than
// bookings.
const BlockedReference = "Blocked"

// SourceDirect identifies reservations made through this platform, as opposed
// to imported external calendars.
const SourceDirect = "rstays"

// CancellationTerms is a single-tier refund policy: cancelling at least Days
// before check-in forfeits Percent of the payout.
type CancellationTerms struct {
	Days    int     `bson:"days"`
	Percent float64 `bson:"percent"`
}

// Defined reports whether the host configured a policy at all.
func (c CancellationTerms) Defined() bool {
	return c.Days != 0 || c.Percent != 0
}

// Requirements bounds the stay length for a unit.
type Requirements struct {
	MinNights int `bson:"min_nights"`
	MaxNights int `bson:"max_nights"`
}

// Allows reports whether a stay of the given nights satisfies the bounds.
func (r Requirements) Allows(nights int) bool {
	if r.MinNights > 0 && nights < r.MinNights {
		return false
	}
	if r.MaxNights > 0 && nights > r.MaxNights {
		return false
	}
	return true
}

// RatePlan is a named alternate pricing configuration a guest may select
// instead of the unit's base price. A plan without fees keeps the unit's fee
// schedule.
type RatePlan struct {
	ID   string        `bson:"id"`
	Name string        `bson:"name"`
	Rate int64         `bson:"rate"`
	Fees []pricing.Fee `bson:"fees,omitempty"`
}

func planFor(plans []RatePlan, id string) (RatePlan, bool) {
	for _, plan := range plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return RatePlan{}, false
}

// Claim is a reservation of specific room numbers on one date of a pool
// ledger.
type Claim struct {
	Numbers   []int  `bson:"numbers"`
	BookingID string `bson:"booking_id"`
	Source    string `bson:"source"`
}

// Repository loads and persists inventory aggregates. Save must reject stale
// versions so concurrent reservations on overlapping dates cannot both win.
type Repository interface {
	Unit(ctx context.Context, id string) (*Unit, error)
	Pool(ctx context.Context, id string) (*RoomPool, error)
	SaveUnit(ctx context.Context, unit *Unit) error
	SavePool(ctx context.Context, pool *RoomPool) error
}

func overrideFor(price *pricing.Override, date string) (pricing.DatedOverride, bool) {
	if price == nil {
		return pricing.DatedOverride{}, false
	}
	return pricing.DatedOverride{Date: date, Override: *price}, true
}
