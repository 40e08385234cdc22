package booking

import (
	"context"
	"errors"
	"time"

	"rstays/internal/domain/inventory"
	"rstays/internal/domain/pricing"
	"rstays/internal/domain/shared/daterange"
	"rstays/internal/domain/shared/events"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrNoAdults        = errors.New("booking: at least one adult required")
	ErrGuestRequired   = errors.New("booking: guest id required")
	ErrNoUnits         = errors.New("booking: at least one unit required")
	ErrDuplicateID     = errors.New("booking: id already taken")
)

type Status string

const (
	StatePending   Status = "pending"
	StatePaid      Status = "paid"
	StateConfirmed Status = "confirmed"
	StateDeclined  Status = "declined"
	StateCancelled Status = "cancelled"
)

// Guests splits the party the way hosts price it: infants never count against
// capacity or guest discounts.
type Guests struct {
	Adults   int `bson:"adults" json:"adults"`
	Children int `bson:"children" json:"children"`
	Infants  int `bson:"infants" json:"infants"`
}

// Counted is the guest count used for capacity and discount matching.
func (g Guests) Counted() int {
	return g.Adults + g.Children
}

// Line is one unit/room-type of the booking with its allocated rooms and
// per-line price breakdown.
type Line struct {
	UnitID   string             `bson:"unit_id"`
	Quantity int                `bson:"quantity"`
	Rooms    []int              `bson:"rooms,omitempty"`
	Total    int64              `bson:"total"`
	Services []pricing.LineItem `bson:"services,omitempty"`
	Taxes    []pricing.LineItem `bson:"taxes,omitempty"`
}

// Informal carries the display timestamps combining the stay dates with the
// unit's check-in/check-out time of day.
type Informal struct {
	CheckIn  time.Time `bson:"check_in"`
	CheckOut time.Time `bson:"check_out"`
}

// Booking is the reservation record. Cancellation is a status transition;
// bookings are never deleted.
type Booking struct {
	ID        string
	ListingID string
	GuestID   string
	HostID    string
	Kind      inventory.Kind
	Range     daterange.DateRange
	Informal  Informal
	Guests    Guests
	Units     []Line
	Discounts []pricing.LineItem
	Services  []pricing.LineItem
	Taxes     []pricing.LineItem
	Total     int64
	Currency  string
	PromoCode string
	Status    Status
	Policy    RefundPolicy
	PaymentID string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID string) ([]*Booking, error)
}

type CreateParams struct {
	ID        string
	ListingID string
	GuestID   string
	HostID    string
	Kind      inventory.Kind
	Range     daterange.DateRange
	Informal  Informal
	Guests    Guests
	Units     []Line
	Quote     pricing.Quote
	PromoCode string
	Policy    RefundPolicy
	CreatedAt time.Time
}

func New(params CreateParams) (*Booking, error) {
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests.Adults <= 0 {
		return nil, ErrNoAdults
	}
	if len(params.Units) == 0 {
		return nil, ErrNoUnits
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		HostID:    params.HostID,
		Kind:      params.Kind,
		Range:     params.Range,
		Informal:  params.Informal,
		Guests:    params.Guests,
		Units:     params.Units,
		Discounts: params.Quote.Discounts,
		Services:  params.Quote.Services,
		Taxes:     params.Quote.Taxes,
		Total:     params.Quote.Total,
		Currency:  params.Quote.Currency,
		PromoCode: params.PromoCode,
		Status:    StatePending,
		Policy:    params.Policy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingCreated{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Guests: b.Guests.Counted(), Total: b.Total, Currency: b.Currency, At: now})
	return b, nil
}

// MarkPaid records the payment intent after the gateway authorized it.
func (b *Booking) MarkPaid(paymentID string, now time.Time) error {
	if b.Status != StatePending {
		return ErrInvalidState
	}
	b.PaymentID = paymentID
	b.Status = StatePaid
	b.touch(now)
	b.Record(BookingPaid{BookingID: b.ID, PaymentID: paymentID, At: b.UpdatedAt})
	return nil
}

// Confirm is the host approving a paid booking.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatePaid {
		return ErrInvalidState
	}
	b.Status = StateConfirmed
	b.touch(now)
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// Decline is the host rejecting a paid booking; the payment is voided by the
// caller.
func (b *Booking) Decline(now time.Time) error {
	if b.Status != StatePaid {
		return ErrInvalidState
	}
	b.Status = StateDeclined
	b.touch(now)
	b.Record(BookingDeclined{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Cancel flips the booking to cancelled. Refund math happens separately via
// the policy evaluator; cancelled and declined are terminal.
func (b *Booking) Cancel(refund int64, now time.Time) error {
	switch b.Status {
	case StatePending, StatePaid, StateConfirmed:
	default:
		return ErrInvalidState
	}
	b.Status = StateCancelled
	b.touch(now)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Refund: refund, Currency: b.Currency, At: b.UpdatedAt})
	return nil
}

// Past reports whether the stay's check-out is behind the given instant.
func (b *Booking) Past(now time.Time) bool {
	return b.Range.CheckOut.Before(now)
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}
