package booking

import (
	"time"

	"rstays/internal/domain/shared/daterange"
)

type BookingCreated struct {
	BookingID string
	ListingID string
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Total     int64
	Currency  string
	At        time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return e.BookingID }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingPaid struct {
	BookingID string
	PaymentID string
	At        time.Time
}

func (e BookingPaid) EventName() string     { return "booking.paid" }
func (e BookingPaid) AggregateID() string   { return e.BookingID }
func (e BookingPaid) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID string
	ListingID string
	Range     daterange.DateRange
	Total     int64
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return e.BookingID }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID string
	At        time.Time
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return e.BookingID }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID string
	ListingID string
	Refund    int64
	Currency  string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return e.BookingID }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
