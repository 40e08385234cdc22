package payment

import (
	"context"
	"errors"
	"time"

	"rstays/internal/domain/shared/events"
)

var (
	ErrPaymentNotFound = errors.New("payment: not found")
	ErrInvalidState    = errors.New("payment: invalid state transition")
)

type Status string

const (
	StateAuthorized Status = "authorized"
	StateCaptured   Status = "captured"
	StateDeclined   Status = "declined"
	StateCancelled  Status = "cancelled"
)

// Payment mirrors the gateway's view of one booking: the amount held, what
// the gateway keeps, and what remains for the host after a cancellation.
type Payment struct {
	ID                    string
	BookingID             string
	IntentID              string
	PayoutAmount          int64
	GatewayFee            int64
	AmountAfterCancelling int64
	BalanceUsed           int64
	Currency              string
	Status                Status
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int64
	events.EventRecorder
}

type Repository interface {
	ByBookingID(ctx context.Context, bookingID string) (*Payment, error)
	Save(ctx context.Context, payment *Payment) error
}

type CreateParams struct {
	ID           string
	BookingID    string
	IntentID     string
	PayoutAmount int64
	BalanceUsed  int64
	Currency     string
	Now          time.Time
}

func New(params CreateParams) *Payment {
	now := params.Now.UTC()
	return &Payment{
		ID:           params.ID,
		BookingID:    params.BookingID,
		IntentID:     params.IntentID,
		PayoutAmount: params.PayoutAmount,
		BalanceUsed:  params.BalanceUsed,
		Currency:     params.Currency,
		Status:       StateAuthorized,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Capture settles the hold; gatewayFee is what the processor took off the
// payout.
func (p *Payment) Capture(gatewayFee int64, now time.Time) error {
	if p.Status != StateAuthorized {
		return ErrInvalidState
	}
	p.GatewayFee = gatewayFee
	p.Status = StateCaptured
	p.UpdatedAt = now.UTC()
	p.Record(PaymentCaptured{PaymentID: p.ID, BookingID: p.BookingID, Fee: gatewayFee, At: p.UpdatedAt})
	return nil
}

// Decline voids an uncaptured hold.
func (p *Payment) Decline(now time.Time) error {
	if p.Status != StateAuthorized {
		return ErrInvalidState
	}
	p.Status = StateDeclined
	p.UpdatedAt = now.UTC()
	p.Record(PaymentDeclined{PaymentID: p.ID, BookingID: p.BookingID, At: p.UpdatedAt})
	return nil
}

// Cancel records the settled cancellation: what was refunded and what the
// host keeps.
func (p *Payment) Cancel(refund, hostPayout int64, now time.Time) error {
	switch p.Status {
	case StateAuthorized, StateCaptured:
	default:
		return ErrInvalidState
	}
	p.AmountAfterCancelling = hostPayout
	p.Status = StateCancelled
	p.UpdatedAt = now.UTC()
	p.Record(PaymentCancelled{PaymentID: p.ID, BookingID: p.BookingID, Refund: refund, HostPayout: hostPayout, At: p.UpdatedAt})
	return nil
}

type PaymentCaptured struct {
	PaymentID string
	BookingID string
	Fee       int64
	At        time.Time
}

func (e PaymentCaptured) EventName() string     { return "payment.captured" }
func (e PaymentCaptured) AggregateID() string   { return e.PaymentID }
func (e PaymentCaptured) OccurredAt() time.Time { return e.At }

type PaymentDeclined struct {
	PaymentID string
	BookingID string
	At        time.Time
}

func (e PaymentDeclined) EventName() string     { return "payment.declined" }
func (e PaymentDeclined) AggregateID() string   { return e.PaymentID }
func (e PaymentDeclined) OccurredAt() time.Time { return e.At }

type PaymentCancelled struct {
	PaymentID  string
	BookingID  string
	Refund     int64
	HostPayout int64
	At         time.Time
}

func (e PaymentCancelled) EventName() string     { return "payment.cancelled" }
func (e PaymentCancelled) AggregateID() string   { return e.PaymentID }
func (e PaymentCancelled) OccurredAt() time.Time { return e.At }
