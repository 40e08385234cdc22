package booking

import (
	"context"
	"errors"
	"time"

	"rstays/internal/app/commands"
	"rstays/internal/app/middleware"
	"rstays/internal/app/outbox"
	"rstays/internal/app/policies"
	"rstays/internal/app/uow"
	domainbooking "rstays/internal/domain/booking"
	domainpayment "rstays/internal/domain/payment"
)

var (
	ErrPaymentExists  = errors.New("booking: payment already recorded")
	ErrBalanceInvalid = errors.New("booking: balance amount out of range")
)

const payBookingKey = "booking.pay"

// PayCommand confirms the guest's payment for a pending booking. BalanceUsed
// is the part of the total covered from the guest's account balance; the
// gateway only holds the remainder.
type PayCommand struct {
	CommandID       string
	BookingID       string
	UserID          string
	BalanceUsed     int64
	IdempotencyKeyV string
}

func (c PayCommand) Key() string { return payBookingKey }

func (c PayCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PayCommand) ResultPrototype() any { return &PayResult{} }

type PayResult struct {
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

type PayHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Registry   policies.ConnectionRegistry
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *PayHandler) Handle(ctx context.Context, cmd PayCommand) (*PayResult, error) {
	unit, ctx, managed, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := h.now()

	bk, err := unit.Bookings().ByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if bk.GuestID != cmd.UserID {
		return nil, ErrNotBookingGuest
	}
	if cmd.BalanceUsed < 0 || cmd.BalanceUsed > bk.Total {
		return nil, ErrBalanceInvalid
	}
	if _, err := unit.Payments().ByBookingID(ctx, bk.ID); err == nil {
		return nil, ErrPaymentExists
	} else if !errors.Is(err, domainpayment.ErrPaymentNotFound) {
		return nil, err
	}

	intentID, err := h.Payments.Authorize(ctx, bk.ID, bk.Total-cmd.BalanceUsed, bk.Currency)
	if err != nil {
		return nil, err
	}

	pay := domainpayment.New(domainpayment.CreateParams{
		ID:           domainbooking.NumericID(domainbooking.PaymentIDDigits),
		BookingID:    bk.ID,
		IntentID:     intentID,
		PayoutAmount: bk.Total,
		BalanceUsed:  cmd.BalanceUsed,
		Currency:     bk.Currency,
		Now:          now,
	})
	if err := bk.MarkPaid(pay.ID, now); err != nil {
		return nil, err
	}

	if err := unit.Payments().Save(ctx, pay); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}
	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
	}
	committed = true

	if h.Registry != nil {
		_ = h.Registry.Notify(ctx, bk.HostID, "booking.paid", PayResult{
			BookingID: bk.ID, PaymentID: pay.ID, Status: string(bk.Status), Total: bk.Total, Currency: bk.Currency,
		})
	}

	return &PayResult{
		BookingID: bk.ID,
		PaymentID: pay.ID,
		Status:    string(bk.Status),
		Total:     bk.Total,
		Currency:  bk.Currency,
	}, nil
}

func (h *PayHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *PayHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[PayCommand, *PayResult] = (*PayHandler)(nil)
var _ middleware.IdempotentCommand = (*PayCommand)(nil)
