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
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainpayment "rstays/internal/domain/payment"
)

var (
	ErrNotBookingGuest  = errors.New("booking: only the booking's guest may do this")
	ErrAlreadyCancelled = errors.New("booking: already cancelled")
	ErrStayEnded        = errors.New("booking: stay already ended")
)

const cancelBookingKey = "booking.cancel"

type CancelCommand struct {
	CommandID       string
	BookingID       string
	UserID          string
	IdempotencyKeyV string
}

func (c CancelCommand) Key() string { return cancelBookingKey }

func (c CancelCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CancelCommand) ResultPrototype() any { return &CancelResult{} }

type CancelResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Refund    int64  `json:"refund"`
	Currency  string `json:"currency"`
}

type CancelHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Registry   policies.ConnectionRegistry
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *CancelHandler) Handle(ctx context.Context, cmd CancelCommand) (*CancelResult, error) {
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
	switch {
	case bk.Status == domainbooking.StateCancelled, bk.Status == domainbooking.StateDeclined:
		return nil, ErrAlreadyCancelled
	case bk.Past(now):
		return nil, ErrStayEnded
	}

	if err := releaseInventory(ctx, unit, h.Outbox, h.encoder(), bk, now); err != nil {
		return nil, err
	}

	refund := int64(0)
	pay, err := unit.Payments().ByBookingID(ctx, bk.ID)
	switch {
	case errors.Is(err, domainpayment.ErrPaymentNotFound):
		// Nothing was charged; cancellation is a plain status flip.
	case err != nil:
		return nil, err
	default:
		daysUntil := bk.Range.CheckIn.Sub(now).Hours() / 24
		outcome := bk.Policy.Evaluate(bk.Status, pay.PayoutAmount, daysUntil)
		refund = outcome.Refund
		if h.Payments != nil && outcome.Fraction > 0 {
			if err := h.Payments.Refund(ctx, pay.IntentID, outcome.Fraction); err != nil {
				return nil, err
			}
		}
		if err := pay.Cancel(outcome.Refund, outcome.HostPayout, now); err != nil {
			return nil, err
		}
		if err := unit.Payments().Save(ctx, pay); err != nil {
			return nil, err
		}
		pending := pay.PendingEvents()
		pay.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return nil, err
		}
		if h.Payments != nil && pay.BalanceUsed > 0 {
			if err := h.Payments.CreditBalance(ctx, bk.GuestID, pay.BalanceUsed, pay.Currency); err != nil {
				return nil, err
			}
		}
	}

	if err := bk.Cancel(refund, now); err != nil {
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

	if err := dropCalendarEntry(ctx, unit, bk); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
	}
	committed = true

	if h.Registry != nil {
		_ = h.Registry.Notify(ctx, bk.HostID, "booking.cancelled", CancelResult{
			BookingID: bk.ID, Status: string(bk.Status), Refund: refund, Currency: bk.Currency,
		})
	}

	return &CancelResult{BookingID: bk.ID, Status: string(bk.Status), Refund: refund, Currency: bk.Currency}, nil
}

func (h *CancelHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// releaseInventory unwinds exactly the ledger rows this booking claimed,
// line by line.
func releaseInventory(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, bk *domainbooking.Booking, now time.Time) error {
	for _, line := range bk.Units {
		if bk.Kind == domaininventory.KindSingle {
			agg, err := unit.Inventory().Unit(ctx, line.UnitID)
			if err != nil {
				return err
			}
			agg.Release(bk.ID, now)
			if err := saveUnit(ctx, unit, box, enc, agg); err != nil {
				return err
			}
			continue
		}
		agg, err := unit.Inventory().Pool(ctx, line.UnitID)
		if err != nil {
			return err
		}
		agg.Release(bk.ID, now)
		if err := savePool(ctx, unit, box, enc, agg); err != nil {
			return err
		}
	}
	return nil
}

func dropCalendarEntry(ctx context.Context, unit uow.UnitOfWork, bk *domainbooking.Booking) error {
	cal, err := unit.Calendars().ByUser(ctx, bk.GuestID)
	if errors.Is(err, domaincalendars.ErrCalendarNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cal.Remove(bk.ID)
	return unit.Calendars().Save(ctx, cal)
}

var _ commands.Handler[CancelCommand, *CancelResult] = (*CancelHandler)(nil)
var _ middleware.IdempotentCommand = (*CancelCommand)(nil)
