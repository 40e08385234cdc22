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
	domainpayment "rstays/internal/domain/payment"
)

var ErrNotListingHost = errors.New("booking: only the listing's host may review")

const reviewBookingKey = "booking.review"

// ReviewCommand is the host's verdict on a paid booking: approve captures the
// payment, decline voids it and frees the dates.
type ReviewCommand struct {
	CommandID       string
	BookingID       string
	HostID          string
	Approve         bool
	IdempotencyKeyV string
}

func (c ReviewCommand) Key() string { return reviewBookingKey }

func (c ReviewCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ReviewCommand) ResultPrototype() any { return &ReviewResult{} }

type ReviewResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type ReviewHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Registry   policies.ConnectionRegistry
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *ReviewHandler) Handle(ctx context.Context, cmd ReviewCommand) (*ReviewResult, error) {
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
	if bk.HostID != cmd.HostID {
		return nil, ErrNotListingHost
	}

	pay, err := unit.Payments().ByBookingID(ctx, bk.ID)
	if err != nil && !errors.Is(err, domainpayment.ErrPaymentNotFound) {
		return nil, err
	}

	if cmd.Approve {
		if err := bk.Confirm(now); err != nil {
			return nil, err
		}
		if pay != nil {
			var fee int64
			if h.Payments != nil {
				fee, err = h.Payments.Capture(ctx, pay.IntentID)
				if err != nil {
					return nil, err
				}
			}
			if err := pay.Capture(fee, now); err != nil {
				return nil, err
			}
		}
	} else {
		if err := bk.Decline(now); err != nil {
			return nil, err
		}
		if pay != nil {
			if h.Payments != nil {
				if err := h.Payments.Decline(ctx, pay.IntentID); err != nil {
					return nil, err
				}
			}
			if err := pay.Decline(now); err != nil {
				return nil, err
			}
		}
		// A declined stay never happens; give the dates back.
		if err := releaseInventory(ctx, unit, h.Outbox, h.encoder(), bk, now); err != nil {
			return nil, err
		}
		if err := dropCalendarEntry(ctx, unit, bk); err != nil {
			return nil, err
		}
	}

	if pay != nil {
		if err := unit.Payments().Save(ctx, pay); err != nil {
			return nil, err
		}
		pending := pay.PendingEvents()
		pay.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return nil, err
		}
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
		_ = h.Registry.Notify(ctx, bk.GuestID, "booking.reviewed", ReviewResult{BookingID: bk.ID, Status: string(bk.Status)})
	}

	return &ReviewResult{BookingID: bk.ID, Status: string(bk.Status)}, nil
}

func (h *ReviewHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ReviewHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ReviewCommand, *ReviewResult] = (*ReviewHandler)(nil)
var _ middleware.IdempotentCommand = (*ReviewCommand)(nil)
