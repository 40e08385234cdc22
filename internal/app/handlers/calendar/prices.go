package calendar

import (
	"context"
	"errors"
	"time"

	"rstays/internal/app/commands"
	"rstays/internal/app/outbox"
	"rstays/internal/app/uow"
	domaininventory "rstays/internal/domain/inventory"
	domainpricing "rstays/internal/domain/pricing"
)

var ErrPriceRequired = errors.New("calendar: a rate or percent is required")

const adjustPricesKey = "calendar.prices"

// PricesCommand sets or resets per-date price overrides. Reset clears the
// override; otherwise either a fixed Rate or a Percent of the base rate
// applies to every date.
type PricesCommand struct {
	CommandID     string
	ListingID     string
	UnitID        string
	UserID        string
	Dates         []string
	Rate          int64
	Currency      string
	Percent       float64
	PercentOfBase bool
	Reset         bool
}

func (c PricesCommand) Key() string { return adjustPricesKey }

type PricesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *PricesHandler) Handle(ctx context.Context, cmd PricesCommand) (*MutationResult, error) {
	if !cmd.Reset && cmd.Rate == 0 && !cmd.PercentOfBase {
		return nil, ErrPriceRequired
	}
	override := domainpricing.Override{
		Rate:          cmd.Rate,
		Currency:      cmd.Currency,
		Percent:       cmd.Percent,
		PercentOfBase: cmd.PercentOfBase,
	}
	return mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, cmd.ListingID, cmd.UnitID, cmd.UserID, cmd.Dates,
		func(agg *domaininventory.Unit, now time.Time) error {
			if cmd.Reset {
				agg.ClearDayPrice(cmd.Dates, now)
				return nil
			}
			agg.SetDayPrice(cmd.Dates, override, now)
			return nil
		},
		func(agg *domaininventory.RoomPool, now time.Time) error {
			if cmd.Reset {
				agg.ClearDayPrice(cmd.Dates, now)
				return nil
			}
			agg.SetDayPrice(cmd.Dates, override, now)
			return nil
		}, h.Now)
}

var _ commands.Handler[PricesCommand, *MutationResult] = (*PricesHandler)(nil)
