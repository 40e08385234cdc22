package calendar

import (
	"context"
	"errors"
	"time"

	"rstays/internal/app/commands"
	"rstays/internal/app/outbox"
	"rstays/internal/app/uow"
	domaininventory "rstays/internal/domain/inventory"
	domainrange "rstays/internal/domain/shared/daterange"
)

var (
	ErrNotManager         = errors.New("calendar: only the host or a manager may edit the calendar")
	ErrUnitOfWorkRequired = errors.New("calendar: unit of work required")
)

const (
	blockDatesKey   = "calendar.block"
	unblockDatesKey = "calendar.unblock"
)

type BlockCommand struct {
	CommandID string
	ListingID string
	UnitID    string
	UserID    string
	Dates     []string
	Count     int // pools only; rooms per date
}

func (c BlockCommand) Key() string { return blockDatesKey }

type UnblockCommand struct {
	CommandID string
	ListingID string
	UnitID    string
	UserID    string
	Dates     []string
	Count     int
}

func (c UnblockCommand) Key() string { return unblockDatesKey }

type MutationResult struct {
	UnitID string   `json:"unit_id"`
	Dates  []string `json:"dates"`
}

type BlockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *BlockHandler) Handle(ctx context.Context, cmd BlockCommand) (*MutationResult, error) {
	return mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, cmd.ListingID, cmd.UnitID, cmd.UserID, cmd.Dates,
		func(agg *domaininventory.Unit, now time.Time) error {
			agg.Block(cmd.Dates, now)
			return nil
		},
		func(agg *domaininventory.RoomPool, now time.Time) error {
			count := cmd.Count
			if count == 0 {
				count = agg.Capacity()
			}
			return agg.Block(cmd.Dates, count, now)
		}, h.Now)
}

type UnblockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *UnblockHandler) Handle(ctx context.Context, cmd UnblockCommand) (*MutationResult, error) {
	return mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, cmd.ListingID, cmd.UnitID, cmd.UserID, cmd.Dates,
		func(agg *domaininventory.Unit, now time.Time) error {
			agg.Unblock(cmd.Dates, now)
			return nil
		},
		func(agg *domaininventory.RoomPool, now time.Time) error {
			count := cmd.Count
			if count == 0 {
				count = agg.Capacity()
			}
			return agg.Unblock(cmd.Dates, count, now)
		}, h.Now)
}

// mutate runs one authorized calendar mutation against the listing's unit or
// pool inside a unit of work.
func mutate(
	ctx context.Context,
	factory uow.UoWFactory,
	box outbox.Outbox,
	enc outbox.EventEncoder,
	listingID, unitID, userID string,
	dates []string,
	onUnit func(*domaininventory.Unit, time.Time) error,
	onPool func(*domaininventory.RoomPool, time.Time) error,
	clock func() time.Time,
) (*MutationResult, error) {
	unit, ctx, managed, err := begin(ctx, factory)
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

	if len(dates) == 0 {
		return nil, domaininventory.ErrNoDates
	}
	for _, day := range dates {
		if _, err := domainrange.ParseDay(day); err != nil {
			return nil, err
		}
	}

	listing, err := unit.Listings().ByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.ManagedBy(userID) {
		return nil, ErrNotManager
	}
	if !listing.Owns(unitID) {
		return nil, domaininventory.ErrUnitNotFound
	}

	now := time.Now().UTC()
	if clock != nil {
		now = clock().UTC()
	}

	if listing.Kind == domaininventory.KindSingle {
		agg, err := unit.Inventory().Unit(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if err := onUnit(agg, now); err != nil {
			return nil, err
		}
		if err := saveUnit(ctx, unit, box, enc, agg); err != nil {
			return nil, err
		}
	} else {
		agg, err := unit.Inventory().Pool(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if err := onPool(agg, now); err != nil {
			return nil, err
		}
		if err := savePool(ctx, unit, box, enc, agg); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
	}
	committed = true
	return &MutationResult{UnitID: unitID, Dates: dates}, nil
}

func begin(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, false, nil
	}
	if factory == nil {
		return nil, ctx, false, ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, false, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
	return unit, execCtx, true, nil
}

func saveUnit(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, agg *domaininventory.Unit) error {
	if err := unit.Inventory().SaveUnit(ctx, agg); err != nil {
		return err
	}
	pending := agg.PendingEvents()
	agg.ClearEvents()
	return outbox.RecordDomainEvents(ctx, box, enc, pending)
}

func savePool(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, agg *domaininventory.RoomPool) error {
	if err := unit.Inventory().SavePool(ctx, agg); err != nil {
		return err
	}
	pending := agg.PendingEvents()
	agg.ClearEvents()
	return outbox.RecordDomainEvents(ctx, box, enc, pending)
}

var _ commands.Handler[BlockCommand, *MutationResult] = (*BlockHandler)(nil)
var _ commands.Handler[UnblockCommand, *MutationResult] = (*UnblockHandler)(nil)
