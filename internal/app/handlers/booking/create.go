package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rstays/internal/app/commands"
	"rstays/internal/app/dto"
	"rstays/internal/app/middleware"
	"rstays/internal/app/outbox"
	"rstays/internal/app/policies"
	"rstays/internal/app/uow"
	domainbooking "rstays/internal/domain/booking"
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpricing "rstays/internal/domain/pricing"
	domainpromo "rstays/internal/domain/promo"
	domainrange "rstays/internal/domain/shared/daterange"
	"rstays/internal/domain/shared/money"
)

var (
	ErrSelfBooking        = errors.New("booking: hosts cannot book their own listing")
	ErrUnitNotOfListing   = errors.New("booking: selected unit does not belong to the listing")
	ErrCheckInPast        = errors.New("booking: check-in must be today or later")
	ErrNightsOutOfRange   = errors.New("booking: stay length outside the unit's limits")
	ErrCapacityExceeded   = errors.New("booking: guest count exceeds selected capacity")
	ErrNoSelections       = errors.New("booking: at least one unit must be selected")
	ErrIDExhausted        = errors.New("booking: could not allocate a unique booking id")
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
)

const (
	createBookingKey = "booking.create"
	maxIDAttempts    = 5
)

type SelectionInput struct {
	UnitID   string
	Quantity int
	RatePlan string
	Services []domainpricing.ServicePick
}

type CreateCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         string
	CheckOut        string
	Guests          domainbooking.Guests
	Country         string
	Currency        string
	Lang            string
	PromoCode       string
	Selections      []SelectionInput
	IdempotencyKeyV string
}

func (c CreateCommand) Key() string { return createBookingKey }

func (c CreateCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateCommand) ResultPrototype() any { return &CreateResult{} }

// Validate rejects structurally empty commands before the bus opens a
// transaction; the handler re-checks everything against loaded state.
func (c CreateCommand) Validate() error {
	if c.ListingID == "" {
		return domainlistings.ErrListingNotFound
	}
	if c.GuestID == "" {
		return domainbooking.ErrGuestRequired
	}
	if len(c.Selections) == 0 {
		return ErrNoSelections
	}
	return nil
}

type CreateResult struct {
	Booking dto.BookingView `json:"booking"`
}

type CreateHandler struct {
	UoWFactory uow.UoWFactory
	Holidays   policies.HolidayPort
	Rates      policies.RatesPort
	Locale     policies.LocalizationPort
	Registry   policies.ConnectionRegistry
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// reservation holds a loaded inventory aggregate until validation finishes;
// nothing is mutated before every check passes.
type reservation struct {
	input SelectionInput
	unit  *domaininventory.Unit
	pool  *domaininventory.RoomPool
	rooms []int
}

func (h *CreateHandler) Handle(ctx context.Context, cmd CreateCommand) (*CreateResult, error) {
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

	listing, err := unit.Listings().ByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.Active() {
		return nil, domainlistings.ErrInactive
	}
	if listing.HostID == cmd.GuestID {
		return nil, ErrSelfBooking
	}
	if len(cmd.Selections) == 0 {
		return nil, ErrNoSelections
	}
	for _, sel := range cmd.Selections {
		if !listing.Owns(sel.UnitID) {
			return nil, ErrUnitNotOfListing
		}
	}

	rng, err := domainrange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if rng.CheckIn.Before(today) {
		return nil, ErrCheckInPast
	}
	nights := rng.Nights()
	days := rng.Days()

	reservations := make([]reservation, 0, len(cmd.Selections))
	capacity := 0
	for _, sel := range cmd.Selections {
		quantity := sel.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 {
			return nil, domaininventory.ErrQuantityInvalid
		}
		sel.Quantity = quantity

		res := reservation{input: sel}
		switch listing.Kind {
		case domaininventory.KindSingle:
			if quantity != 1 {
				return nil, domaininventory.ErrQuantityInvalid
			}
			res.unit, err = unit.Inventory().Unit(ctx, sel.UnitID)
			if err != nil {
				return nil, err
			}
			if !res.unit.Requirements.Allows(nights) {
				return nil, ErrNightsOutOfRange
			}
			if err := res.unit.Available(days); err != nil {
				return nil, err
			}
			capacity += res.unit.Guests
		default:
			res.pool, err = unit.Inventory().Pool(ctx, sel.UnitID)
			if err != nil {
				return nil, err
			}
			if !res.pool.Requirements.Allows(nights) {
				return nil, ErrNightsOutOfRange
			}
			if len(res.pool.FreeRooms(days)) < quantity {
				return nil, domaininventory.ErrInsufficientRooms
			}
			capacity += res.pool.Guests * quantity
		}
		reservations = append(reservations, res)
	}

	if cmd.Guests.Adults <= 0 {
		return nil, domainbooking.ErrNoAdults
	}
	if cmd.Guests.Counted() > capacity {
		return nil, ErrCapacityExceeded
	}

	var promoDiscount float64
	var redeemed *domainpromo.Promo
	if cmd.PromoCode != "" {
		code, err := unit.Promos().ByCode(ctx, cmd.PromoCode)
		if err != nil {
			return nil, err
		}
		if err := code.Redeemable(now); err != nil {
			return nil, err
		}
		promoDiscount = code.Discount
		redeemed = code
	}

	bookingID, err := h.allocateID(ctx, unit)
	if err != nil {
		return nil, err
	}

	selections := make([]domainpricing.Selection, 0, len(reservations))
	policySet := make([]domainbooking.RefundPolicy, 0, len(reservations))
	for i := range reservations {
		res := &reservations[i]
		sel, terms, err := h.priceSelection(ctx, res, cmd.Currency, days)
		if err != nil {
			return nil, err
		}
		selections = append(selections, sel)
		if terms.Defined() {
			policySet = append(policySet, domainbooking.RefundPolicy{Days: terms.Days, Percent: terms.Percent})
		}

		if res.unit != nil {
			if err := res.unit.Reserve(days, bookingID, domaininventory.SourceDirect, now); err != nil {
				return nil, err
			}
			continue
		}
		res.rooms, err = res.pool.Reserve(days, res.input.Quantity, bookingID, domaininventory.SourceDirect, now)
		if err != nil {
			return nil, err
		}
	}

	engine := domainpricing.Engine{
		Calendar: policies.CalendarAdapter{Port: h.Holidays},
		Now:      h.Now,
	}
	quote, err := engine.Quote(ctx, domainpricing.StayInput{
		Range:         rng,
		Guests:        cmd.Guests.Counted(),
		Country:       cmd.Country,
		Currency:      strings.ToUpper(cmd.Currency),
		PromoCode:     cmd.PromoCode,
		PromoDiscount: promoDiscount,
		Selections:    selections,
	})
	if err != nil {
		return nil, err
	}

	first := reservations[0]
	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        bookingID,
		ListingID: listing.ID,
		GuestID:   cmd.GuestID,
		HostID:    listing.HostID,
		Kind:      listing.Kind,
		Range:     rng,
		Informal:  informalTimes(rng, first.checkInTime(), first.checkOutTime()),
		Guests:    cmd.Guests,
		Units:     buildLines(reservations, quote),
		Quote:     quote,
		PromoCode: cmd.PromoCode,
		Policy:    domainbooking.MostRestrictive(policySet),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	for i := range reservations {
		res := &reservations[i]
		if res.unit != nil {
			if err := saveUnit(ctx, unit, h.Outbox, h.encoder(), res.unit); err != nil {
				return nil, err
			}
			continue
		}
		if err := savePool(ctx, unit, h.Outbox, h.encoder(), res.pool); err != nil {
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

	if redeemed != nil {
		if err := redeemed.Redeem(now); err != nil {
			return nil, err
		}
		if err := unit.Promos().Save(ctx, redeemed); err != nil {
			return nil, err
		}
	}

	if err := appendCalendarEntry(ctx, unit, bk, listing.Title); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
	}
	committed = true

	if h.Registry != nil {
		_ = h.Registry.Notify(ctx, listing.HostID, "booking.created", dto.MapBooking(bk))
	}
	if h.Locale != nil && cmd.Lang != "" {
		_ = h.Locale.TranslateBookingPrices(ctx, []*domainbooking.Booking{bk}, cmd.Lang)
	}

	return &CreateResult{Booking: dto.MapBooking(bk)}, nil
}

// allocateID retries the numeric generator until the id is unused. Collisions
// are astronomically unlikely; the loop just makes them impossible to persist.
func (h *CreateHandler) allocateID(ctx context.Context, unit uow.UnitOfWork) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := domainbooking.NumericID(domainbooking.BookingIDDigits)
		_, err := unit.Bookings().ByID(ctx, candidate)
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrIDExhausted
}

// priceSelection assembles the pricing input for one selection: rate plan
// substitution, currency conversion, and the date overrides on the ledger.
func (h *CreateHandler) priceSelection(ctx context.Context, res *reservation, currency string, days []string) (domainpricing.Selection, domaininventory.CancellationTerms, error) {
	var (
		prices    domainpricing.Prices
		rules     domainpricing.Rules
		terms     domaininventory.CancellationTerms
		overrides []domainpricing.DatedOverride
		plan      domaininventory.RatePlan
		hasPlan   bool
	)
	if res.unit != nil {
		prices, rules, terms = res.unit.Prices, res.unit.Rules, res.unit.Cancellation
		overrides = res.unit.Overrides(days)
		plan, hasPlan = res.unit.Plan(res.input.RatePlan)
	} else {
		prices, rules, terms = res.pool.Prices, res.pool.Rules, res.pool.Cancellation
		overrides = res.pool.Overrides(days)
		plan, hasPlan = res.pool.Plan(res.input.RatePlan)
	}
	if res.input.RatePlan != "" && hasPlan {
		prices.Rate = plan.Rate
		if len(plan.Fees) > 0 {
			prices.Fees = plan.Fees
		}
	}

	currency = strings.ToUpper(currency)
	if !strings.EqualFold(prices.Currency, currency) {
		rate, err := h.Rates.Rate(ctx, strings.ToUpper(prices.Currency)+"-"+currency)
		if err != nil {
			return domainpricing.Selection{}, terms, err
		}
		prices = prices.Convert(rate, currency)
		for i := range overrides {
			ov := &overrides[i].Override
			if ov.Rate != 0 && !ov.PercentOfBase && !strings.EqualFold(ov.Currency, currency) {
				ov.Rate = money.Round(float64(ov.Rate) * rate)
				ov.Currency = currency
			}
		}
	}

	return domainpricing.Selection{
		UnitID:    res.input.UnitID,
		Quantity:  res.input.Quantity,
		Prices:    prices,
		Rules:     rules,
		Overrides: overrides,
		Services:  res.input.Services,
	}, terms, nil
}

func (h *CreateHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *reservation) checkInTime() string {
	if r.unit != nil {
		return r.unit.CheckInTime
	}
	return r.pool.CheckInTime
}

func (r *reservation) checkOutTime() string {
	if r.unit != nil {
		return r.unit.CheckOutTime
	}
	return r.pool.CheckOutTime
}

// buildLines folds the per-instance quotes back into one line per selection.
func buildLines(reservations []reservation, quote domainpricing.Quote) []domainbooking.Line {
	lines := make([]domainbooking.Line, 0, len(reservations))
	for _, res := range reservations {
		line := domainbooking.Line{
			UnitID:   res.input.UnitID,
			Quantity: res.input.Quantity,
			Rooms:    res.rooms,
		}
		for _, uq := range quote.Units {
			if uq.UnitID != res.input.UnitID {
				continue
			}
			line.Total += uq.Total
			line.Services = append(line.Services, uq.Services...)
			line.Taxes = append(line.Taxes, uq.Taxes...)
		}
		lines = append(lines, line)
	}
	return lines
}

// informalTimes combines the stay dates with the unit's time-of-day settings
// for display and calendar export.
func informalTimes(rng domainrange.DateRange, checkIn, checkOut string) domainbooking.Informal {
	return domainbooking.Informal{
		CheckIn:  atTimeOfDay(rng.CheckIn, checkIn, 15),
		CheckOut: atTimeOfDay(rng.CheckOut, checkOut, 11),
	}
}

func atTimeOfDay(day time.Time, clock string, fallbackHour int) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Date(day.Year(), day.Month(), day.Day(), fallbackHour, 0, 0, 0, time.UTC)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func appendCalendarEntry(ctx context.Context, unit uow.UnitOfWork, bk *domainbooking.Booking, title string) error {
	cal, err := unit.Calendars().ByUser(ctx, bk.GuestID)
	if errors.Is(err, domaincalendars.ErrCalendarNotFound) {
		cal = &domaincalendars.GuestCalendar{UserID: bk.GuestID}
	} else if err != nil {
		return err
	}
	cal.Append(domaincalendars.Entry{
		BookingID: bk.ID,
		ListingID: bk.ListingID,
		Title:     title,
		Start:     bk.Informal.CheckIn,
		End:       bk.Informal.CheckOut,
	})
	return unit.Calendars().Save(ctx, cal)
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

var _ commands.Handler[CreateCommand, *CreateResult] = (*CreateHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateCommand)(nil)
