package memory

import (
	"context"
	"errors"

	"rstays/internal/app/uow"
	domainbooking "rstays/internal/domain/booking"
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpayment "rstays/internal/domain/payment"
	domainpromo "rstays/internal/domain/promo"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires the in-memory repositories into a unit-of-work boundary.
// No isolation is provided; the stores enforce optimistic versioning, which
// is what the booking flow relies on.
type Factory struct {
	ListingsRepo  domainlistings.Repository
	InventoryRepo domaininventory.Repository
	BookingsRepo  domainbooking.Repository
	PaymentsRepo  domainpayment.Repository
	PromosRepo    domainpromo.Repository
	CalendarsRepo domaincalendars.Repository
}

// NewFactory builds a factory over fresh empty stores.
func NewFactory() Factory {
	return Factory{
		ListingsRepo:  NewListingRepository(),
		InventoryRepo: NewInventoryRepository(),
		BookingsRepo:  NewBookingRepository(),
		PaymentsRepo:  NewPaymentRepository(),
		PromosRepo:    NewPromoRepository(),
		CalendarsRepo: NewCalendarRepository(),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.InventoryRepo == nil || f.BookingsRepo == nil ||
		f.PaymentsRepo == nil || f.PromosRepo == nil || f.CalendarsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings:  f.ListingsRepo,
		inventory: f.InventoryRepo,
		bookings:  f.BookingsRepo,
		payments:  f.PaymentsRepo,
		promos:    f.PromosRepo,
		calendars: f.CalendarsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by the in-memory stores.
type Unit struct {
	listings  domainlistings.Repository
	inventory domaininventory.Repository
	bookings  domainbooking.Repository
	payments  domainpayment.Repository
	promos    domainpromo.Repository
	calendars domaincalendars.Repository
}

func (u *Unit) Listings() domainlistings.Repository   { return u.listings }
func (u *Unit) Inventory() domaininventory.Repository { return u.inventory }
func (u *Unit) Bookings() domainbooking.Repository    { return u.bookings }
func (u *Unit) Payments() domainpayment.Repository    { return u.payments }
func (u *Unit) Promos() domainpromo.Repository        { return u.promos }
func (u *Unit) Calendars() domaincalendars.Repository { return u.calendars }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }
