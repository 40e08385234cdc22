package uow

import (
	"context"

	domainbooking "rstays/internal/domain/booking"
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpayment "rstays/internal/domain/payment"
	domainpromo "rstays/internal/domain/promo"
)

// UnitOfWork coordinates repositories inside one transaction boundary. A
// booking create touches the booking, one or more inventory documents, and
// the guest calendar; they commit or roll back together.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Inventory() domaininventory.Repository
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository
	Promos() domainpromo.Repository
	Calendars() domaincalendars.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
