package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rstays/internal/app/uow"
	domainbooking "rstays/internal/domain/booking"
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpayment "rstays/internal/domain/payment"
	domainpromo "rstays/internal/domain/promo"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// The booking create path depends on the transaction: the booking document,
// the inventory ledgers, and the guest calendar commit together.
type Factory struct {
	DB *mongo.Database

	ListingsRepo  domainlistings.Repository
	InventoryRepo domaininventory.Repository
	BookingsRepo  domainbooking.Repository
	PaymentsRepo  domainpayment.Repository
	PromosRepo    domainpromo.Repository
	CalendarsRepo domaincalendars.Repository
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		listings:  f.ListingsRepo,
		inventory: f.InventoryRepo,
		bookings:  f.BookingsRepo,
		payments:  f.PaymentsRepo,
		promos:    f.PromosRepo,
		calendars: f.CalendarsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
