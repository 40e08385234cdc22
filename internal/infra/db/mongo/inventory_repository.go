package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaininventory "rstays/internal/domain/inventory"
	domainpricing "rstays/internal/domain/pricing"
)

// InventoryRepository persists both inventory forms: single units in
// agg_unit and room pools in agg_pool.
type InventoryRepository struct {
	units *mongo.Collection
	pools *mongo.Collection
}

func NewInventoryRepository(db *mongo.Database) *InventoryRepository {
	return &InventoryRepository{
		units: db.Collection("agg_unit"),
		pools: db.Collection("agg_pool"),
	}
}

func (r *InventoryRepository) Unit(ctx context.Context, id string) (*domaininventory.Unit, error) {
	var doc unitDocument
	if err := r.units.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaininventory.ErrUnitNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *InventoryRepository) Pool(ctx context.Context, id string) (*domaininventory.RoomPool, error) {
	var doc poolDocument
	if err := r.pools.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaininventory.ErrUnitNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *InventoryRepository) SaveUnit(ctx context.Context, unit *domaininventory.Unit) error {
	doc := newUnitDocument(unit)
	filter := bson.M{"_id": doc.ID, "version": unit.Version}
	doc.Version = unit.Version + 1
	res, err := r.units.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	unit.Version = doc.Version
	return nil
}

func (r *InventoryRepository) SavePool(ctx context.Context, pool *domaininventory.RoomPool) error {
	doc := newPoolDocument(pool)
	filter := bson.M{"_id": doc.ID, "version": pool.Version}
	doc.Version = pool.Version + 1
	res, err := r.pools.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	pool.Version = doc.Version
	return nil
}

type unitDocument struct {
	ID           string                            `bson:"_id"`
	ListingID    string                            `bson:"listing_id"`
	Guests       int                               `bson:"guests"`
	CheckInTime  string                            `bson:"check_in_time"`
	CheckOutTime string                            `bson:"check_out_time"`
	Requirements domaininventory.Requirements      `bson:"requirements"`
	Prices       domainpricing.Prices              `bson:"prices"`
	Rules        domainpricing.Rules               `bson:"rules"`
	Cancellation domaininventory.CancellationTerms `bson:"cancellation"`
	RatePlans    []domaininventory.RatePlan        `bson:"rate_plans,omitempty"`
	Ledger       []domaininventory.DayEntry        `bson:"not_available"`
	CreatedAt    int64                             `bson:"created_at"`
	UpdatedAt    int64                             `bson:"updated_at"`
	Version      int64                             `bson:"version"`
}

func newUnitDocument(u *domaininventory.Unit) unitDocument {
	return unitDocument{
		ID:           u.ID,
		ListingID:    u.ListingID,
		Guests:       u.Guests,
		CheckInTime:  u.CheckInTime,
		CheckOutTime: u.CheckOutTime,
		Requirements: u.Requirements,
		Prices:       u.Prices,
		Rules:        u.Rules,
		Cancellation: u.Cancellation,
		RatePlans:    u.RatePlans,
		Ledger:       u.Ledger,
		CreatedAt:    u.CreatedAt.UnixMilli(),
		UpdatedAt:    u.UpdatedAt.UnixMilli(),
		Version:      u.Version,
	}
}

func (d unitDocument) toAggregate() *domaininventory.Unit {
	return &domaininventory.Unit{
		ID:           d.ID,
		ListingID:    d.ListingID,
		Guests:       d.Guests,
		CheckInTime:  d.CheckInTime,
		CheckOutTime: d.CheckOutTime,
		Requirements: d.Requirements,
		Prices:       d.Prices,
		Rules:        d.Rules,
		Cancellation: d.Cancellation,
		RatePlans:    d.RatePlans,
		Ledger:       d.Ledger,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

type poolDocument struct {
	ID           string                            `bson:"_id"`
	ListingID    string                            `bson:"listing_id"`
	Guests       int                               `bson:"guests"`
	CheckInTime  string                            `bson:"check_in_time"`
	CheckOutTime string                            `bson:"check_out_time"`
	Requirements domaininventory.Requirements      `bson:"requirements"`
	Prices       domainpricing.Prices              `bson:"prices"`
	Rules        domainpricing.Rules               `bson:"rules"`
	Cancellation domaininventory.CancellationTerms `bson:"cancellation"`
	RatePlans    []domaininventory.RatePlan        `bson:"rate_plans,omitempty"`
	Rooms        []int                             `bson:"rooms"`
	Ledger       []domaininventory.PoolDayEntry    `bson:"not_available"`
	CreatedAt    int64                             `bson:"created_at"`
	UpdatedAt    int64                             `bson:"updated_at"`
	Version      int64                             `bson:"version"`
}

func newPoolDocument(p *domaininventory.RoomPool) poolDocument {
	return poolDocument{
		ID:           p.ID,
		ListingID:    p.ListingID,
		Guests:       p.Guests,
		CheckInTime:  p.CheckInTime,
		CheckOutTime: p.CheckOutTime,
		Requirements: p.Requirements,
		Prices:       p.Prices,
		Rules:        p.Rules,
		Cancellation: p.Cancellation,
		RatePlans:    p.RatePlans,
		Rooms:        p.Rooms,
		Ledger:       p.Ledger,
		CreatedAt:    p.CreatedAt.UnixMilli(),
		UpdatedAt:    p.UpdatedAt.UnixMilli(),
		Version:      p.Version,
	}
}

func (d poolDocument) toAggregate() *domaininventory.RoomPool {
	return &domaininventory.RoomPool{
		ID:           d.ID,
		ListingID:    d.ListingID,
		Guests:       d.Guests,
		CheckInTime:  d.CheckInTime,
		CheckOutTime: d.CheckOutTime,
		Requirements: d.Requirements,
		Prices:       d.Prices,
		Rules:        d.Rules,
		Cancellation: d.Cancellation,
		RatePlans:    d.RatePlans,
		Rooms:        d.Rooms,
		Ledger:       d.Ledger,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
