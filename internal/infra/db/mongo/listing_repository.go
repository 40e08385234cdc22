package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id string) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

type listingDocument struct {
	ID        string   `bson:"_id"`
	HostID    string   `bson:"host_id"`
	Managers  []string `bson:"managers,omitempty"`
	Title     string   `bson:"title"`
	Country   string   `bson:"country"`
	City      string   `bson:"city"`
	Kind      string   `bson:"kind"`
	UnitID    string   `bson:"unit_id,omitempty"`
	PoolIDs   []string `bson:"pool_ids,omitempty"`
	State     string   `bson:"state"`
	CreatedAt int64    `bson:"created_at"`
	UpdatedAt int64    `bson:"updated_at"`
	Version   int64    `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:        l.ID,
		HostID:    l.HostID,
		Managers:  l.Managers,
		Title:     l.Title,
		Country:   l.Country,
		City:      l.City,
		Kind:      string(l.Kind),
		UnitID:    l.UnitID,
		PoolIDs:   l.PoolIDs,
		State:     string(l.State),
		CreatedAt: l.CreatedAt.UnixMilli(),
		UpdatedAt: l.UpdatedAt.UnixMilli(),
		Version:   l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:        d.ID,
		HostID:    d.HostID,
		Managers:  d.Managers,
		Title:     d.Title,
		Country:   d.Country,
		City:      d.City,
		Kind:      domaininventory.Kind(d.Kind),
		UnitID:    d.UnitID,
		PoolIDs:   d.PoolIDs,
		State:     domainlistings.State(d.State),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}
