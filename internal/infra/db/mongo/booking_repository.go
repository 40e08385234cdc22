package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rstays/internal/domain/booking"
	domaininventory "rstays/internal/domain/inventory"
	domainpricing "rstays/internal/domain/pricing"
	domainrange "rstays/internal/domain/shared/daterange"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id string) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"listing_id": listingID})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID        string                     `bson:"_id"`
	ListingID string                     `bson:"listing_id"`
	GuestID   string                     `bson:"guest_id"`
	HostID    string                     `bson:"host_id"`
	Kind      string                     `bson:"kind"`
	Range     rangeDocument              `bson:"range"`
	Informal  informalDocument           `bson:"informal"`
	Guests    domainbooking.Guests       `bson:"guests"`
	Units     []domainbooking.Line       `bson:"units"`
	Discounts []domainpricing.LineItem   `bson:"discounts"`
	Services  []domainpricing.LineItem   `bson:"services"`
	Taxes     []domainpricing.LineItem   `bson:"taxes"`
	Total     int64                      `bson:"total"`
	Currency  string                     `bson:"currency"`
	PromoCode string                     `bson:"promo_code"`
	Status    string                     `bson:"status"`
	Policy    domainbooking.RefundPolicy `bson:"policy"`
	PaymentID string                     `bson:"payment_id"`
	CreatedAt int64                      `bson:"created_at"`
	UpdatedAt int64                      `bson:"updated_at"`
	Version   int64                      `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type informalDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Kind:      string(b.Kind),
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Informal:  informalDocument{CheckIn: b.Informal.CheckIn.UnixMilli(), CheckOut: b.Informal.CheckOut.UnixMilli()},
		Guests:    b.Guests,
		Units:     b.Units,
		Discounts: b.Discounts,
		Services:  b.Services,
		Taxes:     b.Taxes,
		Total:     b.Total,
		Currency:  b.Currency,
		PromoCode: b.PromoCode,
		Status:    string(b.Status),
		Policy:    b.Policy,
		PaymentID: b.PaymentID,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        d.ID,
		ListingID: d.ListingID,
		GuestID:   d.GuestID,
		HostID:    d.HostID,
		Kind:      domaininventory.Kind(d.Kind),
		Range:     domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Informal:  domainbooking.Informal{CheckIn: timestampToTime(d.Informal.CheckIn), CheckOut: timestampToTime(d.Informal.CheckOut)},
		Guests:    d.Guests,
		Units:     d.Units,
		Discounts: d.Discounts,
		Services:  d.Services,
		Taxes:     d.Taxes,
		Total:     d.Total,
		Currency:  d.Currency,
		PromoCode: d.PromoCode,
		Status:    domainbooking.Status(d.Status),
		Policy:    d.Policy,
		PaymentID: d.PaymentID,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
