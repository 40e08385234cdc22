package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpromo "rstays/internal/domain/promo"
)

type PromoRepository struct {
	col *mongo.Collection
}

func NewPromoRepository(db *mongo.Database) *PromoRepository {
	return &PromoRepository{col: db.Collection("agg_promo")}
}

func (r *PromoRepository) ByCode(ctx context.Context, code string) (*domainpromo.Promo, error) {
	var doc promoDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpromo.ErrPromoNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PromoRepository) Save(ctx context.Context, p *domainpromo.Promo) error {
	doc := newPromoDocument(p)
	filter := bson.M{"_id": doc.Code, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

type promoDocument struct {
	Code       string  `bson:"_id"`
	Discount   float64 `bson:"discount"`
	ExpiresAt  int64   `bson:"expires_at,omitempty"`
	UsageLimit int     `bson:"usage_limit"`
	Used       int     `bson:"used"`
	Version    int64   `bson:"version"`
}

func newPromoDocument(p *domainpromo.Promo) promoDocument {
	var expires int64
	if !p.ExpiresAt.IsZero() {
		expires = p.ExpiresAt.UnixMilli()
	}
	return promoDocument{
		Code:       p.Code,
		Discount:   p.Discount,
		ExpiresAt:  expires,
		UsageLimit: p.UsageLimit,
		Used:       p.Used,
		Version:    p.Version,
	}
}

func (d promoDocument) toAggregate() *domainpromo.Promo {
	var expires time.Time
	if d.ExpiresAt != 0 {
		expires = timestampToTime(d.ExpiresAt)
	}
	return &domainpromo.Promo{
		Code:       d.Code,
		Discount:   d.Discount,
		ExpiresAt:  expires,
		UsageLimit: d.UsageLimit,
		Used:       d.Used,
		Version:    d.Version,
	}
}
