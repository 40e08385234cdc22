package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpayment "rstays/internal/domain/payment"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("agg_payment")}
}

func (r *PaymentRepository) ByBookingID(ctx context.Context, bookingID string) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
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

type paymentDocument struct {
	ID                    string `bson:"_id"`
	BookingID             string `bson:"booking_id"`
	IntentID              string `bson:"intent_id"`
	PayoutAmount          int64  `bson:"payout_amount"`
	GatewayFee            int64  `bson:"gateway_fee"`
	AmountAfterCancelling int64  `bson:"amount_after_cancelling"`
	BalanceUsed           int64  `bson:"balance_used"`
	Currency              string `bson:"currency"`
	Status                string `bson:"status"`
	CreatedAt             int64  `bson:"created_at"`
	UpdatedAt             int64  `bson:"updated_at"`
	Version               int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:                    p.ID,
		BookingID:             p.BookingID,
		IntentID:              p.IntentID,
		PayoutAmount:          p.PayoutAmount,
		GatewayFee:            p.GatewayFee,
		AmountAfterCancelling: p.AmountAfterCancelling,
		BalanceUsed:           p.BalanceUsed,
		Currency:              p.Currency,
		Status:                string(p.Status),
		CreatedAt:             p.CreatedAt.UnixMilli(),
		UpdatedAt:             p.UpdatedAt.UnixMilli(),
		Version:               p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:                    d.ID,
		BookingID:             d.BookingID,
		IntentID:              d.IntentID,
		PayoutAmount:          d.PayoutAmount,
		GatewayFee:            d.GatewayFee,
		AmountAfterCancelling: d.AmountAfterCancelling,
		BalanceUsed:           d.BalanceUsed,
		Currency:              d.Currency,
		Status:                domainpayment.Status(d.Status),
		CreatedAt:             timestampToTime(d.CreatedAt),
		UpdatedAt:             timestampToTime(d.UpdatedAt),
		Version:               d.Version,
	}
}
