package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendars "rstays/internal/domain/calendars"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_guest_calendar")}
}

func (r *CalendarRepository) ByUser(ctx context.Context, userID string) (*domaincalendars.GuestCalendar, error) {
	var cal domaincalendars.GuestCalendar
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&cal); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincalendars.ErrCalendarNotFound
		}
		return nil, err
	}
	cal.UserID = userID
	return &cal, nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendars.GuestCalendar) error {
	filter := bson.M{"_id": cal.UserID, "version": cal.Version}
	next := cal.Version + 1
	update := bson.M{"$set": bson.M{"entries": cal.Entries, "version": next}}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	cal.Version = next
	return nil
}
