package calendars

import (
	"context"
	"errors"
	"time"
)

var ErrCalendarNotFound = errors.New("calendars: not found")

// Entry is one stay on a guest's personal calendar, with the informal
// timestamps that include the unit's check-in/check-out time of day.
type Entry struct {
	BookingID string    `bson:"booking_id"`
	ListingID string    `bson:"listing_id"`
	Title     string    `bson:"title"`
	Start     time.Time `bson:"start"`
	End       time.Time `bson:"end"`
}

// GuestCalendar collects a user's upcoming and past stays.
type GuestCalendar struct {
	UserID  string  `bson:"user_id"`
	Entries []Entry `bson:"entries"`
	Version int64   `bson:"version"`
}

type Repository interface {
	ByUser(ctx context.Context, userID string) (*GuestCalendar, error)
	Save(ctx context.Context, cal *GuestCalendar) error
}

// Append adds a stay; duplicates by booking id are replaced.
func (c *GuestCalendar) Append(entry Entry) {
	for i := range c.Entries {
		if c.Entries[i].BookingID == entry.BookingID {
			c.Entries[i] = entry
			return
		}
	}
	c.Entries = append(c.Entries, entry)
}

// Remove drops the entry for a cancelled booking.
func (c *GuestCalendar) Remove(bookingID string) {
	kept := c.Entries[:0]
	for _, entry := range c.Entries {
		if entry.BookingID == bookingID {
			continue
		}
		kept = append(kept, entry)
	}
	c.Entries = kept
}
