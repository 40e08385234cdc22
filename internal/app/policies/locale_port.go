package policies

import (
	"context"

	"rstays/internal/domain/booking"
)

// LocalizationPort attaches translated display labels to booking price
// line items. Purely presentational; never part of price computation.
type LocalizationPort interface {
	TranslateBookingPrices(ctx context.Context, bookings []*booking.Booking, lang string) error
}
