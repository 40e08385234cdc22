package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "rstays/internal/app/handlers/booking"
	calendarapp "rstays/internal/app/handlers/calendar"
	domainbooking "rstays/internal/domain/booking"
	domaincalendars "rstays/internal/domain/calendars"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpayment "rstays/internal/domain/payment"
	domainpromo "rstays/internal/domain/promo"
	"rstays/internal/domain/shared/daterange"
	dbmongo "rstays/internal/infra/db/mongo"
	"rstays/internal/infra/storage/memory"
)

var notFoundErrors = []error{
	domainlistings.ErrListingNotFound,
	domainbooking.ErrBookingNotFound,
	domaininventory.ErrUnitNotFound,
	domainpromo.ErrPromoNotFound,
	domainpayment.ErrPaymentNotFound,
	domaincalendars.ErrCalendarNotFound,
}

var forbiddenErrors = []error{
	bookingapp.ErrSelfBooking,
	bookingapp.ErrNotBookingGuest,
	bookingapp.ErrNotListingHost,
	calendarapp.ErrNotManager,
}

var validationErrors = []error{
	daterange.ErrInvalidRange,
	daterange.ErrInvalidDay,
	bookingapp.ErrCheckInPast,
	bookingapp.ErrNightsOutOfRange,
	bookingapp.ErrCapacityExceeded,
	bookingapp.ErrNoSelections,
	bookingapp.ErrUnitNotOfListing,
	bookingapp.ErrAlreadyCancelled,
	bookingapp.ErrStayEnded,
	bookingapp.ErrPaymentExists,
	bookingapp.ErrBalanceInvalid,
	calendarapp.ErrPriceRequired,
	domainbooking.ErrGuestRequired,
	domainbooking.ErrNoAdults,
	domainbooking.ErrInvalidState,
	domaininventory.ErrQuantityInvalid,
	domaininventory.ErrNoDates,
	domainlistings.ErrInactive,
	domainpromo.ErrPromoExpired,
	domainpromo.ErrPromoExceeded,
}

// conflictErrors map to 400 like other booking rejections: the dates are
// simply not available, whether lost to a guest or to a concurrent writer.
var conflictErrors = []error{
	domaininventory.ErrDatesUnavailable,
	domaininventory.ErrInsufficientRooms,
	dbmongo.ErrConcurrentUpdate,
	memory.ErrConcurrentUpdate,
}

// respondError maps domain sentinels to the wire error shape
// {message, statusCode}. Unknown errors are logged and masked as 500.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	if status, ok := statusFor(err); ok {
		c.JSON(status, gin.H{"message": err.Error(), "statusCode": status})
		return
	}
	if log != nil {
		log.Error("request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error", "statusCode": http.StatusInternalServerError})
}

func statusFor(err error) (int, bool) {
	switch {
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, true
	case matchesAny(err, forbiddenErrors):
		return http.StatusForbidden, true
	case matchesAny(err, validationErrors), matchesAny(err, conflictErrors):
		return http.StatusBadRequest, true
	default:
		return 0, false
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
