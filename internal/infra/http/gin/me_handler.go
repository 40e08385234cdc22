package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rstays/internal/app/dto"
	meapp "rstays/internal/app/handlers/me"
	"rstays/internal/app/queries"
)

type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := meapp.GuestBookingsQuery{UserID: user.ID, Lang: c.Query("lang")}
	result, err := queries.Ask[meapp.GuestBookingsQuery, *dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("me bookings query failed", "error", err, "user_id", user.ID)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to load bookings", "statusCode": http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
