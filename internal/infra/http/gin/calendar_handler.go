package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rstays/internal/app/commands"
	calendarapp "rstays/internal/app/handlers/calendar"
)

type CalendarHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type calendarMutationRequest struct {
	ListingID string   `json:"listing_id"`
	UnitID    string   `json:"unit_id"`
	Dates     []string `json:"dates"`
	Count     int      `json:"count,omitempty"`
}

type calendarPricesRequest struct {
	ListingID     string   `json:"listing_id"`
	UnitID        string   `json:"unit_id"`
	Dates         []string `json:"dates"`
	Rate          int64    `json:"rate,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Percent       float64  `json:"percent,omitempty"`
	PercentOfBase bool     `json:"percent_of_base,omitempty"`
	Reset         bool     `json:"reset,omitempty"`
}

func (h CalendarHandler) Block(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	var req calendarMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request", "statusCode": http.StatusBadRequest})
		return
	}
	cmd := calendarapp.BlockCommand{
		CommandID: uuid.NewString(),
		ListingID: req.ListingID,
		UnitID:    req.UnitID,
		UserID:    user.ID,
		Dates:     req.Dates,
		Count:     req.Count,
	}
	result, err := commands.Dispatch[calendarapp.BlockCommand, *calendarapp.MutationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Unblock(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	var req calendarMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request", "statusCode": http.StatusBadRequest})
		return
	}
	cmd := calendarapp.UnblockCommand{
		CommandID: uuid.NewString(),
		ListingID: req.ListingID,
		UnitID:    req.UnitID,
		UserID:    user.ID,
		Dates:     req.Dates,
		Count:     req.Count,
	}
	result, err := commands.Dispatch[calendarapp.UnblockCommand, *calendarapp.MutationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Prices(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	var req calendarPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request", "statusCode": http.StatusBadRequest})
		return
	}
	cmd := calendarapp.PricesCommand{
		CommandID:     uuid.NewString(),
		ListingID:     req.ListingID,
		UnitID:        req.UnitID,
		UserID:        user.ID,
		Dates:         req.Dates,
		Rate:          req.Rate,
		Currency:      req.Currency,
		Percent:       req.Percent,
		PercentOfBase: req.PercentOfBase,
		Reset:         req.Reset,
	}
	result, err := commands.Dispatch[calendarapp.PricesCommand, *calendarapp.MutationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
