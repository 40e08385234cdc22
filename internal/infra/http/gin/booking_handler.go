package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rstays/internal/app/commands"
	bookingapp "rstays/internal/app/handlers/booking"
	domainbooking "rstays/internal/domain/booking"
	domainpricing "rstays/internal/domain/pricing"
)

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type selectionRequest struct {
	UnitID   string               `json:"unit_id"`
	Quantity int                  `json:"quantity"`
	RatePlan string               `json:"rate_plan,omitempty"`
	Services []servicePickRequest `json:"services,omitempty"`
}

type servicePickRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type createBookingRequest struct {
	ListingID string             `json:"listing_id"`
	CheckIn   string             `json:"check_in"`
	CheckOut  string             `json:"check_out"`
	Guests    guestsRequest      `json:"guests"`
	Country   string             `json:"country,omitempty"`
	Currency  string             `json:"currency,omitempty"`
	Lang      string             `json:"lang,omitempty"`
	PromoCode string             `json:"promo_code,omitempty"`
	Units     []selectionRequest `json:"units"`
}

type guestsRequest struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type reviewBookingRequest struct {
	Approve bool `json:"approve"`
}

type payBookingRequest struct {
	BalanceUsed int64 `json:"balance_used,omitempty"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request", "statusCode": http.StatusBadRequest})
		return
	}
	selections := make([]bookingapp.SelectionInput, 0, len(req.Units))
	for _, sel := range req.Units {
		services := make([]domainpricing.ServicePick, 0, len(sel.Services))
		for _, pick := range sel.Services {
			services = append(services, domainpricing.ServicePick{ID: pick.ID, Quantity: pick.Quantity})
		}
		selections = append(selections, bookingapp.SelectionInput{
			UnitID:   sel.UnitID,
			Quantity: sel.Quantity,
			RatePlan: sel.RatePlan,
			Services: services,
		})
	}
	cmd := bookingapp.CreateCommand{
		CommandID: uuid.NewString(),
		ListingID: req.ListingID,
		GuestID:   user.ID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests: domainbooking.Guests{
			Adults:   req.Guests.Adults,
			Children: req.Guests.Children,
			Infants:  req.Guests.Infants,
		},
		Country:         req.Country,
		Currency:        req.Currency,
		Lang:            req.Lang,
		PromoCode:       req.PromoCode,
		Selections:      selections,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateCommand, *bookingapp.CreateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Pay(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req payBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request", "statusCode": http.StatusBadRequest})
			return
		}
	}
	cmd := bookingapp.PayCommand{
		CommandID:       uuid.NewString(),
		BookingID:       c.Param("id"),
		UserID:          user.ID,
		BalanceUsed:     req.BalanceUsed,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.PayCommand, *bookingapp.PayResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := bookingapp.CancelCommand{
		CommandID:       uuid.NewString(),
		BookingID:       c.Param("id"),
		UserID:          user.ID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CancelCommand, *bookingapp.CancelResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Review(c *gin.Context) {
	user, ok := requireRole(c, "host")
	if !ok {
		return
	}
	var req reviewBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request", "statusCode": http.StatusBadRequest})
		return
	}
	cmd := bookingapp.ReviewCommand{
		CommandID:       uuid.NewString(),
		BookingID:       c.Param("id"),
		HostID:          user.ID,
		Approve:         req.Approve,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.ReviewCommand, *bookingapp.ReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
