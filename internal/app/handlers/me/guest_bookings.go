package me

import (
	"context"

	"rstays/internal/app/dto"
	"rstays/internal/app/handlers/support"
	"rstays/internal/app/policies"
	"rstays/internal/app/queries"
	"rstays/internal/app/uow"
)

const guestBookingsKey = "me.bookings"

type GuestBookingsQuery struct {
	UserID string
	Lang   string
}

func (q GuestBookingsQuery) Key() string { return guestBookingsKey }

type GuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Locale     policies.LocalizationPort
}

func (h *GuestBookingsHandler) Handle(ctx context.Context, q GuestBookingsQuery) (*dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if h.Locale != nil && q.Lang != "" {
		_ = h.Locale.TranslateBookingPrices(ctx, bookings, q.Lang)
	}

	out := &dto.BookingCollection{Items: make([]dto.BookingView, 0, len(bookings))}
	for _, bk := range bookings {
		out.Items = append(out.Items, dto.MapBooking(bk))
	}
	return out, nil
}

var _ queries.Handler[GuestBookingsQuery, *dto.BookingCollection] = (*GuestBookingsHandler)(nil)
