package dto

import (
	"time"

	domainbooking "rstays/internal/domain/booking"
	"rstays/internal/domain/pricing"
)

type LineItemDTO struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Label    string  `json:"label,omitempty"`
	Amount   int64   `json:"amount"`
	Percent  float64 `json:"percent,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	UnitID   string  `json:"unit_id,omitempty"`
}

type BookingLineDTO struct {
	UnitID   string        `json:"unit_id"`
	Quantity int           `json:"quantity"`
	Rooms    []int         `json:"rooms,omitempty"`
	Total    int64         `json:"total"`
	Services []LineItemDTO `json:"services,omitempty"`
	Taxes    []LineItemDTO `json:"taxes,omitempty"`
}

type GuestsDTO struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type BookingView struct {
	ID              string           `json:"id"`
	ListingID       string           `json:"listing_id"`
	Kind            string           `json:"kind"`
	CheckIn         string           `json:"check_in"`
	CheckOut        string           `json:"check_out"`
	InformalCheckIn time.Time        `json:"informal_check_in"`
	InformalOut     time.Time        `json:"informal_check_out"`
	Guests          GuestsDTO        `json:"guests"`
	Units           []BookingLineDTO `json:"units"`
	Discounts       []LineItemDTO    `json:"discounts,omitempty"`
	Services        []LineItemDTO    `json:"services,omitempty"`
	Taxes           []LineItemDTO    `json:"taxes,omitempty"`
	Total           int64            `json:"total"`
	Currency        string           `json:"currency"`
	PromoCode       string           `json:"promo_code,omitempty"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
}

func mapLineItems(items []pricing.LineItem) []LineItemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemDTO{
			ID: item.ID, Name: item.Name, Label: item.Label, Amount: item.Amount,
			Percent: item.Percent, Quantity: item.Quantity, UnitID: item.UnitID,
		})
	}
	return out
}

func MapBooking(b *domainbooking.Booking) BookingView {
	units := make([]BookingLineDTO, 0, len(b.Units))
	for _, line := range b.Units {
		units = append(units, BookingLineDTO{
			UnitID:   line.UnitID,
			Quantity: line.Quantity,
			Rooms:    line.Rooms,
			Total:    line.Total,
			Services: mapLineItems(line.Services),
			Taxes:    mapLineItems(line.Taxes),
		})
	}
	return BookingView{
		ID:              b.ID,
		ListingID:       b.ListingID,
		Kind:            string(b.Kind),
		CheckIn:         b.Range.CheckInDay(),
		CheckOut:        b.Range.CheckOutDay(),
		InformalCheckIn: b.Informal.CheckIn,
		InformalOut:     b.Informal.CheckOut,
		Guests:          GuestsDTO{Adults: b.Guests.Adults, Children: b.Guests.Children, Infants: b.Guests.Infants},
		Units:           units,
		Discounts:       mapLineItems(b.Discounts),
		Services:        mapLineItems(b.Services),
		Taxes:           mapLineItems(b.Taxes),
		Total:           b.Total,
		Currency:        b.Currency,
		PromoCode:       b.PromoCode,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
	}
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}
