package pricing

import (
	"errors"
	"strings"

	"rstays/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
	ErrNoNights      = errors.New("pricing: stay must cover at least one night")
	ErrNoSelections  = errors.New("pricing: at least one unit selection required")
	ErrQuantity      = errors.New("pricing: selection quantity must be positive")
)

// FeeKind distinguishes flat amounts from percentage components.
type FeeKind string

const (
	FeeFixed      FeeKind = "fixed"
	FeePercentage FeeKind = "percentage"
)

// AdjustKind tells whether a rule lowers or raises the price.
type AdjustKind string

const (
	AdjustReduce   AdjustKind = "reduce"
	AdjustIncrease AdjustKind = "increase"
)

// Fee is an optional guest-selectable service charge attached to a unit.
type Fee struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
	Type  FeeKind `bson:"type" json:"type"`
	Reuse bool    `bson:"reuse" json:"reuse"`
}

// Tax always applies; percentage taxes are computed on the rate-plus-fees
// subtotal and never compound with each other.
type Tax struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
	Type  FeeKind `bson:"type" json:"type"`
}

// Prices is the base price configuration of a unit or room type.
type Prices struct {
	Rate     int64  `bson:"rate" json:"rate"`
	Currency string `bson:"currency" json:"currency"`
	Fees     []Fee  `bson:"other_fees" json:"other_fees"`
	Taxes    []Tax  `bson:"taxes" json:"taxes"`
}

// Convert returns a copy of the price configuration denominated in the target
// currency. Fixed components are scaled by the exchange rate; percentage
// components are dimensionless and pass through unchanged.
func (p Prices) Convert(rate float64, currency string) Prices {
	out := p
	out.Rate = money.Round(float64(p.Rate) * rate)
	out.Currency = strings.ToUpper(currency)
	out.Fees = append([]Fee(nil), p.Fees...)
	out.Taxes = append([]Tax(nil), p.Taxes...)
	for i, fee := range out.Fees {
		if fee.Type == FeeFixed {
			out.Fees[i].Price = float64(money.Round(fee.Price * rate))
		}
	}
	for i, tax := range out.Taxes {
		if tax.Type == FeeFixed {
			out.Taxes[i].Price = float64(money.Round(tax.Price * rate))
		}
	}
	return out
}

// HolidayRule names a holiday and the fractional rate adjustment it carries.
type HolidayRule struct {
	Name    string     `bson:"name" json:"name"`
	Percent float64    `bson:"percent" json:"percent"`
	Type    AdjustKind `bson:"type" json:"type"`
}

// DaysDiscount applies when the stay reaches a nights threshold. Thresholds
// are distinct per unit; the largest qualifying one wins.
type DaysDiscount struct {
	Days     int        `bson:"days" json:"days"`
	Discount float64    `bson:"discount" json:"discount"`
	Type     AdjustKind `bson:"type" json:"type"`
}

// CountryDiscount matches the guest's declared country.
type CountryDiscount struct {
	Country  string     `bson:"country" json:"country"`
	Discount float64    `bson:"discount" json:"discount"`
	Type     AdjustKind `bson:"type" json:"type"`
}

// GuestsDiscount matches the exact adult-plus-children head count.
type GuestsDiscount struct {
	Guests   int        `bson:"guests" json:"guests"`
	Discount float64    `bson:"discount" json:"discount"`
	Type     AdjustKind `bson:"type" json:"type"`
}

// Rules bundles the deal configuration of a unit.
type Rules struct {
	WeekendsDeal       float64           `bson:"weekends_deal" json:"weekends_deal"`
	BaseDiscount       float64           `bson:"base_discount" json:"base_discount"`
	LastMinuteDiscount float64           `bson:"last_minute_discount" json:"last_minute_discount"`
	DaysDiscounts      []DaysDiscount    `bson:"days_discounts" json:"days_discounts"`
	CountriesDiscounts []CountryDiscount `bson:"countries_discounts" json:"countries_discounts"`
	GuestsDiscounts    []GuestsDiscount  `bson:"guests_discounts" json:"guests_discounts"`
	Holidays           []HolidayRule     `bson:"holidays" json:"holidays"`
}

// Override is a per-date price set by the host. Either a fixed nightly rate
// or a fraction of the base rate.
type Override struct {
	Rate          int64   `bson:"rate"`
	Currency      string  `bson:"currency"`
	Percent       float64 `bson:"percent"`
	PercentOfBase bool    `bson:"percent_of_base"`
}

// DatedOverride pins an override to a calendar day.
type DatedOverride struct {
	Date     string
	Override Override
}

// ServicePick is a guest's selection of an optional fee, with a repeat count
// for reusable services.
type ServicePick struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// LineItem is one displayed price component of a quote. Discount amounts are
// negative when they reduce the total.
type LineItem struct {
	ID       string  `bson:"id" json:"id,omitempty"`
	Name     string  `bson:"name" json:"name"`
	Label    string  `bson:"label,omitempty" json:"label,omitempty"`
	Amount   int64   `bson:"amount" json:"amount"`
	Type     FeeKind `bson:"type" json:"type,omitempty"`
	Percent  float64 `bson:"percent" json:"percent,omitempty"`
	Quantity int     `bson:"quantity" json:"quantity,omitempty"`
	UnitID   string  `bson:"unit_id" json:"unitId,omitempty"`
}

// UnitQuote is the per-room-instance price breakdown inside a quote.
type UnitQuote struct {
	UnitID        string     `bson:"unit_id" json:"unitId"`
	Quantity      int        `bson:"quantity" json:"quantity"`
	RatesSubtotal int64      `bson:"rates_subtotal" json:"ratesSubtotal"`
	Total         int64      `bson:"total" json:"total"`
	Services      []LineItem `bson:"services" json:"services"`
	Taxes         []LineItem `bson:"taxes" json:"taxes"`
}

// Quote is the complete itemized price of a stay.
type Quote struct {
	Currency  string      `bson:"currency" json:"currency"`
	Total     int64       `bson:"total" json:"total"`
	Units     []UnitQuote `bson:"units" json:"units"`
	Discounts []LineItem  `bson:"discounts" json:"discounts"`
	Services  []LineItem  `bson:"services" json:"services"`
	Taxes     []LineItem  `bson:"taxes" json:"taxes"`
}
