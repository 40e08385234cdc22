package pricing

import (
	"context"
	"time"

	"rstays/internal/domain/shared/daterange"
	"rstays/internal/domain/shared/money"
)

// lastMinuteWindowDays is how close to check-in a stay must be for the
// last-minute discount to apply.
const lastMinuteWindowDays = 14

// HolidayDay marks a calendar day matched by a holiday rule.
type HolidayDay struct {
	Date string
	Name string
	Type AdjustKind
}

// Calendar answers weekend/holiday questions for a set of days.
type Calendar interface {
	Weekends(ctx context.Context, days []string) ([]string, error)
	HolidaysInRange(ctx context.Context, rules []HolidayRule, days []string) ([]HolidayDay, error)
}

// Selection is one unit/room-type line of a stay with its price configuration
// already denominated in the quote currency.
type Selection struct {
	UnitID    string
	Quantity  int
	Prices    Prices
	Rules     Rules
	Overrides []DatedOverride
	Services  []ServicePick
}

// StayInput carries everything the engine needs to price a stay.
type StayInput struct {
	Range         daterange.DateRange
	Guests        int // adults plus children
	Country       string
	Currency      string
	PromoCode     string
	PromoDiscount float64 // whole percent, 0 disables
	Selections    []Selection
}

// Engine computes itemized stay prices. The computation order is fixed:
// nightly rates (weekend deals, holiday adjustments, date overrides, plain
// nights), then the discount stack, then fees, then taxes, then the promo
// adjustment on the aggregate.
type Engine struct {
	Calendar Calendar
	Now      func() time.Time
}

// Quote prices the stay described by input.
func (e *Engine) Quote(ctx context.Context, input StayInput) (Quote, error) {
	if input.Currency == "" {
		return Quote{}, ErrCurrencyUnset
	}
	nights := input.Range.Nights()
	if nights <= 0 {
		return Quote{}, ErrNoNights
	}
	if len(input.Selections) == 0 {
		return Quote{}, ErrNoSelections
	}
	days := input.Range.Days()

	weekends, err := e.weekends(ctx, days)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{Currency: input.Currency}
	for _, sel := range input.Selections {
		if sel.Quantity <= 0 {
			return Quote{}, ErrQuantity
		}
		holidays, err := e.holidays(ctx, sel.Rules.Holidays, days)
		if err != nil {
			return Quote{}, err
		}
		for i := 0; i < sel.Quantity; i++ {
			unitQuote, discounts := e.quoteInstance(sel, input, nights, weekends, holidays)
			quote.Units = append(quote.Units, unitQuote)
			quote.Discounts = append(quote.Discounts, discounts...)
			quote.Services = append(quote.Services, unitQuote.Services...)
			quote.Taxes = append(quote.Taxes, unitQuote.Taxes...)
			quote.Total += unitQuote.Total
		}
	}

	if input.PromoDiscount > 0 {
		promo := LineItem{
			Name:    "Promocode",
			ID:      input.PromoCode,
			Amount:  -money.Round(float64(quote.Total) * input.PromoDiscount / 100),
			Type:    FeePercentage,
			Percent: input.PromoDiscount,
		}
		quote.Discounts = append(quote.Discounts, promo)
		quote.Total += promo.Amount
	}
	return quote, nil
}

// quoteInstance prices a single room instance of a selection.
func (e *Engine) quoteInstance(sel Selection, input StayInput, nights int, weekends []string, holidays []HolidayDay) (UnitQuote, []LineItem) {
	base := sel.Prices.Rate
	overridden := make(map[string]Override, len(sel.Overrides))
	for _, ov := range sel.Overrides {
		overridden[ov.Date] = ov.Override
	}

	var subtotal int64
	pricedDays := len(sel.Overrides)

	if sel.Rules.WeekendsDeal != 0 {
		for _, day := range weekends {
			if _, ok := overridden[day]; ok {
				continue
			}
			pricedDays++
			subtotal += base + money.Round(float64(base)*sel.Rules.WeekendsDeal)
		}
	}

	for _, holiday := range holidays {
		if _, ok := overridden[holiday.Date]; ok {
			continue
		}
		pricedDays++
		deal := money.Round(float64(base) * holidayPercent(sel.Rules.Holidays, holiday.Name))
		if holiday.Type == AdjustReduce {
			subtotal += base - deal
		} else {
			subtotal += base + deal
		}
	}

	for _, ov := range sel.Overrides {
		switch {
		case ov.Override.PercentOfBase:
			subtotal += money.Round(float64(base) * ov.Override.Percent)
		case ov.Override.Rate != 0:
			subtotal += ov.Override.Rate
		default:
			subtotal += base
		}
	}

	subtotal += base * int64(nights-pricedDays)

	discounts, discountTotal := e.discountStack(sel.Rules, input, subtotal, nights)
	if discountTotal != 0 {
		subtotal -= money.Round(float64(subtotal) * discountTotal)
	}

	services, taxes, extras := otherPrices(sel, subtotal)

	unitQuote := UnitQuote{
		UnitID:        sel.UnitID,
		Quantity:      1,
		RatesSubtotal: subtotal,
		Total:         subtotal + extras,
		Services:      services,
		Taxes:         taxes,
	}
	return unitQuote, discounts
}

// discountStack evaluates the additive discount fractions and returns the
// display line items plus the summed fraction applied once to the subtotal.
func (e *Engine) discountStack(rules Rules, input StayInput, subtotal int64, nights int) ([]LineItem, float64) {
	var items []LineItem
	var total float64

	push := func(name string, fraction float64, kind AdjustKind) {
		amount := money.Round(float64(subtotal) * fraction)
		if kind == AdjustReduce {
			amount = -amount
		}
		items = append(items, LineItem{Name: name, Amount: amount, Percent: fraction})
	}

	if rules.BaseDiscount != 0 {
		total += rules.BaseDiscount
		push("Base Discount", rules.BaseDiscount, AdjustReduce)
	}

	if rules.LastMinuteDiscount != 0 {
		untilCheckIn := input.Range.CheckIn.Sub(e.now()).Hours() / 24
		if untilCheckIn <= lastMinuteWindowDays {
			total += rules.LastMinuteDiscount
			push("Last Minute Discount", rules.LastMinuteDiscount, AdjustReduce)
		}
	}

	if deal, ok := bestDaysDiscount(rules.DaysDiscounts, nights); ok {
		if deal.Type == AdjustReduce {
			total += deal.Discount
		} else {
			total -= deal.Discount
		}
		push("Day Deal", deal.Discount, deal.Type)
	}

	for _, country := range rules.CountriesDiscounts {
		if country.Country != input.Country {
			continue
		}
		if country.Type == AdjustReduce {
			total += country.Discount
		} else {
			total -= country.Discount
		}
		push("Country Discount", country.Discount, country.Type)
		break
	}

	for _, guests := range rules.GuestsDiscounts {
		if guests.Guests != input.Guests {
			continue
		}
		if guests.Type == AdjustReduce {
			total += guests.Discount
		} else {
			total -= guests.Discount
		}
		push("Guests Deal", guests.Discount, guests.Type)
		break
	}

	return items, total
}

// otherPrices computes the selected fees and the taxes for one room instance.
// Percentage fees are based on the rates subtotal; percentage taxes on the
// subtotal plus everything accumulated before them, without compounding.
func otherPrices(sel Selection, subtotal int64) (services, taxes []LineItem, total int64) {
	picked := make(map[string]int, len(sel.Services))
	for _, pick := range sel.Services {
		quantity := pick.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		picked[pick.ID] = quantity
	}

	for _, fee := range sel.Prices.Fees {
		if fee.Type != FeeFixed || fee.Price == 0 {
			continue
		}
		quantity, ok := picked[fee.ID]
		if !ok {
			continue
		}
		if !fee.Reuse {
			quantity = 1
		}
		amount := money.Round(fee.Price * float64(quantity))
		total += amount
		services = append(services, LineItem{
			ID: fee.ID, Name: fee.Name, Amount: amount, Type: fee.Type,
			Quantity: quantity, UnitID: sel.UnitID,
		})
	}

	for _, tax := range sel.Prices.Taxes {
		if tax.Type != FeeFixed || tax.Price == 0 {
			continue
		}
		amount := money.Round(tax.Price)
		total += amount
		taxes = append(taxes, LineItem{
			ID: tax.ID, Name: tax.Name, Amount: amount, Type: tax.Type, UnitID: sel.UnitID,
		})
	}

	for _, fee := range sel.Prices.Fees {
		if fee.Type == FeeFixed {
			continue
		}
		quantity, ok := picked[fee.ID]
		if !ok {
			continue
		}
		if !fee.Reuse {
			quantity = 1
		}
		amount := money.Round(float64(subtotal) * fee.Price / 100 * float64(quantity))
		total += amount
		services = append(services, LineItem{
			ID: fee.ID, Name: fee.Name, Amount: amount, Type: fee.Type,
			Percent: fee.Price, Quantity: quantity, UnitID: sel.UnitID,
		})
	}

	percentageBase := subtotal + total
	var percentageTaxes int64
	for _, tax := range sel.Prices.Taxes {
		if tax.Type == FeeFixed {
			continue
		}
		amount := money.Round(float64(percentageBase) * tax.Price / 100)
		percentageTaxes += amount
		taxes = append(taxes, LineItem{
			ID: tax.ID, Name: tax.Name, Amount: amount, Type: tax.Type,
			Percent: tax.Price, UnitID: sel.UnitID,
		})
	}
	total += percentageTaxes

	return services, taxes, total
}

func bestDaysDiscount(deals []DaysDiscount, nights int) (DaysDiscount, bool) {
	best := DaysDiscount{}
	found := false
	for _, deal := range deals {
		if deal.Days > nights {
			continue
		}
		if !found || deal.Days > best.Days {
			best = deal
			found = true
		}
	}
	return best, found
}

func holidayPercent(rules []HolidayRule, name string) float64 {
	for _, rule := range rules {
		if rule.Name == name {
			return rule.Percent
		}
	}
	return 0
}

func (e *Engine) weekends(ctx context.Context, days []string) ([]string, error) {
	if e.Calendar == nil {
		return nil, nil
	}
	return e.Calendar.Weekends(ctx, days)
}

func (e *Engine) holidays(ctx context.Context, rules []HolidayRule, days []string) ([]HolidayDay, error) {
	if e.Calendar == nil || len(rules) == 0 {
		return nil, nil
	}
	return e.Calendar.HolidaysInRange(ctx, rules, days)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}
