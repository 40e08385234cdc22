package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rstays/internal/domain/shared/daterange"
)

type stubCalendar struct {
	weekends []string
	holidays []HolidayDay
}

func (c stubCalendar) Weekends(ctx context.Context, days []string) ([]string, error) {
	var out []string
	marked := make(map[string]bool, len(c.weekends))
	for _, day := range c.weekends {
		marked[day] = true
	}
	for _, day := range days {
		if marked[day] {
			out = append(out, day)
		}
	}
	return out, nil
}

func (c stubCalendar) HolidaysInRange(ctx context.Context, rules []HolidayRule, days []string) ([]HolidayDay, error) {
	var out []HolidayDay
	inRange := make(map[string]bool, len(days))
	for _, day := range days {
		inRange[day] = true
	}
	for _, h := range c.holidays {
		if inRange[h.Date] {
			out = append(out, h)
		}
	}
	return out, nil
}

func mustRange(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	require.NoError(t, err)
	return dr
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func plainInput(t *testing.T, nights int) StayInput {
	in := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	return StayInput{
		Range:    daterange.DateRange{CheckIn: in, CheckOut: in.AddDate(0, 0, nights)},
		Guests:   2,
		Currency: "EUR",
		Selections: []Selection{{
			UnitID:   "unit-1",
			Quantity: 1,
			Prices:   Prices{Rate: 10000, Currency: "EUR"},
		}},
	}
}

func TestQuotePlainNights(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	quote, err := engine.Quote(context.Background(), plainInput(t, 3))
	require.NoError(t, err)

	assert.Equal(t, int64(30000), quote.Total)
	require.Len(t, quote.Units, 1)
	assert.Equal(t, int64(30000), quote.Units[0].RatesSubtotal)
	assert.Empty(t, quote.Discounts)
}

func TestQuoteBaseDiscount(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 3)
	input.Selections[0].Rules = Rules{BaseDiscount: 0.1}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, int64(27000), quote.Total)
	require.Len(t, quote.Discounts, 1)
	assert.Equal(t, "Base Discount", quote.Discounts[0].Name)
	assert.Equal(t, int64(-3000), quote.Discounts[0].Amount)
}

func TestQuoteDiscountsSumBeforeApplying(t *testing.T) {
	// Base and country discounts are summed as fractions and applied once,
	// not applied one after another.
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 2)
	input.Country = "DE"
	input.Selections[0].Rules = Rules{
		BaseDiscount:       0.1,
		CountriesDiscounts: []CountryDiscount{{Country: "DE", Discount: 0.1, Type: AdjustReduce}},
	}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)

	// 20000 - round(20000*0.2) = 16000; sequential application would be 16200.
	assert.Equal(t, int64(16000), quote.Total)
	assert.Len(t, quote.Discounts, 2)
}

func TestQuoteLastMinuteDiscount(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 2)
	input.Range = mustRange(t, "2026-03-05", "2026-03-07") // four days out
	input.Selections[0].Rules = Rules{LastMinuteDiscount: 0.15}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(17000), quote.Total)

	// Outside the window the discount does not fire.
	input.Range = mustRange(t, "2026-06-10", "2026-06-12")
	quote, err = engine.Quote(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), quote.Total)
}

func TestQuoteDaysDiscountBestThresholdWins(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 8)
	input.Selections[0].Rules = Rules{
		DaysDiscounts: []DaysDiscount{
			{Days: 3, Discount: 0.05, Type: AdjustReduce},
			{Days: 7, Discount: 0.15, Type: AdjustReduce},
			{Days: 30, Discount: 0.5, Type: AdjustReduce},
		},
	}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	// 8 nights qualifies for the 7-night tier only.
	assert.Equal(t, int64(68000), quote.Total)
}

func TestQuoteWeekendDeal(t *testing.T) {
	engine := &Engine{
		Calendar: stubCalendar{weekends: []string{"2026-06-13"}},
		Now:      fixedNow,
	}

	input := plainInput(t, 3)
	input.Range = mustRange(t, "2026-06-12", "2026-06-15")
	input.Selections[0].Rules = Rules{WeekendsDeal: 0.5}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	// Two plain nights plus one weekend night at 150%.
	assert.Equal(t, int64(35000), quote.Total)
}

func TestQuoteHolidayAdjustment(t *testing.T) {
	rule := HolidayRule{Name: "New Year", Percent: 0.2, Type: AdjustIncrease}
	engine := &Engine{
		Calendar: stubCalendar{holidays: []HolidayDay{{Date: "2026-12-31", Name: "New Year", Type: AdjustIncrease}}},
		Now:      fixedNow,
	}

	input := plainInput(t, 2)
	input.Range = mustRange(t, "2026-12-30", "2027-01-01")
	input.Selections[0].Rules = Rules{Holidays: []HolidayRule{rule}}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(22000), quote.Total)
}

func TestQuoteDateOverrides(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 3)
	input.Selections[0].Overrides = []DatedOverride{
		{Date: "2026-06-10", Override: Override{Rate: 5000}},
		{Date: "2026-06-11", Override: Override{Percent: 0.5, PercentOfBase: true}},
	}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	// 5000 + 5000 + one plain night.
	assert.Equal(t, int64(20000), quote.Total)
}

func TestQuoteOverrideBeatsWeekendDeal(t *testing.T) {
	engine := &Engine{
		Calendar: stubCalendar{weekends: []string{"2026-06-13"}},
		Now:      fixedNow,
	}

	input := plainInput(t, 1)
	input.Range = mustRange(t, "2026-06-13", "2026-06-14")
	input.Selections[0].Rules = Rules{WeekendsDeal: 0.5}
	input.Selections[0].Overrides = []DatedOverride{
		{Date: "2026-06-13", Override: Override{Rate: 4000}},
	}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), quote.Total)
}

func TestQuoteFeesAndTaxes(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 2)
	input.Selections[0].Prices.Fees = []Fee{
		{ID: "cleaning", Name: "cleaning", Price: 3000, Type: FeeFixed},
		{ID: "breakfast", Name: "breakfast", Price: 1500, Type: FeeFixed, Reuse: true},
		{ID: "service", Name: "service", Price: 10, Type: FeePercentage},
	}
	input.Selections[0].Prices.Taxes = []Tax{
		{ID: "city-tax", Name: "city-tax", Price: 500, Type: FeeFixed},
		{ID: "vat", Name: "vat", Price: 5, Type: FeePercentage},
	}
	input.Selections[0].Services = []ServicePick{
		{ID: "cleaning", Quantity: 3}, // not reusable, charged once
		{ID: "breakfast", Quantity: 2},
		{ID: "service", Quantity: 1},
	}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)

	// rates 20000, cleaning 3000, breakfast 2*1500, service 10% of rates,
	// fixed tax 500, vat 5% of (20000+3000+3000+2000+500).
	assert.Equal(t, int64(20000+3000+3000+2000+500+1425), quote.Total)
	assert.Len(t, quote.Services, 3)
	assert.Len(t, quote.Taxes, 2)
}

func TestQuotePercentageTaxesDoNotCompound(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 1)
	input.Selections[0].Prices.Taxes = []Tax{
		{ID: "a", Name: "a", Price: 10, Type: FeePercentage},
		{ID: "b", Name: "b", Price: 10, Type: FeePercentage},
	}

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	// Both taxes computed on 10000, not on 10000 then 11000.
	assert.Equal(t, int64(12000), quote.Total)
}

func TestQuotePromoAppliedOnceGlobally(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 3)
	input.PromoCode = "WELCOME20"
	input.PromoDiscount = 20
	input.Selections[0].Quantity = 2

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)

	// Two instances of 30000, then -20% once on the aggregate.
	assert.Equal(t, int64(48000), quote.Total)
	require.NotEmpty(t, quote.Discounts)
	promo := quote.Discounts[len(quote.Discounts)-1]
	assert.Equal(t, "Promocode", promo.Name)
	assert.Equal(t, int64(-12000), promo.Amount)
}

func TestQuoteQuantityMultipliesInstances(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	input := plainInput(t, 2)
	input.Selections[0].Quantity = 3

	quote, err := engine.Quote(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), quote.Total)
	assert.Len(t, quote.Units, 3)
}

func TestQuoteMonotonicInNights(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}

	var previous int64
	for nights := 1; nights <= 30; nights++ {
		quote, err := engine.Quote(context.Background(), plainInput(t, nights))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, quote.Total, previous, "nights=%d", nights)
		previous = quote.Total
	}
}

func TestQuoteValidation(t *testing.T) {
	engine := &Engine{Calendar: stubCalendar{}, Now: fixedNow}
	ctx := context.Background()

	input := plainInput(t, 2)
	input.Currency = ""
	_, err := engine.Quote(ctx, input)
	assert.ErrorIs(t, err, ErrCurrencyUnset)

	input = plainInput(t, 2)
	input.Range = daterange.DateRange{CheckIn: input.Range.CheckIn, CheckOut: input.Range.CheckIn}
	_, err = engine.Quote(ctx, input)
	assert.ErrorIs(t, err, ErrNoNights)

	input = plainInput(t, 2)
	input.Selections = nil
	_, err = engine.Quote(ctx, input)
	assert.ErrorIs(t, err, ErrNoSelections)

	input = plainInput(t, 2)
	input.Selections[0].Quantity = 0
	_, err = engine.Quote(ctx, input)
	assert.ErrorIs(t, err, ErrQuantity)
}
