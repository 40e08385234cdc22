package policies

import (
	"context"

	"rstays/internal/domain/pricing"
)

// HolidayPort answers weekend and holiday questions for a set of days; the
// pricing engine consumes it through the pricing.Calendar interface.
type HolidayPort interface {
	IsWeekend(ctx context.Context, days []string) ([]string, error)
	FindHolidayDaysInRange(ctx context.Context, rules []pricing.HolidayRule, days []string) ([]pricing.HolidayDay, error)
}

// CalendarAdapter bridges a HolidayPort to the pricing engine.
type CalendarAdapter struct {
	Port HolidayPort
}

func (a CalendarAdapter) Weekends(ctx context.Context, days []string) ([]string, error) {
	return a.Port.IsWeekend(ctx, days)
}

func (a CalendarAdapter) HolidaysInRange(ctx context.Context, rules []pricing.HolidayRule, days []string) ([]pricing.HolidayDay, error) {
	return a.Port.FindHolidayDaysInRange(ctx, rules, days)
}

var _ pricing.Calendar = CalendarAdapter{}
