package holidays

import (
	"context"
	"time"

	"rstays/internal/app/policies"
	"rstays/internal/domain/pricing"
	"rstays/internal/domain/shared/daterange"
)

// defaultDates maps fixed-date holidays to their MM-DD day. Hosts reference
// these by name in their pricing rules.
var defaultDates = map[string][]string{
	"New Year":     {"01-01", "12-31"},
	"Christmas":    {"12-24", "12-25"},
	"Labour Day":   {"05-01"},
	"Independence": {"07-04"},
	"Halloween":    {"10-31"},
	"Valentine":    {"02-14"},
}

// Service answers weekend and holiday questions from a static table.
type Service struct {
	Dates map[string][]string
}

func NewService() *Service {
	return &Service{Dates: defaultDates}
}

func (s *Service) IsWeekend(ctx context.Context, days []string) ([]string, error) {
	var out []string
	for _, day := range days {
		t, err := daterange.ParseDay(day)
		if err != nil {
			return nil, err
		}
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			out = append(out, day)
		}
	}
	return out, nil
}

func (s *Service) FindHolidayDaysInRange(ctx context.Context, rules []pricing.HolidayRule, days []string) ([]pricing.HolidayDay, error) {
	dates := s.Dates
	if dates == nil {
		dates = defaultDates
	}
	var out []pricing.HolidayDay
	for _, day := range days {
		if len(day) < len("2006-01-02") {
			continue
		}
		monthDay := day[5:]
		for _, rule := range rules {
			if !matches(dates[rule.Name], monthDay) {
				continue
			}
			out = append(out, pricing.HolidayDay{Date: day, Name: rule.Name, Type: rule.Type})
			break
		}
	}
	return out, nil
}

func matches(monthDays []string, monthDay string) bool {
	for _, md := range monthDays {
		if md == monthDay {
			return true
		}
	}
	return false
}

var _ policies.HolidayPort = (*Service)(nil)
