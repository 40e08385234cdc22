package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDay   = errors.New("daterange: day must be YYYY-MM-DD")
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD day strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDay(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDay(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// ParseDay parses a YYYY-MM-DD day string into a UTC midnight timestamp.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t.UTC(), nil
}

// FormatDay renders a timestamp as its YYYY-MM-DD day string.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Days enumerates the occupied nights as day strings: every day in
// [checkIn, checkOut), checkout day excluded.
func (dr DateRange) Days() []string {
	nights := dr.Nights()
	if nights <= 0 {
		return nil
	}
	days := make([]string, 0, nights)
	for i := 0; i < nights; i++ {
		days = append(days, FormatDay(dr.CheckIn.AddDate(0, 0, i)))
	}
	return days
}

// CheckInDay renders the check-in date as its day string.
func (dr DateRange) CheckInDay() string {
	return FormatDay(dr.CheckIn)
}

// CheckOutDay renders the check-out date as its day string.
func (dr DateRange) CheckOutDay() string {
	return FormatDay(dr.CheckOut)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}
