package model

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire and storage format of a calendar day.
const DayLayout = "2006-01-02"

var dayLayouts = []string{
	DayLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
}

// Day truncates t to the start of its calendar day, expressed in UTC so that
// days compare and store without zone drift.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return Day(t).Add(24*time.Hour - time.Nanosecond)
}

// ParseDay parses a date string, discarding any time-of-day component.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DateRange is an inclusive range of calendar days; a nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// NewDateRange builds a range from optional day strings. Empty strings leave a side open.
func NewDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if strings.TrimSpace(from) != "" {
		d, err := ParseDay(from)
		if err != nil {
			return DateRange{}, err
		}
		r.From = &d
	}
	if strings.TrimSpace(to) != "" {
		d, err := ParseDay(to)
		if err != nil {
			return DateRange{}, err
		}
		r.To = &d
	}
	return r, nil
}

// SingleDay is the range [day, day].
func SingleDay(day time.Time) DateRange {
	d := Day(day)
	return DateRange{From: &d, To: &d}
}

// Contains reports whether day lies within the range. From matches from the
// start of its day; To matches through the end of its day.
func (r DateRange) Contains(day time.Time) bool {
	if r.From != nil && day.Before(Day(*r.From)) {
		return false
	}
	if r.To != nil && day.After(EndOfDay(*r.To)) {
		return false
	}
	return true
}
