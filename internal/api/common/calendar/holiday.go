package calendar

import (
	"time"
)

// Calendar reports whether a timestamp falls on a holiday, so that the
// scaling forecaster can separate holiday traffic from the weekly pattern.
type Calendar interface {
	IsHoliday(t time.Time) bool
}

// US is a coarse fixed rule set for the US calendar: New Year's Day,
// Independence Day, Thanksgiving and Christmas. Deliberately a heuristic; a
// tenant-specific calendar can be swapped in behind the interface.
type US struct{}

var _ Calendar = US{}

func (US) IsHoliday(t time.Time) bool {
	month, day := t.Month(), t.Day()

	switch month {
	case time.January:
		return day == 1
	case time.July:
		return day == 4
	case time.November:
		// fourth Thursday of November
		return t.Weekday() == time.Thursday && day >= 22 && day <= 28
	case time.December:
		return day == 25
	}
	return false
}

// IsWeekend is a convenience used when building feature buckets.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
