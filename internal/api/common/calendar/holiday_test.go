package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func TestFixedDateHolidays(t *testing.T) {
	cal := US{}

	assert.True(t, cal.IsHoliday(day(2025, time.January, 1)))
	assert.True(t, cal.IsHoliday(day(2025, time.July, 4)))
	assert.True(t, cal.IsHoliday(day(2025, time.December, 25)))

	assert.False(t, cal.IsHoliday(day(2025, time.January, 2)))
	assert.False(t, cal.IsHoliday(day(2025, time.July, 5)))
	assert.False(t, cal.IsHoliday(day(2025, time.March, 17)))
}

func TestThanksgivingFourthThursday(t *testing.T) {
	cal := US{}

	// 2025: Thursdays in November fall on 6, 13, 20, 27
	assert.True(t, cal.IsHoliday(day(2025, time.November, 27)))
	assert.False(t, cal.IsHoliday(day(2025, time.November, 20)))

	// 2026: Thursdays in November fall on 5, 12, 19, 26
	assert.True(t, cal.IsHoliday(day(2026, time.November, 26)))
	assert.False(t, cal.IsHoliday(day(2026, time.November, 19)))
}

func TestIsWeekend(t *testing.T) {
	// 2025-11-22 is a Saturday
	assert.True(t, IsWeekend(day(2025, time.November, 22)))
	assert.True(t, IsWeekend(day(2025, time.November, 23)))
	assert.False(t, IsWeekend(day(2025, time.November, 24)))
}
