package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/swearjar/calendar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// =============================================================================
// WORKDAY DETECTION
// =============================================================================

func TestIsWorkday_WeekBoundaries(t *testing.T) {
	// 2025-06-02 is a Monday.
	assert.True(t, calendar.IsWorkday(date(2025, time.June, 2)), "Monday")
	assert.True(t, calendar.IsWorkday(date(2025, time.June, 6)), "Friday")
	assert.False(t, calendar.IsWorkday(date(2025, time.June, 7)), "Saturday")
	assert.False(t, calendar.IsWorkday(date(2025, time.June, 8)), "Sunday")
}

func TestCountWorkdaysBetween_Inclusive(t *testing.T) {
	// GIVEN: Monday 2025-06-02 through Sunday 2025-06-08
	// THEN: 5 workdays, both endpoints included
	got := calendar.CountWorkdaysBetween(date(2025, time.June, 2), date(2025, time.June, 8))
	assert.Equal(t, 5, got)

	// Single workday range
	assert.Equal(t, 1, calendar.CountWorkdaysBetween(date(2025, time.June, 4), date(2025, time.June, 4)))

	// Reversed range counts nothing
	assert.Equal(t, 0, calendar.CountWorkdaysBetween(date(2025, time.June, 8), date(2025, time.June, 2)))
}

func TestCountWorkdaysSince_ExcludesTodayAndFrom(t *testing.T) {
	// GIVEN: reference Monday 2025-06-02, now Friday 2025-06-06
	// THEN: Tue, Wed, Thu count; Monday (the reference) and Friday (today) do not
	got := calendar.CountWorkdaysSince(date(2025, time.June, 2), date(2025, time.June, 6), nil)
	assert.Equal(t, 3, got)
}

func TestCountWorkdaysSince_SkipsVacationDays(t *testing.T) {
	off := func(key string) bool {
		return key == "2025-06-03" || key == "2025-06-04"
	}
	got := calendar.CountWorkdaysSince(date(2025, time.June, 2), date(2025, time.June, 6), off)
	assert.Equal(t, 1, got, "only Thursday remains")
}

func TestCountWorkdaysSince_SpansWeekend(t *testing.T) {
	// Friday 2025-06-06 reference, now Wednesday 2025-06-11:
	// Mon 9 and Tue 10 count, weekend does not.
	got := calendar.CountWorkdaysSince(date(2025, time.June, 6), date(2025, time.June, 11), nil)
	assert.Equal(t, 2, got)
}

// =============================================================================
// DATE KEYS
// =============================================================================

func TestDateString_UsesLocalComponents(t *testing.T) {
	// 23:30 local stays on the same local date no matter what UTC says.
	late := time.Date(2025, time.March, 31, 23, 30, 0, 0, time.Local)
	assert.Equal(t, "2025-03-31", calendar.DateString(late))
	assert.Equal(t, "2025-03", calendar.MonthKey(late))
	assert.Equal(t, "2025", calendar.YearKey(late))
}

func TestPrevMonthKey_YearRollover(t *testing.T) {
	assert.Equal(t, "2024-12", calendar.PrevMonthKey(date(2025, time.January, 15)))
	assert.Equal(t, "2025-06", calendar.PrevMonthKey(date(2025, time.July, 1)))
	// Day 31 must not skip a short previous month.
	assert.Equal(t, "2025-02", calendar.PrevMonthKey(date(2025, time.March, 31)))
}

func TestParseDate_RoundTrip(t *testing.T) {
	parsed, err := calendar.ParseDate("2025-12-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-15", calendar.DateString(parsed))

	_, err = calendar.ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestNextDay(t *testing.T) {
	assert.Equal(t, "2025-03-01", calendar.NextDay("2025-02-28"))
	assert.Equal(t, "2026-01-01", calendar.NextDay("2025-12-31"))
	assert.Equal(t, "", calendar.NextDay("bogus"))
}
