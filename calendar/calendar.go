/*
Package calendar provides the date arithmetic the jar engine runs on.

PURPOSE:
  Pure workday/period helpers with no knowledge of players or points.
  Every other package builds on these three ideas:
  - Workday: Monday-Friday, irrespective of holidays (holidays are
    modeled as vacation intervals, not calendar changes)
  - Date string: a "YYYY-MM-DD" key built from LOCAL year/month/day
  - Period keys: "YYYY-MM" months and "YYYY" years

LOCAL TIME, NOT UTC:
  All comparisons and keys use the machine's local calendar date.
  Formatting a time in UTC can shift it to the previous or next day
  depending on the timezone, which silently corrupts streak and bonus
  accounting. DateString/MonthKey/YearKey are the only sanctioned ways
  to turn a time.Time into a key.

SEE ALSO:
  - jar/accounting.go: streak and bonus math on top of these helpers
  - jar/vacations.go: interval containment on date strings
*/
package calendar

import "time"

// DateLayout is the canonical local-date key format.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE KEYS - Local-date normalization
// =============================================================================

// DateString normalizes a time to a local "YYYY-MM-DD" key.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// MonthKey returns the local "YYYY-MM" key for a time.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// YearKey returns the local "YYYY" key for a time.
func YearKey(t time.Time) string {
	return t.Format("2006")
}

// PrevMonthKey returns the "YYYY-MM" key of the month before t.
func PrevMonthKey(t time.Time) string {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return MonthKey(first.AddDate(0, -1, 0))
}

// PrevYearKey returns the "YYYY" key of the year before t.
func PrevYearKey(t time.Time) string {
	return YearKey(t.AddDate(-1, 0, 0))
}

// ParseDate parses a "YYYY-MM-DD" key into a local midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// Truncate drops the clock, keeping the local calendar date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same local calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// =============================================================================
// WORKDAYS
// =============================================================================

// IsWorkday reports whether t falls on Monday through Friday.
func IsWorkday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsWeekend is the complement of IsWorkday.
func IsWeekend(t time.Time) bool {
	return !IsWorkday(t)
}

// CountWorkdaysBetween counts workdays in [start, end], inclusive on
// both ends. Returns 0 when end precedes start.
func CountWorkdaysBetween(start, end time.Time) int {
	day := Truncate(start)
	last := Truncate(end)
	count := 0
	for !day.After(last) {
		if IsWorkday(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// OffDayFunc reports whether a given date key should be skipped when
// counting a player's clean workdays (the player was on vacation).
type OffDayFunc func(dateKey string) bool

// CountWorkdaysSince counts workdays strictly after `from`, up to and
// including YESTERDAY relative to `now`. Today is never counted: the
// day's infraction-free status is unknown until it ends. When offDay
// is non-nil, dates it reports as off are excluded.
func CountWorkdaysSince(from, now time.Time, offDay OffDayFunc) int {
	day := Truncate(from).AddDate(0, 0, 1)
	yesterday := Truncate(now).AddDate(0, 0, -1)
	count := 0
	for !day.After(yesterday) {
		if IsWorkday(day) && (offDay == nil || !offDay(DateString(day))) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// NextDay returns the "YYYY-MM-DD" key of the day after the given key.
// Malformed keys return "".
func NextDay(dateKey string) string {
	t, err := ParseDate(dateKey)
	if err != nil {
		return ""
	}
	return DateString(t.AddDate(0, 0, 1))
}

// MonthStart returns local midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
