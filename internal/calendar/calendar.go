// Package calendar holds the date arithmetic shared by the meter store
// and the usage calculator. All values are calendar days at midnight UTC.
package calendar

import (
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns to − from in whole days.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

func Min(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months keeping its day of month,
// clamped to the last day of the target month (Jan 31 + 1 = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	return anchored(t.Year(), t.Month()+time.Month(n), t.Day())
}

// anchored builds the date for day-of-month anchor in the given month,
// normalizing month overflow before clamping the day.
func anchored(year int, month time.Month, anchor int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	day := anchor
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Cycle is one same-date monthly cycle.
type Cycle struct {
	Start time.Time
	End   time.Time
	// Number is 1 for the cycle starting at the anchor date.
	Number int
}

// CycleAt returns the monthly cycle containing current, where cycles start
// on anchor's day of month (clamped in short months). Dates before the
// anchor fall in cycle 1.
func CycleAt(anchor, current time.Time) Cycle {
	anchor, current = Day(anchor), Day(current)
	if current.Before(anchor) {
		return Cycle{Start: anchor, End: AddMonths(anchor, 1).AddDate(0, 0, -1), Number: 1}
	}

	months := (current.Year()-anchor.Year())*12 + int(current.Month()-anchor.Month())
	start := anchored(anchor.Year(), anchor.Month()+time.Month(months), anchor.Day())
	if start.After(current) {
		months--
		start = anchored(anchor.Year(), anchor.Month()+time.Month(months), anchor.Day())
	}
	next := anchored(anchor.Year(), anchor.Month()+time.Month(months+1), anchor.Day())
	return Cycle{Start: start, End: next.AddDate(0, 0, -1), Number: months + 1}
}
