// Package period handles the "YYYY-MM" month labels that key every
// statistics document, plus the literal "overall" label for all-time
// aggregates.
package period

import (
	"time"

	"sladeshAPI/internal/types/statistics"
)

const labelLayout = "2006-01"

// Label returns the month label for t, e.g. "2026-08".
func Label(t time.Time) string {
	return t.Format(labelLayout)
}

// SameMonth reports whether a and b fall in the same calendar month and year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// IsMonthLabel reports whether s parses as a "YYYY-MM" label. Statistics
// documents mix month keys with non-period keys ("overall", markers), so
// iterators use this to pick out the months.
func IsMonthLabel(s string) bool {
	_, err := time.Parse(labelLayout, s)
	return err == nil
}

// IsPeriodLabel accepts month labels and the overall key.
func IsPeriodLabel(s string) bool {
	return s == statistics.OverallKey || IsMonthLabel(s)
}
