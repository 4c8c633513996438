// Package bizcal computes business-day offsets for trade settlement.
// A business day is Monday through Friday; this package has no concept
// of market holidays, matching the simulation core's quote stream (which
// has no calendar of its own either).
package bizcal

import "time"

// NextBusinessDay returns from advanced by n business days. Weekends are
// skipped; n must be >= 1.
func NextBusinessDay(from time.Time, n int) time.Time {
	d := from
	for remaining := n; remaining > 0; {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			remaining--
		}
	}
	return d
}

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// WholeDaysBetween counts whole calendar days between two ISO dates
// (YYYY-MM-DD). It is used for short-borrow fee accrual, which charges
// per calendar day elapsed, not per business day.
func WholeDaysBetween(lastDate string, now time.Time) int {
	if lastDate == "" {
		return 0
	}
	last, err := time.ParseInLocation("2006-01-02", lastDate, now.Location())
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(last).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ISODate formats t as a YYYY-MM-DD date string in t's own location.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}
