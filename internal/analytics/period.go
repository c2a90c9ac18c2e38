// Package analytics derives sales totals, rankings, forecasts, advice and stock
// alerts from sale history and catalog snapshots. Everything here is a pure function.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

type Period int

const (
	All Period = iota
	Daily
	Weekly
	Monthly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return "all"
	}
}

// ParsePeriod maps a filter name to a Period. An empty string is All.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	}
	return All, fmt.Errorf("unknown period %q", s)
}

// PeriodStart returns the inclusive lower bound of p, in now's location.
// ok is false for All, which has no bound.
func PeriodStart(p Period, now time.Time) (start time.Time, ok bool) {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	case Weekly:
		// Sunday counts as day 7 so the week always starts on the previous Monday
		wd := int(now.Weekday())
		if wd == 0 {
			wd = 7
		}
		return time.Date(y, m, d-(wd-1), 0, 0, 0, 0, loc), true
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), true
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), true
	default:
		return time.Time{}, false
	}
}
