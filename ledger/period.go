package ledger

import (
	"fmt"
	"time"
)

// PeriodType selects how a PeriodFilter resolves its date range.
type PeriodType string

const (
	PeriodAll     PeriodType = "all"
	PeriodMonth   PeriodType = "month"
	PeriodQuarter PeriodType = "quarter"
	PeriodYear    PeriodType = "year"
	PeriodRange   PeriodType = "range"
	PeriodCustom  PeriodType = "custom"
)

// PeriodFilter defines a date range for filtering ledger rows. The zero
// value means "all time".
type PeriodFilter struct {
	Type    PeriodType
	Year    int
	Month   time.Month // 1-12
	Quarter int        // 1-4

	// Custom range
	StartDate time.Time
	EndDate   time.Time

	// Multi-month range
	StartYear  int
	StartMonth time.Month
	EndYear    int
	EndMonth   time.Month
}

func monthEnd(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1)
}

// Resolve returns the inclusive (start, end) dates for the filter. Zero
// times mean the corresponding bound is open.
func (p PeriodFilter) Resolve() (time.Time, time.Time) {
	switch p.Type {
	case PeriodMonth:
		if p.Year == 0 || p.Month == 0 {
			return time.Time{}, time.Time{}
		}
		return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC), monthEnd(p.Year, p.Month)
	case PeriodQuarter:
		if p.Year == 0 || p.Quarter == 0 {
			return time.Time{}, time.Time{}
		}
		startMonth := time.Month((p.Quarter-1)*3 + 1)
		return time.Date(p.Year, startMonth, 1, 0, 0, 0, 0, time.UTC), monthEnd(p.Year, startMonth+2)
	case PeriodYear:
		if p.Year == 0 {
			return time.Time{}, time.Time{}
		}
		return time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(p.Year, 12, 31, 0, 0, 0, 0, time.UTC)
	case PeriodRange:
		if p.StartYear == 0 || p.StartMonth == 0 || p.EndYear == 0 || p.EndMonth == 0 {
			return time.Time{}, time.Time{}
		}
		return time.Date(p.StartYear, p.StartMonth, 1, 0, 0, 0, 0, time.UTC), monthEnd(p.EndYear, p.EndMonth)
	case PeriodCustom:
		return p.StartDate, p.EndDate
	default:
		return time.Time{}, time.Time{}
	}
}

// Contains reports whether the given sale date falls inside the filter.
func (p PeriodFilter) Contains(day time.Time) bool {
	start, end := p.Resolve()
	if !start.IsZero() && day.Before(start) {
		return false
	}
	if !end.IsZero() && day.After(end) {
		return false
	}
	return true
}

// Label is a human-readable name for the period, used as report headers.
func (p PeriodFilter) Label() string {
	switch p.Type {
	case PeriodMonth:
		if p.Year != 0 && p.Month != 0 {
			return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
		}
	case PeriodQuarter:
		if p.Year != 0 && p.Quarter != 0 {
			return fmt.Sprintf("Q%d %d", p.Quarter, p.Year)
		}
	case PeriodYear:
		if p.Year != 0 {
			return fmt.Sprintf("%d", p.Year)
		}
	case PeriodRange:
		if p.StartYear != 0 && p.StartMonth != 0 && p.EndYear != 0 && p.EndMonth != 0 {
			s := time.Date(p.StartYear, p.StartMonth, 1, 0, 0, 0, 0, time.UTC)
			e := time.Date(p.EndYear, p.EndMonth, 1, 0, 0, 0, 0, time.UTC)
			return s.Format("Jan 2006") + " to " + e.Format("Jan 2006")
		}
		return "Range"
	case PeriodCustom:
		s, e := "?", "?"
		if !p.StartDate.IsZero() {
			s = p.StartDate.Format("2006-01-02")
		}
		if !p.EndDate.IsZero() {
			e = p.EndDate.Format("2006-01-02")
		}
		return s + " to " + e
	}
	return "All Time"
}

// Previous returns the immediately preceding period of the same type, used
// for month-over-month and year-over-year comparisons.
func (p PeriodFilter) Previous() PeriodFilter {
	switch p.Type {
	case PeriodMonth:
		if p.Year != 0 && p.Month != 0 {
			if p.Month == time.January {
				return PeriodFilter{Type: PeriodMonth, Year: p.Year - 1, Month: time.December}
			}
			return PeriodFilter{Type: PeriodMonth, Year: p.Year, Month: p.Month - 1}
		}
	case PeriodQuarter:
		if p.Year != 0 && p.Quarter != 0 {
			if p.Quarter == 1 {
				return PeriodFilter{Type: PeriodQuarter, Year: p.Year - 1, Quarter: 4}
			}
			return PeriodFilter{Type: PeriodQuarter, Year: p.Year, Quarter: p.Quarter - 1}
		}
	case PeriodYear:
		if p.Year != 0 {
			return PeriodFilter{Type: PeriodYear, Year: p.Year - 1}
		}
	case PeriodCustom:
		if !p.StartDate.IsZero() && !p.EndDate.IsZero() {
			duration := p.EndDate.Sub(p.StartDate)
			newEnd := p.StartDate.AddDate(0, 0, -1)
			return PeriodFilter{
				Type:      PeriodCustom,
				StartDate: newEnd.Add(-duration),
				EndDate:   newEnd,
			}
		}
	}
	return PeriodFilter{Type: PeriodAll}
}
