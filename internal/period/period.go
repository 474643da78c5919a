// Package period computes report and statement date ranges.
package period

import (
	"fmt"
	"time"
)

// Period is an inclusive date range.
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) String() string {
	return p.From.Format(time.DateOnly) + ".." + p.To.Format(time.DateOnly)
}

// Contains reports whether d falls in the period.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.From) && !d.After(p.To)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves d by n months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// Month is the calendar month containing d.
func Month(d time.Time) Period {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: first, To: first.AddDate(0, 1, -1)}
}

// PreviousMonth is the calendar month before the one containing today, the
// usual VAT reporting period.
func PreviousMonth(today time.Time) Period {
	return Month(AddMonths(Month(today).From, -1))
}

// StatementDefault is the one-month window ending on the voucher date.
func StatementDefault(voucherDate time.Time) Period {
	end := Day(voucherDate)
	return Period{From: AddMonths(end.AddDate(0, 0, 1), -1), To: end}
}

// IsWholeMonth reports whether the period is exactly one calendar month.
func (p Period) IsWholeMonth() bool {
	return p.From.Day() == 1 && p.To.AddDate(0, 0, 1).Day() == 1 && p.To.Sub(p.From) < 32*24*time.Hour
}

// FiscalYear describes when the fiscal year starts.
type FiscalYear struct {
	Month time.Month
	Day   int
}

// CalendarYear is a fiscal year starting on January 1.
var CalendarYear = FiscalYear{Month: time.January, Day: 1}

// ParseFiscalStart parses an "MM-DD" start date. An empty string is the
// calendar year.
func ParseFiscalStart(s string) (FiscalYear, error) {
	if s == "" {
		return CalendarYear, nil
	}
	t, err := time.Parse("01-02", s)
	if err != nil {
		return FiscalYear{}, fmt.Errorf("parsing fiscal year start %q: %w", s, err)
	}
	if t.Month() == time.February && t.Day() == 29 {
		return FiscalYear{}, fmt.Errorf("fiscal year start %q does not exist every year", s)
	}
	return FiscalYear{Month: t.Month(), Day: t.Day()}, nil
}

// Containing is the fiscal year that d falls in.
func (f FiscalYear) Containing(d time.Time) Period {
	d = Day(d)
	start := time.Date(d.Year(), f.Month, f.Day, 0, 0, 0, 0, time.UTC)
	if start.After(d) {
		start = start.AddDate(-1, 0, 0)
	}
	return Period{From: start, To: start.AddDate(1, 0, -1)}
}

// Next steps forward: a whole month moves by one month, anything else to
// the fiscal year containing the day after the period.
func (p Period) Next(f FiscalYear) Period {
	if p.IsWholeMonth() {
		return Month(AddMonths(p.From, 1))
	}
	return f.Containing(p.To.AddDate(0, 0, 1))
}

// Previous steps back: a whole month moves by one month, anything else to
// the fiscal year containing the day before the period.
func (p Period) Previous(f FiscalYear) Period {
	if p.IsWholeMonth() {
		return Month(AddMonths(p.From, -1))
	}
	return f.Containing(p.From.AddDate(0, 0, -1))
}
