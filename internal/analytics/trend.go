package analytics

import (
	"time"

	"spendwise/internal/core"
)

// SeriesMonths is the length of the rolling monthly series.
const SeriesMonths = 6

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Trend compares the reference month with the one before it.
// PercentChange is only meaningful when HasChange is true, which requires a
// non-zero previous month.
type Trend struct {
	Current       core.Money `json:"current"`
	Previous      core.Money `json:"previous"`
	PercentChange float64    `json:"percent_change,omitempty"`
	HasChange     bool       `json:"has_change"`
	Direction     Direction  `json:"direction"`
}

// MonthlyTrend compares spending in the calendar month of ref with the month before.
func MonthlyTrend(expenses []core.Expense, ref time.Time) Trend {
	cur := monthStart(ref, 0)
	prev := monthStart(ref, -1)

	t := Trend{
		Current:  SumByMonth(expenses, cur.Year(), cur.Month()),
		Previous: SumByMonth(expenses, prev.Year(), prev.Month()),
	}
	t.Direction = Down
	if t.Current.Cents > t.Previous.Cents {
		t.Direction = Up
	}
	if t.Previous.Cents > 0 {
		t.HasChange = true
		t.PercentChange = float64(t.Current.Cents-t.Previous.Cents) / float64(t.Previous.Cents) * 100
	}
	return t
}

// MonthlySeries returns totals for the month of ref and the five months before
// it, oldest first, labelled like "Jan 2025".
func MonthlySeries(expenses []core.Expense, ref time.Time) []core.MonthTotal {
	out := make([]core.MonthTotal, 0, SeriesMonths)
	for i := SeriesMonths - 1; i >= 0; i-- {
		m := monthStart(ref, -i)
		out = append(out, core.MonthTotal{
			Year:  m.Year(),
			Month: int(m.Month()),
			Label: m.Format("Jan 2006"),
			Total: SumByMonth(expenses, m.Year(), m.Month()),
		})
	}
	return out
}

// WeekdayTotals sums amounts by the weekday of each expense date, Sunday first.
func WeekdayTotals(expenses []core.Expense) [7]core.Money {
	var out [7]core.Money
	for _, e := range expenses {
		d := e.Date.Weekday()
		out[d] = out[d].Add(e.Amount)
	}
	return out
}

// PeakWeekday returns the weekday with the highest total; ties resolve to the
// earliest day counting from Sunday.
func PeakWeekday(expenses []core.Expense) time.Weekday {
	totals := WeekdayTotals(expenses)
	peak := time.Sunday
	for d := time.Monday; d <= time.Saturday; d++ {
		if totals[d].Cents > totals[peak].Cents {
			peak = d
		}
	}
	return peak
}

// monthStart returns the first day of the month offset months away from ref's month.
func monthStart(ref time.Time, offset int) core.Date {
	y, m, _ := ref.Date()
	return core.Date{Time: time.Date(y, m+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)}
}
