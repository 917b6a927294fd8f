package insights

import (
	"time"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// NoTopCategory is reported when the collection is empty.
const NoTopCategory = "N/A"

// Summary is the dashboard headline: overall total, the reference month's
// total and the leading category.
type Summary struct {
	Count       int        `json:"count"`
	Total       core.Money `json:"total"`
	ThisMonth   core.Money `json:"this_month"`
	TopCategory string     `json:"top_category"`
}

// ChartData feeds the category breakdown and the six-month trend charts.
type ChartData struct {
	ByCategory []core.CategoryAmount `json:"by_category"`
	Trend      []core.MonthTotal     `json:"trend"`
	Weekdays   [7]core.Money         `json:"weekdays"`
}

// Summarize reports collection totals plus the spending in ref's month.
func Summarize(expenses []core.Expense, ref time.Time) Summary {
	s := Summary{
		Count:       len(expenses),
		Total:       analytics.GrandTotal(expenses),
		ThisMonth:   analytics.SumByMonth(expenses, ref.Year(), ref.Month()),
		TopCategory: NoTopCategory,
	}
	if top, ok := analytics.TopCategory(expenses); ok {
		s.TopCategory = string(top.Category)
	}
	return s
}

// Charts returns the category, six-month and weekday series for ref.
func Charts(expenses []core.Expense, ref time.Time) ChartData {
	breakdown := analytics.CategoryBreakdown(expenses)
	if breakdown == nil {
		breakdown = []core.CategoryAmount{}
	}
	return ChartData{
		ByCategory: breakdown,
		Trend:      analytics.MonthlySeries(expenses, ref),
		Weekdays:   analytics.WeekdayTotals(expenses),
	}
}
