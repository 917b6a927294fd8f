// Package analytics holds the pure reductions over an expense collection:
// totals by category, month and date range, anomaly detection and trends.
// Nothing here mutates its input or reads the system clock.
package analytics

import (
	"time"

	"spendwise/internal/core"
)

// SumByCategory totals amounts per category. Categories with no expenses are absent.
func SumByCategory(expenses []core.Expense) map[core.Category]core.Money {
	out := make(map[core.Category]core.Money)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// SumByMonth totals the expenses dated within the given calendar month.
func SumByMonth(expenses []core.Expense, year int, month time.Month) core.Money {
	var total core.Money
	for _, e := range expenses {
		if e.Date.Year() == year && e.Date.Month() == month {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// SumInRange totals the expenses whose date lies in [start, end].
func SumInRange(expenses []core.Expense, start, end core.Date) core.Money {
	var total core.Money
	for _, e := range expenses {
		if e.Date.InRange(start, end) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// GrandTotal sums every expense in the collection.
func GrandTotal(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// CategoryBreakdown returns per-category totals ordered by the first
// appearance of each category in the collection.
func CategoryBreakdown(expenses []core.Expense) []core.CategoryAmount {
	idx := make(map[core.Category]int)
	var out []core.CategoryAmount
	for _, e := range expenses {
		i, ok := idx[e.Category]
		if !ok {
			i = len(out)
			idx[e.Category] = i
			out = append(out, core.CategoryAmount{Category: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// TopCategory returns the category with the largest total. Ties go to the
// category that appears first in the collection. ok is false for an empty collection.
func TopCategory(expenses []core.Expense) (top core.CategoryAmount, ok bool) {
	for _, c := range CategoryBreakdown(expenses) {
		if !ok || c.Amount.Cents > top.Amount.Cents {
			top, ok = c, true
		}
	}
	return top, ok
}
