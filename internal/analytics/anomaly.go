package analytics

import "spendwise/internal/core"

// MaxUnusual caps the number of expenses FindUnusual reports.
const MaxUnusual = 3

// FindUnusual returns, in collection order, up to MaxUnusual expenses whose
// amount exceeds twice the mean of their category.
func FindUnusual(expenses []core.Expense) []core.Expense {
	type stat struct {
		total int64
		count int64
	}
	stats := make(map[core.Category]*stat)
	for _, e := range expenses {
		s, ok := stats[e.Category]
		if !ok {
			s = &stat{}
			stats[e.Category] = s
		}
		s.total += e.Amount.Cents
		s.count++
	}

	var out []core.Expense
	for _, e := range expenses {
		s := stats[e.Category]
		// amount > 2*total/count, kept in integers
		if e.Amount.Cents*s.count > 2*s.total {
			out = append(out, e)
			if len(out) == MaxUnusual {
				break
			}
		}
	}
	return out
}
