package analytics

import (
	"fmt"
	"math"
	"testing"
	"time"

	"spendwise/internal/core"
)

func exp(cat core.Category, cents int64, date core.Date) core.Expense {
	return core.Expense{
		ID:          fmt.Sprintf("%s-%d-%s", cat, cents, date),
		Amount:      core.Money{Cents: cents},
		Description: string(cat),
		Date:        date,
		Category:    cat,
	}
}

func day(y, m, d int) core.Date { return core.NewDate(y, m, d) }

func TestSumByCategory(t *testing.T) {
	expenses := []core.Expense{
		exp(core.Food, 1000, day(2025, 1, 1)),
		exp(core.Food, 2000, day(2025, 1, 2)),
		exp(core.Transportation, 500, day(2025, 1, 3)),
	}
	got := SumByCategory(expenses)
	if len(got) != 2 || got[core.Food].Cents != 3000 || got[core.Transportation].Cents != 500 {
		t.Fatalf("unexpected sums %v", got)
	}
	var sum int64
	for _, v := range got {
		sum += v.Cents
	}
	if sum != GrandTotal(expenses).Cents {
		t.Fatalf("category sums %d differ from grand total %d", sum, GrandTotal(expenses).Cents)
	}
	if len(SumByCategory(nil)) != 0 {
		t.Fatal("empty collection should yield no categories")
	}
}

func TestSumByMonth(t *testing.T) {
	expenses := []core.Expense{
		exp(core.Food, 100, day(2025, 1, 1)),
		exp(core.Food, 200, day(2025, 1, 31)),
		exp(core.Food, 400, day(2025, 2, 1)),
		exp(core.Food, 800, day(2024, 1, 15)),
	}
	tests := []struct {
		year  int
		month time.Month
		want  int64
	}{
		{2025, time.January, 300},
		{2025, time.February, 400},
		{2024, time.January, 800},
		{2025, time.March, 0},
	}
	for _, tt := range tests {
		if got := SumByMonth(expenses, tt.year, tt.month); got.Cents != tt.want {
			t.Errorf("SumByMonth(%d, %s) = %d, want %d", tt.year, tt.month, got.Cents, tt.want)
		}
	}
}

func TestSumInRangeInclusive(t *testing.T) {
	expenses := []core.Expense{
		exp(core.Food, 100, day(2025, 1, 1)),
		exp(core.Food, 200, day(2025, 1, 10)),
		exp(core.Food, 400, day(2025, 1, 11)),
	}
	if got := SumInRange(expenses, day(2025, 1, 1), day(2025, 1, 10)); got.Cents != 300 {
		t.Fatalf("expected 300, got %d", got.Cents)
	}
	if got := SumInRange(expenses, day(2025, 1, 10), day(2025, 1, 10)); got.Cents != 200 {
		t.Fatalf("expected 200 for single day, got %d", got.Cents)
	}
	if got := SumInRange(expenses, day(2025, 1, 12), day(2025, 1, 1)); got.Cents != 0 {
		t.Fatalf("expected 0 for inverted range, got %d", got.Cents)
	}
}

func TestCategoryBreakdownAndTop(t *testing.T) {
	expenses := []core.Expense{
		exp(core.Shopping, 500, day(2025, 1, 1)),
		exp(core.Food, 300, day(2025, 1, 2)),
		exp(core.Food, 200, day(2025, 1, 3)),
		exp(core.Housing, 100, day(2025, 1, 4)),
	}
	got := CategoryBreakdown(expenses)
	want := []core.CategoryAmount{
		{Category: core.Shopping, Amount: core.Money{Cents: 500}},
		{Category: core.Food, Amount: core.Money{Cents: 500}},
		{Category: core.Housing, Amount: core.Money{Cents: 100}},
	}
	if len(got) != len(want) {
		t.Fatalf("breakdown = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("breakdown[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	top, ok := TopCategory(expenses)
	if !ok || top.Category != core.Shopping {
		t.Fatalf("tie should go to first appearance, got %v", top)
	}
	if _, ok := TopCategory(nil); ok {
		t.Fatal("empty collection has no top category")
	}
}

func TestFindUnusual(t *testing.T) {
	mk := func(amounts ...int64) []core.Expense {
		out := make([]core.Expense, len(amounts))
		for i, a := range amounts {
			out[i] = exp(core.Food, a*100, day(2025, 1, i+1))
		}
		return out
	}

	got := FindUnusual(mk(10, 10, 10, 100))
	if len(got) != 1 || got[0].Amount.Cents != 10000 {
		t.Fatalf("expected [100], got %v", got)
	}
	if got := FindUnusual(mk(10, 10, 10, 20)); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
	if got := FindUnusual(mk(500)); len(got) != 0 {
		t.Fatalf("single-member category must not flag, got %v", got)
	}

	// mean of {10 x 12, 100 x 4} is 32.5, so every 100 flags; only the first three survive the cap
	many := mk(100, 10, 10, 10, 100, 10, 10, 10, 100, 10, 10, 10, 100, 10, 10, 10)
	got = FindUnusual(many)
	if len(got) != MaxUnusual {
		t.Fatalf("expected cap of %d, got %d", MaxUnusual, len(got))
	}
	for i, idx := range []int{0, 4, 8} {
		if got[i].ID != many[idx].ID {
			t.Errorf("result %d = %s, want collection order element %d", i, got[i].ID, idx)
		}
	}
}

func TestFindUnusualPerCategory(t *testing.T) {
	expenses := []core.Expense{
		exp(core.Housing, 100000, day(2025, 1, 1)),
		exp(core.Food, 1000, day(2025, 1, 2)),
		exp(core.Food, 1000, day(2025, 1, 3)),
		exp(core.Food, 1000, day(2025, 1, 4)),
		exp(core.Food, 9000, day(2025, 1, 5)),
	}
	got := FindUnusual(expenses)
	if len(got) != 1 || got[0].Category != core.Food {
		t.Fatalf("expected the large food expense only, got %v", got)
	}
}

func TestMonthlyTrend(t *testing.T) {
	ref := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("up with change", func(t *testing.T) {
		tr := MonthlyTrend([]core.Expense{
			exp(core.Food, 15000, day(2025, 3, 1)),
			exp(core.Food, 10000, day(2025, 2, 28)),
		}, ref)
		if tr.Current.Cents != 15000 || tr.Previous.Cents != 10000 {
			t.Fatalf("totals %+v", tr)
		}
		if !tr.HasChange || tr.Direction != Up || tr.PercentChange != 50.0 {
			t.Fatalf("unexpected trend %+v", tr)
		}
	})

	t.Run("previous zero omits change", func(t *testing.T) {
		tr := MonthlyTrend([]core.Expense{exp(core.Food, 15000, day(2025, 3, 1))}, ref)
		if tr.HasChange || tr.PercentChange != 0 {
			t.Fatalf("percent change must be omitted, got %+v", tr)
		}
		if tr.Direction != Up {
			t.Fatalf("expected up, got %s", tr.Direction)
		}
	})

	t.Run("equal is down", func(t *testing.T) {
		tr := MonthlyTrend([]core.Expense{
			exp(core.Food, 5000, day(2025, 3, 2)),
			exp(core.Food, 5000, day(2025, 2, 2)),
		}, ref)
		if tr.Direction != Down || tr.PercentChange != 0 || !tr.HasChange {
			t.Fatalf("unexpected trend %+v", tr)
		}
	})

	t.Run("january compares with december", func(t *testing.T) {
		tr := MonthlyTrend([]core.Expense{
			exp(core.Food, 5000, day(2025, 1, 2)),
			exp(core.Food, 10000, day(2024, 12, 31)),
		}, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
		if tr.Direction != Down || math.Abs(tr.PercentChange-(-50)) > 1e-9 {
			t.Fatalf("unexpected trend %+v", tr)
		}
	})
}

func TestMonthlySeries(t *testing.T) {
	ref := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		exp(core.Food, 100, day(2025, 2, 1)),
		exp(core.Food, 200, day(2025, 2, 28)),
		exp(core.Food, 400, day(2024, 9, 1)),
		exp(core.Food, 800, day(2024, 8, 31)), // outside window
		exp(core.Food, 1600, day(2025, 3, 1)), // outside window
	}
	got := MonthlySeries(expenses, ref)
	wantLabels := []string{"Sep 2024", "Oct 2024", "Nov 2024", "Dec 2024", "Jan 2025", "Feb 2025"}
	wantTotals := []int64{400, 0, 0, 0, 0, 300}
	if len(got) != SeriesMonths {
		t.Fatalf("expected %d months, got %d", SeriesMonths, len(got))
	}
	for i := range got {
		if got[i].Label != wantLabels[i] || got[i].Total.Cents != wantTotals[i] {
			t.Errorf("series[%d] = %s %d, want %s %d", i, got[i].Label, got[i].Total.Cents, wantLabels[i], wantTotals[i])
		}
	}
}

func TestWeekdayTotals(t *testing.T) {
	// 2025-01-05 is a Sunday
	expenses := []core.Expense{
		exp(core.Food, 100, day(2025, 1, 5)),
		exp(core.Food, 300, day(2025, 1, 6)),
		exp(core.Housing, 300, day(2025, 1, 8)),
		exp(core.Food, 50, day(2025, 1, 11)),
	}
	got := WeekdayTotals(expenses)
	want := [7]int64{100, 300, 0, 300, 0, 0, 50}
	var sum int64
	for i := range got {
		if got[i].Cents != want[i] {
			t.Errorf("weekday %d = %d, want %d", i, got[i].Cents, want[i])
		}
		sum += got[i].Cents
	}
	if sum != GrandTotal(expenses).Cents {
		t.Fatalf("weekday sum %d differs from grand total", sum)
	}
	if peak := PeakWeekday(expenses); peak != time.Monday {
		t.Fatalf("tie should resolve to Monday, got %s", peak)
	}
	if peak := PeakWeekday(nil); peak != time.Sunday {
		t.Fatalf("empty collection peak should be Sunday, got %s", peak)
	}
}
