package insights

import (
	"testing"
	"time"

	"spendwise/internal/core"
)

var ref = time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)

func exp(id string, cat core.Category, cents int64, desc string, date core.Date) core.Expense {
	return core.Expense{ID: id, Amount: core.Money{Cents: cents}, Description: desc, Date: date, Category: cat}
}

func titles(in []core.Insight) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.Title
	}
	return out
}

func assertInsights(t *testing.T, got []core.Insight, want []core.Insight) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d insights %v, want %d %v", len(got), titles(got), len(want), titles(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("insight %d:\n got  %+v\n want %+v", i, got[i], want[i])
		}
	}
}

func TestGenerateNeedsThreeExpenses(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		expenses := make([]core.Expense, n)
		for i := range expenses {
			expenses[i] = exp("x", core.Food, 100, "lunch", core.NewDate(2025, 3, 1))
		}
		got := Generate(expenses, ref)
		if len(got) != 1 || got[0].Title != TitleNotEnoughData {
			t.Fatalf("n=%d expected placeholder, got %v", n, got)
		}
	}
}

func TestGenerateTrendAndSavings(t *testing.T) {
	expenses := []core.Expense{
		exp("1", core.Food, 10000, "Dinner out", core.NewDate(2025, 3, 3)),
		exp("2", core.Food, 1000, "Lunch", core.NewDate(2025, 2, 10)),
		exp("3", core.Shopping, 2000, "Shoes", core.NewDate(2025, 2, 12)),
	}
	assertInsights(t, Generate(expenses, ref), []core.Insight{
		{Title: TitleTopCategory, Content: "Your highest spending category is Food, accounting for 84.6% of your total expenses."},
		{Title: TitleMonthlyTrend, Content: "Your spending is up 233.3% compared to last month."},
		{Title: TitleSavings, Content: "You're spending 84.6% of your budget on food. Consider meal planning to reduce expenses."},
		{Title: TitleWeekly, Content: "You tend to spend the most on Monday. Being aware of this pattern might help you plan better."},
	})
}

func TestGenerateUnusual(t *testing.T) {
	expenses := []core.Expense{
		exp("1", core.Shopping, 1000, "Socks", core.NewDate(2025, 3, 4)),
		exp("2", core.Shopping, 1000, "Socks", core.NewDate(2025, 3, 5)),
		exp("3", core.Shopping, 1000, "Hat", core.NewDate(2025, 3, 6)),
		exp("4", core.Shopping, 10000, "TV", core.NewDate(2025, 3, 7)),
	}
	assertInsights(t, Generate(expenses, ref), []core.Insight{
		{Title: TitleTopCategory, Content: "Your highest spending category is Shopping, accounting for 100.0% of your total expenses."},
		{Title: TitleUnusual, Content: "You have some unusually high expenses: $100.00 for TV on Mar 7, 2025"},
		{Title: TitleWeekly, Content: "You tend to spend the most on Friday. Being aware of this pattern might help you plan better."},
	})
}

func TestGenerateTrendDown(t *testing.T) {
	expenses := []core.Expense{
		exp("1", core.Housing, 5000, "Rent share", core.NewDate(2025, 3, 1)),
		exp("2", core.Housing, 10000, "Rent", core.NewDate(2025, 2, 1)),
		exp("3", core.Utilities, 10000, "Electric", core.NewDate(2025, 2, 2)),
	}
	got := Generate(expenses, ref)
	if len(got) < 2 || got[1].Content != "Your spending is down 75.0% compared to last month." {
		t.Fatalf("unexpected insights %+v", got)
	}
}

func TestSavingsThresholdIsStrict(t *testing.T) {
	expenses := []core.Expense{
		exp("1", core.Food, 3000, "Lunch", core.NewDate(2025, 3, 1)),
		exp("2", core.Housing, 3500, "Rent", core.NewDate(2025, 3, 2)),
		exp("3", core.Housing, 3500, "Rent", core.NewDate(2025, 3, 3)),
	}
	for _, in := range Generate(expenses, ref) {
		if in.Title == TitleSavings {
			t.Fatalf("exactly 30%% food must not produce a savings hint: %+v", in)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	expenses := []core.Expense{
		exp("1", core.Food, 1234, "Lunch", core.NewDate(2025, 3, 1)),
		exp("2", core.Transportation, 999, "Taxi", core.NewDate(2025, 2, 2)),
		exp("3", core.Education, 4500, "Course", core.NewDate(2025, 1, 3)),
	}
	a, b := Generate(expenses, ref), Generate(expenses, ref)
	assertInsights(t, a, b)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int64
		want        string
	}{
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{1, 16, "6.3"},
		{5, 5, "100.0"},
		{1, 0, "0.0"},
	}
	for _, tt := range tests {
		if got := percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("percent(%d, %d) = %s, want %s", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatCurrency(core.Money{Cents: 5}); got != "$0.05" {
		t.Errorf("FormatCurrency = %s", got)
	}
	if got := FormatDate(core.NewDate(2025, 1, 5)); got != "Jan 5, 2025" {
		t.Errorf("FormatDate = %s", got)
	}
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil, ref)
	if empty.TopCategory != NoTopCategory || empty.Total.Cents != 0 || empty.ThisMonth.Cents != 0 || empty.Count != 0 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}

	s := Summarize([]core.Expense{
		exp("1", core.Food, 1000, "Lunch", core.NewDate(2025, 3, 1)),
		exp("2", core.Housing, 5000, "Rent", core.NewDate(2025, 2, 1)),
	}, ref)
	if s.Count != 2 || s.Total.Cents != 6000 || s.ThisMonth.Cents != 1000 || s.TopCategory != "Housing" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestCharts(t *testing.T) {
	c := Charts(nil, ref)
	if c.ByCategory == nil || len(c.ByCategory) != 0 {
		t.Fatalf("empty breakdown should be an empty slice, got %#v", c.ByCategory)
	}
	if len(c.Trend) != 6 || c.Trend[5].Label != "Mar 2025" {
		t.Fatalf("unexpected trend %+v", c.Trend)
	}
}

func TestGenerateWithLargestAmounts(t *testing.T) {
	expenses := []core.Expense{
		exp("1", core.Food, core.MaxAmountCents, "Catering", core.NewDate(2025, 3, 3)),
		exp("2", core.Food, core.MaxAmountCents, "Catering", core.NewDate(2025, 3, 4)),
		exp("3", core.Housing, 100, "Rent fee", core.NewDate(2025, 3, 5)),
	}
	got := Generate(expenses, ref)

	want := "Your highest spending category is Food, accounting for 100.0% of your total expenses."
	if got[0].Title != TitleTopCategory || got[0].Content != want {
		t.Fatalf("first insight = %+v", got[0])
	}
	var savings bool
	for _, in := range got {
		savings = savings || in.Title == TitleSavings
	}
	if !savings {
		t.Errorf("expected a savings insight, got %v", titles(got))
	}
}
