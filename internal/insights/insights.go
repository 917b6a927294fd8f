// Package insights turns an expense collection into short, human-readable
// observations. Output depends only on the collection and the reference
// instant passed in by the caller.
package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// MinExpenses is the collection size below which only a placeholder is returned.
const MinExpenses = 3

const (
	TitleNotEnoughData = "Not Enough Data"
	TitleTopCategory   = "Top Spending Category"
	TitleMonthlyTrend  = "Monthly Spending Trend"
	TitleUnusual       = "Unusual Expenses Detected"
	TitleSavings       = "Savings Opportunity"
	TitleWeekly        = "Weekly Spending Pattern"
)

// foodShareThreshold is the food share of total spending, in percent, above
// which a savings hint is produced.
const foodShareThreshold = 30

// Generate composes insights in a fixed order: top category, monthly trend,
// unusual expenses, savings opportunity and weekly pattern. The trend,
// unusual and savings entries appear only when their condition holds.
func Generate(expenses []core.Expense, ref time.Time) []core.Insight {
	if len(expenses) < MinExpenses {
		return []core.Insight{{
			Title:   TitleNotEnoughData,
			Content: fmt.Sprintf("Add at least %d expenses to get insights about your spending habits.", MinExpenses),
		}}
	}

	total := analytics.GrandTotal(expenses)
	var out []core.Insight

	if top, ok := analytics.TopCategory(expenses); ok {
		out = append(out, core.Insight{
			Title: TitleTopCategory,
			Content: fmt.Sprintf("Your highest spending category is %s, accounting for %s%% of your total expenses.",
				top.Category, percent(top.Amount.Cents, total.Cents)),
		})
	}

	if tr := analytics.MonthlyTrend(expenses, ref); tr.HasChange {
		change := tr.Current.Cents - tr.Previous.Cents
		if change < 0 {
			change = -change
		}
		out = append(out, core.Insight{
			Title: TitleMonthlyTrend,
			Content: fmt.Sprintf("Your spending is %s %s%% compared to last month.",
				tr.Direction, percent(change, tr.Previous.Cents)),
		})
	}

	if unusual := analytics.FindUnusual(expenses); len(unusual) > 0 {
		parts := make([]string, len(unusual))
		for i, e := range unusual {
			parts[i] = fmt.Sprintf("%s for %s on %s", FormatCurrency(e.Amount), e.Description, FormatDate(e.Date))
		}
		out = append(out, core.Insight{
			Title:   TitleUnusual,
			Content: "You have some unusually high expenses: " + strings.Join(parts, ", "),
		})
	}

	food := analytics.SumByCategory(expenses)[core.Food]
	if food.Cents*100 > total.Cents*foodShareThreshold {
		out = append(out, core.Insight{
			Title: TitleSavings,
			Content: fmt.Sprintf("You're spending %s%% of your budget on food. Consider meal planning to reduce expenses.",
				percent(food.Cents, total.Cents)),
		})
	}

	out = append(out, core.Insight{
		Title: TitleWeekly,
		Content: fmt.Sprintf("You tend to spend the most on %s. Being aware of this pattern might help you plan better.",
			analytics.PeakWeekday(expenses)),
	})

	return out
}

// FormatCurrency renders an amount as "$12.50".
func FormatCurrency(m core.Money) string {
	return "$" + m.String()
}

// FormatDate renders a date as "Jan 5, 2025".
func FormatDate(d core.Date) string {
	return d.Format("Jan 2, 2006")
}

// percent returns part/whole*100 with one decimal, rounded half away from zero.
func percent(part, whole int64) string {
	if whole == 0 {
		return "0.0"
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), 8).
		StringFixed(1)
}
