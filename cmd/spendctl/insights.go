package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
	"spendwise/internal/insights"
)

// referenceFlag adds --date and returns a resolver for the reference instant.
func referenceFlag(cmd *cobra.Command) func() (time.Time, error) {
	var date string
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default: today)")
	return func() (time.Time, error) {
		if date == "" {
			return nowFunc(), nil
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return time.Time{}, err
		}
		return d.Time, nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func insightsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show observations about your spending",
		Args:  cobra.NoArgs,
	}
	ref := referenceFlag(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		at, err := ref()
		if err != nil {
			return err
		}
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		list := svc.Insights(at)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		for _, in := range list {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n\n", in.Title, in.Content); err != nil {
				return err
			}
		}
		return nil
	}
	return cmd
}

func summaryCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals and the category breakdown",
		Args:  cobra.NoArgs,
	}
	ref := referenceFlag(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		at, err := ref()
		if err != nil {
			return err
		}
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		s := svc.Summary(at)
		charts := svc.Charts(at)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"summary": s, "by_category": charts.ByCategory})
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Expenses\t%d\n", s.Count)
		fmt.Fprintf(w, "Total\t%s\n", insights.FormatCurrency(s.Total))
		fmt.Fprintf(w, "This month\t%s\n", insights.FormatCurrency(s.ThisMonth))
		fmt.Fprintf(w, "Top category\t%s\n", s.TopCategory)
		if len(charts.ByCategory) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "CATEGORY\tAMOUNT")
			for _, c := range charts.ByCategory {
				fmt.Fprintf(w, "%s\t%s\n", c.Category, insights.FormatCurrency(c.Amount))
			}
		}
		return w.Flush()
	}
	return cmd
}

func trendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare this month with last month and show six months of totals",
		Args:  cobra.NoArgs,
	}
	ref := referenceFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		at, err := ref()
		if err != nil {
			return err
		}
		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		expenses, _ := svc.Snapshot()
		trend := analytics.MonthlyTrend(expenses, at)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, m := range analytics.MonthlySeries(expenses, at) {
			fmt.Fprintf(w, "%s\t%s\n", m.Label, insights.FormatCurrency(m.Total))
		}
		fmt.Fprintln(w)
		if trend.HasChange {
			fmt.Fprintf(w, "Change\t%s %.1f%%\n", trend.Direction, abs(trend.PercentChange))
		} else {
			fmt.Fprintln(w, "Change\tno spending last month to compare with")
		}
		return w.Flush()
	}
	return cmd
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
