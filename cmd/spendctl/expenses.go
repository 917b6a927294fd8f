package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spendwise/internal/core"
	"spendwise/internal/insights"
	"spendwise/internal/services"
)

func addCmd() *cobra.Command {
	var (
		amount      string
		description string
		date        string
		category    string
		receiptPath string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Long: `Record a new expense. The amount may be an arithmetic expression
such as "19.99 * 2". Without --category the description decides the category.`,
		Example: `  spendctl add --amount 12.50 --description "lunch with team"
  spendctl add --amount "3 * 2.40" --description "bus tickets" --date 2025-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := newExpenseFromFlags(amount, description, date, category, receiptPath)
			if err != nil {
				return err
			}

			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			e, err := svc.Add(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to add expense: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s (%s) on %s\n",
				e.ID, insights.FormatCurrency(e.Amount), e.Description, e.Category, e.Date)
			return err
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount or arithmetic expression (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the money was spent on")
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category (default: classified from description)")
	cmd.Flags().StringVar(&receiptPath, "receipt", "", "path to a receipt image")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newExpenseFromFlags(amount, description, date, category, receiptPath string) (services.NewExpense, error) {
	m, err := core.EvaluateAmount(amount)
	if err != nil {
		return services.NewExpense{}, err
	}

	in := services.NewExpense{
		Amount:      m,
		Description: strings.TrimSpace(description),
		Date:        core.DateOf(nowFunc()),
	}
	if date != "" {
		if in.Date, err = core.ParseDate(date); err != nil {
			return services.NewExpense{}, err
		}
	}
	if category != "" {
		if in.Category, err = core.ParseCategory(category); err != nil {
			return services.NewExpense{}, err
		}
	}
	if receiptPath != "" {
		if in.Receipt, err = os.ReadFile(receiptPath); err != nil {
			return services.NewExpense{}, fmt.Errorf("read receipt: %w", err)
		}
	}
	return in, nil
}

func listCmd() *cobra.Command {
	var (
		search   string
		category string
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := services.Filter{Search: search}
			if category != "" {
				c, err := core.ParseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = c
			}

			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			expenses := svc.List(filter)
			if limit > 0 && len(expenses) > limit {
				expenses = expenses[:limit]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(expenses)
			}
			if len(expenses) == 0 {
				_, err := fmt.Fprintln(out, "No expenses found. Use 'spendctl add' to record one.")
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
			for _, e := range expenses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date, e.Category, insights.FormatCurrency(e.Amount), e.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive text to find in descriptions")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n expenses")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the storage JSON form")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return err
		},
	}
}
