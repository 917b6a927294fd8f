package google

import (
	"fmt"
	"strings"
	"time"

	"spendwise/internal/core"
)

// Column order of the expenses sheet.
var header = []any{"ID", "Date", "Description", "Category", "Amount", "Timestamp"}

const lastColumn = "F"

// rowValues converts an expense into a sheet row.
func rowValues(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.String(),
		e.Description,
		string(e.Category),
		e.Amount.String(),
		e.CreatedAt.UTC().Format(core.TimestampLayout),
	}
}

// parseRows converts a values matrix (as returned by the Sheets API) back
// into expenses. Header, blank and cleared rows are skipped; a row that has an
// id but cannot be parsed is an error.
func parseRows(values [][]interface{}) ([]core.Expense, error) {
	var out []core.Expense
	for i, raw := range values {
		row := toStrings(raw)
		id := safeGet(row, 0)
		if id == "" || strings.EqualFold(id, "id") {
			continue
		}
		e, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRow(row []string) (core.Expense, error) {
	date, err := core.ParseDate(safeGet(row, 1))
	if err != nil {
		return core.Expense{}, err
	}
	category, err := core.ParseCategory(safeGet(row, 3))
	if err != nil {
		return core.Expense{}, err
	}
	cents, ok := parseAmountToCents(safeGet(row, 4))
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, safeGet(row, 4))
	}
	var created time.Time
	if ts := safeGet(row, 5); ts != "" {
		created, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return core.Expense{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
	}
	return core.Expense{
		ID:          safeGet(row, 0),
		Date:        date,
		Description: safeGet(row, 2),
		Category:    category,
		Amount:      core.Money{Cents: cents},
		CreatedAt:   created,
	}, nil
}

// findRow returns the 1-based sheet row whose column A equals id, or -1.
func findRow(columnA [][]interface{}, id string) int {
	for i, raw := range columnA {
		if len(raw) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(raw[0])) == id {
			return i + 1
		}
	}
	return -1
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts both "12.50" and the locale form "12,50" that
// USER_ENTERED cells may come back as.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "$")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}
