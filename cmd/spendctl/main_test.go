package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spendwise/internal/core"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "spendctl.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("CLASSIFIER_RULES_FILE", "")
	t.Setenv("RECEIPT_DELAY", "0s")

	prev := nowFunc
	nowFunc = func() time.Time { return time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAddAndList(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "add", "--amount", "12.50", "--description", "lunch at the cafe")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "$12.50") || !strings.Contains(out, "Food") || !strings.Contains(out, "2025-04-15") {
		t.Errorf("unexpected add output: %q", out)
	}

	if _, err := run(t, "add", "-a", "3 * 2.40", "-d", "bus tickets", "--date", "2025-03-01"); err != nil {
		t.Fatalf("add expression: %v", err)
	}

	out, err = run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var expenses []core.Expense
	if err := json.Unmarshal([]byte(out), &expenses); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}
	var bus core.Expense
	for _, e := range expenses {
		if e.Description == "bus tickets" {
			bus = e
		}
	}
	if bus.Amount.Cents != 720 || bus.Category != core.Transportation {
		t.Errorf("bus tickets stored as %+v", bus)
	}

	out, err = run(t, "list", "--category", "food")
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if !strings.Contains(out, "lunch at the cafe") || strings.Contains(out, "bus tickets") {
		t.Errorf("category filter output: %q", out)
	}
}

func TestAddValidation(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing amount", []string{"add", "-d", "coffee"}},
		{"zero amount", []string{"add", "-a", "0", "-d", "coffee"}},
		{"bad expression", []string{"add", "-a", "2 +", "-d", "coffee"}},
		{"bad date", []string{"add", "-a", "1", "-d", "coffee", "--date", "2025-02-30"}},
		{"bad category", []string{"add", "-a", "1", "-d", "coffee", "-c", "Snacks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "add", "-a", "5", "-d", "movie night"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var expenses []core.Expense
	if err := json.Unmarshal([]byte(out), &expenses); err != nil || len(expenses) != 1 {
		t.Fatalf("decode list: %v (%d)", err, len(expenses))
	}

	if _, err := run(t, "delete", expenses[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := run(t, "delete", expenses[0].ID); err == nil {
		t.Error("deleting twice should fail")
	}

	out, err = run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No expenses found") {
		t.Errorf("expected empty list message, got %q", out)
	}
}

func TestInsightsOnEmptyStore(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "insights")
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if !strings.Contains(out, "Not Enough Data") {
		t.Errorf("expected not-enough-data insight, got %q", out)
	}
}

func TestSummaryAndTrend(t *testing.T) {
	setupEnv(t)

	for _, args := range [][]string{
		{"add", "-a", "100", "-d", "rent share", "--date", "2025-03-10"},
		{"add", "-a", "150", "-d", "rent share", "--date", "2025-04-10"},
	} {
		if _, err := run(t, args...); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	out, err := run(t, "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "$250.00") || !strings.Contains(out, "$150.00") {
		t.Errorf("summary output: %q", out)
	}

	out, err = run(t, "trend")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if !strings.Contains(out, "up 50.0%") {
		t.Errorf("trend output: %q", out)
	}
}

func TestClassify(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "classify", "dinner", "with", "doctor")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.HasPrefix(out, "Food") {
		t.Errorf("expected Food first, got %q", out)
	}

	out, err = run(t, "classify", "mystery item")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "Other (no keyword matched)") {
		t.Errorf("unexpected fallback output: %q", out)
	}
}
