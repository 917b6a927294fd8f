//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"spendwise/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_GoogleSheetsFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if _, err := serviceAccountCredentials(); err != nil {
		t.Skipf("service account not configured, skipping integration test: %v", err)
	}

	ctx := context.Background()
	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	e := core.Expense{
		ID:          "integration-" + now.Format("20060102150405.000"),
		Amount:      core.Money{Cents: 1234},
		Description: "Integration Test Expense",
		Date:        core.DateOf(now),
		Category:    core.Other,
		CreatedAt:   now,
	}

	t.Run("Export", func(t *testing.T) {
		ref, err := client.Export(ctx, e)
		if err != nil {
			t.Fatalf("Failed to export expense: %v", err)
		}
		t.Logf("Exported expense to %s", ref)

		e.Amount = core.Money{Cents: 4321}
		again, err := client.Export(ctx, e)
		if err != nil {
			t.Fatalf("Failed to re-export expense: %v", err)
		}
		if again != ref {
			t.Errorf("re-export should overwrite %s, wrote %s", ref, again)
		}
	})

	t.Run("ListExported", func(t *testing.T) {
		rows, err := client.ListExported(ctx)
		if err != nil {
			t.Fatalf("Failed to list exported expenses: %v", err)
		}
		found := false
		for _, r := range rows {
			if r.ID == e.ID {
				found = true
				if r.Amount.Cents != 4321 {
					t.Errorf("expected overwritten amount, got %d", r.Amount.Cents)
				}
			}
		}
		if !found {
			t.Errorf("exported expense %s not found", e.ID)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := client.Remove(ctx, e.ID); err != nil {
			t.Fatalf("Failed to remove expense: %v", err)
		}
		rows, err := client.ListExported(ctx)
		if err != nil {
			t.Fatalf("Failed to list exported expenses: %v", err)
		}
		for _, r := range rows {
			if r.ID == e.ID {
				t.Fatalf("expense %s still present after remove", e.ID)
			}
		}
	})
}
