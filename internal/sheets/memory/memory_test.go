package memory

import (
	"context"
	"errors"
	"testing"

	"spendwise/internal/core"
)

func expense(id string, cents int64) core.Expense {
	return core.Expense{
		ID:          id,
		Amount:      core.Money{Cents: cents},
		Description: "t",
		Date:        core.NewDate(2025, 1, 1),
		Category:    core.Other,
	}
}

func TestStoreExportAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Export(ctx, expense("a", 123))
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	ref, _ = s.Export(ctx, expense("b", 456))
	if ref != "mem:2" {
		t.Fatalf("unexpected ref %q", ref)
	}

	// re-export overwrites in place
	ref, _ = s.Export(ctx, expense("a", 999))
	if ref != "mem:1" {
		t.Fatalf("re-export should reuse row, got %q", ref)
	}

	rows, _ := s.ListExported(ctx)
	if len(rows) != 2 || rows[0].ID != "a" || rows[0].Amount.Cents != 999 || rows[1].ID != "b" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestStoreRemove(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Export(ctx, expense("a", 1))
	_, _ = s.Export(ctx, expense("b", 2))

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove of unknown id should be a no-op: %v", err)
	}

	rows, _ := s.ListExported(ctx)
	if len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows after remove: %+v", rows)
	}

	// removed rows are not reused
	ref, _ := s.Export(ctx, expense("c", 3))
	if ref != "mem:3" {
		t.Fatalf("expected fresh row, got %q", ref)
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	_, err := New().Export(context.Background(), core.Expense{ID: "x"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
