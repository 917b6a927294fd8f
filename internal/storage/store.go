// Package storage persists the expense collection as a single JSON blob
// under a well-known key in a keyed store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"spendwise/internal/core"
)

// ExpensesKey is the key the expense collection is saved under.
const ExpensesKey = "expenses"

var ErrCorruptBlob = errors.New("corrupt expense blob")

// KVStore is a durable keyed blob store.
type KVStore interface {
	// Load returns the blob for key. found is false when the key was never saved.
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}

// EncodeExpenses serializes the collection as a JSON array in collection order.
func EncodeExpenses(expenses []core.Expense) ([]byte, error) {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	b, err := json.Marshal(expenses)
	if err != nil {
		return nil, fmt.Errorf("encode expenses: %w", err)
	}
	return b, nil
}

// DecodeExpenses parses a blob written by EncodeExpenses and validates every record.
func DecodeExpenses(blob []byte) ([]core.Expense, error) {
	var out []core.Expense
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	seen := make(map[string]struct{}, len(out))
	for i, e := range out {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptBlob, i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCorruptBlob, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

// LoadExpenses reads the collection from s. A missing key yields an empty collection.
func LoadExpenses(ctx context.Context, s KVStore) ([]core.Expense, error) {
	blob, found, err := s.Load(ctx, ExpensesKey)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	if !found {
		return []core.Expense{}, nil
	}
	return DecodeExpenses(blob)
}

// SaveExpenses writes the whole collection to s.
func SaveExpenses(ctx context.Context, s KVStore, expenses []core.Expense) error {
	blob, err := EncodeExpenses(expenses)
	if err != nil {
		return err
	}
	if err := s.Save(ctx, ExpensesKey, blob); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}
