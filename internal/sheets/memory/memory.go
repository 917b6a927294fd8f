package memory

import (
	"context"
	"fmt"
	"sync"

	"spendwise/internal/core"
	ports "spendwise/internal/sheets"
)

var _ ports.Mirror = (*Store)(nil)

// Store is an in-memory sheet. Removed rows stay as blanks so row references
// remain stable, like cleared rows in a real sheet.
type Store struct {
	mu   sync.Mutex
	rows []*core.Expense
}

func New() *Store {
	return &Store{}
}

// Export stores the expense, overwriting any row with the same id, and
// returns a synthetic row reference.
func (s *Store) Export(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(e.ID); i >= 0 {
		s.rows[i] = &e
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.rows = append(s.rows, &e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.rows[i] = nil
	}
	return nil
}

// ListExported returns the non-blank rows in sheet order.
func (s *Store) ListExported(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.rows))
	for _, r := range s.rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.rows {
		if r != nil && r.ID == id {
			return i
		}
	}
	return -1
}
