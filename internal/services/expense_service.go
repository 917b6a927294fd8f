package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/amqp"
	"spendwise/internal/classifier"
	"spendwise/internal/core"
	"spendwise/internal/insights"
	"spendwise/internal/receipt"
	"spendwise/internal/storage"
)

var (
	ErrNotFound  = errors.New("expense not found")
	ErrNotLoaded = errors.New("expense collection not loaded")
	ErrReceipt   = errors.New("receipt processing failed")
)

// Classifier picks a category for an expense that was submitted without one.
type Classifier interface {
	Classify(description string, amount core.Money, receiptText string) core.Category
}

// Publisher announces collection changes to other processes.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// NewExpense is the user-supplied part of an expense.
type NewExpense struct {
	Amount      core.Money
	Description string
	Date        core.Date
	// Category is optional; when empty the classifier decides.
	Category core.Category
	// Receipt is an optional image processed once before classification.
	Receipt []byte
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Search   string
	Category core.Category
}

type Option func(*ExpenseService)

func WithClassifier(c Classifier) Option {
	return func(s *ExpenseService) { s.classifier = c }
}

func WithPublisher(p Publisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithReceiptProcessor(p receipt.Processor) Option {
	return func(s *ExpenseService) { s.receipts = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *ExpenseService) { s.newID = gen }
}

// ExpenseService owns the expense collection. Every mutation is saved to the
// store before it becomes visible; a failed save leaves the collection unchanged.
type ExpenseService struct {
	store      storage.KVStore
	classifier Classifier
	publisher  Publisher
	receipts   receipt.Processor
	now        func() time.Time
	newID      func() string

	mu       sync.RWMutex
	expenses []core.Expense // newest first
	version  uint64
	loaded   bool
}

func NewExpenseService(store storage.KVStore, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:      store,
		classifier: classifier.Default(),
		receipts:   receipt.NewStubProcessor(receipt.DefaultDelay),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the collection from the store. It must be called once before use.
func (s *ExpenseService) Load(ctx context.Context) error {
	expenses, err := storage.LoadExpenses(ctx, s.store)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.expenses = expenses
	s.loaded = true
	s.version++
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense collection loaded", "count", len(expenses))
	return nil
}

// Add classifies (when needed), validates and stores a new expense at the
// front of the collection.
func (s *ExpenseService) Add(ctx context.Context, in NewExpense) (core.Expense, error) {
	e, err := s.build(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = s.newID()
	e.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return core.Expense{}, ErrNotLoaded
	}
	next := make([]core.Expense, 0, len(s.expenses)+1)
	next = append(next, e)
	next = append(next, s.expenses...)
	err = s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return core.Expense{}, err
	}

	slog.DebugContext(ctx, "Expense stored",
		"id", e.ID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	s.publish(ctx, amqp.EventExpenseCreated, e)
	return e, nil
}

// Update replaces the editable fields of an existing expense, keeping its id,
// creation time and position.
func (s *ExpenseService) Update(ctx context.Context, id string, in NewExpense) (core.Expense, error) {
	e, err := s.build(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.ID = id
	e.CreatedAt = s.expenses[idx].CreatedAt
	if err := e.Validate(); err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	next := make([]core.Expense, len(s.expenses))
	copy(next, s.expenses)
	next[idx] = e
	err = s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return core.Expense{}, err
	}

	slog.DebugContext(ctx, "Expense replaced", "id", id, "category", e.Category)
	s.publish(ctx, amqp.EventExpenseUpdated, e)
	return e, nil
}

// Delete removes an expense by id.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := s.expenses[idx]
	next := make([]core.Expense, 0, len(s.expenses)-1)
	next = append(next, s.expenses[:idx]...)
	next = append(next, s.expenses[idx+1:]...)
	err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "Expense removed", "id", id)
	s.publish(ctx, amqp.EventExpenseDeleted, removed)
	return nil
}

func (s *ExpenseService) Get(id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.expenses[idx], nil
	}
	return core.Expense{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns the expenses matching f in collection order. Search is a
// case-insensitive substring match on the description.
func (s *ExpenseService) List(f Filter) []core.Expense {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if search != "" && !strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Snapshot returns a copy of the whole collection and its version.
func (s *ExpenseService) Snapshot() ([]core.Expense, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out, s.version
}

// Version changes after every successful mutation.
func (s *ExpenseService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ExpenseService) Insights(ref time.Time) []core.Insight {
	expenses, _ := s.Snapshot()
	return insights.Generate(expenses, ref)
}

func (s *ExpenseService) Summary(ref time.Time) insights.Summary {
	expenses, _ := s.Snapshot()
	return insights.Summarize(expenses, ref)
}

func (s *ExpenseService) Charts(ref time.Time) insights.ChartData {
	expenses, _ := s.Snapshot()
	return insights.Charts(expenses, ref)
}

// Now returns the service clock's current time.
func (s *ExpenseService) Now() time.Time {
	return s.now()
}

// build runs receipt processing and classification. It does not hold the lock
// because receipt processing may be slow.
func (s *ExpenseService) build(ctx context.Context, in NewExpense) (core.Expense, error) {
	if err := in.Amount.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := in.Date.Validate(); err != nil {
		return core.Expense{}, err
	}

	var receiptText string
	if len(in.Receipt) > 0 {
		text, err := s.receipts.Process(ctx, in.Receipt)
		if err != nil {
			return core.Expense{}, fmt.Errorf("%w: %v", ErrReceipt, err)
		}
		receiptText = text
		slog.DebugContext(ctx, "Receipt processed", "bytes", len(in.Receipt))
	}

	category := in.Category
	if category == "" {
		category = s.classifier.Classify(in.Description, in.Amount, receiptText)
	}

	return core.Expense{
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Category:    category,
	}, nil
}

// commit persists next and, on success, makes it the current collection.
// Callers hold s.mu.
func (s *ExpenseService) commit(ctx context.Context, next []core.Expense) error {
	if err := storage.SaveExpenses(ctx, s.store, next); err != nil {
		slog.ErrorContext(ctx, "Failed to persist expense collection", "error", err)
		return err
	}
	s.expenses = next
	s.version++
	return nil
}

func (s *ExpenseService) indexOf(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping expense event", "type", t)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(t, e)); err != nil {
		// the change is already durable; subscribers catch up on the next event
		slog.ErrorContext(ctx, "Failed to publish expense event", "type", t, "id", e.ID, "error", err)
	}
}

// Close releases the store and, when it supports it, the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
