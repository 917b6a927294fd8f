package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendwise/internal/amqp"
)

var ErrQueueFull = errors.New("sync queue is full")

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to drain pending events (default: 2s)
	PollInterval time.Duration

	// BatchSize is the max number of events handled per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the number of attempts before an event is dropped (default: 3)
	MaxRetries int

	// QueueSize bounds the number of pending events (default: 1000)
	QueueSize int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 2 * time.Second,
		BatchSize:    10,
		MaxRetries:   3,
		QueueSize:    1000,
	}
}

type pendingEvent struct {
	event    *amqp.ExpenseEvent
	attempts int
}

// SyncProcessor is an in-process stand-in for the broker. It implements
// Publisher by queueing events in memory and hands them to a handler from a
// background loop, retrying failures.
type SyncProcessor struct {
	handler amqp.EventHandler
	config  SyncProcessorConfig

	qmu   sync.Mutex
	queue []pendingEvent

	// Lifecycle management
	mu      sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce *sync.Once
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(handler amqp.EventHandler, config SyncProcessorConfig) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	return &SyncProcessor{
		handler: handler,
		config:  config,
	}
}

// PublishExpenseEvent queues ev for the background loop.
func (p *SyncProcessor) PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	if len(p.queue) >= p.config.QueueSize {
		return fmt.Errorf("%w (%d pending)", ErrQueueFull, len(p.queue))
	}
	p.queue = append(p.queue, pendingEvent{event: ev})
	return nil
}

// Pending returns the number of queued events.
func (p *SyncProcessor) Pending() int {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return len(p.queue)
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.stopOnce = &sync.Once{}
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion. A Stop that
// timed out may be called again.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh, once := p.stopCh, p.doneCh, p.stopOnce
	p.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully", "pending", p.Pending())
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

// processBatch hands up to BatchSize queued events to the handler.
func (p *SyncProcessor) processBatch(ctx context.Context) {
	p.qmu.Lock()
	n := min(len(p.queue), p.config.BatchSize)
	batch := make([]pendingEvent, n)
	copy(batch, p.queue[:n])
	p.queue = p.queue[n:]
	p.qmu.Unlock()

	if n == 0 {
		return
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", n)

	for i, item := range batch {
		select {
		case <-p.stopCh:
			p.requeueFront(batch[i:])
			return
		case <-ctx.Done():
			p.requeueFront(batch[i:])
			return
		default:
		}

		if err := p.handler(ctx, item.event); err != nil {
			// later events may touch the same expense, so they wait behind the retry
			if p.retryable(ctx, &item, err) {
				p.requeueFront(append([]pendingEvent{item}, batch[i+1:]...))
				return
			}
			continue
		}
		slog.DebugContext(ctx, "Sync event handled",
			"type", item.event.Type,
			"id", item.event.Expense.ID)
	}
}

// retryable counts a failed attempt and reports whether item should run again.
func (p *SyncProcessor) retryable(ctx context.Context, item *pendingEvent, processErr error) bool {
	item.attempts++
	slog.WarnContext(ctx, "Sync processing failed",
		"type", item.event.Type,
		"id", item.event.Expense.ID,
		"attempt", item.attempts,
		"error", processErr)

	if item.attempts >= p.config.MaxRetries {
		slog.ErrorContext(ctx, "Sync event dropped after max retries",
			"type", item.event.Type,
			"id", item.event.Expense.ID,
			"attempts", item.attempts)
		return false
	}
	return true
}

func (p *SyncProcessor) requeueFront(items []pendingEvent) {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	p.queue = append(append([]pendingEvent{}, items...), p.queue...)
}
