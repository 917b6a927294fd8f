package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"spendwise/internal/amqp"
	"spendwise/internal/insights"
	"spendwise/internal/storage"
)

// DefaultDigestSchedule runs the digest every day at 08:00.
const DefaultDigestSchedule = "0 8 * * *"

// DigestPublisher delivers a generated digest.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, d *amqp.DigestMessage) error
}

// Digest recomputes insights from the stored collection on a schedule.
type Digest struct {
	store     storage.KVStore
	publisher DigestPublisher
	now       func() time.Time
}

// NewDigest creates a digest job. publisher may be nil, in which case the
// digest is only logged.
func NewDigest(store storage.KVStore, publisher DigestPublisher, now func() time.Time) *Digest {
	if now == nil {
		now = time.Now
	}
	return &Digest{store: store, publisher: publisher, now: now}
}

// Run loads the collection, generates the digest for the current time, logs
// it and publishes it when a publisher is configured.
func (d *Digest) Run(ctx context.Context) (*amqp.DigestMessage, error) {
	expenses, err := storage.LoadExpenses(ctx, d.store)
	if err != nil {
		return nil, fmt.Errorf("load expenses for digest: %w", err)
	}

	now := d.now()
	msg := &amqp.DigestMessage{
		GeneratedAt: now.UTC(),
		Summary:     insights.Summarize(expenses, now),
		Insights:    insights.Generate(expenses, now),
	}

	for _, in := range msg.Insights {
		slog.InfoContext(ctx, "Insight", "title", in.Title, "content", in.Content)
	}
	slog.InfoContext(ctx, "Digest generated",
		"expenses", msg.Summary.Count,
		"total", msg.Summary.Total.String(),
		"insights", len(msg.Insights))

	if d.publisher == nil {
		return msg, nil
	}
	if err := d.publisher.PublishDigest(ctx, msg); err != nil {
		return msg, fmt.Errorf("publish digest: %w", err)
	}
	return msg, nil
}

// Schedule runs the digest on the given cron spec until ctx is done, then
// waits for a running job to finish.
func (d *Digest) Schedule(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultDigestSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := d.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Digest run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}

	c.Start()
	slog.InfoContext(ctx, "Digest scheduler started", "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Digest scheduler stopped")
	return nil
}
