// Package receipt extracts text from receipt images.
package receipt

import (
	"context"
	"errors"
	"time"
)

// DefaultDelay is how long StubProcessor pretends to work.
const DefaultDelay = time.Second

// StubText is what StubProcessor returns for every image.
const StubText = "Receipt processed"

var ErrEmptyImage = errors.New("empty receipt image")

// Processor turns a receipt image into text. Callers make a single attempt.
type Processor interface {
	Process(ctx context.Context, image []byte) (string, error)
}

// StubProcessor stands in for a real OCR backend: it waits Delay and
// returns StubText.
type StubProcessor struct {
	Delay time.Duration
}

var _ Processor = StubProcessor{}

func NewStubProcessor(delay time.Duration) StubProcessor {
	if delay < 0 {
		delay = DefaultDelay
	}
	return StubProcessor{Delay: delay}
}

func (p StubProcessor) Process(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return StubText, nil
}
