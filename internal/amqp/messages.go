package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/insights"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

var ErrUnknownEvent = errors.New("unknown event type")

// ExpenseEvent announces a change to the expense collection. Deleted events
// carry the expense as it was before removal.
type ExpenseEvent struct {
	Type      EventType    `json:"type"`
	Expense   core.Expense `json:"expense"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		Expense:   e,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event and rejects unknown types.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventExpenseCreated, EventExpenseUpdated, EventExpenseDeleted:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}
	return &msg, nil
}

// DigestMessage is the periodic insights report.
type DigestMessage struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     insights.Summary `json:"summary"`
	Insights    []core.Insight   `json:"insights"`
}

func (m *DigestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DigestMessageFromJSON(data []byte) (*DigestMessage, error) {
	var msg DigestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
