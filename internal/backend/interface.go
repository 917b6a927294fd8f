package backend

import (
	"context"

	"spendwise/internal/amqp"
	"spendwise/internal/sheets"
	"spendwise/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the durable store and a readiness probe for it
type StoreResult struct {
	Store storage.KVStore
	// Ready pings the underlying database; nil for in-memory stores.
	Ready func(context.Context) error
}

// Factory creates the collaborators of the expense service from configuration
type Factory interface {
	// CreateStore opens the durable key-value store for the configured backend.
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	// CreateBroker connects to AMQP. It returns nil when no broker is configured.
	CreateBroker(ctx context.Context, config Config) (*amqp.Client, error)
	// CreateExporter opens the spreadsheet mirror. It returns nil when no
	// spreadsheet is configured.
	CreateExporter(ctx context.Context, config Config) (sheets.Mirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory backend specific
	MemorySeedFile string

	// AMQP (optional)
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPDigestQueue string

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// Type represents the kind of durable store
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
	MemoryBackend   Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
