package sheets

import (
	"context"

	"spendwise/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseExporter mirrors expenses into an external sheet, one row per id.
	ExpenseExporter interface {
		// Export writes e, overwriting the row that already holds e.ID if any.
		Export(ctx context.Context, e core.Expense) (rowRef string, err error)
		// Remove clears the row holding id. Unknown ids are not an error.
		Remove(ctx context.Context, id string) error
	}

	// ExpenseLister reads back what has been exported.
	ExpenseLister interface {
		ListExported(ctx context.Context) ([]core.Expense, error)
	}

	// Mirror is a sheet that can be both written and read back.
	Mirror interface {
		ExpenseExporter
		ExpenseLister
	}
)
