package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

// ExportWorker mirrors expense events into a sheet.
type ExportWorker struct {
	exporter sheets.ExpenseExporter
}

func NewExportWorker(exporter sheets.ExpenseExporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleEvent processes a single expense event. Created and updated events
// export the expense; deleted events remove its row.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"type", ev.Type,
		"id", ev.Expense.ID,
		"timestamp", ev.Timestamp)

	switch ev.Type {
	case amqp.EventExpenseCreated, amqp.EventExpenseUpdated:
		ref, err := w.exporter.Export(ctx, ev.Expense)
		if err != nil {
			return fmt.Errorf("export expense %s: %w", ev.Expense.ID, err)
		}
		slog.InfoContext(ctx, "Successfully exported expense",
			"id", ev.Expense.ID,
			"sheets_ref", ref,
			"amount_cents", ev.Expense.Amount.Cents)
	case amqp.EventExpenseDeleted:
		if err := w.exporter.Remove(ctx, ev.Expense.ID); err != nil {
			return fmt.Errorf("remove expense %s: %w", ev.Expense.ID, err)
		}
		slog.InfoContext(ctx, "Successfully removed expense", "id", ev.Expense.ID)
	default:
		return fmt.Errorf("%w: %q", amqp.ErrUnknownEvent, ev.Type)
	}
	return nil
}

// SyncResult counts what StartupSyncCheck changed.
type SyncResult struct {
	Exported int
	Removed  int
	Errors   int
}

// StartupSyncCheck brings the sheet in line with the collection: expenses
// missing or different in the sheet are exported, rows for expenses no longer
// in the collection are removed. It recovers from events lost while the
// worker was down. Exporters that cannot list their rows are skipped.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context, expenses []core.Expense) (SyncResult, error) {
	var res SyncResult

	lister, ok := w.exporter.(sheets.ExpenseLister)
	if !ok {
		slog.InfoContext(ctx, "Exporter cannot list rows, skipping startup sync check")
		return res, nil
	}

	exported, err := lister.ListExported(ctx)
	if err != nil {
		return res, fmt.Errorf("list exported expenses: %w", err)
	}

	inSheet := make(map[string]core.Expense, len(exported))
	for _, e := range exported {
		inSheet[e.ID] = e
	}
	inCollection := make(map[string]struct{}, len(expenses))

	for _, e := range expenses {
		inCollection[e.ID] = struct{}{}
		if row, ok := inSheet[e.ID]; ok && sameRow(row, e) {
			continue
		}
		if _, err := w.exporter.Export(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup sync", "id", e.ID, "error", err)
			res.Errors++
			continue
		}
		res.Exported++
	}

	for _, e := range exported {
		if _, ok := inCollection[e.ID]; ok {
			continue
		}
		if err := w.exporter.Remove(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale row during startup sync", "id", e.ID, "error", err)
			res.Errors++
			continue
		}
		res.Removed++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(expenses),
		"exported", res.Exported,
		"removed", res.Removed,
		"errors", res.Errors)

	return res, nil
}

func sameRow(a, b core.Expense) bool {
	return a.Amount == b.Amount &&
		a.Description == b.Description &&
		a.Category == b.Category &&
		a.Date.Equal(b.Date.Time) &&
		a.CreatedAt.Equal(b.CreatedAt)
}
