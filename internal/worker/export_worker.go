package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseledger/internal/amqp"
	"caseledger/internal/ledger"
	"caseledger/internal/log"
	"caseledger/internal/sheets"

	"github.com/google/uuid"
)

// Store is the slice of the sqlite repository the worker reads and marks.
type Store interface {
	ledger.CaseReader
	ledger.TransactionReader
	PendingExports(ctx context.Context, limit int) ([]uuid.UUID, error)
	MarkExported(ctx context.Context, id uuid.UUID, snapshotUpdatedAt time.Time) error
	MarkExportError(ctx context.Context, id uuid.UUID) error
}

// ExportWorker mirrors case ledgers from SQLite to Google Sheets.
type ExportWorker struct {
	store     Store
	exporter  sheets.Exporter
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(store Store, exporter sheets.Exporter, batchSize int, logger *log.Logger) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single ledger event from AMQP. A returned error
// asks the broker to redeliver.
func (w *ExportWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventKind, e.Kind,
		log.FieldCaseID, e.CaseID,
		"timestamp", e.Timestamp)

	if e.Kind == amqp.CaseDeleted {
		if err := w.exporter.RemoveCase(ctx, e.CaseID, e.CourtCaseNumber); err != nil {
			return fmt.Errorf("remove case sheet: %w", err)
		}
		return nil
	}

	err := w.exportCase(ctx, e.CaseID)
	if errors.Is(err, ledger.ErrNotFound) {
		// Deleted after the event was published; its own delete event follows.
		w.logger.WarnContext(ctx, "Case no longer exists, skipping export", log.FieldCaseID, e.CaseID)
		return nil
	}
	return err
}

// ProcessPending exports cases whose mirror is stale. This is the backstop
// for events lost between the API and the broker.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupCheck runs a larger sweep when the worker starts, to recover from
// downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	exported, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup export check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup export check completed",
		"exported", exported,
		"errors", failed)
	return nil
}

// Run sweeps pending cases every interval until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", log.FieldError, err)
			}
		}
	}
}

func (w *ExportWorker) processPending(ctx context.Context, limit int) (exported, failed int, err error) {
	ids, err := w.store.PendingExports(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending exports", "count", len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return exported, failed, err
		}
		if err := w.exportCase(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export case", log.FieldCaseID, id, log.FieldError, err)
			failed++
			continue
		}
		exported++
	}
	return exported, failed, nil
}

func (w *ExportWorker) exportCase(ctx context.Context, id uuid.UUID) error {
	c, err := w.store.GetCase(ctx, id)
	if err != nil {
		return fmt.Errorf("get case: %w", err)
	}
	txs, err := w.store.ListTransactions(ctx, id)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	ref, err := w.exporter.ExportCase(ctx, c, txs)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark export error", log.FieldCaseID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("export case: %w", err)
	}

	// The export already happened; a failed mark only means a repeat export.
	if err := w.store.MarkExported(ctx, id, c.UpdatedAt); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark case exported", log.FieldCaseID, id, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Case exported",
		log.FieldCaseID, id,
		log.FieldCourtNumber, c.CourtCaseNumber,
		"sheets_ref", ref,
		"transactions", len(txs))
	return nil
}
