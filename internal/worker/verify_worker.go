// Package worker executes queued verification runs: it claims a run,
// verifies the workbook, stores the artifacts and records the outcome.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"camate/internal/amqp"
	"camate/internal/blob"
	"camate/internal/gstr"
	"camate/internal/sheets"
	"camate/internal/storage"
	"camate/internal/verify"
)

// RunStore is the slice of the repository the worker needs.
type RunStore interface {
	GetRun(ctx context.Context, id string) (*storage.Run, error)
	PendingRuns(ctx context.Context, limit int) ([]storage.Run, error)
	MarkRunRunning(ctx context.Context, id string) error
	CompleteRun(ctx context.Context, id string, c storage.RunCompletion) error
	FailRun(ctx context.Context, id, message string) error
}

// ObjectStore reads workbooks and writes run artifacts.
type ObjectStore interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// VerifyWorker processes verification runs. Summaries is optional: when
// set, completed runs are also appended to the filing register.
type VerifyWorker struct {
	store         RunStore
	blobs         ObjectStore
	summaries     sheets.SummaryWriter
	homeStateCode string
	batchSize     int
}

func NewVerifyWorker(store RunStore, blobs ObjectStore, summaries sheets.SummaryWriter, homeStateCode string, batchSize int) *VerifyWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &VerifyWorker{
		store:         store,
		blobs:         blobs,
		summaries:     summaries,
		homeStateCode: homeStateCode,
		batchSize:     batchSize,
	}
}

// HandleRunMessage processes a single run message from AMQP.
func (w *VerifyWorker) HandleRunMessage(ctx context.Context, msg *amqp.RunMessage) error {
	slog.InfoContext(ctx, "Processing run message",
		"run_id", msg.RunID,
		"gstin", msg.GSTIN,
		"period", msg.Period)

	run, err := w.store.GetRun(ctx, msg.RunID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Run message references unknown run, dropping",
				"run_id", msg.RunID)
			return nil
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != storage.RunQueued {
		slog.InfoContext(ctx, "Run already processed, skipping",
			"run_id", run.ID,
			"status", run.Status)
		return nil
	}

	return w.ProcessRun(ctx, *run)
}

// ProcessPendingRuns picks up queued runs directly from the database.
// This is a backup mechanism in case AMQP messages are lost.
func (w *VerifyWorker) ProcessPendingRuns(ctx context.Context) error {
	pending, err := w.store.PendingRuns(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending runs: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending runs", "count", len(pending))

	for _, run := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ProcessRun(ctx, run); err != nil {
			slog.ErrorContext(ctx, "Failed to process run",
				"run_id", run.ID,
				"error", err)
		}
	}
	return nil
}

// ProcessRun claims and executes one run. A run already claimed by a
// competing worker is skipped without error.
func (w *VerifyWorker) ProcessRun(ctx context.Context, run storage.Run) error {
	if err := w.store.MarkRunRunning(ctx, run.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Run claimed elsewhere, skipping", "run_id", run.ID)
			return nil
		}
		return fmt.Errorf("claim run: %w", err)
	}

	started := time.Now()

	workbook, err := w.blobs.Get(run.StorageKey)
	if err != nil {
		return w.fail(ctx, run.ID, fmt.Errorf("load workbook %s: %w", run.StorageKey, err))
	}

	result, err := verify.Run(workbook, verify.Options{HomeStateCode: w.homeStateCode})
	if err != nil {
		return w.fail(ctx, run.ID, fmt.Errorf("verify workbook: %w", err))
	}

	correctedKey := blob.RunKey(run.ID, "corrected.xlsx")
	if err := w.blobs.Put(correctedKey, result.Corrected); err != nil {
		return w.fail(ctx, run.ID, fmt.Errorf("store corrected workbook: %w", err))
	}

	errorReportKey := ""
	if len(result.Errors) > 0 {
		errorReportKey = blob.RunKey(run.ID, "errors.csv")
		if err := w.blobs.Put(errorReportKey, result.ErrorReport); err != nil {
			return w.fail(ctx, run.ID, fmt.Errorf("store error report: %w", err))
		}
	}

	dashboardJSON, err := json.Marshal(result.Dashboard)
	if err != nil {
		return w.fail(ctx, run.ID, fmt.Errorf("marshal dashboard: %w", err))
	}

	completion := storage.RunCompletion{
		TotalChecked:   result.TotalChecked,
		TotalInvalid:   result.TotalInvalid,
		TotalMoved:     result.TotalMoved,
		CorrectedKey:   correctedKey,
		ErrorReportKey: errorReportKey,
		DashboardJSON:  string(dashboardJSON),
	}
	if err := w.store.CompleteRun(ctx, run.ID, completion); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	slog.InfoContext(ctx, "Run completed",
		"run_id", run.ID,
		"total_checked", result.TotalChecked,
		"total_invalid", result.TotalInvalid,
		"total_moved", result.TotalMoved,
		"duration", time.Since(started).Round(time.Millisecond))

	w.appendSummary(ctx, run, result)
	return nil
}

// appendSummary records the run in the filing register. Register
// failures never fail the run; the artifacts are already stored.
func (w *VerifyWorker) appendSummary(ctx context.Context, run storage.Run, result *verify.Result) {
	if w.summaries == nil {
		return
	}

	summary := gstr.Summarize(result.Dashboard)
	ref, err := w.summaries.Append(ctx, sheets.RunSummary{
		RunID:        run.ID,
		GSTIN:        run.GSTIN,
		Period:       run.Period,
		TotalChecked: result.TotalChecked,
		TotalInvalid: result.TotalInvalid,
		TotalMoved:   result.TotalMoved,
		Taxable:      summary.Aggregate.Taxable,
		TotalTax:     summary.TotalTax,
		CompletedAt:  time.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to append run to filing register",
			"run_id", run.ID,
			"error", err)
		return
	}

	slog.InfoContext(ctx, "Run recorded in filing register",
		"run_id", run.ID,
		"sheets_ref", ref)
}

func (w *VerifyWorker) fail(ctx context.Context, runID string, cause error) error {
	if err := w.store.FailRun(ctx, runID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to mark run failed",
			"run_id", runID,
			"error", err)
	}
	return cause
}

// Poll runs ProcessPendingRuns on the interval until the context ends.
func (w *VerifyWorker) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingRuns(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending run sweep failed", "error", err)
			}
		}
	}
}
