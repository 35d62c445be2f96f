// Package storage persists uploads and verification runs in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("storage: not found")

// Upload statuses.
const (
	UploadPending  = "pending"
	UploadReceived = "received"
)

// Run statuses.
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Upload is one source CSV registered with the service. The bytes live
// in the blob store under StorageKey; this row tracks identity, the
// sheet mapping and the confirmation status.
type Upload struct {
	ID         string
	Filename   string
	Sheet      string
	StorageKey string
	Status     string
	SizeBytes  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Run is one verification run over an assembled workbook.
type Run struct {
	ID             string
	GSTIN          string
	Period         string
	StorageKey     string
	Status         string
	TotalChecked   int
	TotalInvalid   int
	TotalMoved     int
	CorrectedKey   string
	ErrorReportKey string
	DashboardJSON  string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RunCompletion carries the artifacts recorded when a run finishes.
type RunCompletion struct {
	TotalChecked   int
	TotalInvalid   int
	TotalMoved     int
	CorrectedKey   string
	ErrorReportKey string
	DashboardJSON  string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateUpload(ctx context.Context, u Upload) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, filename, sheet, storage_key, status, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Filename, u.Sheet, u.StorageKey, u.Status, u.SizeBytes)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUpload(ctx context.Context, id string) (*Upload, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, sheet, storage_key, status, size_bytes, created_at, updated_at
		FROM uploads WHERE id = ?`, id)
	return scanUpload(row)
}

// ListUploads returns uploads newest first.
func (r *SQLiteRepository) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, sheet, storage_key, status, size_bytes, created_at, updated_at
		FROM uploads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *u)
	}
	return uploads, rows.Err()
}

// ReceivedUploads returns confirmed uploads, oldest first, for workbook
// assembly.
func (r *SQLiteRepository) ReceivedUploads(ctx context.Context) ([]Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, sheet, storage_key, status, size_bytes, created_at, updated_at
		FROM uploads WHERE status = ? ORDER BY created_at ASC, id ASC`, UploadReceived)
	if err != nil {
		return nil, fmt.Errorf("list received uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *u)
	}
	return uploads, rows.Err()
}

func (r *SQLiteRepository) SetUploadSheet(ctx context.Context, id, sheet string) error {
	return r.updateUpload(ctx, id, `UPDATE uploads SET sheet = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, sheet, id)
}

func (r *SQLiteRepository) MarkUploadReceived(ctx context.Context, id string, sizeBytes int64) error {
	return r.updateUpload(ctx, id, `
		UPDATE uploads SET status = ?, size_bytes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		UploadReceived, sizeBytes, id)
}

func (r *SQLiteRepository) updateUpload(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: upload %s", ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) CreateRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, gstin, period, storage_key, status)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.GSTIN, run.Period, run.StorageKey, run.Status)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, gstin, period, storage_key, status,
		       total_checked, total_invalid, total_moved,
		       corrected_key, error_report_key, dashboard_json, error_message,
		       created_at, updated_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// PendingRuns returns queued runs oldest first, up to limit.
func (r *SQLiteRepository) PendingRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, gstin, period, storage_key, status,
		       total_checked, total_invalid, total_moved,
		       corrected_key, error_report_key, dashboard_json, error_message,
		       created_at, updated_at
		FROM runs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?`, RunQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// MarkRunRunning transitions a queued run to running. It reports
// ErrNotFound when the run is missing or already claimed, which lets
// competing workers use it as a claim.
func (r *SQLiteRepository) MarkRunRunning(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`, RunRunning, id, RunQueued)
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: queued run %s", ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) CompleteRun(ctx context.Context, id string, c RunCompletion) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, total_checked = ?, total_invalid = ?, total_moved = ?,
		       corrected_key = ?, error_report_key = ?, dashboard_json = ?,
		       updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		RunCompleted, c.TotalChecked, c.TotalInvalid, c.TotalMoved,
		c.CorrectedKey, c.ErrorReportKey, c.DashboardJSON, id)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) FailRun(ctx context.Context, id, message string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, RunFailed, message, id)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (*Upload, error) {
	var u Upload
	err := row.Scan(&u.ID, &u.Filename, &u.Sheet, &u.StorageKey, &u.Status, &u.SizeBytes, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan upload: %w", err)
	}
	return &u, nil
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.GSTIN, &run.Period, &run.StorageKey, &run.Status,
		&run.TotalChecked, &run.TotalInvalid, &run.TotalMoved,
		&run.CorrectedKey, &run.ErrorReportKey, &run.DashboardJSON, &run.ErrorMessage,
		&run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &run, nil
}
