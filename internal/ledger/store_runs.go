package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parcel/internal/services"
)

const runColumns = "id, dataset, version, status, archive_url, session_id, root_path, results_json, record_count, error_kind, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at, completed_at"

// CreateRun inserts a new pending run.
func (s *Store) CreateRun(ctx context.Context, dataset, version, archiveURL, sessionID string) (*Run, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            dataset, version, status, archive_url, session_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dataset,
		version,
		StatusPending,
		nullableString(archiveURL),
		nullableString(sessionID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetRun(ctx, id)
}

// GetRun fetches a run by identifier. A missing run returns nil.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs filtered by status set (or all runs when no status
// is provided), oldest first.
func (s *Store) ListRuns(ctx context.Context, statuses ...Status) ([]*Run, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + runColumns + ` FROM runs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateStatus moves a run to the next lifecycle status, rejecting
// transitions the state machine does not allow.
func (s *Store) UpdateStatus(ctx context.Context, id int64, next Status) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run %d", services.ErrNotFound, id)
	}
	if !CanTransition(run.Status, next) {
		return fmt.Errorf("%w: illegal run transition from %q to %q", services.ErrValidation, run.Status, next)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		next,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		run.Status,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run %d changed status concurrently", services.ErrValidation, id)
	}
	return nil
}

// UpdateProgress records the current phase progress on a run.
func (s *Store) UpdateProgress(ctx context.Context, id int64, stage string, percent float64, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE runs SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		nullableString(stage),
		percent,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// SetRootPath records the extracted archive root a run reads from.
func (s *Store) SetRootPath(ctx context.Context, id int64, root string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE runs SET root_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(root),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set root path: %w", err)
	}
	return nil
}

// SetResults records the per-split results document and total record count.
func (s *Store) SetResults(ctx context.Context, id int64, resultsJSON string, recordCount int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE runs SET results_json = ?, record_count = ?, updated_at = ? WHERE id = ?`,
		nullableString(resultsJSON),
		recordCount,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set results: %w", err)
	}
	return nil
}

// MarkCompleted finishes a run successfully. Only a generating run can
// complete.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run %d", services.ErrNotFound, id)
	}
	if !CanTransition(run.Status, StatusCompleted) {
		return fmt.Errorf("%w: illegal run transition from %q to %q", services.ErrValidation, run.Status, StatusCompleted)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE runs SET status = ?, progress_percent = 100, completed_at = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed finishes a run with its failure kind and message. Terminal
// runs cannot fail again.
func (s *Store) MarkFailed(ctx context.Context, id int64, kind, message string) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run %d", services.ErrNotFound, id)
	}
	if !CanTransition(run.Status, StatusFailed) {
		return fmt.Errorf("%w: illegal run transition from %q to %q", services.ErrValidation, run.Status, StatusFailed)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(kind),
		nullableString(message),
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// Clear deletes runs in the given statuses; with none given it removes
// finished runs (completed and failed).
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusCompleted, StatusFailed}
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM runs WHERE status IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id              int64
		dataset         string
		version         string
		statusStr       string
		archiveURL      sql.NullString
		sessionID       sql.NullString
		rootPath        sql.NullString
		resultsJSON     sql.NullString
		recordCount     sql.NullInt64
		errorKind       sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		completedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&dataset,
		&version,
		&statusStr,
		&archiveURL,
		&sessionID,
		&rootPath,
		&resultsJSON,
		&recordCount,
		&errorKind,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:              id,
		Dataset:         dataset,
		Version:         version,
		Status:          Status(statusStr),
		ArchiveURL:      archiveURL.String,
		SessionID:       sessionID.String,
		RootPath:        rootPath.String,
		ResultsJSON:     resultsJSON.String,
		RecordCount:     recordCount.Int64,
		ErrorKind:       errorKind.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			run.CompletedAt = &completed
		}
	}
	return run, nil
}
