package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// SyncRunRepository records the history of cache sync runs.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Start inserts run in the running state with a generated ID and sequence.
func (r *SyncRunRepository) Start(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence
	run.Status = models.SyncRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO sync_runs (id, sequence, category, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, run.ID, run.Sequence, run.Category, run.Status, run.StartedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Update writes the counts and outcome of run.
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC()
	}

	query := `
		UPDATE sync_runs
		SET status = ?, videos_total = ?, videos_synced = ?, videos_failed = ?,
			error_message = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.VideosTotal,
		run.VideosSynced,
		run.VideosFailed,
		nullableString(run.ErrorMessage),
		completedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", run.ID)
	}

	return nil
}

// Latest returns the most recently started run.
func (r *SyncRunRepository) Latest() (*models.SyncRun, error) {
	runs, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no sync runs recorded", shared.ErrCacheMiss)
	}
	return &runs[0], nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (r *SyncRunRepository) List(limit int) ([]models.SyncRun, error) {
	query := `
		SELECT id, sequence, category, status, videos_total, videos_synced, videos_failed,
			error_message, started_at, completed_at
		FROM sync_runs
		ORDER BY sequence DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		run, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return runs, nil
}

func (r *SyncRunRepository) scanOne(row rowScanner) (*models.SyncRun, error) {
	var (
		run          models.SyncRun
		status       string
		errorMessage sql.NullString
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&run.ID,
		&run.Sequence,
		&run.Category,
		&status,
		&run.VideosTotal,
		&run.VideosSynced,
		&run.VideosFailed,
		&errorMessage,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run.Status = models.SyncStatus(status)
	run.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}

	return &run, nil
}
