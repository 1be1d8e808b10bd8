package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ RunRepository = (*SQLRunRepository)(nil)

// SQLRunRepository handles database operations for ingestion runs
type SQLRunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *SQLRunRepository {
	return &SQLRunRepository{db: db}
}

// StartRun opens a new run record and returns its id.
func (r *SQLRunRepository) StartRun(startedAt time.Time) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO runs (status, started_at) VALUES ('Running', ?)
	`, formatTime(startedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	return runID, nil
}

// FinishRun finalizes a run record with its status and aggregate counters.
func (r *SQLRunRepository) FinishRun(runID int64, status string, counters RunCounters) error {
	_, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, finished_at = ?, feeds_attempted = ?, feeds_ok = ?,
		    feeds_not_modified = ?, feeds_failed = ?, entries_seen = ?, entries_inserted = ?
		WHERE id = ?
	`, status, formatTime(time.Now()),
		counters.FeedsAttempted, counters.FeedsOK, counters.FeedsNotModified,
		counters.FeedsFailed, counters.EntriesSeen, counters.EntriesInserted, runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

// GetLatestRun returns the most recent run record, or nil when none exist.
func (r *SQLRunRepository) GetLatestRun() (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	err := r.db.QueryRow(`
		SELECT id, status, started_at, finished_at, feeds_attempted, feeds_ok,
		       feeds_not_modified, feeds_failed, entries_seen, entries_inserted
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(
		&run.ID, &run.Status, &startedAt, &finishedAt,
		&run.FeedsAttempted, &run.FeedsOK, &run.FeedsNotModified,
		&run.FeedsFailed, &run.EntriesSeen, &run.EntriesInserted,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}

	return &run, nil
}
