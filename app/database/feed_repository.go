package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*SQLFeedRepository)(nil)

// SQLFeedRepository handles database operations for feed sources
type SQLFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

// UpsertSource inserts or updates a feed registration. Sync state columns
// (etag, last_modified, watermark, feed timestamp, last run) are preserved
// on update; registration only owns url, category and the enabled flag.
func (r *SQLFeedRepository) UpsertSource(feedID, feedURL, category string, enabled bool) error {
	now := formatTime(time.Now())
	_, err := r.db.Exec(`
		INSERT INTO feed_sources (feed_id, feed_url, category, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id) DO UPDATE SET
			feed_url = excluded.feed_url,
			category = excluded.category,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, feedID, feedURL, category, enabled, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert feed source: %w", err)
	}

	return nil
}

// UpdateSyncState writes the post-run sync state for a feed source.
func (r *SQLFeedRepository) UpdateSyncState(feedID string, state SyncState) error {
	var lastRunID any
	if state.LastRunID != nil {
		lastRunID = *state.LastRunID
	}

	_, err := r.db.Exec(`
		UPDATE feed_sources
		SET etag = ?, last_modified = ?, last_seen_published_at = ?,
		    feed_updated_at = ?, last_run_id = ?, updated_at = ?
		WHERE feed_id = ?
	`, nullableString(state.ETag), nullableString(state.LastModified),
		formatNullableTime(state.LastSeenPublishedAt),
		formatNullableTime(state.FeedUpdatedAt),
		lastRunID, formatTime(time.Now()), feedID)

	if err != nil {
		return fmt.Errorf("failed to update feed sync state: %w", err)
	}

	return nil
}

// GetEnabledSources returns all enabled feed sources ordered by feed id.
func (r *SQLFeedRepository) GetEnabledSources() ([]FeedSource, error) {
	rows, err := r.db.Query(`
		SELECT feed_id, feed_url, category, enabled, COALESCE(etag, ''), COALESCE(last_modified, ''),
		       last_seen_published_at, feed_updated_at, last_run_id, created_at, updated_at
		FROM feed_sources
		WHERE enabled = 1
		ORDER BY feed_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled feed sources: %w", err)
	}
	defer rows.Close()

	var sources []FeedSource
	for rows.Next() {
		source, err := scanFeedSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed source rows: %w", err)
	}

	return sources, nil
}

// GetSource retrieves a feed source by its id, or nil when absent.
func (r *SQLFeedRepository) GetSource(feedID string) (*FeedSource, error) {
	row := r.db.QueryRow(`
		SELECT feed_id, feed_url, category, enabled, COALESCE(etag, ''), COALESCE(last_modified, ''),
		       last_seen_published_at, feed_updated_at, last_run_id, created_at, updated_at
		FROM feed_sources
		WHERE feed_id = ?
	`, feedID)

	source, err := scanFeedSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return source, nil
}

// GetSourceCount returns the total number of registered feed sources.
func (r *SQLFeedRepository) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feed_sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed source count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedSource(row rowScanner) (*FeedSource, error) {
	var source FeedSource
	var lastSeen, feedUpdated sql.NullString
	var lastRunID sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&source.FeedID, &source.FeedURL, &source.Category, &source.Enabled,
		&source.ETag, &source.LastModified,
		&lastSeen, &feedUpdated, &lastRunID, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan feed source row: %w", err)
	}

	if source.LastSeenPublishedAt, err = parseNullableTime(lastSeen); err != nil {
		return nil, err
	}
	if source.FeedUpdatedAt, err = parseNullableTime(feedUpdated); err != nil {
		return nil, err
	}
	if lastRunID.Valid {
		source.LastRunID = &lastRunID.Int64
	}
	if source.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if source.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &source, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
