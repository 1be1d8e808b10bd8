package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ItemRepository = (*SQLItemRepository)(nil)

// SQLItemRepository handles database operations for feed items
type SQLItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *SQLItemRepository {
	return &SQLItemRepository{db: db}
}

// UpsertItem inserts an item or updates it in place when the content hash
// already exists for the feed. The run id is only advanced when a carried
// field actually changed, so count-by-run reflects "new or changed this run"
// rather than "touched this run".
func (r *SQLItemRepository) UpsertItem(item FeedItem) error {
	now := formatTime(time.Now())
	_, err := r.db.Exec(`
		INSERT INTO feed_items (
			feed_id, run_id, content_hash, uid, link, title, summary,
			published_at, has_real_published, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, content_hash) DO UPDATE SET
			run_id = excluded.run_id,
			uid = excluded.uid,
			link = excluded.link,
			title = excluded.title,
			summary = excluded.summary,
			published_at = excluded.published_at,
			has_real_published = excluded.has_real_published,
			updated_at = excluded.updated_at
		WHERE feed_items.title IS NOT excluded.title
		   OR feed_items.summary IS NOT excluded.summary
		   OR feed_items.published_at IS NOT excluded.published_at
		   OR feed_items.uid IS NOT excluded.uid
		   OR feed_items.link IS NOT excluded.link
	`, item.FeedID, item.RunID, item.ContentHash, nullableString(item.UID),
		item.Link, nullableString(item.Title), nullableString(item.Summary),
		formatTime(item.PublishedAt), item.HasRealPublished, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

// CountItemsForRun returns how many items of a feed were written or changed
// by the given run.
func (r *SQLItemRepository) CountItemsForRun(feedID string, runID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM feed_items WHERE feed_id = ? AND run_id = ?
	`, feedID, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items for run: %w", err)
	}
	return count, nil
}

// ListItemsForRun returns all items written or changed by a run, ordered by
// feed id.
func (r *SQLItemRepository) ListItemsForRun(runID int64) ([]FeedItem, error) {
	rows, err := r.db.Query(`
		SELECT i.feed_id, i.run_id, i.content_hash, COALESCE(i.uid, ''), i.link,
		       COALESCE(i.title, ''), COALESCE(i.summary, ''), i.published_at,
		       i.has_real_published, s.category, i.created_at, i.updated_at
		FROM feed_items i
		JOIN feed_sources s ON s.feed_id = i.feed_id
		WHERE i.run_id = ?
		ORDER BY i.feed_id, i.published_at DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for run: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// AggregateScope computes the freshness summary over the item set selected by
// the category/feed filter (empty string = no filter). The max hash belongs
// to the item holding the maximum publish time; ties break towards the
// highest run id, then the lexicographically smallest hash, so the value is
// stable for a fixed data set.
func (r *SQLItemRepository) AggregateScope(category, feedID string) (ScopeAggregate, error) {
	var agg ScopeAggregate

	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(i.run_id), 0)
		FROM feed_items i
		JOIN feed_sources s ON s.feed_id = i.feed_id
		WHERE (? = '' OR s.category = ?) AND (? = '' OR i.feed_id = ?)
	`, category, category, feedID, feedID).Scan(&agg.TotalItems, &agg.MaxRunID)
	if err != nil {
		return agg, fmt.Errorf("failed to aggregate scope: %w", err)
	}

	if agg.TotalItems == 0 {
		return agg, nil
	}

	var publishedAt string
	err = r.db.QueryRow(`
		SELECT i.published_at, i.content_hash
		FROM feed_items i
		JOIN feed_sources s ON s.feed_id = i.feed_id
		WHERE (? = '' OR s.category = ?) AND (? = '' OR i.feed_id = ?)
		ORDER BY i.published_at DESC, i.run_id DESC, i.content_hash ASC
		LIMIT 1
	`, category, category, feedID, feedID).Scan(&publishedAt, &agg.MaxHash)
	if err != nil {
		return agg, fmt.Errorf("failed to resolve scope head item: %w", err)
	}

	maxPublished, err := parseTime(publishedAt)
	if err != nil {
		return agg, err
	}
	agg.MaxPublishedAt = &maxPublished

	return agg, nil
}

// SelectScopeItems returns up to limit items in the scope, most recent first.
func (r *SQLItemRepository) SelectScopeItems(category, feedID string, limit int) ([]FeedItem, error) {
	rows, err := r.db.Query(`
		SELECT i.feed_id, i.run_id, i.content_hash, COALESCE(i.uid, ''), i.link,
		       COALESCE(i.title, ''), COALESCE(i.summary, ''), i.published_at,
		       i.has_real_published, s.category, i.created_at, i.updated_at
		FROM feed_items i
		JOIN feed_sources s ON s.feed_id = i.feed_id
		WHERE (? = '' OR s.category = ?) AND (? = '' OR i.feed_id = ?)
		ORDER BY i.published_at DESC, i.run_id DESC, i.content_hash ASC
		LIMIT ?
	`, category, category, feedID, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select scope items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetItemCount returns the total number of ingested items.
func (r *SQLItemRepository) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feed_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func scanItems(rows *sql.Rows) ([]FeedItem, error) {
	var items []FeedItem
	for rows.Next() {
		var item FeedItem
		var publishedAt, createdAt, updatedAt string

		err := rows.Scan(
			&item.FeedID, &item.RunID, &item.ContentHash, &item.UID, &item.Link,
			&item.Title, &item.Summary, &publishedAt, &item.HasRealPublished,
			&item.Category, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		if item.PublishedAt, err = parseTime(publishedAt); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}
