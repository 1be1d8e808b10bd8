package database

import (
	"time"
)

// FeedSource is a registered feed together with its mutable sync state.
// Sync state is written only by the ingestion engine after a run.
type FeedSource struct {
	FeedID   string
	FeedURL  string
	Category string
	Enabled  bool

	ETag                string // opaque HTTP validator, empty = absent
	LastModified        string // opaque HTTP validator, empty = absent
	LastSeenPublishedAt *time.Time
	FeedUpdatedAt       *time.Time // feed-level <updated>/<pubDate> seen last
	LastRunID           *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncState carries the post-run values for a feed source. Nil pointer /
// empty string fields fall back to the stored value on write.
type SyncState struct {
	ETag                string
	LastModified        string
	LastSeenPublishedAt *time.Time
	FeedUpdatedAt       *time.Time
	LastRunID           *int64
}

// FeedItem is a deduplicated ingested entry, keyed by (feed_id, content_hash).
type FeedItem struct {
	FeedID      string
	RunID       int64
	ContentHash string
	UID         string
	Link        string
	Title       string
	Summary     string
	PublishedAt time.Time
	// HasRealPublished is false when PublishedAt was synthesized because the
	// source carried no usable timestamp.
	HasRealPublished bool
	Category         string // owning source's category, populated on scope reads
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RunCounters are the aggregate counters accumulated over one ingestion run.
type RunCounters struct {
	FeedsAttempted   int
	FeedsOK          int
	FeedsNotModified int
	FeedsFailed      int
	EntriesSeen      int
	EntriesInserted  int
}

// Run is one ingestion execution. Finalized exactly once, never mutated after.
type Run struct {
	ID         int64
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	RunCounters
}

// AccessToken is a serving credential with an optional category/feed scope.
type AccessToken struct {
	Token        string
	Name         string
	Category     string // empty = all categories
	FeedID       string // empty = all feeds
	LimitDefault int
	Enabled      bool
	IsAdmin      bool
	CreatedAt    time.Time
	LastUsedAt   *time.Time
}

// ScopeAggregate is the freshness summary over a token's visible item set.
type ScopeAggregate struct {
	MaxPublishedAt *time.Time
	MaxRunID       int64
	TotalItems     int
	MaxHash        string
}
