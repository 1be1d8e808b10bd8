package database

import (
	"time"
)

type FeedRepository interface {
	GetEnabledSources() ([]FeedSource, error)
	GetSource(feedID string) (*FeedSource, error)
	GetSourceCount() (int, error)

	UpsertSource(feedID, feedURL, category string, enabled bool) error
	UpdateSyncState(feedID string, state SyncState) error
}

type ItemRepository interface {
	UpsertItem(item FeedItem) error
	CountItemsForRun(feedID string, runID int64) (int, error)
	ListItemsForRun(runID int64) ([]FeedItem, error)

	AggregateScope(category, feedID string) (ScopeAggregate, error)
	SelectScopeItems(category, feedID string, limit int) ([]FeedItem, error)
	GetItemCount() (int, error)
}

type RunRepository interface {
	StartRun(startedAt time.Time) (int64, error)
	FinishRun(runID int64, status string, counters RunCounters) error
	GetLatestRun() (*Run, error)
}

type TokenRepository interface {
	GetToken(token string) (*AccessToken, error)
	TouchToken(token string, usedAt time.Time) error
	InsertToken(t AccessToken) error
}
