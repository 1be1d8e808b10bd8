package ingest

import (
	"context"
	"time"

	"feedgate/app/database"
	"feedgate/app/feed"
)

// Fetcher performs one conditional feed retrieval.
type Fetcher interface {
	Run(ctx context.Context, url, etag, lastModified string) (*feed.FetchResult, error)
}

var _ Fetcher = (*feed.Fetcher)(nil)

// RunSummary reports the outcome of one ingestion run.
type RunSummary struct {
	RunID    int64
	Duration time.Duration
	database.RunCounters
}
