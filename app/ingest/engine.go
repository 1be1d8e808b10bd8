package ingest

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"feedgate/app/database"
)

// Engine runs the ingestion sweep: for every enabled feed source it performs
// the conditional fetch, document freshness guard, dedup upsert and watermark
// advance, then finalizes the run record with aggregate counters.
//
// A failing feed never aborts the sweep; a failing store write does. Feeds
// are processed one at a time, the caller is responsible for keeping runs
// from overlapping.
type Engine struct {
	fetcher Fetcher
	feeds   database.FeedRepository
	items   database.ItemRepository
	runs    database.RunRepository
	now     func() time.Time
}

func NewEngine(fetcher Fetcher, feeds database.FeedRepository,
	items database.ItemRepository, runs database.RunRepository) *Engine {
	return &Engine{
		fetcher: fetcher,
		feeds:   feeds,
		items:   items,
		runs:    runs,
		now:     time.Now,
	}
}

// Run executes one ingestion sweep across all enabled feed sources.
func (e *Engine) Run(ctx context.Context) (*RunSummary, error) {
	started := e.now()

	runID, err := e.runs.StartRun(started)
	if err != nil {
		return nil, fmt.Errorf("failed to open run: %w", err)
	}

	summary := &RunSummary{RunID: runID}

	sources, err := e.feeds.GetEnabledSources()
	if err != nil {
		e.failRun(runID, summary)
		return summary, fmt.Errorf("failed to list enabled feed sources: %w", err)
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			e.failRun(runID, summary)
			return summary, ctx.Err()
		}

		summary.FeedsAttempted++
		if err := e.processFeed(ctx, runID, src, summary); err != nil {
			e.failRun(runID, summary)
			return summary, err
		}
	}

	e.reportRunItems(runID)

	if err := e.runs.FinishRun(runID, "Success", summary.RunCounters); err != nil {
		return summary, fmt.Errorf("failed to finish run: %w", err)
	}

	summary.Duration = e.now().Sub(started)

	slog.Info("Ingestion run completed",
		"run_id", runID,
		"attempted", summary.FeedsAttempted,
		"ok", summary.FeedsOK,
		"not_modified", summary.FeedsNotModified,
		"failed", summary.FeedsFailed,
		"seen", summary.EntriesSeen,
		"inserted", summary.EntriesInserted,
		"duration", summary.Duration)

	return summary, nil
}

func (e *Engine) processFeed(ctx context.Context, runID int64, src database.FeedSource, summary *RunSummary) error {
	res, err := e.fetcher.Run(ctx, src.FeedURL, src.ETag, src.LastModified)
	if err != nil && (res == nil || len(res.Entries) == 0) {
		summary.FeedsFailed++
		slog.Warn("Feed fetch failed", "feed", src.FeedID, "error", err)
		return nil
	}

	if res.Status == http.StatusNotModified {
		summary.FeedsNotModified++
		slog.Info("Feed not modified", "feed", src.FeedID)
		return nil
	}

	if (res.Status >= 200 && res.Status < 300) || res.Status == http.StatusTemporaryRedirect {
		summary.FeedsOK++
	} else {
		// A failing status does not by itself block processing of whatever
		// content was retrieved.
		summary.FeedsFailed++
		if len(res.Entries) == 0 {
			slog.Warn("Feed fetch returned no usable content", "feed", src.FeedID, "status", res.Status)
			return nil
		}
	}

	// Some sources emit a 200 with an unmodified body under a weak cache
	// validator; the document timestamp catches those.
	if res.FeedUpdatedAt != nil && src.FeedUpdatedAt != nil && !res.FeedUpdatedAt.After(*src.FeedUpdatedAt) {
		if err := e.reconcile(src, res.ETag, res.LastModified, nil, src.FeedUpdatedAt, nil); err != nil {
			return err
		}
		slog.Info("Feed document unchanged", "feed", src.FeedID, "status", res.Status)
		return nil
	}

	summary.EntriesSeen += len(res.Entries)

	// Only real timestamps may advance the watermark; synthetic ones are not
	// trustworthy signals of true ordering.
	watermark := src.LastSeenPublishedAt
	for _, entry := range res.Entries {
		if entry.HasRealPublished && (watermark == nil || entry.PublishedAt.After(*watermark)) {
			ts := entry.PublishedAt
			watermark = &ts
		}

		item := database.FeedItem{
			FeedID:           src.FeedID,
			RunID:            runID,
			ContentHash:      entry.ContentHash,
			UID:              entry.UID,
			Link:             entry.Link,
			Title:            entry.Title,
			Summary:          entry.Summary,
			PublishedAt:      entry.PublishedAt,
			HasRealPublished: entry.HasRealPublished,
		}
		if err := e.items.UpsertItem(item); err != nil {
			return fmt.Errorf("feed %s: failed to upsert item: %w", src.FeedID, err)
		}
		summary.EntriesInserted++
	}

	newCount, err := e.items.CountItemsForRun(src.FeedID, runID)
	if err != nil {
		return fmt.Errorf("feed %s: failed to count run items: %w", src.FeedID, err)
	}

	// A feed that produced no new items this run does not claim the run.
	var lastRunID *int64
	if newCount > 0 {
		lastRunID = &runID
	}

	if err := e.reconcile(src, res.ETag, res.LastModified, watermark, res.FeedUpdatedAt, lastRunID); err != nil {
		return err
	}

	slog.Info("Feed processed",
		"feed", src.FeedID,
		"status", res.Status,
		"entries", len(res.Entries),
		"new", newCount)

	return nil
}

// reconcile persists the post-run sync state, skipping the write when nothing
// actually changed. Empty validators and nil arguments keep the stored value.
func (e *Engine) reconcile(src database.FeedSource, newETag, newLastModified string,
	watermark, feedUpdatedAt *time.Time, lastRunID *int64) error {

	state := database.SyncState{
		ETag:                cmp.Or(newETag, src.ETag),
		LastModified:        cmp.Or(newLastModified, src.LastModified),
		LastSeenPublishedAt: src.LastSeenPublishedAt,
		FeedUpdatedAt:       src.FeedUpdatedAt,
		LastRunID:           src.LastRunID,
	}
	if watermark != nil {
		state.LastSeenPublishedAt = watermark
	}
	if feedUpdatedAt != nil {
		state.FeedUpdatedAt = feedUpdatedAt
	}
	if lastRunID != nil {
		state.LastRunID = lastRunID
	}

	if state.ETag == src.ETag && state.LastModified == src.LastModified &&
		timeEqual(state.LastSeenPublishedAt, src.LastSeenPublishedAt) &&
		timeEqual(state.FeedUpdatedAt, src.FeedUpdatedAt) &&
		int64Equal(state.LastRunID, src.LastRunID) {
		return nil
	}

	if err := e.feeds.UpdateSyncState(src.FeedID, state); err != nil {
		return fmt.Errorf("feed %s: failed to update sync state: %w", src.FeedID, err)
	}

	return nil
}

// reportRunItems surfaces the run's new items for operational visibility.
// A read failure here never fails an otherwise complete run.
func (e *Engine) reportRunItems(runID int64) {
	items, err := e.items.ListItemsForRun(runID)
	if err != nil {
		slog.Warn("Failed to list run items", "run_id", runID, "error", err)
		return
	}

	for _, item := range items {
		slog.Debug("New entry this run",
			"run_id", runID,
			"feed", item.FeedID,
			"published_at", item.PublishedAt,
			"title", item.Title,
			"link", item.Link)
	}
}

func (e *Engine) failRun(runID int64, summary *RunSummary) {
	if err := e.runs.FinishRun(runID, "Failed", summary.RunCounters); err != nil {
		slog.Error("Failed to mark run as failed", "run_id", runID, "error", err)
	}
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

func int64Equal(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
