package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"feedgate/app/database"
	"feedgate/app/feed"
)

// SeedSourcesTask syncs the feed registrations from the sources file into the
// database, preserving each source's sync state.
type SeedSourcesTask struct {
	Task
	sources []feed.Source
	feeds   database.FeedRepository
}

func NewSeedSourcesTask(sources []feed.Source, feeds database.FeedRepository) *SeedSourcesTask {
	return &SeedSourcesTask{
		Task:    NewTask(TaskTypeSeedSources),
		sources: sources,
		feeds:   feeds,
	}
}

func (t *SeedSourcesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, source := range t.sources {
		if err := t.feeds.UpsertSource(source.ID, source.URL, source.Category, source.Enabled); err != nil {
			return fmt.Errorf("failed to register source %s: %w", source.ID, err)
		}
	}

	slog.Info("Task completed",
		"type", string(TaskTypeSeedSources),
		"id", t.ID,
		"duration", t.GetDuration(),
		"sources", len(t.sources))

	return nil
}
