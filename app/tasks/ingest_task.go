package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// IngestTask runs one ingestion sweep across all enabled feed sources.
type IngestTask struct {
	Task
	engine IngestRunner
}

func NewIngestTask(engine IngestRunner) *IngestTask {
	return &IngestTask{
		Task:   NewTask(TaskTypeIngest),
		engine: engine,
	}
}

func (t *IngestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	summary, err := t.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(TaskTypeIngest),
		"id", t.ID,
		"run_id", summary.RunID,
		"duration", t.GetDuration(),
		"attempted", summary.FeedsAttempted,
		"inserted", summary.EntriesInserted)

	return nil
}
