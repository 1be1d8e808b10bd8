package tasks

import (
	"context"

	"feedgate/app/ingest"
)

// TaskSchedulerInterface is the queue surface used by the API layer to
// trigger on-demand work next to the periodic sweeps.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// IngestRunner executes one ingestion sweep.
type IngestRunner interface {
	Run(ctx context.Context) (*ingest.RunSummary, error)
}

var _ IngestRunner = (*ingest.Engine)(nil)
