package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedgate/app/database"
	"feedgate/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives the periodic ingestion sweeps and startup registration
// sync. A single worker drains the queue, so no two ingestion runs can
// overlap even when runs are also triggered on demand through the API.
type Scheduler struct {
	engine    IngestRunner
	sources   []feed.Source
	feeds     database.FeedRepository
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(engine IngestRunner, sources []feed.Source,
	feeds database.FeedRepository, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		engine:    engine,
		sources:   sources,
		feeds:     feeds,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 8),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.EnqueueTask(NewIngestTask(s.engine)); err != nil {
					slog.Warn("Failed to enqueue IngestTask", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	if len(s.sources) > 0 {
		if err := s.EnqueueTask(NewSeedSourcesTask(s.sources, s.feeds)); err != nil {
			slog.Warn("Failed to enqueue SeedSourcesTask", "error", err)
		}
	}

	if err := s.EnqueueTask(NewIngestTask(s.engine)); err != nil {
		slog.Warn("Failed to enqueue IngestTask", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed",
			"type", string(task.GetType()),
			"id", task.GetID(),
			"duration", task.GetDuration(),
			"error", err)
	}
}
