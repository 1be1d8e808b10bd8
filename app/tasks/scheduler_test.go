package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feedgate/app/database"
	"feedgate/app/feed"
	"feedgate/app/ingest"
)

type mockEngine struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (m *mockEngine) Run(ctx context.Context) (*ingest.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	if m.err != nil {
		return nil, m.err
	}
	return &ingest.RunSummary{RunID: int64(m.runs)}, nil
}

func (m *mockEngine) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

type mockFeedRepository struct {
	mu       sync.Mutex
	upserted []string
}

func (m *mockFeedRepository) GetEnabledSources() ([]database.FeedSource, error) { return nil, nil }
func (m *mockFeedRepository) GetSource(feedID string) (*database.FeedSource, error) {
	return nil, nil
}
func (m *mockFeedRepository) GetSourceCount() (int, error) { return 0, nil }
func (m *mockFeedRepository) UpsertSource(feedID, feedURL, category string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, feedID)
	return nil
}
func (m *mockFeedRepository) UpdateSyncState(feedID string, state database.SyncState) error {
	return nil
}

func (m *mockFeedRepository) upsertedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.upserted...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met within timeout")
}

func TestSchedulerRunsStartupTasks(t *testing.T) {
	engine := &mockEngine{}
	feeds := &mockFeedRepository{}
	sources := []feed.Source{
		{ID: "hn", URL: "https://example.com/hn.xml", Enabled: true},
	}

	scheduler := NewScheduler(engine, sources, feeds, time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return engine.runCount() >= 1 })

	ids := feeds.upsertedIDs()
	if len(ids) != 1 || ids[0] != "hn" {
		t.Errorf("Expected startup registration sync, got: %v", ids)
	}
}

func TestSchedulerEnqueueTask(t *testing.T) {
	engine := &mockEngine{}
	scheduler := NewScheduler(engine, nil, &mockFeedRepository{}, time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return engine.runCount() >= 1 })

	if err := scheduler.EnqueueTask(NewIngestTask(engine)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return engine.runCount() >= 2 })
}

func TestSchedulerQueueFull(t *testing.T) {
	engine := &mockEngine{}
	scheduler := NewScheduler(engine, nil, &mockFeedRepository{}, time.Hour)
	// Not started: nothing drains the queue.

	var err error
	for i := 0; i < 16; i++ {
		if err = scheduler.EnqueueTask(NewIngestTask(engine)); err != nil {
			break
		}
	}

	if err == nil {
		t.Fatal("Expected error when the queue is full")
	}
}

func TestIngestTaskPropagatesFailure(t *testing.T) {
	engine := &mockEngine{err: errors.New("run failed")}
	task := NewIngestTask(engine)
	task.Start()

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error from failed run")
	}
}

func TestIngestTaskCancelledContext(t *testing.T) {
	engine := &mockEngine{}
	task := NewIngestTask(engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if engine.runCount() != 0 {
		t.Errorf("Expected no run after cancellation, got: %d", engine.runCount())
	}
}

func TestSeedSourcesTask(t *testing.T) {
	feeds := &mockFeedRepository{}
	sources := []feed.Source{
		{ID: "hn", URL: "https://example.com/hn.xml", Category: "tech", Enabled: true},
		{ID: "nature", URL: "https://example.com/nature.xml", Category: "science", Enabled: false},
	}

	task := NewSeedSourcesTask(sources, feeds)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ids := feeds.upsertedIDs()
	if len(ids) != 2 || ids[0] != "hn" || ids[1] != "nature" {
		t.Errorf("Expected both sources registered in order, got: %v", ids)
	}
}

func TestTaskMetadata(t *testing.T) {
	task := NewTask(TaskTypeIngest)

	if task.GetID() == "" {
		t.Error("Expected a generated task id")
	}
	if task.GetType() != TaskTypeIngest {
		t.Errorf("Expected ingest type, got: %s", task.GetType())
	}
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task.Start()
	if task.StartedAt == nil {
		t.Error("Expected start time to be recorded")
	}
}
