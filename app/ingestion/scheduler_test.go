package ingestion

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Prasoon2050/Indian-Observer/app/database"
	"github.com/Prasoon2050/Indian-Observer/app/sources"
)

// newTestScheduler builds a scheduler directly so tests control the interval
// without the global config.
func newTestScheduler(orchestrator *Orchestrator) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     time.Hour,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 100),
	}
}

type flakyTask struct {
	Task
	executions atomic.Int32
	failures   int32
}

func newFlakyTask(failures int32, maxRetries int) *flakyTask {
	task := NewTask(TaskTypeGenerateTopic, "flaky")
	task.MaxRetries = maxRetries
	return &flakyTask{Task: task, failures: failures}
}

func (t *flakyTask) Execute(_ context.Context) error {
	if t.executions.Add(1) <= t.failures {
		return errors.New("transient failure")
	}
	return nil
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &stubSource{}, &stubSynthesizer{}, nil, nil)
	s := newTestScheduler(o)

	s.wg.Add(1)
	go s.worker()
	defer s.Stop()

	task := newFlakyTask(1, 2)
	require.NoError(t, s.EnqueueTask(task))

	require.Eventually(t, func() bool {
		return task.executions.Load() == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_StopWithRetryPending(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &stubSource{}, &stubSynthesizer{}, nil, nil)
	s := newTestScheduler(o)

	s.wg.Add(1)
	go s.worker()

	// Every execution fails, so a retry is always pending when Stop runs.
	task := newFlakyTask(100, 3)
	require.NoError(t, s.EnqueueTask(task))

	require.Eventually(t, func() bool {
		return task.executions.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return while a retry was pending")
	}
}

func TestScheduler_EnqueueGenerationRunsTopicGeneration(t *testing.T) {
	source := &stubSource{
		articles: map[string][]sources.SourceArticle{
			"Monsoon Forecast": topicArticles("Monsoon Forecast"),
		},
	}
	o, articleRepo, _ := newTestOrchestrator(t, source, &stubSynthesizer{}, nil, nil)
	s := newTestScheduler(o)

	s.wg.Add(1)
	go s.worker()
	defer s.Stop()

	require.NoError(t, s.EnqueueGeneration(GenerateRequest{Topic: "Monsoon Forecast", Actor: "editor-42"}))

	require.Eventually(t, func() bool {
		count, err := articleRepo.GetCount()
		return err == nil && count == 1
	}, 5*time.Second, 50*time.Millisecond)

	drafts, err := articleRepo.GetDrafts(10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.Equal(t, "editor-42", drafts[0].CreatedBy)
	require.Equal(t, database.StatusDraft, drafts[0].Status)
}
