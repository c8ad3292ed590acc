package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Prasoon2050/Indian-Observer/app/cfg"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs ingestion on a fixed interval through a single worker.
// Generative calls are serialized by the gateway throttle, so more workers
// would only stack up behind it.
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(orchestrator *Orchestrator) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		orchestrator: orchestrator,
		interval:     time.Duration(cfg.RefreshInterval) * time.Minute,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 100),
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

		s.enqueueRun()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueRun()
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

// EnqueueRun queues a full ingestion run; the manual-trigger entry point.
func (s *Scheduler) EnqueueRun() error {
	return s.EnqueueTask(NewRunIngestionTask(s.orchestrator))
}

// EnqueueGeneration queues a manual topic generation for background
// execution, with the worker's usual retry handling.
func (s *Scheduler) EnqueueGeneration(req GenerateRequest) error {
	return s.EnqueueTask(NewGenerateTopicTask(s.orchestrator, req))
}

func (s *Scheduler) enqueueRun() {
	if err := s.EnqueueRun(); err != nil {
		slog.Warn("Failed to enqueue ingestion run", "error", err)
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

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Task execution failed",
		"type", string(task.GetType()),
		"id", task.GetID(),
		"name", task.GetName(),
		"retry_count", task.GetRetryCount(),
		"error", err)

	if !task.CanRetry() {
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled",
		"type", string(task.GetType()),
		"name", task.GetName(),
		"retry_count", task.GetRetryCount(),
		"max_retries", task.GetMaxRetries(),
		"delay", retryDelay.String())

	// The retry goroutine joins the wait group so Stop cannot close the
	// queue while a re-enqueue is pending.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "error", retryErr)
			}
		}
	}()
}
