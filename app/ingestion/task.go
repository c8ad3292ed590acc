package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeIngestionRun  TaskType = "ingestion_run"
	TaskTypeGenerateTopic TaskType = "generate_topic"
)

const (
	DefaultMaxRetries = 3
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetName() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	Name       string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetName() string {
	return t.Name
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, name string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:         uniqueID,
		Type:       taskType,
		Name:       name,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}

// RunIngestionTask executes one full ingestion run. A run that overlaps an
// in-flight one is skipped by the orchestrator, so retries are disabled.
type RunIngestionTask struct {
	Task
	orchestrator *Orchestrator
}

func NewRunIngestionTask(orchestrator *Orchestrator) *RunIngestionTask {
	task := NewTask(TaskTypeIngestionRun, RunKey)
	task.MaxRetries = 0

	return &RunIngestionTask{
		Task:         task,
		orchestrator: orchestrator,
	}
}

func (t *RunIngestionTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.orchestrator.Run(ctx); err != nil {
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", "IngestionRun",
		"duration", t.GetDuration())

	return nil
}

// GenerateTopicTask generates a single article from a manually submitted topic.
type GenerateTopicTask struct {
	Task
	orchestrator *Orchestrator
	request      GenerateRequest
}

func NewGenerateTopicTask(orchestrator *Orchestrator, request GenerateRequest) *GenerateTopicTask {
	return &GenerateTopicTask{
		Task:         NewTask(TaskTypeGenerateTopic, request.Topic),
		orchestrator: orchestrator,
		request:      request,
	}
}

func (t *GenerateTopicTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	article, err := t.orchestrator.GenerateFromTopic(ctx, t.request)
	if err != nil {
		return fmt.Errorf("topic generation failed: %w", err)
	}

	slog.Info("Task completed",
		"type", "GenerateTopic",
		"topic", t.request.Topic,
		"article_id", article.ID,
		"duration", t.GetDuration())

	return nil
}
