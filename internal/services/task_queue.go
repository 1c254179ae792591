package services

import (
	"context"
	"encoding/json"

	"github.com/docflow-io/docflow/backend/internal/config"
	"github.com/docflow-io/docflow/backend/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeIngest = "document:ingest"
)

// IngestTask is the hand-off payload to the document-processing pipeline.
type IngestTask struct {
	DocumentID string `json:"document_id"`
}

// TaskQueue dispatches ingest jobs to the processing side.
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *IngestTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// InitTaskQueue builds the task queue for the configured backend, falling
// back to in-process handling when Redis is unreachable.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncQueue(&cfg.Redis)
		if err != nil {
			logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
			return NewSyncQueue()
		}
		logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
		return queue
	}

	logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
	return NewSyncQueue()
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue.
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Test connection by pinging Redis
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds an ingest task to the async queue.
func (q *AsyncQueue) Enqueue(task *IngestTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeIngest, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process handling (no Redis).
type SyncQueue struct {
	processor func(context.Context, *IngestTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function invoked for tasks when running without
// Redis.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *IngestTask) error) {
	q.processor = processor
}

// Enqueue hands the task to the processor in a goroutine so the upload
// response is not blocked.
func (q *SyncQueue) Enqueue(task *IngestTask) error {
	if q.processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, task will be dropped")
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, task); err != nil {
			logger.Infof("[SyncQueue] Task processing failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
