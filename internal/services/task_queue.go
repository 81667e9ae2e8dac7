package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ecopanier/backend/internal/config"
	"github.com/ecopanier/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeSettingsChanged = "settings:changed"
)

// SettingsChangedTask carries a settings change event to the notification
// worker.
type SettingsChangedTask struct {
	Actor     string          `json:"actor"`
	ActorID   *uint           `json:"actor_id,omitempty"`
	Changes   []SettingChange `json:"changes"`
	ChangedAt string          `json:"changed_at"`
}

// TaskQueue defines the interface for background notification processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *SettingsChangedTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue builds a queue from config, preferring Redis when enabled
// and reachable.
func NewTaskQueue(cfg *config.Config) TaskQueue {
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

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a settings change task to the async queue
func (q *AsyncQueue) Enqueue(task *SettingsChangedTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeSettingsChanged, payload)
	info, err := q.client.Enqueue(t,
		asynq.TaskID(uuid.New().String()),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process handling (no Redis)
type SyncQueue struct {
	mu        sync.Mutex
	wg        sync.WaitGroup
	processor func(context.Context, *SettingsChangedTask) error
}

// NewSyncQueue creates a new synchronous queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function to process tasks in-process
func (q *SyncQueue) SetProcessor(processor func(context.Context, *SettingsChangedTask) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processor = processor
}

// Enqueue hands the task to the processor without going through Redis
func (q *SyncQueue) Enqueue(task *SettingsChangedTask) error {
	q.mu.Lock()
	processor := q.processor
	q.mu.Unlock()

	if processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, task will be dropped")
		return nil
	}

	// Process in a goroutine to not block the request
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx := context.Background()
		if err := processor(ctx, task); err != nil {
			logger.Infof("[SyncQueue] Task processing failed: %v", err)
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks before returning, so a shutdown does not
// drop a notification that was just enqueued.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
