package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisc "github.com/daily-reflections/core/internal/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Finished reports whether the task reached a terminal state.
func (s TaskStatus) Finished() bool {
	return s == TaskCompleted || s == TaskFailed
}

// ErrNotFound is returned for unknown or expired task ids.
var ErrNotFound = errors.New("task not found")

// Task is a record of one background run. The ledger only observes work; it
// never schedules or retries it.
type Task struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Status    TaskStatus      `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	GroupKey  string          `json:"groupKey,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

const (
	keyPrefix   = "reflections:task:"
	keyIndex    = "reflections:tasks:index"  // sorted set: score=created_at, member=task_id
	keyGroupSet = "reflections:tasks:group:" // sorted set per group key
	taskTTL     = 7 * 24 * time.Hour
)

// Service manages the Redis-backed task ledger.
type Service struct {
	rc  *redisc.Client
	now func() time.Time
}

func NewService(rc *redisc.Client) *Service {
	return &Service{rc: rc, now: time.Now}
}

func (s *Service) taskKey(id string) string { return keyPrefix + id }

// Enqueue records a new pending task.
func (s *Service) Enqueue(ctx context.Context, taskType string, payload interface{}, groupKey string) (*Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &Task{
		ID:        uuid.New().String(),
		Type:      taskType,
		Payload:   payloadBytes,
		Status:    TaskPending,
		GroupKey:  groupKey,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}

	z := redis.Z{Score: float64(now.UnixMilli()), Member: task.ID}
	pipe := s.rc.Raw().TxPipeline()
	pipe.Set(ctx, s.taskKey(task.ID), data, taskTTL)
	pipe.ZAdd(ctx, keyIndex, z)
	if groupKey != "" {
		pipe.ZAdd(ctx, keyGroupSet+groupKey, z)
		pipe.Expire(ctx, keyGroupSet+groupKey, taskTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return task, nil
}

// GetByID retrieves a task by its ID.
func (s *Service) GetByID(ctx context.Context, id string) (*Task, error) {
	data, err := s.rc.Raw().Get(ctx, s.taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus sets a task's status and optional result/error.
func (s *Service) UpdateStatus(ctx context.Context, id string, status TaskStatus, result interface{}, errMsg string) error {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	task.Status = status
	task.UpdatedAt = s.now()
	task.Error = errMsg
	if result != nil {
		if task.Result, err = json.Marshal(result); err != nil {
			return err
		}
	}

	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return s.rc.Raw().Set(ctx, s.taskKey(id), data, taskTTL).Err()
}

// LatestByGroup returns the most recently created task for groupKey.
func (s *Service) LatestByGroup(ctx context.Context, groupKey string) (*Task, error) {
	ids, err := s.rc.Raw().ZRevRange(ctx, keyGroupSet+groupKey, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, ids[0])
}

// List returns up to limit tasks, newest first, optionally filtered by type.
func (s *Service) List(ctx context.Context, limit int, taskType string) ([]*Task, error) {
	ids, err := s.rc.Raw().ZRevRange(ctx, keyIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, limit)
	for _, id := range ids {
		if limit > 0 && len(tasks) >= limit {
			break
		}
		task, err := s.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if taskType != "" && task.Type != taskType {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// DeleteFinished removes completed and failed tasks created before the cutoff
// together with index entries whose task record already expired. It returns
// the number of index members removed.
func (s *Service) DeleteFinished(ctx context.Context, before time.Time) (int, error) {
	ids, err := s.rc.Raw().ZRangeByScore(ctx, keyIndex, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", before.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	pipe := s.rc.Raw().TxPipeline()
	for _, id := range ids {
		task, err := s.GetByID(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			continue
		case !task.Status.Finished():
			continue
		default:
			pipe.Del(ctx, s.taskKey(id))
			if task.GroupKey != "" {
				pipe.ZRem(ctx, keyGroupSet+task.GroupKey, id)
			}
		}
		pipe.ZRem(ctx, keyIndex, id)
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return removed, nil
}
