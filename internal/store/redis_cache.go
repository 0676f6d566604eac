package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

const cacheKeyPrefix = "task:"

// CachedTaskStore decorates a TaskStore with a Redis read-through cache.
// Writes go through to the inner store first, then refresh the cache, so the
// cache never holds a task the durable store does not. Cache failures degrade
// to the inner store; they are logged, never surfaced.
type CachedTaskStore struct {
	inner  TaskStore
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedTaskStore wraps inner with a Redis cache using the given TTL.
func NewCachedTaskStore(inner TaskStore, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedTaskStore {
	return &CachedTaskStore{inner: inner, client: client, ttl: ttl, logger: log}
}

// Create writes through to the inner store and primes the cache.
func (s *CachedTaskStore) Create(ctx context.Context, task *models.TaskState) error {
	if err := s.inner.Create(ctx, task); err != nil {
		return err
	}
	s.cache(ctx, task)
	return nil
}

// GetByID checks the cache before falling back to the inner store.
func (s *CachedTaskStore) GetByID(ctx context.Context, id string) (*models.TaskState, error) {
	data, err := s.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err == nil {
		var task models.TaskState
		if err := json.Unmarshal(data, &task); err == nil {
			return &task, nil
		}
		// A corrupt cache entry falls through to the durable store.
		s.client.Del(ctx, cacheKeyPrefix+id)
	} else if err != redis.Nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"taskID": id}).Warn("Task cache read failed")
	}

	task, err := s.inner.GetByID(ctx, id)
	if err != nil || task == nil {
		return task, err
	}
	s.cache(ctx, task)
	return task, nil
}

// GetByUserID is not cached; listings always hit the durable store.
func (s *CachedTaskStore) GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.TaskState, error) {
	return s.inner.GetByUserID(ctx, userID, page, limit)
}

// Update writes through to the inner store and refreshes the cache.
func (s *CachedTaskStore) Update(ctx context.Context, task *models.TaskState) error {
	if err := s.inner.Update(ctx, task); err != nil {
		return err
	}
	s.cache(ctx, task)
	return nil
}

func (s *CachedTaskStore) cache(ctx context.Context, task *models.TaskState) {
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKeyPrefix+task.ID, data, s.ttl).Err(); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"taskID": task.ID}).Warn("Task cache write failed")
	}
}
