package store

import (
	"context"
	"sync"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

// TaskStore defines the interface for task persistence. Implementations must
// provide read-your-writes consistency for the process issuing the calls; a
// missing task is reported as (nil, nil), not an error.
type TaskStore interface {
	Create(ctx context.Context, task *models.TaskState) error
	GetByID(ctx context.Context, id string) (*models.TaskState, error)
	GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.TaskState, error)
	Update(ctx context.Context, task *models.TaskState) error
}

// MemoryTaskStore is the in-process TaskStore implementation. It satisfies
// the same interface as the Mongo-backed store and is what the tests run
// against.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.TaskState
	order []string
}

// NewMemoryTaskStore creates an empty in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*models.TaskState)}
}

// Create stores a new task keyed by its ID.
func (s *MemoryTaskStore) Create(ctx context.Context, task *models.TaskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Snapshot()
	s.order = append(s.order, task.ID)
	return nil
}

// GetByID returns the task with the given ID, or (nil, nil) when absent.
func (s *MemoryTaskStore) GetByID(ctx context.Context, id string) (*models.TaskState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return task.Snapshot(), nil
}

// GetByUserID returns the user's tasks newest-first with simple pagination.
func (s *MemoryTaskStore) GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.TaskState, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.TaskState
	for i := len(s.order) - 1; i >= 0; i-- {
		if task := s.tasks[s.order[i]]; task != nil && task.UserID == userID {
			matched = append(matched, task)
		}
	}

	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]*models.TaskState, 0, end-start)
	for _, task := range matched[start:end] {
		result = append(result, task.Snapshot())
	}
	return result, nil
}

// Update replaces the stored task state.
func (s *MemoryTaskStore) Update(ctx context.Context, task *models.TaskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return nil
	}
	s.tasks[task.ID] = task.Snapshot()
	return nil
}
