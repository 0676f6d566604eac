package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

func newTask(id, userID string) *models.TaskState {
	return &models.TaskState{
		ID:     id,
		UserID: userID,
		Status: models.TaskStatusPending,
		Inputs: map[string]interface{}{"q": "test"},
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryTaskStore()
	ctx := context.Background()

	if err := s.Create(ctx, newTask("t1", "u1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	task, err := s.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if task == nil || task.ID != "t1" {
		t.Fatalf("GetByID() = %+v", task)
	}
}

func TestMemoryStoreMissingTaskIsNilNil(t *testing.T) {
	s := NewMemoryTaskStore()

	task, err := s.GetByID(context.Background(), "absent")
	if err != nil {
		t.Fatalf("a missing task is not an error, got %v", err)
	}
	if task != nil {
		t.Fatalf("expected nil task, got %+v", task)
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryTaskStore()
	ctx := context.Background()

	task := newTask("t1", "u1")
	if err := s.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	task.Status = models.TaskStatusCompleted
	task.Outputs = map[string]interface{}{"answer": 42}
	if err := s.Update(ctx, task); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := s.GetByID(ctx, "t1")
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Outputs["answer"] != 42 {
		t.Errorf("outputs not persisted: %+v", got.Outputs)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryTaskStore()
	ctx := context.Background()

	if err := s.Create(ctx, newTask("t1", "u1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first, _ := s.GetByID(ctx, "t1")
	first.Status = models.TaskStatusFailed

	second, _ := s.GetByID(ctx, "t1")
	if second.Status != models.TaskStatusPending {
		t.Errorf("mutating a returned task leaked into the store: %s", second.Status)
	}
}

func TestMemoryStoreGetByUserID(t *testing.T) {
	s := NewMemoryTaskStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Create(ctx, newTask(fmt.Sprintf("a%d", i), "alice")); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Create(ctx, newTask("b0", "bob")); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.GetByUserID(ctx, "alice", 1, 3)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected page of 3, got %d", len(tasks))
	}
	// Newest-first.
	if tasks[0].ID != "a4" {
		t.Errorf("expected newest task first, got %s", tasks[0].ID)
	}
	for _, task := range tasks {
		if task.UserID != "alice" {
			t.Errorf("foreign task in alice's page: %s", task.ID)
		}
	}

	second, _ := s.GetByUserID(ctx, "alice", 2, 3)
	if len(second) != 2 {
		t.Errorf("expected remainder page of 2, got %d", len(second))
	}

	empty, _ := s.GetByUserID(ctx, "alice", 3, 3)
	if len(empty) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(empty))
	}
}
