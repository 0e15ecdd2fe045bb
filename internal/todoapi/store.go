// Package todoapi serves the /todos collection consumed by the REST backend.
package todoapi

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"todosync/internal/service"
)

// ErrNotFound is returned for an unknown task id.
var ErrNotFound = errors.New("todo not found")

// Store holds the server side collection. Lists are newest first.
type Store interface {
	List(ctx context.Context) ([]service.Task, error)
	Create(ctx context.Context, task service.Task) (service.Task, error)
	Update(ctx context.Context, id string, patch service.Patch) (service.Task, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	tasks []service.Task
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) List(ctx context.Context) ([]service.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return service.CloneAll(m.tasks), nil
}

// Create assigns a fresh id and prepends the task.
func (m *MemoryStore) Create(ctx context.Context, task service.Task) (service.Task, error) {
	task = task.Clone()
	task.ID = uuid.NewString()
	task.Title = strings.TrimSpace(task.Title)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append([]service.Task{task}, m.tasks...)
	return task.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks[i] = patch.Apply(t)
			return m.tasks[i].Clone(), nil
		}
	}
	return service.Task{}, ErrNotFound
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
