package testutil

import (
	"fmt"
	"sync"

	"todosync/internal/service"
)

// MemoryStorage is an in-memory implementation of storage.Storage.
type MemoryStorage struct {
	mu     sync.Mutex
	tasks  []service.Task
	saves  int
	nextID int
}

// NewMemoryStorage creates a MemoryStorage holding tasks.
func NewMemoryStorage(tasks ...service.Task) *MemoryStorage {
	return &MemoryStorage{tasks: service.CloneAll(tasks)}
}

// Load implements storage.Storage.
func (m *MemoryStorage) Load() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return service.CloneAll(m.tasks)
}

// Save implements storage.Storage.
func (m *MemoryStorage) Save(tasks []service.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = service.CloneAll(tasks)
	m.saves++
}

// NewID implements storage.Storage. Ids are local-1, local-2, ...
func (m *MemoryStorage) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("local-%d", m.nextID)
}

// Saves returns the number of Save calls.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
