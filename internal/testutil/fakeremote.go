// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"todosync/internal/service"
)

// Call records one request made to a FakeRemote.
type Call struct {
	Op    string // list, create, update, delete
	ID    string
	Task  service.Task
	Patch service.Patch
}

// FakeRemote is an in-memory implementation of service.Remote for testing.
type FakeRemote struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  []Call

	// Error injection for testing
	ListErr    error
	CreateErr  error
	UpdateErr  error
	DeleteErr  error
	DeleteErrs map[string]error // id -> error, checked before DeleteErr

	// CreateEmpty makes Create succeed without a server representation.
	CreateEmpty bool

	// Gate, when non-nil, holds every call until a value is received or
	// the call's context ends.
	Gate chan struct{}
}

// NewFakeRemote creates a FakeRemote holding tasks.
func NewFakeRemote(tasks ...service.Task) *FakeRemote {
	return &FakeRemote{
		tasks:      service.CloneAll(tasks),
		DeleteErrs: make(map[string]error),
	}
}

// Transient returns an error classified as transient.
func Transient(op string) error {
	return service.HTTPFailure(op, 503, "service unavailable")
}

// Rejected returns an error classified as rejected.
func Rejected(op string) error {
	return service.HTTPFailure(op, 422, "unprocessable")
}

// Tasks returns a copy of the server-side list.
func (f *FakeRemote) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return service.CloneAll(f.tasks)
}

// Calls returns the recorded calls in order.
func (f *FakeRemote) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]Call, len(f.calls))
	copy(result, f.calls)
	return result
}

// CallOps returns the recorded operations as "op" or "op:id".
func (f *FakeRemote) CallOps() []string {
	var ops []string
	for _, c := range f.Calls() {
		if c.ID != "" {
			ops = append(ops, c.Op+":"+c.ID)
		} else {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

func (f *FakeRemote) wait(ctx context.Context) error {
	if f.Gate == nil {
		return nil
	}
	select {
	case <-f.Gate:
		return nil
	case <-ctx.Done():
		return service.Transient("fake", ctx.Err())
	}
}

func (f *FakeRemote) record(c Call) {
	f.calls = append(f.calls, c)
}

func (f *FakeRemote) index(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// List implements service.Remote.
func (f *FakeRemote) List(ctx context.Context) ([]service.Task, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "list"})
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return service.CloneAll(f.tasks), nil
}

// Create implements service.Remote. Ids are assigned as srv-1, srv-2, ...
func (f *FakeRemote) Create(ctx context.Context, task service.Task) (service.Task, error) {
	if err := f.wait(ctx); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "create", Task: task.Clone()})
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.nextID++
	created := task.Clone()
	created.ID = fmt.Sprintf("srv-%d", f.nextID)
	f.tasks = append([]service.Task{created}, f.tasks...)
	if f.CreateEmpty {
		return service.Task{}, nil
	}
	return created.Clone(), nil
}

// Update implements service.Remote.
func (f *FakeRemote) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	if strings.TrimSpace(id) == "" {
		return service.Task{}, service.Usage("update", "id required")
	}
	if err := f.wait(ctx); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "update", ID: id, Patch: patch})
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	i := f.index(id)
	if i < 0 {
		return service.Task{}, service.HTTPFailure("update", 404, "not found")
	}
	f.tasks[i] = patch.Apply(f.tasks[i])
	return f.tasks[i].Clone(), nil
}

// Delete implements service.Remote.
func (f *FakeRemote) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return service.Usage("delete", "id required")
	}
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "delete", ID: id})
	if err := f.DeleteErrs[id]; err != nil {
		return err
	}
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	i := f.index(id)
	if i < 0 {
		return service.HTTPFailure("delete", 404, "not found")
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}
