package service

import "context"

// Remote defines the interface for a remote task collection.
// Implementations are stateless request executors: they never hold on to
// the task list. Every error they return is a *Error, so callers can tell
// transient failures from rejections with errors.Is.
type Remote interface {
	// List returns every task in the collection.
	List(ctx context.Context) ([]Task, error)

	// Create stores a new task and returns the server's representation.
	// A zero Task with a nil error means the server sent no usable body.
	Create(ctx context.Context, task Task) (Task, error)

	// Update applies a partial update to the task with the given id.
	// Returns a usage error without network traffic if id is empty.
	Update(ctx context.Context, id string, patch Patch) (Task, error)

	// Delete removes the task with the given id.
	// Returns a usage error without network traffic if id is empty.
	Delete(ctx context.Context, id string) error
}
