package tasksync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"todosync/internal/service"
)

// Add prepends a new open task and returns its id, or "" when the title is
// blank or the engine is closed.
func (e *Engine) Add(title string) string {
	return e.AddTask(service.Task{Title: title})
}

// AddTask is Add with extension fields taken from draft. The draft's id and
// completion state are ignored.
func (e *Engine) AddTask(draft service.Task) string {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return ""
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ""
	}

	task := draft.Clone()
	task.ID = e.store.NewID()
	task.Title = title
	task.Completed = false
	e.tasks = append([]service.Task{task}, e.tasks...)
	e.emitLocked(Event{Op: OpAdd, Phase: PhaseApplied, TaskID: task.ID})

	placeholder := task.Clone()
	e.commitLocked(job{
		op:     OpAdd,
		taskID: task.ID,
		run: func(ctx context.Context) (service.Task, error) {
			return e.remote.Create(ctx, placeholder)
		},
		success: func(result service.Task) {
			e.adoptLocked(placeholder, result)
		},
		rollback: func() {
			e.dead[placeholder.ID] = struct{}{}
			if i := e.indexLocked(e.resolveLocked(placeholder.ID)); i >= 0 {
				e.removeLocked(i)
			}
		},
	})
	return task.ID
}

// adoptLocked replaces a placeholder with the server's representation.
// Changes made locally since the add are kept; their own commits are still
// queued. Caller holds mu.
func (e *Engine) adoptLocked(placeholder, server service.Task) {
	if server.ID == "" {
		return
	}
	e.aliases[placeholder.ID] = server.ID

	i := e.indexLocked(placeholder.ID)
	if i < 0 {
		return
	}
	if j := e.indexLocked(server.ID); j >= 0 {
		e.removeLocked(i)
		return
	}

	local := e.tasks[i]
	merged := server.Clone()
	merged.Title = strings.TrimSpace(merged.Title)
	if merged.Title == "" || local.Title != placeholder.Title {
		merged.Title = local.Title
	}
	if local.Completed != placeholder.Completed {
		merged.Completed = local.Completed
	}
	for k, v := range local.Extra {
		if !bytes.Equal(placeholder.Extra[k], v) {
			if merged.Extra == nil {
				merged.Extra = make(map[string]json.RawMessage)
			}
			merged.Extra[k] = v
		}
	}
	for k := range placeholder.Extra {
		if _, ok := local.Extra[k]; !ok {
			delete(merged.Extra, k)
		}
	}
	e.tasks[i] = merged
}

// Toggle flips the completion state of a task. It reports false when the id
// is unknown.
func (e *Engine) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	i := e.indexLocked(e.resolveLocked(id))
	if i < 0 {
		return false
	}
	next := !e.tasks[i].Completed
	return e.patchLocked(OpToggle, i, service.Patch{Completed: &next})
}

// Update merges patch into a task. A title that trims to empty is ignored.
// It reports false when the id is unknown or nothing is left to change.
func (e *Engine) Update(id string, patch service.Patch) bool {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			patch.Title = nil
		} else {
			patch.Title = &title
		}
	}
	if patch.IsEmpty() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	i := e.indexLocked(e.resolveLocked(id))
	if i < 0 {
		return false
	}
	return e.patchLocked(OpUpdate, i, patch)
}

func (e *Engine) patchLocked(op Op, i int, patch service.Patch) bool {
	prev := e.tasks[i].Clone()
	e.tasks[i] = patch.Apply(prev)
	e.emitLocked(Event{Op: op, Phase: PhaseApplied, TaskID: prev.ID})

	id := prev.ID
	e.commitLocked(job{
		op:     op,
		taskID: id,
		run: func(ctx context.Context) (service.Task, error) {
			return e.remote.Update(ctx, e.currentID(id), patch)
		},
		rollback: func() {
			if i := e.indexLocked(e.resolveLocked(id)); i >= 0 {
				e.tasks[i] = restoreFields(e.tasks[i], prev, patch)
			}
		},
	})
	return true
}

// restoreFields puts back the fields of prev that patch touched.
func restoreFields(cur, prev service.Task, patch service.Patch) service.Task {
	cur = cur.Clone()
	if patch.Title != nil {
		cur.Title = prev.Title
	}
	if patch.Completed != nil {
		cur.Completed = prev.Completed
	}
	if len(patch.Extra) > 0 && cur.Extra == nil {
		cur.Extra = make(map[string]json.RawMessage)
	}
	for k := range patch.Extra {
		if v, ok := prev.Extra[k]; ok {
			cur.Extra[k] = v
		} else {
			delete(cur.Extra, k)
		}
	}
	return cur
}

// Delete removes a task. Deleting an unknown id is a no-op and reports false.
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	i := e.indexLocked(e.resolveLocked(id))
	if i < 0 {
		return false
	}
	removed := e.tasks[i].Clone()
	e.removeLocked(i)
	e.emitLocked(Event{Op: OpDelete, Phase: PhaseApplied, TaskID: removed.ID})

	e.commitLocked(job{
		op:     OpDelete,
		taskID: removed.ID,
		run: func(ctx context.Context) (service.Task, error) {
			return service.Task{}, e.remote.Delete(ctx, e.currentID(removed.ID))
		},
		rollback: func() {
			restored := removed.Clone()
			restored.ID = e.resolveLocked(removed.ID)
			if e.indexLocked(restored.ID) >= 0 {
				return
			}
			e.insertLocked(min(i, len(e.tasks)), restored)
		},
	})
	return true
}

// ClearCompleted removes every completed task and returns how many were
// removed. The removal is never undone: in remote mode the deletes are sent
// concurrently and individual failures are only reported.
func (e *Engine) ClearCompleted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}

	var ids []string
	kept := make([]service.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if t.Completed {
			ids = append(ids, t.ID)
		} else {
			kept = append(kept, t)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	e.tasks = kept
	e.emitLocked(Event{Op: OpClearCompleted, Phase: PhaseApplied})

	e.commitLocked(job{
		op: OpClearCompleted,
		run: func(ctx context.Context) (service.Task, error) {
			return service.Task{}, e.deleteAll(ctx, ids)
		},
	})
	return len(ids)
}

// deleteAll deletes ids on the remote with bounded concurrency and returns
// the joined failures.
func (e *Engine) deleteAll(ctx context.Context, ids []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(e.clearLimit)
	for _, id := range e.liveIDs(ids) {
		g.Go(func() error {
			if err := e.remote.Delete(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// liveIDs resolves ids through the alias table and drops placeholders the
// remote never created.
func (e *Engine) liveIDs(ids []string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		if !e.deadLocked(id) {
			live = append(live, e.resolveLocked(id))
		}
	}
	return live
}

// currentID resolves id through the alias table.
func (e *Engine) currentID(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveLocked(id)
}

func (e *Engine) removeLocked(i int) {
	e.tasks = append(e.tasks[:i:i], e.tasks[i+1:]...)
}

func (e *Engine) insertLocked(i int, t service.Task) {
	tasks := make([]service.Task, 0, len(e.tasks)+1)
	tasks = append(tasks, e.tasks[:i]...)
	tasks = append(tasks, t)
	tasks = append(tasks, e.tasks[i:]...)
	e.tasks = tasks
}
