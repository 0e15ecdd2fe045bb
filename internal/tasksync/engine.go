// Package tasksync owns the canonical task list and keeps it in step with
// the active backend.
//
// Mutations apply to the in-memory list at once and are then committed: in
// local mode by saving to storage, in remote mode by a single worker that
// sends queued jobs to the remote in order. A failed remote commit undoes its
// own change. A transient failure also switches the engine to local mode for
// the rest of its life.
package tasksync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"todosync/internal/service"
	"todosync/internal/storage"
)

// Mode selects the backend that commits mutations.
type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// Op names the operation an event belongs to.
type Op string

const (
	OpLoad           Op = "load"
	OpAdd            Op = "add"
	OpToggle         Op = "toggle"
	OpUpdate         Op = "update"
	OpDelete         Op = "delete"
	OpClearCompleted Op = "clear-completed"
)

// Phase is the stage of an operation reported by an event.
type Phase int

const (
	// PhaseLoaded: the list was (re)loaded from the backend.
	PhaseLoaded Phase = iota
	// PhaseApplied: the optimistic change is visible.
	PhaseApplied
	// PhaseCommitted: the backend accepted the change.
	PhaseCommitted
	// PhaseRolledBack: the backend refused the change and it was undone.
	PhaseRolledBack
	// PhaseDemoted: the engine switched from remote to local mode.
	PhaseDemoted
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "loaded"
	case PhaseApplied:
		return "applied"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled-back"
	case PhaseDemoted:
		return "demoted"
	default:
		return "unknown"
	}
}

// Event describes a state change. Tasks is a snapshot taken when the event
// was emitted and may be modified by the receiver.
type Event struct {
	Op     Op
	Phase  Phase
	TaskID string
	Mode   Mode
	Tasks  []service.Task
	Err    error
}

// Options configures an Engine.
type Options struct {
	// Remote is the remote backend. Nil selects local mode.
	Remote service.Remote

	// Storage is the local backend. Required.
	Storage storage.Storage

	Logger *slog.Logger

	// ClearConcurrency bounds the deletes issued by ClearCompleted. Zero means 4.
	ClearConcurrency int
}

type subscriber struct {
	id int
	fn func(Event)
}

// Engine is the synchronization core. All methods are safe for concurrent use.
type Engine struct {
	remote     service.Remote
	store      storage.Storage
	logger     *slog.Logger
	clearLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	mode    Mode
	tasks   []service.Task
	aliases map[string]string   // placeholder id -> server id
	dead    map[string]struct{} // placeholders whose create was refused
	edits   uint64              // optimistic changes applied so far
	started bool
	closed  bool

	jobs       []job
	running    bool
	events     []Event
	delivering bool
	subs       []subscriber
	nextSub    int
}

// New creates an Engine. Call Start to load the list and begin committing.
func New(opts Options) (*Engine, error) {
	if opts.Storage == nil {
		return nil, errors.New("tasksync: storage is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := opts.ClearConcurrency
	if limit <= 0 {
		limit = 4
	}

	e := &Engine{
		remote:     opts.Remote,
		store:      opts.Storage,
		logger:     logger.With("component", "tasksync"),
		clearLimit: limit,
		tasks:      []service.Task{},
		aliases:    make(map[string]string),
		dead:       make(map[string]struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	if e.remote != nil {
		e.mode = ModeRemote
	}
	return e, nil
}

// Start loads the initial list and starts the background workers.
// A rejected remote list leaves the engine in remote mode with an empty list;
// a transient one demotes it to local mode. Neither is returned as an error:
// both are reported through the Loaded event.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("tasksync: already started")
	}
	if e.closed {
		e.mu.Unlock()
		return errors.New("tasksync: engine closed")
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
	e.mu.Unlock()

	e.wg.Add(2)
	go e.deliverEvents()
	e.load(ctx)
	go e.runJobs()
	return nil
}

// Reload replaces the list with a fresh copy from the current backend.
// Used when the storage file was changed by another process.
func (e *Engine) Reload(ctx context.Context) {
	e.load(ctx)
}

// load replaces the list from the current backend. In remote mode the list
// call runs without the lock; if a mutation is applied meanwhile, the
// result is stale and the current list is kept.
func (e *Engine) load(ctx context.Context) {
	e.mu.Lock()
	mode := e.mode
	edits := e.edits
	if mode == ModeLocal {
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.tasks = e.store.Load()
		e.logger.Debug("loaded tasks", "mode", mode.String(), "count", len(e.tasks))
		e.emitLocked(Event{Op: OpLoad, Phase: PhaseLoaded})
		return
	}
	e.mu.Unlock()

	var tasks []service.Task
	listed, err := e.remote.List(ctx)
	if err == nil {
		tasks = service.Normalize(listed, e.store.NewID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	stale := e.edits != edits

	switch {
	case err == nil:
		if stale {
			e.logger.Debug("list result predates local changes, keeping current list")
		} else {
			e.tasks = tasks
		}
		e.logger.Debug("loaded tasks", "mode", mode.String(), "count", len(e.tasks))
		e.emitLocked(Event{Op: OpLoad, Phase: PhaseLoaded})
	case service.IsTransient(err):
		e.logger.Warn("remote list failed, using local storage", "error", err)
		if e.mode == ModeRemote {
			e.mode = ModeLocal
			e.emitLocked(Event{Op: OpLoad, Phase: PhaseDemoted, Err: err})
		}
		if stale {
			e.persistLocked()
		} else {
			e.tasks = e.store.Load()
		}
		e.emitLocked(Event{Op: OpLoad, Phase: PhaseLoaded, Err: err})
	default:
		e.logger.Warn("remote list rejected", "error", err)
		if !stale {
			e.tasks = []service.Task{}
		}
		e.emitLocked(Event{Op: OpLoad, Phase: PhaseLoaded, Err: err})
	}
}

// Close stops the workers and cancels in-flight remote calls. Results that
// arrive afterwards are discarded and queued commits are dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	e.jobs = nil
	e.events = nil
	e.cond.Broadcast()
	e.mu.Unlock()

	e.wg.Wait()
}

// Wait blocks until every queued commit has finished and every event has
// been delivered, or the engine is closed.
func (e *Engine) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.started && !e.closed && (len(e.jobs) > 0 || e.running || len(e.events) > 0 || e.delivering) {
		e.cond.Wait()
	}
}

// Subscribe registers fn for every later event. Events are delivered in
// order on a single goroutine; fn must not block for long.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Tasks returns a copy of the canonical list.
func (e *Engine) Tasks() []service.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return service.CloneAll(e.tasks)
}

// Mode returns the active backend mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// emitLocked queues an event with a snapshot of the current state.
// Caller holds mu.
func (e *Engine) emitLocked(ev Event) {
	if e.closed {
		return
	}
	if ev.Phase == PhaseApplied {
		e.edits++
	}
	ev.Mode = e.mode
	ev.Tasks = service.CloneAll(e.tasks)
	e.events = append(e.events, ev)
	e.cond.Broadcast()
}

func (e *Engine) deliverEvents() {
	defer e.wg.Done()

	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		for len(e.events) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			return
		}
		ev := e.events[0]
		e.events = e.events[1:]
		subs := make([]subscriber, len(e.subs))
		copy(subs, e.subs)
		e.delivering = true
		e.mu.Unlock()

		for _, s := range subs {
			s.fn(ev)
		}

		e.mu.Lock()
		e.delivering = false
		e.cond.Broadcast()
	}
}

func (e *Engine) indexLocked(id string) int {
	for i, t := range e.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// resolveLocked follows placeholder aliases to the current id.
func (e *Engine) resolveLocked(id string) string {
	for range len(e.aliases) {
		next, ok := e.aliases[id]
		if !ok {
			break
		}
		id = next
	}
	return id
}

// deadLocked reports whether id is a placeholder the remote never created.
func (e *Engine) deadLocked(id string) bool {
	_, ok := e.dead[e.resolveLocked(id)]
	return ok
}

func (e *Engine) persistLocked() {
	e.store.Save(service.CloneAll(e.tasks))
}
