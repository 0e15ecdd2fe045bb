package tasksync

import (
	"context"

	"todosync/internal/service"
)

// job is one queued remote commit.
type job struct {
	op     Op
	taskID string

	// run performs the remote call.
	run func(ctx context.Context) (service.Task, error)

	// success reconciles the server result. Called with mu held. May be nil.
	success func(result service.Task)

	// rollback undoes the optimistic change. Called with mu held.
	// Nil means the change is never undone; failures are only reported.
	rollback func()
}

// commitLocked persists an optimistic change: at once in local mode, through
// the worker queue in remote mode. Caller holds mu.
func (e *Engine) commitLocked(j job) {
	if e.mode == ModeLocal {
		e.persistLocked()
		e.emitLocked(Event{Op: j.op, Phase: PhaseCommitted, TaskID: j.taskID})
		return
	}
	e.jobs = append(e.jobs, j)
	e.cond.Broadcast()
}

// runJobs executes queued jobs one at a time, in the order they were queued.
func (e *Engine) runJobs() {
	defer e.wg.Done()

	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		for len(e.jobs) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			return
		}
		j := e.jobs[0]
		e.jobs = e.jobs[1:]

		if e.mode == ModeLocal {
			// Demoted while this job waited.
			e.persistLocked()
			e.emitLocked(Event{Op: j.op, Phase: PhaseCommitted, TaskID: j.taskID})
			continue
		}
		if j.op != OpAdd && j.taskID != "" && e.deadLocked(j.taskID) {
			// The task never reached the remote; nothing to send or undo.
			e.logger.Debug("commit skipped for uncreated task", "op", string(j.op), "task", j.taskID)
			e.emitLocked(Event{Op: j.op, Phase: PhaseCommitted, TaskID: j.taskID})
			continue
		}

		e.running = true
		e.mu.Unlock()
		result, err := j.run(e.ctx)
		e.mu.Lock()
		e.running = false
		e.cond.Broadcast()

		if e.closed {
			return
		}
		e.finishLocked(j, result, err)
	}
}

// finishLocked applies the outcome of a remote call. Caller holds mu.
func (e *Engine) finishLocked(j job, result service.Task, err error) {
	if err == nil {
		if j.success != nil {
			j.success(result)
		}
		e.logger.Debug("commit succeeded", "op", string(j.op), "task", j.taskID)
		e.emitLocked(Event{Op: j.op, Phase: PhaseCommitted, TaskID: j.taskID})
		return
	}

	if j.rollback != nil {
		j.rollback()
		e.logger.Warn("commit failed, change rolled back", "op", string(j.op), "task", j.taskID, "error", err)
		e.emitLocked(Event{Op: j.op, Phase: PhaseRolledBack, TaskID: j.taskID, Err: err})
	} else {
		e.logger.Warn("commit partially failed", "op", string(j.op), "error", err)
		e.emitLocked(Event{Op: j.op, Phase: PhaseCommitted, TaskID: j.taskID, Err: err})
	}

	if service.IsTransient(err) && e.mode == ModeRemote {
		e.mode = ModeLocal
		e.logger.Warn("remote unavailable, switching to local storage", "error", err)
		e.persistLocked()
		e.emitLocked(Event{Op: j.op, Phase: PhaseDemoted, TaskID: j.taskID, Err: err})
	}
}
