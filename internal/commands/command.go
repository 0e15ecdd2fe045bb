// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"sync"

	"todosync/internal/config"
	"todosync/internal/tasksync"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsEngine returns true if the command works on the task list.
	// Commands like help, version, config, login, logout return false.
	NeedsEngine() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided.
	// s is nil if NeedsEngine() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int
}

// Session is a started engine plus what commands need around it.
type Session struct {
	Engine *tasksync.Engine
	Logger *slog.Logger

	// LoadErr is the error reported by the initial load, if any.
	LoadErr error

	// Watch reports changes to local storage made by other processes.
	// Nil when the storage cannot be watched.
	Watch func(onChange func()) (stop func(), err error)

	closers []func()
}

// OnClose registers fn to run when the session is closed. Functions run in
// reverse order of registration.
func (s *Session) OnClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// Close stops the engine and releases storage.
func (s *Session) Close() {
	if s.Engine != nil {
		s.Engine.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// StartSession creates and starts an engine and waits for the initial load.
func StartSession(ctx context.Context, opts tasksync.Options) (*Session, error) {
	eng, err := tasksync.New(opts)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		loadErr error
	)
	unsubscribe := eng.Subscribe(func(ev tasksync.Event) {
		if ev.Phase == tasksync.PhaseLoaded {
			mu.Lock()
			loadErr = ev.Err
			mu.Unlock()
		}
	})
	if err := eng.Start(ctx); err != nil {
		unsubscribe()
		eng.Close()
		return nil, err
	}
	eng.Wait()
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	return &Session{Engine: eng, Logger: opts.Logger, LoadErr: loadErr}, nil
}
