package commands

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
	"todosync/internal/tasksync"
	"todosync/internal/theme"
)

// checkLoad reports a failed initial load. A rejected list leaves the engine
// empty, so commands that need the list stop with a backend error.
func checkLoad(s *Session, errOut io.Writer) (int, bool) {
	if s.LoadErr == nil || service.IsTransient(s.LoadErr) {
		return exitcode.Success, true
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", s.LoadErr)
	return exitcode.BackendError, false
}

// apply runs fn against the engine and waits until its changes are committed.
// Rolled back changes make it return BackendError. A switch to local storage
// is printed as a warning.
func apply(s *Session, errOut io.Writer, fn func(eng *tasksync.Engine)) int {
	var (
		mu       sync.Mutex
		failures []error
		partial  []error
		demoted  error
	)
	unsubscribe := s.Engine.Subscribe(func(ev tasksync.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case ev.Phase == tasksync.PhaseRolledBack:
			failures = append(failures, ev.Err)
		case ev.Phase == tasksync.PhaseDemoted:
			demoted = ev.Err
		case ev.Phase == tasksync.PhaseCommitted && ev.Err != nil:
			partial = append(partial, ev.Err)
		}
	})
	defer unsubscribe()

	fn(s.Engine)
	s.Engine.Wait()

	mu.Lock()
	defer mu.Unlock()
	if demoted != nil {
		fmt.Fprintf(errOut, "warning: remote unavailable, switched to local storage: %v\n", demoted)
	}
	for _, err := range partial {
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}
	if len(failures) > 0 {
		fmt.Fprintf(errOut, "error: backend error: %v\n", errors.Join(failures...))
		return exitcode.BackendError
	}
	return exitcode.Success
}

// newTheme builds the output theme for w from the configured preference.
func newTheme(cfg *config.Config, w io.Writer) *theme.Theme {
	r := lipgloss.NewRenderer(w)
	pref := cfg.Theme
	if pref == "" {
		pref = theme.PrefAuto
	}
	return theme.New(theme.Detect(pref, termenv.NewOutput(w)), r)
}
