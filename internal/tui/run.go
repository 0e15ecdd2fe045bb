package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"todosync/internal/tasksync"
)

// RunOptions adds the program's terminal and storage watcher to Options.
type RunOptions struct {
	Options

	// Watch reports changes to local storage made by other processes.
	// May be nil.
	Watch func(onChange func()) (stop func(), err error)

	Input  io.Reader
	Output io.Writer
}

// Run shows the task list until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	m := NewModel(ctx, opts.Options)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(m, programOpts...)
	m.send = p.Send

	unsubscribe := m.eng.Subscribe(func(ev tasksync.Event) {
		p.Send(engineMsg(ev))
	})
	defer unsubscribe()

	if opts.Watch != nil {
		stop, err := opts.Watch(func() { p.Send(watchMsg{}) })
		if err != nil {
			m.logger.Warn("storage watch unavailable", "error", err)
		} else {
			defer stop()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
