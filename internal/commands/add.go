package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"todosync/internal/config"
	"todosync/internal/duedate"
	"todosync/internal/exitcode"
	"todosync/internal/features"
	"todosync/internal/service"
	"todosync/internal/tasksync"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	due string
	now func() time.Time
}

// SetDue sets the due date text (for testing).
func (c *AddCmd) SetDue(due string) { c.due = due }

// SetNow sets the clock used to resolve relative due dates (for testing).
func (c *AddCmd) SetNow(now func() time.Time) { c.now = now }

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "todosync add [--due <date>] <title...>" }
func (c *AddCmd) NeedsEngine() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	draft := service.Task{Title: title}
	if c.due != "" {
		if !cfg.Features().Enabled(features.DueDate) {
			fmt.Fprintf(errOut, "error: due dates are disabled (add %q to flags)\n", features.DueDate)
			return exitcode.UserError
		}
		date, err := duedate.Parse(c.due, c.clock())
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.Extra = duedate.Extra(date)
	}
	if code, ok := checkLoad(s, errOut); !ok {
		return code
	}

	code := apply(s, errOut, func(eng *tasksync.Engine) {
		eng.AddTask(draft)
	})
	if code == exitcode.Success && !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return code
}

func (c *AddCmd) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
