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
	Register(&EditCmd{})
}

// EditCmd changes a task's title or due date.
type EditCmd struct {
	due   string
	noDue bool
	now   func() time.Time
}

// SetDue sets the due date text (for testing).
func (c *EditCmd) SetDue(due string) { c.due = due }

// SetNoDue clears the due date (for testing).
func (c *EditCmd) SetNoDue(v bool) { c.noDue = v }

// SetNow sets the clock used to resolve relative due dates (for testing).
func (c *EditCmd) SetNow(now func() time.Time) { c.now = now }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"rename"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or due date" }
func (c *EditCmd) Usage() string {
	return "todosync edit [--due <date> | --no-due] <ref> [title...]"
}
func (c *EditCmd) NeedsEngine() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.due, "due", "", "")
	fs.BoolVar(&c.noDue, "no-due", false, "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(errOut, "error: %v\n", ErrTaskRefRequired)
		return exitcode.UserError
	}
	ref, err := ParseTaskRef(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	var patch service.Patch
	if len(args) > 1 {
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			fmt.Fprintln(errOut, "error: title must not be empty")
			return exitcode.UserError
		}
		patch.Title = &title
	}
	if c.due != "" || c.noDue {
		if !cfg.Features().Enabled(features.DueDate) {
			fmt.Fprintf(errOut, "error: due dates are disabled (add %q to flags)\n", features.DueDate)
			return exitcode.UserError
		}
		if c.due != "" && c.noDue {
			fmt.Fprintln(errOut, "error: --due and --no-due are mutually exclusive")
			return exitcode.UserError
		}
		date := ""
		if c.due != "" {
			now := time.Now()
			if c.now != nil {
				now = c.now()
			}
			if date, err = duedate.Parse(c.due, now); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
		}
		patch.Extra = duedate.Extra(date)
	}
	if patch.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to change (give a title, --due or --no-due)")
		return exitcode.UserError
	}

	if code, ok := checkLoad(s, errOut); !ok {
		return code
	}
	task, err := ref.Resolve(s.Engine.Tasks())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	code := apply(s, errOut, func(eng *tasksync.Engine) {
		eng.Update(task.ID, patch)
	})
	if code == exitcode.Success && !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return code
}
