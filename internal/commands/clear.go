package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/tasksync"
	"todosync/internal/view"
)

func init() {
	Register(&ClearCmd{})
}

// ClearCmd removes every completed task. It asks first when stdin is a
// terminal; otherwise --yes is required.
type ClearCmd struct {
	yes         bool
	confirm     func(n int) (bool, error)
	interactive func() bool
}

// SetYes skips the confirmation (for testing).
func (c *ClearCmd) SetYes(yes bool) { c.yes = yes }

// SetPrompt replaces the terminal check and the confirmation prompt (for testing).
func (c *ClearCmd) SetPrompt(interactive func() bool, confirm func(n int) (bool, error)) {
	c.interactive = interactive
	c.confirm = confirm
}

func (c *ClearCmd) Name() string      { return "clear" }
func (c *ClearCmd) Aliases() []string { return []string{"clear-completed"} }
func (c *ClearCmd) Synopsis() string  { return "Delete all completed tasks" }
func (c *ClearCmd) Usage() string     { return "todosync clear [--yes]" }
func (c *ClearCmd) NeedsEngine() bool { return true }

func (c *ClearCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *ClearCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if code, ok := checkLoad(s, errOut); !ok {
		return code
	}

	n := view.Count(s.Engine.Tasks()).Completed
	if n == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "nothing to clear")
		}
		return exitcode.Success
	}

	if !c.yes {
		if !c.isInteractive() {
			fmt.Fprintf(errOut, "error: refusing to delete %d completed task(s) without --yes\n", n)
			return exitcode.UserError
		}
		ok, err := c.ask(n)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if !ok {
			if !cfg.Quiet {
				fmt.Fprintln(out, "cancelled")
			}
			return exitcode.Success
		}
	}

	code := apply(s, errOut, func(eng *tasksync.Engine) {
		eng.ClearCompleted()
	})
	if code == exitcode.Success && !cfg.Quiet {
		fmt.Fprintf(out, "cleared %d\n", n)
	}
	return code
}

func (c *ClearCmd) isInteractive() bool {
	if c.interactive != nil {
		return c.interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (c *ClearCmd) ask(n int) (bool, error) {
	if c.confirm != nil {
		return c.confirm(n)
	}
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %d completed task(s)?", n)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}
