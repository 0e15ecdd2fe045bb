package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
	"todosync/internal/view"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd prints where tasks are kept and how many there are.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Show sync mode, backend and counts" }
func (c *StatusCmd) Usage() string     { return "todosync status" }
func (c *StatusCmd) NeedsEngine() bool { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	counts := view.Count(s.Engine.Tasks())

	fmt.Fprintf(out, "mode:    %s\n", s.Engine.Mode())
	switch {
	case cfg.Backend == config.BackendGoogleTasks:
		fmt.Fprintf(out, "backend: %s (list %s)\n", cfg.Backend, cfg.TaskList)
	case cfg.APIURL != "":
		fmt.Fprintf(out, "backend: %s %s\n", cfg.Backend, cfg.APIURL)
	default:
		fmt.Fprintln(out, "backend: none")
	}
	fmt.Fprintf(out, "storage: %s %s\n", cfg.Storage, cfg.DataPath())
	fmt.Fprintf(out, "tasks:   %d (%d active, %d completed)\n", counts.Total, counts.Active, counts.Completed)
	if names := cfg.Features().Names(); len(names) > 0 {
		fmt.Fprintf(out, "flags:   %s\n", strings.Join(names, ", "))
	}
	if s.LoadErr != nil {
		state := "rejected"
		if service.IsTransient(s.LoadErr) {
			state = "unreachable"
		}
		fmt.Fprintf(out, "remote:  %s: %v\n", state, s.LoadErr)
	}
	return exitcode.Success
}
