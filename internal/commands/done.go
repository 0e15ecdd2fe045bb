package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
	"todosync/internal/tasksync"
)

func init() {
	Register(&DoneCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd marks tasks completed. Tasks that are already completed are left
// alone.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark tasks completed" }
func (c *DoneCmd) Usage() string     { return "todosync done <ref...>" }
func (c *DoneCmd) NeedsEngine() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	return runOnRefs(cfg, s, args, out, errOut, func(eng *tasksync.Engine, t service.Task) {
		if !t.Completed {
			eng.Update(t.ID, service.Patch{Completed: service.Bool(true)})
		}
	})
}

// ToggleCmd flips the completion state of tasks.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"undone"} }
func (c *ToggleCmd) Synopsis() string  { return "Flip tasks between open and completed" }
func (c *ToggleCmd) Usage() string     { return "todosync toggle <ref...>" }
func (c *ToggleCmd) NeedsEngine() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	return runOnRefs(cfg, s, args, out, errOut, func(eng *tasksync.Engine, t service.Task) {
		eng.Toggle(t.ID)
	})
}

// runOnRefs resolves every ref against the current list, then applies fn to
// each task in one batch.
func runOnRefs(cfg *config.Config, s *Session, args []string, out, errOut io.Writer, fn func(*tasksync.Engine, service.Task)) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if code, ok := checkLoad(s, errOut); !ok {
		return code
	}
	targets, err := resolveAll(refs, s.Engine.Tasks())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	code := apply(s, errOut, func(eng *tasksync.Engine) {
		for _, t := range targets {
			fn(eng, t)
		}
	})
	if code == exitcode.Success && !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return code
}
