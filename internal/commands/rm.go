package commands

import (
	"context"
	"flag"
	"io"

	"todosync/internal/config"
	"todosync/internal/service"
	"todosync/internal/tasksync"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd deletes tasks.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete tasks" }
func (c *RmCmd) Usage() string     { return "todosync rm <ref...>" }
func (c *RmCmd) NeedsEngine() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	return runOnRefs(cfg, s, args, out, errOut, func(eng *tasksync.Engine, t service.Task) {
		eng.Delete(t.ID)
	})
}
