package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd opens the interactive task list.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Open the interactive task list" }
func (c *UICmd) Usage() string     { return "todosync ui" }
func (c *UICmd) NeedsEngine() bool { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	opts := tui.RunOptions{
		Options: tui.Options{
			Engine:      s.Engine,
			Flags:       cfg.Features(),
			Theme:       newTheme(cfg, out),
			SearchDelay: cfg.SearchDebounce,
			LoadErr:     s.LoadErr,
			Logger:      s.Logger,
		},
		Watch:  s.Watch,
		Output: out,
	}
	if err := tui.Run(ctx, opts); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	s.Engine.Wait()
	return exitcode.Success
}
