package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/features"
	"todosync/internal/output"
	"todosync/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd prints the task list. Numbers are positions in the full list, so
// they stay valid as refs whatever filter is shown.
type ListCmd struct {
	filter string
	search string
}

// SetFilter sets the filter (for testing).
func (c *ListCmd) SetFilter(f string) { c.filter = f }

// SetSearch sets the search text (for testing).
func (c *ListCmd) SetSearch(s string) { c.search = s }

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todosync list [--filter all|active|completed] [--search <text>]"
}
func (c *ListCmd) NeedsEngine() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	filter, err := view.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	flags := cfg.Features()
	search := strings.TrimSpace(c.search)
	if search != "" && !flags.Enabled(features.Search) {
		fmt.Fprintf(errOut, "error: search is disabled (add %q to flags)\n", features.Search)
		return exitcode.UserError
	}
	if code, ok := checkLoad(s, errOut); !ok {
		return code
	}

	th := newTheme(cfg, out)
	showDue := flags.Enabled(features.DueDate)
	all := s.Engine.Tasks()
	shown := 0
	for i, t := range all {
		if !filter.Match(t) || !view.MatchSearch(t, search) {
			continue
		}
		output.FormatTask(out, th, i+1, t, showDue)
		shown++
	}
	if shown == 0 {
		output.FormatEmpty(out, th, filter, search)
	}
	if !cfg.Quiet {
		output.FormatSummary(out, th, view.Count(all), s.Engine.Mode().String())
	}
	return exitcode.Success
}
