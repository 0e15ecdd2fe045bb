package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime/debug"

	"todosync/internal/config"
	"todosync/internal/exitcode"
)

// Version is the application version. Set at build time with
// -ldflags "-X todosync/internal/commands.Version=...".
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd prints the version, and with --verbose the build details.
type VersionCmd struct {
	verbose bool
}

// SetVerbose enables build details (for testing).
func (c *VersionCmd) SetVerbose(v bool) { c.verbose = v }

func (c *VersionCmd) Name() string      { return "version" }
func (c *VersionCmd) Aliases() []string { return nil }
func (c *VersionCmd) Synopsis() string  { return "Print version" }
func (c *VersionCmd) Usage() string     { return "todosync version [--verbose]" }
func (c *VersionCmd) NeedsEngine() bool { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "")
	fs.BoolVar(&c.verbose, "v", false, "")
}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "todosync %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return exitcode.Success
	}
	fmt.Fprintf(out, "go:      %s\n", info.GoVersion)
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision", "vcs.time", "vcs.modified":
			fmt.Fprintf(out, "%-8s %s\n", setting.Key[len("vcs."):]+":", setting.Value)
		}
	}
	return exitcode.Success
}
