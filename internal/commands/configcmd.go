package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"todosync/internal/config"
	"todosync/internal/exitcode"
)

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd prints the effective configuration or writes a starter file.
type ConfigCmd struct {
	init bool
}

// SetInit selects writing the starter file (for testing).
func (c *ConfigCmd) SetInit(v bool) { c.init = v }

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Print the effective configuration" }
func (c *ConfigCmd) Usage() string     { return "todosync config [--init]" }
func (c *ConfigCmd) NeedsEngine() bool { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.init, "init", false, "")
}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, s *Session, args []string, out, errOut io.Writer) int {
	if c.init {
		if err := cfg.EnsureDir(); err != nil {
			fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
			return exitcode.ConfigError
		}
		if err := config.WriteDefault(cfg.ConfigPath()); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.ConfigError
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "wrote %s\n", cfg.ConfigPath())
		}
		return exitcode.Success
	}

	shown := *cfg
	if shown.APIToken != "" {
		shown.APIToken = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.ConfigError
	}
	fmt.Fprintf(out, "# %s\n", cfg.ConfigPath())
	out.Write(data)
	return exitcode.Success
}
