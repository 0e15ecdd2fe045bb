package cli_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"todosync/internal/cli"
	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
	"todosync/internal/tasksync"
	"todosync/internal/testutil"
)

// testFactory returns an engine factory backed by remote and store.
// Pass a nil remote for local mode.
func testFactory(remote service.Remote, store *testutil.MemoryStorage) cli.EngineFactory {
	return func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.Session, error) {
		return commands.StartSession(ctx, tasksync.Options{Remote: remote, Storage: store, Logger: logger})
	}
}

// run dispatches args with a fresh config directory and quiet logs.
func run(t *testing.T, factory cli.EngineFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("TODOSYNC_LOG_LEVEL", "error")
	dir := t.TempDir()

	var outBuf, errBuf bytes.Buffer
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	full := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		full = append([]string{args[0], "--config", dir}, args[1:]...)
	}
	code = dispatcher.Run(context.Background(), full, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, nil, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(t, nil, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "add [--due <date>] <title...>", "Common flags:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help output to contain %q", want)
		}
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todosync 0.1.0\n" {
		t.Errorf("expected 'todosync 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	store := testutil.NewMemoryStorage()
	_, stderr, code := run(t, testFactory(nil, store), "add", "--due")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -due\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	t.Setenv("TODOSYNC_LOG_LEVEL", "error")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	store := testutil.NewMemoryStorage(service.Task{ID: "1", Title: "Buy milk"})

	var stdout, stderr bytes.Buffer
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(nil, store))
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "   1  [ ] Buy milk\n") {
		t.Errorf("expected task listing, got %q", stdout.String())
	}
}

func TestDispatcher_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: carrier-pigeon\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)
	code := dispatcher.Run(context.Background(), []string{"version", "--config", dir}, &stdout, &stderr)

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if !strings.HasPrefix(stderr.String(), "error: config error: invalid backend") {
		t.Errorf("expected config error, got %q", stderr.String())
	}
}

func TestDispatcher_AddThenListRemote(t *testing.T) {
	remote := testutil.NewFakeRemote(service.Task{ID: "srv-0", Title: "Existing"})
	store := testutil.NewMemoryStorage()
	factory := testFactory(remote, store)

	stdout, stderr, code := run(t, factory, "add", "Buy", "milk")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}

	stdout, _, _ = run(t, factory, "list")
	expected := "   1  [ ] Buy milk\n   2  [ ] Existing\n2 tasks, 2 active, 0 completed [remote]\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDispatcher_RemoteDownWarnsAndUsesLocal(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.ListErr = testutil.Transient("list")
	store := testutil.NewMemoryStorage(service.Task{ID: "local-1", Title: "Offline task"})

	stdout, stderr, code := run(t, testFactory(remote, store), "list", "--quiet")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stderr, "warning: remote unavailable, using local storage:") {
		t.Errorf("expected warning, got %q", stderr)
	}
	if stdout != "   1  [ ] Offline task\n" {
		t.Errorf("expected local task, got %q", stdout)
	}
}

func TestDispatcher_LocalFlagSkipsRemote(t *testing.T) {
	var sawRemote bool
	factory := func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.Session, error) {
		sawRemote = cfg.RemoteConfigured()
		return commands.StartSession(ctx, tasksync.Options{Storage: testutil.NewMemoryStorage(), Logger: logger})
	}

	_, _, code := run(t, factory, "list", "--api-url", "http://example.invalid", "--local")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if sawRemote {
		t.Errorf("expected --local to clear the remote")
	}

	_, _, _ = run(t, factory, "list", "--api-url", "http://example.invalid")
	if !sawRemote {
		t.Errorf("expected --api-url to configure the remote")
	}
}
