package commands_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/duedate"
	"todosync/internal/exitcode"
	"todosync/internal/service"
	"todosync/internal/tasksync"
	"todosync/internal/testutil"
)

var monday = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

// newSession starts an engine over a memory store. A nil remote selects
// local mode.
func newSession(t *testing.T, remote service.Remote, tasks ...service.Task) *commands.Session {
	t.Helper()
	s, err := commands.StartSession(context.Background(), tasksync.Options{
		Remote:  remote,
		Storage: testutil.NewMemoryStorage(tasks...),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func testConfig(t *testing.T, flags string, quiet bool) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Flags = flags
	cfg.Quiet = quiet
	return cfg
}

// runCommand runs cmd against s with default settings.
func runCommand(t *testing.T, cmd commands.Command, s *commands.Session, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()
	return runWithConfig(t, cmd, testConfig(t, "", quiet), s, args)
}

func runWithConfig(t *testing.T, cmd commands.Command, cfg *config.Config, s *commands.Session, args []string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), cfg, s, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func titles(tasks []service.Task) string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Title
		if t.Completed {
			names[i] += "(x)"
		}
	}
	return strings.Join(names, ",")
}

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "a", Title: "Buy milk"},
		{ID: "b", Title: "Walk the dog", Completed: true},
		{ID: "c", Title: "Pay rent"},
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todosync 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, cmd := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, cmd.Synopsis()) {
			t.Errorf("help output should describe %s", cmd.Name())
		}
	}
}

func TestHelpCommand_OneCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.HelpCmd{}, nil, []string{"delete"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "todosync rm <ref...>") {
		t.Errorf("expected rm usage for its alias, got %q", stdout)
	}

	_, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, []string{"nope"}, false)
	if code != exitcode.UserError || stderr != "error: unknown command: nope\n" {
		t.Errorf("expected unknown command error, got %d %q", code, stderr)
	}
}

// Tests for list command
func TestListCommand(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, s, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	expected := "   1  [ ] Buy milk\n   2  [x] Walk the dog\n   3  [ ] Pay rent\n3 tasks, 2 active, 1 completed [local]\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_FilterKeepsPositions(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)

	cmd := &commands.ListCmd{}
	cmd.SetFilter("active")
	stdout, _, code := runCommand(t, cmd, s, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   1  [ ] Buy milk\n   3  [ ] Pay rent\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	s := newSession(t, nil)

	stdout, _, code := runCommand(t, &commands.ListCmd{}, s, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "No tasks yet.\n" {
		t.Errorf("expected empty message, got %q", stdout)
	}
}

func TestListCommand_InvalidFilter(t *testing.T) {
	s := newSession(t, nil)
	cmd := &commands.ListCmd{}
	cmd.SetFilter("someday")

	_, stderr, code := runCommand(t, cmd, s, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: ") {
		t.Errorf("expected error, got %q", stderr)
	}
}

func TestListCommand_SearchNeedsFlag(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)
	cmd := &commands.ListCmd{}
	cmd.SetSearch("MILK")

	_, stderr, code := runCommand(t, cmd, s, nil, true)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: search is disabled (add \"search\" to flags)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	stdout, _, code := runWithConfig(t, cmd, testConfig(t, "search", true), s, nil)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  [ ] Buy milk\n" {
		t.Errorf("expected case-insensitive match, got %q", stdout)
	}
}

func TestListCommand_RejectedLoad(t *testing.T) {
	remote := testutil.NewFakeRemote(sampleTasks()...)
	remote.ListErr = testutil.Rejected("list")
	s := newSession(t, remote)

	_, stderr, code := runCommand(t, &commands.ListCmd{}, s, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error: list:") {
		t.Errorf("expected backend error, got %q", stderr)
	}
}

// Tests for add command
func TestAddCommand(t *testing.T) {
	remote := testutil.NewFakeRemote()
	s := newSession(t, remote)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, s, []string{"Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if got := titles(remote.Tasks()); got != "Buy milk" {
		t.Errorf("expected task on the remote, got %q", got)
	}
	if got := s.Engine.Tasks(); len(got) != 1 || got[0].ID != "srv-1" {
		t.Errorf("expected server id adopted, got %+v", got)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	s := newSession(t, nil)

	stdout, _, code := runCommand(t, &commands.AddCmd{}, s, []string{"Buy milk"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	s := newSession(t, nil)

	for _, args := range [][]string{nil, {"  "}} {
		_, stderr, code := runCommand(t, &commands.AddCmd{}, s, args, false)
		if code != exitcode.UserError {
			t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
		}
		if stderr != "error: title required\n" {
			t.Errorf("expected 'error: title required\\n', got %q", stderr)
		}
	}
}

func TestAddCommand_Rejected(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.CreateErr = testutil.Rejected("create")
	s := newSession(t, remote)

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, s, []string{"Buy milk"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "error: backend error: create: rejected (http 422)") {
		t.Errorf("expected rejection message, got %q", stderr)
	}
	if len(s.Engine.Tasks()) != 0 {
		t.Errorf("expected the task rolled back, got %+v", s.Engine.Tasks())
	}
	if s.Engine.Mode() != tasksync.ModeRemote {
		t.Errorf("expected to stay remote after a rejection")
	}
}

func TestAddCommand_TransientDemotes(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.CreateErr = testutil.Transient("create")
	s := newSession(t, remote)

	_, stderr, code := runCommand(t, &commands.AddCmd{}, s, []string{"Buy milk"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "warning: remote unavailable, switched to local storage") {
		t.Errorf("expected demotion warning, got %q", stderr)
	}
	if s.Engine.Mode() != tasksync.ModeLocal {
		t.Errorf("expected local mode after a transient failure")
	}
}

func TestAddCommand_DueDate(t *testing.T) {
	s := newSession(t, nil)
	cmd := &commands.AddCmd{}
	cmd.SetDue("tomorrow")
	cmd.SetNow(func() time.Time { return monday })

	_, stderr, code := runCommand(t, cmd, s, []string{"Pay rent"}, true)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d without the flag, got %d", exitcode.UserError, code)
	}
	if stderr != "error: due dates are disabled (add \"dueDate\" to flags)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	_, stderr, code = runWithConfig(t, cmd, testConfig(t, "dueDate", true), s, []string{"Pay rent"})
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%q)", exitcode.Success, code, stderr)
	}
	if due := duedate.Of(s.Engine.Tasks()[0]); due != "2026-10-20" {
		t.Errorf("expected due 2026-10-20, got %q", due)
	}

	cfg := testConfig(t, "dueDate", false)
	stdout, _, _ := runWithConfig(t, &commands.ListCmd{}, cfg, s, nil)
	if !strings.Contains(stdout, "Pay rent  (due 2026-10-20)") {
		t.Errorf("expected due date in listing, got %q", stdout)
	}
}

func TestAddCommand_InvalidDueDate(t *testing.T) {
	s := newSession(t, nil)
	cmd := &commands.AddCmd{}
	cmd.SetDue("qwerty")

	_, stderr, code := runWithConfig(t, cmd, testConfig(t, "dueDate", true), s, []string{"Pay rent"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: invalid due date") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(s.Engine.Tasks()) != 0 {
		t.Errorf("expected no task to be added")
	}
}

// Tests for done and toggle commands
func TestDoneCommand(t *testing.T) {
	remote := testutil.NewFakeRemote(sampleTasks()...)
	s := newSession(t, remote)

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, s, []string{"1", "@b", "3"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (%q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if got := titles(s.Engine.Tasks()); got != "Buy milk(x),Walk the dog(x),Pay rent(x)" {
		t.Errorf("unexpected tasks %q", got)
	}
	// b was already completed.
	ops := strings.Join(remote.CallOps(), " ")
	if ops != "list update:a update:c" {
		t.Errorf("unexpected remote calls %q", ops)
	}
}

func TestDoneCommand_BadRefs(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)

	tests := []struct {
		args []string
		want string
	}{
		{nil, "error: task reference required\n"},
		{[]string{"4"}, "error: task number out of range: 4\n"},
		{[]string{"@zz"}, "error: task not found: @zz\n"},
		{[]string{"one"}, "error: invalid task reference: one\n"},
	}
	for _, tc := range tests {
		_, stderr, code := runCommand(t, &commands.DoneCmd{}, s, tc.args, false)
		if code != exitcode.UserError {
			t.Errorf("%v: expected exit code %d, got %d", tc.args, exitcode.UserError, code)
		}
		if stderr != tc.want {
			t.Errorf("%v: expected %q, got %q", tc.args, tc.want, stderr)
		}
	}
	if got := titles(s.Engine.Tasks()); got != "Buy milk,Walk the dog(x),Pay rent" {
		t.Errorf("expected no change, got %q", got)
	}
}

func TestToggleCommand(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)

	_, _, code := runCommand(t, &commands.ToggleCmd{}, s, []string{"1", "2"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got := titles(s.Engine.Tasks()); got != "Buy milk(x),Walk the dog,Pay rent" {
		t.Errorf("unexpected tasks %q", got)
	}
}

func TestToggleCommand_RejectedRollsBack(t *testing.T) {
	remote := testutil.NewFakeRemote(sampleTasks()...)
	remote.UpdateErr = testutil.Rejected("update")
	s := newSession(t, remote)

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, s, []string{"1"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error: update:") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if got := titles(s.Engine.Tasks()); got != "Buy milk,Walk the dog(x),Pay rent" {
		t.Errorf("expected toggle rolled back, got %q", got)
	}
}

// Tests for rm command
func TestRmCommand_ResolvesBeforeDeleting(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)

	stdout, _, code := runCommand(t, &commands.RmCmd{}, s, []string{"1", "2"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if got := titles(s.Engine.Tasks()); got != "Pay rent" {
		t.Errorf("expected tasks 1 and 2 deleted, got %q", got)
	}
}

// Tests for edit command
func TestEditCommand(t *testing.T) {
	remote := testutil.NewFakeRemote(sampleTasks()...)
	s := newSession(t, remote)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, s, []string{"@c", "Pay", "the", "rent"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (%q)", exitcode.Success, code, stderr)
	}
	if got := titles(remote.Tasks()); got != "Buy milk,Walk the dog(x),Pay the rent" {
		t.Errorf("unexpected remote tasks %q", got)
	}
}

func TestEditCommand_Errors(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, s, []string{"1"}, false)
	if code != exitcode.UserError || !strings.HasPrefix(stderr, "error: nothing to change") {
		t.Errorf("expected nothing-to-change error, got %d %q", code, stderr)
	}

	_, stderr, code = runCommand(t, &commands.EditCmd{}, s, []string{"1", " "}, false)
	if code != exitcode.UserError || stderr != "error: title must not be empty\n" {
		t.Errorf("expected empty title error, got %d %q", code, stderr)
	}

	cmd := &commands.EditCmd{}
	cmd.SetNoDue(true)
	_, stderr, code = runCommand(t, cmd, s, []string{"1"}, false)
	if code != exitcode.UserError || !strings.HasPrefix(stderr, "error: due dates are disabled") {
		t.Errorf("expected disabled due date error, got %d %q", code, stderr)
	}
}

func TestEditCommand_DueDate(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)
	cfg := testConfig(t, "dueDate", true)

	cmd := &commands.EditCmd{}
	cmd.SetDue("2026-11-01")
	if _, stderr, code := runWithConfig(t, cmd, cfg, s, []string{"3"}); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%q)", exitcode.Success, code, stderr)
	}
	if due := duedate.Of(s.Engine.Tasks()[2]); due != "2026-11-01" {
		t.Errorf("expected due 2026-11-01, got %q", due)
	}

	cmd = &commands.EditCmd{}
	cmd.SetNoDue(true)
	if _, stderr, code := runWithConfig(t, cmd, cfg, s, []string{"3"}); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%q)", exitcode.Success, code, stderr)
	}
	if due := duedate.Of(s.Engine.Tasks()[2]); due != "" {
		t.Errorf("expected due date cleared, got %q", due)
	}
}

// Tests for clear command
func TestClearCommand_NeedsYesWithoutTerminal(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)
	cmd := &commands.ClearCmd{}
	cmd.SetPrompt(func() bool { return false }, nil)

	_, stderr, code := runCommand(t, cmd, s, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: refusing to delete 1 completed task(s) without --yes\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(s.Engine.Tasks()) != 3 {
		t.Errorf("expected nothing cleared")
	}
}

func TestClearCommand_Yes(t *testing.T) {
	remote := testutil.NewFakeRemote(sampleTasks()...)
	s := newSession(t, remote)
	cmd := &commands.ClearCmd{}
	cmd.SetYes(true)

	stdout, _, code := runCommand(t, cmd, s, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "cleared 1\n" {
		t.Errorf("expected 'cleared 1\\n', got %q", stdout)
	}
	if got := titles(remote.Tasks()); got != "Buy milk,Pay rent" {
		t.Errorf("unexpected remote tasks %q", got)
	}
}

func TestClearCommand_PartialFailureWarns(t *testing.T) {
	tasks := append(sampleTasks(), service.Task{ID: "d", Title: "Old", Completed: true})
	remote := testutil.NewFakeRemote(tasks...)
	remote.DeleteErrs["d"] = testutil.Rejected("delete")
	s := newSession(t, remote)
	cmd := &commands.ClearCmd{}
	cmd.SetYes(true)

	_, stderr, code := runCommand(t, cmd, s, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stderr, "warning: ") {
		t.Errorf("expected warning for the failed delete, got %q", stderr)
	}
	if got := titles(s.Engine.Tasks()); got != "Buy milk,Pay rent" {
		t.Errorf("expected clear not to be undone, got %q", got)
	}
}

func TestClearCommand_Prompt(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)
	var asked int
	cmd := &commands.ClearCmd{}
	cmd.SetPrompt(func() bool { return true }, func(n int) (bool, error) {
		asked = n
		return false, nil
	})

	stdout, _, code := runCommand(t, cmd, s, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if asked != 1 {
		t.Errorf("expected prompt for 1 task, got %d", asked)
	}
	if stdout != "cancelled\n" {
		t.Errorf("expected 'cancelled\\n', got %q", stdout)
	}
	if len(s.Engine.Tasks()) != 3 {
		t.Errorf("expected nothing cleared")
	}
}

func TestClearCommand_NothingToClear(t *testing.T) {
	s := newSession(t, nil, service.Task{ID: "a", Title: "Open"})

	stdout, _, code := runCommand(t, &commands.ClearCmd{}, s, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "nothing to clear\n" {
		t.Errorf("expected 'nothing to clear\\n', got %q", stdout)
	}
}

// Tests for status command
func TestStatusCommand(t *testing.T) {
	s := newSession(t, nil, sampleTasks()...)
	cfg := testConfig(t, "search,dueDate", false)

	stdout, _, code := runWithConfig(t, &commands.StatusCmd{}, cfg, s, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{
		"mode:    local\n",
		"backend: none\n",
		"storage: file " + cfg.DataPath() + "\n",
		"tasks:   3 (2 active, 1 completed)\n",
		"flags:   duedate, search\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in %q", want, stdout)
		}
	}
}

// Tests for config command
func TestConfigCommand_RedactsToken(t *testing.T) {
	cfg := testConfig(t, "", false)
	cfg.APIURL = "https://todos.example.com"
	cfg.APIToken = "secret-token"

	stdout, _, code := runWithConfig(t, &commands.ConfigCmd{}, cfg, nil, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if strings.Contains(stdout, "secret-token") {
		t.Errorf("expected token to be redacted, got %q", stdout)
	}
	for _, want := range []string{"api_url: https://todos.example.com", "search_debounce: 200ms", "backend: rest"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in %q", want, stdout)
		}
	}
}

func TestConfigCommand_Init(t *testing.T) {
	cfg := testConfig(t, "", false)
	cmd := &commands.ConfigCmd{}
	cmd.SetInit(true)

	stdout, _, code := runWithConfig(t, cmd, cfg, nil, nil)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "wrote "+cfg.ConfigPath()+"\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if _, err := os.Stat(cfg.ConfigPath()); err != nil {
		t.Errorf("expected config file: %v", err)
	}

	_, stderr, code := runWithConfig(t, cmd, cfg, nil, nil)
	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d on second init, got %d", exitcode.ConfigError, code)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestVersionCommand_Verbose(t *testing.T) {
	cmd := &commands.VersionCmd{}
	cmd.SetVerbose(true)

	stdout, _, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "todosync 0.1.0\ngo:") {
		t.Errorf("expected build details, got %q", stdout)
	}
}
