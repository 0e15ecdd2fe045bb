package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"todosync/internal/duedate"
	"todosync/internal/features"
	"todosync/internal/service"
	"todosync/internal/tasksync"
	"todosync/internal/testutil"
	"todosync/internal/theme"
)

var monday = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, flags string, tasks ...service.Task) (*Model, *tasksync.Engine, *testutil.MemoryStorage) {
	t.Helper()
	store := testutil.NewMemoryStorage(tasks...)
	eng, err := tasksync.New(tasksync.Options{Storage: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(eng.Close)

	m := NewModel(ctx, Options{
		Engine:      eng,
		Flags:       features.Parse(flags),
		Theme:       theme.New(theme.Light, lipgloss.NewRenderer(io.Discard)),
		SearchDelay: time.Hour,
		Now:         func() time.Time { return monday },
	})
	return m, eng, store
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func titles(tasks []service.Task) string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Title
	}
	return strings.Join(names, ",")
}

func TestAddForm(t *testing.T) {
	m, eng, _ := newTestModel(t, "", service.Task{ID: "1", Title: "Old"})

	press(m, "a", "Buy milk", "enter")

	if got := titles(eng.Tasks()); got != "Buy milk,Old" {
		t.Errorf("expected new task first, got %q", got)
	}
	if m.mode != modeBrowse {
		t.Errorf("expected browse mode after submit, got %v", m.mode)
	}
	if got := titles(m.visible()); got != "Buy milk,Old" {
		t.Errorf("expected view to follow the engine, got %q", got)
	}
}

func TestAddForm_BlankTitleKeepsForm(t *testing.T) {
	m, eng, _ := newTestModel(t, "")

	press(m, "a", "   ", "enter")

	if len(eng.Tasks()) != 0 {
		t.Errorf("expected no task, got %+v", eng.Tasks())
	}
	if m.mode != modeAdd {
		t.Errorf("expected form to stay open")
	}
	if m.statusKind != statusError {
		t.Errorf("expected error status, got %q", m.status)
	}

	press(m, "esc")
	if m.mode != modeBrowse {
		t.Errorf("expected esc to close the form")
	}
}

func TestToggleAndDelete(t *testing.T) {
	m, eng, _ := newTestModel(t, "",
		service.Task{ID: "1", Title: "A"},
		service.Task{ID: "2", Title: "B"},
	)

	press(m, "j", " ")
	if tasks := eng.Tasks(); tasks[0].Completed || !tasks[1].Completed {
		t.Errorf("expected only B completed, got %+v", tasks)
	}

	press(m, "k", "d")
	if got := titles(eng.Tasks()); got != "B" {
		t.Errorf("expected A deleted, got %q", got)
	}
}

func TestFilterCycles(t *testing.T) {
	m, _, _ := newTestModel(t, "",
		service.Task{ID: "1", Title: "A"},
		service.Task{ID: "2", Title: "B", Completed: true},
	)

	press(m, "f")
	if got := titles(m.visible()); got != "A" {
		t.Errorf("expected active tasks, got %q", got)
	}
	press(m, "f")
	if got := titles(m.visible()); got != "B" {
		t.Errorf("expected completed tasks, got %q", got)
	}
	press(m, "f")
	if got := titles(m.visible()); got != "A,B" {
		t.Errorf("expected all tasks, got %q", got)
	}
}

func TestSearch_DisabledWithoutFlag(t *testing.T) {
	m, _, _ := newTestModel(t, "")

	press(m, "/")
	if m.mode != modeBrowse {
		t.Errorf("expected search to be unavailable")
	}
	if strings.Contains(m.View(), "search") {
		t.Errorf("expected no search hint in view")
	}
}

func TestSearch_EchoesAtOnceAppliesLater(t *testing.T) {
	m, _, _ := newTestModel(t, "search",
		service.Task{ID: "1", Title: "Buy milk"},
		service.Task{ID: "2", Title: "Walk dog"},
	)

	press(m, "/", "milk")
	if m.query.RawSearch() != "milk" {
		t.Errorf("expected raw search to echo, got %q", m.query.RawSearch())
	}
	if got := titles(m.visible()); got != "Buy milk,Walk dog" {
		t.Errorf("expected view unchanged before the delay, got %q", got)
	}
	if !strings.Contains(m.View(), "milk") {
		t.Errorf("expected typed text in view")
	}

	press(m, "enter")
	if got := titles(m.visible()); got != "Buy milk" {
		t.Errorf("expected search applied on enter, got %q", got)
	}

	press(m, "esc")
	if got := titles(m.visible()); got != "Buy milk,Walk dog" {
		t.Errorf("expected esc to clear the search, got %q", got)
	}
}

func TestClearCompleted_Confirm(t *testing.T) {
	m, eng, _ := newTestModel(t, "",
		service.Task{ID: "1", Title: "A", Completed: true},
		service.Task{ID: "2", Title: "B"},
	)

	press(m, "c", "n")
	if len(eng.Tasks()) != 2 {
		t.Errorf("expected nothing cleared after declining")
	}

	press(m, "c")
	if !strings.Contains(m.View(), "Delete 1 completed task(s)?") {
		t.Errorf("expected confirmation prompt, got %q", m.View())
	}
	press(m, "y")
	if got := titles(eng.Tasks()); got != "B" {
		t.Errorf("expected completed task cleared, got %q", got)
	}
	if m.status != "cleared 1" {
		t.Errorf("expected status %q, got %q", "cleared 1", m.status)
	}
}

func TestEditForm_TitleAndDueDate(t *testing.T) {
	m, eng, _ := newTestModel(t, "dueDate", service.Task{ID: "1", Title: "Pay"})

	press(m, "e", " rent", "tab", "tomorrow", "enter")

	got := eng.Tasks()[0]
	if got.Title != "Pay rent" {
		t.Errorf("expected %q, got %q", "Pay rent", got.Title)
	}
	if due := duedate.Of(got); due != "2026-10-20" {
		t.Errorf("expected due 2026-10-20, got %q", due)
	}
	if !strings.Contains(m.View(), "due 2026-10-20") {
		t.Errorf("expected due date in view")
	}
}

func TestEditForm_InvalidDueDate(t *testing.T) {
	m, eng, _ := newTestModel(t, "dueDate", service.Task{ID: "1", Title: "Pay"})

	press(m, "e", "tab", "qwerty", "enter")

	if m.mode != modeEdit {
		t.Errorf("expected form to stay open")
	}
	if m.statusKind != statusError {
		t.Errorf("expected error status, got %q", m.status)
	}
	if duedate.Of(eng.Tasks()[0]) != "" {
		t.Errorf("expected no due date")
	}
}

func TestThemeToggle(t *testing.T) {
	m, _, _ := newTestModel(t, "")

	press(m, "t")
	if m.theme.Mode != theme.Dark {
		t.Errorf("expected dark theme, got %v", m.theme.Mode)
	}
	press(m, "t")
	if m.theme.Mode != theme.Light {
		t.Errorf("expected light theme, got %v", m.theme.Mode)
	}
}

func TestView_BadgesAndMode(t *testing.T) {
	m, _, _ := newTestModel(t, "")
	out := m.View()
	if strings.Contains(out, "experiments") {
		t.Errorf("expected no experiments badge")
	}
	if !strings.Contains(out, "local") {
		t.Errorf("expected local mode indicator, got %q", out)
	}
	if !strings.Contains(out, "No tasks yet.") {
		t.Errorf("expected empty message, got %q", out)
	}

	m, _, _ = newTestModel(t, "experiments")
	if !strings.Contains(m.View(), "experiments") {
		t.Errorf("expected experiments badge")
	}
}

func TestEngineEvents(t *testing.T) {
	m, _, _ := newTestModel(t, "")

	m.Update(engineMsg(tasksync.Event{
		Op:    tasksync.OpAdd,
		Phase: tasksync.PhaseRolledBack,
		Mode:  tasksync.ModeRemote,
		Tasks: []service.Task{{ID: "9", Title: "Kept"}},
		Err:   errors.New("boom"),
	}))
	if m.statusKind != statusError || !strings.Contains(m.status, "boom") {
		t.Errorf("expected rollback error status, got %q", m.status)
	}
	if got := titles(m.tasks); got != "Kept" {
		t.Errorf("expected event snapshot, got %q", got)
	}

	m.Update(engineMsg(tasksync.Event{Op: tasksync.OpAdd, Phase: tasksync.PhaseDemoted, Mode: tasksync.ModeLocal}))
	if m.statusKind != statusWarn {
		t.Errorf("expected warning after demotion, got %q", m.status)
	}
	if m.syncMode != tasksync.ModeLocal {
		t.Errorf("expected local mode")
	}
}

func TestWatchReloadsLocalList(t *testing.T) {
	m, _, store := newTestModel(t, "", service.Task{ID: "1", Title: "A"})

	store.Save([]service.Task{{ID: "1", Title: "A"}, {ID: "2", Title: "From elsewhere"}})
	m.Update(watchMsg{})

	if got := titles(m.tasks); got != "A,From elsewhere" {
		t.Errorf("expected reloaded list, got %q", got)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg")
	}
}
