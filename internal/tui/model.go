// Package tui is the interactive terminal front end. It renders the engine's
// task list and turns key presses into engine operations.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todosync/internal/duedate"
	"todosync/internal/features"
	"todosync/internal/service"
	"todosync/internal/tasksync"
	"todosync/internal/theme"
	"todosync/internal/view"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
	modeSearch
	modeConfirmClear
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarn
	statusError
)

// engineMsg carries an engine event into the update loop.
type engineMsg tasksync.Event

// searchMsg reports that the debounced search text was applied.
type searchMsg struct{}

// watchMsg reports that another process changed local storage.
type watchMsg struct{}

// Options configures a Model.
type Options struct {
	Engine *tasksync.Engine
	Flags  features.Set
	Theme  *theme.Theme

	// SearchDelay is the quiet period before typed search text applies.
	// Zero means view.DefaultSearchDelay.
	SearchDelay time.Duration

	// LoadErr is the error reported by the initial load, shown on start.
	LoadErr error

	// Now resolves relative due dates. Nil means time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Model is the bubbletea model for the task list.
type Model struct {
	ctx    context.Context
	eng    *tasksync.Engine
	flags  features.Set
	theme  *theme.Theme
	query  *view.Query
	keys   keyMap
	help   help.Model
	now    func() time.Time
	logger *slog.Logger

	// send delivers messages from other goroutines. Nil outside a program.
	send func(tea.Msg)

	tasks    []service.Task
	syncMode tasksync.Mode
	cursor   int
	mode     mode
	editID   string
	focusDue bool

	title  textinput.Model
	due    textinput.Model
	search textinput.Model

	status     string
	statusKind statusKind
	width      int
	height     int
}

// NewModel creates a Model showing the engine's current list.
func NewModel(ctx context.Context, opts Options) *Model {
	m := &Model{
		ctx:    ctx,
		eng:    opts.Engine,
		flags:  opts.Flags,
		theme:  opts.Theme,
		keys:   newKeyMap(),
		help:   help.New(),
		now:    opts.Now,
		logger: opts.Logger,
	}
	if m.theme == nil {
		m.theme = theme.New(theme.Light, nil)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	delay := opts.SearchDelay
	if delay <= 0 {
		delay = view.DefaultSearchDelay
	}
	m.query = view.NewQuery(delay, func() { m.notify(searchMsg{}) })
	m.keys.Search.SetEnabled(m.flags.Enabled(features.Search))

	m.title = textinput.New()
	m.title.Placeholder = "What needs to be done?"
	m.title.Prompt = "Title: "
	m.title.CharLimit = 500

	m.due = textinput.New()
	m.due.Placeholder = "tomorrow, next friday, 2026-12-01"
	m.due.Prompt = "Due:   "
	m.due.CharLimit = 64

	m.search = textinput.New()
	m.search.Placeholder = "search titles"
	m.search.Prompt = "/"
	m.search.CharLimit = 200

	m.refresh()
	if opts.LoadErr != nil {
		if service.IsTransient(opts.LoadErr) {
			m.setStatus(statusWarn, "remote unavailable, working offline")
		} else {
			m.setStatus(statusError, "could not load tasks: "+opts.LoadErr.Error())
		}
	}
	return m
}

func (m *Model) notify(msg tea.Msg) {
	if m.send != nil {
		m.send(msg)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case engineMsg:
		m.handleEvent(tasksync.Event(msg))
		return m, nil
	case searchMsg:
		m.clampCursor()
		return m, nil
	case watchMsg:
		if m.syncMode == tasksync.ModeLocal {
			m.eng.Reload(m.ctx)
			m.refresh()
			m.setStatus(statusInfo, "reloaded after an outside change")
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeConfirmClear:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) handleEvent(ev tasksync.Event) {
	m.tasks = ev.Tasks
	m.syncMode = ev.Mode
	m.clampCursor()

	switch ev.Phase {
	case tasksync.PhaseRolledBack:
		m.setStatus(statusError, fmt.Sprintf("%s failed and was undone: %v", ev.Op, ev.Err))
	case tasksync.PhaseDemoted:
		m.setStatus(statusWarn, "remote unavailable, saving changes locally")
	case tasksync.PhaseCommitted:
		if ev.Err != nil {
			m.setStatus(statusWarn, ev.Err.Error())
		}
	case tasksync.PhaseLoaded:
		if ev.Err != nil && !service.IsTransient(ev.Err) {
			m.setStatus(statusError, "could not load tasks: "+ev.Err.Error())
		}
	}
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visible()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		return m, m.openForm(modeAdd, service.Task{})
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			return m, m.openForm(modeEdit, t)
		}
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			m.eng.Toggle(t.ID)
			m.refresh()
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.eng.Delete(t.ID)
			m.refresh()
			m.setStatus(statusInfo, "deleted "+t.Title)
		}
	case key.Matches(msg, m.keys.Clear):
		if view.Count(m.tasks).Completed == 0 {
			m.setStatus(statusInfo, "no completed tasks")
			return m, nil
		}
		m.mode = modeConfirmClear
	case key.Matches(msg, m.keys.Filter):
		m.query.SetFilter(m.query.Filter().Next())
		m.clampCursor()
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.query.RawSearch())
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.Toggle()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadCmd()
	case key.Matches(msg, m.keys.Cancel):
		if m.query.RawSearch() != "" {
			m.query.SetSearch("")
			m.query.Flush()
			m.clampCursor()
		}
	}
	return m, nil
}

func (m *Model) openForm(md mode, t service.Task) tea.Cmd {
	m.mode = md
	m.editID = t.ID
	m.focusDue = false
	m.title.SetValue(t.Title)
	m.title.CursorEnd()
	m.due.SetValue(duedate.Of(t))
	m.due.Blur()
	return m.title.Focus()
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.editID = ""
	m.title.Reset()
	m.title.Blur()
	m.due.Reset()
	m.due.Blur()
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		if !m.flags.Enabled(features.DueDate) {
			return m, nil
		}
		m.focusDue = !m.focusDue
		if m.focusDue {
			m.title.Blur()
			return m, m.due.Focus()
		}
		m.due.Blur()
		return m, m.title.Focus()
	case key.Matches(msg, m.keys.Submit):
		m.submitForm()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusDue {
		m.due, cmd = m.due.Update(msg)
	} else {
		m.title, cmd = m.title.Update(msg)
	}
	return m, cmd
}

func (m *Model) submitForm() {
	task := service.Task{Title: m.title.Value()}
	if m.flags.Enabled(features.DueDate) {
		text := m.due.Value()
		switch {
		case text != "":
			date, err := duedate.Parse(text, m.now())
			if err != nil {
				m.setStatus(statusError, err.Error())
				return
			}
			task.Extra = duedate.Extra(date)
		case m.mode == modeEdit:
			if t, ok := m.find(m.editID); ok && duedate.Of(t) != "" {
				task.Extra = duedate.Extra("")
			}
		}
	}

	switch m.mode {
	case modeAdd:
		if m.eng.AddTask(task) == "" {
			m.setStatus(statusError, "title required")
			return
		}
		m.cursor = 0
		m.setStatus(statusInfo, "added")
	case modeEdit:
		patch := service.Patch{Extra: task.Extra}
		if t, ok := m.find(m.editID); ok && t.Title != task.Title {
			patch.Title = &task.Title
		}
		if !patch.IsEmpty() && !m.eng.Update(m.editID, patch) {
			m.setStatus(statusError, "title required")
			return
		}
		m.setStatus(statusInfo, "saved")
	}
	m.closeForm()
	m.refresh()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.query.Flush()
		m.mode = modeBrowse
		m.search.Blur()
		m.clampCursor()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.query.SetSearch("")
		m.query.Flush()
		m.search.Reset()
		m.search.Blur()
		m.mode = modeBrowse
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query.RawSearch() {
		m.query.SetSearch(m.search.Value())
	}
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		n := m.eng.ClearCompleted()
		m.refresh()
		m.setStatus(statusInfo, fmt.Sprintf("cleared %d", n))
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.No):
		m.mode = modeBrowse
	}
	return m, nil
}

func (m *Model) reloadCmd() tea.Cmd {
	eng, ctx := m.eng, m.ctx
	m.setStatus(statusInfo, "reloading...")
	return func() tea.Msg {
		eng.Wait()
		eng.Reload(ctx)
		return nil
	}
}

// refresh copies the engine's current state.
func (m *Model) refresh() {
	m.tasks = m.eng.Tasks()
	m.syncMode = m.eng.Mode()
	m.clampCursor()
}

func (m *Model) visible() []service.Task {
	return m.query.View(m.tasks)
}

func (m *Model) selected() (service.Task, bool) {
	visible := m.visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return service.Task{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) find(id string) (service.Task, bool) {
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}
