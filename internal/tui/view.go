package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"todosync/internal/duedate"
	"todosync/internal/features"
	"todosync/internal/output"
	"todosync/internal/tasksync"
	"todosync/internal/view"
)

// View implements tea.Model.
func (m *Model) View() string {
	th := m.theme
	var b strings.Builder

	header := th.Title.Render("todosync") + "  " + m.modeBadge()
	if m.flags.Enabled(features.Experiments) {
		header += "  " + th.Badge.Render("experiments")
	}
	b.WriteString(header + "\n")

	counts := view.Count(m.tasks)
	b.WriteString(th.Muted.Render(fmt.Sprintf("filter: %s · %d tasks, %d active, %d completed",
		m.query.Filter(), counts.Total, counts.Active, counts.Completed)))
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString(m.search.View() + "\n")
	} else if raw := m.query.RawSearch(); raw != "" {
		b.WriteString(th.Muted.Render("search: "+raw) + "\n")
	}
	b.WriteString("\n")

	visible := m.visible()
	if len(visible) == 0 {
		var empty strings.Builder
		output.FormatEmpty(&empty, th, m.query.Filter(), m.query.Search())
		b.WriteString(empty.String())
	}
	showDue := m.flags.Enabled(features.DueDate)
	for i, t := range visible {
		cursor := "  "
		box := "[ ]"
		title := t.Title
		style := th.Text
		if t.Completed {
			box = "[x]"
			style = th.Done
		}
		if i == m.cursor {
			cursor = th.Selected.Render("> ")
			if !t.Completed {
				style = th.Selected
			}
		}
		line := cursor + th.Muted.Render(box) + " " + style.Render(title)
		if due := duedate.Of(t); showDue && due != "" {
			line += th.Muted.Render("  due " + due)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	switch m.mode {
	case modeAdd, modeEdit:
		label := "New task"
		if m.mode == modeEdit {
			label = "Edit task"
		}
		b.WriteString(th.Header.Render(label) + "\n")
		b.WriteString(m.title.View() + "\n")
		if showDue {
			b.WriteString(m.due.View() + "\n")
		}
		b.WriteString(m.help.ShortHelpView(m.formHelp()) + "\n")
	case modeConfirmClear:
		n := view.Count(m.tasks).Completed
		b.WriteString(th.Warning.Render(fmt.Sprintf("Delete %d completed task(s)? (y/n)", n)) + "\n")
	default:
		b.WriteString(m.help.ShortHelpView(m.keys.browseHelp()) + "\n")
	}

	if m.status != "" {
		style := th.Muted
		switch m.statusKind {
		case statusWarn:
			style = th.Warning
		case statusError:
			style = th.Error
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	return b.String()
}

func (m *Model) modeBadge() string {
	if m.syncMode == tasksync.ModeRemote {
		return m.theme.Badge.Render("● synced")
	}
	return m.theme.Warning.Render("○ local")
}

func (m *Model) formHelp() []key.Binding {
	bindings := []key.Binding{m.keys.Submit, m.keys.Cancel}
	if m.flags.Enabled(features.DueDate) {
		bindings = append(bindings, m.keys.NextField)
	}
	return bindings
}
