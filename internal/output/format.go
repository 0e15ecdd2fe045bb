// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todosync/internal/duedate"
	"todosync/internal/service"
	"todosync/internal/theme"
	"todosync/internal/view"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n", followed by "  (due YYYY-MM-DD)" before
// the newline when showDue is set and the task has a due date.
func FormatTask(w io.Writer, th *theme.Theme, num int, task service.Task, showDue bool) {
	box := "[ ]"
	title := normalizeTitle(task.Title)
	if task.Completed {
		box = "[x]"
		title = th.Done.Render(title)
	} else {
		title = th.Text.Render(title)
	}

	line := fmt.Sprintf("%4d  %s %s", num, th.Muted.Render(box), title)
	if due := duedate.Of(task); showDue && due != "" {
		line += th.Muted.Render("  (due " + due + ")")
	}
	fmt.Fprintln(w, line)
}

// FormatEmpty prints the line shown when a view has no tasks.
func FormatEmpty(w io.Writer, th *theme.Theme, filter view.Filter, search string) {
	switch {
	case search != "":
		fmt.Fprintln(w, th.Muted.Render(fmt.Sprintf("No tasks match %q.", search)))
	case filter == view.FilterActive:
		fmt.Fprintln(w, th.Muted.Render("No active tasks."))
	case filter == view.FilterCompleted:
		fmt.Fprintln(w, th.Muted.Render("No completed tasks."))
	default:
		fmt.Fprintln(w, th.Muted.Render("No tasks yet."))
	}
}

// FormatSummary prints the counts line, e.g. "3 tasks, 1 active, 2 completed [remote]".
func FormatSummary(w io.Writer, th *theme.Theme, counts view.Counts, mode string) {
	fmt.Fprintln(w, th.Muted.Render(fmt.Sprintf("%s, %d active, %d completed [%s]",
		plural(counts.Total, "task"), counts.Active, counts.Completed, mode)))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
