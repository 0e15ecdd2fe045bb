// Package duedate parses due dates and stores them in a task's extension
// fields as YYYY-MM-DD.
package duedate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"todosync/internal/service"
)

// Field is the extension field holding a task's due date.
const Field = "dueDate"

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Parse turns "2026-10-20", "tomorrow" or "next friday" into YYYY-MM-DD,
// resolving relative dates against now.
func Parse(text string, now time.Time) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("due date required")
	}
	if d, err := time.ParseInLocation(time.DateOnly, text, now.Location()); err == nil {
		return d.Format(time.DateOnly), nil
	}
	r, err := parser.Parse(text, now)
	if err != nil {
		return "", fmt.Errorf("invalid due date %q: %w", text, err)
	}
	if r == nil {
		return "", fmt.Errorf("invalid due date %q", text)
	}
	return r.Time.Format(time.DateOnly), nil
}

// Extra returns the extension fields that set date. An empty date clears
// the field.
func Extra(date string) map[string]json.RawMessage {
	if date == "" {
		return map[string]json.RawMessage{Field: json.RawMessage("null")}
	}
	raw, _ := json.Marshal(date)
	return map[string]json.RawMessage{Field: raw}
}

// Of returns the task's due date, or "" when it has none.
func Of(t service.Task) string {
	return t.ExtraString(Field)
}
