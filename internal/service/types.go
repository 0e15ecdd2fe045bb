// Package service defines the backend-agnostic task model and the remote interface.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Task represents a single task item.
type Task struct {
	ID        string
	Title     string
	Completed bool

	// Extra holds server-defined fields other than id, title and completed.
	// Values are kept verbatim so they survive a decode/encode round trip.
	Extra map[string]json.RawMessage
}

// Clone returns a copy of the task that shares no map with the original.
func (t Task) Clone() Task {
	if t.Extra != nil {
		extra := make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			extra[k] = v
		}
		t.Extra = extra
	}
	return t
}

// ExtraString returns an extension field decoded as a string, or "" when the
// field is absent or not a string.
func (t Task) ExtraString(key string) string {
	raw, ok := t.Extra[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// MarshalJSON encodes the task as a flat object with its extension fields.
func (t Task) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Extra)+3)
	for k, v := range t.Extra {
		m[k] = v
	}
	m["id"] = t.ID
	m["title"] = t.Title
	m["completed"] = t.Completed
	return json.Marshal(m)
}

// UnmarshalJSON decodes a task object. Decoding is lenient: a title or
// completed value of the wrong type decodes as the zero value, and numeric
// ids are carried as their decimal text. Only a non-object payload fails.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("task: expected object, got null")
	}

	var out Task
	if v, ok := raw["id"]; ok {
		out.ID = decodeID(v)
		delete(raw, "id")
	}
	if v, ok := raw["title"]; ok {
		_ = json.Unmarshal(v, &out.Title)
		delete(raw, "title")
	}
	if v, ok := raw["completed"]; ok {
		_ = json.Unmarshal(v, &out.Completed)
		delete(raw, "completed")
	}
	if len(raw) > 0 {
		out.Extra = raw
	}
	*t = out
	return nil
}

func decodeID(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// Patch is a partial task update. Nil fields are left untouched.
type Patch struct {
	Title     *string
	Completed *bool
	Extra     map[string]json.RawMessage
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil && len(p.Extra) == 0
}

// Apply returns t with the patch merged in.
func (p Patch) Apply(t Task) Task {
	t = t.Clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if len(p.Extra) > 0 && t.Extra == nil {
		t.Extra = make(map[string]json.RawMessage, len(p.Extra))
	}
	for k, v := range p.Extra {
		t.Extra[k] = v
	}
	return t
}

// MarshalJSON encodes only the fields present in the patch.
func (p Patch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		m[k] = v
	}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Completed != nil {
		m["completed"] = *p.Completed
	}
	return json.Marshal(m)
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }

// Normalize prepares a list for use as the canonical task list.
// Titles are trimmed, entries with an empty title are dropped, and missing
// or duplicated ids are replaced with ids from newID.
func Normalize(tasks []Task, newID func() string) []Task {
	result := make([]Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		t = t.Clone()
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		if _, dup := seen[t.ID]; t.ID == "" || dup {
			t.ID = newID()
		}
		seen[t.ID] = struct{}{}
		result = append(result, t)
	}
	return result
}

// CloneAll copies a task list.
func CloneAll(tasks []Task) []Task {
	result := make([]Task, len(tasks))
	for i, t := range tasks {
		result[i] = t.Clone()
	}
	return result
}
