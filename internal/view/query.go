package view

import (
	"sync"
	"time"

	"todosync/internal/debounce"
	"todosync/internal/service"
)

// DefaultSearchDelay is the quiet period before typed search text applies.
const DefaultSearchDelay = 200 * time.Millisecond

// Query is the UI-only view state: a filter and a debounced search text.
// The raw search text echoes every keystroke immediately; the applied search
// text, which drives the derived view, follows after the quiet period.
type Query struct {
	mu       sync.Mutex
	filter   Filter
	raw      string
	applied  string
	debounce *debounce.Debouncer
	onChange func()
}

// NewQuery creates a Query with FilterAll and an empty search.
// onChange, if non-nil, runs whenever the applied filter or search changes;
// for debounced search it runs on the timer goroutine.
func NewQuery(delay time.Duration, onChange func()) *Query {
	return &Query{
		filter:   FilterAll,
		debounce: debounce.New(delay),
		onChange: onChange,
	}
}

// Filter returns the current filter.
func (q *Query) Filter() Filter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.filter
}

// SetFilter applies a filter immediately.
func (q *Query) SetFilter(f Filter) {
	q.mu.Lock()
	changed := q.filter != f
	q.filter = f
	q.mu.Unlock()

	if changed {
		q.changed()
	}
}

// RawSearch returns the search text exactly as last typed.
func (q *Query) RawSearch() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.raw
}

// Search returns the applied search text.
func (q *Query) Search() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.applied
}

// SetSearch records the typed text and schedules it to apply after the
// quiet period. Successive calls within the period coalesce.
func (q *Query) SetSearch(text string) {
	q.mu.Lock()
	q.raw = text
	q.mu.Unlock()

	q.debounce.Call(func() {
		q.applySearch(text)
	})
}

// Flush applies a pending search text now.
func (q *Query) Flush() {
	q.debounce.Flush()
}

// Pending reports whether typed search text has not applied yet.
func (q *Query) Pending() bool {
	return q.debounce.Pending()
}

// Reset clears the filter and search text.
func (q *Query) Reset() {
	q.debounce.Cancel()
	q.mu.Lock()
	changed := q.filter != FilterAll || q.applied != ""
	q.filter = FilterAll
	q.raw = ""
	q.applied = ""
	q.mu.Unlock()

	if changed {
		q.changed()
	}
}

// View derives the visible tasks from the canonical list.
func (q *Query) View(tasks []service.Task) []service.Task {
	q.mu.Lock()
	filter, search := q.filter, q.applied
	q.mu.Unlock()
	return Apply(tasks, filter, search)
}

func (q *Query) applySearch(text string) {
	q.mu.Lock()
	changed := q.applied != text
	q.applied = text
	q.mu.Unlock()

	if changed {
		q.changed()
	}
}

func (q *Query) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
