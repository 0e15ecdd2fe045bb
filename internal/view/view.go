// Package view derives the filtered and searched projection of the task list.
package view

import (
	"fmt"
	"strings"

	"todosync/internal/service"
)

// Filter narrows the list by completion status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter parses a filter name (case-insensitive, trimmed).
// An empty name is FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "open":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return "", fmt.Errorf("invalid filter: %s", s)
}

// Next returns the filter after f in display order, wrapping around.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Match reports whether a task passes the filter.
func (f Filter) Match(t service.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the tasks that pass both the filter and the search text.
// Search is a case-insensitive substring match on the title; an empty search
// matches everything. The input slice is never modified.
func Apply(tasks []service.Task, filter Filter, search string) []service.Task {
	result := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Match(t) && MatchSearch(t, search) {
			result = append(result, t)
		}
	}
	return result
}

// MatchSearch reports whether the task title contains search, ignoring case.
func MatchSearch(t service.Task, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	return needle == "" || strings.Contains(strings.ToLower(t.Title), needle)
}

// Counts summarizes a task list.
type Counts struct {
	Total     int
	Active    int
	Completed int
}

// Count tallies tasks by completion status.
func Count(tasks []service.Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}
