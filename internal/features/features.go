// Package features parses the comma-separated feature flag list.
package features

import (
	"sort"
	"strings"
)

// Known flags.
const (
	Search      = "search"
	DueDate     = "dueDate"
	Experiments = "experiments"
)

// Set is a set of enabled feature flags. Names compare case-insensitively.
// The zero value has nothing enabled.
type Set struct {
	enabled map[string]struct{}
}

// Parse builds a Set from a list such as "search, dueDate".
// Empty entries are skipped; unknown names are kept.
func Parse(list string) Set {
	s := Set{enabled: make(map[string]struct{})}
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			s.enabled[name] = struct{}{}
		}
	}
	return s
}

// Enabled reports whether flag is on.
func (s Set) Enabled(flag string) bool {
	_, ok := s.enabled[strings.ToLower(flag)]
	return ok
}

// Names returns the enabled flags, sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.enabled))
	for name := range s.enabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
