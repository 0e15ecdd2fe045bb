package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todosync/internal/service"
)

// TaskRef is a parsed task reference: a 1-based position in the full list
// ("3") or an exact id ("@srv-17").
type TaskRef struct {
	Num int    // 1-based position, 0 when ID is set
	ID  string // exact id
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return "@" + r.ID
	}
	return strconv.Itoa(r.Num)
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a single reference.
func ParseTaskRef(arg string) (TaskRef, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if id, ok := strings.CutPrefix(arg, "@"); ok {
		if id == "" {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}
	if !isAllDigits(arg) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	num, err := strconv.Atoi(arg)
	if err != nil || num < 1 {
		return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
	}
	return TaskRef{Num: num}, nil
}

// ParseTaskRefs parses every argument as a reference.
func ParseTaskRefs(args []string) ([]TaskRef, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	refs := make([]TaskRef, 0, len(args))
	for _, arg := range args {
		ref, err := ParseTaskRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Resolve finds the referenced task in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID != "" {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Task{}, fmt.Errorf("task not found: @%s", r.ID)
	}
	if r.Num < 1 || r.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
	}
	return tasks[r.Num-1], nil
}

// resolveAll resolves refs against one snapshot so positions do not shift
// while several tasks are changed. Duplicates are dropped.
func resolveAll(refs []TaskRef, tasks []service.Task) ([]service.Task, error) {
	seen := make(map[string]bool, len(refs))
	var result []service.Task
	for _, ref := range refs {
		t, err := ref.Resolve(tasks)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		result = append(result, t)
	}
	return result, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
