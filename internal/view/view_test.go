package view

import (
	"testing"
	"time"

	"todosync/internal/service"
)

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "1", Title: "Buy Milk"},
		{ID: "2", Title: "Buy bread", Completed: true},
		{ID: "3", Title: "Call mom"},
		{ID: "4", Title: "Milk the cow", Completed: true},
	}
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply_Filters(t *testing.T) {
	tasks := sampleTasks()

	for _, task := range Apply(tasks, FilterActive, "") {
		if task.Completed {
			t.Errorf("active view contains completed task %s", task.ID)
		}
	}
	for _, task := range Apply(tasks, FilterCompleted, "") {
		if !task.Completed {
			t.Errorf("completed view contains active task %s", task.ID)
		}
	}
	if got := Apply(tasks, FilterAll, ""); len(got) != len(tasks) {
		t.Errorf("expected all %d tasks, got %d", len(tasks), len(got))
	}
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	got := ids(Apply(sampleTasks(), FilterAll, "milk"))
	expected := []string{"1", "4"}
	if !equalIDs(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestApply_FilterAndSearchCombine(t *testing.T) {
	got := ids(Apply(sampleTasks(), FilterActive, "MILK"))
	expected := []string{"1"}
	if !equalIDs(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	_ = Apply(tasks, FilterCompleted, "bread")
	if !equalIDs(ids(tasks), []string{"1", "2", "3", "4"}) {
		t.Errorf("input was modified: %v", ids(tasks))
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"All", FilterAll, false},
		{" active ", FilterActive, false},
		{"done", FilterCompleted, false},
		{"later", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFilter(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFilter(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFilter(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestFilter_NextCycles(t *testing.T) {
	if FilterAll.Next() != FilterActive || FilterActive.Next() != FilterCompleted || FilterCompleted.Next() != FilterAll {
		t.Error("expected filters to cycle all -> active -> completed -> all")
	}
}

func TestCount(t *testing.T) {
	c := Count(sampleTasks())
	if c.Total != 4 || c.Active != 2 || c.Completed != 2 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestQuery_RawEchoIsImmediateAppliedIsDebounced(t *testing.T) {
	changed := make(chan struct{}, 10)
	q := NewQuery(30*time.Millisecond, func() { changed <- struct{}{} })

	q.SetSearch("m")
	q.SetSearch("mi")
	q.SetSearch("milk")

	if q.RawSearch() != "milk" {
		t.Errorf("expected raw search %q, got %q", "milk", q.RawSearch())
	}
	if q.Search() != "" {
		t.Errorf("expected applied search to lag, got %q", q.Search())
	}
	if got := len(q.View(sampleTasks())); got != 4 {
		t.Errorf("expected unfiltered view before quiet period, got %d tasks", got)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("applied search never changed")
	}

	if q.Search() != "milk" {
		t.Errorf("expected applied search %q, got %q", "milk", q.Search())
	}
	if got := ids(q.View(sampleTasks())); !equalIDs(got, []string{"1", "4"}) {
		t.Errorf("expected milk tasks, got %v", got)
	}
	if len(changed) != 0 {
		t.Errorf("expected a single change notification, got %d extra", len(changed))
	}
}

func TestQuery_FlushAndFilter(t *testing.T) {
	var changes int
	q := NewQuery(time.Hour, func() { changes++ })

	q.SetSearch("bread")
	q.Flush()
	if q.Search() != "bread" {
		t.Errorf("expected flushed search %q, got %q", "bread", q.Search())
	}

	q.SetFilter(FilterActive)
	if got := len(q.View(sampleTasks())); got != 0 {
		t.Errorf("expected no active bread task, got %d", got)
	}

	q.SetFilter(FilterActive)
	if changes != 2 {
		t.Errorf("expected 2 changes, got %d", changes)
	}

	q.Reset()
	if q.Filter() != FilterAll || q.Search() != "" || q.RawSearch() != "" {
		t.Error("expected Reset to clear the query")
	}
}
