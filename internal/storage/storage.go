// Package storage persists the task list on the local machine.
//
// Storage never fails from the caller's point of view: a missing or corrupt
// record loads as an empty list, and a failed write is logged and dropped.
// Durability is best-effort.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"todosync/internal/service"
)

// RecordKey names the record that holds the task list.
const RecordKey = "todosync.tasks"

// Storage is the local persistence adapter.
type Storage interface {
	// Load returns the last-saved list, normalized. Never fails.
	Load() []service.Task

	// Save replaces the stored list. Failures are absorbed.
	Save(tasks []service.Task)

	// NewID returns an id unique within this process.
	NewID() string
}

// IDGen produces ids of the form <base36 millis>-<counter>-<random hex>.
// The counter makes ids unique within the process; the time and random parts
// keep them apart across processes. Not cryptographic.
type IDGen struct {
	counter atomic.Uint64
}

// NewID returns the next id.
func (g *IDGen) NewID() string {
	n := g.counter.Add(1)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", strconv.FormatInt(time.Now().UnixMilli(), 36), n, random)
}

// decodeTasks decodes a stored record. The record must be a JSON array;
// elements that are not task objects are skipped.
func decodeTasks(data []byte) ([]service.Task, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("tasks record is not an array: %w", err)
	}
	tasks := make([]service.Task, 0, len(items))
	for _, item := range items {
		var t service.Task
		if err := json.Unmarshal(item, &t); err != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// encodeTasks encodes a list as a JSON array, never as null.
func encodeTasks(tasks []service.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []service.Task{}
	}
	return json.Marshal(tasks)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
