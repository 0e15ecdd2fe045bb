package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"todosync/internal/debounce"
)

// Watcher reports changes to a storage file made by other processes.
// It watches the parent directory, since atomic saves replace the file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce *debounce.Debouncer
	onChange func()
	logger   *slog.Logger

	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
}

// NewWatcher creates a Watcher for the file at path. onChange runs once
// events have been quiet for delay, on a timer goroutine of its own, so it
// may call Stop. With a non-positive delay it runs on the event loop
// instead. The watcher must be started with Start before it reports anything.
func NewWatcher(path string, delay time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  watcher,
		path:     path,
		debounce: debounce.New(delay),
		onChange: onChange,
		logger:   orDiscard(logger).With("component", "storage-watcher"),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.running = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
// A change still waiting for its quiet period is dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		w.debounce.Cancel()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug("storage file changed", "op", event.Op.String())
			w.debounce.Call(w.onChange)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
