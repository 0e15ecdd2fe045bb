package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"todosync/internal/service"
)

// FileStorage keeps the task list in a JSON document of named records.
// Only RecordKey is read and written; other records are preserved.
type FileStorage struct {
	IDGen

	path   string
	logger *slog.Logger

	mu        sync.Mutex
	lastWrite [sha256.Size]byte
}

// NewFileStorage creates a FileStorage backed by the file at path.
// The file and its directory are created on first save.
func NewFileStorage(path string, logger *slog.Logger) *FileStorage {
	return &FileStorage{
		path:   filepath.Clean(path),
		logger: orDiscard(logger).With("component", "storage", "backend", "file"),
	}
}

// Path returns the backing file path.
func (s *FileStorage) Path() string {
	return s.path
}

// Load implements Storage.
func (s *FileStorage) Load() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.readDoc()
	if !ok {
		return []service.Task{}
	}
	raw, ok := doc[RecordKey]
	if !ok {
		return []service.Task{}
	}
	tasks, err := decodeTasks(raw)
	if err != nil {
		s.logger.Warn("ignoring invalid task record", "path", s.path, "error", err)
		return []service.Task{}
	}
	return service.Normalize(tasks, s.NewID)
}

// Save implements Storage.
func (s *FileStorage) Save(tasks []service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.readDoc()
	if !ok {
		doc = map[string]json.RawMessage{}
	}
	record, err := encodeTasks(tasks)
	if err != nil {
		s.logger.Warn("failed to encode tasks", "error", err)
		return
	}
	doc[RecordKey] = record

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.logger.Warn("failed to encode storage document", "error", err)
		return
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn("failed to create storage directory", "path", s.path, "error", err)
		return
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		s.logger.Warn("failed to save tasks", "path", s.path, "error", err)
		return
	}
	s.lastWrite = sha256.Sum256(data)
}

// ExternallyModified reports whether the file content differs from what this
// FileStorage last wrote. Used to ignore watcher events caused by our own saves.
func (s *FileStorage) ExternallyModified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return !errors.Is(err, os.ErrNotExist)
	}
	return sha256.Sum256(data) != s.lastWrite
}

// readDoc reads the storage document. Caller holds mu.
// Returns false if the file is missing or is not a JSON object.
func (s *FileStorage) readDoc() (map[string]json.RawMessage, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read storage file", "path", s.path, "error", err)
		}
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		s.logger.Warn("ignoring unreadable storage file", "path", s.path, "error", err)
		return nil, false
	}
	return doc, true
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
