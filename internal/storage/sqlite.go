package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"todosync/internal/service"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStorage keeps the task list as one row of a key-value table in an
// embedded SQLite database.
type SQLiteStorage struct {
	IDGen

	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
// The caller must call Close when done.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		path:   path,
		logger: orDiscard(logger).With("component", "storage", "backend", "sqlite"),
	}, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Load implements Storage.
func (s *SQLiteStorage) Load() []service.Task {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, RecordKey).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to read task record", "error", err)
		}
		return []service.Task{}
	}
	tasks, err := decodeTasks([]byte(value))
	if err != nil {
		s.logger.Warn("ignoring invalid task record", "error", err)
		return []service.Task{}
	}
	return service.Normalize(tasks, s.NewID)
}

// Save implements Storage.
func (s *SQLiteStorage) Save(tasks []service.Task) {
	record, err := encodeTasks(tasks)
	if err != nil {
		s.logger.Warn("failed to encode tasks", "error", err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		RecordKey, string(record),
	)
	if err != nil {
		s.logger.Warn("failed to save tasks", "error", err)
	}
}
