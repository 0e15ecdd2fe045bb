package todoapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"todosync/internal/service"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS todos (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	extra      JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore is a Store backed by a Postgres table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and creates the todos table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres: empty connection string")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) List(ctx context.Context) ([]service.Task, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, completed, extra FROM todos ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (p *PostgresStore) Create(ctx context.Context, task service.Task) (service.Task, error) {
	task = task.Clone()
	task.ID = uuid.NewString()
	task.Title = strings.TrimSpace(task.Title)
	extra, err := encodeExtra(task.Extra)
	if err != nil {
		return service.Task{}, err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, completed, extra) VALUES ($1, $2, $3, $4)`,
		task.ID, task.Title, task.Completed, extra)
	if err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Update applies patch inside a transaction so concurrent patches to the
// same row do not lose fields.
func (p *PostgresStore) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return service.Task{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, title, completed, extra FROM todos WHERE id = $1 FOR UPDATE`, id)
	current, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Task{}, ErrNotFound
	}
	if err != nil {
		return service.Task{}, err
	}

	updated := patch.Apply(current)
	extra, err := encodeExtra(updated.Extra)
	if err != nil {
		return service.Task{}, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE todos SET title = $2, completed = $3, extra = $4 WHERE id = $1`,
		id, updated.Title, updated.Completed, extra)
	if err != nil {
		return service.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return service.Task{}, err
	}
	return updated, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (service.Task, error) {
	var (
		t     service.Task
		extra []byte
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Completed, &extra); err != nil {
		return service.Task{}, err
	}
	if len(extra) > 0 {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(extra, &m); err != nil {
			return service.Task{}, fmt.Errorf("todo %s: extra: %w", t.ID, err)
		}
		if len(m) > 0 {
			t.Extra = m
		}
	}
	return t, nil
}

func encodeExtra(extra map[string]json.RawMessage) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
