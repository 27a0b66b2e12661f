// Package store keeps the todo list of the demo server in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no todo has the given key.
var ErrNotFound = errors.New("todo not found")

// Todo is one list item. Key doubles as the list key of the rendered item.
type Todo struct {
	Key       string    `json:"key"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"-"`
}

// Store wraps the database connection
type Store struct {
	db *sql.DB
}

// Open connects with driver ("sqlite" for modernc, "sqlite3" for mattn) and
// applies pending migrations.
func Open(ctx context.Context, driver, path string) (*Store, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns every todo, oldest first.
func (s *Store) List(ctx context.Context) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, text, done, created_at FROM todos ORDER BY created_at, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.Key, &t.Text, &t.Done, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Add inserts a new open todo.
func (s *Store) Add(ctx context.Context, text string) (Todo, error) {
	t := Todo{
		Key:       uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (key, text, done, created_at) VALUES (?, ?, ?, ?)`,
		t.Key, t.Text, t.Done, t.CreatedAt)
	if err != nil {
		return Todo{}, fmt.Errorf("failed to add todo: %w", err)
	}
	return t, nil
}

// Toggle flips the done flag of a todo.
func (s *Store) Toggle(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE todos SET done = NOT done WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to toggle todo: %w", err)
	}
	return expectOne(res, key)
}

// Delete removes a todo.
func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return expectOne(res, key)
}

// Seed adds n generated todos when the table is empty. It returns how many
// were added.
func (s *Store) Seed(ctx context.Context, faker *gofakeit.Faker, n int) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	for i := 0; i < n; i++ {
		if _, err := s.Add(ctx, faker.Sentence(4)); err != nil {
			return i, err
		}
	}
	return n, nil
}

func expectOne(res sql.Result, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}
