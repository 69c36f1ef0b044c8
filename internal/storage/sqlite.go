package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dkwan/tasklens/internal/domain"
)

// SQLiteStorage is a task repository backed by a SQLite database file.
type SQLiteStorage struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dbPath string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStorage{conn: conn}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStorage) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			priority INTEGER NOT NULL DEFAULT 1,
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStorage) Create(task *domain.Task) error {
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO tasks (id, title, description, status, priority, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, string(task.Status), int(task.Priority),
		string(tags), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Update(id string, updates map[string]interface{}) (*domain.Task, error) {
	task, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updated := *task
	applyUpdates(&updated, updates)
	updated.UpdatedAt = time.Now()

	tags, err := json.Marshal(updated.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	_, err = s.conn.Exec(`
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		updated.Title, updated.Description, string(updated.Status), int(updated.Priority),
		string(tags), updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return &updated, nil
}

func (s *SQLiteStorage) Get(id string) (*domain.Task, error) {
	row := s.conn.QueryRow(`
		SELECT id, title, description, status, priority, tags, created_at, updated_at
		FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task with ID %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return task, nil
}

func (s *SQLiteStorage) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	rows, err := s.conn.Query(`
		SELECT id, title, description, status, priority, tags, created_at, updated_at
		FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var result []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		if matchesFilter(task, filter) {
			result = append(result, task)
		}
	}
	return result, rows.Err()
}

func (s *SQLiteStorage) Delete(id string) error {
	res, err := s.conn.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task with ID %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string
	var priority int
	var tags string

	err := row.Scan(&task.ID, &task.Title, &task.Description, &status, &priority,
		&tags, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.Priority(priority)
	if err := json.Unmarshal([]byte(tags), &task.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &task, nil
}
