package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rulingsafe/internal/journal/migrations"
	"rulingsafe/internal/rs"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const timeLayout = time.RFC3339Nano

// SQLiteJournal implements rs.Journal on a SQLite database.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens the journal at path (a file path or ":memory:")
// and brings its schema up to date.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Apply(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (j *SQLiteJournal) Begin(name, parameters, username string, startedAt time.Time) (*rs.Operation, error) {
	res, err := j.db.ExecContext(context.Background(),
		`INSERT INTO operations (operation, parameters, username, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		name, parameters, username, rs.StatusRunning, startedAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &rs.Operation{
		ID:         id,
		Name:       name,
		Parameters: parameters,
		Username:   username,
		Status:     rs.StatusRunning,
		StartedAt:  startedAt,
	}, nil
}

func (j *SQLiteJournal) Finish(id int64, status string, finishedAt time.Time) error {
	res, err := j.db.ExecContext(context.Background(),
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("operation %d %w", id, rs.ErrNotFound)
	}
	return nil
}

func (j *SQLiteJournal) List(limit int) ([]*rs.Operation, error) {
	rows, err := j.db.QueryContext(context.Background(),
		`SELECT id, operation, parameters, username, status, started_at, finished_at
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*rs.Operation
	for rows.Next() {
		var (
			op       rs.Operation
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&op.ID, &op.Name, &op.Parameters, &op.Username, &op.Status, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if op.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of operation %d: %w", op.ID, err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parsing finished_at of operation %d: %w", op.ID, err)
			}
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (j *SQLiteJournal) Path() string {
	return j.path
}

// CheckSchema verifies the journal schema is up-to-date.
func (j *SQLiteJournal) CheckSchema() error {
	return migrations.Check(j.db)
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteJournal implements rs.Journal
var _ rs.Journal = (*SQLiteJournal)(nil)
