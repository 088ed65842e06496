// Package migrations holds the journal schema and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var schemaFiles embed.FS

// ErrUninitialized is returned by Check for a journal that never had Apply run.
var ErrUninitialized = errors.New("journal has no schema version")

// Status describes where a journal database stands against the embedded schema.
type Status struct {
	Version uint // 0 when uninitialized
	Latest  uint
	Dirty   bool
}

// Err explains why s is not usable, or returns nil when it is current.
func (s Status) Err() error {
	switch {
	case s.Version == 0:
		return fmt.Errorf("%w (run any rulingsafe command to create it)", ErrUninitialized)
	case s.Dirty:
		return fmt.Errorf("journal schema %d was left half-applied", s.Version)
	case s.Version < s.Latest:
		return fmt.Errorf("journal schema %d is older than %d", s.Version, s.Latest)
	case s.Version > s.Latest:
		return fmt.Errorf("journal schema %d was written by a newer rulingsafe (this one knows %d)", s.Version, s.Latest)
	}
	return nil
}

// ReadStatus reports the schema version of db. db stays open; the caller owns it.
func ReadStatus(db *sql.DB) (Status, error) {
	latest, err := Latest()
	if err != nil {
		return Status{}, err
	}
	m, err := migrator(db)
	if err != nil {
		return Status{}, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("reading journal schema version: %w", err)
	}
	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Check returns nil when db is at the embedded schema version.
func Check(db *sql.DB) error {
	st, err := ReadStatus(db)
	if err != nil {
		return err
	}
	return st.Err()
}

// Apply brings db up to the embedded schema. A current journal is left alone.
func Apply(db *sql.DB) error {
	m, err := migrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying journal schema: %w", err)
	}
	return nil
}

// Latest returns the newest schema version embedded in the binary.
func Latest() (uint, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading journal schema files: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

// migrator wraps db without taking ownership; closing the result would close db.
func migrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading journal schema files: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("opening journal for migration: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing journal migration: %w", err)
	}
	return m, nil
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("journal schema files are empty: %w", err)
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
