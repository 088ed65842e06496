package rs

import "time"

// Operation statuses recorded in the journal.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation is one journaled facade call.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Username   string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Journal keeps a history of mutating operations. It is an audit trail
// only; the JSON documents remain the source of truth.
type Journal interface {
	// Begin records the start of an operation and returns it with its ID set.
	Begin(name, parameters, username string, startedAt time.Time) (*Operation, error)

	// Finish records the outcome of an operation started with Begin.
	Finish(id int64, status string, finishedAt time.Time) error

	// List returns up to limit operations, newest first.
	List(limit int) ([]*Operation, error)

	// CheckSchema verifies the journal's schema is current.
	CheckSchema() error

	// Close releases the journal's resources.
	Close() error
}
