package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrGraphUnavailable is returned when a session or connection to the
	// graph backend cannot be opened.
	ErrGraphUnavailable = errors.New("graph store unavailable")

	// ErrUnsupported is returned when a backend has no implementation for a
	// statement. Callers running advisory steps treat it as a no-op.
	ErrUnsupported = errors.New("statement not supported by backend")
)

// Record is one result row keyed by column alias.
type Record map[string]any

// Op is a single statement executed inside a transaction. When Expect is
// greater than zero the op fails unless at least that many rows come back,
// which rolls the whole transaction back.
type Op struct {
	Statement Statement
	Params    map[string]any
	Expect    int
}

// GraphStore is the contract every property graph backend implements. The
// ingestion pipeline is the only writer; timeline and analytics only read.
type GraphStore interface {
	// TestConnection runs a trivial statement. It never returns an error;
	// failures are logged and reported as false.
	TestConnection(ctx context.Context) bool

	// RunQuery executes one statement in its own session and returns the
	// raw rows. The session is closed on every exit path.
	RunQuery(ctx context.Context, stmt Statement, params map[string]any) ([]Record, error)

	// RunInTransaction executes ops in order inside one transaction. It
	// commits when all succeed and rolls back on the first failure.
	RunInTransaction(ctx context.Context, ops []Op) error

	Close(ctx context.Context) error
}

// String returns the string value for key, or "" when absent or not a string.
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the boolean value for key, or false when absent.
func (r Record) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// ErrExpectationFailed is returned when an Op with Expect set produced fewer
// rows than required, typically because a referenced node does not exist.
var ErrExpectationFailed = errors.New("statement matched fewer rows than expected")

// CheckExpect validates the row count of an executed op.
func CheckExpect(op Op, rows int) error {
	if op.Expect > 0 && rows < op.Expect {
		return fmt.Errorf("%s returned %d rows, want %d: %w", op.Statement, rows, op.Expect, ErrExpectationFailed)
	}
	return nil
}
