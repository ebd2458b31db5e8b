// Package memory is an in-process GraphStore. It backs the test suites and
// GRAPH_BACKEND=memory for local development. Statements have the same row
// shapes as the neo4j and pgx catalogs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

type handler func(g *graph, params map[string]any) ([]store.Record, error)

// Store implements store.GraphStore on top of an in-memory graph.
type Store struct {
	mu          sync.Mutex
	g           *graph
	unavailable bool
	handlers    map[store.Statement]handler
}

var _ store.GraphStore = (*Store)(nil)

func New() *Store {
	return &Store{
		g:        newGraph(),
		handlers: catalog(),
	}
}

// SetAvailable simulates the backend going away or coming back.
func (s *Store) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = !available
}

func (s *Store) TestConnection(ctx context.Context) bool {
	if _, err := s.RunQuery(ctx, store.StmtPing, nil); err != nil {
		logger.Error("[Store] Connection test failed", "backend", "memory", "err", err)
		return false
	}
	return true
}

func (s *Store) RunQuery(ctx context.Context, stmt store.Statement, params map[string]any) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil, store.ErrGraphUnavailable
	}

	h, ok := s.handlers[stmt]
	if !ok {
		return nil, fmt.Errorf("%s: %w", stmt, store.ErrUnsupported)
	}

	m := s.g.mark()
	rows, err := h(s.g, params)
	if err != nil {
		s.g.rollback(m)
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return rows, nil
}

func (s *Store) RunInTransaction(ctx context.Context, ops []store.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return store.ErrGraphUnavailable
	}

	// A reset cannot be undone by truncation; keep a full copy for it.
	var snapshot *graph
	for _, op := range ops {
		if op.Statement == store.StmtResetGraph {
			snapshot = s.g.clone()
			break
		}
	}
	m := s.g.mark()
	undo := func() {
		if snapshot != nil {
			s.g = snapshot
			return
		}
		s.g.rollback(m)
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			undo()
			return err
		}
		h, ok := s.handlers[op.Statement]
		if !ok {
			undo()
			return fmt.Errorf("%s: %w", op.Statement, store.ErrUnsupported)
		}
		rows, err := h(s.g, op.Params)
		if err != nil {
			undo()
			return fmt.Errorf("%s: %w", op.Statement, err)
		}
		if err := store.CheckExpect(op, len(rows)); err != nil {
			undo()
			return err
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Counts returns the number of nodes and relationships currently stored.
func (s *Store) Counts() (nodes int, relationships int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.g.nodes), len(s.g.edges)
}

// CountLabel returns the number of nodes carrying label.
func (s *Store) CountLabel(label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.g.all(label))
}
