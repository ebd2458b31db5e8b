// Package pgx stores the property graph in PostgreSQL. Nodes live in
// graph_nodes keyed by (label, id) with a JSONB property bag, relationships
// in graph_edges. Property columns are selected as JSONB so values come back
// as plain Go strings, float64 and bool.
package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dunning/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxIConn interface {
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	Begin(ctx context.Context) (pgxv5.Tx, error)
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgxv5.Row
}

// GraphDBStorage implements store.GraphStore on a pgx connection or pool.
type GraphDBStorage struct {
	conn  pgxIConn
	close func()
	sql   map[store.Statement]string
}

var _ store.GraphStore = (*GraphDBStorage)(nil)

// New opens a connection pool for databaseURL.
func New(ctx context.Context, databaseURL string) (*GraphDBStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrGraphUnavailable, err)
	}
	s := NewGraphDBStorageWithConnection(pool)
	s.close = pool.Close
	return s, nil
}

// Leases returns a lease client on the same connection. The graph_leases
// table is created by the migrations.
func (s *GraphDBStorage) Leases() *leaselock.Client {
	return leaselock.New(s.conn)
}

// NewGraphDBStorageWithConnection wraps an existing connection. The caller
// keeps ownership of conn.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{
		conn: conn,
		sql:  Catalog(),
	}
}

func (s *GraphDBStorage) TestConnection(ctx context.Context) bool {
	if s.conn == nil {
		logger.Error("[Store] Connection test failed", "backend", "postgres", "err", store.ErrGraphUnavailable)
		return false
	}
	if err := s.conn.Ping(ctx); err != nil {
		logger.Error("[Store] Connection test failed", "backend", "postgres", "err", err)
		return false
	}
	if _, err := s.RunQuery(ctx, store.StmtPing, nil); err != nil {
		logger.Error("[Store] Connection test failed", "backend", "postgres", "err", err)
		return false
	}
	return true
}

func (s *GraphDBStorage) RunQuery(ctx context.Context, stmt store.Statement, params map[string]any) ([]store.Record, error) {
	query, ok := s.sql[stmt]
	if !ok {
		return nil, fmt.Errorf("%s: %w", stmt, store.ErrUnsupported)
	}
	if s.conn == nil {
		return nil, store.ErrGraphUnavailable
	}

	rows, err := s.conn.Query(ctx, query, pgxv5.NamedArgs(sanitizeParams(params)))
	if err != nil {
		return nil, wrapError(stmt, err)
	}
	return collect(stmt, rows)
}

func (s *GraphDBStorage) RunInTransaction(ctx context.Context, ops []store.Op) (err error) {
	if s.conn == nil {
		return store.ErrGraphUnavailable
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return wrapError("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, op := range ops {
		query, ok := s.sql[op.Statement]
		if !ok {
			return fmt.Errorf("%s: %w", op.Statement, store.ErrUnsupported)
		}
		rows, qerr := tx.Query(ctx, query, pgxv5.NamedArgs(sanitizeParams(op.Params)))
		if qerr != nil {
			return wrapError(op.Statement, qerr)
		}
		records, cerr := collect(op.Statement, rows)
		if cerr != nil {
			return cerr
		}
		if err = store.CheckExpect(op, len(records)); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return wrapError("commit", err)
	}
	return nil
}

func (s *GraphDBStorage) Close(context.Context) error {
	if s.close != nil {
		s.close()
		s.close = nil
	}
	return nil
}

func collect(stmt store.Statement, rows pgxv5.Rows) ([]store.Record, error) {
	maps, err := pgxv5.CollectRows(rows, pgxv5.RowToMap)
	if err != nil {
		return nil, wrapError(stmt, err)
	}
	records := make([]store.Record, 0, len(maps))
	for _, m := range maps {
		records = append(records, store.Record(m))
	}
	return records, nil
}

func wrapError(stmt store.Statement, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %v", stmt, store.ErrGraphUnavailable, err)
	}
	return fmt.Errorf("%s: %w", stmt, err)
}
