// Package neo4j implements store.GraphStore against a Neo4j database using
// the official Bolt driver.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds the connection settings for a Neo4j backend.
type Config struct {
	URI      string
	Username string
	Password string
	// Database is the target database; empty selects the server default.
	Database string

	MaxConnectionPoolSize int
	ConnectionTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		URI:                   "neo4j://localhost:7687",
		Username:              "neo4j",
		Password:              "password",
		MaxConnectionPoolSize: 50,
		ConnectionTimeout:     30 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.URI == "" {
		return errors.New("neo4j: URI cannot be empty")
	}
	if c.Username == "" {
		return errors.New("neo4j: username cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return errors.New("neo4j: connection timeout must be positive")
	}
	return nil
}

// GraphStore talks to Neo4j. Every call opens its own session and closes it
// before returning.
type GraphStore struct {
	config Config
	driver neo4j.DriverWithContext
	cypher map[store.Statement]string
}

var _ store.GraphStore = (*GraphStore)(nil)

// New creates the driver. It does not verify connectivity; use
// TestConnection for that.
func New(config Config) (*GraphStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	auth := neo4j.BasicAuth(config.Username, config.Password, "")
	driver, err := neo4j.NewDriverWithContext(config.URI, auth, func(c *neo4j.Config) {
		if config.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = config.MaxConnectionPoolSize
		}
		c.ConnectionAcquisitionTimeout = config.ConnectionTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	return &GraphStore{
		config: config,
		driver: driver,
		cypher: Catalog(),
	}, nil
}

func (s *GraphStore) session(ctx context.Context) (neo4j.SessionWithContext, error) {
	if s.driver == nil {
		return nil, store.ErrGraphUnavailable
	}
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.config.Database}), nil
}

func (s *GraphStore) TestConnection(ctx context.Context) bool {
	if _, err := s.RunQuery(ctx, store.StmtPing, nil); err != nil {
		logger.Error("[Store] Connection test failed", "backend", "neo4j", "uri", s.config.URI, "err", err)
		return false
	}
	logger.Debug("[Store] Connected", "backend", "neo4j", "uri", s.config.URI)
	return true
}

func (s *GraphStore) RunQuery(ctx context.Context, stmt store.Statement, params map[string]any) ([]store.Record, error) {
	query, ok := s.cypher[stmt]
	if !ok {
		return nil, fmt.Errorf("%s: %w", stmt, store.ErrUnsupported)
	}

	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, wrapError(stmt, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, wrapError(stmt, err)
	}
	return convertRecords(records), nil
}

func (s *GraphStore) RunInTransaction(ctx context.Context, ops []store.Op) error {
	session, err := s.session(ctx)
	if err != nil {
		return err
	}
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return wrapError("begin", err)
	}

	for _, op := range ops {
		query, ok := s.cypher[op.Statement]
		if !ok {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("%s: %w", op.Statement, store.ErrUnsupported)
		}
		result, err := tx.Run(ctx, query, op.Params)
		if err != nil {
			_ = tx.Rollback(ctx)
			return wrapError(op.Statement, err)
		}
		records, err := result.Collect(ctx)
		if err != nil {
			_ = tx.Rollback(ctx)
			return wrapError(op.Statement, err)
		}
		if err := store.CheckExpect(op, len(records)); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapError("commit", err)
	}
	return nil
}

func (s *GraphStore) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

func wrapError(stmt store.Statement, err error) error {
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%s: %w: %v", stmt, store.ErrGraphUnavailable, err)
	}
	return fmt.Errorf("%s: %w", stmt, err)
}

func convertRecords(records []*neo4j.Record) []store.Record {
	rows := make([]store.Record, 0, len(records))
	for _, record := range records {
		row := make(store.Record, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		rows = append(rows, row)
	}
	return rows
}
