package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/memory"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/neo4j"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/pgx"
)

const (
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Neo4jConfig reads the NEO4J_* environment on top of the driver defaults.
func Neo4jConfig() neo4j.Config {
	cfg := neo4j.DefaultConfig()
	cfg.URI = util.GetEnvString("NEO4J_URI", cfg.URI)
	cfg.Username = util.GetEnvString("NEO4J_USER", cfg.Username)
	cfg.Password = util.GetEnvString("NEO4J_PASSWORD", cfg.Password)
	cfg.Database = util.GetEnv("NEO4J_DATABASE")
	return cfg
}

func MigrationsPath() string {
	return util.GetEnvString("MIGRATIONS_PATH", "migrations")
}

// OpenGraphStore opens the backend named by GRAPH_BACKEND. Opening is retried
// a few times because the database container often starts after us.
// The postgres backend applies pending migrations first.
func OpenGraphStore(ctx context.Context) (store.GraphStore, error) {
	backend := util.GetEnvString("GRAPH_BACKEND", BackendNeo4j)
	logger.Info("[Store] Opening graph backend", "backend", backend)

	var open func(ctx context.Context) (store.GraphStore, error)
	switch backend {
	case BackendNeo4j:
		open = func(context.Context) (store.GraphStore, error) {
			s, err := neo4j.New(Neo4jConfig())
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	case BackendPostgres:
		databaseURL := util.GetEnv("DATABASE_URL")
		open = func(ctx context.Context) (store.GraphStore, error) {
			if err := pgx.Migrate(databaseURL, MigrationsPath()); err != nil {
				return nil, err
			}
			s, err := pgx.New(ctx, databaseURL)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	case BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown GRAPH_BACKEND %q", backend)
	}

	return util.RetryWithContext(ctx, 5, 2*time.Second, open)
}
