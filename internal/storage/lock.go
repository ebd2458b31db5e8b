package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/pgx"
)

const loadLeaseName = "graph_load"

// leaseLocker holds the graph_load lease for the duration of a load.
type leaseLocker struct {
	leases *leaselock.Client
	opts   leaselock.Options
}

func (l leaseLocker) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	err := l.leases.WithLease(ctx, loadLeaseName, l.opts, fn)
	if errors.Is(err, leaselock.ErrBusy) {
		return fmt.Errorf("%w: %w", loader.ErrLoadInProgress, err)
	}
	return err
}

// LoadLocker returns a cross-process load lock for backends that can hold
// one, or nil.
func LoadLocker(graph store.GraphStore) loader.Locker {
	pg, ok := graph.(*pgx.GraphDBStorage)
	if !ok {
		return nil
	}
	return leaseLocker{
		leases: pg.Leases(),
		opts:   leaselock.Options{TTL: 2 * time.Minute, HolderPrefix: "load-"},
	}
}
