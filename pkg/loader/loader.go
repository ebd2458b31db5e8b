package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	fileio "github.com/OFFIS-RIT/dunning/backend/pkg/loader/io"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"

	"github.com/go-playground/validator"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrStoreUnavailable is returned when the connectivity check before a
	// load fails. Nothing has been written at that point.
	ErrStoreUnavailable = errors.New("graph store unavailable")

	// ErrMalformedSource is returned when the dataset cannot be read or does
	// not contain the clients and interactions arrays.
	ErrMalformedSource = errors.New("malformed source")

	// ErrLoadInProgress is returned when another process holds the load lock.
	ErrLoadInProgress = errors.New("load already in progress")
)

// DefaultProgressInterval is the number of interactions between progress logs.
const DefaultProgressInterval = 50

// SourceReader fetches the raw bytes of a dataset document.
type SourceReader interface {
	ReadSource(ctx context.Context, path string) ([]byte, error)
}

// Observer is notified once per load cycle, successful or not.
type Observer interface {
	ObserveLoad(stats common.LoadStats, elapsed time.Duration, err error)
}

// Locker serializes ingestion cycles across processes sharing one graph.
// fn runs with a context that is canceled if the lock is lost.
type Locker interface {
	WithLock(ctx context.Context, fn func(ctx context.Context) error) error
}

// Loader runs the ingestion pipeline. It is the only writer of the graph.
// A Loader is not meant to run two loads concurrently against the same store.
type Loader struct {
	store    store.GraphStore
	readers  map[string]SourceReader
	fallback SourceReader
	validate *validator.Validate
	observer Observer
	locker   Locker

	repair           bool
	progressInterval int
	now              func() time.Time
	newID            func() (string, error)
}

type Option func(*Loader)

// WithReader routes every path starting with prefix (for example "s3://")
// to r. Paths without a matching prefix are read from the filesystem.
func WithReader(prefix string, r SourceReader) Option {
	return func(l *Loader) {
		l.readers[prefix] = r
	}
}

// WithJSONRepair enables one repair pass over documents that fail to parse.
func WithJSONRepair(enabled bool) Option {
	return func(l *Loader) {
		l.repair = enabled
	}
}

func WithObserver(o Observer) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

// WithLocker makes every load run while holding lk.
func WithLocker(lk Locker) Option {
	return func(l *Loader) {
		l.locker = lk
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) Option {
	return func(l *Loader) {
		l.newID = newID
	}
}

func WithProgressInterval(n int) Option {
	return func(l *Loader) {
		l.progressInterval = n
	}
}

// New creates a Loader writing to s.
func New(s store.GraphStore, opts ...Option) *Loader {
	l := &Loader{
		store:            s,
		readers:          map[string]SourceReader{},
		fallback:         fileio.NewFileSourceReader(),
		validate:         newValidator(),
		progressInterval: DefaultProgressInterval,
		now:              time.Now,
		newID:            func() (string, error) { return gonanoid.New() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		_, err := common.ParseTimestamp(fl.Field().String())
		return err == nil
	})
	return v
}

// Load runs one full ingestion cycle from the dataset at path: connectivity
// check, parse, reset, constraints, clients, agents, interactions.
//
// Per-record problems never fail the load; they are returned in
// LoadStats.Errors. An error is returned only for pipeline level failures.
func (l *Loader) Load(ctx context.Context, path string) (stats common.LoadStats, err error) {
	start := l.now()
	stats.Errors = []string{}
	defer func() {
		if l.observer != nil {
			l.observer.ObserveLoad(stats, l.now().Sub(start), err)
		}
	}()

	if l.locker == nil {
		stats, err = l.run(ctx, path, stats)
		return stats, err
	}
	err = l.locker.WithLock(ctx, func(ctx context.Context) error {
		var runErr error
		stats, runErr = l.run(ctx, path, stats)
		return runErr
	})
	return stats, err
}

func (l *Loader) run(ctx context.Context, path string, stats common.LoadStats) (common.LoadStats, error) {
	start := l.now()
	if !l.store.TestConnection(ctx) {
		return stats, ErrStoreUnavailable
	}

	ds, decodeErrs, err := l.readDataset(ctx, path)
	if err != nil {
		return stats, err
	}
	logger.Info("[Loader] Dataset parsed", "path", path, "clients", len(ds.Clients), "interactions", len(ds.Interactions))
	for _, msg := range decodeErrs {
		logger.Warn("[Loader] Skipping record", "err", msg)
		stats = stats.WithError(msg)
	}

	if err := l.reset(ctx); err != nil {
		return stats, err
	}
	l.createConstraints(ctx)

	clients, err := l.loadClients(ctx, ds.Clients)
	stats = stats.Merge(clients)
	if err != nil {
		return stats, err
	}

	agents, err := l.loadAgents(ctx, ds.Interactions)
	stats = stats.Merge(agents)
	if err != nil {
		return stats, err
	}

	interactions, err := l.loadInteractions(ctx, ds.Interactions)
	stats = stats.Merge(interactions)
	if err != nil {
		return stats, err
	}

	logger.Info("[Loader] Load complete",
		"clients", stats.ClientsLoaded,
		"debts", stats.DebtsLoaded,
		"agents", stats.AgentsLoaded,
		"interactions", stats.InteractionsLoaded,
		"payments", stats.PaymentsLoaded,
		"promises", stats.PromisesLoaded,
		"renegotiations", stats.RenegotiationsLoaded,
		"errors", len(stats.Errors),
		"duration", l.now().Sub(start),
	)
	return stats, nil
}

func (l *Loader) readerFor(path string) SourceReader {
	for prefix, r := range l.readers {
		if strings.HasPrefix(path, prefix) {
			return r
		}
	}
	return l.fallback
}

// reset wipes the graph. Dropping schema constraints is best effort.
func (l *Loader) reset(ctx context.Context) error {
	logger.Info("[Loader] Resetting graph")
	if _, err := l.store.RunQuery(ctx, store.StmtResetGraph, nil); err != nil {
		return fmt.Errorf("reset graph: %w", err)
	}
	if _, err := l.store.RunQuery(ctx, store.StmtDropConstraints, nil); err != nil {
		logAdvisory("drop constraints", err)
	}
	return nil
}

func (l *Loader) createConstraints(ctx context.Context) {
	for _, stmt := range store.ConstraintStatements {
		if _, err := l.store.RunQuery(ctx, stmt, nil); err != nil {
			logAdvisory(string(stmt), err)
		}
	}
}

func logAdvisory(step string, err error) {
	if errors.Is(err, store.ErrUnsupported) {
		logger.Debug("[Loader] Step not supported by backend", "step", step)
		return
	}
	logger.Warn("[Loader] Advisory step failed", "step", step, "err", err)
}
