// Package leaselock implements an expiring, renewable named lease stored in
// PostgreSQL. The ingestion pipeline holds one while it rewrites the graph so
// that the server and the worker never load concurrently.
package leaselock

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrBusy = errors.New("lease busy")
	ErrLost = errors.New("lease lost")
)

// DBConn is satisfied by *pgxpool.Pool and by pgxmock pools.
type DBConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Client struct {
	db DBConn
}

type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	// Wait keeps polling until the lease frees up instead of failing with
	// ErrBusy.
	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration

	HolderPrefix string
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Minute
	}
	if o.RenewEvery <= 0 || o.RenewEvery >= o.TTL {
		o.RenewEvery = max(o.TTL/2, time.Second)
	}
	if o.WaitInterval <= 0 {
		o.WaitInterval = 250 * time.Millisecond
	}
	if o.WaitJitter < 0 {
		o.WaitJitter = 0
	}
	return o
}

type Lease struct {
	Name   string
	Holder string

	// Context is canceled when the lease is released or lost.
	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(db DBConn) *Client {
	return &Client{db: db}
}

// WithLease runs fn while holding the named lease.
func (c *Client) WithLease(ctx context.Context, name string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, name, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	if err := fn(lease.Context); err != nil {
		return err
	}
	if cause := context.Cause(lease.Context); errors.Is(cause, ErrLost) {
		return ErrLost
	}
	return nil
}

func (c *Client) Acquire(ctx context.Context, name string, opts Options) (*Lease, error) {
	if name == "" {
		return nil, errors.New("lease name is empty")
	}
	opts = opts.withDefaults()
	ttlMs := opts.TTL.Milliseconds()

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	holder := opts.HolderPrefix + id

	for {
		ok, err := c.tryAcquire(ctx, name, holder, ttlMs)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Name:    name,
		Holder:  holder,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}

	go l.renewLoop(opts.RenewEvery, ttlMs)

	return l, nil
}

func (c *Client) tryAcquire(ctx context.Context, name, holder string, ttlMs int64) (bool, error) {
	var got string
	err := c.db.QueryRow(ctx, acquireSQL, name, holder, ttlMs).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return got != "", nil
}

func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Name, l.Holder)
	return err
}

func (l *Lease) renewLoop(every time.Duration, ttlMs int64) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

// renewOnce tries three times before giving up. A missing row means another
// holder took over after expiry.
func (l *Lease) renewOnce(ttlMs int64) error {
	var err error
	for attempt := range 3 {
		if attempt > 0 {
			if serr := sleepWithJitter(l.Context, 200*time.Millisecond, 0); serr != nil {
				return serr
			}
		}
		renewCtx, cancel := context.WithTimeout(l.Context, 15*time.Second)
		var got string
		err = l.client.db.QueryRow(renewCtx, renewSQL, l.Name, l.Holder, ttlMs).Scan(&got)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
	}
	return err
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const acquireSQL = `
INSERT INTO graph_leases (name, holder, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (name) DO UPDATE
SET holder     = EXCLUDED.holder,
    expires_at = EXCLUDED.expires_at
WHERE graph_leases.expires_at < now()
   OR graph_leases.holder = EXCLUDED.holder
RETURNING name
`

const renewSQL = `
UPDATE graph_leases
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE name = $1 AND holder = $2
RETURNING name
`

const releaseSQL = `
DELETE FROM graph_leases
WHERE name = $1 AND holder = $2
`
