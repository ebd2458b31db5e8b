// Package analytics computes cross-client metrics over the interaction graph.
//
// Every metric is computed in Go over flat rows returned by the store, so the
// results are identical for every backend.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

const dateLayout = "2006-01-02"

type BreachedPromise struct {
	ClientID           string  `json:"clientId"`
	PromiseID          string  `json:"promiseId"`
	PromisedAmount     float64 `json:"promisedAmount"`
	PromiseDate        string  `json:"promiseDate"`
	TotalPaid          float64 `json:"totalPaid"`
	OutstandingBalance float64 `json:"outstandingBalance"`
}

type HourlyEffectiveness struct {
	Hour          int     `json:"hour"`
	SuccessCount  int     `json:"successCount"`
	TotalCount    int     `json:"totalCount"`
	Effectiveness float64 `json:"effectiveness"`
}

type AgentScorecard struct {
	AgentID           string  `json:"agentId"`
	Name              string  `json:"name"`
	Department        string  `json:"department"`
	TotalInteractions int     `json:"totalInteractions"`
	PromisesGenerated int     `json:"promisesGenerated"`
	PromisesFulfilled int     `json:"promisesFulfilled"`
	Renegotiations    int     `json:"renegotiations"`
	ImmediatePayments int     `json:"immediatePayments"`
	AmountCollected   float64 `json:"amountCollected"`
	Effectiveness     float64 `json:"effectiveness"`

	// AvgCallDuration is nil when none of the agent's interactions has a
	// recorded duration.
	AvgCallDuration *float64 `json:"avgCallDuration"`
}

type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

type GraphRelationship struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

type RelationshipGraph struct {
	Nodes         []GraphNode         `json:"nodes"`
	Relationships []GraphRelationship `json:"relationships"`
}

// Engine only reads from the store.
type Engine struct {
	store store.GraphStore
	now   func() time.Time
}

type Option func(*Engine)

// WithClock overrides the source of "today" used by breach detection.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(s store.GraphStore, opts ...Option) *Engine {
	e := &Engine{store: s, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) today() string {
	return e.now().UTC().Format(dateLayout)
}

func (e *Engine) query(ctx context.Context, stmt store.Statement) ([]store.Record, error) {
	records, err := e.store.RunQuery(ctx, stmt, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return records, nil
}

func (e *Engine) payments(ctx context.Context) ([]store.PaymentRow, error) {
	records, err := e.query(ctx, store.StmtAllPayments)
	if err != nil {
		return nil, err
	}
	return store.PaymentRows(records), nil
}

func (e *Engine) promises(ctx context.Context) ([]store.PromiseRow, error) {
	records, err := e.query(ctx, store.StmtAllPromises)
	if err != nil {
		return nil, err
	}
	return store.PromiseRows(records), nil
}

func (e *Engine) interactions(ctx context.Context) ([]store.InteractionRow, error) {
	records, err := e.query(ctx, store.StmtAllInteractions)
	if err != nil {
		return nil, err
	}
	return store.InteractionRows(records), nil
}

func paymentsByClient(payments []store.PaymentRow) map[string][]store.PaymentRow {
	out := make(map[string][]store.PaymentRow)
	for _, p := range payments {
		out[p.ClientID] = append(out[p.ClientID], p)
	}
	return out
}
