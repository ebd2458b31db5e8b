package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = `{
  "metadata": {"generated_at": "2024-06-01T00:00:00Z", "total_clients": 2, "total_interactions": 5},
  "clients": [
    {"id": "C001", "name": "Ana Ruiz", "phone": "+34 600 000 001", "initial_debt_amount": 1500, "loan_date": "2023-11-02", "debt_type": "credit_card"},
    {"id": "C002", "name": "Bo Chen", "phone": "+34 600 000 002", "initial_debt_amount": 800.5, "loan_date": "2023-12-10", "debt_type": "auto"}
  ],
  "interactions": [
    {"id": "I001", "client_id": "C001", "timestamp": "2024-03-01T09:15:00Z", "type": "outbound_call", "agent_id": "A1",
     "result": "payment_promise", "sentiment": "cooperative", "duration_seconds": 240,
     "promised_amount": 500, "promise_date": "2024-03-15"},
    {"id": "I002", "client_id": "C001", "timestamp": "2024-03-10T14:00:00Z", "type": "payment_received",
     "amount": 300, "payment_method": "transfer", "complete_payment": false},
    {"id": "I003", "client_id": "C002", "timestamp": "2024-03-05T10:30:00Z", "type": "inbound_call", "agent_id": " A2 ",
     "result": "renegotiation", "new_payment_plan": {"installments": 6, "monthly_amount": 140}},
    {"id": "I004", "client_id": "C999", "timestamp": "2024-03-06T10:30:00Z", "type": "sms", "agent_id": "A1"},
    {"id": "I005", "client_id": "C002", "timestamp": "2024-03-07T11:00:00Z", "type": "email", "agent_id": "A1", "result": "no_answer"}
  ]
}`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interactions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("gen_%03d", n), nil
	}
}

func newTestLoader(s store.GraphStore, opts ...Option) *Loader {
	base := []Option{
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(sequentialIDs()),
	}
	return New(s, append(base, opts...)...)
}

func TestLoad(t *testing.T) {
	s := memory.New()
	stats, err := newTestLoader(s).Load(context.Background(), writeDataset(t, dataset))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ClientsLoaded)
	assert.Equal(t, 2, stats.DebtsLoaded)
	assert.Equal(t, 2, stats.AgentsLoaded)
	assert.Equal(t, 4, stats.InteractionsLoaded)
	assert.Equal(t, 1, stats.PaymentsLoaded)
	assert.Equal(t, 1, stats.PromisesLoaded)
	assert.Equal(t, 1, stats.RenegotiationsLoaded)
	require.Len(t, stats.Errors, 1)
	assert.True(t, strings.HasPrefix(stats.Errors[0], "interaction I004: "), stats.Errors[0])

	assert.Equal(t, 2, s.CountLabel(store.LabelClient))
	assert.Equal(t, 2, s.CountLabel(store.LabelDebt))
	assert.Equal(t, 2, s.CountLabel(store.LabelAgent))
	assert.Equal(t, 4, s.CountLabel(store.LabelInteraction))
	assert.Equal(t, 1, s.CountLabel(store.LabelPayment))

	debts, err := s.RunQuery(context.Background(), store.StmtClientDebts, map[string]any{"client_id": "C001"})
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, "debt_C001", debts[0].String("id"))
	assert.Equal(t, common.DebtPending, debts[0].String("status"))
	assert.Equal(t, debts[0]["original_amount"], debts[0]["current_amount"])

	agents, err := s.RunQuery(context.Background(), store.StmtListAgents, nil)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "A2", agents[1].String("id"))
	assert.Equal(t, "Agent A2", agents[1].String("name"))
	assert.Equal(t, common.DefaultAgentDepartment, agents[1].String("department"))

	payments, err := s.RunQuery(context.Background(), store.StmtClientPayments, map[string]any{"client_id": "C001"})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "2024-03-10", payments[0].String("date"))
	assert.Equal(t, "I002", payments[0].String("interaction_id"))
	assert.False(t, payments[0].Has("agent_id"))
}

func TestLoadKeepsTimestampOffsets(t *testing.T) {
	s := memory.New()
	stats, err := newTestLoader(s).Load(context.Background(), writeDataset(t, `{
  "clients": [{"id": "C1", "name": "Ana", "phone": "1", "initial_debt_amount": 900, "loan_date": "2023-12-01", "debt_type": "auto"}],
  "interactions": [
    {"id": "I1", "client_id": "C1", "timestamp": "2024-01-10T10:00:00-05:00", "type": "outbound_call",
     "result": "payment_promise", "promised_amount": 500, "promise_date": "2024-01-25"},
    {"id": "I2", "client_id": "C1", "timestamp": "2024-01-25T21:00:00-05:00", "type": "payment_received", "amount": 500},
    {"id": "I3", "client_id": "C1", "timestamp": "2024-01-15T10:30:00", "type": "sms"},
    {"id": "I4", "client_id": "C1", "timestamp": "15/01/2024 10:30", "type": "sms"}
  ]
}`))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.InteractionsLoaded)
	require.Len(t, stats.Errors, 1)
	assert.True(t, strings.HasPrefix(stats.Errors[0], "interaction I4: "), stats.Errors[0])

	rows, err := s.RunQuery(context.Background(), store.StmtAllInteractions, nil)
	require.NoError(t, err)
	stamps := map[string]string{}
	for _, r := range store.InteractionRows(rows) {
		stamps[r.ID] = r.Timestamp
	}
	assert.Equal(t, "2024-01-25T21:00:00-05:00", stamps["I2"])
	assert.Equal(t, "2024-01-15T10:30:00Z", stamps["I3"])

	rows, err = s.RunQuery(context.Background(), store.StmtAllPayments, nil)
	require.NoError(t, err)
	payments := store.PaymentRows(rows)
	require.Len(t, payments, 1)
	assert.Equal(t, "2024-01-25", store.DatePart(payments[0].Timestamp))
	assert.Equal(t, 500.0, store.PaidBy(payments, "2024-01-25"))
}

func TestLoadIsIdempotent(t *testing.T) {
	s := memory.New()
	path := writeDataset(t, dataset)

	first, err := newTestLoader(s).Load(context.Background(), path)
	require.NoError(t, err)
	nodes, rels := s.Counts()

	second, err := newTestLoader(s).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	n2, r2 := s.Counts()
	assert.Equal(t, nodes, n2)
	assert.Equal(t, rels, r2)
}

func TestLoadRecordErrorsDoNotAbort(t *testing.T) {
	content := `{
  "clients": [
    {"id": "", "name": "No Id", "initial_debt_amount": 10},
    {"id": "C001", "name": "Ana", "initial_debt_amount": "lots"},
    {"id": "C002", "name": "Bo", "initial_debt_amount": 100, "loan_date": "2024-01-01"},
    {"id": "C002", "name": "Bo again", "initial_debt_amount": 100}
  ],
  "interactions": [
    {"id": "I001", "client_id": "C002", "timestamp": "yesterday", "type": "sms"},
    {"id": "I002", "client_id": "C002", "timestamp": "2024-02-01T08:00:00+02:00", "type": "sms"},
    {"id": "I003", "client_id": "C002", "timestamp": "2024-02-02T08:00:00Z", "type": "outbound_call",
     "result": "payment_promise", "promised_amount": 50, "promise_date": "soon"}
  ]
}`
	s := memory.New()
	stats, err := newTestLoader(s).Load(context.Background(), writeDataset(t, content))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ClientsLoaded)
	assert.Equal(t, 1, stats.InteractionsLoaded)
	assert.Equal(t, 0, stats.PromisesLoaded)
	assert.Len(t, stats.Errors, 5)
	joined := strings.Join(stats.Errors, "\n")
	assert.Contains(t, joined, "client C001: ")
	assert.Contains(t, joined, "client C002: ")
	assert.Contains(t, joined, "interaction I001: ")
	assert.Contains(t, joined, "interaction I003: ")

	rows, err := s.RunQuery(context.Background(), store.StmtClientInteractions, map[string]any{"client_id": "C002"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-02-01T06:00:00Z", rows[0].String("timestamp"))
}

func TestLoadStoreUnavailable(t *testing.T) {
	s := memory.New()
	s.SetAvailable(false)

	var observed error
	l := newTestLoader(s, WithObserver(observerFunc(func(_ common.LoadStats, _ time.Duration, err error) {
		observed = err
	})))
	_, err := l.Load(context.Background(), writeDataset(t, dataset))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, observed, ErrStoreUnavailable)

	s.SetAvailable(true)
	nodes, _ := s.Counts()
	assert.Zero(t, nodes)
}

func TestLoadMalformedSource(t *testing.T) {
	tests := map[string]string{
		"not json":             `{"clients": [`,
		"missing interactions": `{"clients": []}`,
		"clients not an array": `{"clients": {}, "interactions": []}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			s := memory.New()
			_, err := newTestLoader(s).Load(context.Background(), writeDataset(t, content))
			assert.ErrorIs(t, err, ErrMalformedSource)
		})
	}

	t.Run("unreadable file", func(t *testing.T) {
		_, err := newTestLoader(memory.New()).Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, ErrMalformedSource)
	})

	t.Run("previous graph survives a malformed source", func(t *testing.T) {
		s := memory.New()
		_, err := newTestLoader(s).Load(context.Background(), writeDataset(t, dataset))
		require.NoError(t, err)
		_, err = newTestLoader(s).Load(context.Background(), writeDataset(t, `{"clients": []}`))
		require.ErrorIs(t, err, ErrMalformedSource)
		assert.Equal(t, 2, s.CountLabel(store.LabelClient))
	})
}

func TestLoadJSONRepair(t *testing.T) {
	damaged := `{"clients": [{"id": "C001", "name": "Ana", "initial_debt_amount": 10,}], "interactions": [],}`

	_, err := newTestLoader(memory.New()).Load(context.Background(), writeDataset(t, damaged))
	require.ErrorIs(t, err, ErrMalformedSource)

	stats, err := newTestLoader(memory.New(), WithJSONRepair(true)).Load(context.Background(), writeDataset(t, damaged))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ClientsLoaded)
}

type staticReader map[string]string

func (r staticReader) ReadSource(_ context.Context, path string) ([]byte, error) {
	body, ok := r[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(body), nil
}

func TestLoadRoutesByPrefix(t *testing.T) {
	s := memory.New()
	l := newTestLoader(s, WithReader("s3://", staticReader{"s3://bucket/in.json": dataset}))
	stats, err := l.Load(context.Background(), "s3://bucket/in.json")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ClientsLoaded)
}

func TestLoadProgressChunks(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"clients": [{"id": "C001", "name": "Ana", "initial_debt_amount": 10}], "interactions": [`)
	for i := range 120 {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id": "I%03d", "client_id": "C001", "timestamp": "2024-01-01T10:00:00Z", "type": "sms"}`, i)
	}
	b.WriteString("]}")

	stats, err := newTestLoader(memory.New(), WithProgressInterval(50)).Load(context.Background(), writeDataset(t, b.String()))
	require.NoError(t, err)
	assert.Equal(t, 120, stats.InteractionsLoaded)
	assert.Empty(t, stats.Errors)
}

func TestSchema(t *testing.T) {
	schema := Schema()
	require.NotNil(t, schema.Properties)
	_, ok := schema.Properties.Get("clients")
	assert.True(t, ok)
	assert.Contains(t, schema.Required, "interactions")
}

type observerFunc func(common.LoadStats, time.Duration, error)

func (f observerFunc) ObserveLoad(stats common.LoadStats, elapsed time.Duration, err error) {
	f(stats, elapsed, err)
}

type lockerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f lockerFunc) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

func TestLoadRunsUnderLock(t *testing.T) {
	s := memory.New()
	held := false
	lk := lockerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		held = true
		defer func() { held = false }()
		return fn(ctx)
	})

	var observed error
	l := newTestLoader(s, WithLocker(lk), WithObserver(observerFunc(func(_ common.LoadStats, _ time.Duration, err error) {
		observed = err
	})))
	stats, err := l.Load(context.Background(), writeDataset(t, dataset))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.InteractionsLoaded)
	assert.False(t, held)
	assert.NoError(t, observed)
}

func TestLoadLockBusy(t *testing.T) {
	s := memory.New()
	lk := lockerFunc(func(context.Context, func(context.Context) error) error {
		return fmt.Errorf("lease: %w", ErrLoadInProgress)
	})

	stats, err := newTestLoader(s, WithLocker(lk)).Load(context.Background(), writeDataset(t, dataset))
	require.ErrorIs(t, err, ErrLoadInProgress)
	assert.Zero(t, stats.ClientsLoaded)
	assert.Zero(t, s.CountLabel("Client"))
}
