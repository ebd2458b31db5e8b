package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newService(s store.GraphStore) *Service {
	return NewService(s, WithClock(func() time.Time { return fixedNow }))
}

func seedClient(t *testing.T, s store.GraphStore, id, name string, amount float64) {
	t.Helper()
	require.NoError(t, s.RunInTransaction(context.Background(), []store.Op{{
		Statement: store.StmtCreateClientDebt,
		Params: map[string]any{
			"client_id": id,
			"client":    map[string]any{"name": name, "phone": "555", "created_at": "2024-01-01T00:00:00Z"},
			"debt_id":   "debt_" + id,
			"debt": map[string]any{
				"client_id": id, "original_amount": amount, "current_amount": amount,
				"debt_type": "credit_card", "creation_date": "2023-12-01", "status": common.DebtPending,
				"created_at": "2024-01-01T00:00:00Z",
			},
		},
		Expect: 1,
	}}))
}

func seedAgent(t *testing.T, s store.GraphStore, id string) {
	t.Helper()
	_, err := s.RunQuery(context.Background(), store.StmtUpsertAgent, map[string]any{
		"id":    id,
		"props": map[string]any{"name": "Agent " + id, "department": common.DefaultAgentDepartment},
	})
	require.NoError(t, err)
}

type interactionSeed struct {
	id, client, agent, ts, contact, result string
}

func seedInteraction(t *testing.T, s store.GraphStore, in interactionSeed, derived ...store.Op) {
	t.Helper()
	ops := []store.Op{{
		Statement: store.StmtCreateInteraction,
		Params: map[string]any{
			"client_id": in.client,
			"id":        in.id,
			"props": map[string]any{
				"client_id": in.client, "timestamp": in.ts, "contact_type": in.contact,
				"result": nilIfEmpty(in.result), "duration_seconds": int64(120),
			},
		},
		Expect: 1,
	}}
	if in.agent != "" {
		ops = append(ops, store.Op{
			Statement: store.StmtLinkAgent,
			Params:    map[string]any{"interaction_id": in.id, "agent_id": in.agent},
			Expect:    1,
		})
	}
	for _, op := range derived {
		op.Params["interaction_id"] = in.id
		ops = append(ops, op)
	}
	require.NoError(t, s.RunInTransaction(context.Background(), ops))
}

func payment(id string, amount float64) store.Op {
	return store.Op{Statement: store.StmtCreatePayment, Params: map[string]any{
		"id": id, "props": map[string]any{"amount": amount, "method": "transfer", "is_complete": false, "date": "2024-01-10"},
	}, Expect: 1}
}

func promise(id string, amount float64, due string) store.Op {
	return store.Op{Statement: store.StmtCreatePromise, Params: map[string]any{
		"id": id, "props": map[string]any{"amount": amount, "promise_date": due},
	}, Expect: 1}
}

func renegotiation(id string, count int64, monthly float64) store.Op {
	return store.Op{Statement: store.StmtCreateRenegotiation, Params: map[string]any{
		"id": id, "props": map[string]any{"installment_count": count, "monthly_amount": monthly},
	}, Expect: 1}
}

func eventIDs(events []common.TimelineEvent) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestGetClientTimelineCompleteness(t *testing.T) {
	s := memory.New()
	seedClient(t, s, "C1", "Ana", 1000)
	seedAgent(t, s, "A1")
	seedInteraction(t, s,
		interactionSeed{id: "I1", client: "C1", agent: "A1", ts: "2024-01-10T10:00:00Z", contact: common.ContactOutboundCall, result: common.ResultPaymentPromise},
		payment("P1", 300), promise("PR1", 500, "2024-01-25"), renegotiation("R1", 6, 100),
	)

	tl, err := newService(s).GetClientTimeline(context.Background(), "C1", Filters{})
	require.NoError(t, err)
	require.NotNil(t, tl)

	assert.Equal(t, 4, tl.TotalEvents)
	assert.Equal(t, []string{"PR1", "I1", "P1", "R1"}, eventIDs(tl.Events))

	promiseEvent := tl.Events[0]
	assert.Equal(t, common.EventPromise, promiseEvent.Kind)
	assert.Equal(t, "2024-01-25T12:00:00Z", promiseEvent.Timestamp)
	assert.Equal(t, common.PromiseBreached, promiseEvent.Status)
	assert.Equal(t, "Promise overdue", promiseEvent.Title)
	assert.Equal(t, "Agent A1", promiseEvent.AgentName)

	interaction := tl.Events[1]
	assert.Equal(t, "Outbound call", interaction.Title)
	assert.Equal(t, common.ResultPaymentPromise, interaction.Description)
	require.NotNil(t, interaction.Amount)
	assert.Equal(t, 500.0, *interaction.Amount)

	pay := tl.Events[2]
	assert.Equal(t, "Bank transfer", pay.Description)
	assert.Equal(t, "partial", pay.Status)

	reneg := tl.Events[3]
	assert.Equal(t, "6 installments of $100.00", reneg.Description)
	require.NotNil(t, reneg.Amount)
	assert.Equal(t, 600.0, *reneg.Amount)

	require.NotNil(t, tl.CurrentDebt)
	assert.Equal(t, 700.0, tl.CurrentDebt.OutstandingAmount)
	assert.Equal(t, common.DebtRenegotiated, tl.CurrentDebt.DerivedStatus)
	assert.Equal(t, common.DebtPending, tl.CurrentDebt.Status)

	assert.Equal(t, Period{Start: DefaultPeriodStart, End: "2024-06-01"}, tl.Period)
	assert.Equal(t, "2024-01-10T10:00:00Z", tl.Client.LastContact)
	assert.Equal(t, 1000.0, tl.Client.TotalDebt)
}

func TestGetClientTimelineUnknownClient(t *testing.T) {
	tl, err := newService(memory.New()).GetClientTimeline(context.Background(), "nobody", Filters{})
	require.NoError(t, err)
	assert.Nil(t, tl)

	c, err := newService(memory.New()).GetClient(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func seedFilterFixture(t *testing.T) store.GraphStore {
	t.Helper()
	s := memory.New()
	seedClient(t, s, "C1", "Ana", 1000)
	seedAgent(t, s, "A1")
	seedAgent(t, s, "A2")
	seedInteraction(t, s, interactionSeed{id: "I1", client: "C1", agent: "A1", ts: "2024-02-01T09:00:00Z", contact: common.ContactSMS})
	seedInteraction(t, s, interactionSeed{id: "I2", client: "C1", agent: "A2", ts: "2024-02-05T09:00:00Z", contact: common.ContactSMS})
	seedInteraction(t, s, interactionSeed{id: "I3", client: "C1", ts: "2024-02-10T09:00:00Z", contact: common.ContactPaymentReceived},
		payment("P1", 200))
	return s
}

func TestGetClientTimelineFilters(t *testing.T) {
	ctx := context.Background()
	svc := newService(seedFilterFixture(t))

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{"I3", "P1", "I2", "I1"}},
		{"type filter keeps payments", Filters{InteractionTypes: []string{common.ContactSMS}}, []string{"P1", "I2", "I1"}},
		{"agent filter", Filters{AgentIDs: []string{"A2"}}, []string{"I2"}},
		{"date range inclusive", Filters{DateFrom: "2024-02-05", DateTo: "2024-02-05"}, []string{"I2"}},
		{"rfc3339 bound", Filters{DateFrom: "2024-02-05T09:00:01Z"}, []string{"I3", "P1"}},
		{"limit after sort", Filters{Limit: 2}, []string{"I3", "P1"}},
		{"composed", Filters{InteractionTypes: []string{common.ContactSMS}, DateTo: "2024-02-04"}, []string{"I1"}},
		{"malformed date", Filters{DateFrom: "last week"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, err := svc.GetClientTimeline(ctx, "C1", tt.filters)
			require.NoError(t, err)
			require.NotNil(t, tl)
			assert.Equal(t, tt.want, eventIDs(tl.Events))
			assert.Equal(t, len(tt.want), tl.TotalEvents)
		})
	}
}

func TestGetClientTimelineOffsetTimestamps(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedClient(t, s, "C1", "Ana", 900)
	// I1 is the later instant although its string sorts first.
	seedInteraction(t, s, interactionSeed{id: "I1", client: "C1", ts: "2024-01-25T21:00:00-05:00", contact: common.ContactSMS})
	seedInteraction(t, s, interactionSeed{id: "I2", client: "C1", ts: "2024-01-26T01:00:00Z", contact: common.ContactEmail})
	svc := newService(s)

	tl, err := svc.GetClientTimeline(ctx, "C1", Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"I1", "I2"}, eventIDs(tl.Events))

	tl, err = svc.GetClientTimeline(ctx, "C1", Filters{DateFrom: "2024-01-25", DateTo: "2024-01-25"})
	require.NoError(t, err)
	assert.Equal(t, []string{"I1"}, eventIDs(tl.Events))

	c, err := svc.GetClient(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "2024-01-25T21:00:00-05:00", c.LastContact)
}

func TestGetClientTimelinePeriodEcho(t *testing.T) {
	tl, err := newService(seedFilterFixture(t)).GetClientTimeline(context.Background(), "C1",
		Filters{DateFrom: "2024-02-01", DateTo: "2024-02-28"})
	require.NoError(t, err)
	assert.Equal(t, Period{Start: "2024-02-01", End: "2024-02-28"}, tl.Period)
}

func TestCurrentDebtDerivedStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("overdue when a promise is breached", func(t *testing.T) {
		s := memory.New()
		seedClient(t, s, "C1", "Ana", 1000)
		seedInteraction(t, s, interactionSeed{id: "I1", client: "C1", ts: "2024-01-10T10:00:00Z", contact: common.ContactInboundCall, result: common.ResultPaymentPromise},
			promise("PR1", 500, "2024-01-25"))

		tl, err := newService(s).GetClientTimeline(ctx, "C1", Filters{})
		require.NoError(t, err)
		assert.Equal(t, common.DebtOverdue, tl.CurrentDebt.DerivedStatus)
		assert.Equal(t, 1000.0, tl.CurrentDebt.OutstandingAmount)
	})

	t.Run("paid when payments cover the debt", func(t *testing.T) {
		s := memory.New()
		seedClient(t, s, "C1", "Ana", 250)
		seedInteraction(t, s, interactionSeed{id: "I1", client: "C1", ts: "2024-01-10T10:00:00Z", contact: common.ContactPaymentReceived},
			payment("P1", 300))

		tl, err := newService(s).GetClientTimeline(ctx, "C1", Filters{})
		require.NoError(t, err)
		assert.Equal(t, common.DebtPaid, tl.CurrentDebt.DerivedStatus)
		assert.Zero(t, tl.CurrentDebt.OutstandingAmount)
	})
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedClient(t, s, "C2", "Zoe", 10)
	seedClient(t, s, "C1", "Ana", 20)
	seedAgent(t, s, "A9")
	seedAgent(t, s, "A1")
	svc := newService(s)

	clients, err := svc.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Ana", clients[0].Name)
	assert.Equal(t, 20.0, clients[0].DebtAmount)
	assert.Equal(t, "2023-12-01", clients[0].LoanDate)

	agents, err := svc.ListAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Agent{
		{ID: "A1", Name: "Agent A1", Department: common.DefaultAgentDepartment},
		{ID: "A9", Name: "Agent A9", Department: common.DefaultAgentDepartment},
	}, agents)
}

func TestStoreUnavailablePropagates(t *testing.T) {
	s := memory.New()
	seedClient(t, s, "C1", "Ana", 10)
	s.SetAvailable(false)

	_, err := newService(s).GetClientTimeline(context.Background(), "C1", Filters{})
	assert.ErrorIs(t, err, store.ErrGraphUnavailable)
	_, err = newService(s).ListClients(context.Background())
	assert.ErrorIs(t, err, store.ErrGraphUnavailable)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"sms", "email"}, SplitList(" sms, ,email,"))
	assert.Nil(t, SplitList(""))
}
