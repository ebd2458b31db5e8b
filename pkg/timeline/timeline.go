// Package timeline reconstructs per-client histories from the graph and
// serves the client and agent listings.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// DefaultPeriodStart is echoed as the period start when no dateFrom is given.
const DefaultPeriodStart = "2024-01-01"

const dateLayout = "2006-01-02"

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ClientTimeline struct {
	Client      common.Client          `json:"client"`
	CurrentDebt *common.Debt           `json:"currentDebt"`
	Events      []common.TimelineEvent `json:"events"`
	TotalEvents int                    `json:"totalEvents"`
	Period      Period                 `json:"period"`
}

// Service only reads from the store.
type Service struct {
	store store.GraphStore
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(s store.GraphStore, opts ...Option) *Service {
	svc := &Service{store: s, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) today() string {
	return s.now().UTC().Format(dateLayout)
}

// clientHistory is everything stored for one client.
type clientHistory struct {
	client         store.ClientRow
	debts          []store.DebtRow
	interactions   []store.InteractionRow
	payments       []store.PaymentRow
	promises       []store.PromiseRow
	renegotiations []store.RenegotiationRow
}

func (s *Service) query(ctx context.Context, stmt store.Statement, clientID string) ([]store.Record, error) {
	records, err := s.store.RunQuery(ctx, stmt, map[string]any{"client_id": clientID})
	if err != nil {
		return nil, fmt.Errorf("%s for client %s: %w", stmt, clientID, err)
	}
	return records, nil
}

// loadHistory returns nil when the client does not exist.
func (s *Service) loadHistory(ctx context.Context, clientID string) (*clientHistory, error) {
	records, err := s.query(ctx, store.StmtGetClient, clientID)
	if err != nil {
		return nil, err
	}
	clients := store.ClientRows(records)
	if len(clients) == 0 {
		return nil, nil
	}
	h := &clientHistory{client: clients[0]}

	if records, err = s.query(ctx, store.StmtClientDebts, clientID); err != nil {
		return nil, err
	}
	h.debts = store.DebtRows(records)

	if records, err = s.query(ctx, store.StmtClientInteractions, clientID); err != nil {
		return nil, err
	}
	h.interactions = store.InteractionRows(records)

	if records, err = s.query(ctx, store.StmtClientPayments, clientID); err != nil {
		return nil, err
	}
	h.payments = store.PaymentRows(records)

	if records, err = s.query(ctx, store.StmtClientPromises, clientID); err != nil {
		return nil, err
	}
	h.promises = store.PromiseRows(records)

	if records, err = s.query(ctx, store.StmtClientRenegotiations, clientID); err != nil {
		return nil, err
	}
	h.renegotiations = store.RenegotiationRows(records)

	return h, nil
}

// GetClientTimeline returns nil, nil when the client does not exist. A
// malformed filter yields an empty event list rather than an error.
func (s *Service) GetClientTimeline(ctx context.Context, clientID string, filters Filters) (*ClientTimeline, error) {
	h, err := s.loadHistory(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}

	today := s.today()
	events := buildEvents(h, today)
	events, err = filters.apply(events)
	if err != nil {
		logger.Debug("[Timeline] Ignoring malformed filter", "client", clientID, "err", err)
		events = nil
	}

	out := make([]common.TimelineEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.TimelineEvent)
	}

	period := Period{Start: filters.DateFrom, End: filters.DateTo}
	if period.Start == "" {
		period.Start = DefaultPeriodStart
	}
	if period.End == "" {
		period.End = today
	}

	return &ClientTimeline{
		Client:      clientView(h),
		CurrentDebt: currentDebt(h, today),
		Events:      out,
		TotalEvents: len(out),
		Period:      period,
	}, nil
}

// GetClient returns nil, nil when the client does not exist.
func (s *Service) GetClient(ctx context.Context, clientID string) (*common.Client, error) {
	h, err := s.loadHistory(ctx, clientID)
	if err != nil || h == nil {
		return nil, err
	}
	c := clientView(h)
	return &c, nil
}

func (s *Service) ListClients(ctx context.Context) ([]common.ClientSummary, error) {
	records, err := s.store.RunQuery(ctx, store.StmtListClients, nil)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	rows := store.ClientSummaryRows(records)
	out := make([]common.ClientSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, common.ClientSummary{
			ID:         r.ID,
			Name:       r.Name,
			Phone:      r.Phone,
			DebtAmount: r.DebtAmount,
			LoanDate:   r.LoanDate,
			DebtType:   r.DebtType,
		})
	}
	return out, nil
}

func (s *Service) ListAgents(ctx context.Context) ([]common.Agent, error) {
	records, err := s.store.RunQuery(ctx, store.StmtListAgents, nil)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	rows := store.AgentRows(records)
	out := make([]common.Agent, 0, len(rows))
	for _, r := range rows {
		out = append(out, common.Agent{ID: r.ID, Name: r.Name, Department: r.Department})
	}
	return out, nil
}

func clientView(h *clientHistory) common.Client {
	c := common.Client{
		ID:        h.client.ID,
		Name:      h.client.Name,
		Phone:     h.client.Phone,
		CreatedAt: h.client.CreatedAt,
	}
	for _, d := range h.debts {
		c.TotalDebt += d.CurrentAmount
	}
	var last time.Time
	for _, i := range h.interactions {
		if t := parseTime(i.Timestamp); c.LastContact == "" || t.After(last) {
			last = t
			c.LastContact = i.Timestamp
		}
	}
	return c
}

// currentDebt picks the most recently created debt and derives its
// outstanding amount and status from the client's history.
func currentDebt(h *clientHistory, today string) *common.Debt {
	if len(h.debts) == 0 {
		return nil
	}
	debts := append([]store.DebtRow(nil), h.debts...)
	sort.SliceStable(debts, func(i, j int) bool {
		if debts[i].CreatedAt != debts[j].CreatedAt {
			return debts[i].CreatedAt > debts[j].CreatedAt
		}
		return debts[i].CreationDate > debts[j].CreationDate
	})
	d := debts[0]

	var paid float64
	for _, p := range h.payments {
		paid += p.Amount
	}
	outstanding := max(d.OriginalAmount-paid, 0)

	status := d.Status
	switch {
	case outstanding == 0:
		status = common.DebtPaid
	case len(h.renegotiations) > 0:
		status = common.DebtRenegotiated
	case hasBreachedPromise(h, today):
		status = common.DebtOverdue
	}

	return &common.Debt{
		ID:                d.ID,
		ClientID:          d.ClientID,
		OriginalAmount:    d.OriginalAmount,
		CurrentAmount:     d.CurrentAmount,
		OutstandingAmount: outstanding,
		DebtType:          d.DebtType,
		CreationDate:      d.CreationDate,
		Status:            d.Status,
		DerivedStatus:     status,
		CreatedAt:         d.CreatedAt,
	}
}

func hasBreachedPromise(h *clientHistory, today string) bool {
	for _, p := range h.promises {
		if common.PromiseStatus(p.Amount, store.PaidBy(h.payments, p.PromiseDate), p.PromiseDate, today) == common.PromiseBreached {
			return true
		}
	}
	return false
}
