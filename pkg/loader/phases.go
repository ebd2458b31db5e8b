package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

const dateLayout = "2006-01-02"

func recordError(stats *common.LoadStats, entity, id string, err error) {
	msg := fmt.Sprintf("%s %s: %v", entity, id, err)
	logger.Warn("[Loader] Record failed", "entity", entity, "id", id, "err", err)
	stats.Errors = append(stats.Errors, msg)
}

// loadClients creates each Client together with its single Debt.
func (l *Loader) loadClients(ctx context.Context, records []common.ClientRecord) (common.LoadStats, error) {
	logger.Info("[Loader] Loading clients", "count", len(records))
	var stats common.LoadStats
	now := l.now().UTC().Format(time.RFC3339)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := l.validate.Struct(rec); err != nil {
			recordError(&stats, "client", rec.ID, err)
			continue
		}

		params := map[string]any{
			"client_id": rec.ID,
			"client": map[string]any{
				"name":       rec.Name,
				"phone":      rec.Phone,
				"created_at": now,
				"updated_at": now,
			},
			"debt_id": debtID(rec.ID),
			"debt": map[string]any{
				"client_id":       rec.ID,
				"original_amount": rec.InitialDebtAmount,
				"current_amount":  rec.InitialDebtAmount,
				"debt_type":       rec.DebtType,
				"creation_date":   normalizeDate(rec.LoanDate),
				"status":          common.DebtPending,
				"created_at":      now,
				"updated_at":      now,
			},
		}
		op := store.Op{Statement: store.StmtCreateClientDebt, Params: params, Expect: 1}
		if err := l.store.RunInTransaction(ctx, []store.Op{op}); err != nil {
			recordError(&stats, "client", rec.ID, err)
			continue
		}
		stats.ClientsLoaded++
		stats.DebtsLoaded++
	}
	return stats, nil
}

func debtID(clientID string) string {
	return "debt_" + clientID
}

// loadAgents upserts one Agent per distinct agent id seen in interactions.
func (l *Loader) loadAgents(ctx context.Context, records []common.InteractionRecord) (common.LoadStats, error) {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.Agent())
	}
	ids = store.DedupeStrings(ids)
	logger.Info("[Loader] Loading agents", "count", len(ids))

	var stats common.LoadStats
	now := l.now().UTC().Format(time.RFC3339)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		params := map[string]any{
			"id": id,
			"props": map[string]any{
				"name":       "Agent " + id,
				"department": common.DefaultAgentDepartment,
				"created_at": now,
				"updated_at": now,
			},
		}
		if _, err := l.store.RunQuery(ctx, store.StmtUpsertAgent, params); err != nil {
			recordError(&stats, "agent", id, err)
			continue
		}
		stats.AgentsLoaded++
	}
	return stats, nil
}

// loadInteractions writes every interaction and its derived nodes in its own
// transaction.
func (l *Loader) loadInteractions(ctx context.Context, records []common.InteractionRecord) (common.LoadStats, error) {
	logger.Info("[Loader] Loading interactions", "count", len(records))
	var stats common.LoadStats

	err := store.ChunkRange(len(records), l.progressInterval, func(start, end int) error {
		for _, rec := range records[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}
			ops, delta, err := l.interactionOps(rec)
			if err != nil {
				recordError(&stats, "interaction", rec.ID, err)
				continue
			}
			if err := l.store.RunInTransaction(ctx, ops); err != nil {
				recordError(&stats, "interaction", rec.ID, err)
				continue
			}
			stats = stats.Merge(delta)
		}
		logger.Info("[Loader] Progress", "processed", end, "total", len(records))
		return nil
	})
	return stats, err
}

// interactionOps builds the transaction for one source interaction and the
// stats it contributes once committed.
func (l *Loader) interactionOps(rec common.InteractionRecord) ([]store.Op, common.LoadStats, error) {
	var delta common.LoadStats
	if err := l.validate.Struct(rec); err != nil {
		return nil, delta, err
	}
	ts, err := common.ParseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, delta, fmt.Errorf("invalid timestamp: %w", err)
	}

	var duration any
	if rec.DurationSeconds != nil {
		duration = int64(*rec.DurationSeconds)
	}
	agent := rec.Agent()

	ops := []store.Op{{
		Statement: store.StmtCreateInteraction,
		Params: map[string]any{
			"client_id": rec.ClientID,
			"id":        rec.ID,
			"props": map[string]any{
				"client_id":        rec.ClientID,
				"agent_id":         nullable(agent),
				"timestamp":        common.FormatTimestamp(ts),
				"contact_type":     rec.Type,
				"result":           optString(rec.Result),
				"sentiment":        optString(rec.Sentiment),
				"duration_seconds": duration,
				"created_at":       l.now().UTC().Format(time.RFC3339),
			},
		},
		Expect: 1,
	}}
	delta.InteractionsLoaded = 1

	if agent != "" {
		ops = append(ops, store.Op{
			Statement: store.StmtLinkAgent,
			Params:    map[string]any{"interaction_id": rec.ID, "agent_id": agent},
			Expect:    1,
		})
	}

	if rec.SignalsPayment() {
		op, err := l.derivedOp(store.StmtCreatePayment, rec.ID, map[string]any{
			"amount":      *rec.Amount,
			"method":      optString(rec.PaymentMethod),
			"is_complete": rec.CompletePayment != nil && *rec.CompletePayment,
			"date":        ts.Format(dateLayout),
		})
		if err != nil {
			return nil, delta, err
		}
		ops = append(ops, op)
		delta.PaymentsLoaded = 1
	}

	if rec.SignalsPromise() {
		due := normalizeDate(*rec.PromiseDate)
		if due == "" {
			return nil, delta, fmt.Errorf("invalid promise_date %q", *rec.PromiseDate)
		}
		op, err := l.derivedOp(store.StmtCreatePromise, rec.ID, map[string]any{
			"amount":       *rec.PromisedAmount,
			"promise_date": due,
		})
		if err != nil {
			return nil, delta, err
		}
		ops = append(ops, op)
		delta.PromisesLoaded = 1
	}

	if rec.SignalsRenegotiation() {
		op, err := l.derivedOp(store.StmtCreateRenegotiation, rec.ID, map[string]any{
			"installment_count": int64(rec.NewPaymentPlan.Installments),
			"monthly_amount":    rec.NewPaymentPlan.MonthlyAmount,
		})
		if err != nil {
			return nil, delta, err
		}
		ops = append(ops, op)
		delta.RenegotiationsLoaded = 1
	}

	return ops, delta, nil
}

func (l *Loader) derivedOp(stmt store.Statement, interactionID string, props map[string]any) (store.Op, error) {
	id, err := l.newID()
	if err != nil {
		return store.Op{}, fmt.Errorf("generate id: %w", err)
	}
	return store.Op{
		Statement: stmt,
		Params:    map[string]any{"interaction_id": interactionID, "id": id, "props": props},
		Expect:    1,
	}, nil
}

// normalizeDate accepts YYYY-MM-DD or a timestamp and returns the date in
// the value's own offset as YYYY-MM-DD, or "" when v is neither.
func normalizeDate(v string) string {
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t.Format(dateLayout)
	}
	if t, err := common.ParseTimestamp(v); err == nil {
		return t.Format(dateLayout)
	}
	return ""
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return nullable(*s)
}
