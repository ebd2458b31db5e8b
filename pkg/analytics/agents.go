package analytics

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/numeric"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

type durationAcc struct {
	sum   float64
	count int
}

// GetAgentScorecards aggregates per-agent performance, best effectiveness
// first.
func (e *Engine) GetAgentScorecards(ctx context.Context) ([]AgentScorecard, error) {
	records, err := e.query(ctx, store.StmtListAgents)
	if err != nil {
		return nil, err
	}
	agents := store.AgentRows(records)

	interactions, err := e.interactions(ctx)
	if err != nil {
		return nil, err
	}
	promises, err := e.promises(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := e.payments(ctx)
	if err != nil {
		return nil, err
	}
	if records, err = e.query(ctx, store.StmtAllRenegotiations); err != nil {
		return nil, err
	}
	renegotiations := store.RenegotiationRows(records)

	cards := make(map[string]*AgentScorecard, len(agents))
	durations := make(map[string]*durationAcc, len(agents))
	for _, a := range agents {
		cards[a.ID] = &AgentScorecard{AgentID: a.ID, Name: a.Name, Department: a.Department}
		durations[a.ID] = &durationAcc{}
	}

	for _, i := range interactions {
		card, ok := cards[i.AgentID]
		if !ok {
			continue
		}
		card.TotalInteractions++
		if i.Result == common.ResultImmediatePayment {
			card.ImmediatePayments++
		}
		if i.DurationSeconds != nil {
			durations[i.AgentID].sum += *i.DurationSeconds
			durations[i.AgentID].count++
		}
	}

	byClient := paymentsByClient(payments)
	for _, p := range promises {
		card, ok := cards[p.AgentID]
		if !ok {
			continue
		}
		card.PromisesGenerated++
		if fulfilled(p, byClient[p.ClientID]) {
			card.PromisesFulfilled++
		}
	}

	for _, r := range renegotiations {
		if card, ok := cards[r.AgentID]; ok {
			card.Renegotiations++
		}
	}
	for _, p := range payments {
		if card, ok := cards[p.AgentID]; ok {
			card.AmountCollected += p.Amount
		}
	}

	out := make([]AgentScorecard, 0, len(cards))
	for _, a := range agents {
		card := cards[a.ID]
		if card.PromisesGenerated > 0 {
			card.Effectiveness = numeric.Round(float64(card.PromisesFulfilled)/float64(card.PromisesGenerated)*100, 2)
		}
		if d := durations[a.ID]; d.count > 0 {
			avg := numeric.Round(d.sum/float64(d.count), 2)
			card.AvgCallDuration = &avg
		}
		card.AmountCollected = numeric.Round(card.AmountCollected, 2)
		out = append(out, *card)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Effectiveness != out[j].Effectiveness {
			return out[i].Effectiveness > out[j].Effectiveness
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out, nil
}

// GetAgentScorecard returns nil, nil for an unknown agent.
func (e *Engine) GetAgentScorecard(ctx context.Context, agentID string) (*AgentScorecard, error) {
	cards, err := e.GetAgentScorecards(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].AgentID == agentID {
			return &cards[i], nil
		}
	}
	return nil, nil
}
