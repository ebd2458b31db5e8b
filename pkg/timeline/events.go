package timeline

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// promiseEventTime is the time of day a promise event is placed at on its
// due date.
const promiseEventTime = "T12:00:00Z"

type event struct {
	common.TimelineEvent
	at time.Time
}

var kindOrder = map[common.EventKind]int{
	common.EventInteraction:   0,
	common.EventPayment:       1,
	common.EventPromise:       2,
	common.EventRenegotiation: 3,
}

var contactTitles = map[string]string{
	common.ContactOutboundCall:    "Outbound call",
	common.ContactInboundCall:     "Inbound call",
	common.ContactEmail:           "Email sent",
	common.ContactSMS:             "SMS sent",
	common.ContactPaymentReceived: "Payment received",
}

var paymentDescriptions = map[string]string{
	"transfer": "Bank transfer",
	"card":     "Card payment",
	"cash":     "Cash payment",
}

func parseTime(ts string) time.Time {
	t, err := common.ParseTimestamp(ts)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// buildEvents unions the four event sources of a client, dropping empty ids
// and keeping the first occurrence of every id.
func buildEvents(h *clientHistory, today string) []event {
	candidates := make([]event, 0, len(h.interactions)+len(h.payments)+len(h.promises)+len(h.renegotiations))
	for _, i := range h.interactions {
		candidates = append(candidates, interactionEvent(i))
	}
	for _, p := range h.payments {
		candidates = append(candidates, paymentEvent(p))
	}
	for _, p := range h.promises {
		candidates = append(candidates, promiseEvent(p, store.PaidBy(h.payments, p.PromiseDate), today))
	}
	for _, r := range h.renegotiations {
		candidates = append(candidates, renegotiationEvent(r))
	}

	seen := make(map[string]struct{}, len(candidates))
	events := candidates[:0]
	for _, e := range candidates {
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		events = append(events, e)
	}
	return events
}

func interactionEvent(i store.InteractionRow) event {
	title, ok := contactTitles[i.ContactType]
	if !ok {
		title = i.ContactType
	}
	description := i.Result
	if description == "" {
		description = "Contact made"
	}

	return event{
		TimelineEvent: common.TimelineEvent{
			ID:          i.ID,
			Kind:        common.EventInteraction,
			Timestamp:   i.Timestamp,
			Title:       title,
			Description: description,
			AgentID:     i.AgentID,
			AgentName:   i.AgentName,
			Amount:      i.PromisedAmount,
			Status:      i.Result,
			Details: map[string]any{
				"contact_type":     i.ContactType,
				"result":           nilIfEmpty(i.Result),
				"sentiment":        nilIfEmpty(i.Sentiment),
				"duration_seconds": i.DurationSeconds,
				"promised_amount":  i.PromisedAmount,
			},
			ContactType: i.ContactType,
		},
		at: parseTime(i.Timestamp),
	}
}

func paymentEvent(p store.PaymentRow) event {
	description, ok := paymentDescriptions[p.Method]
	if !ok {
		description = p.Method
	}
	if description == "" {
		description = "Payment"
	}
	status := "partial"
	if p.IsComplete {
		status = "complete"
	}
	amount := p.Amount

	return event{
		TimelineEvent: common.TimelineEvent{
			ID:          p.ID,
			Kind:        common.EventPayment,
			Timestamp:   p.Timestamp,
			Title:       "Payment received",
			Description: description,
			AgentID:     p.AgentID,
			AgentName:   p.AgentName,
			Amount:      &amount,
			Status:      status,
			Details: map[string]any{
				"interaction_id": p.InteractionID,
				"method":         nilIfEmpty(p.Method),
				"is_complete":    p.IsComplete,
				"date":           p.Date,
			},
		},
		at: parseTime(p.Timestamp),
	}
}

func promiseEvent(p store.PromiseRow, paid float64, today string) event {
	status := common.PromiseStatus(p.Amount, paid, p.PromiseDate, today)
	title := "Payment promise"
	switch status {
	case common.PromiseFulfilled:
		title = "Promise fulfilled"
	case common.PromiseBreached:
		title = "Promise overdue"
	}
	amount := p.Amount
	ts := p.PromiseDate + promiseEventTime

	return event{
		TimelineEvent: common.TimelineEvent{
			ID:          p.ID,
			Kind:        common.EventPromise,
			Timestamp:   ts,
			Title:       title,
			Description: fmt.Sprintf("Payment promise of $%.2f due %s", p.Amount, p.PromiseDate),
			AgentID:     p.AgentID,
			AgentName:   p.AgentName,
			Amount:      &amount,
			Status:      status,
			Details: map[string]any{
				"interaction_id": p.InteractionID,
				"promise_date":   p.PromiseDate,
				"promised_at":    p.Timestamp,
				"total_paid":     paid,
			},
		},
		at: parseTime(ts),
	}
}

func renegotiationEvent(r store.RenegotiationRow) event {
	total := float64(r.InstallmentCount) * r.MonthlyAmount

	return event{
		TimelineEvent: common.TimelineEvent{
			ID:          r.ID,
			Kind:        common.EventRenegotiation,
			Timestamp:   r.Timestamp,
			Title:       "Payment plan renegotiated",
			Description: fmt.Sprintf("%d installments of $%.2f", r.InstallmentCount, r.MonthlyAmount),
			AgentID:     r.AgentID,
			AgentName:   r.AgentName,
			Amount:      &total,
			Status:      "active",
			Details: map[string]any{
				"interaction_id":    r.InteractionID,
				"installment_count": r.InstallmentCount,
				"monthly_amount":    r.MonthlyAmount,
			},
		},
		at: parseTime(r.Timestamp),
	}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
