package analytics

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/numeric"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// GetBreachedPromises returns every promise whose client paid less than the
// promised amount by the due date, once the due date has passed. Payments
// count toward a promise by the date of their generating interaction.
func (e *Engine) GetBreachedPromises(ctx context.Context) ([]BreachedPromise, error) {
	promises, err := e.promises(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := e.payments(ctx)
	if err != nil {
		return nil, err
	}
	byClient := paymentsByClient(payments)
	today := e.today()

	out := make([]BreachedPromise, 0)
	for _, p := range promises {
		paid := store.PaidBy(byClient[p.ClientID], p.PromiseDate)
		if common.PromiseStatus(p.Amount, paid, p.PromiseDate, today) != common.PromiseBreached {
			continue
		}
		out = append(out, BreachedPromise{
			ClientID:           p.ClientID,
			PromiseID:          p.ID,
			PromisedAmount:     p.Amount,
			PromiseDate:        p.PromiseDate,
			TotalPaid:          numeric.Round(paid, 2),
			OutstandingBalance: numeric.Round(p.Amount-paid, 2),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PromiseDate != out[j].PromiseDate {
			return out[i].PromiseDate < out[j].PromiseDate
		}
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].PromiseID < out[j].PromiseID
	})
	return out, nil
}

// fulfilled reports whether some payment of the promise's client, made on or
// after the due date, covers the promised amount.
func fulfilled(p store.PromiseRow, clientPayments []store.PaymentRow) bool {
	for _, pay := range clientPayments {
		if store.DatePart(pay.Timestamp) >= p.PromiseDate && pay.Amount >= p.Amount {
			return true
		}
	}
	return false
}
