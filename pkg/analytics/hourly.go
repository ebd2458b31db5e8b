package analytics

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/numeric"
)

func successful(result string) bool {
	return result == common.ResultPaymentPromise || result == common.ResultImmediatePayment
}

// GetHourlyEffectiveness buckets interactions by the hour of day of their
// own timestamp, offset included. Hours without interactions are omitted.
func (e *Engine) GetHourlyEffectiveness(ctx context.Context) ([]HourlyEffectiveness, error) {
	interactions, err := e.interactions(ctx)
	if err != nil {
		return nil, err
	}

	var success, total [24]int
	for _, i := range interactions {
		ts, err := common.ParseTimestamp(i.Timestamp)
		if err != nil {
			continue
		}
		h := ts.Hour()
		total[h]++
		if successful(i.Result) {
			success[h]++
		}
	}

	out := make([]HourlyEffectiveness, 0, 24)
	for h := range 24 {
		if total[h] == 0 {
			continue
		}
		out = append(out, HourlyEffectiveness{
			Hour:          h,
			SuccessCount:  success[h],
			TotalCount:    total[h],
			Effectiveness: numeric.Round(float64(success[h])/float64(total[h])*100, 2),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Effectiveness != out[j].Effectiveness {
			return out[i].Effectiveness > out[j].Effectiveness
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}
