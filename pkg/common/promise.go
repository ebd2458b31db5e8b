package common

// Promise statuses derived at read time.
const (
	PromiseFulfilled = "fulfilled"
	PromiseBreached  = "breached"
	PromisePending   = "pending"
)

// PromiseStatus classifies a promise from the amount paid by its due date.
// A promise is breached iff paid < amount and today is after due; dates are
// YYYY-MM-DD so they compare lexically.
func PromiseStatus(amount, paid float64, due, today string) string {
	switch {
	case paid >= amount:
		return PromiseFulfilled
	case today > due:
		return PromiseBreached
	default:
		return PromisePending
	}
}
