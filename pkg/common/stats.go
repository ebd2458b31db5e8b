package common

// LoadStats summarizes one ingestion cycle. Values are combined with Merge,
// each ingestion phase producing its own LoadStats.
type LoadStats struct {
	ClientsLoaded        int      `json:"clients_loaded"`
	InteractionsLoaded   int      `json:"interactions_loaded"`
	PaymentsLoaded       int      `json:"payments_loaded"`
	PromisesLoaded       int      `json:"promises_loaded"`
	RenegotiationsLoaded int      `json:"renegotiations_loaded"`
	AgentsLoaded         int      `json:"agents_loaded"`
	DebtsLoaded          int      `json:"debts_loaded"`
	Errors               []string `json:"errors"`
}

// Merge returns the sum of s and o without modifying either.
func (s LoadStats) Merge(o LoadStats) LoadStats {
	errs := make([]string, 0, len(s.Errors)+len(o.Errors))
	errs = append(errs, s.Errors...)
	errs = append(errs, o.Errors...)
	return LoadStats{
		ClientsLoaded:        s.ClientsLoaded + o.ClientsLoaded,
		InteractionsLoaded:   s.InteractionsLoaded + o.InteractionsLoaded,
		PaymentsLoaded:       s.PaymentsLoaded + o.PaymentsLoaded,
		PromisesLoaded:       s.PromisesLoaded + o.PromisesLoaded,
		RenegotiationsLoaded: s.RenegotiationsLoaded + o.RenegotiationsLoaded,
		AgentsLoaded:         s.AgentsLoaded + o.AgentsLoaded,
		DebtsLoaded:          s.DebtsLoaded + o.DebtsLoaded,
		Errors:               errs,
	}
}

// WithError returns a copy of s with msg appended to Errors.
func (s LoadStats) WithError(msg string) LoadStats {
	return s.Merge(LoadStats{Errors: []string{msg}})
}
