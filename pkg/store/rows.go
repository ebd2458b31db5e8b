package store

import (
	"github.com/OFFIS-RIT/dunning/backend/pkg/numeric"
)

// Typed rows for the read statements. Every read goes through one of these
// mappers right after the query so callers never index a Record directly.

type ClientRow struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt string
}

type DebtRow struct {
	ID             string
	ClientID       string
	OriginalAmount float64
	CurrentAmount  float64
	DebtType       string
	CreationDate   string
	Status         string
	CreatedAt      string
}

type ClientSummaryRow struct {
	ID         string
	Name       string
	Phone      string
	DebtAmount float64
	LoanDate   string
	DebtType   string
}

type AgentRow struct {
	ID         string
	Name       string
	Department string
}

type InteractionRow struct {
	ID              string
	ClientID        string
	Timestamp       string
	ContactType     string
	Result          string
	Sentiment       string
	DurationSeconds *float64
	AgentID         string
	AgentName       string
	PromisedAmount  *float64
}

// DerivedRow carries the columns shared by payments, promises and
// renegotiations: the node id plus its generating interaction.
type DerivedRow struct {
	ID            string
	InteractionID string
	ClientID      string
	Timestamp     string
	AgentID       string
	AgentName     string
}

type PaymentRow struct {
	DerivedRow
	Amount     float64
	Method     string
	IsComplete bool
	Date       string
}

type PromiseRow struct {
	DerivedRow
	Amount      float64
	PromiseDate string
}

type RenegotiationRow struct {
	DerivedRow
	InstallmentCount int64
	MonthlyAmount    float64
}

type GraphNodeRow struct {
	ID    string
	Label string
	Name  string
}

type GraphRelationshipRow struct {
	Source string
	Target string
	Type   string
}

func mapRows[T any](records []Record, fn func(Record) T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, fn(r))
	}
	return out
}

func ClientRows(records []Record) []ClientRow {
	return mapRows(records, func(r Record) ClientRow {
		return ClientRow{
			ID:        r.String("id"),
			Name:      r.String("name"),
			Phone:     r.String("phone"),
			CreatedAt: r.String("created_at"),
		}
	})
}

func DebtRows(records []Record) []DebtRow {
	return mapRows(records, func(r Record) DebtRow {
		return DebtRow{
			ID:             r.String("id"),
			ClientID:       r.String("client_id"),
			OriginalAmount: numeric.Normalize(r["original_amount"]),
			CurrentAmount:  numeric.Normalize(r["current_amount"]),
			DebtType:       r.String("debt_type"),
			CreationDate:   r.String("creation_date"),
			Status:         r.String("status"),
			CreatedAt:      r.String("created_at"),
		}
	})
}

func ClientSummaryRows(records []Record) []ClientSummaryRow {
	return mapRows(records, func(r Record) ClientSummaryRow {
		return ClientSummaryRow{
			ID:         r.String("id"),
			Name:       r.String("name"),
			Phone:      r.String("phone"),
			DebtAmount: numeric.Normalize(r["debt_amount"]),
			LoanDate:   r.String("loan_date"),
			DebtType:   r.String("debt_type"),
		}
	})
}

func AgentRows(records []Record) []AgentRow {
	return mapRows(records, func(r Record) AgentRow {
		return AgentRow{
			ID:         r.String("id"),
			Name:       r.String("name"),
			Department: r.String("department"),
		}
	})
}

func InteractionRows(records []Record) []InteractionRow {
	return mapRows(records, func(r Record) InteractionRow {
		return InteractionRow{
			ID:              r.String("id"),
			ClientID:        r.String("client_id"),
			Timestamp:       r.String("timestamp"),
			ContactType:     r.String("contact_type"),
			Result:          r.String("result"),
			Sentiment:       r.String("sentiment"),
			DurationSeconds: numeric.Optional(r["duration_seconds"]),
			AgentID:         r.String("agent_id"),
			AgentName:       r.String("agent_name"),
			PromisedAmount:  numeric.Optional(r["promised_amount"]),
		}
	})
}

func derivedRow(r Record) DerivedRow {
	return DerivedRow{
		ID:            r.String("id"),
		InteractionID: r.String("interaction_id"),
		ClientID:      r.String("client_id"),
		Timestamp:     r.String("timestamp"),
		AgentID:       r.String("agent_id"),
		AgentName:     r.String("agent_name"),
	}
}

func PaymentRows(records []Record) []PaymentRow {
	return mapRows(records, func(r Record) PaymentRow {
		return PaymentRow{
			DerivedRow: derivedRow(r),
			Amount:     numeric.Normalize(r["amount"]),
			Method:     r.String("method"),
			IsComplete: r.Bool("is_complete"),
			Date:       r.String("date"),
		}
	})
}

func PromiseRows(records []Record) []PromiseRow {
	return mapRows(records, func(r Record) PromiseRow {
		return PromiseRow{
			DerivedRow:  derivedRow(r),
			Amount:      numeric.Normalize(r["amount"]),
			PromiseDate: r.String("promise_date"),
		}
	})
}

func RenegotiationRows(records []Record) []RenegotiationRow {
	return mapRows(records, func(r Record) RenegotiationRow {
		return RenegotiationRow{
			DerivedRow:       derivedRow(r),
			InstallmentCount: numeric.NormalizeInt(r["installment_count"]),
			MonthlyAmount:    numeric.Normalize(r["monthly_amount"]),
		}
	})
}

func GraphNodeRows(records []Record) []GraphNodeRow {
	return mapRows(records, func(r Record) GraphNodeRow {
		name := r.String("name")
		if name == "" {
			name = r.String("id")
		}
		return GraphNodeRow{ID: r.String("id"), Label: r.String("label"), Name: name}
	})
}

func GraphRelationshipRows(records []Record) []GraphRelationshipRow {
	return mapRows(records, func(r Record) GraphRelationshipRow {
		return GraphRelationshipRow{
			Source: r.String("source"),
			Target: r.String("target"),
			Type:   r.String("type"),
		}
	})
}

// DatePart returns the YYYY-MM-DD prefix of a stored timestamp. Timestamps
// keep their record's offset, so this is the local calendar date.
func DatePart(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// PaidBy sums the payments whose generating interaction happened on or
// before date (YYYY-MM-DD).
func PaidBy(payments []PaymentRow, date string) float64 {
	var total float64
	for _, p := range payments {
		if DatePart(p.Timestamp) <= date {
			total += p.Amount
		}
	}
	return total
}
