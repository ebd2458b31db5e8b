package common

import "strings"

// Contact types of a source interaction.
const (
	ContactOutboundCall    = "outbound_call"
	ContactInboundCall     = "inbound_call"
	ContactEmail           = "email"
	ContactSMS             = "sms"
	ContactPaymentReceived = "payment_received"
)

// Results of a source interaction.
const (
	ResultPaymentPromise   = "payment_promise"
	ResultNoAnswer         = "no_answer"
	ResultRenegotiation    = "renegotiation"
	ResultDispute          = "dispute"
	ResultImmediatePayment = "immediate_payment"
	ResultRefusesToPay     = "refuses_to_pay"
)

// Debt statuses. Only pending is ever stored by the loader; the others are
// derived at read time.
const (
	DebtPending      = "pending"
	DebtPaid         = "paid"
	DebtOverdue      = "overdue"
	DebtRenegotiated = "renegotiated"
)

// DefaultAgentDepartment is assigned to every agent, the dataset carries ids only.
const DefaultAgentDepartment = "Collections"

// Dataset is the source document consumed by the ingestion pipeline.
type Dataset struct {
	Metadata     Metadata            `json:"metadata"`
	Clients      []ClientRecord      `json:"clients" jsonschema:"required"`
	Interactions []InteractionRecord `json:"interactions" jsonschema:"required"`
}

type Metadata struct {
	GeneratedAt       string `json:"generated_at,omitempty"`
	TotalClients      int    `json:"total_clients,omitempty"`
	TotalInteractions int    `json:"total_interactions,omitempty"`
	Period            string `json:"period,omitempty"`
}

// ClientRecord is one entry of the dataset's clients array. Each record
// produces one Client node and one Debt node.
type ClientRecord struct {
	ID                string  `json:"id" validate:"required"`
	Name              string  `json:"name"`
	Phone             string  `json:"phone"`
	InitialDebtAmount float64 `json:"initial_debt_amount" validate:"gte=0"`
	LoanDate          string  `json:"loan_date"`
	DebtType          string  `json:"debt_type" jsonschema:"enum=credit_card,enum=personal_loan,enum=mortgage,enum=auto"`
}

// PaymentPlan is the new plan agreed in a renegotiation.
type PaymentPlan struct {
	Installments  int     `json:"installments"`
	MonthlyAmount float64 `json:"monthly_amount"`
}

// InteractionRecord is one entry of the dataset's interactions array. The
// optional fields are populated depending on Type and Result.
type InteractionRecord struct {
	ID        string `json:"id" validate:"required"`
	ClientID  string `json:"client_id" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required,timestamp"`
	Type      string `json:"type" validate:"required" jsonschema:"enum=outbound_call,enum=inbound_call,enum=email,enum=sms,enum=payment_received"`

	DurationSeconds *int    `json:"duration_seconds,omitempty" validate:"omitempty,gte=0"`
	AgentID         *string `json:"agent_id,omitempty"`
	Result          *string `json:"result,omitempty"`
	Sentiment       *string `json:"sentiment,omitempty"`

	PromisedAmount *float64 `json:"promised_amount,omitempty"`
	PromiseDate    *string  `json:"promise_date,omitempty"`

	NewPaymentPlan *PaymentPlan `json:"new_payment_plan,omitempty"`

	Amount          *float64 `json:"amount,omitempty"`
	PaymentMethod   *string  `json:"payment_method,omitempty"`
	CompletePayment *bool    `json:"complete_payment,omitempty"`
}

// Agent returns the trimmed agent id, or "" when the record has none.
func (r InteractionRecord) Agent() string {
	if r.AgentID == nil {
		return ""
	}
	return strings.TrimSpace(*r.AgentID)
}

// ResultValue returns the result or "" when absent.
func (r InteractionRecord) ResultValue() string {
	if r.Result == nil {
		return ""
	}
	return *r.Result
}

// SignalsPayment reports whether the record is a received payment with an amount.
func (r InteractionRecord) SignalsPayment() bool {
	return r.Type == ContactPaymentReceived && r.Amount != nil && *r.Amount > 0
}

// SignalsPromise reports whether the record is a payment promise with both
// amount and due date present.
func (r InteractionRecord) SignalsPromise() bool {
	return r.ResultValue() == ResultPaymentPromise &&
		r.PromisedAmount != nil && *r.PromisedAmount > 0 &&
		r.PromiseDate != nil && *r.PromiseDate != ""
}

// SignalsRenegotiation reports whether the record is a renegotiation with a
// valid new plan.
func (r InteractionRecord) SignalsRenegotiation() bool {
	return r.ResultValue() == ResultRenegotiation &&
		r.NewPaymentPlan != nil &&
		r.NewPaymentPlan.Installments > 0 &&
		r.NewPaymentPlan.MonthlyAmount > 0
}
