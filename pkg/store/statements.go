package store

// Statement names an entry of the backend-neutral query catalog. Each
// backend maps statements to its own query text.
type Statement string

// Write side.
const (
	StmtPing                Statement = "ping"
	StmtResetGraph          Statement = "reset_graph"
	StmtDropConstraints     Statement = "drop_constraints"
	StmtCreateClientDebt    Statement = "create_client_debt"
	StmtUpsertAgent         Statement = "upsert_agent"
	StmtCreateInteraction   Statement = "create_interaction"
	StmtLinkAgent           Statement = "link_agent"
	StmtCreatePayment       Statement = "create_payment"
	StmtCreatePromise       Statement = "create_promise"
	StmtCreateRenegotiation Statement = "create_renegotiation"
)

// Uniqueness constraints, one per label.
const (
	StmtConstraintClient        Statement = "constraint_client"
	StmtConstraintDebt          Statement = "constraint_debt"
	StmtConstraintAgent         Statement = "constraint_agent"
	StmtConstraintInteraction   Statement = "constraint_interaction"
	StmtConstraintPayment       Statement = "constraint_payment"
	StmtConstraintPromise       Statement = "constraint_promise"
	StmtConstraintRenegotiation Statement = "constraint_renegotiation"
)

// Read side.
const (
	StmtGetClient            Statement = "get_client"
	StmtClientDebts          Statement = "client_debts"
	StmtClientInteractions   Statement = "client_interactions"
	StmtClientPayments       Statement = "client_payments"
	StmtClientPromises       Statement = "client_promises"
	StmtClientRenegotiations Statement = "client_renegotiations"
	StmtListClients          Statement = "list_clients"
	StmtListAgents           Statement = "list_agents"
	StmtAllInteractions      Statement = "all_interactions"
	StmtAllPayments          Statement = "all_payments"
	StmtAllPromises          Statement = "all_promises"
	StmtAllRenegotiations    Statement = "all_renegotiations"
	StmtGraphNodes           Statement = "graph_nodes"
	StmtGraphRelationships   Statement = "graph_relationships"
)

// ConstraintStatements lists the per-label uniqueness constraints in the
// order they are created.
var ConstraintStatements = []Statement{
	StmtConstraintClient,
	StmtConstraintDebt,
	StmtConstraintAgent,
	StmtConstraintInteraction,
	StmtConstraintPayment,
	StmtConstraintPromise,
	StmtConstraintRenegotiation,
}

// Node labels.
const (
	LabelClient        = "Client"
	LabelDebt          = "Debt"
	LabelAgent         = "Agent"
	LabelInteraction   = "Interaction"
	LabelPayment       = "Payment"
	LabelPromise       = "Promise"
	LabelRenegotiation = "Renegotiation"
)

// Relationship types.
const (
	RelHasDebt                = "HAS_DEBT"
	RelParticipatesIn         = "PARTICIPATES_IN"
	RelPerformedBy            = "PERFORMED_BY"
	RelGeneratedPayment       = "GENERATED_PAYMENT"
	RelGeneratedPromise       = "GENERATED_PROMISE"
	RelGeneratedRenegotiation = "GENERATED_RENEGOTIATION"
)
