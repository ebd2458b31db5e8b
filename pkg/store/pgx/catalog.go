package pgx

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// Catalog returns the SQL text for every statement this backend supports.
// Uniqueness is enforced by the graph_nodes primary key, so the constraint
// statements and drop_constraints are deliberately absent.
func Catalog() map[store.Statement]string {
	c := map[store.Statement]string{
		store.StmtPing:       `SELECT 1 AS ok`,
		store.StmtResetGraph: `TRUNCATE graph_edges, graph_nodes`,

		store.StmtCreateClientDebt: `
WITH c AS (
    INSERT INTO graph_nodes (label, id, props)
    VALUES ('Client', @client_id::text, @client::jsonb || jsonb_build_object('id', @client_id::text))
    RETURNING id
), d AS (
    INSERT INTO graph_nodes (label, id, props)
    VALUES ('Debt', @debt_id::text, @debt::jsonb || jsonb_build_object('id', @debt_id::text))
    RETURNING id
)
INSERT INTO graph_edges (src_label, src_id, rel_type, dst_label, dst_id)
SELECT 'Client', c.id, 'HAS_DEBT', 'Debt', d.id FROM c, d
RETURNING src_id AS id`,

		store.StmtUpsertAgent: `
INSERT INTO graph_nodes (label, id, props)
VALUES ('Agent', @id::text, @props::jsonb || jsonb_build_object('id', @id::text))
ON CONFLICT (label, id) DO UPDATE SET props = graph_nodes.props
RETURNING id`,

		store.StmtCreateInteraction: `
WITH c AS (
    SELECT id FROM graph_nodes WHERE label = 'Client' AND id = @client_id::text
), i AS (
    INSERT INTO graph_nodes (label, id, props)
    SELECT 'Interaction', @id::text, @props::jsonb || jsonb_build_object('id', @id::text) FROM c
    RETURNING id
)
INSERT INTO graph_edges (src_label, src_id, rel_type, dst_label, dst_id)
SELECT 'Client', c.id, 'PARTICIPATES_IN', 'Interaction', i.id FROM c, i
RETURNING dst_id AS id`,

		store.StmtLinkAgent: `
INSERT INTO graph_edges (src_label, src_id, rel_type, dst_label, dst_id)
SELECT 'Interaction', i.id, 'PERFORMED_BY', 'Agent', a.id
FROM graph_nodes i, graph_nodes a
WHERE i.label = 'Interaction' AND i.id = @interaction_id::text
  AND a.label = 'Agent' AND a.id = @agent_id::text
RETURNING src_id AS id`,

		store.StmtCreatePayment:       createDerived(store.LabelPayment, store.RelGeneratedPayment),
		store.StmtCreatePromise:       createDerived(store.LabelPromise, store.RelGeneratedPromise),
		store.StmtCreateRenegotiation: createDerived(store.LabelRenegotiation, store.RelGeneratedRenegotiation),

		store.StmtGetClient: `
SELECT c.id, c.props -> 'name' AS name, c.props -> 'phone' AS phone, c.props -> 'created_at' AS created_at
FROM graph_nodes c
WHERE c.label = 'Client' AND c.id = @client_id::text`,

		store.StmtClientDebts: `
SELECT d.id, d.props -> 'client_id' AS client_id, d.props -> 'original_amount' AS original_amount,
       d.props -> 'current_amount' AS current_amount, d.props -> 'debt_type' AS debt_type,
       d.props -> 'creation_date' AS creation_date, d.props -> 'status' AS status,
       d.props -> 'created_at' AS created_at
FROM graph_edges e
JOIN graph_nodes d ON d.label = e.dst_label AND d.id = e.dst_id
WHERE e.src_label = 'Client' AND e.src_id = @client_id::text
  AND e.rel_type = 'HAS_DEBT' AND e.dst_label = 'Debt'
ORDER BY e.seq`,

		store.StmtClientInteractions: `
SELECT i.id, i.props -> 'timestamp' AS timestamp, i.props -> 'contact_type' AS contact_type,
       i.props -> 'result' AS result, i.props -> 'sentiment' AS sentiment,
       i.props -> 'duration_seconds' AS duration_seconds,
       a.id AS agent_id, a.props -> 'name' AS agent_name, p.props -> 'amount' AS promised_amount
FROM graph_edges ci
JOIN graph_nodes i ON i.label = 'Interaction' AND i.id = ci.dst_id` + agentJoin + `
LEFT JOIN graph_edges ip ON ip.src_label = 'Interaction' AND ip.src_id = i.id AND ip.rel_type = 'GENERATED_PROMISE'
LEFT JOIN graph_nodes p ON p.label = 'Promise' AND p.id = ip.dst_id
WHERE ci.src_label = 'Client' AND ci.src_id = @client_id::text
  AND ci.rel_type = 'PARTICIPATES_IN' AND ci.dst_label = 'Interaction'
ORDER BY ci.seq`,

		store.StmtListClients: `
SELECT c.id, c.props -> 'name' AS name, c.props -> 'phone' AS phone,
       d.props -> 'original_amount' AS debt_amount, d.props -> 'creation_date' AS loan_date,
       d.props -> 'debt_type' AS debt_type
FROM graph_nodes c
JOIN graph_edges e ON e.src_label = 'Client' AND e.src_id = c.id AND e.rel_type = 'HAS_DEBT'
JOIN graph_nodes d ON d.label = 'Debt' AND d.id = e.dst_id
WHERE c.label = 'Client'
ORDER BY c.props ->> 'name'`,

		store.StmtListAgents: `
SELECT a.id, a.props -> 'name' AS name, a.props -> 'department' AS department
FROM graph_nodes a
WHERE a.label = 'Agent'
ORDER BY a.props ->> 'name'`,

		store.StmtAllInteractions: `
SELECT i.id, ci.src_id AS client_id, i.props -> 'timestamp' AS timestamp,
       i.props -> 'contact_type' AS contact_type, i.props -> 'result' AS result,
       i.props -> 'duration_seconds' AS duration_seconds, a.id AS agent_id
FROM graph_nodes i
LEFT JOIN graph_edges ci ON ci.dst_label = 'Interaction' AND ci.dst_id = i.id
  AND ci.rel_type = 'PARTICIPATES_IN' AND ci.src_label = 'Client'` + agentJoin + `
WHERE i.label = 'Interaction'
ORDER BY i.seq`,

		store.StmtGraphNodes: `
SELECT id, label, COALESCE(props ->> 'name', id) AS name
FROM graph_nodes
ORDER BY seq`,

		store.StmtGraphRelationships: `
SELECT src_id AS source, dst_id AS target, rel_type AS type
FROM graph_edges
ORDER BY seq`,
	}

	derived := []struct {
		label, rel  string
		client, all store.Statement
		columns     []string
	}{
		{store.LabelPayment, store.RelGeneratedPayment, store.StmtClientPayments, store.StmtAllPayments,
			[]string{"amount", "method", "is_complete", "date"}},
		{store.LabelPromise, store.RelGeneratedPromise, store.StmtClientPromises, store.StmtAllPromises,
			[]string{"amount", "promise_date"}},
		{store.LabelRenegotiation, store.RelGeneratedRenegotiation, store.StmtClientRenegotiations, store.StmtAllRenegotiations,
			[]string{"installment_count", "monthly_amount"}},
	}
	for _, d := range derived {
		c[d.client] = readDerived(d.rel, d.label, d.columns, true)
		c[d.all] = readDerived(d.rel, d.label, d.columns, false)
	}

	return c
}

const agentJoin = `
LEFT JOIN graph_edges ia ON ia.src_label = 'Interaction' AND ia.src_id = i.id AND ia.rel_type = 'PERFORMED_BY'
LEFT JOIN graph_nodes a ON a.label = 'Agent' AND a.id = ia.dst_id`

func createDerived(label, rel string) string {
	return fmt.Sprintf(`
WITH i AS (
    SELECT id FROM graph_nodes WHERE label = 'Interaction' AND id = @interaction_id::text
), n AS (
    INSERT INTO graph_nodes (label, id, props)
    SELECT '%[1]s', @id::text, @props::jsonb || jsonb_build_object('id', @id::text) FROM i
    RETURNING id
)
INSERT INTO graph_edges (src_label, src_id, rel_type, dst_label, dst_id)
SELECT 'Interaction', i.id, '%[2]s', '%[1]s', n.id FROM i, n
RETURNING dst_id AS id`, label, rel)
}

func readDerived(rel, label string, columns []string, byClient bool) string {
	var b strings.Builder
	b.WriteString("\nSELECT n.id, i.id AS interaction_id, i.props -> 'timestamp' AS timestamp,")
	b.WriteString("\n       a.id AS agent_id, a.props -> 'name' AS agent_name, ci.src_id AS client_id")
	for _, col := range columns {
		fmt.Fprintf(&b, ",\n       n.props -> '%s' AS %s", col, col)
	}
	b.WriteString("\nFROM graph_edges ci")
	b.WriteString("\nJOIN graph_nodes i ON i.label = 'Interaction' AND i.id = ci.dst_id")
	fmt.Fprintf(&b, "\nJOIN graph_edges e ON e.src_label = 'Interaction' AND e.src_id = i.id AND e.rel_type = '%s'", rel)
	fmt.Fprintf(&b, "\nJOIN graph_nodes n ON n.label = '%s' AND n.id = e.dst_id", label)
	b.WriteString(agentJoin)
	b.WriteString("\nWHERE ci.src_label = 'Client' AND ci.rel_type = 'PARTICIPATES_IN'")
	if byClient {
		b.WriteString(" AND ci.src_id = @client_id::text")
	}
	b.WriteString("\nORDER BY e.seq")
	return b.String()
}
