package neo4j

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// Catalog returns the Cypher text for every statement this backend supports.
func Catalog() map[store.Statement]string {
	c := map[store.Statement]string{
		store.StmtPing:            `RETURN 1 AS ok`,
		store.StmtResetGraph:      `MATCH (n) DETACH DELETE n`,
		store.StmtDropConstraints: `CALL apoc.schema.assert({}, {}, true) YIELD label RETURN count(label) AS dropped`,

		store.StmtCreateClientDebt: `
CREATE (c:Client) SET c = $client, c.id = $client_id
CREATE (d:Debt) SET d = $debt, d.id = $debt_id
CREATE (c)-[:HAS_DEBT]->(d)
RETURN c.id AS id`,

		store.StmtUpsertAgent: `
MERGE (a:Agent {id: $id})
ON CREATE SET a += $props
RETURN a.id AS id`,

		store.StmtCreateInteraction: `
MATCH (c:Client {id: $client_id})
CREATE (i:Interaction) SET i = $props, i.id = $id
CREATE (c)-[:PARTICIPATES_IN]->(i)
RETURN i.id AS id`,

		store.StmtLinkAgent: `
MATCH (i:Interaction {id: $interaction_id})
MATCH (a:Agent {id: $agent_id})
CREATE (i)-[:PERFORMED_BY]->(a)
RETURN i.id AS id`,

		store.StmtCreatePayment:       createDerived(store.LabelPayment, store.RelGeneratedPayment),
		store.StmtCreatePromise:       createDerived(store.LabelPromise, store.RelGeneratedPromise),
		store.StmtCreateRenegotiation: createDerived(store.LabelRenegotiation, store.RelGeneratedRenegotiation),

		store.StmtGetClient: `
MATCH (c:Client {id: $client_id})
RETURN c.id AS id, c.name AS name, c.phone AS phone, c.created_at AS created_at`,

		store.StmtClientDebts: `
MATCH (:Client {id: $client_id})-[:HAS_DEBT]->(d:Debt)
RETURN d.id AS id, d.client_id AS client_id, d.original_amount AS original_amount,
       d.current_amount AS current_amount, d.debt_type AS debt_type,
       d.creation_date AS creation_date, d.status AS status, d.created_at AS created_at`,

		store.StmtClientInteractions: `
MATCH (:Client {id: $client_id})-[:PARTICIPATES_IN]->(i:Interaction)
OPTIONAL MATCH (i)-[:PERFORMED_BY]->(a:Agent)
OPTIONAL MATCH (i)-[:GENERATED_PROMISE]->(p:Promise)
RETURN i.id AS id, i.timestamp AS timestamp, i.contact_type AS contact_type,
       i.result AS result, i.sentiment AS sentiment, i.duration_seconds AS duration_seconds,
       a.id AS agent_id, a.name AS agent_name, p.amount AS promised_amount`,

		store.StmtListClients: `
MATCH (c:Client)-[:HAS_DEBT]->(d:Debt)
RETURN c.id AS id, c.name AS name, c.phone AS phone,
       d.original_amount AS debt_amount, d.creation_date AS loan_date, d.debt_type AS debt_type
ORDER BY c.name`,

		store.StmtListAgents: `
MATCH (a:Agent)
RETURN a.id AS id, a.name AS name, a.department AS department
ORDER BY a.name`,

		store.StmtAllInteractions: `
MATCH (i:Interaction)
OPTIONAL MATCH (c:Client)-[:PARTICIPATES_IN]->(i)
OPTIONAL MATCH (i)-[:PERFORMED_BY]->(a:Agent)
RETURN i.id AS id, c.id AS client_id, i.timestamp AS timestamp,
       i.contact_type AS contact_type, i.result AS result,
       i.duration_seconds AS duration_seconds, a.id AS agent_id`,

		store.StmtGraphNodes: `
MATCH (n)
RETURN n.id AS id, labels(n)[0] AS label, coalesce(n.name, n.id) AS name`,

		store.StmtGraphRelationships: `
MATCH (s)-[r]->(t)
RETURN s.id AS source, t.id AS target, type(r) AS type`,
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
		c[d.client] = readDerived("(c:Client {id: $client_id})", d.rel, d.label, d.columns)
		c[d.all] = readDerived("(c:Client)", d.rel, d.label, d.columns)
	}

	labels := map[store.Statement]string{
		store.StmtConstraintClient:        store.LabelClient,
		store.StmtConstraintDebt:          store.LabelDebt,
		store.StmtConstraintAgent:         store.LabelAgent,
		store.StmtConstraintInteraction:   store.LabelInteraction,
		store.StmtConstraintPayment:       store.LabelPayment,
		store.StmtConstraintPromise:       store.LabelPromise,
		store.StmtConstraintRenegotiation: store.LabelRenegotiation,
	}
	for stmt, label := range labels {
		c[stmt] = fmt.Sprintf(
			"CREATE CONSTRAINT %s_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			strings.ToLower(label), label,
		)
	}

	return c
}

func createDerived(label, rel string) string {
	return fmt.Sprintf(`
MATCH (i:Interaction {id: $interaction_id})
CREATE (n:%s) SET n = $props, n.id = $id
CREATE (i)-[:%s]->(n)
RETURN n.id AS id`, label, rel)
}

func readDerived(client, rel, label string, columns []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nMATCH %s-[:PARTICIPATES_IN]->(i:Interaction)-[:%s]->(n:%s)", client, rel, label)
	b.WriteString("\nOPTIONAL MATCH (i)-[:PERFORMED_BY]->(a:Agent)")
	b.WriteString("\nRETURN n.id AS id, i.id AS interaction_id, i.timestamp AS timestamp,")
	b.WriteString(" a.id AS agent_id, a.name AS agent_name, c.id AS client_id")
	for _, col := range columns {
		fmt.Fprintf(&b, ", n.%s AS %s", col, col)
	}
	return b.String()
}
