package memory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

var errDuplicate = errors.New("node already exists")

func catalog() map[store.Statement]handler {
	return map[store.Statement]handler{
		store.StmtPing:       ping,
		store.StmtResetGraph: reset,

		store.StmtCreateClientDebt:    createClientDebt,
		store.StmtUpsertAgent:         upsertAgent,
		store.StmtCreateInteraction:   createInteraction,
		store.StmtLinkAgent:           linkAgent,
		store.StmtCreatePayment:       createDerived(store.LabelPayment, store.RelGeneratedPayment),
		store.StmtCreatePromise:       createDerived(store.LabelPromise, store.RelGeneratedPromise),
		store.StmtCreateRenegotiation: createDerived(store.LabelRenegotiation, store.RelGeneratedRenegotiation),

		store.StmtGetClient:            getClient,
		store.StmtClientDebts:          clientDebts,
		store.StmtClientInteractions:   clientInteractions,
		store.StmtClientPayments:       clientDerived(store.LabelPayment, store.RelGeneratedPayment, paymentColumns),
		store.StmtClientPromises:       clientDerived(store.LabelPromise, store.RelGeneratedPromise, promiseColumns),
		store.StmtClientRenegotiations: clientDerived(store.LabelRenegotiation, store.RelGeneratedRenegotiation, renegotiationColumns),
		store.StmtListClients:          listClients,
		store.StmtListAgents:           listAgents,
		store.StmtAllInteractions:      allInteractions,
		store.StmtAllPayments:          allDerived(store.LabelPayment, store.RelGeneratedPayment, paymentColumns),
		store.StmtAllPromises:          allDerived(store.LabelPromise, store.RelGeneratedPromise, promiseColumns),
		store.StmtAllRenegotiations:    allDerived(store.LabelRenegotiation, store.RelGeneratedRenegotiation, renegotiationColumns),
		store.StmtGraphNodes:           graphNodes,
		store.StmtGraphRelationships:   graphRelationships,
	}
}

var (
	paymentColumns       = []string{"amount", "method", "is_complete", "date"}
	promiseColumns       = []string{"amount", "promise_date"}
	renegotiationColumns = []string{"installment_count", "monthly_amount"}
)

func param(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func propsParam(params map[string]any, key string) map[string]any {
	v, _ := params[key].(map[string]any)
	return v
}

func ping(g *graph, _ map[string]any) ([]store.Record, error) {
	return []store.Record{{"ok": int64(1)}}, nil
}

func reset(g *graph, _ map[string]any) ([]store.Record, error) {
	*g = *newGraph()
	return nil, nil
}

func createClientDebt(g *graph, params map[string]any) ([]store.Record, error) {
	clientID := param(params, "client_id")
	debtID := param(params, "debt_id")
	if g.get(store.LabelClient, clientID) != nil {
		return nil, fmt.Errorf("client %s: %w", clientID, errDuplicate)
	}
	if g.get(store.LabelDebt, debtID) != nil {
		return nil, fmt.Errorf("debt %s: %w", debtID, errDuplicate)
	}
	c := g.add(store.LabelClient, clientID, propsParam(params, "client"))
	d := g.add(store.LabelDebt, debtID, propsParam(params, "debt"))
	g.link(c, d, store.RelHasDebt)
	return []store.Record{{"id": clientID}}, nil
}

func upsertAgent(g *graph, params map[string]any) ([]store.Record, error) {
	id := param(params, "id")
	if g.get(store.LabelAgent, id) == nil {
		g.add(store.LabelAgent, id, propsParam(params, "props"))
	}
	return []store.Record{{"id": id}}, nil
}

func createInteraction(g *graph, params map[string]any) ([]store.Record, error) {
	c := g.get(store.LabelClient, param(params, "client_id"))
	if c == nil {
		return nil, nil
	}
	id := param(params, "id")
	if g.get(store.LabelInteraction, id) != nil {
		return nil, fmt.Errorf("interaction %s: %w", id, errDuplicate)
	}
	i := g.add(store.LabelInteraction, id, propsParam(params, "props"))
	g.link(c, i, store.RelParticipatesIn)
	return []store.Record{{"id": id}}, nil
}

func linkAgent(g *graph, params map[string]any) ([]store.Record, error) {
	i := g.get(store.LabelInteraction, param(params, "interaction_id"))
	a := g.get(store.LabelAgent, param(params, "agent_id"))
	if i == nil || a == nil {
		return nil, nil
	}
	g.link(i, a, store.RelPerformedBy)
	return []store.Record{{"id": i.key.id}}, nil
}

func createDerived(label, rel string) handler {
	return func(g *graph, params map[string]any) ([]store.Record, error) {
		i := g.get(store.LabelInteraction, param(params, "interaction_id"))
		if i == nil {
			return nil, nil
		}
		id := param(params, "id")
		if g.get(label, id) != nil {
			return nil, fmt.Errorf("%s %s: %w", label, id, errDuplicate)
		}
		n := g.add(label, id, propsParam(params, "props"))
		g.link(i, n, rel)
		return []store.Record{{"id": id}}, nil
	}
}

func getClient(g *graph, params map[string]any) ([]store.Record, error) {
	c := g.get(store.LabelClient, param(params, "client_id"))
	if c == nil {
		return nil, nil
	}
	return []store.Record{{
		"id":         c.key.id,
		"name":       c.prop("name"),
		"phone":      c.prop("phone"),
		"created_at": c.prop("created_at"),
	}}, nil
}

func clientDebts(g *graph, params map[string]any) ([]store.Record, error) {
	c := g.get(store.LabelClient, param(params, "client_id"))
	if c == nil {
		return nil, nil
	}
	var rows []store.Record
	for _, d := range g.out(c, store.RelHasDebt, store.LabelDebt) {
		rows = append(rows, store.Record{
			"id":              d.key.id,
			"client_id":       d.prop("client_id"),
			"original_amount": d.prop("original_amount"),
			"current_amount":  d.prop("current_amount"),
			"debt_type":       d.prop("debt_type"),
			"creation_date":   d.prop("creation_date"),
			"status":          d.prop("status"),
			"created_at":      d.prop("created_at"),
		})
	}
	return rows, nil
}

func interactionAgent(g *graph, i *node) *node {
	return first(g.out(i, store.RelPerformedBy, store.LabelAgent))
}

func agentID(a *node) any {
	if a == nil {
		return nil
	}
	return a.key.id
}

func clientInteractions(g *graph, params map[string]any) ([]store.Record, error) {
	c := g.get(store.LabelClient, param(params, "client_id"))
	if c == nil {
		return nil, nil
	}
	var rows []store.Record
	for _, i := range g.out(c, store.RelParticipatesIn, store.LabelInteraction) {
		a := interactionAgent(g, i)
		pr := first(g.out(i, store.RelGeneratedPromise, store.LabelPromise))
		rows = append(rows, store.Record{
			"id":               i.key.id,
			"timestamp":        i.prop("timestamp"),
			"contact_type":     i.prop("contact_type"),
			"result":           i.prop("result"),
			"sentiment":        i.prop("sentiment"),
			"duration_seconds": i.prop("duration_seconds"),
			"agent_id":         agentID(a),
			"agent_name":       a.prop("name"),
			"promised_amount":  pr.prop("amount"),
		})
	}
	return rows, nil
}

func derivedRow(g *graph, n, i, client *node, columns []string) store.Record {
	a := interactionAgent(g, i)
	row := store.Record{
		"id":             n.key.id,
		"interaction_id": i.key.id,
		"timestamp":      i.prop("timestamp"),
		"agent_id":       agentID(a),
		"agent_name":     a.prop("name"),
	}
	if client != nil {
		row["client_id"] = client.key.id
	}
	for _, col := range columns {
		row[col] = n.prop(col)
	}
	return row
}

func clientDerived(label, rel string, columns []string) handler {
	return func(g *graph, params map[string]any) ([]store.Record, error) {
		c := g.get(store.LabelClient, param(params, "client_id"))
		if c == nil {
			return nil, nil
		}
		var rows []store.Record
		for _, i := range g.out(c, store.RelParticipatesIn, store.LabelInteraction) {
			for _, n := range g.out(i, rel, label) {
				rows = append(rows, derivedRow(g, n, i, c, columns))
			}
		}
		return rows, nil
	}
}

func allDerived(label, rel string, columns []string) handler {
	return func(g *graph, _ map[string]any) ([]store.Record, error) {
		var rows []store.Record
		for _, n := range g.all(label) {
			for _, i := range g.in(n, rel, store.LabelInteraction) {
				c := first(g.in(i, store.RelParticipatesIn, store.LabelClient))
				if c == nil {
					continue
				}
				rows = append(rows, derivedRow(g, n, i, c, columns))
			}
		}
		return rows, nil
	}
}

func listClients(g *graph, _ map[string]any) ([]store.Record, error) {
	var rows []store.Record
	for _, c := range g.all(store.LabelClient) {
		for _, d := range g.out(c, store.RelHasDebt, store.LabelDebt) {
			rows = append(rows, store.Record{
				"id":          c.key.id,
				"name":        c.prop("name"),
				"phone":       c.prop("phone"),
				"debt_amount": d.prop("original_amount"),
				"loan_date":   d.prop("creation_date"),
				"debt_type":   d.prop("debt_type"),
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].String("name") < rows[j].String("name")
	})
	return rows, nil
}

func listAgents(g *graph, _ map[string]any) ([]store.Record, error) {
	var rows []store.Record
	for _, a := range g.all(store.LabelAgent) {
		rows = append(rows, store.Record{
			"id":         a.key.id,
			"name":       a.prop("name"),
			"department": a.prop("department"),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].String("name") < rows[j].String("name")
	})
	return rows, nil
}

func allInteractions(g *graph, _ map[string]any) ([]store.Record, error) {
	var rows []store.Record
	for _, i := range g.all(store.LabelInteraction) {
		c := first(g.in(i, store.RelParticipatesIn, store.LabelClient))
		var clientID any
		if c != nil {
			clientID = c.key.id
		}
		rows = append(rows, store.Record{
			"id":               i.key.id,
			"client_id":        clientID,
			"timestamp":        i.prop("timestamp"),
			"contact_type":     i.prop("contact_type"),
			"result":           i.prop("result"),
			"duration_seconds": i.prop("duration_seconds"),
			"agent_id":         agentID(interactionAgent(g, i)),
		})
	}
	return rows, nil
}

func graphNodes(g *graph, _ map[string]any) ([]store.Record, error) {
	rows := make([]store.Record, 0, len(g.order))
	for _, k := range g.order {
		n := g.nodes[k]
		name := n.prop("name")
		if name == nil {
			name = k.id
		}
		rows = append(rows, store.Record{"id": k.id, "label": k.label, "name": name})
	}
	return rows, nil
}

func graphRelationships(g *graph, _ map[string]any) ([]store.Record, error) {
	rows := make([]store.Record, 0, len(g.edges))
	for _, e := range g.edges {
		rows = append(rows, store.Record{"source": e.src.id, "target": e.dst.id, "type": e.rel})
	}
	return rows, nil
}
