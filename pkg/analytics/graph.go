package analytics

import (
	"context"

	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
)

// GetRelationshipGraph dumps every node and relationship for visualization.
// Nodes are deduplicated by id, the first label seen wins.
func (e *Engine) GetRelationshipGraph(ctx context.Context) (*RelationshipGraph, error) {
	records, err := e.query(ctx, store.StmtGraphNodes)
	if err != nil {
		return nil, err
	}
	nodes := store.GraphNodeRows(records)

	if records, err = e.query(ctx, store.StmtGraphRelationships); err != nil {
		return nil, err
	}
	rels := store.GraphRelationshipRows(records)

	g := &RelationshipGraph{
		Nodes:         make([]GraphNode, 0, len(nodes)),
		Relationships: make([]GraphRelationship, 0, len(rels)),
	}
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		g.Nodes = append(g.Nodes, GraphNode(n))
	}
	for _, r := range rels {
		g.Relationships = append(g.Relationships, GraphRelationship(r))
	}
	return g, nil
}
