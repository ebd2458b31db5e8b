package memory

import "maps"

type nodeKey struct {
	label string
	id    string
}

type node struct {
	key   nodeKey
	props map[string]any
}

type edge struct {
	src nodeKey
	dst nodeKey
	rel string
}

// graph is an append-only property graph; only reset removes data. That
// lets a failed statement or transaction be undone by truncating back to a
// mark instead of copying the graph.
type graph struct {
	nodes map[nodeKey]*node
	order []nodeKey
	edges []edge
}

func newGraph() *graph {
	return &graph{nodes: make(map[nodeKey]*node)}
}

func (g *graph) clone() *graph {
	c := &graph{
		nodes: make(map[nodeKey]*node, len(g.nodes)),
		order: append([]nodeKey(nil), g.order...),
		edges: append([]edge(nil), g.edges...),
	}
	for k, n := range g.nodes {
		c.nodes[k] = &node{key: n.key, props: maps.Clone(n.props)}
	}
	return c
}

// mark records how much of the graph exists so it can be rolled back to.
type mark struct {
	nodes int
	edges int
}

func (g *graph) mark() mark {
	return mark{nodes: len(g.order), edges: len(g.edges)}
}

// rollback drops every node and edge added after m. Handlers never add a
// node whose key already exists, so deleting the added keys is exact.
func (g *graph) rollback(m mark) {
	for _, k := range g.order[m.nodes:] {
		delete(g.nodes, k)
	}
	g.order = g.order[:m.nodes]
	g.edges = g.edges[:m.edges]
}

func (g *graph) get(label, id string) *node {
	return g.nodes[nodeKey{label: label, id: id}]
}

func (g *graph) add(label, id string, props map[string]any) *node {
	k := nodeKey{label: label, id: id}
	p := maps.Clone(props)
	if p == nil {
		p = make(map[string]any)
	}
	p["id"] = id
	n := &node{key: k, props: p}
	g.nodes[k] = n
	g.order = append(g.order, k)
	return n
}

func (g *graph) link(src, dst *node, rel string) {
	g.edges = append(g.edges, edge{src: src.key, dst: dst.key, rel: rel})
}

func (g *graph) out(n *node, rel, label string) []*node {
	var res []*node
	for _, e := range g.edges {
		if e.src == n.key && e.rel == rel && e.dst.label == label {
			if dst := g.nodes[e.dst]; dst != nil {
				res = append(res, dst)
			}
		}
	}
	return res
}

func (g *graph) in(n *node, rel, label string) []*node {
	var res []*node
	for _, e := range g.edges {
		if e.dst == n.key && e.rel == rel && e.src.label == label {
			if src := g.nodes[e.src]; src != nil {
				res = append(res, src)
			}
		}
	}
	return res
}

func (g *graph) all(label string) []*node {
	var res []*node
	for _, k := range g.order {
		if k.label == label {
			res = append(res, g.nodes[k])
		}
	}
	return res
}

func first(ns []*node) *node {
	if len(ns) == 0 {
		return nil
	}
	return ns[0]
}

func (n *node) prop(key string) any {
	if n == nil {
		return nil
	}
	return n.props[key]
}
