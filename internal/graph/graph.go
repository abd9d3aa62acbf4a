// Package graph provides the component dependency graph consumed by the network builder.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/opmodel/capsule/internal/component"
)

// ErrAlreadyExists is returned when adding a component whose id is already a node.
var ErrAlreadyExists = errors.New("component already exists in the graph")

// EdgeKind is the dependency kind carried by an edge.
type EdgeKind string

const (
	KindRuntime  EdgeKind = "dependency"
	KindDev      EdgeKind = "devDependency"
	KindCompiler EdgeKind = "compilerDependency"
	KindTester   EdgeKind = "testerDependency"
)

// Edge is a typed, directed dependency edge.
type Edge struct {
	From component.ID
	To   component.ID
	Kind EdgeKind
}

// Graph is a directed multigraph of components keyed by id string form.
// Edges may point at ids that are not nodes (external packages); looking such
// an id up yields "absent". Cycles are allowed.
//
// A Graph is built once and then only read; it is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]*component.Component
	out   map[string][]Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*component.Component),
		out:   make(map[string][]Edge),
	}
}

// AddComponent adds c as a node along with one edge per declared dependency.
func (g *Graph) AddComponent(c *component.Component) error {
	key := c.ID.String()
	if _, exists := g.nodes[key]; exists {
		return fmt.Errorf("node %s: %w", key, ErrAlreadyExists)
	}
	g.nodes[key] = c

	add := func(kind EdgeKind, ids []component.ID) {
		for _, to := range ids {
			g.out[key] = append(g.out[key], Edge{From: c.ID, To: to, Kind: kind})
		}
	}
	add(KindRuntime, c.Dependencies)
	add(KindDev, c.DevDependencies)
	add(KindCompiler, c.CompilerDependencies)
	add(KindTester, c.TesterDependencies)
	return nil
}

// Node looks up a component. Unknown ids return (nil, false), never an error.
func (g *Graph) Node(id component.ID) (*component.Component, bool) {
	c, ok := g.nodes[id.String()]
	return c, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all components sorted by id.
func (g *Graph) Nodes() []*component.Component {
	out := make([]*component.Component, 0, len(g.nodes))
	for _, c := range g.nodes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return component.Compare(out[i].ID, out[j].ID) < 0
	})
	return out
}

// Successors returns the outgoing edges of id in declaration order.
func (g *Graph) Successors(id component.ID) []Edge {
	return append([]Edge(nil), g.out[id.String()]...)
}

// SuccessorsRecursive returns every id reachable from id along edges of any
// kind, in depth-first pre-order, without duplicates and excluding id itself
// unless it is reachable through a cycle.
func (g *Graph) SuccessorsRecursive(id component.ID) []component.ID {
	visited := map[string]bool{id.String(): true}
	var order []component.ID
	selfReached := false

	var visit func(from string)
	visit = func(from string) {
		for _, e := range g.out[from] {
			key := e.To.String()
			if key == id.String() {
				selfReached = true
			}
			if visited[key] {
				continue
			}
			visited[key] = true
			order = append(order, e.To)
			visit(key)
		}
	}
	visit(id.String())

	if selfReached {
		order = append(order, id)
	}
	return order
}
