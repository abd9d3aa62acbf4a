package network

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/opmodel/capsule/internal/component"
	"github.com/opmodel/capsule/internal/graph"
)

// ResolveClosure returns the seeds plus every component reachable from them
// along any dependency kind, without duplicates. Seeds are processed in the
// given order and each seed's closure is expanded before the next seed. Ids
// the graph does not know are dropped.
func ResolveClosure(g *graph.Graph, seeds []component.ID) []*component.Component {
	seen := sets.New[string]()
	var out []*component.Component

	add := func(id component.ID) {
		key := id.String()
		if seen.Has(key) {
			return
		}
		seen.Insert(key)
		if c, ok := g.Node(id); ok {
			out = append(out, c)
		}
	}

	for _, seed := range seeds {
		add(seed)
		for _, id := range g.SuccessorsRecursive(seed) {
			add(id)
		}
	}
	return out
}

// MissingSeeds returns the seeds the graph does not contain.
func MissingSeeds(g *graph.Graph, seeds []component.ID) []component.ID {
	var missing []component.ID
	for _, id := range seeds {
		if _, ok := g.Node(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
