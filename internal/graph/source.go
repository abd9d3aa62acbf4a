package graph

import (
	"context"

	oerrors "github.com/opmodel/capsule/internal/errors"
)

// Source builds a dependency graph, e.g. from a workspace or an exported scope.
type Source interface {
	Graph(ctx context.Context) (*Graph, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Graph, error)

// Graph implements Source.
func (f SourceFunc) Graph(ctx context.Context) (*Graph, error) {
	return f(ctx)
}

// Static returns a Source that always yields g.
func Static(g *Graph) Source {
	return SourceFunc(func(context.Context) (*Graph, error) {
		return g, nil
	})
}

// Consumer is the handle a network build resolves its graph from.
// The workspace wins when both are set.
type Consumer struct {
	Workspace Source
	Scope     Source
}

// Build loads the graph from the workspace, falling back to the scope.
// Without either, or when loading fails, it returns an ErrResolution error.
func (c *Consumer) Build(ctx context.Context) (*Graph, error) {
	var (
		src  Source
		kind string
	)
	switch {
	case c != nil && c.Workspace != nil:
		src, kind = c.Workspace, "workspace"
	case c != nil && c.Scope != nil:
		src, kind = c.Scope, "scope"
	default:
		return nil, oerrors.NewResolutionError(
			"no workspace and no scope available to build the dependency graph",
			"pass --workspace-file or --scope-dir",
		)
	}

	g, err := src.Graph(ctx)
	if err != nil {
		return nil, oerrors.WrapResolution(err, "building graph from "+kind)
	}
	if g == nil {
		return nil, oerrors.NewResolutionError(kind+" returned no graph", "")
	}
	return g, nil
}
