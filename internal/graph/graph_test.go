package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
)

func id(s string) component.ID {
	return component.MustParseID(s)
}

func ids(ss ...string) []component.ID {
	out := make([]component.ID, len(ss))
	for i, s := range ss {
		out[i] = id(s)
	}
	return out
}

func strs(in []component.ID) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.String()
	}
	return out
}

// diamond builds s -> a -> b, s -> b, a -dev-> c.
func diamond(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddComponent(&component.Component{ID: id("s@1.0.0"), Dependencies: ids("a@1.0.0", "b@1.0.0")}))
	require.NoError(t, g.AddComponent(&component.Component{ID: id("a@1.0.0"), Dependencies: ids("b@1.0.0"), DevDependencies: ids("c@1.0.0")}))
	require.NoError(t, g.AddComponent(&component.Component{ID: id("b@1.0.0")}))
	require.NoError(t, g.AddComponent(&component.Component{ID: id("c@1.0.0")}))
	return g
}

func TestAddComponent_Duplicate(t *testing.T) {
	g := New()
	require.NoError(t, g.AddComponent(&component.Component{ID: id("a@1.0.0")}))
	err := g.AddComponent(&component.Component{ID: id("a@1.0.0")})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestNode_Absent(t *testing.T) {
	g := diamond(t)

	c, ok := g.Node(id("a@1.0.0"))
	require.True(t, ok)
	assert.Equal(t, "a@1.0.0", c.ID.String())

	c, ok = g.Node(id("external@9.9.9"))
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestSuccessors_Typed(t *testing.T) {
	g := diamond(t)
	edges := g.Successors(id("a@1.0.0"))
	require.Len(t, edges, 2)
	assert.Equal(t, KindRuntime, edges[0].Kind)
	assert.Equal(t, KindDev, edges[1].Kind)
	assert.Equal(t, "c@1.0.0", edges[1].To.String())
}

func TestSuccessorsRecursive(t *testing.T) {
	g := diamond(t)

	got := g.SuccessorsRecursive(id("s@1.0.0"))
	assert.ElementsMatch(t, []string{"a@1.0.0", "b@1.0.0", "c@1.0.0"}, strs(got))
	assert.Len(t, got, 3, "b is reachable twice but listed once")
}

func TestSuccessorsRecursive_AllKinds(t *testing.T) {
	g := New()
	require.NoError(t, g.AddComponent(&component.Component{
		ID:                   id("s@1.0.0"),
		CompilerDependencies: ids("compiler@1.0.0"),
		TesterDependencies:   ids("tester@1.0.0"),
	}))
	got := g.SuccessorsRecursive(id("s@1.0.0"))
	assert.Equal(t, []string{"compiler@1.0.0", "tester@1.0.0"}, strs(got))
}

func TestSuccessorsRecursive_Cycle(t *testing.T) {
	g := New()
	require.NoError(t, g.AddComponent(&component.Component{ID: id("a@1.0.0"), Dependencies: ids("b@1.0.0")}))
	require.NoError(t, g.AddComponent(&component.Component{ID: id("b@1.0.0"), Dependencies: ids("a@1.0.0")}))

	got := g.SuccessorsRecursive(id("a@1.0.0"))
	assert.Equal(t, []string{"b@1.0.0", "a@1.0.0"}, strs(got))
}

func TestSuccessorsRecursive_ExternalTargets(t *testing.T) {
	g := New()
	require.NoError(t, g.AddComponent(&component.Component{ID: id("a@1.0.0"), Dependencies: ids("lodash@4.17.21")}))

	got := g.SuccessorsRecursive(id("a@1.0.0"))
	assert.Equal(t, []string{"lodash@4.17.21"}, strs(got))
}

func TestNodes_Sorted(t *testing.T) {
	g := diamond(t)
	nodes := g.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, "a@1.0.0", nodes[0].ID.String())
	assert.Equal(t, "s@1.0.0", nodes[3].ID.String())
	assert.Equal(t, 4, g.Len())
}

func TestConsumerBuild(t *testing.T) {
	ctx := context.Background()
	wsGraph := New()
	scopeGraph := New()

	t.Run("nil consumer", func(t *testing.T) {
		var c *Consumer
		_, err := c.Build(ctx)
		assert.ErrorIs(t, err, oerrors.ErrResolution)
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := (&Consumer{}).Build(ctx)
		assert.ErrorIs(t, err, oerrors.ErrResolution)
	})

	t.Run("workspace preferred", func(t *testing.T) {
		g, err := (&Consumer{Workspace: Static(wsGraph), Scope: Static(scopeGraph)}).Build(ctx)
		require.NoError(t, err)
		assert.Same(t, wsGraph, g)
	})

	t.Run("scope fallback", func(t *testing.T) {
		g, err := (&Consumer{Scope: Static(scopeGraph)}).Build(ctx)
		require.NoError(t, err)
		assert.Same(t, scopeGraph, g)
	})

	t.Run("source failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := (&Consumer{Workspace: SourceFunc(func(context.Context) (*Graph, error) {
			return nil, boom
		})}).Build(ctx)
		assert.ErrorIs(t, err, oerrors.ErrResolution)
		assert.ErrorIs(t, err, boom)
	})
}
