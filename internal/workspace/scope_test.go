package workspace

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/graph"
)

func TestLoadScope(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/scope/b.yaml": `
name: pkg/b
version: 2.0.0
main: index.js
files:
  - path: index.js
    content: "module.exports = 'b';"
dists:
  - path: dist/index.js
    content: built
`,
		"/scope/c.yml":     "name: pkg/c\nversion: 3.0.0\ntesterDependencies: [pkg/b@2.0.0]\n",
		"/scope/README.md": "not a component",
	})

	g, err := LoadScope(context.Background(), fsys, "/scope")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	b, ok := g.Node(component.MustParseID("pkg/b@2.0.0"))
	require.True(t, ok)
	assert.Equal(t, "index.js", b.Main)
	require.Len(t, b.Files, 1)
	assert.Equal(t, "module.exports = 'b';", string(b.Files[0].Content))
	assert.Equal(t, []string{"dist/index.js"}, filePaths(b.Dists))

	c, ok := g.Node(component.MustParseID("pkg/c@3.0.0"))
	require.True(t, ok)
	assert.Equal(t, []component.ID{b.ID}, c.TesterDependencies)
}

func TestLoadScope_Errors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		_, err := LoadScope(context.Background(), afero.NewMemMapFs(), "/nope")
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
	})

	t.Run("nameless component", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeFiles(t, fsys, map[string]string{"/scope/x.yaml": "version: 1.0.0\n"})
		_, err := LoadScope(context.Background(), fsys, "/scope")
		assert.ErrorIs(t, err, oerrors.ErrValidation)
	})
}

func TestConsumer_FallsBackToScope(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"/scope/a.yaml": "name: a\n"})

	consumer := &graph.Consumer{Scope: NewScope(fsys, "/scope")}
	g, err := consumer.Build(context.Background())
	require.NoError(t, err)
	_, ok := g.Node(component.MustParseID("a"))
	assert.True(t, ok)
}
