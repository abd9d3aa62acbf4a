package network

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
)

var pkgA = component.MustParseID("pkg/a@1.0.0")

func mustKey(t *testing.T, id component.ID, opts capsule.Options, orch capsule.OrchestrationOptions) ResourceKey {
	t.Helper()
	key, err := DeriveResourceKey(id, opts, orch)
	require.NoError(t, err)
	return key
}

func TestDeriveResourceKey_Layout(t *testing.T) {
	key := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x"}, capsule.OrchestrationOptions{})

	assert.True(t, strings.HasPrefix(key.WorkDir, "/tmp/x/pkg_a_1.0.0_"), key.WorkDir)
	assert.True(t, strings.HasPrefix(key.ResourceID, "pkg/a@1.0.0_"), key.ResourceID)
	assert.NotContains(t, strings.TrimPrefix(key.WorkDir, "/tmp/x/"), "/")
}

func TestDeriveResourceKey_Deterministic(t *testing.T) {
	extraA := map[string]string{}
	extraA["alpha"] = "1"
	extraA["beta"] = "2"
	extraB := map[string]string{}
	extraB["beta"] = "2"
	extraB["alpha"] = "1"

	first := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x", Extra: extraA}, capsule.OrchestrationOptions{})
	second := mustKey(t, pkgA, capsule.Options{
		BaseDir:         "/tmp/x/",
		Workspace:       capsule.DefaultWorkspace,
		InstallPackages: capsule.Bool(true),
		WriteConfig:     capsule.Bool(false),
		Extra:           extraB,
	}, capsule.OrchestrationOptions{})

	assert.Equal(t, first, second, "omitted and explicit defaults must derive the same key")
}

func TestDeriveResourceKey_OptionsChangeSuffix(t *testing.T) {
	base := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x"}, capsule.OrchestrationOptions{})
	other := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x", WriteDists: capsule.Bool(false)}, capsule.OrchestrationOptions{})
	extra := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x", Extra: map[string]string{"k": "v"}}, capsule.OrchestrationOptions{})

	assert.NotEqual(t, base.WorkDir, other.WorkDir)
	assert.NotEqual(t, base.WorkDir, extra.WorkDir)
	assert.NotEqual(t, base.ResourceID, other.ResourceID)
}

func TestDeriveResourceKey_VersionsDoNotShareDirectories(t *testing.T) {
	v1 := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x"}, capsule.OrchestrationOptions{})
	v2 := mustKey(t, component.MustParseID("pkg/a@2.0.0"), capsule.Options{BaseDir: "/tmp/x"}, capsule.OrchestrationOptions{})
	assert.NotEqual(t, v1.WorkDir, v2.WorkDir)
}

func TestDeriveResourceKey_AlwaysNew(t *testing.T) {
	opts := capsule.Options{BaseDir: "/tmp/x"}
	orch := capsule.OrchestrationOptions{AlwaysNew: true, Name: "ignored"}

	seen := make(map[string]bool)
	for range 5 {
		key := mustKey(t, pkgA, opts, orch)
		assert.False(t, seen[key.WorkDir], "alwaysNew must never repeat a directory")
		assert.False(t, strings.HasSuffix(key.WorkDir, "_ignored"))
		seen[key.WorkDir] = true
	}
}

func TestDeriveResourceKey_NamedReuse(t *testing.T) {
	orch := capsule.OrchestrationOptions{Name: "shared"}

	a := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x"}, orch)
	b := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/x", WriteDists: capsule.Bool(false), Verbose: capsule.Bool(true)}, orch)

	assert.Equal(t, "/tmp/x/pkg_a_1.0.0_shared", a.WorkDir)
	assert.Equal(t, a, b)

	elsewhere := mustKey(t, pkgA, capsule.Options{BaseDir: "/tmp/y"}, orch)
	assert.NotEqual(t, a.ResourceID, elsewhere.ResourceID, "same directory name under another base must not collide in the pool")
}

func TestDeriveResourceKey_InvalidName(t *testing.T) {
	for _, name := range []string{"a/b", `a\b`, ".."} {
		_, err := DeriveResourceKey(pkgA, capsule.Options{}, capsule.OrchestrationOptions{Name: name})
		assert.ErrorIs(t, err, oerrors.ErrValidation, name)
	}
}

func TestDeriveResourceKey_HashFormat(t *testing.T) {
	opts := capsule.Options{BaseDir: "/tmp/x"}
	key := mustKey(t, pkgA, opts, capsule.OrchestrationOptions{})

	optsHash, err := hashstructure.Hash(opts.WithDefaults(), hashstructure.FormatV2, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key.WorkDir, fmt.Sprintf("_%016x", optsHash)), key.WorkDir)

	dirHash, err := hashstructure.Hash(key.WorkDir, hashstructure.FormatV2, nil)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("pkg/a@1.0.0_%016x", dirHash), key.ResourceID)
}

func TestDeriveResourceKey_SanitizedNamesShareDirectory(t *testing.T) {
	opts := capsule.Options{BaseDir: "/tmp/x"}
	slash := mustKey(t, pkgA, opts, capsule.OrchestrationOptions{})
	underscore := mustKey(t, component.MustParseID("pkg_a@1.0.0"), opts, capsule.OrchestrationOptions{})

	// The pool refuses the second of these while the first is held.
	assert.Equal(t, slash.WorkDir, underscore.WorkDir)
	assert.NotEqual(t, slash.ResourceID, underscore.ResourceID)
}
