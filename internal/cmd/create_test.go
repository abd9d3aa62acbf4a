package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/capsule/internal/testutil"
)

const createWorkspace = `
components:
  - name: ui/button
    version: 1.0.0
    rootDir: components/button
    main: index.js
    dependencies: [ui/theme@1.0.0]
  - name: ui/theme
    version: 1.0.0
    rootDir: components/theme
    main: index.js
`

// createFixture writes a two-component workspace and returns the manifest
// path and a base dir for capsules.
func createFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"capsule.workspace.yaml":     createWorkspace,
		"components/button/index.js": "module.exports = require('@capsule/ui.theme');\n",
		"components/theme/index.js":  "module.exports = {};\n",
	})
	return filepath.Join(dir, "capsule.workspace.yaml"), filepath.Join(dir, "capsules")
}

func installCount(t *testing.T, workDir string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(workDir, "installs.log"))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "run")
}

func TestCreate_BuildsAndReusesCapsules(t *testing.T) {
	// Each install appends to installs.log in the capsule.
	testutil.FakeBinary(t, "npm", "echo run >> installs.log")
	manifest, base := createFixture(t)
	metricsFile := filepath.Join(t.TempDir(), "capsule.prom")

	args := []string{"create", "ui/button@1.0.0",
		"--workspace-file", manifest,
		"--base-dir", base,
		"--silent",
		"--metrics-file", metricsFile,
	}

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "ui/button@1.0.0")
	assert.Contains(t, out, "ui/theme@1.0.0")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "2 capsule(s) ready, 2 installed")

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		workDir := filepath.Join(base, e.Name())
		assert.FileExists(t, filepath.Join(workDir, "package.json"))
		assert.Equal(t, 1, installCount(t, workDir))
	}

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `capsule_capsules_total{state="created"} 2`)

	// Same components and options: capsules are reused and nothing installs.
	out, err = execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "reused")
	assert.Contains(t, out, "2 capsule(s) ready, 0 installed")
	for _, e := range entries {
		assert.Equal(t, 1, installCount(t, filepath.Join(base, e.Name())))
	}
}

func TestCreate_InstallsDisabled(t *testing.T) {
	manifest, base := createFixture(t)

	out, err := execute(t, "create", "ui/theme@1.0.0",
		"--workspace-file", manifest,
		"--base-dir", base,
		"--install-packages=false",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "1 capsule(s) ready, 0 installed (installs disabled)")
}

func TestCreate_MatchesKey(t *testing.T) {
	manifest, base := createFixture(t)

	keyOut, err := execute(t, "key", "ui/theme@1.0.0", "--base-dir", base, "--name", "review")
	require.NoError(t, err)
	assert.Contains(t, keyOut, "resourceId: ui/theme@1.0.0_")

	_, err = execute(t, "create", "ui/theme@1.0.0",
		"--workspace-file", manifest,
		"--base-dir", base,
		"--name", "review",
		"--install-packages=false",
	)
	require.NoError(t, err)

	workDir := filepath.Join(base, "ui_theme_1.0.0_review")
	assert.Contains(t, keyOut, "workDir:    "+workDir)
	assert.DirExists(t, workDir)
}

func TestCreate_Errors(t *testing.T) {
	manifest, base := createFixture(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{
			name:     "invalid component id",
			args:     []string{"create", "ui/button@not-a-version", "--workspace-file", manifest},
			wantCode: ExitValidationError,
		},
		{
			name:     "no graph source",
			args:     []string{"create", "ui/button@1.0.0", "--base-dir", base},
			wantCode: ExitResolutionError,
		},
		{
			name:     "missing workspace manifest",
			args:     []string{"create", "ui/button@1.0.0", "--workspace-file", filepath.Join(base, "absent.yaml")},
			wantCode: ExitResolutionError,
		},
		{
			name:     "unsupported package manager",
			args:     []string{"create", "ui/button@1.0.0", "--workspace-file", manifest, "--base-dir", base, "--package-manager", "maven"},
			wantCode: ExitValidationError,
		},
		{
			name:     "invalid name",
			args:     []string{"create", "ui/button@1.0.0", "--workspace-file", manifest, "--base-dir", base, "--name", "../escape"},
			wantCode: ExitValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CAPSULE_WORKSPACE_FILE", "")
			t.Setenv("CAPSULE_SCOPE_DIR", "")

			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCodeFromError(err), err.Error())
		})
	}
}

func TestCreate_RequiresArgs(t *testing.T) {
	_, err := execute(t, "create")
	require.Error(t, err)
}
