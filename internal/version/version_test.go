package version

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/capsule/internal/testutil"
)

func TestGet(t *testing.T) {
	info := Get()

	require.NotEmpty(t, info.GoVersion, "GoVersion should be populated")
	assert.Equal(t, Version, info.Version)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v1.0.0",
		GitCommit: "abc123",
		BuildDate: "2026-01-29",
		GoVersion: "go1.25",
	}

	str := info.String()

	assert.Contains(t, str, "v1.0.0")
	assert.Contains(t, str, "abc123")
	assert.Contains(t, str, "2026-01-29")
	assert.Contains(t, str, "go1.25")
}

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		name    string
		pm      string
		version string
		want    bool
	}{
		{"npm current", "npm", "10.2.4", true},
		{"npm too old", "npm", "6.14.18", false},
		{"yarn classic", "yarn", "1.22.19", true},
		{"bun prerelease below", "bun", "0.8.1", false},
		{"garbage", "pnpm", "latest", false},
		{"unknown manager", "deno", "0.0.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := CheckCompatible(tt.pm, tt.version)
			assert.Equal(t, tt.want, got, msg)
		})
	}
}

func TestExtractVersion(t *testing.T) {
	v, err := extractVersion("v1.1.38\n")
	require.NoError(t, err)
	assert.Equal(t, "1.1.38", v)

	_, err = extractVersion("command not understood")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse version")
}

func TestDetectBinary(t *testing.T) {
	script := testutil.WriteScript(t, t.TempDir(), "npm", "echo 10.8.2")
	t.Setenv("PATH", filepath.Dir(script))

	info := DetectBinary(context.Background(), "npm")
	assert.True(t, info.Found)
	assert.True(t, info.Compatible)
	assert.Equal(t, "10.8.2", info.Version)
	assert.Equal(t, script, info.Path)

	missing := DetectBinary(context.Background(), "pnpm")
	assert.False(t, missing.Found)
	assert.Contains(t, missing.String(), "not found")
}

func TestFullVersionString(t *testing.T) {
	out := FullVersionString(Info{Version: "v1.2.3"}, []BinaryInfo{
		{Name: "npm", Found: true, Compatible: true, Version: "10.0.0", Path: "/usr/bin/npm"},
		{Name: "bun"},
	})

	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "npm   10.0.0 (compatible) /usr/bin/npm")
	assert.Contains(t, out, "bun   not found")
}
