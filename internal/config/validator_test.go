package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/capsule/internal/capsule"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidateBytes(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantField string
	}{
		{name: "empty document", content: ""},
		{name: "valid", content: "capsule:\n  packageManager: yarn\n  extra:\n    k: v\n"},
		{name: "unknown top-level field", content: "registry: x\n", wantField: "registry"},
		{name: "unknown capsule field", content: "capsule:\n  nodeVersion: 20\n", wantField: "capsule.nodeVersion"},
		{name: "bad package manager", content: "capsule:\n  packageManager: maven\n", wantField: "capsule.packageManager"},
		{name: "wrong type", content: "capsule:\n  installPackages: sometimes\n", wantField: "capsule.installPackages"},
		{name: "workspace with slash", content: "capsule:\n  workspace: a/b\n", wantField: "capsule.workspace"},
		{name: "non-string extra", content: "capsule:\n  extra:\n    k: 1\n", wantField: "capsule.extra.k"},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBytes([]byte(tt.content))
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			fields := make([]string, 0, len(verrs))
			for _, e := range verrs {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidate(t *testing.T) {
	v := newValidator(t)

	require.NoError(t, v.Validate(&Config{}))

	err := v.Validate(&Config{
		Capsule:       capsule.Options{PackageManager: "maven", BaseDir: "   "},
		WorkspaceFile: " ",
	})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)
	assert.Equal(t, "capsule.baseDir", verrs[0].Field)
	assert.Equal(t, "capsule.packageManager", verrs[1].Field)
	assert.Equal(t, "workspaceFile", verrs[2].Field)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestValidateFile(t *testing.T) {
	v := newValidator(t)

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.ValidateFile(writeConfig(t, DefaultConfigTemplate)))
	})

	t.Run("schema violation", func(t *testing.T) {
		err := v.ValidateFile(writeConfig(t, "capsule:\n  verbose: 3\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capsule.verbose")
	})

	t.Run("missing file", func(t *testing.T) {
		err := v.ValidateFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}

func TestValidationErrors_Empty(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
}
