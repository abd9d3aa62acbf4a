package cmd

import (
	"bytes"
	"testing"
)

// execute runs the root command with args and returns its stdout.
// CAPSULE_HOME points at a temp dir so no user configuration is read.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CAPSULE_HOME", t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}
