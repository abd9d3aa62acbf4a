package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinimumVersions holds the oldest supported release of each package manager.
var MinimumVersions = map[string]string{
	"npm":  ">= 7.0.0",
	"yarn": ">= 1.22.0",
	"pnpm": ">= 7.0.0",
	"bun":  ">= 1.0.0",
}

// versionRegex matches version output like "10.2.4" or "v1.1.38".
var versionRegex = regexp.MustCompile(`v?\d+\.\d+\.\d+(?:-[a-zA-Z0-9.]+)?`)

// BinaryInfo describes a package manager binary found on PATH.
type BinaryInfo struct {
	// Name is the package manager name.
	Name string `json:"name"`

	// Version is the binary version.
	Version string `json:"version,omitempty"`

	// Path is the path to the binary.
	Path string `json:"path,omitempty"`

	// Found indicates if the binary was found.
	Found bool `json:"found"`

	// Compatible indicates if the version satisfies MinimumVersions.
	Compatible bool `json:"compatible"`

	// Message provides additional information about compatibility.
	Message string `json:"message,omitempty"`
}

// DetectBinary finds a package manager on PATH and checks its version.
func DetectBinary(ctx context.Context, name string) BinaryInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return BinaryInfo{Name: name, Message: "not found in PATH"}
	}

	v, err := binaryVersion(ctx, path)
	if err != nil {
		return BinaryInfo{
			Name:    name,
			Path:    path,
			Found:   true,
			Message: "failed to get version: " + err.Error(),
		}
	}

	compatible, message := CheckCompatible(name, v)
	return BinaryInfo{
		Name:       name,
		Version:    v,
		Path:       path,
		Found:      true,
		Compatible: compatible,
		Message:    message,
	}
}

// CheckCompatible reports whether version satisfies the minimum for name.
// Package managers without a known minimum are always compatible.
func CheckCompatible(name, version string) (bool, string) {
	constraint, ok := MinimumVersions[name]
	if !ok {
		return true, "compatible"
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, "incompatible - invalid version format"
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Sprintf("invalid constraint %q", constraint)
	}
	if !c.Check(v) {
		return false, fmt.Sprintf("incompatible - requires %s", constraint)
	}
	return true, "compatible"
}

// String returns a human-readable binary info string.
func (b BinaryInfo) String() string {
	if !b.Found {
		return fmt.Sprintf("  %-5s not found", b.Name)
	}

	status := "compatible"
	if !b.Compatible {
		status = b.Message
	}
	return fmt.Sprintf("  %-5s %s (%s) %s", b.Name, b.Version, status, b.Path)
}

func binaryVersion(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return extractVersion(out.String())
}

func extractVersion(output string) (string, error) {
	match := versionRegex.FindString(output)
	if match == "" {
		return "", &versionParseError{output: strings.TrimSpace(output)}
	}
	return strings.TrimPrefix(match, "v"), nil
}

// versionParseError indicates failure to parse version output.
type versionParseError struct {
	output string
}

func (e *versionParseError) Error() string {
	return "failed to parse version from output: " + e.output
}
