// Package component defines component identifiers and the in-memory component model
// that capsules are materialized from.
package component

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ID identifies a component by name and version. The zero Version means "unversioned".
// IDs are compared and keyed by their string form.
type ID struct {
	Name    string
	Version string
}

// ParseID parses "name@version" (or a bare name). Scoped names with a leading
// "@" are supported. A non-empty version must be valid semver.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, fmt.Errorf("empty component id")
	}

	name, version := s, ""
	if i := strings.LastIndex(s, "@"); i > 0 {
		name, version = s[:i], s[i+1:]
		if version == "" {
			return ID{}, fmt.Errorf("component id %q: empty version after '@'", s)
		}
	}

	if name == "" || strings.HasSuffix(name, "/") || strings.HasPrefix(name, "/") {
		return ID{}, fmt.Errorf("component id %q: invalid name", s)
	}

	if version != "" {
		if _, err := semver.NewVersion(version); err != nil {
			return ID{}, fmt.Errorf("component id %q: invalid version %q: %w", s, version, err)
		}
	}

	return ID{Name: name, Version: version}, nil
}

// MustParseID is like ParseID but panics on error. Intended for tests and literals.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseIDs parses each string, failing on the first invalid id.
func ParseIDs(ss []string) ([]ID, error) {
	ids := make([]ID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// String returns "name@version", or just the name when unversioned.
func (id ID) String() string {
	if id.Version == "" {
		return id.Name
	}
	return id.Name + "@" + id.Version
}

// Compare orders ids by their string form.
func Compare(a, b ID) int {
	return strings.Compare(a.String(), b.String())
}

// Sanitize returns a filesystem-safe token for the id. Every rune outside
// [A-Za-z0-9._-] becomes '_', so "pkg/a@1.0.0" turns into "pkg_a_1.0.0".
func (id ID) Sanitize() string {
	return SanitizeToken(id.String())
}

// SanitizeToken replaces every rune outside [A-Za-z0-9._-] with '_'.
func SanitizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
