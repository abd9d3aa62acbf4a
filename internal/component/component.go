package component

import (
	"path"
	"strings"
)

// File is a single file keyed by its slash-separated path relative to the component root.
type File struct {
	Path    string
	Content []byte
}

// Component is a node of the dependency graph.
type Component struct {
	ID ID

	Dependencies         []ID
	DevDependencies      []ID
	CompilerDependencies []ID
	TesterDependencies   []ID

	// Main is the entry file relative to the component root.
	Main string

	// Files are the component's source files.
	Files []File

	// Dists are build outputs, written only when dists are requested.
	Dists []File

	// FilesToPersist is populated during materialization and written into the capsule.
	FilesToPersist []File
}

// AllDependencies returns the union of all four dependency kinds,
// deduplicated, in declaration order.
func (c *Component) AllDependencies() []ID {
	seen := make(map[string]struct{})
	var out []ID
	for _, list := range [][]ID{c.Dependencies, c.DevDependencies, c.CompilerDependencies, c.TesterDependencies} {
		for _, id := range list {
			key := id.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Clone returns a deep copy. Materialization works on clones so the graph stays read-only.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	return &Component{
		ID:                   c.ID,
		Dependencies:         append([]ID(nil), c.Dependencies...),
		DevDependencies:      append([]ID(nil), c.DevDependencies...),
		CompilerDependencies: append([]ID(nil), c.CompilerDependencies...),
		TesterDependencies:   append([]ID(nil), c.TesterDependencies...),
		Main:                 c.Main,
		Files:                cloneFiles(c.Files),
		Dists:                cloneFiles(c.Dists),
		FilesToPersist:       cloneFiles(c.FilesToPersist),
	}
}

// StripSharedDir removes the directory prefix shared by every file and dist
// path, making the layout relative to the component root. Main is adjusted too.
// Only in-memory paths change. Returns the stripped prefix ("" if none).
func (c *Component) StripSharedDir() string {
	all := make([]string, 0, len(c.Files)+len(c.Dists))
	for _, f := range c.Files {
		all = append(all, f.Path)
	}
	for _, f := range c.Dists {
		all = append(all, f.Path)
	}

	prefix := sharedDir(all)
	if prefix == "" {
		return ""
	}

	strip := func(p string) string {
		return strings.TrimPrefix(p, prefix+"/")
	}
	for i := range c.Files {
		c.Files[i].Path = strip(c.Files[i].Path)
	}
	for i := range c.Dists {
		c.Dists[i].Path = strip(c.Dists[i].Path)
	}
	if c.Main != "" {
		c.Main = strip(path.Clean(c.Main))
	}
	return prefix
}

// sharedDir returns the longest directory prefix common to every path.
func sharedDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	common := strings.Split(path.Dir(path.Clean(paths[0])), "/")
	for _, p := range paths[1:] {
		dirs := strings.Split(path.Dir(path.Clean(p)), "/")
		n := 0
		for n < len(common) && n < len(dirs) && common[n] == dirs[n] {
			n++
		}
		common = common[:n]
		if n == 0 {
			return ""
		}
	}

	prefix := strings.Join(common, "/")
	if prefix == "." {
		return ""
	}
	return prefix
}

func cloneFiles(files []File) []File {
	if files == nil {
		return nil
	}
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = File{Path: f.Path, Content: append([]byte(nil), f.Content...)}
	}
	return out
}
