package capsule

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
)

// ResourceConfig describes the capsule a caller wants from the pool.
type ResourceConfig struct {
	ResourceID  string
	WorkingDir  string
	ComponentID component.ID
	Options     Options
}

// dirOwner is the pooled capsule holding a working directory.
type dirOwner struct {
	workspace  string
	resourceID string
}

// Orchestrator is the capsule pool. It hands out one capsule per
// (workspace, resource id) and keeps track of how many holders each has.
// A working directory belongs to at most one pooled capsule at a time.
type Orchestrator struct {
	fs afero.Fs

	once  sync.Once
	mu    sync.Mutex
	pools map[string]map[string]*Capsule // workspace -> resource id -> capsule
	refs  map[string]int
	dirs  map[string]dirOwner

	group singleflight.Group
}

// NewOrchestrator creates a pool backed by fsys. BuildPools must be called before use.
func NewOrchestrator(fsys afero.Fs) *Orchestrator {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Orchestrator{fs: fsys}
}

// BuildPools initializes the pool. Calling it more than once has no effect.
func (o *Orchestrator) BuildPools() {
	o.once.Do(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.pools = make(map[string]map[string]*Capsule)
		o.refs = make(map[string]int)
		o.dirs = make(map[string]dirOwner)
	})
}

func poolKey(workspace, resourceID string) string {
	return workspace + "\x00" + resourceID
}

// GetCapsule returns the capsule for (workspace, rc.ResourceID), creating its
// directory on first use. Concurrent calls for the same key share one
// creation and receive the same handle. AlwaysNew bypasses the cache lookup;
// the caller is expected to pair it with a fresh resource id.
//
// Every successful call takes a reference that the caller gives back with
// Release. A working directory already held under another resource id is
// refused.
func (o *Orchestrator) GetCapsule(ctx context.Context, workspace string, rc ResourceConfig, opts OrchestrationOptions) (*Capsule, error) {
	if err := ctx.Err(); err != nil {
		return nil, oerrors.WrapCapsuleAcquisition(err, "acquiring capsule for "+rc.ComponentID.String())
	}
	if rc.ResourceID == "" || rc.WorkingDir == "" {
		return nil, oerrors.WrapCapsuleAcquisition(
			fmt.Errorf("resource id and working directory are required"),
			"acquiring capsule for "+rc.ComponentID.String(),
		)
	}

	key := poolKey(workspace, rc.ResourceID)
	owner := dirOwner{workspace: workspace, resourceID: rc.ResourceID}
	v, err, _ := o.group.Do(key, func() (any, error) {
		o.mu.Lock()
		if o.pools == nil {
			o.mu.Unlock()
			return nil, fmt.Errorf("capsule pools not built")
		}
		if held, ok := o.dirs[rc.WorkingDir]; ok && held != owner {
			o.mu.Unlock()
			return nil, fmt.Errorf("working directory %s is already held by %s", rc.WorkingDir, held.resourceID)
		}
		if c, ok := o.pools[workspace][rc.ResourceID]; ok && !opts.AlwaysNew {
			o.mu.Unlock()
			return c, nil
		}
		o.dirs[rc.WorkingDir] = owner
		o.mu.Unlock()

		c, err := o.open(workspace, rc)

		o.mu.Lock()
		defer o.mu.Unlock()
		if err != nil {
			if _, pooled := o.pools[workspace][rc.ResourceID]; !pooled {
				delete(o.dirs, rc.WorkingDir)
			}
			return nil, err
		}
		if o.pools[workspace] == nil {
			o.pools[workspace] = make(map[string]*Capsule)
		}
		o.pools[workspace][rc.ResourceID] = c
		return c, nil
	})
	if err != nil {
		return nil, oerrors.WrapCapsuleAcquisition(err, "acquiring capsule for "+rc.ComponentID.String())
	}

	c := v.(*Capsule)

	o.mu.Lock()
	defer o.mu.Unlock()
	// A Release may have evicted the capsule since it was handed out.
	if _, ok := o.pools[workspace][rc.ResourceID]; !ok {
		if held, ok := o.dirs[rc.WorkingDir]; ok && held != owner {
			return nil, oerrors.WrapCapsuleAcquisition(
				fmt.Errorf("working directory %s is already held by %s", rc.WorkingDir, held.resourceID),
				"acquiring capsule for "+rc.ComponentID.String(),
			)
		}
		if o.pools[workspace] == nil {
			o.pools[workspace] = make(map[string]*Capsule)
		}
		o.pools[workspace][rc.ResourceID] = c
		o.dirs[rc.WorkingDir] = owner
	}
	o.refs[key]++

	return c, nil
}

// open creates the capsule directory if needed and returns a handle rooted at it.
func (o *Orchestrator) open(workspace string, rc ResourceConfig) (*Capsule, error) {
	existed, err := afero.DirExists(o.fs, rc.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", rc.WorkingDir, err)
	}
	if err := o.fs.MkdirAll(rc.WorkingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", rc.WorkingDir, err)
	}

	return &Capsule{
		WorkDir:     rc.WorkingDir,
		Workspace:   workspace,
		ComponentID: rc.ComponentID,
		ResourceID:  rc.ResourceID,
		FS:          afero.NewBasePathFs(o.fs, rc.WorkingDir),
		Reused:      existed,
	}, nil
}

// Release drops one reference to a capsule. When the last reference goes the
// capsule leaves the pool and its working directory is free again; the
// directory stays on disk.
func (o *Orchestrator) Release(workspace, resourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := poolKey(workspace, resourceID)
	if o.refs[key] == 0 {
		return
	}
	o.refs[key]--
	if o.refs[key] > 0 {
		return
	}
	delete(o.refs, key)
	if c, ok := o.pools[workspace][resourceID]; ok {
		if o.dirs[c.WorkDir] == (dirOwner{workspace: workspace, resourceID: resourceID}) {
			delete(o.dirs, c.WorkDir)
		}
		delete(o.pools[workspace], resourceID)
	}
}

// Refs returns the number of live references for a capsule.
func (o *Orchestrator) Refs(workspace, resourceID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refs[poolKey(workspace, resourceID)]
}
