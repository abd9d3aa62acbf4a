// Package network builds capsule sub-networks: it resolves a seed set into
// its dependency closure, acquires one capsule per component, materializes
// files and links into every capsule, and installs only the capsules whose
// package manifest changed.
package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	"github.com/opmodel/capsule/internal/graph"
	"github.com/opmodel/capsule/internal/metrics"
	"github.com/opmodel/capsule/internal/output"
	"github.com/opmodel/capsule/internal/pkgmanager"
	"github.com/opmodel/capsule/internal/writer"
)

// Pool hands out capsules keyed by (workspace, resource id). Every capsule
// returned by GetCapsule is given back with Release.
type Pool interface {
	BuildPools()
	GetCapsule(ctx context.Context, workspace string, rc capsule.ResourceConfig, opts capsule.OrchestrationOptions) (*capsule.Capsule, error)
	Release(workspace, resourceID string)
}

// ContentWriter renders component file sets and link files.
type ContentWriter interface {
	PopulateFiles(ctx context.Context, batch []writer.ComponentWithDependencies, opts writer.Options) ([]*component.Component, error)
	ComputeLinks(c *component.Component, deps []*component.Component, opts writer.Options) ([]component.File, error)
}

// Deps are the collaborators of a Builder.
type Deps struct {
	// Pool is required.
	Pool Pool

	// Writer defaults to writer.New().
	Writer ContentWriter

	// Installer defaults to pkgmanager.NewExecInstaller().
	Installer pkgmanager.Installer

	// Metrics may be nil.
	Metrics *metrics.Recorder

	// Consumer is the default graph handle, used when a call does not supply one.
	Consumer *graph.Consumer

	// Defaults are the capsule options every call's options are merged over.
	Defaults capsule.Options
}

// Builder creates capsule sub-networks.
type Builder struct {
	pool      Pool
	writer    ContentWriter
	installer pkgmanager.Installer
	metrics   *metrics.Recorder
	consumer  *graph.Consumer
	defaults  capsule.Options
}

// New creates a Builder and initializes its pool.
func New(deps Deps) (*Builder, error) {
	if deps.Pool == nil {
		return nil, fmt.Errorf("network builder requires a capsule pool")
	}
	b := &Builder{
		pool:      deps.Pool,
		writer:    deps.Writer,
		installer: deps.Installer,
		metrics:   deps.Metrics,
		consumer:  deps.Consumer,
		defaults:  deps.Defaults,
	}
	if b.writer == nil {
		b.writer = writer.New()
	}
	if b.installer == nil {
		b.installer = pkgmanager.NewExecInstaller()
	}
	b.pool.BuildPools()
	return b, nil
}

// SubNetworkOptions are the per-call inputs of CreateSubNetwork.
type SubNetworkOptions struct {
	Capsule       capsule.Options
	Orchestration capsule.OrchestrationOptions

	// Consumer overrides the builder's default graph handle.
	Consumer *graph.Consumer
}

// SubNetwork is the result of one build. It holds a pool reference on each
// of its capsules until Close.
type SubNetwork struct {
	Capsules   *CapsuleList
	Components *graph.Graph
	Install    *InstallReport

	release   func()
	closeOnce sync.Once
}

// Close gives the sub-network's capsules back to the pool. The directories
// stay on disk. Calling Close more than once has no effect.
func (sn *SubNetwork) Close() {
	if sn == nil || sn.release == nil {
		return
	}
	sn.closeOnce.Do(sn.release)
}

// Release gives capsules obtained from CreateCapsule back to the pool.
func (b *Builder) Release(caps ...*capsule.Capsule) {
	for _, c := range caps {
		if c != nil {
			b.pool.Release(c.Workspace, c.ResourceID)
		}
	}
}

// options merges per-call options over the builder defaults into a new value.
func (b *Builder) options(o capsule.Options) (capsule.Options, error) {
	merged := o.Merge(b.defaults).WithDefaults()
	if err := merged.Validate(); err != nil {
		return capsule.Options{}, err
	}
	return merged, nil
}

// CreateSubNetwork resolves seeds into their closure and returns a capsule per
// component, materialized and installed. The caller closes the result when
// done with it. Any failure aborts the build and releases the capsules taken;
// capsules already written stay on disk as they are.
func (b *Builder) CreateSubNetwork(ctx context.Context, seeds []component.ID, so SubNetworkOptions) (sn *SubNetwork, err error) {
	start := time.Now()
	defer b.metrics.ObserveBuild(start)

	opts, err := b.options(so.Capsule)
	if err != nil {
		return nil, err
	}

	consumer := so.Consumer
	if consumer == nil {
		consumer = b.consumer
	}
	g, err := consumer.Build(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range MissingSeeds(g, seeds) {
		output.Warn("seed not found in graph, skipping", "component", id.String())
	}
	comps := ResolveClosure(g, seeds)
	output.Debug("resolved closure", "seeds", len(seeds), "components", len(comps))

	list, err := b.acquire(ctx, comps, opts, so.Orchestration)
	if err != nil {
		return nil, err
	}
	release := func() { b.Release(list.Capsules()...) }
	defer func() {
		if err != nil {
			release()
		}
	}()

	before, err := snapshotAll(ctx, list)
	if err != nil {
		return nil, err
	}
	if _, err := b.materialize(ctx, g, comps, list, opts); err != nil {
		return nil, err
	}
	after, err := snapshotAll(ctx, list)
	if err != nil {
		return nil, err
	}

	report, err := b.install(ctx, list, before, after, opts)
	if err != nil {
		return nil, err
	}

	return &SubNetwork{Capsules: list, Components: g, Install: report, release: release}, nil
}

// acquire gets a capsule for every component in parallel and returns them
// in component order. On failure the capsules already taken are released.
func (b *Builder) acquire(ctx context.Context, comps []*component.Component, opts capsule.Options, orch capsule.OrchestrationOptions) (*CapsuleList, error) {
	caps := make([]*capsule.Capsule, len(comps))

	eg, egctx := errgroup.WithContext(ctx)
	for i, comp := range comps {
		eg.Go(func() error {
			c, err := b.createCapsule(egctx, comp.ID, opts, orch)
			if err != nil {
				return err
			}
			caps[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		b.Release(caps...)
		return nil, err
	}

	list := NewCapsuleList()
	for i, c := range comps {
		list.Add(c.ID, caps[i])
	}
	return list, nil
}

// CreateCapsule returns the capsule for a single component, creating its
// directory on first use. The caller gives it back with Release.
func (b *Builder) CreateCapsule(ctx context.Context, id component.ID, o capsule.Options, orch capsule.OrchestrationOptions) (*capsule.Capsule, error) {
	opts, err := b.options(o)
	if err != nil {
		return nil, err
	}
	return b.createCapsule(ctx, id, opts, orch)
}

func (b *Builder) createCapsule(ctx context.Context, id component.ID, opts capsule.Options, orch capsule.OrchestrationOptions) (*capsule.Capsule, error) {
	key, err := DeriveResourceKey(id, opts, orch)
	if err != nil {
		return nil, err
	}

	c, err := b.pool.GetCapsule(ctx, opts.Workspace, capsule.ResourceConfig{
		ResourceID:  key.ResourceID,
		WorkingDir:  key.WorkDir,
		ComponentID: id,
		Options:     opts,
	}, orch)
	if err != nil {
		return nil, err
	}

	b.metrics.CapsuleAcquired(c.Reused)
	output.CapsuleLogger(id.String()).Debug("capsule ready", "dir", c.WorkDir, "reused", c.Reused)
	return c, nil
}
