package network

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/capsule/internal/capsule"
	"github.com/opmodel/capsule/internal/component"
	oerrors "github.com/opmodel/capsule/internal/errors"
	"github.com/opmodel/capsule/internal/graph"
	"github.com/opmodel/capsule/internal/output"
	"github.com/opmodel/capsule/internal/writer"
)

// capsuleRoot is the write path for capsule-relative files.
const capsuleRoot = "."

// materialize writes every component's files and link shims into its capsule
// and returns the components written. It works on clones; g is not modified.
// Files already in a capsule that are not part of the write set are kept.
func (b *Builder) materialize(ctx context.Context, g *graph.Graph, comps []*component.Component, list *CapsuleList, opts capsule.Options) ([]*component.Component, error) {
	batch := make([]writer.ComponentWithDependencies, 0, len(comps))
	for _, c := range comps {
		if _, ok := list.Get(c.ID); !ok {
			continue
		}
		batch = append(batch, withDependencies(g, c))
	}

	wopts := writer.NewOptions(opts, capsuleRoot, list.PathMap())
	written, err := b.writer.PopulateFiles(ctx, batch, wopts)
	if err != nil {
		return nil, oerrors.WrapMaterialization(err, "populating capsule files")
	}

	deps := make(map[string][]*component.Component, len(batch))
	for _, item := range batch {
		deps[item.Component.ID.String()] = item.All()
	}
	for _, c := range written {
		links, err := b.writer.ComputeLinks(c, deps[c.ID.String()], wopts)
		if err != nil {
			return nil, oerrors.WrapMaterialization(err, "computing links for "+c.ID.String())
		}
		c.FilesToPersist = append(links, c.FilesToPersist...)
	}

	eg, egctx := errgroup.WithContext(ctx)
	for _, c := range written {
		dst, ok := list.Get(c.ID)
		if !ok {
			continue
		}
		eg.Go(func() error {
			return persist(egctx, dst, c)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

// withDependencies clones c and its dependencies found in g, grouped by edge
// kind, with each component's shared root directory stripped. Edges to ids that
// are not nodes are skipped.
func withDependencies(g *graph.Graph, c *component.Component) writer.ComponentWithDependencies {
	clone := c.Clone()
	clone.StripSharedDir()
	out := writer.ComponentWithDependencies{Component: clone}

	for _, e := range g.Successors(c.ID) {
		dep, ok := g.Node(e.To)
		if !ok {
			continue
		}
		d := dep.Clone()
		d.StripSharedDir()

		switch e.Kind {
		case graph.KindRuntime:
			out.Dependencies = append(out.Dependencies, d)
		case graph.KindDev:
			out.DevDependencies = append(out.DevDependencies, d)
		default:
			out.ExtraDependencies = append(out.ExtraDependencies, d)
		}
	}
	return out
}

// persist writes c.FilesToPersist into the capsule.
func persist(ctx context.Context, dst *capsule.Capsule, c *component.Component) error {
	log := output.CapsuleLogger(c.ID.String())
	for _, f := range c.FilesToPersist {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := dst.WriteFile(f.Path, f.Content); err != nil {
			return oerrors.WrapMaterialization(
				fmt.Errorf("writing %s: %w", f.Path, err),
				"persisting "+c.ID.String()+" into "+dst.WorkDir,
			)
		}
	}
	log.Debug("materialized", "files", len(c.FilesToPersist), "dir", dst.WorkDir)
	return nil
}
