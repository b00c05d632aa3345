// Package convert runs the staged OSM XML to GeoJSON conversion:
// parse, resolve ways, assemble relations, build features, emit.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
	"github.com/wegman-software/osm2geojson-go/internal/feature"
	"github.com/wegman-software/osm2geojson-go/internal/geometry"
	"github.com/wegman-software/osm2geojson-go/internal/model"
	"github.com/wegman-software/osm2geojson-go/internal/osmxml"
)

// Converter converts OSM XML documents. It is safe to reuse but a
// Properties hook is shared between runs.
type Converter struct {
	opts     Options
	resolver *geometry.Resolver
}

// NewConverter creates a converter, filling unset options with defaults
func NewConverter(opts Options) *Converter {
	opts = opts.withDefaults()
	return &Converter{
		opts:     opts,
		resolver: geometry.NewResolver(opts.AreaRules, opts.ClosedWays),
	}
}

// Convert is a convenience wrapper around NewConverter(opts).Run
func Convert(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	return NewConverter(opts).Run(ctx, r)
}

// ConvertBytes converts an in-memory document
func ConvertBytes(ctx context.Context, data []byte, opts Options) (*Result, error) {
	return NewConverter(opts).Run(ctx, bytes.NewReader(data))
}

// Run converts one document. A parse failure aborts with an
// *osmxml.ParseError; per-element problems end up in Result.Warnings.
func (c *Converter) Run(ctx context.Context, r io.Reader) (*Result, error) {
	result := &Result{}

	// Stage 1: parse the whole document before resolving anything
	start := time.Now()
	parser := osmxml.NewParser()
	if c.opts.Progress != nil {
		tracker := NewProgressTracker(c.opts.InputSize)
		parser.SetProgress(progressEvery, func(offset, elements int64) {
			c.opts.Progress(tracker.Calculate(elements, offset))
		})
	}
	store, warnings, err := parser.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, warnings...)
	result.Stats.Nodes, result.Stats.Ways, result.Stats.Relations = store.Counts()
	result.Stats.ParseDuration = time.Since(start)

	// Stage 2: resolve ways and assemble relations
	start = time.Now()
	ways, wayWarnings, err := c.resolveWays(ctx, store)
	if err != nil {
		return nil, err
	}
	relations, relWarnings, err := c.assembleRelations(ctx, store)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, wayWarnings...)
	result.Warnings = append(result.Warnings, relWarnings...)
	result.Stats.ResolveDuration = time.Since(start)

	// Stage 3: build and emit, needs every resolution to be finished
	start = time.Now()
	features, err := feature.Build(store, ways, relations, c.opts.featureOptions())
	if err != nil {
		return nil, err
	}
	result.Collection = feature.Emit(features)
	result.Stats.count(result.Collection)
	result.Stats.BuildDuration = time.Since(start)

	return result, nil
}

// resolveWays resolves every way in a bounded worker pool. Each worker
// writes only its own slot, so results and warnings keep document order.
func (c *Converter) resolveWays(ctx context.Context, store *model.Store) ([]feature.ResolvedWay, diag.List, error) {
	ways := store.Ways()
	members := geometry.AreaMembers(store)
	resolved := make([]feature.ResolvedWay, len(ways))
	failures := make([]*geometry.WayError, len(ways))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, way := range ways {
		i, way := i, way
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, member := members[way.ID]
			geom, err := c.resolver.ResolveWay(way, store, member)
			resolved[i] = feature.ResolvedWay{Way: way, Geometry: geom}
			if err != nil {
				var wayErr *geometry.WayError
				if !errors.As(err, &wayErr) {
					return fmt.Errorf("resolving way %d: %w", way.ID, err)
				}
				failures[i] = wayErr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings diag.List
	for i, failure := range failures {
		if failure != nil {
			warnings.Add(failure.Warning(ways[i].FeatureID()))
		}
	}
	return resolved, warnings, nil
}

// assembleRelations checks members and assembles multipolygon-shaped
// relations in a bounded worker pool
func (c *Converter) assembleRelations(ctx context.Context, store *model.Store) ([]feature.ResolvedRelation, diag.List, error) {
	relations := store.Relations()
	resolved := make([]feature.ResolvedRelation, len(relations))
	perRelation := make([]diag.List, len(relations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, rel := range relations {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			warnings := geometry.MissingMembers(rel, store)
			resolved[i] = feature.ResolvedRelation{Relation: rel}
			if geometry.IsAreaRelation(rel) {
				assembly, assemblyWarnings := geometry.Assemble(rel, store)
				warnings = append(warnings, assemblyWarnings...)
				resolved[i].Geometry = assembly.Geometry
				resolved[i].Consumed = assembly.Consumed
			}
			perRelation[i] = warnings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings diag.List
	for _, w := range perRelation {
		warnings = append(warnings, w...)
	}
	return resolved, warnings, nil
}
