// Package feature turns resolved elements into GeoJSON features and
// assembles them into an ordered collection.
package feature

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2geojson-go/internal/model"
)

// DefaultUninterestingTags lists tags that do not make an element "tagged"
var DefaultUninterestingTags = []string{
	"source",
	"source_ref",
	"source:ref",
	"history",
	"attribution",
	"created_by",
	"tiger:county",
	"tiger:tlid",
	"tiger:upload_uuid",
}

// PropertyHook can rewrite or drop the properties of each feature.
// Returning keep=false drops the feature.
type PropertyHook interface {
	Properties(id osm.FeatureID, tags map[string]string) (props map[string]string, keep bool, err error)
}

// Options controls deduplication and inclusion
type Options struct {
	KeepDuplicateGeometries bool
	IncludeUntaggedNodes    bool
	UninterestingTags       []string
	Properties              PropertyHook
}

// ResolvedWay is a way with its geometry; Geometry is nil when resolution failed
type ResolvedWay struct {
	Way      *model.Way
	Geometry orb.Geometry
}

// ResolvedRelation is a relation with its assembled geometry, if any
type ResolvedRelation struct {
	Relation *model.Relation
	Geometry orb.Geometry // nil for non-area relations and failed assemblies
	Consumed []osm.WayID  // member ways used by the emitted rings
}

// Build creates features for relations, then ways, then nodes, each in the
// order given. It must run after all ways and relations are resolved since
// deduplication needs to know every consumed way.
func Build(store *model.Store, ways []ResolvedWay, relations []ResolvedRelation, opts Options) ([]*geojson.Feature, error) {
	uninteresting := opts.UninterestingTags
	if uninteresting == nil {
		uninteresting = DefaultUninterestingTags
	}
	skipTags := make(map[string]struct{}, len(uninteresting))
	for _, k := range uninteresting {
		skipTags[k] = struct{}{}
	}

	consumed := make(map[osm.WayID]struct{})
	for _, rel := range relations {
		if rel.Geometry == nil {
			continue
		}
		for _, id := range rel.Consumed {
			consumed[id] = struct{}{}
		}
	}

	usedNodes := make(map[osm.NodeID]struct{})
	for _, way := range store.Ways() {
		for _, ref := range way.Nodes {
			usedNodes[ref] = struct{}{}
		}
	}

	features := make([]*geojson.Feature, 0, len(relations)+len(ways))
	emit := func(id osm.FeatureID, geom orb.Geometry, tags map[string]string) error {
		props := tags
		if opts.Properties != nil {
			var keep bool
			var err error
			props, keep, err = opts.Properties.Properties(id, tags)
			if err != nil {
				return fmt.Errorf("property hook failed for %s: %w", id, err)
			}
			if !keep {
				return nil
			}
		}
		features = append(features, newFeature(id, geom, props))
		return nil
	}

	for _, rel := range relations {
		if err := emit(rel.Relation.FeatureID(), rel.Geometry, rel.Relation.Tags); err != nil {
			return nil, err
		}
	}

	for _, rw := range ways {
		if rw.Geometry == nil {
			continue
		}
		if _, ok := consumed[rw.Way.ID]; ok && !opts.KeepDuplicateGeometries {
			continue
		}
		if err := emit(rw.Way.FeatureID(), rw.Geometry, rw.Way.Tags); err != nil {
			return nil, err
		}
	}

	for _, node := range store.Nodes() {
		if _, used := usedNodes[node.ID]; used && !opts.IncludeUntaggedNodes && !hasInterestingTags(node.Tags, skipTags) {
			continue
		}
		if err := emit(node.FeatureID(), node.Point(), node.Tags); err != nil {
			return nil, err
		}
	}

	return features, nil
}

// hasInterestingTags reports whether any tag is outside the skip set
func hasInterestingTags(tags map[string]string, skip map[string]struct{}) bool {
	for k := range tags {
		if _, ok := skip[k]; !ok {
			return true
		}
	}
	return false
}

// newFeature creates a feature with a "<kind>/<id>" identity. A nil geometry
// is kept and serialises as null.
func newFeature(id osm.FeatureID, geom orb.Geometry, tags map[string]string) *geojson.Feature {
	f := geojson.NewFeature(geom)
	f.ID = id.String()
	f.Properties = make(geojson.Properties, len(tags))
	for k, v := range tags {
		f.Properties[k] = v
	}
	return f
}
