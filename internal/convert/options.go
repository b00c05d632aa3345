package convert

import (
	"runtime"

	"github.com/wegman-software/osm2geojson-go/internal/feature"
	"github.com/wegman-software/osm2geojson-go/internal/geometry"
	"github.com/wegman-software/osm2geojson-go/internal/style"
)

// Options controls a conversion
type Options struct {
	// KeepDuplicateGeometries keeps member ways of assembled multipolygons as standalone features
	KeepDuplicateGeometries bool
	// IncludeUntaggedNodes emits untagged nodes that are part of a way
	IncludeUntaggedNodes bool
	// AreaRules is the area-tag allowlist; nil means the built-in list
	AreaRules *style.AreaRules
	// ClosedWays decides closed ways with no area indication
	ClosedWays geometry.ClosedWayPolicy
	// UninterestingTags do not count when deciding if a node is tagged; nil means the built-in list
	UninterestingTags []string
	// Properties optionally rewrites or drops feature properties
	Properties feature.PropertyHook
	// Workers bounds the resolution worker pool
	Workers int
	// Progress, if set, receives parse progress every 100k elements
	Progress func(Progress)
	// InputSize is the document size in bytes, used for progress percentages
	InputSize int64
}

// DefaultOptions returns the defaults used when a field is left empty
func DefaultOptions() Options {
	return Options{
		AreaRules:  style.DefaultAreaRules(),
		ClosedWays: geometry.ClosedWaysLine,
		Workers:    runtime.NumCPU(),
	}
}

// withDefaults fills unset fields
func (o Options) withDefaults() Options {
	if o.AreaRules == nil {
		o.AreaRules = style.DefaultAreaRules()
	}
	if o.ClosedWays == "" {
		o.ClosedWays = geometry.ClosedWaysLine
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

func (o Options) featureOptions() feature.Options {
	return feature.Options{
		KeepDuplicateGeometries: o.KeepDuplicateGeometries,
		IncludeUntaggedNodes:    o.IncludeUntaggedNodes,
		UninterestingTags:       o.UninterestingTags,
		Properties:              o.Properties,
	}
}
