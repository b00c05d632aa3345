package convert

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
)

// Result is a finished conversion
type Result struct {
	Collection *geojson.FeatureCollection
	Warnings   diag.List
	Stats      Stats
}

// Stats holds conversion statistics
type Stats struct {
	Nodes     int
	Ways      int
	Relations int

	Points         int
	Lines          int
	Polygons       int
	MultiPolygons  int
	NullGeometries int

	ParseDuration   time.Duration
	ResolveDuration time.Duration
	BuildDuration   time.Duration
}

// Features returns the total number of emitted features
func (s Stats) Features() int {
	return s.Points + s.Lines + s.Polygons + s.MultiPolygons + s.NullGeometries
}

func (s *Stats) count(fc *geojson.FeatureCollection) {
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Point:
			s.Points++
		case orb.LineString:
			s.Lines++
		case orb.Polygon:
			s.Polygons++
		case orb.MultiPolygon:
			s.MultiPolygons++
		case nil:
			s.NullGeometries++
		}
	}
}
