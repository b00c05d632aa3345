// Package geometry turns store elements into coordinates: ways into lines or
// polygons and multipolygon relations into assembled rings.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
	"github.com/wegman-software/osm2geojson-go/internal/model"
	"github.com/wegman-software/osm2geojson-go/internal/style"
)

// ClosedWayPolicy decides the geometry of a closed way with no area indication
type ClosedWayPolicy string

const (
	ClosedWaysLine ClosedWayPolicy = "line"
	ClosedWaysArea ClosedWayPolicy = "area"
)

// ParseClosedWayPolicy parses "line" or "area"
func ParseClosedWayPolicy(s string) (ClosedWayPolicy, error) {
	switch ClosedWayPolicy(s) {
	case ClosedWaysLine, ClosedWaysArea:
		return ClosedWayPolicy(s), nil
	case "":
		return ClosedWaysLine, nil
	}
	return "", fmt.Errorf("closed way policy must be %q or %q, got %q", ClosedWaysLine, ClosedWaysArea, s)
}

// Resolver resolves ways against a store. It holds no mutable state and may
// be shared between goroutines.
type Resolver struct {
	rules  *style.AreaRules
	closed ClosedWayPolicy
}

// NewResolver creates a resolver using the given area rules and closed-way policy
func NewResolver(rules *style.AreaRules, closed ClosedWayPolicy) *Resolver {
	if closed == "" {
		closed = ClosedWaysLine
	}
	return &Resolver{rules: rules, closed: closed}
}

// Coordinates looks up every node of the way in order
func Coordinates(way *model.Way, store *model.Store) (orb.LineString, error) {
	coords := make(orb.LineString, 0, len(way.Nodes))
	for _, ref := range way.Nodes {
		node, ok := store.Node(ref)
		if !ok {
			return nil, &WayError{Kind: diag.KindDanglingReference, Way: way.ID, Node: ref}
		}
		coords = append(coords, node.Point())
	}
	if len(coords) < 2 {
		return nil, &WayError{Kind: diag.KindTooFewNodes, Way: way.ID}
	}
	return coords, nil
}

// ResolveWay returns an orb.LineString or orb.Polygon for the way.
// areaMember reports whether the way is an outer/inner member of a
// multipolygon-shaped relation.
func (r *Resolver) ResolveWay(way *model.Way, store *model.Store, areaMember bool) (orb.Geometry, error) {
	coords, err := Coordinates(way, store)
	if err != nil {
		return nil, err
	}
	if !r.IsArea(way, areaMember) {
		return coords, nil
	}
	ring := orb.Ring(coords)
	orient(ring, orb.CCW)
	return orb.Polygon{ring}, nil
}

// IsArea classifies a way. Only closed ways can be areas; area=no always
// wins, then area=yes, the area rules and relation membership.
func (r *Resolver) IsArea(way *model.Way, areaMember bool) bool {
	if !way.IsClosed() {
		return false
	}
	switch way.Tags["area"] {
	case "no":
		return false
	case "yes":
		return true
	}
	if areaMember || r.rules.Match(way.Tags) {
		return true
	}
	return r.closed == ClosedWaysArea
}

// orient reverses the ring in place when its winding differs from want
func orient(ring orb.Ring, want orb.Orientation) {
	if o := ring.Orientation(); o != 0 && o != want {
		ring.Reverse()
	}
}
