package geometry

import (
	"errors"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
	"github.com/wegman-software/osm2geojson-go/internal/model"
)

const (
	RoleOuter = "outer"
	RoleInner = "inner"
)

// Assembly is the result of ring assembly for one relation
type Assembly struct {
	Relation osm.RelationID
	// Geometry is an orb.Polygon for a single outer ring, an
	// orb.MultiPolygon for several, and nil when no outer ring survived
	Geometry orb.Geometry
	// Consumed lists, in ascending order, the member ways that ended up in
	// an emitted ring
	Consumed []osm.WayID
}

// IsAreaRelation reports whether the relation has at least one way member
// with role outer or inner
func IsAreaRelation(rel *model.Relation) bool {
	for _, m := range rel.Members {
		if m.Type == osm.TypeWay && (m.Role == RoleOuter || m.Role == RoleInner) {
			return true
		}
	}
	return false
}

// AreaMembers returns every way referenced as outer or inner by a
// multipolygon-shaped relation
func AreaMembers(store *model.Store) map[osm.WayID]struct{} {
	members := make(map[osm.WayID]struct{})
	for _, rel := range store.Relations() {
		for _, m := range rel.Members {
			if m.Type == osm.TypeWay && (m.Role == RoleOuter || m.Role == RoleInner) {
				members[osm.WayID(m.Ref)] = struct{}{}
			}
		}
	}
	return members
}

// MissingMembers reports every member that does not resolve to a known
// element of its declared type
func MissingMembers(rel *model.Relation, store *model.Store) diag.List {
	var warnings diag.List
	for _, m := range rel.Members {
		if store.HasMember(m) {
			continue
		}
		warnings.Add(diag.Warning{
			Kind:    diag.KindMissingMember,
			Element: rel.FeatureID().String(),
			Ref:     model.MemberLabel(m),
			Message: "member not found, skipped",
		})
	}
	return warnings
}

// segment is one member way's coordinates
type segment struct {
	way    osm.WayID
	coords orb.LineString
}

// builtRing is a closed ring and the ways it was stitched from
type builtRing struct {
	ring orb.Ring
	ways []osm.WayID
}

// Assemble stitches the outer and inner member ways of a relation into
// polygons. Failed rings are dropped with a warning; the relation still
// yields whatever rings could be built.
func Assemble(rel *model.Relation, store *model.Store) (*Assembly, diag.List) {
	var warnings diag.List
	outerSegs := collectSegments(rel, store, RoleOuter, &warnings)
	innerSegs := collectSegments(rel, store, RoleInner, &warnings)

	outers := stitchRings(rel.ID, RoleOuter, outerSegs, &warnings)
	inners := stitchRings(rel.ID, RoleInner, innerSegs, &warnings)

	assembly := &Assembly{Relation: rel.ID}
	if len(outers) == 0 {
		err := &RelationError{Kind: diag.KindNoOuterRings, Relation: rel.ID}
		warnings.Add(err.Warning())
		return assembly, warnings
	}

	outerRings := make([]orb.Ring, len(outers))
	for i, o := range outers {
		orient(o.ring, orb.CCW)
		outerRings[i] = o.ring
	}
	innerRings := make([]orb.Ring, len(inners))
	for i, in := range inners {
		orient(in.ring, orb.CW)
		innerRings[i] = in.ring
	}

	assigned, unassigned := assignInners(outerRings, innerRings)
	for _, i := range unassigned {
		err := &RelationError{Kind: diag.KindUnassignedInnerRing, Relation: rel.ID, Role: RoleInner, Ways: inners[i].ways}
		warnings.Add(err.Warning())
	}

	polygons := make(orb.MultiPolygon, len(outers))
	var consumed []osm.WayID
	for i, o := range outers {
		poly := orb.Polygon{o.ring}
		consumed = append(consumed, o.ways...)
		for _, j := range assigned[i] {
			poly = append(poly, inners[j].ring)
			consumed = append(consumed, inners[j].ways...)
		}
		polygons[i] = poly
	}

	slices.Sort(consumed)
	assembly.Consumed = slices.Compact(consumed)
	if len(polygons) == 1 {
		assembly.Geometry = polygons[0]
	} else {
		assembly.Geometry = polygons
	}
	return assembly, warnings
}

// collectSegments resolves the member ways of one role, sorted by way id so
// that the result does not depend on member order. Missing members are
// reported by MissingMembers; unresolvable ways are reported here.
func collectSegments(rel *model.Relation, store *model.Store, role string, warnings *diag.List) []segment {
	seen := make(map[osm.WayID]bool)
	var segs []segment
	for _, m := range rel.Members {
		if m.Type != osm.TypeWay || m.Role != role {
			continue
		}
		id := osm.WayID(m.Ref)
		if seen[id] {
			continue
		}
		seen[id] = true

		way, ok := store.Way(id)
		if !ok {
			continue
		}
		coords, err := Coordinates(way, store)
		if err != nil {
			var wayErr *WayError
			if errors.As(err, &wayErr) {
				warnings.Add(wayErr.Warning(rel.FeatureID()))
			}
			continue
		}
		segs = append(segs, segment{way: id, coords: coords})
	}
	slices.SortFunc(segs, func(a, b segment) int {
		switch {
		case a.way < b.way:
			return -1
		case a.way > b.way:
			return 1
		}
		return 0
	})
	return segs
}

// stitchRings joins segments into closed rings by endpoint matching.
// Endpoints are indexed by exact coordinate so each extension step is a
// map lookup rather than a scan over all segments.
func stitchRings(relID osm.RelationID, role string, segs []segment, warnings *diag.List) []builtRing {
	if len(segs) == 0 {
		return nil
	}

	// endpoint -> segments starting or ending there, in segment order
	index := make(map[orb.Point][]int, len(segs)*2)
	for i, s := range segs {
		first, last := s.coords[0], s.coords[len(s.coords)-1]
		index[first] = append(index[first], i)
		if last != first {
			index[last] = append(index[last], i)
		}
	}

	used := make([]bool, len(segs))
	var rings []builtRing

	for start := range segs {
		if used[start] {
			continue
		}
		used[start] = true

		chain := slices.Clone(segs[start].coords)
		ways := []osm.WayID{segs[start].way}

		for !isClosed(chain) {
			end := chain[len(chain)-1]
			next := -1
			for _, j := range index[end] {
				if !used[j] {
					next = j
					break
				}
			}
			if next == -1 {
				break
			}
			used[next] = true
			ways = append(ways, segs[next].way)

			c := segs[next].coords
			if c[0] == end {
				chain = append(chain, c[1:]...)
			} else {
				// Segment ends at the chain end, append it reversed
				for k := len(c) - 2; k >= 0; k-- {
					chain = append(chain, c[k])
				}
			}
		}

		switch {
		case !isClosed(chain):
			err := &RelationError{Kind: diag.KindUnclosedRing, Relation: relID, Role: role, Ways: ways}
			warnings.Add(err.Warning())
		case len(chain) < 4:
			err := &RelationError{Kind: diag.KindDegenerateRing, Relation: relID, Role: role, Ways: ways}
			warnings.Add(err.Warning())
		default:
			rings = append(rings, builtRing{ring: orb.Ring(chain), ways: ways})
		}
	}

	return rings
}

// isClosed reports whether a chain of at least two points ends where it starts
func isClosed(chain orb.LineString) bool {
	return len(chain) >= 2 && chain[0] == chain[len(chain)-1]
}
