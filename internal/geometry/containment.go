package geometry

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// minExtent keeps R-tree rectangles valid for rings with zero width or height
const minExtent = 1e-9

// outerEntry indexes an outer ring by its bounding box
type outerEntry struct {
	index int
	ring  orb.Ring
	bound orb.Bound
	area  float64
}

// Bounds implements rtreego.Spatial
func (e *outerEntry) Bounds() rtreego.Rect {
	return boundRect(e.bound)
}

func boundRect(b orb.Bound) rtreego.Rect {
	point := rtreego.Point{b.Min[0], b.Min[1]}
	lengths := []float64{
		math.Max(b.Max[0]-b.Min[0], minExtent),
		math.Max(b.Max[1]-b.Min[1], minExtent),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// assignInners maps each inner ring to the smallest outer ring containing it.
// It returns, per outer index, the assigned inner indexes in ascending order,
// plus the inner indexes no outer ring contains.
func assignInners(outers, inners []orb.Ring) (assigned [][]int, unassigned []int) {
	assigned = make([][]int, len(outers))
	if len(inners) == 0 {
		return assigned, nil
	}

	entries := make([]rtreego.Spatial, len(outers))
	for i, ring := range outers {
		entries[i] = &outerEntry{
			index: i,
			ring:  ring,
			bound: ring.Bound(),
			area:  math.Abs(planar.Area(ring)),
		}
	}
	tree := rtreego.NewTree(2, 2, 16, entries...)

	for j, inner := range inners {
		innerBound := inner.Bound()
		best := -1
		bestArea := math.Inf(1)

		for _, candidate := range tree.SearchIntersect(boundRect(innerBound)) {
			entry := candidate.(*outerEntry)
			if !entry.bound.Contains(innerBound.Min) || !entry.bound.Contains(innerBound.Max) {
				continue
			}
			if !ringContains(entry.ring, inner) {
				continue
			}
			// Ties go to the lowest index so the result is independent of tree layout
			if entry.area < bestArea || (entry.area == bestArea && entry.index < best) {
				best = entry.index
				bestArea = entry.area
			}
		}

		if best == -1 {
			unassigned = append(unassigned, j)
			continue
		}
		assigned[best] = append(assigned[best], j)
	}

	return assigned, unassigned
}

// ringContains tests an inner vertex that is not shared with the outer
// ring, since shared vertices sit on the boundary and prove nothing
func ringContains(outer, inner orb.Ring) bool {
	shared := make(map[orb.Point]struct{}, len(outer))
	for _, p := range outer {
		shared[p] = struct{}{}
	}
	for _, p := range inner {
		if _, ok := shared[p]; !ok {
			return planar.RingContains(outer, p)
		}
	}
	// Every vertex is shared: fall back to the midpoint of the first edge
	mid := orb.Point{(inner[0][0] + inner[1][0]) / 2, (inner[0][1] + inner[1][1]) / 2}
	return planar.RingContains(outer, mid)
}
