package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
	"github.com/wegman-software/osm2geojson-go/internal/model"
)

func TestAssembleDonut(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 11, 12, 13, 14, 11).
		relation(1, mp(), outer(100), inner(101)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Empty(t, warnings)

	poly, ok := assembly.Geometry.(orb.Polygon)
	require.True(t, ok, "expected Polygon, got %T", assembly.Geometry)
	require.Len(t, poly, 2)
	assert.Len(t, poly[0], 5)
	assert.Len(t, poly[1], 5)
	assert.Equal(t, orb.CCW, poly[0].Orientation())
	assert.Equal(t, orb.CW, poly[1].Orientation())
	assert.Equal(t, []osm.WayID{100, 101}, assembly.Consumed)
}

func TestAssembleStitchesOpenSegments(t *testing.T) {
	// Outer split in three, one of them drawn backwards
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2).
		way(101, nil, 4, 3, 2).
		way(102, nil, 4, 1).
		relation(1, mp(), outer(100), outer(101), outer(102)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Empty(t, warnings)

	poly, ok := assembly.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5)
	assert.Equal(t, poly[0][0], poly[0][len(poly[0])-1])
	assert.Equal(t, []osm.WayID{100, 101, 102}, assembly.Consumed)
}

func TestAssembleOrderIndependent(t *testing.T) {
	base := func(members ...model.Member) *Assembly {
		store := squares(newStoreBuilder()).
			way(100, nil, 1, 2, 3).
			way(101, nil, 3, 4, 1).
			way(102, nil, 11, 12, 13).
			way(103, nil, 13, 14, 11).
			relation(1, mp(), members...).
			build()
		rel, _ := store.Relation(1)
		assembly, warnings := Assemble(rel, store)
		require.Empty(t, warnings)
		return assembly
	}

	want := base(outer(100), outer(101), inner(102), inner(103))
	permutations := [][]model.Member{
		{outer(101), outer(100), inner(103), inner(102)},
		{inner(102), outer(101), inner(103), outer(100)},
		{inner(103), inner(102), outer(100), outer(101)},
	}
	for _, members := range permutations {
		assert.Equal(t, want.Geometry, base(members...).Geometry)
	}
}

func TestAssembleUnassignedInnerRing(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 21, 22, 23, 24, 21).
		relation(1, mp(), outer(100), inner(101)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.KindUnassignedInnerRing, warnings[0].Kind)
	assert.Equal(t, "relation/1", warnings[0].Element)

	poly, ok := assembly.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly, 1, "unassigned inner must be dropped")
	assert.Equal(t, []osm.WayID{100}, assembly.Consumed)
}

func TestAssembleUnclosedRingKeepsOthers(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 21, 22, 23).
		relation(1, mp(), outer(100), outer(101)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.KindUnclosedRing, warnings[0].Kind)
	assert.Equal(t, "way/101", warnings[0].Ref)

	poly, ok := assembly.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly, 1)
	assert.Equal(t, []osm.WayID{100}, assembly.Consumed)
}

func TestAssembleMultipleOuters(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 21, 22, 23, 24, 21).
		way(102, nil, 11, 12, 13, 14, 11).
		relation(1, mp(), outer(101), outer(100), inner(102)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Empty(t, warnings)

	mpoly, ok := assembly.Geometry.(orb.MultiPolygon)
	require.True(t, ok, "expected MultiPolygon, got %T", assembly.Geometry)
	require.Len(t, mpoly, 2)
	// Sorted by way id: the square around the origin comes first and owns the hole
	assert.Len(t, mpoly[0], 2)
	assert.Len(t, mpoly[1], 1)
}

func TestAssembleIslandInLake(t *testing.T) {
	// Outer A with hole B, and an island outer inside B. The island lies in
	// both A's bounds and B's, but only A contains it as an area.
	store := squares(newStoreBuilder()).
		node(31, 4, 4).node(32, 6, 4).node(33, 6, 6).node(34, 4, 6).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 11, 12, 13, 14, 11).
		way(102, nil, 31, 32, 33, 34, 31).
		relation(1, mp(), outer(100), inner(101), outer(102)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Empty(t, warnings)

	mpoly, ok := assembly.Geometry.(orb.MultiPolygon)
	require.True(t, ok)
	require.Len(t, mpoly, 2)
	assert.Len(t, mpoly[0], 2, "hole belongs to the large outer")
	assert.Len(t, mpoly[1], 1)
}

func TestAssembleSmallestContainingOuterWins(t *testing.T) {
	// Outer A contains outer D which contains inner E: E goes to D
	store := squares(newStoreBuilder()).
		node(41, 5, 5).node(42, 6, 5).node(43, 6, 6).node(44, 5, 6).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 11, 12, 13, 14, 11).
		way(102, nil, 41, 42, 43, 44, 41).
		relation(1, mp(), outer(100), outer(101), inner(102)).
		build()
	rel, _ := store.Relation(1)

	assembly, _ := Assemble(rel, store)
	mpoly, ok := assembly.Geometry.(orb.MultiPolygon)
	require.True(t, ok)
	require.Len(t, mpoly, 2)
	assert.Len(t, mpoly[0], 1)
	assert.Len(t, mpoly[1], 2)
}

func TestAssembleNoOuterRings(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3).
		relation(1, mp(), outer(100)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Nil(t, assembly.Geometry)
	assert.Empty(t, assembly.Consumed)
	assert.Equal(t, 1, warnings.Count(diag.KindUnclosedRing))
	assert.Equal(t, 1, warnings.Count(diag.KindNoOuterRings))
}

func TestAssembleDegenerateRing(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2).
		way(101, nil, 2, 1).
		way(102, nil, 21, 22, 23, 24, 21).
		relation(1, mp(), outer(100), outer(101), outer(102)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Equal(t, 1, warnings.Count(diag.KindDegenerateRing))
	_, ok := assembly.Geometry.(orb.Polygon)
	assert.True(t, ok)
	assert.Equal(t, []osm.WayID{102}, assembly.Consumed)
}

func TestAssembleDanglingMemberWay(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 11, 12, 99, 14, 11).
		relation(1, mp(), outer(100), inner(101)).
		build()
	rel, _ := store.Relation(1)

	assembly, warnings := Assemble(rel, store)
	assert.Equal(t, 1, warnings.Count(diag.KindDanglingReference))
	poly := assembly.Geometry.(orb.Polygon)
	assert.Len(t, poly, 1)
}

func TestMissingMembers(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		relation(1, mp(),
			outer(100),
			outer(555),
			model.Member{Type: osm.TypeNode, Ref: 1},
			model.Member{Type: osm.TypeNode, Ref: 100},
			model.Member{Type: osm.TypeRelation, Ref: 1},
		).
		build()
	rel, _ := store.Relation(1)

	warnings := MissingMembers(rel, store)
	require.Len(t, warnings, 2)
	assert.Equal(t, "way/555", warnings[0].Ref)
	assert.Equal(t, "node/100", warnings[1].Ref)
}

func TestIsAreaRelationAndMembers(t *testing.T) {
	store := squares(newStoreBuilder()).
		way(100, nil, 1, 2, 3, 4, 1).
		way(101, nil, 1, 2).
		relation(1, mp(), outer(100)).
		relation(2, map[string]string{"type": "route"}, model.Member{Type: osm.TypeWay, Ref: 101, Role: "forward"}).
		build()

	r1, _ := store.Relation(1)
	r2, _ := store.Relation(2)
	assert.True(t, IsAreaRelation(r1))
	assert.False(t, IsAreaRelation(r2))

	members := AreaMembers(store)
	assert.Contains(t, members, osm.WayID(100))
	assert.NotContains(t, members, osm.WayID(101))
}
