package geometry

import (
	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2geojson-go/internal/model"
)

// storeBuilder wraps model.Builder with terse helpers for tests
type storeBuilder struct {
	b *model.Builder
}

func newStoreBuilder() *storeBuilder {
	return &storeBuilder{b: model.NewBuilder()}
}

func (s *storeBuilder) node(id int64, lon, lat float64) *storeBuilder {
	s.b.AddNode(&model.Node{ID: osm.NodeID(id), Lon: lon, Lat: lat})
	return s
}

func (s *storeBuilder) way(id int64, tags map[string]string, refs ...int64) *storeBuilder {
	nodes := make([]osm.NodeID, len(refs))
	for i, r := range refs {
		nodes[i] = osm.NodeID(r)
	}
	s.b.AddWay(&model.Way{ID: osm.WayID(id), Nodes: nodes, Tags: tags})
	return s
}

func (s *storeBuilder) relation(id int64, tags map[string]string, members ...model.Member) *storeBuilder {
	s.b.AddRelation(&model.Relation{ID: osm.RelationID(id), Members: members, Tags: tags})
	return s
}

func (s *storeBuilder) build() *model.Store {
	return s.b.Build()
}

func outer(ref int64) model.Member {
	return model.Member{Type: osm.TypeWay, Ref: ref, Role: RoleOuter}
}

func inner(ref int64) model.Member {
	return model.Member{Type: osm.TypeWay, Ref: ref, Role: RoleInner}
}

// squares adds nodes for two nested squares:
// A = 1..4 spanning (0,0)-(10,10), B = 11..14 spanning (2,2)-(8,8)
// and C = 21..24 spanning (20,20)-(30,30), disjoint from A
func squares(s *storeBuilder) *storeBuilder {
	return s.
		node(1, 0, 0).node(2, 10, 0).node(3, 10, 10).node(4, 0, 10).
		node(11, 2, 2).node(12, 8, 2).node(13, 8, 8).node(14, 2, 8).
		node(21, 20, 20).node(22, 30, 20).node(23, 30, 30).node(24, 20, 30)
}

func mp() map[string]string {
	return map[string]string{"type": "multipolygon"}
}
