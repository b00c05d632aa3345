package model

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Node represents an OSM node as held in the model store
type Node struct {
	ID   osm.NodeID
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// Point returns the node position in [lon, lat] order
func (n *Node) Point() orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

// FeatureID returns the "node/<id>" identity of the node
func (n *Node) FeatureID() osm.FeatureID {
	return n.ID.FeatureID()
}

// Way represents an OSM way with its ordered node references
type Way struct {
	ID    osm.WayID
	Nodes []osm.NodeID // ordered, closed ways repeat the first id at the end
	Tags  map[string]string
}

// IsClosed reports whether the way has at least 4 refs and ends where it starts
func (w *Way) IsClosed() bool {
	return len(w.Nodes) >= 4 && w.Nodes[0] == w.Nodes[len(w.Nodes)-1]
}

// FeatureID returns the "way/<id>" identity of the way
func (w *Way) FeatureID() osm.FeatureID {
	return w.ID.FeatureID()
}

// Member represents a member of an OSM relation
type Member struct {
	Type osm.Type // osm.TypeNode, osm.TypeWay or osm.TypeRelation
	Ref  int64
	Role string
}

// Relation represents an OSM relation
type Relation struct {
	ID      osm.RelationID
	Members []Member
	Tags    map[string]string
}

// FeatureID returns the "relation/<id>" identity of the relation
func (r *Relation) FeatureID() osm.FeatureID {
	return r.ID.FeatureID()
}

// MemberLabel formats a member reference as "<type>/<ref>"
func MemberLabel(m Member) string {
	switch m.Type {
	case osm.TypeNode:
		return osm.NodeID(m.Ref).FeatureID().String()
	case osm.TypeWay:
		return osm.WayID(m.Ref).FeatureID().String()
	case osm.TypeRelation:
		return osm.RelationID(m.Ref).FeatureID().String()
	}
	return string(m.Type) + "/?"
}
