package model

import "github.com/paulmach/osm"

// Store holds every parsed element indexed by id, plus the document order
// of each kind. A Store is built once by a Builder and is read-only after.
type Store struct {
	nodes     map[osm.NodeID]*Node
	ways      map[osm.WayID]*Way
	relations map[osm.RelationID]*Relation

	nodeOrder     []*Node
	wayOrder      []*Way
	relationOrder []*Relation
}

// Node looks up a node by id
func (s *Store) Node(id osm.NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Way looks up a way by id
func (s *Store) Way(id osm.WayID) (*Way, bool) {
	w, ok := s.ways[id]
	return w, ok
}

// Relation looks up a relation by id
func (s *Store) Relation(id osm.RelationID) (*Relation, bool) {
	r, ok := s.relations[id]
	return r, ok
}

// Nodes returns all nodes in document order. Callers must not modify the slice.
func (s *Store) Nodes() []*Node { return s.nodeOrder }

// Ways returns all ways in document order. Callers must not modify the slice.
func (s *Store) Ways() []*Way { return s.wayOrder }

// Relations returns all relations in document order. Callers must not modify the slice.
func (s *Store) Relations() []*Relation { return s.relationOrder }

// HasMember reports whether a member resolves to a known element of its declared type
func (s *Store) HasMember(m Member) bool {
	switch m.Type {
	case osm.TypeNode:
		_, ok := s.nodes[osm.NodeID(m.Ref)]
		return ok
	case osm.TypeWay:
		_, ok := s.ways[osm.WayID(m.Ref)]
		return ok
	case osm.TypeRelation:
		_, ok := s.relations[osm.RelationID(m.Ref)]
		return ok
	}
	return false
}

// Counts returns the number of nodes, ways and relations in the store
func (s *Store) Counts() (nodes, ways, relations int) {
	return len(s.nodeOrder), len(s.wayOrder), len(s.relationOrder)
}

// Builder accumulates elements during parsing. It is not safe for concurrent use.
type Builder struct {
	store *Store
}

// NewBuilder creates an empty store builder
func NewBuilder() *Builder {
	return &Builder{
		store: &Store{
			nodes:     make(map[osm.NodeID]*Node),
			ways:      make(map[osm.WayID]*Way),
			relations: make(map[osm.RelationID]*Relation),
		},
	}
}

// AddNode adds a node. It returns false, leaving the store unchanged, when
// a node with the same id was already added.
func (b *Builder) AddNode(n *Node) bool {
	if _, exists := b.store.nodes[n.ID]; exists {
		return false
	}
	if n.Tags == nil {
		n.Tags = map[string]string{}
	}
	b.store.nodes[n.ID] = n
	b.store.nodeOrder = append(b.store.nodeOrder, n)
	return true
}

// AddWay adds a way, returning false for a duplicate id
func (b *Builder) AddWay(w *Way) bool {
	if _, exists := b.store.ways[w.ID]; exists {
		return false
	}
	if w.Tags == nil {
		w.Tags = map[string]string{}
	}
	b.store.ways[w.ID] = w
	b.store.wayOrder = append(b.store.wayOrder, w)
	return true
}

// AddRelation adds a relation, returning false for a duplicate id
func (b *Builder) AddRelation(r *Relation) bool {
	if _, exists := b.store.relations[r.ID]; exists {
		return false
	}
	if r.Tags == nil {
		r.Tags = map[string]string{}
	}
	b.store.relations[r.ID] = r
	b.store.relationOrder = append(b.store.relationOrder, r)
	return true
}

// Build returns the finished store. The builder must not be used afterwards.
func (b *Builder) Build() *Store {
	s := b.store
	b.store = nil
	return s
}
