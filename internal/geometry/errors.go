package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
)

// Sentinels for errors.Is matching
var (
	ErrDanglingReference   = errors.New("dangling node reference")
	ErrTooFewNodes         = errors.New("too few nodes")
	ErrUnclosedRing        = errors.New("unclosed ring")
	ErrDegenerateRing      = errors.New("degenerate ring")
	ErrUnassignedInnerRing = errors.New("unassigned inner ring")
	ErrNoOuterRings        = errors.New("no outer rings")
)

// WayError means a way could not be turned into a geometry
type WayError struct {
	Kind diag.Kind
	Way  osm.WayID
	Node osm.NodeID // the missing node for dangling references
}

func (e *WayError) Error() string {
	if e.Kind == diag.KindDanglingReference {
		return fmt.Sprintf("way %d references missing node %d", e.Way, e.Node)
	}
	return fmt.Sprintf("way %d has fewer than 2 nodes", e.Way)
}

// Is matches the kind sentinels
func (e *WayError) Is(target error) bool {
	switch target {
	case ErrDanglingReference:
		return e.Kind == diag.KindDanglingReference
	case ErrTooFewNodes:
		return e.Kind == diag.KindTooFewNodes
	}
	return false
}

// Warning converts the error into a diagnostic for the given element
func (e *WayError) Warning(element osm.FeatureID) diag.Warning {
	w := diag.Warning{
		Kind:    e.Kind,
		Element: element.String(),
		Message: e.Error(),
	}
	if e.Kind == diag.KindDanglingReference {
		w.Ref = e.Node.FeatureID().String()
	}
	return w
}

// RelationError describes a ring or relation that could not be assembled
type RelationError struct {
	Kind     diag.Kind
	Relation osm.RelationID
	Role     string
	Ways     []osm.WayID // member ways forming the failed ring
}

func (e *RelationError) Error() string {
	switch e.Kind {
	case diag.KindUnclosedRing:
		return fmt.Sprintf("relation %d: %s ring from ways %v does not close", e.Relation, e.Role, e.Ways)
	case diag.KindDegenerateRing:
		return fmt.Sprintf("relation %d: %s ring from ways %v has fewer than 4 coordinates", e.Relation, e.Role, e.Ways)
	case diag.KindUnassignedInnerRing:
		return fmt.Sprintf("relation %d: inner ring from ways %v lies in no outer ring", e.Relation, e.Ways)
	case diag.KindNoOuterRings:
		return fmt.Sprintf("relation %d: no valid outer ring", e.Relation)
	}
	return fmt.Sprintf("relation %d: %s", e.Relation, e.Kind)
}

// Is matches the kind sentinels
func (e *RelationError) Is(target error) bool {
	switch target {
	case ErrUnclosedRing:
		return e.Kind == diag.KindUnclosedRing
	case ErrDegenerateRing:
		return e.Kind == diag.KindDegenerateRing
	case ErrUnassignedInnerRing:
		return e.Kind == diag.KindUnassignedInnerRing
	case ErrNoOuterRings:
		return e.Kind == diag.KindNoOuterRings
	}
	return false
}

// Warning converts the error into a diagnostic
func (e *RelationError) Warning() diag.Warning {
	w := diag.Warning{
		Kind:    e.Kind,
		Element: e.Relation.FeatureID().String(),
		Message: e.Error(),
	}
	if len(e.Ways) > 0 {
		w.Ref = e.Ways[0].FeatureID().String()
	}
	return w
}
