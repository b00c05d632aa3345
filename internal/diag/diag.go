// Package diag holds the recoverable problems found while converting a
// document. Nothing here is printed; callers decide how to surface them.
package diag

import "fmt"

// Kind classifies a warning
type Kind string

const (
	KindDuplicateElement    Kind = "duplicate_element"
	KindDanglingReference   Kind = "dangling_reference"
	KindTooFewNodes         Kind = "too_few_nodes"
	KindMissingMember       Kind = "missing_member"
	KindUnclosedRing        Kind = "unclosed_ring"
	KindDegenerateRing      Kind = "degenerate_ring"
	KindUnassignedInnerRing Kind = "unassigned_inner_ring"
	KindNoOuterRings        Kind = "no_outer_rings"
)

// Warning is a single recoverable problem tied to an element
type Warning struct {
	Kind    Kind
	Element string // "<kind>/<id>" of the element the warning is about
	Ref     string // referenced element, if any
	Message string
}

func (w Warning) String() string {
	if w.Ref != "" {
		return fmt.Sprintf("%s: %s (%s -> %s)", w.Kind, w.Message, w.Element, w.Ref)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.Element)
}

// List is an ordered collection of warnings
type List []Warning

// Add appends a warning
func (l *List) Add(w Warning) {
	*l = append(*l, w)
}

// Count returns how many warnings of the given kind the list holds
func (l List) Count(kind Kind) int {
	n := 0
	for _, w := range l {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// ByKind groups warning counts per kind
func (l List) ByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, w := range l {
		counts[w.Kind]++
	}
	return counts
}
