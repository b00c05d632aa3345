package osmxml

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal parse failure
type ErrorKind string

const (
	// Malformed means the document is not well-formed OSM XML
	Malformed ErrorKind = "malformed"
	// MissingRequiredAttribute means an element lacks an attribute it cannot do without
	MissingRequiredAttribute ErrorKind = "missing_required_attribute"
)

// Sentinels for errors.Is matching against a *ParseError
var (
	ErrMalformed        = errors.New("malformed OSM XML")
	ErrMissingAttribute = errors.New("missing required attribute")
)

// ParseError aborts the whole conversion
type ParseError struct {
	Kind    ErrorKind
	Element string // element name, e.g. "node"
	ID      string // element id when known
	Attr    string // offending attribute, if any
	Line    int
	Err     error // underlying cause, if any
}

func (e *ParseError) Error() string {
	where := e.Element
	if e.ID != "" {
		where += " " + e.ID
	}
	switch {
	case e.Kind == MissingRequiredAttribute:
		return fmt.Sprintf("osm xml line %d: %s lacks required attribute %q", e.Line, where, e.Attr)
	case e.Attr != "" && e.Err != nil:
		return fmt.Sprintf("osm xml line %d: invalid %q on %s: %v", e.Line, e.Attr, where, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("osm xml line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("osm xml line %d: malformed %s", e.Line, where)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == Malformed
	case ErrMissingAttribute:
		return e.Kind == MissingRequiredAttribute
	}
	return false
}
