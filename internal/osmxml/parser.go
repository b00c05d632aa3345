package osmxml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2geojson-go/internal/diag"
	"github.com/wegman-software/osm2geojson-go/internal/model"
)

// Stats tracks parsing statistics
type Stats struct {
	Nodes      int64
	Ways       int64
	Relations  int64
	Duplicates int64
	Skipped    int64 // unrecognised top-level elements such as bounds or meta
}

// Parser parses OSM XML documents into a model store
type Parser struct {
	stats Stats

	progressEvery int64
	progress      func(offset, elements int64)
}

// NewParser creates a new OSM XML parser
func NewParser() *Parser {
	return &Parser{}
}

// Stats returns parsing statistics
func (p *Parser) Stats() Stats {
	return p.stats
}

// SetProgress makes Parse call fn with the input offset and the number of
// elements read so far, once every `every` elements
func (p *Parser) SetProgress(every int64, fn func(offset, elements int64)) {
	if every < 1 {
		every = 1
	}
	p.progressEvery = every
	p.progress = fn
}

func (p *Parser) reportProgress(decoder *xml.Decoder) {
	if p.progress == nil {
		return
	}
	elements := p.stats.Nodes + p.stats.Ways + p.stats.Relations
	if elements%p.progressEvery == 0 {
		p.progress(decoder.InputOffset(), elements)
	}
}

// Parse reads a complete document. Elements may appear in any order, so no
// reference is resolved here; the returned store is indexed and read-only.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*model.Store, diag.List, error) {
	decoder := xml.NewDecoder(reader)
	builder := model.NewBuilder()
	var warnings diag.List

	root, err := p.findRoot(decoder)
	if err != nil {
		return nil, nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		token, err := decoder.Token()
		if err == io.EOF {
			return nil, nil, p.malformed(decoder, root.Name.Local, errors.New("unexpected end of document"))
		}
		if err != nil {
			return nil, nil, p.malformed(decoder, root.Name.Local, err)
		}

		switch se := token.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "node":
				node, err := p.parseNode(decoder, se)
				if err != nil {
					return nil, nil, err
				}
				p.stats.Nodes++
				if !builder.AddNode(node) {
					p.duplicate(&warnings, node.FeatureID())
				}
				p.reportProgress(decoder)
			case "way":
				way, err := p.parseWay(decoder, se)
				if err != nil {
					return nil, nil, err
				}
				p.stats.Ways++
				if !builder.AddWay(way) {
					p.duplicate(&warnings, way.FeatureID())
				}
				p.reportProgress(decoder)
			case "relation":
				rel, err := p.parseRelation(decoder, se)
				if err != nil {
					return nil, nil, err
				}
				p.stats.Relations++
				if !builder.AddRelation(rel) {
					p.duplicate(&warnings, rel.FeatureID())
				}
				p.reportProgress(decoder)
			default:
				p.stats.Skipped++
				if err := decoder.Skip(); err != nil {
					return nil, nil, p.malformed(decoder, se.Name.Local, err)
				}
			}
		case xml.EndElement:
			// Only the root can close at this depth
			if err := p.expectEOF(decoder); err != nil {
				return nil, nil, err
			}
			return builder.Build(), warnings, nil
		}
	}
}

// findRoot advances to the <osm> root element
func (p *Parser) findRoot(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return xml.StartElement{}, p.malformed(decoder, "document", errors.New("no root element"))
		}
		if err != nil {
			return xml.StartElement{}, p.malformed(decoder, "document", err)
		}
		if se, ok := token.(xml.StartElement); ok {
			if se.Name.Local != "osm" {
				return se, p.malformed(decoder, se.Name.Local, fmt.Errorf("root element is <%s>, want <osm>", se.Name.Local))
			}
			return se, nil
		}
	}
}

// expectEOF ensures nothing but whitespace, comments or processing
// instructions follow the root element
func (p *Parser) expectEOF(decoder *xml.Decoder) error {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return p.malformed(decoder, "document", err)
		}
		if _, ok := token.(xml.StartElement); ok {
			return p.malformed(decoder, "document", errors.New("content after root element"))
		}
	}
}

// parseNode parses a node element
func (p *Parser) parseNode(decoder *xml.Decoder, start xml.StartElement) (*model.Node, error) {
	node := &model.Node{
		Tags: make(map[string]string),
	}

	attrs := attrMap(start)
	id, err := p.requireInt(decoder, "node", "", attrs, "id")
	if err != nil {
		return nil, err
	}
	node.ID = osm.NodeID(id)

	idStr := attrs["id"]
	if node.Lat, err = p.requireCoord(decoder, idStr, attrs, "lat"); err != nil {
		return nil, err
	}
	if node.Lon, err = p.requireCoord(decoder, idStr, attrs, "lon"); err != nil {
		return nil, err
	}

	// Parse child elements (tags)
	err = p.children(decoder, "node", func(se xml.StartElement) error {
		if se.Name.Local == "tag" {
			addTag(node.Tags, se)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// parseWay parses a way element
func (p *Parser) parseWay(decoder *xml.Decoder, start xml.StartElement) (*model.Way, error) {
	way := &model.Way{
		Nodes: make([]osm.NodeID, 0, 16),
		Tags:  make(map[string]string),
	}

	attrs := attrMap(start)
	id, err := p.requireInt(decoder, "way", "", attrs, "id")
	if err != nil {
		return nil, err
	}
	way.ID = osm.WayID(id)
	idStr := attrs["id"]

	// Parse child elements (nd refs and tags)
	err = p.children(decoder, "way", func(se xml.StartElement) error {
		switch se.Name.Local {
		case "nd":
			ref, err := p.requireInt(decoder, "nd", "in way "+idStr, attrMap(se), "ref")
			if err != nil {
				return err
			}
			way.Nodes = append(way.Nodes, osm.NodeID(ref))
		case "tag":
			addTag(way.Tags, se)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return way, nil
}

// parseRelation parses a relation element
func (p *Parser) parseRelation(decoder *xml.Decoder, start xml.StartElement) (*model.Relation, error) {
	rel := &model.Relation{
		Members: make([]model.Member, 0, 8),
		Tags:    make(map[string]string),
	}

	attrs := attrMap(start)
	id, err := p.requireInt(decoder, "relation", "", attrs, "id")
	if err != nil {
		return nil, err
	}
	rel.ID = osm.RelationID(id)
	idStr := attrs["id"]

	// Parse child elements (members and tags)
	err = p.children(decoder, "relation", func(se xml.StartElement) error {
		switch se.Name.Local {
		case "member":
			ma := attrMap(se)
			typ, ok := ma["type"]
			if !ok {
				return p.missing(decoder, "member", "in relation "+idStr, "type")
			}
			ref, err := p.requireInt(decoder, "member", "in relation "+idStr, ma, "ref")
			if err != nil {
				return err
			}
			rel.Members = append(rel.Members, model.Member{
				Type: osm.Type(typ),
				Ref:  ref,
				Role: ma["role"],
			})
		case "tag":
			addTag(rel.Tags, se)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// children walks the direct children of the current element, calling fn for
// each start element and skipping its subtree afterwards
func (p *Parser) children(decoder *xml.Decoder, name string, fn func(xml.StartElement) error) error {
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return p.malformed(decoder, name, err)
		}

		switch se := token.(type) {
		case xml.StartElement:
			if err := fn(se); err != nil {
				return err
			}
			if err := decoder.Skip(); err != nil {
				return p.malformed(decoder, se.Name.Local, err)
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *Parser) duplicate(warnings *diag.List, id osm.FeatureID) {
	p.stats.Duplicates++
	warnings.Add(diag.Warning{
		Kind:    diag.KindDuplicateElement,
		Element: id.String(),
		Message: "element appears more than once, keeping the first occurrence",
	})
}

func (p *Parser) requireInt(decoder *xml.Decoder, element, id string, attrs map[string]string, name string) (int64, error) {
	raw, ok := attrs[name]
	if !ok {
		return 0, p.missing(decoder, element, id, name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		line, _ := decoder.InputPos()
		return 0, &ParseError{Kind: Malformed, Element: element, ID: id, Attr: name, Line: line, Err: err}
	}
	return v, nil
}

func (p *Parser) requireCoord(decoder *xml.Decoder, id string, attrs map[string]string, name string) (float64, error) {
	raw, ok := attrs[name]
	if !ok {
		return 0, p.missing(decoder, "node", id, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("coordinate %q is not finite", raw)
	}
	if err != nil {
		line, _ := decoder.InputPos()
		return 0, &ParseError{Kind: Malformed, Element: "node", ID: id, Attr: name, Line: line, Err: err}
	}
	return v, nil
}

func (p *Parser) missing(decoder *xml.Decoder, element, id, attr string) error {
	line, _ := decoder.InputPos()
	return &ParseError{Kind: MissingRequiredAttribute, Element: element, ID: id, Attr: attr, Line: line}
}

func (p *Parser) malformed(decoder *xml.Decoder, element string, err error) error {
	line, _ := decoder.InputPos()
	return &ParseError{Kind: Malformed, Element: element, Line: line, Err: err}
}

// attrMap indexes element attributes by local name
func attrMap(se xml.StartElement) map[string]string {
	m := make(map[string]string, len(se.Attr))
	for _, attr := range se.Attr {
		m[attr.Name.Local] = attr.Value
	}
	return m
}

// addTag copies a <tag k v> pair into tags, ignoring tags without a key
func addTag(tags map[string]string, se xml.StartElement) {
	var k, v string
	for _, attr := range se.Attr {
		switch attr.Name.Local {
		case "k":
			k = attr.Value
		case "v":
			v = attr.Value
		}
	}
	if k != "" {
		tags[k] = v
	}
}

// Parse is a convenience wrapper around NewParser().Parse
func Parse(ctx context.Context, reader io.Reader) (*model.Store, diag.List, error) {
	return NewParser().Parse(ctx, reader)
}
