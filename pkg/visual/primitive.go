// Package visual extracts typed primitives from a rendered visual tree.
//
// The rendered tree is the SVG output of the external rendering collaborator.
// This package owns the first pipeline stage: parsing the tree ([Parse]) and
// flattening it into a list of primitives ([Extract]) that the diagram-type
// classifiers consume. Primitives are never mutated after extraction.
package visual

import (
	"github.com/matzehuels/drawbridge/pkg/geom"
)

// Kind discriminates the primitive variants.
type Kind int

const (
	// KindShape is a closed drawable: rect, circle, ellipse, polygon, or a
	// closed path.
	KindShape Kind = iota
	// KindPath is an open stroke: line or unclosed path, typically a
	// connector.
	KindPath
	// KindText is a text run with an anchor point.
	KindText
	// KindGroup is a named group, emitted for groups that carry an id or
	// class so classifiers can use them for container inference.
	KindGroup
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindPath:
		return "path"
	case KindText:
		return "text"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// StyleAttrs holds the raw style attributes found on a primitive.
// Empty strings and zero values mean the attribute was absent; the style
// mapper overlays these onto diagram-type defaults.
type StyleAttrs struct {
	Fill        string  // fill color as written ("#fff", "rgb(...)", "none")
	Stroke      string  // stroke color
	StrokeWidth float64 // stroke width in extractor units (0 = absent)
	Dash        string  // stroke-dasharray as written
	FontFamily  string
	FontSize    float64 // font size in extractor units (0 = absent)
	Class       string  // space-separated class list from the renderer
	MarkerStart bool    // arrowhead marker at the path start
	MarkerEnd   bool    // arrowhead marker at the path end
}

// SegmentOp identifies a path segment operation.
type SegmentOp int

const (
	// OpMove starts a new subpath.
	OpMove SegmentOp = iota
	// OpLine is a straight segment.
	OpLine
	// OpCurve is a cubic Bézier segment.
	OpCurve
	// OpQuad is a quadratic Bézier segment.
	OpQuad
	// OpArc is an elliptical arc segment.
	OpArc
	// OpClose closes the current subpath.
	OpClose
)

// Segment is one operation of a path's geometry. Pts holds the absolute
// points the operation touches: the endpoint for moves/lines/closes, control
// points followed by the endpoint for curves.
type Segment struct {
	Op  SegmentOp
	Pts []geom.Point
}

// End returns the segment's endpoint. Close segments return the point the
// subpath closes back to.
func (s Segment) End() geom.Point {
	if len(s.Pts) == 0 {
		return geom.Point{}
	}
	return s.Pts[len(s.Pts)-1]
}

// Primitive is one flattened unit of the rendered visual tree.
type Primitive struct {
	Kind  Kind
	Tag   string // source element name ("rect", "path", "text", "g", ...)
	BBox  geom.Rect
	Style StyleAttrs

	// GroupPath is the chain of enclosing group names, outermost first.
	// Used for container inference by the classifiers.
	GroupPath []string

	// RawText is the text content (KindText only).
	RawText string
	// Anchor is the text anchor point (KindText only).
	Anchor geom.Point
	// AnchorMiddle reports whether the text is center-anchored.
	AnchorMiddle bool

	// Path holds the ordered segments (KindPath and polygon shapes).
	Path []Segment
}

// Closed reports whether the primitive's path geometry forms a closed loop,
// either by an explicit close operation or by ending where it started.
func (p Primitive) Closed() bool {
	if len(p.Path) < 2 {
		return false
	}
	for _, s := range p.Path {
		if s.Op == OpClose {
			return true
		}
	}
	first := p.Path[0].End()
	last := p.Path[len(p.Path)-1].End()
	return first.Dist(last) < 1e-6
}

// PathPoints returns every point the path touches, in order.
func (p Primitive) PathPoints() []geom.Point {
	var pts []geom.Point
	for _, s := range p.Path {
		pts = append(pts, s.Pts...)
	}
	return pts
}

// InGroup reports whether name appears anywhere in the primitive's group path.
func (p Primitive) InGroup(name string) bool {
	for _, g := range p.GroupPath {
		if g == name {
			return true
		}
	}
	return false
}
