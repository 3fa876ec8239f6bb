// Package mxdoc builds and serializes the target graph document.
//
// The target schema is the mxGraph interchange format: a flat cell list
// where each cell is a vertex or an edge, carries a style string and
// geometry, and references its parent cell. Cells "0" and "1" are the
// schema's fixed root and default layer; every other ID comes from a
// monotonic counter, stable within one build but not across builds of
// edited source.
package mxdoc

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/matzehuels/drawbridge/pkg/geom"
)

// Document is the serializable target document.
type Document struct {
	XMLName    xml.Name `xml:"mxfile"`
	Host       string   `xml:"host,attr"`
	Agent      string   `xml:"agent,attr,omitempty"`
	Compressed string   `xml:"compressed,attr,omitempty"`
	Diagram    Diagram  `xml:"diagram"`
}

// Diagram is the single page the builder emits.
type Diagram struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Model Model  `xml:"mxGraphModel"`
}

// Model carries page-level metadata and the cell list.
type Model struct {
	Grid       int     `xml:"grid,attr"`
	GridSize   float64 `xml:"gridSize,attr"`
	PageWidth  float64 `xml:"pageWidth,attr"`
	PageHeight float64 `xml:"pageHeight,attr"`
	Root       Root    `xml:"root"`
}

// Root wraps the flat cell list.
type Root struct {
	Cells []Cell `xml:"mxCell"`
}

// Cell is one vertex or edge cell.
type Cell struct {
	ID     string `xml:"id,attr"`
	Value  string `xml:"value,attr,omitempty"`
	Style  string `xml:"style,attr,omitempty"`
	Vertex string `xml:"vertex,attr,omitempty"`
	Edge   string `xml:"edge,attr,omitempty"`
	Parent string `xml:"parent,attr,omitempty"`
	Source string `xml:"source,attr,omitempty"`
	Target string `xml:"target,attr,omitempty"`

	Geometry *Geometry `xml:"mxGeometry,omitempty"`
}

// IsVertex reports whether the cell is a vertex.
func (c Cell) IsVertex() bool { return c.Vertex == "1" }

// IsEdge reports whether the cell is an edge.
func (c Cell) IsEdge() bool { return c.Edge == "1" }

// Geometry is a cell's mxGeometry element. Coordinates are relative to the
// parent cell's origin, per the schema.
type Geometry struct {
	X        string      `xml:"x,attr,omitempty"`
	Y        string      `xml:"y,attr,omitempty"`
	Width    string      `xml:"width,attr,omitempty"`
	Height   string      `xml:"height,attr,omitempty"`
	Relative string      `xml:"relative,attr,omitempty"`
	Points   *PointArray `xml:"Array,omitempty"`
	As       string      `xml:"as,attr"`
}

// PointArray holds explicit edge waypoints.
type PointArray struct {
	As     string  `xml:"as,attr"`
	Points []Point `xml:"mxPoint"`
}

// Point is one waypoint.
type Point struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}

// vertexGeometry builds the geometry element for a vertex placed at r,
// relative to a parent whose absolute origin is at parentOrigin.
func vertexGeometry(r geom.Rect, parentOrigin geom.Point) *Geometry {
	return &Geometry{
		X:      num(r.X - parentOrigin.X),
		Y:      num(r.Y - parentOrigin.Y),
		Width:  num(r.W),
		Height: num(r.H),
		As:     "geometry",
	}
}

// edgeGeometry builds the geometry element for an edge, with explicit
// waypoints when the layout engine derived them.
func edgeGeometry(waypoints []geom.Point) *Geometry {
	g := &Geometry{Relative: "1", As: "geometry"}
	if len(waypoints) > 0 {
		arr := &PointArray{As: "points"}
		for _, wp := range waypoints {
			arr.Points = append(arr.Points, Point{X: num(wp.X), Y: num(wp.Y)})
		}
		g.Points = arr
	}
	return g
}

// num formats a coordinate compactly: integers without a decimal point,
// everything else with two places.
func num(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%.2f", f)
}

// Vertices returns the vertex cells, excluding the structural root cells.
func (d *Document) Vertices() []Cell {
	var out []Cell
	for _, c := range d.Diagram.Model.Root.Cells {
		if c.IsVertex() {
			out = append(out, c)
		}
	}
	return out
}

// Edges returns the edge cells.
func (d *Document) Edges() []Cell {
	var out []Cell
	for _, c := range d.Diagram.Model.Root.Cells {
		if c.IsEdge() {
			out = append(out, c)
		}
	}
	return out
}

// XML serializes the document with the standard header and indentation.
func (d *Document) XML() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
