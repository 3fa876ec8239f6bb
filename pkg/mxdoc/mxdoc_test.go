package mxdoc

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
)

func testBuilder() Builder {
	return Builder{Margin: 40, GridSize: 10, PageName: "Page-1"}
}

// A minimal two-node, one-edge flowchart must produce exactly two vertex
// cells and one edge cell referencing them.
func TestBuildTwoNodeFlowchart(t *testing.T) {
	g := semantic.New("flowchart")
	mustAdd(t, g.AddNode(semantic.Node{
		ID: "start", Label: "Start", Shape: semantic.ShapeRectangle,
		Geometry: geom.Rect{X: 40, Y: 40, W: 80, H: 40},
	}))
	mustAdd(t, g.AddNode(semantic.Node{
		ID: "ok", Label: "OK?", Shape: semantic.ShapeDiamond,
		Geometry: geom.Rect{X: 190, Y: 40, W: 80, H: 40},
	}))
	mustAdd(t, g.AddEdge(semantic.Edge{SourceID: "start", TargetID: "ok", Label: "yes", ArrowEnd: true}))

	doc, err := testBuilder().Build(g)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	vertices := doc.Vertices()
	if len(vertices) != 2 {
		t.Fatalf("vertex count = %d, want 2", len(vertices))
	}
	edges := doc.Edges()
	if len(edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(edges))
	}

	e := edges[0]
	if e.Source != vertices[0].ID || e.Target != vertices[1].ID {
		t.Errorf("edge = %s -> %s, want %s -> %s", e.Source, e.Target, vertices[0].ID, vertices[1].ID)
	}
	if e.Value != "yes" {
		t.Errorf("edge label = %q, want yes", e.Value)
	}
	if vertices[0].Value != "Start" || vertices[1].Value != "OK?" {
		t.Errorf("vertex labels = %q, %q", vertices[0].Value, vertices[1].Value)
	}
}

func TestBuildContainersBeforeChildren(t *testing.T) {
	g := semantic.New("kanban")
	// Child inserted before its container: emission order must still put
	// the container cell first.
	mustAdd(t, g.AddNode(semantic.Node{
		ID: "card", Label: "Card", Geometry: geom.Rect{X: 60, Y: 80, W: 100, H: 50},
	}))
	mustAdd(t, g.AddNode(semantic.Node{
		ID: "col", Label: "Column", Role: semantic.RoleContainer,
		Geometry: geom.Rect{X: 40, Y: 40, W: 140, H: 300},
	}))
	mustAdd(t, g.SetParent("card", "col"))

	doc, err := testBuilder().Build(g)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	cells := doc.Diagram.Model.Root.Cells
	pos := make(map[string]int)
	byID := make(map[string]Cell)
	for i, c := range cells {
		pos[c.ID] = i
		byID[c.ID] = c
	}
	var cardCell, colCell Cell
	for _, c := range cells {
		switch c.Value {
		case "Card":
			cardCell = c
		case "Column":
			colCell = c
		}
	}
	if pos[colCell.ID] > pos[cardCell.ID] {
		t.Error("container cell must be emitted before its child")
	}
	if cardCell.Parent != colCell.ID {
		t.Errorf("card parent = %s, want %s", cardCell.Parent, colCell.ID)
	}
	// Child geometry is relative to the container origin.
	if cardCell.Geometry.X != "20" || cardCell.Geometry.Y != "40" {
		t.Errorf("card geometry = (%s, %s), want (20, 40)", cardCell.Geometry.X, cardCell.Geometry.Y)
	}
	if byID[colCell.ID].Parent != "1" {
		t.Errorf("top-level container parent = %s, want 1", colCell.Parent)
	}
}

func TestBuildWaypoints(t *testing.T) {
	g := semantic.New("flowchart")
	mustAdd(t, g.AddNode(semantic.Node{ID: "a", Geometry: geom.Rect{X: 0, Y: 0, W: 50, H: 30}}))
	mustAdd(t, g.AddNode(semantic.Node{ID: "b", Geometry: geom.Rect{X: 0, Y: 200, W: 50, H: 30}}))
	mustAdd(t, g.AddEdge(semantic.Edge{
		SourceID: "a", TargetID: "b",
		Waypoints: []geom.Point{{X: 60, Y: 100}}, FromLayout: true,
	}))
	mustAdd(t, g.AddEdge(semantic.Edge{
		SourceID: "b", TargetID: "a",
		Waypoints: []geom.Point{{X: 10, Y: 100}}, FromLayout: false,
	}))

	doc, err := testBuilder().Build(g)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	edges := doc.Edges()
	if edges[0].Geometry.Points == nil || len(edges[0].Geometry.Points.Points) != 1 {
		t.Error("layout-derived waypoints must be serialized")
	}
	if edges[1].Geometry.Points != nil {
		t.Error("rendered-path waypoints must be omitted for free routing")
	}
}

func TestBuildPageMetadata(t *testing.T) {
	g := semantic.New("flowchart")
	mustAdd(t, g.AddNode(semantic.Node{ID: "a", Geometry: geom.Rect{X: 40, Y: 40, W: 100, H: 60}}))

	doc, err := testBuilder().Build(g)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	m := doc.Diagram.Model
	if m.PageWidth != 180 || m.PageHeight != 140 {
		t.Errorf("page = %vx%v, want 180x140", m.PageWidth, m.PageHeight)
	}
	if m.GridSize != 10 {
		t.Errorf("gridSize = %v, want 10", m.GridSize)
	}
}

func TestXMLRoundTrip(t *testing.T) {
	g := semantic.New("flowchart")
	mustAdd(t, g.AddNode(semantic.Node{
		ID: "a", Label: `Quotes " & <angles>`,
		Geometry: geom.Rect{X: 0, Y: 0, W: 50, H: 30},
	}))

	doc, err := testBuilder().Build(g)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	data, err := doc.XML()
	if err != nil {
		t.Fatalf("XML() = %v", err)
	}
	if !strings.HasPrefix(string(data), xml.Header) {
		t.Error("serialized document missing XML header")
	}

	var parsed Document
	if err := xml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if parsed.Compressed != "false" {
		t.Errorf("compressed = %q, want %q", parsed.Compressed, "false")
	}
	if len(parsed.Vertices()) != 1 {
		t.Errorf("round trip lost vertices: %d", len(parsed.Vertices()))
	}
	if parsed.Vertices()[0].Value != `Quotes " & <angles>` {
		t.Errorf("label not preserved: %q", parsed.Vertices()[0].Value)
	}
}

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{40, "40"},
		{-12, "-12"},
		{3.5, "3.50"},
		{126.666666, "126.67"},
	}
	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
