package classify

import (
	"testing"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

func polygonPrim(pts ...geom.Point) visual.Primitive {
	var segs []visual.Segment
	for i, p := range pts {
		op := visual.OpLine
		if i == 0 {
			op = visual.OpMove
		}
		segs = append(segs, visual.Segment{Op: op, Pts: []geom.Point{p}})
	}
	segs = append(segs, visual.Segment{Op: visual.OpClose, Pts: []geom.Point{pts[0]}})
	return visual.Primitive{Kind: visual.KindShape, Tag: "polygon", BBox: geom.BBox(pts), Path: segs}
}

func rectPrim(r geom.Rect) visual.Primitive {
	return visual.Primitive{Kind: visual.KindShape, Tag: "rect", BBox: r}
}

func textPrim(s string, center geom.Point) visual.Primitive {
	w := float64(len(s)) * 8
	return visual.Primitive{
		Kind:    visual.KindText,
		Tag:     "text",
		RawText: s,
		BBox:    geom.Rect{X: center.X - w/2, Y: center.Y - 8, W: w, H: 16},
		Anchor:  center,
	}
}

func linkPrim(from, to geom.Point, markerEnd bool) visual.Primitive {
	return visual.Primitive{
		Kind: visual.KindPath,
		Tag:  "path",
		BBox: geom.RectFrom(from, to),
		Path: []visual.Segment{
			{Op: visual.OpMove, Pts: []geom.Point{from}},
			{Op: visual.OpLine, Pts: []geom.Point{to}},
		},
		Style: visual.StyleAttrs{MarkerEnd: markerEnd},
	}
}

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name string
		prim visual.Primitive
		want semantic.ShapeKind
	}{
		{
			name: "rect tag",
			prim: rectPrim(geom.Rect{W: 80, H: 40}),
			want: semantic.ShapeRectangle,
		},
		{
			name: "circle tag",
			prim: visual.Primitive{Kind: visual.KindShape, Tag: "circle", BBox: geom.Rect{W: 40, H: 40}},
			want: semantic.ShapeEllipse,
		},
		{
			name: "axis-aligned quad",
			prim: polygonPrim(
				geom.Point{X: 0, Y: 0}, geom.Point{X: 80, Y: 0},
				geom.Point{X: 80, Y: 40}, geom.Point{X: 0, Y: 40},
			),
			want: semantic.ShapeRectangle,
		},
		{
			name: "diamond",
			prim: polygonPrim(
				geom.Point{X: 40, Y: 0}, geom.Point{X: 80, Y: 20},
				geom.Point{X: 40, Y: 40}, geom.Point{X: 0, Y: 20},
			),
			want: semantic.ShapeDiamond,
		},
		{
			name: "wide diamond",
			prim: polygonPrim(
				geom.Point{X: 190, Y: 0}, geom.Point{X: 230, Y: 20},
				geom.Point{X: 190, Y: 40}, geom.Point{X: 150, Y: 20},
			),
			want: semantic.ShapeDiamond,
		},
		{
			name: "parallelogram",
			prim: polygonPrim(
				geom.Point{X: 20, Y: 0}, geom.Point{X: 100, Y: 0},
				geom.Point{X: 80, Y: 40}, geom.Point{X: 0, Y: 40},
			),
			want: semantic.ShapeParallelogram,
		},
		{
			name: "hexagon",
			prim: polygonPrim(
				geom.Point{X: 20, Y: 0}, geom.Point{X: 80, Y: 0},
				geom.Point{X: 100, Y: 20}, geom.Point{X: 80, Y: 40},
				geom.Point{X: 20, Y: 40}, geom.Point{X: 0, Y: 20},
			),
			want: semantic.ShapeHexagon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectShape(tt.prim, DefaultTolerances()); got != tt.want {
				t.Errorf("DetectShape() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFlowchartStartDecision covers the canonical two-node flowchart: a
// Start box, a decision diamond, and a labeled arrow between them.
func TestFlowchartStartDecision(t *testing.T) {
	prims := []visual.Primitive{
		rectPrim(geom.Rect{X: 0, Y: 0, W: 80, H: 40}),
		textPrim("Start", geom.Point{X: 40, Y: 20}),
		polygonPrim(
			geom.Point{X: 190, Y: 0}, geom.Point{X: 230, Y: 20},
			geom.Point{X: 190, Y: 40}, geom.Point{X: 150, Y: 20},
		),
		textPrim("OK?", geom.Point{X: 190, Y: 20}),
		linkPrim(geom.Point{X: 80, Y: 20}, geom.Point{X: 150, Y: 20}, true),
		textPrim("yes", geom.Point{X: 115, Y: 10}),
	}

	g, warnings, err := Flowchart{}.Classify(prims, DefaultTolerances())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Classify() warnings = %v", warnings)
	}

	var nodes []*semantic.Node
	for _, n := range g.Nodes() {
		if n.Role == semantic.RoleNode {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) != 2 {
		t.Fatalf("node count = %d, want 2", len(nodes))
	}
	if nodes[0].Label != "Start" || nodes[0].Shape != semantic.ShapeRectangle {
		t.Errorf("first node = %q/%v, want Start/rectangle", nodes[0].Label, nodes[0].Shape)
	}
	if nodes[1].Label != "OK?" || nodes[1].Shape != semantic.ShapeDiamond {
		t.Errorf("second node = %q/%v, want OK?/diamond", nodes[1].Label, nodes[1].Shape)
	}

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(edges))
	}
	e := edges[0]
	if e.SourceID != nodes[0].ID || e.TargetID != nodes[1].ID {
		t.Errorf("edge = %s -> %s, want %s -> %s", e.SourceID, e.TargetID, nodes[0].ID, nodes[1].ID)
	}
	if e.Label != "yes" {
		t.Errorf("edge label = %q, want yes", e.Label)
	}
	if !e.ArrowEnd {
		t.Error("edge should carry an end arrow")
	}
}

func TestFlowchartNoShapes(t *testing.T) {
	_, _, err := Flowchart{}.Classify([]visual.Primitive{
		textPrim("lonely", geom.Point{X: 0, Y: 0}),
	}, DefaultTolerances())
	if !dberrors.Is(err, dberrors.ErrCodeClassification) {
		t.Errorf("Classify() error = %v, want classification error", err)
	}
}

func TestGenericFallback(t *testing.T) {
	prims := []visual.Primitive{
		polygonPrim(
			geom.Point{X: 40, Y: 0}, geom.Point{X: 80, Y: 20},
			geom.Point{X: 40, Y: 40}, geom.Point{X: 0, Y: 20},
		),
		textPrim("anything", geom.Point{X: 40, Y: 20}),
	}
	g, _, err := Generic{}.Classify(prims, DefaultTolerances())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	nodes := g.Nodes()
	if len(nodes) != 1 || nodes[0].Shape != semantic.ShapeRectangle {
		t.Errorf("generic grammar must flatten every shape to a rectangle, got %+v", nodes)
	}
}

func TestSequenceMessages(t *testing.T) {
	prims := []visual.Primitive{
		rectPrim(geom.Rect{X: 0, Y: 0, W: 100, H: 40}),
		textPrim("Alice", geom.Point{X: 50, Y: 20}),
		rectPrim(geom.Rect{X: 200, Y: 0, W: 100, H: 40}),
		textPrim("Bob", geom.Point{X: 250, Y: 20}),
		// Lifelines.
		linkPrim(geom.Point{X: 50, Y: 40}, geom.Point{X: 50, Y: 300}, false),
		linkPrim(geom.Point{X: 250, Y: 40}, geom.Point{X: 250, Y: 300}, false),
		// Messages.
		linkPrim(geom.Point{X: 50, Y: 100}, geom.Point{X: 250, Y: 100}, true),
		textPrim("hello", geom.Point{X: 150, Y: 90}),
		linkPrim(geom.Point{X: 250, Y: 160}, geom.Point{X: 50, Y: 160}, true),
	}

	g, _, err := Sequence{}.Classify(prims, DefaultTolerances())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	alice, ok := g.Node("alice")
	if !ok {
		t.Fatal("participant alice missing")
	}
	if alice.Role != semantic.RoleContainer {
		t.Errorf("participant role = %v, want container", alice.Role)
	}
	if alice.Geometry.MaxY() < 300 {
		t.Errorf("lifeline did not extend participant geometry: %+v", alice.Geometry)
	}

	edges := g.Edges()
	if len(edges) != 2 {
		t.Fatalf("edge count = %d, want 2", len(edges))
	}
	if edges[0].SourceID != "alice" || edges[0].TargetID != "bob" || edges[0].Label != "hello" {
		t.Errorf("first message = %+v", edges[0])
	}
	if edges[1].SourceID != "bob" || edges[1].TargetID != "alice" {
		t.Errorf("second message = %+v", edges[1])
	}
}

func TestKanbanColumns(t *testing.T) {
	prims := []visual.Primitive{
		rectPrim(geom.Rect{X: 0, Y: 0, W: 160, H: 400}),
		textPrim("Todo", geom.Point{X: 80, Y: 20}),
		rectPrim(geom.Rect{X: 10, Y: 50, W: 140, H: 60}),
		textPrim("Write tests", geom.Point{X: 80, Y: 80}),
		rectPrim(geom.Rect{X: 10, Y: 130, W: 140, H: 60}),
		textPrim("Fix bug", geom.Point{X: 80, Y: 160}),
	}

	g, _, err := Kanban{}.Classify(prims, DefaultTolerances())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	col, ok := g.Node("todo")
	if !ok || col.Role != semantic.RoleContainer {
		t.Fatalf("column todo missing or not a container: %+v", col)
	}
	children := g.Children("todo")
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}
	if children[0].Label != "Write tests" || children[1].Label != "Fix bug" {
		t.Errorf("cards = %q, %q", children[0].Label, children[1].Label)
	}
}

func TestGanttBars(t *testing.T) {
	prims := []visual.Primitive{
		rectPrim(geom.Rect{X: 100, Y: 50, W: 200, H: 20}),
		textPrim("Design", geom.Point{X: 200, Y: 60}),
		rectPrim(geom.Rect{X: 300, Y: 90, W: 150, H: 20}),
		textPrim("Build", geom.Point{X: 375, Y: 100}),
		textPrim("March", geom.Point{X: 100, Y: 400}),
	}

	g, _, err := Gantt{}.Classify(prims, DefaultTolerances())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("gantt must have no edges, got %d", g.EdgeCount())
	}
	var tasks, notes int
	for _, n := range g.Nodes() {
		switch n.Role {
		case semantic.RoleNode:
			tasks++
			if n.Shape != semantic.ShapeBar {
				t.Errorf("task shape = %v, want bar", n.Shape)
			}
		case semantic.RoleAnnotation:
			notes++
		}
	}
	if tasks != 2 {
		t.Errorf("tasks = %d, want 2", tasks)
	}
	if notes == 0 {
		t.Error("axis label should be preserved as an annotation")
	}
}

func TestSWOTQuadrants(t *testing.T) {
	prims := []visual.Primitive{
		rectPrim(geom.Rect{X: 0, Y: 0, W: 200, H: 200}),
		textPrim("Strengths", geom.Point{X: 100, Y: 20}),
		textPrim("Fast team", geom.Point{X: 100, Y: 60}),
		rectPrim(geom.Rect{X: 200, Y: 0, W: 200, H: 200}),
		textPrim("Weaknesses", geom.Point{X: 300, Y: 20}),
	}

	g, _, err := SWOT{}.Classify(prims, DefaultTolerances())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	q, ok := g.Node("strengths")
	if !ok || q.Role != semantic.RoleContainer {
		t.Fatalf("quadrant strengths missing or not container: %+v", q)
	}
	children := g.Children("strengths")
	if len(children) != 1 || children[0].Label != "Fast team" {
		t.Errorf("items = %+v, want [Fast team]", children)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Start", "start"},
		{"OK?", "ok"},
		{"Write tests", "write_tests"},
		{"", ""},
		{"___", ""},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
