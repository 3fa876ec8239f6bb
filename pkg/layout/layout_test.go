package layout

import (
	"reflect"
	"testing"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
)

func buildGraph(t *testing.T, nodes []string, edges [][2]string) *semantic.Graph {
	t.Helper()
	g := semantic.New("flowchart")
	for _, id := range nodes {
		if err := g.AddNode(semantic.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(semantic.Edge{SourceID: e[0], TargetID: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func testLayered() Layered {
	return Layered{RankSep: 80, NodeSep: 40, Passes: 4, DefaultW: 120, DefaultH: 60}
}

func TestLayeredRanks(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
	if err := testLayered().Apply(g); err != nil {
		t.Fatalf("Apply() = %v", err)
	}

	y := func(id string) float64 {
		n, _ := g.Node(id)
		return n.Geometry.Y
	}
	if !(y("a") < y("b") && y("b") < y("d")) {
		t.Errorf("ranks not descending: a=%v b=%v d=%v", y("a"), y("b"), y("d"))
	}
	if y("b") != y("c") {
		t.Errorf("siblings b and c should share a rank: %v vs %v", y("b"), y("c"))
	}
}

func TestLayeredLongestPath(t *testing.T) {
	// d is reachable both directly from a and through b and c; it must sit
	// below the longest chain.
	g := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "d"}, {"a", "b"}, {"b", "c"}, {"c", "d"}},
	)
	if err := testLayered().Apply(g); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	c, _ := g.Node("c")
	d, _ := g.Node("d")
	if d.Geometry.Y <= c.Geometry.Y {
		t.Errorf("d must rank below c: d.Y=%v c.Y=%v", d.Geometry.Y, c.Geometry.Y)
	}
	// The rank-skipping edge a->d gets bend points.
	for _, e := range g.Edges() {
		if e.SourceID == "a" && e.TargetID == "d" {
			if len(e.Waypoints) == 0 {
				t.Error("rank-skipping edge should carry bend points")
			}
			if !e.FromLayout {
				t.Error("layout-derived edge must be marked FromLayout")
			}
		}
	}
}

func TestLayeredCycle(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
	)
	if err := testLayered().Apply(g); err != nil {
		t.Fatalf("Apply() on cyclic graph = %v", err)
	}
	// All nodes placed; the semantic edge relation keeps the cycle.
	for _, n := range g.Nodes() {
		if n.Geometry.Empty() {
			t.Errorf("node %s not placed", n.ID)
		}
	}
	if g.EdgeCount() != 3 {
		t.Errorf("cycle breaking must not remove semantic edges, have %d", g.EdgeCount())
	}
}

func TestLayeredDeterministic(t *testing.T) {
	build := func() *semantic.Graph {
		return buildGraph(t,
			[]string{"a", "b", "c", "d", "e", "f"},
			[][2]string{{"a", "c"}, {"a", "d"}, {"b", "d"}, {"b", "c"}, {"c", "e"}, {"d", "f"}},
		)
	}
	g1, g2 := build(), build()
	if err := testLayered().Apply(g1); err != nil {
		t.Fatal(err)
	}
	if err := testLayered().Apply(g2); err != nil {
		t.Fatal(err)
	}
	for _, n1 := range g1.Nodes() {
		n2, _ := g2.Node(n1.ID)
		if !reflect.DeepEqual(n1.Geometry, n2.Geometry) {
			t.Errorf("node %s geometry differs across runs: %+v vs %+v", n1.ID, n1.Geometry, n2.Geometry)
		}
	}
}

func TestLayeredNoNodes(t *testing.T) {
	g := semantic.New("flowchart")
	if err := testLayered().Apply(g); err == nil {
		t.Error("Apply() on empty graph should fail")
	}
}

func TestGrid(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d", "e"}, nil)
	if err := (Grid{CellW: 120, CellH: 60, Gap: 20}).Apply(g); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	seen := make(map[geom.Point]bool)
	for _, n := range g.Nodes() {
		if n.Geometry.Empty() {
			t.Errorf("node %s not placed", n.ID)
		}
		origin := geom.Point{X: n.Geometry.X, Y: n.Geometry.Y}
		if seen[origin] {
			t.Errorf("node %s overlaps another at %+v", n.ID, origin)
		}
		seen[origin] = true
	}
}

func TestNeedsLayout(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*semantic.Graph)
		want  bool
	}{
		{
			name: "well spread",
			setup: func(g *semantic.Graph) {
				g.AddNode(semantic.Node{ID: "a", Role: semantic.RoleNode, Geometry: geom.Rect{X: 0, Y: 0, W: 50, H: 30}})
				g.AddNode(semantic.Node{ID: "b", Role: semantic.RoleNode, Geometry: geom.Rect{X: 100, Y: 0, W: 50, H: 30}})
			},
			want: false,
		},
		{
			name: "missing geometry",
			setup: func(g *semantic.Graph) {
				g.AddNode(semantic.Node{ID: "a", Role: semantic.RoleNode})
			},
			want: true,
		},
		{
			name: "collapsed",
			setup: func(g *semantic.Graph) {
				g.AddNode(semantic.Node{ID: "a", Role: semantic.RoleNode, Geometry: geom.Rect{W: 50, H: 30}})
				g.AddNode(semantic.Node{ID: "b", Role: semantic.RoleNode, Geometry: geom.Rect{W: 50, H: 30}})
			},
			want: true,
		},
		{
			name: "heavy overlap",
			setup: func(g *semantic.Graph) {
				g.AddNode(semantic.Node{ID: "a", Role: semantic.RoleNode, Geometry: geom.Rect{X: 0, Y: 0, W: 50, H: 30}})
				g.AddNode(semantic.Node{ID: "b", Role: semantic.RoleNode, Geometry: geom.Rect{X: 10, Y: 5, W: 50, H: 30}})
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := semantic.New("flowchart")
			tt.setup(g)
			if got := NeedsLayout(g, 0.6); got != tt.want {
				t.Errorf("NeedsLayout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	g := semantic.New("flowchart")
	g.AddNode(semantic.Node{ID: "a", Role: semantic.RoleNode, Geometry: geom.Rect{X: 100, Y: 200, W: 80, H: 40}})
	g.AddNode(semantic.Node{ID: "b", Role: semantic.RoleNode, Geometry: geom.Rect{X: 300, Y: 200, W: 80, H: 40}})

	nm := Normalizer{Margin: 40, MinZoom: 0.25, MaxZoom: 4, Padding: 16}
	if err := nm.Normalize(g); err != nil {
		t.Fatalf("Normalize() = %v", err)
	}

	a, _ := g.Node("a")
	if a.Geometry.X != 40 || a.Geometry.Y != 40 {
		t.Errorf("top-left element must sit at the margin, got %+v", a.Geometry)
	}
	b, _ := g.Node("b")
	if b.Geometry.X != 240 {
		t.Errorf("relative offsets must be preserved, got %+v", b.Geometry)
	}
}

func TestNormalizeContainment(t *testing.T) {
	g := semantic.New("kanban")
	g.AddNode(semantic.Node{ID: "col", Role: semantic.RoleContainer, Geometry: geom.Rect{X: 0, Y: 0, W: 10, H: 10}})
	g.AddNode(semantic.Node{ID: "c1", Role: semantic.RoleNode, Geometry: geom.Rect{X: 20, Y: 30, W: 100, H: 50}})
	g.AddNode(semantic.Node{ID: "c2", Role: semantic.RoleNode, Geometry: geom.Rect{X: 20, Y: 100, W: 100, H: 50}})
	if err := g.SetParent("c1", "col"); err != nil {
		t.Fatal(err)
	}
	if err := g.SetParent("c2", "col"); err != nil {
		t.Fatal(err)
	}

	nm := Normalizer{Margin: 40, MinZoom: 0.25, MaxZoom: 4, Padding: 16}
	if err := nm.Normalize(g); err != nil {
		t.Fatalf("Normalize() = %v", err)
	}

	col, _ := g.Node("col")
	for _, id := range []string{"c1", "c2"} {
		child, _ := g.Node(id)
		if !col.Geometry.ContainsRect(child.Geometry) {
			t.Errorf("container does not enclose %s: %+v vs %+v", id, col.Geometry, child.Geometry)
		}
	}
	if err := g.ValidatePositioned(); err != nil {
		t.Errorf("ValidatePositioned() = %v", err)
	}
}

func TestNormalizeScaleClamp(t *testing.T) {
	g := semantic.New("flowchart")
	g.AddNode(semantic.Node{ID: "a", Role: semantic.RoleNode, Geometry: geom.Rect{X: 0, Y: 0, W: 100, H: 100}})

	nm := Normalizer{Margin: 0, Scale: 100, MinZoom: 0.25, MaxZoom: 4}
	if err := nm.Normalize(g); err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	a, _ := g.Node("a")
	if a.Geometry.W != 400 {
		t.Errorf("scale must clamp to max zoom: got width %v, want 400", a.Geometry.W)
	}
}

func TestNormalizeEmptyGraph(t *testing.T) {
	g := semantic.New("flowchart")
	nm := Normalizer{Margin: 40, MinZoom: 0.25, MaxZoom: 4}
	if err := nm.Normalize(g); err == nil {
		t.Error("Normalize() on geometry-less graph should fail")
	}
}

func TestNormalizeFlipY(t *testing.T) {
	g := semantic.New("flowchart")
	g.AddNode(semantic.Node{ID: "top", Role: semantic.RoleNode, Geometry: geom.Rect{X: 0, Y: 90, W: 10, H: 10}})
	g.AddNode(semantic.Node{ID: "bottom", Role: semantic.RoleNode, Geometry: geom.Rect{X: 0, Y: 0, W: 10, H: 10}})

	nm := Normalizer{Margin: 0, MinZoom: 0.25, MaxZoom: 4, FlipY: true}
	if err := nm.Normalize(g); err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	top, _ := g.Node("top")
	bottom, _ := g.Node("bottom")
	if top.Geometry.Y >= bottom.Geometry.Y {
		t.Errorf("flip must invert vertical order: top.Y=%v bottom.Y=%v", top.Geometry.Y, bottom.Geometry.Y)
	}
}
