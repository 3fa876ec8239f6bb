package layout

import (
	"math"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Normalizer is the coordinate mapper: it rescales and translates all graph
// geometry into the target canvas's unit system, optionally flips the
// Y axis, and recomputes container geometry from finalized children.
type Normalizer struct {
	// Margin is the gap between the canvas origin and the top-left-most
	// element.
	Margin float64
	// Scale is the requested uniform scale factor, clamped to
	// [MinZoom, MaxZoom]. Zero means 1.
	Scale float64
	// MinZoom and MaxZoom bound the applied scale.
	MinZoom, MaxZoom float64
	// FlipY mirrors the Y axis for renderers whose coordinate system is
	// inverted relative to the target schema.
	FlipY bool
	// Padding grows container geometry beyond the union of its children.
	Padding float64
}

// Normalize implements the coordinate-mapping stage. After it returns
// without error, every node has geometry in canvas units and every
// container encloses its descendants.
func (nm Normalizer) Normalize(g *semantic.Graph) error {
	scale := nm.Scale
	if scale == 0 {
		scale = 1
	}
	scale = math.Max(nm.MinZoom, math.Min(nm.MaxZoom, scale))
	if scale <= 0 {
		scale = 1
	}

	bbox := g.BBox()
	if bbox.Empty() {
		return dberrors.New(dberrors.ErrCodeLayout, "graph has no geometry to normalize").
			WithStage("normalize")
	}

	mapPoint := func(p geom.Point) geom.Point {
		x := (p.X - bbox.X) * scale
		var y float64
		if nm.FlipY {
			y = (bbox.MaxY() - p.Y) * scale
		} else {
			y = (p.Y - bbox.Y) * scale
		}
		return geom.Point{X: x + nm.Margin, Y: y + nm.Margin}
	}
	mapRect := func(r geom.Rect) geom.Rect {
		tl := mapPoint(geom.Point{X: r.X, Y: r.Y})
		br := mapPoint(geom.Point{X: r.MaxX(), Y: r.MaxY()})
		return geom.RectFrom(tl, br)
	}

	for _, n := range g.Nodes() {
		if n.Geometry.Empty() && n.Role != semantic.RoleContainer {
			// Zero-area nodes (bare points) get a minimal footprint so the
			// containment and geometry invariants can hold.
			n.Geometry = geom.Rect{X: n.Geometry.X, Y: n.Geometry.Y, W: 1, H: 1}
		}
		n.Geometry = mapRect(n.Geometry)
	}
	for _, e := range g.Edges() {
		for i, wp := range e.Waypoints {
			e.Waypoints[i] = mapPoint(wp)
		}
	}

	nm.fitContainers(g)
	return g.ValidatePositioned()
}

// fitContainers recomputes container geometry as the union of descendant
// geometry plus padding, deepest containers first so nesting accumulates.
// Containers without children keep their mapped geometry. Runs only after
// children are finalized; doing it earlier would bake in pre-normalization
// coordinates.
func (nm Normalizer) fitContainers(g *semantic.Graph) {
	containers := make([]*semantic.Node, 0)
	for _, n := range g.Nodes() {
		if n.Role == semantic.RoleContainer {
			containers = append(containers, n)
		}
	}

	// Order by depth, deepest first.
	depth := func(n *semantic.Node) int {
		d := 0
		for cur := n; cur.ParentID != ""; d++ {
			cur, _ = g.Node(cur.ParentID)
		}
		return d
	}
	for i := 0; i < len(containers); i++ {
		for j := i + 1; j < len(containers); j++ {
			if depth(containers[j]) > depth(containers[i]) {
				containers[i], containers[j] = containers[j], containers[i]
			}
		}
	}

	for _, c := range containers {
		children := g.Children(c.ID)
		if len(children) == 0 {
			continue
		}
		var union geom.Rect
		for _, child := range children {
			union = union.Union(child.Geometry)
		}
		c.Geometry = c.Geometry.Union(union.Inset(-nm.Padding))
	}
}
