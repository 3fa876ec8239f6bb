package layout

import (
	"math"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
)

// Grid is the last-resort engine: nodes in a square-ish grid, reading
// order, no edge routing. Used when [Layered] fails.
type Grid struct {
	// CellW and CellH size cells for nodes without geometry.
	CellW, CellH float64
	// Gap separates cells on both axes.
	Gap float64
}

// Apply implements [Engine].
func (gr Grid) Apply(g *semantic.Graph) error {
	nodes := layoutNodes(g)
	if len(nodes) == 0 {
		return nil
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	for i, n := range nodes {
		w, h := n.Geometry.W, n.Geometry.H
		if w <= 0 {
			w = gr.CellW
		}
		if h <= 0 {
			h = gr.CellH
		}
		row, col := i/cols, i%cols
		n.Geometry = geom.Rect{
			X: float64(col) * (gr.CellW + gr.Gap),
			Y: float64(row) * (gr.CellH + gr.Gap),
			W: w,
			H: h,
		}
	}

	for _, e := range g.Edges() {
		e.Waypoints = nil
		e.FromLayout = true
	}
	return nil
}
