package classify

import (
	"sort"

	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Gantt handles the gantt grammar: horizontal task bars on a fixed time
// axis. Bars become nodes with no edges; axis lines, tick labels, and
// section titles are preserved as annotations. Bar positions carry the time
// information, so native geometry is always kept.
type Gantt struct{}

// DiagramType implements [Rules].
func (Gantt) DiagramType() string { return "gantt" }

// Classify implements [Rules].
func (Gantt) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	// Task bars are wide shallow rects. Anything else closed is chart
	// furniture (grid background, today marker).
	var bars []*sceneShape
	var furniture []*sceneShape
	for _, sh := range s.shapes {
		if isBar(sh.prim) {
			sh.kind = semantic.ShapeBar
			bars = append(bars, sh)
		} else {
			furniture = append(furniture, sh)
		}
	}
	if len(bars) == 0 {
		return nil, nil, classificationErr("gantt", "no task bars found")
	}

	// Top-to-bottom, then left-to-right: reading order of the chart.
	sort.SliceStable(bars, func(i, j int) bool {
		a, b := bars[i].prim.BBox, bars[j].prim.BBox
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	g := semantic.New("gantt")
	for _, sh := range bars {
		sh.id = s.nodeID(sh.label, "task")
		err := g.AddNode(semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleNode,
			Label:    sh.label,
			Shape:    semantic.ShapeBar,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
	}

	for _, sh := range furniture {
		id := s.nodeID(sh.label, "grid")
		err := g.AddNode(semantic.Node{
			ID:       id,
			Role:     semantic.RoleAnnotation,
			Label:    sh.label,
			Shape:    sh.kind,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
	}

	if err := s.addAnnotations(g); err != nil {
		return nil, nil, err
	}
	return g, nil, g.Validate()
}

// isBar reports whether a shape is a horizontal task bar: an axis-aligned
// rect-like shape at least twice as wide as tall.
func isBar(p visual.Primitive) bool {
	b := p.BBox
	return b.H > 0 && b.W/b.H >= 2 && (p.Tag == "rect" || p.Tag == "path" || p.Tag == "polygon")
}
