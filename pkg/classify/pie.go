package classify

import (
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Pie handles the pie grammar: wedge paths around a shared center are the
// data slices, the legend swatches and labels are annotations. No edges.
type Pie struct{}

// DiagramType implements [Rules].
func (Pie) DiagramType() string { return "pie" }

// Classify implements [Rules].
func (Pie) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	var wedges []*sceneShape
	var rest []*sceneShape
	for _, sh := range s.shapes {
		if isWedge(sh.prim) {
			sh.kind = semantic.ShapeWedge
			wedges = append(wedges, sh)
		} else {
			rest = append(rest, sh)
		}
	}
	if len(wedges) == 0 {
		return nil, nil, classificationErr("pie", "no wedge paths found")
	}

	g := semantic.New("pie")
	for _, sh := range wedges {
		sh.id = s.nodeID(sh.label, "slice")
		err := g.AddNode(semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleNode,
			Label:    sh.label,
			Shape:    semantic.ShapeWedge,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
	}

	// Legend swatches and any other closed shapes are annotations.
	for _, sh := range rest {
		id := s.nodeID(sh.label, "legend")
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

// isWedge reports whether a closed path is a pie slice: it mixes straight
// radii with curved rim segments, or is a full-circle single slice.
func isWedge(p visual.Primitive) bool {
	if p.Tag == "circle" {
		return true // a 100% pie renders as a plain circle
	}
	if p.Tag != "path" || !p.Closed() {
		return false
	}
	curves, lines := segmentMix(p.Path)
	return curves > 0 && lines >= 1
}
