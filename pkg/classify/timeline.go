package classify

import (
	"sort"

	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Timeline handles the timeline grammar: event boxes ordered along a
// horizontal axis, grouped under period headers. Events become nodes in
// left-to-right order; the axis line and period headers are annotations.
// No edges, the horizontal order carries the sequence.
type Timeline struct{}

// DiagramType implements [Rules].
func (Timeline) DiagramType() string { return "timeline" }

// Classify implements [Rules].
func (Timeline) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	var events []*sceneShape
	var rest []*sceneShape
	for _, sh := range s.shapes {
		if sh.label != "" {
			events = append(events, sh)
		} else {
			rest = append(rest, sh)
		}
	}
	if len(events) == 0 {
		return nil, nil, classificationErr("timeline", "no labeled event boxes found")
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].prim.BBox, events[j].prim.BBox
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	g := semantic.New("timeline")
	for _, sh := range events {
		sh.id = s.nodeID(sh.label, "event")
		err := g.AddNode(semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleNode,
			Label:    sh.label,
			Shape:    semantic.ShapeRounded,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
	}

	for _, sh := range rest {
		id := s.nodeID("", "axis")
		err := g.AddNode(semantic.Node{
			ID:       id,
			Role:     semantic.RoleAnnotation,
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
