package classify

import (
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// TreeRules handles hierarchy grammars (mindmap, orgchart): labeled shapes
// connected by parent-child links. Some renderers of these grammars emit
// only a connection list with all shapes at the origin; the layout policy
// for these types therefore always allows the layered fallback.
type TreeRules struct {
	// Type is the grammar name, "mindmap" or "orgchart".
	Type string
}

// DiagramType implements [Rules].
func (r TreeRules) DiagramType() string { return r.Type }

// Classify implements [Rules].
func (r TreeRules) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)
	if len(s.shapes) == 0 {
		return nil, nil, classificationErr(r.Type, "no node shapes found")
	}

	// Mindmap bubbles render as blobs; keep ellipse/rounded detection, but
	// orgchart boxes are always rectangles.
	if r.Type == "orgchart" {
		for _, sh := range s.shapes {
			sh.kind = semantic.ShapeRectangle
		}
	}

	g := semantic.New(r.Type)
	nodes, err := s.addShapeNodes(g)
	if err != nil {
		return nil, nil, err
	}

	s.attachEdgeLabels()
	unattached, err := s.resolveLinks(g, nodes)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if n := len(unattached); n > 0 {
		warnings = append(warnings, warnUnattached(n))
	}
	if err := s.addAnnotations(g); err != nil {
		return nil, nil, err
	}
	return g, warnings, g.Validate()
}

var _ Rules = TreeRules{}
