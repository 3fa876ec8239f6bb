package classify

import (
	"fmt"

	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Generic is the fallback grammar: every closed shape becomes a labeled
// rectangle node, open paths between shapes become edges, and everything
// else is preserved as annotations. Used directly for unknown-but-registered
// types and as the recovery path when a specific grammar fails.
type Generic struct{}

// DiagramType implements [Rules].
func (Generic) DiagramType() string { return "generic" }

// Classify implements [Rules].
func (Generic) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)
	if len(s.shapes) == 0 && len(s.texts) == 0 {
		return nil, nil, classificationErr("generic", "no drawable primitives")
	}

	// The generic grammar makes no shape distinctions.
	for _, sh := range s.shapes {
		sh.kind = semantic.ShapeRectangle
	}

	g := semantic.New("generic")
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

func warnUnattached(n int) string {
	if n == 1 {
		return "1 connector did not attach to any node and was dropped"
	}
	return fmt.Sprintf("%d connectors did not attach to any node and were dropped", n)
}
