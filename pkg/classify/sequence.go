package classify

import (
	"math"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Sequence handles the sequence grammar: labeled participant boxes with
// vertical lifelines, horizontal message arrows between them, and activation
// bars. Participants become containers spanning their lifeline; messages
// become edges between participants. Self-messages are permitted.
type Sequence struct{}

// DiagramType implements [Rules].
func (Sequence) DiagramType() string { return "sequence" }

// Classify implements [Rules].
func (Sequence) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	g := semantic.New("sequence")
	g.AllowSelfLoops = true

	// Labeled boxes are participants. Renderers draw the header box twice
	// (top and bottom); keep the first occurrence per label.
	seen := make(map[string]*semantic.Node)
	var participants []*semantic.Node
	for _, sh := range s.shapes {
		if sh.label == "" {
			continue
		}
		if p, ok := seen[sh.label]; ok {
			p.Geometry = p.Geometry.Union(sh.prim.BBox)
			continue
		}
		sh.id = s.nodeID(sh.label, "participant")
		n := semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleContainer,
			Label:    sh.label,
			Shape:    semantic.ShapeRectangle,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		}
		if err := g.AddNode(n); err != nil {
			return nil, nil, err
		}
		node, _ := g.Node(sh.id)
		seen[sh.label] = node
		participants = append(participants, node)
	}
	if len(participants) == 0 {
		return nil, nil, classificationErr("sequence", "no participants found")
	}

	s.attachEdgeLabels()

	var warnings []string
	for _, l := range s.links {
		if isVerticalLink(l) {
			// Lifeline: stretch its participant's container down its span.
			if p := nearestByX(participants, l.start.X); p != nil {
				p.Geometry = p.Geometry.Union(geom.RectFrom(l.start, l.end).Inset(-1))
			}
			continue
		}
		src := nearestByX(participants, l.start.X)
		dst := nearestByX(participants, l.end.X)
		if src == nil || dst == nil {
			warnings = append(warnings, "message did not land on a participant")
			continue
		}
		e := semantic.Edge{
			SourceID:   src.ID,
			TargetID:   dst.ID,
			Label:      l.label,
			Style:      rawStyle(l.prim.Style),
			ArrowStart: l.prim.Style.MarkerStart,
			ArrowEnd:   true,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, nil, err
		}
	}

	// Activation bars and other unlabeled shapes carry no message content;
	// keep them as annotations.
	for _, sh := range s.shapes {
		if sh.label != "" {
			continue
		}
		id := s.nodeID("", "activation")
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
	return g, warnings, g.Validate()
}

// isVerticalLink reports whether the link runs predominantly downward.
func isVerticalLink(l *sceneLink) bool {
	return math.Abs(l.end.Y-l.start.Y) > math.Abs(l.end.X-l.start.X)
}

// nearestByX returns the participant whose horizontal center is closest to x.
func nearestByX(participants []*semantic.Node, x float64) *semantic.Node {
	var best *semantic.Node
	bestDist := math.Inf(1)
	for _, p := range participants {
		d := math.Abs(p.Geometry.Center().X - x)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best
}
