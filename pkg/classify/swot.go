package classify

import (
	"strings"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// SWOT handles the quadrant grammar: four labeled quadrant rects with item
// texts inside them. Quadrants become containers, items nested nodes.
type SWOT struct{}

// DiagramType implements [Rules].
func (SWOT) DiagramType() string { return "swot" }

// Classify implements [Rules].
func (SWOT) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	// Quadrants are the four (or so) largest shapes. Smaller shapes inside
	// a quadrant are items.
	var quadrants []*sceneShape
	for _, sh := range s.shapes {
		if countContained(s.shapes, sh) > 0 || len(s.shapes) <= 4 {
			quadrants = append(quadrants, sh)
		}
	}
	if len(quadrants) == 0 {
		return nil, nil, classificationErr("swot", "no quadrants found")
	}

	isQuadrant := make(map[*sceneShape]bool, len(quadrants))
	for _, q := range quadrants {
		isQuadrant[q] = true
	}

	g := semantic.New("swot")
	for _, sh := range quadrants {
		// The quadrant title is the first attached text line; the rest are
		// bare-text items that label attachment folded in, split back out.
		lines := strings.Split(sh.label, "\n")
		sh.id = s.nodeID(lines[0], "quadrant")
		err := g.AddNode(semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleContainer,
			Label:    lines[0],
			Shape:    semantic.ShapeRectangle,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
		inner := sh.prim.BBox.Inset(8)
		rowH := inner.H / float64(len(lines))
		for i, line := range lines[1:] {
			id := s.nodeID(line, "item")
			err := g.AddNode(semantic.Node{
				ID:    id,
				Role:  semantic.RoleNode,
				Label: line,
				Shape: semantic.ShapeText,
				Geometry: geom.Rect{
					X: inner.X, Y: inner.Y + rowH*float64(i+1),
					W: inner.W, H: rowH,
				},
			})
			if err != nil {
				return nil, nil, err
			}
			if err := g.SetParent(id, sh.id); err != nil {
				return nil, nil, err
			}
		}
	}

	// Item shapes nested in a quadrant.
	for _, sh := range s.shapes {
		if isQuadrant[sh] {
			continue
		}
		sh.id = s.nodeID(sh.label, "item")
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
		for _, q := range quadrants {
			if q.prim.BBox.ContainsRect(sh.prim.BBox) {
				if err := g.SetParent(sh.id, q.id); err != nil {
					return nil, nil, err
				}
				break
			}
		}
	}

	// Renderers that emit items as bare text: nest remaining texts into
	// their quadrant as item nodes rather than free annotations.
	for _, t := range s.texts {
		if t.used {
			continue
		}
		for _, q := range quadrants {
			if !q.prim.BBox.Contains(t.prim.BBox.Center()) {
				continue
			}
			t.used = true
			id := s.nodeID(t.prim.RawText, "item")
			err := g.AddNode(semantic.Node{
				ID:       id,
				Role:     semantic.RoleNode,
				Label:    t.prim.RawText,
				Shape:    semantic.ShapeText,
				Geometry: t.prim.BBox,
				Style:    rawStyle(t.prim.Style),
			})
			if err != nil {
				return nil, nil, err
			}
			if err := g.SetParent(id, q.id); err != nil {
				return nil, nil, err
			}
			break
		}
	}

	if err := s.addAnnotations(g); err != nil {
		return nil, nil, err
	}
	return g, nil, g.Validate()
}
