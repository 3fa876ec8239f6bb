package classify

import (
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Kanban handles the kanban grammar: column rects containing card rects.
// Columns become containers, cards nested nodes. No edges.
type Kanban struct{}

// DiagramType implements [Rules].
func (Kanban) DiagramType() string { return "kanban" }

// Classify implements [Rules].
func (Kanban) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	// A column is a shape that spatially contains at least one other shape.
	// Everything contained is a card.
	type column struct {
		shape *sceneShape
		cards []*sceneShape
	}
	var columns []*column
	owner := make(map[*sceneShape]*column)
	for _, outer := range s.shapes {
		var cards []*sceneShape
		for _, inner := range s.shapes {
			if inner == outer {
				continue
			}
			if outer.prim.BBox.ContainsRect(inner.prim.BBox) {
				cards = append(cards, inner)
			}
		}
		if len(cards) > 0 {
			col := &column{shape: outer, cards: cards}
			columns = append(columns, col)
			for _, c := range cards {
				// The smallest enclosing column wins.
				if prev, ok := owner[c]; !ok || col.shape.prim.BBox.Area() < prev.shape.prim.BBox.Area() {
					owner[c] = col
				}
			}
		}
	}
	if len(columns) == 0 {
		return nil, nil, classificationErr("kanban", "no columns with cards found")
	}

	g := semantic.New("kanban")
	colIDs := make(map[*column]string)
	isColumn := make(map[*sceneShape]bool)
	for _, col := range columns {
		isColumn[col.shape] = true
	}
	for _, col := range columns {
		col.shape.id = s.nodeID(col.shape.label, "column")
		colIDs[col] = col.shape.id
		err := g.AddNode(semantic.Node{
			ID:       col.shape.id,
			Role:     semantic.RoleContainer,
			Label:    col.shape.label,
			Shape:    semantic.ShapeRectangle,
			Geometry: col.shape.prim.BBox,
			Style:    rawStyle(col.shape.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
	}
	// Nested boards: a column contained by a larger column nests under it.
	for _, col := range columns {
		if parent, ok := owner[col.shape]; ok {
			if err := g.SetParent(colIDs[col], colIDs[parent]); err != nil {
				return nil, nil, err
			}
		}
	}

	for _, sh := range s.shapes {
		if isColumn[sh] {
			continue
		}
		sh.id = s.nodeID(sh.label, "card")
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
		if col, ok := owner[sh]; ok {
			if err := g.SetParent(sh.id, colIDs[col]); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := s.addAnnotations(g); err != nil {
		return nil, nil, err
	}
	return g, nil, g.Validate()
}
