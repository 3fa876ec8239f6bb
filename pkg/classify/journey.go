package classify

import (
	"sort"

	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Journey handles the user-journey grammar: task boxes ordered along a
// horizontal axis with score faces above them and section bands behind
// them. Sections become containers, tasks nodes, faces annotations.
type Journey struct{}

// DiagramType implements [Rules].
func (Journey) DiagramType() string { return "userjourney" }

// Classify implements [Rules].
func (Journey) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)

	// Partition: circles are score faces, wide labeled rects spanning
	// several other shapes are section bands, the rest labeled are tasks.
	var tasks, faces, sections []*sceneShape
	for _, sh := range s.shapes {
		switch {
		case sh.kind == semantic.ShapeEllipse:
			faces = append(faces, sh)
		case sh.label != "" && countContained(s.shapes, sh) >= 2:
			sections = append(sections, sh)
		case sh.label != "":
			tasks = append(tasks, sh)
		}
	}
	if len(tasks) == 0 {
		return nil, nil, classificationErr("userjourney", "no task boxes found")
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].prim.BBox.X < tasks[j].prim.BBox.X
	})

	g := semantic.New("userjourney")
	for _, sh := range sections {
		sh.id = s.nodeID(sh.label, "section")
		err := g.AddNode(semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleContainer,
			Label:    sh.label,
			Shape:    semantic.ShapeRectangle,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		})
		if err != nil {
			return nil, nil, err
		}
	}
	for _, sh := range tasks {
		sh.id = s.nodeID(sh.label, "task")
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
		for _, sec := range sections {
			if sec.prim.BBox.ContainsRect(sh.prim.BBox) {
				if err := g.SetParent(sh.id, sec.id); err != nil {
					return nil, nil, err
				}
				break
			}
		}
	}
	for _, sh := range faces {
		id := s.nodeID(sh.label, "score")
		err := g.AddNode(semantic.Node{
			ID:       id,
			Role:     semantic.RoleAnnotation,
			Label:    sh.label,
			Shape:    semantic.ShapeEllipse,
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

// countContained returns how many other shapes sit entirely inside sh.
func countContained(shapes []*sceneShape, sh *sceneShape) int {
	n := 0
	for _, other := range shapes {
		if other != sh && sh.prim.BBox.ContainsRect(other.prim.BBox) {
			n++
		}
	}
	return n
}
