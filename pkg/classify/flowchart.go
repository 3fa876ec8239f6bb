package classify

import (
	"strings"

	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Flowchart handles the flow grammar: shaped nodes connected by arrows, with
// optional subgraph clusters. The richest grammar in shape vocabulary, so
// the detected archetypes are kept as-is.
type Flowchart struct{}

// DiagramType implements [Rules].
func (Flowchart) DiagramType() string { return "flowchart" }

// Classify implements [Rules].
func (Flowchart) Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error) {
	s := buildScene(prims, tol)
	if len(s.shapes) == 0 {
		return nil, nil, classificationErr("flowchart", "no node shapes found")
	}

	g := semantic.New("flowchart")
	nodes, err := s.addShapeNodes(g)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if w, err := addGroupContainers(g, s, nodes); err != nil {
		return nil, nil, err
	} else {
		warnings = append(warnings, w...)
	}

	s.attachEdgeLabels()
	unattached, err := s.resolveLinks(g, nodes)
	if err != nil {
		return nil, nil, err
	}
	if n := len(unattached); n > 0 {
		warnings = append(warnings, warnUnattached(n))
	}

	if err := s.addAnnotations(g); err != nil {
		return nil, nil, err
	}
	return g, warnings, g.Validate()
}

// addGroupContainers turns named renderer groups holding two or more nodes
// into containers (flowchart subgraphs). Geometry is the group's bbox; the
// coordinate mapper recomputes it from children later.
func addGroupContainers(g *semantic.Graph, s *scene, nodes []*semantic.Node) ([]string, error) {
	var warnings []string
	for _, grp := range s.groups {
		name := groupName(grp)
		if name == "" || isRendererGroup(name) {
			continue
		}
		var members []*semantic.Node
		for i, sh := range s.shapes {
			if sh.prim.InGroup(name) {
				members = append(members, nodes[i])
			}
		}
		if len(members) < 2 {
			continue
		}
		id := s.nodeID(name, "group")
		err := g.AddNode(semantic.Node{
			ID:       id,
			Role:     semantic.RoleContainer,
			Label:    containerLabel(name),
			Shape:    semantic.ShapeRectangle,
			Geometry: grp.BBox,
		})
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.ParentID != "" {
				continue // already claimed by an inner group
			}
			if err := g.SetParent(m.ID, id); err != nil {
				warnings = append(warnings, "could not nest "+m.ID+" under "+id)
			}
		}
	}
	return warnings, nil
}

// groupName returns the last component of the group path, the group's own
// name.
func groupName(p visual.Primitive) string {
	if len(p.GroupPath) == 0 {
		return ""
	}
	return p.GroupPath[len(p.GroupPath)-1]
}

// isRendererGroup filters structural group names renderers emit around
// every diagram, which carry no container meaning.
func isRendererGroup(name string) bool {
	switch strings.ToLower(name) {
	case "nodes", "edges", "edgepaths", "edgelabels", "labels", "root", "output", "graph":
		return true
	}
	return false
}

func containerLabel(name string) string {
	// Renderer group ids look like "subgraph-title-0"; strip the trailing
	// index and mechanical prefixes for a readable label.
	name = strings.TrimPrefix(name, "subgraph-")
	name = strings.TrimPrefix(name, "cluster-")
	if i := strings.LastIndexByte(name, '-'); i > 0 {
		suffix := name[i+1:]
		allDigits := suffix != ""
		for _, r := range suffix {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			name = name[:i]
		}
	}
	return strings.ReplaceAll(name, "-", " ")
}
