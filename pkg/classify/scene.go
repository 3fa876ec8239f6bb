package classify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// scene is the shared pre-interpretation of a primitive list: closed shapes
// with detected archetypes, open paths, text runs, and named groups, each in
// discovery order. Grammar rules consume a scene instead of raw primitives.
type scene struct {
	shapes []*sceneShape
	texts  []*sceneText
	links  []*sceneLink
	groups []visual.Primitive
	tol    Tolerances

	ids map[string]int // slug -> use count, for unique ID assignment
}

type sceneShape struct {
	prim  visual.Primitive
	kind  semantic.ShapeKind
	label string
	id    string // assigned when the shape becomes a node
}

type sceneText struct {
	prim visual.Primitive
	used bool
}

type sceneLink struct {
	prim       visual.Primitive
	start, end geom.Point
	waypoints  []geom.Point
	label      string
}

// buildScene partitions primitives and runs the shared associations: shape
// archetype detection and shape label attachment. Edge resolution is left to
// [scene.resolveLinks] because grammars differ on what counts as a node.
func buildScene(prims []visual.Primitive, tol Tolerances) *scene {
	tol = tol.withDefaults()
	s := &scene{tol: tol, ids: make(map[string]int)}

	for _, p := range prims {
		switch p.Kind {
		case visual.KindShape:
			s.shapes = append(s.shapes, &sceneShape{prim: p, kind: DetectShape(p, tol)})
		case visual.KindText:
			s.texts = append(s.texts, &sceneText{prim: p})
		case visual.KindPath:
			s.links = append(s.links, newSceneLink(p))
		case visual.KindGroup:
			s.groups = append(s.groups, p)
		}
	}

	s.attachShapeLabels()
	return s
}

func newSceneLink(p visual.Primitive) *sceneLink {
	l := &sceneLink{prim: p}
	pts := endpointChain(p.Path)
	if len(pts) > 0 {
		l.start = pts[0]
		l.end = pts[len(pts)-1]
		if len(pts) > 2 {
			l.waypoints = pts[1 : len(pts)-1]
		}
	}
	return l
}

// endpointChain returns the on-path points of a path, skipping control points.
func endpointChain(segs []visual.Segment) []geom.Point {
	var out []geom.Point
	for _, seg := range segs {
		if seg.Op == visual.OpClose {
			continue
		}
		out = append(out, seg.End())
	}
	return out
}

// attachShapeLabels assigns each text to the smallest shape whose bounding
// box contains the text center. Multiple texts inside one shape join
// top-to-bottom, the way renderers emit wrapped labels.
func (s *scene) attachShapeLabels() {
	type hit struct {
		text *sceneText
		y, x float64
	}
	byShape := make(map[*sceneShape][]hit)

	for _, t := range s.texts {
		c := t.prim.BBox.Center()
		var best *sceneShape
		for _, sh := range s.shapes {
			if !sh.prim.BBox.Contains(c) {
				continue
			}
			if best == nil || sh.prim.BBox.Area() < best.prim.BBox.Area() {
				best = sh
			}
		}
		if best != nil {
			byShape[best] = append(byShape[best], hit{text: t, y: c.Y, x: c.X})
			t.used = true
		}
	}

	for sh, hits := range byShape {
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].y != hits[j].y {
				return hits[i].y < hits[j].y
			}
			return hits[i].x < hits[j].x
		})
		lines := make([]string, len(hits))
		for i, h := range hits {
			lines[i] = h.text.prim.RawText
		}
		sh.label = strings.Join(lines, "\n")
	}
}

// nodeID assigns a stable unique ID derived from the label, falling back to
// the given prefix for unlabeled shapes.
func (s *scene) nodeID(label, prefix string) string {
	slug := slugify(label)
	if slug == "" {
		slug = prefix
	}
	s.ids[slug]++
	if n := s.ids[slug]; n > 1 {
		return fmt.Sprintf("%s_%d", slug, n)
	}
	return slug
}

func slugify(label string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte('_')
				lastSep = true
			}
		}
		if b.Len() >= 24 {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}

// addShapeNodes adds every scene shape as a node in discovery order and
// returns them. Style attrs are carried over raw; the style mapper
// normalizes them later.
func (s *scene) addShapeNodes(g *semantic.Graph) ([]*semantic.Node, error) {
	var out []*semantic.Node
	for _, sh := range s.shapes {
		sh.id = s.nodeID(sh.label, "node")
		n := semantic.Node{
			ID:       sh.id,
			Role:     semantic.RoleNode,
			Label:    sh.label,
			Shape:    sh.kind,
			Geometry: sh.prim.BBox,
			Style:    rawStyle(sh.prim.Style),
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
		node, _ := g.Node(sh.id)
		out = append(out, node)
	}
	return out, nil
}

// rawStyle carries extractor style attrs into the semantic model unchanged.
// Validation and defaulting belong to the style mapper.
func rawStyle(a visual.StyleAttrs) semantic.StyleSpec {
	spec := semantic.StyleSpec{
		Fill:        a.Fill,
		Stroke:      a.Stroke,
		StrokeWidth: a.StrokeWidth,
		FontFamily:  a.FontFamily,
		FontSize:    a.FontSize,
	}
	switch dashKind(a.Dash) {
	case "dashed":
		spec.Dash = "dashed"
	case "dotted":
		spec.Dash = "dotted"
	}
	return spec
}

// dashKind interprets a stroke-dasharray value as dashed, dotted, or solid.
func dashKind(dash string) string {
	dash = strings.TrimSpace(dash)
	if dash == "" || dash == "none" {
		return ""
	}
	fields := strings.FieldsFunc(dash, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return ""
	}
	var first float64
	fmt.Sscanf(fields[0], "%g", &first)
	if first > 0 && first <= 2 {
		return "dotted"
	}
	return "dashed"
}

// resolveLinks turns open paths into edges between the given nodes. Each
// link endpoint attaches to the node whose boundary is nearest within the
// attach slack. Links that fail to attach on either end are returned for
// grammar-specific handling (axes, dividers, decorations).
func (s *scene) resolveLinks(g *semantic.Graph, nodes []*semantic.Node) (unattached []*sceneLink, err error) {
	for _, l := range s.links {
		src := nearestNode(nodes, l.start, s.tol.AttachSlack)
		dst := nearestNode(nodes, l.end, s.tol.AttachSlack)
		if src == nil || dst == nil {
			unattached = append(unattached, l)
			continue
		}
		if src.ID == dst.ID && !g.AllowSelfLoops {
			unattached = append(unattached, l)
			continue
		}
		e := semantic.Edge{
			SourceID:   src.ID,
			TargetID:   dst.ID,
			Label:      l.label,
			Waypoints:  l.waypoints,
			Style:      rawStyle(l.prim.Style),
			ArrowStart: l.prim.Style.MarkerStart,
			ArrowEnd:   l.prim.Style.MarkerEnd || !l.prim.Style.MarkerStart,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return unattached, nil
}

// attachEdgeLabels assigns leftover texts to the nearest link whose midpoint
// lies within the label radius. Must run before resolveLinks so labels land
// on the produced edges.
func (s *scene) attachEdgeLabels() {
	for _, t := range s.texts {
		if t.used {
			continue
		}
		c := t.prim.BBox.Center()
		var best *sceneLink
		bestDist := math.Inf(1)
		for _, l := range s.links {
			length := l.start.Dist(l.end)
			if length == 0 {
				continue
			}
			d := c.Dist(geom.Mid(l.start, l.end))
			if d <= length*s.tol.LabelRadiusFrac && d < bestDist {
				best = l
				bestDist = d
			}
		}
		if best != nil {
			if best.label != "" {
				best.label += " "
			}
			best.label += t.prim.RawText
			t.used = true
		}
	}
}

// addAnnotations preserves unused texts as annotation nodes so information
// is never silently dropped.
func (s *scene) addAnnotations(g *semantic.Graph) error {
	for _, t := range s.texts {
		if t.used {
			continue
		}
		id := s.nodeID(t.prim.RawText, "note")
		err := g.AddNode(semantic.Node{
			ID:       id,
			Role:     semantic.RoleAnnotation,
			Label:    t.prim.RawText,
			Shape:    semantic.ShapeText,
			Geometry: t.prim.BBox,
			Style:    rawStyle(t.prim.Style),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// nearestNode returns the node whose boundary is closest to p within slack,
// or nil. Points inside a node always attach to it.
func nearestNode(nodes []*semantic.Node, p geom.Point, slack float64) *semantic.Node {
	var best *semantic.Node
	bestDist := math.Inf(1)
	for _, n := range nodes {
		d := rectDist(n.Geometry, p)
		if d <= slack && d < bestDist {
			best = n
			bestDist = d
		}
	}
	return best
}

// rectDist is the distance from p to the rectangle, zero when inside.
func rectDist(r geom.Rect, p geom.Point) float64 {
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-r.MaxX())
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-r.MaxY())
	return math.Hypot(dx, dy)
}
