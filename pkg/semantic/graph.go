// Package semantic holds the reconstructed diagram model.
//
// A Graph is the output of classification: nodes (including containers and
// annotations) and edges with diagram meaning, still carrying whatever
// geometry the extractor saw. The coordinate mapper and layout engine refine
// geometry in place; the document builder consumes the finished graph. A
// Graph is owned by exactly one conversion run and is not safe for
// concurrent use.
package semantic

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/drawbridge/pkg/geom"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Graph.AddEdge] for a self-referencing edge
	// when the graph's diagram grammar does not permit them.
	ErrSelfLoop = errors.New("self-loops not permitted for this diagram type")

	// ErrUnknownParent is returned by [Graph.SetParent] when the parent ID
	// does not exist.
	ErrUnknownParent = errors.New("unknown parent node")

	// ErrNotAContainer is returned by [Graph.SetParent] when the parent is
	// not a container node.
	ErrNotAContainer = errors.New("parent is not a container")

	// ErrContainmentCycle is returned by [Graph.SetParent] when the
	// assignment would make containment cyclic. Containment forms a tree.
	ErrContainmentCycle = errors.New("containment must form a tree")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrMissingGeometry is returned by [Graph.ValidatePositioned] when a
	// node has no geometry after the coordinate-mapping stage.
	ErrMissingGeometry = errors.New("node has no geometry")

	// ErrContainmentGeometry is returned by [Graph.ValidatePositioned] when
	// a container's geometry does not enclose one of its children.
	ErrContainmentGeometry = errors.New("container does not enclose child")
)

// Role classifies what a node means in the diagram.
type Role int

const (
	// RoleNode is an ordinary diagram node.
	RoleNode Role = iota
	// RoleContainer groups other nodes (lifeline, kanban column, subgraph).
	RoleContainer
	// RoleAnnotation is decorative or explanatory content (legend entries,
	// titles, unrecognized primitives preserved rather than dropped).
	RoleAnnotation
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleNode:
		return "node"
	case RoleContainer:
		return "container"
	case RoleAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// ShapeKind is the geometric archetype recovered for a node.
type ShapeKind string

// Shape kinds produced by the classifiers.
const (
	ShapeRectangle     ShapeKind = "rectangle"
	ShapeRounded       ShapeKind = "rounded"
	ShapeDiamond       ShapeKind = "diamond"
	ShapeEllipse       ShapeKind = "ellipse"
	ShapeParallelogram ShapeKind = "parallelogram"
	ShapeHexagon       ShapeKind = "hexagon"
	ShapeCylinder      ShapeKind = "cylinder"
	ShapeWedge         ShapeKind = "wedge"
	ShapeBar           ShapeKind = "bar"
	ShapeActor         ShapeKind = "actor"
	ShapeText          ShapeKind = "text"
)

// StyleSpec is the normalized visual styling of a node or edge, independent
// of both the renderer's attribute syntax and the target style grammar.
// The zero value means "all defaults".
type StyleSpec struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Dash        string  `json:"dash,omitempty"` // "dashed", "dotted", or ""
	FontFamily  string  `json:"font_family,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	FontColor   string  `json:"font_color,omitempty"`
	Rounding    float64 `json:"rounding,omitempty"` // corner rounding fraction 0..1
}

// Node is one semantic diagram node.
type Node struct {
	ID       string
	Role     Role
	Label    string
	Shape    ShapeKind
	Geometry geom.Rect
	Style    StyleSpec

	// ParentID references the enclosing container, empty for top-level
	// nodes. Maintained via [Graph.SetParent].
	ParentID string
}

// Edge is one directed semantic edge.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Label    string

	// Waypoints are intermediate routing points in the same unit space as
	// node geometry. Empty means free routing.
	Waypoints []geom.Point

	// FromLayout marks waypoints computed by the fallback layout engine, as
	// opposed to recovered from a rendered path. Only layout-derived
	// waypoints are written into the target document.
	FromLayout bool

	Style      StyleSpec
	ArrowStart bool
	ArrowEnd   bool
}

// Graph is the aggregate semantic model for one conversion.
//
// Node and edge iteration order is insertion (discovery) order, which the
// fallback layout depends on for reproducible output.
type Graph struct {
	// DiagramType is the grammar this graph was classified under.
	DiagramType string

	// AllowSelfLoops is set by grammars that permit them (sequence
	// self-messages). AddEdge rejects self-loops otherwise.
	AllowSelfLoops bool

	nodes map[string]*Node
	order []string
	edges []*Edge
	out   map[string][]string // sourceID -> target IDs
	in    map[string][]string // targetID -> source IDs
}

// New creates an empty graph for the given diagram type.
func New(diagramType string) *Graph {
	return &Graph{
		DiagramType: diagramType,
		nodes:       make(map[string]*Node),
		out:         make(map[string][]string),
		in:          make(map[string][]string),
	}
}

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID or
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Self-loops are rejected unless AllowSelfLoops is set.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.SourceID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.SourceID)
	}
	if _, ok := g.nodes[e.TargetID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.TargetID)
	}
	if e.SourceID == e.TargetID && !g.AllowSelfLoops {
		return fmt.Errorf("%w: %s", ErrSelfLoop, e.SourceID)
	}
	edge := &e
	if edge.ID == "" {
		edge.ID = fmt.Sprintf("e%d", len(g.edges))
	}
	g.edges = append(g.edges, edge)
	g.out[e.SourceID] = append(g.out[e.SourceID], e.TargetID)
	g.in[e.TargetID] = append(g.in[e.TargetID], e.SourceID)
	return nil
}

// SetParent assigns node id to container parentID, or detaches it when
// parentID is empty. The parent must exist, be a container, and the
// assignment must keep containment acyclic.
func (g *Graph) SetParent(id, parentID string) error {
	node, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, id)
	}
	if parentID == "" {
		node.ParentID = ""
		return nil
	}
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parentID)
	}
	if parent.Role != RoleContainer {
		return fmt.Errorf("%w: %s", ErrNotAContainer, parentID)
	}
	// Walking up from the parent must not reach the node.
	for cur := parent; cur != nil; {
		if cur.ID == id {
			return fmt.Errorf("%w: %s", ErrContainmentCycle, id)
		}
		if cur.ParentID == "" {
			break
		}
		cur = g.nodes[cur.ParentID]
	}
	node.ParentID = parentID
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The pointer refers to the stored node; geometry and style mutations are
// how later pipeline stages refine the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Successors returns the IDs this node has edges to.
// The returned slice is a read-only view.
func (g *Graph) Successors(id string) []string { return g.out[id] }

// Predecessors returns the IDs that have edges to this node.
// The returned slice is a read-only view.
func (g *Graph) Predecessors(id string) []string { return g.in[id] }

// Children returns the nodes directly contained by the given container,
// in insertion order.
func (g *Graph) Children(containerID string) []*Node {
	var out []*Node
	for _, id := range g.order {
		if g.nodes[id].ParentID == containerID {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// Descendants returns every node transitively contained by the container,
// in insertion order.
func (g *Graph) Descendants(containerID string) []*Node {
	var out []*Node
	for _, id := range g.order {
		for cur := g.nodes[id]; cur.ParentID != ""; {
			if cur.ParentID == containerID {
				out = append(out, g.nodes[id])
				break
			}
			cur = g.nodes[cur.ParentID]
		}
	}
	return out
}

// Roots returns nodes with no incoming edges, in insertion order.
// Annotations and containers are skipped; they do not participate in the
// edge relation.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Role == RoleNode && len(g.in[id]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks referential integrity: every edge endpoint resolves to an
// existing node. Returns ErrInvalidEdgeEndpoint on corruption.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.SourceID]; !ok {
			return fmt.Errorf("%w: edge %s source %s", ErrInvalidEdgeEndpoint, e.ID, e.SourceID)
		}
		if _, ok := g.nodes[e.TargetID]; !ok {
			return fmt.Errorf("%w: edge %s target %s", ErrInvalidEdgeEndpoint, e.ID, e.TargetID)
		}
	}
	return nil
}

// ValidatePositioned checks the invariants that hold after the coordinate
// mapper has run: every node has geometry, and every container encloses all
// of its descendants.
func (g *Graph) ValidatePositioned() error {
	if err := g.Validate(); err != nil {
		return err
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Geometry.Empty() {
			return fmt.Errorf("%w: %s", ErrMissingGeometry, id)
		}
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if n.Role != RoleContainer {
			continue
		}
		for _, child := range g.Descendants(id) {
			if !n.Geometry.ContainsRect(child.Geometry) {
				return fmt.Errorf("%w: %s does not enclose %s", ErrContainmentGeometry, id, child.ID)
			}
		}
	}
	return nil
}

// BBox returns the union of all node geometry.
func (g *Graph) BBox() geom.Rect {
	var boxes []geom.Rect
	for _, id := range g.order {
		boxes = append(boxes, g.nodes[id].Geometry)
	}
	return geom.Union(boxes)
}
