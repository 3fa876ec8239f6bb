package mxdoc

import (
	"strconv"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/styles"
)

// Builder assembles a positioned, styled semantic graph into a [Document].
type Builder struct {
	// Margin grows the page beyond the content bounding box.
	Margin float64
	// GridSize is the page grid spacing.
	GridSize float64
	// PageName labels the single emitted page.
	PageName string
	// DiagramID identifies the diagram element; derived from the graph's
	// diagram type when empty.
	DiagramID string
}

// Build produces the document. The graph must have passed the coordinate
// mapper: all geometry in canvas units, containers enclosing children.
// Containers are emitted before their children so every parent reference
// resolves to an already-emitted cell.
func (b Builder) Build(g *semantic.Graph) (*Document, error) {
	if err := g.Validate(); err != nil {
		return nil, dberrors.Wrap(dberrors.ErrCodeBuild, err, "graph failed validation").WithStage("build")
	}

	pageName := b.PageName
	if pageName == "" {
		pageName = "Page-1"
	}
	diagramID := b.DiagramID
	if diagramID == "" {
		diagramID = "drawbridge-" + g.DiagramType
	}

	doc := &Document{
		Host: "drawbridge",
		// Plain XML so draw.io opens the file without inflating.
		Compressed: "false",
		Diagram: Diagram{
			ID:   diagramID,
			Name: pageName,
			Model: Model{
				Grid:     1,
				GridSize: b.GridSize,
			},
		},
	}

	cells := []Cell{
		{ID: "0"},
		{ID: "1", Parent: "0"},
	}

	next := 2
	newID := func() string {
		id := strconv.Itoa(next)
		next++
		return id
	}

	cellID := make(map[string]string, g.NodeCount())
	origin := make(map[string]geom.Point, g.NodeCount())
	origin[""] = geom.Point{}

	// Containment top-down: parents get their cell before any child
	// references it.
	var emit func(parentID string)
	emit = func(parentID string) {
		for _, n := range g.Children(parentID) {
			id := newID()
			cellID[n.ID] = id

			parentCell := "1"
			if parentID != "" {
				parentCell = cellID[parentID]
			}
			cells = append(cells, Cell{
				ID:       id,
				Value:    n.Label,
				Style:    styles.NodeStyle(n),
				Vertex:   "1",
				Parent:   parentCell,
				Geometry: vertexGeometry(n.Geometry, origin[parentID]),
			})
			origin[n.ID] = geom.Point{X: n.Geometry.X, Y: n.Geometry.Y}

			if n.Role == semantic.RoleContainer {
				emit(n.ID)
			}
		}
	}
	emit("")

	for _, e := range g.Edges() {
		src, okS := cellID[e.SourceID]
		dst, okT := cellID[e.TargetID]
		if !okS || !okT {
			return nil, dberrors.New(dberrors.ErrCodeBuild,
				"edge %s references unemitted node", e.ID).WithStage("build")
		}
		// Only layout-derived waypoints are written out; rendered paths get
		// free routing so the editor can re-route them cleanly.
		var waypoints []geom.Point
		if e.FromLayout {
			waypoints = e.Waypoints
		}
		cells = append(cells, Cell{
			ID:       newID(),
			Value:    e.Label,
			Style:    styles.EdgeStyle(e),
			Edge:     "1",
			Parent:   "1",
			Source:   src,
			Target:   dst,
			Geometry: edgeGeometry(waypoints),
		})
	}

	doc.Diagram.Model.Root.Cells = cells

	bounds := g.BBox()
	doc.Diagram.Model.PageWidth = bounds.MaxX() + b.Margin
	doc.Diagram.Model.PageHeight = bounds.MaxY() + b.Margin
	return doc, nil
}
