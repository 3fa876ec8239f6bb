package semantic

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures debug DOT export.
type DOTOptions struct {
	// Detailed includes role, shape, and geometry in node labels.
	// When false, only the label (or ID) is shown.
	Detailed bool
}

// ToDOT converts a semantic graph to Graphviz DOT for debug visualization.
// The output shows what the classifier recovered, not the final document:
// containers become clusters, annotations render dashed.
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if n.Role == RoleContainer {
			writeCluster(&buf, g, n, opts, 1)
		}
	}
	for _, n := range g.Nodes() {
		if n.Role != RoleContainer && n.ParentID == "" {
			writeNode(&buf, n, opts, 1)
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := []string{}
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		if !e.ArrowEnd {
			attrs = append(attrs, "arrowhead=none")
		}
		if e.ArrowStart {
			attrs = append(attrs, "dir=both")
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.SourceID, e.TargetID, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.SourceID, e.TargetID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCluster(buf *bytes.Buffer, g *Graph, c *Node, opts DOTOptions, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", indent, c.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, fmtDOTLabel(c, opts.Detailed))
	fmt.Fprintf(buf, "%s  style=dashed;\n", indent)
	for _, child := range g.Children(c.ID) {
		if child.Role == RoleContainer {
			writeCluster(buf, g, child, opts, depth+1)
		} else {
			writeNode(buf, child, opts, depth+1)
		}
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func writeNode(buf *bytes.Buffer, n *Node, opts DOTOptions, depth int) {
	indent := strings.Repeat("  ", depth)
	attrs := []string{fmt.Sprintf("label=%q", fmtDOTLabel(n, opts.Detailed))}
	switch n.Shape {
	case ShapeDiamond:
		attrs = append(attrs, "shape=diamond")
	case ShapeEllipse:
		attrs = append(attrs, "shape=ellipse")
	case ShapeParallelogram:
		attrs = append(attrs, "shape=parallelogram")
	case ShapeHexagon:
		attrs = append(attrs, "shape=hexagon")
	case ShapeCylinder:
		attrs = append(attrs, "shape=cylinder")
	}
	if n.Role == RoleAnnotation {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
}

func fmtDOTLabel(n *Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	parts := []string{
		fmt.Sprintf("role: %s", n.Role),
		fmt.Sprintf("shape: %s", n.Shape),
		fmt.Sprintf("geom: %.0f,%.0f %.0fx%.0f", n.Geometry.X, n.Geometry.Y, n.Geometry.W, n.Geometry.H),
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz. Used by the debug
// command to visualize the intermediate semantic model.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
