package styles

import (
	"fmt"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/semantic"
)

// shapeStyles maps shape kinds to their target-grammar base style entries.
var shapeStyles = map[semantic.ShapeKind][]string{
	semantic.ShapeRectangle:     {"rounded=0"},
	semantic.ShapeRounded:       {"rounded=1"},
	semantic.ShapeDiamond:       {"rhombus"},
	semantic.ShapeEllipse:       {"ellipse"},
	semantic.ShapeParallelogram: {"shape=parallelogram"},
	semantic.ShapeHexagon:       {"shape=hexagon"},
	semantic.ShapeCylinder:      {"shape=cylinder3", "boundedLbl=1", "backgroundOutline=1"},
	semantic.ShapeWedge:         {"shape=mxgraph.basic.pie"},
	semantic.ShapeBar:           {"rounded=1", "arcSize=50"},
	semantic.ShapeActor:         {"shape=umlActor", "verticalLabelPosition=bottom"},
	semantic.ShapeText:          {"text"},
}

// NodeStyle serializes a node's resolved style as the target grammar's
// semicolon-separated key=value string.
func NodeStyle(n *semantic.Node) string {
	var parts []string

	switch {
	case n.Role == semantic.RoleContainer:
		parts = append(parts, "swimlane", "startSize=24")
	case n.Shape == semantic.ShapeText || n.Role == semantic.RoleAnnotation && n.Label != "":
		parts = append(parts, "text")
	default:
		if base, ok := shapeStyles[n.Shape]; ok {
			parts = append(parts, base...)
		} else {
			parts = append(parts, "rounded=0")
		}
	}
	parts = append(parts, "whiteSpace=wrap", "html=1")
	parts = append(parts, specPairs(n.Style)...)
	return strings.Join(parts, ";") + ";"
}

// EdgeStyle serializes an edge's resolved style.
func EdgeStyle(e *semantic.Edge) string {
	parts := []string{"edgeStyle=orthogonalEdgeStyle", "rounded=0", "html=1"}
	if e.ArrowEnd {
		parts = append(parts, "endArrow=block")
	} else {
		parts = append(parts, "endArrow=none")
	}
	if e.ArrowStart {
		parts = append(parts, "startArrow=block", "startFill=1")
	}
	parts = append(parts, specPairs(e.Style)...)
	return strings.Join(parts, ";") + ";"
}

// specPairs emits the key=value entries for the set fields of a spec, in a
// fixed order so serialization is deterministic.
func specPairs(s semantic.StyleSpec) []string {
	var parts []string
	if s.Fill != "" {
		parts = append(parts, "fillColor="+s.Fill)
	}
	if s.Stroke != "" {
		parts = append(parts, "strokeColor="+s.Stroke)
	}
	if s.StrokeWidth > 0 && s.StrokeWidth != 1 {
		parts = append(parts, fmt.Sprintf("strokeWidth=%s", trimFloat(s.StrokeWidth)))
	}
	switch s.Dash {
	case "dashed":
		parts = append(parts, "dashed=1")
	case "dotted":
		parts = append(parts, "dashed=1", "dashPattern=1 2")
	}
	if s.FontFamily != "" {
		parts = append(parts, "fontFamily="+s.FontFamily)
	}
	if s.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("fontSize=%s", trimFloat(s.FontSize)))
	}
	if s.FontColor != "" {
		parts = append(parts, "fontColor="+s.FontColor)
	}
	if s.Rounding > 0 {
		parts = append(parts, fmt.Sprintf("arcSize=%s", trimFloat(s.Rounding*100)))
	}
	return parts
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
