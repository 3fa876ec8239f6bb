// Package styles normalizes raw visual styling into the target style
// grammar.
//
// Mapping starts from a per-diagram-type default table keyed by role and
// shape kind, overlays whatever valid attributes the extractor found on the
// primitive, and serializes the result as the semicolon-separated key=value
// style string the target editor understands. Mapping is pure: the same
// input always produces the same output.
package styles

import (
	"regexp"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/semantic"
)

// Defaults is the default stylesheet for one diagram type under one theme.
type Defaults struct {
	Node       semantic.StyleSpec
	Container  semantic.StyleSpec
	Annotation semantic.StyleSpec
	Edge       semantic.StyleSpec

	// PerShape overrides the node default for specific shape kinds.
	PerShape map[semantic.ShapeKind]semantic.StyleSpec
}

// forNode resolves the default spec for a node.
func (d Defaults) forNode(n *semantic.Node) semantic.StyleSpec {
	var base semantic.StyleSpec
	switch n.Role {
	case semantic.RoleContainer:
		base = d.Container
	case semantic.RoleAnnotation:
		base = d.Annotation
	default:
		base = d.Node
	}
	if override, ok := d.PerShape[n.Shape]; ok && n.Role == semantic.RoleNode {
		base = Overlay(base, override)
	}
	return base
}

// Overlay returns base with every set (valid) field of raw applied on top.
// Color fields are only taken when they parse as a recognized color value;
// invalid values keep the default. Pure function.
func Overlay(base, raw semantic.StyleSpec) semantic.StyleSpec {
	out := base
	if ValidColor(raw.Fill) {
		out.Fill = normalizeColor(raw.Fill)
	}
	if ValidColor(raw.Stroke) {
		out.Stroke = normalizeColor(raw.Stroke)
	}
	if raw.StrokeWidth > 0 {
		out.StrokeWidth = raw.StrokeWidth
	}
	if raw.Dash == "dashed" || raw.Dash == "dotted" {
		out.Dash = raw.Dash
	}
	if raw.FontFamily != "" {
		out.FontFamily = raw.FontFamily
	}
	if raw.FontSize > 0 {
		out.FontSize = raw.FontSize
	}
	if ValidColor(raw.FontColor) {
		out.FontColor = normalizeColor(raw.FontColor)
	}
	if raw.Rounding > 0 {
		out.Rounding = raw.Rounding
	}
	return out
}

// Apply resolves the final style of every node and edge in the graph:
// diagram-type defaults overlaid with the raw attributes classification
// carried over. Mutates the graph's style fields only.
func Apply(g *semantic.Graph, d Defaults) {
	for _, n := range g.Nodes() {
		n.Style = Overlay(d.forNode(n), n.Style)
	}
	for _, e := range g.Edges() {
		e.Style = Overlay(d.Edge, e.Style)
	}
}

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbColorRe = regexp.MustCompile(`^rgba?\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*(?:,\s*[\d.]+\s*)?\)$`)
)

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#FFFFFF",
	"red":     "#FF0000",
	"green":   "#008000",
	"blue":    "#0000FF",
	"yellow":  "#FFFF00",
	"orange":  "#FFA500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#C0C0C0",
	"none":    "none",
	"magenta": "#FF00FF",
	"cyan":    "#00FFFF",
}

// ValidColor reports whether v is a recognized color value: hex, rgb()/
// rgba(), or a known named color. Unrecognized values are dropped by
// [Overlay] rather than failing the conversion.
func ValidColor(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if hexColorRe.MatchString(v) || rgbColorRe.MatchString(v) {
		return true
	}
	_, ok := namedColors[strings.ToLower(v)]
	return ok
}

// normalizeColor canonicalizes a valid color: named colors become hex,
// 3-digit hex expands to 6, hex digits uppercase.
func normalizeColor(v string) string {
	v = strings.TrimSpace(v)
	if hex, ok := namedColors[strings.ToLower(v)]; ok {
		return hex
	}
	if hexColorRe.MatchString(v) {
		hex := strings.ToUpper(v[1:])
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		return "#" + hex
	}
	return v
}
