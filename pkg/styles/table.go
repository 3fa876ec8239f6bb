package styles

import "github.com/matzehuels/drawbridge/pkg/semantic"

// Theme names accepted in configuration.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeNeutral = "neutral"
)

// themeBase is the style every role default inherits from, per theme.
var themeBase = map[string]semantic.StyleSpec{
	ThemeDefault: {
		Fill: "#ECECFF", Stroke: "#9370DB", StrokeWidth: 1,
		FontFamily: "Helvetica", FontSize: 12, FontColor: "#333333",
	},
	ThemeDark: {
		Fill: "#1F2020", Stroke: "#81B1DB", StrokeWidth: 1,
		FontFamily: "Helvetica", FontSize: 12, FontColor: "#E0E0E0",
	},
	ThemeNeutral: {
		Fill: "#EEEEEE", Stroke: "#999999", StrokeWidth: 1,
		FontFamily: "Helvetica", FontSize: 12, FontColor: "#333333",
	},
}

// accent colors per theme, used for shape-specific fills.
var themeAccent = map[string]string{
	ThemeDefault: "#FFF5AD",
	ThemeDark:    "#2B3A42",
	ThemeNeutral: "#DDDDDD",
}

// DefaultsFor returns the default stylesheet for the diagram type under the
// given theme. Unknown themes fall back to the default theme; unknown
// diagram types get the flowchart table, which is also what the generic
// grammar uses.
func DefaultsFor(diagramType, theme string) Defaults {
	base, ok := themeBase[theme]
	if !ok {
		base = themeBase[ThemeDefault]
		theme = ThemeDefault
	}
	accent := themeAccent[theme]

	d := Defaults{
		Node: base,
		Container: Overlay(base, semantic.StyleSpec{
			Fill: "none",
		}),
		Annotation: Overlay(base, semantic.StyleSpec{
			Fill: "none", Stroke: "none",
		}),
		Edge: semantic.StyleSpec{
			Stroke: base.Stroke, StrokeWidth: 1,
			FontFamily: base.FontFamily, FontSize: base.FontSize - 2,
			FontColor: base.FontColor,
		},
		PerShape: map[semantic.ShapeKind]semantic.StyleSpec{
			semantic.ShapeDiamond: {Fill: accent},
			semantic.ShapeRounded: {Rounding: 0.15},
		},
	}

	switch diagramType {
	case "sequence":
		d.Container = Overlay(base, semantic.StyleSpec{Fill: accent})
		d.Edge.Dash = ""
	case "gantt", "timeline":
		d.PerShape[semantic.ShapeBar] = semantic.StyleSpec{Fill: base.Stroke, FontColor: "#FFFFFF"}
	case "pie":
		d.Node.StrokeWidth = 2
	case "kanban", "swot", "userjourney":
		d.Container = Overlay(base, semantic.StyleSpec{Fill: accent})
	case "mindmap":
		d.PerShape[semantic.ShapeEllipse] = semantic.StyleSpec{Fill: accent}
		d.PerShape[semantic.ShapeRounded] = semantic.StyleSpec{Rounding: 0.5}
	}
	return d
}
