package visual

import (
	"regexp"
	"strconv"
	"strings"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/geom"
)

// Text metrics used to estimate label bounding boxes. The renderer does not
// report glyph extents, so width is approximated from the character count.
const (
	defaultFontSize = 14.0
	charWidthRatio  = 0.6
	lineHeightRatio = 1.2
)

// Extract flattens a parsed tree into primitives in document order.
//
// Nested groups are flattened; each primitive records its enclosing group
// chain as GroupPath. Groups that carry an id or class are additionally
// emitted as KindGroup primitives (after their children) with the union of
// their children's boxes, so classifiers can infer containers from them.
//
// Returns an EXTRACTION_FAILED error when the tree yields no primitives or
// contains a text element with no resolvable position.
func Extract(tree *Tree) ([]Primitive, error) {
	if tree == nil {
		return nil, dberrors.New(dberrors.ErrCodeExtraction, "nil visual tree").WithStage("extract")
	}

	w := &walker{}
	if err := w.walkChildren(&tree.root, geom.Point{}, nil); err != nil {
		return nil, err
	}
	if len(w.out) == 0 {
		return nil, dberrors.New(dberrors.ErrCodeExtraction, "visual tree contains no primitives").WithStage("extract")
	}
	return w.out, nil
}

type walker struct {
	out []Primitive
}

func (w *walker) walkChildren(e *element, offset geom.Point, groups []string) error {
	for i := range e.Children {
		if err := w.walk(&e.Children[i], offset, groups); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walk(e *element, offset geom.Point, groups []string) error {
	offset = offset.Add(parseTranslate(e.attr("transform")))
	style := parseStyle(e)

	switch e.XMLName.Local {
	case "g", "svg":
		name := e.attr("id")
		if name == "" {
			name = firstClass(e.attr("class"))
		}
		childGroups := groups
		if name != "" {
			childGroups = append(append([]string{}, groups...), name)
		}

		before := len(w.out)
		if err := w.walkChildren(e, offset, childGroups); err != nil {
			return err
		}
		if name != "" && len(w.out) > before {
			var boxes []geom.Rect
			for _, p := range w.out[before:] {
				boxes = append(boxes, p.BBox)
			}
			w.out = append(w.out, Primitive{
				Kind:      KindGroup,
				Tag:       "g",
				BBox:      geom.Union(boxes),
				Style:     style,
				GroupPath: append(append([]string{}, groups...), name),
			})
		}
		return nil

	case "rect":
		box := geom.Rect{
			X: e.floatAttr("x", 0) + offset.X,
			Y: e.floatAttr("y", 0) + offset.Y,
			W: e.floatAttr("width", 0),
			H: e.floatAttr("height", 0),
		}
		w.emit(Primitive{Kind: KindShape, Tag: "rect", BBox: box, Style: style, GroupPath: groups})

	case "circle":
		r := e.floatAttr("r", 0)
		box := geom.Rect{
			X: e.floatAttr("cx", 0) - r + offset.X,
			Y: e.floatAttr("cy", 0) - r + offset.Y,
			W: 2 * r, H: 2 * r,
		}
		w.emit(Primitive{Kind: KindShape, Tag: "circle", BBox: box, Style: style, GroupPath: groups})

	case "ellipse":
		rx := e.floatAttr("rx", 0)
		ry := e.floatAttr("ry", 0)
		box := geom.Rect{
			X: e.floatAttr("cx", 0) - rx + offset.X,
			Y: e.floatAttr("cy", 0) - ry + offset.Y,
			W: 2 * rx, H: 2 * ry,
		}
		w.emit(Primitive{Kind: KindShape, Tag: "ellipse", BBox: box, Style: style, GroupPath: groups})

	case "polygon", "polyline":
		pts, err := parsePoints(e.attr("points"))
		if err != nil {
			return dberrors.Wrap(dberrors.ErrCodeExtraction, err, "bad points on <%s>", e.XMLName.Local).WithStage("extract")
		}
		segs := make([]Segment, 0, len(pts)+1)
		for i, p := range pts {
			p = p.Add(offset)
			op := OpLine
			if i == 0 {
				op = OpMove
			}
			segs = append(segs, Segment{Op: op, Pts: []geom.Point{p}})
		}
		kind := KindPath
		if e.XMLName.Local == "polygon" {
			segs = append(segs, Segment{Op: OpClose, Pts: []geom.Point{segs[0].End()}})
			kind = KindShape
		}
		w.emit(Primitive{Kind: kind, Tag: e.XMLName.Local, BBox: PathBBox(segs), Style: style, GroupPath: groups, Path: segs})

	case "line":
		a := geom.Point{X: e.floatAttr("x1", 0), Y: e.floatAttr("y1", 0)}.Add(offset)
		b := geom.Point{X: e.floatAttr("x2", 0), Y: e.floatAttr("y2", 0)}.Add(offset)
		segs := []Segment{
			{Op: OpMove, Pts: []geom.Point{a}},
			{Op: OpLine, Pts: []geom.Point{b}},
		}
		w.emit(Primitive{Kind: KindPath, Tag: "line", BBox: geom.RectFrom(a, b), Style: style, GroupPath: groups, Path: segs})

	case "path":
		d := e.attr("d")
		if strings.TrimSpace(d) == "" {
			return nil // decorative empty path, skip
		}
		segs, err := ParsePathData(d)
		if err != nil {
			return dberrors.Wrap(dberrors.ErrCodeExtraction, err, "bad path data").WithStage("extract")
		}
		segs = translateSegments(segs, offset)
		p := Primitive{Tag: "path", BBox: PathBBox(segs), Style: style, GroupPath: groups, Path: segs}
		if p.Closed() {
			p.Kind = KindShape
		} else {
			p.Kind = KindPath
		}
		w.emit(p)

	case "text":
		return w.emitText(e, offset, groups, style)

	case "defs", "marker", "title", "desc", "filter", "clipPath", "linearGradient", "radialGradient":
		// Non-geometric machinery, skip entirely.
		return nil

	default:
		// Unknown elements may still hold geometry in their children.
		return w.walkChildren(e, offset, groups)
	}
	return nil
}

func (w *walker) emit(p Primitive) {
	w.out = append(w.out, p)
}

func (w *walker) emitText(e *element, offset geom.Point, groups []string, style StyleAttrs) error {
	content := collectText(e)
	if content == "" {
		return nil
	}
	if e.attr("x") == "" && e.attr("y") == "" && offset == (geom.Point{}) {
		return dberrors.New(dberrors.ErrCodeExtraction, "text %q has no associated geometry", truncate(content, 32)).WithStage("extract")
	}

	anchor := geom.Point{X: e.floatAttr("x", 0), Y: e.floatAttr("y", 0)}.Add(offset)
	size := style.FontSize
	if size == 0 {
		size = defaultFontSize
	}

	lines := strings.Count(content, "\n") + 1
	width := charWidthRatio * size * float64(longestLine(content))
	height := lineHeightRatio * size * float64(lines)
	middle := e.attr("text-anchor") == "middle"

	box := geom.Rect{X: anchor.X, Y: anchor.Y - size, W: width, H: height}
	if middle {
		box.X = anchor.X - width/2
	}

	w.emit(Primitive{
		Kind:         KindText,
		Tag:          "text",
		BBox:         box,
		Style:        style,
		GroupPath:    groups,
		RawText:      content,
		Anchor:       anchor,
		AnchorMiddle: middle,
	})
	return nil
}

// collectText gathers the element's own character data plus all tspan runs,
// joined with newlines when tspans carry their own dy offsets.
func collectText(e *element) string {
	var parts []string
	if t := strings.TrimSpace(e.Text); t != "" {
		parts = append(parts, t)
	}
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local != "tspan" {
			continue
		}
		if t := collectText(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func longestLine(s string) int {
	best := 0
	for _, line := range strings.Split(s, "\n") {
		if n := len([]rune(line)); n > best {
			best = n
		}
	}
	return best
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func translateSegments(segs []Segment, offset geom.Point) []Segment {
	if offset == (geom.Point{}) {
		return segs
	}
	out := make([]Segment, len(segs))
	for i, s := range segs {
		pts := make([]geom.Point, len(s.Pts))
		for j, p := range s.Pts {
			pts[j] = p.Add(offset)
		}
		out[i] = Segment{Op: s.Op, Pts: pts}
	}
	return out
}

var translateRe = regexp.MustCompile(`translate\(\s*(-?[0-9.eE+-]+)[\s,]*(-?[0-9.eE+-]+)?\s*\)`)

// parseTranslate extracts the translation component of a transform attribute.
// Rendered diagram SVG positions everything with translate; other transform
// functions are rare there and are ignored.
func parseTranslate(transform string) geom.Point {
	if transform == "" {
		return geom.Point{}
	}
	m := translateRe.FindStringSubmatch(transform)
	if m == nil {
		return geom.Point{}
	}
	x, _ := strconv.ParseFloat(m[1], 64)
	var y float64
	if m[2] != "" {
		y, _ = strconv.ParseFloat(m[2], 64)
	}
	return geom.Point{X: x, Y: y}
}

func parsePoints(s string) ([]geom.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' })
	if len(fields) < 2 || len(fields)%2 != 0 {
		return nil, dberrors.New(dberrors.ErrCodeExtraction, "points list has %d values", len(fields))
	}
	pts := make([]geom.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, errX := strconv.ParseFloat(fields[i], 64)
		y, errY := strconv.ParseFloat(fields[i+1], 64)
		if errX != nil || errY != nil {
			return nil, dberrors.New(dberrors.ErrCodeExtraction, "bad point %q,%q", fields[i], fields[i+1])
		}
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	return pts, nil
}

// parseStyle merges presentation attributes and the inline style attribute.
// Inline style declarations win, matching CSS precedence.
func parseStyle(e *element) StyleAttrs {
	s := StyleAttrs{
		Fill:       e.attr("fill"),
		Stroke:     e.attr("stroke"),
		Dash:       e.attr("stroke-dasharray"),
		FontFamily: e.attr("font-family"),
		Class:      e.attr("class"),
	}
	s.StrokeWidth = e.floatAttr("stroke-width", 0)
	s.FontSize = e.floatAttr("font-size", 0)
	s.MarkerStart = e.attr("marker-start") != ""
	s.MarkerEnd = e.attr("marker-end") != ""

	for decl := range strings.SplitSeq(e.attr("style"), ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "fill":
			s.Fill = val
		case "stroke":
			s.Stroke = val
		case "stroke-width":
			if f, err := strconv.ParseFloat(strings.TrimSuffix(val, "px"), 64); err == nil {
				s.StrokeWidth = f
			}
		case "stroke-dasharray":
			s.Dash = val
		case "font-family":
			s.FontFamily = val
		case "font-size":
			if f, err := strconv.ParseFloat(strings.TrimSuffix(val, "px"), 64); err == nil {
				s.FontSize = f
			}
		}
	}
	return s
}

func firstClass(class string) string {
	fields := strings.Fields(class)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
