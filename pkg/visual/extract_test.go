package visual

import (
	"math"
	"strings"
	"testing"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

const flowchartSVG = `<svg width="400" height="200" xmlns="http://www.w3.org/2000/svg">
  <g id="nodes" transform="translate(10, 10)">
    <rect x="0" y="0" width="80" height="40" fill="#ECECFF" stroke="#9370DB"/>
    <text x="40" y="25" text-anchor="middle" font-size="14">Start</text>
    <polygon points="190,0 230,20 190,40 150,20" fill="#ECECFF"/>
    <text x="190" y="25" text-anchor="middle">OK?</text>
  </g>
  <path d="M 90 30 L 160 30" stroke="#333" marker-end="url(#arrow)"/>
  <text x="125" y="25">yes</text>
</svg>`

func mustExtract(t *testing.T, svg string) []Primitive {
	t.Helper()
	tree, err := Parse([]byte(svg))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	prims, err := Extract(tree)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return prims
}

func TestExtractFlowchart(t *testing.T) {
	prims := mustExtract(t, flowchartSVG)

	var shapes, paths, texts, groups int
	for _, p := range prims {
		switch p.Kind {
		case KindShape:
			shapes++
		case KindPath:
			paths++
		case KindText:
			texts++
		case KindGroup:
			groups++
		}
	}
	if shapes != 2 || paths != 1 || texts != 3 || groups != 1 {
		t.Fatalf("kinds = %d shapes, %d paths, %d texts, %d groups", shapes, paths, texts, groups)
	}

	// The group translate must shift the rect.
	rect := prims[0]
	if rect.Tag != "rect" || rect.BBox.X != 10 || rect.BBox.Y != 10 {
		t.Errorf("rect bbox = %+v", rect.BBox)
	}
	if !rect.InGroup("nodes") {
		t.Errorf("rect groupPath = %v", rect.GroupPath)
	}

	// Arrow marker survives extraction.
	var arrow *Primitive
	for i := range prims {
		if prims[i].Kind == KindPath {
			arrow = &prims[i]
		}
	}
	if arrow == nil || !arrow.Style.MarkerEnd {
		t.Error("arrow path should record marker-end")
	}
}

func TestExtractTextContent(t *testing.T) {
	prims := mustExtract(t, `<svg><text x="5" y="10" font-size="10">hello</text></svg>`)
	if len(prims) != 1 || prims[0].RawText != "hello" {
		t.Fatalf("prims = %+v", prims)
	}
	// Estimated box: 5 chars at 0.6*10 wide.
	if math.Abs(prims[0].BBox.W-30) > 1e-9 {
		t.Errorf("text width = %g, want 30", prims[0].BBox.W)
	}
}

func TestExtractTspans(t *testing.T) {
	prims := mustExtract(t, `<svg><text x="0" y="0"><tspan>line one</tspan><tspan>line two</tspan></text></svg>`)
	if prims[0].RawText != "line one\nline two" {
		t.Errorf("RawText = %q", prims[0].RawText)
	}
}

func TestExtractInlineStyleWins(t *testing.T) {
	prims := mustExtract(t, `<svg><rect width="10" height="10" fill="red" style="fill: blue; stroke-width: 2px"/></svg>`)
	if prims[0].Style.Fill != "blue" {
		t.Errorf("fill = %q, want inline blue", prims[0].Style.Fill)
	}
	if prims[0].Style.StrokeWidth != 2 {
		t.Errorf("stroke-width = %g", prims[0].Style.StrokeWidth)
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		svg  string
	}{
		{"Empty", ""},
		{"NotXML", "this is not xml <"},
		{"WrongRoot", "<html></html>"},
		{"NoPrimitives", `<svg><defs><marker id="m"/></defs></svg>`},
		{"TextWithoutGeometry", `<svg><text>floating</text></svg>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse([]byte(tt.svg))
			if err == nil {
				_, err = Extract(tree)
			}
			if err == nil {
				t.Fatal("expected an extraction error")
			}
			if !dberrors.Is(err, dberrors.ErrCodeExtraction) {
				t.Errorf("code = %v, want EXTRACTION_FAILED", dberrors.GetCode(err))
			}
		})
	}
}

func TestExtractSkipsDecorative(t *testing.T) {
	prims := mustExtract(t, `<svg>
	  <defs><filter id="f"/></defs>
	  <title>skipped</title>
	  <rect width="10" height="10"/>
	</svg>`)
	if len(prims) != 1 {
		t.Fatalf("len = %d, want 1", len(prims))
	}
}

func TestParseViewBoxFallback(t *testing.T) {
	tree, err := Parse([]byte(`<svg viewBox="0 0 640 480"><rect width="1" height="1"/></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	if tree.Width != 640 || tree.Height != 480 {
		t.Errorf("size = %gx%g", tree.Width, tree.Height)
	}
}

func TestExtractClosedPathIsShape(t *testing.T) {
	prims := mustExtract(t, `<svg><path d="M0 0 L10 0 L10 10 L0 10 Z"/><path d="M0 0 L50 50"/></svg>`)
	if prims[0].Kind != KindShape {
		t.Error("closed path should be a shape")
	}
	if prims[1].Kind != KindPath {
		t.Error("open path should stay a path")
	}
}

func TestGroupBBoxIsUnion(t *testing.T) {
	prims := mustExtract(t, `<svg><g id="cluster">
	  <rect x="0" y="0" width="10" height="10"/>
	  <rect x="40" y="0" width="10" height="10"/>
	</g></svg>`)

	var group *Primitive
	for i := range prims {
		if prims[i].Kind == KindGroup {
			group = &prims[i]
		}
	}
	if group == nil {
		t.Fatal("no group primitive emitted")
	}
	if group.BBox.W != 50 || !strings.Contains(strings.Join(group.GroupPath, "/"), "cluster") {
		t.Errorf("group = %+v", group)
	}
}
