// Package classify turns extracted visual primitives into a semantic graph.
//
// Each diagram-type grammar provides a [Rules] implementation that knows how
// that grammar's renderer lays out its primitives: what counts as a node, a
// connector, a container, or decoration. The grammars share the geometric
// machinery in this package (shape signature detection, label attachment,
// edge endpoint resolution) and differ only in interpretation.
//
// Classification failures are recoverable by design: when a grammar cannot
// make sense of the primitives, the caller falls back to [Generic], which
// treats every closed shape as a labeled rectangle.
package classify

import (
	"fmt"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// Rules classifies primitives under one diagram-type grammar.
type Rules interface {
	// DiagramType returns the grammar name this rule set handles.
	DiagramType() string

	// Classify builds a semantic graph from the primitives. Geometry stays
	// in extractor units; the coordinate mapper normalizes it later.
	// Non-fatal oddities are reported as warnings. A returned error carries
	// ErrCodeClassification and means the grammar could not interpret the
	// primitives at all.
	Classify(prims []visual.Primitive, tol Tolerances) (*semantic.Graph, []string, error)
}

// Tolerances are the tunable geometric thresholds for shape signature
// detection and primitive association. Zero values are replaced by
// [DefaultTolerances] equivalents via [Tolerances.withDefaults].
type Tolerances struct {
	// RightAngleDeg is the maximum deviation from 0/90 degrees for an edge
	// to count as axis-aligned.
	RightAngleDeg float64

	// ColinearRad is the maximum direction change, in radians, between
	// consecutive segments still considered one straight side.
	ColinearRad float64

	// CornerSlackFrac is the allowed corner displacement for diamond and
	// parallelogram signatures, as a fraction of the shape's dimension.
	CornerSlackFrac float64

	// EllipseSmooth is the maximum relative radius variance for a closed
	// all-curve path to classify as an ellipse.
	EllipseSmooth float64

	// LabelRadiusFrac bounds how far from an edge midpoint a text may sit
	// and still become that edge's label, as a fraction of edge length.
	LabelRadiusFrac float64

	// AttachSlack is the maximum distance, in extractor units, between a
	// connector endpoint and a node boundary for attachment.
	AttachSlack float64
}

// DefaultTolerances returns the thresholds the built-in grammars were tuned
// against.
func DefaultTolerances() Tolerances {
	return Tolerances{
		RightAngleDeg:   12,
		ColinearRad:     0.12,
		CornerSlackFrac: 0.2,
		EllipseSmooth:   0.25,
		LabelRadiusFrac: 0.35,
		AttachSlack:     12,
	}
}

func (t Tolerances) withDefaults() Tolerances {
	d := DefaultTolerances()
	if t.RightAngleDeg <= 0 {
		t.RightAngleDeg = d.RightAngleDeg
	}
	if t.ColinearRad <= 0 {
		t.ColinearRad = d.ColinearRad
	}
	if t.CornerSlackFrac <= 0 {
		t.CornerSlackFrac = d.CornerSlackFrac
	}
	if t.EllipseSmooth <= 0 {
		t.EllipseSmooth = d.EllipseSmooth
	}
	if t.LabelRadiusFrac <= 0 {
		t.LabelRadiusFrac = d.LabelRadiusFrac
	}
	if t.AttachSlack <= 0 {
		t.AttachSlack = d.AttachSlack
	}
	return t
}

func classificationErr(diagramType, format string, args ...any) error {
	return dberrors.New(dberrors.ErrCodeClassification,
		"%s: %s", diagramType, fmt.Sprintf(format, args...)).WithStage("classify")
}
