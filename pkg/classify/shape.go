package classify

import (
	"math"

	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"
	"github.com/matzehuels/drawbridge/pkg/visual"
)

// DetectShape derives the geometric archetype of a closed primitive from its
// signature: fixed SVG shapes map directly, polygons and closed paths are
// classified by corner angles and curve smoothness. Unrecognized signatures
// fall back to rectangle, never to an error.
func DetectShape(p visual.Primitive, tol Tolerances) semantic.ShapeKind {
	tol = tol.withDefaults()
	switch p.Tag {
	case "rect":
		return semantic.ShapeRectangle
	case "circle", "ellipse":
		return semantic.ShapeEllipse
	}

	corners := cornerPoints(p.Path, tol)
	curves, lines := segmentMix(p.Path)

	switch {
	case curves > 0 && lines == 0:
		if smoothClosedCurve(p, tol) {
			return semantic.ShapeEllipse
		}
		return semantic.ShapeRounded
	case curves > 0 && lines > 0:
		// Straight sides joined by corner curves: the renderer's rounded
		// rectangle. Arc caps on vertical sides signal a cylinder.
		if hasArc(p.Path) && tallerThanWide(p.BBox) {
			return semantic.ShapeCylinder
		}
		return semantic.ShapeRounded
	}

	switch len(corners) {
	case 4:
		return quadKind(corners, p.BBox, tol)
	case 6:
		return semantic.ShapeHexagon
	default:
		return semantic.ShapeRectangle
	}
}

// cornerPoints returns the polygon corners of a straight-sided path,
// merging colinear runs and duplicate endpoints.
func cornerPoints(segs []visual.Segment, tol Tolerances) []geom.Point {
	var pts []geom.Point
	for _, s := range segs {
		switch s.Op {
		case visual.OpMove, visual.OpLine:
			pts = append(pts, s.End())
		}
	}
	if len(pts) < 3 {
		return pts
	}
	// Drop a trailing point that duplicates the first (closed polygon).
	if pts[0].Dist(pts[len(pts)-1]) < 1e-6 {
		pts = pts[:len(pts)-1]
	}

	var out []geom.Point
	n := len(pts)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		next := pts[(i+1)%n]
		if pts[i].Dist(prev) < 1e-6 {
			continue
		}
		a1 := math.Atan2(pts[i].Y-prev.Y, pts[i].X-prev.X)
		a2 := math.Atan2(next.Y-pts[i].Y, next.X-pts[i].X)
		if math.Abs(angleDiff(a1, a2)) < tol.ColinearRad {
			continue // colinear, not a corner
		}
		out = append(out, pts[i])
	}
	return out
}

func segmentMix(segs []visual.Segment) (curves, lines int) {
	for _, s := range segs {
		switch s.Op {
		case visual.OpCurve, visual.OpQuad, visual.OpArc:
			curves++
		case visual.OpLine:
			lines++
		}
	}
	return curves, lines
}

func hasArc(segs []visual.Segment) bool {
	for _, s := range segs {
		if s.Op == visual.OpArc {
			return true
		}
	}
	return false
}

func tallerThanWide(r geom.Rect) bool { return r.H > r.W }

// smoothClosedCurve reports whether the path endpoints keep a near-constant
// distance from the bbox center, scaled per axis. True for circles and
// ellipses, false for lumpy blobs (cloud shapes, mindmap bubbles).
func smoothClosedCurve(p visual.Primitive, tol Tolerances) bool {
	c := p.BBox.Center()
	rx, ry := p.BBox.W/2, p.BBox.H/2
	if rx == 0 || ry == 0 {
		return false
	}
	var sum, sumSq float64
	var n int
	for _, s := range p.Path {
		if s.Op == visual.OpMove || s.Op == visual.OpClose {
			continue
		}
		e := s.End()
		r := math.Hypot((e.X-c.X)/rx, (e.Y-c.Y)/ry)
		sum += r
		sumSq += r * r
		n++
	}
	if n < 3 {
		return true
	}
	mean := sum / float64(n)
	if mean == 0 {
		return false
	}
	variance := sumSq/float64(n) - mean*mean
	return math.Sqrt(math.Max(variance, 0))/mean < tol.EllipseSmooth
}

// quadKind classifies a four-cornered polygon.
func quadKind(corners []geom.Point, bbox geom.Rect, tol Tolerances) semantic.ShapeKind {
	axisTol := tol.RightAngleDeg * math.Pi / 180

	aligned := 0
	horizontal := 0
	for i := 0; i < 4; i++ {
		a := corners[i]
		b := corners[(i+1)%4]
		ang := math.Atan2(b.Y-a.Y, b.X-a.X)
		if nearAxis(ang, 0, axisTol) {
			aligned++
			horizontal++
		} else if nearAxis(ang, math.Pi/2, axisTol) {
			aligned++
		}
	}

	switch {
	case aligned == 4:
		return semantic.ShapeRectangle
	case aligned == 0 && diamondSignature(corners, bbox, tol):
		return semantic.ShapeDiamond
	case horizontal == 2 && aligned == 2:
		return semantic.ShapeParallelogram
	default:
		return semantic.ShapeRectangle
	}
}

// diamondSignature checks that the corners sit near the midpoints of the
// bounding box edges: top, right, bottom, left.
func diamondSignature(corners []geom.Point, bbox geom.Rect, tol Tolerances) bool {
	c := bbox.Center()
	slackX := bbox.W * tol.CornerSlackFrac
	slackY := bbox.H * tol.CornerSlackFrac
	targets := []geom.Point{
		{X: c.X, Y: bbox.Y},      // top
		{X: bbox.MaxX(), Y: c.Y}, // right
		{X: c.X, Y: bbox.MaxY()}, // bottom
		{X: bbox.X, Y: c.Y},      // left
	}
	for _, t := range targets {
		found := false
		for _, p := range corners {
			if math.Abs(p.X-t.X) <= slackX && math.Abs(p.Y-t.Y) <= slackY {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// nearAxis reports whether ang is within tol of axis, modulo pi.
func nearAxis(ang, axis, tol float64) bool {
	d := math.Mod(math.Abs(ang-axis), math.Pi)
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d < tol
}

func angleDiff(a, b float64) float64 {
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
