// Package geom provides the 2D primitives shared by the conversion pipeline.
//
// All coordinates are float64 in whatever unit the current stage works in:
// extractor units before the coordinate mapper runs, target canvas units
// after. Rectangles are axis-aligned and stored as origin plus size.
package geom

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p minus q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Mid returns the midpoint of p and q.
func Mid(p, q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Rect is an axis-aligned rectangle: origin (top-left) plus size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectFrom returns the smallest rectangle containing both points.
func RectFrom(a, b Point) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Center returns the center point.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// ContainsRect reports whether s lies entirely inside r (edges inclusive).
func (r Rect) ContainsRect(s Rect) bool {
	return s.X >= r.X && s.Y >= r.Y && s.MaxX() <= r.MaxX() && s.MaxY() <= r.MaxY()
}

// Union returns the smallest rectangle covering both r and s.
// An empty rectangle is treated as absent.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	x0 := math.Min(r.X, s.X)
	y0 := math.Min(r.Y, s.Y)
	x1 := math.Max(r.MaxX(), s.MaxX())
	y1 := math.Max(r.MaxY(), s.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Intersect returns the overlap of r and s, or a zero Rect if they are disjoint.
func (r Rect) Intersect(s Rect) Rect {
	x0 := math.Max(r.X, s.X)
	y0 := math.Max(r.Y, s.Y)
	x1 := math.Min(r.MaxX(), s.MaxX())
	y1 := math.Min(r.MaxY(), s.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// OverlapFrac returns the area of the overlap between r and s as a fraction
// of the smaller rectangle's area. Returns 0 when either is empty.
func (r Rect) OverlapFrac(s Rect) float64 {
	smaller := math.Min(r.Area(), s.Area())
	if smaller == 0 {
		return 0
	}
	return r.Intersect(s).Area() / smaller
}

// Inset shrinks the rectangle by d on every side. A negative d grows it.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Scale returns r with origin and size multiplied by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, W: r.W * f, H: r.H * f}
}

// Union returns the bounding box of all given rectangles.
// Returns a zero Rect for an empty slice.
func Union(rects []Rect) Rect {
	var out Rect
	for _, r := range rects {
		out = out.Union(r)
	}
	return out
}

// BBox returns the smallest rectangle containing all points. Collinear
// points yield a zero-width or zero-height rectangle positioned on the
// points, not a zero Rect. Returns a zero Rect for an empty slice.
func BBox(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	x0, y0 := pts[0].X, pts[0].Y
	x1, y1 := x0, y0
	for _, p := range pts[1:] {
		x0 = math.Min(x0, p.X)
		y0 = math.Min(y0, p.Y)
		x1 = math.Max(x1, p.X)
		y1 = math.Max(y1, p.Y)
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BoundaryPoint returns the point where the segment from r's center toward
// target crosses r's boundary. Used to attach edges to node borders rather
// than centers. If target is inside r, the center is returned.
func (r Rect) BoundaryPoint(target Point) Point {
	c := r.Center()
	dx, dy := target.X-c.X, target.Y-c.Y
	if dx == 0 && dy == 0 {
		return c
	}

	// Scale the direction vector until it touches the rectangle edge.
	t := math.Inf(1)
	if dx != 0 {
		t = math.Min(t, math.Abs((r.W/2)/dx))
	}
	if dy != 0 {
		t = math.Min(t, math.Abs((r.H/2)/dy))
	}
	return Point{c.X + dx*t, c.Y + dy*t}
}
