package visual

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/drawbridge/pkg/geom"
)

// ParsePathData parses an SVG path data string into absolute segments.
// All SVG 1.1 commands are supported; relative commands are resolved against
// the running position. Arc segments keep only their endpoint (the radii do
// not matter for bounding-box or connector work).
func ParsePathData(d string) ([]Segment, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	var (
		segs       []Segment
		cur        geom.Point // running position
		start      geom.Point // subpath start, for Z
		lastCtrl   geom.Point // reflected control point for S/T
		lastWasCub bool
		lastWasQad bool
		i          int
	)

	need := func(n int) ([]float64, error) {
		if i+n > len(toks.nums) {
			return nil, fmt.Errorf("path data truncated")
		}
		out := toks.nums[i : i+n]
		i += n
		return out, nil
	}

	for _, cmd := range toks.cmds {
		rel := cmd.rel
		abs := func(x, y float64) geom.Point {
			if rel {
				return geom.Point{X: cur.X + x, Y: cur.Y + y}
			}
			return geom.Point{X: x, Y: y}
		}

		for rep := 0; rep < cmd.reps; rep++ {
			switch cmd.op {
			case 'M':
				v, err := need(2)
				if err != nil {
					return nil, err
				}
				cur = abs(v[0], v[1])
				start = cur
				segs = append(segs, Segment{Op: OpMove, Pts: []geom.Point{cur}})
			case 'L':
				v, err := need(2)
				if err != nil {
					return nil, err
				}
				cur = abs(v[0], v[1])
				segs = append(segs, Segment{Op: OpLine, Pts: []geom.Point{cur}})
			case 'H':
				v, err := need(1)
				if err != nil {
					return nil, err
				}
				if rel {
					cur = geom.Point{X: cur.X + v[0], Y: cur.Y}
				} else {
					cur = geom.Point{X: v[0], Y: cur.Y}
				}
				segs = append(segs, Segment{Op: OpLine, Pts: []geom.Point{cur}})
			case 'V':
				v, err := need(1)
				if err != nil {
					return nil, err
				}
				if rel {
					cur = geom.Point{X: cur.X, Y: cur.Y + v[0]}
				} else {
					cur = geom.Point{X: cur.X, Y: v[0]}
				}
				segs = append(segs, Segment{Op: OpLine, Pts: []geom.Point{cur}})
			case 'C':
				v, err := need(6)
				if err != nil {
					return nil, err
				}
				c1 := abs(v[0], v[1])
				c2 := abs(v[2], v[3])
				cur = abs(v[4], v[5])
				lastCtrl, lastWasCub = c2, true
				segs = append(segs, Segment{Op: OpCurve, Pts: []geom.Point{c1, c2, cur}})
			case 'S':
				v, err := need(4)
				if err != nil {
					return nil, err
				}
				c1 := cur
				if lastWasCub {
					c1 = geom.Point{X: 2*cur.X - lastCtrl.X, Y: 2*cur.Y - lastCtrl.Y}
				}
				c2 := abs(v[0], v[1])
				cur = abs(v[2], v[3])
				lastCtrl, lastWasCub = c2, true
				segs = append(segs, Segment{Op: OpCurve, Pts: []geom.Point{c1, c2, cur}})
			case 'Q':
				v, err := need(4)
				if err != nil {
					return nil, err
				}
				c1 := abs(v[0], v[1])
				cur = abs(v[2], v[3])
				lastCtrl, lastWasQad = c1, true
				segs = append(segs, Segment{Op: OpQuad, Pts: []geom.Point{c1, cur}})
			case 'T':
				v, err := need(2)
				if err != nil {
					return nil, err
				}
				c1 := cur
				if lastWasQad {
					c1 = geom.Point{X: 2*cur.X - lastCtrl.X, Y: 2*cur.Y - lastCtrl.Y}
				}
				cur = abs(v[0], v[1])
				lastCtrl, lastWasQad = c1, true
				segs = append(segs, Segment{Op: OpQuad, Pts: []geom.Point{c1, cur}})
			case 'A':
				v, err := need(7)
				if err != nil {
					return nil, err
				}
				cur = abs(v[5], v[6])
				segs = append(segs, Segment{Op: OpArc, Pts: []geom.Point{cur}})
			case 'Z':
				cur = start
				segs = append(segs, Segment{Op: OpClose, Pts: []geom.Point{start}})
			default:
				return nil, fmt.Errorf("unknown path command %q", cmd.op)
			}

			if cmd.op != 'C' && cmd.op != 'S' {
				lastWasCub = false
			}
			if cmd.op != 'Q' && cmd.op != 'T' {
				lastWasQad = false
			}
		}
	}

	if i != len(toks.nums) {
		return nil, fmt.Errorf("path data has %d trailing numbers", len(toks.nums)-i)
	}
	return segs, nil
}

// PathBBox returns the bounding box of all points in the segments.
// Control points are included, over-approximating curves slightly; the
// classifier tolerances absorb the difference.
func PathBBox(segs []Segment) geom.Rect {
	var pts []geom.Point
	for _, s := range segs {
		pts = append(pts, s.Pts...)
	}
	return geom.BBox(pts)
}

// pathCmd is one command letter with its repetition count.
// SVG allows implicit repetition: "L 1 2 3 4" is two line segments.
type pathCmd struct {
	op   byte // canonical uppercase op
	rel  bool
	reps int
}

type pathTokens struct {
	cmds []pathCmd
	nums []float64
}

// argCount maps each op to its parameter count.
var argCount = map[byte]int{'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0}

func tokenizePath(d string) (*pathTokens, error) {
	out := &pathTokens{}
	var pendingNums []float64

	flush := func(op byte, rel bool) error {
		n := argCount[op]
		if n == 0 {
			if len(pendingNums) != 0 {
				return fmt.Errorf("Z takes no arguments")
			}
			out.cmds = append(out.cmds, pathCmd{op: op, rel: rel, reps: 1})
			return nil
		}
		if len(pendingNums) == 0 || len(pendingNums)%n != 0 {
			return fmt.Errorf("command %c expects multiples of %d arguments, got %d", op, n, len(pendingNums))
		}
		reps := len(pendingNums) / n
		// An implicit repetition of M becomes L per the SVG spec.
		out.cmds = append(out.cmds, pathCmd{op: op, rel: rel, reps: 1})
		out.nums = append(out.nums, pendingNums[:n]...)
		if reps > 1 {
			cont := op
			if op == 'M' {
				cont = 'L'
			}
			out.cmds = append(out.cmds, pathCmd{op: cont, rel: rel, reps: reps - 1})
			out.nums = append(out.nums, pendingNums[n:]...)
		}
		pendingNums = pendingNums[:0]
		return nil
	}

	var curOp byte
	var curRel bool
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			if curOp != 0 {
				if err := flush(curOp, curRel); err != nil {
					return nil, err
				}
			}
			upper := c &^ 0x20
			if _, ok := argCount[upper]; !ok {
				return nil, fmt.Errorf("unknown path command %q", c)
			}
			curOp = upper
			curRel = c >= 'a'
			i++
		default:
			j := i
			// number: sign, digits, dot, exponent
			if d[j] == '+' || d[j] == '-' {
				j++
			}
			for j < len(d) && (d[j] >= '0' && d[j] <= '9' || d[j] == '.') {
				j++
			}
			if j < len(d) && (d[j] == 'e' || d[j] == 'E') {
				j++
				if j < len(d) && (d[j] == '+' || d[j] == '-') {
					j++
				}
				for j < len(d) && d[j] >= '0' && d[j] <= '9' {
					j++
				}
			}
			if j == i {
				return nil, fmt.Errorf("unexpected character %q in path data", c)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(d[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q in path data", d[i:j])
			}
			if curOp == 0 {
				return nil, fmt.Errorf("number before any path command")
			}
			pendingNums = append(pendingNums, f)
			i = j
		}
	}
	if curOp != 0 {
		if err := flush(curOp, curRel); err != nil {
			return nil, err
		}
	}
	return out, nil
}
