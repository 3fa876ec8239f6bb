package layout

import (
	"github.com/matzehuels/drawbridge/pkg/geom"
	"github.com/matzehuels/drawbridge/pkg/semantic"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Layered is the hierarchical fallback engine: rank assignment by longest
// path from the roots, crossing reduction by iterated barycenter passes,
// then coordinate assignment from rank and intra-rank order.
type Layered struct {
	// RankSep is the vertical gap between ranks.
	RankSep float64
	// NodeSep is the horizontal gap between nodes within a rank.
	NodeSep float64
	// Passes is the number of barycenter sweeps (down and up counts as two).
	Passes int
	// DefaultW and DefaultH size nodes that arrive without geometry.
	DefaultW, DefaultH float64
}

// Apply implements [Engine]. Node geometry and the waypoints of every edge
// between positioned nodes are overwritten; annotation geometry is left
// untouched. Deterministic for a fixed insertion order.
func (l Layered) Apply(g *semantic.Graph) error {
	nodes := layoutNodes(g)
	if len(nodes) == 0 {
		return dberrors.New(dberrors.ErrCodeLayout, "no nodes to lay out").WithStage("layout")
	}

	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}

	// Adjacency restricted to layout nodes, discovery order preserved.
	succ := make([][]int, len(nodes))
	inDeg := make([]int, len(nodes))
	for _, e := range g.Edges() {
		si, ok1 := idx[e.SourceID]
		ti, ok2 := idx[e.TargetID]
		if !ok1 || !ok2 || si == ti {
			continue
		}
		succ[si] = append(succ[si], ti)
		inDeg[ti]++
	}

	breakCycles(succ, inDeg)
	ranks := assignRanks(succ, inDeg)
	order := orderRanks(succ, ranks, l.passes())
	l.place(nodes, ranks, order)
	l.route(g, nodes, idx, ranks)
	return nil
}

func (l Layered) passes() int {
	if l.Passes > 0 {
		return l.Passes
	}
	return 4
}

// breakCycles removes back edges found by a white/gray/black DFS so rank
// assignment terminates. The edge relation on the semantic graph is left
// intact; only the layout's private adjacency is trimmed. inDeg is updated
// to match.
func breakCycles(succ [][]int, inDeg []int) {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(succ))

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		kept := succ[u][:0]
		for _, v := range succ[u] {
			switch color[v] {
			case white:
				kept = append(kept, v)
				dfs(v)
			case gray:
				inDeg[v]-- // back edge, drop it
			default:
				kept = append(kept, v)
			}
		}
		succ[u] = kept
		color[u] = black
	}

	// Start from sources so natural roots anchor the traversal, then sweep
	// the rest for disconnected or fully cyclic components.
	for u := range succ {
		if inDeg[u] == 0 && color[u] == white {
			dfs(u)
		}
	}
	for u := range succ {
		if color[u] == white {
			dfs(u)
		}
	}
}

// assignRanks places each node at one plus the maximum rank of its parents,
// via Kahn's algorithm. Sources sit at rank 0.
func assignRanks(succ [][]int, inDeg []int) []int {
	n := len(succ)
	ranks := make([]int, n)
	deg := make([]int, n)
	copy(deg, inDeg)

	queue := make([]int, 0, n)
	for u := 0; u < n; u++ {
		if deg[u] == 0 {
			queue = append(queue, u)
		}
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range succ[u] {
			if r := ranks[u] + 1; r > ranks[v] {
				ranks[v] = r
			}
			deg[v]--
			if deg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return ranks
}

// orderRanks reduces crossings with alternating downward and upward
// barycenter sweeps, keeping the ordering with the fewest crossings seen.
func orderRanks(succ [][]int, ranks []int, passes int) [][]int {
	maxRank := 0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}
	order := make([][]int, maxRank+1)
	for u, r := range ranks {
		order[r] = append(order[r], u)
	}

	pred := make([][]int, len(succ))
	for u, vs := range succ {
		for _, v := range vs {
			pred[v] = append(pred[v], u)
		}
	}

	best := cloneOrder(order)
	bestCrossings := totalCrossings(succ, order)
	for p := 0; p < passes; p++ {
		if p%2 == 0 {
			for r := 1; r <= maxRank; r++ {
				barycenterSort(order[r], order[r-1], pred)
			}
		} else {
			for r := maxRank - 1; r >= 0; r-- {
				barycenterSort(order[r], order[r+1], succ)
			}
		}
		if c := totalCrossings(succ, order); c < bestCrossings {
			bestCrossings = c
			best = cloneOrder(order)
		}
	}
	return best
}

func cloneOrder(order [][]int) [][]int {
	out := make([][]int, len(order))
	for i, row := range order {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// barycenterSort reorders row by each node's mean neighbor position in the
// fixed adjacent row. Nodes without neighbors keep their relative position
// by inheriting their current index as the key; ties preserve the existing
// order (stable insertion sort), which keeps the sweep deterministic.
func barycenterSort(row, fixed []int, adj [][]int) {
	pos := make(map[int]int, len(fixed))
	for i, u := range fixed {
		pos[u] = i
	}

	keys := make([]float64, len(row))
	for i, u := range row {
		sum, cnt := 0.0, 0
		for _, v := range adj[u] {
			if p, ok := pos[v]; ok {
				sum += float64(p)
				cnt++
			}
		}
		if cnt == 0 {
			keys[i] = float64(i)
		} else {
			keys[i] = sum / float64(cnt)
		}
	}

	for i := 1; i < len(row); i++ {
		u, k := row[i], keys[i]
		j := i - 1
		for j >= 0 && keys[j] > k {
			row[j+1], keys[j+1] = row[j], keys[j]
			j--
		}
		row[j+1], keys[j+1] = u, k
	}
}

// totalCrossings sums the crossings between each pair of adjacent ranks,
// counting inversions with a Fenwick tree.
func totalCrossings(succ [][]int, order [][]int) int {
	total := 0
	for r := 0; r+1 < len(order); r++ {
		total += layerCrossings(succ, order[r], order[r+1])
	}
	return total
}

func layerCrossings(succ [][]int, upper, lower []int) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := make(map[int]int, len(lower))
	for i, u := range lower {
		lowerPos[u] = i
	}

	// Targets in source order; rank-skipping edges are ignored here, their
	// crossings are approximated well enough by the adjacent-rank count.
	var targets []int
	for _, u := range upper {
		row := make([]int, 0, len(succ[u]))
		for _, v := range succ[u] {
			if p, ok := lowerPos[v]; ok {
				row = append(row, p)
			}
		}
		// Within one source, sorted targets cannot cross each other.
		insertionSortInts(row)
		targets = append(targets, row...)
	}
	if len(targets) < 2 {
		return 0
	}

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, t := range targets {
		lessOrEqual := 0
		for q := t + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual
		total++
		for i := t + 1; i < len(fenwick); i += i & (-i) {
			fenwick[i]++
		}
	}
	return crossings
}

func insertionSortInts(a []int) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

// place assigns coordinates: rank index maps to y, intra-rank order to x,
// with each rank centered on the widest one.
func (l Layered) place(nodes []*semantic.Node, ranks []int, order [][]int) {
	rowWidths := make([]float64, len(order))
	rowHeights := make([]float64, len(order))
	for r, row := range order {
		var w, h float64
		for i, u := range row {
			nw, nh := l.sizeOf(nodes[u])
			if i > 0 {
				w += l.NodeSep
			}
			w += nw
			if nh > h {
				h = nh
			}
		}
		rowWidths[r] = w
		rowHeights[r] = h
	}

	maxWidth := 0.0
	for _, w := range rowWidths {
		if w > maxWidth {
			maxWidth = w
		}
	}

	y := 0.0
	for r, row := range order {
		x := (maxWidth - rowWidths[r]) / 2
		for _, u := range row {
			nw, nh := l.sizeOf(nodes[u])
			nodes[u].Geometry = geom.Rect{
				X: x,
				Y: y + (rowHeights[r]-nh)/2,
				W: nw,
				H: nh,
			}
			x += nw + l.NodeSep
		}
		y += rowHeights[r] + l.RankSep
	}
}

func (l Layered) sizeOf(n *semantic.Node) (w, h float64) {
	w, h = n.Geometry.W, n.Geometry.H
	if w <= 0 {
		w = l.DefaultW
	}
	if h <= 0 {
		h = l.DefaultH
	}
	return w, h
}

// route rewrites edge waypoints. Adjacent-rank edges run straight between
// node boundaries; rank-skipping edges get a bend point at each skipped
// rank so they do not cut through unrelated nodes.
func (l Layered) route(g *semantic.Graph, nodes []*semantic.Node, idx map[string]int, ranks []int) {
	for _, e := range g.Edges() {
		si, ok1 := idx[e.SourceID]
		ti, ok2 := idx[e.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		src, dst := nodes[si], nodes[ti]
		e.FromLayout = true
		e.Waypoints = nil

		span := ranks[ti] - ranks[si]
		if span < 0 {
			span = -span
		}
		if span <= 1 {
			continue
		}

		// One bend per skipped rank, offset sideways so the edge clears the
		// nodes sitting on those ranks.
		srcC, dstC := src.Geometry.Center(), dst.Geometry.Center()
		for k := 1; k < span; k++ {
			t := float64(k) / float64(span)
			e.Waypoints = append(e.Waypoints, geom.Point{
				X: srcC.X + (dstC.X-srcC.X)*t + l.NodeSep/2,
				Y: srcC.Y + (dstC.Y-srcC.Y)*t,
			})
		}
	}
}
