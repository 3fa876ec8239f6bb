// Package layout positions semantic graphs.
//
// Two concerns live here. The coordinate mapper ([Normalizer]) transforms
// whatever geometry classification recovered into the target canvas's unit
// system. The fallback engines ([Layered], [Grid]) compute geometry from
// scratch when the recovered geometry is unusable: degenerate, overlapping
// beyond tolerance, or absent because the grammar carries none.
//
// Both engines are deterministic given the graph's insertion order, so the
// same source always converts to the same document.
package layout

import (
	"github.com/matzehuels/drawbridge/pkg/semantic"
)

// Policy decides when the fallback engine replaces recovered geometry.
type Policy int

const (
	// PolicyNative trusts recovered geometry and falls back only when it is
	// degenerate or overlapping.
	PolicyNative Policy = iota
	// PolicyAlways runs the fallback engine unconditionally. Used by
	// grammars whose renderer emits no usable positions.
	PolicyAlways
)

// Engine computes node geometry and edge waypoints for a graph.
type Engine interface {
	Apply(g *semantic.Graph) error
}

// NeedsLayout reports whether the graph's recovered geometry is unusable:
// any layout-relevant node is missing geometry, all nodes collapse onto one
// point, or two nodes overlap beyond overlapTol (fraction of the smaller
// node's area).
func NeedsLayout(g *semantic.Graph, overlapTol float64) bool {
	nodes := layoutNodes(g)
	if len(nodes) == 0 {
		return false
	}

	for _, n := range nodes {
		if n.Geometry.Empty() {
			return true
		}
	}

	if len(nodes) > 1 {
		first := nodes[0].Geometry.Center()
		collapsed := true
		for _, n := range nodes[1:] {
			if n.Geometry.Center().Dist(first) > 1e-6 {
				collapsed = false
				break
			}
		}
		if collapsed {
			return true
		}
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if sameContainer(nodes[i], nodes[j]) &&
				nodes[i].Geometry.OverlapFrac(nodes[j].Geometry) > overlapTol {
				return true
			}
		}
	}
	return false
}

// layoutNodes returns the nodes the fallback engine positions: ordinary
// nodes only. Containers derive geometry from children; annotations keep
// whatever geometry they have.
func layoutNodes(g *semantic.Graph) []*semantic.Node {
	var out []*semantic.Node
	for _, n := range g.Nodes() {
		if n.Role == semantic.RoleNode {
			out = append(out, n)
		}
	}
	return out
}

func sameContainer(a, b *semantic.Node) bool { return a.ParentID == b.ParentID }
