package depgraph

import (
	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/interval"
)

// topoOrder returns every node of the graph in topological order over its
// plain edges (predecessors before successors). Nodes involved in a cycle
// (none expected for a dependence graph built from straight-line affine
// facts, but the analyzed program's control flow can still produce one
// through a recursive definition) are appended in insertion order after
// the acyclic prefix, so propagation degrades to "best effort" rather
// than panicking.
func (g *Graph) topoOrder() []*Node {
	indeg := map[*Node]int{}
	succ := map[*Node][]*Node{}
	for _, n := range g.nodes {
		indeg[n] = 0
	}
	for _, e := range g.edges {
		indeg[e.Dst]++
		succ[e.Src] = append(succ[e.Src], e.Dst)
	}

	var queue []*Node
	for _, n := range g.nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}

	var order []*Node
	visited := map[*Node]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		order = append(order, n)
		for _, s := range succ[n] {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	for _, n := range g.nodes {
		if !visited[n] {
			order = append(order, n)
		}
	}
	return order
}

// SpreadTopDown computes each node's Range from its predecessors', in
// topological order. Input/GlobalVar nodes keep the Range RangeAnalysis
// already attached to them. Array node ranges are left as-is (unused by
// the rest of the pipeline per spec §4.5). Returns false if any node's
// computed range is Bottom (undefined), signaling a fatal for the caller.
func (g *Graph) SpreadTopDown() bool {
	ok := true
	for _, n := range g.topoOrder() {
		switch n.Kind {
		case Input, GlobalVar, UncompletedFunction:
			// Ranges already seeded by the caller from RangeAnalysis facts.
		case ArrayInput, ArrayLocal, ArrayReturnOfFunction:
			// unused by top-down propagation
		case Affine:
			r := interval.Const(n.Const)
			for _, term := range n.Terms {
				r = r.Add(term.Node.Range.Mul(interval.Const(term.Coef)))
			}
			n.Range = r
		case Product:
			n.Range = n.Left.Range.Mul(n.Right.Range)
		}
		if n.Range.IsBottom() {
			ok = false
		}
	}
	return ok
}

// SpreadBottomUp derives each array node's required minimum size per
// dimension from the index nodes labeled against it (capped at the
// declared length of a fixed dimension), then tightens any index node
// whose range would overrun a declaratively fixed dimension.
// Returns false if tightening drives an index node's range to Bottom.
func (g *Graph) SpreadBottomUp() bool {
	ok := true
	byArrayDim := map[*Node]map[int][]*Node{}
	for _, le := range g.labeled {
		if byArrayDim[le.Array] == nil {
			byArrayDim[le.Array] = map[int][]*Node{}
		}
		byArrayDim[le.Array][le.Dim] = append(byArrayDim[le.Array][le.Dim], le.Idx)
	}

	for _, n := range g.nodes {
		if !n.Kind.IsArray() {
			continue
		}
		dims := byArrayDim[n]
		for dim, idxNodes := range dims {
			maxUpper := av.Value(av.Integer{V: 0})
			have := false
			for _, idx := range idxNodes {
				u := idx.Range.Upper.Evaluate()
				if !have {
					maxUpper = u
					have = true
					continue
				}
				maxUpper = av.NewNAry(av.Max, maxUpper, u).Simplify()
			}
			if !have {
				continue
			}
			needed := av.NewNAry(av.Add, maxUpper, av.Integer{V: 1}).Evaluate()
			if fixed, isFixed := n.FixedSize[dim]; isFixed {
				needed = av.NewNAry(av.Min, needed, fixed).Evaluate()
			}
			if n.MinSize == nil {
				n.MinSize = map[int]av.Value{}
			}
			if existing, ok := n.MinSize[dim]; ok {
				n.MinSize[dim] = av.NewNAry(av.Max, existing, needed).Simplify()
			} else {
				n.MinSize[dim] = needed
			}

			if fixed, isFixed := n.FixedSize[dim]; isFixed {
				bound := interval.New(av.Integer{V: 0}, av.NewNAry(av.Sub, fixed, av.Integer{V: 1}).Evaluate())
				for _, idx := range idxNodes {
					tightened := idx.Range.Intersect(bound)
					idx.Range = tightened
					if tightened.IsBottom() {
						ok = false
					}
				}
			}
		}
	}
	return ok
}
