package depgraph

import (
	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// Edge is a plain dependency: dst's value depends on src's.
type Edge struct {
	Src, Dst *Node
}

// LabeledEdge ties an index-expression node to the array it indexes, at a
// given dimension (spec §4.5's addLabeledEdge).
type LabeledEdge struct {
	Idx   *Node
	Array *Node
	Dim   int
}

// Graph is the arena owning every Node; nodes are referenced by pointer,
// never copied, matching Design Note 9's "graph nodes are owned
// exclusively by the graph."
type Graph struct {
	nodes   []*Node
	bySym   map[*symtab.Symbol]*Node
	edges   []Edge
	labeled []LabeledEdge
	nextID  int

	products map[productKey]*Node
}

type productKey struct{ a, b *Node }

func New() *Graph {
	return &Graph{
		bySym:    map[*symtab.Symbol]*Node{},
		products: map[productKey]*Node{},
	}
}

// AddNode inserts n, or if a node already exists for n.Sym, merges n's
// size constraints into the existing node and returns it instead (spec
// §4.5: "if a node for n.symbol() exists, merge min-size constraints into
// it and return the existing node").
func (g *Graph) AddNode(n *Node) *Node {
	if n.Sym != nil {
		if existing, ok := g.bySym[n.Sym]; ok {
			mergeSizes(existing, n)
			return existing
		}
	}
	n.ID = g.nextID
	g.nextID++
	g.nodes = append(g.nodes, n)
	if n.Sym != nil {
		g.bySym[n.Sym] = n
	}
	return n
}

func mergeSizes(into, from *Node) {
	for dim, v := range from.FixedSize {
		if into.FixedSize == nil {
			into.FixedSize = map[int]av.Value{}
		}
		if _, ok := into.FixedSize[dim]; !ok {
			into.FixedSize[dim] = v
		}
	}
	for dim, v := range from.MinSize {
		if into.MinSize == nil {
			into.MinSize = map[int]av.Value{}
		}
		if existing, ok := into.MinSize[dim]; ok {
			into.MinSize[dim] = av.NewNAry(av.Max, existing, v).Simplify()
		} else {
			into.MinSize[dim] = v
		}
	}
}

// Find returns the node defining sym, or nil.
func (g *Graph) Find(sym *symtab.Symbol) *Node {
	return g.bySym[sym]
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns every plain edge.
func (g *Graph) Edges() []Edge { return g.edges }

// AddEdge inserts a plain dependency edge, deduplicating exact repeats.
func (g *Graph) AddEdge(src, dst *Node) {
	for _, e := range g.edges {
		if e.Src == src && e.Dst == dst {
			return
		}
	}
	g.edges = append(g.edges, Edge{Src: src, Dst: dst})
}

// AddLabeledEdge records that idxNode is an index expression used against
// arrayNode at the given dimension.
func (g *Graph) AddLabeledEdge(idxNode, arrayNode *Node, dim int) {
	g.labeled = append(g.labeled, LabeledEdge{Idx: idxNode, Array: arrayNode, Dim: dim})
}

// LabeledEdgesFor returns the labeled edges targeting arrayNode.
func (g *Graph) LabeledEdgesFor(arrayNode *Node) []LabeledEdge {
	var out []LabeledEdge
	for _, le := range g.labeled {
		if le.Array == arrayNode {
			out = append(out, le)
		}
	}
	return out
}

// Merge replaces every reference to other with keep: incoming/outgoing
// plain and labeled edges, the Left/Right operands of Product nodes, and
// the Terms of Affine nodes (spec §4.5: "used when two passes
// discover the same array by different routes").
func (g *Graph) Merge(keep, other *Node) {
	if keep == other {
		return
	}
	mergeSizes(keep, other)

	for i := range g.edges {
		if g.edges[i].Src == other {
			g.edges[i].Src = keep
		}
		if g.edges[i].Dst == other {
			g.edges[i].Dst = keep
		}
	}
	for i := range g.labeled {
		if g.labeled[i].Idx == other {
			g.labeled[i].Idx = keep
		}
		if g.labeled[i].Array == other {
			g.labeled[i].Array = keep
		}
	}
	for _, n := range g.nodes {
		if n.Left == other {
			n.Left = keep
		}
		if n.Right == other {
			n.Right = keep
		}
		for i := range n.Terms {
			if n.Terms[i].Node == other {
				n.Terms[i].Node = keep
			}
		}
	}

	out := g.nodes[:0]
	for _, n := range g.nodes {
		if n != other {
			out = append(out, n)
		}
	}
	g.nodes = out
	if other.Sym != nil && g.bySym[other.Sym] == other {
		g.bySym[other.Sym] = keep
	}
}

// Simplify removes edges dominated by a transitive path (a->b->c and a->c
// both present: drop a->c) and coalesces any remaining duplicates (spec
// §4.5).
func (g *Graph) Simplify() {
	reach := map[*Node]map[*Node]bool{}
	succ := map[*Node][]*Node{}
	for _, e := range g.edges {
		succ[e.Src] = append(succ[e.Src], e.Dst)
	}
	var reachableFrom func(n *Node) map[*Node]bool
	reachableFrom = func(n *Node) map[*Node]bool {
		if r, ok := reach[n]; ok {
			return r
		}
		r := map[*Node]bool{}
		reach[n] = r // guard against cycles during recursion
		for _, s := range succ[n] {
			if r[s] {
				continue
			}
			r[s] = true
			for t := range reachableFrom(s) {
				r[t] = true
			}
		}
		return r
	}

	var kept []Edge
	seen := map[Edge]bool{}
	for _, e := range g.edges {
		if seen[e] {
			continue
		}
		dominated := false
		for _, mid := range succ[e.Src] {
			if mid == e.Dst {
				continue
			}
			if reachableFrom(mid)[e.Dst] {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, e)
			seen[e] = true
		}
	}
	g.edges = kept
}
