package depgraph

import (
	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// AffineExpr is the canonical const + Σcoef_i*node_i shape ExtractAffine
// decomposes a value into (spec §4.5's "Simplify-to-affine").
type AffineExpr struct {
	Const int64
	Terms []AffineTerm
}

// ExtractAffine decomposes v into an AffineExpr, resolving each symbol to
// its graph node via lookup. A term with two multiplied symbols is
// replaced by a fresh ProductNode (spec §4.5's extractOneTerm: "a fresh
// ProductNode(s1, s2) is created... and the synthetic symbol replaces the
// pair"). Returns ok=false if any additive term is neither constant,
// coef*symbol, nor coef*symbol*symbol -- the containing expression is
// then ignored for graph purposes by the caller, with a warning.
func (g *Graph) ExtractAffine(v av.Value, lookup func(*symtab.Symbol) *Node) (AffineExpr, bool) {
	developed := v.Develop().Simplify()
	var result AffineExpr
	for _, term := range flattenAdditive(developed) {
		constDelta, affTerm, ok := g.extractOneTerm(term, lookup)
		if !ok {
			return AffineExpr{}, false
		}
		result.Const += constDelta
		if affTerm != nil {
			result.Terms = append(result.Terms, *affTerm)
		}
	}
	return result, true
}

// flattenAdditive returns the top-level additive terms of v, negating the
// subtrahends of a Sub node so every returned term is meant to be summed.
func flattenAdditive(v av.Value) []av.Value {
	n, ok := v.(av.NAry)
	if !ok {
		return []av.Value{v}
	}
	switch n.Op {
	case av.Add:
		return n.Terms
	case av.Sub:
		out := make([]av.Value, len(n.Terms))
		out[0] = n.Terms[0]
		for i, t := range n.Terms[1:] {
			out[i+1] = av.NewNAry(av.Mul, av.Integer{V: -1}, t).Evaluate()
		}
		return out
	default:
		return []av.Value{v}
	}
}

func (g *Graph) extractOneTerm(v av.Value, lookup func(*symtab.Symbol) *Node) (int64, *AffineTerm, bool) {
	v = v.Evaluate()
	switch t := v.(type) {
	case av.Integer:
		return t.V, nil, true
	case av.Symbol:
		node := lookup(t.Sym)
		if node == nil {
			return 0, nil, false
		}
		return 0, &AffineTerm{Coef: 1, Node: node}, true
	case av.NAry:
		if t.Op != av.Mul {
			return 0, nil, false
		}
		coef := int64(1)
		var syms []*symtab.Symbol
		for _, factor := range t.Terms {
			switch f := factor.(type) {
			case av.Integer:
				coef *= f.V
			case av.Symbol:
				syms = append(syms, f.Sym)
			default:
				return 0, nil, false
			}
		}
		switch len(syms) {
		case 0:
			return coef, nil, true
		case 1:
			node := lookup(syms[0])
			if node == nil {
				return 0, nil, false
			}
			return 0, &AffineTerm{Coef: coef, Node: node}, true
		case 2:
			n1, n2 := lookup(syms[0]), lookup(syms[1])
			if n1 == nil || n2 == nil {
				return 0, nil, false
			}
			return 0, &AffineTerm{Coef: coef, Node: g.synthesizeProduct(n1, n2)}, true
		default:
			return 0, nil, false
		}
	default:
		return 0, nil, false
	}
}

// synthesizeProduct finds or creates the ProductNode for (a, b), caching
// on the unordered pair so `s1*s2` and `s2*s1` reuse one node.
func (g *Graph) synthesizeProduct(a, b *Node) *Node {
	k1 := productKey{a, b}
	k2 := productKey{b, a}
	if n, ok := g.products[k1]; ok {
		return n
	}
	if n, ok := g.products[k2]; ok {
		return n
	}
	n := g.AddNode(&Node{Kind: Product, Left: a, Right: b})
	g.AddEdge(a, n)
	g.AddEdge(b, n)
	g.products[k1] = n
	return n
}
