package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/depgraph"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/symtab"
)

func TestAddNodeMergesOnSymbol(t *testing.T) {
	g := depgraph.New()
	sym := &symtab.Symbol{Name: "arr"}

	first := g.AddNode(&depgraph.Node{Kind: depgraph.ArrayInput, Sym: sym, FixedSize: map[int]av.Value{0: av.Integer{V: 10}}})
	second := g.AddNode(&depgraph.Node{Kind: depgraph.ArrayInput, Sym: sym, FixedSize: map[int]av.Value{1: av.Integer{V: 4}}})

	assert.Same(t, first, second)
	assert.Len(t, g.Nodes(), 1)
	assert.Equal(t, av.Integer{V: 10}, first.FixedSize[0])
	assert.Equal(t, av.Integer{V: 4}, first.FixedSize[1])
}

func TestSimplifyDropsDominatedEdge(t *testing.T) {
	g := depgraph.New()
	a := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "a"}})
	b := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "b"}})
	c := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "c"}})

	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(a, c) // dominated by a->b->c

	g.Simplify()

	assert.Len(t, g.Edges(), 2)
	for _, e := range g.Edges() {
		assert.False(t, e.Src == a && e.Dst == c, "the direct a->c edge should have been dropped as dominated")
	}
}

func TestSpreadTopDownComputesAffineFromInputs(t *testing.T) {
	g := depgraph.New()
	n := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "n"}, Range: interval.Const(5)})
	affine := g.AddNode(&depgraph.Node{
		Kind:  depgraph.Affine,
		Const: 1,
		Terms: []depgraph.AffineTerm{{Coef: 2, Node: n}},
	})
	g.AddEdge(n, affine)

	ok := g.SpreadTopDown()
	require.True(t, ok)
	assert.True(t, affine.Range.IsConst())
	assert.Equal(t, int64(11), affine.Range.Lower.(av.Integer).V)
}

func TestSpreadTopDownMultipliesProductOperands(t *testing.T) {
	g := depgraph.New()
	a := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "a"}, Range: interval.Const(3)})
	b := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "b"}, Range: interval.Const(4)})
	prod := g.AddNode(&depgraph.Node{Kind: depgraph.Product, Left: a, Right: b})
	g.AddEdge(a, prod)
	g.AddEdge(b, prod)

	ok := g.SpreadTopDown()
	require.True(t, ok)
	assert.Equal(t, int64(12), prod.Range.Lower.(av.Integer).V)
}

func TestSpreadBottomUpTightensIndexAgainstFixedSize(t *testing.T) {
	g := depgraph.New()
	arr := g.AddNode(&depgraph.Node{
		Kind:      depgraph.ArrayInput,
		Sym:       &symtab.Symbol{Name: "arr"},
		FixedSize: map[int]av.Value{0: av.Integer{V: 10}},
	})
	idx := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "i"}, Range: interval.Full()})
	g.AddLabeledEdge(idx, arr, 0)

	ok := g.SpreadBottomUp()
	require.True(t, ok)
	assert.Equal(t, int64(0), idx.Range.Lower.(av.Integer).V)
	assert.Equal(t, int64(9), idx.Range.Upper.(av.Integer).V)
	assert.Equal(t, av.Integer{V: 10}, arr.MinSize[0])
}

func TestSpreadBottomUpFailsWhenFixedSizeExcludesEveryAccess(t *testing.T) {
	g := depgraph.New()
	arr := g.AddNode(&depgraph.Node{
		Kind:      depgraph.ArrayInput,
		Sym:       &symtab.Symbol{Name: "arr"},
		FixedSize: map[int]av.Value{0: av.Integer{V: 10}},
	})
	idx := g.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: &symtab.Symbol{Name: "i"}, Range: interval.Const(99)})
	g.AddLabeledEdge(idx, arr, 0)

	ok := g.SpreadBottomUp()
	assert.False(t, ok)
	assert.True(t, idx.Range.IsBottom())
}

func TestMergeRewritesEdgesAndSymbolTable(t *testing.T) {
	g := depgraph.New()
	sym := &symtab.Symbol{Name: "arr"}
	keep := g.AddNode(&depgraph.Node{Kind: depgraph.ArrayInput, Sym: sym})
	other := &depgraph.Node{Kind: depgraph.ArrayLocal}
	// other is never added to the arena: it is referenced only by a
	// labeled edge, which Merge must still redirect to keep.
	g.AddLabeledEdge(&depgraph.Node{Kind: depgraph.Input}, other, 0)

	g.Merge(keep, other)

	edges := g.LabeledEdgesFor(keep)
	require.Len(t, edges, 1)
	assert.Same(t, keep, edges[0].Array)
	assert.Same(t, keep, g.Find(sym))
}
