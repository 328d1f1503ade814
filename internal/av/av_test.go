package av_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/symtab"
)

var stubSymbol = symtab.Symbol{Name: "x"}

func TestIntegerEvaluateIsIdentity(t *testing.T) {
	i := av.Integer{V: 7}
	assert.Equal(t, i, i.Evaluate())
}

func TestNAryAddEvaluatesConstants(t *testing.T) {
	n := av.NewNAry(av.Add, av.Integer{V: 2}, av.Integer{V: 3})
	got := n.Evaluate()
	assert.Equal(t, av.Integer{V: 5}, got)
}

func TestNAryMulDevelopDistributesOverAdd(t *testing.T) {
	sum := av.NewNAry(av.Add, av.Integer{V: 1}, av.Integer{V: 2})
	mul := av.NewNAry(av.Mul, av.Integer{V: 3}, sum)
	developed := mul.Develop().Evaluate()
	assert.True(t, developed.Equal(av.Integer{V: 9}))
}

func TestSimplifyFlattensNestedAdd(t *testing.T) {
	inner := av.NewNAry(av.Add, av.Integer{V: 1}, av.Integer{V: 2})
	outer := av.NewNAry(av.Add, inner, av.Integer{V: 3})
	got := outer.Simplify().Evaluate()
	assert.True(t, got.Equal(av.Integer{V: 6}))
}

func TestEmptyIsDistinctSentinel(t *testing.T) {
	assert.True(t, av.IsEmpty(av.Empty{}))
	assert.False(t, av.IsEmpty(av.Integer{V: 0}))
}

func TestSymbolDepCollectsAcrossNAry(t *testing.T) {
	sym := &stubSymbol
	s := av.NewSymbol(sym)
	n := av.NewNAry(av.Add, s, av.Integer{V: 1})
	deps := n.SymbolDep()
	_, ok := deps[sym]
	assert.True(t, ok)
	assert.Len(t, deps, 1)
}
