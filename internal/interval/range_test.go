package interval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/interval"
)

func TestConstIsConstAndNotEmpty(t *testing.T) {
	r := interval.Const(5)
	assert.True(t, r.IsConst())
	assert.False(t, r.IsEmpty())
}

func TestAddLiftsEndpoints(t *testing.T) {
	a := interval.New(av.Integer{V: 1}, av.Integer{V: 3})
	b := interval.New(av.Integer{V: 10}, av.Integer{V: 20})
	got := a.Add(b)
	assert.Equal(t, av.Integer{V: 11}, got.Lower)
	assert.Equal(t, av.Integer{V: 23}, got.Upper)
}

func TestMulCoversAllFourCrossProducts(t *testing.T) {
	a := interval.New(av.Integer{V: -2}, av.Integer{V: 3})
	b := interval.New(av.Integer{V: -5}, av.Integer{V: 1})
	got := a.Mul(b)
	assert.Equal(t, int64(-15), got.Lower.(av.Integer).V)
	assert.Equal(t, int64(10), got.Upper.(av.Integer).V)
}

func TestDivByRangeStraddlingZeroWidensToFull(t *testing.T) {
	a := interval.Const(10)
	b := interval.New(av.Integer{V: -1}, av.Integer{V: 1})
	got := a.Div(b)
	assert.Equal(t, interval.Full(), got)
}

func TestIntersectOfDisjointRangesIsBottom(t *testing.T) {
	a := interval.New(av.Integer{V: 0}, av.Integer{V: 5})
	b := interval.New(av.Integer{V: 10}, av.Integer{V: 20})
	got := a.Intersect(b)
	assert.True(t, got.IsBottom())
}

func TestUnionTakesEnvelope(t *testing.T) {
	a := interval.New(av.Integer{V: 0}, av.Integer{V: 5})
	b := interval.New(av.Integer{V: -3}, av.Integer{V: 2})
	got := a.Union(b)
	assert.Equal(t, int64(-3), got.Lower.(av.Integer).V)
	assert.Equal(t, int64(5), got.Upper.(av.Integer).V)
}

func TestWidenDetectsStrictlyDecreasingLower(t *testing.T) {
	history := []interval.Range{
		interval.New(av.Integer{V: 10}, av.Integer{V: 10}),
		interval.New(av.Integer{V: 5}, av.Integer{V: 10}),
		interval.New(av.Integer{V: 0}, av.Integer{V: 10}),
	}
	got := interval.Widen(history)
	assert.Equal(t, av.Integer{V: interval.MinInt}, got.Lower)
	assert.Equal(t, av.Integer{V: 10}, got.Upper)
}

func TestWidenLeavesStableBoundAlone(t *testing.T) {
	history := []interval.Range{
		interval.New(av.Integer{V: 0}, av.Integer{V: 3}),
		interval.New(av.Integer{V: 0}, av.Integer{V: 6}),
		interval.New(av.Integer{V: 0}, av.Integer{V: 9}),
	}
	got := interval.Widen(history)
	assert.Equal(t, av.Integer{V: 0}, got.Lower)
	assert.Equal(t, av.Integer{V: interval.MaxInt}, got.Upper)
}

func TestShiftByNonConstantWidensToFull(t *testing.T) {
	a := interval.Const(8)
	nonConst := interval.New(av.Integer{V: 0}, av.Integer{V: 2})
	assert.Equal(t, interval.Full(), a.Shl(nonConst))
}
