package rangeanalysis

import (
	"fmt"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// ArrayInfo accumulates what RangeAnalysis has learned about one array (or
// pointer classified as an array) symbol: the observed index range per
// dimension, and whether each dimension's length was fixed by the
// declarator. Grounded on original_source/src/generator/RangeAnalysis.h's
// `ArrayInfo` struct.
type ArrayInfo struct {
	Sym              *symtab.Symbol
	DimensionRange   map[int]interval.Range
	DimensionIsFixed map[int]bool
}

func NewArrayInfo(sym *symtab.Symbol) *ArrayInfo {
	return &ArrayInfo{
		Sym:              sym,
		DimensionRange:   map[int]interval.Range{},
		DimensionIsFixed: map[int]bool{},
	}
}

func (a *ArrayInfo) Name() string { return a.Sym.Name }

// AddRange folds r into the observed range for dimension, unioning with
// anything already recorded there (an array indexed at multiple sites
// accumulates the envelope of every observed index value).
func (a *ArrayInfo) AddRange(dimension int, r interval.Range) {
	if existing, ok := a.DimensionRange[dimension]; ok {
		a.DimensionRange[dimension] = existing.Union(r)
		return
	}
	a.DimensionRange[dimension] = r
}

// MarkFixed records that dimension's length came from a declarator
// constant rather than from observed accesses.
func (a *ArrayInfo) MarkFixed(dimension int) {
	a.DimensionIsFixed[dimension] = true
}

// DimensionLength returns the minimum array length the harness must
// allocate for dimension, derived as upper(observed index range) + 1;
// deptypes uses it for a Vector's dimension sizes (spec §4.5's bottom-up
// array-size propagation computes the same shape).
func (a *ArrayInfo) DimensionLength(dimension int) av.Value {
	r, ok := a.DimensionRange[dimension]
	if !ok {
		return av.Integer{V: 1}
	}
	upper := r.Upper.Evaluate()
	return av.NewNAry(av.Add, upper, av.Integer{V: 1}).Evaluate()
}

// Dimensions returns the known dimension indices in ascending order.
func (a *ArrayInfo) Dimensions() []int {
	out := make([]int, 0, len(a.DimensionRange))
	for d := range a.DimensionRange {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (a *ArrayInfo) String() string {
	return fmt.Sprintf("ArrayInfo{%s, dims=%v}", a.Sym.Name, a.Dimensions())
}
