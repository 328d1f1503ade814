// Package deptypes implements spec.md §4.4: classifying every analyzed
// symbol into a DependentType (Const, Range, Vector, or BuiltIn) from the
// facts RangeAnalysis collected. Grounded on
// original_source/src/generator/DependentTypesGenerator.{h,cpp}.
package deptypes

import (
	"fmt"
	"strings"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/rangeanalysis"
	"github.com/maroar/psyche-harness/internal/symtab"
	"github.com/maroar/psyche-harness/internal/typespell"
)

// Type is the closed set of dependent-type variants.
type Type interface {
	BaseType() string
	String() string
}

type base struct {
	Base string
}

func (b base) BaseType() string { return b.Base }

// Const is a symbol whose range analysis collapsed to a single value.
type Const struct {
	base
	Value av.Value
}

func (c Const) String() string { return fmt.Sprintf("%s = %s", c.Base, c.Value.String()) }

// Range is a scalar symbol with a non-degenerate range.
type Range struct {
	base
	Range interval.Range
}

func (r Range) String() string { return fmt.Sprintf("%s %s", r.Base, r.Range.String()) }

// Vector is a symbol classified as an array with known dimension bounds.
type Vector struct {
	base
	Dimensions []av.Value
}

func (v Vector) String() string {
	parts := make([]string, len(v.Dimensions))
	for i, d := range v.Dimensions {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s[%s]", v.Base, strings.Join(parts, "]["))
}

// BuiltIn is the fallback for a symbol the analysis could say nothing
// useful about: emitted with no constraint beyond its declared type.
type BuiltIn struct {
	base
}

func (b BuiltIn) String() string { return b.Base }

// Context maps every classified symbol to its DependentType, the Go
// analogue of DependentTypesGenerator::typeContext_.
type Context struct {
	entries map[*symtab.Symbol]Type
}

func (c *Context) Lookup(sym *symtab.Symbol) (Type, bool) {
	t, ok := c.entries[sym]
	return t, ok
}

func (c *Context) Symbols() []*symtab.Symbol {
	out := make([]*symtab.Symbol, 0, len(c.entries))
	for s := range c.entries {
		out = append(out, s)
	}
	return out
}

// Build classifies every symbol ra knows a range for, per spec §4.4:
//   - not pointerIsArray: Const if the range is a single point, else Range.
//   - pointerIsArray with an ArrayInfo: Vector of the recorded dimension
//     lengths.
//   - pointerIsArray without an ArrayInfo (indexed nowhere, just flagged):
//     BuiltIn.
func Build(ra *rangeanalysis.Analysis) *Context {
	ctx := &Context{entries: map[*symtab.Symbol]Type{}}
	for _, sym := range ra.Symbols() {
		ctx.entries[sym] = classify(ra, sym)
	}
	return ctx
}

func classify(ra *rangeanalysis.Analysis, sym *symtab.Symbol) Type {
	spelled := typespell.SpellValueTypeName(sym.Type)

	if !ra.PointerIsArray(sym) {
		r := ra.RangeOf(sym)
		if r.IsConst() {
			return Const{base: base{Base: spelled}, Value: r.Lower.Evaluate()}
		}
		return Range{base: base{Base: spelled}, Range: r}
	}

	info := ra.ArrayInfoFor(sym)
	if info == nil {
		return BuiltIn{base: base{Base: spelled}}
	}

	dims := info.Dimensions()
	lengths := make([]av.Value, len(dims))
	for i, d := range dims {
		lengths[i] = info.DimensionLength(d)
	}
	return Vector{base: base{Base: spelled}, Dimensions: lengths}
}
