// Package interval implements Range, an inclusive interval over abstract
// values, with union, intersection, widening, and arithmetic lifted from
// the underlying av algebra. See spec §4.2.
package interval

import (
	"fmt"

	"github.com/maroar/psyche-harness/internal/av"
)

// Range is the pair (Lower, Upper), both ends inclusive. Either both ends
// are fully-evaluated Integer values, or they are symbolic expressions
// combined with Min/Max at join points.
type Range struct {
	Lower av.Value
	Upper av.Value
}

// New builds a Range from the given endpoints.
func New(lower, upper av.Value) Range {
	return Range{Lower: lower, Upper: upper}
}

// Const builds the degenerate range [v, v].
func Const(v int64) Range {
	return Range{Lower: av.Integer{V: v}, Upper: av.Integer{V: v}}
}

// Full is the unconstrained [-∞, +∞] range, represented with the INT_MIN /
// INT_MAX sentinels rather than a true infinity tag, matching the harness
// target's 32-bit int domain (see spec §4.2 and §9's overflow discussion).
func Full() Range {
	return Range{Lower: av.Integer{V: MinInt}, Upper: av.Integer{V: MaxInt}}
}

// MinInt/MaxInt are the sentinel bounds used in place of true infinities;
// the harness targets a 32-bit C int.
const (
	MinInt int64 = -2147483648
	MaxInt int64 = 2147483647
)

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Lower.String(), r.Upper.String())
}

// IsConst reports whether the range is a single evaluated integer point.
func (r Range) IsConst() bool {
	l, lok := r.Lower.Evaluate().(av.Integer)
	u, uok := r.Upper.Evaluate().(av.Integer)
	return lok && uok && l.V == u.V
}

// IsEmpty reports a provably-crossed interval: both ends evaluate to
// integers and lower > upper.
func (r Range) IsEmpty() bool {
	l, lok := r.Lower.Evaluate().(av.Integer)
	u, uok := r.Upper.Evaluate().(av.Integer)
	return lok && uok && l.V > u.V
}

// IsBottom reports whether either endpoint is the av.Empty sentinel,
// meaning the range itself is undefined rather than merely unconstrained
// (distinct from IsEmpty, which means a provably-crossed but otherwise
// well-formed interval).
func (r Range) IsBottom() bool {
	return av.IsEmpty(r.Lower) || av.IsEmpty(r.Upper)
}

// Equal reports structural equality of both endpoints.
func (r Range) Equal(o Range) bool {
	return r.Lower.Equal(o.Lower) && r.Upper.Equal(o.Upper)
}

func minVal(a, b av.Value) av.Value {
	ae, aok := a.Evaluate().(av.Integer)
	be, bok := b.Evaluate().(av.Integer)
	if aok && bok {
		if ae.V <= be.V {
			return ae
		}
		return be
	}
	return av.NewNAry(av.Min, a, b).Simplify()
}

func maxVal(a, b av.Value) av.Value {
	ae, aok := a.Evaluate().(av.Integer)
	be, bok := b.Evaluate().(av.Integer)
	if aok && bok {
		if ae.V >= be.V {
			return ae
		}
		return be
	}
	return av.NewNAry(av.Max, a, b).Simplify()
}

// Union widens both ranges to their envelope: [min(l1,l2), max(u1,u2)].
func (r Range) Union(o Range) Range {
	return Range{Lower: minVal(r.Lower, o.Lower), Upper: maxVal(r.Upper, o.Upper)}
}

// Intersect narrows to the overlap: [max(l1,l2), min(u1,u2)].
func (r Range) Intersect(o Range) Range {
	result := Range{Lower: maxVal(r.Lower, o.Lower), Upper: minVal(r.Upper, o.Upper)}
	if result.IsEmpty() {
		return Range{Lower: av.Empty{}, Upper: av.Empty{}}
	}
	return result
}

func lift2(op func(a, b int64) (int64, bool), symOp av.Op, a, b av.Value) av.Value {
	ai, aok := a.Evaluate().(av.Integer)
	bi, bok := b.Evaluate().(av.Integer)
	if aok && bok {
		if v, ok := op(ai.V, bi.V); ok {
			return av.Integer{V: v}
		}
		return av.Empty{}
	}
	return av.NewNAry(symOp, a, b).Evaluate()
}

// Add lifts interval addition: [a,b] + [c,d] = [a+c, b+d].
func (r Range) Add(o Range) Range {
	add := func(a, b int64) (int64, bool) { return a + b, true }
	return Range{Lower: lift2(add, av.Add, r.Lower, o.Lower), Upper: lift2(add, av.Add, r.Upper, o.Upper)}
}

// Negate lifts unary negation: -[a,b] = [-b,-a].
func (r Range) Negate() Range {
	zero := av.Integer{V: 0}
	sub := func(a, b int64) (int64, bool) { return a - b, true }
	return Range{
		Lower: lift2(sub, av.Sub, zero, r.Upper),
		Upper: lift2(sub, av.Sub, zero, r.Lower),
	}
}

// Sub lifts interval subtraction via Add(Negate).
func (r Range) Sub(o Range) Range {
	return r.Add(o.Negate())
}

// Mul lifts interval multiplication: [a,b]*[c,d] = [min(ac,ad,bc,bd), max(...)].
func (r Range) Mul(o Range) Range {
	mul := func(a, b int64) (int64, bool) { return a * b, true }
	ac := lift2(mul, av.Mul, r.Lower, o.Lower)
	ad := lift2(mul, av.Mul, r.Lower, o.Upper)
	bc := lift2(mul, av.Mul, r.Upper, o.Lower)
	bd := lift2(mul, av.Mul, r.Upper, o.Upper)
	lower := minVal(minVal(ac, ad), minVal(bc, bd))
	upper := maxVal(maxVal(ac, ad), maxVal(bc, bd))
	return Range{Lower: lower, Upper: upper}
}

// Div lifts interval division conservatively: when the divisor interval
// may contain zero, widens to Full() rather than attempting a partition,
// matching RangeAnalysis's conservative-widening error policy (spec §4.3).
func (r Range) Div(o Range) Range {
	oi, ok := isConstInt(o)
	if ok && oi != 0 {
		div := func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		}
		return Range{Lower: lift2(div, av.Div, r.Lower, o.Lower), Upper: lift2(div, av.Div, r.Upper, o.Upper)}
	}
	return Full()
}

func isConstInt(r Range) (int64, bool) {
	if !r.IsConst() {
		return 0, false
	}
	i := r.Lower.Evaluate().(av.Integer)
	return i.V, true
}

// Shl/Shr lift shifts only when the shift amount is a constant, otherwise
// widen to Full (spec §4.1: "shifts by a non-integer term surface Empty").
func (r Range) Shl(o Range) Range {
	amt, ok := isConstInt(o)
	if !ok || amt < 0 {
		return Full()
	}
	shl := func(a, b int64) (int64, bool) { return a << uint(b), true }
	return Range{Lower: lift2(shl, av.Shl, r.Lower, o.Lower), Upper: lift2(shl, av.Shl, r.Upper, o.Upper)}
}

func (r Range) Shr(o Range) Range {
	amt, ok := isConstInt(o)
	if !ok || amt < 0 {
		return Full()
	}
	shr := func(a, b int64) (int64, bool) { return a >> uint(b), true }
	return Range{Lower: lift2(shr, av.Shr, r.Lower, o.Lower), Upper: lift2(shr, av.Shr, r.Upper, o.Upper)}
}

// Inc/Dec implement post/pre increment-decrement lifting (x++, x--).
func (r Range) Inc() Range { return r.Add(Const(1)) }
func (r Range) Dec() Range { return r.Sub(Const(1)) }

// Widen implements the widening operator used by the loop fix-point: given
// the history of ranges observed for a symbol (oldest first), if the lower
// bound strictly decreased between any two consecutive entries among the
// last three, widen it to -∞; symmetrically for the upper bound growing
// to +∞. See spec
// §4.2 and Design Note "Loop fix-point termination".
func Widen(history []Range) Range {
	n := len(history)
	if n == 0 {
		return Full()
	}
	cur := history[n-1]
	lower := cur.Lower
	upper := cur.Upper
	if lowerIsDecreasing(history) {
		lower = av.Integer{V: MinInt}
	}
	if upperIsGrowing(history) {
		upper = av.Integer{V: MaxInt}
	}
	return Range{Lower: lower, Upper: upper}
}

func lastThree(history []Range) []Range {
	n := len(history)
	if n <= 3 {
		return history
	}
	return history[n-3:]
}

// lowerIsDecreasing inspects the last three entries of the per-symbol
// history and reports whether the lower bound has strictly decreased.
func lowerIsDecreasing(history []Range) bool {
	h := lastThree(history)
	if len(h) < 2 {
		return false
	}
	for i := 1; i < len(h); i++ {
		prev, pok := h[i-1].Lower.Evaluate().(av.Integer)
		cur, cok := h[i].Lower.Evaluate().(av.Integer)
		if !pok || !cok {
			continue
		}
		if cur.V < prev.V {
			return true
		}
	}
	return false
}

// upperIsGrowing mirrors lowerIsDecreasing for the upper bound.
func upperIsGrowing(history []Range) bool {
	h := lastThree(history)
	if len(h) < 2 {
		return false
	}
	for i := 1; i < len(h); i++ {
		prev, pok := h[i-1].Upper.Evaluate().(av.Integer)
		cur, cok := h[i].Upper.Evaluate().(av.Integer)
		if !pok || !cok {
			continue
		}
		if cur.V > prev.V {
			return true
		}
	}
	return false
}
