// Package av implements the abstract-value algebra: a small symbolic
// arithmetic expression tree over integer constants and program symbols,
// used by range analysis and dependence-graph construction to reason about
// numeric bounds without evaluating the program.
package av

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maroar/psyche-harness/internal/symtab"
)

// Op is an n-ary arithmetic operator.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Shl
	Shr
	Min
	Max
)

func (op Op) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Shl:
		return "<<"
	case Shr:
		return ">>"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "?"
	}
}

// commutative operators may have their terms sorted canonically; Sub and
// Div are positional and must never be flattened or reordered.
func (op Op) commutative() bool {
	switch op {
	case Add, Mul, Min, Max:
		return true
	default:
		return false
	}
}

// Kind tags the variant a Value holds.
type Kind int

const (
	KInteger Kind = iota
	KSymbol
	KNAry
	KEmpty
)

// Value is the closed tagged-union of abstract values: Integer, Symbol,
// NAry or Empty. Values are immutable once constructed; all transformations
// return a new Value.
type Value interface {
	Kind() Kind
	String() string
	// Evaluate reduces constant subtrees, returning a new Value.
	Evaluate() Value
	// Develop distributes Mul over Add/Sub.
	Develop() Value
	// Simplify flattens same-op nests, folds identities, sorts terms
	// canonically.
	Simplify() Value
	// SymbolDep returns the set of symbols referenced by this value.
	SymbolDep() map[*symtab.Symbol]struct{}
	// Equal reports structural equality modulo canonical form.
	Equal(other Value) bool
}

// Integer is a constant integer value.
type Integer struct {
	V int64
}

func NewInteger(v int64) Integer { return Integer{V: v} }

func (i Integer) Kind() Kind    { return KInteger }
func (i Integer) String() string { return fmt.Sprintf("%d", i.V) }
func (i Integer) Evaluate() Value { return i }
func (i Integer) Develop() Value  { return i }
func (i Integer) Simplify() Value { return i }
func (i Integer) SymbolDep() map[*symtab.Symbol]struct{} {
	return map[*symtab.Symbol]struct{}{}
}
func (i Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && o.V == i.V
}

// Symbol references a program variable.
type Symbol struct {
	Sym *symtab.Symbol
}

func NewSymbol(s *symtab.Symbol) Symbol { return Symbol{Sym: s} }

func (s Symbol) Kind() Kind    { return KSymbol }
func (s Symbol) String() string { return s.Sym.Name }
func (s Symbol) Evaluate() Value { return s }
func (s Symbol) Develop() Value  { return s }
func (s Symbol) Simplify() Value { return s }
func (s Symbol) SymbolDep() map[*symtab.Symbol]struct{} {
	return map[*symtab.Symbol]struct{}{s.Sym: {}}
}
func (s Symbol) Equal(other Value) bool {
	o, ok := other.(Symbol)
	return ok && o.Sym == s.Sym
}

// Empty is the identity/failure sentinel produced by division by zero,
// shifts by non-integer amounts, or other ill-formed reductions. Callers
// must check for it.
type Empty struct{}

func (Empty) Kind() Kind                                 { return KEmpty }
func (Empty) String() string                              { return "⊥" }
func (e Empty) Evaluate() Value                           { return e }
func (e Empty) Develop() Value                            { return e }
func (e Empty) Simplify() Value                           { return e }
func (Empty) SymbolDep() map[*symtab.Symbol]struct{}      { return map[*symtab.Symbol]struct{}{} }
func (e Empty) Equal(other Value) bool                    { _, ok := other.(Empty); return ok }

// IsEmpty reports whether v is the Empty sentinel.
func IsEmpty(v Value) bool { _, ok := v.(Empty); return ok }

// NAry is an n-ary operator applied to an ordered multiset of terms. For
// commutative operators, term order is canonicalized by Simplify; Sub and
// Div keep the first term as the "base" and the rest as subtrahends /
// divisors, matching the teacher's two-operand desugaring into NAry form.
type NAry struct {
	Op    Op
	Terms []Value
}

func NewNAry(op Op, terms ...Value) NAry {
	return NAry{Op: op, Terms: append([]Value(nil), terms...)}
}

func (n NAry) Kind() Kind { return KNAry }

func (n NAry) String() string {
	parts := make([]string, len(n.Terms))
	for i, t := range n.Terms {
		parts[i] = t.String()
	}
	if n.Op == Min || n.Op == Max {
		return fmt.Sprintf("%s(%s)", n.Op, strings.Join(parts, ", "))
	}
	return "(" + strings.Join(parts, " "+n.Op.String()+" ") + ")"
}

func (n NAry) SymbolDep() map[*symtab.Symbol]struct{} {
	deps := map[*symtab.Symbol]struct{}{}
	for _, t := range n.Terms {
		for s := range t.SymbolDep() {
			deps[s] = struct{}{}
		}
	}
	return deps
}

func (n NAry) Equal(other Value) bool {
	o, ok := other.(NAry)
	if !ok || o.Op != n.Op {
		return false
	}
	a := n.Simplify()
	b := o.Simplify()
	an, aok := a.(NAry)
	bn, bok := b.(NAry)
	if !aok || !bok {
		return a.Equal(b)
	}
	if len(an.Terms) != len(bn.Terms) {
		return false
	}
	for i := range an.Terms {
		if !an.Terms[i].Equal(bn.Terms[i]) {
			return false
		}
	}
	return true
}

// Evaluate reduces constant subtrees bottom-up, collapsing to a scalar
// Integer when every term reduces to one. Otherwise the evaluated terms go
// through Simplify, which merges the Integer terms of Add and Mul (and the
// subtrahends of Sub) into one constant.
func (n NAry) Evaluate() Value {
	terms := make([]Value, len(n.Terms))
	for i, t := range n.Terms {
		terms[i] = t.Evaluate()
	}
	for _, t := range terms {
		if IsEmpty(t) {
			return Empty{}
		}
	}

	allInt := true
	for _, t := range terms {
		if t.Kind() != KInteger {
			allInt = false
			break
		}
	}
	if !allInt {
		return NAry{Op: n.Op, Terms: terms}.Simplify()
	}

	vals := make([]int64, len(terms))
	for i, t := range terms {
		vals[i] = t.(Integer).V
	}

	switch n.Op {
	case Add:
		acc := int64(0)
		for _, v := range vals {
			acc += v
		}
		return Integer{acc}
	case Sub:
		acc := vals[0]
		for _, v := range vals[1:] {
			acc -= v
		}
		return Integer{acc}
	case Mul:
		acc := int64(1)
		for _, v := range vals {
			acc *= v
		}
		return Integer{acc}
	case Div:
		acc := vals[0]
		for _, v := range vals[1:] {
			if v == 0 {
				return Empty{}
			}
			acc /= v
		}
		return Integer{acc}
	case Shl:
		if len(vals) != 2 || vals[1] < 0 {
			return Empty{}
		}
		return Integer{vals[0] << uint(vals[1])}
	case Shr:
		if len(vals) != 2 || vals[1] < 0 {
			return Empty{}
		}
		return Integer{vals[0] >> uint(vals[1])}
	case Min:
		acc := vals[0]
		for _, v := range vals[1:] {
			if v < acc {
				acc = v
			}
		}
		return Integer{acc}
	case Max:
		acc := vals[0]
		for _, v := range vals[1:] {
			if v > acc {
				acc = v
			}
		}
		return Integer{acc}
	}
	return Empty{}
}

// Develop distributes Mul over Add/Sub: x*(y+z) -> x*y + x*z. Terms are
// developed first; a Mul is then distributed over its first Add/Sub
// factor and each resulting product is developed again, so a product of
// several sums expands fully. Non-Mul operators only develop their terms.
func (n NAry) Develop() Value {
	terms := make([]Value, len(n.Terms))
	for i, t := range n.Terms {
		terms[i] = t.Develop()
	}
	if n.Op != Mul {
		return NAry{Op: n.Op, Terms: terms}
	}

	for i, t := range terms {
		if nt, ok := t.(NAry); ok && (nt.Op == Add || nt.Op == Sub) {
			others := append(append([]Value(nil), terms[:i]...), terms[i+1:]...)
			distributed := make([]Value, len(nt.Terms))
			for j, inner := range nt.Terms {
				factors := append(append([]Value(nil), others...), inner)
				distributed[j] = NAry{Op: Mul, Terms: factors}.Develop()
			}
			return NAry{Op: nt.Op, Terms: distributed}
		}
	}
	return NAry{Op: n.Op, Terms: terms}
}

// Simplify flattens nested same-op associative operators, folds additive/
// multiplicative identities, and canonically sorts commutative operators'
// terms so that structurally-equal expressions compare equal.
func (n NAry) Simplify() Value {
	terms := make([]Value, 0, len(n.Terms))
	for _, t := range n.Terms {
		st := t.Simplify()
		if nt, ok := st.(NAry); ok && nt.Op == n.Op && n.Op.commutative() {
			terms = append(terms, nt.Terms...)
		} else {
			terms = append(terms, st)
		}
	}

	switch n.Op {
	case Add:
		terms = foldIdentity(terms, 0, dropZero)
	case Sub:
		if len(terms) > 1 {
			rest := foldIdentity(terms[1:], 0, dropZero)
			terms = append([]Value{terms[0]}, rest...)
		}
	case Mul:
		if containsZero(terms) {
			return Integer{0}
		}
		terms = foldIdentity(terms, 1, dropOne)
	case Min, Max:
		terms = dedupeEqual(terms)
	}

	if len(terms) == 0 {
		switch n.Op {
		case Add, Sub:
			return Integer{0}
		case Mul, Div:
			return Integer{1}
		}
	}
	if len(terms) == 1 {
		return terms[0]
	}

	if n.Op.commutative() {
		sort.SliceStable(terms, func(i, j int) bool {
			return canonicalKey(terms[i]) < canonicalKey(terms[j])
		})
	}

	return NAry{Op: n.Op, Terms: terms}
}

func containsZero(terms []Value) bool {
	for _, t := range terms {
		if i, ok := t.(Integer); ok && i.V == 0 {
			return true
		}
	}
	return false
}

func dropZero(v Value) bool { i, ok := v.(Integer); return ok && i.V == 0 }
func dropOne(v Value) bool  { i, ok := v.(Integer); return ok && i.V == 1 }

// foldIdentity merges all Integer terms into a single constant via base op
// (Add for +/-, Mul for *), dropping the constant entirely when it equals
// the operator's identity element and any non-identity terms survive.
func foldIdentity(terms []Value, identity int64, isIdentity func(Value) bool) []Value {
	var constSum int64
	haveConst := false
	out := make([]Value, 0, len(terms))
	for _, t := range terms {
		if i, ok := t.(Integer); ok {
			if !haveConst {
				constSum = identity
				haveConst = true
			}
			if identity == 0 {
				constSum += i.V
			} else {
				constSum *= i.V
			}
			continue
		}
		out = append(out, t)
	}
	if haveConst && !(constSum == identity && len(out) > 0) {
		out = append(out, Integer{constSum})
	}
	return out
}

func dedupeEqual(terms []Value) []Value {
	out := make([]Value, 0, len(terms))
	for _, t := range terms {
		dup := false
		for _, o := range out {
			if o.Equal(t) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// canonicalKey gives a stable sort key for commutative-term ordering.
func canonicalKey(v Value) string {
	switch v.Kind() {
	case KInteger:
		return "0:" + v.String()
	case KSymbol:
		return "1:" + v.String()
	default:
		return "2:" + v.String()
	}
}

// Clone returns a value equivalent to v; since Values are immutable and
// built from value types, cloning is identity, kept as a named operation
// to mirror the algebra contract of spec.md §4.1.
func Clone(v Value) Value { return v }

func Zero() Value { return Integer{0} }
func One() Value  { return Integer{1} }
