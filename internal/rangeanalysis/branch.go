package rangeanalysis

import (
	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// visitIf implements spec §4.3's if-then-else rule: evaluate the
// condition, refine a snapshot for each branch, visit each branch under
// its own snapshot, then union the two post-branch tables at the join
// point.
func (a *Analysis) visitIf(s *cast.If) error {
	mark := a.rangeMap.Mark()

	trueOverrides, falseOverrides := a.refine(s.Cond)

	a.rangeMap.ApplyFrom(trueOverrides)
	if err := a.visitStmt(s.Then); err != nil {
		return err
	}
	thenSnap := a.rangeMap.Snapshot()
	a.rangeMap.RestoreTo(mark)

	a.rangeMap.ApplyFrom(falseOverrides)
	if s.Else != nil {
		if err := a.visitStmt(s.Else); err != nil {
			return err
		}
	}
	elseSnap := a.rangeMap.Snapshot()
	a.rangeMap.RestoreTo(mark)

	merged := mapUnion(thenSnap, elseSnap)
	a.rangeMap.ApplyFrom(merged)
	return nil
}

// mapUnion merges two range snapshots key-by-key, unioning the ranges for
// keys present in both and keeping whichever single value exists for a
// key present in only one (a symbol untouched by a branch keeps its
// pre-branch value, which the other snapshot's key carries forward
// unchanged since both started from the same table).
func mapUnion(a, b map[*symtab.Symbol]interval.Range) map[*symtab.Symbol]interval.Range {
	out := make(map[*symtab.Symbol]interval.Range, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = existing.Union(v)
		} else {
			out[k] = v
		}
	}
	return out
}

// refine computes the per-symbol range overrides implied by cond being
// true and by cond being false, per the table in spec §4.3. Conditions
// outside the "symbol/literal relop symbol/literal" shape are left
// unrefined (empty maps): conservative, but sound, since an empty override
// just means the pre-branch range carries through unchanged.
func (a *Analysis) refine(cond cast.Expr) (trueOverrides, falseOverrides map[*symtab.Symbol]interval.Range) {
	trueOverrides = map[*symtab.Symbol]interval.Range{}
	falseOverrides = map[*symtab.Symbol]interval.Range{}

	bin, ok := cond.(*cast.Binary)
	if !ok || !isRelational(bin.Op) {
		return trueOverrides, falseOverrides
	}

	lSym, lRange, lOk := a.operandRange(bin.Left)
	rSym, rRange, rOk := a.operandRange(bin.Right)
	if !lOk || !rOk {
		return trueOverrides, falseOverrides
	}

	aTrue, bTrue, aFalse, bFalse := refinePair(bin.Op, lRange, rRange)
	if lSym != nil {
		trueOverrides[lSym] = aTrue
		falseOverrides[lSym] = aFalse
	}
	if rSym != nil {
		trueOverrides[rSym] = bTrue
		falseOverrides[rSym] = bFalse
	}
	return trueOverrides, falseOverrides
}

func isRelational(op cast.BinOp) bool {
	switch op {
	case cast.OpLT, cast.OpLE, cast.OpGT, cast.OpGE, cast.OpEQ, cast.OpNE:
		return true
	default:
		return false
	}
}

// operandRange resolves e to (symbol-or-nil, range, ok): an Ident carries
// its current range and its symbol (so refinement can write back a new
// range for it); an IntLit carries the degenerate [v,v] range and no
// symbol. Anything else fails resolution.
func (a *Analysis) operandRange(e cast.Expr) (*symtab.Symbol, interval.Range, bool) {
	switch n := e.(type) {
	case *cast.Ident:
		return n.Sym, a.RangeOf(n.Sym), true
	case *cast.IntLit:
		return nil, interval.Const(n.Value), true
	default:
		return nil, interval.Range{}, false
	}
}

// refinePair implements the table from spec §4.3 for two ranges a=[la,ua],
// b=[lb,ub] under relation `a op b`, returning the narrowed ranges for a
// and b on the true branch and on the false branch.
func refinePair(op cast.BinOp, a, b interval.Range) (aTrue, bTrue, aFalse, bFalse interval.Range) {
	switch op {
	case cast.OpLT:
		aTrue = interval.New(a.Lower, avMin(avDec(b.Upper), a.Upper))
		bTrue = interval.New(avMax(avInc(a.Lower), b.Lower), b.Upper)
		aFalse = interval.New(avMax(a.Lower, b.Lower), a.Upper)
		bFalse = interval.New(b.Lower, avMin(a.Upper, b.Upper))
		return
	case cast.OpLE:
		aTrue = interval.New(a.Lower, avMin(b.Upper, a.Upper))
		bTrue = interval.New(avMax(a.Lower, b.Lower), b.Upper)
		aFalse = interval.New(avMax(avInc(a.Lower), b.Lower), a.Upper)
		bFalse = interval.New(b.Lower, avMin(avDec(a.Upper), b.Upper))
		return
	case cast.OpGT:
		// a > b  <=>  b < a: reuse the `<` table with operands swapped.
		bT, aT, bF, aF := refinePair(cast.OpLT, b, a)
		return aT, bT, aF, bF
	case cast.OpGE:
		bT, aT, bF, aF := refinePair(cast.OpLE, b, a)
		return aT, bT, aF, bF
	case cast.OpEQ:
		narrow := interval.New(avMax(a.Lower, b.Lower), avMin(a.Upper, b.Upper))
		return narrow, narrow, a, b
	case cast.OpNE:
		narrow := interval.New(avMax(a.Lower, b.Lower), avMin(a.Upper, b.Upper))
		return a, b, narrow, narrow
	default:
		return a, b, a, b
	}
}

func avMin(x, y av.Value) av.Value {
	xi, xok := x.Evaluate().(av.Integer)
	yi, yok := y.Evaluate().(av.Integer)
	if xok && yok {
		if xi.V <= yi.V {
			return xi
		}
		return yi
	}
	return av.NewNAry(av.Min, x, y).Simplify()
}

func avMax(x, y av.Value) av.Value {
	xi, xok := x.Evaluate().(av.Integer)
	yi, yok := y.Evaluate().(av.Integer)
	if xok && yok {
		if xi.V >= yi.V {
			return xi
		}
		return yi
	}
	return av.NewNAry(av.Max, x, y).Simplify()
}

func avInc(v av.Value) av.Value { return av.NewNAry(av.Add, v, av.Integer{V: 1}).Evaluate() }
func avDec(v av.Value) av.Value { return av.NewNAry(av.Sub, v, av.Integer{V: 1}).Evaluate() }
