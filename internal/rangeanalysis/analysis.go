// Package rangeanalysis implements the flow-sensitive abstract
// interpreter over cast's AST: spec.md §4.3's RangeAnalysis. It tracks a
// per-symbol Range through a function body, refining at branches and
// reaching a fix-point at loops, and records which symbols are used as
// arrays and at what index ranges, for DependentTypes and DependenceGraph
// to consume afterward.
package rangeanalysis

import (
	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/diag"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// maxWidenIterations bounds the while/for fix-point loop; the spec asks
// for "a fixed iteration cap (implementation choice, ≥ 8)".
const maxWidenIterations = 8

// AccessSite pairs an expression with the statement it was evaluated
// under, mirroring the original's (ExpressionAST*, StatementAST*) pairs
// stored per array access/definition.
type AccessSite struct {
	Expr cast.Expr
	Stmt cast.Stmt
}

type arrayAccessKey struct {
	Sym *symtab.Symbol
	Dim int
}

// Analysis holds all RangeAnalysis state for one function. Callers build
// one Analysis per analyzed function and discard it afterward (spec §5:
// "constructed in that order, destroyed in reverse order").
type Analysis struct {
	Diags *diag.Collector

	fnName string

	rangeMap *VersionedMap[*symtab.Symbol, interval.Range]
	history  map[*symtab.Symbol][]interval.Range

	parameterScope bool

	pointerIsArray   map[*symtab.Symbol]bool
	arrayInfo        map[*symtab.Symbol]*ArrayInfo
	arrayDefinitions map[*symtab.Symbol][]AccessSite
	arrayAccesses    map[arrayAccessKey][]AccessSite
	arrayAccessDepth map[*symtab.Symbol]int

	enclosingStmt cast.Stmt

	// statementsOrder_/rangeAnalysis_: the order statements were visited
	// in, and the range-table snapshot saved just before each.
	order   []cast.Stmt
	perStmt map[cast.Stmt]map[*symtab.Symbol]interval.Range
}

// Order returns the statements in visitation order, for report output
// that wants to replay the analysis step by step.
func (a *Analysis) Order() []cast.Stmt { return a.order }

// StateBefore returns the range-table snapshot recorded just before stmt
// was visited (saveState's "(stmt -> list<(sym, range)>)" per spec §4.3).
func (a *Analysis) StateBefore(stmt cast.Stmt) map[*symtab.Symbol]interval.Range {
	return a.perStmt[stmt]
}

func New(diags *diag.Collector, fnName string) *Analysis {
	return &Analysis{
		Diags:            diags,
		fnName:           fnName,
		rangeMap:         NewVersionedMap[*symtab.Symbol, interval.Range](),
		history:          map[*symtab.Symbol][]interval.Range{},
		pointerIsArray:   map[*symtab.Symbol]bool{},
		arrayInfo:        map[*symtab.Symbol]*ArrayInfo{},
		arrayDefinitions: map[*symtab.Symbol][]AccessSite{},
		arrayAccesses:    map[arrayAccessKey][]AccessSite{},
		arrayAccessDepth: map[*symtab.Symbol]int{},
		perStmt:          map[cast.Stmt]map[*symtab.Symbol]interval.Range{},
	}
}

// RangeOf returns the current range for sym, or Full() if sym has never
// been written (a global or a symbol from an unanalyzed scope).
func (a *Analysis) RangeOf(sym *symtab.Symbol) interval.Range {
	if r, ok := a.rangeMap.Get(sym); ok {
		return r
	}
	return interval.Full()
}

// PointerIsArray reports whether sym was ever indexed as an array.
func (a *Analysis) PointerIsArray(sym *symtab.Symbol) bool { return a.pointerIsArray[sym] }

// ArrayInfoFor returns the accumulated ArrayInfo for sym, or nil.
func (a *Analysis) ArrayInfoFor(sym *symtab.Symbol) *ArrayInfo { return a.arrayInfo[sym] }

// Accesses returns the recorded access sites for (sym, dim).
func (a *Analysis) Accesses(sym *symtab.Symbol, dim int) []AccessSite {
	return a.arrayAccesses[arrayAccessKey{Sym: sym, Dim: dim}]
}

// Definitions returns the recorded definition sites for sym.
func (a *Analysis) Definitions(sym *symtab.Symbol) []AccessSite {
	return a.arrayDefinitions[sym]
}

// Symbols returns every symbol currently carrying a range, for
// DependentTypes to iterate over (spec §4.4).
func (a *Analysis) Symbols() []*symtab.Symbol {
	snap := a.rangeMap.Snapshot()
	out := make([]*symtab.Symbol, 0, len(snap))
	for s := range snap {
		out = append(out, s)
	}
	return out
}

func (a *Analysis) arrayInfoFor(sym *symtab.Symbol) *ArrayInfo {
	info, ok := a.arrayInfo[sym]
	if !ok {
		info = NewArrayInfo(sym)
		a.arrayInfo[sym] = info
	}
	return info
}

// Run analyzes fn: the parameter pass initializes every parameter's range
// to Full(), then the statement pass walks the body.
func (a *Analysis) Run(fn *cast.FuncDecl) error {
	a.parameterScope = true
	for _, p := range fn.Params {
		a.rangeMap.Set(p.Sym, interval.Full())
	}
	a.parameterScope = false

	if fn.Body == nil {
		return nil
	}
	return a.visitBlock(fn.Body)
}

func (a *Analysis) saveState(stmt cast.Stmt) {
	a.enclosingStmt = stmt
	a.order = append(a.order, stmt)
	a.perStmt[stmt] = a.rangeMap.Snapshot()
}

func (a *Analysis) visitBlock(b *cast.Block) error {
	for _, s := range b.Stmts {
		if err := a.visitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analysis) visitStmt(s cast.Stmt) error {
	a.saveState(s)
	switch n := s.(type) {
	case *cast.Block:
		return a.visitBlock(n)
	case *cast.DeclStmt:
		return a.visitDecl(n.Decl)
	case *cast.ExprStmt:
		a.visitExprStmt(n.Expr)
		return nil
	case *cast.If:
		return a.visitIf(n)
	case *cast.While:
		return a.visitWhile(n)
	case *cast.For:
		return a.visitFor(n)
	case *cast.Return:
		if n.Value != nil {
			a.evalRange(n.Value)
		}
		return nil
	default:
		a.Diags.Warn(a.fnName, diag.Location{}, "unhandled statement kind %T, continuing conservatively", s)
		return nil
	}
}

func (a *Analysis) visitDecl(d *cast.VarDecl) error {
	if len(d.Dims) > 0 {
		a.classifyFixedArray(d)
	}
	if d.Init != nil {
		r := a.evalRange(d.Init)
		a.rangeMap.Set(d.Sym, r)
		a.appendHistory(d.Sym, r)
	} else {
		a.rangeMap.Set(d.Sym, interval.Full())
	}
	return nil
}

func (a *Analysis) classifyFixedArray(d *cast.VarDecl) {
	info := a.arrayInfoFor(d.Sym)
	for dim, dimExpr := range d.Dims {
		if dimExpr == nil {
			continue
		}
		r := a.evalRange(dimExpr)
		length := r.Upper
		upperIdx := av.NewNAry(av.Sub, length, av.Integer{V: 1}).Evaluate()
		info.AddRange(dim, interval.New(av.Integer{V: 0}, upperIdx))
		info.MarkFixed(dim)
	}
}

func (a *Analysis) appendHistory(sym *symtab.Symbol, r interval.Range) {
	a.history[sym] = append(a.history[sym], r)
}

// visitExprStmt handles a bare expression statement: assignment (plain or
// to an array element), a call for side effects, or an increment/decrement.
func (a *Analysis) visitExprStmt(e cast.Expr) {
	bin, ok := e.(*cast.Binary)
	if ok && bin.Op == cast.OpAssign {
		a.visitAssign(bin.Left, bin.Right)
		return
	}
	a.evalRange(e)
}

func (a *Analysis) visitAssign(lhs, rhs cast.Expr) {
	value := a.evalRange(rhs)

	switch target := lhs.(type) {
	case *cast.Ident:
		a.rangeMap.Set(target.Sym, value)
		a.appendHistory(target.Sym, value)
		a.checkForArrayDefinition(target.Sym, rhs)
	case *cast.Index:
		base, idxs := flattenIndex(target)
		if base == nil || base.Sym == nil {
			a.Diags.Warn(a.fnName, diag.Location{}, "array write through an unresolved base expression")
			return
		}
		a.recordArrayAccesses(base.Sym, idxs)
	default:
		a.Diags.Warn(a.fnName, diag.Location{}, "unsupported assignment target %T, widening conservatively", lhs)
	}
}

// checkForArrayDefinition implements "per definition p = e where e is a
// call or identifier, store in arrayDefinitions_[p]" (spec §4.3).
func (a *Analysis) checkForArrayDefinition(sym *symtab.Symbol, rhs cast.Expr) {
	switch rhs.(type) {
	case *cast.Call, *cast.Ident:
		a.arrayDefinitions[sym] = append(a.arrayDefinitions[sym], AccessSite{Expr: rhs, Stmt: a.enclosingStmt})
	}
}

// flattenIndex walks an Index chain down to its base identifier, returning
// the per-dimension index expressions ordered so that index[0] is the
// bracket written closest to the identifier (dimension 0 per spec §4.3
// "the outermost index is dimension 0" -- read here as the first bracket
// applied to the base, i.e. `a` in `a[i][j]` is indexed by `i` at
// dimension 0 and by `j` at dimension 1).
func flattenIndex(e *cast.Index) (*cast.Ident, []cast.Expr) {
	var idxs []cast.Expr
	cur := e
	for {
		idxs = append(idxs, cur.Idx)
		inner, ok := cur.Object.(*cast.Index)
		if !ok {
			break
		}
		cur = inner
	}
	for i, j := 0, len(idxs)-1; i < j; i, j = i+1, j-1 {
		idxs[i], idxs[j] = idxs[j], idxs[i]
	}
	ident, _ := cur.Object.(*cast.Ident)
	return ident, idxs
}

func (a *Analysis) recordArrayAccesses(sym *symtab.Symbol, idxs []cast.Expr) {
	a.pointerIsArray[sym] = true
	if len(idxs) > a.arrayAccessDepth[sym] {
		a.arrayAccessDepth[sym] = len(idxs)
	}
	info := a.arrayInfoFor(sym)
	for dim, idxExpr := range idxs {
		r := a.evalRange(idxExpr)
		info.AddRange(dim, r)
		key := arrayAccessKey{Sym: sym, Dim: dim}
		a.arrayAccesses[key] = append(a.arrayAccesses[key], AccessSite{Expr: idxExpr, Stmt: a.enclosingStmt})
	}
}

// evalRange evaluates e under the current range map, per "Assignment x = e
// evaluates e under the current map to a Range" (spec §4.3). Unhandled
// expression shapes widen conservatively to Full() rather than erroring:
// "failures are conservative widening ... set the written range to
// [-∞,+∞] and continue."
func (a *Analysis) evalRange(e cast.Expr) interval.Range {
	switch n := e.(type) {
	case *cast.IntLit:
		return interval.Const(n.Value)
	case *cast.Ident:
		return a.RangeOf(n.Sym)
	case *cast.Binary:
		return a.evalBinary(n)
	case *cast.Unary:
		operand := a.evalRange(n.Operand)
		if n.Not {
			return interval.New(av.Integer{V: 0}, av.Integer{V: 1})
		}
		return operand.Negate()
	case *cast.IncDec:
		cur := a.evalRange(n.Operand)
		var next interval.Range
		if n.Inc {
			next = cur.Inc()
		} else {
			next = cur.Dec()
		}
		if ident, ok := n.Operand.(*cast.Ident); ok {
			a.rangeMap.Set(ident.Sym, next)
			a.appendHistory(ident.Sym, next)
		}
		if n.Prefix {
			return next
		}
		return cur
	case *cast.Index:
		base, idxs := flattenIndex(n)
		if base != nil && base.Sym != nil {
			a.recordArrayAccesses(base.Sym, idxs)
		}
		return interval.Full()
	case *cast.Call:
		for _, arg := range n.Args {
			a.evalRange(arg)
		}
		return interval.Full()
	default:
		a.Diags.Warn(a.fnName, diag.Location{}, "unhandled expression kind %T, widening to full range", e)
		return interval.Full()
	}
}

func (a *Analysis) evalBinary(n *cast.Binary) interval.Range {
	if n.Op == cast.OpAssign {
		a.visitAssign(n.Left, n.Right)
		return a.evalRange(n.Left)
	}
	l := a.evalRange(n.Left)
	r := a.evalRange(n.Right)
	switch n.Op {
	case cast.OpAdd:
		return l.Add(r)
	case cast.OpSub:
		return l.Sub(r)
	case cast.OpMul:
		return l.Mul(r)
	case cast.OpDiv:
		return l.Div(r)
	case cast.OpMod:
		// Modulo's result range is not modeled; widen conservatively.
		return interval.Full()
	case cast.OpShl:
		return l.Shl(r)
	case cast.OpShr:
		return l.Shr(r)
	case cast.OpLT, cast.OpLE, cast.OpGT, cast.OpGE, cast.OpEQ, cast.OpNE:
		// A relation's value (as an expression, not a condition) is a
		// boolean: conservative [0,1].
		return interval.New(av.Integer{V: 0}, av.Integer{V: 1})
	default:
		return interval.Full()
	}
}
