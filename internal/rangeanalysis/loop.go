package rangeanalysis

import (
	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// visitWhile implements spec §4.3's widening fix-point: execute the body
// repeatedly, widening any symbol whose range keeps moving between
// iterations, until the table stabilizes or the iteration cap is hit.
func (a *Analysis) visitWhile(s *cast.While) error {
	return a.runLoop(s.Cond, nil, s.Body)
}

// visitFor runs Init once, then treats (Cond, Body+Post) exactly like a
// While loop.
func (a *Analysis) visitFor(s *cast.For) error {
	if s.Init != nil {
		if err := a.visitStmt(s.Init); err != nil {
			return err
		}
	}
	return a.runLoop(s.Cond, s.Post, s.Body)
}

func (a *Analysis) runLoop(cond cast.Expr, post cast.Expr, body cast.Stmt) error {
	mark := a.rangeMap.Mark()
	prev := a.rangeMap.Snapshot()

	for iter := 0; iter < maxWidenIterations; iter++ {
		trueOverrides, _ := a.refineOrEmpty(cond)
		a.rangeMap.ApplyFrom(trueOverrides)

		if err := a.visitStmt(body); err != nil {
			return err
		}
		if post != nil {
			a.evalRange(post)
		}

		cur := a.rangeMap.Snapshot()
		if mapsEqual(prev, cur) {
			prev = cur
			break
		}

		widened := a.widenMaps(prev, cur)
		a.rangeMap.RestoreTo(mark)
		a.rangeMap.ApplyFrom(widened)
		prev = widened
	}

	a.rangeMap.RestoreTo(mark)
	a.rangeMap.ApplyFrom(prev)

	if cond != nil {
		_, falseOverrides := a.refineOrEmpty(cond)
		a.rangeMap.ApplyFrom(falseOverrides)
	}
	return nil
}

func (a *Analysis) refineOrEmpty(cond cast.Expr) (map[*symtab.Symbol]interval.Range, map[*symtab.Symbol]interval.Range) {
	if cond == nil {
		return map[*symtab.Symbol]interval.Range{}, map[*symtab.Symbol]interval.Range{}
	}
	return a.refine(cond)
}

func mapsEqual(a, b map[*symtab.Symbol]interval.Range) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// widenMaps records cur into each changed symbol's history and applies
// Widen, per spec §4.2/§4.3's lowerIsDecreasing/upperIsGrowing
// acceleration; symbols unchanged between prev and cur keep their value
// without consulting history.
func (a *Analysis) widenMaps(prev, cur map[*symtab.Symbol]interval.Range) map[*symtab.Symbol]interval.Range {
	out := make(map[*symtab.Symbol]interval.Range, len(cur))
	for sym, r := range cur {
		pr, existed := prev[sym]
		if existed && pr.Equal(r) {
			out[sym] = r
			continue
		}
		a.appendHistory(sym, r)
		out[sym] = interval.Widen(a.history[sym])
	}
	return out
}
