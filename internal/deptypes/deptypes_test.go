package deptypes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/deptypes"
	"github.com/maroar/psyche-harness/internal/diag"
	"github.com/maroar/psyche-harness/internal/rangeanalysis"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// runOn builds an Analysis over fn and returns its classified Context.
func runOn(t *testing.T, fn *cast.FuncDecl) (*rangeanalysis.Analysis, *deptypes.Context) {
	t.Helper()
	ra := rangeanalysis.New(diag.NewCollector(), fn.Name)
	require.NoError(t, ra.Run(fn))
	return ra, deptypes.Build(ra)
}

func TestClassifyConstForSinglePointRange(t *testing.T) {
	cSym := &symtab.Symbol{Name: "c", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}}
	fn := &cast.FuncDecl{
		Name: "only_const",
		Body: &cast.Block{Stmts: []cast.Stmt{
			&cast.DeclStmt{Decl: &cast.VarDecl{Name: "c", Sym: cSym, Init: &cast.IntLit{Value: 42}}},
		}},
	}
	_, ctx := runOn(t, fn)

	typ, ok := ctx.Lookup(cSym)
	require.True(t, ok)
	cval, ok := typ.(deptypes.Const)
	require.True(t, ok)
	assert.Equal(t, "42", cval.Value.String())
}

func TestClassifyRangeForUnboundedParameter(t *testing.T) {
	nSym := &symtab.Symbol{Name: "n", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}, IsParam: true}
	fn := &cast.FuncDecl{
		Name:   "identity",
		Params: []*cast.ParamDecl{{Name: "n", Sym: nSym}},
		Body:   &cast.Block{Stmts: []cast.Stmt{&cast.Return{Value: &cast.Ident{Name: "n", Sym: nSym}}}},
	}
	_, ctx := runOn(t, fn)

	typ, ok := ctx.Lookup(nSym)
	require.True(t, ok)
	_, ok = typ.(deptypes.Range)
	assert.True(t, ok)
}

func TestClassifyVectorForIndexedArray(t *testing.T) {
	arrSym := &symtab.Symbol{Name: "arr", Kind: symtab.Pointer, Type: symtab.Type{Base: "int", PointerDeep: 1}, IsParam: true}
	iSym := &symtab.Symbol{Name: "i", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}}
	fn := &cast.FuncDecl{
		Name:   "touch",
		Params: []*cast.ParamDecl{{Name: "arr", Sym: arrSym}},
		Body: &cast.Block{Stmts: []cast.Stmt{
			&cast.DeclStmt{Decl: &cast.VarDecl{Name: "i", Sym: iSym, Init: &cast.IntLit{Value: 0}}},
			&cast.ExprStmt{Expr: &cast.Binary{
				Op:   cast.OpAssign,
				Left: &cast.Index{Object: &cast.Ident{Name: "arr", Sym: arrSym}, Idx: &cast.Ident{Name: "i", Sym: iSym}},
				Right: &cast.IntLit{Value: 7},
			}},
		}},
	}
	_, ctx := runOn(t, fn)

	typ, ok := ctx.Lookup(arrSym)
	require.True(t, ok)
	vec, ok := typ.(deptypes.Vector)
	require.True(t, ok)
	assert.Len(t, vec.Dimensions, 1)
}

func TestClassifyRangeForUnindexedPointerParameter(t *testing.T) {
	pSym := &symtab.Symbol{Name: "p", Kind: symtab.Pointer, Type: symtab.Type{Base: "int", PointerDeep: 1}, IsParam: true}
	fn := &cast.FuncDecl{
		Name:   "noop",
		Params: []*cast.ParamDecl{{Name: "p", Sym: pSym}},
		Body:   &cast.Block{},
	}
	_, ctx := runOn(t, fn)

	typ, ok := ctx.Lookup(pSym)
	require.True(t, ok)
	// Never indexed, so PointerIsArray is false: classify falls through to
	// the scalar Const/Range path rather than Vector or BuiltIn.
	_, ok = typ.(deptypes.Range)
	assert.True(t, ok)
}
