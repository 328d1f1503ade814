package rangeanalysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/diag"
	"github.com/maroar/psyche-harness/internal/rangeanalysis"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// buildSumLoop constructs, without going through cparse, the AST for:
//
//	int f(int *arr) {
//	    int i;
//	    int s;
//	    s = 0;
//	    for (i = 0; i < 10; i = i + 1) {
//	        s = s + arr[i];
//	    }
//	    return s;
//	}
func buildSumLoop() *cast.FuncDecl {
	arrSym := &symtab.Symbol{Name: "arr", Kind: symtab.Pointer, Type: symtab.Type{Base: "int", PointerDeep: 1}, IsParam: true}
	iSym := &symtab.Symbol{Name: "i", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}}
	sSym := &symtab.Symbol{Name: "s", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}}

	arrIdent := &cast.Ident{Name: "arr", Sym: arrSym}
	iIdent := &cast.Ident{Name: "i", Sym: iSym}
	sIdent := &cast.Ident{Name: "s", Sym: sSym}

	body := &cast.Block{Stmts: []cast.Stmt{
		&cast.DeclStmt{Decl: &cast.VarDecl{Name: "i", Sym: iSym}},
		&cast.DeclStmt{Decl: &cast.VarDecl{Name: "s", Sym: sSym, Init: &cast.IntLit{Value: 0}}},
		&cast.For{
			Init: &cast.ExprStmt{Expr: &cast.Binary{Op: cast.OpAssign, Left: iIdent, Right: &cast.IntLit{Value: 0}}},
			Cond: &cast.Binary{Op: cast.OpLT, Left: iIdent, Right: &cast.IntLit{Value: 10}},
			Post: &cast.Binary{Op: cast.OpAssign, Left: iIdent, Right: &cast.Binary{Op: cast.OpAdd, Left: iIdent, Right: &cast.IntLit{Value: 1}}},
			Body: &cast.Block{Stmts: []cast.Stmt{
				&cast.ExprStmt{Expr: &cast.Binary{
					Op:   cast.OpAssign,
					Left: sIdent,
					Right: &cast.Binary{
						Op:    cast.OpAdd,
						Left:  sIdent,
						Right: &cast.Index{Object: arrIdent, Idx: iIdent},
					},
				}},
			}},
		},
		&cast.Return{Value: sIdent},
	}}

	return &cast.FuncDecl{
		Name:   "f",
		Params: []*cast.ParamDecl{{Name: "arr", Sym: arrSym}},
		Body:   body,
	}
}

func TestRunAnalyzesLoopWithArrayAccess(t *testing.T) {
	fn := buildSumLoop()
	ra := rangeanalysis.New(diag.NewCollector(), "f")
	err := ra.Run(fn)
	require.NoError(t, err)

	arrSym := fn.Params[0].Sym
	assert.True(t, ra.PointerIsArray(arrSym))

	info := ra.ArrayInfoFor(arrSym)
	require.NotNil(t, info)
	assert.Contains(t, info.Dimensions(), 0)

	accesses := ra.Accesses(arrSym, 0)
	assert.NotEmpty(t, accesses)
}

func TestRunWidensUnboundedParameter(t *testing.T) {
	nSym := &symtab.Symbol{Name: "n", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}, IsParam: true}
	fn := &cast.FuncDecl{
		Name:   "identity",
		Params: []*cast.ParamDecl{{Name: "n", Sym: nSym}},
		Body:   &cast.Block{Stmts: []cast.Stmt{&cast.Return{Value: &cast.Ident{Name: "n", Sym: nSym}}}},
	}
	ra := rangeanalysis.New(diag.NewCollector(), "identity")
	require.NoError(t, ra.Run(fn))
	assert.False(t, ra.RangeOf(nSym).IsConst())
}

func TestBranchJoinUnionsBothArms(t *testing.T) {
	xSym := &symtab.Symbol{Name: "x", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}}
	xIdent := &cast.Ident{Name: "x", Sym: xSym}
	fn := &cast.FuncDecl{
		Name: "clamp",
		Body: &cast.Block{Stmts: []cast.Stmt{
			&cast.DeclStmt{Decl: &cast.VarDecl{Name: "x", Sym: xSym, Init: &cast.IntLit{Value: 5}}},
			&cast.If{
				Cond: &cast.Binary{Op: cast.OpLT, Left: xIdent, Right: &cast.IntLit{Value: 100}},
				Then: &cast.ExprStmt{Expr: &cast.Binary{Op: cast.OpAssign, Left: xIdent, Right: &cast.IntLit{Value: 1}}},
				Else: &cast.ExprStmt{Expr: &cast.Binary{Op: cast.OpAssign, Left: xIdent, Right: &cast.IntLit{Value: 1}}},
			},
		}},
	}
	ra := rangeanalysis.New(diag.NewCollector(), "clamp")
	require.NoError(t, ra.Run(fn))
	assert.True(t, ra.RangeOf(xSym).IsConst())
}
