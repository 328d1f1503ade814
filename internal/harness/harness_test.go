package harness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/config"
	"github.com/maroar/psyche-harness/internal/depgraph"
	"github.com/maroar/psyche-harness/internal/deptypes"
	"github.com/maroar/psyche-harness/internal/diag"
	"github.com/maroar/psyche-harness/internal/harness"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/rangeanalysis"
	"github.com/maroar/psyche-harness/internal/symtab"
)

func TestEmitIncludesStubHeaderAndSourceFile(t *testing.T) {
	fn := &cast.FuncDecl{Name: "f", Body: &cast.Block{}}
	graph := depgraph.New()

	src := harness.Emit(fn, graph, &deptypes.Context{}, harness.Params{
		SourceBaseName: "foo",
		IncludeStub:    "../../headerStub.c",
		Opts:           config.Defaults(),
	})

	assert.Contains(t, src, `#include "../../headerStub.c"`)
	assert.Contains(t, src, `#include "../foo.c"`)
	assert.Contains(t, src, "int main(int argc, const char* argv[]) {")
	assert.Contains(t, src, "f();")
}

// TestEmitWritesConstantScalarFromClassifiedConst runs a real
// RangeAnalysis+DependentTypes pass over `n = 7;` to obtain a Context that
// classifies n as Const, then checks Emit prefers that exact value over
// re-deriving it from the graph node's Range.
func TestEmitWritesConstantScalarFromClassifiedConst(t *testing.T) {
	nSym := &symtab.Symbol{Name: "n", Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}, IsParam: true}
	analyzed := &cast.FuncDecl{
		Name: "f",
		Body: &cast.Block{Stmts: []cast.Stmt{
			&cast.DeclStmt{Decl: &cast.VarDecl{Name: "n", Sym: nSym, Init: &cast.IntLit{Value: 7}}},
		}},
	}
	ra := rangeanalysis.New(diag.NewCollector(), "f")
	require.NoError(t, ra.Run(analyzed))
	ctx := deptypes.Build(ra)

	fn := &cast.FuncDecl{
		Name:   "f",
		Params: []*cast.ParamDecl{{Name: "n", Sym: nSym}},
		Body:   &cast.Block{},
	}
	graph := depgraph.New()
	graph.AddNode(&depgraph.Node{Kind: depgraph.Input, Sym: nSym, Range: interval.Full()})

	src := harness.Emit(fn, graph, ctx, harness.Params{
		SourceBaseName: "foo",
		IncludeStub:    "../../headerStub.c",
		Opts:           config.Defaults(),
	})

	assert.Contains(t, src, "n = 7;")
	assert.Contains(t, src, "f(n);")
}

func TestEmitAllocatesAndFreesArrayInputs(t *testing.T) {
	arrSym := &symtab.Symbol{Name: "arr", Kind: symtab.Pointer, Type: symtab.Type{Base: "int", PointerDeep: 1}, IsParam: true}
	fn := &cast.FuncDecl{
		Name:   "f",
		Params: []*cast.ParamDecl{{Name: "arr", Sym: arrSym}},
		Body:   &cast.Block{},
	}
	graph := depgraph.New()
	graph.AddNode(&depgraph.Node{
		Kind:    depgraph.ArrayInput,
		Sym:     arrSym,
		MinSize: map[int]av.Value{0: av.Integer{V: 16}},
	})

	src := harness.Emit(fn, graph, &deptypes.Context{}, harness.Params{
		SourceBaseName: "foo",
		IncludeStub:    "../../headerStub.c",
		Opts:           config.Defaults(),
	})

	assert.Contains(t, src, "int arr_dim0_size = 16;")
	assert.Contains(t, src, "int *arr = malloc(sizeof(int) * arr_len);")
	assert.Contains(t, src, "free(arr);")
}

func TestEmitStubsUncompletedFunction(t *testing.T) {
	fn := &cast.FuncDecl{Name: "f", Body: &cast.Block{}}
	calleeSym := &symtab.Symbol{Name: "helper", Kind: symtab.Function, Type: symtab.Type{Base: "int"}}
	graph := depgraph.New()
	graph.AddNode(&depgraph.Node{Kind: depgraph.UncompletedFunction, Sym: calleeSym, Range: interval.Const(3)})

	src := harness.Emit(fn, graph, &deptypes.Context{}, harness.Params{
		SourceBaseName: "foo",
		IncludeStub:    "../../headerStub.c",
		Opts:           config.Defaults(),
	})

	assert.Contains(t, src, "int helper() {")
	assert.Contains(t, src, "return 3 + rand() % (3 - 3 + 1);")
}
