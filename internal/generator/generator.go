// Package generator is the per-function driver: the Go analogue of
// FunctionGenerator, owning the construction order spec.md §5 calls out
// ("RangeAnalysis, DependentTypes, DependenceGraph each own their state,
// constructed in that order, destroyed in reverse order per analyzed
// function"). Generate runs RangeAnalysis, classifies DependentTypes,
// builds the dependence graph, propagates ranges both directions, and
// hands the result to internal/harness for C emission.
package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/config"
	"github.com/maroar/psyche-harness/internal/depgraph"
	"github.com/maroar/psyche-harness/internal/deptypes"
	"github.com/maroar/psyche-harness/internal/diag"
	"github.com/maroar/psyche-harness/internal/harness"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/rangeanalysis"
	"github.com/maroar/psyche-harness/internal/report"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// Params bundles the per-run configuration Generate needs beyond the
// translation unit and the function to generate a harness for.
type Params struct {
	SourceBaseName string // e.g. "foo" for a source parsed from foo.c
	MainDir        string // output directory for "<base>_<fn>_main.c", the original's "/mains/"
	DotDir         string // output directory for the four .dot checkpoints
	IncludeStub    string // path to headerStub.c, relative to MainDir
	Opts           config.Options
}

// Result records what Generate produced, for a caller (cmd/psyche or a
// batch driver) to report back to the user.
type Result struct {
	FuncName     string
	MainFilePath string
	DotPaths     []string
}

// Generate runs the full pipeline for one function and writes its main
// file (and, if requested, its .dot checkpoints) to disk. A Fatal
// diagnostic aborts analysis of this function only and is returned as an
// error; the caller is expected to log it and continue with the next
// function in the translation unit (spec §7).
func Generate(tu *cast.TranslationUnit, fn *cast.FuncDecl, diags *diag.Collector, p Params) (*Result, error) {
	if fn.Body == nil {
		return nil, diags.Fatalf(fn.Name, diag.Location{}, "function has no body to analyze")
	}

	ra := rangeanalysis.New(diags, fn.Name)
	if err := ra.Run(fn); err != nil {
		return nil, err
	}

	ctx := deptypes.Build(ra)

	graph := depgraph.New()
	buildNodes(tu, fn, ra, ctx, graph)

	res := &Result{FuncName: fn.Name}
	writeDot := func(suffix string) {
		if p.DotDir == "" {
			return
		}
		path := filepath.Join(p.DotDir, fmt.Sprintf("%s_%s%s.dot", p.SourceBaseName, fn.Name, suffix))
		if err := report.WriteDot(path, graph, fn.Name+suffix); err == nil {
			res.DotPaths = append(res.DotPaths, path)
		}
	}

	writeDot("_init")
	graph.Simplify()
	writeDot("_simpl")

	if !graph.SpreadTopDown() {
		return nil, diags.Fatalf(fn.Name, diag.Location{}, "top-down range propagation left an inconsistent node")
	}
	writeDot("_topdown")

	if !graph.SpreadBottomUp() {
		return nil, diags.Fatalf(fn.Name, diag.Location{}, "bottom-up array-size propagation left an inconsistent node")
	}
	writeDot("_bottomup")

	src := harness.Emit(fn, graph, ctx, harness.Params{
		SourceBaseName: p.SourceBaseName,
		IncludeStub:    p.IncludeStub,
		Opts:           p.Opts,
	})

	mainPath := filepath.Join(p.MainDir, fmt.Sprintf("%s_%s_main.c", p.SourceBaseName, fn.Name))
	if err := os.MkdirAll(p.MainDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating main dir: %w", err)
	}
	if err := os.WriteFile(mainPath, []byte(src), 0o644); err != nil {
		return nil, fmt.Errorf("writing main file: %w", err)
	}
	res.MainFilePath = mainPath
	return res, nil
}

// buildNodes realizes spec §4.5's "Step 2/3/4" node construction: one
// node per parameter, one per other symbol RangeAnalysis tracked, one per
// function called without a visible body, plus a labeled edge per
// recorded array dimension. Array-classified symbols get an Array* node.
// Every other non-parameter symbol gets a GlobalVar node; locals are not
// told apart from file-scope globals.
func buildNodes(tu *cast.TranslationUnit, fn *cast.FuncDecl, ra *rangeanalysis.Analysis, ctx *deptypes.Context, graph *depgraph.Graph) {
	nodeFor := map[*symtab.Symbol]*depgraph.Node{}

	for _, p := range fn.Params {
		nodeFor[p.Sym] = addSymbolNode(graph, ra, ctx, p.Sym, true)
	}
	for _, sym := range ra.Symbols() {
		if _, done := nodeFor[sym]; done {
			continue
		}
		nodeFor[sym] = addSymbolNode(graph, ra, ctx, sym, false)
	}

	for _, fd := range undefinedCallees(tu, fn) {
		graph.AddNode(&depgraph.Node{Kind: depgraph.UncompletedFunction, Sym: fd.Sym, Range: interval.Full()})
	}

	for sym, n := range nodeFor {
		if !n.Kind.IsArray() {
			continue
		}
		info := ra.ArrayInfoFor(sym)
		if info == nil {
			continue
		}
		for _, dim := range info.Dimensions() {
			idx := graph.AddNode(&depgraph.Node{Kind: depgraph.Affine, Name: fmt.Sprintf("%s_idx%d", sym.Name, dim), Range: info.DimensionRange[dim]})
			graph.AddLabeledEdge(idx, n, dim)
		}
	}
}

func addSymbolNode(graph *depgraph.Graph, ra *rangeanalysis.Analysis, ctx *deptypes.Context, sym *symtab.Symbol, isParam bool) *depgraph.Node {
	t, _ := ctx.Lookup(sym)

	if v, ok := t.(deptypes.Vector); ok {
		kind := depgraph.ArrayLocal
		if isParam {
			kind = depgraph.ArrayInput
		} else if isReturnOfFunction(ra, sym) {
			kind = depgraph.ArrayReturnOfFunction
		}
		n := &depgraph.Node{Kind: kind, Sym: sym, FixedSize: map[int]av.Value{}}
		info := ra.ArrayInfoFor(sym)
		if info != nil {
			for _, dim := range info.Dimensions() {
				if info.DimensionIsFixed[dim] {
					n.FixedSize[dim] = v.Dimensions[indexOf(info.Dimensions(), dim)]
				}
			}
		}
		return graph.AddNode(n)
	}

	kind := depgraph.GlobalVar
	if isParam {
		kind = depgraph.Input
	}
	return graph.AddNode(&depgraph.Node{Kind: kind, Sym: sym, Range: ra.RangeOf(sym)})
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return 0
}

func isReturnOfFunction(ra *rangeanalysis.Analysis, sym *symtab.Symbol) bool {
	for _, site := range ra.Definitions(sym) {
		if _, ok := site.Expr.(*cast.Call); ok {
			return true
		}
	}
	return false
}

// undefinedCallees walks fn's body collecting calls whose callee resolves
// to a FuncDecl with no body elsewhere in tu: the stub targets.
func undefinedCallees(tu *cast.TranslationUnit, fn *cast.FuncDecl) []*cast.FuncDecl {
	undefined := map[string]*cast.FuncDecl{}
	for _, d := range tu.Decls {
		if fd, ok := d.(*cast.FuncDecl); ok && fd.Body == nil {
			undefined[fd.Name] = fd
		}
	}

	seen := map[string]*cast.FuncDecl{}
	var walk func(n any)
	walk = func(n any) {
		switch s := n.(type) {
		case *cast.Block:
			for _, st := range s.Stmts {
				walk(st)
			}
		case *cast.DeclStmt:
			walk(s.Decl.Init)
		case *cast.ExprStmt:
			walk(s.Expr)
		case *cast.If:
			walk(s.Cond)
			walk(s.Then)
			walk(s.Else)
		case *cast.While:
			walk(s.Cond)
			walk(s.Body)
		case *cast.For:
			walk(s.Init)
			walk(s.Cond)
			walk(s.Post)
			walk(s.Body)
		case *cast.Return:
			walk(s.Value)
		case *cast.Binary:
			walk(s.Left)
			walk(s.Right)
		case *cast.Unary:
			walk(s.Operand)
		case *cast.IncDec:
			walk(s.Operand)
		case *cast.Index:
			walk(s.Object)
			walk(s.Idx)
		case *cast.Call:
			if fd, ok := undefined[s.Callee.Name]; ok {
				seen[fd.Name] = fd
			}
			for _, a := range s.Args {
				walk(a)
			}
		}
	}
	walk(fn.Body)

	out := make([]*cast.FuncDecl, 0, len(seen))
	for _, fd := range seen {
		out = append(out, fd)
	}
	return out
}
