// Package harness emits the self-contained C driver file spec.md §4.6
// calls HarnessEmitter: a `main` that seeds the RNG, loops NB_TESTS times
// initializing every input/array to a random value consistent with its
// inferred DependentType, calls the analyzed function (optionally timed
// over NB_CALLS inner iterations with CSV output), and frees anything it
// allocated. Grounded on
// original_source/src/generator/FunctionGenerator.cpp's `visit(
// FunctionDefinitionAST*)` tail section (the part after range analysis
// and graph propagation have already run).
package harness

import (
	"fmt"
	"strings"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/cfmt"
	"github.com/maroar/psyche-harness/internal/config"
	"github.com/maroar/psyche-harness/internal/depgraph"
	"github.com/maroar/psyche-harness/internal/deptypes"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/typespell"
)

// clampHalf bounds an unbounded endpoint before it is used as an operand
// of `rand() % (max-min+1)`, avoiding signed overflow in that subtraction
// when the inferred range is genuinely [-∞,+∞]. See SPEC_FULL.md's "Stub
// bodies" design note.
const clampHalf = interval.MaxInt / 2

// Params holds everything the emitter needs beyond the function's own AST
// and dependence graph: the basename the source file was parsed from
// (used to build #include paths the same way the original tool's
// path-splitting in FunctionGenerator::visit did), and the resolved
// generator options.
type Params struct {
	SourceBaseName string // e.g. "foo" for "foo.c"
	IncludeStub    string // path to the shared headerStub.c, e.g. "../../headerStub.c"
	Opts           config.Options
}

// Emit renders the generated main file's C source for fn.
func Emit(fn *cast.FuncDecl, graph *depgraph.Graph, ctx *deptypes.Context, p Params) string {
	w := cfmt.New()

	w.Line("#include %q", p.IncludeStub)
	w.Line("#include \"../%s.c\"", p.SourceBaseName)
	w.Blank()

	w.Line("#define MAX_ARRAY_SIZE %d", p.Opts.MaxArraySize)
	w.Line("#define MIN_ARRAY_SIZE %d", p.Opts.MinArraySize)
	w.Line("#define NB_TESTS %d", p.Opts.NBTests)
	w.Line("#define NB_CALLS %d", p.Opts.NBCalls)
	w.Blank()

	w.Line("// Array size variables")
	for _, decl := range arraySizeVarDecls(graph) {
		w.Line("%s", decl)
	}
	w.Blank()

	w.Line("// Stubs for functions with no body in this translation unit")
	for _, stub := range stubs(graph) {
		w.Raw(stub)
		w.Blank()
	}

	w.Line("int main(int argc, const char* argv[]) {")
	w.Indent()
	w.Line("srand(time(NULL));")
	w.Line("int savingVar;")
	w.Line("int currentTest;")
	w.Line("int INVALID_RAND = 0;")

	if p.Opts.GenerateCSV {
		w.Line("FILE *csv_result = fopen(\"../csv/%sresult.csv\", \"w\");", p.SourceBaseName)
		w.Line("fprintf(csv_result, \"INVALID_RAND, execution time (%%d calls)\\n\", NB_CALLS);")
	}

	w.Line("for (currentTest = 0; currentTest < NB_TESTS; currentTest++) {")
	w.Indent()
	w.Line("INVALID_RAND = 0;")
	for _, line := range initVariables(graph, ctx) {
		w.Line("%s", line)
	}
	w.Blank()

	if p.Opts.GenerateCSV {
		w.Line("clock_t begin = clock();")
		w.Line("int it_call;")
		w.Line("for (it_call = 0; it_call < NB_CALLS; it_call++) {")
		w.Indent()
	}

	w.Line("if (INVALID_RAND != 1) {")
	w.Indent()
	w.Line("%s(%s);", fn.Name, argList(fn))
	w.Dedent()
	w.Line("}")

	if p.Opts.GenerateCSV {
		w.Dedent()
		w.Line("}")
		w.Line("clock_t end = clock();")
		w.Line("float time_spent = ((float)(end - begin)) / (float)(CLOCKS_PER_SEC);")
		w.Line("fprintf(csv_result, \"%%d, %%f\\n\", INVALID_RAND, time_spent);")
	}

	w.Blank()
	for _, line := range freeArrays(graph) {
		w.Line("%s", line)
	}
	w.Dedent()
	w.Line("}")

	if p.Opts.GenerateCSV {
		w.Line("fclose(csv_result);")
	}
	w.Line("return 0;")
	w.Dedent()
	w.Line("}")

	return w.String()
}

func argList(fn *cast.FuncDecl) string {
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func nodeVarName(n *depgraph.Node) string {
	if n.Sym != nil {
		return n.Sym.Name
	}
	return n.String()
}

func sortedDimKeys(m map[int]av.Value) []int {
	out := make([]int, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// arraySizeVarDecls emits one size variable per array node's known
// dimension, fixed or inferred, so the initialization code and the
// function call both reference a single source of truth for bounds.
func arraySizeVarDecls(graph *depgraph.Graph) []string {
	var out []string
	for _, n := range graph.Nodes() {
		if !n.Kind.IsArray() {
			continue
		}
		name := nodeVarName(n)
		for _, dim := range sortedDimKeys(n.MinSize) {
			out = append(out, fmt.Sprintf("int %s_dim%d_size = %s;", name, dim, n.MinSize[dim].String()))
		}
		for _, dim := range sortedDimKeys(n.FixedSize) {
			if _, already := n.MinSize[dim]; already {
				continue
			}
			out = append(out, fmt.Sprintf("int %s_dim%d_size = %s;", name, dim, n.FixedSize[dim].String()))
		}
	}
	return out
}

// stubs emits a minimal body for every UncompletedFunction node: a
// function declared but never defined in the translation unit, so the
// harness must supply something linkable. Per SPEC_FULL.md's Stub bodies
// design note, the body returns a random value in [min,max] via
// `min + rand() % (max-min+1)`, both ends clamped to avoid overflow when
// the inferred range is effectively unbounded.
func stubs(graph *depgraph.Graph) []string {
	var out []string
	for _, n := range graph.Nodes() {
		if n.Kind != depgraph.UncompletedFunction || n.Sym == nil {
			continue
		}
		retType := typespell.SpellValueTypeName(n.Sym.Type)
		if retType == "" {
			retType = "int"
		}
		lo, hi := clampedBounds(n.Range)
		out = append(out, fmt.Sprintf(
			"%s %s() {\n    return %d + rand() %% (%d - %d + 1);\n}\n",
			retType, n.Sym.Name, lo, hi, lo,
		))
	}
	return out
}

// clampedBounds reads r's endpoints as plain int64 when they evaluated to
// a constant, falling back to +/- clampHalf for an unbounded or symbolic
// endpoint.
func clampedBounds(r interval.Range) (int64, int64) {
	lo := int64(-clampHalf)
	hi := int64(clampHalf)
	if v, ok := r.Lower.Evaluate().(av.Integer); ok {
		lo = v.V
	}
	if v, ok := r.Upper.Evaluate().(av.Integer); ok {
		hi = v.V
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func initVariables(graph *depgraph.Graph, ctx *deptypes.Context) []string {
	var out []string
	for _, n := range graph.Nodes() {
		switch n.Kind {
		case depgraph.Input, depgraph.GlobalVar:
			out = append(out, initScalar(n, ctx))
		case depgraph.ArrayInput, depgraph.ArrayLocal:
			out = append(out, initArray(n)...)
		}
	}
	return out
}

// initScalar prefers the exact value DependentTypes classified the symbol
// as (a Const) over re-deriving it from the graph node's Range, since the
// dependent-type classification is the one place both the constant-ness
// test and the concrete value live together.
func initScalar(n *depgraph.Node, ctx *deptypes.Context) string {
	name := nodeVarName(n)
	if ctx != nil && n.Sym != nil {
		if t, ok := ctx.Lookup(n.Sym); ok {
			if c, ok := t.(deptypes.Const); ok {
				if v, ok := c.Value.(av.Integer); ok {
					return fmt.Sprintf("%s = %d;", name, v.V)
				}
			}
		}
	}
	lo, hi := clampedBounds(n.Range)
	if lo == hi {
		return fmt.Sprintf("%s = %d;", name, lo)
	}
	return fmt.Sprintf("%s = %d + rand() %% (%d - %d + 1);", name, lo, hi, lo)
}

// initArray emits allocation and random fill for one array dimension;
// arrays of rank > 1 are allocated flat over the product of their
// dimension sizes, a deliberate simplification over the original's
// per-dimension C array declarators, documented in DESIGN.md.
func initArray(n *depgraph.Node) []string {
	name := nodeVarName(n)
	dims := sortedDimKeys(n.MinSize)
	if len(dims) == 0 {
		dims = sortedDimKeys(n.FixedSize)
	}
	lenExpr := "MAX_ARRAY_SIZE"
	if len(dims) > 0 {
		lenExpr = fmt.Sprintf("%s_dim%d_size", name, 0)
		for _, d := range dims[1:] {
			lenExpr = fmt.Sprintf("%s * %s_dim%d_size", lenExpr, name, d)
		}
	}
	return []string{
		fmt.Sprintf("int %s_len = %s;", name, lenExpr),
		fmt.Sprintf("int *%s = malloc(sizeof(int) * %s_len);", name, name),
		fmt.Sprintf("for (savingVar = 0; savingVar < %s_len; savingVar++) {", name),
		fmt.Sprintf("    %s[savingVar] = rand() %% MAX_ARRAY_SIZE;", name),
		"}",
	}
}

func freeArrays(graph *depgraph.Graph) []string {
	var out []string
	for _, n := range graph.Nodes() {
		if !n.Kind.IsArray() {
			continue
		}
		out = append(out, fmt.Sprintf("free(%s);", nodeVarName(n)))
	}
	return out
}
