// Package depgraph implements spec.md §4.5's DependenceGraph: a small
// arena of typed nodes connected by plain and dimension-labeled edges,
// used to propagate ranges down from inputs and array-size requirements
// back up from index expressions. Grounded on
// original_source/src/generator/FunctionGenerator.{h,cpp}'s node
// hierarchy (InputNode, GlobalVarNode, ArrayNode, ProductNode,
// UncompletedFunctionNode), realized here as one Node struct tagged by
// Kind rather than a class hierarchy (Design Note 9: "sum type via
// interface + type switch... not a class hierarchy" -- here a closed enum
// plus struct, since nodes carry overlapping fields across kinds).
package depgraph

import (
	"fmt"

	"github.com/maroar/psyche-harness/internal/av"
	"github.com/maroar/psyche-harness/internal/interval"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// Kind tags the role a Node plays in the graph.
type Kind int

const (
	// Input is a function parameter with no further decomposition.
	Input Kind = iota
	// GlobalVar is a file-scope variable referenced by the function.
	GlobalVar
	// Affine is a derived scalar: const + sum(coef_i * pred_i).
	Affine
	// Product is a synthetic node standing in for two multiplied symbols.
	Product
	// ArrayInput is an array-typed parameter.
	ArrayInput
	// ArrayLocal is an array-typed local variable.
	ArrayLocal
	// ArrayReturnOfFunction is an array populated by a called function's
	// return value (the original's "ReturnOfFunction" array role).
	ArrayReturnOfFunction
	// UncompletedFunction stands in for a function declared but not
	// defined in this translation unit: a stub target with no body to
	// analyze.
	UncompletedFunction
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "Input"
	case GlobalVar:
		return "GlobalVar"
	case Affine:
		return "Affine"
	case Product:
		return "Product"
	case ArrayInput:
		return "ArrayInput"
	case ArrayLocal:
		return "ArrayLocal"
	case ArrayReturnOfFunction:
		return "ArrayReturnOfFunction"
	case UncompletedFunction:
		return "UncompletedFunction"
	default:
		return "?"
	}
}

// IsArray reports whether k is one of the three array-role kinds.
func (k Kind) IsArray() bool {
	switch k {
	case ArrayInput, ArrayLocal, ArrayReturnOfFunction:
		return true
	default:
		return false
	}
}

// AffineTerm is one coef*node summand of an Affine node's carried
// expression.
type AffineTerm struct {
	Coef int64
	Node *Node
}

// Node is one vertex of the dependence graph. Which fields are
// meaningful depends on Kind: Input/GlobalVar carry only Range (a fact
// handed in from RangeAnalysis); Affine carries Terms+Const; Product
// carries Left/Right; Array* nodes carry FixedSize/MinSize per dimension;
// UncompletedFunction carries nothing beyond its Sym.
type Node struct {
	ID   int
	Kind Kind
	Sym  *symtab.Symbol // defining symbol; nil for synthetic Product nodes
	Name string         // display name, defaults to Sym.Name when set

	// Affine
	Terms []AffineTerm
	Const int64

	// Product
	Left, Right *Node

	// Array
	FixedSize map[int]av.Value // dim -> declared length, when known
	MinSize   map[int]av.Value // dim -> inferred minimum length

	// Computed by propagation.
	Range interval.Range
}

func (n *Node) String() string {
	name := n.Name
	if name == "" && n.Sym != nil {
		name = n.Sym.Name
	}
	if name == "" {
		name = fmt.Sprintf("#%d", n.ID)
	}
	return fmt.Sprintf("%s(%s)", name, n.Kind)
}

// key returns the same identity AddNode/Find apply through Graph.bySym to
// detect "a node for this symbol already exists": by symbol pointer when
// one is carried, else by
// node identity (synthetic Product nodes are never deduplicated by
// identity, only by explicit (Left,Right) lookup in synthesizeProduct).
func (n *Node) key() any {
	if n.Sym != nil {
		return n.Sym
	}
	return n
}
