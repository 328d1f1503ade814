// Package cast is the minimal C abstract-syntax-tree collaborator: the
// node set the core analyses (RangeAnalysis, DependenceGraph construction)
// walk. It covers exactly the constructs spec.md §4.3 visits: function
// definitions, parameter/variable declarations with optional array
// dimensions, the statement forms, and the expression forms through array
// indexing and calls. Most constructs outside this subset are a parse
// error. The exceptions are mapped onto this node set by cparse: string
// and character literals become an IntLit 0, and casts, `*` and `&` pass
// through onto their operand.
package cast

import "github.com/maroar/psyche-harness/internal/symtab"

// TranslationUnit is the root of a parsed file: an ordered list of
// top-level declarations.
type TranslationUnit struct {
	Decls []Decl
}

// Decl is a top-level declaration: a function definition or declaration,
// or a global variable.
type Decl interface {
	Accept(v Visitor) any
}

// FuncDecl is a function definition (has Body) or a bare declaration of an
// externally-defined function (Body == nil), the latter becoming an
// UncompletedFunction stub target.
type FuncDecl struct {
	Name       string
	ReturnType symtab.Type
	Params     []*ParamDecl
	Body       *Block // nil for a declaration without a body
	Sym        *symtab.Symbol
	Scope      *symtab.Scope
}

func (d *FuncDecl) Accept(v Visitor) any { return v.VisitFuncDecl(d) }

// ParamDecl is one function parameter.
type ParamDecl struct {
	Name string
	Type symtab.Type
	Sym  *symtab.Symbol
}

func (d *ParamDecl) Accept(v Visitor) any { return v.VisitParamDecl(d) }

// VarDecl is a local or global variable declaration, possibly with array
// dimensions (each Dims entry is the declarator's constant expression, or
// nil when the dimension was left unspecified, e.g. `int a[]`).
type VarDecl struct {
	Name string
	Type symtab.Type
	Dims []Expr // declared array dimensions, outermost first
	Init Expr   // optional initializer
	Sym  *symtab.Symbol
}

func (d *VarDecl) Accept(v Visitor) any { return v.VisitVarDecl(d) }

// Stmt is a statement node.
type Stmt interface {
	Accept(v Visitor) any
}

// Block is a brace-delimited statement sequence introducing a new scope.
type Block struct {
	Stmts []Stmt
	Scope *symtab.Scope
}

func (s *Block) Accept(v Visitor) any { return v.VisitBlock(s) }

// DeclStmt wraps a VarDecl appearing inside a function body.
type DeclStmt struct {
	Decl *VarDecl
}

func (s *DeclStmt) Accept(v Visitor) any { return v.VisitDeclStmt(s) }

// ExprStmt wraps a bare expression statement.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) Accept(v Visitor) any { return v.VisitExprStmt(s) }

// If is an if/else statement; Else may be nil.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

func (s *If) Accept(v Visitor) any { return v.VisitIf(s) }

// While is a pre-tested loop.
type While struct {
	Cond Expr
	Body Stmt
}

func (s *While) Accept(v Visitor) any { return v.VisitWhile(s) }

// For is a C-style counted loop; Init/Cond/Post may each be nil.
type For struct {
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

func (s *For) Accept(v Visitor) any { return v.VisitFor(s) }

// Return is a return statement; Value may be nil (void return).
type Return struct {
	Value Expr
}

func (s *Return) Accept(v Visitor) any { return v.VisitReturn(s) }

// Expr is an expression node.
type Expr interface {
	Accept(v Visitor) any
}

// BinOp enumerates the binary/relational/compound-assignment operators
// the analyses understand.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpLT
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
	OpAssign
)

// Binary is a binary expression, including simple assignment (OpAssign)
// and compound assignment, which the parser desugars to the equivalent
// binary op over (Left, Right) before wrapping in OpAssign at the call
// site (see cparse).
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (e *Binary) Accept(v Visitor) any { return v.VisitBinary(e) }

// Unary is !x or -x. Deref and address-of have no node of their own: the
// parser passes them through onto the operand, since the analyses model
// pointers as arrays, not as general aliasing.
type Unary struct {
	Op      BinOp // OpSub for negation; zero value for logical not
	Operand Expr
	Not     bool
}

func (e *Unary) Accept(v Visitor) any { return v.VisitUnary(e) }

// IncDec is `x++`, `x--`, `++x`, `--x`.
type IncDec struct {
	Operand Expr
	Inc     bool // true => ++, false => --
	Prefix  bool
}

func (e *IncDec) Accept(v Visitor) any { return v.VisitIncDec(e) }

// Ident is a reference to a named symbol.
type Ident struct {
	Name string
	Sym  *symtab.Symbol
}

func (e *Ident) Accept(v Visitor) any { return v.VisitIdent(e) }

// IntLit is an integer literal; floating-point literals are truncated to
// integer at parse time per spec §4.3 ("Floats are truncated to integer").
type IntLit struct {
	Value int64
}

func (e *IntLit) Accept(v Visitor) any { return v.VisitIntLit(e) }

// Index is one level of array/pointer indexing, `Object[Idx]`. A
// multi-dimensional access `a[i][j]` is represented as nested Index nodes,
// Object being the inner Index; the Index nearest the base identifier
// (`[i]`, the first bracket written) is dimension 0 (see
// rangeanalysis.flattenIndex).
type Index struct {
	Object Expr
	Idx    Expr
}

func (e *Index) Accept(v Visitor) any { return v.VisitIndex(e) }

// Call is a function call; Callee is always an Ident in the subset this
// package parses (no function pointers).
type Call struct {
	Callee *Ident
	Args   []Expr
}

func (e *Call) Accept(v Visitor) any { return v.VisitCall(e) }

// Visitor dispatches over every Decl/Stmt/Expr node kind. Each visit
// method returns bool in the original (whether to descend further); here
// it returns any so the same interface can serve both a boolean
// "continue descending" visitor (RangeAnalysis) and a value-producing one
// (FunctionGenerator collecting AbstractValues) -- callers type-assert the
// result they expect.
type Visitor interface {
	VisitFuncDecl(d *FuncDecl) any
	VisitParamDecl(d *ParamDecl) any
	VisitVarDecl(d *VarDecl) any

	VisitBlock(s *Block) any
	VisitDeclStmt(s *DeclStmt) any
	VisitExprStmt(s *ExprStmt) any
	VisitIf(s *If) any
	VisitWhile(s *While) any
	VisitFor(s *For) any
	VisitReturn(s *Return) any

	VisitBinary(e *Binary) any
	VisitUnary(e *Unary) any
	VisitIncDec(e *IncDec) any
	VisitIdent(e *Ident) any
	VisitIntLit(e *IntLit) any
	VisitIndex(e *Index) any
	VisitCall(e *Call) any
}
