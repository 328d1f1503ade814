// Package cparse is a recursive-descent parser over clex's token stream,
// producing a cast.TranslationUnit with every identifier already bound to
// a symtab.Symbol (a combined parse+bind pass, the same shape as the
// teacher's internal/parser.Parser: a tokens/current cursor,
// match/check/consume/peek/advance helpers, and a precedence-climbing
// expression parser -- adapted here for C's type-prefixed declarations
// and statement forms instead of the teacher's `fn`/`let` syntax, and
// panicking with a *ParseError the top-level Parse recovers into a plain
// error, matching the teacher's panic-on-syntax-error style but without
// leaking a panic across the package boundary).
package cparse

import (
	"fmt"
	"strconv"

	"github.com/maroar/psyche-harness/internal/cast"
	"github.com/maroar/psyche-harness/internal/clex"
	"github.com/maroar/psyche-harness/internal/symtab"
)

// ParseError is a syntax error raised while parsing; Parse recovers a
// panic of this type into a returned error rather than propagating it.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

var precedence = map[clex.TokenType]int{
	clex.TokOr:  1,
	clex.TokAnd: 2,
	clex.TokEq:  3, clex.TokNe: 3,
	clex.TokLT: 3, clex.TokLE: 3, clex.TokGT: 3, clex.TokGE: 3,
	clex.TokShl: 4, clex.TokShr: 4,
	clex.TokPlus:  5, clex.TokMinus: 5,
	clex.TokStar:  6, clex.TokSlash: 6, clex.TokPercent: 6,
}



var binOpFor = map[clex.TokenType]cast.BinOp{
	clex.TokPlus: cast.OpAdd, clex.TokMinus: cast.OpSub,
	clex.TokStar: cast.OpMul, clex.TokSlash: cast.OpDiv,
	clex.TokPercent: cast.OpMod,
	clex.TokShl:     cast.OpShl, clex.TokShr: cast.OpShr,
	clex.TokLT: cast.OpLT, clex.TokLE: cast.OpLE,
	clex.TokGT: cast.OpGT, clex.TokGE: cast.OpGE,
	clex.TokEq: cast.OpEQ, clex.TokNe: cast.OpNE,
}

var typeKeywords = map[clex.TokenType]bool{
	clex.TokInt: true, clex.TokVoid: true, clex.TokChar: true,
	clex.TokFloat: true, clex.TokDouble: true, clex.TokLong: true,
	clex.TokShort: true, clex.TokUnsigned: true,
}

type Parser struct {
	tokens  []clex.Token
	current int
	global  *symtab.Scope
}

// Parse tokenizes and parses src into a TranslationUnit, binding every
// declaration and reference to a symtab.Symbol as it goes.
func Parse(src string) (tu *cast.TranslationUnit, err error) {
	tokens := clex.NewScanner(src).ScanTokens()
	p := &Parser{tokens: tokens, global: symtab.NewScope(nil)}

	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()

	return p.parseTranslationUnit(), nil
}

func (p *Parser) parseTranslationUnit() *cast.TranslationUnit {
	tu := &cast.TranslationUnit{}
	for !p.isAtEnd() {
		tu.Decls = append(tu.Decls, p.topLevelDecl())
	}
	return tu
}

// topLevelDecl parses one function definition/declaration or global
// variable declaration: `<type> <*...> name (...)` for a function,
// `<type> <*...> name [dims] [= init] [, ...] ;` for variables.
func (p *Parser) topLevelDecl() cast.Decl {
	base := p.parseBaseType()
	deep := p.parsePointerStars()
	nameTok := p.consume(clex.TokIdent, "expected declarator name")

	if p.check(clex.TokLParen) {
		return p.finishFunction(base, deep, nameTok.Lexeme)
	}

	decl := p.finishVarDeclarator(base, deep, nameTok.Lexeme, p.global, symtab.Scalar)
	for p.match(clex.TokComma) {
		d2base, d2deep := base, p.parsePointerStars()
		n2 := p.consume(clex.TokIdent, "expected declarator name")
		p.finishVarDeclarator(d2base, d2deep, n2.Lexeme, p.global, symtab.Scalar)
		_ = d2base
	}
	p.consume(clex.TokSemi, "expected ';' after variable declaration")
	return &cast.DeclStmt{Decl: decl}
}

func (p *Parser) parseBaseType() string {
	tok := p.advance()
	if !typeKeywords[tok.Type] {
		p.fail(tok, "expected a type keyword, got '%s'", tok.Lexeme)
	}
	name := tok.Lexeme
	for typeKeywords[p.peek().Type] {
		name += " " + p.advance().Lexeme
	}
	return name
}

func (p *Parser) parsePointerStars() int {
	n := 0
	for p.match(clex.TokStar) {
		n++
	}
	return n
}

// finishVarDeclarator parses the `[dims]` and `= init` tail of one
// declarator already past its name, declares the symbol in scope, and
// returns the VarDecl.
func (p *Parser) finishVarDeclarator(base string, pointerDeep int, name string, scope *symtab.Scope, kind symtab.Kind) *cast.VarDecl {
	var dims []cast.Expr
	var fixedDims []*int
	for p.match(clex.TokLBracket) {
		if p.check(clex.TokRBracket) {
			dims = append(dims, nil)
			fixedDims = append(fixedDims, nil)
		} else {
			dimExpr := p.expression()
			dims = append(dims, dimExpr)
			if lit, ok := dimExpr.(*cast.IntLit); ok {
				v := int(lit.Value)
				fixedDims = append(fixedDims, &v)
			} else {
				fixedDims = append(fixedDims, nil)
			}
		}
		p.consume(clex.TokRBracket, "expected ']'")
	}

	t := symtab.Type{Base: base, PointerDeep: pointerDeep, ArrayDims: fixedDims}
	symKind := kind
	if len(dims) > 0 {
		symKind = symtab.Array
	} else if pointerDeep > 0 {
		symKind = symtab.Pointer
	}
	sym := scope.Declare(&symtab.Symbol{Name: name, Kind: symKind, Type: t})

	var init cast.Expr
	if p.match(clex.TokAssign) {
		init = p.expression()
	}

	return &cast.VarDecl{Name: name, Type: t, Dims: dims, Init: init, Sym: sym}
}

func (p *Parser) finishFunction(base string, pointerDeep int, name string) *cast.FuncDecl {
	p.consume(clex.TokLParen, "expected '(' after function name")
	scope := symtab.NewScope(p.global)

	var params []*cast.ParamDecl
	if !p.check(clex.TokRParen) {
		if p.check(clex.TokVoid) && p.checkNextIsRParen() {
			p.advance()
		} else {
			params = append(params, p.parseParam(scope, 0))
			for p.match(clex.TokComma) {
				params = append(params, p.parseParam(scope, len(params)))
			}
		}
	}
	p.consume(clex.TokRParen, "expected ')' after parameters")

	retType := symtab.Type{Base: base, PointerDeep: pointerDeep}
	fnSym := p.global.Declare(&symtab.Symbol{Name: name, Kind: symtab.Function, Type: retType})

	fn := &cast.FuncDecl{Name: name, ReturnType: retType, Params: params, Sym: fnSym, Scope: scope}
	if p.match(clex.TokSemi) {
		return fn // declaration only, no body: an UncompletedFunction target
	}

	fn.Body = p.block(scope)
	return fn
}

func (p *Parser) checkNextIsRParen() bool {
	return p.current+1 < len(p.tokens) && p.tokens[p.current+1].Type == clex.TokRParen
}

func (p *Parser) parseParam(scope *symtab.Scope, argIndex int) *cast.ParamDecl {
	base := p.parseBaseType()
	deep := p.parsePointerStars()
	nameTok := p.consume(clex.TokIdent, "expected parameter name")

	kind := symtab.Scalar
	if p.check(clex.TokLBracket) {
		kind = symtab.Array
		for p.match(clex.TokLBracket) {
			if !p.check(clex.TokRBracket) {
				p.expression()
			}
			p.consume(clex.TokRBracket, "expected ']'")
		}
	} else if deep > 0 {
		kind = symtab.Pointer
	}

	t := symtab.Type{Base: base, PointerDeep: deep}
	sym := scope.Declare(&symtab.Symbol{Name: nameTok.Lexeme, Kind: kind, Type: t, IsParam: true, ArgIndex: argIndex})
	return &cast.ParamDecl{Name: nameTok.Lexeme, Type: t, Sym: sym}
}

// block parses a brace-delimited statement list in a fresh child scope.
func (p *Parser) block(parent *symtab.Scope) *cast.Block {
	p.consume(clex.TokLBrace, "expected '{'")
	scope := symtab.NewScope(parent)
	b := &cast.Block{Scope: scope}
	for !p.check(clex.TokRBrace) && !p.isAtEnd() {
		b.Stmts = append(b.Stmts, p.statement(scope))
	}
	p.consume(clex.TokRBrace, "expected '}'")
	return b
}

func (p *Parser) statement(scope *symtab.Scope) cast.Stmt {
	switch {
	case p.check(clex.TokLBrace):
		return p.block(scope)
	case p.match(clex.TokIf):
		return p.ifStatement(scope)
	case p.match(clex.TokWhile):
		return p.whileStatement(scope)
	case p.match(clex.TokFor):
		return p.forStatement(scope)
	case p.match(clex.TokReturn):
		var v cast.Expr
		if !p.check(clex.TokSemi) {
			v = p.expression()
		}
		p.consume(clex.TokSemi, "expected ';' after return")
		return &cast.Return{Value: v}
	case typeKeywords[p.peek().Type]:
		base := p.parseBaseType()
		deep := p.parsePointerStars()
		nameTok := p.consume(clex.TokIdent, "expected declarator name")
		decl := p.finishVarDeclarator(base, deep, nameTok.Lexeme, scope, symtab.Scalar)
		p.consume(clex.TokSemi, "expected ';' after declaration")
		return &cast.DeclStmt{Decl: decl}
	default:
		e := p.expression()
		p.consume(clex.TokSemi, "expected ';' after expression")
		return &cast.ExprStmt{Expr: e}
	}
}

func (p *Parser) ifStatement(scope *symtab.Scope) cast.Stmt {
	p.consume(clex.TokLParen, "expected '(' after if")
	cond := p.expression()
	p.consume(clex.TokRParen, "expected ')' after condition")
	then := p.statement(scope)
	var els cast.Stmt
	if p.match(clex.TokElse) {
		els = p.statement(scope)
	}
	return &cast.If{Cond: cond, Then: then, Else: els}
}

func (p *Parser) whileStatement(scope *symtab.Scope) cast.Stmt {
	p.consume(clex.TokLParen, "expected '(' after while")
	cond := p.expression()
	p.consume(clex.TokRParen, "expected ')' after condition")
	body := p.statement(scope)
	return &cast.While{Cond: cond, Body: body}
}

func (p *Parser) forStatement(scope *symtab.Scope) cast.Stmt {
	p.consume(clex.TokLParen, "expected '(' after for")
	inner := symtab.NewScope(scope)

	var init cast.Stmt
	if !p.check(clex.TokSemi) {
		if typeKeywords[p.peek().Type] {
			base := p.parseBaseType()
			deep := p.parsePointerStars()
			nameTok := p.consume(clex.TokIdent, "expected declarator name")
			decl := p.finishVarDeclarator(base, deep, nameTok.Lexeme, inner, symtab.Scalar)
			init = &cast.DeclStmt{Decl: decl}
		} else {
			init = &cast.ExprStmt{Expr: p.expression()}
		}
	}
	p.consume(clex.TokSemi, "expected ';' after for-init")

	var cond cast.Expr
	if !p.check(clex.TokSemi) {
		cond = p.expression()
	}
	p.consume(clex.TokSemi, "expected ';' after for-condition")

	var post cast.Expr
	if !p.check(clex.TokRParen) {
		post = p.expression()
	}
	p.consume(clex.TokRParen, "expected ')' after for-clauses")

	body := p.statement(inner)
	return &cast.For{Init: init, Cond: cond, Post: post, Body: body}
}

// --- expressions ---

func (p *Parser) expression() cast.Expr { return p.assignment() }

func (p *Parser) assignment() cast.Expr {
	left := p.binary(0)

	if p.match(clex.TokAssign) {
		right := p.assignment()
		return &cast.Binary{Op: cast.OpAssign, Left: left, Right: right}
	}
	if isCompoundAssign(p.peek().Type) {
		op := compoundAssignOpExact(p.advance().Type)
		right := p.assignment()
		return &cast.Binary{Op: cast.OpAssign, Left: left, Right: &cast.Binary{Op: op, Left: left, Right: right}}
	}
	return left
}

func isCompoundAssign(t clex.TokenType) bool {
	switch t {
	case clex.TokPlusEq, clex.TokMinusEq, clex.TokStarEq, clex.TokSlashEq, clex.TokPercentEq:
		return true
	default:
		return false
	}
}

func compoundAssignOpExact(t clex.TokenType) cast.BinOp {
	switch t {
	case clex.TokPlusEq:
		return cast.OpAdd
	case clex.TokMinusEq:
		return cast.OpSub
	case clex.TokStarEq:
		return cast.OpMul
	case clex.TokSlashEq:
		return cast.OpDiv
	case clex.TokPercentEq:
		return cast.OpMod
	default:
		return cast.OpAdd
	}
}

func (p *Parser) binary(minPrec int) cast.Expr {
	left := p.unary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right := p.binary(prec + 1)
		left = &cast.Binary{Op: binOpFor[tok.Type], Left: left, Right: right}
	}
	return left
}

func (p *Parser) unary() cast.Expr {
	switch {
	case p.match(clex.TokNot):
		return &cast.Unary{Operand: p.unary(), Not: true}
	case p.match(clex.TokMinus):
		return &cast.Unary{Op: cast.OpSub, Operand: p.unary()}
	case p.match(clex.TokPlusPlus):
		return &cast.IncDec{Operand: p.unary(), Inc: true, Prefix: true}
	case p.match(clex.TokMinusMinus):
		return &cast.IncDec{Operand: p.unary(), Inc: false, Prefix: true}
	case p.match(clex.TokStar):
		return p.unary() // pointer deref: pass-through onto the operand (cast.Unary doc)
	case p.match(clex.TokAmp):
		return p.unary() // address-of: same pass-through treatment
	case p.match(clex.TokLParen):
		if typeKeywords[p.peek().Type] {
			p.parseBaseType()
			p.parsePointerStars()
			p.consume(clex.TokRParen, "expected ')' after cast type")
			return p.unary() // cast: pass-through onto the operand
		}
		e := p.expression()
		p.consume(clex.TokRParen, "expected ')' after expression")
		return p.postfixTail(e)
	default:
		return p.postfix()
	}
}

func (p *Parser) postfix() cast.Expr {
	return p.postfixTail(p.primary())
}

func (p *Parser) postfixTail(e cast.Expr) cast.Expr {
	for {
		switch {
		case p.match(clex.TokLBracket):
			idx := p.expression()
			p.consume(clex.TokRBracket, "expected ']' after index")
			e = &cast.Index{Object: e, Idx: idx}
		case p.match(clex.TokLParen):
			ident, ok := e.(*cast.Ident)
			if !ok {
				p.fail(p.previous(), "call target must be a simple function name")
			}
			var args []cast.Expr
			if !p.check(clex.TokRParen) {
				args = append(args, p.expression())
				for p.match(clex.TokComma) {
					args = append(args, p.expression())
				}
			}
			p.consume(clex.TokRParen, "expected ')' after arguments")
			e = &cast.Call{Callee: ident, Args: args}
		case p.match(clex.TokPlusPlus):
			e = &cast.IncDec{Operand: e, Inc: true, Prefix: false}
		case p.match(clex.TokMinusMinus):
			e = &cast.IncDec{Operand: e, Inc: false, Prefix: false}
		default:
			return e
		}
	}
}

func (p *Parser) primary() cast.Expr {
	tok := p.advance()
	switch tok.Type {
	case clex.TokNumber:
		return &cast.IntLit{Value: parseNumber(tok.Lexeme)}
	case clex.TokIdent:
		return &cast.Ident{Name: tok.Lexeme, Sym: p.resolve(tok.Lexeme)}
	case clex.TokString, clex.TokChar_:
		return &cast.IntLit{Value: 0}
	default:
		p.fail(tok, "unexpected token '%s' in expression", tok.Lexeme)
		return nil
	}
}

// resolve looks the name up in the nearest enclosing scope; an unresolved
// name (an implicitly-declared global, or a builtin like printf) gets a
// synthetic global symbol rather than a parse failure, matching
// RangeAnalysis's "widen conservatively and continue" posture.
func (p *Parser) resolve(name string) *symtab.Symbol {
	if sym := p.global.Lookup(name); sym != nil {
		return sym
	}
	return p.global.Declare(&symtab.Symbol{Name: name, Kind: symtab.Scalar, Type: symtab.Type{Base: "int"}})
}

func parseNumber(lexeme string) int64 {
	n := 0
	for n < len(lexeme) && (lexeme[n] >= '0' && lexeme[n] <= '9') {
		n++
	}
	v, _ := strconv.ParseInt(lexeme[:n], 10, 64)
	return v
}

// --- token cursor helpers ---

func (p *Parser) match(t clex.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(t clex.TokenType) bool {
	return !p.isAtEnd() && p.peek().Type == t
}

func (p *Parser) consume(t clex.TokenType, msg string) clex.Token {
	if p.check(t) {
		return p.advance()
	}
	p.fail(p.peek(), "%s (got '%s')", msg, p.peek().Lexeme)
	panic("unreachable")
}

func (p *Parser) advance() clex.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.tokens[p.current-1]
}

func (p *Parser) previous() clex.Token { return p.tokens[p.current-1] }

func (p *Parser) peek() clex.Token { return p.tokens[p.current] }

func (p *Parser) isAtEnd() bool { return p.peek().Type == clex.TokEOF }

func (p *Parser) fail(tok clex.Token, format string, args ...any) {
	panic(&ParseError{Line: tok.Line, Message: fmt.Sprintf(format, args...)})
}
