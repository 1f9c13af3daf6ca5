// Package ast defines the statement and expression node types produced by
// the parser. Every node carries the Span it was parsed from so later
// stages (SSA builder, codegen, runtime errors) can report source context.
package ast

import (
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

// Span returns the source span a node was parsed from.
type Spanner interface {
	Span() lexer.Span
}

// Stmt is the interface implemented by every statement node.
type Stmt interface {
	Spanner
	stmtNode()
}

// Expr is the interface implemented by every expression node.
type Expr interface {
	Spanner
	exprNode()
}

// BinOp enumerates binary operators.
type BinOp int

const (
	OpLt BinOp = iota
	OpLe
	OpEq
	OpNe
	OpGe
	OpGt
	OpAnd
	OpOr
	OpXor
	OpAdd
	OpSub
	OpMul
	OpDiv    // real division
	OpIntDiv // `div`
	OpMod    // `mod`
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

// UnOp enumerates unary operators.
type UnOp int

const (
	OpPos UnOp = iota
	OpNeg
	OpNot
	OpBitNot

	// OpFloor has no surface syntax; the SSA builder emits it to seed
	// `repeat`'s loop counter at floor(n) (§4.D), never from parsed source.
	OpFloor
)

// CompoundOp enumerates the compound-assignment operators; CompoundNone means a
// plain `=` with no accumulation.
type CompoundOp int

const (
	CompoundNone CompoundOp = iota
	CompoundAdd
	CompoundSub
	CompoundMul
	CompoundDiv
	CompoundAnd
	CompoundOr
	CompoundXor
)

// ---- Expressions ----

type RealLit struct {
	Value float64
	Sp    lexer.Span
}

type StringLit struct {
	Value symbol.Symbol
	Sp    lexer.Span
}

type Ident struct {
	Name symbol.Symbol
	Sp   lexer.Span
}

type Unary struct {
	Op   UnOp
	X    Expr
	Sp   lexer.Span
}

type Binary struct {
	Op   BinOp
	X, Y Expr
	Sp   lexer.Span
}

// Field is a `target.name` access. Target nil means an implicit `self`.
type Field struct {
	Target Expr
	Name   symbol.Symbol
	Sp     lexer.Span
}

// Index is a 1- or 2-dimensional array index: base[i] or base[i, j].
type Index struct {
	Base    Expr
	Indices []Expr
	Sp      lexer.Span
}

// Call is a procedure/script/native invocation by name.
type Call struct {
	Callee symbol.Symbol
	Args   []Expr
	Sp     lexer.Span
}

func (*RealLit) exprNode()   {}
func (*StringLit) exprNode() {}
func (*Ident) exprNode()     {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Field) exprNode()     {}
func (*Index) exprNode()     {}
func (*Call) exprNode()      {}

func (n *RealLit) Span() lexer.Span   { return n.Sp }
func (n *StringLit) Span() lexer.Span { return n.Sp }
func (n *Ident) Span() lexer.Span     { return n.Sp }
func (n *Unary) Span() lexer.Span     { return n.Sp }
func (n *Binary) Span() lexer.Span    { return n.Sp }
func (n *Field) Span() lexer.Span     { return n.Sp }
func (n *Index) Span() lexer.Span     { return n.Sp }
func (n *Call) Span() lexer.Span      { return n.Sp }

// ---- Statements ----

// ErrorStmt is the error-recovery marker: a statement that failed to parse.
// Compilation continues with it lowered to a no-op so the rest of the unit
// still compiles.
type ErrorStmt struct {
	Sp lexer.Span
}

// Assign is `lhs = rhs` or `lhs <op>= rhs`. lhs is restricted to Ident,
// Field, or Index by the parser.
type Assign struct {
	Lhs Expr
	Op  CompoundOp
	Rhs Expr
	Sp  lexer.Span
}

// ExprStmt is a bare call used as a statement (procedure invocation).
type ExprStmt struct {
	X  Expr
	Sp lexer.Span
}

// Decl declares a list of names as local (`var`) or global (`globalvar`).
type Decl struct {
	Global bool
	Names  []symbol.Symbol
	Sp     lexer.Span
}

type Block struct {
	Stmts []Stmt
	Sp    lexer.Span
}

type If struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else branch
	Sp   lexer.Span
}

type Repeat struct {
	Count Expr
	Body  Stmt
	Sp    lexer.Span
}

type While struct {
	Cond Expr
	Body Stmt
	Sp   lexer.Span
}

// Do represents `do <body> until <cond>`: a post-tested loop.
type Do struct {
	Body Stmt
	Cond Expr
	Sp   lexer.Span
}

type For struct {
	Init Stmt
	Cond Expr
	Post Stmt
	Body Stmt
	Sp   lexer.Span
}

// With rebinds self to each entity expanded from Target for the duration of
// Body; Target may evaluate to an entity handle, an object id, or one of
// the sentinels `all`/`noone`/`self`/`other`.
type With struct {
	Target Expr
	Body   Stmt
	Sp     lexer.Span
}

// Case is one `case <value>:` or `default:` arm inside a Switch body.
type Case struct {
	Value   Expr // nil for `default`
	IsDefault bool
	Sp      lexer.Span
}

type Switch struct {
	Scrutinee Expr
	Cases     []Case
	Bodies    [][]Stmt // Bodies[i] runs for Cases[i] through fallthrough
	Sp        lexer.Span
}

type Break struct{ Sp lexer.Span }
type Continue struct{ Sp lexer.Span }
type Exit struct{ Sp lexer.Span }

type Return struct {
	Value Expr // nil means implicit real 0
	Sp    lexer.Span
}

func (*ErrorStmt) stmtNode() {}
func (*Assign) stmtNode()    {}
func (*ExprStmt) stmtNode()  {}
func (*Decl) stmtNode()      {}
func (*Block) stmtNode()     {}
func (*If) stmtNode()        {}
func (*Repeat) stmtNode()    {}
func (*While) stmtNode()     {}
func (*Do) stmtNode()        {}
func (*For) stmtNode()       {}
func (*With) stmtNode()      {}
func (*Switch) stmtNode()    {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}
func (*Exit) stmtNode()      {}
func (*Return) stmtNode()    {}

func (n *ErrorStmt) Span() lexer.Span { return n.Sp }
func (n *Assign) Span() lexer.Span    { return n.Sp }
func (n *ExprStmt) Span() lexer.Span  { return n.Sp }
func (n *Decl) Span() lexer.Span      { return n.Sp }
func (n *Block) Span() lexer.Span     { return n.Sp }
func (n *If) Span() lexer.Span        { return n.Sp }
func (n *Repeat) Span() lexer.Span    { return n.Sp }
func (n *While) Span() lexer.Span     { return n.Sp }
func (n *Do) Span() lexer.Span        { return n.Sp }
func (n *For) Span() lexer.Span       { return n.Sp }
func (n *With) Span() lexer.Span      { return n.Sp }
func (n *Switch) Span() lexer.Span    { return n.Sp }
func (n *Break) Span() lexer.Span     { return n.Sp }
func (n *Continue) Span() lexer.Span  { return n.Sp }
func (n *Exit) Span() lexer.Span      { return n.Sp }
func (n *Return) Span() lexer.Span    { return n.Sp }

// Function is the parsed body of a script, event, instance-creation-code,
// or room-creation-code unit, ready for SSA lowering.
type Function struct {
	Name   string
	Params []symbol.Symbol
	Body   []Stmt
}
