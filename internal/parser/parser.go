// Package parser implements a recursive-descent, precedence-climbing parser
// producing an internal/ast tree with source spans. It recovers at
// statement boundaries on error, emitting ast.ErrorStmt so the rest of the
// unit still compiles.
package parser

import (
	"fmt"
	"strings"

	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

// Parser turns a token stream for a single source unit into statements.
type Parser struct {
	l      *lexer.Lexer
	in     *symbol.Interner
	unit   string
	source string

	cur, peek lexer.Token
	errors    []*gmlerr.CompileError
}

// New creates a Parser over source, tagging spans with unit and interning
// identifiers/strings through in.
func New(unit, source string, in *symbol.Interner) *Parser {
	p := &Parser{l: lexer.New(unit, source), in: in, unit: unit, source: source}
	p.next()
	p.next()
	return p
}

// Errors returns the syntax errors accumulated while parsing.
func (p *Parser) Errors() []*gmlerr.CompileError { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(sp lexer.Span, format string, args ...interface{}) {
	p.errors = append(p.errors, &gmlerr.CompileError{
		Kind:    gmlerr.Syntax,
		Message: fmt.Sprintf(format, args...),
		Span:    sp,
		Source:  p.source,
	})
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if p.cur.Type != tt {
		p.errorf(p.cur.Span, "expected %s, got %s", tt, p.cur.Type)
		return p.cur
	}
	tok := p.cur
	p.next()
	return tok
}

// atStmtEnd reports whether the current token plausibly ends a statement
// (`;`, a closing `}`, or end of input), used by error recovery.
func (p *Parser) atStmtEnd() bool {
	switch p.cur.Type {
	case lexer.Semicolon, lexer.RBrace, lexer.EOF:
		return true
	default:
		return false
	}
}

// recover skips tokens until a statement boundary, mirroring the parser's
// documented error-recovery contract: subsequent code still compiles.
func (p *Parser) recover(start lexer.Span) ast.Stmt {
	for !p.atStmtEnd() {
		p.next()
	}
	if p.cur.Type == lexer.Semicolon {
		p.next()
	}
	return &ast.ErrorStmt{Sp: start}
}

// ParseFunction parses a whole unit (script body, event body, creation
// code) into an ast.Function of the given name and parameter list.
func (p *Parser) ParseFunction(name string, params []string) *ast.Function {
	fn := &ast.Function{Name: name}
	for _, prm := range params {
		fn.Params = append(fn.Params, p.in.Intern(prm))
	}
	for p.cur.Type != lexer.EOF {
		fn.Body = append(fn.Body, p.parseStmt())
	}
	return fn
}

func (p *Parser) intern(lit string) symbol.Symbol { return p.in.Intern(lit) }

// normalizeIdent trims surrounding whitespace from s; it never changes
// case, since the scripting language is case-sensitive.
func normalizeIdent(s string) string { return strings.TrimSpace(s) }
