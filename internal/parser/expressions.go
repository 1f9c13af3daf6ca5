package parser

import (
	"strconv"
	"strings"

	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/lexer"
)

// precedence levels, lowest to highest.
const (
	precLowest = iota
	precOr     // or, xor
	precAnd    // and
	precCompare
	precBitOr  // | ^
	precBitAnd // &
	precShift  // << >>
	precAdd    // + -
	precMul    // * / div mod
)

func precedenceOf(tt lexer.TokenType) int {
	switch tt {
	case lexer.KwOr, lexer.KwXor:
		return precOr
	case lexer.KwAnd:
		return precAnd
	case lexer.Lt, lexer.Le, lexer.EqEq, lexer.Ne, lexer.Ge, lexer.Gt:
		return precCompare
	case lexer.Pipe, lexer.Caret:
		return precBitOr
	case lexer.Amp:
		return precBitAnd
	case lexer.Shl, lexer.Shr:
		return precShift
	case lexer.Plus, lexer.Minus:
		return precAdd
	case lexer.Star, lexer.Slash, lexer.KwDiv, lexer.KwMod:
		return precMul
	default:
		return precLowest
	}
}

var binOpOf = map[lexer.TokenType]ast.BinOp{
	lexer.Lt: ast.OpLt, lexer.Le: ast.OpLe, lexer.EqEq: ast.OpEq, lexer.Ne: ast.OpNe,
	lexer.Ge: ast.OpGe, lexer.Gt: ast.OpGt,
	lexer.KwAnd: ast.OpAnd, lexer.KwOr: ast.OpOr, lexer.KwXor: ast.OpXor,
	lexer.Plus: ast.OpAdd, lexer.Minus: ast.OpSub, lexer.Star: ast.OpMul, lexer.Slash: ast.OpDiv,
	lexer.KwDiv: ast.OpIntDiv, lexer.KwMod: ast.OpMod,
	lexer.Amp: ast.OpBitAnd, lexer.Pipe: ast.OpBitOr, lexer.Caret: ast.OpBitXor,
	lexer.Shl: ast.OpShl, lexer.Shr: ast.OpShr,
}

// parseExpr parses an expression using precedence climbing. The `==`
// token is only ever reached here (as an expression operator); `=` has no
// precedence, so parseExpr stops at it and parseAssignOrCall consumes it.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec := precedenceOf(p.cur.Type)
		if prec <= minPrec || prec == precLowest {
			break
		}
		opTok := p.cur
		p.next()
		right := p.parseExpr(prec)
		left = &ast.Binary{Op: binOpOf[opTok.Type], X: left, Y: right, Sp: span(left.Span(), right.Span())}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur.Span
	switch p.cur.Type {
	case lexer.Plus:
		p.next()
		return &ast.Unary{Op: ast.OpPos, X: p.parseUnary(), Sp: start}
	case lexer.Minus:
		p.next()
		return &ast.Unary{Op: ast.OpNeg, X: p.parseUnary(), Sp: start}
	case lexer.Bang, lexer.KwNot:
		p.next()
		return &ast.Unary{Op: ast.OpNot, X: p.parseUnary(), Sp: start}
	case lexer.Tilde:
		p.next()
		return &ast.Unary{Op: ast.OpBitNot, X: p.parseUnary(), Sp: start}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *Parser) parsePostfix(expr ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case lexer.Dot:
			p.next()
			nameTok := p.expect(lexer.Ident)
			expr = &ast.Field{Target: expr, Name: p.intern(nameTok.Literal), Sp: span(expr.Span(), nameTok.Span)}
		case lexer.LBracket:
			p.next()
			var indices []ast.Expr
			indices = append(indices, p.parseExpr(precLowest))
			for p.cur.Type == lexer.Comma {
				p.next()
				indices = append(indices, p.parseExpr(precLowest))
			}
			end := p.expect(lexer.RBracket)
			expr = &ast.Index{Base: expr, Indices: indices, Sp: span(expr.Span(), end.Span)}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch tok.Type {
	case lexer.Real:
		p.next()
		return &ast.RealLit{Value: parseReal(tok.Literal), Sp: tok.Span}
	case lexer.String:
		p.next()
		return &ast.StringLit{Value: p.intern(tok.Literal), Sp: tok.Span}
	case lexer.LParen:
		p.next()
		inner := p.parseExpr(precLowest)
		p.expect(lexer.RParen)
		return inner
	case lexer.Ident:
		p.next()
		if p.cur.Type == lexer.LParen {
			return p.parseCallArgs(tok)
		}
		return &ast.Ident{Name: p.intern(tok.Literal), Sp: tok.Span}
	default:
		p.errorf(tok.Span, "unexpected token %s in expression", tok.Type)
		p.next()
		return &ast.RealLit{Value: 0, Sp: tok.Span}
	}
}

func (p *Parser) parseCallArgs(name lexer.Token) ast.Expr {
	p.expect(lexer.LParen)
	var args []ast.Expr
	for p.cur.Type != lexer.RParen && p.cur.Type != lexer.EOF {
		args = append(args, p.parseExpr(precLowest))
		if p.cur.Type == lexer.Comma {
			p.next()
		} else {
			break
		}
	}
	end := p.expect(lexer.RParen)
	return &ast.Call{Callee: p.intern(name.Literal), Args: args, Sp: span(name.Span, end.Span)}
}

func span(a, b lexer.Span) lexer.Span {
	return lexer.Span{Unit: a.Unit, Start: a.Start, End: b.End}
}

// parseReal parses a real literal token: decimal, floating, or
// `$`-prefixed hexadecimal.
func parseReal(lit string) float64 {
	if strings.HasPrefix(lit, "$") {
		n, err := strconv.ParseInt(lit[1:], 16, 64)
		if err != nil {
			return 0
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0
	}
	return f
}
