package parser

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

var compoundOpOf = map[lexer.TokenType]ast.CompoundOp{
	lexer.PlusEq:  ast.CompoundAdd,
	lexer.MinusEq: ast.CompoundSub,
	lexer.StarEq:  ast.CompoundMul,
	lexer.SlashEq: ast.CompoundDiv,
	lexer.AmpEq:   ast.CompoundAnd,
	lexer.PipeEq:  ast.CompoundOr,
	lexer.CaretEq: ast.CompoundXor,
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.cur.Span
	var stmt ast.Stmt
	switch p.cur.Type {
	case lexer.Semicolon:
		p.next()
		return &ast.Block{Sp: start}
	case lexer.LBrace:
		stmt = p.parseBlock()
	case lexer.KwVar:
		stmt = p.parseDecl(false)
	case lexer.KwGlobalvar:
		stmt = p.parseDecl(true)
	case lexer.KwIf:
		stmt = p.parseIf()
	case lexer.KwRepeat:
		stmt = p.parseRepeat()
	case lexer.KwWhile:
		stmt = p.parseWhile()
	case lexer.KwDo:
		stmt = p.parseDo()
	case lexer.KwFor:
		stmt = p.parseFor()
	case lexer.KwWith:
		stmt = p.parseWith()
	case lexer.KwSwitch:
		stmt = p.parseSwitch()
	case lexer.KwBreak:
		p.next()
		stmt = &ast.Break{Sp: start}
	case lexer.KwContinue:
		p.next()
		stmt = &ast.Continue{Sp: start}
	case lexer.KwExit:
		p.next()
		stmt = &ast.Exit{Sp: start}
	case lexer.KwReturn:
		p.next()
		var val ast.Expr
		if !p.atStmtEnd() {
			val = p.parseExpr(precLowest)
		}
		stmt = &ast.Return{Value: val, Sp: start}
	default:
		stmt = p.parseAssignOrCall()
	}
	if p.cur.Type == lexer.Semicolon {
		p.next()
	}
	return stmt
}

func (p *Parser) parseBlock() ast.Stmt {
	start := p.expect(lexer.LBrace).Span
	var stmts []ast.Stmt
	for p.cur.Type != lexer.RBrace && p.cur.Type != lexer.EOF {
		stmts = append(stmts, p.parseStmt())
	}
	end := p.expect(lexer.RBrace).Span
	return &ast.Block{Stmts: stmts, Sp: span(start, end)}
}

func (p *Parser) parseDecl(global bool) ast.Stmt {
	start := p.cur.Span
	p.next()
	var names []symbol.Symbol
	names = append(names, p.intern(p.expect(lexer.Ident).Literal))
	for p.cur.Type == lexer.Comma {
		p.next()
		names = append(names, p.intern(p.expect(lexer.Ident).Literal))
	}
	return &ast.Decl{Global: global, Names: names, Sp: span(start, p.cur.Span)}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur.Span
	p.next()
	cond := p.parseExpr(precLowest)
	then := p.parseStmt()
	var els ast.Stmt
	if p.cur.Type == lexer.KwElse {
		p.next()
		els = p.parseStmt()
	}
	return &ast.If{Cond: cond, Then: then, Else: els, Sp: start}
}

func (p *Parser) parseRepeat() ast.Stmt {
	start := p.cur.Span
	p.next()
	count := p.parseExpr(precLowest)
	body := p.parseStmt()
	return &ast.Repeat{Count: count, Body: body, Sp: start}
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.cur.Span
	p.next()
	cond := p.parseExpr(precLowest)
	body := p.parseStmt()
	return &ast.While{Cond: cond, Body: body, Sp: start}
}

func (p *Parser) parseDo() ast.Stmt {
	start := p.cur.Span
	p.next()
	body := p.parseStmt()
	p.expect(lexer.KwUntil)
	cond := p.parseExpr(precLowest)
	return &ast.Do{Body: body, Cond: cond, Sp: start}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.cur.Span
	p.next()
	p.expect(lexer.LParen)
	var init ast.Stmt
	if p.cur.Type != lexer.Semicolon {
		init = p.parseAssignOrCall()
	}
	p.expect(lexer.Semicolon)
	var cond ast.Expr
	if p.cur.Type != lexer.Semicolon {
		cond = p.parseExpr(precLowest)
	}
	p.expect(lexer.Semicolon)
	var post ast.Stmt
	if p.cur.Type != lexer.RParen {
		post = p.parseAssignOrCall()
	}
	p.expect(lexer.RParen)
	body := p.parseStmt()
	return &ast.For{Init: init, Cond: cond, Post: post, Body: body, Sp: start}
}

func (p *Parser) parseWith() ast.Stmt {
	start := p.cur.Span
	p.next()
	target := p.parseExpr(precLowest)
	body := p.parseStmt()
	return &ast.With{Target: target, Body: body, Sp: start}
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.cur.Span
	p.next()
	scrutinee := p.parseExpr(precLowest)
	p.expect(lexer.LBrace)

	sw := &ast.Switch{Scrutinee: scrutinee, Sp: start}
	for p.cur.Type != lexer.RBrace && p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.KwCase:
			caseSp := p.cur.Span
			p.next()
			val := p.parseExpr(precLowest)
			p.expect(lexer.Colon)
			sw.Cases = append(sw.Cases, ast.Case{Value: val, Sp: caseSp})
			sw.Bodies = append(sw.Bodies, nil)
		case lexer.KwDefault:
			caseSp := p.cur.Span
			p.next()
			p.expect(lexer.Colon)
			sw.Cases = append(sw.Cases, ast.Case{IsDefault: true, Sp: caseSp})
			sw.Bodies = append(sw.Bodies, nil)
		default:
			if len(sw.Bodies) == 0 {
				p.errorf(p.cur.Span, "statement before first case in switch body")
				p.next()
				continue
			}
			last := len(sw.Bodies) - 1
			sw.Bodies[last] = append(sw.Bodies[last], p.parseStmt())
		}
	}
	p.expect(lexer.RBrace)
	return sw
}

// parseAssignOrCall disambiguates `lhs = rhs` / `lhs <op>= rhs` (statement
// assignment, note `=` here is never `==`) from a bare call statement.
func (p *Parser) parseAssignOrCall() ast.Stmt {
	start := p.cur.Span
	expr := p.parseExpr(precLowest)

	switch p.cur.Type {
	case lexer.Assign:
		p.next()
		rhs := p.parseExpr(precLowest)
		return &ast.Assign{Lhs: expr, Op: ast.CompoundNone, Rhs: rhs, Sp: start}
	default:
		if op, ok := compoundOpOf[p.cur.Type]; ok {
			p.next()
			rhs := p.parseExpr(precLowest)
			return &ast.Assign{Lhs: expr, Op: op, Rhs: rhs, Sp: start}
		}
	}

	if _, ok := expr.(*ast.Call); !ok {
		p.errorf(start, "expected assignment or call statement")
		return p.recover(start)
	}
	return &ast.ExprStmt{X: expr, Sp: start}
}
