package ssa

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

// lowerWith implements §4.D's `with` lowering and §9's "with as
// coroutine-shaped control flow": with-push captures an iteration record on
// an auxiliary stack, with-next is an ordinary branch, and break/continue
// are jumps that (by construction here) land on the pop/header block.
func (b *Builder) lowerWith(n *ast.With) {
	target := b.lowerWithTarget(n.Target)

	savedSelf := b.readVar(symbol.SymSelf, b.cur)
	savedOther := b.readVar(symbol.SymOther, b.cur)
	iter := b.emit(&Instr{Op: OpWithPush, Args: []Value{target}, Span: n.Sp})

	headerBlk := b.fn.NewBlock()
	thenBlk := b.fn.NewBlock()
	elseBlk := b.fn.NewBlock()

	b.jumpTo(headerBlk)

	b.cur = headerBlk
	next := b.emit(&Instr{Op: OpWithNext, Args: []Value{iter}, Span: n.Sp})
	headerBlk.Term = &Terminator{Kind: TermWithNext, Cond: next, Targets: []*Block{thenBlk, elseBlk}, Span: n.Sp}
	thenBlk.AddPred(headerBlk)
	elseBlk.AddPred(headerBlk)
	b.sealBlock(thenBlk)
	b.writeVar(symbol.SymSelf, thenBlk, next)
	b.writeVar(symbol.SymOther, thenBlk, savedSelf)

	b.emitTo(elseBlk, &Instr{Op: OpWithPop, Args: []Value{iter}, Span: n.Sp})
	b.writeVar(symbol.SymSelf, elseBlk, savedSelf)
	b.writeVar(symbol.SymOther, elseBlk, savedOther)

	b.loops = append(b.loops, loopCtx{breakTo: elseBlk, continueTo: headerBlk})
	b.cur = thenBlk
	b.lowerStmt(n.Body)
	b.jumpTo(headerBlk)
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(headerBlk)
	b.sealBlock(elseBlk)
	b.cur = elseBlk
}

// lowerWithTarget evaluates the `with <expr>` target. A bare identifier
// naming a known object type expands to that object's id; `all`/`self`/
// `other`/`noone` are the sentinel iteration targets of §3; anything else
// is an ordinary entity-valued expression.
func (b *Builder) lowerWithTarget(e ast.Expr) Value {
	if ident, ok := e.(*ast.Ident); ok {
		if objID, isObj := b.objects[ident.Name]; isObj {
			return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: float64(objID)}, Span: ident.Sp})
		}
		switch ident.Name {
		case symbol.SymAll:
			return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstAll}, Span: ident.Sp})
		case symbol.SymNoone:
			return b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstNoone}, Span: ident.Sp})
		}
	}
	return b.lowerExpr(e)
}
