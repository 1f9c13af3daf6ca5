package ssa

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

func (b *Builder) emitTo(blk *Block, instr *Instr) Value { return b.fn.emit(blk, instr) }

func (b *Builder) lowerStmt(s ast.Stmt) {
	if b.cur.Term != nil {
		return // unreachable: a prior statement already terminated this block
	}
	switch n := s.(type) {
	case *ast.ErrorStmt:
		// error-recovery marker lowers to nothing
	case *ast.Block:
		for _, sub := range n.Stmts {
			b.lowerStmt(sub)
		}
	case *ast.Decl:
		b.lowerDecl(n)
	case *ast.Assign:
		b.lowerAssign(n)
	case *ast.ExprStmt:
		b.lowerExpr(n.X)
	case *ast.If:
		b.lowerIf(n)
	case *ast.Repeat:
		b.lowerRepeat(n)
	case *ast.While:
		b.lowerWhile(n)
	case *ast.Do:
		b.lowerDo(n)
	case *ast.For:
		b.lowerFor(n)
	case *ast.With:
		b.lowerWith(n)
	case *ast.Switch:
		b.lowerSwitch(n)
	case *ast.Break:
		b.lowerBreak()
	case *ast.Continue:
		b.lowerContinue()
	case *ast.Exit:
		b.cur.Term = &Terminator{Kind: TermReturn, RetVal: InvalidValue, Span: n.Sp}
	case *ast.Return:
		var v Value = InvalidValue
		if n.Value != nil {
			v = b.lowerExpr(n.Value)
		}
		b.cur.Term = &Terminator{Kind: TermReturn, RetVal: v, Span: n.Sp}
	}
}

func (b *Builder) lowerDecl(n *ast.Decl) {
	for _, name := range n.Names {
		if n.Global {
			b.globals[name] = true
			continue
		}
		b.locals[name] = true
		zero := b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: 0}, Span: n.Sp})
		b.writeVar(name, b.cur, zero)
	}
}

func (b *Builder) lowerAssign(n *ast.Assign) {
	if n.Op == ast.CompoundNone {
		v := b.lowerExpr(n.Rhs)
		b.lowerAssignTarget(n.Lhs, v)
		return
	}
	cur := b.lowerExpr(n.Lhs)
	rhs := b.lowerExpr(n.Rhs)
	op := compoundToBinOp(n.Op)
	v := b.emit(&Instr{Op: OpBinary, BinOp: op, Args: []Value{cur, rhs}, Span: n.Sp})
	b.lowerAssignTarget(n.Lhs, v)
}

func compoundToBinOp(op ast.CompoundOp) ast.BinOp {
	switch op {
	case ast.CompoundAdd:
		return ast.OpAdd
	case ast.CompoundSub:
		return ast.OpSub
	case ast.CompoundMul:
		return ast.OpMul
	case ast.CompoundDiv:
		return ast.OpDiv
	case ast.CompoundAnd:
		return ast.OpBitAnd
	case ast.CompoundOr:
		return ast.OpBitOr
	case ast.CompoundXor:
		return ast.OpBitXor
	default:
		return ast.OpAdd
	}
}

func (b *Builder) lowerIf(n *ast.If) {
	cond := b.lowerExpr(n.Cond)
	thenBlk := b.fn.NewBlock()
	afterBlk := b.fn.NewBlock()
	elseBlk := afterBlk
	if n.Else != nil {
		elseBlk = b.fn.NewBlock()
	}
	b.cur.Term = &Terminator{Kind: TermBranch, Cond: cond, Targets: []*Block{thenBlk, elseBlk}, Span: n.Sp}
	thenBlk.AddPred(b.cur)
	elseBlk.AddPred(b.cur)
	b.sealBlock(thenBlk)
	if elseBlk != afterBlk {
		b.sealBlock(elseBlk)
	}

	b.cur = thenBlk
	b.lowerStmt(n.Then)
	b.jumpTo(afterBlk)

	if n.Else != nil {
		b.cur = elseBlk
		b.lowerStmt(n.Else)
		b.jumpTo(afterBlk)
	}

	b.sealBlock(afterBlk)
	b.cur = afterBlk
}

// lowerRepeat: `repeat n { body }` — a loop counter initialized to
// floor(n), decremented each iteration; non-positive n skips the body.
func (b *Builder) lowerRepeat(n *ast.Repeat) {
	rawCount := b.lowerExpr(n.Count)
	count := b.emit(&Instr{Op: OpUnary, UnOp: ast.OpFloor, Args: []Value{rawCount}, Span: n.Sp})
	headerBlk := b.fn.NewBlock()
	bodyBlk := b.fn.NewBlock()
	afterBlk := b.fn.NewBlock()

	b.writeVar(repeatCounterSym, b.cur, count)
	b.jumpTo(headerBlk)

	b.cur = headerBlk
	cur := b.readVar(repeatCounterSym, headerBlk)
	zero := b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: 0}})
	cond := b.emit(&Instr{Op: OpBinary, BinOp: ast.OpGt, Args: []Value{cur, zero}, Span: n.Sp})
	headerBlk.Term = &Terminator{Kind: TermBranch, Cond: cond, Targets: []*Block{bodyBlk, afterBlk}, Span: n.Sp}
	bodyBlk.AddPred(headerBlk)
	afterBlk.AddPred(headerBlk)
	b.sealBlock(bodyBlk)

	b.loops = append(b.loops, loopCtx{breakTo: afterBlk, continueTo: headerBlk})
	b.cur = bodyBlk
	one := b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: 1}})
	dec := b.emit(&Instr{Op: OpBinary, BinOp: ast.OpSub, Args: []Value{cur, one}, Span: n.Sp})
	b.writeVar(repeatCounterSym, bodyBlk, dec)
	b.lowerStmt(n.Body)
	b.jumpTo(headerBlk)
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(headerBlk)
	b.sealBlock(afterBlk)
	b.cur = afterBlk
}

// repeatCounterSym is an internal-only pseudo-variable; it can never
// collide with a user symbol because the interner never hands out negative
// symbol values.
const repeatCounterSym symbol.Symbol = -1000

func (b *Builder) lowerWhile(n *ast.While) {
	headerBlk := b.fn.NewBlock()
	bodyBlk := b.fn.NewBlock()
	afterBlk := b.fn.NewBlock()

	b.jumpTo(headerBlk)
	b.cur = headerBlk
	cond := b.lowerExpr(n.Cond)
	headerBlk.Term = &Terminator{Kind: TermBranch, Cond: cond, Targets: []*Block{bodyBlk, afterBlk}, Span: n.Sp}
	bodyBlk.AddPred(headerBlk)
	afterBlk.AddPred(headerBlk)
	b.sealBlock(bodyBlk)

	b.loops = append(b.loops, loopCtx{breakTo: afterBlk, continueTo: headerBlk})
	b.cur = bodyBlk
	b.lowerStmt(n.Body)
	b.jumpTo(headerBlk)
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(headerBlk)
	b.sealBlock(afterBlk)
	b.cur = afterBlk
}

func (b *Builder) lowerDo(n *ast.Do) {
	bodyBlk := b.fn.NewBlock()
	afterBlk := b.fn.NewBlock()

	b.jumpTo(bodyBlk)
	b.loops = append(b.loops, loopCtx{breakTo: afterBlk, continueTo: bodyBlk})
	b.cur = bodyBlk
	b.lowerStmt(n.Body)
	if b.cur.Term == nil {
		cond := b.lowerExpr(n.Cond)
		b.cur.Term = &Terminator{Kind: TermBranch, Cond: cond, Targets: []*Block{afterBlk, bodyBlk}, Span: n.Sp}
		afterBlk.AddPred(b.cur)
		bodyBlk.AddPred(b.cur)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(bodyBlk)
	b.sealBlock(afterBlk)
	b.cur = afterBlk
}

func (b *Builder) lowerFor(n *ast.For) {
	if n.Init != nil {
		b.lowerStmt(n.Init)
	}
	headerBlk := b.fn.NewBlock()
	bodyBlk := b.fn.NewBlock()
	postBlk := b.fn.NewBlock()
	afterBlk := b.fn.NewBlock()

	b.jumpTo(headerBlk)
	b.cur = headerBlk
	var cond Value
	if n.Cond != nil {
		cond = b.lowerExpr(n.Cond)
	} else {
		cond = b.emit(&Instr{Op: OpConst, Const: Const{Kind: ConstReal, Real: 1}})
	}
	headerBlk.Term = &Terminator{Kind: TermBranch, Cond: cond, Targets: []*Block{bodyBlk, afterBlk}, Span: n.Sp}
	bodyBlk.AddPred(headerBlk)
	afterBlk.AddPred(headerBlk)
	b.sealBlock(bodyBlk)

	b.loops = append(b.loops, loopCtx{breakTo: afterBlk, continueTo: postBlk})
	b.cur = bodyBlk
	b.lowerStmt(n.Body)
	b.jumpTo(postBlk)
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(postBlk)
	b.cur = postBlk
	if n.Post != nil {
		b.lowerStmt(n.Post)
	}
	b.jumpTo(headerBlk)

	b.sealBlock(headerBlk)
	b.sealBlock(afterBlk)
	b.cur = afterBlk
}

func (b *Builder) lowerBreak() {
	if len(b.loops) == 0 {
		return
	}
	target := b.loops[len(b.loops)-1].breakTo
	b.jumpTo(target)
}

func (b *Builder) lowerContinue() {
	for i := len(b.loops) - 1; i >= 0; i-- {
		if b.loops[i].continueTo != nil {
			b.jumpTo(b.loops[i].continueTo)
			return
		}
	}
}
