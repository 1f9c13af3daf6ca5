package ssa

import (
	"github.com/gmlscript/gmlscript/internal/ast"
)

// lowerSwitch implements §4.D: a chain of equality tests against the
// scrutinee in source order; `default` is the fallthrough target reached
// when no case matched; bodies fall through to the next case's body in
// source order until a `break`.
func (b *Builder) lowerSwitch(n *ast.Switch) {
	scrut := b.lowerExpr(n.Scrutinee)

	bodyBlks := make([]*Block, len(n.Cases))
	for i := range n.Cases {
		bodyBlks[i] = b.fn.NewBlock()
	}
	afterBlk := b.fn.NewBlock()

	defaultIdx := -1
	for i, c := range n.Cases {
		if c.IsDefault {
			defaultIdx = i
			break
		}
	}
	fallback := afterBlk
	if defaultIdx >= 0 {
		fallback = bodyBlks[defaultIdx]
	}

	lastCaseIdx := -1
	for i, c := range n.Cases {
		if !c.IsDefault {
			lastCaseIdx = i
		}
	}

	if lastCaseIdx < 0 {
		// no case labels at all: fall straight through to default/after.
		b.cur.Term = &Terminator{Kind: TermJump, Targets: []*Block{fallback}, Span: n.Sp}
		fallback.AddPred(b.cur)
	} else {
		testBlk := b.cur
		for i, c := range n.Cases {
			if c.IsDefault {
				continue
			}
			b.cur = testBlk
			val := b.lowerExpr(c.Value)
			eq := b.emit(&Instr{Op: OpBinary, BinOp: ast.OpEq, Args: []Value{scrut, val}, Span: c.Sp})
			target := fallback
			var nextTest *Block
			if i != lastCaseIdx {
				nextTest = b.fn.NewBlock()
				target = nextTest
			}
			testBlk.Term = &Terminator{Kind: TermBranch, Cond: eq, Targets: []*Block{bodyBlks[i], target}, Span: c.Sp}
			bodyBlks[i].AddPred(testBlk)
			target.AddPred(testBlk)
			if i == lastCaseIdx {
				break
			}
			testBlk = nextTest
		}
	}

	b.loops = append(b.loops, loopCtx{breakTo: afterBlk, continueTo: nil})
	for i, blk := range bodyBlks {
		b.sealBlock(blk)
		b.cur = blk
		for _, st := range n.Bodies[i] {
			b.lowerStmt(st)
		}
		if i+1 < len(bodyBlks) {
			b.jumpTo(bodyBlks[i+1])
		} else {
			b.jumpTo(afterBlk)
		}
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(afterBlk)
	b.cur = afterBlk
}

