// Package codegen lowers an allocated SSA function into a bytecode.Function
// (§4.F): one instruction per SSA instruction after register allocation,
// plus block-boundary jumps, with constants deduplicated into the
// function's pool and every emitted instruction's span recorded into the
// span side-table.
package codegen

import (
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/regalloc"
	"github.com/gmlscript/gmlscript/internal/ssa"
	"github.com/gmlscript/gmlscript/internal/value"
)

// Generate compiles fn (already Finish()ed) into a bytecode.Function using
// the register assignment in alloc.
func Generate(fn *ssa.Function, alloc *regalloc.Result) *bytecode.Function {
	out := &bytecode.Function{
		Name:          fn.Name,
		ParamCount:    len(fn.Params),
		RegisterCount: alloc.RegisterCount,
	}

	g := &gen{fn: fn, alloc: alloc, out: out, blockStart: map[int]int{}}
	g.collectPhiMoves()

	for _, blk := range alloc.Order {
		g.blockStart[blk.ID] = len(out.Code)
		for _, instr := range blk.Instrs {
			g.emitInstr(blk, instr)
		}
		for _, mv := range g.predMoves[blk.ID] {
			if mv.dst != mv.src {
				out.Emit(bytecode.Instruction{Op: bytecode.OpMove, A: mv.dst, B: mv.src}, blk.Term.Span)
			}
		}
		g.emitTerm(blk)
	}

	for _, p := range g.patches {
		out.Code[p.at].Target = g.blockStart[p.blockID]
	}
	return out
}

type move struct{ dst, src int }

type patch struct {
	at      int
	blockID int
}

type gen struct {
	fn         *ssa.Function
	alloc      *regalloc.Result
	out        *bytecode.Function
	blockStart map[int]int
	predMoves  map[int][]move
	patches    []patch
}

// collectPhiMoves computes, for every predecessor block, the parallel
// moves that must run at the end of that block to feed the successor's
// phis (no register coalescing is performed, so every phi needs an
// explicit move on each incoming edge).
func (g *gen) collectPhiMoves() {
	g.predMoves = map[int][]move{}
	for _, blk := range g.fn.Blocks {
		for _, instr := range blk.Instrs {
			if instr.Op != ssa.OpPhi {
				continue
			}
			dst := g.alloc.Reg[instr.ID]
			for i, arg := range instr.Args {
				if i >= len(blk.Preds) {
					break
				}
				pred := blk.Preds[i]
				src := g.alloc.Reg[arg]
				g.predMoves[pred.ID] = append(g.predMoves[pred.ID], move{dst: dst, src: src})
			}
		}
	}
}

func (g *gen) reg(v ssa.Value) int { return g.alloc.Reg[v] }

func (g *gen) emitInstr(blk *ssa.Block, instr *ssa.Instr) {
	switch instr.Op {
	case ssa.OpParam, ssa.OpPhi:
		// Params occupy pinned registers; phis resolve via predecessor moves.
		return
	case ssa.OpConst:
		k := g.out.AddConst(constValue(instr.Const))
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpLoadConst, A: g.reg(instr.ID), K: k}, instr.Span)
	case ssa.OpUnary:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpUnary, A: g.reg(instr.ID), B: g.reg(instr.Args[0]), UnOp: instr.UnOp}, instr.Span)
	case ssa.OpBinary:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpBinary, A: g.reg(instr.ID), B: g.reg(instr.Args[0]), C: g.reg(instr.Args[1]), BinOp: instr.BinOp}, instr.Span)
	case ssa.OpLoadLocal, ssa.OpStoreLocal:
		// Locals live entirely in SSA/regalloc; reads/writes are already
		// ordinary value uses by the time codegen runs.
	case ssa.OpLoadGlobal:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpLoadGlobal, A: g.reg(instr.ID), Sym: instr.Sym}, instr.Span)
	case ssa.OpStoreGlobal:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpStoreGlobal, A: g.reg(instr.Args[0]), Sym: instr.Sym}, instr.Span)
	case ssa.OpLoadMember:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpLoadMember, A: g.reg(instr.ID), B: g.reg(instr.Args[0]), Sym: instr.Sym}, instr.Span)
	case ssa.OpStoreMember:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpStoreMember, A: g.reg(instr.Args[1]), B: g.reg(instr.Args[0]), Sym: instr.Sym}, instr.Span)
	case ssa.OpLoadIndex:
		// Args: [base, idx1, (idx2)].
		is2D := len(instr.Args) > 2
		d := 0
		if is2D {
			d = g.reg(instr.Args[2])
		}
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpLoadIndex, A: g.reg(instr.ID), B: g.reg(instr.Args[0]), C: g.reg(instr.Args[1]), D: d, Is2D: is2D}, instr.Span)
	case ssa.OpStoreIndex:
		// Args: [base, value, idx1, (idx2)].
		is2D := len(instr.Args) > 3
		d := 0
		if is2D {
			d = g.reg(instr.Args[3])
		}
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpStoreIndex, A: g.reg(instr.Args[1]), B: g.reg(instr.Args[0]), C: g.reg(instr.Args[2]), D: d, Is2D: is2D}, instr.Span)
	case ssa.OpCall:
		g.emitNativeOrField(instr)
	case ssa.OpWithPush:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpWithPush, A: g.reg(instr.ID), B: g.reg(instr.Args[0])}, instr.Span)
	case ssa.OpWithNext:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpWithNext, A: g.reg(instr.ID), B: g.reg(instr.Args[0])}, instr.Span)
	case ssa.OpWithPop:
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpWithPop, A: g.reg(instr.Args[0])}, instr.Span)
	}
}

// emitNativeOrField handles both ordinary calls and the two `obj.name`
// sentinel encodings the SSA builder produces for "read/write the given
// member across every live instance of an object" (§4.D): a NumArgs of -1
// means "load first live instance's field", -2 means "broadcast-store to
// every live instance's field". Using the ordinary call opcode's
// argument-count slot as the sentinel avoids growing the SSA instruction
// set with cases that exist only at the codegen boundary.
func (g *gen) emitNativeOrField(instr *ssa.Instr) {
	switch instr.NumArgs {
	case -1:
		k := g.objConst(instr.Args[0])
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpLoadObjField, A: g.reg(instr.ID), K: k, Sym: instr.Sym}, instr.Span)
	case -2:
		k := g.objConst(instr.Args[0])
		g.out.Emit(bytecode.Instruction{Op: bytecode.OpStoreObjField, A: g.reg(instr.Args[1]), K: k, Sym: instr.Sym}, instr.Span)
	default:
		g.emitCall(instr)
	}
}

// objConst resolves the constant object-id load the SSA builder emits for
// `obj.name` access and records it in the bytecode constant pool as an
// entity value naming that object type.
func (g *gen) objConst(v ssa.Value) int {
	defInstr := g.fn.Instr(v)
	objID := value.Entity(int32(defInstr.Const.Real))
	return g.out.AddConst(value.EntityVal(objID))
}

func (g *gen) emitCall(instr *ssa.Instr) {
	regs := make([]int, len(instr.Args))
	for i, arg := range instr.Args {
		regs[i] = g.reg(arg)
	}
	idx := g.out.AddCallArgs(regs)
	g.out.Emit(bytecode.Instruction{Op: bytecode.OpCall, A: g.reg(instr.ID), Sym: instr.Sym, ArgsIdx: idx}, instr.Span)
}

func (g *gen) emitTerm(blk *ssa.Block) {
	t := blk.Term
	if t == nil {
		return
	}
	switch t.Kind {
	case ssa.TermJump:
		at := g.out.Emit(bytecode.Instruction{Op: bytecode.OpJump}, t.Span)
		g.patches = append(g.patches, patch{at: at, blockID: t.Targets[0].ID})
	case ssa.TermBranch, ssa.TermWithNext:
		at := g.out.Emit(bytecode.Instruction{Op: bytecode.OpJumpIfFalse, A: g.reg(t.Cond)}, t.Span)
		g.patches = append(g.patches, patch{at: at, blockID: t.Targets[1].ID})
		at2 := g.out.Emit(bytecode.Instruction{Op: bytecode.OpJump}, t.Span)
		g.patches = append(g.patches, patch{at: at2, blockID: t.Targets[0].ID})
	case ssa.TermReturn:
		if t.RetVal == ssa.InvalidValue {
			g.out.Emit(bytecode.Instruction{Op: bytecode.OpReturnVoid}, t.Span)
		} else {
			g.out.Emit(bytecode.Instruction{Op: bytecode.OpReturn, A: g.reg(t.RetVal)}, t.Span)
		}
	}
}

func constValue(c ssa.Const) value.Value {
	switch c.Kind {
	case ssa.ConstReal:
		return value.Real(c.Real)
	case ssa.ConstString:
		return value.String(c.Str)
	case ssa.ConstNoone:
		return value.EntityVal(value.NoEntity)
	case ssa.ConstAll:
		return value.EntityVal(value.AllEntities)
	default:
		return value.Real(0)
	}
}
