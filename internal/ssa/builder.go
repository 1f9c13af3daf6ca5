package ssa

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

// Builder lowers one ast.Function to SSA in a single pass, constructing
// basic blocks on the fly and resolving variable reads/writes with the
// minimal SSA construction algorithm (Braun, Buchwald, Hack et al. 2013):
// unsealed blocks buffer reads as incomplete phis, resolved once every
// predecessor is known.
type Builder struct {
	in      *symbol.Interner
	globals map[symbol.Symbol]bool // declared `globalvar`, or pre-existing in world.globals
	objects map[symbol.Symbol]int  // object-type identifiers known at compile time

	// getters/setters record which member names were registered as host
	// bindings before compilation (§4.I: "the compiler recognizes getter/
	// setter names during member-access lowering"), so reads/writes of
	// those names bypass the property bag and lower to a call instead of
	// OpLoadMember/OpStoreMember.
	getters map[symbol.Symbol]bool
	setters map[symbol.Symbol]bool

	fn  *Function
	cur *Block

	// defs[sym][blockID] is the reaching SSA value for sym at the end of
	// that block (or mid-block, for the block currently being built).
	defs map[symbol.Symbol]map[int]Value

	locals map[symbol.Symbol]bool // declared by `var` in the current function

	loops []loopCtx
}

type loopCtx struct {
	breakTo    *Block
	continueTo *Block // nil for a construct with no continue target (switch)
}

// NewBuilder creates a Builder. globals and objects are compile-time tables
// resolved from the project and the world's currently-declared globals
// (§4.D scoping rules; §6 project description). getters/setters are the
// symbol sets registered in the binding layer before compilation began.
func NewBuilder(in *symbol.Interner, globals map[symbol.Symbol]bool, objects map[symbol.Symbol]int, getters, setters map[symbol.Symbol]bool) *Builder {
	if globals == nil {
		globals = map[symbol.Symbol]bool{}
	}
	if objects == nil {
		objects = map[symbol.Symbol]int{}
	}
	if getters == nil {
		getters = map[symbol.Symbol]bool{}
	}
	if setters == nil {
		setters = map[symbol.Symbol]bool{}
	}
	return &Builder{in: in, globals: globals, objects: objects, getters: getters, setters: setters}
}

// Build lowers fn into an SSA Function. The returned Function's first two
// parameter slots are always `self` and `other`; fn.Params follow them.
func (b *Builder) Build(fn *ast.Function) *Function {
	params := append([]symbol.Symbol{symbol.SymSelf, symbol.SymOther}, fn.Params...)
	b.fn = NewFunction(fn.Name, params)
	b.defs = map[symbol.Symbol]map[int]Value{}
	b.locals = map[symbol.Symbol]bool{}

	entry := b.fn.NewBlock()
	b.sealBlock(entry) // entry has no predecessors; seal immediately
	b.cur = entry

	for i, p := range params {
		v := b.fn.emit(entry, &Instr{Op: OpParam, NumArgs: i})
		b.writeVar(p, entry, v)
		b.locals[p] = true
	}

	for _, s := range fn.Body {
		b.lowerStmt(s)
	}
	b.ensureTerminated(InvalidValue)
	b.fn.Finish()
	return b.fn
}

// ---- variable versioning (Braun et al.) ----

func (b *Builder) writeVar(sym symbol.Symbol, blk *Block, v Value) {
	m, ok := b.defs[sym]
	if !ok {
		m = map[int]Value{}
		b.defs[sym] = m
	}
	m[blk.ID] = v
}

func (b *Builder) readVar(sym symbol.Symbol, blk *Block) Value {
	if m, ok := b.defs[sym]; ok {
		if v, ok := m[blk.ID]; ok {
			return v
		}
	}
	return b.readVarRecursive(sym, blk)
}

func (b *Builder) readVarRecursive(sym symbol.Symbol, blk *Block) Value {
	var v Value
	if !blk.sealed {
		v = b.newPhi(blk, sym)
		blk.incompletePhis[sym] = v
	} else if len(blk.Preds) == 1 {
		v = b.readVar(sym, blk.Preds[0])
	} else {
		v = b.newPhi(blk, sym)
		b.writeVar(sym, blk, v) // break potential cycles before recursing
		v = b.addPhiOperands(v, sym, blk)
	}
	b.writeVar(sym, blk, v)
	return v
}

func (b *Builder) newPhi(blk *Block, sym symbol.Symbol) Value {
	instr := &Instr{Op: OpPhi}
	v := b.fn.emit(blk, instr)
	b.fn.phiVar[v] = sym
	b.fn.phiBlock[v] = blk
	return v
}

func (b *Builder) addPhiOperands(phi Value, sym symbol.Symbol, blk *Block) Value {
	instr := b.fn.Instr(phi)
	for _, pred := range blk.Preds {
		instr.Args = append(instr.Args, b.readVar(sym, pred))
	}
	return b.tryRemoveTrivialPhi(phi, instr)
}

// tryRemoveTrivialPhi collapses a phi whose operands are all identical (or
// all equal to itself) into that single value, matching the well-known
// minimal-SSA cleanup so the builder never leaves around phi(x,x,...,x).
func (b *Builder) tryRemoveTrivialPhi(phi Value, instr *Instr) Value {
	var same Value = InvalidValue
	for _, op := range instr.Args {
		if op == phi || op == same {
			continue
		}
		if same != InvalidValue {
			return phi // genuinely merges more than one value
		}
		same = op
	}
	if same == InvalidValue {
		return phi // unreachable phi (e.g. loop header with no real preds yet)
	}
	instr.Op = OpUnary
	instr.UnOp = ast.OpPos
	instr.Args = []Value{same}
	return same
}

func (b *Builder) sealBlock(blk *Block) {
	for sym, phi := range blk.incompletePhis {
		b.addPhiOperands(phi, sym, blk)
	}
	blk.incompletePhis = map[symbol.Symbol]Value{}
	blk.sealed = true
}

// ensureTerminated gives the current block a return terminator if the
// source ran off the end without one (§4.D: "at end of a script without
// return, the result is real 0").
func (b *Builder) ensureTerminated(retVal Value) {
	if b.cur.Term != nil {
		return
	}
	b.cur.Term = &Terminator{Kind: TermReturn, RetVal: retVal}
}

func (b *Builder) jumpTo(target *Block) {
	if b.cur.Term != nil {
		return
	}
	b.cur.Term = &Terminator{Kind: TermJump, Targets: []*Block{target}}
	target.AddPred(b.cur)
}
