// Package ssa lowers an internal/ast tree into a typed SSA intermediate
// form with an explicit control-flow graph: basic blocks linked by
// unconditional jumps, conditional branches (including the with-iterator
// branch), or return. A switch is lowered to a chain of conditional branches.
package ssa

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

// Value names an SSA definition: the result of an instruction, or a
// block-head phi merging values along predecessors.
type Value int

// Op enumerates SSA instruction opcodes.
type Op int

const (
	OpConst Op = iota // immediate load (real or string constant)
	OpParam           // function parameter, bound at call time

	OpUnary
	OpBinary

	OpLoadLocal
	OpStoreLocal
	OpLoadGlobal
	OpStoreGlobal
	OpLoadMember // entity member by symbol, on a target entity value
	OpStoreMember
	OpLoadIndex // 1- or 2-D array load
	OpStoreIndex

	// OpCall invokes Sym with Args, whether Sym names a user script, a
	// native procedure, or (for member access, see the NumArgs sentinels
	// on Args below) a getter/setter pair. Disambiguation happens at link
	// time in internal/vm, not here.
	OpCall

	OpWithPush // expand a `with` target into an iteration snapshot
	OpWithNext // advance the iterator; branches on exhaustion
	OpWithPop

	OpPhi
)

// Instr is one SSA instruction. Not all fields are meaningful for every Op;
// see the Op's doc comment in the const block above.
type Instr struct {
	ID      Value
	Op      Op
	Args    []Value // operand values (phi: one per predecessor, in Block.Preds order)
	Sym     symbol.Symbol
	Const   Const
	UnOp    ast.UnOp
	BinOp   ast.BinOp
	NumArgs int // argument count for OpCall (negative values are codegen-only field-access sentinels)
	Span    lexer.Span
}

// ConstKind distinguishes the immediate kinds an OpConst instruction can
// produce.
type ConstKind int

const (
	ConstReal ConstKind = iota
	ConstString
	ConstNoone // the `noone` sentinel: an always-invalid entity handle
	ConstAll   // the `all` sentinel: iterate every live instance
)

// Const is an SSA-level immediate.
type Const struct {
	Kind ConstKind
	Real float64
	Str  symbol.Symbol
}

// TermKind enumerates how a block transfers control.
type TermKind int

const (
	TermJump TermKind = iota
	TermBranch
	TermReturn
	TermWithNext // conditional branch driven by an OpWithNext result
)

// Terminator ends a basic block.
type Terminator struct {
	Kind    TermKind
	Cond    Value    // TermBranch / TermWithNext
	Targets []*Block // Jump: [0]; Branch/WithNext: [then, else]
	RetVal  Value    // TermReturn; InvalidValue means "no explicit value" (implicit real 0)
	Span    lexer.Span
}

// InvalidValue marks the absence of an SSA value (e.g. void return).
const InvalidValue Value = -1

// Block is a basic block: a straight-line instruction sequence ending in a
// Terminator, plus the predecessor list SSA construction needs to place
// phi operands.
type Block struct {
	ID    int
	Instrs []*Instr
	Term  *Terminator
	Preds []*Block
	succs []*Block // filled in by Function.Finish from Term.Targets

	sealed bool
	// incompletePhis holds placeholder phi values created for variable
	// reads that reached this block before all of its predecessors were
	// known (Braun et al.'s simple SSA construction).
	incompletePhis map[symbol.Symbol]Value
}

// Sealed reports whether every predecessor of b is known; readVar
// only resolves trivial/complete phis once a block is sealed.
func (b *Block) Sealed() bool { return b.sealed }

// Function is one compiled unit (script, event, instance/room creation
// code) in SSA form.
type Function struct {
	Name   string
	Params []symbol.Symbol
	Blocks []*Block

	nextValue  Value
	nextInstr  map[Value]*Instr
	phiVar     map[Value]symbol.Symbol // phi value -> the local it merges
	phiBlock   map[Value]*Block
}

// NewFunction creates an empty Function ready for the builder to populate.
func NewFunction(name string, params []symbol.Symbol) *Function {
	return &Function{
		Name:      name,
		Params:    params,
		nextInstr: make(map[Value]*Instr),
		phiVar:    make(map[Value]symbol.Symbol),
		phiBlock:  make(map[Value]*Block),
	}
}

func (f *Function) newValue() Value {
	v := f.nextValue
	f.nextValue++
	return v
}

// NewBlock appends and returns a fresh, initially-unsealed block.
func (f *Function) NewBlock() *Block {
	b := &Block{ID: len(f.Blocks), incompletePhis: make(map[symbol.Symbol]Value)}
	f.Blocks = append(f.Blocks, b)
	return b
}

// AddPred records that from is a predecessor of b. Must be called before b
// is sealed.
func (b *Block) AddPred(from *Block) {
	b.Preds = append(b.Preds, from)
}

// emit appends instr to b, assigning it a fresh SSA value, and returns that
// value.
func (f *Function) emit(b *Block, instr *Instr) Value {
	instr.ID = f.newValue()
	f.nextInstr[instr.ID] = instr
	b.Instrs = append(b.Instrs, instr)
	return instr.ID
}

// Instr looks up the instruction that defines v, phis included (phiVar and
// phiBlock additionally record which local and block a phi belongs to).
func (f *Function) Instr(v Value) *Instr { return f.nextInstr[v] }

// Finish computes each block's successor list from its terminator, once
// building is complete. Required before regalloc/codegen run.
func (f *Function) Finish() {
	for _, b := range f.Blocks {
		b.succs = nil
		if b.Term == nil {
			continue
		}
		b.succs = append(b.succs, b.Term.Targets...)
	}
}

// Succs returns b's successor blocks, computed by the most recent Finish.
func (b *Block) Succs() []*Block { return b.succs }
