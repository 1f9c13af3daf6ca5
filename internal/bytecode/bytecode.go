// Package bytecode defines the register-based instruction set that
// internal/codegen emits and internal/vm executes (§3 "Bytecode
// function"): a packed instruction stream over virtual registers, a
// constant pool of tagged values, a span table mapping instruction offsets
// to source spans, and function metadata (register count, parameter
// count, locals table).
package bytecode

import (
	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

// Op enumerates the instruction categories of §4.F: "load-immediate;
// move; unary-op; binary-op; compare-and-branch; jump; call-script;
// call-native; load/store-global; load/store-member; load/store-index;
// with-push/with-next/with-pop; return."
type Op int

const (
	OpLoadConst Op = iota // R[A] = Consts[K]
	OpMove                // R[A] = R[B]

	OpUnary  // R[A] = unop(R[B])
	OpBinary // R[A] = binop(R[B], R[C])

	OpJump        // pc = Target
	OpJumpIfFalse // if !R[A].IsTruthy() { pc = Target }

	// OpCall invokes Sym with the argument registers listed in
	// Function.CallArgs[ArgsIdx]. Sym is resolved at link time (see
	// internal/vm) to a script function, a native procedure, or a
	// getter/setter pair, per §4.F: "resolved at load time to either a
	// script function pointer, a native function, or a getter/setter
	// pair." Argument registers are recorded explicitly rather than as a
	// contiguous range, since linear-scan allocation gives them no
	// guaranteed adjacency.
	OpCall

	OpLoadGlobal  // R[A] = globals[Sym]
	OpStoreGlobal // globals[Sym] = R[A]

	OpLoadMember  // R[A] = R[B].Sym  (B is the entity-valued target register)
	OpStoreMember // R[B].Sym = R[A]

	OpLoadIndex  // R[A] = R[B][R[C]] or R[B][R[C], R[D]]
	OpStoreIndex // R[B][R[C]] = R[A] or R[B][R[C], R[D]] = R[A]

	OpLoadObjField  // R[A] = field Sym of the first live instance of object Consts[K]
	OpStoreObjField // field Sym of every live instance of object Consts[K] = R[A]

	OpWithPush // R[A] = push-with(R[B])            (B: target entity/ConstAll/ConstNoone)
	OpWithNext // R[A] = with-next(R[B]); falsy when the iteration is exhausted
	OpWithPop  // pop-with(R[A])

	OpReturn    // return R[A]
	OpReturnVoid // return (implicit real 0)
)

// Instruction is one bytecode instruction. Field meaning depends on Op; see
// the Op constants above.
type Instruction struct {
	Op      Op
	A, B, C, D int
	Sym     symbol.Symbol
	UnOp    ast.UnOp
	BinOp   ast.BinOp
	K       int // constant-pool index (OpLoadConst, OpLoadObjField, OpStoreObjField)
	ArgsIdx int // index into Function.CallArgs (OpCall)
	Is2D    bool // OpLoadIndex/OpStoreIndex: whether D holds a second index register
	Target  int  // absolute instruction index (OpJump, OpJumpIfFalse)
}

// Function is one compiled unit: a script, an object event handler, or
// room/instance creation code.
type Function struct {
	Name          string
	Code          []Instruction
	Consts        []value.Value
	CallArgs      [][]int // argument register lists, indexed by Instruction.ArgsIdx
	Spans         []lexer.Span // parallel to Code
	RegisterCount int
	ParamCount    int
	Locals        []symbol.Symbol // debug-only: local-slot names in declaration order
}

// AddCallArgs records args as a new call-argument-register list and
// returns its index.
func (f *Function) AddCallArgs(args []int) int {
	f.CallArgs = append(f.CallArgs, args)
	return len(f.CallArgs) - 1
}

// AddConst appends v to the constant pool, deduplicating real/string/noone
// constants so identical literals share a slot (§4.F: "Constants are
// deduplicated in the function's pool").
func (f *Function) AddConst(v value.Value) int {
	for i, c := range f.Consts {
		if sameConst(c, v) {
			return i
		}
	}
	f.Consts = append(f.Consts, v)
	return len(f.Consts) - 1
}

func sameConst(a, b value.Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case value.TagReal:
		return a.Real == b.Real
	case value.TagString:
		return a.Str == b.Str
	case value.TagEntity:
		return a.Entity == b.Entity
	default:
		return false
	}
}

// Emit appends instr (with its originating span) and returns its offset.
func (f *Function) Emit(instr Instruction, span lexer.Span) int {
	f.Code = append(f.Code, instr)
	f.Spans = append(f.Spans, span)
	return len(f.Code) - 1
}
