package bytecode

import (
	"fmt"
	"strings"

	"github.com/gmlscript/gmlscript/internal/symbol"
)

var opNames = map[Op]string{
	OpLoadConst:     "loadk",
	OpMove:          "move",
	OpUnary:         "unop",
	OpBinary:        "binop",
	OpJump:          "jump",
	OpJumpIfFalse:   "jmpf",
	OpCall:          "call",
	OpLoadGlobal:    "gload",
	OpStoreGlobal:   "gstore",
	OpLoadMember:    "mload",
	OpStoreMember:   "mstore",
	OpLoadIndex:     "iload",
	OpStoreIndex:    "istore",
	OpLoadObjField:  "oload",
	OpStoreObjField: "ostore",
	OpWithPush:      "withpush",
	OpWithNext:      "withnext",
	OpWithPop:       "withpop",
	OpReturn:        "ret",
	OpReturnVoid:    "retvoid",
}

// Disassemble renders f as human-readable text, one instruction per line,
// in the format that `gmlc disasm` prints.
func Disassemble(f *Function, in *symbol.Interner) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s(params=%d, regs=%d)\n", f.Name, f.ParamCount, f.RegisterCount)
	for i, instr := range f.Code {
		fmt.Fprintf(&b, "%4d  %s\n", i, formatInstr(instr, in, f))
	}
	return b.String()
}

func formatInstr(instr Instruction, in *symbol.Interner, f *Function) string {
	name := opNames[instr.Op]
	switch instr.Op {
	case OpLoadConst:
		return fmt.Sprintf("%s r%d, k%d", name, instr.A, instr.K)
	case OpMove:
		return fmt.Sprintf("%s r%d, r%d", name, instr.A, instr.B)
	case OpUnary:
		return fmt.Sprintf("%s r%d, r%d, %v", name, instr.A, instr.B, instr.UnOp)
	case OpBinary:
		return fmt.Sprintf("%s r%d, r%d, r%d, %v", name, instr.A, instr.B, instr.C, instr.BinOp)
	case OpJump:
		return fmt.Sprintf("%s -> %d", name, instr.Target)
	case OpJumpIfFalse:
		return fmt.Sprintf("%s r%d, -> %d", name, instr.A, instr.Target)
	case OpCall:
		args := "()"
		if f != nil && instr.ArgsIdx < len(f.CallArgs) {
			regs := f.CallArgs[instr.ArgsIdx]
			parts := make([]string, len(regs))
			for i, r := range regs {
				parts[i] = fmt.Sprintf("r%d", r)
			}
			args = "(" + strings.Join(parts, ", ") + ")"
		}
		return fmt.Sprintf("%s r%d, %s, %s", name, instr.A, symName(in, instr.Sym), args)
	case OpLoadGlobal, OpStoreGlobal:
		return fmt.Sprintf("%s r%d, %s", name, instr.A, symName(in, instr.Sym))
	case OpLoadMember:
		return fmt.Sprintf("%s r%d, r%d.%s", name, instr.A, instr.B, symName(in, instr.Sym))
	case OpStoreMember:
		return fmt.Sprintf("%s r%d.%s, r%d", name, instr.B, symName(in, instr.Sym), instr.A)
	case OpLoadIndex:
		if instr.Is2D {
			return fmt.Sprintf("%s r%d, r%d[r%d,r%d]", name, instr.A, instr.B, instr.C, instr.D)
		}
		return fmt.Sprintf("%s r%d, r%d[r%d]", name, instr.A, instr.B, instr.C)
	case OpStoreIndex:
		if instr.Is2D {
			return fmt.Sprintf("%s r%d[r%d,r%d], r%d", name, instr.B, instr.C, instr.D, instr.A)
		}
		return fmt.Sprintf("%s r%d[r%d], r%d", name, instr.B, instr.C, instr.A)
	case OpLoadObjField:
		return fmt.Sprintf("%s r%d, k%d.%s", name, instr.A, instr.K, symName(in, instr.Sym))
	case OpStoreObjField:
		return fmt.Sprintf("%s k%d.%s, r%d", name, instr.K, symName(in, instr.Sym), instr.A)
	case OpWithPush, OpWithNext:
		return fmt.Sprintf("%s r%d, r%d", name, instr.A, instr.B)
	case OpWithPop:
		return fmt.Sprintf("%s r%d", name, instr.A)
	case OpReturn:
		return fmt.Sprintf("%s r%d", name, instr.A)
	case OpReturnVoid:
		return name
	default:
		return name
	}
}

func symName(in *symbol.Interner, s symbol.Symbol) string {
	if in == nil {
		return fmt.Sprintf("sym%d", s)
	}
	return in.Name(s)
}
