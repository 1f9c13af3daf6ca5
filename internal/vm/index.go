package vm

import (
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/value"
)

// loadIndex implements OpLoadIndex: reading an unset cell is a bounds
// error (value.Array defers that check to its caller, per its doc
// comment), reading a non-array base is a type error.
func (t *Thread) loadIndex(f *Frame, instr bytecode.Instruction) (value.Value, error) {
	base := f.registers[instr.B]
	if base.Tag != value.TagArray {
		return value.Value{}, &value.TypeError{Op: "index read"}
	}
	i := int(f.registers[instr.C].Real)
	j := 0
	if instr.Is2D {
		j = int(f.registers[instr.D].Real)
	}
	v, ok := base.Array.Get(i, j)
	if !ok {
		return value.Value{}, &gmlerr.RuntimeError{Kind: gmlerr.ArrayBounds, Message: "array index out of bounds"}
	}
	return v, nil
}

// storeIndex implements OpStoreIndex, auto-vivifying the base register
// into a fresh array on first write (§3 "Array": "auto-growing").
func (t *Thread) storeIndex(f *Frame, instr bytecode.Instruction) error {
	base := f.registers[instr.B]
	if base.Tag != value.TagArray {
		dims := 1
		if instr.Is2D {
			dims = 2
		}
		base = value.ArrayVal(value.NewArray(dims))
		f.registers[instr.B] = base
	}
	i := int(f.registers[instr.C].Real)
	j := 0
	if instr.Is2D {
		j = int(f.registers[instr.D].Real)
	}
	if i < 0 || (instr.Is2D && j < 0) {
		return &gmlerr.RuntimeError{Kind: gmlerr.ArrayBounds, Message: "negative array index"}
	}
	base.Array.Set(i, j, f.registers[instr.A])
	return nil
}
