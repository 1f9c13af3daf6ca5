// Package vm implements the register-based interpreter of §4.F/§4.H: a
// fetch-decode-execute loop over bytecode.Function, a per-frame register
// file, and a with-stack for instance-iteration scoping.
package vm

import (
	"fmt"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/world"
)

// withIter is one entry of a frame's with-stack: a snapshot of entities
// taken at OpWithPush time and the cursor into it (§5 "Ordering":
// "removals during iteration do not perturb an in-flight snapshot").
type withIter struct {
	entities []value.Entity
	idx      int
}

// Frame is one activation record: the function executing, its register
// file, its self/other bindings, the instruction pointer, and its
// with-stack.
type Frame struct {
	fn        *bytecode.Function
	registers []value.Value
	self      value.Entity
	other     value.Entity
	pc        int
	withStack []withIter
}

// Thread is one interpreter call stack over a shared World. A Thread is not
// safe for concurrent use; the driver runs one Thread per logical update.
type Thread struct {
	World    *world.World
	Program  *Program
	Bindings *binding.Registry
	In       *symbol.Interner
	Host     any

	frames []*Frame
}

// NewThread creates a Thread ready to Execute against program.
func NewThread(w *world.World, program *Program, bindings *binding.Registry, in *symbol.Interner, host any) *Thread {
	return &Thread{World: w, Program: program, Bindings: bindings, In: in, Host: host}
}

// Execute looks up key and runs it to completion, returning its return
// value (real 0 for a void return).
func (t *Thread) Execute(key FuncKey, self, other value.Entity, args []value.Value) (value.Value, error) {
	fn, ok := t.Program.Lookup(key)
	if !ok {
		return value.Value{}, t.runtimeError(gmlerr.UnknownFunction, fmt.Sprintf("no compiled function for %v", key))
	}
	return t.run(fn, self, other, args)
}

// CallScript implements binding.Caller: a native trampoline may call back
// into a user script on the same thread, producing a nested frame (§4.H
// "Call").
func (t *Thread) CallScript(sym symbol.Symbol, self, other value.Entity, args []value.Value) (value.Value, error) {
	fn, ok := t.Program.Scripts[sym]
	if !ok {
		return value.Value{}, t.runtimeError(gmlerr.UnknownFunction, "unknown script "+t.In.Name(sym))
	}
	return t.run(fn, self, other, args)
}

func (t *Thread) run(fn *bytecode.Function, self, other value.Entity, args []value.Value) (value.Value, error) {
	f := &Frame{
		fn:        fn,
		registers: make([]value.Value, fn.RegisterCount),
		self:      self,
		other:     other,
	}
	f.registers[0] = value.EntityVal(self)
	f.registers[1] = value.EntityVal(other)
	for i := 0; i < fn.ParamCount && i < len(args); i++ {
		f.registers[2+i] = args[i]
	}

	t.frames = append(t.frames, f)
	defer func() { t.frames = t.frames[:len(t.frames)-1] }()

	for {
		if f.pc >= len(fn.Code) {
			return value.Real(0), nil
		}
		instr := fn.Code[f.pc]
		switch instr.Op {
		case bytecode.OpLoadConst:
			f.registers[instr.A] = fn.Consts[instr.K]
			f.pc++

		case bytecode.OpMove:
			f.registers[instr.A] = f.registers[instr.B]
			f.pc++

		case bytecode.OpUnary:
			v, err := evalUnary(instr.UnOp, t.In, f.registers[instr.B])
			if err != nil {
				return value.Value{}, t.wrapError(err, f)
			}
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpBinary:
			v, err := evalBinary(instr.BinOp, t.In, f.registers[instr.B], f.registers[instr.C])
			if err != nil {
				return value.Value{}, t.wrapError(err, f)
			}
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpJump:
			f.pc = instr.Target

		case bytecode.OpJumpIfFalse:
			if !f.registers[instr.A].IsTruthy() {
				f.pc = instr.Target
			} else {
				f.pc++
			}

		case bytecode.OpCall:
			v, err := t.dispatchCall(f, instr)
			if err != nil {
				return value.Value{}, t.wrapError(err, f)
			}
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpLoadGlobal:
			v, _ := t.World.GetMember(t.World.Global, instr.Sym)
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpStoreGlobal:
			t.World.SetMember(t.World.Global, instr.Sym, f.registers[instr.A])
			f.pc++

		case bytecode.OpLoadMember:
			target := f.registers[instr.B]
			if target.Tag != value.TagEntity {
				return value.Value{}, t.wrapError(&value.TypeError{Op: "member read"}, f)
			}
			v, _ := t.World.GetMember(target.Entity, instr.Sym)
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpStoreMember:
			target := f.registers[instr.B]
			if target.Tag != value.TagEntity {
				return value.Value{}, t.wrapError(&value.TypeError{Op: "member write"}, f)
			}
			t.World.SetMember(target.Entity, instr.Sym, f.registers[instr.A])
			f.pc++

		case bytecode.OpLoadIndex:
			v, err := t.loadIndex(f, instr)
			if err != nil {
				return value.Value{}, t.wrapError(err, f)
			}
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpStoreIndex:
			if err := t.storeIndex(f, instr); err != nil {
				return value.Value{}, t.wrapError(err, f)
			}
			f.pc++

		case bytecode.OpLoadObjField:
			objID := world.ObjectID(int32(fn.Consts[instr.K].Entity))
			var v value.Value
			if e, ok := t.World.FirstOfObject(objID); ok {
				v, _ = t.World.GetMember(e, instr.Sym)
			}
			f.registers[instr.A] = v
			f.pc++

		case bytecode.OpStoreObjField:
			objID := world.ObjectID(int32(fn.Consts[instr.K].Entity))
			t.World.SetMemberOfAll(objID, instr.Sym, f.registers[instr.A])
			f.pc++

		case bytecode.OpWithPush:
			entities := world.ExpandWithTarget(t.World, f.registers[instr.B])
			f.withStack = append(f.withStack, withIter{entities: entities})
			f.pc++

		case bytecode.OpWithNext:
			// R[A] doubles as the branch condition and the new self value:
			// the SSA builder feeds this same instruction's result directly
			// into the self variable (builder_with.go), and NoEntity is
			// falsy, so exhaustion and "no more live entities" coincide.
			top := &f.withStack[len(f.withStack)-1]
			next := value.EntityVal(value.NoEntity)
			for top.idx < len(top.entities) {
				e := top.entities[top.idx]
				top.idx++
				if t.World.IsLive(e) {
					f.other = f.self
					f.self = e
					next = value.EntityVal(e)
					break
				}
			}
			f.registers[instr.A] = next
			f.pc++

		case bytecode.OpWithPop:
			f.withStack = f.withStack[:len(f.withStack)-1]
			f.pc++

		case bytecode.OpReturn:
			return f.registers[instr.A], nil

		case bytecode.OpReturnVoid:
			return value.Real(0), nil

		default:
			return value.Value{}, t.wrapError(&value.TypeError{Op: "unknown opcode"}, f)
		}
	}
}

// dispatchCall resolves instr.Sym in the order §4.F documents: a bare
// object-type identifier first (zero-arg, see Program.Objects' doc
// comment), then a user script, then a host binding.
func (t *Thread) dispatchCall(f *Frame, instr bytecode.Instruction) (value.Value, error) {
	args := f.regList(instr.ArgsIdx)

	if objID, ok := t.Program.Objects[instr.Sym]; ok && len(args) == 0 {
		return value.Real(float64(objID)), nil
	}
	if fn, ok := t.Program.Scripts[instr.Sym]; ok {
		return t.run(fn, f.self, f.other, args)
	}
	desc, ok := t.Bindings.Lookup(instr.Sym)
	if !ok {
		return value.Value{}, &gmlerr.RuntimeError{Kind: gmlerr.UnknownFunction, Message: "unknown function " + t.In.Name(instr.Sym)}
	}
	cx := &binding.Context{World: t.World, In: t.In, Call: t, Host: t.Host}
	switch desc.Kind {
	case binding.KindGetter, binding.KindSetter:
		// A name registered as both getter and setter keeps KindGetter, so
		// the argument count picks the accessor: [self] reads, [self, v] writes.
		if len(args) == 1 && desc.Get != nil && args[0].Tag == value.TagEntity {
			return desc.Get(cx, args[0].Entity)
		}
		if len(args) == 2 && desc.Set != nil && args[0].Tag == value.TagEntity {
			return value.Real(0), desc.Set(cx, args[0].Entity, args[1])
		}
		return value.Value{}, &value.TypeError{Op: "getter/setter"}
	case binding.KindFixed:
		if len(args) != desc.Arity {
			return value.Value{}, &gmlerr.RuntimeError{Kind: gmlerr.WrongArgCount, Message: t.In.Name(instr.Sym)}
		}
		return desc.Proc(cx, f.self, args)
	default: // KindVariadic
		return desc.Proc(cx, f.self, args)
	}
}

func (f *Frame) regList(idx int) []value.Value {
	regs := f.fn.CallArgs[idx]
	out := make([]value.Value, len(regs))
	for i, r := range regs {
		out[i] = f.registers[r]
	}
	return out
}

func (t *Thread) runtimeError(kind gmlerr.RuntimeKind, msg string) error {
	return &gmlerr.RuntimeError{Kind: kind, Message: msg, Stack: t.stack()}
}

// wrapError attaches the current call stack to err, converting a bare
// value.TypeError/DivideByZeroError into a gmlerr.RuntimeError (§8
// invariant 5: a RuntimeError always carries a non-empty Stack).
func (t *Thread) wrapError(err error, f *Frame) error {
	if re, ok := err.(*gmlerr.RuntimeError); ok {
		if len(re.Stack) == 0 {
			re.Stack = t.stack()
		}
		return re
	}
	kind := gmlerr.TypeMismatch
	if _, ok := err.(*value.DivideByZeroError); ok {
		kind = gmlerr.DivisionByZero
	}
	return &gmlerr.RuntimeError{Kind: kind, Message: err.Error(), Stack: t.stack()}
}

func (t *Thread) stack() []gmlerr.Frame {
	out := make([]gmlerr.Frame, 0, len(t.frames))
	for i := len(t.frames) - 1; i >= 0; i-- {
		fr := t.frames[i]
		var span lexer.Span
		if len(fr.fn.Spans) > 0 {
			span = fr.fn.Spans[min(fr.pc, len(fr.fn.Spans)-1)]
		}
		out = append(out, gmlerr.Frame{FuncName: fr.fn.Name, Span: span})
	}
	return out
}
