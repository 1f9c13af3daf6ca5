package vm

import (
	"testing"

	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/world"
)

func newFunc(name string, regs, params int, code []bytecode.Instruction) *bytecode.Function {
	fn := &bytecode.Function{Name: name, RegisterCount: regs, ParamCount: params, Code: code}
	fn.Spans = make([]lexer.Span, len(code))
	return fn
}

func TestRunArithmeticWithStringCoercion(t *testing.T) {
	in := symbol.NewInterner()
	fn := newFunc("f", 3, 0, nil)
	k0 := fn.AddConst(value.Real(2))
	k1 := fn.AddConst(value.String(in.Intern("3")))
	fn.Code = []bytecode.Instruction{
		{Op: bytecode.OpLoadConst, A: 0, K: k0},
		{Op: bytecode.OpLoadConst, A: 1, K: k1},
		{Op: bytecode.OpBinary, A: 2, B: 0, C: 1, BinOp: ast.OpAdd},
		{Op: bytecode.OpReturn, A: 2},
	}
	fn.Spans = make([]lexer.Span, len(fn.Code))

	prog := NewProgram()
	sym := in.Intern("f")
	prog.Scripts[sym] = fn

	th := NewThread(world.New(nil), prog, binding.NewRegistry(), in, nil)
	got, err := th.Execute(FuncKey{Kind: KindScript, Script: sym}, value.NoEntity, value.NoEntity, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Real != 5 {
		t.Errorf("2 + \"3\" = %v, want 5", got.Real)
	}
}

func TestDivideByZeroProducesRuntimeError(t *testing.T) {
	in := symbol.NewInterner()
	fn := newFunc("f", 3, 0, nil)
	k0 := fn.AddConst(value.Real(1))
	k1 := fn.AddConst(value.Real(0))
	fn.Code = []bytecode.Instruction{
		{Op: bytecode.OpLoadConst, A: 0, K: k0},
		{Op: bytecode.OpLoadConst, A: 1, K: k1},
		{Op: bytecode.OpBinary, A: 2, B: 0, C: 1, BinOp: ast.OpDiv},
		{Op: bytecode.OpReturn, A: 2},
	}
	fn.Spans = make([]lexer.Span, len(fn.Code))

	prog := NewProgram()
	sym := in.Intern("f")
	prog.Scripts[sym] = fn

	th := NewThread(world.New(nil), prog, binding.NewRegistry(), in, nil)
	_, err := th.Execute(FuncKey{Kind: KindScript, Script: sym}, value.NoEntity, value.NoEntity, nil)
	if err == nil {
		t.Fatal("expected a division-by-zero error")
	}
	re, ok := err.(*gmlerr.RuntimeError)
	if !ok {
		t.Fatalf("error type = %T, want *gmlerr.RuntimeError", err)
	}
	if re.Kind != gmlerr.DivisionByZero {
		t.Errorf("Kind = %v, want DivisionByZero", re.Kind)
	}
	if len(re.Stack) == 0 {
		t.Error("invariant 5: RuntimeError must carry a non-empty Stack")
	}
}

func TestCallScriptPassesSelfOther(t *testing.T) {
	in := symbol.NewInterner()
	calleeSym := in.Intern("callee")
	callerSym := in.Intern("caller")

	// callee just returns register 0, which the VM fills with self as an
	// entity value. Every frame reserves R0 (self) and R1 (other).
	callee := newFunc("callee", 2, 0, []bytecode.Instruction{
		{Op: bytecode.OpReturn, A: 0},
	})

	caller := newFunc("caller", 2, 0, nil)
	argsIdx := caller.AddCallArgs(nil)
	caller.Code = []bytecode.Instruction{
		{Op: bytecode.OpCall, A: 0, Sym: calleeSym, ArgsIdx: argsIdx},
		{Op: bytecode.OpReturn, A: 0},
	}
	caller.Spans = make([]lexer.Span, len(caller.Code))

	prog := NewProgram()
	prog.Scripts[calleeSym] = callee
	prog.Scripts[callerSym] = caller

	selfEntity := value.Entity(7)
	th := NewThread(world.New(nil), prog, binding.NewRegistry(), in, nil)
	got, err := th.Execute(FuncKey{Kind: KindScript, Script: callerSym}, selfEntity, value.NoEntity, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Tag != value.TagEntity || got.Entity != selfEntity {
		t.Errorf("nested call self = %v, want entity %v (self/other not threaded through OpCall)", got, selfEntity)
	}
}

func TestDispatchCallResolvesBareObjectIdentifier(t *testing.T) {
	in := symbol.NewInterner()
	objSym := in.Intern("obj_player")

	fn := newFunc("f", 2, 0, nil)
	argsIdx := fn.AddCallArgs(nil)
	fn.Code = []bytecode.Instruction{
		{Op: bytecode.OpCall, A: 0, Sym: objSym, ArgsIdx: argsIdx},
		{Op: bytecode.OpReturn, A: 0},
	}
	fn.Spans = make([]lexer.Span, len(fn.Code))

	prog := NewProgram()
	sym := in.Intern("f")
	prog.Scripts[sym] = fn
	prog.Objects[objSym] = world.ObjectID(3)

	th := NewThread(world.New(nil), prog, binding.NewRegistry(), in, nil)
	got, err := th.Execute(FuncKey{Kind: KindScript, Script: sym}, value.NoEntity, value.NoEntity, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Real != 3 {
		t.Errorf("bare object identifier resolved to %v, want object id 3", got.Real)
	}
}

func TestWithNextYieldsFirstEntityOfObject(t *testing.T) {
	in := symbol.NewInterner()
	w := world.New(nil)
	e1 := w.CreateInstance(1, 0)
	e2 := w.CreateInstance(2, 0)
	e3 := w.CreateInstance(3, 0)
	w.MarkDestroyed(e2) // still "live" for With's snapshot until Sweep

	fn := newFunc("f", 2, 0, nil)
	kObj := fn.AddConst(value.Real(0))
	fn.Code = []bytecode.Instruction{
		{Op: bytecode.OpLoadConst, A: 1, K: kObj},
		{Op: bytecode.OpWithPush, A: 0, B: 1},
		{Op: bytecode.OpWithNext, A: 0},
		{Op: bytecode.OpReturn, A: 0}, // first live entity of object 0: e1
	}
	fn.Spans = make([]lexer.Span, len(fn.Code))

	prog := NewProgram()
	sym := in.Intern("f")
	prog.Scripts[sym] = fn

	th := NewThread(w, prog, binding.NewRegistry(), in, nil)
	got, err := th.Execute(FuncKey{Kind: KindScript, Script: sym}, value.NoEntity, value.NoEntity, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Tag != value.TagEntity || got.Entity != e1 {
		t.Errorf("first WithNext = %v, want entity %v", got, e1)
	}
	_ = e3
}
