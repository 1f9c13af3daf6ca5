package driver

import (
	"testing"

	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/lexer"
	"github.com/gmlscript/gmlscript/internal/stdlib/motion"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/vm"
	"github.com/gmlscript/gmlscript/internal/world"
)

// newCounterEvent builds a function that increments a globalvar counter
// cell every time it runs, so tests can check call counts without
// inspecting VM registers.
func newCounterEvent(counterSym symbol.Symbol) *bytecode.Function {
	fn := &bytecode.Function{Name: "counter", RegisterCount: 2, ParamCount: 0}
	k1 := fn.AddConst(value.Real(1))
	fn.Code = []bytecode.Instruction{
		{Op: bytecode.OpLoadGlobal, A: 0, Sym: counterSym},
		{Op: bytecode.OpLoadConst, A: 1, K: k1},
		{Op: bytecode.OpBinary, A: 0, B: 0, C: 1, BinOp: ast.OpAdd},
		{Op: bytecode.OpStoreGlobal, A: 0, Sym: counterSym},
		{Op: bytecode.OpReturn, A: 0},
	}
	fn.Spans = make([]lexer.Span, len(fn.Code))
	return fn
}

func newDriverFixture(t *testing.T) (*Driver, *symbol.Interner, symbol.Symbol) {
	t.Helper()
	in := symbol.NewInterner()
	events := vm.InternEventNames(in)
	reg := binding.NewRegistry()
	motionNames := motion.Register(reg, in)

	counterSym := in.Intern("create_count")
	w := world.New(nil)
	prog := vm.NewProgram()

	objPlayer := world.ObjectID(0)
	objWall := world.ObjectID(1)
	playerSym := in.Intern("obj_player")
	wallSym := in.Intern("obj_wall")
	prog.Objects[playerSym] = objPlayer
	prog.Objects[wallSym] = objWall

	createFn := newCounterEvent(counterSym)
	prog.Events[vm.FuncKey{Kind: vm.KindEvent, Object: objPlayer, EventType: events.Create, EventKind: vm.KindDefault}] = createFn

	th := vm.NewThread(w, prog, reg, in, nil)
	d := NewDriver(th, w, events, motionNames, map[world.ObjectID]bool{objPlayer: true})
	return d, in, counterSym
}

func TestLoadRoomCreatesInstancesAndRunsCreateEvent(t *testing.T) {
	d, in, counterSym := newDriverFixture(t)

	instances := []RoomInstance{
		{ID: 1, ObjectType: 0, X: 10, Y: 20},
		{ID: 2, ObjectType: 1, X: 30, Y: 40},
	}
	if err := d.LoadRoom(0, instances, nil); err != nil {
		t.Fatalf("LoadRoom() error = %v", err)
	}

	all := d.World.AllInstances()
	if len(all) != 2 {
		t.Fatalf("AllInstances() = %d, want 2", len(all))
	}

	got, ok := d.World.GetMember(d.World.Global, counterSym)
	if !ok || got.Real != 1 {
		t.Errorf("create_count = %v, %v, want 1, true (only obj_player has a CREATE event)", got, ok)
	}

	xSym := in.Intern("x")
	v, ok := d.World.GetMember(all[0], xSym)
	if !ok || v.Real != 10 {
		t.Errorf("instance 0 x = %v, %v, want 10, true", v, ok)
	}
}

func TestLoadRoomPersistentInstanceSurvivesSecondLoad(t *testing.T) {
	d, _, _ := newDriverFixture(t)

	if err := d.LoadRoom(0, []RoomInstance{{ID: 1, ObjectType: 0, X: 0, Y: 0}}, nil); err != nil {
		t.Fatalf("first LoadRoom() error = %v", err)
	}
	first := d.World.AllInstances()
	if len(first) != 1 {
		t.Fatalf("AllInstances() after first load = %d, want 1", len(first))
	}
	persisted := first[0]

	if err := d.LoadRoom(1, []RoomInstance{{ID: 2, ObjectType: 1, X: 0, Y: 0}}, nil); err != nil {
		t.Fatalf("second LoadRoom() error = %v", err)
	}

	if !d.World.IsLive(persisted) {
		t.Error("persistent obj_player instance should survive a room change")
	}
	all := d.World.AllInstances()
	if len(all) != 2 {
		t.Fatalf("AllInstances() after second load = %d, want 2 (persisted + new)", len(all))
	}
}

func TestLoadRoomNonPersistentInstanceIsSwept(t *testing.T) {
	d, _, _ := newDriverFixture(t)

	if err := d.LoadRoom(0, []RoomInstance{{ID: 1, ObjectType: 1, X: 0, Y: 0}}, nil); err != nil {
		t.Fatalf("first LoadRoom() error = %v", err)
	}
	wall := d.World.AllInstances()[0]

	if err := d.LoadRoom(1, nil, nil); err != nil {
		t.Fatalf("second LoadRoom() error = %v", err)
	}

	if d.World.IsLive(wall) {
		t.Error("non-persistent obj_wall instance should be destroyed across a room change")
	}
}

func TestLoadRoomRunsRoomCreationCode(t *testing.T) {
	d, _, counterSym := newDriverFixture(t)
	roomKey := vm.FuncKey{Kind: vm.KindRoomCreate, RoomID: 0}
	d.Thread.Program.Events[roomKey] = newCounterEvent(counterSym)

	if err := d.LoadRoom(0, nil, &roomKey); err != nil {
		t.Fatalf("LoadRoom() error = %v", err)
	}

	got, ok := d.World.GetMember(d.World.Global, counterSym)
	if !ok || got.Real != 1 {
		t.Errorf("room creation code should have run once, create_count = %v, %v", got, ok)
	}
}

func TestLoadRoomRunsInstanceCreationCode(t *testing.T) {
	d, in, counterSym := newDriverFixture(t)
	instKey := vm.FuncKey{Kind: vm.KindInstanceCreate, InstanceID: 1}
	xSym := in.Intern("x")

	// The instance creation code sets x to 99; if it ran before the
	// CREATE event it would be visible there too, but obj_wall (ObjectType
	// 1) has no CREATE event, so this isolates the creation-code effect.
	fn := &bytecode.Function{Name: "instcreate", RegisterCount: 3, ParamCount: 0}
	k1 := fn.AddConst(value.Real(99))
	fn.Code = []bytecode.Instruction{
		{Op: bytecode.OpLoadConst, A: 2, K: k1},
		{Op: bytecode.OpStoreMember, A: 2, B: 0, Sym: xSym}, // R[0] is self
		{Op: bytecode.OpReturn, A: 2},
	}
	fn.Spans = make([]lexer.Span, len(fn.Code))
	d.Thread.Program.Events[instKey] = fn

	instances := []RoomInstance{{ID: 1, ObjectType: 1, X: 10, Y: 20, CreationKey: &instKey}}
	if err := d.LoadRoom(0, instances, nil); err != nil {
		t.Fatalf("LoadRoom() error = %v", err)
	}

	e := d.World.AllInstances()[0]
	got, ok := d.World.GetMember(e, xSym)
	if !ok || got.Real != 99 {
		t.Errorf("x after instance creation code = %v, %v, want 99, true", got, ok)
	}

	// create_count must stay 0: obj_wall has no CREATE event, so only the
	// instance creation code above should have run.
	if cc, ok := d.World.GetMember(d.World.Global, counterSym); ok && cc.Real != 0 {
		t.Errorf("create_count = %v, want 0 (obj_wall has no CREATE event)", cc)
	}
}

func TestRunFrameIntegratesMotionAndSweeps(t *testing.T) {
	d, in, _ := newDriverFixture(t)
	if err := d.LoadRoom(0, []RoomInstance{{ID: 1, ObjectType: 0, X: 0, Y: 0}}, nil); err != nil {
		t.Fatalf("LoadRoom() error = %v", err)
	}
	e := d.World.AllInstances()[0]
	hspeedSym := in.Intern("hspeed")
	d.World.SetMember(e, hspeedSym, value.Real(5))

	if err := d.RunFrame(); err != nil {
		t.Fatalf("RunFrame() error = %v", err)
	}

	xSym := in.Intern("x")
	got, ok := d.World.GetMember(e, xSym)
	if !ok || got.Real != 5 {
		t.Errorf("x after one frame of hspeed=5 = %v, %v, want 5, true", got, ok)
	}

	d.World.MarkDestroyed(e)
	if err := d.RunFrame(); err != nil {
		t.Fatalf("second RunFrame() error = %v", err)
	}
	if d.World.IsLive(e) {
		t.Error("RunFrame should sweep instances marked destroyed during the frame")
	}
}
