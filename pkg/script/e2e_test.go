package script

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/stdlib/ds"
	"github.com/gmlscript/gmlscript/internal/stdlib/instance"
	"github.com/gmlscript/gmlscript/internal/stdlib/show"
	"github.com/gmlscript/gmlscript/internal/stdlib/strreal"
	"github.com/gmlscript/gmlscript/internal/symbol"
)

// fixtureProject is a minimal in-memory Project for the six end-to-end
// scenarios of spec.md §8: no manifest file on disk, just the interner and
// the declarations a scenario needs.
type fixtureProject struct {
	in      *symbol.Interner
	objects []ObjectDecl
	scripts []ScriptDecl
	events  []EventDecl
	rooms   []RoomDecl
}

func (p *fixtureProject) Interner() *symbol.Interner { return p.in }
func (p *fixtureProject) Objects() []ObjectDecl       { return p.objects }
func (p *fixtureProject) Scripts() []ScriptDecl       { return p.scripts }
func (p *fixtureProject) Events() []EventDecl         { return p.events }
func (p *fixtureProject) Rooms() []RoomDecl           { return p.rooms }

// buildFixture wires the same ambient bindings cmd/gmlc registers, but
// writing show_debug_message to out instead of stdout.
func buildFixture(t *testing.T, proj *fixtureProject, out *bytes.Buffer) (*Assets, *binding.Registry) {
	t.Helper()
	reg := binding.NewRegistry()
	in := proj.Interner()
	strreal.Register(reg, in)
	if out != nil {
		show.Register(reg, in, out)
	} else {
		show.Register(reg, in, os.Stdout)
	}
	instance.Register(reg, in, &instance.NextID{})
	ds.Register(reg, in, ds.NewStore())

	var diags []*gmlerr.CompileError
	assets, _, err := Build(proj, reg, func(e *gmlerr.CompileError) { diags = append(diags, e) })
	if err != nil {
		t.Fatalf("Build() error = %v, diagnostics = %v", err, diags)
	}
	return assets, reg
}

func TestScenarioGlobalsVsMembers(t *testing.T) {
	in := symbol.NewInterner()
	proj := &fixtureProject{
		in:      in,
		objects: []ObjectDecl{{Name: "obj_main"}},
		events: []EventDecl{
			{Object: "obj_main", EventType: "create", Source: `globalvar g; g = 1; x = 2; show_debug_message(g, x)`},
		},
		rooms: []RoomDecl{
			{ID: 0, Instances: []RoomInstanceDecl{{ID: 1, ObjectName: "obj_main", X: 0, Y: 0}}},
		},
	}
	var out bytes.Buffer
	assets, reg := buildFixture(t, proj, &out)

	if err := Run(&RunContext{Assets: assets, Bindings: reg, Room: 0, Frames: 0}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "1 2 \n" {
		t.Errorf("stdout = %q, want %q", got, "1 2 \n")
	}
}

func TestScenarioWithOverObject(t *testing.T) {
	in := symbol.NewInterner()
	proj := &fixtureProject{
		in:      in,
		objects: []ObjectDecl{{Name: "obj1"}},
		rooms: []RoomDecl{
			{
				ID: 0,
				Instances: []RoomInstanceDecl{
					{ID: 1, ObjectName: "obj1", X: 10, Y: 0},
					{ID: 2, ObjectName: "obj1", X: 20, Y: 0},
				},
				CreationSource: `with obj1 x += 1; show_debug_message(instance_find(obj1,0).x, instance_find(obj1,1).x)`,
			},
		},
	}
	var out bytes.Buffer
	assets, reg := buildFixture(t, proj, &out)

	if err := Run(&RunContext{Assets: assets, Bindings: reg, Room: 0, Frames: 0}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "11 21" {
		t.Errorf("stdout = %q, want %q", got, "11 21")
	}
}

func TestScenarioMotionIntegration(t *testing.T) {
	in := symbol.NewInterner()
	proj := &fixtureProject{
		in:      in,
		objects: []ObjectDecl{{Name: "obj_ball"}},
		events: []EventDecl{
			{Object: "obj_ball", EventType: "create", Source: `hspeed = 3; vspeed = -4; friction = 1`},
		},
		rooms: []RoomDecl{
			{ID: 0, Instances: []RoomInstanceDecl{{ID: 1, ObjectName: "obj_ball", X: 0, Y: 0}}},
		},
	}
	assets, reg := buildFixture(t, proj, nil)

	ctx := &RunContext{Assets: assets, Bindings: reg, Room: 0, Frames: 1}
	if err := Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	w := ctx.World
	e := w.AllInstances()[0]
	xSym, ySym := in.Intern("x"), in.Intern("y")
	hSym, vSym := in.Intern("hspeed"), in.Intern("vspeed")

	x, _ := w.GetMember(e, xSym)
	y, _ := w.GetMember(e, ySym)
	if x.Real != 3 || y.Real != -4 {
		t.Errorf("(x,y) = (%v,%v), want (3,-4)", x.Real, y.Real)
	}

	hs, _ := w.GetMember(e, hSym)
	vs, _ := w.GetMember(e, vSym)
	speed := hs.Real*hs.Real + vs.Real*vs.Real
	const want = 4 * 4
	if diff := speed - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("post-friction speed^2 = %v, want %v", speed, want)
	}
}

func TestScenarioSwitchFallthrough(t *testing.T) {
	in := symbol.NewInterner()
	proj := &fixtureProject{
		in:      in,
		objects: []ObjectDecl{{Name: "obj_main"}},
		rooms: []RoomDecl{
			{
				ID:        0,
				Instances: nil,
				CreationSource: `globalvar a
switch 2 {
  case 1: a = 1
  case 2: a = 2
  case 3: a = 3; break
  default: a = 0
}`,
			},
		},
	}
	assets, reg := buildFixture(t, proj, nil)

	ctx := &RunContext{Assets: assets, Bindings: reg, Room: 0, Frames: 0}
	if err := Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	aSym := in.Intern("a")
	got, ok := ctx.World.GetMember(ctx.World.Global, aSym)
	if !ok || got.Real != 3 {
		t.Errorf("a = %v, %v, want 3, true (fallthrough from case 2 to case 3's break)", got, ok)
	}
}

func TestScenarioErrorReportingCarriesSpan(t *testing.T) {
	in := symbol.NewInterner()
	src := `a = 1 / 0`
	proj := &fixtureProject{
		in:      in,
		objects: []ObjectDecl{{Name: "obj_main"}},
		events: []EventDecl{
			{Object: "obj_main", EventType: "step", Source: src},
		},
		rooms: []RoomDecl{
			{ID: 0, Instances: []RoomInstanceDecl{{ID: 1, ObjectName: "obj_main", X: 0, Y: 0}}},
		},
	}
	assets, reg := buildFixture(t, proj, nil)

	ctx := &RunContext{Assets: assets, Bindings: reg, Room: 0, Frames: 1}
	err := Run(ctx)
	if err == nil {
		t.Fatal("expected a division-by-zero runtime error")
	}
	re, ok := err.(*gmlerr.RuntimeError)
	if !ok {
		t.Fatalf("error type = %T, want *gmlerr.RuntimeError", err)
	}
	if re.Kind != gmlerr.DivisionByZero {
		t.Errorf("Kind = %v, want DivisionByZero", re.Kind)
	}
	if len(re.Stack) == 0 {
		t.Fatal("RuntimeError must carry a non-empty Stack")
	}
	top := re.Stack[0]
	want := strings.Index(src, "1 / 0")
	if top.Span.Start > want || top.Span.End <= want {
		t.Errorf("top frame span = [%d,%d), want a span covering offset %d (the \"1 / 0\" expression)", top.Span.Start, top.Span.End, want)
	}
}

func TestScenarioDestroyedInstanceSweep(t *testing.T) {
	in := symbol.NewInterner()
	proj := &fixtureProject{
		in:      in,
		objects: []ObjectDecl{{Name: "obj_main"}},
		events: []EventDecl{
			{Object: "obj_main", EventType: "step", Source: `if x == 1 { instance_destroy() }`},
		},
		rooms: []RoomDecl{
			{ID: 0, Instances: []RoomInstanceDecl{
				{ID: 1, ObjectName: "obj_main", X: 0, Y: 0},
				{ID: 2, ObjectName: "obj_main", X: 1, Y: 0},
				{ID: 3, ObjectName: "obj_main", X: 2, Y: 0},
			}},
		},
	}
	assets, reg := buildFixture(t, proj, nil)

	ctx := &RunContext{Assets: assets, Bindings: reg, Room: 0, Frames: 1}
	if err := Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	w := ctx.World
	all := w.AllInstances()
	if len(all) != 2 {
		t.Fatalf("AllInstances() after sweep = %d, want 2", len(all))
	}
	for _, e := range all {
		id, _ := w.InstanceIDOf(e)
		if id == 2 {
			t.Error("destroyed instance 2 should not appear in AllInstances() after sweep")
		}
	}
	objID := assets.Objects["obj_main"]
	for _, e := range w.ObjectsOf(objID) {
		if id, _ := w.InstanceIDOf(e); id == 2 {
			t.Error("destroyed instance 2 should not appear in ObjectsOf after sweep")
		}
	}
}
