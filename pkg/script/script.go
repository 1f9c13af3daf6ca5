// Package script is the public compiler/runtime entry point (§6 "External
// interfaces"): Build turns a Project description into a vm.Program ready
// to run, and Run drives it through a room load and a frame loop. It is
// the only library package outside internal/ (cmd/gmlc is the CLI built on
// it) — everything it wires together
// (parser, ssa, regalloc, codegen, vm, driver) stays a private
// implementation detail.
package script

import (
	"fmt"

	"github.com/gmlscript/gmlscript/internal/ast"
	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/codegen"
	"github.com/gmlscript/gmlscript/internal/driver"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/parser"
	"github.com/gmlscript/gmlscript/internal/regalloc"
	"github.com/gmlscript/gmlscript/internal/ssa"
	"github.com/gmlscript/gmlscript/internal/stdlib/motion"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/vm"
	"github.com/gmlscript/gmlscript/internal/world"
)

// ObjectDecl is one authored object type (§6 project description: "list of
// object declarations"). Persistent objects survive a room change
// (world.DestroyAllExcept).
type ObjectDecl struct {
	Name       string
	Persistent bool
}

// ScriptDecl is one standalone script: its name, parameter names, and
// source text (§6: "list of scripts (symbol + source)").
type ScriptDecl struct {
	Name   string
	Params []string
	Source string
}

// EventDecl is one object event handler (§6: "list of events (object id x
// event type x event kind x source)"). EventKind distinguishes same-type
// sub-events (an alarm index, begin/normal/end step); vm.KindDefault is the
// ordinary case.
type EventDecl struct {
	Object    string
	EventType string
	EventKind int
	Source    string
}

// RoomInstanceDecl is one authored instance placement (§6: "rooms:
// instances {x, y, object_index, id}"). CreationSource is the instance's
// own per-instance creation code (§4.J room-load sequence step 2, distinct
// from its object's CREATE event), run once right after the entity is
// created; it is typically empty.
type RoomInstanceDecl struct {
	ID             uint32
	ObjectName     string
	X, Y           float64
	CreationSource string
}

// RoomDecl is one room: its instances in authored order, plus optional room
// creation-code source run once after every instance's CREATE event.
type RoomDecl struct {
	ID             int
	Instances      []RoomInstanceDecl
	CreationSource string
}

// Project supplies everything Build needs to compile a game (§6 "project
// description, consumed, not defined here"). Interner returns the symbol
// table the caller already used to populate bindings, so identifiers in
// every source unit resolve against the same table the host-binding layer
// was registered with.
type Project interface {
	Interner() *symbol.Interner
	Objects() []ObjectDecl
	Scripts() []ScriptDecl
	Events() []EventDecl
	Rooms() []RoomDecl
}

// ErrorSink receives every compile diagnostic as Build produces it. Build
// still returns a non-nil error if any diagnostic was reported, whether or
// not a sink is supplied.
type ErrorSink func(*gmlerr.CompileError)

// CompiledInstance is a RoomInstanceDecl resolved to a world.ObjectID, with
// its own per-instance creation code (if any) compiled and keyed for
// vm.Program.Lookup.
type CompiledInstance struct {
	ID          world.InstanceID
	ObjectType  world.ObjectID
	X, Y        float64
	CreationKey *vm.FuncKey
}

// CompiledRoom is a RoomDecl resolved to object ids, with its creation code
// (if any) compiled and keyed for vm.Program.Lookup.
type CompiledRoom struct {
	ID          int
	Instances   []CompiledInstance
	CreationKey *vm.FuncKey
}

// Assets is everything a host needs to run a compiled project, returned by
// Build alongside the DebugTable.
type Assets struct {
	Program    *vm.Program
	In         *symbol.Interner
	Globals    map[symbol.Symbol]bool
	Objects    map[string]world.ObjectID
	Persistent map[world.ObjectID]bool
	Events     vm.EventNames
	Motion     motion.Names
	Rooms      []CompiledRoom
}

// DebugTable exposes every compiled function by a human-readable label, for
// disassembly and error-message tooling.
type DebugTable struct {
	Functions map[string]*bytecode.Function
}

// RunContext is everything Run needs to execute a compiled project for a
// number of frames starting from a room load. World is an out-parameter:
// Run assigns the world it created into it, so a caller (or a test) can
// inspect final instance state without Run's error-only return growing a
// second value.
type RunContext struct {
	Assets   *Assets
	Bindings *binding.Registry
	Host     any
	Room     int // index into Assets.Rooms; negative skips the initial load
	Frames   int
	World    *world.World
}

// Run loads ctx.Room (if non-negative) and then drives ctx.Frames frames,
// returning the first runtime error encountered (§4.J per-frame sequencing;
// §5 "Cancellation": the driver does not continue a partially-run frame).
func Run(ctx *RunContext) error {
	a := ctx.Assets
	w := world.New(a.Globals)
	ctx.World = w
	t := vm.NewThread(w, a.Program, ctx.Bindings, a.In, ctx.Host)
	d := driver.NewDriver(t, w, a.Events, a.Motion, a.Persistent)

	if ctx.Room >= 0 {
		if ctx.Room >= len(a.Rooms) {
			return fmt.Errorf("script: room index %d out of range (%d rooms)", ctx.Room, len(a.Rooms))
		}
		room := a.Rooms[ctx.Room]
		instances := make([]driver.RoomInstance, len(room.Instances))
		for i, ci := range room.Instances {
			instances[i] = driver.RoomInstance{ID: ci.ID, ObjectType: ci.ObjectType, X: ci.X, Y: ci.Y, CreationKey: ci.CreationKey}
		}
		if err := d.LoadRoom(room.ID, instances, room.CreationKey); err != nil {
			return err
		}
	}

	for i := 0; i < ctx.Frames; i++ {
		if err := d.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// unit is one parsed source unit awaiting SSA lowering; units are parsed
// and globalvar-scanned in a first pass (every unit needs the full
// declared-global set before any of them lower, per §4.D scoping), then
// lowered/allocated/codegen'd in a second pass.
type unit struct {
	label string
	fn    *ast.Function
	key   vm.FuncKey
}

// Build compiles project against bindings, reporting every diagnostic to
// sink (if non-nil) and returning a non-nil error if compilation produced
// at least one.
func Build(project Project, bindings *binding.Registry, sink ErrorSink) (*Assets, *DebugTable, error) {
	in := project.Interner()

	// x/y/speed/direction/hspeed/vspeed/friction/gravity/gravity_direction
	// are intrinsic instance variables (§4.J), not a host-specific binding
	// set, so Build registers them itself before snapshotting getters/
	// setters for SSA lowering rather than requiring every host to do it.
	motionNames := motion.Register(bindings, in)

	objDecls := project.Objects()
	objSyms := make(map[symbol.Symbol]int, len(objDecls))
	objIDs := make(map[string]world.ObjectID, len(objDecls))
	persistent := make(map[world.ObjectID]bool)
	for i, od := range objDecls {
		sym := in.Intern(od.Name)
		id := world.ObjectID(i)
		objSyms[sym] = int(id)
		objIDs[od.Name] = id
		if od.Persistent {
			persistent[id] = true
		}
	}

	var diagCount int
	report := func(errs []*gmlerr.CompileError) {
		for _, e := range errs {
			diagCount++
			if sink != nil {
				sink(e)
			}
		}
	}

	globals := map[symbol.Symbol]bool{}
	var units []unit

	addUnit := func(label, name string, params []string, source string, key vm.FuncKey) {
		p := parser.New(label, source, in)
		fn := p.ParseFunction(name, params)
		report(p.Errors())
		scanGlobals(fn.Body, globals)
		units = append(units, unit{label: label, fn: fn, key: key})
	}

	for _, sd := range project.Scripts() {
		sym := in.Intern(sd.Name)
		addUnit(sd.Name, sd.Name, sd.Params, sd.Source, vm.FuncKey{Kind: vm.KindScript, Script: sym})
	}

	events := vm.InternEventNames(in)
	eventSym := func(name string) symbol.Symbol {
		switch name {
		case "create":
			return events.Create
		case "destroy":
			return events.Destroy
		case "step":
			return events.Step
		case "draw":
			return events.Draw
		default:
			return in.Intern(name)
		}
	}

	for _, ed := range project.Events() {
		objID, ok := objIDs[ed.Object]
		if !ok {
			diagCount++
			if sink != nil {
				sink(&gmlerr.CompileError{Kind: gmlerr.Semantic, Message: fmt.Sprintf("event for undeclared object %q", ed.Object)})
			}
			continue
		}
		label := fmt.Sprintf("%s:%s", ed.Object, ed.EventType)
		key := vm.FuncKey{Kind: vm.KindEvent, Object: objID, EventType: eventSym(ed.EventType), EventKind: ed.EventKind}
		addUnit(label, label, nil, ed.Source, key)
	}

	rooms := make([]CompiledRoom, len(project.Rooms()))
	for ri, rd := range project.Rooms() {
		instances := make([]CompiledInstance, len(rd.Instances))
		for i, rid := range rd.Instances {
			objID, ok := objIDs[rid.ObjectName]
			if !ok {
				diagCount++
				if sink != nil {
					sink(&gmlerr.CompileError{Kind: gmlerr.Semantic, Message: fmt.Sprintf("room instance of undeclared object %q", rid.ObjectName)})
				}
				continue
			}
			ci := CompiledInstance{ID: world.InstanceID(rid.ID), ObjectType: objID, X: rid.X, Y: rid.Y}
			if rid.CreationSource != "" {
				label := fmt.Sprintf("room:%d:instance:%d:create", rd.ID, rid.ID)
				key := vm.FuncKey{Kind: vm.KindInstanceCreate, InstanceID: world.InstanceID(rid.ID)}
				addUnit(label, label, nil, rid.CreationSource, key)
				ci.CreationKey = &key
			}
			instances[i] = ci
		}
		cr := CompiledRoom{ID: rd.ID, Instances: instances}
		if rd.CreationSource != "" {
			label := fmt.Sprintf("room:%d:create", rd.ID)
			key := vm.FuncKey{Kind: vm.KindRoomCreate, RoomID: rd.ID}
			addUnit(label, label, nil, rd.CreationSource, key)
			cr.CreationKey = &key
		}
		rooms[ri] = cr
	}

	getters := bindings.GetterNames()
	setters := bindings.SetterNames()

	program := vm.NewProgram()
	for name, id := range objIDs {
		program.Objects[in.Intern(name)] = id
	}

	debug := &DebugTable{Functions: map[string]*bytecode.Function{}}

	for _, u := range units {
		builder := ssa.NewBuilder(in, globals, objSyms, getters, setters)
		ssaFn := builder.Build(u.fn)
		ssaFn.Finish()
		alloc := regalloc.Allocate(ssaFn)
		bc := codegen.Generate(ssaFn, alloc)

		debug.Functions[u.label] = bc
		switch u.key.Kind {
		case vm.KindScript:
			program.Scripts[u.key.Script] = bc
		default:
			program.Events[u.key] = bc
		}
	}

	if diagCount > 0 {
		return nil, debug, fmt.Errorf("script: build failed with %d diagnostic(s)", diagCount)
	}

	assets := &Assets{
		Program:    program,
		In:         in,
		Globals:    globals,
		Objects:    objIDs,
		Persistent: persistent,
		Events:     events,
		Motion:     motionNames,
		Rooms:      rooms,
	}
	return assets, debug, nil
}

// scanGlobals walks every statement reachable from stmts (recursing through
// nested control-flow bodies) collecting `globalvar` declarations, since a
// script may declare a global anywhere in its body and every other unit
// needs the full set before it lowers (§4.D scoping rules).
func scanGlobals(stmts []ast.Stmt, globals map[symbol.Symbol]bool) {
	for _, s := range stmts {
		scanGlobalsStmt(s, globals)
	}
}

func scanGlobalsStmt(s ast.Stmt, globals map[symbol.Symbol]bool) {
	switch n := s.(type) {
	case *ast.Decl:
		if n.Global {
			for _, sym := range n.Names {
				globals[sym] = true
			}
		}
	case *ast.Block:
		scanGlobals(n.Stmts, globals)
	case *ast.If:
		scanGlobalsStmt(n.Then, globals)
		if n.Else != nil {
			scanGlobalsStmt(n.Else, globals)
		}
	case *ast.Repeat:
		scanGlobalsStmt(n.Body, globals)
	case *ast.While:
		scanGlobalsStmt(n.Body, globals)
	case *ast.Do:
		scanGlobalsStmt(n.Body, globals)
	case *ast.For:
		if n.Init != nil {
			scanGlobalsStmt(n.Init, globals)
		}
		scanGlobalsStmt(n.Body, globals)
	case *ast.With:
		scanGlobalsStmt(n.Body, globals)
	case *ast.Switch:
		for _, body := range n.Bodies {
			scanGlobals(body, globals)
		}
	}
}
