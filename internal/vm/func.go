package vm

import (
	"github.com/gmlscript/gmlscript/internal/bytecode"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/world"
)

// FuncKind distinguishes the four ways a compiled function is identified
// (§4.H "Event & script entry").
type FuncKind int

const (
	KindScript FuncKind = iota
	KindEvent
	KindInstanceCreate
	KindRoomCreate
)

// FuncKey tags a compiled bytecode.Function by how the driver looks it
// up: a script by name, an event by (object, event type, event kind), or
// creation code by instance/room id.
type FuncKey struct {
	Kind       FuncKind
	Script     symbol.Symbol
	Object     world.ObjectID
	EventType  symbol.Symbol
	EventKind  int
	InstanceID world.InstanceID
	RoomID     int
}

// Program bundles every compiled function the VM can execute, produced by
// pkg/script.Build. Objects records the object-id a bare object-type
// identifier resolves to — the SSA builder lowers such an identifier as a
// zero-argument OpCall on the object's own name (builder_expr.go's "bare
// object id as a value" case), so the VM must check this table before
// treating the symbol as a script or native call.
type Program struct {
	Scripts map[symbol.Symbol]*bytecode.Function
	Events  map[FuncKey]*bytecode.Function
	Objects map[symbol.Symbol]world.ObjectID
}

// NewProgram creates an empty Program.
func NewProgram() *Program {
	return &Program{
		Scripts: map[symbol.Symbol]*bytecode.Function{},
		Events:  map[FuncKey]*bytecode.Function{},
		Objects: map[symbol.Symbol]world.ObjectID{},
	}
}

// Lookup resolves a FuncKey to its compiled function.
func (p *Program) Lookup(key FuncKey) (*bytecode.Function, bool) {
	if key.Kind == KindScript {
		fn, ok := p.Scripts[key.Script]
		return fn, ok
	}
	fn, ok := p.Events[key]
	return fn, ok
}
