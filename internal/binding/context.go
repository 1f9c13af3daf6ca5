package binding

import (
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/world"
)

// Caller lets a trampoline invoke back into the VM on the same thread
// (§4.H "Call": "Native bindings may call back into the VM via the same
// Thread handle, producing nested frames"). internal/vm implements this
// over its Thread type; binding itself stays independent of internal/vm
// to avoid an import cycle.
type Caller interface {
	CallScript(sym symbol.Symbol, self, other value.Entity, args []value.Value) (value.Value, error)
}

// Context is what a trampoline receives: the world it may mutate, a
// recursive-call handle, the symbol interner, and arbitrary host state
// (e.g. a renderer, input snapshot) opaque to the core.
type Context struct {
	World *world.World
	In    *symbol.Interner
	Call  Caller
	Host  any
}
