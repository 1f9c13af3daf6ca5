// Package binding implements the host-binding layer of §4.I: a
// symbol-keyed table of function descriptors registered by a host package
// before compilation begins, so the SSA builder can recognize getter/
// setter names during member-access lowering (§9 "Host binding
// polymorphism").
package binding

import (
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

// Proc is a fixed- or variadic-arity native procedure trampoline. args has
// exactly Descriptor.Arity elements for a fixed-arity descriptor, or any
// length for a variadic one.
type Proc func(cx *Context, self value.Entity, args []value.Value) (value.Value, error)

// Getter reads a host-backed pseudo-member.
type Getter func(cx *Context, self value.Entity) (value.Value, error)

// Setter writes a host-backed pseudo-member.
type Setter func(cx *Context, self value.Entity, v value.Value) error

// Kind distinguishes the variants of Descriptor (§9: "fixed-arity with
// typed coercions; variadic over a value slice; getter; setter").
type Kind int

const (
	KindFixed Kind = iota
	KindVariadic
	KindGetter
	KindSetter
)

// Descriptor is one registered host operation.
type Descriptor struct {
	Sym   symbol.Symbol
	Kind  Kind
	Arity int // KindFixed only

	Proc   Proc
	Get    Getter
	Set    Setter
}

// Registry is the build-time-populated table the VM consults to resolve a
// call symbol and the SSA builder consults to recognize getter/setter
// names.
type Registry struct {
	descs map[symbol.Symbol]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{descs: make(map[symbol.Symbol]*Descriptor)}
}

// RegisterProc registers a fixed-arity native procedure.
func (r *Registry) RegisterProc(sym symbol.Symbol, arity int, fn Proc) {
	r.descs[sym] = &Descriptor{Sym: sym, Kind: KindFixed, Arity: arity, Proc: fn}
}

// RegisterVariadic registers a variadic native procedure.
func (r *Registry) RegisterVariadic(sym symbol.Symbol, fn Proc) {
	r.descs[sym] = &Descriptor{Sym: sym, Kind: KindVariadic, Proc: fn}
}

// RegisterGetter registers sym as a host-backed member getter.
func (r *Registry) RegisterGetter(sym symbol.Symbol, fn Getter) {
	d := r.descFor(sym)
	d.Kind = KindGetter
	d.Get = fn
}

// RegisterSetter registers sym as a host-backed member setter.
func (r *Registry) RegisterSetter(sym symbol.Symbol, fn Setter) {
	d := r.descFor(sym)
	if d.Get == nil {
		d.Kind = KindSetter
	}
	d.Set = fn
}

func (r *Registry) descFor(sym symbol.Symbol) *Descriptor {
	d, ok := r.descs[sym]
	if !ok {
		d = &Descriptor{Sym: sym}
		r.descs[sym] = d
	}
	return d
}

// Lookup returns the descriptor registered for sym, if any.
func (r *Registry) Lookup(sym symbol.Symbol) (*Descriptor, bool) {
	d, ok := r.descs[sym]
	return d, ok
}

// IsGetter reports whether sym was registered with RegisterGetter — the
// SSA builder uses this set to decide whether a read of sym bypasses the
// property bag (§4.I).
func (r *Registry) IsGetter(sym symbol.Symbol) bool {
	d, ok := r.descs[sym]
	return ok && d.Get != nil
}

// IsSetter reports whether sym was registered with RegisterSetter.
func (r *Registry) IsSetter(sym symbol.Symbol) bool {
	d, ok := r.descs[sym]
	return ok && d.Set != nil
}

// GetterNames and SetterNames snapshot the registered sets, for wiring
// into ssa.NewBuilder.
func (r *Registry) GetterNames() map[symbol.Symbol]bool {
	out := make(map[symbol.Symbol]bool)
	for sym, d := range r.descs {
		if d.Get != nil {
			out[sym] = true
		}
	}
	return out
}

func (r *Registry) SetterNames() map[symbol.Symbol]bool {
	out := make(map[symbol.Symbol]bool)
	for sym, d := range r.descs {
		if d.Set != nil {
			out[sym] = true
		}
	}
	return out
}
