// Package world implements the entity/instance store described in §3
// "World": a monolithic arena owning the entity allocator and every table
// indexed by entity, with no back-pointers — every reference elsewhere is
// a plain value.Entity handle (§9 "Cyclic and shared ownership").
package world

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

// ObjectID identifies an object type declared by the project, assigned
// during compilation.
type ObjectID int32

// InstanceID is the stable 32-bit identifier assigned to a room instance
// by the authoring tool, or synthesized by instance_create.
type InstanceID uint32

// World owns every entity-indexed table: property bags, object-type
// buckets, and the insertion-ordered instance map (§3 "World").
type World struct {
	entities *EntityAllocator

	members    map[value.Entity]map[symbol.Symbol]value.Value
	objectType map[value.Entity]ObjectID
	objects    map[ObjectID][]value.Entity

	instances  *orderedmap.OrderedMap[InstanceID, value.Entity]
	instanceOf map[value.Entity]InstanceID

	globals map[symbol.Symbol]bool

	pendingDestroy map[value.Entity]bool

	// Global is the entity whose property bag backs every `globalvar`
	// (§9 "Global mutable state"). It is allocated once at world creation
	// and is never destroyed (invariant 3).
	Global value.Entity
}

// New creates an empty world, allocating the GLOBAL entity.
func New(globals map[symbol.Symbol]bool) *World {
	w := &World{
		entities:       NewEntityAllocator(),
		members:        make(map[value.Entity]map[symbol.Symbol]value.Value),
		objectType:     make(map[value.Entity]ObjectID),
		objects:        make(map[ObjectID][]value.Entity),
		instances:      orderedmap.New[InstanceID, value.Entity](),
		instanceOf:     make(map[value.Entity]InstanceID),
		globals:        globals,
		pendingDestroy: make(map[value.Entity]bool),
	}
	w.Global = w.entities.Alloc()
	w.members[w.Global] = make(map[symbol.Symbol]value.Value)
	return w
}

// IsGlobal reports whether sym was declared global (§3 invariant 4: a
// global shadows any entity-member lookup of the same name).
func (w *World) IsGlobal(sym symbol.Symbol) bool { return w.globals[sym] }

// CreateInstance allocates a new entity for id as an instance of objType,
// with an empty property bag (invariant 1).
func (w *World) CreateInstance(id InstanceID, objType ObjectID) value.Entity {
	e := w.entities.Alloc()
	w.members[e] = make(map[symbol.Symbol]value.Value)
	w.objectType[e] = objType
	w.objects[objType] = append(w.objects[objType], e)
	w.instances.Set(id, e)
	w.instanceOf[e] = id
	return e
}

// IsLive reports whether e is a currently-allocated, non-destroyed
// entity.
func (w *World) IsLive(e value.Entity) bool { return w.entities.IsLive(e) }

// ObjectOf returns the object type of an instance entity.
func (w *World) ObjectOf(e value.Entity) (ObjectID, bool) {
	t, ok := w.objectType[e]
	return t, ok
}

// InstanceIDOf returns the stable instance id of an entity, if it is a
// room instance (as opposed to GLOBAL).
func (w *World) InstanceIDOf(e value.Entity) (InstanceID, bool) {
	id, ok := w.instanceOf[e]
	return id, ok
}

// GetMember reads e's property bag at sym.
func (w *World) GetMember(e value.Entity, sym symbol.Symbol) (value.Value, bool) {
	bag, ok := w.members[e]
	if !ok {
		return value.Value{}, false
	}
	v, ok := bag[sym]
	return v, ok
}

// SetMember writes e's property bag at sym, allocating the bag if needed
// (defensive: every live entity should already have one per invariant 1).
func (w *World) SetMember(e value.Entity, sym symbol.Symbol, v value.Value) {
	bag, ok := w.members[e]
	if !ok {
		bag = make(map[symbol.Symbol]value.Value)
		w.members[e] = bag
	}
	bag[sym] = v
}

// ObjectsOf returns the live-at-this-instant entities of objType, in
// creation order. Callers that need with-push snapshot semantics should
// copy this slice before iterating across mutations.
func (w *World) ObjectsOf(objType ObjectID) []value.Entity {
	return w.objects[objType]
}

// AllInstances returns every live instance entity, in `instances`
// insertion order (§5 "Ordering": the iteration order for `with all`).
func (w *World) AllInstances() []value.Entity {
	out := make([]value.Entity, 0, w.instances.Len())
	for pair := w.instances.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// MarkDestroyed flags e to be removed from every table on the next Sweep
// (§4.J: the driver sweeps destroyed instances once per frame, not
// immediately, so a `with` snapshot already in flight stays stable).
func (w *World) MarkDestroyed(e value.Entity) {
	if e == w.Global {
		return
	}
	w.pendingDestroy[e] = true
}

// Sweep removes every entity marked by MarkDestroyed from members,
// objects, and instances atomically (§3 invariant 1), freeing its handle
// for reuse.
func (w *World) Sweep() {
	if len(w.pendingDestroy) == 0 {
		return
	}
	for e := range w.pendingDestroy {
		if objType, ok := w.objectType[e]; ok {
			w.objects[objType] = removeEntity(w.objects[objType], e)
			delete(w.objectType, e)
		}
		if id, ok := w.instanceOf[e]; ok {
			w.instances.Delete(id)
			delete(w.instanceOf, e)
		}
		delete(w.members, e)
		w.entities.Free(e)
	}
	w.pendingDestroy = make(map[value.Entity]bool)
}

func removeEntity(s []value.Entity, e value.Entity) []value.Entity {
	out := s[:0]
	for _, v := range s {
		if v != e {
			out = append(out, v)
		}
	}
	return out
}

// DestroyAllExcept marks every live room instance for destruction except
// those whose object type is in persistent, for a room-load boundary (§6
// project description: persistent object declarations survive a room
// change, matching GameMaker's semantics). GLOBAL is never a room instance
// and is unaffected.
func (w *World) DestroyAllExcept(persistent map[ObjectID]bool) {
	for _, e := range w.AllInstances() {
		if objType, ok := w.objectType[e]; ok && persistent[objType] {
			continue
		}
		w.MarkDestroyed(e)
	}
}

// FirstOfObject returns the first live instance of objType in creation
// order, for `obj.name` reads (§4.D: "reading obj.name reads the first
// instance").
func (w *World) FirstOfObject(objType ObjectID) (value.Entity, bool) {
	if es := w.objects[objType]; len(es) > 0 {
		return es[0], true
	}
	return 0, false
}

// SetMemberOfAll writes sym on every live instance of objType, for
// `obj.name = expr` broadcast writes (§4.D).
func (w *World) SetMemberOfAll(objType ObjectID, sym symbol.Symbol, v value.Value) {
	for _, e := range w.objects[objType] {
		w.SetMember(e, sym, v)
	}
}

// ExpandWithTarget resolves a `with` target value into the snapshot of
// entities it denotes (§4.D/§5): a bare object-type value (emitted by the
// SSA builder as a real constant naming the object id) expands to a copy
// of that object's creation-order bucket, `all` to the full instance
// ordering, `noone` to nothing, and an ordinary entity handle to itself if
// still live.
func ExpandWithTarget(w *World, target value.Value) []value.Entity {
	switch target.Tag {
	case value.TagReal:
		objType := ObjectID(int32(target.Real))
		snap := make([]value.Entity, len(w.objects[objType]))
		copy(snap, w.objects[objType])
		return snap
	case value.TagEntity:
		switch target.Entity {
		case value.NoEntity:
			return nil
		case value.AllEntities:
			return w.AllInstances()
		default:
			if w.IsLive(target.Entity) {
				return []value.Entity{target.Entity}
			}
			return nil
		}
	default:
		return nil
	}
}
