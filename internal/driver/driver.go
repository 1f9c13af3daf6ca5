// Package driver implements §4.J: per-frame event sequencing, motion
// integration, and destroyed-instance sweep, plus the room-load sequence
// that creates a room's instances and runs their per-instance creation
// code, their object's CREATE event, and the room's own creation code.
//
// Event ordering within RunFrame and instance-creation ordering within
// LoadRoom follow original_source/runner/src/world/room.rs and debug.rs
// literally, per SPEC_FULL.md's "[EXPANSION] Supplemented features" note.
package driver

import (
	"github.com/gmlscript/gmlscript/internal/stdlib/motion"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/vm"
	"github.com/gmlscript/gmlscript/internal/world"
)

// RoomInstance is one authored instance placement from a room description
// (§6 "Project description": "rooms: instances {x, y, object_index, id}").
type RoomInstance struct {
	ID          world.InstanceID
	ObjectType  world.ObjectID
	X, Y        float64
	CreationKey *vm.FuncKey
}

// Driver owns the thread and motion-symbol table a running game advances
// frame by frame. It does not own the World or Program — those are
// supplied by the host via NewDriver so the same World can be loaded,
// stepped, and inspected from outside.
type Driver struct {
	Thread     *vm.Thread
	World      *world.World
	Events     vm.EventNames
	Motion     MotionNames
	Persistent map[world.ObjectID]bool
}

// MotionNames is the interned symbol set motion.Register returns; the
// driver needs it to call motion.Simulate without re-registering bindings.
type MotionNames = motion.Names

// NewDriver creates a Driver over an already-built program and world.
// persistent names the object types that survive a room change; pass nil
// if the project declares none.
func NewDriver(t *vm.Thread, w *world.World, events vm.EventNames, motionNames MotionNames, persistent map[world.ObjectID]bool) *Driver {
	if persistent == nil {
		persistent = map[world.ObjectID]bool{}
	}
	return &Driver{Thread: t, World: w, Events: events, Motion: motionNames, Persistent: persistent}
}

// LoadRoom runs the room-load sequence of §4.J: destroy every non-persistent
// instance left over from a prior room, then for each new instance, create
// the entity with its stable id, run its own per-instance creation code (if
// the room description supplies any — RoomInstance.CreationKey), then run
// its object's CREATE event; then the room's own creation code, if any;
// then a sweep.
func (d *Driver) LoadRoom(roomID int, instances []RoomInstance, roomCreate *vm.FuncKey) error {
	d.World.DestroyAllExcept(d.Persistent)
	d.World.Sweep()

	for _, ri := range instances {
		e := d.World.CreateInstance(ri.ID, ri.ObjectType)
		d.World.SetMember(e, d.Thread.In.Intern("x"), value.Real(ri.X))
		d.World.SetMember(e, d.Thread.In.Intern("y"), value.Real(ri.Y))

		if ri.CreationKey != nil {
			if _, err := d.Thread.Execute(*ri.CreationKey, e, value.NoEntity, nil); err != nil {
				return err
			}
		}

		key := vm.FuncKey{Kind: vm.KindEvent, Object: ri.ObjectType, EventType: d.Events.Create, EventKind: vm.KindDefault}
		if _, ok := d.Thread.Program.Lookup(key); ok {
			if _, err := d.Thread.Execute(key, e, value.NoEntity, nil); err != nil {
				return err
			}
		}
	}

	if roomCreate != nil {
		if _, err := d.Thread.Execute(*roomCreate, d.World.Global, value.NoEntity, nil); err != nil {
			return err
		}
	}

	d.World.Sweep()
	return nil
}

// RunFrame advances one frame: step events in `instances` order, motion
// integration, draw events, then a sweep of instances destroyed during the
// frame (§4.J). It returns the first error encountered, leaving later
// instances, motion, draw events and the sweep unprocessed for this frame;
// whether another frame runs is up to the caller (script.Run stops).
func (d *Driver) RunFrame() error {
	for _, e := range d.World.AllInstances() {
		objType, ok := d.World.ObjectOf(e)
		if !ok {
			continue
		}
		key := vm.FuncKey{Kind: vm.KindEvent, Object: objType, EventType: d.Events.Step, EventKind: vm.KindDefault}
		if _, ok := d.Thread.Program.Lookup(key); ok {
			if _, err := d.Thread.Execute(key, e, value.NoEntity, nil); err != nil {
				return err
			}
		}
	}

	for _, e := range d.World.AllInstances() {
		motion.Simulate(d.World, d.Motion, e)
	}

	for _, e := range d.World.AllInstances() {
		objType, ok := d.World.ObjectOf(e)
		if !ok {
			continue
		}
		key := vm.FuncKey{Kind: vm.KindEvent, Object: objType, EventType: d.Events.Draw, EventKind: vm.KindDefault}
		if _, ok := d.Thread.Program.Lookup(key); ok {
			if _, err := d.Thread.Execute(key, e, value.NoEntity, nil); err != nil {
				return err
			}
		}
	}

	d.World.Sweep()
	return nil
}
