// Package instance implements the entity-lifecycle procedures of §4.I's
// domain stack: instance_create, instance_destroy, instance_find,
// instance_number, instance_exists, and the object_index/id getters
// exercised by §8 scenarios 2 and 6.
package instance

import (
	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/world"
)

// NextID mints stable instance ids for instance_create, disjoint from
// whatever the authoring tool assigned to room instances.
type NextID struct{ n world.InstanceID }

func (c *NextID) next() world.InstanceID {
	c.n++
	return c.n
}

// Register installs the instance-lifecycle procedures and getters into reg.
// idGen mints ids for instance_create; it should start above the highest id
// any room assigns so synthesized and authored instances never collide.
func Register(reg *binding.Registry, in *symbol.Interner, idGen *NextID) {
	reg.RegisterProc(in.Intern("instance_create"), 3, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		x, y, obj := args[0], args[1], args[2]
		objType := world.ObjectID(int32(obj.Real))
		id := idGen.next()
		e := cx.World.CreateInstance(id, objType)
		cx.World.SetMember(e, in.Intern("x"), x)
		cx.World.SetMember(e, in.Intern("y"), y)
		return value.EntityVal(e), nil
	})

	reg.RegisterProc(in.Intern("instance_destroy"), 0, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		cx.World.MarkDestroyed(self)
		return value.Real(0), nil
	})

	reg.RegisterProc(in.Intern("instance_find"), 2, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		objType := world.ObjectID(int32(args[0].Real))
		n := int(args[1].Real)
		es := cx.World.ObjectsOf(objType)
		if n < 0 || n >= len(es) {
			return value.EntityVal(value.NoEntity), nil
		}
		return value.EntityVal(es[n]), nil
	})

	reg.RegisterProc(in.Intern("instance_number"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		objType := world.ObjectID(int32(args[0].Real))
		return value.Real(float64(len(cx.World.ObjectsOf(objType)))), nil
	})

	reg.RegisterProc(in.Intern("instance_exists"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		if args[0].Tag != value.TagEntity {
			return value.Bool(false), nil
		}
		return value.Bool(cx.World.IsLive(args[0].Entity)), nil
	})

	reg.RegisterGetter(in.Intern("object_index"), func(cx *binding.Context, self value.Entity) (value.Value, error) {
		objType, _ := cx.World.ObjectOf(self)
		return value.Real(float64(objType)), nil
	})

	reg.RegisterGetter(in.Intern("id"), func(cx *binding.Context, self value.Entity) (value.Value, error) {
		return value.EntityVal(self), nil
	})
}
