// Package motion implements the `x`/`y`/`speed`/`direction`/`hspeed`/
// `vspeed`/`friction`/`gravity`/`gravity_direction` host bindings and the
// per-frame motion integration the driver invokes once per instance (§4.J,
// SPEC_FULL.md §4 "motion_simulate-equivalent integration"). The
// friction-before-gravity, speed-decomposed-into-hspeed/vspeed order
// follows spec.md §4.J's own prose and standard GameMaker motion-variable
// convention, not original_source/ (its engine/src/motion.rs has no
// integration routine to ground this on).
package motion

import (
	"math"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
	"github.com/gmlscript/gmlscript/internal/world"
)

// Names are interned once by Register and reused by Simulate so the driver
// never has to re-resolve them per instance per frame.
type Names struct {
	x, y, xprev, yprev            symbol.Symbol
	hspeed, vspeed                symbol.Symbol
	friction, gravity, gravityDir symbol.Symbol
}

// Register installs every motion getter/setter into reg, interning their
// names against in, and returns the resolved symbol set Simulate needs.
func Register(reg *binding.Registry, in *symbol.Interner) Names {
	n := Names{
		x:          in.Intern("x"),
		y:          in.Intern("y"),
		xprev:      in.Intern("xprevious"),
		yprev:      in.Intern("yprevious"),
		hspeed:     in.Intern("hspeed"),
		vspeed:     in.Intern("vspeed"),
		friction:   in.Intern("friction"),
		gravity:    in.Intern("gravity"),
		gravityDir: in.Intern("gravity_direction"),
	}

	passthrough := func(sym symbol.Symbol) {
		reg.RegisterGetter(sym, func(cx *binding.Context, self value.Entity) (value.Value, error) {
			v, _ := cx.World.GetMember(self, sym)
			return v, nil
		})
		reg.RegisterSetter(sym, func(cx *binding.Context, self value.Entity, v value.Value) error {
			cx.World.SetMember(self, sym, v)
			return nil
		})
	}
	passthrough(n.x)
	passthrough(n.y)
	passthrough(n.xprev)
	passthrough(n.yprev)
	passthrough(n.hspeed)
	passthrough(n.vspeed)
	passthrough(n.friction)
	passthrough(n.gravity)
	passthrough(n.gravityDir)

	speedSym := in.Intern("speed")
	dirSym := in.Intern("direction")
	reg.RegisterGetter(speedSym, func(cx *binding.Context, self value.Entity) (value.Value, error) {
		hs, vs := readVector(cx.World, self, n)
		return value.Real(math.Hypot(hs, vs)), nil
	})
	reg.RegisterSetter(speedSym, func(cx *binding.Context, self value.Entity, v value.Value) error {
		hs, vs := readVector(cx.World, self, n)
		dir := vectorDirection(hs, vs)
		writeVector(cx.World, self, n, fromPolar(v.Real, dir))
		return nil
	})
	reg.RegisterGetter(dirSym, func(cx *binding.Context, self value.Entity) (value.Value, error) {
		hs, vs := readVector(cx.World, self, n)
		return value.Real(vectorDirection(hs, vs)), nil
	})
	reg.RegisterSetter(dirSym, func(cx *binding.Context, self value.Entity, v value.Value) error {
		hs, vs := readVector(cx.World, self, n)
		speed := math.Hypot(hs, vs)
		writeVector(cx.World, self, n, fromPolar(speed, v.Real))
		return nil
	})

	return n
}

func readVector(w *world.World, e value.Entity, n Names) (hspeed, vspeed float64) {
	hs, _ := w.GetMember(e, n.hspeed)
	vs, _ := w.GetMember(e, n.vspeed)
	return hs.Real, vs.Real
}

func writeVector(w *world.World, e value.Entity, n Names, hs, vs float64) {
	w.SetMember(e, n.hspeed, value.Real(hs))
	w.SetMember(e, n.vspeed, value.Real(vs))
}

// vectorDirection returns the GameMaker-convention direction in degrees,
// [0, 360): y increases downward, so vertical speed is negated before atan2.
func vectorDirection(hspeed, vspeed float64) float64 {
	if hspeed == 0 && vspeed == 0 {
		return 0
	}
	deg := math.Atan2(-vspeed, hspeed) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

func fromPolar(speed, dirDeg float64) (hspeed, vspeed float64) {
	rad := dirDeg * math.Pi / 180
	return speed * math.Cos(rad), -speed * math.Sin(rad)
}

// Simulate integrates one frame of motion for e: position advances by this
// frame's (hspeed, vspeed) first, then friction reduces speed toward zero
// and gravity is added as a vector in gravity_direction, producing the
// (hspeed, vspeed) the *next* frame will move by (§8 scenario 3: moving by
// the pre-friction vector (3,-4) while friction shows up only in the
// post-frame speed of 4).
func Simulate(w *world.World, n Names, e value.Entity) {
	hs, vs := readVector(w, e, n)

	x, _ := w.GetMember(e, n.x)
	y, _ := w.GetMember(e, n.y)
	w.SetMember(e, n.xprev, x)
	w.SetMember(e, n.yprev, y)
	w.SetMember(e, n.x, value.Real(x.Real+hs))
	w.SetMember(e, n.y, value.Real(y.Real+vs))

	friction, _ := w.GetMember(e, n.friction)
	if friction.Real != 0 {
		speed := math.Hypot(hs, vs)
		newSpeed := speed - friction.Real
		if newSpeed < 0 {
			newSpeed = 0
		}
		if speed > 0 {
			scale := newSpeed / speed
			hs *= scale
			vs *= scale
		}
	}

	gravity, _ := w.GetMember(e, n.gravity)
	if gravity.Real != 0 {
		gdir, _ := w.GetMember(e, n.gravityDir)
		ghs, gvs := fromPolar(gravity.Real, gdir.Real)
		hs += ghs
		vs += gvs
	}
	writeVector(w, e, n, hs, vs)
}
