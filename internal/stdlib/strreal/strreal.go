// Package strreal implements the string and real conversion built-ins of
// §4.J's domain stack: string, real, chr, ord, floor, round. All numeric
// coercion goes through internal/value.CoerceNumber so these share the same
// promotion rule as the VM's arithmetic operators (§9 "Dynamic typing").
package strreal

import (
	"math"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

// Register installs string/real/chr/ord/floor/round into reg.
func Register(reg *binding.Registry, in *symbol.Interner) {
	reg.RegisterProc(in.Intern("string"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return value.String(in.Intern(value.ToDisplayString(args[0], in))), nil
	})

	reg.RegisterProc(in.Intern("real"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		f, ok := value.CoerceNumber(args[0], in)
		if !ok {
			return value.Value{}, &value.TypeError{Op: "real"}
		}
		return value.Real(f), nil
	})

	reg.RegisterProc(in.Intern("chr"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		return value.String(in.Intern(string(rune(int32(args[0].Real))))), nil
	})

	reg.RegisterProc(in.Intern("ord"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		s := in.Name(args[0].Str)
		if s == "" {
			return value.Real(0), nil
		}
		return value.Real(float64([]rune(s)[0])), nil
	})

	reg.RegisterProc(in.Intern("floor"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		f, ok := value.CoerceNumber(args[0], in)
		if !ok {
			return value.Value{}, &value.TypeError{Op: "floor"}
		}
		return value.Real(math.Floor(f)), nil
	})

	reg.RegisterProc(in.Intern("round"), 1, func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		f, ok := value.CoerceNumber(args[0], in)
		if !ok {
			return value.Value{}, &value.TypeError{Op: "round"}
		}
		return value.Real(math.Round(f)), nil
	})
}
