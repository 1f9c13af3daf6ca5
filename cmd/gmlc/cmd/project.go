package cmd

import (
	"fmt"
	"os"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/stdlib/ds"
	"github.com/gmlscript/gmlscript/internal/stdlib/instance"
	"github.com/gmlscript/gmlscript/internal/stdlib/show"
	"github.com/gmlscript/gmlscript/internal/stdlib/strreal"
	"github.com/gmlscript/gmlscript/internal/stdlib/tomlproject"
	"github.com/gmlscript/gmlscript/pkg/script"
)

// loadAndBuild loads the manifest at path, assembles the standard library
// bindings (everything but motion, which script.Build registers itself),
// and compiles the project. Every compile diagnostic is printed to stderr
// in the teacher's caret-pointer style as it's produced.
func loadAndBuild(path string) (*tomlproject.Project, *script.Assets, *script.DebugTable, *binding.Registry, error) {
	proj, err := tomlproject.Load(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	reg := binding.NewRegistry()
	in := proj.Interner()
	strreal.Register(reg, in)
	show.Register(reg, in, os.Stdout)
	instance.Register(reg, in, &instance.NextID{})
	ds.Register(reg, in, ds.NewStore())

	sink := func(e *gmlerr.CompileError) {
		fmt.Fprintln(os.Stderr, e.Format(true))
	}

	assets, debug, err := script.Build(proj, reg, sink)
	if err != nil {
		return proj, assets, debug, reg, err
	}
	return proj, assets, debug, reg, nil
}
