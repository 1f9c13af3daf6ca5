package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/gmlerr"
	"github.com/gmlscript/gmlscript/internal/stdlib/ds"
	"github.com/gmlscript/gmlscript/internal/stdlib/instance"
	"github.com/gmlscript/gmlscript/internal/stdlib/show"
	"github.com/gmlscript/gmlscript/internal/stdlib/strreal"
	"github.com/gmlscript/gmlscript/internal/stdlib/tomlproject"
	"github.com/gmlscript/gmlscript/pkg/script"
)

var fmtErrorsColor bool

var fmtErrorsCmd = &cobra.Command{
	Use:   "fmt-errors [project.toml]",
	Short: "Build a project and print every diagnostic, uncolored by default",
	Long: `Like build, but collects every diagnostic before printing instead of
interleaving them with compilation, and defaults to plain text (--color for
the caret-pointer ANSI output build/run use), for piping into CI logs.

Examples:
  gmlc fmt-errors project.toml
  gmlc fmt-errors project.toml --color`,
	Args: cobra.ExactArgs(1),
	RunE: runFmtErrors,
}

func init() {
	rootCmd.AddCommand(fmtErrorsCmd)
	fmtErrorsCmd.Flags().BoolVar(&fmtErrorsColor, "color", false, "render with ANSI color")
}

func runFmtErrors(_ *cobra.Command, args []string) error {
	proj, err := tomlproject.Load(args[0])
	if err != nil {
		return err
	}

	reg := binding.NewRegistry()
	in := proj.Interner()
	strreal.Register(reg, in)
	show.Register(reg, in, os.Stdout)
	instance.Register(reg, in, &instance.NextID{})
	ds.Register(reg, in, ds.NewStore())

	var diags []*gmlerr.CompileError
	_, _, buildErr := script.Build(proj, reg, func(e *gmlerr.CompileError) {
		diags = append(diags, e)
	})

	for _, d := range diags {
		fmt.Println(d.Format(fmtErrorsColor))
	}
	if buildErr != nil {
		return fmt.Errorf("fmt-errors: %d diagnostic(s)", len(diags))
	}
	fmt.Println("no diagnostics")
	return nil
}
