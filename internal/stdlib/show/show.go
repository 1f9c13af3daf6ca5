// Package show implements show_debug_message (§8 scenario 1), grounded on
// original_source/lib/src/show.rs: each argument is printed space-separated
// with a trailing space, followed by a newline.
package show

import (
	"fmt"
	"io"

	"github.com/gmlscript/gmlscript/internal/binding"
	"github.com/gmlscript/gmlscript/internal/symbol"
	"github.com/gmlscript/gmlscript/internal/value"
)

// Register installs show_debug_message, writing to w.
func Register(reg *binding.Registry, in *symbol.Interner, w io.Writer) {
	reg.RegisterVariadic(in.Intern("show_debug_message"), func(cx *binding.Context, self value.Entity, args []value.Value) (value.Value, error) {
		for _, a := range args {
			fmt.Fprintf(w, "%s ", value.ToDisplayString(a, in))
		}
		fmt.Fprintln(w)
		return value.Real(0), nil
	})
}
