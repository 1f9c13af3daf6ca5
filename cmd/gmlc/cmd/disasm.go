package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gmlscript/gmlscript/internal/bytecode"
)

var disasmUnit string

var disasmCmd = &cobra.Command{
	Use:   "disasm [project.toml]",
	Short: "Disassemble compiled bytecode",
	Long: `Build the manifest and print the bytecode listing for one compiled
unit (--unit name), or every unit's label if --unit is omitted.

Examples:
  gmlc disasm project.toml
  gmlc disasm project.toml --unit scr_helper`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVar(&disasmUnit, "unit", "", "label of the unit to disassemble (see the list printed without this flag)")
}

func runDisasm(_ *cobra.Command, args []string) error {
	_, assets, debug, _, err := loadAndBuild(args[0])
	if err != nil {
		return err
	}

	if disasmUnit == "" {
		labels := make([]string, 0, len(debug.Functions))
		for label := range debug.Functions {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Println(label)
		}
		return nil
	}

	fn, ok := debug.Functions[disasmUnit]
	if !ok {
		return fmt.Errorf("disasm: no compiled unit labeled %q", disasmUnit)
	}
	fmt.Print(bytecode.Disassemble(fn, assets.In))
	return nil
}
