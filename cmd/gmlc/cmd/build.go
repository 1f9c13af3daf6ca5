package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [project.toml]",
	Short: "Compile a project manifest and report diagnostics",
	Long: `Parse, lower, allocate, and generate bytecode for every script, event,
and room creation-code unit named in the manifest, without running anything.

Examples:
  gmlc build project.toml`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(_ *cobra.Command, args []string) error {
	_, assets, _, _, err := loadAndBuild(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("built %d script(s), %d room(s)\n", len(assets.Program.Scripts), len(assets.Rooms))
	return nil
}
