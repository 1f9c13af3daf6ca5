package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gmlc",
	Short: "Build and run GameMaker-style scripted projects",
	Long: `gmlc compiles a project.toml manifest (objects, scripts, events,
rooms, each backed by .gml source files) to bytecode and runs it against the
register-based VM.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
