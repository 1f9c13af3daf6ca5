package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmlscript/gmlscript/pkg/script"
)

var (
	runRoom   int
	runFrames int
)

var runCmd = &cobra.Command{
	Use:   "run [project.toml]",
	Short: "Build a project and drive it for a number of frames",
	Long: `Compile the manifest, load a room, then advance the driver frame
loop --frames times (step events, motion integration, draw events, sweep).

Examples:
  gmlc run project.toml
  gmlc run project.toml --room 1 --frames 120`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runRoom, "room", 0, "index of the room to load first")
	runCmd.Flags().IntVar(&runFrames, "frames", 1, "number of frames to simulate")
}

func runRun(_ *cobra.Command, args []string) error {
	_, assets, _, reg, err := loadAndBuild(args[0])
	if err != nil {
		return err
	}
	return script.Run(&script.RunContext{
		Assets:   assets,
		Bindings: reg,
		Room:     runRoom,
		Frames:   runFrames,
	})
}
