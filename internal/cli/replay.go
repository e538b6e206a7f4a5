package cli

import (
	"github.com/spf13/cobra"

	"github.com/kim-el/kimtemp/internal/viewer"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Browse previously recorded telemetry",
	Long: `Open the JSONL logs written by the monitor and scrub through them
with a time cursor. Days are navigated with [ and ].`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewer.Run()
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
