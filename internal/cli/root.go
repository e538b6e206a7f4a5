// Package cli implements the kimtemp command-line interface.
//
// The package is organized around Cobra commands, each delegating to
// the engine packages for the actual work:
//
//	kimtemp cpu       - One-shot CPU zone temperature
//	kimtemp gpu       - One-shot GPU zone temperature
//	kimtemp power     - One-shot system power draw
//	kimtemp keys      - List readable power rail keys
//	kimtemp stream    - Continuous JSON telemetry on stdout
//	kimtemp trigger   - Watch for power state changes
//	kimtemp monitor   - Live TUI dashboard
//
// The global --config flag points at a YAML file overriding the
// built-in classification and rail tables for other hardware revisions.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kim-el/kimtemp/internal/config"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "kimtemp",
	Short: "Apple silicon power and thermal telemetry",
	Long: `kimtemp reads the SMC power and temperature sensors directly and
reports per-zone temperatures, the power rail decomposition, and
battery statistics.

Continuous modes emit one JSON record per second on stdout; the slower
subprocess-derived statistics refresh every fifth record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors are reported on stderr with a
// non-zero exit.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "YAML file overriding the built-in sensor tables")
}

func loadConfig() (config.Config, error) {
	return config.Load(configFlag)
}
