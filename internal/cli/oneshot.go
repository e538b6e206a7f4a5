package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kim-el/kimtemp/internal/config"
	"github.com/kim-el/kimtemp/internal/smc"
	"github.com/kim-el/kimtemp/internal/zone"
)

var cpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Print the CPU zone temperature",
	Long: `Read every CPU thermal diode, average the plausible readings, and
print the result in degrees Celsius. Prints N/A when no diode reports
a usable value.

Examples:
  kimtemp cpu
  watch -n1 kimtemp cpu`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return zoneCommand(zone.CPU)
	},
}

var gpuCmd = &cobra.Command{
	Use:   "gpu",
	Short: "Print the GPU zone temperature",
	RunE: func(cmd *cobra.Command, args []string) error {
		return zoneCommand(zone.GPU)
	},
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Print the total system power draw in watts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		src, err := smc.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		w, err := src.ReadFloat(smc.MustKey(cfg.Power.Total))
		if err != nil {
			return fmt.Errorf("read %s: %w", cfg.Power.Total, err)
		}
		fmt.Printf("%.2f\n", w)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List readable power rail keys and their current values",
	Long: `Enumerate the sensor key space and print every power rail ('P'
prefix) that reads successfully, with its current value in watts.
Useful when porting the rail table to a new hardware revision.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := smc.Open()
		if err != nil {
			return err
		}
		defer src.Close()
		return listPowerKeys(src, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(cpuCmd)
	rootCmd.AddCommand(gpuCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(keysCmd)
}

func zoneCommand(z zone.Zone) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := smc.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	v, ok := zoneAverage(src, cfg, z)
	fmt.Println(formatZone(v, ok))
	return nil
}

// zoneAverage classifies every enumerated key and averages the zone's
// in-range readings.
func zoneAverage(src smc.Source, cfg config.Config, z zone.Zone) (float64, bool) {
	keys, err := src.Keys()
	if err != nil {
		return 0, false
	}
	cls := zone.NewClassifier(cfg.Rules())
	var vals []float64
	for _, k := range keys {
		if cls.Classify(k) != z {
			continue
		}
		t, err := src.ReadTemperature(k)
		if err != nil {
			continue
		}
		vals = append(vals, t)
	}
	return zone.Aggregate(vals, cfg.Range())
}

func formatZone(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func listPowerKeys(src smc.Source, w io.Writer) error {
	keys, err := src.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !k.HasPrefix("P") {
			continue
		}
		v, err := src.ReadFloat(k)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s  %8.3f\n", k, v)
	}
	return nil
}
