package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kim-el/kimtemp/internal/config"
	"github.com/kim-el/kimtemp/internal/logger"
	"github.com/kim-el/kimtemp/internal/sampler"
	"github.com/kim-el/kimtemp/internal/smc"
	"github.com/kim-el/kimtemp/internal/sysstat"
	"github.com/kim-el/kimtemp/internal/zone"
)

var (
	streamIntervalFlag string
	streamCadenceFlag  int
	streamOnceFlag     bool
	streamFastFlag     bool
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Emit one JSON telemetry record per tick on stdout",
	Long: `Run the sampling loop and print one JSON record per line. Zone
temperatures and the power decomposition are fresh in every record;
battery, memory, and process statistics refresh every Nth tick.

Examples:
  kimtemp stream
  kimtemp stream --once | jq .
  kimtemp stream --fast --interval 250ms
  kimtemp stream --cadence 10 --config m3.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return streamCommand()
	},
}

func init() {
	streamCmd.Flags().StringVar(&streamIntervalFlag, "interval", "", "tick period (e.g., 500ms, 2s)")
	streamCmd.Flags().IntVar(&streamCadenceFlag, "cadence", 0, "slow statistics refresh every Nth tick")
	streamCmd.Flags().BoolVar(&streamOnceFlag, "once", false, "emit a single record and exit")
	streamCmd.Flags().BoolVar(&streamFastFlag, "fast", false, "power only: no subprocess statistics, temps sampled once")
	rootCmd.AddCommand(streamCmd)
}

func streamCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := smc.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	s, err := buildSampler(cfg, src, sampler.Config{Once: streamOnceFlag, FastOnly: streamFastFlag})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	err = s.Run(ctx, func(r sampler.Record) error {
		return enc.Encode(r)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildSampler assembles the sampling loop from the config tables,
// applying the stream flag overrides.
func buildSampler(cfg config.Config, src smc.Source, sc sampler.Config) (*sampler.Sampler, error) {
	sc.Interval = cfg.Interval()
	if streamIntervalFlag != "" {
		iv, err := time.ParseDuration(streamIntervalFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --interval %q: %w", streamIntervalFlag, err)
		}
		if iv <= 0 {
			return nil, fmt.Errorf("--interval must be positive")
		}
		sc.Interval = iv
	}
	sc.Cadence = cfg.Sampler.Cadence
	if streamCadenceFlag > 0 {
		sc.Cadence = streamCadenceFlag
	}
	sc.SlowTimeout = cfg.SlowTimeout()
	sc.TempRange = cfg.Range()

	var slow sampler.SlowSource
	if !sc.FastOnly {
		slow = sysstat.NewCollector(logger.New("[sysstat]"))
	}
	return sampler.New(src, zone.NewClassifier(cfg.Rules()), cfg.Model(),
		cfg.BatteryKey(), slow, sc, logger.New("[sampler]")), nil
}
