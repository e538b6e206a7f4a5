package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kim-el/kimtemp/internal/detect"
	"github.com/kim-el/kimtemp/internal/smc"
)

var (
	triggerThresholdFlag float64
	triggerPercentFlag   float64
	triggerIntervalFlag  string
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Watch total power and report sustained changes",
	Long: `Sample the total power rail at a high rate, smooth it with an
exponential moving average, and print one JSON event line per sustained
change. Slow drifts are absorbed quietly; sharp transitions fire
exactly once.

By default a change fires when the smoothed draw departs from its last
stable level by more than --threshold-mw. With --percent the deviation
is measured relative to the stable level instead.

Examples:
  kimtemp trigger
  kimtemp trigger --threshold-mw 1000
  kimtemp trigger --percent 10 --interval 50ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return triggerCommand()
	},
}

func init() {
	triggerCmd.Flags().Float64Var(&triggerThresholdFlag, "threshold-mw", 500, "absolute deviation threshold in milliwatts")
	triggerCmd.Flags().Float64Var(&triggerPercentFlag, "percent", 0, "relative deviation threshold in percent (overrides --threshold-mw)")
	triggerCmd.Flags().StringVar(&triggerIntervalFlag, "interval", "", "sample period (e.g., 50ms; default 100ms)")
	rootCmd.AddCommand(triggerCmd)
}

func triggerCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := smc.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dc := detect.Config{
		Alpha:       cfg.Detect.Alpha,
		Threshold:   triggerThresholdFlag,
		Cooldown:    cfg.Cooldown(),
		StableFloor: cfg.Detect.StableFloor,
	}
	if triggerPercentFlag > 0 {
		dc.Mode = detect.Relative
		dc.Threshold = triggerPercentFlag / 100
	}
	if triggerIntervalFlag != "" {
		iv, err := time.ParseDuration(triggerIntervalFlag)
		if err != nil {
			return fmt.Errorf("invalid --interval %q: %w", triggerIntervalFlag, err)
		}
		if iv <= 0 {
			return fmt.Errorf("--interval must be positive")
		}
		dc.Interval = iv
	}

	total := smc.MustKey(cfg.Power.Total)
	read := func() (float64, error) {
		w, err := src.ReadFloat(total)
		return float64(w) * 1000, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	err = detect.New(dc).Monitor(ctx, read, func(ev detect.Event) {
		enc.Encode(triggerEvent{
			Event:     "content_change",
			DeltaPct:  math.Round(ev.Ratio*1000) / 10,
			DeltaMw:   math.Round(ev.Deviation),
			CurrentMw: math.Round(ev.Value),
		})
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// triggerEvent is the change notification emitted on stdout.
type triggerEvent struct {
	Event     string  `json:"event"`
	DeltaPct  float64 `json:"delta_pct"`
	DeltaMw   float64 `json:"delta_mw"`
	CurrentMw float64 `json:"current_mw"`
}
