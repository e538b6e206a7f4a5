package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kim-el/kimtemp/internal/monitor"
	"github.com/kim-el/kimtemp/internal/sampler"
	"github.com/kim-el/kimtemp/internal/smc"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard with power and thermal sparklines",
	Long: `Full-screen dashboard showing the power decomposition, per-zone
temperatures with 10-minute sparklines, and battery status. Records
are also appended to ~/.kimtemp-data/ as JSON lines.

Keys: q quit, j/k scroll, p pause.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand()
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func monitorCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := smc.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	s, err := buildSampler(cfg, src, sampler.Config{})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := make(chan sampler.Record)
	go func() {
		defer close(records)
		s.Run(ctx, func(r sampler.Record) error {
			select {
			case records <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	p := tea.NewProgram(monitor.New(records), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
