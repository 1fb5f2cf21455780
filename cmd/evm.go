package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/evm"
	"github.com/papapumpkin/ephemeris/internal/schedule"
	"github.com/papapumpkin/ephemeris/internal/store"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
)

var evmCmd = &cobra.Command{
	Use:   "evm",
	Short: "Report earned-value metrics against a baseline",
	Long: "Compares current progress and cost to a saved baseline and prints\n" +
		"planned value, earned value, actual cost, and the derived variance\n" +
		"and performance indices.",
	RunE: runEVM,
}

func init() {
	evmCmd.Flags().String("baseline", "", "baseline ID (default: most recent)")
	evmCmd.Flags().String("status-date", "", "status date, RFC 3339 (default: now)")
	rootCmd.AddCommand(evmCmd)
}

func runEVM(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	p, err := loadProject(cfg, r)
	if err != nil {
		return err
	}
	r = newRenderer(cfg, p)

	statusDate := time.Now().UTC()
	if raw, _ := cmd.Flags().GetString("status-date"); raw != "" {
		statusDate, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parsing --status-date: %w", err)
		}
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	baseline, err := resolveBaseline(ctx, s, cmd)
	if err != nil {
		return err
	}

	res, err := p.Recalculate()
	if err != nil {
		return err
	}

	metrics, err := evm.ComputeEVM(res.Tasks, p.Resources, baseline, statusDate)
	if err != nil {
		return err
	}

	r.EVMReport(metrics)

	em := openEmitter(cfg)
	defer em.Close()
	_ = em.Emit(telemetry.Event{Kind: telemetry.KindEVMDone, Project: p.Project.Name,
		Data: map[string]any{"baseline": baseline.ID, "spi": metrics.SPI, "cpi": metrics.CPI}})
	return nil
}

func resolveBaseline(ctx context.Context, s *store.Store, cmd *cobra.Command) (*schedule.Baseline, error) {
	if id, _ := cmd.Flags().GetString("baseline"); id != "" {
		return s.GetBaseline(ctx, id)
	}
	return s.LatestBaseline(ctx)
}
