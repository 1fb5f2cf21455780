package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/evm"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Roll up task and project costs",
	Long: "Computes each task's cost from its assignments and resource rates,\n" +
		"aggregates summary tasks from their children, and prints the project\n" +
		"total.",
	RunE: runCost,
}

func init() {
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	p, err := loadProject(cfg, r)
	if err != nil {
		return err
	}
	r = newRenderer(cfg, p)

	em := openEmitter(cfg)
	defer em.Close()

	res, err := p.Recalculate()
	if err != nil {
		return err
	}

	costed, err := evm.RollupCosts(res.Tasks, p.Resources)
	if err != nil {
		return err
	}
	total, err := evm.ProjectCost(costed, p.Resources)
	if err != nil {
		return err
	}

	r.CostTable(costed, total)

	_ = em.Emit(telemetry.Event{Kind: telemetry.KindCostDone, Project: p.Project.Name,
		Data: map[string]any{"total": total}})
	return nil
}
