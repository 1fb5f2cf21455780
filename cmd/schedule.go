package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
	"github.com/papapumpkin/ephemeris/internal/wbs"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute the critical-path schedule",
	Long: "Runs the forward and backward passes over the project's dependency\n" +
		"graph and working calendar, then prints every task's dates, slack,\n" +
		"and the critical path.",
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	p, err := loadProject(cfg, r)
	if err != nil {
		return err
	}
	r = newRenderer(cfg, p)

	em := openEmitter(cfg)
	defer em.Close()
	_ = em.Emit(telemetry.Event{Kind: telemetry.KindRunStart, Project: p.Project.Name})

	res, err := p.Recalculate()
	if err != nil {
		return err
	}

	r.ScheduleTable(res, wbs.Assign(res.Tasks))
	r.CriticalPath(res)

	_ = em.Emit(telemetry.Event{Kind: telemetry.KindRecalcDone, Project: p.Project.Name,
		Data: map[string]any{"tasks": len(res.Tasks), "critical": len(res.CriticalPath)}})
	return nil
}
