package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/project"
	"github.com/papapumpkin/ephemeris/internal/schedule"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
	"github.com/papapumpkin/ephemeris/internal/wbs"
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Resolve resource double-booking by shifting tasks later",
	Long: "Shifts overlapping tasks that share a resource so they run one after\n" +
		"another, then recomputes the schedule over the shifted dates. Use\n" +
		"--write to persist the shifted dates back to the project file.",
	RunE: runLevel,
}

func init() {
	levelCmd.Flags().Bool("write", false, "write shifted dates back to the project file")
	levelCmd.Flags().Bool("ignore-priorities", false, "order overlapping tasks by start date only")
	rootCmd.AddCommand(levelCmd)
}

func runLevel(cmd *cobra.Command, _ []string) error {
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

	ignorePrio, _ := cmd.Flags().GetBool("ignore-priorities")
	lr, err := schedule.LevelResources(p.Tasks, p.ProjectCalendar(), schedule.LevelOptions{
		RespectPriorities: cfg.RespectPriorities && !ignorePrio,
	})
	if err != nil {
		return err
	}
	p.Tasks = lr.Tasks

	// Leveling moves dates without consulting dependencies; the pass
	// afterwards restores a consistent schedule.
	res, err := p.Recalculate()
	if err != nil {
		return err
	}

	r.LevelingReport(lr)
	r.ScheduleTable(res, wbs.Assign(res.Tasks))

	_ = em.Emit(telemetry.Event{Kind: telemetry.KindLevelDone, Project: p.Project.Name,
		Data: map[string]any{"moved": lr.Moved, "delay_hours": lr.TotalDelayHours}})

	if write, _ := cmd.Flags().GetBool("write"); write && lr.Moved > 0 {
		if err := project.Save(cfg.ProjectFile, p); err != nil {
			return err
		}
	}
	return nil
}
