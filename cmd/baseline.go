package cmd

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/evm"
	"github.com/papapumpkin/ephemeris/internal/store"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Save and inspect immutable schedule snapshots",
}

var baselineSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Capture the current schedule and costs as a new baseline",
	RunE:  runBaselineSave,
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved baselines, newest first",
	RunE:  runBaselineList,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one baseline's task snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineShow,
}

func init() {
	baselineSaveCmd.Flags().String("name", "", "human-readable baseline name")
	baselineCmd.AddCommand(baselineSaveCmd, baselineListCmd, baselineShowCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineSave(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	p, err := loadProject(cfg, r)
	if err != nil {
		return err
	}
	r = newRenderer(cfg, p)

	res, err := p.Recalculate()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = p.Project.Name
	}
	baseline, err := evm.TakeBaseline(uuid.NewString(), name, res.Tasks, p.Resources, time.Now().UTC())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SaveBaseline(ctx, baseline); err != nil {
		return err
	}
	r.BaselineDetail(baseline)

	em := openEmitter(cfg)
	defer em.Close()
	_ = em.Emit(telemetry.Event{Kind: telemetry.KindBaselineSaved, Project: p.Project.Name,
		Data: map[string]any{"baseline": baseline.ID, "tasks": len(baseline.Tasks)}})
	return nil
}

func runBaselineList(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.ListBaselines(ctx)
	if err != nil {
		return err
	}
	r.BaselineList(list)
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	baseline, err := s.GetBaseline(ctx, args[0])
	if err != nil {
		return err
	}
	r.BaselineDetail(baseline)
	return nil
}
