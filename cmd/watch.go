package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/project"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
	"github.com/papapumpkin/ephemeris/internal/ui"
	"github.com/papapumpkin/ephemeris/internal/wbs"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute the schedule whenever the project file changes",
	Long: "Watches the project file and reruns validation and the scheduling\n" +
		"passes after every save. Stop with Ctrl-C.",
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := ui.New(os.Stdout, cfg.HoursPerDay)

	em := openEmitter(cfg)
	defer em.Close()

	w, err := project.NewWatcher(cfg.ProjectFile)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	// Initial run so the screen is not empty until the first edit.
	recomputeOnce(cfg, r)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			r.WatchEvent(change.Path, change.At)
			_ = em.Emit(telemetry.Event{Kind: telemetry.KindWatchChange,
				Data: map[string]any{"path": change.Path}})
			recomputeOnce(cfg, r)
		case <-sig:
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}

// recomputeOnce reloads, validates, and reschedules. Failures are
// printed rather than returned: the watch loop must survive a file
// saved mid-edit.
func recomputeOnce(cfg config.Config, r *ui.Renderer) {
	p, err := project.Load(cfg.ProjectFile)
	if err != nil {
		r.Error(err)
		return
	}
	if findings := project.Validate(p); len(findings) > 0 {
		r.ValidationReport(findings)
		return
	}
	res, err := p.Recalculate()
	if err != nil {
		r.Error(err)
		return
	}
	r.ScheduleTable(res, wbs.Assign(res.Tasks))
	r.CriticalPath(res)
}
