package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/project"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the project file for structural problems",
	Long: "Reports every structural problem in the project file: duplicate or\n" +
		"missing IDs, dangling parent and resource references, out-of-range\n" +
		"values, dependency cycles, and calendars with no working time.",
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	r := newRenderer(cfg, nil)

	p, err := project.Load(cfg.ProjectFile)
	if err != nil {
		return err
	}

	findings := project.Validate(p)
	r.ValidationReport(findings)

	em := openEmitter(cfg)
	defer em.Close()
	_ = em.Emit(telemetry.Event{Kind: telemetry.KindValidateDone, Project: p.Project.Name,
		Data: map[string]any{"findings": len(findings)}})

	if len(findings) > 0 {
		return fmt.Errorf("%s: %d validation problem(s)", cfg.ProjectFile, len(findings))
	}
	return nil
}
