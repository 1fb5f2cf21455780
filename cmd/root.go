package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/ephemeris/internal/config"
	"github.com/papapumpkin/ephemeris/internal/project"
	"github.com/papapumpkin/ephemeris/internal/telemetry"
	"github.com/papapumpkin/ephemeris/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "ephemeris",
	Short: "Calendar-aware project scheduling engine",
	Long: "Ephemeris computes critical-path schedules over working-time calendars,\n" +
		"levels over-allocated resources, and tracks cost and earned value against\n" +
		"saved baselines. Projects live in a single TOML file.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .ephemeris.yaml)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project file (default ephemeris.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("project_file", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".ephemeris")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("EPHEMERIS")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// loadProject reads the configured project file and fails the command
// when structural validation finds problems.
func loadProject(cfg config.Config, r *ui.Renderer) (*project.Project, error) {
	p, err := project.Load(cfg.ProjectFile)
	if err != nil {
		return nil, err
	}
	if findings := project.Validate(p); len(findings) > 0 {
		r.ValidationReport(findings)
		return nil, fmt.Errorf("%s: %d validation problem(s)", cfg.ProjectFile, len(findings))
	}
	return p, nil
}

// newRenderer builds the stdout renderer using the project's day
// length when available, the configured default otherwise.
func newRenderer(cfg config.Config, p *project.Project) *ui.Renderer {
	hours := cfg.HoursPerDay
	if p != nil && p.Project.HoursPerDay > 0 {
		hours = p.HoursPerDay()
	}
	return ui.New(os.Stdout, hours)
}

// openEmitter opens the JSONL event log. Failures are reported but not
// fatal; commands run with a nil no-op emitter instead.
func openEmitter(cfg config.Config) *telemetry.Emitter {
	if err := os.MkdirAll(".ephemeris", 0o755); err != nil {
		return nil
	}
	em, err := telemetry.NewEmitter(cfg.EventsPath)
	if err != nil {
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		}
		return nil
	}
	return em
}
