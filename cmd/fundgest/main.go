// Command fundgest runs dataset processors and reconciliation over local
// files.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/fundgest/internal/config"
	"github.com/dgallion1/fundgest/internal/dataset"
)

var version = "dev"

var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fundgest",
	Short: "Extract funding decisions from committee exports and minutes",
	Long: `fundgest turns budget sheets, finance resolutions, organization registry
exports and finance committee minutes into normalized CSV tables.

Settings are read from FUNDGEST_* environment variables; FUNDGEST_SECTIONS_FILE
overrides section keywords and FUNDGEST_RECORDSTORE_URL also pushes outputs to
the record store.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// env is what every command builds from configuration.
type env struct {
	cfg config.Config
	log *slog.Logger
	reg *dataset.Registry
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	var sections config.Sections
	if cfg.SectionsFile != "" {
		if sections, err = config.LoadSections(cfg.SectionsFile); err != nil {
			return nil, err
		}
	}
	reg, err := dataset.NewDefault(log, sections)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, reg: reg}, nil
}
