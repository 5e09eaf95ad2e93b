// Package commands wires the CLI surface: init, preview, commit, rules.
package commands

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/buildinfo"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/config"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/logger"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "ftrack",
		Short:   "Bank statement import for a double-entry ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Filename, "path to ftrack.yaml")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newPreviewCommand(&configPath))
	rootCmd.AddCommand(newCommitCommand(&configPath))
	rootCmd.AddCommand(newRulesCommand(&configPath))

	return rootCmd
}

// openEnv loads the config and opens the sqlite store. The caller closes db.
func openEnv(configPath string) (*config.Config, *sql.DB, store.Store, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, zerolog.Logger{}, err
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.New(level)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, zerolog.Logger{}, fmt.Errorf("opening database: %w", err)
	}
	return cfg, db, store.NewSQLite(db, cfg.Ledger.OffsetAccount), log, nil
}
