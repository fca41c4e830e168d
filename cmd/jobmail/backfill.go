package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild the applications table from legacy email rows",
	Long:  "Replace all application rows with one per email, built from the emails table's flat fields. Useful after upgrading a database that predates the applications table.",
	RunE:  runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Log, debug)

	st := openStore(cfg, logger)
	defer st.Close()

	n, err := st.BackfillApplications(context.Background())
	if err != nil {
		logger.Error("backfill failed", "error", err)
		os.Exit(1)
	}

	logger.Info("backfill complete", "applications", n)
	return nil
}
