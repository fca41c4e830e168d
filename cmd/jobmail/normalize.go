package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize stored statuses to canonical values",
	Long:  "Rewrite every status in the emails and applications tables to its canonical value (applied/interview/offer/rejected/unknown).",
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Log, debug)

	st := openStore(cfg, logger)
	defer st.Close()

	changed, err := st.NormalizeStatuses(context.Background())
	if err != nil {
		logger.Error("normalize failed", "error", err)
		os.Exit(1)
	}

	if changed == 0 {
		logger.Info("no status changes needed")
	} else {
		logger.Info("statuses normalized", "updated", changed)
	}
	return nil
}
