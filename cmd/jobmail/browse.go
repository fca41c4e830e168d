package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amitkr/jobmail/internal/browse"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored applications in the terminal",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Log, debug)

	st := openStore(cfg, logger)
	defer st.Close()

	return browse.Run(context.Background(), st)
}
