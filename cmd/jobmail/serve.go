package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amitkr/jobmail/internal/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only report API",
	Long:  "Serve filtered, paginated application listings over HTTP. Never writes to the database.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Log, debug)

	st := openStore(cfg, logger)
	defer st.Close()

	srv := report.NewServer(st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := srv.Listen(cfg.Report.Addr); err != nil {
		logger.Error("report server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
