package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amitkr/jobmail/internal/checkpoint"
	"github.com/amitkr/jobmail/internal/config"
	"github.com/amitkr/jobmail/internal/extract"
	"github.com/amitkr/jobmail/internal/filter"
	"github.com/amitkr/jobmail/internal/gmail"
	"github.com/amitkr/jobmail/internal/pipeline"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion daemon",
	Long:  "Run the fetch/extract/persist loop; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Log, debug)

	logger.Info("config loaded",
		"interval", cfg.Interval.String(),
		"batch_size", cfg.BatchSize,
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"workers", cfg.AI.Workers,
	)

	st := openStore(cfg, logger)
	defer st.Close()

	cursors, err := checkpoint.New(cfg.StateDir)
	if err != nil {
		logger.Error("failed to open checkpoint dir", "error", err)
		os.Exit(1)
	}

	blacklist, found, err := filter.LoadBlacklist(cfg.Blacklist)
	if err != nil {
		logger.Error("failed to load blacklist", "error", err)
		os.Exit(1)
	}
	if !found {
		logger.Warn("blacklist file not found, no blacklist will be applied", "path", cfg.Blacklist)
	} else {
		logger.Info("blacklist loaded", "path", cfg.Blacklist, "keywords", blacklist.Len())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailClient := gmail.NewClient(
		cfg.Mail.BaseURL,
		gmail.OAuthClient(ctx, cfg.Mail.AccessToken, cfg.Mail.Timeout),
		logger,
	)

	provider := buildProvider(cfg, logger)
	extractor := extract.NewExtractor(provider, extract.JobExtractionTemplate, logger)
	coordinator := pipeline.NewCoordinator(extractor, cfg.AI.Workers, logger)

	runner := pipeline.NewRunner(
		mailClient,
		blacklist,
		filter.NewJobLikelihood(),
		coordinator,
		st,
		cursors,
		cfg.Query,
		cfg.BatchSize,
		cfg.Interval,
		logger,
	)

	if err := runner.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}

// buildProvider constructs the configured LLM provider. The remote provider
// gets the throttle-aware retry wrapper; ollama runs locally and needs none.
func buildProvider(cfg *config.Config, logger *slog.Logger) extract.LLMProvider {
	switch cfg.AI.Provider {
	case "ollama":
		return extract.NewOllamaProvider(cfg.AI.Model)
	default:
		httpClient := &http.Client{Timeout: cfg.AI.Timeout}
		provider := extract.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
		return extract.NewRetryProvider(provider, cfg.AI.MaxRetries, cfg.AI.RetryDelay, cfg.AI.CallDelay, logger)
	}
}
