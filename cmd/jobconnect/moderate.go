package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Evans508/JobConnectUg/internal/alerts"
	"github.com/Evans508/JobConnectUg/internal/moderation"
	"github.com/Evans508/JobConnectUg/internal/review"
)

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Review the ingest queue interactively (TUI)",
	Long:  "Browse queued and parsed WhatsApp messages, inspect extracted jobs, and approve or reject entries.",
	RunE:  runModerate,
}

func init() {
	rootCmd.AddCommand(moderateCmd)
}

func runModerate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	// The TUI owns the terminal; anything the service logs mid-session
	// corrupts the alt-screen, so give it a discard logger.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	matcher := alerts.NewMatcher(db, setupNotifier(cfg, httpClientForNotifier(), silentLogger), silentLogger)
	mod := moderation.NewService(db, db, matcher, cfg.Ingest.DefaultRegion, silentLogger)

	return review.Run(ctx, mod)
}
