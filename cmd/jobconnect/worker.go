package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Evans508/JobConnectUg/internal/ingest"
	"github.com/Evans508/JobConnectUg/internal/janitor"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start a standalone ingest worker",
	Long:  "Consume queued WhatsApp messages and run extraction; requires the redis queue backend so the server and worker share the queue.",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Queue.Backend != "redis" {
		logger.Error("standalone worker requires queue.backend: redis")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	q, err := openQueue(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	extractor := setupExtractor(cfg, logger)
	pipeline := ingest.NewPipeline(db, db, extractor, cfg.Ingest.ConfidenceThreshold, cfg.Ingest.DefaultRegion, logger)

	if cfg.Ingest.RequeueStaleAfter > 0 {
		j := janitor.New(db, q, cfg.Ingest.RequeueStaleAfter, logger)
		if err := j.Start(ctx); err != nil {
			logger.Error("failed to start janitor", "error", err)
			os.Exit(1)
		}
		defer j.Stop()
	}

	worker := ingest.NewWorker(q, pipeline, logger)
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
