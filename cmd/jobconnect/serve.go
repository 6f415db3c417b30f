package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Evans508/JobConnectUg/internal/alerts"
	"github.com/Evans508/JobConnectUg/internal/api"
	"github.com/Evans508/JobConnectUg/internal/ingest"
	"github.com/Evans508/JobConnectUg/internal/janitor"
	"github.com/Evans508/JobConnectUg/internal/moderation"
	"github.com/Evans508/JobConnectUg/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the webhook and API server; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"listen_addr", cfg.Server.ListenAddr,
		"storage", cfg.Storage.Backend,
		"queue", cfg.Queue.Backend,
		"ai_enabled", cfg.AI.Enabled,
		"confidence_threshold", cfg.Ingest.ConfidenceThreshold,
	)

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

	n := setupNotifier(cfg, httpClientForNotifier(), logger)
	matcher := alerts.NewMatcher(db, n, logger)
	mod := moderation.NewService(db, db, matcher, cfg.Ingest.DefaultRegion, logger)

	// A memory queue is invisible to a separate worker process, so drain it here.
	if cfg.Queue.Backend != "redis" {
		extractor := setupExtractor(cfg, logger)
		pipeline := ingest.NewPipeline(db, db, extractor, cfg.Ingest.ConfidenceThreshold, cfg.Ingest.DefaultRegion, logger)
		worker := ingest.NewWorker(q, pipeline, logger)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("worker stopped", "error", err)
			}
		}()
		logger.Info("in-process worker started")

		if cfg.Ingest.RequeueStaleAfter > 0 {
			j := janitor.New(db, q, cfg.Ingest.RequeueStaleAfter, logger)
			if err := j.Start(ctx); err != nil {
				logger.Error("failed to start janitor", "error", err)
				os.Exit(1)
			}
			defer j.Stop()
		}
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	webhook.NewHandler(cfg.Server.VerifyToken, db, q, logger).Register(r)
	api.NewHandler(mod, db, db, logger).Register(r)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("goodbye")
	return nil
}
