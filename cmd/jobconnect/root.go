package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Evans508/JobConnectUg/internal/ai"
	"github.com/Evans508/JobConnectUg/internal/config"
	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/notifier"
	"github.com/Evans508/JobConnectUg/internal/queue"
	"github.com/Evans508/JobConnectUg/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobconnect",
	Short: "JobConnect Uganda — WhatsApp job listings, structured",
	Long:  "JobConnect ingests WhatsApp group messages, extracts job postings with an LLM, and serves them through a moderated job board API.",
	// Default to `serve` so that `jobconnect` with no args runs the server.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBCONNECT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBCONNECT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBCONNECT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupExtractor(cfg *config.Config, logger *slog.Logger) model.Extractor {
	if !cfg.AI.Enabled {
		logger.Warn("AI extraction disabled, all messages will be rejected as empty")
		return ai.NewNopExtractor()
	}
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	provider := ai.NewGeminiProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	logger.Info("using gemini extractor", "model", cfg.AI.Model)
	return ai.NewLLMExtractor(provider, ai.JobExtractionTemplate, logger)
}

// datastore is what every storage backend provides: ingest logs, job
// postings, and alert subscriptions behind one connection.
type datastore interface {
	model.MessageStore
	model.JobStore
	model.AlertStore
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (datastore, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return pg, pg.Close, nil
	default:
		sq, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", "path", cfg.Storage.SQLitePath)
		return sq, func() { sq.Close() }, nil
	}
}

func openQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.IngestQueue, error) {
	switch cfg.Queue.Backend {
	case "redis":
		q, err := queue.NewRedisQueue(ctx, cfg.Queue.RedisURL, cfg.Queue.Name)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis queue", "key", cfg.Queue.Name)
		return q, nil
	default:
		logger.Info("using in-memory queue")
		return queue.NewMemoryQueue(0), nil
	}
}

func httpClientForNotifier() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
