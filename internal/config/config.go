package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the JobConnect backend.
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Queue        QueueConfig
	AI           AIConfig
	Ingest       IngestConfig
	Notification NotificationConfig
}

// ServerConfig controls the webhook/admin HTTP server.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`  // default ":8080"
	VerifyToken string `yaml:"verify_token"` // Meta webhook verification token
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`      // "sqlite" or "postgres"
	SQLitePath  string `yaml:"sqlite_path"`  // default "jobconnect.db"
	PostgresURL string `yaml:"postgres_url"` // required when backend is "postgres"
}

// QueueConfig selects the ingest dispatch queue.
type QueueConfig struct {
	Backend  string `yaml:"backend"`   // "memory" or "redis"
	RedisURL string `yaml:"redis_url"` // required when backend is "redis"
	Name     string `yaml:"name"`      // queue key, default "jobconnect:ingest"
}

// AIConfig controls the extraction model client.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to the Gemini REST endpoint
	Model   string        // e.g. "gemini-2.5-flash"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// IngestConfig tunes the pipeline's routing behavior.
type IngestConfig struct {
	ConfidenceThreshold float64       // candidates below this are held for review
	DefaultRegion       string        // location fallback for candidates with none
	RequeueStaleAfter   time.Duration // 0 disables the pending-log janitor
}

// NotificationConfig controls which notifier delivers alert matches.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"

	// DefaultConfidenceThreshold is the fixed routing cutoff: candidates
	// below it are held for human review instead of auto-published.
	DefaultConfidenceThreshold = 0.7

	defaultRegion    = "Uganda"
	defaultQueueName = "jobconnect:ingest"
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Queue        QueueConfig        `yaml:"queue"`
	AI           rawAIConfig        `yaml:"ai"`
	Ingest       rawIngestConfig    `yaml:"ingest"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawIngestConfig struct {
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	DefaultRegion       string   `yaml:"default_region"`
	RequeueStaleAfter   string   `yaml:"requeue_stale_after"`
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment variables in the file are expanded first so
// secrets can stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	aiTimeout := 30 * time.Second // default
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	var staleAfter time.Duration // default: janitor disabled
	if raw.Ingest.RequeueStaleAfter != "" {
		staleAfter, err = time.ParseDuration(raw.Ingest.RequeueStaleAfter)
		if err != nil {
			return nil, fmt.Errorf("parse ingest.requeue_stale_after %q: %w", raw.Ingest.RequeueStaleAfter, err)
		}
	}

	threshold := DefaultConfidenceThreshold
	if raw.Ingest.ConfidenceThreshold != nil {
		threshold = *raw.Ingest.ConfidenceThreshold
	}

	cfg := &Config{
		Server:  raw.Server,
		Storage: raw.Storage,
		Queue:   raw.Queue,
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: raw.AI.BaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Ingest: IngestConfig{
			ConfidenceThreshold: threshold,
			DefaultRegion:       raw.Ingest.DefaultRegion,
			RequeueStaleAfter:   staleAfter,
		},
		Notification: raw.Notification,
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "jobconnect.db"
	}
	if cfg.Queue.Backend == "" {
		cfg.Queue.Backend = "memory"
	}
	if cfg.Queue.Name == "" {
		cfg.Queue.Name = defaultQueueName
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = defaultGeminiBaseURL
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultGeminiModel
	}
	if cfg.Ingest.DefaultRegion == "" {
		cfg.Ingest.DefaultRegion = defaultRegion
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "sqlite":
	case "postgres":
		if cfg.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required when backend is \"postgres\"")
		}
	default:
		return fmt.Errorf("storage.backend must be \"sqlite\" or \"postgres\", got %q", cfg.Storage.Backend)
	}

	switch cfg.Queue.Backend {
	case "memory":
	case "redis":
		if cfg.Queue.RedisURL == "" {
			return fmt.Errorf("queue.redis_url is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("queue.backend must be \"memory\" or \"redis\", got %q", cfg.Queue.Backend)
	}

	if cfg.Ingest.ConfidenceThreshold <= 0 || cfg.Ingest.ConfidenceThreshold > 1 {
		return fmt.Errorf("ingest.confidence_threshold must be in (0, 1], got %v", cfg.Ingest.ConfidenceThreshold)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
