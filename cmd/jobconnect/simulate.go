package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Evans508/JobConnectUg/internal/ingest"
	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/store"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [message]",
	Short: "Run one message through the pipeline and print the outcome",
	Long:  "Runs extraction and routing on a pasted WhatsApp message against an in-memory store, so nothing is persisted. Reads from stdin when no argument is given.",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimSpace(string(raw))
	}
	if text == "" {
		return fmt.Errorf("no message text given")
	}

	ctx := context.Background()
	db := store.NewMemoryStore()
	extractor := setupExtractor(cfg, logger)
	pipeline := ingest.NewPipeline(db, db, extractor, cfg.Ingest.ConfidenceThreshold, cfg.Ingest.DefaultRegion, logger)

	entry := &model.IngestLog{
		ID:        uuid.NewString(),
		RawText:   text,
		GroupID:   "simulate",
		MessageID: uuid.NewString(),
		Status:    model.LogStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateLog(ctx, entry); err != nil {
		return err
	}

	if err := pipeline.Run(ctx, entry.ID); err != nil {
		return err
	}

	processed, err := db.GetLog(ctx, entry.ID)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n", processed.Status)
	if processed.Reason != "" {
		fmt.Printf("reason: %s\n", processed.Reason)
	}

	published, err := db.ListJobsByStatus(ctx, model.JobStatusPublished)
	if err != nil {
		return err
	}
	if len(published) == 0 {
		fmt.Println("no jobs published")
		return nil
	}
	fmt.Printf("published %d job(s):\n", len(published))
	for _, j := range published {
		fmt.Printf("  - %s at %s (%s, %s)\n", j.Title, j.CompanyName, j.Location, j.JobType)
	}
	return nil
}
