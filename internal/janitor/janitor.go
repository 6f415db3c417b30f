// Package janitor re-dispatches ingest logs that never made it out of
// pending — typically the queue was down at intake time or a worker died
// mid-run before writing anything. Re-running a pending entry is safe: the
// pipeline starts from the stored raw text.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// Janitor wraps robfig/cron around a periodic requeue sweep.
type Janitor struct {
	cron      *cron.Cron
	logs      model.MessageStore
	queue     model.IngestQueue
	olderThan time.Duration
	logger    *slog.Logger
}

// New creates a janitor that requeues entries pending longer than olderThan,
// sweeping at the same interval.
func New(logs model.MessageStore, queue model.IngestQueue, olderThan time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		cron:      cron.New(),
		logs:      logs,
		queue:     queue,
		olderThan: olderThan,
		logger:    logger,
	}
}

// Start registers the sweep and starts the scheduler. One sweep runs
// immediately so a restart recovers stuck entries without waiting a full
// interval.
func (j *Janitor) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", j.olderThan)
	_, err := j.cron.AddFunc(spec, func() {
		j.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	j.cron.Start()
	j.logger.Info("janitor started", "interval", j.olderThan.String())

	go j.sweep(ctx)
	return nil
}

// Stop shuts the scheduler down.
func (j *Janitor) Stop() {
	j.cron.Stop()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) sweep(ctx context.Context) {
	ids, err := j.logs.StalePendingIDs(ctx, j.olderThan)
	if err != nil {
		j.logger.Error("janitor sweep failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	requeued := 0
	for _, id := range ids {
		if err := j.queue.Enqueue(ctx, id); err != nil {
			j.logger.Error("janitor requeue failed", "log_id", id, "error", err)
			continue
		}
		requeued++
	}
	j.logger.Info("janitor sweep complete", "stale", len(ids), "requeued", requeued)
}
