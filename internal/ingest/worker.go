package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Evans508/JobConnectUg/internal/model"
)

const dequeueTimeout = 5 * time.Second

// Worker drains the ingest queue and runs the pipeline once per log ID.
// Runs for different messages are independent; several workers may consume
// the same queue with no ordering guarantee.
type Worker struct {
	queue    model.IngestQueue
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewWorker creates a worker consuming queue into pipeline.
func NewWorker(queue model.IngestQueue, pipeline *Pipeline, logger *slog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Run blocks consuming the queue until ctx is cancelled, then returns nil.
// Pipeline errors are logged, never fatal: one poisoned message must not
// stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("ingest worker started")

	for {
		logID, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("ingest worker stopping")
				return nil
			}
			w.logger.Error("dequeue failed", "error", err)
			// Brief pause so a broken queue does not spin the loop hot.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if logID == "" {
			if ctx.Err() != nil {
				w.logger.Info("ingest worker stopping")
				return nil
			}
			continue
		}

		if err := w.pipeline.Run(ctx, logID); err != nil {
			// Pre-mutation failures: the entry is untouched and retryable.
			if errors.Is(err, model.ErrLogNotFound) {
				w.logger.Warn("dequeued unknown log id", "log_id", logID)
				continue
			}
			w.logger.Error("pipeline run failed", "log_id", logID, "error", err)
		}
	}
}
