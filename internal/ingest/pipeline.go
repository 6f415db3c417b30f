package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// Reason strings written to the ingest log. The admin UI keys off these, so
// they are part of the contract.
const (
	ReasonNoJobs        = "No jobs found"
	ReasonLowConfidence = "Low confidence"
	ReasonAIError       = "AI Error"
)

// Pipeline turns one ingest log entry into zero or more job postings and a
// terminal-or-review log status: fetch → extract → route → persist → finalize.
type Pipeline struct {
	logs      model.MessageStore
	jobs      model.JobStore
	extractor model.Extractor
	threshold float64
	region    string // location fallback for candidates with none
	logger    *slog.Logger
}

// NewPipeline creates a pipeline wired with all its dependencies. threshold
// is the confidence cutoff below which candidates are held for review; region
// is the location default for candidates missing one.
func NewPipeline(
	logs model.MessageStore,
	jobs model.JobStore,
	extractor model.Extractor,
	threshold float64,
	region string,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		logs:      logs,
		jobs:      jobs,
		extractor: extractor,
		threshold: threshold,
		region:    region,
		logger:    logger,
	}
}

// Run processes the ingest log entry with the given ID.
//
// It returns an error only when the entry cannot be loaded (ErrLogNotFound)
// or the extractor is unavailable (nil ⇒ ErrMissingAPIKey); both happen
// before any write, so the entry is untouched and a later re-run is safe.
// Every failure after that point is absorbed: the entry settles to rejected
// with a diagnostic reason and Run reports nil, because the caller is a
// fire-and-forget worker with nobody to surface the error to. No entry is
// ever left stuck in pending by a completed Run.
func (p *Pipeline) Run(ctx context.Context, logID string) error {
	if p.extractor == nil {
		return model.ErrMissingAPIKey
	}

	entry, err := p.logs.GetLog(ctx, logID)
	if err != nil {
		return fmt.Errorf("loading ingest log %s: %w", logID, err)
	}

	result, err := p.extractor.Extract(ctx, entry.RawText)
	if err != nil {
		p.reject(ctx, logID, ReasonAIError, nil, err)
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.reject(ctx, logID, ReasonAIError, nil, err)
		return nil
	}

	if len(result.Jobs) == 0 {
		// Keep the (empty) payload for audit.
		if err := p.logs.UpdateLogOutcome(ctx, logID, model.LogStatusRejected, ReasonNoJobs, payload); err != nil {
			p.logger.Error("failed to record empty extraction", "log_id", logID, "error", err)
		}
		p.logger.Info("no jobs found in message", "log_id", logID)
		return nil
	}

	published, duplicates, held, dropped, err := p.routeCandidates(ctx, logID, result.Jobs)
	if err != nil {
		p.reject(ctx, logID, ReasonAIError, payload, err)
		return nil
	}

	// Classification was computed per candidate; the entry-level status is
	// decided once, after the loop: a single held candidate parks the whole
	// entry for review no matter where it sat in the batch.
	finalStatus := model.LogStatusPublished
	finalReason := ""
	if held > 0 {
		finalStatus = model.LogStatusParsed
		finalReason = ReasonLowConfidence
	}

	if err := p.logs.UpdateLogOutcome(ctx, logID, finalStatus, finalReason, payload); err != nil {
		p.reject(ctx, logID, ReasonAIError, payload, err)
		return nil
	}

	p.logger.Info("ingest run complete",
		"log_id", logID,
		"status", string(finalStatus),
		"candidates", len(result.Jobs),
		"published", published,
		"duplicates", duplicates,
		"held", held,
		"dropped", dropped,
	)
	return nil
}

// routeCandidates classifies each candidate independently and inserts the
// publishable ones. An insert failure aborts the run; the caller records
// the entry as rejected so a store outage is never mistaken for a
// confidence hold.
func (p *Pipeline) routeCandidates(ctx context.Context, logID string, candidates []model.JobCandidate) (published, duplicates, held, dropped int, err error) {
	for _, c := range candidates {
		if c.Title == "" {
			p.logger.Warn("dropping candidate without title", "log_id", logID)
			dropped++
			continue
		}

		if !c.ConfidenceOK(p.threshold) {
			p.logger.Debug("holding low-confidence candidate",
				"log_id", logID, "title", c.Title)
			held++
			continue
		}

		inserted, insertErr := p.jobs.InsertIfAbsent(ctx, p.buildPosting(logID, c))
		if insertErr != nil {
			p.logger.Error("failed to insert job posting",
				"log_id", logID, "title", c.Title, "error", insertErr)
			err = fmt.Errorf("inserting posting %q: %w", c.Title, insertErr)
			return
		}
		if !inserted {
			p.logger.Info("duplicate posting skipped",
				"log_id", logID, "title", c.Title, "company", c.Company)
			duplicates++
			continue
		}
		published++
	}
	return published, duplicates, held, dropped, nil
}

// buildPosting converts a candidate into a PUBLISHED posting with the
// defaults the board expects: unknown companies become "Unknown", missing
// locations fall back to the deployment region.
func (p *Pipeline) buildPosting(logID string, c model.JobCandidate) *model.JobPosting {
	company := c.Company
	if company == "" {
		company = "Unknown"
	}
	location := c.Location
	if location == "" {
		location = p.region
	}

	return &model.JobPosting{
		Title:           c.Title,
		CompanyName:     company,
		Location:        location,
		JobType:         model.NormalizeJobType(c.JobType),
		Description:     c.Description,
		Salary:          c.Salary,
		ApplicationLink: c.ApplicationLink,
		SourceType:      model.SourceWhatsApp,
		SourceMessageID: logID,
		Status:          model.JobStatusPublished,
	}
}

// reject moves the entry to its terminal rejected state. A failure here is
// logged but not propagated; there is nothing left to unwind.
func (p *Pipeline) reject(ctx context.Context, logID, reason string, payload json.RawMessage, cause error) {
	p.logger.Error("ingest run failed",
		"log_id", logID,
		"reason", reason,
		"error", cause,
		"extraction_error", isExtractionError(cause),
	)
	if err := p.logs.UpdateLogOutcome(ctx, logID, model.LogStatusRejected, reason, payload); err != nil {
		p.logger.Error("failed to mark ingest log rejected", "log_id", logID, "error", err)
	}
}

func isExtractionError(err error) bool {
	var extErr *model.ExtractionError
	return errors.As(err, &extErr)
}
