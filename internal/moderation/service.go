// Package moderation owns the two human-in-the-loop surfaces: the ingest
// queue (entries held by the pipeline) and directly-posted jobs awaiting
// approval. Unlike the pipeline, its errors propagate: a moderator clicked a
// button and expects to hear whether it worked.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// AlertTrigger is invoked for each job that reaches PUBLISHED through
// moderation. Wired to the alert matcher; a no-op in tests.
type AlertTrigger interface {
	MatchAndNotify(ctx context.Context, job *model.JobPosting) error
}

// Service implements the moderation gateway.
type Service struct {
	logs   model.MessageStore
	jobs   model.JobStore
	alerts AlertTrigger
	region string // location fallback, same default the pipeline uses
	logger *slog.Logger
}

// NewService creates the moderation service.
func NewService(logs model.MessageStore, jobs model.JobStore, alerts AlertTrigger, region string, logger *slog.Logger) *Service {
	return &Service{
		logs:   logs,
		jobs:   jobs,
		alerts: alerts,
		region: region,
		logger: logger,
	}
}

// ListIngestQueue returns all ingest log entries, newest first.
func (s *Service) ListIngestQueue(ctx context.Context) ([]model.IngestLog, error) {
	return s.logs.ListLogs(ctx)
}

// ListPendingJobs returns directly-posted jobs awaiting approval.
func (s *Service) ListPendingJobs(ctx context.Context) ([]model.JobPosting, error) {
	return s.jobs.ListJobsByStatus(ctx, model.JobStatusPendingApproval)
}

// ApproveIngest publishes every candidate in the entry's stored payload —
// human approval overrides the pipeline's per-candidate confidence hold —
// then marks the entry published. Only pending or parsed entries can be
// approved; terminal entries return ErrInvalidState, which is what keeps a
// double-click from minting duplicate postings.
func (s *Service) ApproveIngest(ctx context.Context, logID string) error {
	entry, err := s.logs.GetLog(ctx, logID)
	if err != nil {
		return err
	}
	if entry.Status.Terminal() {
		return fmt.Errorf("approve ingest %s (status %s): %w", logID, entry.Status, model.ErrInvalidState)
	}
	if len(entry.ParsedJSON) == 0 {
		return fmt.Errorf("approve ingest %s: no parsed payload: %w", logID, model.ErrInvalidState)
	}

	var result model.ExtractionResult
	if err := json.Unmarshal(entry.ParsedJSON, &result); err != nil {
		return fmt.Errorf("approve ingest %s: decode payload: %w", logID, err)
	}

	inserted := 0
	for _, c := range result.Jobs {
		if c.Title == "" {
			s.logger.Warn("skipping candidate without title", "log_id", logID)
			continue
		}
		job := s.buildPosting(logID, c)
		ok, err := s.jobs.InsertIfAbsent(ctx, job)
		if err != nil {
			return fmt.Errorf("approve ingest %s: insert %q: %w", logID, c.Title, err)
		}
		if !ok {
			s.logger.Info("duplicate posting skipped during approval",
				"log_id", logID, "title", c.Title)
			continue
		}
		inserted++
		s.triggerAlerts(ctx, job)
	}

	if err := s.logs.UpdateLogOutcome(ctx, logID, model.LogStatusPublished, "", nil); err != nil {
		return fmt.Errorf("approve ingest %s: finalize: %w", logID, err)
	}

	s.logger.Info("ingest entry approved", "log_id", logID, "published", inserted)
	return nil
}

// RejectIngest marks the entry rejected with no further side effects.
// Terminal entries return ErrInvalidState.
func (s *Service) RejectIngest(ctx context.Context, logID string) error {
	entry, err := s.logs.GetLog(ctx, logID)
	if err != nil {
		return err
	}
	if entry.Status.Terminal() {
		return fmt.Errorf("reject ingest %s (status %s): %w", logID, entry.Status, model.ErrInvalidState)
	}

	if err := s.logs.UpdateLogOutcome(ctx, logID, model.LogStatusRejected, "Rejected by moderator", nil); err != nil {
		return fmt.Errorf("reject ingest %s: %w", logID, err)
	}

	s.logger.Info("ingest entry rejected", "log_id", logID)
	return nil
}

// ApproveJob publishes a PENDING_APPROVAL posting and triggers alert
// matching. Any other current status returns ErrInvalidState (the store
// enforces the transition atomically, so concurrent approvals cannot both
// succeed).
func (s *Service) ApproveJob(ctx context.Context, jobID string) error {
	if err := s.jobs.TransitionJob(ctx, jobID, model.JobStatusPendingApproval, model.JobStatusPublished); err != nil {
		return fmt.Errorf("approve job %s: %w", jobID, err)
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("approve job %s: reload: %w", jobID, err)
	}
	s.triggerAlerts(ctx, job)

	s.logger.Info("job approved", "job_id", jobID, "title", job.Title)
	return nil
}

// RejectJob moves a PENDING_APPROVAL posting to REJECTED. The posting is
// kept (not deleted) so the employer can see why it never went live.
func (s *Service) RejectJob(ctx context.Context, jobID string) error {
	if err := s.jobs.TransitionJob(ctx, jobID, model.JobStatusPendingApproval, model.JobStatusRejected); err != nil {
		return fmt.Errorf("reject job %s: %w", jobID, err)
	}

	s.logger.Info("job rejected", "job_id", jobID)
	return nil
}

// buildPosting mirrors the pipeline's candidate-to-posting defaults, except
// job type gains no confidence gate here: approval publishes everything.
func (s *Service) buildPosting(logID string, c model.JobCandidate) *model.JobPosting {
	company := c.Company
	if company == "" {
		company = "Unknown"
	}
	location := c.Location
	if location == "" {
		location = s.region
	}
	jobType := model.NormalizeJobType(c.JobType)
	if jobType == model.JobTypeUnknown && c.JobType == "" {
		// Moderator-approved candidates default to full-time, matching how
		// the board treats manual postings.
		jobType = model.JobTypeFullTime
	}

	return &model.JobPosting{
		Title:           c.Title,
		CompanyName:     company,
		Location:        location,
		JobType:         jobType,
		Description:     c.Description,
		Salary:          c.Salary,
		ApplicationLink: c.ApplicationLink,
		SourceType:      model.SourceWhatsApp,
		SourceMessageID: logID,
		Status:          model.JobStatusPublished,
	}
}

// triggerAlerts is best-effort: a notifier outage must not fail moderation.
func (s *Service) triggerAlerts(ctx context.Context, job *model.JobPosting) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.MatchAndNotify(ctx, job); err != nil {
		s.logger.Error("alert matching failed", "job_id", job.ID, "error", err)
	}
}
