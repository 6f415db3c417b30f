package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/store"
)

// RecordingTrigger records which jobs reached alert matching.
type RecordingTrigger struct {
	Jobs []model.JobPosting
}

func (r *RecordingTrigger) MatchAndNotify(_ context.Context, job *model.JobPosting) error {
	r.Jobs = append(r.Jobs, *job)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(db *store.MemoryStore, trigger AlertTrigger) *Service {
	return NewService(db, db, trigger, "Uganda", discardLogger())
}

func seedParsedLog(t *testing.T, db *store.MemoryStore, candidates ...model.JobCandidate) string {
	t.Helper()
	payload, err := json.Marshal(model.ExtractionResult{Jobs: candidates})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	entry := &model.IngestLog{
		RawText:    "hiring!",
		GroupID:    "grp",
		MessageID:  "msg",
		Status:     model.LogStatusParsed,
		ParsedJSON: payload,
		Reason:     "Low confidence",
	}
	if err := db.CreateLog(context.Background(), entry); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	return entry.ID
}

func seedPendingJob(t *testing.T, db *store.MemoryStore, title string) string {
	t.Helper()
	job := &model.JobPosting{
		Title:       title,
		CompanyName: "Acme",
		Location:    "Kampala",
		JobType:     model.JobTypeFullTime,
		SourceType:  model.SourceManual,
		Status:      model.JobStatusPendingApproval,
	}
	if err := db.InsertJob(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job.ID
}

func TestApproveIngest_PublishesAllCandidates(t *testing.T) {
	db := store.NewMemoryStore()
	trigger := &RecordingTrigger{}
	svc := newService(db, trigger)

	// Confidence is irrelevant here: moderator approval overrides the hold.
	id := seedParsedLog(t, db,
		model.JobCandidate{Title: "Cook"},
		model.JobCandidate{Title: "Waiter", Company: "Cafe Pap", JobType: "part-time"},
	)

	if err := svc.ApproveIngest(context.Background(), id); err != nil {
		t.Fatalf("ApproveIngest: %v", err)
	}

	entry, err := db.GetLog(context.Background(), id)
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if entry.Status != model.LogStatusPublished {
		t.Errorf("log status = %s, want published", entry.Status)
	}

	jobs, _ := db.ListJobsByStatus(context.Background(), model.JobStatusPublished)
	if len(jobs) != 2 {
		t.Fatalf("published %d jobs, want 2", len(jobs))
	}
	for _, j := range jobs {
		switch j.Title {
		case "Cook":
			if j.CompanyName != "Unknown" || j.Location != "Uganda" {
				t.Errorf("Cook defaults = (%q, %q), want (Unknown, Uganda)", j.CompanyName, j.Location)
			}
			if j.JobType != model.JobTypeFullTime {
				t.Errorf("Cook job type = %s, want full-time default", j.JobType)
			}
		case "Waiter":
			if j.JobType != model.JobTypePartTime {
				t.Errorf("Waiter job type = %s, want part-time", j.JobType)
			}
		}
	}
	if len(trigger.Jobs) != 2 {
		t.Errorf("alerts triggered for %d jobs, want 2", len(trigger.Jobs))
	}
}

func TestApproveIngest_TerminalEntryRejected(t *testing.T) {
	db := store.NewMemoryStore()
	svc := newService(db, &RecordingTrigger{})

	id := seedParsedLog(t, db, model.JobCandidate{Title: "Cook"})
	if err := svc.ApproveIngest(context.Background(), id); err != nil {
		t.Fatalf("first approval: %v", err)
	}

	// Second click must not mint duplicates.
	err := svc.ApproveIngest(context.Background(), id)
	if !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("second approval error = %v, want ErrInvalidState", err)
	}
	jobs, _ := db.ListJobsByStatus(context.Background(), model.JobStatusPublished)
	if len(jobs) != 1 {
		t.Errorf("published %d jobs after double approval, want 1", len(jobs))
	}
}

func TestApproveIngest_SkipsDuplicates(t *testing.T) {
	db := store.NewMemoryStore()
	trigger := &RecordingTrigger{}
	svc := newService(db, trigger)

	err := db.InsertJob(context.Background(), &model.JobPosting{
		Title: "Cook", CompanyName: "Unknown", Location: "Uganda",
		JobType: model.JobTypeFullTime, SourceType: model.SourceManual,
		Status: model.JobStatusPublished,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}

	id := seedParsedLog(t, db, model.JobCandidate{Title: "Cook"})
	if err := svc.ApproveIngest(context.Background(), id); err != nil {
		t.Fatalf("ApproveIngest: %v", err)
	}

	jobs, _ := db.ListJobsByStatus(context.Background(), model.JobStatusPublished)
	if len(jobs) != 1 {
		t.Errorf("published %d jobs, want 1", len(jobs))
	}
	if len(trigger.Jobs) != 0 {
		t.Errorf("alerts triggered for duplicate, want none")
	}
}

func TestRejectIngest(t *testing.T) {
	db := store.NewMemoryStore()
	svc := newService(db, &RecordingTrigger{})

	id := seedParsedLog(t, db, model.JobCandidate{Title: "Cook"})
	if err := svc.RejectIngest(context.Background(), id); err != nil {
		t.Fatalf("RejectIngest: %v", err)
	}

	entry, _ := db.GetLog(context.Background(), id)
	if entry.Status != model.LogStatusRejected {
		t.Errorf("status = %s, want rejected", entry.Status)
	}
	if entry.Reason != "Rejected by moderator" {
		t.Errorf("reason = %q", entry.Reason)
	}

	if err := svc.RejectIngest(context.Background(), id); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("re-reject error = %v, want ErrInvalidState", err)
	}
}

func TestApproveJob(t *testing.T) {
	db := store.NewMemoryStore()
	trigger := &RecordingTrigger{}
	svc := newService(db, trigger)

	id := seedPendingJob(t, db, "Accountant")
	if err := svc.ApproveJob(context.Background(), id); err != nil {
		t.Fatalf("ApproveJob: %v", err)
	}

	job, _ := db.GetJob(context.Background(), id)
	if job.Status != model.JobStatusPublished {
		t.Errorf("status = %s, want PUBLISHED", job.Status)
	}
	if len(trigger.Jobs) != 1 || trigger.Jobs[0].Title != "Accountant" {
		t.Errorf("alert trigger got %v, want Accountant", trigger.Jobs)
	}

	// Already published: the guarded transition refuses.
	if err := svc.ApproveJob(context.Background(), id); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("re-approve error = %v, want ErrInvalidState", err)
	}
}

func TestRejectJob(t *testing.T) {
	db := store.NewMemoryStore()
	svc := newService(db, &RecordingTrigger{})

	id := seedPendingJob(t, db, "Accountant")
	if err := svc.RejectJob(context.Background(), id); err != nil {
		t.Fatalf("RejectJob: %v", err)
	}

	job, _ := db.GetJob(context.Background(), id)
	if job.Status != model.JobStatusRejected {
		t.Errorf("status = %s, want REJECTED", job.Status)
	}

	if err := svc.RejectJob(context.Background(), "missing"); !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("missing job error = %v, want ErrJobNotFound", err)
	}
}
