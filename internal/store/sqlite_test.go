package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Evans508/JobConnectUg/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestLogRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := &model.IngestLog{RawText: "driver wanted", GroupID: "grp", MessageID: "msg"}
	if err := s.CreateLog(ctx, entry); err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("CreateLog did not assign an ID")
	}

	got, err := s.GetLog(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if got.Status != model.LogStatusPending {
		t.Errorf("status = %s, want pending default", got.Status)
	}
	if got.RawText != "driver wanted" || got.GroupID != "grp" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	payload := json.RawMessage(`{"jobs":[]}`)
	if err := s.UpdateLogOutcome(ctx, entry.ID, model.LogStatusRejected, "No jobs found", payload); err != nil {
		t.Fatalf("UpdateLogOutcome: %v", err)
	}
	got, _ = s.GetLog(ctx, entry.ID)
	if got.Status != model.LogStatusRejected || got.Reason != "No jobs found" {
		t.Errorf("after update: status=%s reason=%q", got.Status, got.Reason)
	}
	if string(got.ParsedJSON) != `{"jobs":[]}` {
		t.Errorf("parsed payload = %s", got.ParsedJSON)
	}

	if _, err := s.GetLog(ctx, "missing"); !errors.Is(err, model.ErrLogNotFound) {
		t.Errorf("GetLog(missing) = %v, want ErrLogNotFound", err)
	}
}

func TestCreateLogRejectsInvalidStatus(t *testing.T) {
	s := newTestStore(t)

	entry := &model.IngestLog{RawText: "x", Status: model.LogStatus("bogus")}
	if err := s.CreateLog(context.Background(), entry); err == nil {
		t.Fatal("expected error for unknown status value")
	}
}

func TestInsertIfAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := func(status model.JobStatus) *model.JobPosting {
		return &model.JobPosting{
			Title:       "Driver",
			CompanyName: "Acme",
			Location:    "Kampala",
			JobType:     model.JobTypeFullTime,
			SourceType:  model.SourceWhatsApp,
			Status:      status,
		}
	}

	inserted, err := s.InsertIfAbsent(ctx, job(model.JobStatusPublished))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert reported duplicate")
	}

	inserted, err = s.InsertIfAbsent(ctx, job(model.JobStatusPublished))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Error("duplicate (title, company) was inserted twice")
	}

	// Different company is not a duplicate.
	other := job(model.JobStatusPublished)
	other.CompanyName = "Beta"
	if inserted, err = s.InsertIfAbsent(ctx, other); err != nil || !inserted {
		t.Errorf("different company: inserted=%v err=%v", inserted, err)
	}

	jobs, err := s.ListJobsByStatus(ctx, model.JobStatusPublished)
	if err != nil {
		t.Fatalf("ListJobsByStatus: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("published count = %d, want 2", len(jobs))
	}
}

func TestInsertIfAbsent_RejectedPostingDoesNotBlock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rejected := &model.JobPosting{
		Title: "Driver", CompanyName: "Acme",
		JobType: model.JobTypeFullTime, SourceType: model.SourceManual,
		Status: model.JobStatusRejected,
	}
	if err := s.InsertJob(ctx, rejected); err != nil {
		t.Fatalf("InsertJob: %v", err)
	}

	// Dedup only looks at PUBLISHED postings.
	again := &model.JobPosting{
		Title: "Driver", CompanyName: "Acme",
		JobType: model.JobTypeFullTime, SourceType: model.SourceWhatsApp,
		Status: model.JobStatusPublished,
	}
	inserted, err := s.InsertIfAbsent(ctx, again)
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if !inserted {
		t.Error("rejected posting blocked a fresh publish")
	}
}

func TestTransitionJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := &model.JobPosting{
		Title: "Accountant", CompanyName: "Acme",
		JobType: model.JobTypeFullTime, SourceType: model.SourceManual,
		Status: model.JobStatusPendingApproval,
	}
	if err := s.InsertJob(ctx, job); err != nil {
		t.Fatalf("InsertJob: %v", err)
	}

	if err := s.TransitionJob(ctx, job.ID, model.JobStatusPendingApproval, model.JobStatusPublished); err != nil {
		t.Fatalf("TransitionJob: %v", err)
	}
	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobStatusPublished {
		t.Errorf("status = %s, want PUBLISHED", got.Status)
	}

	// Wrong current status: guarded update refuses.
	err := s.TransitionJob(ctx, job.ID, model.JobStatusPendingApproval, model.JobStatusRejected)
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("wrong-state transition = %v, want ErrInvalidState", err)
	}

	err = s.TransitionJob(ctx, "missing", model.JobStatusPendingApproval, model.JobStatusPublished)
	if !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("missing job transition = %v, want ErrJobNotFound", err)
	}
}

func TestStalePendingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := &model.IngestLog{RawText: "old", CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &model.IngestLog{RawText: "new"}
	done := &model.IngestLog{RawText: "done", Status: model.LogStatusPublished, CreatedAt: time.Now().Add(-2 * time.Hour)}
	for _, e := range []*model.IngestLog{stale, fresh, done} {
		if err := s.CreateLog(ctx, e); err != nil {
			t.Fatalf("CreateLog: %v", err)
		}
	}

	ids, err := s.StalePendingIDs(ctx, time.Hour)
	if err != nil {
		t.Fatalf("StalePendingIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Errorf("stale ids = %v, want just %s", ids, stale.ID)
	}
}

func TestAlertCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a1 := &model.JobAlert{UserID: "u1", Keywords: "driver", Location: "Kampala"}
	a2 := &model.JobAlert{UserID: "u2", JobType: "part-time"}
	for _, a := range []*model.JobAlert{a1, a2} {
		if err := s.CreateAlert(ctx, a); err != nil {
			t.Fatalf("CreateAlert: %v", err)
		}
	}

	all, err := s.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("alert count = %d, want 2", len(all))
	}

	mine, err := s.ListAlertsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAlertsByUser: %v", err)
	}
	if len(mine) != 1 || mine[0].Keywords != "driver" {
		t.Errorf("alerts for u1 = %+v", mine)
	}

	if err := s.DeleteAlert(ctx, a1.ID); err != nil {
		t.Fatalf("DeleteAlert: %v", err)
	}
	all, _ = s.ListAlerts(ctx)
	if len(all) != 1 {
		t.Errorf("alert count after delete = %d, want 1", len(all))
	}
}
