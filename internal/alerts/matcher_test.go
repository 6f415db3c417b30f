package alerts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/store"
)

// RecordingNotifier records every match handed to Notify.
type RecordingNotifier struct {
	Matches []model.AlertMatch
	Err     error
}

func (n *RecordingNotifier) Notify(matches []model.AlertMatch) error {
	if n.Err != nil {
		return n.Err
	}
	n.Matches = append(n.Matches, matches...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleJob() *model.JobPosting {
	return &model.JobPosting{
		ID:          "job-1",
		Title:       "React Developer",
		CompanyName: "Acme",
		Location:    "Kampala, Uganda",
		JobType:     model.JobTypeFullTime,
		Description: "Build frontends for our fintech product.",
	}
}

func seedAlert(t *testing.T, db *store.MemoryStore, alert model.JobAlert) {
	t.Helper()
	if err := db.CreateAlert(context.Background(), &alert); err != nil {
		t.Fatalf("seed alert: %v", err)
	}
}

func TestMatches(t *testing.T) {
	job := sampleJob()

	cases := []struct {
		name  string
		alert model.JobAlert
		want  bool
	}{
		{"keyword in title", model.JobAlert{Keywords: "react"}, true},
		{"keyword in description", model.JobAlert{Keywords: "fintech"}, true},
		{"keyword miss", model.JobAlert{Keywords: "plumber"}, false},
		{"location substring case-insensitive", model.JobAlert{Location: "kampala"}, true},
		{"location miss", model.JobAlert{Location: "Gulu"}, false},
		{"location wildcard", model.JobAlert{Location: model.AlertWildcard}, true},
		{"job type match", model.JobAlert{JobType: "Full-Time"}, true},
		{"job type miss", model.JobAlert{JobType: "internship"}, false},
		{"all legs must hold", model.JobAlert{Keywords: "react", Location: "Gulu"}, false},
		{"empty alert matches everything", model.JobAlert{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(tc.alert, job); got != tc.want {
				t.Errorf("Matches(%+v) = %v, want %v", tc.alert, got, tc.want)
			}
		})
	}
}

func TestMatchAndNotify(t *testing.T) {
	db := store.NewMemoryStore()
	seedAlert(t, db, model.JobAlert{UserID: "u1", Keywords: "react"})
	seedAlert(t, db, model.JobAlert{UserID: "u2", Location: "Gulu"})
	seedAlert(t, db, model.JobAlert{UserID: "u3"})

	n := &RecordingNotifier{}
	m := NewMatcher(db, n, discardLogger())

	if err := m.MatchAndNotify(context.Background(), sampleJob()); err != nil {
		t.Fatalf("MatchAndNotify: %v", err)
	}

	if len(n.Matches) != 2 {
		t.Fatalf("notified %d matches, want 2", len(n.Matches))
	}
	for _, match := range n.Matches {
		if match.UserID == "u2" {
			t.Errorf("Gulu alert should not match a Kampala job")
		}
		if match.JobID != "job-1" || match.JobTitle != "React Developer" {
			t.Errorf("unexpected match payload: %+v", match)
		}
	}
}

func TestMatchAndNotify_NoMatchesSkipsNotifier(t *testing.T) {
	db := store.NewMemoryStore()
	seedAlert(t, db, model.JobAlert{UserID: "u1", Keywords: "plumber"})

	n := &RecordingNotifier{Err: errors.New("should not be called")}
	m := NewMatcher(db, n, discardLogger())

	if err := m.MatchAndNotify(context.Background(), sampleJob()); err != nil {
		t.Fatalf("MatchAndNotify: %v", err)
	}
}

func TestMatchAndNotify_NotifierError(t *testing.T) {
	db := store.NewMemoryStore()
	seedAlert(t, db, model.JobAlert{UserID: "u1"})

	n := &RecordingNotifier{Err: errors.New("webhook down")}
	m := NewMatcher(db, n, discardLogger())

	if err := m.MatchAndNotify(context.Background(), sampleJob()); err == nil {
		t.Fatal("expected error from failing notifier")
	}
}
