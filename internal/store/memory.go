package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// MemoryStore is a map-backed implementation of all three store interfaces.
// It exists for tests and the simulate command; the runtime never falls back
// to it implicitly.
type MemoryStore struct {
	mu     sync.Mutex
	logs   map[string]model.IngestLog
	jobs   map[string]model.JobPosting
	alerts map[string]model.JobAlert
}

var (
	_ model.MessageStore = (*MemoryStore)(nil)
	_ model.JobStore     = (*MemoryStore)(nil)
	_ model.AlertStore   = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs:   make(map[string]model.IngestLog),
		jobs:   make(map[string]model.JobPosting),
		alerts: make(map[string]model.JobAlert),
	}
}

func (s *MemoryStore) CreateLog(_ context.Context, log *model.IngestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = model.LogStatusPending
	}
	if !log.Status.Valid() {
		return errInvalidStatus(string(log.Status))
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	s.logs[log.ID] = *log
	return nil
}

func (s *MemoryStore) GetLog(_ context.Context, id string) (*model.IngestLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[id]
	if !ok {
		return nil, model.ErrLogNotFound
	}
	return &log, nil
}

func (s *MemoryStore) UpdateLogOutcome(_ context.Context, id string, status model.LogStatus, reason string, parsed json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Valid() {
		return errInvalidStatus(string(status))
	}
	log, ok := s.logs[id]
	if !ok {
		return model.ErrLogNotFound
	}
	log.Status = status
	log.Reason = reason
	if parsed != nil {
		log.ParsedJSON = parsed
	}
	s.logs[id] = log
	return nil
}

func (s *MemoryStore) ListLogs(_ context.Context) ([]model.IngestLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.IngestLog, 0, len(s.logs))
	for _, log := range s.logs {
		out = append(out, log)
	}
	sortLogsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) StalePendingIDs(_ context.Context, olderThan time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var ids []string
	for id, log := range s.logs {
		if log.Status == model.LogStatusPending && log.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) InsertIfAbsent(_ context.Context, job *model.JobPosting) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if existing.Status == model.JobStatusPublished &&
			existing.Title == job.Title &&
			existing.CompanyName == job.CompanyName {
			return false, nil
		}
	}
	if err := s.insertLocked(job); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) InsertJob(_ context.Context, job *model.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(job)
}

func (s *MemoryStore) insertLocked(job *model.JobPosting) error {
	if !job.Status.Valid() {
		return errInvalidStatus(string(job.Status))
	}
	if !job.SourceType.Valid() {
		return errInvalidStatus(string(job.SourceType))
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*model.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return &job, nil
}

func (s *MemoryStore) TransitionJob(_ context.Context, id string, from, to model.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !to.Valid() {
		return errInvalidStatus(string(to))
	}
	job, ok := s.jobs[id]
	if !ok {
		return model.ErrJobNotFound
	}
	if job.Status != from {
		return model.ErrInvalidState
	}
	job.Status = to
	s.jobs[id] = job
	return nil
}

func (s *MemoryStore) ListJobsByStatus(_ context.Context, status model.JobStatus) ([]model.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.JobPosting
	for _, job := range s.jobs {
		if job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateAlert(_ context.Context, alert *model.JobAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	s.alerts[alert.ID] = *alert
	return nil
}

func (s *MemoryStore) DeleteAlert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.alerts, id)
	return nil
}

func (s *MemoryStore) ListAlerts(_ context.Context) ([]model.JobAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.JobAlert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		out = append(out, alert)
	}
	return out, nil
}

func (s *MemoryStore) ListAlertsByUser(_ context.Context, userID string) ([]model.JobAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.JobAlert
	for _, alert := range s.alerts {
		if alert.UserID == userID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func sortLogsNewestFirst(logs []model.IngestLog) {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
}

// errInvalidStatus rejects unknown enum values at the store boundary.
func errInvalidStatus(v string) error {
	return fmt.Errorf("invalid status value %q", v)
}
