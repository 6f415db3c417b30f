package model

import (
	"context"
	"strings"
	"time"
)

// JobStatus is the moderation state of a JobPosting.
type JobStatus string

const (
	JobStatusPendingApproval JobStatus = "PENDING_APPROVAL"
	JobStatusPublished       JobStatus = "PUBLISHED"
	JobStatusRejected        JobStatus = "REJECTED"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPendingApproval, JobStatusPublished, JobStatusRejected:
		return true
	}
	return false
}

// SourceType records where a posting came from.
type SourceType string

const (
	SourceManual   SourceType = "MANUAL"
	SourceWhatsApp SourceType = "WHATSAPP"
)

func (s SourceType) Valid() bool {
	return s == SourceManual || s == SourceWhatsApp
}

// JobType is the employment category of a posting.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeFreelance  JobType = "freelance"
	JobTypeUnknown    JobType = "unknown"
)

// NormalizeJobType maps free-form model output onto the closed JobType set.
// Unrecognized or empty values become JobTypeUnknown.
func NormalizeJobType(raw string) JobType {
	t := JobType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeFreelance:
		return t
	}
	return JobTypeUnknown
}

// JobPosting is a published or pending job on the board.
type JobPosting struct {
	ID              string
	Title           string
	CompanyName     string
	Location        string
	JobType         JobType
	Description     string
	Salary          string
	ApplicationLink string
	SourceType      SourceType
	// SourceMessageID back-references the IngestLog that produced this
	// posting. Lookup only: log entries outlive their jobs.
	SourceMessageID string
	Status          JobStatus
	Views           int
	ApplicantsCount int
	PostedBy        string
	CreatedAt       time.Time
}

// JobStore persists job postings.
type JobStore interface {
	// InsertIfAbsent inserts job unless a PUBLISHED posting with the same
	// (title, company) already exists. The check and insert are a single
	// store operation so concurrent callers cannot race past each other.
	// Returns false when a duplicate suppressed the insert.
	InsertIfAbsent(ctx context.Context, job *JobPosting) (bool, error)
	InsertJob(ctx context.Context, job *JobPosting) error
	GetJob(ctx context.Context, id string) (*JobPosting, error)
	// TransitionJob moves a posting from one status to another. It returns
	// ErrInvalidState when the posting is not currently in from, and
	// ErrJobNotFound when it does not exist.
	TransitionJob(ctx context.Context, id string, from, to JobStatus) error
	ListJobsByStatus(ctx context.Context, status JobStatus) ([]JobPosting, error)
}
