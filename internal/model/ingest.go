package model

import (
	"context"
	"encoding/json"
	"time"
)

// LogStatus is the lifecycle state of an IngestLog entry.
type LogStatus string

const (
	LogStatusPending   LogStatus = "pending"
	LogStatusParsed    LogStatus = "parsed" // hold state: awaiting human moderation
	LogStatusPublished LogStatus = "published"
	LogStatusRejected  LogStatus = "rejected"
)

// Valid reports whether s is one of the known log statuses.
func (s LogStatus) Valid() bool {
	switch s {
	case LogStatusPending, LogStatusParsed, LogStatusPublished, LogStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is a final state (no further pipeline or
// moderation transitions allowed).
func (s LogStatus) Terminal() bool {
	return s == LogStatusPublished || s == LogStatusRejected
}

// IngestLog is one raw inbound WhatsApp message and its processing record.
// Entries are never deleted; they are the audit trail for everything the
// pipeline produced.
type IngestLog struct {
	ID         string
	RawText    string
	GroupID    string // WhatsApp group the message arrived from
	MessageID  string // provider-side message ID
	Status     LogStatus
	ParsedJSON json.RawMessage // extraction payload, set once extraction completes
	Reason     string          // set when rejected or held for review
	CreatedAt  time.Time
}

// ExtractionResult is the payload contract with the extraction model.
type ExtractionResult struct {
	Jobs []JobCandidate `json:"jobs"`
}

// JobCandidate is one job the model claims to have found in a message.
// It is transient: candidates live inside IngestLog.ParsedJSON and become
// JobPosting rows only after routing.
type JobCandidate struct {
	Title           string   `json:"title"`
	Company         string   `json:"company,omitempty"`
	Location        string   `json:"location,omitempty"`
	Salary          string   `json:"salary,omitempty"`
	JobType         string   `json:"job_type,omitempty"`
	ApplicationLink string   `json:"application_link,omitempty"`
	Contact         string   `json:"contact,omitempty"`
	Deadline        string   `json:"deadline,omitempty"`
	Description     string   `json:"description,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
}

// ConfidenceOK reports whether the candidate's confidence is present, in
// range, and at or above threshold. Absent or out-of-range confidence counts
// as below threshold.
func (c JobCandidate) ConfidenceOK(threshold float64) bool {
	if c.Confidence == nil {
		return false
	}
	v := *c.Confidence
	if v < 0 || v > 1 {
		return false
	}
	return v >= threshold
}

// Extractor turns raw message text into structured job candidates.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*ExtractionResult, error)
}

// MessageStore persists inbound messages and their processing state.
type MessageStore interface {
	CreateLog(ctx context.Context, log *IngestLog) error
	GetLog(ctx context.Context, id string) (*IngestLog, error)
	// UpdateLogOutcome sets status, reason, and (when parsed is non-nil) the
	// extraction payload in one write.
	UpdateLogOutcome(ctx context.Context, id string, status LogStatus, reason string, parsed json.RawMessage) error
	ListLogs(ctx context.Context) ([]IngestLog, error)
	// StalePendingIDs returns IDs of entries still pending after olderThan.
	StalePendingIDs(ctx context.Context, olderThan time.Duration) ([]string, error)
}

// IngestQueue is the dispatch boundary between the webhook receiver and the
// worker. Enqueue submits a persisted log ID for processing; Dequeue blocks
// up to timeout and returns "" with a nil error when nothing arrived.
type IngestQueue interface {
	Enqueue(ctx context.Context, logID string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}
