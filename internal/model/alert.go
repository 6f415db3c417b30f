package model

import (
	"context"
	"time"
)

// AlertWildcard is the value users pick to mean "any location" or "any job type".
const AlertWildcard = "All"

// JobAlert is a user-defined filter for newly published jobs.
type JobAlert struct {
	ID        string
	UserID    string
	Keywords  string // empty = match everything
	Location  string // empty or "All" = any location
	JobType   string // empty or "All" = any job type
	CreatedAt time.Time
}

// AlertMatch is the notification intent emitted when a published job matches
// an alert. Delivery is a collaborator concern; this record is the contract.
type AlertMatch struct {
	AlertID  string
	UserID   string
	JobID    string
	JobTitle string
}

// AlertStore persists user alerts. Alerts are created and deleted by their
// owners and read-only to the matcher.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *JobAlert) error
	DeleteAlert(ctx context.Context, id string) error
	ListAlerts(ctx context.Context) ([]JobAlert, error)
	ListAlertsByUser(ctx context.Context, userID string) ([]JobAlert, error)
}

// Notifier delivers alert matches. The log notifier is the default; Slack is
// the only real transport wired so far.
type Notifier interface {
	Notify(matches []AlertMatch) error
}
