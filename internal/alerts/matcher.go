package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// Matcher scans stored alerts for every newly published job and hands the
// matches to a notifier. This is a full scan per job — fine at current
// volumes; index alerts by job type or location before scaling it.
type Matcher struct {
	alerts   model.AlertStore
	notifier model.Notifier
	logger   *slog.Logger
}

// NewMatcher creates a matcher reading from alerts and delivering via notifier.
func NewMatcher(alerts model.AlertStore, notifier model.Notifier, logger *slog.Logger) *Matcher {
	return &Matcher{
		alerts:   alerts,
		notifier: notifier,
		logger:   logger,
	}
}

// MatchAndNotify evaluates every stored alert against job and emits one
// notification intent per match.
func (m *Matcher) MatchAndNotify(ctx context.Context, job *model.JobPosting) error {
	stored, err := m.alerts.ListAlerts(ctx)
	if err != nil {
		return fmt.Errorf("loading alerts: %w", err)
	}

	var matches []model.AlertMatch
	for _, alert := range stored {
		if Matches(alert, job) {
			matches = append(matches, model.AlertMatch{
				AlertID:  alert.ID,
				UserID:   alert.UserID,
				JobID:    job.ID,
				JobTitle: job.Title,
			})
		}
	}

	m.logger.Debug("alert scan complete",
		"job_id", job.ID, "alerts", len(stored), "matches", len(matches))

	if len(matches) == 0 {
		return nil
	}
	if err := m.notifier.Notify(matches); err != nil {
		return fmt.Errorf("notifying %d matches: %w", len(matches), err)
	}
	return nil
}

// Matches reports whether a single alert matches the job. All three legs
// must hold: location, job type, and keywords, each with an empty/"All"
// wildcard. Matching is case-insensitive throughout.
func Matches(alert model.JobAlert, job *model.JobPosting) bool {
	return locationMatch(alert.Location, job.Location) &&
		jobTypeMatch(alert.JobType, job.JobType) &&
		keywordMatch(alert.Keywords, job)
}

func locationMatch(want, have string) bool {
	if want == "" || want == model.AlertWildcard {
		return true
	}
	return strings.Contains(strings.ToLower(have), strings.ToLower(want))
}

func jobTypeMatch(want string, have model.JobType) bool {
	if want == "" || want == model.AlertWildcard {
		return true
	}
	return strings.EqualFold(want, string(have))
}

func keywordMatch(keywords string, job *model.JobPosting) bool {
	if keywords == "" {
		return true
	}
	needle := strings.ToLower(keywords)
	return strings.Contains(strings.ToLower(job.Title), needle) ||
		strings.Contains(strings.ToLower(job.Description), needle)
}
