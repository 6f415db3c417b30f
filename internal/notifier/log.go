package notifier

import (
	"log/slog"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes each alert match to the given logger as a structured
// notification-intent record. This is the delivery simulation the board runs
// with until a real channel is wired.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each match via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per match. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(matches []model.AlertMatch) error {
	for _, m := range matches {
		n.logger.Info("notification intent",
			"alert_id", m.AlertID,
			"user_id", m.UserID,
			"job_id", m.JobID,
			"job_title", m.JobTitle,
		)
	}
	return nil
}
