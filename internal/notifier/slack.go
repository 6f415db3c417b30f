package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts alert matches to a Slack channel via Incoming Webhooks.
// Useful for admin visibility while real subscriber delivery stays stubbed.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each match to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends each match as a separate Slack message. Returns an error only
// if ALL messages fail; individual failures are logged.
func (s *SlackNotifier) Notify(matches []model.AlertMatch) error {
	if len(matches) == 0 {
		return nil
	}

	failures := 0
	for i, m := range matches {
		if i > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		if err := s.sendMessage(m); err != nil {
			s.logger.Error("slack notification failed",
				"alert_id", m.AlertID, "job_id", m.JobID, "error", err)
			failures++
		}
	}

	sent := len(matches) - failures
	if failures == len(matches) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(m model.AlertMatch) error {
	payload := map[string]string{
		"text": fmt.Sprintf("Job alert match: %q (job %s) for user %s via alert %s",
			m.JobTitle, m.JobID, m.UserID, m.AlertID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}
