package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/pkg/robusthttp"
)

// Mirrors moderation notices to a slack channel through an "incoming webhook".
//
// The webhook must already be configured in the slack workspace.
type SlackNotifier struct {
	SlackWebhookURL string
	Client          *http.Client
}

var _ Notifier = (*SlackNotifier)(nil)

func NewSlackNotifier(webhookURL string, logger *slog.Logger) *SlackNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackNotifier{
		SlackWebhookURL: webhookURL,
		Client:          robusthttp.NewClient(robusthttp.WithLogger(logger.With("subsystem", "slack"))),
	}
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

func slackBody(n Notice) string {
	msg := fmt.Sprintf("⚠️ Swear Jar %s ⚠️\n", n.Kind)
	msg += fmt.Sprintf("guild `%s` / user `%s`\n", n.Subject.GuildID, n.Subject.UserID)
	if n.Reason != "" {
		msg += fmt.Sprintf("Reason: %s\n", n.Reason)
	}
	if n.Duration > 0 {
		msg += fmt.Sprintf("Duration: `%s` (until %s)\n", n.Duration, n.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return msg
}

func (n *SlackNotifier) Notify(ctx context.Context, notice Notice) error {
	err := n.sendSlackMsg(ctx, slackBody(notice))
	if err != nil {
		notifyFailures.Inc()
	}
	return err
}

func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(respBody) != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
