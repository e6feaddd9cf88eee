// Package notify delivers run summaries to an external notification
// channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/remerge-cli/remerge/pkg/logging"
	"github.com/remerge-cli/remerge/pkg/report"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"    // run-success summary
	SeverityWarning Severity = "warning" // run-partial, manual review needed
	SeverityError   Severity = "error"   // run-failure, internal error
)

// Notifier delivers a message to a channel. Implementations must
// respect ctx cancellation.
type Notifier interface {
	Notify(ctx context.Context, channel, message string, severity Severity) error
}

// Webhook posts JSON payloads to a configured URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook creates a webhook notifier with a sane request timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type payload struct {
	Channel  string `json:"channel"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Notify posts the message. A non-2xx response is an error.
func (w *Webhook) Notify(ctx context.Context, channel, message string, severity Severity) error {
	body, err := json.Marshal(payload{Channel: channel, Message: message, Severity: string(severity)})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification endpoint returned %s", resp.Status)
	}
	return nil
}

// Noop is used when no webhook is configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, channel, message string, severity Severity) error {
	return nil
}

// Summarize builds the message and severity for a finalized report.
// Three kinds exist: run-success, run-partial, run-failure.
func Summarize(r *report.RunReport) (string, Severity) {
	if r.TotalConflicts == 0 {
		return "no merge conflicts found", SeverityInfo
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d conflicts resolved (%.0f%%)",
		r.ResolvedCount, r.TotalConflicts, r.SuccessRatePercent)

	if r.Clean() {
		return b.String(), SeverityInfo
	}

	fmt.Fprintf(&b, "; %d file(s) need manual review: %s",
		len(r.NeedsHuman), strings.Join(r.NeedsHuman, ", "))
	return b.String(), SeverityWarning
}

// Send delivers the summary for a finalized report, then separately
// escalates the needs-human list. Delivery failures are logged, never
// fatal.
func Send(ctx context.Context, n Notifier, channel string, r *report.RunReport) {
	if n == nil {
		return
	}

	msg, severity := Summarize(r)
	if err := n.Notify(ctx, channel, msg, severity); err != nil {
		logging.Warn("summary notification failed", "error", err)
	}

	if len(r.NeedsHuman) > 0 {
		escalation := fmt.Sprintf("manual review required for: %s", strings.Join(r.NeedsHuman, ", "))
		if err := n.Notify(ctx, channel, escalation, SeverityWarning); err != nil {
			logging.Warn("escalation notification failed", "error", err)
		}
	}
}

// SendFailure reports an internal, run-aborting error.
func SendFailure(ctx context.Context, n Notifier, channel string, runErr error) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf("resolver run failed: %v", runErr)
	if err := n.Notify(ctx, channel, msg, SeverityError); err != nil {
		logging.Warn("failure notification failed", "error", err)
	}
}
