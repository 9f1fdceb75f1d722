// Package notify posts plain-text alerts for failed fetches to an
// ntfy-style webhook.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

const sendTimeout = 5 * time.Second

// Notifier sends one message per failed fetch. Completed fetches are
// ignored.
type Notifier struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// New returns a Notifier posting to endpoint. A nil client means
// http.DefaultClient.
func New(endpoint string, client *http.Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{endpoint: endpoint, client: client, logger: logger}
}

// Observe matches the engine observer signature. The post runs on its own
// goroutine so a slow webhook never delays the fetch callback.
func (n *Notifier) Observe(r jsonrequest.Report) {
	if r.Outcome != jsonrequest.OutcomeError {
		return
	}
	msg := Message(r)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := Send(ctx, n.client, n.endpoint, msg); err != nil {
			n.logger.Debug("notification failed", "id", r.ID, "error", err)
		}
	}()
}

// Message formats a failed fetch report.
func Message(r jsonrequest.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", jsonrequest.Category, r.Message)
	if r.Method != "" {
		fmt.Fprintf(&b, " %s", r.Method)
	}
	fmt.Fprintf(&b, " %s", r.URL)
	if r.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", r.Status)
	}
	if r.Proxy != "" && r.Proxy != "none" {
		fmt.Fprintf(&b, " via %s", r.Proxy)
	}
	return b.String()
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", jsonrequest.Name)

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
