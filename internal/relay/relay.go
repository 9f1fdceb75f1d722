// Package relay streams finished fetches to Server-Sent Events clients.
package relay

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

// Relay turns engine reports into broker events. Each report is published
// on the feed named after its outcome.
type Relay struct {
	broker *Broker
	logger *slog.Logger
}

// NewRelay creates a relay publishing to broker.
func NewRelay(broker *Broker, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{broker: broker, logger: logger}
}

// Observe publishes r. It matches the engine observer signature.
func (r *Relay) Observe(rep jsonrequest.Report) {
	data, err := json.Marshal(rep)
	if err != nil {
		r.logger.Debug("relay: report not encodable", "id", rep.ID, "error", err)
		return
	}
	feed := rep.Outcome
	if feed == "" {
		feed = jsonrequest.OutcomeError
	}
	r.broker.Publish(Event{Feed: feed, Host: reportHost(rep.URL), ID: rep.ID, Payload: string(data)})
}

func reportHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Broker returns the underlying broker.
func (r *Relay) Broker() *Broker { return r.broker }
