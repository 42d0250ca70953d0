// Package notify provides client notification transports for CoachPipe.
//
// Delivery of the in-app Message row is the source of truth; notifications
// are best-effort pings on top of it. The default transport logs payloads
// instead of delivering them.
package notify

import (
	"context"
	"log/slog"

	"github.com/BalancedBite/CoachPipe/internal/models"
)

// Notifier delivers a notification payload to a client.
type Notifier interface {
	Notify(ctx context.Context, clientID string, payload models.NotificationPayload) error
}

// LogNotifier is the default transport: it records the payload in the log
// and delivers nothing. Real push delivery is intentionally stubbed.
type LogNotifier struct{}

// NewLogNotifier creates the logging notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the payload.
func (n *LogNotifier) Notify(ctx context.Context, clientID string, payload models.NotificationPayload) error {
	slog.Info("LogNotifier.Notify: notification (delivery stubbed)",
		"client_id", clientID, "title", payload.Title, "body", payload.Body, "url", payload.URL, "id", payload.ID)
	return nil
}
