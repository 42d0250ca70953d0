// Package notify provides client notification transports for CoachPipe.
//
// This file implements the optional Twilio SMS transport used when a
// deployment wants a real ping alongside the in-app message.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// TwilioNotifier sends notification pings as SMS via the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	store  store.Store
	from   string
}

// NewTwilioNotifier creates a Twilio-backed notifier. Credentials fall back
// to TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, and TWILIO_FROM_NUMBER.
func NewTwilioNotifier(st store.Store, opts ...Option) (*TwilioNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("notify.NewTwilioNotifier: config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{client: client, store: st, from: cfg.FromNumber}, nil
}

// Notify sends the payload title/body as an SMS to the client's phone number.
// Clients without a phone number are skipped without error.
func (n *TwilioNotifier) Notify(ctx context.Context, clientID string, payload models.NotificationPayload) error {
	client, err := n.store.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to load client %s: %w", clientID, err)
	}
	if client.Phone == "" {
		slog.Debug("TwilioNotifier.Notify: client has no phone number, skipping", "client_id", clientID)
		return nil
	}

	body := payload.Title
	if payload.Body != "" {
		body = payload.Title + ": " + payload.Body
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(client.Phone)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		slog.Error("TwilioNotifier.Notify: SMS send failed", "client_id", clientID, "error", err)
		return fmt.Errorf("failed to send SMS to client %s: %w", clientID, err)
	}
	slog.Info("TwilioNotifier.Notify: SMS sent", "client_id", clientID, "title", payload.Title)
	return nil
}
