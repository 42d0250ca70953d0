// Package store provides storage backends for CoachPipe.
//
// It defines the Store interface over the workflow tables (clients,
// assessment requests, assessments, pending review cards, messages, workflow
// states, push subscriptions) with SQLite, PostgreSQL, and in-memory
// implementations. Multi-step flows deliberately issue independent
// single-statement writes; atomicity is per statement only.
package store

import (
	"strings"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
)

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL schemes or key=value connection strings; anything else is treated
// as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string // database connection string (file path for SQLite)
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return WithDSN(dsn)
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return WithDSN(dsn)
}

// Store is the persistence surface used by the workflow components.
type Store interface {
	// Clients
	AddClient(c models.Client) error
	GetClient(id string) (*models.Client, error)

	// Assessment requests
	AddAssessmentRequest(r models.AssessmentRequest) error
	GetAssessmentRequest(id string) (*models.AssessmentRequest, error)
	// MarkRequestCompleted sets status=completed and the completion timestamp.
	MarkRequestCompleted(id string, completedAt time.Time) error

	// Assessments (immutable after insert)
	AddAssessment(a models.Assessment) error
	GetAssessment(id string) (*models.Assessment, error)

	// Pending review cards
	AddCard(c models.PendingReviewCard) error
	GetCard(id string) (*models.PendingReviewCard, error)
	// ListActiveCards returns cards with status pending or edited, newest
	// ai_generated_at first, joined with the client display name.
	ListActiveCards() ([]models.PendingReviewCardWithClient, error)
	// UpdateCardContent replaces generated_content and moves the card to
	// edited. Sent cards are rejected with models.ErrCardAlreadySent.
	UpdateCardContent(id string, content []byte) error
	// MarkCardSent moves the card to sent. Already-sent cards are rejected
	// with models.ErrCardAlreadySent.
	MarkCardSent(id string) error

	// Messages
	AddMessage(m models.Message) error
	ListMessages(clientID string) ([]models.Message, error)
	// RecentRetargetingContents returns the content of the client's most
	// recent retargeting messages, newest first, up to limit.
	RecentRetargetingContents(clientID string, limit int) ([]string, error)
	MarkMessageRead(id string) error

	// Workflow states
	UpsertWorkflowState(s models.ClientWorkflowState) error
	GetWorkflowState(clientID string) (*models.ClientWorkflowState, error)
	// ListRetargetingCandidates returns workflow states with
	// service_type=consultation, retargeting enabled, and stage in
	// {consultation_complete, soft_retargeting_active}.
	ListRetargetingCandidates() ([]models.ClientWorkflowState, error)
	// RecordRetargetingSent sets retargeting_last_sent and transitions the
	// stage to soft_retargeting_active (idempotent if already there).
	RecordRetargetingSent(clientID string, sentAt time.Time) error

	// Push subscriptions
	AddPushSubscription(s models.PushSubscription) error
	ListPushSubscriptions(clientID string) ([]models.PushSubscription, error)
}
