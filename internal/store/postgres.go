// Package store provides storage backends for CoachPipe.
//
// This file implements a PostgreSQL-backed store for the workflow tables.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BalancedBite/CoachPipe/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure the workflow tables exist
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// AddClient stores a client profile.
func (s *PostgresStore) AddClient(c models.Client) error {
	_, err := s.db.Exec(`INSERT INTO clients (id, name, email, phone, gender, age, height_cm, weight_kg, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.Email, c.Phone, c.Gender, c.Age, c.HeightCm, c.WeightKg, c.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddClient failed", "error", err, "client_id", c.ID)
		return fmt.Errorf("failed to insert client %s: %w", c.ID, err)
	}
	return nil
}

// GetClient retrieves a client by ID.
func (s *PostgresStore) GetClient(id string) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT id, name, email, phone, gender, age, height_cm, weight_kg, created_at FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrClientNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetClient failed", "error", err, "client_id", id)
		return nil, fmt.Errorf("failed to query client %s: %w", id, err)
	}
	return &c, nil
}

// AddAssessmentRequest stores an assessment request.
func (s *PostgresStore) AddAssessmentRequest(r models.AssessmentRequest) error {
	_, err := s.db.Exec(`INSERT INTO assessment_requests (id, client_id, assessment_type, status, requested_at) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.ClientID, r.AssessmentType, r.Status, r.RequestedAt)
	if err != nil {
		slog.Error("PostgresStore AddAssessmentRequest failed", "error", err, "request_id", r.ID)
		return fmt.Errorf("failed to insert assessment request %s: %w", r.ID, err)
	}
	return nil
}

// GetAssessmentRequest retrieves an assessment request by ID.
func (s *PostgresStore) GetAssessmentRequest(id string) (*models.AssessmentRequest, error) {
	row := s.db.QueryRow(`SELECT id, client_id, assessment_type, status, requested_at, completed_at FROM assessment_requests WHERE id = $1`, id)
	r, err := scanAssessmentRequest(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetAssessmentRequest failed", "error", err, "request_id", id)
		return nil, fmt.Errorf("failed to query assessment request %s: %w", id, err)
	}
	return &r, nil
}

// MarkRequestCompleted sets status=completed with the completion timestamp.
func (s *PostgresStore) MarkRequestCompleted(id string, completedAt time.Time) error {
	res, err := s.db.Exec(`UPDATE assessment_requests SET status = $1, completed_at = $2 WHERE id = $3`,
		models.RequestStatusCompleted, completedAt, id)
	if err != nil {
		slog.Error("PostgresStore MarkRequestCompleted failed", "error", err, "request_id", id)
		return fmt.Errorf("failed to complete assessment request %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrRequestNotFound
	}
	slog.Debug("PostgresStore MarkRequestCompleted succeeded", "request_id", id)
	return nil
}

// AddAssessment stores an assessment row.
func (s *PostgresStore) AddAssessment(a models.Assessment) error {
	_, err := s.db.Exec(`INSERT INTO assessments (id, client_id, assessment_type, form_responses, assessment_data, ai_generated, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ClientID, a.AssessmentType, string(a.FormResponses), nilIfEmptyJSON(a.AssessmentData), a.AIGenerated, a.Notes, a.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddAssessment failed", "error", err, "assessment_id", a.ID)
		return fmt.Errorf("failed to insert assessment %s: %w", a.ID, err)
	}
	slog.Debug("PostgresStore AddAssessment succeeded", "assessment_id", a.ID, "client_id", a.ClientID)
	return nil
}

// GetAssessment retrieves an assessment by ID.
func (s *PostgresStore) GetAssessment(id string) (*models.Assessment, error) {
	row := s.db.QueryRow(`SELECT id, client_id, assessment_type, form_responses, assessment_data, ai_generated, notes, created_at FROM assessments WHERE id = $1`, id)
	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrAssessmentNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetAssessment failed", "error", err, "assessment_id", id)
		return nil, fmt.Errorf("failed to query assessment %s: %w", id, err)
	}
	return &a, nil
}

// AddCard stores a pending review card.
func (s *PostgresStore) AddCard(c models.PendingReviewCard) error {
	_, err := s.db.Exec(`INSERT INTO pending_review_cards (id, client_id, card_type, generated_content, status, workflow_stage, ai_generated_at, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.ClientID, c.CardType, string(c.GeneratedContent), c.Status, c.WorkflowStage, c.AIGeneratedAt, c.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddCard failed", "error", err, "card_id", c.ID)
		return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
	}
	slog.Debug("PostgresStore AddCard succeeded", "card_id", c.ID, "card_type", c.CardType)
	return nil
}

// GetCard retrieves a card by ID.
func (s *PostgresStore) GetCard(id string) (*models.PendingReviewCard, error) {
	row := s.db.QueryRow(`SELECT id, client_id, card_type, generated_content, status, workflow_stage, ai_generated_at, created_at FROM pending_review_cards WHERE id = $1`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetCard failed", "error", err, "card_id", id)
		return nil, fmt.Errorf("failed to query card %s: %w", id, err)
	}
	return &c, nil
}

// ListActiveCards returns pending/edited cards, newest ai_generated_at first,
// joined with the client display name. Equal timestamps fall back to
// insertion time.
func (s *PostgresStore) ListActiveCards() ([]models.PendingReviewCardWithClient, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.client_id, c.card_type, c.generated_content, c.status, c.workflow_stage, c.ai_generated_at, c.created_at, cl.name
		FROM pending_review_cards c
		LEFT JOIN clients cl ON cl.id = c.client_id
		WHERE c.status IN ($1, $2)
		ORDER BY c.ai_generated_at DESC, c.created_at DESC`,
		models.CardStatusPending, models.CardStatusEdited)
	if err != nil {
		slog.Error("PostgresStore ListActiveCards query failed", "error", err)
		return nil, fmt.Errorf("failed to query active cards: %w", err)
	}
	defer rows.Close()

	var cards []models.PendingReviewCardWithClient
	for rows.Next() {
		c, err := scanCardWithClient(rows)
		if err != nil {
			slog.Error("PostgresStore ListActiveCards scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	slog.Debug("PostgresStore ListActiveCards succeeded", "count", len(cards))
	return cards, nil
}

// UpdateCardContent replaces generated content and moves the card to edited.
func (s *PostgresStore) UpdateCardContent(id string, content []byte) error {
	res, err := s.db.Exec(`UPDATE pending_review_cards SET generated_content = $1, status = $2 WHERE id = $3 AND status != $4`,
		string(content), models.CardStatusEdited, id, models.CardStatusSent)
	if err != nil {
		slog.Error("PostgresStore UpdateCardContent failed", "error", err, "card_id", id)
		return fmt.Errorf("failed to update card %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.cardUpdateMiss(id)
	}
	slog.Debug("PostgresStore UpdateCardContent succeeded", "card_id", id)
	return nil
}

// MarkCardSent moves the card to sent. The status guard in the WHERE clause
// is the duplicate-delivery protection; there is no DB uniqueness constraint
// to fall back on.
func (s *PostgresStore) MarkCardSent(id string) error {
	res, err := s.db.Exec(`UPDATE pending_review_cards SET status = $1 WHERE id = $2 AND status != $3`,
		models.CardStatusSent, id, models.CardStatusSent)
	if err != nil {
		slog.Error("PostgresStore MarkCardSent failed", "error", err, "card_id", id)
		return fmt.Errorf("failed to mark card %s sent: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.cardUpdateMiss(id)
	}
	slog.Debug("PostgresStore MarkCardSent succeeded", "card_id", id)
	return nil
}

// cardUpdateMiss distinguishes a missing card from an already-sent one after
// a guarded update touched zero rows.
func (s *PostgresStore) cardUpdateMiss(id string) error {
	var status models.CardStatus
	err := s.db.QueryRow(`SELECT status FROM pending_review_cards WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return models.ErrCardNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query card %s status: %w", id, err)
	}
	if status == models.CardStatusSent {
		return models.ErrCardAlreadySent
	}
	return models.ErrCardNotFound
}

// AddMessage stores a message.
func (s *PostgresStore) AddMessage(m models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, client_id, sender_type, message_type, content, attachment_url, metadata, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.ClientID, m.SenderType, m.MessageType, m.Content, nilIfEmpty(m.AttachmentURL), nilIfEmptyJSON(m.Metadata), m.IsRead, m.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddMessage failed", "error", err, "message_id", m.ID)
		return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
	}
	slog.Debug("PostgresStore AddMessage succeeded", "message_id", m.ID, "client_id", m.ClientID, "message_type", m.MessageType)
	return nil
}

// ListMessages returns all messages for a client, oldest first.
func (s *PostgresStore) ListMessages(clientID string) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, client_id, sender_type, message_type, content, attachment_url, metadata, is_read, created_at FROM messages WHERE client_id = $1 ORDER BY created_at ASC`, clientID)
	if err != nil {
		slog.Error("PostgresStore ListMessages query failed", "error", err, "client_id", clientID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", clientID, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

// RecentRetargetingContents returns contents of the latest retargeting
// messages for a client, newest first, up to limit.
func (s *PostgresStore) RecentRetargetingContents(clientID string, limit int) ([]string, error) {
	rows, err := s.db.Query(`SELECT content FROM messages WHERE client_id = $1 AND message_type = $2 ORDER BY created_at DESC LIMIT $3`,
		clientID, models.MessageTypeRetargeting, limit)
	if err != nil {
		slog.Error("PostgresStore RecentRetargetingContents query failed", "error", err, "client_id", clientID)
		return nil, fmt.Errorf("failed to query retargeting messages for %s: %w", clientID, err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan message content: %w", err)
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return contents, nil
}

// MarkMessageRead flips a message's read flag.
func (s *PostgresStore) MarkMessageRead(id string) error {
	res, err := s.db.Exec(`UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore MarkMessageRead failed", "error", err, "message_id", id)
		return fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrMessageNotFound
	}
	return nil
}

// UpsertWorkflowState inserts or replaces a client's workflow state.
func (s *PostgresStore) UpsertWorkflowState(st models.ClientWorkflowState) error {
	_, err := s.db.Exec(`
		INSERT INTO client_workflow_states (client_id, service_type, workflow_stage, retargeting_enabled, retargeting_frequency, retargeting_last_sent, next_action_due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id) DO UPDATE SET
			service_type = EXCLUDED.service_type,
			workflow_stage = EXCLUDED.workflow_stage,
			retargeting_enabled = EXCLUDED.retargeting_enabled,
			retargeting_frequency = EXCLUDED.retargeting_frequency,
			retargeting_last_sent = EXCLUDED.retargeting_last_sent,
			next_action_due_at = EXCLUDED.next_action_due_at`,
		st.ClientID, st.ServiceType, st.WorkflowStage, st.RetargetingEnabled, st.RetargetingFreq, st.RetargetingLastSent, st.NextActionDueAt)
	if err != nil {
		slog.Error("PostgresStore UpsertWorkflowState failed", "error", err, "client_id", st.ClientID)
		return fmt.Errorf("failed to upsert workflow state for %s: %w", st.ClientID, err)
	}
	return nil
}

// GetWorkflowState retrieves a client's workflow state.
func (s *PostgresStore) GetWorkflowState(clientID string) (*models.ClientWorkflowState, error) {
	row := s.db.QueryRow(`SELECT client_id, service_type, workflow_stage, retargeting_enabled, retargeting_frequency, retargeting_last_sent, next_action_due_at FROM client_workflow_states WHERE client_id = $1`, clientID)
	st, err := scanWorkflowState(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrClientNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetWorkflowState failed", "error", err, "client_id", clientID)
		return nil, fmt.Errorf("failed to query workflow state for %s: %w", clientID, err)
	}
	return &st, nil
}

// ListRetargetingCandidates returns states eligible for the retargeting sweep.
func (s *PostgresStore) ListRetargetingCandidates() ([]models.ClientWorkflowState, error) {
	rows, err := s.db.Query(`
		SELECT client_id, service_type, workflow_stage, retargeting_enabled, retargeting_frequency, retargeting_last_sent, next_action_due_at
		FROM client_workflow_states
		WHERE service_type = $1 AND retargeting_enabled = TRUE AND workflow_stage IN ($2, $3)
		ORDER BY client_id`,
		models.ServiceTypeConsultation, models.StageConsultationComplete, models.StageSoftRetargeting)
	if err != nil {
		slog.Error("PostgresStore ListRetargetingCandidates query failed", "error", err)
		return nil, fmt.Errorf("failed to query retargeting candidates: %w", err)
	}
	defer rows.Close()

	var states []models.ClientWorkflowState
	for rows.Next() {
		st, err := scanWorkflowState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow state row: %w", err)
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflow state rows: %w", err)
	}
	slog.Debug("PostgresStore ListRetargetingCandidates succeeded", "count", len(states))
	return states, nil
}

// RecordRetargetingSent sets the last-sent timestamp and advances the stage.
func (s *PostgresStore) RecordRetargetingSent(clientID string, sentAt time.Time) error {
	res, err := s.db.Exec(`UPDATE client_workflow_states SET retargeting_last_sent = $1, workflow_stage = $2 WHERE client_id = $3`,
		sentAt, models.StageSoftRetargeting, clientID)
	if err != nil {
		slog.Error("PostgresStore RecordRetargetingSent failed", "error", err, "client_id", clientID)
		return fmt.Errorf("failed to record retargeting send for %s: %w", clientID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrClientNotFound
	}
	return nil
}

// AddPushSubscription registers a push subscription.
func (s *PostgresStore) AddPushSubscription(sub models.PushSubscription) error {
	_, err := s.db.Exec(`INSERT INTO push_subscriptions (id, client_id, endpoint, keys, created_at) VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.ClientID, sub.Endpoint, nilIfEmptyJSON(sub.Keys), sub.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddPushSubscription failed", "error", err, "client_id", sub.ClientID)
		return fmt.Errorf("failed to insert push subscription for %s: %w", sub.ClientID, err)
	}
	return nil
}

// ListPushSubscriptions returns a client's registered subscriptions.
func (s *PostgresStore) ListPushSubscriptions(clientID string) ([]models.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT id, client_id, endpoint, keys, created_at FROM push_subscriptions WHERE client_id = $1`, clientID)
	if err != nil {
		slog.Error("PostgresStore ListPushSubscriptions query failed", "error", err, "client_id", clientID)
		return nil, fmt.Errorf("failed to query push subscriptions for %s: %w", clientID, err)
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		sub, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan push subscription row: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push subscription rows: %w", err)
	}
	return subs, nil
}
