// Package store provides storage backends for CoachPipe.
//
// This file implements an SQLite-backed store for the workflow tables.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/BalancedBite/CoachPipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddClient stores a client profile.
func (s *SQLiteStore) AddClient(c models.Client) error {
	_, err := s.db.Exec(`INSERT INTO clients (id, name, email, phone, gender, age, height_cm, weight_kg, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Gender, c.Age, c.HeightCm, c.WeightKg, c.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddClient failed", "error", err, "client_id", c.ID)
		return fmt.Errorf("failed to insert client %s: %w", c.ID, err)
	}
	return nil
}

// GetClient retrieves a client by ID.
func (s *SQLiteStore) GetClient(id string) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT id, name, email, phone, gender, age, height_cm, weight_kg, created_at FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrClientNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetClient failed", "error", err, "client_id", id)
		return nil, fmt.Errorf("failed to query client %s: %w", id, err)
	}
	return &c, nil
}

// AddAssessmentRequest stores an assessment request.
func (s *SQLiteStore) AddAssessmentRequest(r models.AssessmentRequest) error {
	_, err := s.db.Exec(`INSERT INTO assessment_requests (id, client_id, assessment_type, status, requested_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ClientID, r.AssessmentType, r.Status, r.RequestedAt)
	if err != nil {
		slog.Error("SQLiteStore AddAssessmentRequest failed", "error", err, "request_id", r.ID)
		return fmt.Errorf("failed to insert assessment request %s: %w", r.ID, err)
	}
	return nil
}

// GetAssessmentRequest retrieves an assessment request by ID.
func (s *SQLiteStore) GetAssessmentRequest(id string) (*models.AssessmentRequest, error) {
	row := s.db.QueryRow(`SELECT id, client_id, assessment_type, status, requested_at, completed_at FROM assessment_requests WHERE id = ?`, id)
	r, err := scanAssessmentRequest(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetAssessmentRequest failed", "error", err, "request_id", id)
		return nil, fmt.Errorf("failed to query assessment request %s: %w", id, err)
	}
	return &r, nil
}

// MarkRequestCompleted sets status=completed with the completion timestamp.
func (s *SQLiteStore) MarkRequestCompleted(id string, completedAt time.Time) error {
	res, err := s.db.Exec(`UPDATE assessment_requests SET status = ?, completed_at = ? WHERE id = ?`,
		models.RequestStatusCompleted, completedAt, id)
	if err != nil {
		slog.Error("SQLiteStore MarkRequestCompleted failed", "error", err, "request_id", id)
		return fmt.Errorf("failed to complete assessment request %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrRequestNotFound
	}
	slog.Debug("SQLiteStore MarkRequestCompleted succeeded", "request_id", id)
	return nil
}

// AddAssessment stores an assessment row.
func (s *SQLiteStore) AddAssessment(a models.Assessment) error {
	_, err := s.db.Exec(`INSERT INTO assessments (id, client_id, assessment_type, form_responses, assessment_data, ai_generated, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, a.AssessmentType, string(a.FormResponses), nilIfEmptyJSON(a.AssessmentData), a.AIGenerated, a.Notes, a.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddAssessment failed", "error", err, "assessment_id", a.ID)
		return fmt.Errorf("failed to insert assessment %s: %w", a.ID, err)
	}
	slog.Debug("SQLiteStore AddAssessment succeeded", "assessment_id", a.ID, "client_id", a.ClientID)
	return nil
}

// GetAssessment retrieves an assessment by ID.
func (s *SQLiteStore) GetAssessment(id string) (*models.Assessment, error) {
	row := s.db.QueryRow(`SELECT id, client_id, assessment_type, form_responses, assessment_data, ai_generated, notes, created_at FROM assessments WHERE id = ?`, id)
	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrAssessmentNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetAssessment failed", "error", err, "assessment_id", id)
		return nil, fmt.Errorf("failed to query assessment %s: %w", id, err)
	}
	return &a, nil
}

// AddCard stores a pending review card.
func (s *SQLiteStore) AddCard(c models.PendingReviewCard) error {
	_, err := s.db.Exec(`INSERT INTO pending_review_cards (id, client_id, card_type, generated_content, status, workflow_stage, ai_generated_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.CardType, string(c.GeneratedContent), c.Status, c.WorkflowStage, c.AIGeneratedAt, c.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddCard failed", "error", err, "card_id", c.ID)
		return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
	}
	slog.Debug("SQLiteStore AddCard succeeded", "card_id", c.ID, "card_type", c.CardType)
	return nil
}

// GetCard retrieves a card by ID.
func (s *SQLiteStore) GetCard(id string) (*models.PendingReviewCard, error) {
	row := s.db.QueryRow(`SELECT id, client_id, card_type, generated_content, status, workflow_stage, ai_generated_at, created_at FROM pending_review_cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetCard failed", "error", err, "card_id", id)
		return nil, fmt.Errorf("failed to query card %s: %w", id, err)
	}
	return &c, nil
}

// ListActiveCards returns pending/edited cards, newest ai_generated_at first,
// joined with the client display name. Equal timestamps fall back to
// insertion order (rowid).
func (s *SQLiteStore) ListActiveCards() ([]models.PendingReviewCardWithClient, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.client_id, c.card_type, c.generated_content, c.status, c.workflow_stage, c.ai_generated_at, c.created_at, cl.name
		FROM pending_review_cards c
		LEFT JOIN clients cl ON cl.id = c.client_id
		WHERE c.status IN (?, ?)
		ORDER BY c.ai_generated_at DESC, c.rowid DESC`,
		models.CardStatusPending, models.CardStatusEdited)
	if err != nil {
		slog.Error("SQLiteStore ListActiveCards query failed", "error", err)
		return nil, fmt.Errorf("failed to query active cards: %w", err)
	}
	defer rows.Close()

	var cards []models.PendingReviewCardWithClient
	for rows.Next() {
		c, err := scanCardWithClient(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActiveCards scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	slog.Debug("SQLiteStore ListActiveCards succeeded", "count", len(cards))
	return cards, nil
}

// UpdateCardContent replaces generated content and moves the card to edited.
func (s *SQLiteStore) UpdateCardContent(id string, content []byte) error {
	res, err := s.db.Exec(`UPDATE pending_review_cards SET generated_content = ?, status = ? WHERE id = ? AND status != ?`,
		string(content), models.CardStatusEdited, id, models.CardStatusSent)
	if err != nil {
		slog.Error("SQLiteStore UpdateCardContent failed", "error", err, "card_id", id)
		return fmt.Errorf("failed to update card %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.cardUpdateMiss(id)
	}
	slog.Debug("SQLiteStore UpdateCardContent succeeded", "card_id", id)
	return nil
}

// MarkCardSent moves the card to sent. The status guard in the WHERE clause
// is the duplicate-delivery protection; there is no DB uniqueness constraint
// to fall back on.
func (s *SQLiteStore) MarkCardSent(id string) error {
	res, err := s.db.Exec(`UPDATE pending_review_cards SET status = ? WHERE id = ? AND status != ?`,
		models.CardStatusSent, id, models.CardStatusSent)
	if err != nil {
		slog.Error("SQLiteStore MarkCardSent failed", "error", err, "card_id", id)
		return fmt.Errorf("failed to mark card %s sent: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.cardUpdateMiss(id)
	}
	slog.Debug("SQLiteStore MarkCardSent succeeded", "card_id", id)
	return nil
}

// cardUpdateMiss distinguishes a missing card from an already-sent one after
// a guarded update touched zero rows.
func (s *SQLiteStore) cardUpdateMiss(id string) error {
	var status models.CardStatus
	err := s.db.QueryRow(`SELECT status FROM pending_review_cards WHERE id = ?`, id).Scan(&status)
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
func (s *SQLiteStore) AddMessage(m models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, client_id, sender_type, message_type, content, attachment_url, metadata, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ClientID, m.SenderType, m.MessageType, m.Content, nilIfEmpty(m.AttachmentURL), nilIfEmptyJSON(m.Metadata), m.IsRead, m.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddMessage failed", "error", err, "message_id", m.ID)
		return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
	}
	slog.Debug("SQLiteStore AddMessage succeeded", "message_id", m.ID, "client_id", m.ClientID, "message_type", m.MessageType)
	return nil
}

// ListMessages returns all messages for a client, oldest first.
func (s *SQLiteStore) ListMessages(clientID string) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, client_id, sender_type, message_type, content, attachment_url, metadata, is_read, created_at FROM messages WHERE client_id = ? ORDER BY created_at ASC, rowid ASC`, clientID)
	if err != nil {
		slog.Error("SQLiteStore ListMessages query failed", "error", err, "client_id", clientID)
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
func (s *SQLiteStore) RecentRetargetingContents(clientID string, limit int) ([]string, error) {
	rows, err := s.db.Query(`SELECT content FROM messages WHERE client_id = ? AND message_type = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		clientID, models.MessageTypeRetargeting, limit)
	if err != nil {
		slog.Error("SQLiteStore RecentRetargetingContents query failed", "error", err, "client_id", clientID)
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
func (s *SQLiteStore) MarkMessageRead(id string) error {
	res, err := s.db.Exec(`UPDATE messages SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore MarkMessageRead failed", "error", err, "message_id", id)
		return fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrMessageNotFound
	}
	return nil
}

// UpsertWorkflowState inserts or replaces a client's workflow state.
func (s *SQLiteStore) UpsertWorkflowState(st models.ClientWorkflowState) error {
	_, err := s.db.Exec(`
		INSERT INTO client_workflow_states (client_id, service_type, workflow_stage, retargeting_enabled, retargeting_frequency, retargeting_last_sent, next_action_due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			service_type = excluded.service_type,
			workflow_stage = excluded.workflow_stage,
			retargeting_enabled = excluded.retargeting_enabled,
			retargeting_frequency = excluded.retargeting_frequency,
			retargeting_last_sent = excluded.retargeting_last_sent,
			next_action_due_at = excluded.next_action_due_at`,
		st.ClientID, st.ServiceType, st.WorkflowStage, st.RetargetingEnabled, st.RetargetingFreq, st.RetargetingLastSent, st.NextActionDueAt)
	if err != nil {
		slog.Error("SQLiteStore UpsertWorkflowState failed", "error", err, "client_id", st.ClientID)
		return fmt.Errorf("failed to upsert workflow state for %s: %w", st.ClientID, err)
	}
	return nil
}

// GetWorkflowState retrieves a client's workflow state.
func (s *SQLiteStore) GetWorkflowState(clientID string) (*models.ClientWorkflowState, error) {
	row := s.db.QueryRow(`SELECT client_id, service_type, workflow_stage, retargeting_enabled, retargeting_frequency, retargeting_last_sent, next_action_due_at FROM client_workflow_states WHERE client_id = ?`, clientID)
	st, err := scanWorkflowState(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrClientNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetWorkflowState failed", "error", err, "client_id", clientID)
		return nil, fmt.Errorf("failed to query workflow state for %s: %w", clientID, err)
	}
	return &st, nil
}

// ListRetargetingCandidates returns states eligible for the retargeting sweep.
func (s *SQLiteStore) ListRetargetingCandidates() ([]models.ClientWorkflowState, error) {
	rows, err := s.db.Query(`
		SELECT client_id, service_type, workflow_stage, retargeting_enabled, retargeting_frequency, retargeting_last_sent, next_action_due_at
		FROM client_workflow_states
		WHERE service_type = ? AND retargeting_enabled = 1 AND workflow_stage IN (?, ?)
		ORDER BY client_id`,
		models.ServiceTypeConsultation, models.StageConsultationComplete, models.StageSoftRetargeting)
	if err != nil {
		slog.Error("SQLiteStore ListRetargetingCandidates query failed", "error", err)
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
	slog.Debug("SQLiteStore ListRetargetingCandidates succeeded", "count", len(states))
	return states, nil
}

// RecordRetargetingSent sets the last-sent timestamp and advances the stage.
func (s *SQLiteStore) RecordRetargetingSent(clientID string, sentAt time.Time) error {
	res, err := s.db.Exec(`UPDATE client_workflow_states SET retargeting_last_sent = ?, workflow_stage = ? WHERE client_id = ?`,
		sentAt, models.StageSoftRetargeting, clientID)
	if err != nil {
		slog.Error("SQLiteStore RecordRetargetingSent failed", "error", err, "client_id", clientID)
		return fmt.Errorf("failed to record retargeting send for %s: %w", clientID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrClientNotFound
	}
	return nil
}

// AddPushSubscription registers a push subscription.
func (s *SQLiteStore) AddPushSubscription(sub models.PushSubscription) error {
	_, err := s.db.Exec(`INSERT INTO push_subscriptions (id, client_id, endpoint, keys, created_at) VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.ClientID, sub.Endpoint, nilIfEmptyJSON(sub.Keys), sub.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddPushSubscription failed", "error", err, "client_id", sub.ClientID)
		return fmt.Errorf("failed to insert push subscription for %s: %w", sub.ClientID, err)
	}
	return nil
}

// ListPushSubscriptions returns a client's registered subscriptions.
func (s *SQLiteStore) ListPushSubscriptions(clientID string) ([]models.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT id, client_id, endpoint, keys, created_at FROM push_subscriptions WHERE client_id = ?`, clientID)
	if err != nil {
		slog.Error("SQLiteStore ListPushSubscriptions query failed", "error", err, "client_id", clientID)
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
