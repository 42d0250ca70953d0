package store

import (
	"database/sql"

	"github.com/BalancedBite/CoachPipe/internal/models"
)

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nilIfEmptyJSON returns nil for empty JSON payloads, otherwise the payload
// as a string. Used for nullable JSON/JSONB columns.
func nilIfEmptyJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// scanClient scans a client row.
func scanClient(s scanner) (models.Client, error) {
	var c models.Client
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Gender, &c.Age, &c.HeightCm, &c.WeightKg, &c.CreatedAt)
	return c, err
}

// scanAssessmentRequest scans an assessment_requests row.
func scanAssessmentRequest(s scanner) (models.AssessmentRequest, error) {
	var r models.AssessmentRequest
	var completedAt sql.NullTime
	err := s.Scan(&r.ID, &r.ClientID, &r.AssessmentType, &r.Status, &r.RequestedAt, &completedAt)
	if err != nil {
		return r, err
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return r, nil
}

// scanAssessment scans an assessments row.
func scanAssessment(s scanner) (models.Assessment, error) {
	var a models.Assessment
	var formResponses string
	var assessmentData sql.NullString
	err := s.Scan(&a.ID, &a.ClientID, &a.AssessmentType, &formResponses, &assessmentData, &a.AIGenerated, &a.Notes, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.FormResponses = []byte(formResponses)
	if assessmentData.Valid {
		a.AssessmentData = []byte(assessmentData.String)
	}
	return a, nil
}

// scanCard scans a pending_review_cards row.
func scanCard(s scanner) (models.PendingReviewCard, error) {
	var c models.PendingReviewCard
	var content string
	err := s.Scan(&c.ID, &c.ClientID, &c.CardType, &content, &c.Status, &c.WorkflowStage, &c.AIGeneratedAt, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.GeneratedContent = []byte(content)
	return c, nil
}

// scanCardWithClient scans a pending_review_cards row joined with the client name.
func scanCardWithClient(s scanner) (models.PendingReviewCardWithClient, error) {
	var c models.PendingReviewCardWithClient
	var content string
	var clientName sql.NullString
	err := s.Scan(&c.ID, &c.ClientID, &c.CardType, &content, &c.Status, &c.WorkflowStage, &c.AIGeneratedAt, &c.CreatedAt, &clientName)
	if err != nil {
		return c, err
	}
	c.GeneratedContent = []byte(content)
	c.ClientName = clientName.String
	return c, nil
}

// scanMessage scans a messages row.
func scanMessage(s scanner) (models.Message, error) {
	var m models.Message
	var attachmentURL, metadata sql.NullString
	err := s.Scan(&m.ID, &m.ClientID, &m.SenderType, &m.MessageType, &m.Content, &attachmentURL, &metadata, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	m.AttachmentURL = attachmentURL.String
	if metadata.Valid {
		m.Metadata = []byte(metadata.String)
	}
	return m, nil
}

// scanWorkflowState scans a client_workflow_states row.
func scanWorkflowState(s scanner) (models.ClientWorkflowState, error) {
	var st models.ClientWorkflowState
	var lastSent, nextDue sql.NullTime
	err := s.Scan(&st.ClientID, &st.ServiceType, &st.WorkflowStage, &st.RetargetingEnabled, &st.RetargetingFreq, &lastSent, &nextDue)
	if err != nil {
		return st, err
	}
	if lastSent.Valid {
		st.RetargetingLastSent = &lastSent.Time
	}
	if nextDue.Valid {
		st.NextActionDueAt = &nextDue.Time
	}
	return st, nil
}

// scanPushSubscription scans a push_subscriptions row.
func scanPushSubscription(s scanner) (models.PushSubscription, error) {
	var sub models.PushSubscription
	var keys sql.NullString
	err := s.Scan(&sub.ID, &sub.ClientID, &sub.Endpoint, &keys, &sub.CreatedAt)
	if err != nil {
		return sub, err
	}
	if keys.Valid {
		sub.Keys = []byte(keys.String)
	}
	return sub, nil
}
