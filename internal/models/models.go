// Package models defines the core data structures for CoachPipe.
//
// It includes domain records for the assessment/card workflow and the API
// response envelope shared across modules.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// AssessmentType identifies which intake form a client submitted.
type AssessmentType string

const (
	// AssessmentTypeHealth is the full health intake assessment.
	AssessmentTypeHealth AssessmentType = "health_assessment"
	// AssessmentTypeStress is the stress check-in assessment.
	AssessmentTypeStress AssessmentType = "stress_assessment"
	// AssessmentTypeSleep is the sleep quality assessment.
	AssessmentTypeSleep AssessmentType = "sleep_assessment"
)

// IsValidAssessmentType checks if the given assessment type is supported.
func IsValidAssessmentType(at AssessmentType) bool {
	switch at {
	case AssessmentTypeHealth, AssessmentTypeStress, AssessmentTypeSleep:
		return true
	default:
		return false
	}
}

// RequestStatus tracks the lifecycle of an AssessmentRequest.
type RequestStatus string

const (
	// RequestStatusPending means the client has not submitted the form yet.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusInProgress means the client has opened the form.
	RequestStatusInProgress RequestStatus = "in_progress"
	// RequestStatusCompleted means the form was submitted and processed.
	RequestStatusCompleted RequestStatus = "completed"
)

// CardType identifies the kind of artifact awaiting review.
type CardType string

const (
	// CardTypeHealthAssessment is the AI-drafted health assessment summary.
	CardTypeHealthAssessment CardType = "health_assessment"
	// CardTypeStressCard is the AI-drafted stress analysis card.
	CardTypeStressCard CardType = "stress_card"
	// CardTypeSleepCard is the AI-drafted sleep analysis card.
	CardTypeSleepCard CardType = "sleep_card"
	// CardTypeActionPlan is a coaching action plan card.
	CardTypeActionPlan CardType = "action_plan"
	// CardTypeDietPlan is a diet plan card with an optional grocery-list image.
	CardTypeDietPlan CardType = "diet_plan"
)

// IsValidCardType checks if the given card type is supported.
func IsValidCardType(ct CardType) bool {
	switch ct {
	case CardTypeHealthAssessment, CardTypeStressCard, CardTypeSleepCard, CardTypeActionPlan, CardTypeDietPlan:
		return true
	default:
		return false
	}
}

// CardStatus tracks a PendingReviewCard through review and delivery.
// Transitions only move forward: pending -> edited -> sent, or pending -> sent.
type CardStatus string

const (
	// CardStatusPending means the card awaits admin review.
	CardStatusPending CardStatus = "pending"
	// CardStatusEdited means an admin altered the generated content before sending.
	CardStatusEdited CardStatus = "edited"
	// CardStatusSent means the card was delivered to the client.
	CardStatusSent CardStatus = "sent"
)

// CanTransitionCardStatus reports whether a card may move from one status to another.
func CanTransitionCardStatus(from, to CardStatus) bool {
	switch from {
	case CardStatusPending:
		return to == CardStatusEdited || to == CardStatusSent
	case CardStatusEdited:
		return to == CardStatusSent
	default:
		return false
	}
}

// SenderType identifies who authored a Message.
type SenderType string

const (
	// SenderTypeSystem marks messages produced by automated flows.
	SenderTypeSystem SenderType = "system"
	// SenderTypeAdmin marks messages written by a coach or admin.
	SenderTypeAdmin SenderType = "admin"
	// SenderTypeClient marks messages written by the client.
	SenderTypeClient SenderType = "client"
)

// MessageType classifies what a Message carries.
type MessageType string

const (
	// MessageTypeCardDelivery marks a message delivering a reviewed card.
	MessageTypeCardDelivery MessageType = "card_delivery"
	// MessageTypeRetargeting marks an automated retargeting tip.
	MessageTypeRetargeting MessageType = "retargeting"
	// MessageTypeChat marks a plain conversational message.
	MessageTypeChat MessageType = "chat"
)

// RetargetingFrequency controls the minimum gap between retargeting sends.
type RetargetingFrequency string

const (
	// FrequencyWeekly requires at least 7 days between sends.
	FrequencyWeekly RetargetingFrequency = "weekly"
	// FrequencyBiWeekly requires at least 14 days between sends.
	FrequencyBiWeekly RetargetingFrequency = "bi-weekly"
	// FrequencyMonthly requires at least 30 days between sends.
	FrequencyMonthly RetargetingFrequency = "monthly"
)

// GapDays maps a frequency to the required gap in days. Unrecognized or empty
// frequencies default to monthly.
func (f RetargetingFrequency) GapDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiWeekly:
		return 14
	case FrequencyMonthly:
		return 30
	default:
		return 30
	}
}

// Workflow stage labels used by the coaching lifecycle.
const (
	// StageConsultationComplete marks a lead that finished a one-time consultation.
	StageConsultationComplete = "consultation_complete"
	// StageSoftRetargeting marks a lead receiving periodic educational outreach.
	StageSoftRetargeting = "soft_retargeting_active"
)

// ServiceTypeConsultation is the service tier eligible for retargeting.
const ServiceTypeConsultation = "consultation"

// Error variables for validation and workflow failures.
var (
	ErrUnknownAssessmentType = errors.New("unknown assessment type")
	ErrEmptyClientID         = errors.New("client_id cannot be empty")
	ErrEmptyRequestID        = errors.New("request_id cannot be empty")
	ErrEmptyFormData         = errors.New("form_data cannot be empty")
	ErrEmptyCardID           = errors.New("card_id cannot be empty")
	ErrEmptyCardContent      = errors.New("generated_content cannot be empty")
	ErrCardNotFound          = errors.New("card not found")
	ErrCardAlreadySent       = errors.New("card already sent")
	ErrClientNotFound        = errors.New("client not found")
	ErrRequestNotFound       = errors.New("assessment request not found")
	ErrAssessmentNotFound    = errors.New("assessment not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrEmptyEndpoint         = errors.New("endpoint cannot be empty")
	ErrEmptyMessageID        = errors.New("message_id cannot be empty")
	ErrEmptyGoals            = errors.New("goals cannot be empty")
)

// Client is a coaching client's minimal profile. Height/weight/age feed the
// health generator's derived metrics.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Gender    string    `json:"gender,omitempty"` // "male" or "female"
	Age       int       `json:"age,omitempty"`
	HeightCm  float64   `json:"height_cm,omitempty"`
	WeightKg  float64   `json:"weight_kg,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AssessmentRequest is a coach-initiated ask for a client to fill an intake form.
type AssessmentRequest struct {
	ID             string         `json:"id"`
	ClientID       string         `json:"client_id"`
	AssessmentType AssessmentType `json:"assessment_type"`
	Status         RequestStatus  `json:"status"`
	RequestedAt    time.Time      `json:"requested_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// Assessment is one submitted intake form plus the AI-normalized analysis.
// Rows are immutable after creation; a new submission creates a new row.
type Assessment struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	AssessmentType AssessmentType  `json:"assessment_type"`
	FormResponses  json.RawMessage `json:"form_responses"`
	AssessmentData json.RawMessage `json:"assessment_data,omitempty"`
	AIGenerated    bool            `json:"ai_generated"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PendingReviewCard is an AI-drafted artifact held for human review before
// client delivery.
type PendingReviewCard struct {
	ID               string          `json:"id"`
	ClientID         string          `json:"client_id"`
	CardType         CardType        `json:"card_type"`
	GeneratedContent json.RawMessage `json:"generated_content"`
	Status           CardStatus      `json:"status"`
	WorkflowStage    string          `json:"workflow_stage,omitempty"`
	AIGeneratedAt    time.Time       `json:"ai_generated_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PendingReviewCardWithClient joins in the client display name for the admin
// queue listing.
type PendingReviewCardWithClient struct {
	PendingReviewCard
	ClientName string `json:"client_name"`
}

// Message is a client-visible message. Only IsRead is mutable after creation.
type Message struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	SenderType    SenderType      `json:"sender_type"`
	MessageType   MessageType     `json:"message_type"`
	Content       string          `json:"content"`
	AttachmentURL string          `json:"attachment_url,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	IsRead        bool            `json:"is_read"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ClientWorkflowState tracks a client's position in the coaching lifecycle.
// One row per client, continuously updated.
type ClientWorkflowState struct {
	ClientID            string               `json:"client_id"`
	ServiceType         string               `json:"service_type"`
	WorkflowStage       string               `json:"workflow_stage"`
	RetargetingEnabled  bool                 `json:"retargeting_enabled"`
	RetargetingFreq     RetargetingFrequency `json:"retargeting_frequency,omitempty"`
	RetargetingLastSent *time.Time           `json:"retargeting_last_sent,omitempty"`
	NextActionDueAt     *time.Time           `json:"next_action_due_at,omitempty"`
}

// PushSubscription is a registered push-notification endpoint for a client.
type PushSubscription struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"client_id"`
	Endpoint  string          `json:"endpoint"`
	Keys      json.RawMessage `json:"keys,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationPayload is the shape handed to push/notification transports.
type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	ID    string `json:"id,omitempty"`
}
