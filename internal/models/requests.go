// Package models defines request payloads for CoachPipe endpoints.
package models

import "encoding/json"

// SubmitAssessmentRequest is the payload for submitting a completed intake form.
type SubmitAssessmentRequest struct {
	RequestID      string          `json:"request_id"`
	AssessmentType AssessmentType  `json:"assessment_type"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name,omitempty"`
	FormData       json.RawMessage `json:"form_data"`
}

// Validate checks required fields and the assessment type enum.
// Validation runs before any side effect; an unknown type must abort the
// whole submission without touching the originating request row.
func (r *SubmitAssessmentRequest) Validate() error {
	if r.RequestID == "" {
		return ErrEmptyRequestID
	}
	if r.ClientID == "" {
		return ErrEmptyClientID
	}
	if !IsValidAssessmentType(r.AssessmentType) {
		return ErrUnknownAssessmentType
	}
	if len(r.FormData) == 0 {
		return ErrEmptyFormData
	}
	return nil
}

// EditCardRequest is the payload for an admin editing generated card content.
type EditCardRequest struct {
	CardID           string          `json:"card_id"`
	GeneratedContent json.RawMessage `json:"generated_content"`
}

// Validate checks required fields.
func (r *EditCardRequest) Validate() error {
	if r.CardID == "" {
		return ErrEmptyCardID
	}
	if len(r.GeneratedContent) == 0 {
		return ErrEmptyCardContent
	}
	return nil
}

// SendCardRequest is the payload for dispatching a reviewed card to its client.
type SendCardRequest struct {
	CardID string `json:"card_id"`
}

// Validate checks required fields.
func (r *SendCardRequest) Validate() error {
	if r.CardID == "" {
		return ErrEmptyCardID
	}
	return nil
}

// PushSubscribeRequest is the payload for registering a push subscription.
type PushSubscribeRequest struct {
	ClientID string          `json:"client_id"`
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys,omitempty"`
}

// Validate checks required fields.
func (r *PushSubscribeRequest) Validate() error {
	if r.ClientID == "" {
		return ErrEmptyClientID
	}
	if r.Endpoint == "" {
		return ErrEmptyEndpoint
	}
	return nil
}

// DietPlanRequest is the payload for generating a personalized diet plan card.
type DietPlanRequest struct {
	ClientID string `json:"client_id"`
	Goals    string `json:"goals"`
}

// Validate checks required fields.
func (r *DietPlanRequest) Validate() error {
	if r.ClientID == "" {
		return ErrEmptyClientID
	}
	if r.Goals == "" {
		return ErrEmptyGoals
	}
	return nil
}

// MarkMessageReadRequest is the payload for flipping a message's read flag.
type MarkMessageReadRequest struct {
	MessageID string `json:"message_id"`
}

// Validate checks required fields.
func (r *MarkMessageReadRequest) Validate() error {
	if r.MessageID == "" {
		return ErrEmptyMessageID
	}
	return nil
}
