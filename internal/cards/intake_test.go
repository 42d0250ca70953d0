package cards

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

func seedRequest(t *testing.T, st store.Store, id string, at models.AssessmentType) {
	t.Helper()
	err := st.AddAssessmentRequest(models.AssessmentRequest{
		ID:             id,
		ClientID:       "client-1",
		AssessmentType: at,
		Status:         models.RequestStatusPending,
		RequestedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("AddAssessmentRequest failed: %v", err)
	}
}

func TestIntakeSubmitSuccess(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	seedRequest(t, st, "req-1", models.AssessmentTypeStress)
	ai := &scriptedAI{jsonResponse: `{"stress_level": "moderate"}`}
	intake := NewIntake(st, NewRegistry(st, ai))

	result, err := intake.Submit(context.Background(), models.SubmitAssessmentRequest{
		RequestID:      "req-1",
		AssessmentType: models.AssessmentTypeStress,
		ClientID:       "client-1",
		ClientName:     "Alice",
		FormData:       []byte(`{"stress_level": "high"}`),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !strings.Contains(result.Message, "stress check-in") {
		t.Errorf("unexpected success message: %s", result.Message)
	}
	if result.Result == nil || result.Result.Card.CardType != models.CardTypeStressCard {
		t.Errorf("unexpected result: %+v", result.Result)
	}

	// The originating request is completed.
	req, err := st.GetAssessmentRequest("req-1")
	if err != nil {
		t.Fatalf("GetAssessmentRequest failed: %v", err)
	}
	if req.Status != models.RequestStatusCompleted {
		t.Errorf("expected completed request, got %s", req.Status)
	}

	// The card is visible in the review queue.
	cardList, err := st.ListActiveCards()
	if err != nil {
		t.Fatalf("ListActiveCards failed: %v", err)
	}
	if len(cardList) != 1 {
		t.Errorf("expected 1 queued card, got %d", len(cardList))
	}
}

func TestIntakeSubmitUnknownTypeHasNoSideEffects(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	seedRequest(t, st, "req-1", models.AssessmentTypeHealth)
	intake := NewIntake(st, NewRegistry(st, &scriptedAI{}))

	_, err := intake.Submit(context.Background(), models.SubmitAssessmentRequest{
		RequestID:      "req-1",
		AssessmentType: "palm_reading",
		ClientID:       "client-1",
		FormData:       []byte(`{}`),
	})
	if !errors.Is(err, models.ErrUnknownAssessmentType) {
		t.Fatalf("expected ErrUnknownAssessmentType, got %v", err)
	}

	// Validation failed before any mutation: the request is untouched.
	req, _ := st.GetAssessmentRequest("req-1")
	if req.Status != models.RequestStatusPending {
		t.Errorf("request must stay pending after rejected submission, got %s", req.Status)
	}
	cardList, _ := st.ListActiveCards()
	if len(cardList) != 0 {
		t.Errorf("expected no cards, got %d", len(cardList))
	}
}

func TestIntakeSubmitMissingRequestAbortsBeforeGeneration(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	ai := &scriptedAI{jsonResponse: `{"summary": "ok"}`}
	intake := NewIntake(st, NewRegistry(st, ai))

	_, err := intake.Submit(context.Background(), models.SubmitAssessmentRequest{
		RequestID:      "ghost-request",
		AssessmentType: models.AssessmentTypeStress,
		ClientID:       "client-1",
		FormData:       []byte(`{}`),
	})
	if !errors.Is(err, models.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if ai.lastUser != "" {
		t.Error("generation must not run when the request cannot be completed")
	}
}

func TestIntakeSubmitGenerationFailureKeepsRequestCompleted(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	seedRequest(t, st, "req-1", models.AssessmentTypeSleep)
	ai := &scriptedAI{jsonErr: errors.New("provider down")}
	intake := NewIntake(st, NewRegistry(st, ai))

	_, err := intake.Submit(context.Background(), models.SubmitAssessmentRequest{
		RequestID:      "req-1",
		AssessmentType: models.AssessmentTypeSleep,
		ClientID:       "client-1",
		FormData:       []byte(`{"hours": 4}`),
	})
	if err == nil {
		t.Fatal("expected generation error to surface")
	}

	// The client is never re-prompted: the request stays completed even
	// though generation failed.
	req, _ := st.GetAssessmentRequest("req-1")
	if req.Status != models.RequestStatusCompleted {
		t.Errorf("expected completed request after generation failure, got %s", req.Status)
	}
}

func TestSuccessMessagePerType(t *testing.T) {
	if !strings.Contains(successMessage(models.AssessmentTypeHealth), "health assessment") {
		t.Error("health message missing type reference")
	}
	if !strings.Contains(successMessage(models.AssessmentTypeSleep), "sleep assessment") {
		t.Error("sleep message missing type reference")
	}
	if successMessage("other") == "" {
		t.Error("default message must not be empty")
	}
}
