package cards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/genai"
	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
	"github.com/BalancedBite/CoachPipe/internal/util"
)

// ErrAIRequired is returned by generators that have no mock fallback when no
// AI client is configured.
var ErrAIRequired = errors.New("AI credentials required for this assessment type")

// Result is what a generator hands back to the intake handler.
type Result struct {
	Assessment models.Assessment        `json:"assessment"`
	Card       models.PendingReviewCard `json:"card"`
}

// Generator turns a submitted form into an Assessment row plus a
// PendingReviewCard awaiting admin review.
type Generator interface {
	CardType() models.CardType
	Generate(ctx context.Context, clientID string, clientName string, formData json.RawMessage) (*Result, error)
}

// Registry maps assessment types to their generators.
type Registry struct {
	generators map[models.AssessmentType]Generator
}

// NewRegistry builds the generator registry. ai may be nil when no
// credentials are configured: the stress and sleep generators then fall back
// to the mock client, while the health generator refuses to run (it has no
// degraded mode).
func NewRegistry(st store.Store, ai genai.Generator) *Registry {
	fallback := ai
	if fallback == nil {
		fallback = genai.NewMockClient()
	}
	return &Registry{
		generators: map[models.AssessmentType]Generator{
			models.AssessmentTypeHealth: NewHealthGenerator(st, ai),
			models.AssessmentTypeStress: NewStressGenerator(st, fallback, ai == nil),
			models.AssessmentTypeSleep:  NewSleepGenerator(st, fallback, ai == nil),
		},
	}
}

// Lookup returns the generator for an assessment type.
func (r *Registry) Lookup(at models.AssessmentType) (Generator, bool) {
	g, ok := r.generators[at]
	return g, ok
}

// persistResult writes the Assessment row and then the PendingReviewCard.
// The two inserts are independent statements; a card-insert failure is fatal
// for the request but the assessment row is retained.
func persistResult(st store.Store, assessment models.Assessment, card models.PendingReviewCard) (*Result, error) {
	if err := st.AddAssessment(assessment); err != nil {
		return nil, fmt.Errorf("failed to persist assessment: %w", err)
	}
	if err := st.AddCard(card); err != nil {
		slog.Error("cards.persistResult: card insert failed after assessment insert, assessment retained",
			"assessment_id", assessment.ID, "card_id", card.ID, "error", err)
		return nil, fmt.Errorf("failed to persist review card: %w", err)
	}
	return &Result{Assessment: assessment, Card: card}, nil
}

// newAssessment builds an Assessment row for a submission.
func newAssessment(clientID string, at models.AssessmentType, formData json.RawMessage, parsed json.RawMessage, aiGenerated bool) models.Assessment {
	return models.Assessment{
		ID:             util.GenerateAssessmentID(),
		ClientID:       clientID,
		AssessmentType: at,
		FormResponses:  formData,
		AssessmentData: parsed,
		AIGenerated:    aiGenerated,
		CreatedAt:      time.Now(),
	}
}

// newCard builds a PendingReviewCard in the pending state.
func newCard(clientID string, ct models.CardType, content json.RawMessage, stage string) models.PendingReviewCard {
	now := time.Now()
	return models.PendingReviewCard{
		ID:               util.GenerateCardID(),
		ClientID:         clientID,
		CardType:         ct,
		GeneratedContent: content,
		Status:           models.CardStatusPending,
		WorkflowStage:    stage,
		AIGeneratedAt:    now,
		CreatedAt:        now,
	}
}

// formSummary renders submitted answers as "key: value" lines for embedding
// in a prompt. Nested values are serialized as JSON.
func formSummary(formData json.RawMessage) string {
	var fields map[string]interface{}
	if err := json.Unmarshal(formData, &fields); err != nil {
		return string(formData)
	}
	out := ""
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			out += fmt.Sprintf("- %s: %s\n", k, val)
		case float64:
			out += fmt.Sprintf("- %s: %g\n", k, val)
		case bool:
			out += fmt.Sprintf("- %s: %t\n", k, val)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out += fmt.Sprintf("- %s: %s\n", k, b)
		}
	}
	return out
}
