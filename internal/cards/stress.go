package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BalancedBite/CoachPipe/internal/genai"
	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// WorkflowStageStressReview labels cards produced by the stress generator.
const WorkflowStageStressReview = "stress_card_review"

const stressSystemPrompt = `You are a nutrition coach assistant. Analyze the client's stress check-in and respond with a JSON object containing exactly these fields: "stress_level" (string: low/moderate/high), "triggers" (array of strings), "coping_strategies" (array of strings), "summary" (2-3 sentences). Respond with JSON only.`

// StressGenerator drafts stress analysis cards. When running against the
// mock client (no AI credentials) the resulting assessment is flagged
// ai_generated=false and the content carries the mock label.
type StressGenerator struct {
	store store.Store
	ai    genai.Generator
	mock  bool
}

// NewStressGenerator creates the stress card generator.
func NewStressGenerator(st store.Store, ai genai.Generator, mock bool) *StressGenerator {
	return &StressGenerator{store: st, ai: ai, mock: mock}
}

// CardType identifies the produced card type.
func (g *StressGenerator) CardType() models.CardType {
	return models.CardTypeStressCard
}

// Generate drafts a stress card for the submitted form.
func (g *StressGenerator) Generate(ctx context.Context, clientID, clientName string, formData json.RawMessage) (*Result, error) {
	userPrompt := fmt.Sprintf("Client: %s\nStress check-in answers:\n%s", clientName, formSummary(formData))

	raw, err := g.ai.GenerateJSON(ctx, stressSystemPrompt, userPrompt)
	if err != nil {
		slog.Error("StressGenerator.Generate: AI call failed", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("stress card generation failed: %w", err)
	}
	parsed := ParseOrFallback(raw)

	assessment := newAssessment(clientID, models.AssessmentTypeStress, formData, parsed, !g.mock)
	card := newCard(clientID, models.CardTypeStressCard, parsed, WorkflowStageStressReview)
	slog.Info("StressGenerator.Generate: drafted stress card", "client_id", clientID, "card_id", card.ID, "mock", g.mock)
	return persistResult(g.store, assessment, card)
}
