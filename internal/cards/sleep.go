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

// WorkflowStageSleepReview labels cards produced by the sleep generator.
const WorkflowStageSleepReview = "sleep_card_review"

const sleepSystemPrompt = `You are a nutrition coach assistant. Analyze the client's sleep quality assessment and respond with a JSON object containing exactly these fields: "sleep_quality" (string: poor/fair/good), "issues" (array of strings), "sleep_hygiene_tips" (array of strings), "summary" (2-3 sentences). Respond with JSON only.`

// SleepGenerator drafts sleep analysis cards. Like the stress generator it
// tolerates missing AI credentials by producing labeled mock content.
type SleepGenerator struct {
	store store.Store
	ai    genai.Generator
	mock  bool
}

// NewSleepGenerator creates the sleep card generator.
func NewSleepGenerator(st store.Store, ai genai.Generator, mock bool) *SleepGenerator {
	return &SleepGenerator{store: st, ai: ai, mock: mock}
}

// CardType identifies the produced card type.
func (g *SleepGenerator) CardType() models.CardType {
	return models.CardTypeSleepCard
}

// Generate drafts a sleep card for the submitted form.
func (g *SleepGenerator) Generate(ctx context.Context, clientID, clientName string, formData json.RawMessage) (*Result, error) {
	userPrompt := fmt.Sprintf("Client: %s\nSleep assessment answers:\n%s", clientName, formSummary(formData))

	raw, err := g.ai.GenerateJSON(ctx, sleepSystemPrompt, userPrompt)
	if err != nil {
		slog.Error("SleepGenerator.Generate: AI call failed", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("sleep card generation failed: %w", err)
	}
	parsed := ParseOrFallback(raw)

	assessment := newAssessment(clientID, models.AssessmentTypeSleep, formData, parsed, !g.mock)
	card := newCard(clientID, models.CardTypeSleepCard, parsed, WorkflowStageSleepReview)
	slog.Info("SleepGenerator.Generate: drafted sleep card", "client_id", clientID, "card_id", card.ID, "mock", g.mock)
	return persistResult(g.store, assessment, card)
}
