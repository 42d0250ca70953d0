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

// WorkflowStageHealthReview labels cards produced by the health generator.
const WorkflowStageHealthReview = "health_assessment_review"

const healthSystemPrompt = `You are a nutrition coach assistant. Analyze the client's health intake form and respond with a JSON object containing exactly these fields: "summary" (2-3 sentence overview), "strengths" (array of strings), "concerns" (array of strings), "recommendations" (array of strings). Respond with JSON only.`

// healthCardContent is the generated_content shape for health cards. The key
// findings are computed locally and stored independently of the AI analysis.
type healthCardContent struct {
	Analysis    json.RawMessage `json:"analysis"`
	KeyFindings HealthMetrics   `json:"key_findings"`
}

// HealthGenerator drafts health assessment cards. It loads supplementary
// client context (age, weight, height, gender) and has no mock fallback: a
// missing AI client or a provider failure fails the whole request.
type HealthGenerator struct {
	store store.Store
	ai    genai.Generator
}

// NewHealthGenerator creates the health card generator. ai may be nil, in
// which case Generate fails with ErrAIRequired.
func NewHealthGenerator(st store.Store, ai genai.Generator) *HealthGenerator {
	return &HealthGenerator{store: st, ai: ai}
}

// CardType identifies the produced card type.
func (g *HealthGenerator) CardType() models.CardType {
	return models.CardTypeHealthAssessment
}

// vitals are the numeric inputs to the derived metrics. Form answers win
// over the stored profile so a stale profile does not skew the numbers.
type vitals struct {
	Gender   string  `json:"gender"`
	Age      int     `json:"age"`
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
}

func (g *HealthGenerator) resolveVitals(clientID string, formData json.RawMessage) vitals {
	var v vitals
	if err := json.Unmarshal(formData, &v); err != nil {
		slog.Debug("HealthGenerator.resolveVitals: form data not parseable as vitals", "error", err)
	}
	client, err := g.store.GetClient(clientID)
	if err != nil {
		slog.Debug("HealthGenerator.resolveVitals: no client profile", "client_id", clientID, "error", err)
		return v
	}
	if v.Gender == "" {
		v.Gender = client.Gender
	}
	if v.Age == 0 {
		v.Age = client.Age
	}
	if v.HeightCm == 0 {
		v.HeightCm = client.HeightCm
	}
	if v.WeightKg == 0 {
		v.WeightKg = client.WeightKg
	}
	return v
}

// Generate drafts a health assessment card for the submitted form.
func (g *HealthGenerator) Generate(ctx context.Context, clientID, clientName string, formData json.RawMessage) (*Result, error) {
	if g.ai == nil {
		return nil, ErrAIRequired
	}

	v := g.resolveVitals(clientID, formData)
	metrics := DeriveHealthMetrics(v.Gender, v.WeightKg, v.HeightCm, v.Age)

	userPrompt := fmt.Sprintf(
		"Client: %s\nGender: %s, age %d, height %.0f cm, weight %.1f kg.\nDerived metrics: BMI %.1f, BMR %d kcal, ideal weight %.1f kg, protein target %.1f g/day.\nIntake form answers:\n%s",
		clientName, v.Gender, v.Age, v.HeightCm, v.WeightKg,
		metrics.BMI, metrics.BMR, metrics.IdealWeightKg, metrics.ProteinTargetG,
		formSummary(formData))

	raw, err := g.ai.GenerateJSON(ctx, healthSystemPrompt, userPrompt)
	if err != nil {
		slog.Error("HealthGenerator.Generate: AI call failed", "client_id", clientID, "error", err)
		return nil, fmt.Errorf("health assessment generation failed: %w", err)
	}
	parsed := ParseOrFallback(raw)

	content, err := json.Marshal(healthCardContent{Analysis: parsed, KeyFindings: metrics})
	if err != nil {
		return nil, fmt.Errorf("failed to encode card content: %w", err)
	}

	assessment := newAssessment(clientID, models.AssessmentTypeHealth, formData, parsed, true)
	card := newCard(clientID, models.CardTypeHealthAssessment, content, WorkflowStageHealthReview)
	slog.Info("HealthGenerator.Generate: drafted health card", "client_id", clientID, "card_id", card.ID, "bmi", metrics.BMI, "bmr", metrics.BMR)
	return persistResult(g.store, assessment, card)
}
