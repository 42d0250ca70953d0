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

// WorkflowStageDietPlanReview labels cards produced by the diet plan generator.
const WorkflowStageDietPlanReview = "diet_plan_review"

const dietPlanSystemPrompt = `You are a nutrition coach assistant. Draft a one-week diet plan for the client and respond with a JSON object containing exactly these fields: "daily_calories" (number), "meals" (array of objects with "name" and "description"), "grocery_list" (array of strings), "notes" (string). Respond with JSON only.`

// dietPlanCardContent wraps the AI plan with the grocery-list image URL.
type dietPlanCardContent struct {
	Plan            json.RawMessage `json:"plan"`
	GroceryImageURL string          `json:"grocery_image_url,omitempty"`
}

// DietPlanGenerator drafts diet plan cards outside the intake pipeline: a
// coach triggers one directly for a client. It uses both the chat endpoint
// (the plan) and the image endpoint (a grocery-list visual). Provider
// rate-limit and quota failures surface as the user-facing sentinel errors
// from the genai package.
type DietPlanGenerator struct {
	store store.Store
	ai    genai.Generator
}

// NewDietPlanGenerator creates the diet plan generator. ai may be nil, in
// which case Generate fails with ErrAIRequired.
func NewDietPlanGenerator(st store.Store, ai genai.Generator) *DietPlanGenerator {
	return &DietPlanGenerator{store: st, ai: ai}
}

// CardType identifies the produced card type.
func (g *DietPlanGenerator) CardType() models.CardType {
	return models.CardTypeDietPlan
}

// Generate drafts a diet plan card for a client. goals is free-form coach
// guidance embedded in the prompt.
func (g *DietPlanGenerator) Generate(ctx context.Context, clientID, goals string) (*models.PendingReviewCard, error) {
	if g.ai == nil {
		return nil, ErrAIRequired
	}

	client, err := g.store.GetClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}

	metrics := DeriveHealthMetrics(client.Gender, client.WeightKg, client.HeightCm, client.Age)
	userPrompt := fmt.Sprintf(
		"Client: %s\nGender: %s, age %d, height %.0f cm, weight %.1f kg.\nDerived metrics: BMI %.1f, BMR %d kcal, ideal weight %.1f kg, protein target %.1f g/day.\nCoach guidance: %s",
		client.Name, client.Gender, client.Age, client.HeightCm, client.WeightKg,
		metrics.BMI, metrics.BMR, metrics.IdealWeightKg, metrics.ProteinTargetG, goals)

	raw, err := g.ai.GenerateJSON(ctx, dietPlanSystemPrompt, userPrompt)
	if err != nil {
		slog.Error("DietPlanGenerator.Generate: plan generation failed", "client_id", clientID, "error", err)
		return nil, err
	}
	parsed := ParseOrFallback(raw)

	// The grocery image is best-effort: a failed image call degrades the
	// card, it does not fail the plan.
	imageURL, err := g.ai.GenerateImage(ctx, "A neatly arranged flat-lay photo of one week of healthy groceries for a nutrition coaching client")
	if err != nil {
		slog.Warn("DietPlanGenerator.Generate: grocery image generation failed", "client_id", clientID, "error", err)
		imageURL = ""
	}

	content, err := json.Marshal(dietPlanCardContent{Plan: parsed, GroceryImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode card content: %w", err)
	}

	card := newCard(clientID, models.CardTypeDietPlan, content, WorkflowStageDietPlanReview)
	if err := g.store.AddCard(card); err != nil {
		return nil, fmt.Errorf("failed to persist review card: %w", err)
	}
	slog.Info("DietPlanGenerator.Generate: drafted diet plan card", "client_id", clientID, "card_id", card.ID, "image", imageURL != "")
	return &card, nil
}
