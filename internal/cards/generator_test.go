package cards

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/BalancedBite/CoachPipe/internal/genai"
	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// scriptedAI returns canned responses and records prompts for inspection.
type scriptedAI struct {
	jsonResponse  string
	jsonErr       error
	imageURL      string
	imageErr      error
	lastSystem    string
	lastUser      string
	imageRequests int
}

func (s *scriptedAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem, s.lastUser = systemPrompt, userPrompt
	return s.jsonResponse, s.jsonErr
}

func (s *scriptedAI) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem, s.lastUser = systemPrompt, userPrompt
	return s.jsonResponse, s.jsonErr
}

func (s *scriptedAI) GenerateImage(ctx context.Context, prompt string) (string, error) {
	s.imageRequests++
	return s.imageURL, s.imageErr
}

// failingCardStore wraps a Store and fails AddCard, to exercise the
// assessment-retained-on-card-failure path.
type failingCardStore struct {
	store.Store
	assessmentIDs []string
}

var errCardInsert = errors.New("card insert refused")

func (f *failingCardStore) AddAssessment(a models.Assessment) error {
	f.assessmentIDs = append(f.assessmentIDs, a.ID)
	return f.Store.AddAssessment(a)
}

func (f *failingCardStore) AddCard(c models.PendingReviewCard) error {
	return errCardInsert
}

func seedTestClient(t *testing.T, st store.Store) {
	t.Helper()
	if err := st.AddClient(models.Client{ID: "client-1", Name: "Alice", Gender: "male", Age: 30, HeightCm: 170, WeightKg: 70}); err != nil {
		t.Fatalf("AddClient failed: %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	st := store.NewInMemoryStore()
	registry := NewRegistry(st, &scriptedAI{})

	for _, at := range []models.AssessmentType{models.AssessmentTypeHealth, models.AssessmentTypeStress, models.AssessmentTypeSleep} {
		if _, ok := registry.Lookup(at); !ok {
			t.Errorf("expected generator for %s", at)
		}
	}
	if _, ok := registry.Lookup("mystery"); ok {
		t.Error("expected no generator for unknown type")
	}
}

func TestHealthGeneratorPersistsMetricsAndAnalysis(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	ai := &scriptedAI{jsonResponse: `{"summary": "looks good", "strengths": [], "concerns": [], "recommendations": []}`}
	gen := NewHealthGenerator(st, ai)

	result, err := gen.Generate(context.Background(), "client-1", "Alice", []byte(`{"activity_level": "moderate"}`))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var content healthCardContent
	if err := json.Unmarshal(result.Card.GeneratedContent, &content); err != nil {
		t.Fatalf("card content not parseable: %v", err)
	}
	if content.KeyFindings.BMR != 1618 || content.KeyFindings.BMI != 24.2 {
		t.Errorf("unexpected key findings: %+v", content.KeyFindings)
	}
	if !strings.Contains(string(content.Analysis), "looks good") {
		t.Errorf("analysis missing AI output: %s", content.Analysis)
	}
	// Derived numbers are embedded in the prompt so the model sees them.
	if !strings.Contains(ai.lastUser, "BMR 1618") {
		t.Errorf("prompt missing derived BMR: %s", ai.lastUser)
	}

	if !result.Assessment.AIGenerated {
		t.Error("expected health assessment to be marked AI-generated")
	}
	if result.Card.Status != models.CardStatusPending {
		t.Errorf("expected pending card, got %s", result.Card.Status)
	}
	if result.Card.WorkflowStage != WorkflowStageHealthReview {
		t.Errorf("unexpected workflow stage %s", result.Card.WorkflowStage)
	}

	// Both rows must be retrievable.
	if _, err := st.GetAssessment(result.Assessment.ID); err != nil {
		t.Errorf("assessment not persisted: %v", err)
	}
	if _, err := st.GetCard(result.Card.ID); err != nil {
		t.Errorf("card not persisted: %v", err)
	}
}

func TestHealthGeneratorFormOverridesProfile(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	ai := &scriptedAI{jsonResponse: `{"summary": "ok"}`}
	gen := NewHealthGenerator(st, ai)

	// Form says 80 kg even though the profile says 70.
	_, err := gen.Generate(context.Background(), "client-1", "Alice", []byte(`{"weight_kg": 80}`))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(ai.lastUser, "weight 80.0 kg") {
		t.Errorf("expected form weight to win, prompt was: %s", ai.lastUser)
	}
}

func TestHealthGeneratorRequiresAI(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	gen := NewHealthGenerator(st, nil)

	_, err := gen.Generate(context.Background(), "client-1", "Alice", []byte(`{}`))
	if !errors.Is(err, ErrAIRequired) {
		t.Errorf("expected ErrAIRequired, got %v", err)
	}
}

func TestStressGeneratorMockFallback(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	// nil AI: registry substitutes the mock client for stress and sleep.
	registry := NewRegistry(st, nil)

	gen, ok := registry.Lookup(models.AssessmentTypeStress)
	if !ok {
		t.Fatal("no stress generator registered")
	}
	result, err := gen.Generate(context.Background(), "client-1", "Alice", []byte(`{"stress_level": "high"}`))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Assessment.AIGenerated {
		t.Error("mock-generated assessment must not be flagged ai_generated")
	}
	if !strings.Contains(string(result.Card.GeneratedContent), genai.MockLabel) {
		t.Errorf("mock content missing label: %s", result.Card.GeneratedContent)
	}
}

func TestSleepGeneratorAIFailureSurfaces(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	ai := &scriptedAI{jsonErr: errors.New("provider down")}
	gen := NewSleepGenerator(st, ai, false)

	_, err := gen.Generate(context.Background(), "client-1", "Alice", []byte(`{"hours": 5}`))
	if err == nil {
		t.Fatal("expected error when AI call fails")
	}
	if !strings.Contains(err.Error(), "provider down") {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
	// No partial rows.
	cardList, _ := st.ListActiveCards()
	if len(cardList) != 0 {
		t.Errorf("expected no cards after AI failure, got %d", len(cardList))
	}
}

func TestCardInsertFailureRetainsAssessment(t *testing.T) {
	inner := store.NewInMemoryStore()
	seedTestClient(t, inner)
	st := &failingCardStore{Store: inner}
	ai := &scriptedAI{jsonResponse: `{"summary": "ok"}`}
	gen := NewStressGenerator(st, ai, false)

	_, err := gen.Generate(context.Background(), "client-1", "Alice", []byte(`{"q": "a"}`))
	if !errors.Is(err, errCardInsert) {
		t.Fatalf("expected card insert error, got %v", err)
	}

	// The assessment row landed before the card insert failed and stays.
	if len(st.assessmentIDs) != 1 {
		t.Fatalf("expected 1 assessment insert, got %d", len(st.assessmentIDs))
	}
	if _, err := inner.GetAssessment(st.assessmentIDs[0]); err != nil {
		t.Errorf("assessment should be retained after card failure: %v", err)
	}
	cardList, _ := inner.ListActiveCards()
	if len(cardList) != 0 {
		t.Errorf("expected no cards, got %d", len(cardList))
	}
}

func TestDietPlanGenerator(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	ai := &scriptedAI{
		jsonResponse: `{"daily_calories": 2000, "meals": [], "grocery_list": [], "notes": ""}`,
		imageURL:     "https://img.example.com/groceries.png",
	}
	gen := NewDietPlanGenerator(st, ai)

	card, err := gen.Generate(context.Background(), "client-1", "cut to 2000 kcal")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	var content dietPlanCardContent
	if err := json.Unmarshal(card.GeneratedContent, &content); err != nil {
		t.Fatalf("card content not parseable: %v", err)
	}
	if content.GroceryImageURL != "https://img.example.com/groceries.png" {
		t.Errorf("unexpected image URL %q", content.GroceryImageURL)
	}
	if !strings.Contains(ai.lastUser, "cut to 2000 kcal") {
		t.Errorf("prompt missing coach guidance: %s", ai.lastUser)
	}
	if card.CardType != models.CardTypeDietPlan || card.Status != models.CardStatusPending {
		t.Errorf("unexpected card: %+v", card)
	}
}

func TestDietPlanImageFailureDegrades(t *testing.T) {
	st := store.NewInMemoryStore()
	seedTestClient(t, st)
	ai := &scriptedAI{
		jsonResponse: `{"daily_calories": 2000}`,
		imageErr:     genai.ErrRateLimited,
	}
	gen := NewDietPlanGenerator(st, ai)

	card, err := gen.Generate(context.Background(), "client-1", "maintain")
	if err != nil {
		t.Fatalf("expected plan to survive image failure, got %v", err)
	}
	var content dietPlanCardContent
	if err := json.Unmarshal(card.GeneratedContent, &content); err != nil {
		t.Fatalf("card content not parseable: %v", err)
	}
	if content.GroceryImageURL != "" {
		t.Errorf("expected empty image URL, got %q", content.GroceryImageURL)
	}
}

func TestDietPlanUnknownClient(t *testing.T) {
	st := store.NewInMemoryStore()
	gen := NewDietPlanGenerator(st, &scriptedAI{jsonResponse: `{}`})

	_, err := gen.Generate(context.Background(), "ghost", "anything")
	if !errors.Is(err, models.ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}
