// Package genai provides AI-backed content generation using the OpenAI API.
//
// This file implements the credential-free mock generator. When no API key
// is configured, the stress and sleep card generators run against this
// client so a deployment without AI credentials still produces reviewable
// cards; the content is clearly labeled as mock output.
package genai

import (
	"context"
	"log/slog"
)

// MockLabel prefixes all mock-generated text so reviewers can tell it apart
// from real AI output.
const MockLabel = "[mock content - AI credentials not configured]"

// MockClient is a Generator that returns canned, labeled content.
type MockClient struct{}

// NewMockClient creates a mock generator.
func NewMockClient() *MockClient {
	slog.Info("genai.NewMockClient: using mock AI generator, content will be labeled as mock")
	return &MockClient{}
}

// GeneratePrompt returns labeled placeholder text.
func (m *MockClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return MockLabel + " This is placeholder analysis text generated without an AI provider.", nil
}

// GenerateJSON returns a labeled placeholder JSON object.
func (m *MockClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return `{"ai_analysis": "` + MockLabel + ` Placeholder analysis generated without an AI provider."}`, nil
}

// GenerateImage returns an empty URL; mock mode produces no attachments.
func (m *MockClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", nil
}
