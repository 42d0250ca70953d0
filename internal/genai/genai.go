// Package genai provides AI-backed content generation using the OpenAI API.
//
// Card generators depend on the Generator interface, not the concrete
// client, so the real client and the mock client (used when credentials are
// absent) are interchangeable at construction time.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Error variables for generation failures.
var (
	ErrNoChoicesReturned = errors.New("no choices returned")
	ErrNoImageReturned   = errors.New("no image returned")
	ErrMissingAPIKey     = errors.New("OpenAI API key not provided")
	// ErrRateLimited maps provider HTTP 429 responses.
	ErrRateLimited = errors.New("AI provider rate limit reached, please try again in a moment")
	// ErrQuotaExceeded maps provider HTTP 402 responses.
	ErrQuotaExceeded = errors.New("AI provider quota exhausted, please check the account balance")
)

// Generator is the capability the card generators consume. Implemented by
// Client (real API) and MockClient (credential-free fallback).
type Generator interface {
	// GeneratePrompt generates a completion from a system and user prompt.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateJSON is like GeneratePrompt but requests a JSON object response.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateImage generates an image for the prompt and returns its URL.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// imageService defines the minimal interface for image generation.
type imageService interface {
	Generate(ctx context.Context, params openai.ImageGenerateParams) (openai.ImagesResponse, error)
}

// openaiChatService adapts the OpenAI SDK chat completion service.
type openaiChatService struct {
	client openai.Client
}

func (s openaiChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// openaiImageService adapts the OpenAI SDK image generation service.
type openaiImageService struct {
	client openai.Client
}

func (s openaiImageService) Generate(ctx context.Context, params openai.ImageGenerateParams) (openai.ImagesResponse, error) {
	resp, err := s.client.Images.Generate(ctx, params)
	if err != nil {
		return openai.ImagesResponse{}, err
	}
	return *resp, nil
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  shared.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model used for completions.
func WithModel(model shared.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat and image services.
type Client struct {
	chat   chatService
	images imageService
	model  shared.ChatModel
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable when not provided via options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	slog.Debug("genai.NewClient: creating OpenAI client", "model", cfg.Model)
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		chat:   openaiChatService{client: cli},
		images: openaiImageService{client: cli},
		model:  cfg.Model,
	}, nil
}

// GeneratePrompt generates a completion from the provided system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.generate(ctx, systemPrompt, userPrompt, false)
}

// GenerateJSON generates a completion constrained to a JSON object response.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.generate(ctx, systemPrompt, userPrompt, true)
}

func (c *Client) generate(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		slog.Error("genai.Client.generate: chat completion failed", "error", err)
		return "", TranslateProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage generates an image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModelDallE3,
		Prompt: prompt,
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		slog.Error("genai.Client.GenerateImage: image generation failed", "error", err)
		return "", TranslateProviderError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", ErrNoImageReturned
	}
	return resp.Data[0].URL, nil
}

// TranslateProviderError converts provider rate-limit and quota failures into
// the user-facing sentinel errors; other errors pass through wrapped.
func TranslateProviderError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return ErrRateLimited
		case 402:
			return ErrQuotaExceeded
		}
	}
	return fmt.Errorf("AI provider request failed: %w", err)
}
