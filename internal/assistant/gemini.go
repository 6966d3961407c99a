package assistant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Generator produces raw model text for a system instruction and a question.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, question string) (string, error)
	Model() string
}

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL string
}

// Gemini calls the Gemini generateContent API with JSON output.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
}

var errEmptyGeneration = errors.New("assistant: no response generated from model")

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("assistant: gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("assistant: create gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.cfg.Model }

// Generate sends one user turn with the given system instruction.
func (g *Gemini) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens:   g.cfg.MaxOutputTokens,
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("assistant: gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errEmptyGeneration
	}
	return text, nil
}
