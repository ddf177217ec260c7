package planner

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiPlanner asks a Gemini model for a JSON plan
type GeminiPlanner struct {
	client *genai.Client
	model  string
}

// NewGeminiPlanner creates a Gemini-backed planner
func NewGeminiPlanner(ctx context.Context, apiKey, model string) (*GeminiPlanner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiPlanner{client: client, model: model}, nil
}

func (g *GeminiPlanner) Name() string { return ProviderGemini }

// Plan sends the planning prompt and parses the JSON reply
func (g *GeminiPlanner) Plan(ctx context.Context, query string) (*Plan, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(BuildPrompt(query)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}
	return ParsePlan(text)
}
