package planner

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIPlanner asks an OpenAI-compatible chat model for a JSON plan
type OpenAIPlanner struct {
	client *openai.Client
	model  string
}

// NewOpenAIPlanner creates a planner. A non-empty baseURL targets an
// OpenAI-compatible service; "/v1" is appended when the URL has no path.
func NewOpenAIPlanner(apiKey, baseURL, model string) (*OpenAIPlanner, error) {
	if model == "" {
		model = openai.GPT4oMini
	}
	if baseURL == "" {
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		return &OpenAIPlanner{client: openai.NewClient(apiKey), model: model}, nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid planner base URL %q", baseURL)
	}
	if apiKey == "" {
		// some self-hosted services don't check the key
		apiKey = "dummy-key"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	if parsed.Path == "" || parsed.Path == "/" {
		cfg.BaseURL += "/v1"
	}
	return &OpenAIPlanner{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (o *OpenAIPlanner) Name() string { return ProviderOpenAI }

// Plan sends the planning prompt in JSON mode and parses the reply
func (o *OpenAIPlanner) Plan(ctx context.Context, query string) (*Plan, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(query)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from openai")
	}
	return ParsePlan(resp.Choices[0].Message.Content)
}
