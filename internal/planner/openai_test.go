package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIPlanner_CompatibleEndpoint(t *testing.T) {
	var gotPath, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "local",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"include_calls\": false, \"topics\": [\"BTC\"]}"}}]
		}`))
	}))
	defer server.Close()

	p, err := NewOpenAIPlanner("", server.URL, "local")
	require.NoError(t, err)

	plan, err := p.Plan(context.Background(), "crypto calls")
	require.NoError(t, err)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.True(t, strings.HasSuffix(gotPrompt, `Query: "crypto calls"`))
	assert.Equal(t, False, plan.IncludeCalls)
	assert.Equal(t, []string{"btc"}, plan.Topics)
}

func TestOpenAIPlanner_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := NewOpenAIPlanner("k", server.URL+"/v1", "local")
	require.NoError(t, err)
	_, err = p.Plan(context.Background(), "anything")
	assert.Error(t, err)
}

func TestNewOpenAIPlanner_Validation(t *testing.T) {
	_, err := NewOpenAIPlanner("", "", "")
	assert.Error(t, err)
	for _, base := range []string{"localhost:8080", "ftp://models.local", "http://", "http//models.local"} {
		_, err = NewOpenAIPlanner("k", base, "")
		assert.Error(t, err, base)
	}
	_, err = NewOpenAIPlanner("", "https://models.local:8443", "")
	assert.NoError(t, err)
}

func TestNew_DisabledOrMissingKeyIsNoop(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	p, err := New(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	p, err = New(context.Background(), Config{Enabled: true, Provider: ProviderGemini}, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	_, err = New(context.Background(), Config{Enabled: true, Provider: "clippy", APIKey: "k"}, nil)
	assert.Error(t, err)
}

func TestNew_OpenAICompatibleIsGuarded(t *testing.T) {
	p, err := New(context.Background(), Config{Enabled: true, Provider: ProviderOpenAI, BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Guarded{}, p)
	assert.Equal(t, ProviderOpenAI, p.Name())
}
