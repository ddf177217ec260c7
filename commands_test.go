package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufdr-assistant/go/orchestrator/internal/engine"
	"github.com/ufdr-assistant/go/orchestrator/internal/health"
	"github.com/ufdr-assistant/go/orchestrator/internal/retrieval"
)

func TestPrintResponse(t *testing.T) {
	omar := "Omar Al-Farsi"
	resp := &engine.Response{
		Summary:       "Flagged terms: crypto Found 1 relevant message(s).",
		MessageSource: retrieval.SourceRecent,
		Messages: []retrieval.MessageEvidence{{
			MessageID: 101,
			Timestamp: "2024-03-10T22:15:00+05:30",
			App:       "WhatsApp",
			Sender:    "Raj Mehta",
			Receiver:  &omar,
			Content:   "send the crypto",
		}},
		Calls: []retrieval.CallEvidence{{CallID: 201, Timestamp: "2024-03-10T21:00:00+05:30", Type: "outgoing", DurationSeconds: 42}},
	}

	var buf bytes.Buffer
	printResponse(&buf, resp)
	out := buf.String()
	assert.Contains(t, out, "Flagged terms: crypto")
	assert.Contains(t, out, "Raj Mehta -> Omar Al-Farsi (WhatsApp): send the crypto")
	assert.Contains(t, out, "Unknown -> Unknown outgoing 42s")
	assert.NotContains(t, out, "Locations:")
}

func TestPrintHealth(t *testing.T) {
	detailed := health.DetailedHealth{
		Overall: health.OverallHealth{Status: health.StatusDegraded, Message: "1 component(s) degraded"},
		Components: map[string]health.CheckResult{
			"graph":          {Status: health.StatusDegraded, Message: "Graph is empty"},
			"evidence_store": {Status: health.StatusHealthy, Message: "Evidence store healthy"},
		},
	}
	var buf bytes.Buffer
	printHealth(&buf, []string{"evidence_store", "graph"}, detailed)
	assert.Contains(t, buf.String(), "graph              degraded  Graph is empty")
	assert.Contains(t, buf.String(), "overall: degraded (1 component(s) degraded)")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = newLogger("loud", "json")
	assert.Error(t, err)
}
