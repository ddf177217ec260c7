package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
)

func TestContactTokens(t *testing.T) {
	tokens := ContactTokens(&db.Contact{Name: "Raj K Mehta", Phone: "+91-98200-11111"})
	for _, want := range []string{"raj k mehta", "raj", "mehta", "+91-98200-11111", "919820011111"} {
		assert.True(t, tokens.Has(want), want)
	}
	assert.False(t, tokens.Has("k"))
	assert.Empty(t, ContactTokens(nil))
}

func TestMatchContactsByName(t *testing.T) {
	contacts := testContacts()

	assert.Equal(t, map[int64]struct{}{2: {}}, MatchContactsByName([]string{"Omar"}, contacts))
	assert.Equal(t, map[int64]struct{}{1: {}, 2: {}}, MatchContactsByName([]string{" raj mehta ", "HADDAD"}, contacts))
	assert.Equal(t, map[int64]struct{}{3: {}}, MatchContactsByName([]string{"li"}, contacts), "whole name still matches")
	assert.Empty(t, MatchContactsByName([]string{"", "nobody"}, contacts))
	assert.Empty(t, MatchContactsByName(nil, contacts))
}
