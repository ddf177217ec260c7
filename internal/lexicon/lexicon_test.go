package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	l := Default()
	assert.True(t, l.IsStopWord("show"))
	assert.False(t, l.IsStopWord("crypto"))
	assert.True(t, l.CallTerms.Has("spoke"))
	assert.True(t, l.IsCategoryKeyword("overseas"))
	assert.False(t, l.IsCategoryKeyword("chat"), "message keywords are allowed as topics")
	assert.Equal(t, "India", l.DomesticCountry)
}

func TestSuspiciousInKeepsConfiguredOrder(t *testing.T) {
	l := Default()
	assert.Equal(t, []string{"bitcoin", "crypto"}, l.SuspiciousIn("crypto and bitcoin deals"))
	assert.Empty(t, l.SuspiciousIn("dinner plans"))
}

func TestIsForeignCountry(t *testing.T) {
	l := Default()
	uae, india, empty := "UAE", "India", ""
	assert.True(t, l.IsForeignCountry(&uae))
	assert.False(t, l.IsForeignCountry(&india))
	assert.False(t, l.IsForeignCountry(&empty))
	assert.False(t, l.IsForeignCountry(nil))
}

func TestParseOverlay(t *testing.T) {
	l, err := Parse([]byte(`
suspicious_terms: [Hawala, crypto, crypto]
domestic_country: Nepal
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"hawala", "crypto"}, l.SuspiciousTerms)
	assert.Equal(t, "Nepal", l.DomesticCountry)
	assert.True(t, l.StopWords.Has("the"), "absent tables keep defaults")
}

func TestStoreReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suspicious_terms: [gold]\n"), 0o644))

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	before := s.Snapshot()
	assert.Equal(t, []string{"gold"}, before.SuspiciousTerms)

	require.NoError(t, os.WriteFile(path, []byte("suspicious_terms: [unterminated\n"), 0o644))
	assert.Error(t, s.Reload())
	assert.Same(t, before, s.Snapshot())

	require.NoError(t, os.WriteFile(path, []byte("suspicious_terms: [gold, silver]\n"), 0o644))
	require.NoError(t, s.Reload())
	assert.Equal(t, []string{"gold", "silver"}, s.Snapshot().SuspiciousTerms)
	assert.Equal(t, []string{"gold"}, before.SuspiciousTerms, "old snapshot is untouched")
}
