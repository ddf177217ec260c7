package retrieval

import (
	"strings"
	"time"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/intent"
	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
)

// recordFilter is the in-memory filter chain applied after the store read:
// date range re-check, strict time cutoff, then foreign-only.
type recordFilter struct {
	dateRange   intent.DateRange
	cutoff      *intent.TimeOfDay
	loc         *time.Location
	foreignOnly bool
	lex         *lexicon.Lexicon
	dir         *Directory
}

func (f recordFilter) admits(ts time.Time, participants ...*int64) bool {
	if !f.dateRange.Contains(ts) {
		return false
	}
	if f.cutoff != nil && f.cutoff.Excludes(ts, f.loc) {
		return false
	}
	if f.foreignOnly && !f.anyForeign(participants) {
		return false
	}
	return true
}

func (f recordFilter) anyForeign(participants []*int64) bool {
	for _, id := range participants {
		if c := f.dir.Lookup(id); c != nil && f.lex.IsForeignCountry(c.Country) {
			return true
		}
	}
	return false
}

// contentTerms is the topic set for content containment; empty tokens mean
// no content filter. Suspicious terms always join a non-empty set.
func contentTerms(tokens lexicon.Set, lex *lexicon.Lexicon) []string {
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, len(tokens)+len(lex.SuspiciousTerms))
	for t := range tokens {
		terms = append(terms, t)
	}
	for _, t := range lex.SuspiciousTerms {
		if !tokens.Has(t) {
			terms = append(terms, t)
		}
	}
	return terms
}

func containsAny(content string, terms []string) bool {
	lower := strings.ToLower(content)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func window(c *intent.Criteria) db.Window {
	return db.Window{Start: c.DateRange.Start, End: c.DateRange.End, PersonIDs: c.PersonIDList()}
}
