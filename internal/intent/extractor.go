package intent

import (
	"strings"
	"time"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
)

// Extractor derives Criteria from query text. It reads one lexicon snapshot
// and interprets naive dates in loc.
type Extractor struct {
	lex *lexicon.Lexicon
	loc *time.Location
	now func() time.Time
}

// NewExtractor creates an extractor. A nil loc means UTC and a nil clock
// means time.Now.
func NewExtractor(lex *lexicon.Lexicon, loc *time.Location, now func() time.Time) *Extractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{lex: lex, loc: loc, now: now}
}

// Location returns the local timezone used for dates and time cutoffs
func (e *Extractor) Location() *time.Location { return e.loc }

// Lexicon returns the snapshot this extractor reads
func (e *Extractor) Lexicon() *lexicon.Lexicon { return e.lex }

// Extract builds the heuristic criteria for query. contacts is the directory
// loaded for this request; limit <= 0 means DefaultLimit.
func (e *Extractor) Extract(query string, contacts []db.Contact, limit int) *Criteria {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := strings.ToLower(query)

	c := &Criteria{
		PersonIDs:     DetectPersons(q, contacts),
		ForeignOnly:   e.lex.ForeignTerms.AnySubstring(q),
		FlaggedTerms:  e.lex.SuspiciousIn(q),
		TimeCutoff:    extractCutoff(q),
		DateRange:     e.extractDateRange(query),
		Limit:         limit,
		LocationLimit: limit,
	}
	c.TopicTerms = e.TopicTerms(q, c.FlaggedTerms, PersonTokens(c.PersonIDs, contacts))

	words := strings.Fields(q)
	c.IncludeLocations = e.lex.LocationTerms.AnyToken(words) || strings.Contains(q, "location")
	c.IncludeCalls = e.lex.CallTerms.AnyToken(words) || strings.Contains(q, "call")
	c.IncludeGraph = e.lex.GraphTerms.AnyToken(words)
	// messages is the fallback category
	c.IncludeMessages = e.lex.MessageTerms.AnyToken(words) || (!c.IncludeCalls && !c.IncludeLocations)
	c.EnsureCategory()

	return c
}

// TopicTerms extracts content keywords from the lowercased query: alphanumeric
// runs of three or more characters plus the given suspicious terms, minus
// stop words, foreign/location/call/graph keywords and exclude.
func (e *Extractor) TopicTerms(queryLower string, suspicious []string, exclude lexicon.Set) lexicon.Set {
	terms := lexicon.NewSet(termRe.FindAllString(queryLower, -1)...)
	for _, s := range suspicious {
		terms[s] = struct{}{}
	}
	for t := range terms {
		if e.lex.IsStopWord(t) || e.lex.IsCategoryKeyword(t) || exclude.Has(t) {
			delete(terms, t)
		}
	}
	return terms
}

// PersonTokens returns the union of contact tokens for the given ids
func PersonTokens(ids map[int64]struct{}, contacts []db.Contact) lexicon.Set {
	tokens := make(lexicon.Set)
	if len(ids) == 0 {
		return tokens
	}
	for i := range contacts {
		if _, ok := ids[contacts[i].ID]; !ok {
			continue
		}
		for t := range ContactTokens(&contacts[i]) {
			tokens[t] = struct{}{}
		}
	}
	return tokens
}
