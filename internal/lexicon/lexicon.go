// Package lexicon holds the keyword tables that drive query interpretation:
// stop words, per-category keyword sets, foreign indicators and the
// suspicious-topic list. A Lexicon is never mutated after construction;
// reloads swap in a fresh value.
package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is a lowercase term set
type Set map[string]struct{}

// NewSet builds a set from terms, lowercasing and trimming each
func NewSet(terms ...string) Set {
	s := make(Set, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Has reports membership
func (s Set) Has(term string) bool {
	_, ok := s[term]
	return ok
}

// AnyToken reports whether any of tokens is in the set
func (s Set) AnyToken(tokens []string) bool {
	for _, t := range tokens {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// AnySubstring reports whether any member occurs inside text
func (s Set) AnySubstring(text string) bool {
	for t := range s {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// Lexicon is the immutable keyword configuration for one process (or one
// reload generation).
type Lexicon struct {
	StopWords     Set
	LocationTerms Set
	CallTerms     Set
	MessageTerms  Set
	GraphTerms    Set
	ForeignTerms  Set

	// SuspiciousTerms keeps configured order; it is reported in that order.
	SuspiciousTerms []string

	// DomesticCountry is the country value that does not count as foreign.
	DomesticCountry string
}

// Default returns the built-in tables
func Default() *Lexicon {
	return &Lexicon{
		StopWords: NewSet(
			"the", "a", "an", "is", "are", "to", "for", "about", "show", "me", "list", "of",
			"any", "there", "where", "what", "which", "who", "when", "and", "or", "with", "from",
			"last", "day", "days", "week", "weeks", "month", "months", "information", "info",
			"messages", "message", "calls", "call", "person", "people", "contact", "contacts",
			"location", "locations", "visit", "visited", "on", "in", "after", "before", "between",
			"range", "today", "yesterday", "recent", "recently", "this", "that", "these", "those",
			"someone", "anyone", "everyone", "tell", "give", "details", "report",
		),
		LocationTerms:   NewSet("location", "locations", "visit", "visited", "where", "travel", "movement", "route"),
		CallTerms:       NewSet("call", "called", "spoke", "dial", "conversation"),
		MessageTerms:    NewSet("message", "messages", "chat", "text", "information", "topic", "note"),
		GraphTerms:      NewSet("connection", "connections", "network", "relationship", "link"),
		ForeignTerms:    NewSet("foreign", "international", "non-indian", "overseas"),
		SuspiciousTerms: []string{"btc", "bitcoin", "wallet", "crypto", "transfer", "cash", "broker"},
		DomesticCountry: "India",
	}
}

// SuspiciousIn returns the configured suspicious terms that occur in text,
// in configured order.
func (l *Lexicon) SuspiciousIn(text string) []string {
	var found []string
	for _, term := range l.SuspiciousTerms {
		if strings.Contains(text, term) {
			found = append(found, term)
		}
	}
	return found
}

// IsStopWord reports whether term carries no topic on its own
func (l *Lexicon) IsStopWord(term string) bool { return l.StopWords.Has(term) }

// IsCategoryKeyword reports whether term is a foreign, location, call or graph
// keyword. Message keywords are not included: they may be legitimate topics.
func (l *Lexicon) IsCategoryKeyword(term string) bool {
	return l.ForeignTerms.Has(term) || l.LocationTerms.Has(term) ||
		l.CallTerms.Has(term) || l.GraphTerms.Has(term)
}

// IsForeignCountry reports whether a participant country counts as foreign.
// Unknown (nil or empty) countries never do.
func (l *Lexicon) IsForeignCountry(country *string) bool {
	if country == nil || *country == "" {
		return false
	}
	return *country != l.DomesticCountry
}

type fileFormat struct {
	StopWords       []string `yaml:"stop_words"`
	LocationTerms   []string `yaml:"location_terms"`
	CallTerms       []string `yaml:"call_terms"`
	MessageTerms    []string `yaml:"message_terms"`
	GraphTerms      []string `yaml:"graph_terms"`
	ForeignTerms    []string `yaml:"foreign_terms"`
	SuspiciousTerms []string `yaml:"suspicious_terms"`
	DomesticCountry string   `yaml:"domestic_country"`
}

// Load reads a YAML overlay. Each list present in the file replaces the
// corresponding default table; absent lists keep the defaults.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML overlay on top of Default()
func Parse(data []byte) (*Lexicon, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	l := Default()
	overlay := func(dst *Set, src []string) {
		if src != nil {
			*dst = NewSet(src...)
		}
	}
	overlay(&l.StopWords, f.StopWords)
	overlay(&l.LocationTerms, f.LocationTerms)
	overlay(&l.CallTerms, f.CallTerms)
	overlay(&l.MessageTerms, f.MessageTerms)
	overlay(&l.GraphTerms, f.GraphTerms)
	overlay(&l.ForeignTerms, f.ForeignTerms)
	if f.SuspiciousTerms != nil {
		terms := make([]string, 0, len(f.SuspiciousTerms))
		seen := make(map[string]bool, len(f.SuspiciousTerms))
		for _, t := range f.SuspiciousTerms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			terms = append(terms, t)
		}
		l.SuspiciousTerms = terms
	}
	if f.DomesticCountry != "" {
		l.DomesticCountry = f.DomesticCountry
	}
	return l, nil
}
