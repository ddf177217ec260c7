package intent

import (
	"regexp"
	"strings"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
)

// minPhoneDigits is the shortest digits-only phone that counts as a token
const minPhoneDigits = 6

var (
	termRe    = regexp.MustCompile(`[a-z0-9]{3,}`)
	nonDigits = regexp.MustCompile(`\D`)
)

// ContactTokens is the set of strings that identify a contact in a query:
// the lowercase full name, name parts of at least three characters, the
// phone literal and its digits-only form.
func ContactTokens(c *db.Contact) lexicon.Set {
	tokens := make(lexicon.Set)
	if c == nil {
		return tokens
	}
	if c.Name != "" {
		lowered := strings.ToLower(c.Name)
		tokens[lowered] = struct{}{}
		for _, part := range strings.Fields(lowered) {
			if len(part) >= 3 {
				tokens[part] = struct{}{}
			}
		}
	}
	if c.Phone != "" {
		phone := strings.ToLower(c.Phone)
		tokens[phone] = struct{}{}
		if digits := nonDigits.ReplaceAllString(phone, ""); len(digits) >= minPhoneDigits {
			tokens[digits] = struct{}{}
		}
	}
	return tokens
}

// DetectPersons returns the contacts with any token occurring in the
// lowercased query.
func DetectPersons(queryLower string, contacts []db.Contact) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for i := range contacts {
		for token := range ContactTokens(&contacts[i]) {
			if token != "" && strings.Contains(queryLower, token) {
				ids[contacts[i].ID] = struct{}{}
				break
			}
		}
	}
	return ids
}

// MatchContactsByName resolves free-form names to contacts. Each name becomes
// a token set of its alphanumeric runs plus the whole lowercased name; a
// contact matches when any of those sets intersects its own tokens.
func MatchContactsByName(names []string, contacts []db.Contact) map[int64]struct{} {
	var targets []lexicon.Set
	for _, name := range names {
		lowered := strings.ToLower(strings.TrimSpace(name))
		if lowered == "" {
			continue
		}
		set := lexicon.NewSet(termRe.FindAllString(lowered, -1)...)
		set[lowered] = struct{}{}
		targets = append(targets, set)
	}

	matched := make(map[int64]struct{})
	if len(targets) == 0 {
		return matched
	}
	for i := range contacts {
		tokens := ContactTokens(&contacts[i])
		if len(tokens) == 0 {
			continue
		}
		for _, target := range targets {
			if intersects(target, tokens) {
				matched[contacts[i].ID] = struct{}{}
				break
			}
		}
	}
	return matched
}

func intersects(a, b lexicon.Set) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for t := range a {
		if b.Has(t) {
			return true
		}
	}
	return false
}
