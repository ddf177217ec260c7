package engine

import (
	"fmt"
	"sort"
	"strings"
)

// FallbackSummary is returned when no evidence category produced anything
const FallbackSummary = "No direct matches found in current dataset. Try adjusting the timeframe or rerunning ingestion."

// ComposeSummary concatenates, in fixed order, the flagged terms, the three
// category counts and the first graph insight, skipping empty parts.
func ComposeSummary(flagged []string, messages, calls, locations int, graphInsights []string) string {
	var parts []string
	if terms := sortedUnique(flagged); len(terms) > 0 {
		parts = append(parts, "Flagged terms: "+strings.Join(terms, ", "))
	}
	if messages > 0 {
		parts = append(parts, fmt.Sprintf("Found %d relevant message(s).", messages))
	}
	if calls > 0 {
		parts = append(parts, fmt.Sprintf("Identified %d matching call(s).", calls))
	}
	if locations > 0 {
		parts = append(parts, fmt.Sprintf("Collected %d location record(s).", locations))
	}
	if len(graphInsights) > 0 {
		parts = append(parts, "Graph highlights: "+graphInsights[0])
	}
	if len(parts) == 0 {
		return FallbackSummary
	}
	return strings.Join(parts, " ")
}

func sortedUnique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
