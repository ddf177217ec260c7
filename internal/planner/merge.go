package planner

import (
	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/intent"
)

// Merge applies p on top of the heuristic criteria in a single pass.
// Unset or unparseable plan fields leave the heuristic value untouched.
//   - category booleans replace the heuristic value only when set
//   - ForeignOnly can only switch the filter on
//   - person names and topics are unioned, never subtracted
//   - date fragments are reparsed individually; a parsed fragment replaces
//     its bound and the range is renormalized
func Merge(c *intent.Criteria, p *Plan, contacts []db.Contact, ex *intent.Extractor) {
	if c == nil || p == nil {
		return
	}

	if p.IncludeMessages.IsSet() {
		c.IncludeMessages = p.IncludeMessages.Bool()
	}
	if p.IncludeCalls.IsSet() {
		c.IncludeCalls = p.IncludeCalls.Bool()
	}
	if p.IncludeLocations.IsSet() {
		c.IncludeLocations = p.IncludeLocations.Bool()
	}
	if p.IncludeGraph.IsSet() {
		c.IncludeGraph = p.IncludeGraph.Bool()
	}
	if p.ForeignOnly == True {
		c.ForeignOnly = true
	}

	if len(p.PersonNames) > 0 {
		if c.PersonIDs == nil {
			c.PersonIDs = make(map[int64]struct{})
		}
		for id := range intent.MatchContactsByName(p.PersonNames, contacts) {
			c.PersonIDs[id] = struct{}{}
		}
	}
	if len(p.Topics) > 0 {
		if c.TopicTerms == nil {
			c.TopicTerms = make(map[string]struct{})
		}
		for _, topic := range p.Topics {
			c.TopicTerms[topic] = struct{}{}
		}
	}

	if p.ResultLimit > 0 {
		c.Limit = max(1, p.ResultLimit)
		c.LocationLimit = c.Limit
	}
	if p.LocationLimit > 0 {
		c.LocationLimit = max(1, p.LocationLimit)
	}

	if p.StartDate != "" || p.EndDate != "" {
		var start, end = c.DateRange.Start, c.DateRange.End
		var parsed bool
		if p.StartDate != "" {
			if t := ex.ParseDateFragment(p.StartDate); t != nil {
				start, parsed = t, true
			}
		}
		if p.EndDate != "" {
			if t := ex.ParseDateFragment(p.EndDate); t != nil {
				end, parsed = t, true
			}
		}
		if parsed {
			c.DateRange = intent.Normalize(start, end, ex.Location())
		}
	}

	if p.TimeAfter != "" {
		if cutoff := intent.ParseTimeOfDay(p.TimeAfter); cutoff != nil {
			c.TimeCutoff = cutoff
		}
	}

	c.EnsureCategory()
}
