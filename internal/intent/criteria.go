// Package intent turns free-text investigative queries into filter criteria
// using deterministic keyword and pattern heuristics.
package intent

import (
	"fmt"
	"sort"
	"time"

	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
)

// DefaultLimit is the per-category result limit when none is given
const DefaultLimit = 5

// TimeOfDay is a local wall-clock cutoff
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Excludes reports whether ts falls at or before the cutoff in loc.
// The boundary is strict: a timestamp exactly at the cutoff is excluded.
func (t TimeOfDay) Excludes(ts time.Time, loc *time.Location) bool {
	local := ts.In(loc)
	secs := local.Hour()*3600 + local.Minute()*60 + local.Second()
	cutoff := t.Hour*3600 + t.Minute*60
	if secs != cutoff {
		return secs < cutoff
	}
	return local.Nanosecond() == 0
}

// DateRange is an inclusive UTC range; nil bounds are open
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports an unrestricted range
func (r DateRange) IsZero() bool { return r.Start == nil && r.End == nil }

// Contains checks ts against both bounds inclusively
func (r DateRange) Contains(ts time.Time) bool {
	if r.Start != nil && ts.Before(*r.Start) {
		return false
	}
	if r.End != nil && ts.After(*r.End) {
		return false
	}
	return true
}

// Criteria is the structured form of one query. It is built by the
// extractor, adjusted once by the plan merger and then only read.
type Criteria struct {
	PersonIDs  map[int64]struct{}
	DateRange  DateRange
	TimeCutoff *TimeOfDay
	TopicTerms lexicon.Set

	ForeignOnly      bool
	IncludeMessages  bool
	IncludeCalls     bool
	IncludeLocations bool
	IncludeGraph     bool

	// Limit applies to messages, calls and graph insights
	Limit         int
	LocationLimit int

	// FlaggedTerms are the suspicious terms found in the query text
	FlaggedTerms []string
}

// PersonIDList returns the person ids in ascending order
func (c *Criteria) PersonIDList() []int64 {
	ids := make([]int64, 0, len(c.PersonIDs))
	for id := range c.PersonIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Topics returns the topic terms sorted
func (c *Criteria) Topics() []string {
	out := make([]string, 0, len(c.TopicTerms))
	for t := range c.TopicTerms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// EnsureCategory forces messages on when no evidence category is enabled.
// Graph alone does not count.
func (c *Criteria) EnsureCategory() {
	if !c.IncludeMessages && !c.IncludeCalls && !c.IncludeLocations {
		c.IncludeMessages = true
	}
}
