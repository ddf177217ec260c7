package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	lastNRe    = regexp.MustCompile(`last\s+(\d+)\s+(day|days|week|weeks|month|months)`)
	betweenRe  = regexp.MustCompile(`(?:between|from)\s+([\w\s,/-]+?)\s+(?:and|to)\s+([\w\s,/-]+)`)
	timeOnlyRe = regexp.MustCompile(`^(?:after|before|around|at)?\s*\d{1,2}(?::\d{2}\s*(?:am|pm)?|\s*(?:am|pm))$`)
	isoDateRe  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	weekdayRe  = regexp.MustCompile(`\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues?|wed|thu(?:rs?)?|fri|sat|sun)\b`)

	// abbreviations that read as ordinary words in a query ("sat phone")
	noiseFragments = map[string]bool{
		"me": true, "yo": true, "tu": true, "il": true,
		"sat": true, "mon": true, "sun": true, "wed": true,
	}
)

// maxLookbackDays bounds "last N units"
const maxLookbackDays = 100 * 365

// naturalDates is shared; the parser keeps no per-call state.
var naturalDates = sync.OnceValue(func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
})

// extractDateRange applies the date rules in order; the first rule whose
// pattern matches decides, even when its fragments fail to parse.
func (e *Extractor) extractDateRange(query string) DateRange {
	text := strings.ToLower(query)
	now := e.now().In(e.loc)

	if m := lastNRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > maxLookbackDays {
			n = maxLookbackDays
		}
		days := n
		switch {
		case strings.HasPrefix(m[2], "week"):
			days = n * 7
		case strings.HasPrefix(m[2], "month"):
			days = n * 30
		}
		days = min(days, maxLookbackDays)
		start := now.AddDate(0, 0, -days)
		return Normalize(&start, &now, e.loc)
	}

	if m := betweenRe.FindStringSubmatch(text); m != nil {
		first := e.ParseDateFragment(m[1])
		second := e.ParseDateFragment(m[2])
		return Normalize(first, second, e.loc)
	}

	dates := e.scanDates(text)
	switch len(dates) {
	case 0:
		return DateRange{}
	case 1:
		return Normalize(&dates[0], &dates[0], e.loc)
	default:
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		return Normalize(&dates[0], &dates[len(dates)-1], e.loc)
	}
}

// ParseDateFragment parses one free-form date ("2024-03-01", "march 5 2024",
// "yesterday"). Returns nil when nothing usable is found.
func (e *Extractor) ParseDateFragment(fragment string) *time.Time {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}
	if t, err := dateparse.ParseIn(fragment, e.loc); err == nil {
		return &t
	}
	now := e.now().In(e.loc)
	r, err := naturalDates().Parse(fragment, now)
	if err != nil || r == nil || ignoredFragment(r.Text) {
		return nil
	}
	t := pastWeekday(r.Text, r.Time, now)
	return &t
}

// pastWeekday moves a bare weekday that resolved to a future day back one
// week; evidence is never in the future.
func pastWeekday(fragment string, t, now time.Time) time.Time {
	if !weekdayRe.MatchString(strings.ToLower(fragment)) {
		return t
	}
	for startOfDay(t).After(startOfDay(now)) {
		t = t.AddDate(0, 0, -7)
	}
	return t
}

// scanDates collects every date phrase in text, skipping pure times of day
// and short noise matches.
func (e *Extractor) scanDates(text string) []time.Time {
	var dates []time.Time

	for _, loc := range isoDateRe.FindAllStringIndex(text, -1) {
		if t, err := dateparse.ParseIn(text[loc[0]:loc[1]], e.loc); err == nil {
			dates = append(dates, t)
		}
	}
	rest := isoDateRe.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})

	base := e.now().In(e.loc)
	parser := naturalDates()
	for rest != "" {
		r, err := parser.Parse(rest, base)
		if err != nil || r == nil {
			break
		}
		if !ignoredFragment(r.Text) {
			dates = append(dates, pastWeekday(r.Text, r.Time, base))
		}
		next := r.Index + len(r.Text)
		if next <= 0 || next > len(rest) {
			break
		}
		rest = rest[next:]
	}
	return dates
}

func ignoredFragment(fragment string) bool {
	snippet := strings.ToLower(strings.Trim(fragment, " \t\r\n.,;:!?()\"'"))
	if len(snippet) <= 2 || noiseFragments[snippet] {
		return true
	}
	return timeOnlyRe.MatchString(snippet)
}

// Normalize builds a UTC range from optional local bounds. A lone bound is
// mirrored, inverted bounds are swapped, and the range is widened to whole
// local days.
func Normalize(start, end *time.Time, loc *time.Location) DateRange {
	if start == nil && end == nil {
		return DateRange{}
	}
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	s, f := start.In(loc), end.In(loc)
	if startOfDay(s).After(startOfDay(f)) {
		s, f = f, s
	}
	lo := startOfDay(s).UTC()
	hi := time.Date(f.Year(), f.Month(), f.Day(), 23, 59, 59, 999999000, loc).UTC()
	return DateRange{Start: &lo, End: &hi}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
