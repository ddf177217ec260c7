package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	afterTimeRe = regexp.MustCompile(`after\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	clockRe     = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
)

// extractCutoff finds an "after H[:MM][am|pm]" clause in the lowercased query
func extractCutoff(queryLower string) *TimeOfDay {
	m := afterTimeRe.FindStringSubmatch(queryLower)
	if m == nil {
		return nil
	}
	return toTimeOfDay(m[1], m[2], m[3])
}

// ParseTimeOfDay reads the first clock time in s ("10pm", "22:15", "9:30 am").
// Returns nil when s holds no time.
func ParseTimeOfDay(s string) *TimeOfDay {
	m := clockRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return nil
	}
	return toTimeOfDay(m[1], m[2], m[3])
}

func toTimeOfDay(hourText, minuteText, meridiem string) *TimeOfDay {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return nil
	}
	minute := 0
	if minuteText != "" {
		minute, _ = strconv.Atoi(minuteText)
	}
	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	hour %= 24
	if minute > 59 {
		minute = 59
	}
	return &TimeOfDay{Hour: hour, Minute: minute}
}
