package intent

import (
	"testing"
	"time"
)

func TestExtractCutoff(t *testing.T) {
	tests := []struct {
		query string
		want  *TimeOfDay
	}{
		{"after 10 pm", &TimeOfDay{Hour: 22}},
		{"after 10pm", &TimeOfDay{Hour: 22}},
		{"after 12 pm", &TimeOfDay{Hour: 12}},
		{"after 12am", &TimeOfDay{Hour: 0}},
		{"after 9:45 am", &TimeOfDay{Hour: 9, Minute: 45}},
		{"after 21:30", &TimeOfDay{Hour: 21, Minute: 30}},
		{"after 25", &TimeOfDay{Hour: 1}},
		{"after 7:75", &TimeOfDay{Hour: 7, Minute: 59}},
		{"before 10 pm", nil},
		{"after dinner", nil},
	}
	for _, tt := range tests {
		got := extractCutoff(tt.query)
		if tt.want == nil {
			if got != nil {
				t.Errorf("%q: expected no cutoff, got %v", tt.query, got)
			}
			continue
		}
		if got == nil || *got != *tt.want {
			t.Errorf("%q: expected %v, got %v", tt.query, tt.want, got)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	if got := ParseTimeOfDay("10:15 PM"); got == nil || *got != (TimeOfDay{Hour: 22, Minute: 15}) {
		t.Errorf("expected 22:15, got %v", got)
	}
	if got := ParseTimeOfDay("  around 7 "); got == nil || *got != (TimeOfDay{Hour: 7}) {
		t.Errorf("expected 07:00, got %v", got)
	}
	if got := ParseTimeOfDay("late evening"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestTimeOfDayExcludesIsStrict(t *testing.T) {
	cutoff := TimeOfDay{Hour: 22}
	at := func(h, m, s, ns int) time.Time { return time.Date(2024, 3, 1, h, m, s, ns, ist) }

	cases := []struct {
		ts   time.Time
		want bool
	}{
		{at(22, 0, 0, 0), true},
		{at(21, 59, 59, 0), true},
		{at(22, 0, 0, 500), false},
		{at(22, 0, 1, 0), false},
		{at(23, 0, 0, 0), false},
		{at(0, 30, 0, 0), true},
	}
	for _, c := range cases {
		if got := cutoff.Excludes(c.ts.UTC(), ist); got != c.want {
			t.Errorf("%s: expected excluded=%v, got %v", c.ts.Format(time.RFC3339Nano), c.want, got)
		}
	}
}
