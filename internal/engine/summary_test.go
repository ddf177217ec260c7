package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeSummary(t *testing.T) {
	tests := []struct {
		name    string
		flagged []string
		m, c, l int
		graph   []string
		want    string
	}{
		{"nothing", nil, 0, 0, 0, nil, FallbackSummary},
		{"flagged only", []string{"wallet", "btc", "wallet"}, 0, 0, 0, nil, "Flagged terms: btc, wallet"},
		{"all parts", []string{"crypto"}, 2, 1, 3, []string{"Raj connects to Omar", "ignored"},
			"Flagged terms: crypto Found 2 relevant message(s). Identified 1 matching call(s). " +
				"Collected 3 location record(s). Graph highlights: Raj connects to Omar"},
		{"calls only", nil, 0, 4, 0, nil, "Identified 4 matching call(s)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeSummary(tt.flagged, tt.m, tt.c, tt.l, tt.graph))
		})
	}
}
