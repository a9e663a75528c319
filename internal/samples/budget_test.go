package samples

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/physiolabel/annotate/internal/partition"
)

func TestNoiseOverlap_Cases(t *testing.T) {
	tests := []struct {
		name  string
		noise []partition.Span
		want  float64
	}{
		{"none", nil, 0},
		{"before window", []partition.Span{{Start: 0, End: 5}}, 0},
		{"after window", []partition.Span{{Start: 25, End: 30}}, 0},
		{"touching edges", []partition.Span{{Start: 5, End: 10}, {Start: 20, End: 30}}, 0},
		{"starts inside", []partition.Span{{Start: 15, End: 25}}, 5},
		{"ends inside", []partition.Span{{Start: 5, End: 12}}, 2},
		{"fully inside", []partition.Span{{Start: 12, End: 14}}, 2},
		{"fully inside flush with edges", []partition.Span{{Start: 10, End: 20}}, 10},
		{"covers window", []partition.Span{{Start: 0, End: 30}}, 10},
		{"several", []partition.Span{{Start: 5, End: 11}, {Start: 13, End: 14}, {Start: 19, End: 40}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NoiseOverlap(10, 20, tt.noise), 1e-12)
		})
	}
}

func TestBudget_TooNoisy(t *testing.T) {
	b := Budget{MinimumValidDuration: 8, SignalEnd: 100}

	assert.False(t, b.TooNoisy(0, 10, nil))
	assert.False(t, b.TooNoisy(0, 10, []partition.Span{{Start: 8, End: 10}}), "2s of noise is exactly the budget")
	assert.True(t, b.TooNoisy(0, 10, []partition.Span{{Start: 7.5, End: 10}}))
	assert.True(t, b.TooNoisy(10, 20, []partition.Span{{Start: 15, End: 25}}))
}

func TestBudget_ShortWindowIsRejected(t *testing.T) {
	b := Budget{MinimumValidDuration: 8, SignalEnd: 100}

	assert.True(t, b.TooNoisy(0, 5, nil))
	// Clipped to the signal end first: [95, 100] is only 5s long.
	assert.True(t, b.TooNoisy(95, 105, nil))
	assert.False(t, b.TooNoisy(90, 105, nil))
}
