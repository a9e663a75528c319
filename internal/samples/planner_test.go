package samples

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/timebase"
)

func newPlanner(t *testing.T, seconds, minValid float64, noise ...partition.Span) *Planner {
	t.Helper()
	mapping, err := timebase.FromDuration(100, seconds)
	require.NoError(t, err)
	return &Planner{
		Store:                partition.NewStore(partition.Domain{Min: mapping.MinTime(), Max: mapping.MaxTime()}),
		Mapping:              mapping,
		Noise:                noise,
		Label:                "sample",
		MinimumValidDuration: minValid,
	}
}

func spans(ws []Window) []partition.Span {
	out := make([]partition.Span, len(ws))
	for i, w := range ws {
		out[i] = partition.Span{Start: w.Start, End: w.End}
	}
	return out
}

func TestPlanByRepetition_NoiseFree(t *testing.T) {
	p := newPlanner(t, 100, 5)

	ws, err := p.PlanByRepetition(0, 10, 5, FixedGap(0))
	require.NoError(t, err)

	want := []partition.Span{{Start: 0, End: 10}, {Start: 10, End: 20}, {Start: 20, End: 30}, {Start: 30, End: 40}, {Start: 40, End: 50}}
	if diff := cmp.Diff(want, spans(ws)); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, p.Store.Spans())
	require.NoError(t, p.Store.Validate())
	for _, w := range ws {
		assert.Equal(t, "sample", w.Interval.Label)
	}
}

func TestPlanByRepetition_SkipsNoisyWindows(t *testing.T) {
	p := newPlanner(t, 100, 8, partition.Span{Start: 15, End: 25})

	ws, err := p.PlanByRepetition(0, 10, 5, FixedGap(0))
	require.NoError(t, err)

	// [10,20] and [20,30] each carry 5s of noise against a 2s budget.
	want := []partition.Span{{Start: 0, End: 10}, {Start: 30, End: 40}, {Start: 40, End: 50}}
	if diff := cmp.Diff(want, spans(ws)); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, p.Store.Len())
}

func TestPlanByRepetition_InsufficientSignal(t *testing.T) {
	p := newPlanner(t, 100, 5)

	ws, err := p.PlanByRepetition(0, 10, 20, FixedGap(0))
	require.ErrorIs(t, err, ErrInsufficientSignalLength)
	assert.Nil(t, ws)
	assert.Equal(t, 0, p.Store.Len())
}

func TestPlanByRepetition_ExactFit(t *testing.T) {
	p := newPlanner(t, 100, 10)

	// Last window starts at 90 and needs 10s: exactly fits.
	ws, err := p.PlanByRepetition(0, 10, 10, FixedGap(0))
	require.NoError(t, err)
	assert.Len(t, ws, 10)
}

func TestPlanByRepetition_ZeroCount(t *testing.T) {
	p := newPlanner(t, 100, 5)

	ws, err := p.PlanByRepetition(0, 10, 0, FixedGap(0))
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestPlanByRepetition_NegativeStartIsClamped(t *testing.T) {
	p := newPlanner(t, 100, 4)

	ws, err := p.PlanByRepetition(-5, 10, 2, FixedGap(0))
	require.NoError(t, err)
	want := []partition.Span{{Start: 0, End: 5}, {Start: 5, End: 15}}
	if diff := cmp.Diff(want, spans(ws)); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanByRepetition_GapStopsPastSignalEnd(t *testing.T) {
	p := newPlanner(t, 100, 5)

	// Fits the fail-fast check (0 + 10*5 + 5 <= 100) but with a 20s gap the
	// later windows run off the end of the signal.
	ws, err := p.PlanByRepetition(0, 10, 6, FixedGap(20))
	require.NoError(t, err)
	want := []partition.Span{{Start: 0, End: 10}, {Start: 30, End: 40}, {Start: 60, End: 70}, {Start: 90, End: 100}}
	if diff := cmp.Diff(want, spans(ws)); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanUntil_OverlapIsClippedByStore(t *testing.T) {
	p := newPlanner(t, 100, 2)

	ws, err := p.PlanUntil(0, 10, 30, OverlapPercent(50))
	require.NoError(t, err)
	require.Len(t, ws, 6)

	// Windows report the span the store kept, not the candidate.
	want := []partition.Span{{Start: 0, End: 10}, {Start: 10, End: 15}, {Start: 15, End: 20}, {Start: 20, End: 25}, {Start: 25, End: 30}, {Start: 30, End: 35}}
	if diff := cmp.Diff(want, spans(ws)); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, p.Store.Spans(), spans(ws))
	for _, w := range ws {
		assert.Equal(t, partition.Span{Start: w.Start, End: w.End}, w.Interval.Span())
	}
	require.NoError(t, p.Store.Validate())
}

func TestPlanUntil_ClippedWindowIsCheckedAgain(t *testing.T) {
	p := newPlanner(t, 100, 8, partition.Span{Start: 12, End: 14})

	ws, err := p.PlanUntil(0, 10, 20, OverlapPercent(50))
	require.NoError(t, err)

	// [5,15] and [15,25] pass as candidates but the store clips them to 5s,
	// below the 8s minimum, so neither is kept.
	want := []partition.Span{{Start: 0, End: 10}, {Start: 10, End: 20}}
	if diff := cmp.Diff(want, spans(ws)); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, p.Store.Spans())
	budget := p.Budget()
	for _, sp := range p.Store.Spans() {
		assert.False(t, budget.TooNoisy(sp.Start, sp.End, p.Noise), "stored %v", sp)
	}
	require.NoError(t, p.Store.Validate())
}

func TestPlanUntil_EndPastSignalIsBounded(t *testing.T) {
	p := newPlanner(t, 100, 5)

	done := make(chan []Window, 1)
	go func() {
		ws, err := p.PlanUntil(0, 10, 1e12, OverlapPercent(0))
		assert.NoError(t, err)
		done <- ws
	}()

	select {
	case ws := <-done:
		assert.Len(t, ws, 10)
	case <-time.After(5 * time.Second):
		t.Fatal("PlanUntil did not stop at the end of the signal")
	}
}

func TestPlanUntilSignalEnd(t *testing.T) {
	p := newPlanner(t, 100, 20)

	ws, err := p.PlanUntilSignalEnd(0, 30, OverlapPercent(0))
	require.NoError(t, err)
	// The fourth window [90,100] is shorter than the minimum valid duration.
	assert.Equal(t, []partition.Span{{Start: 0, End: 30}, {Start: 30, End: 60}, {Start: 60, End: 90}}, spans(ws))
}

func TestPlanUntilSignalEnd_FixedGap(t *testing.T) {
	p := newPlanner(t, 100, 5)

	ws, err := p.PlanUntilSignalEnd(0, 10, FixedGap(5))
	require.NoError(t, err)
	assert.Len(t, ws, 7)
	assert.Equal(t, partition.Span{Start: 90, End: 100}, spans(ws)[6])
}

func TestPlan_SkipsOccupiedSlots(t *testing.T) {
	p := newPlanner(t, 100, 5)
	_, err := p.Store.Insert("sample", 10, 20)
	require.NoError(t, err)

	ws, err := p.Plan(0, 10, FixedCount(3), FixedGap(0))
	require.NoError(t, err)
	assert.Len(t, ws, 2)
	assert.Equal(t, 3, p.Store.Len())
	require.NoError(t, p.Store.Validate())
}

func TestPlan_Dispatch(t *testing.T) {
	for _, rep := range []Repetition{FixedCount(3), UntilTimestamp(30), UntilSignalEnd()} {
		t.Run(rep.Mode.String(), func(t *testing.T) {
			// [30,35] at the end of the signal is too short to keep.
			p := newPlanner(t, 35, 6)
			ws, err := p.Plan(0, 10, rep, FixedGap(0))
			require.NoError(t, err)
			assert.Len(t, ws, 3)
		})
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	p := newPlanner(t, 100, 5)

	tests := []struct {
		name string
		run  func() error
	}{
		{"zero duration", func() error { _, err := p.PlanByRepetition(0, 0, 1, FixedGap(0)); return err }},
		{"negative count", func() error { _, err := p.PlanByRepetition(0, 10, -1, FixedGap(0)); return err }},
		{"full overlap", func() error { _, err := p.PlanUntil(0, 10, 50, OverlapPercent(100)); return err }},
		{"negative gap", func() error { _, err := p.PlanUntil(0, 10, 50, FixedGap(-1)); return err }},
		{"nan start", func() error { _, err := p.PlanByRepetition(math.NaN(), 10, 1, FixedGap(0)); return err }},
		{"inf start", func() error { _, err := p.PlanUntilSignalEnd(math.Inf(-1), 10, OverlapPercent(0)); return err }},
		{"inf until", func() error { _, err := p.PlanUntil(0, 10, math.Inf(1), OverlapPercent(0)); return err }},
		{"nan until", func() error { _, err := p.Plan(0, 10, UntilTimestamp(math.NaN()), FixedGap(0)); return err }},
		{"unknown repetition", func() error { _, err := p.Plan(0, 10, Repetition{Mode: 9}, FixedGap(0)); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.run(), ErrInvalidPlan)
		})
	}
	assert.Equal(t, 0, p.Store.Len())
}
