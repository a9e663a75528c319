// Package samples carves a recording's timeline into fixed-duration sample
// windows, skipping windows that would carry too much noise.
package samples

import (
	"errors"
	"fmt"
	"math"

	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/timebase"
)

var (
	// ErrInsufficientSignalLength is returned when a fixed-count run cannot
	// fit in the recording. Nothing is inserted.
	ErrInsufficientSignalLength = errors.New("insufficient signal length")

	// ErrInvalidPlan is returned for a malformed duration, count or spacing.
	ErrInvalidPlan = errors.New("invalid sample plan")
)

// RepetitionMode selects how many windows a plan generates.
type RepetitionMode int

const (
	RepeatCount RepetitionMode = iota
	RepeatUntil
	RepeatSignalEnd
)

func (m RepetitionMode) String() string {
	switch m {
	case RepeatCount:
		return "count"
	case RepeatUntil:
		return "until"
	case RepeatSignalEnd:
		return "signal_end"
	default:
		return fmt.Sprintf("RepetitionMode(%d)", int(m))
	}
}

// Repetition is one of FixedCount, UntilTimestamp or UntilSignalEnd.
type Repetition struct {
	Mode  RepetitionMode
	Count int
	Until float64
}

// FixedCount generates n windows.
func FixedCount(n int) Repetition { return Repetition{Mode: RepeatCount, Count: n} }

// UntilTimestamp generates windows while their start is before t.
func UntilTimestamp(t float64) Repetition { return Repetition{Mode: RepeatUntil, Until: t} }

// UntilSignalEnd generates windows while their start is before the last sample.
func UntilSignalEnd() Repetition { return Repetition{Mode: RepeatSignalEnd} }

// SpacingMode selects how consecutive windows are placed.
type SpacingMode int

const (
	SpaceOverlap SpacingMode = iota
	SpaceGap
)

func (m SpacingMode) String() string {
	switch m {
	case SpaceOverlap:
		return "overlap"
	case SpaceGap:
		return "gap"
	default:
		return fmt.Sprintf("SpacingMode(%d)", int(m))
	}
}

// Spacing is either OverlapPercent or FixedGap, never both.
type Spacing struct {
	Mode           SpacingMode
	OverlapPercent float64
	Gap            float64
}

// OverlapPercent advances each window by duration * (1 - p/100).
func OverlapPercent(p float64) Spacing { return Spacing{Mode: SpaceOverlap, OverlapPercent: p} }

// FixedGap advances each window by duration + g.
func FixedGap(g float64) Spacing { return Spacing{Mode: SpaceGap, Gap: g} }

func (sp Spacing) validate() error {
	switch sp.Mode {
	case SpaceOverlap:
		if math.IsNaN(sp.OverlapPercent) || sp.OverlapPercent < 0 || sp.OverlapPercent >= 100 {
			return fmt.Errorf("%w: overlap percent must be in [0, 100), got %v", ErrInvalidPlan, sp.OverlapPercent)
		}
	case SpaceGap:
		if math.IsNaN(sp.Gap) || sp.Gap < 0 {
			return fmt.Errorf("%w: gap must be non-negative, got %v", ErrInvalidPlan, sp.Gap)
		}
	default:
		return fmt.Errorf("%w: unknown spacing %v", ErrInvalidPlan, sp.Mode)
	}
	return nil
}

func (sp Spacing) advance(start, duration float64) float64 {
	if sp.Mode == SpaceGap {
		return start + duration + sp.Gap
	}
	return start + duration*(1-sp.OverlapPercent/100)
}

// Window is an accepted window. Start and End are the span actually
// registered in the target store, which may be shorter than the candidate
// when it was clipped against windows already there.
type Window struct {
	Start    float64
	End      float64
	Interval *partition.Interval
}

// Planner generates sample windows for one "add samples" action and
// registers the accepted ones in Store. It is discarded afterwards.
type Planner struct {
	Store   *partition.Store
	Mapping timebase.Mapping

	// Noise is a read-only snapshot of the noise collection.
	Noise []partition.Span

	Label                string
	MinimumValidDuration float64
}

// Budget returns the noise budget the planner applies to each window.
func (p *Planner) Budget() Budget {
	return Budget{MinimumValidDuration: p.MinimumValidDuration, SignalEnd: p.Mapping.MaxTime()}
}

// Plan dispatches on the repetition mode.
func (p *Planner) Plan(start, duration float64, rep Repetition, spacing Spacing) ([]Window, error) {
	switch rep.Mode {
	case RepeatCount:
		return p.PlanByRepetition(start, duration, rep.Count, spacing)
	case RepeatUntil:
		return p.PlanUntil(start, duration, rep.Until, spacing)
	case RepeatSignalEnd:
		return p.PlanUntilSignalEnd(start, duration, spacing)
	default:
		return nil, fmt.Errorf("%w: unknown repetition %v", ErrInvalidPlan, rep.Mode)
	}
}

// PlanByRepetition generates count windows of duration seconds starting at
// start. The whole run must fit before anything is inserted.
func (p *Planner) PlanByRepetition(start, duration float64, count int, spacing Spacing) ([]Window, error) {
	if err := p.validate(start, duration, spacing); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be non-negative, got %d", ErrInvalidPlan, count)
	}
	if count == 0 {
		return nil, nil
	}

	signalEnd := p.Mapping.MaxTime()
	if need := start + duration*float64(count-1) + p.MinimumValidDuration; need > signalEnd {
		opsf("rejecting %d x %.3fs from %.3f: needs %.3fs, signal ends at %.3f", count, duration, start, need, signalEnd)
		return nil, fmt.Errorf("%d windows of %.3fs from %.3f need %.3fs, signal ends at %.3f: %w",
			count, duration, start, need, signalEnd, ErrInsufficientSignalLength)
	}

	return p.run(start, duration, spacing, func(i int, _ float64) bool { return i < count }), nil
}

// PlanUntil generates windows while their start is before end. An end past
// the last sample is treated as the last sample.
func (p *Planner) PlanUntil(start, duration, end float64, spacing Spacing) ([]Window, error) {
	if err := p.validate(start, duration, spacing); err != nil {
		return nil, err
	}
	if !finite(end) {
		return nil, fmt.Errorf("%w: until must be finite, got %v", ErrInvalidPlan, end)
	}
	end = math.Min(end, p.Mapping.MaxTime())
	return p.run(start, duration, spacing, func(_ int, s float64) bool { return s < end }), nil
}

// PlanUntilSignalEnd is PlanUntil with end at the last valid sample.
func (p *Planner) PlanUntilSignalEnd(start, duration float64, spacing Spacing) ([]Window, error) {
	return p.PlanUntil(start, duration, p.Mapping.MaxTime(), spacing)
}

func (p *Planner) validate(start, duration float64, spacing Spacing) error {
	if p.Store == nil || p.Mapping == nil {
		return fmt.Errorf("%w: planner needs a store and a mapping", ErrInvalidPlan)
	}
	if !finite(start) {
		return fmt.Errorf("%w: start must be finite, got %v", ErrInvalidPlan, start)
	}
	if !finite(duration) || duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidPlan, duration)
	}
	if math.IsNaN(p.MinimumValidDuration) || p.MinimumValidDuration < 0 {
		return fmt.Errorf("%w: minimum valid duration must be non-negative, got %v", ErrInvalidPlan, p.MinimumValidDuration)
	}
	return spacing.validate()
}

// run walks candidate windows while more reports true. Noisy windows and
// windows the store cannot place are skipped, never shifted or retried. A
// window clipped by the store is checked again at its stored length.
func (p *Planner) run(start, duration float64, spacing Spacing, more func(i int, start float64) bool) []Window {
	signalEnd := p.Mapping.MaxTime()
	budget := p.Budget()

	var out []Window
	for i := 0; more(i, start); i++ {
		ws := math.Max(start, 0)
		we := math.Min(start+duration, signalEnd)

		if budget.TooNoisy(ws, we, p.Noise) {
			diagf("skip noisy window %d [%.3f, %.3f]", i, ws, we)
		} else if iv, err := p.Store.Insert(p.Label, ws, we); err != nil {
			diagf("skip window %d [%.3f, %.3f]: %v", i, ws, we, err)
		} else if budget.TooNoisy(iv.Start, iv.End, p.Noise) {
			diagf("skip window %d [%.3f, %.3f]: clipped to %s", i, ws, we, iv)
			if err := p.Store.Delete(iv); err != nil {
				opsf("drop clipped window %s: %v", iv, err)
			}
		} else {
			out = append(out, Window{Start: iv.Start, End: iv.End, Interval: iv})
		}

		start = spacing.advance(start, duration)
		if start > signalEnd+p.MinimumValidDuration {
			break
		}
	}

	p.Store.RecomputeAllBounds(nil)
	diagf("planned %d %q windows", len(out), p.Label)
	return out
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
