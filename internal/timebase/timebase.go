// Package timebase converts between elapsed seconds and sample indices of
// a uniformly sampled recording.
package timebase

import (
	"fmt"
	"math"
)

// Mapping is supplied by the signal-loading layer. The partition core only
// reads it.
type Mapping interface {
	// TimeToSampleIndex returns the index of the sample nearest to seconds.
	TimeToSampleIndex(seconds float64) int

	// SampleIndexToTime returns the elapsed time of sample index.
	SampleIndexToTime(index int) float64

	// MinTime returns the timestamp of the first sample.
	MinTime() float64

	// MaxTime returns the timestamp of the last valid sample.
	MaxTime() float64
}

// FixedRate maps a recording sampled at a constant frequency, starting at
// Offset seconds.
type FixedRate struct {
	SampleRateHz float64
	SampleCount  int
	Offset       float64
}

// NewFixedRate validates the sampling parameters.
func NewFixedRate(sampleRateHz float64, sampleCount int) (*FixedRate, error) {
	if math.IsNaN(sampleRateHz) || sampleRateHz <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", sampleRateHz)
	}
	if sampleCount < 1 {
		return nil, fmt.Errorf("sample count must be at least 1, got %d", sampleCount)
	}
	return &FixedRate{SampleRateHz: sampleRateHz, SampleCount: sampleCount}, nil
}

// FromDuration builds a FixedRate covering [0, seconds] inclusive.
func FromDuration(sampleRateHz, seconds float64) (*FixedRate, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("duration must be non-negative, got %v", seconds)
	}
	return NewFixedRate(sampleRateHz, int(math.Round(seconds*sampleRateHz))+1)
}

// TimeToSampleIndex rounds to the nearest sample and clamps to the recording.
func (f *FixedRate) TimeToSampleIndex(seconds float64) int {
	idx := int(math.Round((seconds - f.Offset) * f.SampleRateHz))
	if idx < 0 {
		return 0
	}
	if idx > f.SampleCount-1 {
		return f.SampleCount - 1
	}
	return idx
}

// SampleIndexToTime does not clamp; indices past the end extrapolate.
func (f *FixedRate) SampleIndexToTime(index int) float64 {
	return f.Offset + float64(index)/f.SampleRateHz
}

// MinTime is the timestamp of sample 0.
func (f *FixedRate) MinTime() float64 { return f.Offset }

// MaxTime is the timestamp of the last sample.
func (f *FixedRate) MaxTime() float64 {
	return f.SampleIndexToTime(f.SampleCount - 1)
}

// Duration returns MaxTime - MinTime.
func (f *FixedRate) Duration() float64 { return f.MaxTime() - f.MinTime() }
