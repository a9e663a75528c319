package timebase

import (
	"math"
	"testing"
)

func TestNewFixedRate_Validation(t *testing.T) {
	if _, err := NewFixedRate(0, 10); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := NewFixedRate(250, 0); err == nil {
		t.Error("expected error for zero samples")
	}
	if _, err := FromDuration(250, -1); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestFixedRate_RoundTrip(t *testing.T) {
	f, err := FromDuration(250, 100)
	if err != nil {
		t.Fatalf("FromDuration: %v", err)
	}
	if f.SampleCount != 25001 {
		t.Fatalf("SampleCount = %d, want 25001", f.SampleCount)
	}
	if f.MinTime() != 0 || f.MaxTime() != 100 {
		t.Errorf("range = [%v, %v], want [0, 100]", f.MinTime(), f.MaxTime())
	}
	if got := f.TimeToSampleIndex(10.003); got != 2501 {
		t.Errorf("TimeToSampleIndex(10.003) = %d, want 2501", got)
	}
	if got := f.SampleIndexToTime(2500); got != 10 {
		t.Errorf("SampleIndexToTime(2500) = %v, want 10", got)
	}
}

func TestFixedRate_ClampsIndices(t *testing.T) {
	f := &FixedRate{SampleRateHz: 100, SampleCount: 1000, Offset: 5}

	if got := f.TimeToSampleIndex(0); got != 0 {
		t.Errorf("before start: got %d, want 0", got)
	}
	if got := f.TimeToSampleIndex(1e6); got != 999 {
		t.Errorf("after end: got %d, want 999", got)
	}
	if got := f.MaxTime(); math.Abs(got-14.99) > 1e-9 {
		t.Errorf("MaxTime() = %v, want 14.99", got)
	}
}
