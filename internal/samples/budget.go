package samples

import (
	"github.com/physiolabel/annotate/internal/partition"
)

// Budget decides whether a candidate window keeps enough clean signal.
// It holds no state beyond its configuration.
type Budget struct {
	// MinimumValidDuration is the least clean time, in seconds, a window
	// must retain.
	MinimumValidDuration float64

	// SignalEnd is the timestamp of the last valid sample.
	SignalEnd float64
}

// TooNoisy reports whether [start, end] should be rejected. The window is
// first clipped to SignalEnd; a window shorter than MinimumValidDuration is
// rejected outright, otherwise it is rejected when the accumulated noise
// exceeds (end - start) - MinimumValidDuration.
func (b Budget) TooNoisy(start, end float64, noise []partition.Span) bool {
	if end > b.SignalEnd {
		end = b.SignalEnd
	}
	length := end - start
	if length < b.MinimumValidDuration {
		tracef("window [%.3f, %.3f] shorter than %.3f", start, end, b.MinimumValidDuration)
		return true
	}
	overlap := NoiseOverlap(start, end, noise)
	allowed := length - b.MinimumValidDuration
	tracef("window [%.3f, %.3f] noise %.3f allowed %.3f", start, end, overlap, allowed)
	return overlap > allowed
}

// NoiseOverlap sums the overlap between [start, end] and every noise span.
// Each span falls into at most one of four disjoint cases, so none is
// counted twice.
func NoiseOverlap(start, end float64, noise []partition.Span) float64 {
	var total float64
	for _, n := range noise {
		switch {
		case n.Start >= start && n.Start < end && n.End > end:
			// starts inside, runs past the window
			total += end - n.Start
		case n.End > start && n.End <= end && n.Start < start:
			// ends inside, began before the window
			total += n.End - start
		case n.Start >= start && n.End <= end:
			total += n.End - n.Start
		case n.Start < start && n.End > end:
			// covers the whole window
			total += end - start
		}
	}
	return total
}
