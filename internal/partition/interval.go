// Package partition maintains an ordered collection of labelled,
// mutually exclusive intervals over a one-dimensional time domain.
//
// A Store is owned by a single open recording and is not safe for
// concurrent mutation. Every edit runs to completion, including the
// neighbour-bound recomputation, before the next edit is accepted.
package partition

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

var (
	// ErrShapeMismatch is returned by BatchReplace when the label, start and
	// end sequences differ in length.
	ErrShapeMismatch = errors.New("label/start/end length mismatch")

	// ErrOccupied is returned when a requested interval's midpoint already
	// lies inside an existing interval.
	ErrOccupied = errors.New("point already covered by an interval")

	// ErrZeroLength is returned when an interval collapses to start == end
	// after clipping. Such intervals are never stored.
	ErrZeroLength = errors.New("zero-length interval")

	// ErrNonFinite is returned when an endpoint is NaN or infinite.
	ErrNonFinite = errors.New("non-finite endpoint")

	// ErrUnknownInterval is returned when an interval is not owned by the store.
	ErrUnknownInterval = errors.New("interval not in store")

	// ErrInvariantViolation reports a broken ordering, overlap or bound invariant.
	ErrInvariantViolation = errors.New("partition invariant violated")
)

// Domain is the global extent of the timeline in seconds.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Clamp limits x to the domain.
func (d Domain) Clamp(x float64) float64 {
	if x < d.Min {
		return d.Min
	}
	if x > d.Max {
		return d.Max
	}
	return x
}

// Span is a bare [Start, End] pair, the read-only shape handed to
// consumers that only need geometry (for example the noise budget).
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns End - Start.
func (s Span) Length() float64 { return s.End - s.Start }

// Record is the persisted shape of an interval.
type Record struct {
	Label string  `json:"label"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Interval is a labelled region of the timeline.
//
// LeftBound and RightBound cache the far edges of the nearest neighbours
// and limit how far the interval may be dragged. They are derived state,
// owned and refreshed by the Store; nil means the domain edge applies.
type Interval struct {
	ID         string
	Label      string
	Start      float64
	End        float64
	Mid        float64
	LeftBound  *float64
	RightBound *float64
}

func newInterval(label string, start, end float64) *Interval {
	iv := &Interval{
		ID:    uuid.NewString(),
		Label: label,
	}
	iv.set(start, end)
	return iv
}

func (iv *Interval) set(start, end float64) {
	iv.Start = start
	iv.End = end
	iv.Mid = start + (end-start)/2
}

// Length returns End - Start.
func (iv *Interval) Length() float64 { return iv.End - iv.Start }

// Contains reports whether x lies in the closed range [Start, End].
func (iv *Interval) Contains(x float64) bool {
	return iv.Start <= x && x <= iv.End
}

// Span returns the geometry of the interval.
func (iv *Interval) Span() Span { return Span{Start: iv.Start, End: iv.End} }

// Record returns the persisted shape of the interval.
func (iv *Interval) Record() Record {
	return Record{Label: iv.Label, Start: iv.Start, End: iv.End}
}

func (iv *Interval) String() string {
	return fmt.Sprintf("%s[%.3f, %.3f]", iv.Label, iv.Start, iv.End)
}

func overlapsOpen(a, b *Interval) bool {
	return a.Start < b.End && b.Start < a.End
}
