package partition

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Store keeps intervals sorted by midpoint with no two open interiors
// overlapping. Touching endpoints are allowed.
type Store struct {
	domain    Domain
	intervals []*Interval

	// stale is set when membership changed without a bound recomputation
	// (Insert, RemoveZeroLength). Any read of drag limits recomputes first.
	stale bool
}

// NewStore creates an empty store over the given domain.
func NewStore(domain Domain) *Store {
	if domain.Max < domain.Min {
		domain.Min, domain.Max = domain.Max, domain.Min
	}
	return &Store{domain: domain}
}

// Domain returns the global extent the store clips to.
func (s *Store) Domain() Domain { return s.domain }

// Len returns the number of stored intervals.
func (s *Store) Len() int { return len(s.intervals) }

// All returns the intervals in store order. The slice is a copy; the
// interval pointers are live handles owned by the store.
func (s *Store) All() []*Interval {
	return slices.Clone(s.intervals)
}

// ByID returns the interval with the given ID, or nil.
func (s *Store) ByID(id string) *Interval {
	for _, iv := range s.intervals {
		if iv.ID == id {
			return iv
		}
	}
	return nil
}

// Insert clips [start, end] to the domain and to the neighbours around its
// midpoint, then places it by binary search on the midpoint.
//
// Insert does not refresh the cached bounds of the other intervals; call
// RecomputeAllBounds after a batch of inserts. Until then the store treats
// its cached bounds as stale and Move/DragLimits recompute before reading them.
func (s *Store) Insert(label string, start, end float64) (*Interval, error) {
	iv, err := s.place(label, start, end)
	if err != nil {
		return nil, err
	}
	s.insertSorted(iv)
	s.stale = true
	diagf("insert %s", iv)
	return iv, nil
}

// InsertFromPoint expands a single click into [point-span/2, point+span/2]
// and inserts it with the same clipping as Insert.
func (s *Store) InsertFromPoint(label string, point, span float64) (*Interval, error) {
	half := span / 2
	return s.Insert(label, point-half, point+half)
}

func (s *Store) place(label string, start, end float64) (*Interval, error) {
	if !finite(start) || !finite(end) {
		return nil, fmt.Errorf("insert %s [%v, %v]: %w", label, start, end, ErrNonFinite)
	}
	if start > end {
		start, end = end, start
	}
	start = s.domain.Clamp(start)
	end = s.domain.Clamp(end)

	mid := start + (end-start)/2
	if hit := s.coveringOpen(mid); hit != nil {
		return nil, fmt.Errorf("insert %s at %.3f inside %s: %w", label, mid, hit, ErrOccupied)
	}

	left, right := s.FindBoundaries(mid, mid)
	if left != nil && start < *left {
		start = *left
	}
	if right != nil && end > *right {
		end = *right
	}
	if start >= end {
		return nil, fmt.Errorf("insert %s at %.3f: %w", label, mid, ErrZeroLength)
	}

	iv := newInterval(label, start, end)
	iv.LeftBound, iv.RightBound = left, right
	return iv, nil
}

func (s *Store) insertSorted(iv *Interval) {
	i := sort.Search(len(s.intervals), func(k int) bool {
		return s.intervals[k].Mid > iv.Mid
	})
	s.intervals = slices.Insert(s.intervals, i, iv)
}

// coveringOpen returns the interval whose open interior contains x.
func (s *Store) coveringOpen(x float64) *Interval {
	i := sort.Search(len(s.intervals), func(k int) bool {
		return s.intervals[k].End > x
	})
	if i < len(s.intervals) && s.intervals[i].Start < x {
		return s.intervals[i]
	}
	return nil
}

// FindBoundaries returns the end of the rightmost interval ending at or
// before start, and the start of the leftmost interval starting at or after
// end. A nil result means no interval bounds that side and the domain edge
// applies. Both lookups are binary searches: the invariants keep the start
// and end sequences non-decreasing in store order.
func (s *Store) FindBoundaries(start, end float64) (left, right *float64) {
	return s.findBoundaries(start, end, nil)
}

func (s *Store) findBoundaries(start, end float64, exclude *Interval) (left, right *float64) {
	n := len(s.intervals)

	i := sort.Search(n, func(k int) bool {
		return s.intervals[k].End > start
	}) - 1
	for i >= 0 && s.intervals[i] == exclude {
		i--
	}
	if i >= 0 {
		v := s.intervals[i].End
		left = &v
	}

	j := sort.Search(n, func(k int) bool {
		return s.intervals[k].Start >= end
	})
	for j < n && s.intervals[j] == exclude {
		j++
	}
	if j < n {
		v := s.intervals[j].Start
		right = &v
	}
	return left, right
}

// RecomputeAllBounds refreshes LeftBound/RightBound of every interval except
// exclude, each searched without itself. It must finish before bounds are read.
func (s *Store) RecomputeAllBounds(exclude *Interval) {
	for _, iv := range s.intervals {
		if iv == exclude {
			continue
		}
		iv.LeftBound, iv.RightBound = s.findBoundaries(iv.Start, iv.End, iv)
		tracef("bounds %s -> [%s, %s]", iv, fmtBound(iv.LeftBound), fmtBound(iv.RightBound))
	}
	s.stale = false
}

// DragLimits returns the range the interval's endpoints may move within:
// its cached bounds, or the domain edges where no neighbour exists.
func (s *Store) DragLimits(iv *Interval) (lo, hi float64) {
	if s.stale {
		s.RecomputeAllBounds(nil)
	}
	return s.limits(iv)
}

func (s *Store) limits(iv *Interval) (lo, hi float64) {
	lo, hi = s.domain.Min, s.domain.Max
	if iv.LeftBound != nil {
		lo = *iv.LeftBound
	}
	if iv.RightBound != nil {
		hi = *iv.RightBound
	}
	return lo, hi
}

// Move shifts both endpoints of iv, clamped to its drag limits. An interval
// collapsed to zero length by the move is removed.
func (s *Store) Move(iv *Interval, start, end float64) error {
	if !slices.Contains(s.intervals, iv) {
		return fmt.Errorf("move %v: %w", iv, ErrUnknownInterval)
	}
	if !finite(start) || !finite(end) {
		return fmt.Errorf("move %v to [%v, %v]: %w", iv, start, end, ErrNonFinite)
	}
	if s.stale {
		s.RecomputeAllBounds(nil)
	}
	if start > end {
		start, end = end, start
	}
	lo, hi := s.limits(iv)
	iv.set(clamp(start, lo, hi), clamp(end, lo, hi))
	diagf("move %s (limits [%.3f, %.3f])", iv, lo, hi)

	s.RemoveZeroLength()
	s.RecomputeAllBounds(nil)
	return nil
}

// Delete removes iv and refreshes every remaining interval's bounds.
func (s *Store) Delete(iv *Interval) error {
	i := slices.Index(s.intervals, iv)
	if i < 0 {
		return fmt.Errorf("delete %v: %w", iv, ErrUnknownInterval)
	}
	s.intervals = slices.Delete(s.intervals, i, i+1)
	diagf("delete %s", iv)
	s.RecomputeAllBounds(nil)
	return nil
}

// RemoveZeroLength deletes every interval with Start == End and returns how
// many were removed. Bounds are left stale for the caller to recompute.
func (s *Store) RemoveZeroLength() int {
	kept := s.intervals[:0]
	removed := 0
	for _, iv := range s.intervals {
		if iv.Start == iv.End {
			diagf("purge zero-length %s", iv)
			removed++
			continue
		}
		kept = append(kept, iv)
	}
	clear(s.intervals[len(kept):])
	s.intervals = kept
	if removed > 0 {
		s.stale = true
	}
	return removed
}

// FindByPoint returns the interval whose closed range contains x, or nil.
// Two intervals may share x as a touching endpoint; the lower-midpoint one
// wins. Overlapping matches are an invariant violation: they are logged and
// the lowest-midpoint match is still returned.
func (s *Store) FindByPoint(x float64) *Interval {
	var hits []*Interval
	for _, iv := range s.intervals {
		if iv.Contains(x) {
			hits = append(hits, iv)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	if len(hits) > 1 {
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].Mid < hits[b].Mid })
		for k := 1; k < len(hits); k++ {
			if overlapsOpen(hits[k-1], hits[k]) {
				opsf("%v: %d intervals claim %.3f, returning %s", ErrInvariantViolation, len(hits), x, hits[0])
				break
			}
		}
	}
	return hits[0]
}

// FindByLabel returns the intervals carrying label, in store order.
func (s *Store) FindByLabel(label string) []*Interval {
	var out []*Interval
	for _, iv := range s.intervals {
		if iv.Label == label {
			out = append(out, iv)
		}
	}
	return out
}

// Starts returns every interval's start in store order.
func (s *Store) Starts() []float64 {
	out := make([]float64, len(s.intervals))
	for i, iv := range s.intervals {
		out[i] = iv.Start
	}
	return out
}

// Ends returns every interval's end in store order.
func (s *Store) Ends() []float64 {
	out := make([]float64, len(s.intervals))
	for i, iv := range s.intervals {
		out[i] = iv.End
	}
	return out
}

// Midpoints returns every interval's midpoint in store order.
func (s *Store) Midpoints() []float64 {
	out := make([]float64, len(s.intervals))
	for i, iv := range s.intervals {
		out[i] = iv.Mid
	}
	return out
}

// Labels returns every interval's label in store order.
func (s *Store) Labels() []string {
	out := make([]string, len(s.intervals))
	for i, iv := range s.intervals {
		out[i] = iv.Label
	}
	return out
}

// Spans returns the geometry of every interval in store order.
func (s *Store) Spans() []Span {
	out := make([]Span, len(s.intervals))
	for i, iv := range s.intervals {
		out[i] = iv.Span()
	}
	return out
}

// Records returns label/start/end triples in store order, for persistence.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.intervals))
	for i, iv := range s.intervals {
		out[i] = iv.Record()
	}
	return out
}

// BatchReplace discards the current intervals and builds a new collection
// from three parallel sequences. The new collection is assembled aside and
// only swapped in once every row has been placed; on any error the prior
// collection is left untouched. Rows that clip to zero length are dropped.
func (s *Store) BatchReplace(labels []string, starts, ends []float64) error {
	if len(labels) != len(starts) || len(starts) != len(ends) {
		return fmt.Errorf("batch replace with %d labels, %d starts, %d ends: %w",
			len(labels), len(starts), len(ends), ErrShapeMismatch)
	}

	next := NewStore(s.domain)
	dropped := 0
	for i := range labels {
		if _, err := next.Insert(labels[i], starts[i], ends[i]); err != nil {
			if errors.Is(err, ErrZeroLength) {
				dropped++
				continue
			}
			return fmt.Errorf("batch replace row %d: %w", i, err)
		}
	}
	if dropped > 0 {
		opsf("batch replace dropped %d zero-length rows", dropped)
	}
	next.RecomputeAllBounds(nil)

	s.intervals = next.intervals
	s.stale = false
	diagf("batch replace loaded %d intervals", len(s.intervals))
	return nil
}

// ReplaceRecords is BatchReplace over persisted records.
func (s *Store) ReplaceRecords(records []Record) error {
	labels := make([]string, len(records))
	starts := make([]float64, len(records))
	ends := make([]float64, len(records))
	for i, r := range records {
		labels[i], starts[i], ends[i] = r.Label, r.Start, r.End
	}
	return s.BatchReplace(labels, starts, ends)
}

// Validate checks finite endpoints, ordering, non-overlap, the zero-length purge and, when
// bounds are fresh, that every cached bound matches its neighbours.
func (s *Store) Validate() error {
	for i, iv := range s.intervals {
		if !finite(iv.Start) || !finite(iv.End) {
			return fmt.Errorf("%w: %s: %w", ErrInvariantViolation, iv, ErrNonFinite)
		}
		if iv.Start >= iv.End {
			return fmt.Errorf("%w: %s has non-positive length", ErrInvariantViolation, iv)
		}
		if iv.Start < s.domain.Min || iv.End > s.domain.Max {
			return fmt.Errorf("%w: %s outside domain [%.3f, %.3f]", ErrInvariantViolation, iv, s.domain.Min, s.domain.Max)
		}
		if i == 0 {
			continue
		}
		prev := s.intervals[i-1]
		if prev.Mid > iv.Mid {
			return fmt.Errorf("%w: %s sorted before %s", ErrInvariantViolation, prev, iv)
		}
		if overlapsOpen(prev, iv) {
			return fmt.Errorf("%w: %s overlaps %s", ErrInvariantViolation, prev, iv)
		}
	}
	if s.stale {
		return nil
	}
	for _, iv := range s.intervals {
		left, right := s.findBoundaries(iv.Start, iv.End, iv)
		if !sameBound(left, iv.LeftBound) || !sameBound(right, iv.RightBound) {
			return fmt.Errorf("%w: %s has bounds [%s, %s], want [%s, %s]", ErrInvariantViolation, iv,
				fmtBound(iv.LeftBound), fmtBound(iv.RightBound), fmtBound(left), fmtBound(right))
		}
	}
	return nil
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fmtBound(b *float64) string {
	if b == nil {
		return "none"
	}
	return fmt.Sprintf("%.3f", *b)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
