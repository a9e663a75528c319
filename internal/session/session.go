// Package session ties one open recording to its three interval
// collections: noise, samples and partitions. Each session owns its own
// stores, so several recordings can be open at once.
package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/physiolabel/annotate/internal/config"
	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/samples"
	"github.com/physiolabel/annotate/internal/timebase"
)

// Collection names, also used as the persisted collection key.
const (
	Noise      = "noise"
	Samples    = "samples"
	Partitions = "partitions"
)

// Collections lists the collection names in rendering order.
var Collections = []string{Noise, Samples, Partitions}

// ErrUnknownCollection is returned for a collection name not in Collections.
var ErrUnknownCollection = errors.New("unknown collection")

// Session is one open recording.
type Session struct {
	// ID is the persisted recording ID, empty until the first Save.
	ID      string
	Name    string
	Mapping *timebase.FixedRate

	cfg    *config.AnnotateConfig
	stores map[string]*partition.Store
}

// New opens an empty session over the recording described by m.
// A nil cfg uses the built-in defaults.
func New(name string, m *timebase.FixedRate, cfg *config.AnnotateConfig) *Session {
	if cfg == nil {
		cfg = config.EmptyAnnotateConfig()
	}
	domain := partition.Domain{Min: m.MinTime(), Max: m.MaxTime()}
	s := &Session{
		Name:    name,
		Mapping: m,
		cfg:     cfg,
		stores:  make(map[string]*partition.Store, len(Collections)),
	}
	for _, c := range Collections {
		s.stores[c] = partition.NewStore(domain)
	}
	return s
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() *config.AnnotateConfig { return s.cfg }

// Store returns the store backing a collection.
func (s *Session) Store(collection string) (*partition.Store, error) {
	st, ok := s.stores[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return st, nil
}

func (s *Session) Noise() *partition.Store      { return s.stores[Noise] }
func (s *Session) Samples() *partition.Store    { return s.stores[Samples] }
func (s *Session) Partitions() *partition.Store { return s.stores[Partitions] }

// AddNoise marks [start, end] as noise.
func (s *Session) AddNoise(start, end float64) (*partition.Interval, error) {
	return s.Noise().Insert(s.cfg.GetNoiseLabel(), start, end)
}

// AddNoiseAt marks the default span centred on point as noise, clipped to
// the free gap around it.
func (s *Session) AddNoiseAt(point float64) (*partition.Interval, error) {
	return s.Noise().InsertFromPoint(s.cfg.GetNoiseLabel(), point, s.cfg.GetDefaultSpanSeconds())
}

// AddPartition labels [start, end]. An empty label uses the configured one.
func (s *Session) AddPartition(label string, start, end float64) (*partition.Interval, error) {
	if label == "" {
		label = s.cfg.GetPartitionLabel()
	}
	return s.Partitions().Insert(label, start, end)
}

// PlanRequest is one "add samples" action.
type PlanRequest struct {
	Label                string
	Start                float64
	Duration             float64
	MinimumValidDuration float64
	Repetition           samples.Repetition
	Spacing              samples.Spacing
}

// PlanRequestFromConfig builds a request from the sample planning keys.
func PlanRequestFromConfig(cfg *config.AnnotateConfig) (PlanRequest, error) {
	req := PlanRequest{
		Label:                cfg.GetSampleLabel(),
		Start:                cfg.GetStartSeconds(),
		Duration:             cfg.GetSampleDurationSeconds(),
		MinimumValidDuration: cfg.GetMinimumValidDurationSeconds(),
	}

	switch cfg.GetRepetition() {
	case config.RepetitionCount:
		req.Repetition = samples.FixedCount(cfg.GetRepetitionCount())
	case config.RepetitionUntil:
		req.Repetition = samples.UntilTimestamp(cfg.GetRepetitionUntilSeconds())
	case config.RepetitionSignalEnd:
		req.Repetition = samples.UntilSignalEnd()
	default:
		return req, fmt.Errorf("unknown repetition %q", cfg.GetRepetition())
	}

	switch cfg.GetSpacing() {
	case config.SpacingOverlap:
		req.Spacing = samples.OverlapPercent(cfg.GetOverlapPercent())
	case config.SpacingGap:
		req.Spacing = samples.FixedGap(cfg.GetGapSeconds())
	default:
		return req, fmt.Errorf("unknown spacing %q", cfg.GetSpacing())
	}
	return req, nil
}

// AddSamples plans sample windows against the current noise collection and
// registers the accepted ones in the samples collection.
func (s *Session) AddSamples(req PlanRequest) ([]samples.Window, error) {
	if req.Label == "" {
		req.Label = s.cfg.GetSampleLabel()
	}
	p := &samples.Planner{
		Store:                s.Samples(),
		Mapping:              s.Mapping,
		Noise:                s.Noise().Spans(),
		Label:                req.Label,
		MinimumValidDuration: req.MinimumValidDuration,
	}
	windows, err := p.Plan(req.Start, req.Duration, req.Repetition, req.Spacing)
	if err != nil {
		return nil, fmt.Errorf("add samples to %q: %w", s.Name, err)
	}
	diagf("%s: planned %d %q windows (%s, %s)", s.Name, len(windows), req.Label,
		req.Repetition.Mode, req.Spacing.Mode)
	return windows, nil
}

// IndexRange is an interval projected onto sample indices, inclusive.
type IndexRange struct {
	Label string
	Start int
	End   int
}

// SampleRanges projects every interval of a collection onto sample indices
// so callers can slice the raw signal arrays.
func (s *Session) SampleRanges(collection string) ([]IndexRange, error) {
	st, err := s.Store(collection)
	if err != nil {
		return nil, err
	}
	all := st.All()
	out := make([]IndexRange, len(all))
	for i, iv := range all {
		out[i] = IndexRange{
			Label: iv.Label,
			Start: s.Mapping.TimeToSampleIndex(iv.Start),
			End:   s.Mapping.TimeToSampleIndex(iv.End),
		}
	}
	return out, nil
}

// Validate checks every collection's invariants.
func (s *Session) Validate() error {
	for _, c := range Collections {
		if err := s.stores[c].Validate(); err != nil {
			return fmt.Errorf("collection %q: %w", c, err)
		}
	}
	return nil
}

// PartitionLabels returns the distinct partition labels, sorted.
func (s *Session) PartitionLabels() []string {
	seen := make(map[string]struct{})
	for _, l := range s.Partitions().Labels() {
		seen[l] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
