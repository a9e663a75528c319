// Package view renders a session's interval collections as a timeline with
// one lane per collection: an interactive HTML page through go-echarts and
// a static image through gonum/plot.
package view

import (
	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/session"
)

// Layer is one lane of the timeline. Lane 0 is drawn at the bottom.
type Layer struct {
	Name      string
	Lane      int
	Intervals []partition.Record
}

// Timeline is everything a renderer needs.
type Timeline struct {
	Title  string
	Domain partition.Domain
	Layers []Layer
}

// LayersFromSession builds one layer per collection with the noise lane on
// top, matching the order of session.Collections.
func LayersFromSession(s *session.Session) Timeline {
	n := len(session.Collections)
	tl := Timeline{
		Title:  s.Name,
		Domain: s.Noise().Domain(),
		Layers: make([]Layer, 0, n),
	}
	for i, c := range session.Collections {
		st, _ := s.Store(c)
		tl.Layers = append(tl.Layers, Layer{
			Name:      c,
			Lane:      n - 1 - i,
			Intervals: st.Records(),
		})
	}
	return tl
}

// total returns the summed interval length of a layer in seconds.
func (l Layer) total() float64 {
	var sum float64
	for _, r := range l.Intervals {
		sum += r.End - r.Start
	}
	return sum
}
