package session

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/samples"
)

// Summary reports collection sizes and noise coverage for a session.
type Summary struct {
	SignalSeconds float64

	NoiseCount    int
	NoiseSeconds  float64
	NoiseFraction float64 // of the signal

	SampleCount         int
	SampleSeconds       float64
	MeanSampleSeconds   float64
	StdDevSampleSeconds float64
	SampleNoiseSeconds  float64
	SampleNoiseFraction float64 // of the accepted windows

	PartitionCount  int
	PartitionLabels []string
}

func lengths(st *partition.Store) []float64 {
	starts, ends := st.Starts(), st.Ends()
	out := make([]float64, len(starts))
	floats.SubTo(out, ends, starts)
	return out
}

// Summary computes the current Summary.
func (s *Session) Summary() Summary {
	sum := Summary{
		SignalSeconds:   s.Mapping.Duration(),
		PartitionCount:  s.Partitions().Len(),
		PartitionLabels: s.PartitionLabels(),
	}

	noise := lengths(s.Noise())
	sum.NoiseCount = len(noise)
	sum.NoiseSeconds = floats.Sum(noise)
	if sum.SignalSeconds > 0 {
		sum.NoiseFraction = sum.NoiseSeconds / sum.SignalSeconds
	}

	windows := lengths(s.Samples())
	sum.SampleCount = len(windows)
	sum.SampleSeconds = floats.Sum(windows)
	if len(windows) > 0 {
		sum.MeanSampleSeconds = stat.Mean(windows, nil)
	}
	if len(windows) > 1 {
		sum.StdDevSampleSeconds = stat.StdDev(windows, nil)
	}

	spans := s.Noise().Spans()
	for _, w := range s.Samples().Spans() {
		sum.SampleNoiseSeconds += samples.NoiseOverlap(w.Start, w.End, spans)
	}
	if sum.SampleSeconds > 0 {
		sum.SampleNoiseFraction = sum.SampleNoiseSeconds / sum.SampleSeconds
	}
	return sum
}

// WriteTo prints the summary as an aligned two-column table.
func (sum Summary) WriteTo(w io.Writer) (int64, error) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		k string
		v string
	}{
		{"signal", fmt.Sprintf("%.3fs", sum.SignalSeconds)},
		{"noise intervals", fmt.Sprintf("%d", sum.NoiseCount)},
		{"noise", fmt.Sprintf("%.3fs (%.1f%%)", sum.NoiseSeconds, 100*sum.NoiseFraction)},
		{"sample windows", fmt.Sprintf("%d", sum.SampleCount)},
		{"sample length", fmt.Sprintf("%.3fs total, %.3fs mean, %.3fs stddev",
			sum.SampleSeconds, sum.MeanSampleSeconds, sum.StdDevSampleSeconds)},
		{"noise in samples", fmt.Sprintf("%.3fs (%.1f%%)", sum.SampleNoiseSeconds, 100*sum.SampleNoiseFraction)},
		{"partitions", fmt.Sprintf("%d %v", sum.PartitionCount, sum.PartitionLabels)},
	}
	var n int64
	for _, r := range rows {
		c, err := fmt.Fprintf(tw, "%s\t%s\n", r.k, r.v)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, tw.Flush()
}
