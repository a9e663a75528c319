package view

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/samples"
	"github.com/physiolabel/annotate/internal/session"
	"github.com/physiolabel/annotate/internal/timebase"
)

func testTimeline(t *testing.T) Timeline {
	t.Helper()
	m, err := timebase.FromDuration(100, 60)
	require.NoError(t, err)
	s := session.New("subject-07", m, nil)

	_, err = s.AddNoise(12, 15)
	require.NoError(t, err)
	_, err = s.AddPartition("rest", 0, 30)
	require.NoError(t, err)
	_, err = s.AddSamples(session.PlanRequest{
		Duration:             10,
		MinimumValidDuration: 8,
		Repetition:           samples.UntilSignalEnd(),
		Spacing:              samples.FixedGap(0),
	})
	require.NoError(t, err)
	return LayersFromSession(s)
}

func TestLayersFromSession(t *testing.T) {
	tl := testTimeline(t)

	assert.Equal(t, "subject-07", tl.Title)
	assert.Equal(t, partition.Domain{Min: 0, Max: 60}, tl.Domain)
	require.Len(t, tl.Layers, 3)

	assert.Equal(t, session.Noise, tl.Layers[0].Name)
	assert.Equal(t, 2, tl.Layers[0].Lane, "noise is the top lane")
	assert.Equal(t, session.Partitions, tl.Layers[2].Name)
	assert.Equal(t, 0, tl.Layers[2].Lane)

	assert.Equal(t, []partition.Record{{Label: "noise", Start: 12, End: 15}}, tl.Layers[0].Intervals)
	assert.Len(t, tl.Layers[1].Intervals, 5)
	assert.InDelta(t, 50, tl.Layers[1].total(), 1e-9)
}

func TestRenderHTML(t *testing.T) {
	tl := testTimeline(t)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, tl, HTMLOptions{}))
	html := buf.String()

	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "subject-07")
	for _, name := range []string{"noise", "samples", "partitions", "Coverage"} {
		assert.Contains(t, html, name)
	}
}

func TestRenderHTML_AssetsHost(t *testing.T) {
	var buf bytes.Buffer
	tl := Timeline{Title: "empty", Domain: partition.Domain{Max: 10}}
	require.NoError(t, RenderHTML(&buf, tl, HTMLOptions{AssetsHost: "/static/echarts/"}))
	assert.Contains(t, buf.String(), "/static/echarts/")
}

func TestRenderPNG(t *testing.T) {
	tl := testTimeline(t)
	path := filepath.Join(t.TempDir(), "timeline.png")

	require.NoError(t, RenderPNG(path, tl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")), "expected PNG signature")
}

func TestRenderPNG_SVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.svg")
	tl := Timeline{Title: "empty", Domain: partition.Domain{Max: 10}, Layers: []Layer{{Name: "noise"}}}

	require.NoError(t, RenderPNG(path, tl))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<svg"))
}

func TestLaneColors(t *testing.T) {
	assert.Nil(t, laneColors(0))

	colors := laneColors(3)
	require.Len(t, colors, 3)
	seen := make(map[color.RGBA]bool)
	for _, c := range colors {
		assert.Equal(t, uint8(255), c.A)
		assert.False(t, seen[c], "duplicate lane colour %v", c)
		seen[c] = true
	}
	assert.Equal(t, "#d82626", hexColor(colors[0]))
}

func TestHslToRGB(t *testing.T) {
	tests := []struct {
		h, s, l float64
		r, g, b uint8
	}{
		{0.0, 1.0, 0.5, 255, 0, 0},
		{1.0 / 3.0, 1.0, 0.5, 0, 255, 0},
		{2.0 / 3.0, 1.0, 0.5, 0, 0, 255},
		{0.0, 0.0, 1.0, 255, 255, 255},
		{0.0, 0.0, 0.5, 127, 127, 127},
	}
	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}
	for _, tt := range tests {
		r, g, b := hslToRGB(tt.h, tt.s, tt.l)
		if abs(int(r)-int(tt.r)) > 1 || abs(int(g)-int(tt.g)) > 1 || abs(int(b)-int(tt.b)) > 1 {
			t.Errorf("hslToRGB(%f, %f, %f) = (%d, %d, %d), want (%d, %d, %d)",
				tt.h, tt.s, tt.l, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}
