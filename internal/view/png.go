package view

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderPNG saves the timeline as an image. The format follows the file
// extension (.png, .svg, .pdf).
func RenderPNG(path string, tl Timeline) error {
	p, err := timelinePlot(tl)
	if err != nil {
		return err
	}
	if err := p.Save(14*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save timeline plot: %w", err)
	}
	return nil
}

func timelinePlot(tl Timeline) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = tl.Title
	p.X.Label.Text = "Time (s)"
	p.X.Min, p.X.Max = tl.Domain.Min, tl.Domain.Max
	p.Y.Min, p.Y.Max = -1, float64(len(tl.Layers))
	p.Add(plotter.NewGrid())

	colors := laneColors(len(tl.Layers))
	ticks := make([]plot.Tick, 0, len(tl.Layers))
	for i, layer := range tl.Layers {
		y := float64(layer.Lane)
		ticks = append(ticks, plot.Tick{Value: y, Label: layer.Name})

		for j, r := range layer.Intervals {
			seg, err := plotter.NewLine(plotter.XYs{{X: r.Start, Y: y}, {X: r.End, Y: y}})
			if err != nil {
				return nil, fmt.Errorf("%s interval %d: %w", layer.Name, j, err)
			}
			seg.Color = colors[i]
			seg.Width = vg.Points(10)
			p.Add(seg)
			if j == 0 {
				p.Legend.Add(layer.Name, seg)
			}
		}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}
