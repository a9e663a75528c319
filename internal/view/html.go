package view

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLOptions tune the interactive page. AssetsHost overrides where the
// echarts scripts are loaded from; empty uses the go-echarts default.
type HTMLOptions struct {
	AssetsHost string
	Theme      string
}

// gap breaks a line series between two intervals of the same lane.
const gap = "-"

func timelineChart(tl Timeline, o HTMLOptions) *charts.Line {
	colors := laneColors(len(tl.Layers))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  tl.Title,
			Theme:      o.Theme,
			Width:      "100%",
			Height:     "360px",
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    tl.Title,
			Subtitle: fmt.Sprintf("%.3fs - %.3fs", tl.Domain.Min, tl.Domain.Max),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:         "value",
			Name:         "Time (s)",
			NameLocation: "middle",
			NameGap:      25,
			Min:          tl.Domain.Min,
			Max:          tl.Domain.Max,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Show: opts.Bool(false),
			Min:  -1,
			Max:  len(tl.Layers),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)

	for i, layer := range tl.Layers {
		data := make([]opts.LineData, 0, 3*len(layer.Intervals))
		for _, r := range layer.Intervals {
			data = append(data,
				opts.LineData{Name: r.Label, Value: []interface{}{r.Start, layer.Lane}},
				opts.LineData{Name: r.Label, Value: []interface{}{r.End, layer.Lane}},
				opts.LineData{Value: []interface{}{r.End, gap}},
			)
		}
		line.AddSeries(layer.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(colors[i]), Width: 10}),
		)
	}
	return line
}

func coverageChart(tl Timeline, o HTMLOptions) *charts.Bar {
	names := make([]string, len(tl.Layers))
	seconds := make([]opts.BarData, len(tl.Layers))
	for i, layer := range tl.Layers {
		names[i] = layer.Name
		seconds[i] = opts.BarData{Value: math.Round(layer.total()*1000) / 1000}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:      o.Theme,
			Width:      "100%",
			Height:     "280px",
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Coverage", Subtitle: "seconds per collection"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("seconds", seconds,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// RenderHTML writes a page with the timeline and a per-collection coverage
// bar chart.
func RenderHTML(w io.Writer, tl Timeline, o HTMLOptions) error {
	page := components.NewPage()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.PageTitle = tl.Title
	page.AddCharts(timelineChart(tl, o), coverageChart(tl, o))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render timeline page: %w", err)
	}
	return nil
}
