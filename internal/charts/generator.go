package charts

import (
	"bytes"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/testkube/report-dashboard/internal/stats"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// PassRateChart plots the daily pass rate of all runs.
func (g *Generator) PassRateChart(entries []stats.DayEntry) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Pass Rate Trend"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "300px",
			Width:  "100%",
		}),
	)

	xAxis := make([]string, len(entries))
	yAxis := make([]opts.LineData, len(entries))
	for i, e := range entries {
		xAxis[i] = e.Date
		yAxis[i] = opts.LineData{Value: roundPercent(e.Totals.PassRate())}
	}

	line.SetXAxis(xAxis).
		AddSeries("Pass Rate %", yAxis).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return g.renderToString(line)
}

// PlatformRunsChart stacks the number of runs per platform for each day.
func (g *Generator) PlatformRunsChart(entries []stats.DayEntry) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Runs per Platform"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "300px",
			Width:  "100%",
		}),
	)

	xAxis := make([]string, len(entries))
	for i, e := range entries {
		xAxis[i] = e.Date
	}
	bar.SetXAxis(xAxis)

	for _, platform := range platformTags(entries) {
		data := make([]opts.BarData, len(entries))
		for i, e := range entries {
			data[i] = opts.BarData{Value: e.Platforms[platform].Runs}
		}
		bar.AddSeries(platform, data, charts.WithBarChartOpts(opts.BarChart{Stack: "runs"}))
	}

	return g.renderToString(bar)
}

func platformTags(entries []stats.DayEntry) []string {
	seen := map[string]bool{}
	var tags []string
	for _, e := range entries {
		for tag := range e.Platforms {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

func roundPercent(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// Interface for anything that can render itself to an io.Writer
type Renderer interface {
	Render(w io.Writer) error
}

func (g *Generator) renderToString(c Renderer) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
