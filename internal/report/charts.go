// Package report renders data-analysis reports: PNG charts, a Markdown
// document, its HTML rendering, and a styled PDF.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
)

// Value is a labeled data point for bar and pie charts.
type Value struct {
	Label string
	Value float64
}

const (
	chartWidth  = 1024
	chartHeight = 640
)

// WriteBarChart renders a bar chart PNG to path.
func WriteBarChart(path, title string, values []Value) error {
	if len(values) == 0 {
		return fmt.Errorf("bar chart needs at least one value")
	}

	bars := make([]chart.Value, 0, len(values))
	for _, v := range values {
		bars = append(bars, chart.Value{Label: truncateLabel(v.Label), Value: v.Value})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 48,
		Bars:     bars,
	}
	return renderPNG(path, graph.Render)
}

// WritePieChart renders a pie chart PNG to path.
func WritePieChart(path, title string, values []Value) error {
	if len(values) == 0 {
		return fmt.Errorf("pie chart needs at least one value")
	}

	parts := make([]chart.Value, 0, len(values))
	for _, v := range values {
		if v.Value <= 0 {
			continue
		}
		parts = append(parts, chart.Value{Label: truncateLabel(v.Label), Value: v.Value})
	}
	if len(parts) == 0 {
		return fmt.Errorf("pie chart needs positive values")
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: parts,
	}
	return renderPNG(path, graph.Render)
}

// WriteLineChart renders a line chart PNG to path. xs and ys must be the
// same length.
func WriteLineChart(path, title string, xs, ys []float64) error {
	if len(xs) < 2 || len(xs) != len(ys) {
		return fmt.Errorf("line chart needs at least two paired points")
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Series: []chart.Series{
			chart.ContinuousSeries{XValues: xs, YValues: ys},
		},
	}
	return renderPNG(path, graph.Render)
}

func renderPNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := render(chart.PNG, f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write chart file: %w", err)
	}
	return nil
}

// truncateLabel 過長的標籤會把圖擠壞。
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= 12 {
		return s
	}
	return string(runes[:12]) + "…"
}
