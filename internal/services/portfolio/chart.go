package portfolio

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/models"
)

const (
	defaultChartWidth  = 900
	defaultChartHeight = 400
)

// RenderAllocationChart renders a PNG bar chart of position weights, one bar
// per row in report order, on a fixed 0–100% axis.
// Returns raw PNG bytes.
func RenderAllocationChart(rows []models.ValuationRow, width, height int) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("need at least 1 position, got 0")
	}
	if width <= 0 {
		width = defaultChartWidth
	}
	if height <= 0 {
		height = defaultChartHeight
	}

	bars := make([]chart.Value, len(rows))
	for i, r := range rows {
		fill := drawing.ColorFromHex("2563eb") // blue-600
		if r.UnrealizedPL < 0 {
			fill = drawing.ColorFromHex("dc2626") // red-600
		}
		bars[i] = chart.Value{
			Label: r.Ticker,
			Value: r.Weight,
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
				StrokeWidth: 1,
			},
		}
	}

	graph := chart.BarChart{
		Title:  "Portfolio Allocation",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth: barWidth(width, len(rows)),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// barWidth spreads bars across the canvas, capped so a single holding does
// not fill the whole chart.
func barWidth(width, n int) int {
	w := (width - 100) / (2 * n)
	switch {
	case w > 80:
		return 80
	case w < 8:
		return 8
	}
	return w
}
