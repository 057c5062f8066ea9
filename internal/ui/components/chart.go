package components

import (
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/augment-usage-tui/internal/models"
	"github.com/j-veylop/augment-usage-tui/internal/ui/styles"
)

// RenderUsageChart plots the usage-percentage history as an ASCII line
// chart.
func RenderUsageChart(points []models.UsagePoint, width, height int, caption string) string {
	if len(points) == 0 {
		return styles.HelpStyle.Render("No history recorded yet")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.Percent
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
