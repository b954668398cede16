package output

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/dto"
)

// GapChart draws demand against capacity for every (period, skill) row
type GapChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	// MaxHours is the value mapped to the full chart width
	MaxHours decimal.Decimal
}

// GapBar is one horizontal bar of the chart
type GapBar struct {
	Label string
	Kind  string
	Hours decimal.Decimal
	X     int
	Width int
	Color string
}

// NewGapChart sizes a chart for a calculation result
func NewGapChart(result *dto.CalculationResult) *GapChart {
	if len(result.Rows) == 0 {
		return &GapChart{
			Width:        800,
			Height:       200,
			MarginLeft:   150,
			MarginTop:    50,
			MarginRight:  50,
			MarginBottom: 50,
			RowHeight:    25,
		}
	}

	maxHours := decimal.Zero
	for _, row := range result.Rows {
		maxHours = decimal.Max(maxHours, row.Demand, row.Capacity)
	}
	// 10% headroom
	maxHours = maxHours.Mul(decimal.NewFromFloat(1.1))

	rowHeight := 36
	return &GapChart{
		Width:        1200,
		Height:       len(result.Rows)*rowHeight + 140,
		MarginLeft:   200,
		MarginTop:    60,
		MarginRight:  100,
		MarginBottom: 80,
		RowHeight:    rowHeight,
		MaxHours:     maxHours,
	}
}

// GenerateSVG creates an SVG bar chart of the result
func (gc *GapChart) GenerateSVG(result *dto.CalculationResult) string {
	if len(result.Rows) == 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height))
	svg.WriteString(`<defs>`)
	svg.WriteString(`<style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.axis-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.bar-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(`</defs>`)

	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Demand vs Capacity - %s</text>`,
		gc.Width/2, html.EscapeString(result.ScenarioID)))

	gc.drawHoursAxis(&svg)
	for i, row := range result.Rows {
		gc.drawRow(&svg, row, gc.MarginTop+i*gc.RowHeight)
	}
	gc.drawLegend(&svg)

	svg.WriteString(`</svg>`)
	return svg.String()
}

// scale maps hours to a pixel width
func (gc *GapChart) scale(h decimal.Decimal) int {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	if !gc.MaxHours.IsPositive() || !h.IsPositive() {
		return 0
	}
	return int(h.Div(gc.MaxHours).Mul(decimal.NewFromInt(int64(chartWidth))).IntPart())
}

// drawHoursAxis draws five evenly spaced hour ticks
func (gc *GapChart) drawHoursAxis(svg *strings.Builder) {
	axisY := gc.Height - gc.MarginBottom
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight

	for i := 0; i <= 5; i++ {
		x := gc.MarginLeft + chartWidth*i/5
		label := gc.MaxHours.Mul(decimal.NewFromInt(int64(i))).Div(decimal.NewFromInt(5)).Round(0)
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			x, gc.MarginTop, x, axisY))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="axis-label" text-anchor="middle">%sh</text>`,
			x, axisY+15, label))
	}

	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, axisY, gc.Width-gc.MarginRight, axisY))
}

// drawRow draws the demand bar above the capacity bar of one row
func (gc *GapChart) drawRow(svg *strings.Builder, row dto.SkillPeriodRow, y int) {
	label := html.EscapeString(row.PeriodID + " " + row.Skill)
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
		gc.MarginLeft-15, y+gc.RowHeight/2+4, label))
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, y+gc.RowHeight, gc.Width-gc.MarginRight, y+gc.RowHeight))

	barHeight := (gc.RowHeight - 6) / 2
	bars := []GapBar{
		{Label: label, Kind: "Demand", Hours: row.Demand, Color: "#2196F3"},
		{Label: label, Kind: "Capacity", Hours: row.Capacity, Color: gc.capacityColor(row.Gap)},
	}
	for i, bar := range bars {
		bar.X = gc.MarginLeft
		bar.Width = gc.scale(bar.Hours)
		gc.drawBar(svg, bar, y+2+i*(barHeight+2), barHeight)
	}
}

func (gc *GapChart) drawBar(svg *strings.Builder, bar GapBar, barY, barHeight int) {
	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="bar">`,
		bar.X, barY, bar.Width, barHeight, bar.Color))
	svg.WriteString(fmt.Sprintf(`<title>%s %s: %s hours</title>`, bar.Label, bar.Kind, bar.Hours.StringFixed(1)))
	svg.WriteString(`</rect>`)

	if bar.Width > 40 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="bar-text" text-anchor="middle">%s</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, bar.Hours.StringFixed(0)))
	}
}

// drawLegend draws a legend explaining the colors
func (gc *GapChart) drawLegend(svg *strings.Builder) {
	legendX := gc.Width - gc.MarginRight - 200
	legendY := 40

	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="180" height="60" fill="white" stroke="#ccc" stroke-width="1"/>`,
		legendX, legendY))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" font-weight="bold">Legend</text>`,
		legendX+10, legendY+15))

	items := []struct {
		color string
		label string
	}{
		{"#2196F3", "Demand"},
		{"#4CAF50", "Capacity (surplus)"},
		{"#F44336", "Capacity (shortage)"},
	}

	for i, item := range items {
		itemY := legendY + 25 + i*12
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`,
			legendX+10, itemY, item.color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="axis-label">%s</text>`,
			legendX+30, itemY+6, item.label))
	}
}

func (gc *GapChart) capacityColor(gap decimal.Decimal) string {
	if gap.IsNegative() {
		return "#F44336"
	}
	return "#4CAF50"
}

func (gc *GapChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Demand or Capacity Found</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}
