package shared

import "github.com/shopspring/decimal"

// GridCell is the hours of one skill pool in one period
type GridCell struct {
	PeriodID string
	Skill    string
	Hours    decimal.Decimal
}

type cellKey struct {
	periodID string
	skill    string
}

// HoursGrid accumulates hours by (period, skill) in first-seen order
type HoursGrid struct {
	cells map[cellKey]decimal.Decimal
	keys  []cellKey
}

// NewHoursGrid creates an empty grid
func NewHoursGrid() *HoursGrid {
	return &HoursGrid{cells: make(map[cellKey]decimal.Decimal)}
}

// Add accumulates hours into a cell
func (g *HoursGrid) Add(periodID, skill string, hours decimal.Decimal) {
	key := cellKey{periodID: periodID, skill: skill}
	current, exists := g.cells[key]
	if !exists {
		g.keys = append(g.keys, key)
	}
	g.cells[key] = current.Add(hours)
}

// Get returns the hours of a cell, zero when absent
func (g *HoursGrid) Get(periodID, skill string) decimal.Decimal {
	return g.cells[cellKey{periodID: periodID, skill: skill}]
}

// Cells returns all cells in first-seen order
func (g *HoursGrid) Cells() []GridCell {
	cells := make([]GridCell, 0, len(g.keys))
	for _, k := range g.keys {
		cells = append(cells, GridCell{PeriodID: k.periodID, Skill: k.skill, Hours: g.cells[k]})
	}
	return cells
}

// PeriodTotal sums the cells of one period
func (g *HoursGrid) PeriodTotal(periodID string) decimal.Decimal {
	total := decimal.Zero
	for _, k := range g.keys {
		if k.periodID == periodID {
			total = total.Add(g.cells[k])
		}
	}
	return total
}

// Total sums every cell
func (g *HoursGrid) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range g.cells {
		total = total.Add(v)
	}
	return total
}

// Size returns the number of cells
func (g *HoursGrid) Size() int {
	return len(g.keys)
}
