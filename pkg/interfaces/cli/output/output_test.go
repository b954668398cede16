package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sampleCalculation() *dto.CalculationResult {
	backend := dto.SkillPeriodRow{PeriodID: "2025-Q1", Skill: "backend", Demand: d(500), Capacity: d(420), Gap: d(-80)}
	design := dto.SkillPeriodRow{PeriodID: "2025-Q1", Skill: "design", Demand: d(45), Capacity: d(72), Gap: d(27)}
	return &dto.CalculationResult{
		ScenarioID:         "S-BASE",
		PeriodIDs:          []string{"2025-Q1"},
		Rows:               []dto.SkillPeriodRow{backend, design},
		BindingConstraints: []dto.SkillPeriodRow{backend},
		TotalDemand:        d(545),
		TotalCapacity:      d(492),
		NetGap:             d(-53),
		CalculatedAt:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " csv ": FormatCSV, "svg": FormatSVG} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrinter_CalculationText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Calculation(sampleCalculation()))

	out := buf.String()
	assert.Contains(t, out, "S-BASE")
	assert.Contains(t, out, "backend")
	assert.Contains(t, out, "-80.0")
	assert.Contains(t, out, "Binding constraints")
	assert.Contains(t, out, "2025-Q1 backend short 80.0 hours")
}

func TestPrinter_CalculationJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Calculation(sampleCalculation()))

	var decoded dto.CalculationResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "S-BASE", decoded.ScenarioID)
	require.Len(t, decoded.Rows, 2)
	assert.True(t, decoded.Rows[0].Gap.Equal(d(-80)))
}

func TestPrinter_CalculationCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatCSV).Calculation(sampleCalculation()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"period_id", "skill", "demand", "capacity", "gap"},
		{"2025-Q1", "backend", "500", "420", "-80"},
		{"2025-Q1", "design", "45", "72", "27"},
	}, records)
}

func TestPrinter_CalculationSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatSVG).Calculation(sampleCalculation()))

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "2025-Q1 backend Capacity: 420.0 hours")
	assert.Contains(t, svg, "#F44336", "shortage rows are red")
	assert.Equal(t, 4, strings.Count(svg, `class="bar"`))
}

func TestGapChart_Empty(t *testing.T) {
	r := &dto.CalculationResult{ScenarioID: "S"}
	svg := NewGapChart(r).GenerateSVG(r)
	assert.Contains(t, svg, "No Demand or Capacity Found")
}

func TestPrinter_UnsupportedCombinations(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewPrinter(&buf, FormatSVG).Thresholds(entities.DefaultDriftThresholds()))
	assert.Error(t, NewPrinter(&buf, FormatCSV).Import(nil))
}

func TestPrinter_AutoAllocateText(t *testing.T) {
	r := &dto.AutoAllocateResult{
		ScenarioID: "S-BASE",
		Proposals: []dto.ProposedAllocation{
			{EmployeeID: "E1", EmployeeName: "Ada", InitiativeID: "I1", SkillLabel: "backend", Percentage: d(60), Hours: d(300)},
		},
		Coverage: []dto.InitiativeCoverage{
			{InitiativeID: "I1", Title: "Checkout", Rank: 1, DemandHours: d(400), AllocatedHours: d(300), CoveragePct: d(75)},
		},
		Shortages: []dto.Shortage{
			{InitiativeID: "I2", Skill: "ml", Kind: dto.WarningInsufficientSkill, ShortageHours: d(40)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).AutoAllocate(r))
	out := buf.String()
	assert.Contains(t, out, "not saved")
	assert.Contains(t, out, "60.00")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "insufficient-skill")
	assert.Contains(t, out, "Budget utilization: 0.00%")
}

func TestPrinter_DeltaText(t *testing.T) {
	r := &dto.DeltaResult{
		ScenarioID: "S-BASE",
		SnapshotID: "snap-1",
		Capacity: []dto.CapacityDelta{
			{EmployeeID: "E3", Skill: "design", SnapshotHours: d(72), Delta: d(-72), Departed: true},
		},
		CapacityBySkill: []dto.SkillDelta{
			{Skill: "design", SnapshotHours: d(72), LiveHours: d(252), Delta: d(180)},
		},
		Allocations: []dto.AllocationDelta{
			{EmployeeID: "E3", InitiativeID: "I2", Change: dto.AllocationRemoved, SnapshotPercentage: d(20)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Delta(r))
	out := buf.String()
	assert.Contains(t, out, "snap-1")
	assert.Contains(t, out, "+180.0")
	assert.Contains(t, out, "Departed: E3")
	assert.Contains(t, out, "removed")
}

func TestPrinter_ThresholdsCSV(t *testing.T) {
	th := entities.DefaultDriftThresholds()
	th.PeriodOverrides = map[string]entities.ThresholdPair{
		"2025-Q2": {CapacityPct: d(2), DemandPct: d(3)},
		"2025-Q1": {CapacityPct: d(1), DemandPct: d(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatCSV).Thresholds(th))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"scope", "capacity_pct", "demand_pct"},
		{"global", "5", "10"},
		{"2025-Q1", "1", "1"},
		{"2025-Q2", "2", "3"},
	}, records)
}

func TestPrinter_AlertsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Alerts(nil))
	assert.Equal(t, "No drift alerts\n", buf.String())
}

func TestPrinter_AvailabilityMarksOverAllocation(t *testing.T) {
	calendar := []services.WeeklyAvailability{
		{WeekID: "2025-W02", StartDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), BaseHours: d(40), AllocatedHours: d(30), AvailableHours: d(10)},
		{WeekID: "2025-W03", StartDate: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), BaseHours: d(40), AllocatedHours: d(48), AvailableHours: d(-8)},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatText).Availability("E1", "S-BASE", calendar))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.NotContains(t, lines[2], "over-allocated")
	assert.Contains(t, lines[3], "-8.0")
	assert.Contains(t, lines[3], "over-allocated")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatCSV).Availability("E1", "S-BASE", calendar))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2025-W03", "2025-01-13", "40", "48", "-8"}, rows[2])
}
