package allocation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/application/dto"
	fixtures "github.com/vsinha/capplan/pkg/application/services/testing"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

var q1 = entities.QuarterPeriods(2025)[0]

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func allQ1(id string, demand ...entities.SkillHours) *entities.Initiative {
	return fixtures.MustInitiative(id, "Initiative "+id, entities.InitiativeResourcing,
		fixtures.MustScopeItem(id+"-S1", map[string]string{fixtures.Q1: "1"}, demand...))
}

func TestPropose_HigherRankConsumesOnlyQualifiedEmployee(t *testing.T) {
	only := fixtures.WithPeriodHours(fixtures.MustEmployee("X", "Xan", 40, fixtures.Skill("backend", 4)), fixtures.Q1, 400)

	result, err := Propose(Input{
		ScenarioID: "S1",
		Period:     q1,
		Rankings:   []entities.PriorityRanking{fixtures.Rank("I2", 2), fixtures.Rank("I1", 1)},
		Initiatives: []*entities.Initiative{
			allQ1("I1", fixtures.Hours("backend", 400)),
			allQ1("I2", fixtures.Hours("backend", 100), fixtures.Hours("ml", 50)),
		},
		Employees: []*entities.Employee{only},
	})
	require.NoError(t, err)

	require.Len(t, result.Proposals, 1)
	assert.Equal(t, "I1", result.Proposals[0].InitiativeID)
	assert.True(t, result.Proposals[0].Percentage.Equal(dec(100)))
	assert.True(t, result.UtilizationPct.Equal(dec(100)), "the only employee is fully used, got %s", result.UtilizationPct)

	first, ok := result.CoverageFor("I1")
	require.True(t, ok)
	assert.True(t, first.CoveragePct.Equal(dec(100)))
	second, ok := result.CoverageFor("I2")
	require.True(t, ok)
	assert.True(t, second.CoveragePct.IsZero())
	assert.Equal(t, 2, second.Rank)

	require.Len(t, result.Shortages, 2)
	assert.Equal(t, dto.WarningInsufficientCapacity, result.Shortages[0].Kind)
	assert.True(t, result.Shortages[0].ShortageHours.Equal(dec(100)))
	assert.Equal(t, dto.WarningInsufficientSkill, result.Shortages[1].Kind)
	assert.Equal(t, "ml", result.Shortages[1].Skill)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "insufficient-capacity")
	assert.Contains(t, result.Warnings[1], "insufficient-skill")
}

func TestPropose_RespectsCeilings(t *testing.T) {
	ann := fixtures.WithPeriodHours(fixtures.MustEmployee("A", "Ann", 40, fixtures.Skill("backend", 5)), fixtures.Q1, 1000)
	ann.MaxAllocationPercent = dec(50)
	ben := fixtures.WithPeriodHours(fixtures.MustEmployee("B", "Ben", 40, fixtures.Skill("backend", 4)), fixtures.Q1, 1000)

	result, err := Propose(Input{
		ScenarioID:  "S1",
		Period:      q1,
		Rankings:    []entities.PriorityRanking{fixtures.Rank("I1", 1)},
		Initiatives: []*entities.Initiative{allQ1("I1", fixtures.Hours("backend", 2000))},
		Employees:   []*entities.Employee{ann, ben},
		Ceiling:     dec(80),
	})
	require.NoError(t, err)

	assert.True(t, result.TotalPercentage("A").Equal(dec(50)), "own maximum wins: %s", result.TotalPercentage("A"))
	assert.True(t, result.TotalPercentage("B").Equal(dec(80)), "global ceiling: %s", result.TotalPercentage("B"))
	require.Len(t, result.Shortages, 1)
	assert.True(t, result.Shortages[0].ShortageHours.Equal(dec(700)))

	coverage, _ := result.CoverageFor("I1")
	assert.True(t, coverage.AllocatedHours.Equal(dec(1300)))
	assert.True(t, coverage.CoveragePct.Equal(dec(65)))
}

func TestPropose_ConsolidatesSkillsPerInitiative(t *testing.T) {
	full := fixtures.WithPeriodHours(
		fixtures.MustEmployee("F", "Fay", 40, fixtures.Skill("backend", 3), fixtures.Skill("frontend", 3)), fixtures.Q1, 400)

	result, err := Propose(Input{
		ScenarioID:  "S1",
		Period:      q1,
		Rankings:    []entities.PriorityRanking{fixtures.Rank("I1", 1)},
		Initiatives: []*entities.Initiative{allQ1("I1", fixtures.Hours("backend", 100), fixtures.Hours("frontend", 60))},
		Employees:   []*entities.Employee{full},
	})
	require.NoError(t, err)

	require.Len(t, result.Proposals, 1)
	p := result.Proposals[0]
	assert.Equal(t, []string{"backend", "frontend"}, p.Skills)
	assert.Equal(t, "backend, frontend", p.SkillLabel)
	assert.True(t, p.Percentage.Equal(dec(40)))
	assert.True(t, p.Hours.Equal(dec(160)))
	require.Len(t, result.SkillCoverage, 2)
	assert.Empty(t, result.Warnings)
}

func TestPropose_TiesKeepEmployeeOrder(t *testing.T) {
	first := fixtures.WithPeriodHours(fixtures.MustEmployee("E9", "Nine", 40, fixtures.Skill("data", 3)), fixtures.Q1, 100)
	second := fixtures.WithPeriodHours(fixtures.MustEmployee("E1", "One", 40, fixtures.Skill("data", 3)), fixtures.Q1, 100)
	expert := fixtures.WithPeriodHours(fixtures.MustEmployee("E5", "Five", 40, fixtures.Skill("data", 5)), fixtures.Q1, 10)

	result, err := Propose(Input{
		ScenarioID:  "S1",
		Period:      q1,
		Rankings:    []entities.PriorityRanking{fixtures.Rank("I1", 1)},
		Initiatives: []*entities.Initiative{allQ1("I1", fixtures.Hours("data", 60))},
		Employees:   []*entities.Employee{first, second, expert},
	})
	require.NoError(t, err)

	var order []string
	for _, p := range result.Proposals {
		order = append(order, p.EmployeeID)
	}
	assert.Equal(t, []string{"E5", "E9"}, order)
	assert.True(t, result.Proposals[1].Hours.Equal(dec(50)))
}

func TestPropose_SkipsClosedInitiatives(t *testing.T) {
	done := allQ1("I1", fixtures.Hours("backend", 10))
	done.Status = entities.InitiativeComplete
	e := fixtures.WithPeriodHours(fixtures.MustEmployee("E1", "Ada", 40, fixtures.Skill("backend", 5)), fixtures.Q1, 100)

	result, err := Propose(Input{
		ScenarioID:  "S1",
		Period:      q1,
		Rankings:    []entities.PriorityRanking{fixtures.Rank("I1", 1)},
		Initiatives: []*entities.Initiative{done},
		Employees:   []*entities.Employee{e},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Proposals)
	assert.Empty(t, result.Coverage)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], string(dto.WarningClosedInitiative))
}

func TestPropose_ZeroDemandIsFullyCovered(t *testing.T) {
	result, err := Propose(Input{
		ScenarioID:  "S1",
		Period:      q1,
		Rankings:    []entities.PriorityRanking{fixtures.Rank("I1", 1)},
		Initiatives: []*entities.Initiative{allQ1("I1")},
	})
	require.NoError(t, err)
	coverage, ok := result.CoverageFor("I1")
	require.True(t, ok)
	assert.True(t, coverage.CoveragePct.Equal(dec(100)))
}

func TestPropose_Errors(t *testing.T) {
	_, err := Propose(Input{ScenarioID: "S1", Period: q1})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = Propose(Input{
		ScenarioID: "S1",
		Period:     q1,
		Rankings:   []entities.PriorityRanking{fixtures.Rank("missing", 1)},
	})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
