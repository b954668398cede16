package capacity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/capplan/pkg/application/services/testing"
	"github.com/vsinha/capplan/pkg/domain/entities"
)

func allocation(employeeID string, rows map[string]int64) *entities.Allocation {
	a := &entities.Allocation{ID: "A-" + employeeID, ScenarioID: "S", EmployeeID: employeeID}
	for _, periodID := range []string{"Q1", "Q2"} {
		if hours, ok := rows[periodID]; ok {
			a.Periods = append(a.Periods, entities.AllocationPeriod{PeriodID: periodID, HoursInPeriod: decimal.NewFromInt(hours)})
		}
	}
	return a
}

func TestAggregate_ProficiencyWeighted(t *testing.T) {
	employees := []*entities.Employee{
		fixtures.MustEmployee("E1", "Ada", 40, fixtures.Skill("backend", 5)),
		fixtures.MustEmployee("E2", "Bo", 40, fixtures.Skill("backend", 3), fixtures.Skill("frontend", 4)),
		fixtures.MustEmployee("E3", "Cy", 40, fixtures.Skill("design", 2)),
	}
	allocations := []*entities.Allocation{
		allocation("E1", map[string]int64{"Q1": 100, "Q2": 50}),
		allocation("E2", map[string]int64{"Q1": 200}),
		allocation("E2", map[string]int64{"Q1": 50}),
		allocation("E9", map[string]int64{"Q1": 500}),
	}

	result := Aggregate(employees, allocations, []string{"Q1", "Q2"})

	// E1 100×1.0 + E2 250×0.6
	assert.True(t, result.ByPeriodSkill.Get("Q1", "backend").Equal(decimal.NewFromInt(250)))
	assert.True(t, result.ByPeriodSkill.Get("Q1", "frontend").Equal(decimal.NewFromInt(200)))
	assert.True(t, result.ByPeriodSkill.Get("Q2", "backend").Equal(decimal.NewFromInt(50)))
	assert.True(t, result.ByPeriodSkill.Get("Q2", "frontend").IsZero(), "no allocation row means no contribution")
	assert.True(t, result.ByPeriodSkill.Get("Q1", "design").IsZero())

	assert.True(t, result.AllocatedHours["E2"].Equal(decimal.NewFromInt(250)))
	assert.True(t, result.AllocatedHours["E3"].IsZero())
	_, unknown := result.AllocatedHours["E9"]
	assert.False(t, unknown, "allocations of employees outside the set are ignored")

	require.Len(t, result.ByEmployeeSkill, 4)
	e2Frontend := result.ByEmployeeSkill[2]
	assert.Equal(t, "E2", e2Frontend.EmployeeID)
	assert.Equal(t, "frontend", e2Frontend.Skill)
	assert.Equal(t, 4, e2Frontend.Proficiency)
	assert.True(t, e2Frontend.Hours.Equal(decimal.NewFromInt(200)))

	assert.True(t, result.Total().Equal(decimal.NewFromInt(500)))
}

func TestAggregate_IgnoresPeriodsOutsideTarget(t *testing.T) {
	employees := []*entities.Employee{fixtures.MustEmployee("E1", "Ada", 40, fixtures.Skill("backend", 5))}
	allocations := []*entities.Allocation{allocation("E1", map[string]int64{"Q1": 100, "Q2": 50})}

	result := Aggregate(employees, allocations, []string{"Q2"})
	assert.True(t, result.Total().Equal(decimal.NewFromInt(50)))
	assert.True(t, result.AllocatedHours["E1"].Equal(decimal.NewFromInt(50)))
}

func TestAggregate_FixtureQuarter(t *testing.T) {
	f := fixtures.BuildSimpleTestData()
	employees := []*entities.Employee{}
	for _, id := range []string{"E1", "E2", "E3"} {
		e, err := f.Store.Employees().GetEmployee(t.Context(), id)
		require.NoError(t, err)
		employees = append(employees, e)
	}
	allocations, err := f.Store.Allocations().ListByScenario(t.Context(), "S-BASE")
	require.NoError(t, err)

	result := Aggregate(employees, allocations, []string{fixtures.Q1})
	assert.Equal(t, "420", result.ByPeriodSkill.Get(fixtures.Q1, "backend").String())
	assert.Equal(t, "160", result.ByPeriodSkill.Get(fixtures.Q1, "frontend").String())
	assert.Equal(t, "72", result.ByPeriodSkill.Get(fixtures.Q1, "design").String())
}
