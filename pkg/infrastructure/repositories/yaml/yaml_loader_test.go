package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadInitiativesKeepsSkillOrder(t *testing.T) {
	path := writeFile(t, "initiatives.yaml", `
initiatives:
  - id: I1
    title: Checkout rewrite
    status: resourcing
    scope_items:
      - id: S1
        name: API
        skill_demand:
          frontend: 40
          backend: 120.5
        period_distribution:
          2025-Q1: 0.75
          2025-Q2: 0.25
  - id: I2
    title: Search
`)
	initiatives, err := NewLoader().LoadInitiatives(path)
	require.NoError(t, err)
	require.Len(t, initiatives, 2)

	i1 := initiatives[0]
	assert.Equal(t, entities.InitiativeResourcing, i1.Status)
	require.Len(t, i1.ScopeItems, 1)
	demand := i1.ScopeItems[0].SkillDemand
	require.Len(t, demand, 2)
	assert.Equal(t, "frontend", demand[0].Skill)
	assert.True(t, demand.Get("backend").Equal(decimal.RequireFromString("120.5")))
	assert.True(t, i1.ScopeItems[0].PeriodDistribution["2025-Q1"].Equal(decimal.RequireFromString("0.75")))

	assert.Equal(t, entities.InitiativeProposed, initiatives[1].Status)
}

func TestLoader_LoadInitiativesRejectsBadInput(t *testing.T) {
	testCases := map[string]string{
		"list demand": `
initiatives:
  - id: I1
    scope_items:
      - id: S1
        skill_demand: [backend]
`,
		"duplicate skill": `
initiatives:
  - id: I1
    scope_items:
      - id: S1
        skill_demand:
          backend: 1
          backend: 2
`,
		"fraction above one": `
initiatives:
  - id: I1
    scope_items:
      - id: S1
        period_distribution:
          2025-Q1: 1.5
`,
		"empty": "",
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader().LoadInitiatives(writeFile(t, "initiatives.yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestLoader_LoadScenarios(t *testing.T) {
	path := writeFile(t, "scenarios.yaml", `
scenarios:
  - id: S1
    name: 2025 Q1 baseline
    period_id: 2025-Q1
    type: baseline
    priority_rankings:
      - initiative_id: I2
        rank: 1
      - initiative_id: I1
        rank: 2
  - id: S2
    name: What if
    period_id: 2025-Q1
    type: WHAT_IF
    status: REVIEW
    parent_scenario_id: S1
`)
	scenarios, err := NewLoader().LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, entities.ScenarioBaseline, scenarios[0].Type)
	assert.Equal(t, entities.ScenarioDraft, scenarios[0].Status)
	assert.Equal(t, "I2", scenarios[0].OrderedRankings()[0].InitiativeID)
	assert.Equal(t, entities.ScenarioReview, scenarios[1].Status)
	assert.Equal(t, "S1", scenarios[1].ParentScenarioID)

	bad := writeFile(t, "bad.yaml", `
scenarios:
  - id: S1
    period_id: 2025-Q1
    type: BASELINE
    priority_rankings:
      - initiative_id: I1
        rank: 0
`)
	_, err = NewLoader().LoadScenarios(bad)
	assert.Error(t, err)
}
