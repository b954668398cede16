package csv

import (
	"os"
	"path/filepath"
	"strings"
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

func TestLoader_LoadPeriods(t *testing.T) {
	path := writeFile(t, "periods.csv", `id,type,start_date,end_date,label
2025-Q1,QUARTER,2025-01-01,2025-03-31,Q1 2025
2025-W02,week,2025-01-06,2025-01-12,
`)
	periods, err := NewLoader().LoadPeriods(path)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, entities.Quarter, periods[0].Type)
	assert.Equal(t, 90, periods[0].Days())
	assert.Equal(t, entities.Week, periods[1].Type)
}

func TestLoader_LoadEmployees(t *testing.T) {
	path := writeFile(t, "employees.csv", `id,name,org_unit_id,weekly_hours,skills,max_allocation_percent,active
E1,Ada,platform,40,backend:5|frontend:3,,true
E2,Bo,web,32,frontend:4,80,false
`)
	employees, err := NewLoader().LoadEmployees(path)
	require.NoError(t, err)
	require.Len(t, employees, 2)

	ada := employees[0]
	assert.Equal(t, "platform", ada.OrgUnitID)
	assert.True(t, ada.Active)
	require.Len(t, ada.Skills, 2)
	assert.Equal(t, entities.Skill{Name: "backend", Proficiency: 5}, ada.Skills[0])
	assert.True(t, ada.MaxAllocationPercent.IsZero())

	bo := employees[1]
	assert.False(t, bo.Active)
	assert.True(t, bo.MaxAllocationPercent.Equal(decimal.NewFromInt(80)))
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		expectError string
	}{
		{
			"header mismatch",
			"id,name\nE1,Ada\n",
			"employees CSV header mismatch",
		},
		{
			"bad skill",
			"id,name,org_unit_id,weekly_hours,skills,max_allocation_percent,active\nE1,Ada,,40,backend,,\n",
			"employees CSV row 2: invalid skill",
		},
		{
			"proficiency out of range",
			"id,name,org_unit_id,weekly_hours,skills,max_allocation_percent,active\nE1,Ada,,40,backend:9,,\n",
			"employees CSV row 2: validation failed: proficiency",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadEmployees(writeFile(t, "employees.csv", tc.content))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.expectError), "got %q", err.Error())
		})
	}
}

func TestLoader_LoadCalendarAndAllocations(t *testing.T) {
	calendar := writeFile(t, "capacity_calendar.csv", `employee_id,period_id,available_hours,reason
E1,2025-Q1,300,pto
`)
	rows, err := NewLoader().LoadCalendar(calendar)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "E1", rows[0].EmployeeID)
	assert.Equal(t, entities.ReasonPTO, rows[0].Entry.Reason)

	allocations := writeFile(t, "allocations.csv", `id,scenario_id,employee_id,initiative_id,start_date,end_date,percentage,ramp_modifier
A1,S1,E1,I1,2025-01-01,2025-03-31,50,0.5
A2,S1,E2,,2025-02-01,2025-03-31,100,
`)
	loaded, err := NewLoader().LoadAllocations(allocations)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].RampModifier.Equal(decimal.NewFromFloat(0.5)))
	assert.Equal(t, "", loaded[1].InitiativeID)
	assert.True(t, loaded[1].EffectiveRamp().Equal(decimal.NewFromInt(1)))
}
