package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/services/calculator"
	"github.com/vsinha/capplan/pkg/application/services/orchestration"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/dataset"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/sqlite"
)

const sampleDir = "../../../../examples/quarterly_plan"

func TestImporter_SampleDataset(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	summary, err := dataset.NewImporter(entities.Quarter, zap.NewNop()).Import(ctx, store, sampleDir)
	require.NoError(t, err)
	assert.Equal(t, dataset.Summary{
		Periods:         4,
		Employees:       4,
		CalendarEntries: 2,
		Initiatives:     2,
		Scenarios:       2,
		Allocations:     3,
	}, *summary)

	e1, err := store.Employees().GetEmployee(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, e1.Calendar, 1)
	assert.True(t, e1.Calendar[0].AvailableHours.Equal(decimal.NewFromInt(500)))

	a1, err := store.Allocations().GetAllocation(ctx, "A1")
	require.NoError(t, err)
	hours, ok := a1.HoursIn("2025-Q1")
	require.True(t, ok)
	assert.True(t, hours.Equal(decimal.NewFromInt(300)), "expected 60 percent of 500h, got %s", hours)

	whatIf, err := store.Scenarios().GetScenario(ctx, "S-WHATIF")
	require.NoError(t, err)
	assert.Equal(t, entities.ScenarioWhatIf, whatIf.Type)
	assert.Equal(t, "S-BASE", whatIf.ParentScenarioID)
}

func TestImporter_FeedsThePlanner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := dataset.NewImporter(entities.Quarter, nil).Import(ctx, store, sampleDir)
	require.NoError(t, err)

	planner, err := orchestration.NewPlanner(store, zap.NewNop(), orchestration.Options{})
	require.NoError(t, err)

	result, err := planner.Calculate(ctx, "S-BASE", calculator.Options{})
	require.NoError(t, err)
	assert.True(t, result.TotalDemand.Equal(decimal.NewFromInt(645)), "demand %s", result.TotalDemand)
	assert.True(t, result.TotalCapacity.Equal(decimal.NewFromInt(652)), "capacity %s", result.TotalCapacity)
}

func TestImporter_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "capplan.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = dataset.NewImporter(entities.Quarter, nil).Import(ctx, store, sampleDir)
	require.NoError(t, err)

	allocations, err := store.Allocations().ListByScenario(ctx, "S-BASE")
	require.NoError(t, err)
	assert.Len(t, allocations, 3)
}

func copySample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(sampleDir)
	require.NoError(t, err)
	for _, e := range entries {
		content, err := os.ReadFile(filepath.Join(sampleDir, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), content, 0o644))
	}
	return dir
}

func TestImporter_OptionalFiles(t *testing.T) {
	dir := copySample(t)
	require.NoError(t, os.Remove(filepath.Join(dir, dataset.CalendarFile)))
	require.NoError(t, os.Remove(filepath.Join(dir, dataset.AllocationsFile)))

	summary, err := dataset.NewImporter(entities.Quarter, nil).Import(context.Background(), memory.NewStore(), dir)
	require.NoError(t, err)
	assert.Zero(t, summary.CalendarEntries)
	assert.Zero(t, summary.Allocations)
}

func TestImporter_Rejects(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(t *testing.T, dir string)
		notFound bool
	}{
		{
			name: "missing required file",
			mutate: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, dataset.ScenariosFile)))
			},
		},
		{
			name: "calendar for unknown employee",
			mutate: func(t *testing.T, dir string) {
				writeFile(t, dir, dataset.CalendarFile, "employee_id,period_id,available_hours,reason\nE9,2025-Q1,10,PTO\n")
			},
			notFound: true,
		},
		{
			name: "allocation for unknown employee",
			mutate: func(t *testing.T, dir string) {
				writeFile(t, dir, dataset.AllocationsFile,
					"id,scenario_id,employee_id,initiative_id,start_date,end_date,percentage,ramp_modifier\n"+
						"A1,S-BASE,E9,I1,2025-01-01,2025-03-31,60,\n")
			},
			notFound: true,
		},
		{
			name: "allocation for unknown scenario",
			mutate: func(t *testing.T, dir string) {
				writeFile(t, dir, dataset.AllocationsFile,
					"id,scenario_id,employee_id,initiative_id,start_date,end_date,percentage,ramp_modifier\n"+
						"A1,S-NONE,E1,I1,2025-01-01,2025-03-31,60,\n")
			},
			notFound: true,
		},
		{
			name: "bad period row",
			mutate: func(t *testing.T, dir string) {
				writeFile(t, dir, dataset.PeriodsFile, "id,type,start_date,end_date,label\n2025-Q1,QUARTER,2025-03-31,2025-01-01,\n")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := copySample(t)
			tc.mutate(t, dir)

			store := memory.NewStore()
			_, err := dataset.NewImporter(entities.Quarter, nil).Import(context.Background(), store, dir)
			require.Error(t, err)
			if tc.notFound {
				assert.True(t, errors.Is(err, errs.ErrNotFound), "expected not found, got %v", err)
			}
			assertEmpty(t, store)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func assertEmpty(t *testing.T, store repositories.Store) {
	t.Helper()
	scenarios, err := store.Scenarios().ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scenarios)
	employees, err := store.Employees().ListEmployees(context.Background(), repositories.EmployeeFilter{})
	require.NoError(t, err)
	assert.Empty(t, employees)
}

func TestImporter_NotADirectory(t *testing.T) {
	_, err := dataset.NewImporter(entities.Quarter, nil).Import(context.Background(), memory.NewStore(),
		filepath.Join(sampleDir, dataset.PeriodsFile))
	assert.Error(t, err)
}
