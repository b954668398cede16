package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/services"
)

const sampleDir = "../../../../examples/quarterly_plan"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capplan.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func memoryConfig(t *testing.T) string {
	return writeConfig(t, "[store]\ndriver = \"memory\"\n\n[log]\nlevel = \"error\"\n")
}

func sqliteConfig(t *testing.T) string {
	db := filepath.Join(t.TempDir(), "capplan.db")
	return writeConfig(t, "[store]\ndriver = \"sqlite\"\npath = \""+filepath.ToSlash(db)+"\"\n\n[log]\nlevel = \"error\"\n")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, "capplan %s", strings.Join(args, " "))
	return out
}

func TestCalculate_FromDataDirectory(t *testing.T) {
	cfg := memoryConfig(t)

	out := mustExecute(t, "--config", cfg, "--data", sampleDir, "--format", "json", "calculate", "S-BASE")

	var result dto.CalculationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "S-BASE", result.ScenarioID)
	assert.True(t, result.TotalDemand.Equal(decimal.NewFromInt(645)), "demand %s", result.TotalDemand)
	assert.True(t, result.TotalCapacity.Equal(decimal.NewFromInt(652)), "capacity %s", result.TotalCapacity)
}

func TestCalculate_TextAndSVG(t *testing.T) {
	cfg := memoryConfig(t)

	text := mustExecute(t, "--config", cfg, "--data", sampleDir, "calculate", "S-BASE", "--no-cache")
	assert.Contains(t, text, "Capacity Plan S-BASE")
	assert.Contains(t, text, "backend")

	svg := mustExecute(t, "--config", cfg, "--data", sampleDir, "--format", "svg", "calculate", "S-BASE")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(svg), "<svg"), "got %q", svg)
}

func TestCalculate_UnknownScenario(t *testing.T) {
	_, err := execute(t, "--config", memoryConfig(t), "--data", sampleDir, "calculate", "NOPE")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestRootCommand_RejectsBadFormat(t *testing.T) {
	_, err := execute(t, "--config", memoryConfig(t), "--format", "xml", "scenarios")
	assert.Error(t, err)
}

func TestScenarios_Lists(t *testing.T) {
	out := mustExecute(t, "--config", memoryConfig(t), "--data", sampleDir, "--format", "csv", "scenarios")

	assert.Contains(t, out, "id,name,period_id,type,status")
	assert.Contains(t, out, "S-BASE,Q1 baseline,2025-Q1,BASELINE,DRAFT")
	assert.Contains(t, out, "S-WHATIF")
}

func TestAutoAllocate_PreviewDoesNotPersist(t *testing.T) {
	cfg := sqliteConfig(t)
	mustExecute(t, "--config", cfg, "import", sampleDir)

	preview := mustExecute(t, "--config", cfg, "auto-allocate", "S-BASE")
	assert.Contains(t, preview, "Proposed allocations for S-BASE")
	assert.NotContains(t, preview, "Applied to")

	applied := mustExecute(t, "--config", cfg, "auto-allocate", "S-BASE", "--apply")
	assert.Contains(t, applied, "Applied to S-BASE: removed 3")
}

func TestBaselineLifecycle_AcrossInvocations(t *testing.T) {
	cfg := sqliteConfig(t)

	imported := mustExecute(t, "--config", cfg, "import", sampleDir)
	assert.Contains(t, imported, "Scenarios: 2")

	_, err := execute(t, "--config", cfg, "delta", "S-BASE")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	mustExecute(t, "--config", cfg, "transition", "S-BASE", "review")
	mustExecute(t, "--config", cfg, "transition", "S-BASE", "APPROVED")
	locked := mustExecute(t, "--config", cfg, "transition", "S-BASE", "LOCKED")
	assert.Contains(t, locked, "Scenario S-BASE is now LOCKED")
	assert.Contains(t, locked, "Baseline snapshot")

	_, err = execute(t, "--config", cfg, "auto-allocate", "S-BASE", "--apply")
	require.Error(t, err)
	assert.Equal(t, errs.KindWorkflow, errs.KindOf(err))

	var snapshot entities.BaselineSnapshot
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "--config", cfg, "--format", "json", "snapshot", "show", "S-BASE")), &snapshot))
	assert.Equal(t, "S-BASE", snapshot.ScenarioID)

	var again entities.BaselineSnapshot
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "--config", cfg, "--format", "json", "snapshot", "capture", "S-BASE")), &again))
	assert.Equal(t, snapshot.ID, again.ID, "capture must be idempotent")

	var delta dto.DeltaResult
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "--config", cfg, "--format", "json", "delta", "S-BASE")), &delta))
	assert.True(t, delta.Summary.NetGapDrift.IsZero())

	check := mustExecute(t, "--config", cfg, "drift", "check", "S-BASE")
	assert.Contains(t, check, "Drift check of S-BASE")
	assert.NotContains(t, check, "EXCEEDED")

	assert.Contains(t, mustExecute(t, "--config", cfg, "drift", "alerts", "S-BASE"), "No drift alerts")
}

func TestThresholds_SetPersistsOverride(t *testing.T) {
	cfg := sqliteConfig(t)

	assert.Contains(t, mustExecute(t, "--config", cfg, "thresholds", "get"), "Global: capacity 5%, demand 10%")

	mustExecute(t, "--config", cfg, "thresholds", "set", "--period", "2025-Q1", "--capacity", "2")
	mustExecute(t, "--config", cfg, "thresholds", "set", "--demand", "12.5")

	out := mustExecute(t, "--config", cfg, "--format", "csv", "thresholds", "get")
	assert.Contains(t, out, "global,5,12.5")
	assert.Contains(t, out, "2025-Q1,2,10")

	_, err := execute(t, "--config", cfg, "thresholds", "set", "--capacity", "-1")
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = execute(t, "--config", cfg, "thresholds", "set", "--capacity", "lots")
	assert.Error(t, err)
}

func TestTransition_RejectsSkippedStep(t *testing.T) {
	cfg := sqliteConfig(t)
	mustExecute(t, "--config", cfg, "import", sampleDir)

	_, err := execute(t, "--config", cfg, "transition", "S-BASE", "LOCKED")
	require.Error(t, err)
	assert.Equal(t, errs.KindWorkflow, errs.KindOf(err))
}

func TestAvailability_WeeklyCalendar(t *testing.T) {
	cfg := memoryConfig(t)

	text := mustExecute(t, "--config", cfg, "--data", sampleDir, "availability", "E3", "S-BASE")
	assert.Contains(t, text, "Availability of E3 in S-BASE")
	assert.Contains(t, text, "2025-W14")
	assert.NotContains(t, text, "over-allocated")

	var calendar []services.WeeklyAvailability
	require.NoError(t, json.Unmarshal([]byte(mustExecute(t, "--config", cfg, "--data", sampleDir, "--format", "json",
		"availability", "E3", "S-BASE")), &calendar))
	require.Len(t, calendar, 14)
	assert.True(t, calendar[1].AllocatedHours.Equal(decimal.NewFromInt(7)), "got %s", calendar[1].AllocatedHours)

	_, err := execute(t, "--config", cfg, "--data", sampleDir, "availability", "E404", "S-BASE")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
