package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/services/allocation"
	"github.com/vsinha/capplan/pkg/application/services/calculator"
	testinghelpers "github.com/vsinha/capplan/pkg/application/services/testing"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/infrastructure/events"
)

func newTestPlanner(t *testing.T, f *testinghelpers.Fixture, eventStore *events.InMemoryEventStore) *Planner {
	t.Helper()
	planner, err := NewPlanner(f.Store, zap.NewNop(), Options{Events: eventStore})
	if err != nil {
		t.Fatalf("Failed to create planner: %v", err)
	}
	return planner
}

func TestPlanner_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := testinghelpers.BuildSimpleTestData()
	eventStore := events.NewInMemoryEventStore(zap.NewNop())
	planner := newTestPlanner(t, f, eventStore)

	before, err := planner.Calculate(ctx, "S-BASE", calculator.Options{})
	if err != nil {
		t.Fatalf("Failed to calculate: %v", err)
	}
	if len(before.BindingConstraints) != 1 || before.BindingConstraints[0].Skill != "backend" {
		t.Fatalf("Expected backend to be the only binding constraint, got %+v", before.BindingConstraints)
	}

	proposal, err := planner.AutoAllocate(ctx, "S-BASE", allocation.AutoAllocateOptions{})
	if err != nil {
		t.Fatalf("Failed to auto-allocate: %v", err)
	}
	if len(proposal.Warnings) != 0 {
		t.Errorf("Expected a fully covered proposal, got warnings %v", proposal.Warnings)
	}

	applied, err := planner.ApplyAutoAllocate(ctx, "S-BASE", proposal.Proposals)
	if err != nil {
		t.Fatalf("Failed to apply proposal: %v", err)
	}
	t.Logf("Applied %d allocations, removed %d", applied.Created, applied.Removed)
	eventStore.Wait()

	after, err := planner.Calculate(ctx, "S-BASE", calculator.Options{})
	if err != nil {
		t.Fatalf("Failed to recalculate: %v", err)
	}
	if !after.CacheHit {
		t.Error("Expected the recompute job to have warmed the cache")
	}
	backend, _ := after.Row(testinghelpers.Q1, "backend")
	// E1 100% of 500h, E2 75% of 400h at 0.6
	if want := decimal.NewFromInt(680); !backend.Capacity.Equal(want) {
		t.Errorf("Expected backend capacity %s after apply, got %s", want, backend.Capacity)
	}

	recomputes, err := eventStore.ReadEvents("S-BASE", 1)
	if err != nil {
		t.Fatalf("Failed to read events: %v", err)
	}
	if len(recomputes) != 1 || recomputes[0].Type() != events.RecomputeRequestedEvent {
		t.Errorf("Expected one recompute request, got %d events", len(recomputes))
	}

	for _, status := range []entities.ScenarioStatus{entities.ScenarioReview, entities.ScenarioApproved} {
		if _, err := planner.TransitionScenario(ctx, "S-BASE", status); err != nil {
			t.Fatalf("Failed to move to %s: %v", status, err)
		}
	}
	if _, err := planner.ComputeDelta(ctx, "S-BASE"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected delta before lock to fail with NotFound, got %v", err)
	}

	locked, err := planner.TransitionScenario(ctx, "S-BASE", entities.ScenarioLocked)
	if err != nil {
		t.Fatalf("Failed to lock: %v", err)
	}
	if locked.Snapshot == nil {
		t.Fatal("Expected locking a baseline to capture a snapshot")
	}
	if !locked.Snapshot.Summary.TotalCapacity.Equal(after.TotalCapacity) {
		t.Errorf("Expected snapshot capacity %s, got %s", after.TotalCapacity, locked.Snapshot.Summary.TotalCapacity)
	}

	if _, err := planner.ApplyAutoAllocate(ctx, "S-BASE", proposal.Proposals); !errors.Is(err, errs.ErrWorkflow) {
		t.Errorf("Expected apply on a locked scenario to fail with Workflow, got %v", err)
	}

	delta, err := planner.ComputeDelta(ctx, "S-BASE")
	if err != nil {
		t.Fatalf("Failed to compute delta: %v", err)
	}
	if len(delta.Allocations) != 0 || !delta.Summary.NetGapDrift.IsZero() {
		t.Errorf("Expected no drift right after lock, got %d allocation changes and net gap drift %s",
			len(delta.Allocations), delta.Summary.NetGapDrift)
	}

	f.Allocate("A-LATE", "S-BASE", "E3", "I1", 50)
	drift, err := planner.CheckDrift(ctx, "S-BASE")
	if err != nil {
		t.Fatalf("Failed to check drift: %v", err)
	}
	if len(drift.Alerts) != 1 {
		t.Fatalf("Expected one drift alert, got %d", len(drift.Alerts))
	}
	eventStore.Wait()

	raised, err := eventStore.ReadEvents("S-BASE", 0)
	if err != nil {
		t.Fatalf("Failed to read events: %v", err)
	}
	var snapshots, alerts int
	for _, e := range raised {
		switch e.Type() {
		case events.SnapshotCapturedEvent:
			snapshots++
		case events.DriftAlertRaisedEvent:
			alerts++
		}
	}
	if snapshots != 1 || alerts != 1 {
		t.Errorf("Expected one snapshot and one alert event, got %d and %d", snapshots, alerts)
	}
}

func TestPlanner_TransitionRules(t *testing.T) {
	ctx := context.Background()
	f := testinghelpers.BuildSimpleTestData()
	f.AddScenario(testinghelpers.MustScenario("S-WHATIF", testinghelpers.Q1, entities.ScenarioWhatIf,
		testinghelpers.Rank("I1", 1)))
	planner := newTestPlanner(t, f, nil)

	_, err := planner.TransitionScenario(ctx, "S-BASE", entities.ScenarioLocked)
	var wfErr *errs.WorkflowError
	if !errors.As(err, &wfErr) {
		t.Fatalf("Expected a workflow error for DRAFT -> LOCKED, got %v", err)
	}
	if wfErr.Current != string(entities.ScenarioDraft) || wfErr.Attempted != string(entities.ScenarioLocked) {
		t.Errorf("Expected current DRAFT and attempted LOCKED, got %s and %s", wfErr.Current, wfErr.Attempted)
	}

	scenario, err := planner.GetScenario(ctx, "S-BASE")
	if err != nil {
		t.Fatalf("Failed to read scenario: %v", err)
	}
	if scenario.Status != entities.ScenarioDraft {
		t.Errorf("Expected a rejected transition to leave the status unchanged, got %s", scenario.Status)
	}

	for _, status := range []entities.ScenarioStatus{
		entities.ScenarioReview, entities.ScenarioApproved, entities.ScenarioLocked,
	} {
		result, err := planner.TransitionScenario(ctx, "S-WHATIF", status)
		if err != nil {
			t.Fatalf("Failed to move what-if to %s: %v", status, err)
		}
		if result.Snapshot != nil {
			t.Error("Expected no snapshot for a what-if scenario")
		}
	}

	if _, err := planner.TransitionScenario(ctx, "S-WHATIF", entities.ScenarioDraft); !errors.Is(err, errs.ErrWorkflow) {
		t.Errorf("Expected LOCKED to be terminal, got %v", err)
	}
	if _, err := planner.TransitionScenario(ctx, "S-BASE", "ARCHIVED"); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Expected unknown status to be a validation error, got %v", err)
	}
}

func TestPlanner_EmployeeAvailability(t *testing.T) {
	ctx := context.Background()
	f := testinghelpers.BuildSimpleTestData()
	f.AddScenario(testinghelpers.MustScenario("S-OTHER", testinghelpers.Q1, entities.ScenarioWhatIf))
	f.Allocate("A-OTHER", "S-OTHER", "E3", "I1", 50)
	planner := newTestPlanner(t, f, nil)

	calendar, err := planner.EmployeeAvailability(ctx, "E3", "S-BASE")
	if err != nil {
		t.Fatalf("Failed to compute availability: %v", err)
	}
	// 2025-Q1 runs Wednesday Jan 1 to Monday Mar 31
	if len(calendar) != 14 {
		t.Fatalf("Expected 14 weeks, got %d", len(calendar))
	}
	if calendar[0].WeekID != "2025-W01" || calendar[13].WeekID != "2025-W14" {
		t.Errorf("Expected weeks 2025-W01..2025-W14, got %s..%s", calendar[0].WeekID, calendar[13].WeekID)
	}

	week := calendar[1]
	if !week.BaseHours.Equal(decimal.NewFromInt(35)) {
		t.Errorf("Expected 35 base hours, got %s", week.BaseHours)
	}
	if !week.AllocatedHours.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected 20%% of 35h allocated in S-BASE only, got %s", week.AllocatedHours)
	}
	if !week.AvailableHours.Equal(decimal.NewFromInt(28)) {
		t.Errorf("Expected 28 available hours, got %s", week.AvailableHours)
	}

	if _, err := planner.EmployeeAvailability(ctx, "E404", "S-BASE"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected unknown employee to be not found, got %v", err)
	}
	if _, err := planner.EmployeeAvailability(ctx, "E3", "NOPE"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected unknown scenario to be not found, got %v", err)
	}
}
