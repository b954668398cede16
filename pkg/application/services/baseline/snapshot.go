package baseline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/services/capacity"
	"github.com/vsinha/capplan/pkg/application/services/demand"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/infrastructure/events"
)

// measurement is the value-only state of a scenario; snapshots freeze one
// and deltas compare a fresh one against it.
type measurement struct {
	employees   map[string]bool
	capacity    []entities.SnapshotCapacity
	demand      []entities.SnapshotDemand
	allocations []entities.SnapshotAllocation
	summary     entities.SnapshotSummary
}

func (s *Service) measure(ctx context.Context, store repositories.Store, scenarioID string) (*measurement, error) {
	data, err := s.loader.Load(ctx, store, scenarioID, "")
	if err != nil {
		return nil, err
	}
	periodIDs := data.PeriodIDs()

	demandResult, err := demand.Aggregate(data.Rankings, data.Initiatives, periodIDs)
	if err != nil {
		return nil, err
	}
	capacityResult := capacity.Aggregate(data.Employees, data.Allocations, periodIDs)

	m := &measurement{employees: make(map[string]bool, len(data.Employees))}
	for _, e := range data.Employees {
		m.employees[e.ID] = true
	}
	for _, c := range capacityResult.ByEmployeeSkill {
		m.capacity = append(m.capacity, entities.SnapshotCapacity{
			EmployeeID:   c.EmployeeID,
			EmployeeName: c.EmployeeName,
			Skill:        c.Skill,
			Proficiency:  c.Proficiency,
			Hours:        c.Hours,
		})
	}
	for _, d := range demandResult.ByInitiativeSkill {
		m.demand = append(m.demand, entities.SnapshotDemand{
			InitiativeID: d.InitiativeID,
			Title:        d.Title,
			Skill:        d.Skill,
			Hours:        d.Hours,
		})
	}
	m.allocations = allocationPairs(data.Allocations, periodIDs)

	m.summary = entities.SnapshotSummary{
		TotalCapacity: capacityResult.Total(),
		TotalDemand:   demandResult.Total(),
	}
	m.summary.NetGap = m.summary.TotalCapacity.Sub(m.summary.TotalDemand)
	for _, periodID := range periodIDs {
		c := capacityResult.ByPeriodSkill.PeriodTotal(periodID)
		d := demandResult.ByPeriodSkill.PeriodTotal(periodID)
		m.summary.Periods = append(m.summary.Periods, entities.PeriodTotals{
			PeriodID: periodID,
			Capacity: c,
			Demand:   d,
			Gap:      c.Sub(d),
		})
	}
	return m, nil
}

// allocationPairs sums percentage and in-target hours per (employee, initiative)
func allocationPairs(allocations []*entities.Allocation, periodIDs []string) []entities.SnapshotAllocation {
	type pairKey struct{ employeeID, initiativeID string }

	positions := make(map[pairKey]int)
	var pairs []entities.SnapshotAllocation
	for _, a := range allocations {
		hours := decimal.Zero
		for _, periodID := range periodIDs {
			if h, ok := a.HoursIn(periodID); ok {
				hours = hours.Add(h)
			}
		}

		key := pairKey{employeeID: a.EmployeeID, initiativeID: a.InitiativeID}
		if i, ok := positions[key]; ok {
			pairs[i].Percentage = pairs[i].Percentage.Add(a.Percentage)
			pairs[i].Hours = pairs[i].Hours.Add(hours)
			continue
		}
		positions[key] = len(pairs)
		pairs = append(pairs, entities.SnapshotAllocation{
			EmployeeID:   a.EmployeeID,
			InitiativeID: a.InitiativeID,
			Percentage:   a.Percentage,
			Hours:        hours,
		})
	}
	return pairs
}

// CaptureSnapshot freezes a LOCKED baseline scenario. Capturing twice
// returns the stored snapshot unchanged.
func (s *Service) CaptureSnapshot(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error) {
	snapshot, created, err := s.CaptureWithin(ctx, s.store, scenarioID)
	if err != nil {
		return nil, err
	}
	if created {
		s.Announce(ctx, snapshot)
	}
	return snapshot, nil
}

// CaptureWithin captures through the given store, which may be a
// transaction. It reports whether a new snapshot was written; the caller
// announces it once the transaction commits.
func (s *Service) CaptureWithin(
	ctx context.Context,
	store repositories.Store,
	scenarioID string,
) (*entities.BaselineSnapshot, bool, error) {
	scenario, err := store.Scenarios().GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, false, err
	}
	if err := requireBaseline(scenario, "capture snapshot"); err != nil {
		return nil, false, err
	}
	if scenario.Status != entities.ScenarioLocked {
		return nil, false, errs.Workflow("scenario", scenarioID, "capture snapshot", string(scenario.Status), "")
	}

	existing, err := store.Snapshots().GetByScenario(ctx, scenarioID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, false, err
	}

	m, err := s.measure(ctx, store, scenarioID)
	if err != nil {
		return nil, false, err
	}
	snapshot := &entities.BaselineSnapshot{
		ID:          uuid.NewString(),
		ScenarioID:  scenarioID,
		CapturedAt:  s.now().UTC(),
		Capacity:    m.capacity,
		Demand:      m.demand,
		Allocations: m.allocations,
		Summary:     m.summary,
	}
	if err := store.Snapshots().CreateSnapshot(ctx, snapshot); err != nil {
		return nil, false, err
	}

	s.logger.Info("baseline snapshot captured",
		zap.String("scenario_id", scenarioID),
		zap.String("snapshot_id", snapshot.ID),
		zap.String("total_capacity", snapshot.Summary.TotalCapacity.StringFixed(2)),
		zap.String("total_demand", snapshot.Summary.TotalDemand.StringFixed(2)))
	return snapshot, true, nil
}

// Announce publishes a captured snapshot
func (s *Service) Announce(ctx context.Context, snapshot *entities.BaselineSnapshot) {
	s.publish(ctx, snapshot.ScenarioID, events.NewSnapshotCapturedEvent(snapshot.ScenarioID, snapshot.ID))
}

// GetSnapshot returns the scenario's snapshot
func (s *Service) GetSnapshot(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error) {
	if _, err := s.store.Scenarios().GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.store.Snapshots().GetByScenario(ctx, scenarioID)
}
