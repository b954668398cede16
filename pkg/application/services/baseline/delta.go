package baseline

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
)

var hundred = decimal.NewFromInt(100)

// DriftPct is (live − snapshot) / snapshot in percent, rounded to four
// places. From a zero snapshot any live value is a 100% drift.
func DriftPct(snapshot, live decimal.Decimal) decimal.Decimal {
	if snapshot.IsZero() {
		if live.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return live.Sub(snapshot).Mul(hundred).Div(snapshot).Round(4)
}

// ComputeDelta diffs live data against the scenario's snapshot. Every
// delta is live − snapshot, so growth is positive.
func (s *Service) ComputeDelta(ctx context.Context, scenarioID string) (*dto.DeltaResult, error) {
	scenario, err := s.store.Scenarios().GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if err := requireBaseline(scenario, "compute delta"); err != nil {
		return nil, err
	}
	snapshot, err := s.store.Snapshots().GetByScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	live, err := s.measure(ctx, s.store, scenarioID)
	if err != nil {
		return nil, err
	}

	result := &dto.DeltaResult{
		ScenarioID: scenarioID,
		SnapshotID: snapshot.ID,
		CapturedAt: snapshot.CapturedAt,
		ComputedAt: s.now().UTC(),
	}
	result.Capacity = capacityDeltas(snapshot.Capacity, live)
	result.CapacityBySkill = rollupCapacity(result.Capacity)
	result.Demand = demandDeltas(snapshot.Demand, live.demand)
	result.DemandBySkill = rollupDemand(result.Demand)
	result.Allocations = allocationDeltas(snapshot.Allocations, live.allocations)
	result.Periods = periodDrifts(snapshot.Summary.Periods, live.summary.Periods)
	result.Summary = summarize(snapshot.Summary, live.summary)

	s.logger.Debug("delta computed",
		zap.String("scenario_id", scenarioID),
		zap.String("capacity_drift_pct", result.Summary.CapacityDriftPct.String()),
		zap.String("demand_drift_pct", result.Summary.DemandDriftPct.String()),
		zap.Int("allocation_changes", len(result.Allocations)))
	return result, nil
}

type employeeSkill struct{ employeeID, skill string }

func capacityDeltas(frozen []entities.SnapshotCapacity, live *measurement) []dto.CapacityDelta {
	liveHours := make(map[employeeSkill]entities.SnapshotCapacity, len(live.capacity))
	for _, c := range live.capacity {
		liveHours[employeeSkill{c.EmployeeID, c.Skill}] = c
	}

	seen := make(map[employeeSkill]bool, len(frozen))
	var deltas []dto.CapacityDelta
	for _, c := range frozen {
		key := employeeSkill{c.EmployeeID, c.Skill}
		seen[key] = true
		current := liveHours[key]
		deltas = append(deltas, dto.CapacityDelta{
			EmployeeID:    c.EmployeeID,
			EmployeeName:  c.EmployeeName,
			Skill:         c.Skill,
			SnapshotHours: c.Hours,
			LiveHours:     current.Hours,
			Delta:         current.Hours.Sub(c.Hours),
			Departed:      !live.employees[c.EmployeeID],
		})
	}
	for _, c := range live.capacity {
		if seen[employeeSkill{c.EmployeeID, c.Skill}] {
			continue
		}
		deltas = append(deltas, dto.CapacityDelta{
			EmployeeID:    c.EmployeeID,
			EmployeeName:  c.EmployeeName,
			Skill:         c.Skill,
			SnapshotHours: decimal.Zero,
			LiveHours:     c.Hours,
			Delta:         c.Hours,
		})
	}
	return deltas
}

type initiativeSkill struct{ initiativeID, skill string }

func demandDeltas(frozen, live []entities.SnapshotDemand) []dto.DemandDelta {
	liveHours := make(map[initiativeSkill]decimal.Decimal, len(live))
	for _, d := range live {
		liveHours[initiativeSkill{d.InitiativeID, d.Skill}] = d.Hours
	}

	seen := make(map[initiativeSkill]bool, len(frozen))
	var deltas []dto.DemandDelta
	for _, d := range frozen {
		key := initiativeSkill{d.InitiativeID, d.Skill}
		seen[key] = true
		current := liveHours[key]
		deltas = append(deltas, dto.DemandDelta{
			InitiativeID:  d.InitiativeID,
			Title:         d.Title,
			Skill:         d.Skill,
			SnapshotHours: d.Hours,
			LiveHours:     current,
			Delta:         current.Sub(d.Hours),
		})
	}
	for _, d := range live {
		if seen[initiativeSkill{d.InitiativeID, d.Skill}] {
			continue
		}
		deltas = append(deltas, dto.DemandDelta{
			InitiativeID:  d.InitiativeID,
			Title:         d.Title,
			Skill:         d.Skill,
			SnapshotHours: decimal.Zero,
			LiveHours:     d.Hours,
			Delta:         d.Hours,
		})
	}
	return deltas
}

type skillRollup struct {
	order []string
	rows  map[string]*dto.SkillDelta
}

func newSkillRollup() *skillRollup {
	return &skillRollup{rows: make(map[string]*dto.SkillDelta)}
}

func (r *skillRollup) add(skill string, snapshot, live decimal.Decimal) {
	row, ok := r.rows[skill]
	if !ok {
		row = &dto.SkillDelta{Skill: skill}
		r.rows[skill] = row
		r.order = append(r.order, skill)
	}
	row.SnapshotHours = row.SnapshotHours.Add(snapshot)
	row.LiveHours = row.LiveHours.Add(live)
	row.Delta = row.LiveHours.Sub(row.SnapshotHours)
}

func (r *skillRollup) list() []dto.SkillDelta {
	out := make([]dto.SkillDelta, 0, len(r.order))
	for _, skill := range r.order {
		out = append(out, *r.rows[skill])
	}
	return out
}

func rollupCapacity(deltas []dto.CapacityDelta) []dto.SkillDelta {
	r := newSkillRollup()
	for _, d := range deltas {
		r.add(d.Skill, d.SnapshotHours, d.LiveHours)
	}
	return r.list()
}

func rollupDemand(deltas []dto.DemandDelta) []dto.SkillDelta {
	r := newSkillRollup()
	for _, d := range deltas {
		r.add(d.Skill, d.SnapshotHours, d.LiveHours)
	}
	return r.list()
}

// allocationDeltas lists the pairs that were added, removed or changed.
// Unchanged pairs are omitted.
func allocationDeltas(frozen, live []entities.SnapshotAllocation) []dto.AllocationDelta {
	type pairKey struct{ employeeID, initiativeID string }

	liveByPair := make(map[pairKey]entities.SnapshotAllocation, len(live))
	for _, a := range live {
		liveByPair[pairKey{a.EmployeeID, a.InitiativeID}] = a
	}

	seen := make(map[pairKey]bool, len(frozen))
	var deltas []dto.AllocationDelta
	for _, a := range frozen {
		key := pairKey{a.EmployeeID, a.InitiativeID}
		seen[key] = true
		current, ok := liveByPair[key]
		if !ok {
			deltas = append(deltas, dto.AllocationDelta{
				EmployeeID:         a.EmployeeID,
				InitiativeID:       a.InitiativeID,
				Change:             dto.AllocationRemoved,
				SnapshotPercentage: a.Percentage,
				SnapshotHours:      a.Hours,
			})
			continue
		}
		if current.Percentage.Equal(a.Percentage) && current.Hours.Equal(a.Hours) {
			continue
		}
		deltas = append(deltas, dto.AllocationDelta{
			EmployeeID:         a.EmployeeID,
			InitiativeID:       a.InitiativeID,
			Change:             dto.AllocationModified,
			SnapshotPercentage: a.Percentage,
			LivePercentage:     current.Percentage,
			SnapshotHours:      a.Hours,
			LiveHours:          current.Hours,
		})
	}
	for _, a := range live {
		if seen[pairKey{a.EmployeeID, a.InitiativeID}] {
			continue
		}
		deltas = append(deltas, dto.AllocationDelta{
			EmployeeID:     a.EmployeeID,
			InitiativeID:   a.InitiativeID,
			Change:         dto.AllocationAdded,
			LivePercentage: a.Percentage,
			LiveHours:      a.Hours,
		})
	}
	return deltas
}

func periodDrifts(frozen, live []entities.PeriodTotals) []dto.PeriodDrift {
	liveByPeriod := make(map[string]entities.PeriodTotals, len(live))
	for _, p := range live {
		liveByPeriod[p.PeriodID] = p
	}

	seen := make(map[string]bool, len(frozen))
	drifts := make([]dto.PeriodDrift, 0, len(frozen))
	for _, p := range frozen {
		seen[p.PeriodID] = true
		drifts = append(drifts, periodDrift(p, liveByPeriod[p.PeriodID]))
	}
	for _, p := range live {
		if !seen[p.PeriodID] {
			drifts = append(drifts, periodDrift(entities.PeriodTotals{PeriodID: p.PeriodID}, p))
		}
	}
	return drifts
}

func periodDrift(frozen, live entities.PeriodTotals) dto.PeriodDrift {
	frozenGap := frozen.Capacity.Sub(frozen.Demand)
	liveGap := live.Capacity.Sub(live.Demand)
	return dto.PeriodDrift{
		PeriodID:         frozen.PeriodID,
		SnapshotCapacity: frozen.Capacity,
		LiveCapacity:     live.Capacity,
		CapacityDriftPct: DriftPct(frozen.Capacity, live.Capacity),
		SnapshotDemand:   frozen.Demand,
		LiveDemand:       live.Demand,
		DemandDriftPct:   DriftPct(frozen.Demand, live.Demand),
		NetGapDrift:      liveGap.Sub(frozenGap),
	}
}

func summarize(frozen, live entities.SnapshotSummary) dto.DeltaSummary {
	return dto.DeltaSummary{
		SnapshotCapacity: frozen.TotalCapacity,
		LiveCapacity:     live.TotalCapacity,
		CapacityDriftPct: DriftPct(frozen.TotalCapacity, live.TotalCapacity),
		SnapshotDemand:   frozen.TotalDemand,
		LiveDemand:       live.TotalDemand,
		DemandDriftPct:   DriftPct(frozen.TotalDemand, live.TotalDemand),
		SnapshotNetGap:   frozen.NetGap,
		LiveNetGap:       live.NetGap,
		NetGapDrift:      live.NetGap.Sub(frozen.NetGap),
	}
}
