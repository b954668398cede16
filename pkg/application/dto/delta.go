package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapacityDelta compares one employee's capacity in one skill
type CapacityDelta struct {
	EmployeeID    string          `json:"employee_id"`
	EmployeeName  string          `json:"employee_name"`
	Skill         string          `json:"skill"`
	SnapshotHours decimal.Decimal `json:"snapshot_hours"`
	LiveHours     decimal.Decimal `json:"live_hours"`
	Delta         decimal.Decimal `json:"delta"`
	// Departed is set when the employee no longer appears in live data
	Departed bool `json:"departed"`
}

// DemandDelta compares one initiative's demand in one skill
type DemandDelta struct {
	InitiativeID  string          `json:"initiative_id"`
	Title         string          `json:"title"`
	Skill         string          `json:"skill"`
	SnapshotHours decimal.Decimal `json:"snapshot_hours"`
	LiveHours     decimal.Decimal `json:"live_hours"`
	Delta         decimal.Decimal `json:"delta"`
}

// SkillDelta is a per-skill rollup; Delta = live − snapshot
type SkillDelta struct {
	Skill         string          `json:"skill"`
	SnapshotHours decimal.Decimal `json:"snapshot_hours"`
	LiveHours     decimal.Decimal `json:"live_hours"`
	Delta         decimal.Decimal `json:"delta"`
}

// AllocationChange classifies an (employee, initiative) pair
type AllocationChange string

const (
	AllocationAdded    AllocationChange = "added"
	AllocationRemoved  AllocationChange = "removed"
	AllocationModified AllocationChange = "modified"
)

// AllocationDelta is a changed (employee, initiative) pair
type AllocationDelta struct {
	EmployeeID         string           `json:"employee_id"`
	InitiativeID       string           `json:"initiative_id"`
	Change             AllocationChange `json:"change"`
	SnapshotPercentage decimal.Decimal  `json:"snapshot_percentage"`
	LivePercentage     decimal.Decimal  `json:"live_percentage"`
	SnapshotHours      decimal.Decimal  `json:"snapshot_hours"`
	LiveHours          decimal.Decimal  `json:"live_hours"`
}

// PeriodDrift compares the totals of one period
type PeriodDrift struct {
	PeriodID         string          `json:"period_id"`
	SnapshotCapacity decimal.Decimal `json:"snapshot_capacity"`
	LiveCapacity     decimal.Decimal `json:"live_capacity"`
	CapacityDriftPct decimal.Decimal `json:"capacity_drift_pct"`
	SnapshotDemand   decimal.Decimal `json:"snapshot_demand"`
	LiveDemand       decimal.Decimal `json:"live_demand"`
	DemandDriftPct   decimal.Decimal `json:"demand_drift_pct"`
	NetGapDrift      decimal.Decimal `json:"net_gap_drift"`
}

// DeltaSummary compares scenario-wide totals
type DeltaSummary struct {
	SnapshotCapacity decimal.Decimal `json:"snapshot_capacity"`
	LiveCapacity     decimal.Decimal `json:"live_capacity"`
	CapacityDriftPct decimal.Decimal `json:"capacity_drift_pct"`
	SnapshotDemand   decimal.Decimal `json:"snapshot_demand"`
	LiveDemand       decimal.Decimal `json:"live_demand"`
	DemandDriftPct   decimal.Decimal `json:"demand_drift_pct"`
	SnapshotNetGap   decimal.Decimal `json:"snapshot_net_gap"`
	LiveNetGap       decimal.Decimal `json:"live_net_gap"`
	NetGapDrift      decimal.Decimal `json:"net_gap_drift"`
}

// DeltaResult diffs live data against a baseline snapshot
type DeltaResult struct {
	ScenarioID      string            `json:"scenario_id"`
	SnapshotID      string            `json:"snapshot_id"`
	CapturedAt      time.Time         `json:"captured_at"`
	ComputedAt      time.Time         `json:"computed_at"`
	Capacity        []CapacityDelta   `json:"capacity"`
	CapacityBySkill []SkillDelta      `json:"capacity_by_skill"`
	Demand          []DemandDelta     `json:"demand"`
	DemandBySkill   []SkillDelta      `json:"demand_by_skill"`
	Allocations     []AllocationDelta `json:"allocations"`
	Periods         []PeriodDrift     `json:"periods"`
	Summary         DeltaSummary      `json:"summary"`
}

// CapacitySkill returns the capacity rollup of a skill
func (r *DeltaResult) CapacitySkill(skill string) (SkillDelta, bool) {
	return findSkill(r.CapacityBySkill, skill)
}

// DemandSkill returns the demand rollup of a skill
func (r *DeltaResult) DemandSkill(skill string) (SkillDelta, bool) {
	return findSkill(r.DemandBySkill, skill)
}

func findSkill(deltas []SkillDelta, skill string) (SkillDelta, bool) {
	for _, d := range deltas {
		if d.Skill == skill {
			return d, true
		}
	}
	return SkillDelta{}, false
}
