package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// SnapshotCapacity is the proficiency-weighted capacity of one employee in one skill
type SnapshotCapacity struct {
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Skill        string          `json:"skill"`
	Proficiency  int             `json:"proficiency"`
	Hours        decimal.Decimal `json:"hours"`
}

// SnapshotDemand is the period-weighted demand of one initiative in one skill
type SnapshotDemand struct {
	InitiativeID string          `json:"initiative_id"`
	Title        string          `json:"title"`
	Skill        string          `json:"skill"`
	Hours        decimal.Decimal `json:"hours"`
}

// SnapshotAllocation is the frozen hours of an (employee, initiative) pair
type SnapshotAllocation struct {
	EmployeeID   string          `json:"employee_id"`
	InitiativeID string          `json:"initiative_id"`
	Percentage   decimal.Decimal `json:"percentage"`
	Hours        decimal.Decimal `json:"hours"`
}

// PeriodTotals are the capacity and demand sums of one period
type PeriodTotals struct {
	PeriodID string          `json:"period_id"`
	Capacity decimal.Decimal `json:"capacity"`
	Demand   decimal.Decimal `json:"demand"`
	Gap      decimal.Decimal `json:"gap"`
}

// SnapshotSummary holds scenario-wide totals
type SnapshotSummary struct {
	TotalCapacity decimal.Decimal `json:"total_capacity"`
	TotalDemand   decimal.Decimal `json:"total_demand"`
	NetGap        decimal.Decimal `json:"net_gap"`
	Periods       []PeriodTotals  `json:"periods"`
}

// BaselineSnapshot is the immutable point-in-time capture of a locked
// baseline scenario. It holds values only, never references to live rows.
type BaselineSnapshot struct {
	ID          string               `json:"id"`
	ScenarioID  string               `json:"scenario_id"`
	CapturedAt  time.Time            `json:"captured_at"`
	Capacity    []SnapshotCapacity   `json:"capacity"`
	Demand      []SnapshotDemand     `json:"demand"`
	Allocations []SnapshotAllocation `json:"allocations"`
	Summary     SnapshotSummary      `json:"summary"`
}

// Validate checks the snapshot invariants
func (s BaselineSnapshot) Validate() error {
	if s.ID == "" {
		return errs.Validation("snapshot id", "cannot be empty")
	}
	if s.ScenarioID == "" {
		return errs.Validation("snapshot scenario", "cannot be empty for %s", s.ID)
	}
	return nil
}

// Clone returns a deep copy
func (s BaselineSnapshot) Clone() BaselineSnapshot {
	c := s
	c.Capacity = append([]SnapshotCapacity(nil), s.Capacity...)
	c.Demand = append([]SnapshotDemand(nil), s.Demand...)
	c.Allocations = append([]SnapshotAllocation(nil), s.Allocations...)
	c.Summary.Periods = append([]PeriodTotals(nil), s.Summary.Periods...)
	return c
}
