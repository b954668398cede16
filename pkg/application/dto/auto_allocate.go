package dto

import (
	"github.com/shopspring/decimal"
)

// WarningKind classifies a non-fatal auto-allocation condition
type WarningKind string

const (
	// WarningInsufficientSkill means no active employee holds the skill
	WarningInsufficientSkill WarningKind = "insufficient-skill"
	// WarningInsufficientCapacity means qualified employees ran out of budget
	WarningInsufficientCapacity WarningKind = "insufficient-capacity"
	// WarningClosedInitiative means a ranked initiative is complete or cancelled
	WarningClosedInitiative WarningKind = "closed-initiative"
)

// ProposedAllocation is one consolidated (employee, initiative) proposal
type ProposedAllocation struct {
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	InitiativeID string          `json:"initiative_id"`
	Skills       []string        `json:"skills"`
	SkillLabel   string          `json:"skill_label"`
	Percentage   decimal.Decimal `json:"percentage"`
	Hours        decimal.Decimal `json:"hours"`
}

// InitiativeCoverage is allocated hours over demand hours, capped at 100
type InitiativeCoverage struct {
	InitiativeID   string          `json:"initiative_id"`
	Title          string          `json:"title"`
	Rank           int             `json:"rank"`
	DemandHours    decimal.Decimal `json:"demand_hours"`
	AllocatedHours decimal.Decimal `json:"allocated_hours"`
	CoveragePct    decimal.Decimal `json:"coverage_pct"`
}

// SkillCoverage is the coverage of one skill inside one initiative
type SkillCoverage struct {
	InitiativeID   string          `json:"initiative_id"`
	Skill          string          `json:"skill"`
	DemandHours    decimal.Decimal `json:"demand_hours"`
	AllocatedHours decimal.Decimal `json:"allocated_hours"`
	CoveragePct    decimal.Decimal `json:"coverage_pct"`
}

// Shortage records demand left unsatisfied by the matcher
type Shortage struct {
	InitiativeID  string          `json:"initiative_id"`
	Skill         string          `json:"skill"`
	Kind          WarningKind     `json:"kind"`
	ShortageHours decimal.Decimal `json:"shortage_hours"`
}

// AutoAllocateResult is a proposal; nothing in it has been persisted
type AutoAllocateResult struct {
	ScenarioID    string               `json:"scenario_id"`
	Proposals     []ProposedAllocation `json:"proposals"`
	Coverage      []InitiativeCoverage `json:"coverage"`
	SkillCoverage []SkillCoverage      `json:"skill_coverage"`
	Shortages     []Shortage           `json:"shortages"`
	Warnings      []string             `json:"warnings"`

	// UtilizationPct is the proposed percentage over the summed ceilings
	// of every candidate employee
	UtilizationPct decimal.Decimal `json:"utilization_pct"`
}

// TotalPercentage sums an employee's proposed percentages
func (r *AutoAllocateResult) TotalPercentage(employeeID string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Proposals {
		if p.EmployeeID == employeeID {
			total = total.Add(p.Percentage)
		}
	}
	return total
}

// CoverageFor returns the coverage entry of an initiative
func (r *AutoAllocateResult) CoverageFor(initiativeID string) (InitiativeCoverage, bool) {
	for _, c := range r.Coverage {
		if c.InitiativeID == initiativeID {
			return c, true
		}
	}
	return InitiativeCoverage{}, false
}

// SkillCoverageFor returns the coverage of a skill inside an initiative
func (r *AutoAllocateResult) SkillCoverageFor(initiativeID, skill string) (SkillCoverage, bool) {
	for _, c := range r.SkillCoverage {
		if c.InitiativeID == initiativeID && c.Skill == skill {
			return c, true
		}
	}
	return SkillCoverage{}, false
}

// ApplyResult reports the outcome of replacing a scenario's allocations
type ApplyResult struct {
	ScenarioID    string   `json:"scenario_id"`
	Removed       int      `json:"removed"`
	Created       int      `json:"created"`
	AllocationIDs []string `json:"allocation_ids"`
}
