package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SkillPeriodRow is the demand, capacity and gap of one skill pool in one period.
// Gap = capacity − demand; a negative gap is a shortage.
type SkillPeriodRow struct {
	PeriodID string          `json:"period_id"`
	Skill    string          `json:"skill"`
	Demand   decimal.Decimal `json:"demand"`
	Capacity decimal.Decimal `json:"capacity"`
	Gap      decimal.Decimal `json:"gap"`
}

// CalculationResult is the demand-vs-capacity-vs-gap report of a scenario
type CalculationResult struct {
	ScenarioID string           `json:"scenario_id"`
	OrgScope   string           `json:"org_scope,omitempty"`
	PeriodIDs  []string         `json:"period_ids"`
	Rows       []SkillPeriodRow `json:"rows"`
	// BindingConstraints are the rows with a negative gap, largest deficit first
	BindingConstraints []SkillPeriodRow `json:"binding_constraints"`
	TotalDemand        decimal.Decimal  `json:"total_demand"`
	TotalCapacity      decimal.Decimal  `json:"total_capacity"`
	NetGap             decimal.Decimal  `json:"net_gap"`
	CalculatedAt       time.Time        `json:"calculated_at"`
	CacheHit           bool             `json:"cache_hit"`
}

// Row returns the row for a period and skill
func (r *CalculationResult) Row(periodID, skill string) (SkillPeriodRow, bool) {
	for _, row := range r.Rows {
		if row.PeriodID == periodID && row.Skill == skill {
			return row, true
		}
	}
	return SkillPeriodRow{}, false
}

// Clone returns a copy that shares no slices with r
func (r *CalculationResult) Clone() *CalculationResult {
	c := *r
	c.PeriodIDs = append([]string(nil), r.PeriodIDs...)
	c.Rows = append([]SkillPeriodRow(nil), r.Rows...)
	c.BindingConstraints = append([]SkillPeriodRow(nil), r.BindingConstraints...)
	return &c
}
