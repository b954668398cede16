package entities

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// InitiativeStatus is the workflow state of an initiative
type InitiativeStatus string

const (
	InitiativeProposed    InitiativeStatus = "PROPOSED"
	InitiativeScoping     InitiativeStatus = "SCOPING"
	InitiativeResourcing  InitiativeStatus = "RESOURCING"
	InitiativeInExecution InitiativeStatus = "IN_EXECUTION"
	InitiativeOnHold      InitiativeStatus = "ON_HOLD"
	InitiativeComplete    InitiativeStatus = "COMPLETE"
	InitiativeCancelled   InitiativeStatus = "CANCELLED"
)

// Valid reports whether the status is a known value
func (s InitiativeStatus) Valid() bool {
	switch s {
	case InitiativeProposed, InitiativeScoping, InitiativeResourcing,
		InitiativeInExecution, InitiativeOnHold, InitiativeComplete, InitiativeCancelled:
		return true
	}
	return false
}

// Closed reports whether the initiative no longer takes staff
func (s InitiativeStatus) Closed() bool {
	return s == InitiativeComplete || s == InitiativeCancelled
}

// SkillHours is one entry of a skill-demand mapping
type SkillHours struct {
	Skill string          `json:"skill" yaml:"skill"`
	Hours decimal.Decimal `json:"hours" yaml:"hours"`
}

// SkillDemand is an ordered mapping from skill name to hours
type SkillDemand []SkillHours

// Get returns the hours demanded for a skill
func (d SkillDemand) Get(skill string) decimal.Decimal {
	for _, sh := range d {
		if sh.Skill == skill {
			return sh.Hours
		}
	}
	return decimal.Zero
}

// Add accumulates hours for a skill, appending it if new
func (d SkillDemand) Add(skill string, hours decimal.Decimal) SkillDemand {
	for i := range d {
		if d[i].Skill == skill {
			d[i].Hours = d[i].Hours.Add(hours)
			return d
		}
	}
	return append(d, SkillHours{Skill: skill, Hours: hours})
}

// Total sums hours across skills
func (d SkillDemand) Total() decimal.Decimal {
	total := decimal.Zero
	for _, sh := range d {
		total = total.Add(sh.Hours)
	}
	return total
}

// Validate checks for empty names, duplicates and negative hours
func (d SkillDemand) Validate() error {
	seen := make(map[string]bool, len(d))
	for _, sh := range d {
		if sh.Skill == "" {
			return errs.Validation("skill demand", "skill name cannot be empty")
		}
		if seen[sh.Skill] {
			return errs.Validation("skill demand", "duplicate skill %q", sh.Skill)
		}
		seen[sh.Skill] = true
		if sh.Hours.IsNegative() {
			return errs.Validation("skill demand", "hours for %q cannot be negative, got %s", sh.Skill, sh.Hours)
		}
	}
	return nil
}

// ScopeItem is a unit of work with per-skill demand spread over periods.
// Distribution fractions need not sum to 1 across the visible range.
type ScopeItem struct {
	ID                 string                     `json:"id"`
	Name               string                     `json:"name"`
	SkillDemand        SkillDemand                `json:"skill_demand"`
	PeriodDistribution map[string]decimal.Decimal `json:"period_distribution"`
}

// Validate checks the scope item invariants
func (s ScopeItem) Validate() error {
	if s.ID == "" {
		return errs.Validation("scope item id", "cannot be empty")
	}
	if err := s.SkillDemand.Validate(); err != nil {
		return err
	}
	for periodID, fraction := range s.PeriodDistribution {
		if fraction.IsNegative() || fraction.GreaterThan(decimal.NewFromInt(1)) {
			return errs.Validation("period distribution", "fraction for %s in scope item %s must be within 0..1, got %s",
				periodID, s.ID, fraction)
		}
	}
	return nil
}

// Initiative is a unit of demand
type Initiative struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Status     InitiativeStatus `json:"status"`
	ScopeItems []ScopeItem      `json:"scope_items"`
}

// NewInitiative creates a validated Initiative
func NewInitiative(id, title string, status InitiativeStatus, items []ScopeItem) (*Initiative, error) {
	i := &Initiative{ID: id, Title: title, Status: status, ScopeItems: items}
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// Validate checks the initiative invariants
func (i Initiative) Validate() error {
	if i.ID == "" {
		return errs.Validation("initiative id", "cannot be empty")
	}
	if !i.Status.Valid() {
		return errs.Validation("initiative status", "unknown status %q for %s", i.Status, i.ID)
	}
	for _, item := range i.ScopeItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TotalSkillDemand sums skill hours across scope items ignoring period
// distribution, in order of first appearance.
func (i Initiative) TotalSkillDemand() SkillDemand {
	var total SkillDemand
	for _, item := range i.ScopeItems {
		for _, sh := range item.SkillDemand {
			total = total.Add(sh.Skill, sh.Hours)
		}
	}
	return total
}

// Clone returns a deep copy
func (i Initiative) Clone() Initiative {
	c := i
	c.ScopeItems = make([]ScopeItem, len(i.ScopeItems))
	for idx, item := range i.ScopeItems {
		cp := item
		cp.SkillDemand = append(SkillDemand(nil), item.SkillDemand...)
		cp.PeriodDistribution = make(map[string]decimal.Decimal, len(item.PeriodDistribution))
		for k, v := range item.PeriodDistribution {
			cp.PeriodDistribution[k] = v
		}
		c.ScopeItems[idx] = cp
	}
	return c
}
