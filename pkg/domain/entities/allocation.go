package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// AllocationPeriod is the materialized overlap of an allocation with one period
type AllocationPeriod struct {
	PeriodID      string          `json:"period_id"`
	HoursInPeriod decimal.Decimal `json:"hours_in_period"`
	OverlapRatio  decimal.Decimal `json:"overlap_ratio"`
	RampModifier  decimal.Decimal `json:"ramp_modifier"`
}

// Allocation assigns a percentage of an employee's time within a scenario.
// Periods is derived state: it is recomputed in full whenever dates,
// percentage or ramp change.
type Allocation struct {
	ID           string             `json:"id"`
	ScenarioID   string             `json:"scenario_id"`
	EmployeeID   string             `json:"employee_id"`
	InitiativeID string             `json:"initiative_id,omitempty"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	Percentage   decimal.Decimal    `json:"percentage"`
	RampModifier decimal.Decimal    `json:"ramp_modifier"`
	Periods      []AllocationPeriod `json:"periods,omitempty"`
}

// NewAllocation creates a validated Allocation without derived periods
func NewAllocation(
	id, scenarioID, employeeID, initiativeID string,
	start, end time.Time,
	percentage decimal.Decimal,
) (*Allocation, error) {
	a := &Allocation{
		ID:           id,
		ScenarioID:   scenarioID,
		EmployeeID:   employeeID,
		InitiativeID: initiativeID,
		StartDate:    Day(start),
		EndDate:      Day(end),
		Percentage:   percentage,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the allocation invariants
func (a Allocation) Validate() error {
	if a.ID == "" {
		return errs.Validation("allocation id", "cannot be empty")
	}
	if a.ScenarioID == "" {
		return errs.Validation("allocation scenario", "cannot be empty for %s", a.ID)
	}
	if a.EmployeeID == "" {
		return errs.Validation("allocation employee", "cannot be empty for %s", a.ID)
	}
	if a.EndDate.Before(a.StartDate) {
		return errs.Validation("allocation dates", "end %s is before start %s",
			a.EndDate.Format(DateLayout), a.StartDate.Format(DateLayout))
	}
	if a.Percentage.IsNegative() || a.Percentage.GreaterThan(hundred) {
		return errs.Validation("allocation percentage", "must be within 0..100, got %s", a.Percentage)
	}
	if a.RampModifier.IsNegative() || a.RampModifier.GreaterThan(decimal.NewFromInt(1)) {
		return errs.Validation("ramp modifier", "must be within 0..1, got %s", a.RampModifier)
	}
	return nil
}

// EffectiveRamp returns the ramp multiplier; zero means no ramp.
func (a Allocation) EffectiveRamp() decimal.Decimal {
	if a.RampModifier.IsZero() {
		return decimal.NewFromInt(1)
	}
	return a.RampModifier
}

// Fraction returns the percentage as a 0..1 multiplier
func (a Allocation) Fraction() decimal.Decimal {
	return a.Percentage.Div(hundred)
}

// TotalHours sums the materialized hours across periods
func (a Allocation) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Periods {
		total = total.Add(p.HoursInPeriod)
	}
	return total
}

// HoursIn returns the materialized hours for a period
func (a Allocation) HoursIn(periodID string) (decimal.Decimal, bool) {
	for _, p := range a.Periods {
		if p.PeriodID == periodID {
			return p.HoursInPeriod, true
		}
	}
	return decimal.Zero, false
}

// Clone returns a deep copy
func (a Allocation) Clone() Allocation {
	c := a
	c.Periods = append([]AllocationPeriod(nil), a.Periods...)
	return c
}
