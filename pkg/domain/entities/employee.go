package entities

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// Proficiency bounds
const (
	MinProficiency = 1
	MaxProficiency = 5
)

var (
	hundred      = decimal.NewFromInt(100)
	daysPerWeek  = decimal.NewFromInt(7)
	maxProfScale = decimal.NewFromInt(MaxProficiency)
)

// Skill is a named skill pool with the employee's proficiency in it
type Skill struct {
	Name        string `json:"name" yaml:"name"`
	Proficiency int    `json:"proficiency" yaml:"proficiency"`
}

// Weight normalizes proficiency to a [0.2, 1.0] capacity multiplier
func (s Skill) Weight() decimal.Decimal {
	return decimal.NewFromInt(int64(s.Proficiency)).Div(maxProfScale)
}

// CalendarReason explains a capacity override
type CalendarReason string

const (
	ReasonPTO          CalendarReason = "PTO"
	ReasonReducedHours CalendarReason = "REDUCED_HOURS"
	ReasonOther        CalendarReason = "OTHER"
)

// CapacityCalendarEntry overrides an employee's base hours for one period
type CapacityCalendarEntry struct {
	PeriodID       string          `json:"period_id"`
	AvailableHours decimal.Decimal `json:"available_hours"`
	Reason         CalendarReason  `json:"reason"`
}

// Employee is a unit of supply. Read-only to the engine.
type Employee struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	OrgUnitID   string                  `json:"org_unit_id,omitempty"`
	WeeklyHours decimal.Decimal         `json:"weekly_hours"`
	Skills      []Skill                 `json:"skills"`
	Calendar    []CapacityCalendarEntry `json:"calendar,omitempty"`
	// MaxAllocationPercent caps the employee's total allocation; zero means
	// the planner-wide ceiling applies.
	MaxAllocationPercent decimal.Decimal `json:"max_allocation_percent"`
	Active               bool            `json:"active"`
}

// NewEmployee creates a validated active Employee
func NewEmployee(id, name string, weeklyHours decimal.Decimal, skills []Skill) (*Employee, error) {
	e := &Employee{
		ID:          id,
		Name:        name,
		WeeklyHours: weeklyHours,
		Skills:      skills,
		Active:      true,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the employee invariants
func (e Employee) Validate() error {
	if e.ID == "" {
		return errs.Validation("employee id", "cannot be empty")
	}
	if e.WeeklyHours.IsNegative() {
		return errs.Validation("weekly hours", "cannot be negative, got %s", e.WeeklyHours)
	}
	if e.MaxAllocationPercent.IsNegative() || e.MaxAllocationPercent.GreaterThan(hundred) {
		return errs.Validation("max allocation percent", "must be within 0..100, got %s", e.MaxAllocationPercent)
	}
	seen := make(map[string]bool, len(e.Skills))
	for _, s := range e.Skills {
		if s.Name == "" {
			return errs.Validation("skill name", "cannot be empty for employee %s", e.ID)
		}
		if seen[s.Name] {
			return errs.Validation("skills", "duplicate skill %q for employee %s", s.Name, e.ID)
		}
		seen[s.Name] = true
		if s.Proficiency < MinProficiency || s.Proficiency > MaxProficiency {
			return errs.Validation("proficiency", "skill %q must be within %d..%d, got %d",
				s.Name, MinProficiency, MaxProficiency, s.Proficiency)
		}
	}
	for _, c := range e.Calendar {
		if c.PeriodID == "" {
			return errs.Validation("calendar period", "cannot be empty for employee %s", e.ID)
		}
		if c.AvailableHours.IsNegative() {
			return errs.Validation("calendar hours", "cannot be negative, got %s", c.AvailableHours)
		}
	}
	return nil
}

// BaseHoursFor returns the employee's available hours in a period before
// any allocation percentage: the calendar override when one exists,
// otherwise weekly hours scaled by the period length.
func (e Employee) BaseHoursFor(p Period) decimal.Decimal {
	for _, c := range e.Calendar {
		if c.PeriodID == p.ID {
			return c.AvailableHours
		}
	}
	return e.WeeklyHours.Mul(decimal.NewFromInt(int64(p.Days()))).Div(daysPerWeek)
}

// Clone returns a deep copy
func (e Employee) Clone() Employee {
	c := e
	c.Skills = append([]Skill(nil), e.Skills...)
	c.Calendar = append([]CapacityCalendarEntry(nil), e.Calendar...)
	return c
}
