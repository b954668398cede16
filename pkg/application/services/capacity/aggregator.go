// Package capacity aggregates proficiency-weighted supply by skill and period.
package capacity

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/entities"
)

// EmployeeSkillHours is the weighted capacity of one employee in one skill
type EmployeeSkillHours struct {
	EmployeeID   string
	EmployeeName string
	Skill        string
	Proficiency  int
	Hours        decimal.Decimal
}

// Result holds capacity by (period, skill) and by (employee, skill)
type Result struct {
	ByPeriodSkill   *shared.HoursGrid
	ByEmployeeSkill []EmployeeSkillHours
	// AllocatedHours are the unweighted hours per employee
	AllocatedHours map[string]decimal.Decimal
}

// Total returns the capacity summed over every cell
func (r *Result) Total() decimal.Decimal {
	return r.ByPeriodSkill.Total()
}

// Aggregate computes, for each (period, skill), the sum over employees
// holding the skill of hours-in-period × proficiency/5. An employee without
// an allocation row for a period contributes nothing to it; allocations of
// employees outside the given set are ignored.
func Aggregate(
	employees []*entities.Employee,
	allocations []*entities.Allocation,
	periodIDs []string,
) *Result {
	targets := make(map[string]bool, len(periodIDs))
	for _, id := range periodIDs {
		targets[id] = true
	}

	hoursByEmployee := make(map[string]map[string]decimal.Decimal, len(employees))
	for _, a := range allocations {
		for _, row := range a.Periods {
			if !targets[row.PeriodID] {
				continue
			}
			perPeriod, ok := hoursByEmployee[a.EmployeeID]
			if !ok {
				perPeriod = make(map[string]decimal.Decimal)
				hoursByEmployee[a.EmployeeID] = perPeriod
			}
			perPeriod[row.PeriodID] = perPeriod[row.PeriodID].Add(row.HoursInPeriod)
		}
	}

	result := &Result{
		ByPeriodSkill:  shared.NewHoursGrid(),
		AllocatedHours: make(map[string]decimal.Decimal, len(employees)),
	}
	for _, e := range employees {
		perPeriod := hoursByEmployee[e.ID]
		raw := decimal.Zero
		for _, periodID := range periodIDs {
			raw = raw.Add(perPeriod[periodID])
		}
		result.AllocatedHours[e.ID] = raw

		for _, skill := range e.Skills {
			weighted := decimal.Zero
			for _, periodID := range periodIDs {
				hours, ok := perPeriod[periodID]
				if !ok {
					continue
				}
				contribution := hours.Mul(skill.Weight())
				result.ByPeriodSkill.Add(periodID, skill.Name, contribution)
				weighted = weighted.Add(contribution)
			}
			result.ByEmployeeSkill = append(result.ByEmployeeSkill, EmployeeSkillHours{
				EmployeeID:   e.ID,
				EmployeeName: e.Name,
				Skill:        skill.Name,
				Proficiency:  skill.Proficiency,
				Hours:        weighted,
			})
		}
	}
	return result
}
