// Package allocation proposes and applies staff allocations for a scenario.
package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

var hundred = decimal.NewFromInt(100)

// Input is the immutable view the matcher works on
type Input struct {
	ScenarioID string
	// Period is the scenario's date span; employee hours are measured over it
	Period      entities.Period
	Rankings    []entities.PriorityRanking
	Initiatives []*entities.Initiative
	// Employees in insertion order; the order breaks proficiency ties
	Employees []*entities.Employee
	// Ceiling applies to employees without their own maximum; zero means 100
	Ceiling decimal.Decimal
}

type candidate struct {
	employee    *entities.Employee
	proficiency int
}

type draft struct {
	employee     *entities.Employee
	initiativeID string
	skill        string
	pct          decimal.Decimal
	hours        decimal.Decimal
}

// Propose runs the greedy matcher. Initiatives are served strictly by
// ascending rank; for every skill an initiative needs, qualified employees
// are consumed in descending proficiency until the demand is met or the
// pool is exhausted. Demand is the initiative's total skill hours with no
// period weighting, converted to a share of each employee's available
// hours over Period. Unmet demand produces warnings, never an error.
// Nothing is persisted.
func Propose(in Input) (*dto.AutoAllocateResult, error) {
	if len(in.Rankings) == 0 {
		return nil, errs.Validation("priority rankings", "scenario %s has no priority rankings", in.ScenarioID)
	}
	if err := entities.ValidateRankings(in.Rankings); err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Initiative, len(in.Initiatives))
	for _, i := range in.Initiatives {
		byID[i.ID] = i
	}

	ceiling := in.Ceiling
	if !ceiling.IsPositive() {
		ceiling = shared.DefaultCeiling
	}

	ordered := append([]entities.PriorityRanking(nil), in.Rankings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	index := buildSkillIndex(in.Employees)
	budget := shared.NewCapacityBudget(in.Employees, ceiling)
	available := make(map[string]decimal.Decimal, len(in.Employees))
	for _, e := range in.Employees {
		available[e.ID] = e.BaseHoursFor(in.Period)
	}

	result := &dto.AutoAllocateResult{ScenarioID: in.ScenarioID}
	var drafts []draft

	for _, ranking := range ordered {
		initiative, ok := byID[ranking.InitiativeID]
		if !ok {
			return nil, errs.NotFound("initiative", ranking.InitiativeID)
		}
		if initiative.Status.Closed() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: initiative %s (%s) is %s and was skipped",
				dto.WarningClosedInitiative, initiative.ID, initiative.Title, initiative.Status))
			continue
		}

		demandTotal := decimal.Zero
		allocatedTotal := decimal.Zero

		for _, need := range initiative.TotalSkillDemand() {
			remaining := need.Hours
			allocated := decimal.Zero

			for _, c := range index[need.Skill] {
				if !remaining.IsPositive() {
					break
				}
				id := c.employee.ID
				free := budget.Remaining(id)
				hours := available[id]
				if !free.IsPositive() || !hours.IsPositive() {
					continue
				}

				pct := remaining.Mul(hundred).Div(hours)
				assigned := remaining
				if pct.GreaterThan(free) {
					pct = free
					assigned = hours.Mul(pct).Div(hundred)
				}
				if err := budget.Consume(id, pct); err != nil {
					return nil, err
				}

				remaining = remaining.Sub(assigned)
				allocated = allocated.Add(assigned)
				drafts = append(drafts, draft{
					employee:     c.employee,
					initiativeID: initiative.ID,
					skill:        need.Skill,
					pct:          pct,
					hours:        assigned,
				})
			}

			if remaining.IsPositive() {
				shortage := shortageFor(initiative, need.Skill, remaining, len(index[need.Skill]) == 0)
				result.Shortages = append(result.Shortages, shortage)
				result.Warnings = append(result.Warnings, describe(initiative, shortage))
			}

			result.SkillCoverage = append(result.SkillCoverage, dto.SkillCoverage{
				InitiativeID:   initiative.ID,
				Skill:          need.Skill,
				DemandHours:    need.Hours,
				AllocatedHours: allocated,
				CoveragePct:    coverage(allocated, need.Hours),
			})
			demandTotal = demandTotal.Add(need.Hours)
			allocatedTotal = allocatedTotal.Add(allocated)
		}

		result.Coverage = append(result.Coverage, dto.InitiativeCoverage{
			InitiativeID:   initiative.ID,
			Title:          initiative.Title,
			Rank:           ranking.Rank,
			DemandHours:    demandTotal,
			AllocatedHours: allocatedTotal,
			CoveragePct:    coverage(allocatedTotal, demandTotal),
		})
	}

	result.Proposals = consolidate(drafts)
	result.UtilizationPct = budget.Utilization()
	return result, nil
}

// buildSkillIndex lists, per skill, the employees holding it by descending
// proficiency; equal proficiency keeps employee order.
func buildSkillIndex(employees []*entities.Employee) map[string][]candidate {
	index := make(map[string][]candidate)
	for _, e := range employees {
		for _, s := range e.Skills {
			index[s.Name] = append(index[s.Name], candidate{employee: e, proficiency: s.Proficiency})
		}
	}
	for skill := range index {
		list := index[skill]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].proficiency > list[j].proficiency
		})
	}
	return index
}

// consolidate merges skill-level drafts into one proposal per
// (employee, initiative), in order of first appearance
func consolidate(drafts []draft) []dto.ProposedAllocation {
	type pairKey struct{ employeeID, initiativeID string }

	positions := make(map[pairKey]int)
	var proposals []dto.ProposedAllocation
	for _, d := range drafts {
		key := pairKey{employeeID: d.employee.ID, initiativeID: d.initiativeID}
		i, ok := positions[key]
		if !ok {
			positions[key] = len(proposals)
			proposals = append(proposals, dto.ProposedAllocation{
				EmployeeID:   d.employee.ID,
				EmployeeName: d.employee.Name,
				InitiativeID: d.initiativeID,
				Skills:       []string{d.skill},
				Percentage:   d.pct,
				Hours:        d.hours,
			})
			continue
		}
		p := &proposals[i]
		p.Percentage = p.Percentage.Add(d.pct)
		p.Hours = p.Hours.Add(d.hours)
		if !containsString(p.Skills, d.skill) {
			p.Skills = append(p.Skills, d.skill)
		}
	}

	for i := range proposals {
		proposals[i].SkillLabel = strings.Join(proposals[i].Skills, ", ")
	}
	return proposals
}

// coverage is allocated/demand in percent, capped at 100. Zero demand is fully covered.
func coverage(allocated, demand decimal.Decimal) decimal.Decimal {
	if !demand.IsPositive() {
		return hundred
	}
	pct := allocated.Mul(hundred).Div(demand)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

func shortageFor(initiative *entities.Initiative, skill string, hours decimal.Decimal, noSkill bool) dto.Shortage {
	kind := dto.WarningInsufficientCapacity
	if noSkill {
		kind = dto.WarningInsufficientSkill
	}
	return dto.Shortage{
		InitiativeID:  initiative.ID,
		Skill:         skill,
		Kind:          kind,
		ShortageHours: hours,
	}
}

func describe(initiative *entities.Initiative, s dto.Shortage) string {
	if s.Kind == dto.WarningInsufficientSkill {
		return fmt.Sprintf("%s: initiative %s (%s) needs %s but no active employee has it; %s hours uncovered",
			s.Kind, initiative.ID, initiative.Title, s.Skill, s.ShortageHours.StringFixed(2))
	}
	return fmt.Sprintf("%s: initiative %s (%s) is short %s %s hours",
		s.Kind, initiative.ID, initiative.Title, s.ShortageHours.StringFixed(2), s.Skill)
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
