// Package demand aggregates initiative demand by skill and period.
package demand

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

// InitiativeSkillHours is the period-weighted demand of one initiative in one skill
type InitiativeSkillHours struct {
	InitiativeID string
	Title        string
	Skill        string
	Hours        decimal.Decimal
}

// Result holds demand by (period, skill) and by (initiative, skill)
type Result struct {
	ByPeriodSkill     *shared.HoursGrid
	ByInitiativeSkill []InitiativeSkillHours
}

// Total returns the demand summed over every cell
func (r *Result) Total() decimal.Decimal {
	return r.ByPeriodSkill.Total()
}

// Aggregate sums, for every ranked initiative, hours × distribution[P] over
// the target periods. A period missing from a distribution contributes
// nothing. Rank order does not change any total.
func Aggregate(
	rankings []entities.PriorityRanking,
	initiatives []*entities.Initiative,
	periodIDs []string,
) (*Result, error) {
	byID := make(map[string]*entities.Initiative, len(initiatives))
	for _, i := range initiatives {
		byID[i.ID] = i
	}

	result := &Result{ByPeriodSkill: shared.NewHoursGrid()}
	for _, ranking := range rankings {
		initiative, ok := byID[ranking.InitiativeID]
		if !ok {
			return nil, errs.NotFound("initiative", ranking.InitiativeID)
		}

		var perSkill entities.SkillDemand
		for _, item := range initiative.ScopeItems {
			for _, periodID := range periodIDs {
				fraction, ok := item.PeriodDistribution[periodID]
				if !ok {
					continue
				}
				for _, sh := range item.SkillDemand {
					hours := sh.Hours.Mul(fraction)
					result.ByPeriodSkill.Add(periodID, sh.Skill, hours)
					perSkill = perSkill.Add(sh.Skill, hours)
				}
			}
		}

		for _, sh := range perSkill {
			result.ByInitiativeSkill = append(result.ByInitiativeSkill, InitiativeSkillHours{
				InitiativeID: initiative.ID,
				Title:        initiative.Title,
				Skill:        sh.Skill,
				Hours:        sh.Hours,
			})
		}
	}
	return result, nil
}
