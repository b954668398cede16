package shared

import (
	"context"
	"fmt"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/domain/services"
)

// ScenarioData is the read model every planning computation works on
type ScenarioData struct {
	Scenario *entities.Scenario
	// Period is the scenario's own period, the date span of the plan
	Period entities.Period
	// Periods are the periods at planning granularity inside Period
	Periods []entities.Period
	// Rankings are ordered by rank, ties by list position
	Rankings    []entities.PriorityRanking
	Initiatives []*entities.Initiative
	Employees   []*entities.Employee
	Allocations []*entities.Allocation
}

// PeriodIDs returns the ids of the target periods in calendar order
func (d *ScenarioData) PeriodIDs() []string {
	ids := make([]string, len(d.Periods))
	for i, p := range d.Periods {
		ids[i] = p.ID
	}
	return ids
}

// ScenarioLoader assembles ScenarioData from the entity store
type ScenarioLoader struct {
	granularity entities.PeriodType
	scopes      OrgScopeResolver
}

// NewScenarioLoader creates a loader targeting periods of the given granularity
func NewScenarioLoader(granularity entities.PeriodType, scopes OrgScopeResolver) *ScenarioLoader {
	if scopes == nil {
		scopes = NewOrgScopeResolver(nil)
	}
	return &ScenarioLoader{granularity: granularity, scopes: scopes}
}

// Granularity returns the planning granularity
func (l *ScenarioLoader) Granularity() entities.PeriodType {
	return l.granularity
}

// Load reads the scenario and everything it references. An org scope limits
// employees (and so allocations) to the resolved org units.
func (l *ScenarioLoader) Load(ctx context.Context, store repositories.Store, scenarioID, orgScope string) (*ScenarioData, error) {
	scenario, err := store.Scenarios().GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	period, err := store.Periods().GetPeriod(ctx, scenario.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("loading period of scenario %s: %w", scenarioID, err)
	}

	periods, err := l.targetPeriods(ctx, store, *period)
	if err != nil {
		return nil, err
	}

	rankings := scenario.OrderedRankings()
	ids := make([]string, len(rankings))
	for i, r := range rankings {
		ids[i] = r.InitiativeID
	}
	initiatives, err := l.loadInitiatives(ctx, store, ids)
	if err != nil {
		return nil, err
	}

	filter := repositories.EmployeeFilter{ActiveOnly: true}
	if orgScope != "" {
		units, err := l.scopes.ResolveOrgUnits(ctx, orgScope)
		if err != nil {
			return nil, fmt.Errorf("resolving org scope %s: %w", orgScope, err)
		}
		if len(units) == 0 {
			return nil, errs.NotFound("org scope", orgScope)
		}
		filter.OrgUnitIDs = units
	}
	employees, err := store.Employees().ListEmployees(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}

	allocations, err := store.Allocations().ListByScenario(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("listing allocations of scenario %s: %w", scenarioID, err)
	}
	if orgScope != "" {
		allocations = allocationsOf(allocations, employees)
	}

	return &ScenarioData{
		Scenario:    scenario,
		Period:      *period,
		Periods:     periods,
		Rankings:    rankings,
		Initiatives: initiatives,
		Employees:   employees,
		Allocations: allocations,
	}, nil
}

// targetPeriods maps the scenario period onto the planning granularity;
// when no such periods are stored the scenario period itself is the target.
func (l *ScenarioLoader) targetPeriods(ctx context.Context, store repositories.Store, period entities.Period) ([]entities.Period, error) {
	if period.Type == l.granularity {
		return []entities.Period{period}, nil
	}

	granularity := l.granularity
	stored, err := store.Periods().ListPeriods(ctx, &granularity)
	if err != nil {
		return nil, fmt.Errorf("listing %s periods: %w", granularity, err)
	}
	candidates := make([]entities.Period, len(stored))
	for i, p := range stored {
		candidates[i] = *p
	}

	overlaps, err := services.MapDateRange(period.StartDate, period.EndDate, candidates, granularity)
	if err != nil {
		return nil, err
	}
	if len(overlaps) == 0 {
		return []entities.Period{period}, nil
	}

	byID := make(map[string]entities.Period, len(candidates))
	for _, p := range candidates {
		byID[p.ID] = p
	}
	periods := make([]entities.Period, 0, len(overlaps))
	for _, o := range overlaps {
		periods = append(periods, byID[o.PeriodID])
	}
	return periods, nil
}

func (l *ScenarioLoader) loadInitiatives(ctx context.Context, store repositories.Store, ids []string) ([]*entities.Initiative, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	initiatives, err := store.Initiatives().ListInitiatives(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing initiatives: %w", err)
	}
	found := make(map[string]bool, len(initiatives))
	for _, i := range initiatives {
		found[i.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, errs.NotFound("initiative", id)
		}
	}
	return initiatives, nil
}

func allocationsOf(allocations []*entities.Allocation, employees []*entities.Employee) []*entities.Allocation {
	inScope := make(map[string]bool, len(employees))
	for _, e := range employees {
		inScope[e.ID] = true
	}
	var out []*entities.Allocation
	for _, a := range allocations {
		if inScope[a.EmployeeID] {
			out = append(out, a)
		}
	}
	return out
}
