// Package testing provides planning fixtures shared by the service tests.
package testing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
)

// Q1 is the period every fixture scenario plans
const Q1 = "2025-Q1"

// Skill builds a skill entry
func Skill(name string, proficiency int) entities.Skill {
	return entities.Skill{Name: name, Proficiency: proficiency}
}

// Hours builds a skill-demand entry
func Hours(skill string, hours int64) entities.SkillHours {
	return entities.SkillHours{Skill: skill, Hours: decimal.NewFromInt(hours)}
}

// Rank builds a priority ranking entry
func Rank(initiativeID string, rank int) entities.PriorityRanking {
	return entities.PriorityRanking{InitiativeID: initiativeID, Rank: rank}
}

// MustEmployee is a helper for tests - panics on validation error
func MustEmployee(id, name string, weeklyHours int64, skills ...entities.Skill) *entities.Employee {
	e, err := entities.NewEmployee(id, name, decimal.NewFromInt(weeklyHours), skills)
	if err != nil {
		panic(err)
	}
	return e
}

// WithPeriodHours overrides an employee's available hours for one period
func WithPeriodHours(e *entities.Employee, periodID string, hours int64) *entities.Employee {
	e.Calendar = append(e.Calendar, entities.CapacityCalendarEntry{
		PeriodID:       periodID,
		AvailableHours: decimal.NewFromInt(hours),
		Reason:         entities.ReasonOther,
	})
	return e
}

// MustScopeItem is a helper for tests - panics on validation error.
// distribution maps period ids to decimal strings.
func MustScopeItem(id string, distribution map[string]string, demand ...entities.SkillHours) entities.ScopeItem {
	dist := make(map[string]decimal.Decimal, len(distribution))
	for periodID, fraction := range distribution {
		dist[periodID] = decimal.RequireFromString(fraction)
	}
	item := entities.ScopeItem{ID: id, Name: id, SkillDemand: demand, PeriodDistribution: dist}
	if err := item.Validate(); err != nil {
		panic(err)
	}
	return item
}

// MustInitiative is a helper for tests - panics on validation error
func MustInitiative(id, title string, status entities.InitiativeStatus, items ...entities.ScopeItem) *entities.Initiative {
	i, err := entities.NewInitiative(id, title, status, items)
	if err != nil {
		panic(err)
	}
	return i
}

// MustScenario is a helper for tests - panics on validation error
func MustScenario(id, periodID string, scenarioType entities.ScenarioType, rankings ...entities.PriorityRanking) *entities.Scenario {
	s, err := entities.NewScenario(id, id, periodID, scenarioType)
	if err != nil {
		panic(err)
	}
	s.PriorityRankings = rankings
	return s
}

// Fixture is a seeded in-memory store planning at quarter granularity
type Fixture struct {
	Store   *memory.Store
	Periods []entities.Period
}

// NewFixture creates a store holding the four quarters of 2025
func NewFixture() *Fixture {
	f := &Fixture{Store: memory.NewStore(), Periods: entities.QuarterPeriods(2025)}
	for i := range f.Periods {
		must(f.Store.Periods().SavePeriod(context.Background(), &f.Periods[i]))
	}
	return f
}

// Period returns a fixture period by id
func (f *Fixture) Period(id string) entities.Period {
	for _, p := range f.Periods {
		if p.ID == id {
			return p
		}
	}
	panic("unknown fixture period " + id)
}

// AddEmployee stores an employee
func (f *Fixture) AddEmployee(e *entities.Employee) *entities.Employee {
	must(f.Store.Employees().SaveEmployee(context.Background(), e))
	return e
}

// AddInitiative stores an initiative
func (f *Fixture) AddInitiative(i *entities.Initiative) *entities.Initiative {
	must(f.Store.Initiatives().SaveInitiative(context.Background(), i))
	return i
}

// AddScenario stores a scenario
func (f *Fixture) AddScenario(s *entities.Scenario) *entities.Scenario {
	must(f.Store.Scenarios().SaveScenario(context.Background(), s))
	return s
}

// Allocate stores an allocation spanning the scenario's period with
// materialized quarter rows
func (f *Fixture) Allocate(id, scenarioID, employeeID, initiativeID string, pct int64) *entities.Allocation {
	ctx := context.Background()
	scenario, err := f.Store.Scenarios().GetScenario(ctx, scenarioID)
	must(err)
	employee, err := f.Store.Employees().GetEmployee(ctx, employeeID)
	must(err)
	period := f.Period(scenario.PeriodID)

	a, err := entities.NewAllocation(id, scenarioID, employeeID, initiativeID,
		period.StartDate, period.EndDate, decimal.NewFromInt(pct))
	must(err)
	must(services.MaterializePeriods(a, *employee, f.Periods, entities.Quarter))
	must(f.Store.Allocations().SaveAllocation(ctx, a))
	return a
}

// BuildSimpleTestData builds a small Q1 2025 plan.
//
//	E1 Ada  backend:5            500h in Q1   platform   60% on I1
//	E2 Bo   backend:3 frontend:4 400h in Q1   platform   50% on I1
//	E3 Cy   design:4             35h/week     web        20% on I2
//	E4 Di   frontend:5           inactive
//	I1 Checkout  backend 300 frontend 100, all in Q1
//	I2 Search    backend 400 design 90, half in Q1
//
// Q1 capacity: backend 420, frontend 160, design 72.
// Q1 demand:   backend 500, frontend 100, design 45.
func BuildSimpleTestData() *Fixture {
	f := NewFixture()

	e1 := WithPeriodHours(MustEmployee("E1", "Ada", 40, Skill("backend", 5)), Q1, 500)
	e1.OrgUnitID = "platform"
	f.AddEmployee(e1)
	e2 := WithPeriodHours(MustEmployee("E2", "Bo", 40, Skill("backend", 3), Skill("frontend", 4)), Q1, 400)
	e2.OrgUnitID = "platform"
	f.AddEmployee(e2)
	e3 := MustEmployee("E3", "Cy", 35, Skill("design", 4))
	e3.OrgUnitID = "web"
	f.AddEmployee(e3)
	e4 := MustEmployee("E4", "Di", 40, Skill("frontend", 5))
	e4.Active = false
	f.AddEmployee(e4)

	f.AddInitiative(MustInitiative("I1", "Checkout", entities.InitiativeResourcing,
		MustScopeItem("I1-S1", map[string]string{Q1: "1"}, Hours("backend", 300), Hours("frontend", 100))))
	f.AddInitiative(MustInitiative("I2", "Search", entities.InitiativeScoping,
		MustScopeItem("I2-S1", map[string]string{Q1: "0.5", "2025-Q2": "0.5"}, Hours("backend", 400), Hours("design", 90))))

	f.AddScenario(MustScenario("S-BASE", Q1, entities.ScenarioBaseline, Rank("I1", 1), Rank("I2", 2)))

	f.Allocate("A1", "S-BASE", "E1", "I1", 60)
	f.Allocate("A2", "S-BASE", "E2", "I1", 50)
	f.Allocate("A3", "S-BASE", "E3", "I2", 20)
	return f
}

var largeSkills = []string{"backend", "frontend", "design", "data", "mobile", "qa"}

// BuildLargeTestData builds a Q1 2025 baseline "S-LARGE" ranking every
// initiative, with skills and demand assigned round-robin so the result is
// reproducible. Every tenth employee starts with a 50% allocation.
func BuildLargeTestData(employees, initiatives int) *Fixture {
	f := NewFixture()

	for i := 0; i < employees; i++ {
		primary := largeSkills[i%len(largeSkills)]
		secondary := largeSkills[(i+2)%len(largeSkills)]
		e := MustEmployee(fmt.Sprintf("E%05d", i), fmt.Sprintf("Employee %d", i), 40,
			Skill(primary, 1+i%5), Skill(secondary, 1+(i+3)%5))
		e.OrgUnitID = fmt.Sprintf("org-%d", i%4)
		f.AddEmployee(e)
	}

	rankings := make([]entities.PriorityRanking, 0, initiatives)
	for i := 0; i < initiatives; i++ {
		id := fmt.Sprintf("I%04d", i)
		item := MustScopeItem(id+"-S1", map[string]string{Q1: "0.5", "2025-Q2": "0.5"},
			Hours(largeSkills[i%len(largeSkills)], int64(200+40*(i%10))),
			Hours(largeSkills[(i+1)%len(largeSkills)], int64(80+20*(i%7))))
		f.AddInitiative(MustInitiative(id, fmt.Sprintf("Initiative %d", i), entities.InitiativeResourcing, item))
		rankings = append(rankings, Rank(id, i+1))
	}
	f.AddScenario(MustScenario("S-LARGE", Q1, entities.ScenarioBaseline, rankings...))

	if initiatives > 0 {
		for i := 0; i < employees; i += 10 {
			f.Allocate(fmt.Sprintf("A%05d", i), "S-LARGE", fmt.Sprintf("E%05d", i), fmt.Sprintf("I%04d", i%initiatives), 50)
		}
	}
	return f
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
