// Package yaml loads initiatives and scenarios from YAML dataset files.
package yaml

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// Loader handles loading planning data from YAML files
type Loader struct{}

// NewLoader creates a new YAML loader
func NewLoader() *Loader {
	return &Loader{}
}

type initiativesFile struct {
	Initiatives []initiativeDoc `yaml:"initiatives"`
}

type initiativeDoc struct {
	ID         string         `yaml:"id"`
	Title      string         `yaml:"title"`
	Status     string         `yaml:"status"`
	ScopeItems []scopeItemDoc `yaml:"scope_items"`
}

type scopeItemDoc struct {
	ID                 string            `yaml:"id"`
	Name               string            `yaml:"name"`
	SkillDemand        yamlv3.Node       `yaml:"skill_demand"`
	PeriodDistribution map[string]string `yaml:"period_distribution"`
}

type scenariosFile struct {
	Scenarios []scenarioDoc `yaml:"scenarios"`
}

type scenarioDoc struct {
	ID               string                     `yaml:"id"`
	Name             string                     `yaml:"name"`
	PeriodID         string                     `yaml:"period_id"`
	Type             string                     `yaml:"type"`
	Status           string                     `yaml:"status"`
	ParentScenarioID string                     `yaml:"parent_scenario_id"`
	PriorityRankings []entities.PriorityRanking `yaml:"priority_rankings"`
}

// LoadInitiatives loads initiatives with their scope items from a YAML file
func (l *Loader) LoadInitiatives(path string) ([]*entities.Initiative, error) {
	var doc initiativesFile
	if err := decodeFile(path, "initiatives", &doc); err != nil {
		return nil, err
	}

	initiatives := make([]*entities.Initiative, 0, len(doc.Initiatives))
	for i, d := range doc.Initiatives {
		initiative, err := d.toEntity()
		if err != nil {
			return nil, fmt.Errorf("initiatives: %s: entry %d: %w", path, i+1, err)
		}
		initiatives = append(initiatives, initiative)
	}
	return initiatives, nil
}

// LoadScenarios loads scenarios from a YAML file. A missing status means DRAFT.
func (l *Loader) LoadScenarios(path string) ([]*entities.Scenario, error) {
	var doc scenariosFile
	if err := decodeFile(path, "scenarios", &doc); err != nil {
		return nil, err
	}

	scenarios := make([]*entities.Scenario, 0, len(doc.Scenarios))
	for i, d := range doc.Scenarios {
		scenario, err := entities.NewScenario(d.ID, d.Name, d.PeriodID, entities.ScenarioType(strings.ToUpper(d.Type)))
		if err != nil {
			return nil, fmt.Errorf("scenarios: %s: entry %d: %w", path, i+1, err)
		}
		if d.Status != "" {
			scenario.Status = entities.ScenarioStatus(strings.ToUpper(d.Status))
		}
		scenario.ParentScenarioID = d.ParentScenarioID
		scenario.PriorityRankings = d.PriorityRankings
		if err := scenario.Validate(); err != nil {
			return nil, fmt.Errorf("scenarios: %s: entry %d: %w", path, i+1, err)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func decodeFile(path, name string, out any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: read %s: %w", name, path, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return fmt.Errorf("%s: %s is empty", name, path)
	}
	if err := yamlv3.Unmarshal(content, out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", name, path, err)
	}
	return nil
}

func (d initiativeDoc) toEntity() (*entities.Initiative, error) {
	items := make([]entities.ScopeItem, 0, len(d.ScopeItems))
	for _, s := range d.ScopeItems {
		demand, err := parseSkillDemand(&s.SkillDemand)
		if err != nil {
			return nil, fmt.Errorf("scope item %s: %w", s.ID, err)
		}
		distribution := make(map[string]decimal.Decimal, len(s.PeriodDistribution))
		for periodID, raw := range s.PeriodDistribution {
			fraction, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("scope item %s: invalid fraction for %s: %s", s.ID, periodID, raw)
			}
			distribution[periodID] = fraction
		}
		items = append(items, entities.ScopeItem{
			ID:                 s.ID,
			Name:               s.Name,
			SkillDemand:        demand,
			PeriodDistribution: distribution,
		})
	}

	status := entities.InitiativeStatus(strings.ToUpper(d.Status))
	if d.Status == "" {
		status = entities.InitiativeProposed
	}
	return entities.NewInitiative(d.ID, d.Title, status, items)
}

// parseSkillDemand walks the mapping node directly so the file's key order
// becomes the SkillDemand order.
func parseSkillDemand(node *yamlv3.Node) (entities.SkillDemand, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yamlv3.MappingNode {
		return nil, fmt.Errorf("skill_demand must be a mapping of skill to hours (line %d)", node.Line)
	}

	var demand entities.SkillDemand
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		hours, err := decimal.NewFromString(value.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid hours for skill %s: %q (line %d)", key.Value, value.Value, value.Line)
		}
		if containsSkill(demand, key.Value) {
			return nil, fmt.Errorf("duplicate skill %s (line %d)", key.Value, key.Line)
		}
		demand = append(demand, entities.SkillHours{Skill: key.Value, Hours: hours})
	}
	return demand, nil
}

func containsSkill(d entities.SkillDemand, skill string) bool {
	for _, sh := range d {
		if sh.Skill == skill {
			return true
		}
	}
	return false
}
