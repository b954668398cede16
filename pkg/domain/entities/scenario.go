package entities

import (
	"sort"
	"time"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// ScenarioStatus is the workflow state of a scenario
type ScenarioStatus string

const (
	ScenarioDraft    ScenarioStatus = "DRAFT"
	ScenarioReview   ScenarioStatus = "REVIEW"
	ScenarioApproved ScenarioStatus = "APPROVED"
	ScenarioLocked   ScenarioStatus = "LOCKED"
)

// Valid reports whether the status is a known value
func (s ScenarioStatus) Valid() bool {
	switch s {
	case ScenarioDraft, ScenarioReview, ScenarioApproved, ScenarioLocked:
		return true
	}
	return false
}

// ScenarioType distinguishes what-if plans from baselines
type ScenarioType string

const (
	ScenarioWhatIf   ScenarioType = "WHAT_IF"
	ScenarioBaseline ScenarioType = "BASELINE"
	ScenarioRevision ScenarioType = "REVISION"
)

// Valid reports whether the type is a known value
func (t ScenarioType) Valid() bool {
	switch t {
	case ScenarioWhatIf, ScenarioBaseline, ScenarioRevision:
		return true
	}
	return false
}

// PriorityRanking places an initiative in a scenario's priority order
type PriorityRanking struct {
	InitiativeID string `json:"initiative_id" yaml:"initiative_id"`
	Rank         int    `json:"rank" yaml:"rank"`
}

// Scenario is a named plan for one period
type Scenario struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	PeriodID         string            `json:"period_id"`
	Status           ScenarioStatus    `json:"status"`
	Type             ScenarioType      `json:"type"`
	ParentScenarioID string            `json:"parent_scenario_id,omitempty"`
	PriorityRankings []PriorityRanking `json:"priority_rankings"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewScenario creates a validated DRAFT scenario
func NewScenario(id, name, periodID string, scenarioType ScenarioType) (*Scenario, error) {
	s := &Scenario{
		ID:       id,
		Name:     name,
		PeriodID: periodID,
		Status:   ScenarioDraft,
		Type:     scenarioType,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the scenario invariants. Existence of the ranked
// initiatives is checked by the repository, which can see them.
func (s Scenario) Validate() error {
	if s.ID == "" {
		return errs.Validation("scenario id", "cannot be empty")
	}
	if s.PeriodID == "" {
		return errs.Validation("scenario period", "cannot be empty for %s", s.ID)
	}
	if !s.Status.Valid() {
		return errs.Validation("scenario status", "unknown status %q", s.Status)
	}
	if !s.Type.Valid() {
		return errs.Validation("scenario type", "unknown type %q", s.Type)
	}
	return ValidateRankings(s.PriorityRankings)
}

// ValidateRankings rejects empty ids, duplicate initiatives and ranks below 1
func ValidateRankings(rankings []PriorityRanking) error {
	seen := make(map[string]bool, len(rankings))
	for _, r := range rankings {
		if r.InitiativeID == "" {
			return errs.Validation("priority rankings", "initiative id cannot be empty")
		}
		if seen[r.InitiativeID] {
			return errs.Validation("priority rankings", "initiative %s ranked more than once", r.InitiativeID)
		}
		seen[r.InitiativeID] = true
		if r.Rank < 1 {
			return errs.Validation("priority rankings", "rank for %s must be >= 1, got %d", r.InitiativeID, r.Rank)
		}
	}
	return nil
}

// OrderedRankings returns the rankings in ascending rank; equal ranks keep
// their list position.
func (s Scenario) OrderedRankings() []PriorityRanking {
	ordered := append([]PriorityRanking(nil), s.PriorityRankings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})
	return ordered
}

// Clone returns a deep copy
func (s Scenario) Clone() Scenario {
	c := s
	c.PriorityRankings = append([]PriorityRanking(nil), s.PriorityRankings...)
	return c
}
