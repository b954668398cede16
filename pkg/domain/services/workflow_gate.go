package services

import (
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

// WorkflowGate reports whether an entity may currently be mutated.
// A negative answer is a hard failure for the caller, never a retry.
type WorkflowGate interface {
	IsScenarioEditable(scenario *entities.Scenario) bool
	IsInitiativeEditable(initiative *entities.Initiative) bool
}

// StatusGate decides editability from workflow status alone
type StatusGate struct{}

// NewStatusGate creates the default status-based gate
func NewStatusGate() *StatusGate {
	return &StatusGate{}
}

// Verify interface compliance
var _ WorkflowGate = (*StatusGate)(nil)

// IsScenarioEditable allows mutation only while DRAFT or REVIEW
func (g *StatusGate) IsScenarioEditable(scenario *entities.Scenario) bool {
	return scenario.Status == entities.ScenarioDraft || scenario.Status == entities.ScenarioReview
}

// IsInitiativeEditable allows mutation until the initiative is closed
func (g *StatusGate) IsInitiativeEditable(initiative *entities.Initiative) bool {
	return !initiative.Status.Closed()
}

var scenarioTransitions = map[entities.ScenarioStatus][]entities.ScenarioStatus{
	entities.ScenarioDraft:    {entities.ScenarioReview},
	entities.ScenarioReview:   {entities.ScenarioDraft, entities.ScenarioApproved},
	entities.ScenarioApproved: {entities.ScenarioReview, entities.ScenarioLocked},
	entities.ScenarioLocked:   {},
}

// CanTransition reports whether a scenario may move from one status to another
func CanTransition(from, to entities.ScenarioStatus) bool {
	for _, allowed := range scenarioTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a workflow error carrying both statuses when the
// transition is not allowed.
func CheckTransition(scenario *entities.Scenario, target entities.ScenarioStatus) error {
	if !target.Valid() {
		return errs.Validation("target status", "unknown status %q", target)
	}
	if !CanTransition(scenario.Status, target) {
		return errs.Workflow("scenario", scenario.ID, "transition", string(scenario.Status), string(target))
	}
	return nil
}

// RequireEditable turns a negative gate answer into a workflow error
func RequireEditable(gate WorkflowGate, scenario *entities.Scenario, operation string) error {
	if !gate.IsScenarioEditable(scenario) {
		return errs.Workflow("scenario", scenario.ID, operation, string(scenario.Status), "")
	}
	return nil
}
