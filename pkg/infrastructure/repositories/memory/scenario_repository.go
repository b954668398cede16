package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// ScenarioRepository provides in-memory scenario storage
type ScenarioRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// GetScenario returns a scenario by id
func (r *ScenarioRepository) GetScenario(ctx context.Context, id string) (*entities.Scenario, error) {
	var (
		s  entities.Scenario
		ok bool
	)
	r.store.read(func(st *state) { s, ok = st.scenarios.get(id) })
	if !ok {
		return nil, errs.NotFound("scenario", id)
	}
	c := s.Clone()
	return &c, nil
}

// ListScenarios returns all scenarios in insertion order
func (r *ScenarioRepository) ListScenarios(ctx context.Context) ([]*entities.Scenario, error) {
	var scenarios []*entities.Scenario
	r.store.read(func(st *state) {
		for _, s := range st.scenarios.rows {
			c := s.Clone()
			scenarios = append(scenarios, &c)
		}
	})
	return scenarios, nil
}

// SaveScenario stores a scenario after checking its rankings reference
// existing initiatives
func (r *ScenarioRepository) SaveScenario(ctx context.Context, scenario *entities.Scenario) error {
	if err := scenario.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		for _, rank := range scenario.PriorityRankings {
			if _, ok := st.initiatives.get(rank.InitiativeID); !ok {
				return errs.Validation("priority rankings", "initiative %s does not exist", rank.InitiativeID)
			}
		}
		st.scenarios.put(scenario.ID, scenario.Clone())
		return nil
	})
}
