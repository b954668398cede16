package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// SnapshotRepository provides write-once in-memory snapshot storage
type SnapshotRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.SnapshotRepository = (*SnapshotRepository)(nil)

// GetByScenario returns a deep copy of the scenario's snapshot
func (r *SnapshotRepository) GetByScenario(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error) {
	var (
		s  entities.BaselineSnapshot
		ok bool
	)
	r.store.read(func(st *state) { s, ok = st.snapshots[scenarioID] })
	if !ok {
		return nil, errs.NotFound("snapshot", scenarioID)
	}
	c := s.Clone()
	return &c, nil
}

// CreateSnapshot stores a deep copy; a scenario keeps its first snapshot forever
func (r *SnapshotRepository) CreateSnapshot(ctx context.Context, snapshot *entities.BaselineSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		if _, exists := st.snapshots[snapshot.ScenarioID]; exists {
			return errs.Validation("snapshot", "scenario %s already has a baseline snapshot", snapshot.ScenarioID)
		}
		st.snapshots[snapshot.ScenarioID] = snapshot.Clone()
		return nil
	})
}
