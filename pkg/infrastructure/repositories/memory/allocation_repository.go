package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// AllocationRepository provides in-memory allocation storage
type AllocationRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.AllocationRepository = (*AllocationRepository)(nil)

func allocationID(a entities.Allocation) string { return a.ID }

// GetAllocation returns an allocation by id
func (r *AllocationRepository) GetAllocation(ctx context.Context, id string) (*entities.Allocation, error) {
	var (
		a  entities.Allocation
		ok bool
	)
	r.store.read(func(st *state) { a, ok = st.allocations.get(id) })
	if !ok {
		return nil, errs.NotFound("allocation", id)
	}
	c := a.Clone()
	return &c, nil
}

// ListByScenario returns a scenario's allocations in insertion order
func (r *AllocationRepository) ListByScenario(ctx context.Context, scenarioID string) ([]*entities.Allocation, error) {
	var allocations []*entities.Allocation
	r.store.read(func(st *state) {
		for _, a := range st.allocations.rows {
			if a.ScenarioID == scenarioID {
				c := a.Clone()
				allocations = append(allocations, &c)
			}
		}
	})
	return allocations, nil
}

// SaveAllocation stores an allocation with its materialized periods
func (r *AllocationRepository) SaveAllocation(ctx context.Context, allocation *entities.Allocation) error {
	if err := allocation.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		st.allocations.put(allocation.ID, allocation.Clone())
		return nil
	})
}

// DeleteAllocation removes one allocation
func (r *AllocationRepository) DeleteAllocation(ctx context.Context, id string) error {
	return r.store.write(func(st *state) error {
		if _, ok := st.allocations.get(id); !ok {
			return errs.NotFound("allocation", id)
		}
		st.allocations.remove(func(a entities.Allocation) bool { return a.ID != id }, allocationID)
		return nil
	})
}

// DeleteByScenario removes every allocation of a scenario
func (r *AllocationRepository) DeleteByScenario(ctx context.Context, scenarioID string) error {
	return r.store.write(func(st *state) error {
		st.allocations.remove(func(a entities.Allocation) bool { return a.ScenarioID != scenarioID }, allocationID)
		return nil
	})
}
