package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// InitiativeRepository provides in-memory initiative storage
type InitiativeRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.InitiativeRepository = (*InitiativeRepository)(nil)

// GetInitiative returns an initiative by id
func (r *InitiativeRepository) GetInitiative(ctx context.Context, id string) (*entities.Initiative, error) {
	var (
		i  entities.Initiative
		ok bool
	)
	r.store.read(func(st *state) { i, ok = st.initiatives.get(id) })
	if !ok {
		return nil, errs.NotFound("initiative", id)
	}
	c := i.Clone()
	return &c, nil
}

// ListInitiatives returns the requested initiatives in request order, or all
// of them in insertion order. Unknown ids are skipped.
func (r *InitiativeRepository) ListInitiatives(ctx context.Context, ids []string) ([]*entities.Initiative, error) {
	var initiatives []*entities.Initiative
	r.store.read(func(st *state) {
		if len(ids) == 0 {
			for _, i := range st.initiatives.rows {
				c := i.Clone()
				initiatives = append(initiatives, &c)
			}
			return
		}
		for _, id := range ids {
			if i, ok := st.initiatives.get(id); ok {
				c := i.Clone()
				initiatives = append(initiatives, &c)
			}
		}
	})
	return initiatives, nil
}

// SaveInitiative stores an initiative
func (r *InitiativeRepository) SaveInitiative(ctx context.Context, initiative *entities.Initiative) error {
	if err := initiative.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		st.initiatives.put(initiative.ID, initiative.Clone())
		return nil
	})
}
