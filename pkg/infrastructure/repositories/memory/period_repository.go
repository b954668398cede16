package memory

import (
	"context"
	"sort"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// PeriodRepository provides in-memory period storage
type PeriodRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.PeriodRepository = (*PeriodRepository)(nil)

// GetPeriod returns a period by id
func (r *PeriodRepository) GetPeriod(ctx context.Context, id string) (*entities.Period, error) {
	var (
		p  entities.Period
		ok bool
	)
	r.store.read(func(st *state) { p, ok = st.periods.get(id) })
	if !ok {
		return nil, errs.NotFound("period", id)
	}
	return &p, nil
}

// ListPeriods returns periods sorted by start date
func (r *PeriodRepository) ListPeriods(ctx context.Context, periodType *entities.PeriodType) ([]*entities.Period, error) {
	var periods []*entities.Period
	r.store.read(func(st *state) {
		for _, p := range st.periods.rows {
			if periodType != nil && p.Type != *periodType {
				continue
			}
			cp := p
			periods = append(periods, &cp)
		}
	})
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartDate.Before(periods[j].StartDate)
	})
	return periods, nil
}

// SavePeriod stores a period, replacing any with the same id
func (r *PeriodRepository) SavePeriod(ctx context.Context, period *entities.Period) error {
	if err := period.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		st.periods.put(period.ID, *period)
		return nil
	})
}
