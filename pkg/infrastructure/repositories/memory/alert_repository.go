package memory

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// DriftAlertRepository provides in-memory drift alert storage
type DriftAlertRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.DriftAlertRepository = (*DriftAlertRepository)(nil)

// GetAlert returns an alert by id
func (r *DriftAlertRepository) GetAlert(ctx context.Context, id string) (*entities.DriftAlert, error) {
	var (
		a  entities.DriftAlert
		ok bool
	)
	r.store.read(func(st *state) { a, ok = st.alerts.get(id) })
	if !ok {
		return nil, errs.NotFound("drift alert", id)
	}
	return &a, nil
}

// FindOpen returns the open alert for a scenario and period, or nil
func (r *DriftAlertRepository) FindOpen(ctx context.Context, scenarioID, periodID string) (*entities.DriftAlert, error) {
	var found *entities.DriftAlert
	r.store.read(func(st *state) {
		for _, a := range st.alerts.rows {
			if a.ScenarioID == scenarioID && a.PeriodID == periodID && a.Status.Open() {
				cp := a
				found = &cp
				return
			}
		}
	})
	return found, nil
}

// ListByScenario returns a scenario's alerts in detection order
func (r *DriftAlertRepository) ListByScenario(ctx context.Context, scenarioID string) ([]*entities.DriftAlert, error) {
	var alerts []*entities.DriftAlert
	r.store.read(func(st *state) {
		for _, a := range st.alerts.rows {
			if a.ScenarioID == scenarioID {
				cp := a
				alerts = append(alerts, &cp)
			}
		}
	})
	return alerts, nil
}

// SaveAlert inserts or updates an alert
func (r *DriftAlertRepository) SaveAlert(ctx context.Context, alert *entities.DriftAlert) error {
	if err := alert.Validate(); err != nil {
		return err
	}
	return r.store.write(func(st *state) error {
		st.alerts.put(alert.ID, *alert)
		return nil
	})
}
