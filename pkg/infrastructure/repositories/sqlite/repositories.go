package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

const thresholdsKey = "drift_thresholds"

type periodRepository struct{ q querier }

func (r *periodRepository) GetPeriod(ctx context.Context, id string) (*entities.Period, error) {
	var p entities.Period
	if err := getDocument(ctx, r.q, "period", id, "SELECT data_json FROM periods WHERE id = ?", &p, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodRepository) ListPeriods(ctx context.Context, periodType *entities.PeriodType) ([]*entities.Period, error) {
	query := "SELECT data_json FROM periods ORDER BY start_date, seq"
	var args []any
	if periodType != nil {
		query = "SELECT data_json FROM periods WHERE type = ? ORDER BY start_date, seq"
		args = append(args, periodType.String())
	}

	var periods []*entities.Period
	err := listDocuments(ctx, r.q, "periods", query, func(raw []byte) error {
		var p entities.Period
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		periods = append(periods, &p)
		return nil
	}, args...)
	return periods, err
}

func (r *periodRepository) SavePeriod(ctx context.Context, period *entities.Period) error {
	if err := period.Validate(); err != nil {
		return err
	}
	doc, err := encode(period)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO periods (id, type, start_date, data_json) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET type = excluded.type, start_date = excluded.start_date, data_json = excluded.data_json`,
		period.ID, period.Type.String(), period.StartDate.Format(entities.DateLayout), doc,
	)
	if err != nil {
		return fmt.Errorf("saving period %s: %w", period.ID, err)
	}
	return nil
}

type employeeRepository struct{ q querier }

func (r *employeeRepository) GetEmployee(ctx context.Context, id string) (*entities.Employee, error) {
	var e entities.Employee
	if err := getDocument(ctx, r.q, "employee", id, "SELECT data_json FROM employees WHERE id = ?", &e, id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) ListEmployees(ctx context.Context, filter repositories.EmployeeFilter) ([]*entities.Employee, error) {
	orgUnits := toSet(filter.OrgUnitIDs)
	ids := toSet(filter.IDs)

	query := "SELECT data_json FROM employees ORDER BY seq"
	if filter.ActiveOnly {
		query = "SELECT data_json FROM employees WHERE active = 1 ORDER BY seq"
	}

	var employees []*entities.Employee
	err := listDocuments(ctx, r.q, "employees", query, func(raw []byte) error {
		var e entities.Employee
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		if orgUnits != nil && !orgUnits[e.OrgUnitID] {
			return nil
		}
		if ids != nil && !ids[e.ID] {
			return nil
		}
		employees = append(employees, &e)
		return nil
	})
	return employees, err
}

func (r *employeeRepository) SaveEmployee(ctx context.Context, employee *entities.Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}
	doc, err := encode(employee)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO employees (id, org_unit_id, active, data_json) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET org_unit_id = excluded.org_unit_id, active = excluded.active, data_json = excluded.data_json`,
		employee.ID, employee.OrgUnitID, employee.Active, doc,
	)
	if err != nil {
		return fmt.Errorf("saving employee %s: %w", employee.ID, err)
	}
	return nil
}

type initiativeRepository struct{ q querier }

func (r *initiativeRepository) GetInitiative(ctx context.Context, id string) (*entities.Initiative, error) {
	var i entities.Initiative
	if err := getDocument(ctx, r.q, "initiative", id, "SELECT data_json FROM initiatives WHERE id = ?", &i, id); err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *initiativeRepository) ListInitiatives(ctx context.Context, ids []string) ([]*entities.Initiative, error) {
	var initiatives []*entities.Initiative
	if len(ids) == 0 {
		err := listDocuments(ctx, r.q, "initiatives", "SELECT data_json FROM initiatives ORDER BY seq", func(raw []byte) error {
			var i entities.Initiative
			if err := json.Unmarshal(raw, &i); err != nil {
				return err
			}
			initiatives = append(initiatives, &i)
			return nil
		})
		return initiatives, err
	}

	for _, id := range ids {
		i, err := r.GetInitiative(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		initiatives = append(initiatives, i)
	}
	return initiatives, nil
}

func (r *initiativeRepository) SaveInitiative(ctx context.Context, initiative *entities.Initiative) error {
	if err := initiative.Validate(); err != nil {
		return err
	}
	doc, err := encode(initiative)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO initiatives (id, data_json) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data_json = excluded.data_json`,
		initiative.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("saving initiative %s: %w", initiative.ID, err)
	}
	return nil
}

type scenarioRepository struct{ q querier }

func (r *scenarioRepository) GetScenario(ctx context.Context, id string) (*entities.Scenario, error) {
	var s entities.Scenario
	if err := getDocument(ctx, r.q, "scenario", id, "SELECT data_json FROM scenarios WHERE id = ?", &s, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scenarioRepository) ListScenarios(ctx context.Context) ([]*entities.Scenario, error) {
	var scenarios []*entities.Scenario
	err := listDocuments(ctx, r.q, "scenarios", "SELECT data_json FROM scenarios ORDER BY seq", func(raw []byte) error {
		var s entities.Scenario
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		scenarios = append(scenarios, &s)
		return nil
	})
	return scenarios, err
}

func (r *scenarioRepository) SaveScenario(ctx context.Context, scenario *entities.Scenario) error {
	if err := scenario.Validate(); err != nil {
		return err
	}
	for _, rank := range scenario.PriorityRankings {
		var exists int
		err := r.q.QueryRowContext(ctx, "SELECT COUNT(1) FROM initiatives WHERE id = ?", rank.InitiativeID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking initiative %s: %w", rank.InitiativeID, err)
		}
		if exists == 0 {
			return errs.Validation("priority rankings", "initiative %s does not exist", rank.InitiativeID)
		}
	}

	doc, err := encode(scenario)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO scenarios (id, data_json) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data_json = excluded.data_json`,
		scenario.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("saving scenario %s: %w", scenario.ID, err)
	}
	return nil
}

type allocationRepository struct{ q querier }

func (r *allocationRepository) GetAllocation(ctx context.Context, id string) (*entities.Allocation, error) {
	var a entities.Allocation
	if err := getDocument(ctx, r.q, "allocation", id, "SELECT data_json FROM allocations WHERE id = ?", &a, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepository) ListByScenario(ctx context.Context, scenarioID string) ([]*entities.Allocation, error) {
	var allocations []*entities.Allocation
	err := listDocuments(ctx, r.q, "allocations",
		"SELECT data_json FROM allocations WHERE scenario_id = ? ORDER BY seq",
		func(raw []byte) error {
			var a entities.Allocation
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			allocations = append(allocations, &a)
			return nil
		}, scenarioID)
	return allocations, err
}

func (r *allocationRepository) SaveAllocation(ctx context.Context, allocation *entities.Allocation) error {
	if err := allocation.Validate(); err != nil {
		return err
	}
	doc, err := encode(allocation)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO allocations (id, scenario_id, data_json) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET scenario_id = excluded.scenario_id, data_json = excluded.data_json`,
		allocation.ID, allocation.ScenarioID, doc,
	)
	if err != nil {
		return fmt.Errorf("saving allocation %s: %w", allocation.ID, err)
	}
	return nil
}

func (r *allocationRepository) DeleteAllocation(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM allocations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting allocation %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("allocation", id)
	}
	return nil
}

func (r *allocationRepository) DeleteByScenario(ctx context.Context, scenarioID string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM allocations WHERE scenario_id = ?", scenarioID); err != nil {
		return fmt.Errorf("deleting allocations of scenario %s: %w", scenarioID, err)
	}
	return nil
}

type snapshotRepository struct{ q querier }

func (r *snapshotRepository) GetByScenario(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error) {
	var s entities.BaselineSnapshot
	err := getDocument(ctx, r.q, "snapshot", scenarioID,
		"SELECT data_json FROM snapshots WHERE scenario_id = ?", &s, scenarioID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *snapshotRepository) CreateSnapshot(ctx context.Context, snapshot *entities.BaselineSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	var exists int
	err := r.q.QueryRowContext(ctx, "SELECT COUNT(1) FROM snapshots WHERE scenario_id = ?", snapshot.ScenarioID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking snapshot for %s: %w", snapshot.ScenarioID, err)
	}
	if exists > 0 {
		return errs.Validation("snapshot", "scenario %s already has a baseline snapshot", snapshot.ScenarioID)
	}

	doc, err := encode(snapshot)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		"INSERT INTO snapshots (id, scenario_id, data_json) VALUES (?, ?, ?)",
		snapshot.ID, snapshot.ScenarioID, doc,
	)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

type alertRepository struct{ q querier }

func (r *alertRepository) GetAlert(ctx context.Context, id string) (*entities.DriftAlert, error) {
	var a entities.DriftAlert
	if err := getDocument(ctx, r.q, "drift alert", id, "SELECT data_json FROM drift_alerts WHERE id = ?", &a, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *alertRepository) FindOpen(ctx context.Context, scenarioID, periodID string) (*entities.DriftAlert, error) {
	var found *entities.DriftAlert
	err := listDocuments(ctx, r.q, "drift alerts",
		`SELECT data_json FROM drift_alerts
		 WHERE scenario_id = ? AND period_id = ? AND status IN (?, ?)
		 ORDER BY seq LIMIT 1`,
		func(raw []byte) error {
			var a entities.DriftAlert
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			found = &a
			return nil
		}, scenarioID, periodID, string(entities.AlertActive), string(entities.AlertAcknowledged))
	return found, err
}

func (r *alertRepository) ListByScenario(ctx context.Context, scenarioID string) ([]*entities.DriftAlert, error) {
	var alerts []*entities.DriftAlert
	err := listDocuments(ctx, r.q, "drift alerts",
		"SELECT data_json FROM drift_alerts WHERE scenario_id = ? ORDER BY seq",
		func(raw []byte) error {
			var a entities.DriftAlert
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			alerts = append(alerts, &a)
			return nil
		}, scenarioID)
	return alerts, err
}

func (r *alertRepository) SaveAlert(ctx context.Context, alert *entities.DriftAlert) error {
	if err := alert.Validate(); err != nil {
		return err
	}
	doc, err := encode(alert)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO drift_alerts (id, scenario_id, period_id, status, data_json) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, data_json = excluded.data_json`,
		alert.ID, alert.ScenarioID, alert.PeriodID, string(alert.Status), doc,
	)
	if err != nil {
		return fmt.Errorf("saving drift alert %s: %w", alert.ID, err)
	}
	return nil
}

type thresholdRepository struct{ q querier }

func (r *thresholdRepository) GetThresholds(ctx context.Context) (*entities.DriftThresholds, error) {
	var t entities.DriftThresholds
	err := getDocument(ctx, r.q, "state", thresholdsKey, "SELECT value FROM state WHERE key = ?", &t, thresholdsKey)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *thresholdRepository) SaveThresholds(ctx context.Context, thresholds *entities.DriftThresholds) error {
	if err := thresholds.Validate(); err != nil {
		return err
	}
	doc, err := encode(thresholds)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		thresholdsKey, doc,
	)
	if err != nil {
		return fmt.Errorf("saving drift thresholds: %w", err)
	}
	return nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
