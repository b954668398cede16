package repositories

import (
	"context"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// PeriodRepository provides access to calendar periods
type PeriodRepository interface {
	GetPeriod(ctx context.Context, id string) (*entities.Period, error)
	// ListPeriods returns periods ordered by start date. A nil type returns all granularities.
	ListPeriods(ctx context.Context, periodType *entities.PeriodType) ([]*entities.Period, error)
	SavePeriod(ctx context.Context, period *entities.Period) error
}

// EmployeeFilter narrows bulk employee reads
type EmployeeFilter struct {
	ActiveOnly bool
	OrgUnitIDs []string
	IDs        []string
}

// EmployeeRepository provides access to staff. Lists preserve insertion order.
type EmployeeRepository interface {
	GetEmployee(ctx context.Context, id string) (*entities.Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*entities.Employee, error)
	SaveEmployee(ctx context.Context, employee *entities.Employee) error
}

// InitiativeRepository provides access to initiatives and their scope items
type InitiativeRepository interface {
	GetInitiative(ctx context.Context, id string) (*entities.Initiative, error)
	// ListInitiatives returns the requested initiatives; an empty id list returns all.
	ListInitiatives(ctx context.Context, ids []string) ([]*entities.Initiative, error)
	SaveInitiative(ctx context.Context, initiative *entities.Initiative) error
}

// ScenarioRepository provides access to scenarios
type ScenarioRepository interface {
	GetScenario(ctx context.Context, id string) (*entities.Scenario, error)
	ListScenarios(ctx context.Context) ([]*entities.Scenario, error)
	// SaveScenario validates that every ranked initiative exists.
	SaveScenario(ctx context.Context, scenario *entities.Scenario) error
}

// AllocationRepository provides access to allocations and their materialized periods
type AllocationRepository interface {
	GetAllocation(ctx context.Context, id string) (*entities.Allocation, error)
	ListByScenario(ctx context.Context, scenarioID string) ([]*entities.Allocation, error)
	SaveAllocation(ctx context.Context, allocation *entities.Allocation) error
	DeleteAllocation(ctx context.Context, id string) error
	DeleteByScenario(ctx context.Context, scenarioID string) error
}

// SnapshotRepository stores baseline snapshots. Snapshots are write-once.
type SnapshotRepository interface {
	GetByScenario(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error)
	// CreateSnapshot fails with a validation error when the scenario already has one.
	CreateSnapshot(ctx context.Context, snapshot *entities.BaselineSnapshot) error
}

// DriftAlertRepository stores drift alerts
type DriftAlertRepository interface {
	GetAlert(ctx context.Context, id string) (*entities.DriftAlert, error)
	// FindOpen returns the ACTIVE or ACKNOWLEDGED alert for a scenario and period, or nil.
	FindOpen(ctx context.Context, scenarioID, periodID string) (*entities.DriftAlert, error)
	ListByScenario(ctx context.Context, scenarioID string) ([]*entities.DriftAlert, error)
	SaveAlert(ctx context.Context, alert *entities.DriftAlert) error
}

// ThresholdRepository stores drift thresholds
type ThresholdRepository interface {
	// GetThresholds returns nil when none were ever stored.
	GetThresholds(ctx context.Context) (*entities.DriftThresholds, error)
	SaveThresholds(ctx context.Context, thresholds *entities.DriftThresholds) error
}

// Store is the transactional entity store consumed by the planning engine
type Store interface {
	Periods() PeriodRepository
	Employees() EmployeeRepository
	Initiatives() InitiativeRepository
	Scenarios() ScenarioRepository
	Allocations() AllocationRepository
	Snapshots() SnapshotRepository
	Alerts() DriftAlertRepository
	Thresholds() ThresholdRepository

	// WithinTx runs fn against a transactional view of the store. Writes made
	// through tx become visible together when fn returns nil and are discarded
	// otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
