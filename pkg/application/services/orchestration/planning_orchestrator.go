// Package orchestration wires the planning services into the Planner, the
// single entry point used by the CLI and the HTTP API.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/allocation"
	"github.com/vsinha/capplan/pkg/application/services/baseline"
	"github.com/vsinha/capplan/pkg/application/services/calculator"
	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/domain/services"
	"github.com/vsinha/capplan/pkg/infrastructure/cache"
	"github.com/vsinha/capplan/pkg/infrastructure/events"
)

// Options configures a Planner. Zero values select the defaults.
type Options struct {
	// Granularity defaults to quarters when nil
	Granularity *entities.PeriodType
	// Ceiling is the global per-employee allocation limit in percent
	Ceiling    decimal.Decimal
	Thresholds *entities.DriftThresholds
	OrgScopes  shared.OrgScopeResolver
	Gate       services.WorkflowGate
	Cache      calculator.Cache
	Recorder   shared.Recorder
	// Events, when set, carries recompute jobs to a cache-warming handler
	// and receives snapshot and alert notifications.
	Events events.EventStore
	// Dispatcher overrides the event-backed dispatcher
	Dispatcher shared.Dispatcher
}

// Planner is the planning engine's public API
type Planner struct {
	store       repositories.Store
	calculator  *calculator.Calculator
	allocations *allocation.Service
	baseline    *baseline.Service
	logger      *zap.Logger
	now         func() time.Time
}

// NewPlanner wires the planning services over a store
func NewPlanner(store repositories.Store, logger *zap.Logger, opts Options) (*Planner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	granularity := entities.Quarter
	if opts.Granularity != nil {
		granularity = *opts.Granularity
	}
	if opts.Gate == nil {
		opts.Gate = services.NewStatusGate()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewResultCache(0)
	}
	if opts.Recorder == nil {
		opts.Recorder = shared.NoopRecorder{}
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil && opts.Events != nil {
		dispatcher = events.NewDispatcher(opts.Events)
	}

	loader := shared.NewScenarioLoader(granularity, opts.OrgScopes)
	calc := calculator.NewCalculatorWithConfig(store, loader, opts.Cache, dispatcher, logger,
		calculator.Config{Recorder: opts.Recorder})

	if opts.Events != nil {
		if err := calculator.NewRecomputeHandler(calc, logger).Subscribe(opts.Events); err != nil {
			return nil, fmt.Errorf("subscribing recompute handler: %w", err)
		}
	}

	allocations := allocation.NewServiceWithConfig(store, loader, calc, logger, allocation.Config{
		Ceiling:  opts.Ceiling,
		Gate:     opts.Gate,
		Recorder: opts.Recorder,
	})
	baselines := baseline.NewServiceWithConfig(store, loader, logger, baseline.Config{
		Thresholds: opts.Thresholds,
		Recorder:   opts.Recorder,
		Events:     opts.Events,
	})

	return &Planner{
		store:       store,
		calculator:  calc,
		allocations: allocations,
		baseline:    baselines,
		logger:      logger.Named("planner"),
		now:         time.Now,
	}, nil
}

// Calculate returns the demand, capacity and gap report of a scenario
func (p *Planner) Calculate(ctx context.Context, scenarioID string, opts calculator.Options) (*dto.CalculationResult, error) {
	return p.calculator.Calculate(ctx, scenarioID, opts)
}

// AutoAllocate previews a greedy allocation; nothing is stored
func (p *Planner) AutoAllocate(ctx context.Context, scenarioID string, opts allocation.AutoAllocateOptions) (*dto.AutoAllocateResult, error) {
	return p.allocations.AutoAllocate(ctx, scenarioID, opts)
}

// ApplyAutoAllocate replaces the scenario's allocations with the proposals
func (p *Planner) ApplyAutoAllocate(ctx context.Context, scenarioID string, proposals []dto.ProposedAllocation) (*dto.ApplyResult, error) {
	return p.allocations.ApplyAutoAllocate(ctx, scenarioID, proposals)
}

// SaveAllocation creates or replaces one allocation
func (p *Planner) SaveAllocation(ctx context.Context, a *entities.Allocation) error {
	return p.allocations.SaveAllocation(ctx, a)
}

// DeleteAllocation removes one allocation
func (p *Planner) DeleteAllocation(ctx context.Context, allocationID string) error {
	return p.allocations.DeleteAllocation(ctx, allocationID)
}

// UpdatePriorities replaces a scenario's priority rankings
func (p *Planner) UpdatePriorities(ctx context.Context, scenarioID string, rankings []entities.PriorityRanking) (*entities.Scenario, error) {
	return p.allocations.UpdatePriorities(ctx, scenarioID, rankings)
}

// SetRampModifier changes an allocation's ramp
func (p *Planner) SetRampModifier(ctx context.Context, allocationID string, ramp decimal.Decimal) (*entities.Allocation, error) {
	return p.allocations.SetRampModifier(ctx, allocationID, ramp)
}

// CaptureSnapshot freezes a locked baseline scenario
func (p *Planner) CaptureSnapshot(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error) {
	return p.baseline.CaptureSnapshot(ctx, scenarioID)
}

// GetSnapshot returns a scenario's snapshot
func (p *Planner) GetSnapshot(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error) {
	return p.baseline.GetSnapshot(ctx, scenarioID)
}

// ComputeDelta compares live data against the scenario's snapshot
func (p *Planner) ComputeDelta(ctx context.Context, scenarioID string) (*dto.DeltaResult, error) {
	return p.baseline.ComputeDelta(ctx, scenarioID)
}

// CheckDrift evaluates drift thresholds and maintains alerts
func (p *Planner) CheckDrift(ctx context.Context, scenarioID string) (*dto.DriftCheckResult, error) {
	return p.baseline.CheckDrift(ctx, scenarioID)
}

// GetThresholds returns the drift thresholds in force
func (p *Planner) GetThresholds(ctx context.Context) (entities.DriftThresholds, error) {
	return p.baseline.GetThresholds(ctx)
}

// UpdateThresholds stores new drift thresholds
func (p *Planner) UpdateThresholds(ctx context.Context, t entities.DriftThresholds) (entities.DriftThresholds, error) {
	return p.baseline.UpdateThresholds(ctx, t)
}

// ListAlerts returns a scenario's drift alerts
func (p *Planner) ListAlerts(ctx context.Context, scenarioID string) ([]*entities.DriftAlert, error) {
	return p.baseline.ListAlerts(ctx, scenarioID)
}

// AcknowledgeAlert marks an alert as seen
func (p *Planner) AcknowledgeAlert(ctx context.Context, alertID string) (*entities.DriftAlert, error) {
	return p.baseline.AcknowledgeAlert(ctx, alertID)
}

// GetScenario returns a scenario
func (p *Planner) GetScenario(ctx context.Context, scenarioID string) (*entities.Scenario, error) {
	return p.store.Scenarios().GetScenario(ctx, scenarioID)
}

// ListScenarios returns every scenario
func (p *Planner) ListScenarios(ctx context.Context) ([]*entities.Scenario, error) {
	return p.store.Scenarios().ListScenarios(ctx)
}

// EmployeeAvailability returns the employee's week-by-week base, allocated
// and remaining hours over the scenario's period, counting only that
// scenario's allocations.
func (p *Planner) EmployeeAvailability(ctx context.Context, employeeID, scenarioID string) ([]services.WeeklyAvailability, error) {
	scenario, err := p.store.Scenarios().GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	period, err := p.store.Periods().GetPeriod(ctx, scenario.PeriodID)
	if err != nil {
		return nil, err
	}
	employee, err := p.store.Employees().GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	all, err := p.store.Allocations().ListByScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	var own []*entities.Allocation
	for _, a := range all {
		if a.EmployeeID == employeeID {
			own = append(own, a)
		}
	}
	return services.WeeklyCalendar(*employee, own, period.StartDate, period.EndDate)
}

// TransitionResult is a scenario after a status change. Snapshot is set
// when the transition locked a baseline.
type TransitionResult struct {
	Scenario *entities.Scenario         `json:"scenario"`
	Snapshot *entities.BaselineSnapshot `json:"snapshot,omitempty"`
}

// TransitionScenario moves a scenario through its workflow. Locking a
// baseline captures its snapshot in the same transaction, so a locked
// baseline never exists without one.
func (p *Planner) TransitionScenario(
	ctx context.Context,
	scenarioID string,
	target entities.ScenarioStatus,
) (*TransitionResult, error) {
	result := &TransitionResult{}
	var created bool

	err := p.store.WithinTx(ctx, func(tx repositories.Store) error {
		scenario, err := tx.Scenarios().GetScenario(ctx, scenarioID)
		if err != nil {
			return err
		}
		if err := services.CheckTransition(scenario, target); err != nil {
			return err
		}

		scenario.Status = target
		scenario.UpdatedAt = p.now().UTC()
		if err := tx.Scenarios().SaveScenario(ctx, scenario); err != nil {
			return err
		}
		result.Scenario = scenario

		if target == entities.ScenarioLocked && scenario.Type == entities.ScenarioBaseline {
			result.Snapshot, created, err = p.baseline.CaptureWithin(ctx, tx, scenarioID)
			if err != nil {
				return fmt.Errorf("capturing baseline of %s: %w", scenarioID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		p.baseline.Announce(ctx, result.Snapshot)
	}
	p.calculator.Refresh(ctx, scenarioID, shared.ReasonStatusChanged)

	p.logger.Info("scenario transitioned",
		zap.String("scenario_id", scenarioID),
		zap.String("status", string(target)),
		zap.Bool("snapshot_captured", created))
	return result, nil
}
