package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/domain/services"
)

// Config tunes the allocation service
type Config struct {
	// Ceiling is the global per-employee allocation limit in percent; zero means 100
	Ceiling  decimal.Decimal
	Gate     services.WorkflowGate
	Recorder shared.Recorder
}

// Service proposes allocations and performs every allocation mutation.
// Each mutation invalidates the scenario's cached result before returning
// and then schedules a background refresh.
type Service struct {
	store       repositories.Store
	loader      *shared.ScenarioLoader
	periods     services.PeriodService
	invalidator shared.Invalidator
	config      Config
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates an allocation service with the status gate and a 100% ceiling
func NewService(
	store repositories.Store,
	loader *shared.ScenarioLoader,
	invalidator shared.Invalidator,
	logger *zap.Logger,
) *Service {
	return NewServiceWithConfig(store, loader, invalidator, logger, Config{})
}

// NewServiceWithConfig creates an allocation service with custom configuration
func NewServiceWithConfig(
	store repositories.Store,
	loader *shared.ScenarioLoader,
	invalidator shared.Invalidator,
	logger *zap.Logger,
	config Config,
) *Service {
	if !config.Ceiling.IsPositive() {
		config.Ceiling = shared.DefaultCeiling
	}
	if config.Gate == nil {
		config.Gate = services.NewStatusGate()
	}
	if config.Recorder == nil {
		config.Recorder = shared.NoopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		loader:      loader,
		periods:     services.NewPeriodService(store.Periods(), loader.Granularity()),
		invalidator: invalidator,
		config:      config,
		logger:      logger.Named("allocation"),
		now:         time.Now,
	}
}

// AutoAllocateOptions narrows a proposal run
type AutoAllocateOptions struct {
	OrgScope string
}

// AutoAllocate computes a proposal for the scenario without persisting anything
func (s *Service) AutoAllocate(ctx context.Context, scenarioID string, opts AutoAllocateOptions) (*dto.AutoAllocateResult, error) {
	data, err := s.loader.Load(ctx, s.store, scenarioID, opts.OrgScope)
	if err != nil {
		return nil, err
	}

	result, err := Propose(Input{
		ScenarioID:  scenarioID,
		Period:      data.Period,
		Rankings:    data.Rankings,
		Initiatives: data.Initiatives,
		Employees:   data.Employees,
		Ceiling:     s.config.Ceiling,
	})
	if err != nil {
		return nil, err
	}

	for _, shortage := range result.Shortages {
		s.config.Recorder.ShortagesReported(string(shortage.Kind), 1)
	}
	s.logger.Info("auto-allocation proposed",
		zap.String("scenario_id", scenarioID),
		zap.String("org_scope", opts.OrgScope),
		zap.Int("proposals", len(result.Proposals)),
		zap.Int("shortages", len(result.Shortages)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// ApplyAutoAllocate replaces every allocation of the scenario with the
// proposals. Deletion and creation commit together or not at all.
func (s *Service) ApplyAutoAllocate(ctx context.Context, scenarioID string, proposals []dto.ProposedAllocation) (*dto.ApplyResult, error) {
	scenario, err := s.editableScenario(ctx, s.store, scenarioID, "apply auto-allocation")
	if err != nil {
		return nil, err
	}
	period, err := s.store.Periods().GetPeriod(ctx, scenario.PeriodID)
	if err != nil {
		return nil, err
	}

	allocations, err := s.buildAllocations(ctx, scenario, *period, proposals)
	if err != nil {
		return nil, err
	}

	result := &dto.ApplyResult{ScenarioID: scenarioID}
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		// status may have moved since the pre-check
		if _, err := s.editableScenario(ctx, tx, scenarioID, "apply auto-allocation"); err != nil {
			return err
		}
		existing, err := tx.Allocations().ListByScenario(ctx, scenarioID)
		if err != nil {
			return err
		}
		if err := tx.Allocations().DeleteByScenario(ctx, scenarioID); err != nil {
			return fmt.Errorf("clearing allocations of %s: %w", scenarioID, err)
		}
		for _, a := range allocations {
			if err := tx.Allocations().SaveAllocation(ctx, a); err != nil {
				return fmt.Errorf("saving allocation for %s: %w", a.EmployeeID, err)
			}
		}
		result.Removed = len(existing)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Created = len(allocations)
	for _, a := range allocations {
		result.AllocationIDs = append(result.AllocationIDs, a.ID)
	}

	s.afterMutation(ctx, scenarioID, shared.ReasonAutoAllocateApplied)
	s.logger.Info("auto-allocation applied",
		zap.String("scenario_id", scenarioID),
		zap.Int("removed", result.Removed),
		zap.Int("created", result.Created))
	return result, nil
}

// buildAllocations turns proposals into materialized allocations spanning
// the scenario period, rejecting any employee pushed over their ceiling.
func (s *Service) buildAllocations(
	ctx context.Context,
	scenario *entities.Scenario,
	period entities.Period,
	proposals []dto.ProposedAllocation,
) ([]*entities.Allocation, error) {
	ids := make([]string, 0, len(proposals))
	for _, p := range proposals {
		ids = append(ids, p.EmployeeID)
	}
	employees, err := s.store.Employees().ListEmployees(ctx, repositories.EmployeeFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	budget := shared.NewCapacityBudget(employees, s.config.Ceiling)

	allocations := make([]*entities.Allocation, 0, len(proposals))
	for _, p := range proposals {
		employee, ok := byID[p.EmployeeID]
		if !ok {
			return nil, errs.NotFound("employee", p.EmployeeID)
		}
		if p.InitiativeID != "" {
			if err := s.allocatable(ctx, s.store, p.InitiativeID); err != nil {
				return nil, err
			}
		}
		if err := budget.Consume(p.EmployeeID, p.Percentage); err != nil {
			return nil, err
		}

		a, err := entities.NewAllocation(uuid.NewString(), scenario.ID, p.EmployeeID, p.InitiativeID,
			period.StartDate, period.EndDate, p.Percentage)
		if err != nil {
			return nil, err
		}
		if err := s.periods.Materialize(ctx, a, *employee); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, nil
}

// SaveAllocation creates or replaces a single allocation. Dates must lie
// inside the scenario period; an empty id is assigned. A stored allocation
// keeps its scenario: replacing it under another scenario is rejected.
func (s *Service) SaveAllocation(ctx context.Context, allocation *entities.Allocation) error {
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		scenario, err := s.editableScenario(ctx, tx, allocation.ScenarioID, "save allocation")
		if err != nil {
			return err
		}
		if allocation.ID != "" {
			stored, err := tx.Allocations().GetAllocation(ctx, allocation.ID)
			switch {
			case err == nil && stored.ScenarioID != scenario.ID:
				return errs.Validation("allocation scenario", "%s belongs to scenario %s and cannot move to %s",
					allocation.ID, stored.ScenarioID, scenario.ID)
			case err != nil && !errors.Is(err, errs.ErrNotFound):
				return err
			}
		}

		period, err := tx.Periods().GetPeriod(ctx, scenario.PeriodID)
		if err != nil {
			return err
		}
		if !period.Contains(allocation.StartDate) || !period.Contains(allocation.EndDate) {
			return errs.Validation("allocation dates", "%s..%s is outside scenario period %s",
				allocation.StartDate.Format(entities.DateLayout), allocation.EndDate.Format(entities.DateLayout), period.ID)
		}

		employee, err := tx.Employees().GetEmployee(ctx, allocation.EmployeeID)
		if err != nil {
			return err
		}
		if allocation.InitiativeID != "" {
			if err := s.allocatable(ctx, tx, allocation.InitiativeID); err != nil {
				return err
			}
		}

		if allocation.ID == "" {
			allocation.ID = uuid.NewString()
		}
		if err := allocation.Validate(); err != nil {
			return err
		}
		periods := services.NewPeriodService(tx.Periods(), s.loader.Granularity())
		if err := periods.Materialize(ctx, allocation, *employee); err != nil {
			return err
		}
		return tx.Allocations().SaveAllocation(ctx, allocation)
	})
	if err != nil {
		return err
	}

	s.afterMutation(ctx, allocation.ScenarioID, shared.ReasonAllocationSaved)
	s.logger.Debug("allocation saved",
		zap.String("allocation_id", allocation.ID),
		zap.String("scenario_id", allocation.ScenarioID),
		zap.String("employee_id", allocation.EmployeeID))
	return nil
}

// allocatable rejects unknown and closed initiatives
func (s *Service) allocatable(ctx context.Context, store repositories.Store, initiativeID string) error {
	initiative, err := store.Initiatives().GetInitiative(ctx, initiativeID)
	if err != nil {
		return err
	}
	if !s.config.Gate.IsInitiativeEditable(initiative) {
		return errs.Workflow("initiative", initiative.ID, "allocate", string(initiative.Status), "")
	}
	return nil
}

// DeleteAllocation removes one allocation
func (s *Service) DeleteAllocation(ctx context.Context, allocationID string) error {
	allocation, err := s.store.Allocations().GetAllocation(ctx, allocationID)
	if err != nil {
		return err
	}
	if _, err := s.editableScenario(ctx, s.store, allocation.ScenarioID, "delete allocation"); err != nil {
		return err
	}
	if err := s.store.Allocations().DeleteAllocation(ctx, allocationID); err != nil {
		return err
	}

	s.afterMutation(ctx, allocation.ScenarioID, shared.ReasonAllocationDeleted)
	s.logger.Debug("allocation deleted",
		zap.String("allocation_id", allocationID),
		zap.String("scenario_id", allocation.ScenarioID))
	return nil
}

// SetRampModifier changes an allocation's ramp and rematerializes its periods
func (s *Service) SetRampModifier(ctx context.Context, allocationID string, ramp decimal.Decimal) (*entities.Allocation, error) {
	allocation, err := s.store.Allocations().GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableScenario(ctx, s.store, allocation.ScenarioID, "set ramp modifier"); err != nil {
		return nil, err
	}
	employee, err := s.store.Employees().GetEmployee(ctx, allocation.EmployeeID)
	if err != nil {
		return nil, err
	}

	allocation.RampModifier = ramp
	if err := allocation.Validate(); err != nil {
		return nil, err
	}
	if err := s.periods.Materialize(ctx, allocation, *employee); err != nil {
		return nil, err
	}
	if err := s.store.Allocations().SaveAllocation(ctx, allocation); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, allocation.ScenarioID, shared.ReasonRampUpdated)
	return allocation, nil
}

// UpdatePriorities replaces the scenario's priority rankings
func (s *Service) UpdatePriorities(ctx context.Context, scenarioID string, rankings []entities.PriorityRanking) (*entities.Scenario, error) {
	scenario, err := s.editableScenario(ctx, s.store, scenarioID, "update priorities")
	if err != nil {
		return nil, err
	}
	if err := entities.ValidateRankings(rankings); err != nil {
		return nil, err
	}

	scenario.PriorityRankings = append([]entities.PriorityRanking(nil), rankings...)
	scenario.UpdatedAt = s.now().UTC()
	if err := s.store.Scenarios().SaveScenario(ctx, scenario); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, scenarioID, shared.ReasonPrioritiesUpdated)
	s.logger.Info("priorities updated",
		zap.String("scenario_id", scenarioID),
		zap.Int("rankings", len(rankings)))
	return scenario, nil
}

func (s *Service) editableScenario(
	ctx context.Context,
	store repositories.Store,
	scenarioID, operation string,
) (*entities.Scenario, error) {
	scenario, err := store.Scenarios().GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if err := services.RequireEditable(s.config.Gate, scenario, operation); err != nil {
		return nil, err
	}
	return scenario, nil
}

func (s *Service) afterMutation(ctx context.Context, scenarioID, reason string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(scenarioID)
	s.invalidator.Refresh(ctx, scenarioID, reason)
}
