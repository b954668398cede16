// Package calculator produces the cached demand, capacity and gap report of a scenario.
package calculator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/capacity"
	"github.com/vsinha/capplan/pkg/application/services/demand"
	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// Cache stores calculation results per scenario and org scope, the empty
// scope being the whole organization. Every scenario carries a generation
// that Invalidate advances; Put only stores a result computed under the
// current generation, so a slow computation never resurrects data that was
// invalidated while it ran.
type Cache interface {
	Get(scenarioID, orgScope string) (*dto.CalculationResult, bool)
	Generation(scenarioID string) uint64
	Put(scenarioID, orgScope string, generation uint64, result *dto.CalculationResult) bool
	// Invalidate drops the scenario's entry and every org-scope variant
	Invalidate(scenarioID string)
}

// Options controls a single calculation
type Options struct {
	SkipCache bool
	OrgScope  string
}

// Config tunes the calculator
type Config struct {
	Recorder shared.Recorder
}

// Calculator computes scenario reports and owns their cache
type Calculator struct {
	store      repositories.Store
	loader     *shared.ScenarioLoader
	cache      Cache
	dispatcher shared.Dispatcher
	recorder   shared.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewCalculator creates a calculator without metrics
func NewCalculator(
	store repositories.Store,
	loader *shared.ScenarioLoader,
	cache Cache,
	dispatcher shared.Dispatcher,
	logger *zap.Logger,
) *Calculator {
	return NewCalculatorWithConfig(store, loader, cache, dispatcher, logger, Config{})
}

// NewCalculatorWithConfig creates a calculator with custom configuration
func NewCalculatorWithConfig(
	store repositories.Store,
	loader *shared.ScenarioLoader,
	cache Cache,
	dispatcher shared.Dispatcher,
	logger *zap.Logger,
	config Config,
) *Calculator {
	if dispatcher == nil {
		dispatcher = shared.NoopDispatcher{}
	}
	if config.Recorder == nil {
		config.Recorder = shared.NoopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		store:      store,
		loader:     loader,
		cache:      cache,
		dispatcher: dispatcher,
		recorder:   config.Recorder,
		logger:     logger.Named("calculator"),
		now:        time.Now,
	}
}

// Verify interface compliance
var _ shared.Invalidator = (*Calculator)(nil)

// Calculate returns the scenario report, served from cache unless SkipCache
// is set. Results handed out are copies; callers may modify them freely.
func (c *Calculator) Calculate(ctx context.Context, scenarioID string, opts Options) (*dto.CalculationResult, error) {
	if !opts.SkipCache && c.cache != nil {
		cached, ok := c.cache.Get(scenarioID, opts.OrgScope)
		c.recorder.CacheLookup(ok)
		if ok {
			result := cached.Clone()
			result.CacheHit = true
			c.logger.Debug("calculation served from cache",
				zap.String("scenario_id", scenarioID),
				zap.String("org_scope", opts.OrgScope),
				zap.Bool("cache_hit", true))
			return result, nil
		}
	}

	var generation uint64
	if c.cache != nil {
		generation = c.cache.Generation(scenarioID)
	}

	result, err := c.compute(ctx, scenarioID, opts.OrgScope)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && !c.cache.Put(scenarioID, opts.OrgScope, generation, result.Clone()) {
		c.logger.Debug("discarding stale calculation",
			zap.String("scenario_id", scenarioID),
			zap.Uint64("generation", generation))
	}
	return result, nil
}

func (c *Calculator) compute(ctx context.Context, scenarioID, orgScope string) (*dto.CalculationResult, error) {
	start := time.Now()
	defer func() {
		c.recorder.CalculationDuration(time.Since(start))
	}()

	data, err := c.loader.Load(ctx, c.store, scenarioID, orgScope)
	if err != nil {
		return nil, err
	}
	periodIDs := data.PeriodIDs()

	demandResult, err := demand.Aggregate(data.Rankings, data.Initiatives, periodIDs)
	if err != nil {
		return nil, err
	}
	capacityResult := capacity.Aggregate(data.Employees, data.Allocations, periodIDs)

	result := BuildResult(scenarioID, periodIDs, demandResult, capacityResult)
	result.OrgScope = orgScope
	result.CalculatedAt = c.now().UTC()

	c.logger.Info("scenario calculated",
		zap.String("scenario_id", scenarioID),
		zap.String("org_scope", orgScope),
		zap.Int("rows", len(result.Rows)),
		zap.Int("binding_constraints", len(result.BindingConstraints)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// BuildResult joins demand and capacity into one row per (period, skill)
// present on either side. Rows follow period order, then skill name.
func BuildResult(
	scenarioID string,
	periodIDs []string,
	demandResult *demand.Result,
	capacityResult *capacity.Result,
) *dto.CalculationResult {
	result := &dto.CalculationResult{
		ScenarioID: scenarioID,
		PeriodIDs:  append([]string(nil), periodIDs...),
	}

	for _, periodID := range periodIDs {
		skills := make(map[string]bool)
		for _, cell := range demandResult.ByPeriodSkill.Cells() {
			if cell.PeriodID == periodID {
				skills[cell.Skill] = true
			}
		}
		for _, cell := range capacityResult.ByPeriodSkill.Cells() {
			if cell.PeriodID == periodID {
				skills[cell.Skill] = true
			}
		}
		names := make([]string, 0, len(skills))
		for skill := range skills {
			names = append(names, skill)
		}
		sort.Strings(names)

		for _, skill := range names {
			d := demandResult.ByPeriodSkill.Get(periodID, skill)
			c := capacityResult.ByPeriodSkill.Get(periodID, skill)
			result.Rows = append(result.Rows, dto.SkillPeriodRow{
				PeriodID: periodID,
				Skill:    skill,
				Demand:   d,
				Capacity: c,
				Gap:      c.Sub(d),
			})
		}
	}

	result.TotalDemand = demandResult.Total()
	result.TotalCapacity = capacityResult.Total()
	result.NetGap = result.TotalCapacity.Sub(result.TotalDemand)
	result.BindingConstraints = bindingConstraints(result.Rows)
	return result
}

// bindingConstraints are the deficit rows, largest deficit first
func bindingConstraints(rows []dto.SkillPeriodRow) []dto.SkillPeriodRow {
	var deficits []dto.SkillPeriodRow
	for _, row := range rows {
		if row.Gap.IsNegative() {
			deficits = append(deficits, row)
		}
	}
	sort.SliceStable(deficits, func(i, j int) bool {
		return deficits[i].Gap.LessThan(deficits[j].Gap)
	})
	return deficits
}

// Invalidate synchronously drops every cached variant of the scenario
func (c *Calculator) Invalidate(scenarioID string) {
	if c.cache == nil {
		return
	}
	c.cache.Invalidate(scenarioID)
	c.logger.Debug("cache invalidated", zap.String("scenario_id", scenarioID))
}

// Refresh enqueues a recompute and a view refresh. Dispatcher failures are
// logged and counted, never returned.
func (c *Calculator) Refresh(ctx context.Context, scenarioID, reason string) {
	if err := c.dispatcher.EnqueueRecompute(ctx, scenarioID, reason); err != nil {
		c.recorder.DispatchFailed("recompute")
		c.logger.Warn("failed to enqueue recompute",
			zap.String("scenario_id", scenarioID),
			zap.String("reason", reason),
			zap.Error(err))
	}
	if err := c.dispatcher.EnqueueViewRefresh(ctx, "scenario", reason, []string{scenarioID}); err != nil {
		c.recorder.DispatchFailed("view-refresh")
		c.logger.Warn("failed to enqueue view refresh",
			zap.String("scenario_id", scenarioID),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

// Warm recomputes the unscoped result and stores it if nothing invalidated
// the scenario meanwhile.
func (c *Calculator) Warm(ctx context.Context, scenarioID string) error {
	_, err := c.Calculate(ctx, scenarioID, Options{SkipCache: true})
	return err
}
