package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/services/orchestration"
	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/config"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/infrastructure/events"
	"github.com/vsinha/capplan/pkg/infrastructure/logging"
	"github.com/vsinha/capplan/pkg/infrastructure/metrics"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/dataset"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/capplan/pkg/interfaces/cli/output"
)

// runtime is everything one command invocation works with
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      repositories.Store
	closeStore func() error
	events     *events.InMemoryEventStore
	metrics    *metrics.Collector
	planner    *orchestration.Planner
	printer    *output.Printer
}

func (a *App) open(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	granularity, err := cfg.Granularity()
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		events:  events.NewInMemoryEventStore(logger),
		metrics: metrics.NewCollector(),
		printer: output.NewPrinter(cmd.OutOrStdout(), format),
	}

	if a.dataDir != "" || cfg.Store.Driver == config.DriverMemory {
		rt.store = memory.NewStore()
		rt.closeStore = func() error { return nil }
	} else {
		path, err := cfg.StorePath()
		if err != nil {
			return nil, err
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		rt.store = db
		rt.closeStore = db.Close
	}

	if a.dataDir != "" {
		if _, err := dataset.NewImporter(granularity, logger).Import(cmd.Context(), rt.store, a.dataDir); err != nil {
			rt.Close()
			return nil, err
		}
	}

	thresholds := cfg.Thresholds()
	rt.planner, err = orchestration.NewPlanner(rt.store, logger, orchestration.Options{
		Granularity: &granularity,
		Ceiling:     cfg.Ceiling(),
		Thresholds:  &thresholds,
		OrgScopes:   shared.NewOrgScopeResolver(cfg.OrgScopes),
		Recorder:    rt.metrics,
		Events:      rt.events,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close drains background work, pushes metrics when configured and closes the store
func (rt *runtime) Close() error {
	rt.events.Wait()

	if url := rt.cfg.Server.MetricsPush; url != "" {
		if err := rt.metrics.Push(url, "capplan"); err != nil {
			rt.logger.Warn("metrics push failed", zap.Error(err))
		}
	}

	err := rt.closeStore()
	_ = rt.logger.Sync()
	return err
}
