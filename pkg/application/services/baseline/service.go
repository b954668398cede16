// Package baseline freezes locked baseline scenarios and measures how far
// live data has drifted from them.
package baseline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/services/shared"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/infrastructure/events"
)

// Config tunes the baseline service
type Config struct {
	// Thresholds apply until thresholds are stored; zero value uses 5% / 10%
	Thresholds *entities.DriftThresholds
	Recorder   shared.Recorder
	// Events receives snapshot and alert notifications; may be nil
	Events events.EventStore
}

// Service captures snapshots, computes deltas and checks drift
type Service struct {
	store    repositories.Store
	loader   *shared.ScenarioLoader
	defaults entities.DriftThresholds
	recorder shared.Recorder
	events   events.EventStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a baseline service with default thresholds
func NewService(store repositories.Store, loader *shared.ScenarioLoader, logger *zap.Logger) *Service {
	return NewServiceWithConfig(store, loader, logger, Config{})
}

// NewServiceWithConfig creates a baseline service with custom configuration
func NewServiceWithConfig(store repositories.Store, loader *shared.ScenarioLoader, logger *zap.Logger, config Config) *Service {
	defaults := entities.DefaultDriftThresholds()
	if config.Thresholds != nil {
		defaults = config.Thresholds.Clone()
	}
	if config.Recorder == nil {
		config.Recorder = shared.NoopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		loader:   loader,
		defaults: defaults,
		recorder: config.Recorder,
		events:   config.Events,
		logger:   logger.Named("baseline"),
		now:      time.Now,
	}
}

func requireBaseline(scenario *entities.Scenario, operation string) error {
	if scenario.Type != entities.ScenarioBaseline {
		return errs.Workflow("scenario", scenario.ID, operation, string(scenario.Type), "")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, streamID string, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.AppendEvent(ctx, streamID, event); err != nil {
		s.recorder.DispatchFailed(event.Type())
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.Type()),
			zap.String("scenario_id", streamID),
			zap.Error(err))
	}
}
