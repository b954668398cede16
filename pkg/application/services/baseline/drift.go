package baseline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/infrastructure/events"
)

// Exceeds reports whether a period breaches either limit. Drift equal to
// the limit is tolerated.
func Exceeds(drift dto.PeriodDrift, limits entities.ThresholdPair) bool {
	return drift.CapacityDriftPct.Abs().GreaterThan(limits.CapacityPct) ||
		drift.DemandDriftPct.Abs().GreaterThan(limits.DemandPct)
}

// CheckDrift evaluates every period of the delta against the thresholds.
// A breaching period gets its open alert created or refreshed; open alerts
// of periods back within limits are resolved.
func (s *Service) CheckDrift(ctx context.Context, scenarioID string) (*dto.DriftCheckResult, error) {
	delta, err := s.ComputeDelta(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	thresholds, err := s.GetThresholds(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result := &dto.DriftCheckResult{ScenarioID: scenarioID, CheckedAt: now}
	var raised []entities.DriftAlert

	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		checked := make(map[string]bool, len(delta.Periods))
		for _, drift := range delta.Periods {
			checked[drift.PeriodID] = true
			check := dto.PeriodDriftCheck{
				PeriodDrift: drift,
				Thresholds:  thresholds.For(drift.PeriodID),
			}
			check.Exceeded = Exceeds(drift, check.Thresholds)

			open, err := tx.Alerts().FindOpen(ctx, scenarioID, drift.PeriodID)
			if err != nil {
				return err
			}

			switch {
			case check.Exceeded:
				alert := open
				if alert == nil {
					alert = &entities.DriftAlert{
						ID:         uuid.NewString(),
						ScenarioID: scenarioID,
						PeriodID:   drift.PeriodID,
						Status:     entities.AlertActive,
						DetectedAt: now,
					}
				}
				alert.CapacityDriftPct = drift.CapacityDriftPct
				alert.DemandDriftPct = drift.DemandDriftPct
				alert.NetGapDrift = drift.NetGapDrift
				alert.UpdatedAt = now
				if err := tx.Alerts().SaveAlert(ctx, alert); err != nil {
					return err
				}
				if open == nil {
					raised = append(raised, *alert)
				}
				check.AlertID = alert.ID
				result.Alerts = append(result.Alerts, *alert)

			case open != nil:
				if err := resolve(ctx, tx, open, now); err != nil {
					return err
				}
				result.Resolved = append(result.Resolved, open.ID)
			}
			result.Periods = append(result.Periods, check)
		}

		// periods that left the plan no longer drift
		existing, err := tx.Alerts().ListByScenario(ctx, scenarioID)
		if err != nil {
			return err
		}
		for _, alert := range existing {
			if !alert.Status.Open() || checked[alert.PeriodID] {
				continue
			}
			if err := resolve(ctx, tx, alert, now); err != nil {
				return err
			}
			result.Resolved = append(result.Resolved, alert.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(raised) > 0 {
		s.recorder.AlertsRaised(len(raised))
	}
	for _, alert := range raised {
		s.publish(ctx, scenarioID, events.NewDriftAlertRaisedEvent(scenarioID, alert.PeriodID, alert.ID))
	}

	s.logger.Info("drift checked",
		zap.String("scenario_id", scenarioID),
		zap.Int("periods", len(result.Periods)),
		zap.Int("open_alerts", len(result.Alerts)),
		zap.Int("raised", len(raised)),
		zap.Int("resolved", len(result.Resolved)))
	return result, nil
}

func resolve(ctx context.Context, tx repositories.Store, alert *entities.DriftAlert, now time.Time) error {
	alert.Status = entities.AlertResolved
	alert.UpdatedAt = now
	return tx.Alerts().SaveAlert(ctx, alert)
}

// GetThresholds returns the stored thresholds, or the configured defaults
// when none were saved.
func (s *Service) GetThresholds(ctx context.Context) (entities.DriftThresholds, error) {
	stored, err := s.store.Thresholds().GetThresholds(ctx)
	if err != nil {
		return entities.DriftThresholds{}, err
	}
	if stored == nil {
		return s.defaults.Clone(), nil
	}
	return *stored, nil
}

// UpdateThresholds validates and stores new thresholds
func (s *Service) UpdateThresholds(ctx context.Context, thresholds entities.DriftThresholds) (entities.DriftThresholds, error) {
	if err := thresholds.Validate(); err != nil {
		return entities.DriftThresholds{}, err
	}
	if err := s.store.Thresholds().SaveThresholds(ctx, &thresholds); err != nil {
		return entities.DriftThresholds{}, err
	}
	s.logger.Info("drift thresholds updated",
		zap.String("capacity_pct", thresholds.CapacityPct.String()),
		zap.String("demand_pct", thresholds.DemandPct.String()),
		zap.Int("period_overrides", len(thresholds.PeriodOverrides)))
	return thresholds.Clone(), nil
}

// ListAlerts returns every alert of a scenario
func (s *Service) ListAlerts(ctx context.Context, scenarioID string) ([]*entities.DriftAlert, error) {
	if _, err := s.store.Scenarios().GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.store.Alerts().ListByScenario(ctx, scenarioID)
}

// AcknowledgeAlert marks an active alert as seen. It stays open and keeps
// being refreshed by drift checks until the drift subsides.
func (s *Service) AcknowledgeAlert(ctx context.Context, alertID string) (*entities.DriftAlert, error) {
	alert, err := s.store.Alerts().GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	switch alert.Status {
	case entities.AlertAcknowledged:
		return alert, nil
	case entities.AlertResolved:
		return nil, errs.Workflow("alert", alertID, "acknowledge",
			string(alert.Status), string(entities.AlertAcknowledged))
	}

	alert.Status = entities.AlertAcknowledged
	alert.UpdatedAt = s.now().UTC()
	if err := s.store.Alerts().SaveAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}
