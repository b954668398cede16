package dto

import (
	"time"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// PeriodDriftCheck is the threshold evaluation of one period
type PeriodDriftCheck struct {
	PeriodDrift
	Thresholds entities.ThresholdPair `json:"thresholds"`
	Exceeded   bool                   `json:"exceeded"`
	AlertID    string                 `json:"alert_id,omitempty"`
}

// DriftCheckResult reports a drift check and the alerts it touched
type DriftCheckResult struct {
	ScenarioID string                `json:"scenario_id"`
	CheckedAt  time.Time             `json:"checked_at"`
	Periods    []PeriodDriftCheck    `json:"periods"`
	Alerts     []entities.DriftAlert `json:"alerts"`
	Resolved   []string              `json:"resolved,omitempty"`
}
