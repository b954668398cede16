package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/errs"
)

// AlertStatus is the lifecycle state of a drift alert
type AlertStatus string

const (
	AlertActive       AlertStatus = "ACTIVE"
	AlertAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertResolved     AlertStatus = "RESOLVED"
)

// Open reports whether the alert still tracks live drift
func (s AlertStatus) Open() bool {
	return s == AlertActive || s == AlertAcknowledged
}

// DriftAlert records a threshold breach for a scenario and period
type DriftAlert struct {
	ID               string          `json:"id"`
	ScenarioID       string          `json:"scenario_id"`
	PeriodID         string          `json:"period_id"`
	Status           AlertStatus     `json:"status"`
	CapacityDriftPct decimal.Decimal `json:"capacity_drift_pct"`
	DemandDriftPct   decimal.Decimal `json:"demand_drift_pct"`
	NetGapDrift      decimal.Decimal `json:"net_gap_drift"`
	DetectedAt       time.Time       `json:"detected_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Validate checks the alert invariants
func (a DriftAlert) Validate() error {
	if a.ID == "" {
		return errs.Validation("alert id", "cannot be empty")
	}
	if a.ScenarioID == "" || a.PeriodID == "" {
		return errs.Validation("alert", "scenario and period are required for %s", a.ID)
	}
	switch a.Status {
	case AlertActive, AlertAcknowledged, AlertResolved:
	default:
		return errs.Validation("alert status", "unknown status %q", a.Status)
	}
	return nil
}

// ThresholdPair holds capacity and demand drift limits in percent
type ThresholdPair struct {
	CapacityPct decimal.Decimal `json:"capacity_pct" toml:"capacity_pct"`
	DemandPct   decimal.Decimal `json:"demand_pct" toml:"demand_pct"`
}

// DriftThresholds are the global limits plus per-period overrides
type DriftThresholds struct {
	ThresholdPair
	PeriodOverrides map[string]ThresholdPair `json:"period_overrides,omitempty"`
}

// DefaultDriftThresholds returns capacity 5% and demand 10%
func DefaultDriftThresholds() DriftThresholds {
	return DriftThresholds{
		ThresholdPair: ThresholdPair{
			CapacityPct: decimal.NewFromInt(5),
			DemandPct:   decimal.NewFromInt(10),
		},
	}
}

// For resolves the limits that apply to a period
func (t DriftThresholds) For(periodID string) ThresholdPair {
	if o, ok := t.PeriodOverrides[periodID]; ok {
		return o
	}
	return t.ThresholdPair
}

// Validate rejects negative limits
func (t DriftThresholds) Validate() error {
	check := func(scope string, p ThresholdPair) error {
		if p.CapacityPct.IsNegative() {
			return errs.Validation("capacity threshold", "%s cannot be negative, got %s", scope, p.CapacityPct)
		}
		if p.DemandPct.IsNegative() {
			return errs.Validation("demand threshold", "%s cannot be negative, got %s", scope, p.DemandPct)
		}
		return nil
	}
	if err := check("global", t.ThresholdPair); err != nil {
		return err
	}
	for periodID, p := range t.PeriodOverrides {
		if err := check("period "+periodID, p); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy
func (t DriftThresholds) Clone() DriftThresholds {
	c := t
	if t.PeriodOverrides != nil {
		c.PeriodOverrides = make(map[string]ThresholdPair, len(t.PeriodOverrides))
		for k, v := range t.PeriodOverrides {
			c.PeriodOverrides[k] = v
		}
	}
	return c
}
