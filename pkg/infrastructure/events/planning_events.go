package events

const (
	RecomputeRequestedEvent   = "scenario.recompute.requested"
	ViewRefreshRequestedEvent = "view.refresh.requested"

	SnapshotCapturedEvent = "baseline.snapshot.captured"
	DriftAlertRaisedEvent = "drift.alert.raised"
)

// ViewStream collects view refresh requests
const ViewStream = "views"

type RecomputeRequested struct {
	ScenarioID string `json:"scenario_id"`
	Reason     string `json:"reason"`
}

type ViewRefreshRequested struct {
	Scope       string   `json:"scope"`
	Reason      string   `json:"reason"`
	ScenarioIDs []string `json:"scenario_ids"`
}

type SnapshotCaptured struct {
	ScenarioID string `json:"scenario_id"`
	SnapshotID string `json:"snapshot_id"`
}

type DriftAlertRaised struct {
	ScenarioID string `json:"scenario_id"`
	PeriodID   string `json:"period_id"`
	AlertID    string `json:"alert_id"`
}

func NewRecomputeRequestedEvent(scenarioID, reason string) Event {
	return NewEvent(RecomputeRequestedEvent, scenarioID, RecomputeRequested{
		ScenarioID: scenarioID,
		Reason:     reason,
	})
}

func NewViewRefreshRequestedEvent(scope, reason string, scenarioIDs []string) Event {
	return NewEvent(ViewRefreshRequestedEvent, ViewStream, ViewRefreshRequested{
		Scope:       scope,
		Reason:      reason,
		ScenarioIDs: append([]string(nil), scenarioIDs...),
	})
}

func NewSnapshotCapturedEvent(scenarioID, snapshotID string) Event {
	return NewEvent(SnapshotCapturedEvent, scenarioID, SnapshotCaptured{
		ScenarioID: scenarioID,
		SnapshotID: snapshotID,
	})
}

func NewDriftAlertRaisedEvent(scenarioID, periodID, alertID string) Event {
	return NewEvent(DriftAlertRaisedEvent, scenarioID, DriftAlertRaised{
		ScenarioID: scenarioID,
		PeriodID:   periodID,
		AlertID:    alertID,
	})
}
