package shared

import (
	"context"
	"time"
)

// Dispatcher is the asynchronous job collaborator. Both calls are
// fire-and-forget: callers never wait for the job and must tolerate errors.
type Dispatcher interface {
	EnqueueRecompute(ctx context.Context, scenarioID, reason string) error
	EnqueueViewRefresh(ctx context.Context, scope, reason string, scenarioIDs []string) error
}

// Invalidator is the two-phase cache contract used by every mutation:
// Invalidate runs synchronously before the mutation returns, Refresh
// schedules a best-effort recompute and never reports failure.
type Invalidator interface {
	Invalidate(scenarioID string)
	Refresh(ctx context.Context, scenarioID, reason string)
}

// Mutation reasons passed to the dispatcher
const (
	ReasonAutoAllocateApplied = "auto-allocate-applied"
	ReasonAllocationSaved     = "allocation-saved"
	ReasonAllocationDeleted   = "allocation-deleted"
	ReasonPrioritiesUpdated   = "priorities-updated"
	ReasonRampUpdated         = "ramp-updated"
	ReasonStatusChanged       = "status-changed"
)

// NoopDispatcher drops every job
type NoopDispatcher struct{}

func (NoopDispatcher) EnqueueRecompute(context.Context, string, string) error { return nil }

func (NoopDispatcher) EnqueueViewRefresh(context.Context, string, string, []string) error {
	return nil
}

// Recorder receives planning measurements
type Recorder interface {
	CacheLookup(hit bool)
	CalculationDuration(d time.Duration)
	ShortagesReported(kind string, count int)
	AlertsRaised(count int)
	DispatchFailed(job string)
}

// NoopRecorder discards measurements
type NoopRecorder struct{}

func (NoopRecorder) CacheLookup(bool)                  {}
func (NoopRecorder) CalculationDuration(time.Duration) {}
func (NoopRecorder) ShortagesReported(string, int)     {}
func (NoopRecorder) AlertsRaised(int)                  {}
func (NoopRecorder) DispatchFailed(string)             {}
