package events

import (
	"context"
	"fmt"

	"github.com/vsinha/capplan/pkg/application/services/shared"
)

// Dispatcher turns job requests into events on the store. Enqueueing
// returns once the event is appended; handlers run later.
type Dispatcher struct {
	store EventStore
}

func NewDispatcher(store EventStore) *Dispatcher {
	return &Dispatcher{store: store}
}

// Verify interface compliance
var _ shared.Dispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) EnqueueRecompute(ctx context.Context, scenarioID, reason string) error {
	if err := d.store.AppendEvent(ctx, scenarioID, NewRecomputeRequestedEvent(scenarioID, reason)); err != nil {
		return fmt.Errorf("enqueue recompute of %s: %w", scenarioID, err)
	}
	return nil
}

func (d *Dispatcher) EnqueueViewRefresh(ctx context.Context, scope, reason string, scenarioIDs []string) error {
	if err := d.store.AppendEvent(ctx, ViewStream, NewViewRefreshRequestedEvent(scope, reason, scenarioIDs)); err != nil {
		return fmt.Errorf("enqueue %s view refresh: %w", scope, err)
	}
	return nil
}
