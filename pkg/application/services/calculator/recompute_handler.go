package calculator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/infrastructure/events"
)

// RecomputeHandler warms the cache when a recompute is requested
type RecomputeHandler struct {
	calculator *Calculator
	logger     *zap.Logger
}

func NewRecomputeHandler(calculator *Calculator, logger *zap.Logger) *RecomputeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecomputeHandler{calculator: calculator, logger: logger.Named("recompute")}
}

// Verify interface compliance
var _ events.EventHandler = (*RecomputeHandler)(nil)

func (h *RecomputeHandler) CanHandle(eventType string) bool {
	return eventType == events.RecomputeRequestedEvent
}

func (h *RecomputeHandler) Handle(ctx context.Context, event events.Event) error {
	req, ok := event.Data().(events.RecomputeRequested)
	if !ok {
		return fmt.Errorf("invalid event data for %s", event.Type())
	}
	if err := h.calculator.Warm(ctx, req.ScenarioID); err != nil {
		return fmt.Errorf("recomputing scenario %s: %w", req.ScenarioID, err)
	}
	h.logger.Debug("scenario recomputed",
		zap.String("scenario_id", req.ScenarioID),
		zap.String("reason", req.Reason))
	return nil
}

// Subscribe registers the handler for recompute requests
func (h *RecomputeHandler) Subscribe(store events.EventStore) error {
	return store.Subscribe([]string{events.RecomputeRequestedEvent}, h)
}
