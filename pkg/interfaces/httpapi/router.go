// Package httpapi exposes the Planner over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/allocation"
	"github.com/vsinha/capplan/pkg/application/services/calculator"
	"github.com/vsinha/capplan/pkg/application/services/orchestration"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services"
)

// Planner is the part of orchestration.Planner the API serves
type Planner interface {
	ListScenarios(ctx context.Context) ([]*entities.Scenario, error)
	GetScenario(ctx context.Context, scenarioID string) (*entities.Scenario, error)
	Calculate(ctx context.Context, scenarioID string, opts calculator.Options) (*dto.CalculationResult, error)
	AutoAllocate(ctx context.Context, scenarioID string, opts allocation.AutoAllocateOptions) (*dto.AutoAllocateResult, error)
	ApplyAutoAllocate(ctx context.Context, scenarioID string, proposals []dto.ProposedAllocation) (*dto.ApplyResult, error)
	UpdatePriorities(ctx context.Context, scenarioID string, rankings []entities.PriorityRanking) (*entities.Scenario, error)
	SetRampModifier(ctx context.Context, allocationID string, ramp decimal.Decimal) (*entities.Allocation, error)
	DeleteAllocation(ctx context.Context, allocationID string) error
	TransitionScenario(ctx context.Context, scenarioID string, target entities.ScenarioStatus) (*orchestration.TransitionResult, error)
	CaptureSnapshot(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error)
	GetSnapshot(ctx context.Context, scenarioID string) (*entities.BaselineSnapshot, error)
	ComputeDelta(ctx context.Context, scenarioID string) (*dto.DeltaResult, error)
	CheckDrift(ctx context.Context, scenarioID string) (*dto.DriftCheckResult, error)
	ListAlerts(ctx context.Context, scenarioID string) ([]*entities.DriftAlert, error)
	AcknowledgeAlert(ctx context.Context, alertID string) (*entities.DriftAlert, error)
	GetThresholds(ctx context.Context) (entities.DriftThresholds, error)
	UpdateThresholds(ctx context.Context, t entities.DriftThresholds) (entities.DriftThresholds, error)
	EmployeeAvailability(ctx context.Context, employeeID, scenarioID string) ([]services.WeeklyAvailability, error)
}

// Verify interface compliance
var _ Planner = (*orchestration.Planner)(nil)

type handlers struct {
	planner Planner
	logger  *zap.Logger
}

// NewRouter builds the API routes. metrics may be nil.
func NewRouter(planner Planner, metrics http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{planner: planner, logger: logger.Named("http")}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.NoCache)
	router.Use(requestLogger(h.logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}

	router.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.listScenarios)
		r.Route("/{scenarioID}", func(r chi.Router) {
			r.Get("/", h.getScenario)
			r.Get("/calculation", h.calculate)
			r.Post("/auto-allocate", h.autoAllocate)
			r.Post("/auto-allocate/apply", h.applyAutoAllocate)
			r.Put("/priorities", h.updatePriorities)
			r.Post("/transition", h.transition)
			r.Post("/snapshot", h.captureSnapshot)
			r.Get("/snapshot", h.getSnapshot)
			r.Get("/delta", h.computeDelta)
			r.Post("/drift-check", h.checkDrift)
			r.Get("/alerts", h.listAlerts)
		})
	})
	router.Route("/allocations/{allocationID}", func(r chi.Router) {
		r.Delete("/", h.deleteAllocation)
		r.Put("/ramp", h.setRampModifier)
	})
	router.Get("/employees/{employeeID}/availability", h.employeeAvailability)
	router.Post("/alerts/{alertID}/acknowledge", h.acknowledgeAlert)
	router.Get("/drift-thresholds", h.getThresholds)
	router.Put("/drift-thresholds", h.updateThresholds)

	return router
}
