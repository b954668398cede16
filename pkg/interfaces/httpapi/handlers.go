package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/allocation"
	"github.com/vsinha/capplan/pkg/application/services/calculator"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/errs"
)

type autoAllocateRequest struct {
	OrgScope string `json:"org_scope"`
}

type applyRequest struct {
	Proposals []dto.ProposedAllocation `json:"proposals"`
}

type prioritiesRequest struct {
	Rankings []entities.PriorityRanking `json:"rankings"`
}

type rampRequest struct {
	RampModifier decimal.Decimal `json:"ramp_modifier"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *handlers) listScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.planner.ListScenarios(r.Context())
	h.respond(w, r, http.StatusOK, scenarios, err)
}

func (h *handlers) getScenario(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.planner.GetScenario(r.Context(), chi.URLParam(r, "scenarioID"))
	h.respond(w, r, http.StatusOK, scenario, err)
}

func (h *handlers) calculate(w http.ResponseWriter, r *http.Request) {
	opts := calculator.Options{OrgScope: r.URL.Query().Get("org_scope")}
	if raw := r.URL.Query().Get("skip_cache"); raw != "" {
		skip, err := strconv.ParseBool(raw)
		if err != nil {
			h.fail(w, r, errs.Validation("skip_cache", "expected a boolean, got %q", raw))
			return
		}
		opts.SkipCache = skip
	}
	result, err := h.planner.Calculate(r.Context(), chi.URLParam(r, "scenarioID"), opts)
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *handlers) autoAllocate(w http.ResponseWriter, r *http.Request) {
	var req autoAllocateRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.planner.AutoAllocate(r.Context(), chi.URLParam(r, "scenarioID"),
		allocation.AutoAllocateOptions{OrgScope: req.OrgScope})
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *handlers) applyAutoAllocate(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.planner.ApplyAutoAllocate(r.Context(), chi.URLParam(r, "scenarioID"), req.Proposals)
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *handlers) updatePriorities(w http.ResponseWriter, r *http.Request) {
	var req prioritiesRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	scenario, err := h.planner.UpdatePriorities(r.Context(), chi.URLParam(r, "scenarioID"), req.Rankings)
	h.respond(w, r, http.StatusOK, scenario, err)
}

func (h *handlers) deleteAllocation(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.DeleteAllocation(r.Context(), chi.URLParam(r, "allocationID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setRampModifier(w http.ResponseWriter, r *http.Request) {
	var req rampRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.planner.SetRampModifier(r.Context(), chi.URLParam(r, "allocationID"), req.RampModifier)
	h.respond(w, r, http.StatusOK, a, err)
}

func (h *handlers) transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	target := entities.ScenarioStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	result, err := h.planner.TransitionScenario(r.Context(), chi.URLParam(r, "scenarioID"), target)
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *handlers) captureSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.planner.CaptureSnapshot(r.Context(), chi.URLParam(r, "scenarioID"))
	h.respond(w, r, http.StatusOK, snapshot, err)
}

func (h *handlers) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.planner.GetSnapshot(r.Context(), chi.URLParam(r, "scenarioID"))
	h.respond(w, r, http.StatusOK, snapshot, err)
}

func (h *handlers) computeDelta(w http.ResponseWriter, r *http.Request) {
	delta, err := h.planner.ComputeDelta(r.Context(), chi.URLParam(r, "scenarioID"))
	h.respond(w, r, http.StatusOK, delta, err)
}

func (h *handlers) checkDrift(w http.ResponseWriter, r *http.Request) {
	result, err := h.planner.CheckDrift(r.Context(), chi.URLParam(r, "scenarioID"))
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *handlers) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.planner.ListAlerts(r.Context(), chi.URLParam(r, "scenarioID"))
	if alerts == nil {
		alerts = []*entities.DriftAlert{}
	}
	h.respond(w, r, http.StatusOK, alerts, err)
}

func (h *handlers) employeeAvailability(w http.ResponseWriter, r *http.Request) {
	scenarioID := r.URL.Query().Get("scenario")
	if scenarioID == "" {
		h.fail(w, r, errs.Validation("scenario", "query parameter is required"))
		return
	}
	calendar, err := h.planner.EmployeeAvailability(r.Context(), chi.URLParam(r, "employeeID"), scenarioID)
	h.respond(w, r, http.StatusOK, calendar, err)
}

func (h *handlers) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.planner.AcknowledgeAlert(r.Context(), chi.URLParam(r, "alertID"))
	h.respond(w, r, http.StatusOK, alert, err)
}

func (h *handlers) getThresholds(w http.ResponseWriter, r *http.Request) {
	thresholds, err := h.planner.GetThresholds(r.Context())
	h.respond(w, r, http.StatusOK, thresholds, err)
}

func (h *handlers) updateThresholds(w http.ResponseWriter, r *http.Request) {
	var req entities.DriftThresholds
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	thresholds, err := h.planner.UpdateThresholds(r.Context(), req)
	h.respond(w, r, http.StatusOK, thresholds, err)
}
