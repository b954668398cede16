package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services/orchestration"
	testdata "github.com/vsinha/capplan/pkg/application/services/testing"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services"
	"github.com/vsinha/capplan/pkg/infrastructure/metrics"
	"github.com/vsinha/capplan/pkg/interfaces/httpapi"
)

type apiFixture struct {
	t       *testing.T
	handler http.Handler
	metrics *metrics.Collector
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	f := testdata.BuildSimpleTestData()
	collector := metrics.NewCollector()
	planner, err := orchestration.NewPlanner(f.Store, zap.NewNop(), orchestration.Options{Recorder: collector})
	require.NoError(t, err)
	return &apiFixture{
		t:       t,
		handler: httpapi.NewRouter(planner, collector.Handler(), zap.NewNop()),
		metrics: collector,
	}
}

func (a *apiFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Calculation(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodGet, "/scenarios/S-BASE/calculation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	result := decode[dto.CalculationResult](t, rec)
	assert.True(t, result.TotalDemand.Equal(decimal.NewFromInt(645)))
	assert.False(t, result.CacheHit)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE/calculation", nil)
	assert.True(t, decode[dto.CalculationResult](t, rec).CacheHit)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE/calculation?skip_cache=true", nil)
	assert.False(t, decode[dto.CalculationResult](t, rec).CacheHit)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE/calculation?skip_cache=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	api := newAPI(t)

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"unknown scenario", http.MethodGet, "/scenarios/S-NONE/calculation", nil, http.StatusNotFound, "NotFound"},
		{"delta without snapshot", http.MethodGet, "/scenarios/S-BASE/delta", nil, http.StatusNotFound, "NotFound"},
		{"unknown alert", http.MethodPost, "/alerts/nope/acknowledge", nil, http.StatusNotFound, "NotFound"},
		{"unknown status", http.MethodPost, "/scenarios/S-BASE/transition", map[string]string{"status": "archived"}, http.StatusBadRequest, "Validation"},
		{"malformed body", http.MethodPost, "/scenarios/S-BASE/transition", "{", http.StatusBadRequest, "Validation"},
		{"unknown field", http.MethodPut, "/drift-thresholds", `{"capacity":1}`, http.StatusBadRequest, "Validation"},
		{"negative threshold", http.MethodPut, "/drift-thresholds", `{"capacity_pct":"-1","demand_pct":"10"}`, http.StatusBadRequest, "Validation"},
		{"skipped workflow step", http.MethodPost, "/scenarios/S-BASE/transition", map[string]string{"status": "LOCKED"}, http.StatusConflict, "Workflow"},
		{"capture before lock", http.MethodPost, "/scenarios/S-BASE/snapshot", nil, http.StatusConflict, "Workflow"},
		{"availability without scenario", http.MethodGet, "/employees/E3/availability", nil, http.StatusBadRequest, "Validation"},
		{"availability of unknown employee", http.MethodGet, "/employees/E404/availability?scenario=S-BASE", nil, http.StatusNotFound, "NotFound"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			resp := decode[httpapi.ErrorResponse](t, rec)
			assert.Equal(t, tc.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRouter_WorkflowErrorCarriesStatuses(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodPost, "/scenarios/S-BASE/transition", map[string]string{"status": "LOCKED"})
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[httpapi.ErrorResponse](t, rec)
	assert.Equal(t, "DRAFT", resp.Current)
	assert.Equal(t, "LOCKED", resp.Attempted)
}

func TestRouter_PlanningLifecycle(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodPost, "/scenarios/S-BASE/auto-allocate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proposal := decode[dto.AutoAllocateResult](t, rec)
	require.Len(t, proposal.Proposals, 5)
	assert.Empty(t, proposal.Shortages)

	rec = api.do(http.MethodPost, "/scenarios/S-BASE/auto-allocate/apply", map[string]any{"proposals": proposal.Proposals})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	applied := decode[dto.ApplyResult](t, rec)
	assert.Equal(t, 3, applied.Removed)
	assert.Equal(t, 5, applied.Created)

	for _, status := range []string{"REVIEW", "APPROVED"} {
		rec = api.do(http.MethodPost, "/scenarios/S-BASE/transition", map[string]string{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = api.do(http.MethodPost, "/scenarios/S-BASE/transition", map[string]string{"status": "locked"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	transitioned := decode[orchestration.TransitionResult](t, rec)
	assert.Equal(t, entities.ScenarioLocked, transitioned.Scenario.Status)
	require.NotNil(t, transitioned.Snapshot)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decode[entities.BaselineSnapshot](t, rec)
	assert.Equal(t, transitioned.Snapshot.ID, snapshot.ID)

	rec = api.do(http.MethodPost, "/scenarios/S-BASE/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snapshot.ID, decode[entities.BaselineSnapshot](t, rec).ID, "capture is idempotent")

	rec = api.do(http.MethodPost, "/scenarios/S-BASE/auto-allocate/apply", map[string]any{"proposals": proposal.Proposals})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE/delta", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	delta := decode[dto.DeltaResult](t, rec)
	assert.True(t, delta.Summary.NetGapDrift.IsZero())

	rec = api.do(http.MethodPost, "/scenarios/S-BASE/drift-check", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[dto.DriftCheckResult](t, rec).Alerts)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestRouter_Thresholds(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodGet, "/drift-thresholds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	th := decode[entities.DriftThresholds](t, rec)
	assert.True(t, th.CapacityPct.Equal(decimal.NewFromInt(5)))

	rec = api.do(http.MethodPut, "/drift-thresholds",
		`{"capacity_pct":"2","demand_pct":"4","period_overrides":{"2025-Q1":{"capacity_pct":"1","demand_pct":"1"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/drift-thresholds", nil)
	th = decode[entities.DriftThresholds](t, rec)
	assert.True(t, th.DemandPct.Equal(decimal.NewFromInt(4)))
	assert.True(t, th.For("2025-Q1").CapacityPct.Equal(decimal.NewFromInt(1)))
}

func TestRouter_AllocationEdits(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodPut, "/allocations/A1/ramp", `{"ramp_modifier":"0.5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a := decode[entities.Allocation](t, rec)
	assert.True(t, a.RampModifier.Equal(decimal.RequireFromString("0.5")))

	rec = api.do(http.MethodPut, "/scenarios/S-BASE/priorities",
		map[string]any{"rankings": []entities.PriorityRanking{{InitiativeID: "I2", Rank: 1}, {InitiativeID: "I1", Rank: 2}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodDelete, "/allocations/A2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, "/allocations/A2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_EmployeeAvailability(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodGet, "/employees/E3/availability?scenario=S-BASE", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	calendar := decode[[]services.WeeklyAvailability](t, rec)
	require.Len(t, calendar, 14)
	assert.Equal(t, "2025-W02", calendar[1].WeekID)
	assert.True(t, calendar[1].AvailableHours.Equal(decimal.NewFromInt(28)), "got %s", calendar[1].AvailableHours)
}

func TestRouter_ScenariosAndHealth(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodGet, "/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	scenarios := decode[[]entities.Scenario](t, rec)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "S-BASE", scenarios[0].ID)

	rec = api.do(http.MethodGet, "/scenarios/S-BASE", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	api := newAPI(t)
	api.do(http.MethodGet, "/scenarios/S-BASE/calculation", nil)
	api.do(http.MethodGet, "/scenarios/S-BASE/calculation", nil)

	rec := api.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `capplan_calculator_cache_lookups_total{result="hit"} 1`), body)
	assert.Contains(t, body, `capplan_calculator_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, body, "capplan_calculator_duration_seconds_count 1")
}
