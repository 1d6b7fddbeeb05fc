package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dqbreaks/internal/charts"
	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/pkg/database"
	"github.com/wonny/dqbreaks/pkg/logger"
)

func TestDashboardHealthDefaults(t *testing.T) {
	svc := &fakeDashboard{d: sampleDashboard()}
	h := NewDashboardHandler(svc, testCfg(), logger.Nop())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2}, svc.calls())

	body := decode[map[string]any](t, rec)
	for _, key := range []string{"window", "globalHealthWindow", "globalHealth", "timeSeries", "dimensions", "businessUnits", "queryTimings"} {
		assert.Contains(t, body, key)
	}

	// chart order: dates ascending, groups by total descending
	series := body["timeSeries"].([]any)
	assert.Equal(t, "2024-05-08", series[0].(map[string]any)["run_date"])
	dims := body["dimensions"].([]any)
	assert.Equal(t, "Completeness", dims[0].(map[string]any)["group_key"])
}

func TestDashboardHealthTableView(t *testing.T) {
	svc := &fakeDashboard{d: sampleDashboard()}
	h := NewDashboardHandler(svc, testCfg(), logger.Nop())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/health?days=7&view=table", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{7}, svc.calls())

	body := decode[map[string]any](t, rec)
	series := body["timeSeries"].([]any)
	assert.Equal(t, "2024-05-09", series[0].(map[string]any)["run_date"])
	dims := body["dimensions"].([]any)
	assert.Equal(t, "Completeness", dims[0].(map[string]any)["group_key"])
	assert.Equal(t, "Validity", dims[1].(map[string]any)["group_key"])
}

func TestDashboardHealthValidation(t *testing.T) {
	for _, q := range []string{"days=abc", "days=-2", "view=pie"} {
		t.Run(q, func(t *testing.T) {
			svc := &fakeDashboard{d: sampleDashboard()}
			rec := httptest.NewRecorder()
			NewDashboardHandler(svc, testCfg(), logger.Nop()).
				Health(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/health?"+q, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.calls())
		})
	}
}

func TestDashboardHealthConnectivity(t *testing.T) {
	svc := &fakeDashboard{err: &database.ConnectivityError{Name: "timeSeries", Attempts: 2, Err: errors.New("timeout")}}
	rec := httptest.NewRecorder()
	NewDashboardHandler(svc, testCfg(), logger.Nop()).
		Health(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 2, decode[ErrorResponse](t, rec).Attempts)
}

func TestDashboardCharts(t *testing.T) {
	svc := &fakeDashboard{d: sampleDashboard()}
	rec := httptest.NewRecorder()
	NewDashboardHandler(svc, testCfg(), logger.Nop()).
		Charts(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/charts?view=table", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	set := decode[charts.Set](t, rec)
	assert.Equal(t, charts.OrderTable, set.Order)
	require.Len(t, set.Health, 3)
	assert.Equal(t, "#4caf50", set.Health[0].Color)
	require.Len(t, set.TimeSeries, 1)
	assert.Equal(t, "5/9/2024", set.TimeSeries[0].Points[0].Label)
	require.Len(t, set.Dimensions, 2)
	assert.Equal(t, "Completeness", set.Dimensions[0].Key)
}

func chartRequest(kind, format string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/"+kind+"."+format, nil)
	return mux.SetURLVars(req, map[string]string{"kind": kind, "format": format})
}

func TestDashboardChartImage(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboard{d: sampleDashboard()}, testCfg(), logger.Nop())

	rec := httptest.NewRecorder()
	h.ChartImage(rec, chartRequest("health", "svg"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = httptest.NewRecorder()
	h.ChartImage(rec, chartRequest("business-units", "png"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestDashboardChartImageEmptyDashboard(t *testing.T) {
	empty := &contracts.Dashboard{GlobalHealth: []contracts.GlobalHealth{}}
	rec := httptest.NewRecorder()
	NewDashboardHandler(&fakeDashboard{d: empty}, testCfg(), logger.Nop()).
		ChartImage(rec, chartRequest("timeseries", "svg"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data")
}

func TestDashboardChartImageValidation(t *testing.T) {
	svc := &fakeDashboard{d: sampleDashboard()}
	h := NewDashboardHandler(svc, testCfg(), logger.Nop())

	rec := httptest.NewRecorder()
	h.ChartImage(rec, chartRequest("radar", "svg"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ChartImage(rec, chartRequest("health", "gif"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, svc.calls())
}
