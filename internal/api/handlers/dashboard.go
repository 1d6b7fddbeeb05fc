package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/dqbreaks/internal/charts"
	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/pkg/config"
	"github.com/wonny/dqbreaks/pkg/logger"
)

// DashboardService computes the four aggregates of one window
type DashboardService interface {
	Dashboard(ctx context.Context, days int) (*contracts.Dashboard, error)
}

// DashboardHandler serves dashboard aggregates as JSON and charts
type DashboardHandler struct {
	svc    DashboardService
	cfg    config.DashboardConfig
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc DashboardService, cfg config.DashboardConfig, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, cfg: cfg, logger: log}
}

// Health returns the dashboard aggregates ordered for view
// GET /api/dashboard/health?days=2&view=chart
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	order, err := charts.ParseOrder(r.URL.Query().Get("view"))
	if err != nil {
		respondErr(w, r, h.logger, "Invalid dashboard request", &ParamError{Param: "view", Reason: err.Error()})
		return
	}

	d, ok := h.load(w, r)
	if !ok {
		return
	}

	RespondJSON(w, http.StatusOK, Ordered(d, order))
}

// load parses days and fetches the dashboard, writing the error response
// on failure
func (h *DashboardHandler) load(w http.ResponseWriter, r *http.Request) (*contracts.Dashboard, bool) {
	days, err := ParseDays(r.URL.Query().Get("days"), h.cfg.DefaultDashboardDays, h.cfg.MaxWindowDays)
	if err != nil {
		respondErr(w, r, h.logger, "Invalid dashboard request", err)
		return nil, false
	}

	d, err := h.svc.Dashboard(r.Context(), days)
	if err != nil {
		respondErr(w, r, h.logger, "Failed to load dashboard", err)
		return nil, false
	}
	return d, true
}

// Ordered returns a copy of d with its series sorted for o
func Ordered(d *contracts.Dashboard, o charts.Order) *contracts.Dashboard {
	out := *d
	out.TimeSeries = charts.SortTimeSeries(d.TimeSeries, o)
	out.Dimensions = charts.SortBreakdowns(d.Dimensions, o)
	out.BusinessUnits = charts.SortBreakdowns(d.BusinessUnits, o)
	return &out
}
