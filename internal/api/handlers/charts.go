package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/dqbreaks/internal/charts"
)

// Charts returns chart-ready series for every dashboard chart
// GET /api/dashboard/charts?days=2&view=chart
func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	order, err := charts.ParseOrder(r.URL.Query().Get("view"))
	if err != nil {
		respondErr(w, r, h.logger, "Invalid chart request", &ParamError{Param: "view", Reason: err.Error()})
		return
	}

	d, ok := h.load(w, r)
	if !ok {
		return
	}

	RespondJSON(w, http.StatusOK, charts.Build(d, order))
}

// ChartImage renders one chart as SVG or PNG
// GET /api/dashboard/charts/{kind}.{format}?days=2
func (h *DashboardHandler) ChartImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, err := charts.ParseKind(vars["kind"])
	if err != nil {
		respondErr(w, r, h.logger, "Invalid chart request", &ParamError{Param: "kind", Reason: err.Error()})
		return
	}
	format, err := charts.ParseFormat(vars["format"])
	if err != nil {
		respondErr(w, r, h.logger, "Invalid chart request", &ParamError{Param: "format", Reason: err.Error()})
		return
	}

	d, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, kind, d, format); err != nil {
		respondErr(w, r, h.logger, "Failed to render chart", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
