package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/internal/records"
	"github.com/wonny/dqbreaks/pkg/config"
	"github.com/wonny/dqbreaks/pkg/logger"
)

// RecordsService lists datasets and pages their breaks
type RecordsService interface {
	ListDatasets(ctx context.Context, w contracts.Window) ([]contracts.DatasetRun, error)
	ParseDataset(ctx context.Context, req records.PageRequest) (*contracts.RecordPage, error)
}

// DatasetsHandler handles dataset listing and record pages
// ⭐ SSOT: 데이터셋 API 핸들러는 이 구조체에서만
type DatasetsHandler struct {
	svc    RecordsService
	cfg    config.DashboardConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewDatasetsHandler creates a new datasets handler
func NewDatasetsHandler(svc RecordsService, cfg config.DashboardConfig, log *logger.Logger) *DatasetsHandler {
	return &DatasetsHandler{svc: svc, cfg: cfg, logger: log, now: time.Now}
}

// List returns the latest breaking run of every dataset in the window
// GET /api/datasets?days=1&distinct=false
func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	days, err := ParseDays(r.URL.Query().Get("days"), h.cfg.DefaultDatasetDays, h.cfg.MaxWindowDays)
	if err != nil {
		respondErr(w, r, h.logger, "Invalid datasets request", err)
		return
	}
	distinct, err := parseBool(r, "distinct")
	if err != nil {
		respondErr(w, r, h.logger, "Invalid datasets request", err)
		return
	}

	runs, err := h.svc.ListDatasets(r.Context(), contracts.NewWindow(days, h.now()))
	if err != nil {
		respondErr(w, r, h.logger, "Failed to list datasets", err)
		return
	}

	if distinct {
		RespondJSON(w, http.StatusOK, records.DistinctDatasets(runs))
		return
	}
	RespondJSON(w, http.StatusOK, runs)
}

// Parse returns one page of flattened break records
// GET /api/datasets/parse?dataset=X&page=1&pageSize=100&days=1
func (h *DatasetsHandler) Parse(w http.ResponseWriter, r *http.Request) {
	req, err := h.pageRequest(r)
	if err != nil {
		respondErr(w, r, h.logger, "Invalid parse request", err)
		return
	}

	page, err := h.svc.ParseDataset(r.Context(), req)
	if err != nil {
		respondErr(w, r, h.logger, "Failed to parse dataset", err)
		return
	}

	RespondJSON(w, http.StatusOK, page)
}

func (h *DatasetsHandler) pageRequest(r *http.Request) (records.PageRequest, error) {
	q := r.URL.Query()

	dataset := q.Get("dataset")
	if dataset == "" {
		return records.PageRequest{}, records.ErrDatasetRequired
	}
	days, err := ParseDays(q.Get("days"), h.cfg.DefaultDatasetDays, h.cfg.MaxWindowDays)
	if err != nil {
		return records.PageRequest{}, err
	}
	page, err := parsePositive(r, "page", 1)
	if err != nil {
		return records.PageRequest{}, err
	}
	pageSize, err := parsePositive(r, "pageSize", h.cfg.DefaultPageSize)
	if err != nil {
		return records.PageRequest{}, err
	}

	return records.PageRequest{
		Dataset:  dataset,
		Window:   contracts.NewWindow(days, h.now()),
		Page:     page,
		PageSize: pageSize,
	}, nil
}
