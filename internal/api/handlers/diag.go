package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/dqbreaks/internal/diagnostics"
	"github.com/wonny/dqbreaks/internal/scheduler"
	"github.com/wonny/dqbreaks/pkg/database"
	"github.com/wonny/dqbreaks/pkg/logger"
)

const healthTimeout = 5 * time.Second

// HealthChecker reports database connectivity and pool state
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// RedisPinger reports the rate limiter backend
type RedisPinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// SchemaService reads source table columns
type SchemaService interface {
	Columns(ctx context.Context) (map[string][]diagnostics.Column, error)
}

// NetInspector describes host and caller addresses
type NetInspector interface {
	Inspect(ctx context.Context, r *http.Request) diagnostics.NetInfo
}

// JobStats reports scheduled job statistics
type JobStats interface {
	Stats() map[string]scheduler.JobStats
}

// DiagHandler serves liveness and diagnostics endpoints
type DiagHandler struct {
	db     HealthChecker
	redis  RedisPinger
	schema SchemaService
	net    NetInspector
	jobs   JobStats
	logger *logger.Logger
}

// NewDiagHandler creates a new diagnostics handler. redis and jobs may be nil.
func NewDiagHandler(db HealthChecker, redis RedisPinger, schema SchemaService, net NetInspector, jobs JobStats, log *logger.Logger) *DiagHandler {
	return &DiagHandler{db: db, redis: redis, schema: schema, net: net, jobs: jobs, logger: log}
}

// HealthResponse is the /api/health payload
type HealthResponse struct {
	Status   string                        `json:"status"`
	Service  string                        `json:"service"`
	Database *database.HealthStatus        `json:"database"`
	Redis    string                        `json:"redis"`
	Jobs     map[string]scheduler.JobStats `json:"jobs,omitempty"`
}

// Root is a plain text liveness check
// GET /
func (h *DiagHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("dqbreaks server is running"))
}

// Test returns a fixed JSON payload
// GET /api/test
func (h *DiagHandler) Test(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "dqbreaks server is running",
	})
}

// Health pings the database. 503 when it is unreachable.
// GET /api/health
func (h *DiagHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Service: "dqbreaks", Redis: h.redisStatus(ctx)}
	if h.jobs != nil {
		resp.Jobs = h.jobs.Stats()
	}

	status, err := h.db.HealthCheck(ctx)
	resp.Database = status
	if err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		resp.Status = "unavailable"
		if resp.Database == nil {
			resp.Database = &database.HealthStatus{Timestamp: time.Now(), Error: err.Error()}
		}
		RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	RespondJSON(w, http.StatusOK, resp)
}

// redisStatus is informational only: the rate limiter fails open
func (h *DiagHandler) redisStatus(ctx context.Context) string {
	if h.redis == nil || !h.redis.Enabled() {
		return "disabled"
	}
	if err := h.redis.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

// IP reports hostname, local, external and client addresses
// GET /api/ip
func (h *DiagHandler) IP(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.net.Inspect(r.Context(), r))
}

// Schema returns the columns of the source tables
// GET /api/schema
func (h *DiagHandler) Schema(w http.ResponseWriter, r *http.Request) {
	cols, err := h.schema.Columns(r.Context())
	if err != nil {
		respondErr(w, r, h.logger, "Failed to read schema", err)
		return
	}
	RespondJSON(w, http.StatusOK, cols)
}
