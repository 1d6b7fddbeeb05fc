package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/dqbreaks/internal/api/handlers"
	"github.com/wonny/dqbreaks/pkg/config"
	"github.com/wonny/dqbreaks/pkg/logger"
	"github.com/wonny/dqbreaks/pkg/metrics"
	"github.com/wonny/dqbreaks/pkg/redis"
)

// Handlers groups the endpoint handlers
type Handlers struct {
	Datasets  *handlers.DatasetsHandler
	Dashboard *handlers.DashboardHandler
	Diag      *handlers.DiagHandler
	Live      *handlers.LiveHandler
}

// RouterOptions carries the cross-cutting dependencies. Metrics and
// RateLimiter may be nil.
type RouterOptions struct {
	Config      *config.Config
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	RateLimiter *redis.RateLimiter
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	cfg, log := opts.Config, opts.Logger
	r := mux.NewRouter()

	r.HandleFunc("/", h.Diag.Root).Methods(http.MethodGet)
	if cfg.MetricsEnabled && opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	var bucket *rate.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		bucket = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}
	limited := rateLimitMiddleware(bucket, opts.RateLimiter, cfg.RateLimit.PerMinute, log)

	// /api routes stay on the root router: a PathPrefix subrouter turns
	// method mismatches into 404s
	api := func(path string, handler http.Handler) {
		r.Handle("/api"+path, limited(handler)).Methods(http.MethodGet)
	}

	// health stays outside the rate limit
	r.HandleFunc("/api/health", h.Diag.Health).Methods(http.MethodGet)

	api("/test", http.HandlerFunc(h.Diag.Test))
	api("/ip", http.HandlerFunc(h.Diag.IP))
	api("/schema", http.HandlerFunc(h.Diag.Schema))

	// Datasets
	api("/datasets", http.HandlerFunc(h.Datasets.List))
	api("/datasets/parse", http.HandlerFunc(h.Datasets.Parse))

	// Dashboard
	api("/dashboard/health", http.HandlerFunc(h.Dashboard.Health))
	api("/dashboard/charts", http.HandlerFunc(h.Dashboard.Charts))
	api("/dashboard/charts/{kind:[a-z-]+}.{format:[a-z]+}", http.HandlerFunc(h.Dashboard.ChartImage))

	// Live session
	api("/live", h.Live)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handlers.RespondError(w, http.StatusNotFound, handlers.ErrTypeNotFound, "Not found: "+req.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handlers.RespondError(w, http.StatusMethodNotAllowed, handlers.ErrTypeMethod, "Method not allowed: "+req.Method+" "+req.URL.Path)
	})

	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))
	r.Use(metricsMiddleware(opts.Metrics))

	return corsMiddleware(cfg.CORSAllowedOrigins)(r)
}
