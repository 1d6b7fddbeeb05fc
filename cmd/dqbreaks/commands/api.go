package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dqbreaks/internal/api"
	"github.com/wonny/dqbreaks/internal/api/handlers"
	"github.com/wonny/dqbreaks/internal/diagnostics"
	"github.com/wonny/dqbreaks/pkg/httputil"
	"github.com/wonny/dqbreaks/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST + websocket API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작 (gorilla/mux)
- DB 연결 프로브 스케줄 (DB_PROBE_SCHEDULE)
- Redis 기반 클라이언트별 레이트 리밋 (REDIS_ENABLED)

Endpoints:
  GET /                                  - Liveness (plain text)
  GET /api/test                          - Liveness (JSON)
  GET /api/health                        - DB ping, pool stats, probe stats
  GET /api/datasets                      - Datasets with breaks (days, distinct)
  GET /api/datasets/parse                - Flattened break records (dataset, page, pageSize, days)
  GET /api/dashboard/health              - Dashboard aggregates (days, view)
  GET /api/dashboard/charts              - Chart series (days, view)
  GET /api/dashboard/charts/{kind}.{fmt} - Chart image (svg|png)
  GET /api/schema                        - Source table columns
  GET /api/ip                            - Host and client addresses
  GET /api/live                          - Websocket live session
  GET /metrics                           - Prometheus metrics

Example:
  go run ./cmd/dqbreaks api
  go run ./cmd/dqbreaks api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dqbreaks API Server ===")

	// 1-5. Config, logger, metrics, database, repositories
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, log := a.cfg, a.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":               cfg.Port,
		"env":                cfg.Env,
		"search_path":        cfg.Database.SearchPath,
		"global_health_mode": cfg.Dashboard.GlobalHealthMode,
	}).Info("Initializing API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := a.db.Ping(ctx); err != nil {
		log.WithError(err).Warn("Database not reachable at startup; requests will report 503 until it is")
	} else {
		log.Info("Connected to database")
	}
	cancel()

	// 6. Redis rate limiter (optional)
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, per-client rate limit disabled")
		rdb, _ = redis.New(disabledRedis(cfg))
	}
	defer rdb.Close()

	var limiter *redis.RateLimiter
	if rdb.Enabled() {
		limiter = redis.NewRateLimiter(rdb, "dqbreaks")
	}

	// 7. Scheduler: connectivity probe
	sched, err := newScheduler(a)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 8. Diagnostics
	httpClient := httputil.NewWithTimeout(log, 5*time.Second)
	resolver := diagnostics.NewResolver(httpClient, log)
	schema := diagnostics.NewSchemaInspector(a.exec)

	// 9. Handlers + router
	h := api.Handlers{
		Datasets:  handlers.NewDatasetsHandler(a.records, cfg.Dashboard, log),
		Dashboard: handlers.NewDashboardHandler(a.aggregates, cfg.Dashboard, log),
		Diag:      handlers.NewDiagHandler(a.db, rdb, schema, resolver, sched, log),
		Live:      handlers.NewLiveHandler(a.aggregates, a.records, cfg.Dashboard, cfg.CORSAllowedOrigins, a.metrics, log),
	}
	router := api.NewRouter(h, api.RouterOptions{
		Config:      cfg,
		Logger:      log,
		Metrics:     a.metrics,
		RateLimiter: limiter,
	})

	// 10. Create server
	server := api.New(cfg, log, router)

	// 11. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	ipCtx, ipCancel := context.WithTimeout(context.Background(), 5*time.Second)
	externalIP := resolver.ExternalIP(ipCtx)
	ipCancel()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Printf("   External IP: %s\n", externalIP)
	fmt.Println("\nAvailable endpoints:")
	fmt.Printf("  GET  http://127.0.0.1:%s/api/datasets\n", cfg.Port)
	fmt.Printf("  GET  http://127.0.0.1:%s/api/dashboard/health\n", cfg.Port)
	fmt.Printf("  GET  http://127.0.0.1:%s/api/test\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
