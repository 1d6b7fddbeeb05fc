package commands

import (
	"fmt"

	"github.com/wonny/dqbreaks/internal/aggregate"
	"github.com/wonny/dqbreaks/internal/records"
	"github.com/wonny/dqbreaks/pkg/config"
	"github.com/wonny/dqbreaks/pkg/database"
	"github.com/wonny/dqbreaks/pkg/logger"
	"github.com/wonny/dqbreaks/pkg/metrics"
)

// app holds the dependencies shared by every command
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	metrics    *metrics.Metrics
	db         *database.DB
	exec       *database.Executor
	aggregates *aggregate.Repository
	records    *records.Repository
}

// loadConfig loads configuration and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp loads config, opens the database and builds the repositories.
// lazy skips the startup ping.
func newApp(lazy bool) (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Metrics (nil records nothing)
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// 4. Connect to database
	open := database.New
	if lazy {
		open = database.Open
	}
	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 5. Query executor + repositories
	exec := database.NewExecutor(db.Pool, database.NewRetryPolicy(cfg), log, m)

	return &app{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		db:         db,
		exec:       exec,
		aggregates: aggregate.NewRepository(exec, cfg.Dashboard),
		records:    records.NewRepository(exec, cfg.Dashboard.MaxPageSize),
	}, nil
}

// Close releases the database pool
func (a *app) Close() {
	a.db.Close()
}

// disabledRedis returns a copy of cfg with Redis switched off
func disabledRedis(cfg *config.Config) *config.Config {
	c := *cfg
	c.Redis.Enabled = false
	return &c
}
