package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/dqbreaks/pkg/logger"
	"github.com/wonny/dqbreaks/pkg/metrics"
)

// Pinger is anything with a connectivity check
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBProbeJob pings the database and publishes the result as the
// db_probe_up gauge
type DBProbeJob struct {
	db       Pinger
	schedule string
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewDBProbeJob creates a new probe job
func NewDBProbeJob(db Pinger, schedule string, m *metrics.Metrics, log *logger.Logger) *DBProbeJob {
	if log == nil {
		log = logger.Nop()
	}
	return &DBProbeJob{db: db, schedule: schedule, metrics: m, logger: log}
}

// Name returns the job name
func (j *DBProbeJob) Name() string {
	return "db_probe"
}

// Schedule returns the cron schedule
func (j *DBProbeJob) Schedule() string {
	return j.schedule
}

// Run pings the database once
func (j *DBProbeJob) Run(ctx context.Context) error {
	if err := j.db.Ping(ctx); err != nil {
		j.metrics.SetProbeUp(false)
		j.logger.WithError(err).Warn("Database probe failed")
		return fmt.Errorf("database probe: %w", err)
	}

	j.metrics.SetProbeUp(true)
	return nil
}
