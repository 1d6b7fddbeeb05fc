package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dqbreaks/pkg/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func probeGauge(value string) *strings.Reader {
	return strings.NewReader(`
# HELP dqbreaks_db_probe_up 1 when the last scheduled database probe succeeded.
# TYPE dqbreaks_db_probe_up gauge
dqbreaks_db_probe_up ` + value + `
`)
}

func TestDBProbeJob(t *testing.T) {
	m := metrics.New()
	var down bool
	job := NewDBProbeJob(pingerFunc(func(ctx context.Context) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	}), "*/30 * * * * *", m, nil)

	assert.Equal(t, "db_probe", job.Name())
	assert.Equal(t, "*/30 * * * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), probeGauge("1"), "dqbreaks_db_probe_up"))

	down = true
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), probeGauge("0"), "dqbreaks_db_probe_up"))
}

func TestDBProbeJobWithoutMetrics(t *testing.T) {
	job := NewDBProbeJob(pingerFunc(func(ctx context.Context) error { return nil }), "@every 1m", nil, nil)
	assert.NoError(t, job.Run(context.Background()))
}
