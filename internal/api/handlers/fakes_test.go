package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/internal/records"
	"github.com/wonny/dqbreaks/pkg/config"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func testCfg() config.DashboardConfig {
	return config.DashboardConfig{
		DefaultDatasetDays:   1,
		DefaultDashboardDays: 2,
		MaxWindowDays:        365,
		DefaultPageSize:      100,
		MaxPageSize:          1000,
	}
}

type fakeRecords struct {
	mu      sync.Mutex
	runs    []contracts.DatasetRun
	page    *contracts.RecordPage
	err     error
	windows []contracts.Window
	reqs    []records.PageRequest
}

func (f *fakeRecords) ListDatasets(ctx context.Context, w contracts.Window) ([]contracts.DatasetRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, w)
	if f.err != nil {
		return nil, f.err
	}
	return f.runs, nil
}

func (f *fakeRecords) ParseDataset(ctx context.Context, req records.PageRequest) (*contracts.RecordPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeDashboard struct {
	mu    sync.Mutex
	d     *contracts.Dashboard
	err   error
	days  []int
	block chan struct{} // when set, Dashboard waits for it
}

func (f *fakeDashboard) Dashboard(ctx context.Context, days int) (*contracts.Dashboard, error) {
	f.mu.Lock()
	f.days = append(f.days, days)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.d, nil
}

func (f *fakeDashboard) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.days...)
}

func sampleDashboard() *contracts.Dashboard {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return &contracts.Dashboard{
		Window:             contracts.NewWindow(2, fixedNow),
		GlobalHealthWindow: contracts.NewWindow(30, fixedNow),
		GlobalHealth: []contracts.GlobalHealth{
			{Status: contracts.StatusPassing, Count: 2, Ratio: 0.5},
			{Status: contracts.StatusBreaking, Count: 1, Ratio: 0.25},
			{Status: contracts.StatusException, Count: 1, Ratio: 0.25},
		},
		TimeSeries: []contracts.TimeSeriesPoint{
			{Status: contracts.StatusPassing, Count: 1, RunDate: day("2024-05-08")},
			{Status: contracts.StatusPassing, Count: 1, RunDate: day("2024-05-09")},
		},
		Dimensions: []contracts.Breakdown{
			{GroupKey: "Validity", Status: contracts.StatusPassing, Count: 1},
			{GroupKey: "Completeness", Status: contracts.StatusBreaking, Count: 3},
		},
		BusinessUnits: []contracts.Breakdown{
			{GroupKey: "Finance", Status: contracts.StatusException, Count: 1},
		},
		QueryTimings: map[string]float64{"globalHealth": 0.01},
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
