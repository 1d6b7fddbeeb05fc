package aggregate

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/pkg/config"
	"github.com/wonny/dqbreaks/pkg/database"
)

// Repository runs the aggregate queries over the classified base relation
// ⭐ SSOT: 대시보드 집계 쿼리는 여기서만 실행
type Repository struct {
	exec *database.Executor
	cfg  config.DashboardConfig
	now  func() time.Time
}

// NewRepository creates a new aggregate repository
func NewRepository(exec *database.Executor, cfg config.DashboardConfig) *Repository {
	return &Repository{exec: exec, cfg: cfg, now: time.Now}
}

// WithClock overrides the request clock
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// GlobalHealthWindow picks the window global health is computed over.
// In baseline mode it is a fixed trailing lookback anchored at the reference
// date (or now); in window mode it is w itself.
func (r *Repository) GlobalHealthWindow(w contracts.Window, now time.Time) contracts.Window {
	if r.cfg.GlobalHealthMode == config.GlobalHealthWindow {
		return w
	}

	ref := now
	if !r.cfg.GlobalHealthReference.IsZero() {
		ref = r.cfg.GlobalHealthReference
	}

	lookback := r.cfg.GlobalHealthLookbackDays
	if lookback < 1 {
		lookback = 30
	}
	return contracts.NewWindow(lookback, ref)
}

// GlobalHealth returns count and ratio per status for w
func (r *Repository) GlobalHealth(ctx context.Context, w contracts.Window) ([]contracts.GlobalHealth, error) {
	counts, err := database.Collect(ctx, r.exec, QueryGlobalHealth, globalHealthSQL, windowArgs(w),
		func(row pgx.CollectableRow) (contracts.StatusCount, error) {
			var c contracts.StatusCount
			err := row.Scan(&c.Status, &c.Count)
			return c, err
		})
	if err != nil {
		return nil, err
	}

	return HealthFromCounts(counts), nil
}

// TimeSeries returns counts per (status, run date), unordered
func (r *Repository) TimeSeries(ctx context.Context, w contracts.Window) ([]contracts.TimeSeriesPoint, error) {
	return database.Collect(ctx, r.exec, QueryTimeSeries, timeSeriesSQL, windowArgs(w),
		func(row pgx.CollectableRow) (contracts.TimeSeriesPoint, error) {
			var p contracts.TimeSeriesPoint
			err := row.Scan(&p.Status, &p.Count, &p.RunDate)
			return p, err
		})
}

// Dimensions returns counts per (dimension, status), unordered
func (r *Repository) Dimensions(ctx context.Context, w contracts.Window) ([]contracts.Breakdown, error) {
	return database.Collect(ctx, r.exec, QueryDimensions, dimensionsSQL, windowArgs(w), scanBreakdown)
}

// BusinessUnits returns counts per (business unit, status), unordered.
// Datasets without a business unit mapping are excluded.
func (r *Repository) BusinessUnits(ctx context.Context, w contracts.Window) ([]contracts.Breakdown, error) {
	rows, err := database.Collect(ctx, r.exec, QueryBusinessUnits, businessUnitsSQL, windowArgs(w), scanBreakdown)
	if err != nil {
		return nil, err
	}
	return dropUnmapped(rows), nil
}

func scanBreakdown(row pgx.CollectableRow) (contracts.Breakdown, error) {
	var (
		b   contracts.Breakdown
		key *string
	)
	err := row.Scan(&key, &b.Status, &b.Count)
	if key != nil {
		b.GroupKey = *key
	}
	return b, err
}

// Dashboard runs the four aggregates in parallel over one window computed
// once for the whole fetch. It returns only when all four resolve; the
// first failure cancels the rest.
func (r *Repository) Dashboard(ctx context.Context, days int) (*contracts.Dashboard, error) {
	now := r.now()
	w := contracts.NewWindow(days, now)
	hw := r.GlobalHealthWindow(w, now)

	var (
		health        []contracts.GlobalHealth
		series        []contracts.TimeSeriesPoint
		dimensions    []contracts.Breakdown
		businessUnits []contracts.Breakdown
		timings       [4]time.Duration
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		defer func() { timings[0] = time.Since(start) }()
		var err error
		health, err = r.GlobalHealth(gctx, hw)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { timings[1] = time.Since(start) }()
		var err error
		series, err = r.TimeSeries(gctx, w)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { timings[2] = time.Since(start) }()
		var err error
		dimensions, err = r.Dimensions(gctx, w)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		defer func() { timings[3] = time.Since(start) }()
		var err error
		businessUnits, err = r.BusinessUnits(gctx, w)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &contracts.Dashboard{
		Window:             w,
		GlobalHealthWindow: hw,
		GlobalHealth:       health,
		TimeSeries:         series,
		Dimensions:         dimensions,
		BusinessUnits:      businessUnits,
		QueryTimings: map[string]float64{
			QueryGlobalHealth:  timings[0].Seconds(),
			QueryTimeSeries:    timings[1].Seconds(),
			QueryDimensions:    timings[2].Seconds(),
			QueryBusinessUnits: timings[3].Seconds(),
		},
	}, nil
}
