package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dqbreaks/internal/charts"
	"github.com/wonny/dqbreaks/internal/contracts"
)

var (
	chartKind   string
	chartFormat string
	chartDays   int
	chartOut    string
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "대시보드 차트 이미지 생성",
	Long: `대시보드 집계로 차트를 렌더링해서 파일로 저장합니다.
--kind all 이면 health, timeseries, dimensions, business-units 를 모두 생성합니다.

Example:
  go run ./cmd/dqbreaks chart --kind health --format png --out ./out
  go run ./cmd/dqbreaks chart --kind all --days 30`,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chartKind, "kind", "all", "health, timeseries, dimensions, business-units or all")
	chartCmd.Flags().StringVar(&chartFormat, "format", "svg", "svg or png")
	chartCmd.Flags().IntVar(&chartDays, "days", 0, "window in days (default DEFAULT_DASHBOARD_DAYS)")
	chartCmd.Flags().StringVar(&chartOut, "out", ".", "output directory")
}

func runChart(cmd *cobra.Command, args []string) error {
	format, err := charts.ParseFormat(chartFormat)
	if err != nil {
		return err
	}
	kinds := charts.Kinds
	if chartKind != "all" {
		k, err := charts.ParseKind(chartKind)
		if err != nil {
			return err
		}
		kinds = []charts.Kind{k}
	}
	if err := os.MkdirAll(chartOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	days, err := windowDays(chartDays, a.cfg.Dashboard.DefaultDashboardDays, a.cfg.Dashboard.MaxWindowDays)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	d, err := a.aggregates.Dashboard(ctx, days)
	if err != nil {
		return fmt.Errorf("load dashboard: %w", err)
	}

	for _, k := range kinds {
		path := filepath.Join(chartOut, fmt.Sprintf("%s.%s", k, format))
		if err := writeChart(path, k, d, format); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("%s → %s", k, path))
	}
	return nil
}

func writeChart(path string, k charts.Kind, d *contracts.Dashboard, f charts.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := charts.Render(w, k, d, f); err != nil {
		return fmt.Errorf("render %s: %w", k, err)
	}
	return w.Flush()
}
