package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dqbreaks/internal/aggregate"
	"github.com/wonny/dqbreaks/internal/api/handlers"
	"github.com/wonny/dqbreaks/internal/charts"
	"github.com/wonny/dqbreaks/internal/contracts"
)

var (
	dashboardDays int
	dashboardView string
	dashboardJSON bool
	dashboardSQL  bool
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "대시보드 집계 조회",
	Long: `선택한 기간의 Global Health, 일별 시계열, Dimension/Business Unit
집계를 조회합니다.

Example:
  go run ./cmd/dqbreaks dashboard --days 7
  go run ./cmd/dqbreaks dashboard --days 7 --view table --json
  go run ./cmd/dqbreaks dashboard --sql`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().IntVar(&dashboardDays, "days", 0, "window in days (default DEFAULT_DASHBOARD_DAYS)")
	dashboardCmd.Flags().StringVar(&dashboardView, "view", "table", "ordering: chart or table")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "print JSON instead of tables")
	dashboardCmd.Flags().BoolVar(&dashboardSQL, "sql", false, "print the aggregate statements and exit (no database)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if dashboardSQL {
		printStatements(os.Stdout, aggregate.Statements())
		return nil
	}

	order, err := charts.ParseOrder(dashboardView)
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	days, err := windowDays(dashboardDays, a.cfg.Dashboard.DefaultDashboardDays, a.cfg.Dashboard.MaxWindowDays)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	d, err := a.aggregates.Dashboard(ctx, days)
	if err != nil {
		return fmt.Errorf("load dashboard: %w", err)
	}
	d = handlers.Ordered(d, order)

	if dashboardJSON {
		return PrintJSON(d)
	}

	PrintHeader("Data Quality Breaks", [][2]string{
		{"Days", strconv.Itoa(days)},
		{"Window", fmt.Sprintf("%s ~ %s", d.Window.From.Format("2006-01-02"), d.Window.To.Format("2006-01-02"))},
		{"Health", fmt.Sprintf("%s ~ %s", d.GlobalHealthWindow.From.Format("2006-01-02"), d.GlobalHealthWindow.To.Format("2006-01-02"))},
	})

	fmt.Println("\n📊 Global Health")
	rows := make([][]string, 0, len(d.GlobalHealth))
	for _, g := range d.GlobalHealth {
		rows = append(rows, []string{string(g.Status), strconv.FormatInt(g.Count, 10), fmt.Sprintf("%.1f%%", g.Ratio*100)})
	}
	PrintTable([]string{"STATUS", "COUNT", "RATIO"}, rows)
	breaks, ratio := breakTotals(d.GlobalHealth)
	fmt.Printf("  Breaks: %d (%.1f%%)\n", breaks, ratio*100)

	fmt.Println("\n📈 Time Series")
	rows = rows[:0]
	for _, p := range d.TimeSeries {
		rows = append(rows, []string{p.RunDate.Format("2006-01-02"), string(p.Status), strconv.FormatInt(p.Count, 10)})
	}
	PrintTable([]string{"DATE", "STATUS", "COUNT"}, rows)

	printBreakdowns("🧩 Dimensions", "DIMENSION", d.Dimensions)
	printBreakdowns("🏢 Business Units", "BUSINESS UNIT", d.BusinessUnits)

	fmt.Println()
	PrintSeparator()
	names := make([]string, 0, len(d.QueryTimings))
	for name := range d.QueryTimings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-15s %.3fs\n", name, d.QueryTimings[name])
	}
	return nil
}

func printBreakdowns(title, keyHeader string, rows []contracts.Breakdown) {
	fmt.Printf("\n%s\n", title)
	out := make([][]string, 0, len(rows))
	for _, b := range rows {
		out = append(out, []string{b.GroupKey, string(b.Status), strconv.FormatInt(b.Count, 10)})
	}
	PrintTable([]string{keyHeader, "STATUS", "COUNT"}, out)
}

// breakTotals sums the BREAKING and EXCEPTION rows
func breakTotals(rows []contracts.GlobalHealth) (int64, float64) {
	var (
		count int64
		ratio float64
	)
	for _, g := range rows {
		if g.Status.IsBreak() {
			count += g.Count
			ratio += g.Ratio
		}
	}
	return count, ratio
}

// printStatements writes each statement under its query name, sorted by name
func printStatements(w io.Writer, stmts map[string]string) {
	names := make([]string, 0, len(stmts))
	for name := range stmts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "-- %s\n%s;\n\n", name, strings.TrimSpace(stmts[name]))
	}
}
