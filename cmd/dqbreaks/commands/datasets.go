package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/internal/records"
)

var (
	datasetsDays     int
	datasetsDistinct bool
	datasetsJSON     bool

	parseDataset  string
	parsePage     int
	parsePageSize int
)

// datasetsCmd represents the datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "BREAKING 데이터셋 목록 조회",
	Long: `기간 내 BREAKING 상태의 데이터셋별 최신 실행을 조회합니다.

Example:
  go run ./cmd/dqbreaks datasets --days 3
  go run ./cmd/dqbreaks datasets --distinct`,
	RunE: runDatasets,
}

// parseCmd represents the datasets parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "데이터셋 break 레코드 조회 (페이지 단위)",
	Long: `데이터셋의 break 레코드를 헤더 컬럼 기준으로 펼쳐서 한 페이지씩 조회합니다.

Example:
  go run ./cmd/dqbreaks datasets parse --dataset orders --page 2 --page-size 50`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(parseCmd)

	datasetsCmd.PersistentFlags().IntVar(&datasetsDays, "days", 0, "window in days (default DEFAULT_DATASET_DAYS)")
	datasetsCmd.PersistentFlags().BoolVar(&datasetsJSON, "json", false, "print JSON instead of tables")
	datasetsCmd.Flags().BoolVar(&datasetsDistinct, "distinct", false, "print unique dataset names only")

	parseCmd.Flags().StringVar(&parseDataset, "dataset", "", "dataset name (required)")
	parseCmd.Flags().IntVar(&parsePage, "page", 1, "page number (1-based)")
	parseCmd.Flags().IntVar(&parsePageSize, "page-size", 0, "rows per page (default DEFAULT_PAGE_SIZE)")
	_ = parseCmd.MarkFlagRequired("dataset")
}

func runDatasets(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	days, err := windowDays(datasetsDays, a.cfg.Dashboard.DefaultDatasetDays, a.cfg.Dashboard.MaxWindowDays)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	runs, err := a.records.ListDatasets(ctx, contracts.NewWindow(days, time.Now()))
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	if datasetsDistinct {
		names := records.DistinctDatasets(runs)
		if datasetsJSON {
			return PrintJSON(names)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	if datasetsJSON {
		return PrintJSON(runs)
	}
	if len(runs) == 0 {
		PrintInfo(fmt.Sprintf("No breaking datasets in the last %d day(s)", days))
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{r.Dataset, r.RunID.Format("2006-01-02 15:04:05"), r.LinkID})
	}
	PrintTable([]string{"DATASET", "RUN ID", "LINK ID"}, rows)
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg.Dashboard
	days, err := windowDays(datasetsDays, cfg.DefaultDatasetDays, cfg.MaxWindowDays)
	if err != nil {
		return err
	}
	size := parsePageSize
	if size == 0 {
		size = cfg.DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	page, err := a.records.ParseDataset(ctx, records.PageRequest{
		Dataset:  parseDataset,
		Window:   contracts.NewWindow(days, time.Now()),
		Page:     parsePage,
		PageSize: size,
	})
	if err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}

	if datasetsJSON {
		return PrintJSON(page)
	}

	p := page.Pagination
	PrintHeader(parseDataset, [][2]string{
		{"Page", fmt.Sprintf("%d / %d", p.Page, p.TotalPages)},
		{"Rows", fmt.Sprintf("%d of %d", len(page.Rows), p.TotalCount)},
	})

	table := make([][]string, 0, len(page.Rows))
	for _, rec := range page.Rows {
		line := make([]string, len(page.Columns))
		for i, c := range page.Columns {
			line[i] = rec[c]
		}
		table = append(table, line)
	}
	PrintTable(page.Columns, table)
	return nil
}
