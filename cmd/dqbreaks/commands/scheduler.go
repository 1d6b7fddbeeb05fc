package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dqbreaks/internal/scheduler"
	"github.com/wonny/dqbreaks/internal/scheduler/jobs"
)

var schedulerRuns int

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄 작업 관리",
	Long: `api 서버가 등록하는 스케줄 작업을 조회하거나 즉시 실행합니다.

Subcommands:
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (재시도 포함)

Example:
  go run ./cmd/dqbreaks scheduler list
  go run ./cmd/dqbreaks scheduler run db_probe --times 3`,
}

var (
	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerRunCmd.Flags().IntVar(&schedulerRuns, "times", 1, "number of consecutive runs")
}

// newScheduler registers every scheduled job of the api server
// ⭐ SSOT: 스케줄 작업 등록은 여기서만
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewDBProbeJob(a.db, a.cfg.ProbeSchedule, a.metrics, a.log)); err != nil {
		return nil, fmt.Errorf("schedule db probe: %w", err)
	}
	return sched, nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}

	stats := sched.Stats()
	rows := make([][]string, 0, len(stats))
	for _, name := range sched.Jobs() {
		rows = append(rows, []string{name, stats[name].Schedule})
	}
	PrintTable([]string{"JOB", "SCHEDULE"}, rows)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	if schedulerRuns < 1 {
		return fmt.Errorf("--times must be at least 1, got %d", schedulerRuns)
	}
	name := args[0]

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(schedulerRuns)*time.Minute)
	defer cancel()

	fmt.Printf("Running job: %s (x%d)\n\n", name, schedulerRuns)
	for i := 0; i < schedulerRuns; i++ {
		if _, err := sched.RunNow(ctx, name); err != nil {
			return fmt.Errorf("run job: %w", err)
		}
	}

	history, err := sched.History(name)
	if err != nil {
		return err
	}
	results := history.Latest(schedulerRuns)
	printResults(os.Stdout, results)

	if last := results[len(results)-1]; !last.Success {
		return fmt.Errorf("job %s failed: %s", name, last.Error)
	}
	PrintSuccess(fmt.Sprintf("%s succeeded", name))
	return nil
}

// printResults writes one line per run, oldest first
func printResults(out io.Writer, results []scheduler.JobResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tDURATION\tATTEMPTS\tRESULT\tERROR")
	for _, r := range results {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.StartTime.Format("2006-01-02 15:04:05"),
			r.Duration.Round(time.Millisecond),
			strconv.Itoa(r.Attempts),
			result,
			r.Error,
		)
	}
	_ = w.Flush()
}
