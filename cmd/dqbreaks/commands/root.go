package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dqbreaks",
	Short: "Data quality breaks dashboard backend",
	Long: `dqbreaks serves read-only views over data-quality rule results
(dataset_scan / rule_breaks / owl_catalog) stored in PostgreSQL.

Usage:
  go run ./cmd/dqbreaks [command]

Examples:
  go run ./cmd/dqbreaks api
  go run ./cmd/dqbreaks test-db
  go run ./cmd/dqbreaks dashboard --days 7
  go run ./cmd/dqbreaks datasets --distinct
  go run ./cmd/dqbreaks datasets parse --dataset SALES --page 2
  go run ./cmd/dqbreaks chart --kind timeseries --format png --out ./charts
  go run ./cmd/dqbreaks scheduler run db_probe`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}
