package cmd

import (
	"time"

	"github.com/maxkimambo/taskflow/internal/logger"
	"github.com/spf13/cobra"
)

var (
	debug           bool
	verbose         bool
	jsonLogs        bool
	quiet           bool
	concurrency     int
	taskTimeout     time.Duration
	cancelOnFailure bool
	showMetrics     bool
	version         = "v0.1.0"

	rootCmd = &cobra.Command{
		Use:   "taskflow",
		Short: "Run dependency-aware flows of concurrent tasks",
		Long: `taskflow runs flows of named tasks. Tasks that do not depend on each other
run concurrently in the same stage; a task runs only after every task whose
output it consumes has completed.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(verbose || debug, jsonLogs, quiet)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "Maximum tasks running at once within a stage (0 = unbounded)")
	rootCmd.PersistentFlags().DurationVar(&taskTimeout, "task-timeout", 0, "Timeout for each task invocation (0 = none)")
	rootCmd.PersistentFlags().BoolVar(&cancelOnFailure, "cancel-on-failure", false, "Cancel the remaining tasks of a stage as soon as one fails")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "Print prometheus metrics after the run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
}
