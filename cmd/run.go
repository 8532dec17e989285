package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maxkimambo/taskflow/internal/demo"
	flowerrors "github.com/maxkimambo/taskflow/internal/errors"
	"github.com/maxkimambo/taskflow/internal/flow"
	"github.com/maxkimambo/taskflow/internal/logger"
	"github.com/maxkimambo/taskflow/internal/metrics"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one of the built-in flows",
	Long: `Run one of the built-in flows and print its result.

Every simulated service call takes a whole number of time units; --unit
scales them so a flow can be exercised quickly.

Example:
taskflow run notify --name John
taskflow run account --user-id 101 --unit 100ms --metrics`,
}

var runNotifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Greet a user and report status and balance concurrently",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		return runFlow(cmd, demo.NotifyFlowName, map[string]string{"name": name})
	},
}

var runAccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Fetch a user, check balance and preferences, then notify",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user-id")
		return runFlow(cmd, demo.AccountFlowName, map[string]string{"user_id": userID})
	},
}

func init() {
	runCmd.PersistentFlags().Duration("unit", time.Second, "Duration of one simulated time unit")
	runCmd.PersistentFlags().String("export", "", "Write the run graph with task reports as JSON to this file")
	runNotifyCmd.Flags().String("name", "John", "Name of the user to notify")
	runAccountCmd.Flags().String("user-id", "101", "ID of the user account")

	runCmd.AddCommand(runNotifyCmd)
	runCmd.AddCommand(runAccountCmd)
}

func exportGraph(path string, def *flow.Definition, res *flow.Result) error {
	data, err := flow.NewVisualization(def, res).JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func runFlow(cmd *cobra.Command, name string, raw map[string]string) error {
	engineConfig, err := createEngineConfig(cmd)
	if err != nil {
		return err
	}
	demoConfig, err := createDemoConfig(cmd)
	if err != nil {
		return err
	}

	entry, err := demo.Lookup(name)
	if err != nil {
		return err
	}
	def, err := entry.Build(demoConfig)
	if err != nil {
		return err
	}
	inputs, err := entry.ParseInputs(raw)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if showMetrics {
		m = metrics.New()
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Op.WithFields(map[string]interface{}{
		"flow":              name,
		"concurrency":       engineConfig.MaxParallelTasks,
		"task_timeout":      engineConfig.DefaultTaskTimeout,
		"cancel_on_failure": engineConfig.CancelOnFailure,
		"unit":              demoConfig.Unit,
	}).Debug("Starting flow run")

	logger.User.Startingf("Running flow %s: %d tasks in %d stages", def.Name(), len(def.Tasks()), len(def.Stages()))
	res, err := newEngine(engineConfig, m).Run(ctx, def, inputs)
	out := cmd.OutOrStdout()

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" && res != nil {
		if exportErr := exportGraph(exportPath, def, res); exportErr != nil {
			logger.User.Warnf("Failed to export run graph: %v", exportErr)
		}
	}

	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), flowerrors.FormatForCLI(err))
		if res != nil {
			fmt.Fprint(out, renderReports(res))
		}
		cmd.SilenceErrors = true
		return err
	}

	renderResult(out, res)

	if m != nil {
		fmt.Fprintln(out)
		if err := m.WriteText(out); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
