package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/maxkimambo/taskflow/internal/demo"
	"github.com/maxkimambo/taskflow/internal/flow"
	"github.com/maxkimambo/taskflow/internal/logger"
	"github.com/maxkimambo/taskflow/internal/metrics"
	"github.com/maxkimambo/taskflow/internal/progress"
	"github.com/maxkimambo/taskflow/internal/utils"
	"github.com/spf13/cobra"
)

func createEngineConfig(cmd *cobra.Command) (*flow.Config, error) {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	taskTimeout, _ := cmd.Flags().GetDuration("task-timeout")
	cancelOnFailure, _ := cmd.Flags().GetBool("cancel-on-failure")

	config := &flow.Config{
		MaxParallelTasks:   concurrency,
		DefaultTaskTimeout: taskTimeout,
		CancelOnFailure:    cancelOnFailure,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func createDemoConfig(cmd *cobra.Command) (*demo.Config, error) {
	unit, _ := cmd.Flags().GetDuration("unit")
	if unit <= 0 {
		return nil, fmt.Errorf("--unit must be positive, got %v", unit)
	}
	return &demo.Config{Unit: unit}, nil
}

func newEngine(config *flow.Config, m *metrics.Metrics) *flow.Engine {
	reporter := progress.NewReporter()

	return flow.NewEngine(
		flow.WithConfig(config),
		flow.WithMetrics(m),
		flow.WithStageHook(func(ev flow.StageEvent) {
			if ev.Phase == flow.StageStarted {
				logger.User.Stagef("%s", reporter.ReportStageStart(ev.Stage, ev.TotalStages, ev.Tasks))
				return
			}
			for _, rep := range ev.Reports {
				logger.User.Info(reporter.ReportTaskComplete(rep.Task, rep.Duration, rep.Err == nil))
			}
			logger.User.Info(reporter.ReportStageComplete(ev.Stage, ev.TotalStages, ev.Elapsed, ev.Err == nil))
			if reporter.ShouldReport() {
				logger.User.Info(reporter.Report(ev.Progress))
			}
		}),
	)
}

func renderReports(res *flow.Result) string {
	table := utils.NewTableFormatter("Stage", "Task", "Status", "Duration", "Error").
		Align(0, utils.AlignRight).
		Align(3, utils.AlignRight)

	for _, rep := range res.Reports {
		duration := "-"
		if !rep.EndTime.IsZero() {
			duration = progress.FormatDuration(rep.Duration)
		}
		errText := ""
		if rep.Err != nil {
			errText = rep.Err.Error()
		}
		_ = table.AddRow(strconv.Itoa(rep.Stage+1), rep.Task, rep.Status.String(), duration, errText)
	}
	return table.String()
}

func renderResult(w io.Writer, res *flow.Result) {
	box := utils.NewBox(utils.SuccessMessage, fmt.Sprintf("Flow %s completed", res.FlowName)).
		AddKeyValue("Run", res.RunID).
		AddKeyValue("Stages", strconv.Itoa(len(res.Stages))).
		AddKeyValue("Duration", progress.FormatDuration(res.Duration)).
		AddLine("").
		AddLine(fmt.Sprint(res.Value))

	fmt.Fprintln(w, box.Render())
	fmt.Fprint(w, renderReports(res))
}
