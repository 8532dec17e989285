package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maxkimambo/taskflow/internal/demo"
	"github.com/maxkimambo/taskflow/internal/flow"
	"github.com/maxkimambo/taskflow/internal/progress"
	"github.com/maxkimambo/taskflow/internal/utils"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <flow>",
	Short: "Show the stages of a built-in flow and its estimated wall time",
	Long: `Show how a flow will be scheduled without running it: the tasks of
each stage, their estimates and the critical path.

Example:
taskflow plan account
taskflow plan notify --unit 100ms
taskflow plan account --dot | dot -Tsvg > account.svg`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: demo.Names(),
	RunE:      runPlan,
}

func init() {
	planCmd.Flags().Duration("unit", time.Second, "Duration of one simulated time unit")
	planCmd.Flags().Bool("dot", false, "Print the flow as a Graphviz DOT graph instead of a table")
}

func runPlan(cmd *cobra.Command, args []string) error {
	demoConfig, err := createDemoConfig(cmd)
	if err != nil {
		return err
	}
	entry, err := demo.Lookup(args[0])
	if err != nil {
		return err
	}
	def, err := entry.Build(demoConfig)
	if err != nil {
		return err
	}

	if dot, _ := cmd.Flags().GetBool("dot"); dot {
		fmt.Fprint(cmd.OutOrStdout(), flow.NewVisualization(def, nil).DOT())
		return nil
	}

	plan := def.Plan()

	table := utils.NewTableFormatter("Stage", "Task", "Depends on", "Estimate", "Slack").
		Align(0, utils.AlignRight).
		Align(3, utils.AlignRight).
		Align(4, utils.AlignRight)
	for _, stage := range plan.Stages {
		for _, tp := range stage.Tasks {
			deps, err := def.Dependencies(tp.Name)
			if err != nil {
				return err
			}
			name := tp.Name
			if tp.Name == stage.Critical {
				name += " *"
			}
			_ = table.AddRow(strconv.Itoa(stage.Index+1), name, strings.Join(deps, ", "),
				progress.FormatDuration(tp.Estimate), progress.FormatDuration(tp.Slack))
		}
	}

	box := utils.NewBox(utils.InfoMessage, fmt.Sprintf("Plan for flow %s", plan.Flow)).
		AddKeyValue("Inputs", strings.Join(def.Params(), ", ")).
		AddKeyValue("Stages", strconv.Itoa(len(plan.Stages))).
		AddKeyValue("Estimated", progress.FormatDuration(plan.Total)).
		AddKeyValue("Sequential", progress.FormatDuration(plan.Sequential)).
		AddKeyValue("Critical path", progress.FormatDuration(plan.CriticalDuration))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, box.Render())
	fmt.Fprint(out, table.String())
	fmt.Fprintln(out, "* bounds the stage duration")
	fmt.Fprintf(out, "Critical path: %s\n", strings.Join(plan.CriticalPath, " -> "))
	return nil
}
