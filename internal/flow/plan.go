package flow

import "time"

// Plan is a static estimate of a run built from declared task estimates.
// Stages are separated by barriers, so a stage takes as long as its slowest
// task and the run takes the sum of its stages.
type Plan struct {
	Flow   string
	Stages []StagePlan
	// Total is the estimated wall time with stage barriers
	Total time.Duration
	// CriticalPath is the longest dependency chain, the lower bound without barriers
	CriticalPath     []string
	CriticalDuration time.Duration
	// Sequential is the wall time if every task ran one after another
	Sequential time.Duration
}

// StagePlan holds the schedule of one stage
type StagePlan struct {
	Index    int
	Tasks    []TaskPlan
	Start    time.Duration
	Duration time.Duration
	// Critical is the task that bounds the stage duration
	Critical string
}

// TaskPlan holds the schedule of one task within its stage
type TaskPlan struct {
	Name     string
	Estimate time.Duration
	Slack    time.Duration
}

// Plan computes the estimated schedule of the flow
func (d *Definition) Plan() Plan {
	plan := Plan{Flow: d.name}

	var start time.Duration
	for k, layer := range d.stages {
		sp := StagePlan{Index: k, Start: start}
		critical := -1
		for _, i := range layer {
			plan.Sequential += d.tasks[i].estimate
			if critical == -1 || d.tasks[i].estimate > d.tasks[critical].estimate {
				critical = i
			}
		}
		sp.Duration = d.tasks[critical].estimate
		sp.Critical = d.tasks[critical].name
		for _, i := range layer {
			sp.Tasks = append(sp.Tasks, TaskPlan{
				Name:     d.tasks[i].name,
				Estimate: d.tasks[i].estimate,
				Slack:    sp.Duration - d.tasks[i].estimate,
			})
		}
		plan.Stages = append(plan.Stages, sp)
		start += sp.Duration
	}
	plan.Total = start

	plan.CriticalPath, plan.CriticalDuration = d.longestPath()
	return plan
}

// longestPath runs the forward pass of the critical path method over the
// stage order, which is already topological.
func (d *Definition) longestPath() ([]string, time.Duration) {
	finish := make([]time.Duration, len(d.tasks))
	prev := make([]int, len(d.tasks))

	end := -1
	for _, layer := range d.stages {
		for _, i := range layer {
			prev[i] = -1
			var start time.Duration
			for _, dep := range d.deps[i] {
				if finish[dep] > start || (prev[i] == -1 && finish[dep] == start) {
					start = finish[dep]
					prev[i] = dep
				}
			}
			finish[i] = start + d.tasks[i].estimate
			if end == -1 || finish[i] >= finish[end] {
				end = i
			}
		}
	}

	var path []string
	for i := end; i != -1; i = prev[i] {
		path = append([]string{d.tasks[i].name}, path...)
	}
	return path, finish[end]
}
