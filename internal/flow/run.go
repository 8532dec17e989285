package flow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	flowerrors "github.com/maxkimambo/taskflow/internal/errors"
	"github.com/maxkimambo/taskflow/internal/task"
)

// RunStatus is the lifecycle state of a flow run
type RunStatus int

const (
	RunPending RunStatus = iota
	RunRunning
	RunCompleted
	RunFailed
)

// String returns the string representation of the status
func (s RunStatus) String() string {
	switch s {
	case RunPending:
		return "pending"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is final
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// TaskReport records what happened to one task during a run
type TaskReport struct {
	Task      string
	Stage     int
	Status    task.Status
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Err       error
}

// Result is the outcome of a flow run. It is returned on failure too.
type Result struct {
	FlowName  string
	RunID     string
	Status    RunStatus
	Value     any
	Slots     Slots
	Stages    [][]string
	Reports   []TaskReport // declaration order
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Report returns the report of the named task
func (r *Result) Report(name string) (TaskReport, bool) {
	for _, rep := range r.Reports {
		if rep.Task == name {
			return rep, true
		}
	}
	return TaskReport{}, false
}

// run holds the mutable state of a single flow run. The slot mapping is
// only touched by the engine goroutine between stage barriers; task reports
// are written by task goroutines and guarded by mu.
type run struct {
	id     string
	def    *Definition
	status RunStatus
	slots  map[string]any

	mu      sync.Mutex
	reports []TaskReport

	startTime time.Time
	endTime   time.Time
}

func newRun(def *Definition, inputs map[string]any) *run {
	r := &run{
		id:      uuid.NewString(),
		def:     def,
		status:  RunPending,
		slots:   make(map[string]any, len(inputs)+len(def.tasks)),
		reports: make([]TaskReport, len(def.tasks)),
	}
	for name, v := range inputs {
		r.slots[name] = v
	}
	for i, t := range def.tasks {
		r.reports[i] = TaskReport{
			Task:   t.name,
			Stage:  def.stageOf[i],
			Status: task.StatusPending,
		}
	}
	return r
}

// transition moves the run along Pending -> Running -> {Completed, Failed}
func (r *run) transition(to RunStatus) error {
	valid := (r.status == RunPending && to == RunRunning) ||
		(r.status == RunRunning && to.IsTerminal())
	if !valid {
		return fmt.Errorf("invalid run transition %s -> %s", r.status, to)
	}
	r.status = to
	switch to {
	case RunRunning:
		r.startTime = time.Now()
	case RunCompleted, RunFailed:
		r.endTime = time.Now()
	}
	return nil
}

// inputFor resolves the bindings of task i against the current slots
func (r *run) inputFor(i int) task.Input {
	d := r.def.tasks[i]
	in := make(task.Input, len(d.bindings))
	for _, b := range d.bindings {
		in[b.param] = r.slots[b.slot]
	}
	return in
}

// begin marks task i as running. A task leaves Pending exactly once per run.
func (r *run) begin(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := &r.reports[i]
	if rep.Status != task.StatusPending {
		return fmt.Errorf("%w: %s is %s", flowerrors.ErrDuplicateInvocation, rep.Task, rep.Status)
	}
	rep.Status = task.StatusRunning
	rep.StartTime = time.Now()
	return nil
}

// finish records the outcome of task i
func (r *run) finish(i int, err error) TaskReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := &r.reports[i]
	rep.EndTime = time.Now()
	rep.Duration = rep.EndTime.Sub(rep.StartTime)
	rep.Err = err
	if err != nil {
		rep.Status = task.StatusFailed
	} else {
		rep.Status = task.StatusCompleted
	}
	return *rep
}

// bind writes the outputs of a completed stage to their slots in declaration order
func (r *run) bind(layer []int, outputs []any) error {
	if r.status.IsTerminal() {
		return fmt.Errorf("run %s is %s", r.id, r.status)
	}
	for k, i := range layer {
		slot := r.def.tasks[i].output
		if _, exists := r.slots[slot]; exists {
			return fmt.Errorf("%w: %s", flowerrors.ErrDuplicateSlot, slot)
		}
		r.slots[slot] = outputs[k]
	}
	return nil
}

// stageReports returns the reports of the given tasks
func (r *run) stageReports(layer []int) []TaskReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports := make([]TaskReport, len(layer))
	for k, i := range layer {
		reports[k] = r.reports[i]
	}
	return reports
}

// counts tallies task statuses
func (r *run) counts() (pending, running, completed, failed int, failedNames []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rep := range r.reports {
		switch rep.Status {
		case task.StatusPending:
			pending++
		case task.StatusRunning:
			running++
		case task.StatusCompleted:
			completed++
		case task.StatusFailed:
			failed++
			failedNames = append(failedNames, rep.Task)
		}
	}
	return pending, running, completed, failed, failedNames
}

func (r *run) result(value any) *Result {
	r.mu.Lock()
	reports := append([]TaskReport(nil), r.reports...)
	r.mu.Unlock()

	res := &Result{
		FlowName:  r.def.name,
		RunID:     r.id,
		Status:    r.status,
		Value:     value,
		Slots:     newSlots(r.slots),
		Stages:    r.def.Stages(),
		Reports:   reports,
		StartTime: r.startTime,
		EndTime:   r.endTime,
	}
	if !r.endTime.IsZero() {
		res.Duration = r.endTime.Sub(r.startTime)
	}
	return res
}
