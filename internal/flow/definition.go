package flow

import (
	"fmt"
	"slices"
	"sort"
	"time"

	flowerrors "github.com/maxkimambo/taskflow/internal/errors"
	"github.com/maxkimambo/taskflow/internal/task"
)

// binding feeds the value of slot into the task parameter param
type binding struct {
	param string
	slot  string
}

// descriptor is the immutable declaration of one task inside a Definition
type descriptor struct {
	name     string
	output   string
	bindings []binding
	task     task.Task
	timeout  time.Duration
	estimate time.Duration
}

// TaskOption configures a task declaration
type TaskOption func(*descriptor)

// Bind feeds the value of slot into the task parameter param. The slot is
// either a flow parameter or the output slot of another task; the latter
// creates a dependency edge.
func Bind(param, slot string) TaskOption {
	return func(d *descriptor) {
		d.bindings = append(d.bindings, binding{param: param, slot: slot})
	}
}

// BindSame binds slot to a parameter of the same name
func BindSame(slot string) TaskOption {
	return Bind(slot, slot)
}

// Output names the slot the task's result is written to. Defaults to the task name.
func Output(slot string) TaskOption {
	return func(d *descriptor) {
		d.output = slot
	}
}

// Timeout bounds a single invocation of the task
func Timeout(timeout time.Duration) TaskOption {
	return func(d *descriptor) {
		d.timeout = timeout
	}
}

// Estimate declares the expected duration of the task, used by Plan
func Estimate(estimate time.Duration) TaskOption {
	return func(d *descriptor) {
		d.estimate = estimate
	}
}

// Builder declares a flow: its parameters, tasks and result collector
type Builder struct {
	name      string
	params    []string
	tasks     []*descriptor
	collector Collector
}

// New creates a Builder for a flow with the given name
func New(name string) *Builder {
	return &Builder{name: name}
}

// Param declares flow inputs. Each input seeds an output slot of the same name.
func (b *Builder) Param(names ...string) *Builder {
	b.params = append(b.params, names...)
	return b
}

// Task declares a task. Declaration order breaks ties within a stage.
func (b *Builder) Task(name string, t task.Task, opts ...TaskOption) *Builder {
	d := &descriptor{
		name: name,
		task: t,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.output == "" {
		d.output = name
	}
	b.tasks = append(b.tasks, d)
	return b
}

// Collect sets the collector producing the flow's return value
func (b *Builder) Collect(c Collector) *Builder {
	b.collector = c
	return b
}

// Definition is a validated flow: an arena of task descriptors plus
// index-based dependency edges and the derived stage sequence. A Definition
// is immutable and may be run any number of times.
type Definition struct {
	name      string
	params    []string
	tasks     []*descriptor
	index     map[string]int
	producers map[string]int // output slot -> task index
	deps      [][]int        // deps[i]: tasks whose outputs task i consumes
	stages    [][]int
	stageOf   []int
	collector Collector
}

// Build validates the declaration and derives the stage sequence. Malformed
// graphs are reported as a GRAPH FlowError; nothing is executed.
func (b *Builder) Build() (*Definition, error) {
	def := &Definition{
		name:      b.name,
		params:    append([]string(nil), b.params...),
		tasks:     append([]*descriptor(nil), b.tasks...),
		index:     make(map[string]int, len(b.tasks)),
		producers: make(map[string]int, len(b.tasks)),
		collector: b.collector,
	}

	if len(def.tasks) == 0 {
		return nil, def.graphError(flowerrors.CodeGraphEmpty, "Flow declares no tasks", flowerrors.ErrEmptyFlow)
	}

	if err := def.indexSlots(); err != nil {
		return nil, err
	}
	if err := def.linkDependencies(); err != nil {
		return nil, err
	}
	if err := def.checkCollector(); err != nil {
		return nil, err
	}
	if err := def.buildStages(); err != nil {
		return nil, err
	}

	return def, nil
}

func (d *Definition) graphError(code, message string, cause error) *flowerrors.FlowError {
	return flowerrors.NewGraphError(code, message, cause).WithFlow(d.name, "")
}

// indexSlots registers task names and output slots, rejecting collisions
func (d *Definition) indexSlots() error {
	params := make(map[string]bool, len(d.params))
	for _, p := range d.params {
		if p == "" {
			return d.graphError(flowerrors.CodeGraphInvalidTask, "Flow parameter name cannot be empty", flowerrors.ErrInvalidTask)
		}
		if params[p] {
			return d.graphError(flowerrors.CodeGraphDuplicateSlot,
				fmt.Sprintf("Flow parameter '%s' declared twice", p), flowerrors.ErrDuplicateSlot).
				WithContext("slot", p)
		}
		params[p] = true
	}

	for i, t := range d.tasks {
		if t.name == "" {
			return d.graphError(flowerrors.CodeGraphInvalidTask,
				fmt.Sprintf("Task #%d has an empty name", i), flowerrors.ErrInvalidTask)
		}
		if t.task == nil {
			return d.graphError(flowerrors.CodeGraphInvalidTask,
				fmt.Sprintf("Task '%s' has no implementation", t.name), flowerrors.ErrInvalidTask).
				WithContext("task", t.name)
		}
		if _, exists := d.index[t.name]; exists {
			return d.graphError(flowerrors.CodeGraphDuplicateTask,
				fmt.Sprintf("Task '%s' declared twice", t.name), flowerrors.ErrDuplicateTask).
				WithContext("task", t.name)
		}
		d.index[t.name] = i

		if params[t.output] {
			return d.graphError(flowerrors.CodeGraphDuplicateSlot,
				fmt.Sprintf("Task '%s' writes slot '%s' which is a flow parameter", t.name, t.output),
				flowerrors.ErrDuplicateSlot).
				WithContext("task", t.name).
				WithContext("slot", t.output)
		}
		if owner, exists := d.producers[t.output]; exists {
			return d.graphError(flowerrors.CodeGraphDuplicateSlot,
				fmt.Sprintf("Tasks '%s' and '%s' both write slot '%s'", d.tasks[owner].name, t.name, t.output),
				flowerrors.ErrDuplicateSlot).
				WithContext("task", t.name).
				WithContext("slot", t.output)
		}
		d.producers[t.output] = i

		seen := make(map[string]bool, len(t.bindings))
		for _, bnd := range t.bindings {
			if bnd.param == "" || seen[bnd.param] {
				return d.graphError(flowerrors.CodeGraphInvalidTask,
					fmt.Sprintf("Task '%s' has an empty or repeated parameter '%s'", t.name, bnd.param),
					flowerrors.ErrInvalidTask).
					WithContext("task", t.name)
			}
			seen[bnd.param] = true
		}
	}

	return nil
}

// linkDependencies derives edges from bindings that reference task outputs
func (d *Definition) linkDependencies() error {
	params := make(map[string]bool, len(d.params))
	for _, p := range d.params {
		params[p] = true
	}

	d.deps = make([][]int, len(d.tasks))
	for i, t := range d.tasks {
		seen := make(map[int]bool)
		for _, bnd := range t.bindings {
			if params[bnd.slot] {
				continue
			}
			producer, ok := d.producers[bnd.slot]
			if !ok {
				return flowerrors.NewMissingSlotError(t.name, bnd.param, bnd.slot).WithFlow(d.name, "")
			}
			if producer == i {
				return d.graphError(flowerrors.CodeGraphSelfDependency,
					fmt.Sprintf("Task '%s' consumes its own output slot '%s'", t.name, bnd.slot),
					flowerrors.ErrSelfDependency).
					WithContext("task", t.name)
			}
			if !seen[producer] {
				seen[producer] = true
				d.deps[i] = append(d.deps[i], producer)
			}
		}
		sort.Ints(d.deps[i])
	}

	return nil
}

// checkCollector rejects a declared collector that reads a slot which is
// neither a flow parameter nor a task output
func (d *Definition) checkCollector() error {
	r, ok := d.collector.(slotReader)
	if !ok {
		return nil
	}
	for _, slot := range r.reads() {
		if _, produced := d.producers[slot]; produced || slices.Contains(d.params, slot) {
			continue
		}
		return d.graphError(flowerrors.CodeGraphMissingSlot,
			fmt.Sprintf("Result collector reads undeclared slot '%s'", slot), flowerrors.ErrMissingSlot).
			WithContext("slot", slot)
	}
	return nil
}

// buildStages layers the graph: each round takes every unscheduled task whose
// dependencies were all scheduled in earlier rounds, in declaration order.
func (d *Definition) buildStages() error {
	scheduled := make([]bool, len(d.tasks))
	d.stageOf = make([]int, len(d.tasks))
	remaining := len(d.tasks)

	for remaining > 0 {
		var layer []int
		for i := range d.tasks {
			if scheduled[i] {
				continue
			}
			ready := true
			for _, dep := range d.deps[i] {
				if !scheduled[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, i)
			}
		}

		if len(layer) == 0 {
			return flowerrors.NewCycleError(d.findCycle(scheduled)).WithFlow(d.name, "")
		}

		for _, i := range layer {
			scheduled[i] = true
			d.stageOf[i] = len(d.stages)
		}
		d.stages = append(d.stages, layer)
		remaining -= len(layer)
	}

	return nil
}

// findCycle returns one cycle among the unscheduled tasks as a list of task
// names, each consuming the output of the next. Uses DFS with coloring.
func (d *Definition) findCycle(scheduled []bool) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(d.tasks))
	parent := make([]int, len(d.tasks))

	var dfs func(node int) []int
	dfs = func(node int) []int {
		color[node] = gray
		for _, next := range d.deps[node] {
			if scheduled[next] {
				continue
			}
			if color[next] == gray {
				cycle := []int{next}
				for cur := node; cur != next; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, next)
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for i := range d.tasks {
		if scheduled[i] || color[i] != white {
			continue
		}
		if cycle := dfs(i); cycle != nil {
			names := make([]string, len(cycle))
			for k, idx := range cycle {
				names[k] = d.tasks[idx].name
			}
			return names
		}
	}
	return nil
}

// Name returns the flow name
func (d *Definition) Name() string {
	return d.name
}

// Params returns the declared flow inputs
func (d *Definition) Params() []string {
	return append([]string(nil), d.params...)
}

// Tasks returns the task names in declaration order
func (d *Definition) Tasks() []string {
	names := make([]string, len(d.tasks))
	for i, t := range d.tasks {
		names[i] = t.name
	}
	return names
}

// Stages returns the task names of each stage, in execution order
func (d *Definition) Stages() [][]string {
	stages := make([][]string, len(d.stages))
	for k, layer := range d.stages {
		stages[k] = d.names(layer)
	}
	return stages
}

// Dependencies returns the tasks whose outputs the named task consumes
func (d *Definition) Dependencies(name string) ([]string, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("task %s not found", name)
	}
	return d.names(d.deps[i]), nil
}

// OutputSlot returns the slot the named task writes
func (d *Definition) OutputSlot(name string) (string, error) {
	i, ok := d.index[name]
	if !ok {
		return "", fmt.Errorf("task %s not found", name)
	}
	return d.tasks[i].output, nil
}

func (d *Definition) names(indices []int) []string {
	names := make([]string, len(indices))
	for k, i := range indices {
		names[k] = d.tasks[i].name
	}
	return names
}

// checkInputs verifies that inputs supply exactly the declared parameters
func (d *Definition) checkInputs(inputs map[string]any) error {
	declared := make(map[string]bool, len(d.params))
	var missing []string
	for _, p := range d.params {
		declared[p] = true
		if _, ok := inputs[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return flowerrors.NewMissingInputError(d.name, missing)
	}

	var unknown []string
	for name := range inputs {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return flowerrors.NewUnknownInputError(d.name, unknown)
	}

	return nil
}
