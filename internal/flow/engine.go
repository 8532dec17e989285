package flow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxkimambo/taskflow/internal/coordinator"
	flowerrors "github.com/maxkimambo/taskflow/internal/errors"
	"github.com/maxkimambo/taskflow/internal/logger"
	"github.com/maxkimambo/taskflow/internal/metrics"
	"github.com/maxkimambo/taskflow/internal/progress"
	"github.com/maxkimambo/taskflow/internal/task"
)

// StagePhase tells whether a StageEvent marks the submission or the barrier of a stage
type StagePhase string

const (
	StageStarted  StagePhase = "started"
	StageFinished StagePhase = "finished"
)

// StageEvent is delivered to stage hooks from the engine goroutine
type StageEvent struct {
	Flow        string
	RunID       string
	Stage       int
	TotalStages int
	Phase       StagePhase
	Tasks       []string
	// Reports and Elapsed are set when Phase is StageFinished
	Reports  []TaskReport
	Elapsed  time.Duration
	Err      error
	Progress progress.ProgressInfo
}

// StageHook observes stage boundaries. Hooks must not block.
type StageHook func(StageEvent)

// Engine runs flow definitions. An Engine holds no per-run state and may run
// any number of definitions concurrently.
type Engine struct {
	config  Config
	log     *logrus.Entry
	metrics *metrics.Metrics
	hooks   []StageHook
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig sets the scheduling configuration. Negative values are treated as zero.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		if config == nil {
			return
		}
		e.config = *config
		if e.config.MaxParallelTasks < 0 {
			e.config.MaxParallelTasks = 0
		}
		if e.config.DefaultTaskTimeout < 0 {
			e.config.DefaultTaskTimeout = 0
		}
	}
}

// WithLogger sets the entry used for operational logs
func WithLogger(entry *logrus.Entry) Option {
	return func(e *Engine) {
		e.log = entry
	}
}

// WithMetrics records run, stage and task metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithStageHook registers a hook called at every stage boundary
func WithStageHook(hook StageHook) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hook)
	}
}

// NewEngine creates an engine with the default configuration and the given options
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		config: *DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.L().WithFieldsMap(map[string]interface{}{"component": "flow"})
	}
	return e
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run executes def with the given inputs. Stages run strictly one after
// another; the tasks of a stage run concurrently.
//
// Input errors are returned with a nil Result before any task starts. Once
// the run has started a Result is always returned, and the error, if any, is
// a *errors.FlowError.
func (e *Engine) Run(ctx context.Context, def *Definition, inputs map[string]any) (*Result, error) {
	if def == nil {
		return nil, flowerrors.NewGraphError(flowerrors.CodeGraphEmpty, "Flow definition is nil", flowerrors.ErrEmptyFlow)
	}
	if err := def.checkInputs(inputs); err != nil {
		return nil, err
	}

	s := e.newScheduler(ctx, def, inputs)
	defer s.close()

	return s.execute()
}

// scheduler is the per-run scheduling context. It is created when a run
// starts and torn down when it returns.
type scheduler struct {
	engine   *Engine
	def      *Definition
	run      *run
	parent   context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	log      *logrus.Entry
	reporter *progress.Reporter
}

func (e *Engine) newScheduler(parent context.Context, def *Definition, inputs map[string]any) *scheduler {
	ctx, cancel := context.WithCancel(parent)
	r := newRun(def, inputs)
	return &scheduler{
		engine:   e,
		def:      def,
		run:      r,
		parent:   parent,
		ctx:      ctx,
		cancel:   cancel,
		log:      e.log.WithFields(logrus.Fields{"flow": def.name, "run_id": r.id}),
		reporter: progress.NewReporter(),
	}
}

func (s *scheduler) close() {
	s.cancel()
}

func (s *scheduler) execute() (*Result, error) {
	if err := s.run.transition(RunRunning); err != nil {
		return s.run.result(nil), flowerrors.NewGraphError(flowerrors.CodeGraphInvalidTask, err.Error(), err).
			WithFlow(s.def.name, s.run.id)
	}

	s.log.WithFields(logrus.Fields{
		"tasks":  len(s.def.tasks),
		"stages": len(s.def.stages),
	}).Info("Flow run started")

	for k, layer := range s.def.stages {
		if err := s.parent.Err(); err != nil {
			return s.fail(flowerrors.NewCancelledError(s.def.name, s.run.id, k, err))
		}

		outputs, stageErr := s.runStage(k, layer)
		if stageErr != nil {
			return s.fail(stageErr)
		}

		if err := s.run.bind(layer, outputs); err != nil {
			return s.fail(flowerrors.NewGraphError(flowerrors.CodeGraphDuplicateSlot, err.Error(), err).
				WithFlow(s.def.name, s.run.id))
		}
	}

	value, err := s.def.resultCollector().Collect(newSlots(s.run.slots))
	if err != nil {
		return s.fail(flowerrors.NewCollectError(s.def.name, s.run.id, err))
	}

	return s.complete(value)
}

// runStage submits every task of stage k and waits at the barrier
func (s *scheduler) runStage(k int, layer []int) ([]any, *flowerrors.FlowError) {
	names := s.def.names(layer)
	stageStart := time.Now()

	s.log.WithFields(logrus.Fields{"stage": k, "tasks": names}).Debug("Stage submitted")
	s.emit(StageEvent{Stage: k, Phase: StageStarted, Tasks: names})

	calls := make([]coordinator.Invocation[any], len(layer))
	for j, i := range layer {
		i := i
		in := s.run.inputFor(i)
		calls[j] = func(ctx context.Context) (any, error) {
			return s.invoke(ctx, k, i, in)
		}
	}

	outputs, err := coordinator.Join(s.ctx, calls, s.joinOptions()...)
	elapsed := time.Since(stageStart)
	s.engine.metrics.StageFinished(s.def.name, k, elapsed)
	s.log.WithFields(logrus.Fields{"stage": k, "duration": elapsed}).Debug("Stage barrier reached")
	s.emit(StageEvent{
		Stage:   k,
		Phase:   StageFinished,
		Tasks:   names,
		Reports: s.run.stageReports(layer),
		Elapsed: elapsed,
		Err:     err,
	})

	if err != nil {
		return nil, s.stageError(k, err)
	}
	return outputs, nil
}

func (s *scheduler) joinOptions() []coordinator.Option {
	var opts []coordinator.Option
	if s.engine.config.CancelOnFailure {
		opts = append(opts, coordinator.CancelOnFailure())
	}
	if s.engine.config.MaxParallelTasks > 0 {
		opts = append(opts, coordinator.WithLimit(s.engine.config.MaxParallelTasks))
	}
	return opts
}

// stageError converts the failure picked by the coordinator into a FlowError
func (s *scheduler) stageError(k int, err error) *flowerrors.FlowError {
	var taskErr *flowerrors.TaskError
	if !errors.As(err, &taskErr) {
		taskErr = flowerrors.NewTaskError("", k, err)
	}
	if cause := s.parent.Err(); cause != nil {
		return flowerrors.NewCancelledError(s.def.name, s.run.id, k, cause).
			WithContext("task", taskErr.Task).
			WithOriginalError(taskErr)
	}
	return flowerrors.NewTaskFailedError(s.def.name, s.run.id, taskErr)
}

// invoke runs task i of stage k once, enforcing its timeout and recovering panics.
// Every failure is returned as a *errors.TaskError.
func (s *scheduler) invoke(ctx context.Context, k, i int, in task.Input) (any, error) {
	d := s.def.tasks[i]
	log := s.log.WithFields(logrus.Fields{"stage": k, "task": d.name})

	if err := s.run.begin(i); err != nil {
		log.WithError(err).Warn("Task invocation rejected")
		return nil, flowerrors.NewTaskError(d.name, k, err)
	}
	s.engine.metrics.TaskStarted(s.def.name)
	log.Debug("Task started")

	timeout := d.timeout
	if timeout <= 0 {
		timeout = s.engine.config.DefaultTaskTimeout
	}

	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := safeInvoke(taskCtx, log, d.task, in)
	finishedAt := time.Now()

	if timeout > 0 && ctx.Err() == nil && taskDeadlinePassed(taskCtx, finishedAt) {
		cause := err
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		out, err = nil, flowerrors.NewTaskTimeoutError(d.name, k, cause)
	} else if err != nil {
		out, err = nil, flowerrors.NewTaskError(d.name, k, err)
	}

	report := s.run.finish(i, err)
	s.engine.metrics.TaskFinished(s.def.name, d.name, report.Status.String(), report.Duration)

	if err != nil {
		log.WithError(err).WithField("duration", report.Duration).Debug("Task failed")
	} else {
		log.WithField("duration", report.Duration).Debug("Task completed")
	}
	return out, err
}

func taskDeadlinePassed(ctx context.Context, at time.Time) bool {
	deadline, ok := ctx.Deadline()
	return ok && !at.Before(deadline)
}

// safeInvoke turns a panic in the task body into an error
func safeInvoke(ctx context.Context, log *logrus.Entry, t task.Task, in task.Input) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Debugf("Recovered task panic\n%s", debug.Stack())
			out, err = nil, fmt.Errorf("%w: %v", flowerrors.ErrTaskPanic, r)
		}
	}()
	return t.Invoke(ctx, in)
}

func (s *scheduler) complete(value any) (*Result, error) {
	if err := s.run.transition(RunCompleted); err != nil {
		return s.fail(flowerrors.NewCollectError(s.def.name, s.run.id, err))
	}
	res := s.run.result(value)
	s.engine.metrics.RunFinished(s.def.name, res.Status.String(), res.Duration)

	s.log.WithField("duration", res.Duration).Info("Flow run completed")
	return res, nil
}

func (s *scheduler) fail(err *flowerrors.FlowError) (*Result, error) {
	if terr := s.run.transition(RunFailed); terr != nil {
		s.log.WithError(terr).Warn("Run state not updated")
	}
	res := s.run.result(nil)
	s.engine.metrics.RunFinished(s.def.name, RunFailed.String(), res.Duration)

	s.log.WithError(err).WithField("duration", res.Duration).Warn("Flow run failed")
	return res, err
}

// emit fills in run-wide fields and calls the stage hooks
func (s *scheduler) emit(ev StageEvent) {
	ev.Flow = s.def.name
	ev.RunID = s.run.id
	ev.TotalStages = len(s.def.stages)
	ev.Progress = s.progressInfo(ev.Stage)

	if ev.Phase == StageFinished {
		s.log.WithField("stage", ev.Stage).Debug(s.reporter.Report(ev.Progress))
	}
	for _, hook := range s.engine.hooks {
		hook(ev)
	}
}

func (s *scheduler) progressInfo(stage int) progress.ProgressInfo {
	pending, running, completed, failed, failedNames := s.run.counts()
	elapsed := s.reporter.Elapsed()

	var stageTasks []string
	if stage < len(s.def.stages) {
		stageTasks = s.def.names(s.def.stages[stage])
	}

	return progress.ProgressInfo{
		Flow:              s.def.name,
		RunID:             s.run.id,
		CurrentStage:      stage,
		TotalStages:       len(s.def.stages),
		TotalTasks:        len(s.def.tasks),
		CompletedTasks:    completed,
		FailedTasks:       failed,
		RunningTasks:      running,
		PendingTasks:      pending,
		ElapsedTime:       elapsed,
		EstimatedTimeLeft: progress.CalculateETA(completed, len(s.def.tasks), elapsed),
		StageTasks:        stageTasks,
		FailedTaskNames:   failedNames,
	}
}
