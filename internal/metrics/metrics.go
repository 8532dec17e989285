package metrics

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const namespace = "taskflow"

// Metrics holds the engine's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	tasksTotal    *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	tasksInFlight *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total flow runs by outcome",
		}, []string{"flow", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of flow runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow", "status"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of a stage from submission to barrier",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow", "stage"}),
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total task invocations by outcome",
		}, []string{"flow", "task", "status"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task invocations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow", "task"}),
		tasksInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Tasks currently running",
		}, []string{"flow"}),
	}
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TaskStarted marks a task as running
func (m *Metrics) TaskStarted(flow string) {
	if m == nil {
		return
	}
	m.tasksInFlight.WithLabelValues(flow).Inc()
}

// TaskFinished records the outcome of a task invocation
func (m *Metrics) TaskFinished(flow, task, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.tasksInFlight.WithLabelValues(flow).Dec()
	m.tasksTotal.WithLabelValues(flow, task, status).Inc()
	m.taskDuration.WithLabelValues(flow, task).Observe(duration.Seconds())
}

// StageFinished records the wall time of a stage
func (m *Metrics) StageFinished(flow string, stage int, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(flow, strconv.Itoa(stage)).Observe(duration.Seconds())
}

// RunFinished records the outcome of a flow run
func (m *Metrics) RunFinished(flow, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(flow, status).Inc()
	m.runDuration.WithLabelValues(flow, status).Observe(duration.Seconds())
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every gathered metric family in the text exposition format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
