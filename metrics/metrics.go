// Package metrics provides Prometheus metrics collection for prediction
// tasks: counters, gauges, and histograms for training, inference, and
// evaluation, exposed via the standard Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a prediction task.
type Metrics struct {
	TrainingsTotal     prometheus.Counter   // Total number of completed model trainings
	TrainingFailures   prometheus.Counter   // Total number of failed trainings
	TrainingDuration   prometheus.Histogram // Duration of training runs in seconds
	PredictionsTotal   prometheus.Counter   // Total number of prediction calls
	PredictionFailures prometheus.Counter   // Total number of failed predictions
	EvaluationsTotal   prometheus.Counter   // Total number of completed evaluations
	EvaluationDuration prometheus.Histogram // Duration of evaluation runs in seconds
	ModelsRegistered   prometheus.Gauge     // Number of models in the task registry
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps
// metric collection isolated in tests.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		TrainingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_trainings_total",
			Help: "Total number of completed model trainings",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_training_failures_total",
			Help: "Total number of failed trainings",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "task_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_predictions_total",
			Help: "Total number of prediction calls",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_prediction_failures_total",
			Help: "Total number of failed predictions",
		}),
		EvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_evaluations_total",
			Help: "Total number of completed evaluations",
		}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "task_evaluation_duration_seconds",
			Help:    "Duration of evaluation runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		ModelsRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "task_models_registered",
			Help: "Number of models in the task registry",
		}),
	}
}

// Recorder adapts Metrics to the narrow instrumentation interface consumed
// by the tasks package.
type Recorder struct {
	m *Metrics
}

// NewRecorder wraps the metrics in a task recorder.
func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{m: m}
}

func (r *Recorder) TrainingsInc()                       { r.m.TrainingsTotal.Inc() }
func (r *Recorder) TrainingFailuresInc()                { r.m.TrainingFailures.Inc() }
func (r *Recorder) TrainingDurationObserve(s float64)   { r.m.TrainingDuration.Observe(s) }
func (r *Recorder) PredictionsInc()                     { r.m.PredictionsTotal.Inc() }
func (r *Recorder) PredictionFailuresInc()              { r.m.PredictionFailures.Inc() }
func (r *Recorder) EvaluationsInc()                     { r.m.EvaluationsTotal.Inc() }
func (r *Recorder) EvaluationDurationObserve(s float64) { r.m.EvaluationDuration.Observe(s) }
func (r *Recorder) ModelsRegisteredSet(count float64)   { r.m.ModelsRegistered.Set(count) }
