// Package metrics provides Prometheus instrumentation for forkflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for forkflow components.
type Registry struct {
	// Join Metrics
	ItemsSubmitted    *prometheus.CounterVec
	ItemsEmitted      *prometheus.CounterVec
	WorkerErrors      *prometheus.CounterVec
	ControlMessages   *prometheus.CounterVec
	BackpressurePolls *prometheus.CounterVec
	ActiveWorkers     *prometheus.GaugeVec
	QueueDepth        *prometheus.GaugeVec
	JoinDuration      *prometheus.HistogramVec

	// Scheduler Metrics
	JobRuns     *prometheus.CounterVec
	JobFailures *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// Transport Metrics
	QueueItems         *prometheus.CounterVec
	WriterFlushes      *prometheus.CounterVec
	WriterBytesWritten *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by forkflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	config := DefaultConfig()
	config.Registry = reg
	return NewRegistryWithConfig(config)
}

// NewRegistryWithConfig creates a metrics registry honoring the namespace and
// constant labels in config. A nil config.Registry registers nowhere, which is
// useful for components that only need the collectors.
func NewRegistryWithConfig(config Config) *Registry {
	factory := promauto.With(config.Registry)

	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := config.Labels

	return &Registry{
		ItemsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "items_submitted_total",
				Help:        "Total number of input items placed on the work queue",
				ConstLabels: labels,
			},
			[]string{"pipeline_name"},
		),

		ItemsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "items_emitted_total",
				Help:        "Total number of results yielded to the consumer",
				ConstLabels: labels,
			},
			[]string{"pipeline_name"},
		),

		WorkerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "worker_errors_total",
				Help:        "Total number of stage errors reported by workers",
				ConstLabels: labels,
			},
			[]string{"pipeline_name"},
		),

		ControlMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "messages_total",
				Help:        "Total number of protocol messages by queue and kind",
				ConstLabels: labels,
			},
			[]string{"pipeline_name", "channel", "kind"},
		),

		BackpressurePolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "backpressure_polls_total",
				Help:        "Total number of result polls made while the work queue was full",
				ConstLabels: labels,
			},
			[]string{"pipeline_name"},
		),

		ActiveWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "active_workers",
				Help:        "Number of workers that have not yet reported done",
				ConstLabels: labels,
			},
			[]string{"pipeline_name"},
		),

		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "queue_depth",
				Help:        "Messages buffered in the work or result queue",
				ConstLabels: labels,
			},
			[]string{"pipeline_name", "channel"},
		),

		JoinDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "join",
				Name:        "duration_seconds",
				Help:        "Time from the first pull to the end of the joined iterator",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pipeline_name"},
		),

		JobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "scheduler",
				Name:        "job_runs_total",
				Help:        "Total number of scheduled pipeline runs",
				ConstLabels: labels,
			},
			[]string{"job_name"},
		),

		JobFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "scheduler",
				Name:        "job_failures_total",
				Help:        "Total number of scheduled runs that returned an error",
				ConstLabels: labels,
			},
			[]string{"job_name"},
		),

		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "scheduler",
				Name:        "job_duration_seconds",
				Help:        "Time spent executing scheduled runs",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"job_name"},
		),

		QueueItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "redisq",
				Name:        "items_total",
				Help:        "Total number of items moved through redis queues",
				ConstLabels: labels,
			},
			[]string{"queue_name", "direction"},
		),

		WriterFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "writer",
				Name:        "flushes_total",
				Help:        "Total number of writer flushes",
				ConstLabels: labels,
			},
			[]string{"writer_name"},
		),

		WriterBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "writer",
				Name:        "bytes_written_total",
				Help:        "Total bytes written",
				ConstLabels: labels,
			},
			[]string{"writer_name"},
		),
	}
}
