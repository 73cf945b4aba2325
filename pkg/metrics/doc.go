// Package metrics provides Prometheus instrumentation for forkflow components.
//
// # Overview
//
// A Registry groups the collectors used by:
//   - parallel joins (items submitted and emitted, worker errors, protocol
//     messages by kind, backpressure polls, active workers, queue depth)
//   - the cron scheduler (runs, failures, durations)
//   - redis queues and the line writer
//
// # Quick Start
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	out, err := flow.FromSlice(items).
//		Fork(8).
//		WithMetrics(m, "ingest").
//		Map(transform).
//		Join()
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Available Metrics
//
//	forkflow_join_items_submitted_total{pipeline_name}
//	forkflow_join_items_emitted_total{pipeline_name}
//	forkflow_join_worker_errors_total{pipeline_name}
//	forkflow_join_messages_total{pipeline_name,channel,kind}
//	forkflow_join_backpressure_polls_total{pipeline_name}
//	forkflow_join_active_workers{pipeline_name}
//	forkflow_join_queue_depth{pipeline_name,channel}
//	forkflow_join_duration_seconds{pipeline_name}
//	forkflow_scheduler_job_runs_total{job_name}
//	forkflow_scheduler_job_failures_total{job_name}
//	forkflow_scheduler_job_duration_seconds{job_name}
//	forkflow_redisq_items_total{queue_name,direction}
//	forkflow_writer_flushes_total{writer_name}
//	forkflow_writer_bytes_written_total{writer_name}
//
// DefaultRegistry registers against prometheus.DefaultRegisterer at init.
// Tests and programs that build more than one registry should pass their own
// prometheus.Registry to avoid duplicate registration panics.
package metrics
