package workerpool

import (
	"time"

	"github.com/vnykmshr/forkflow/pkg/metrics"
)

// instruments records join metrics for one run. A nil registry makes every
// method a no-op.
type instruments struct {
	registry *metrics.Registry
	name     string
}

func newInstruments(registry *metrics.Registry, name string) *instruments {
	return &instruments{registry: registry, name: name}
}

func (m *instruments) enabled() bool {
	return m != nil && m.registry != nil
}

func (m *instruments) message(channel string, kind Kind) {
	if !m.enabled() {
		return
	}
	m.registry.ControlMessages.WithLabelValues(m.name, channel, kind.String()).Inc()
}

func (m *instruments) submitted(queueDepth int) {
	if !m.enabled() {
		return
	}
	m.registry.ItemsSubmitted.WithLabelValues(m.name).Inc()
	m.registry.QueueDepth.WithLabelValues(m.name, ChannelWork).Set(float64(queueDepth))
}

func (m *instruments) emitted() {
	if !m.enabled() {
		return
	}
	m.registry.ItemsEmitted.WithLabelValues(m.name).Inc()
}

func (m *instruments) workerError() {
	if !m.enabled() {
		return
	}
	m.registry.WorkerErrors.WithLabelValues(m.name).Inc()
}

func (m *instruments) poll(resultDepth int) {
	if !m.enabled() {
		return
	}
	m.registry.BackpressurePolls.WithLabelValues(m.name).Inc()
	m.registry.QueueDepth.WithLabelValues(m.name, ChannelResult).Set(float64(resultDepth))
}

func (m *instruments) activeWorkers(n int) {
	if !m.enabled() {
		return
	}
	m.registry.ActiveWorkers.WithLabelValues(m.name).Set(float64(n))
}

func (m *instruments) finished(elapsed time.Duration) {
	if !m.enabled() {
		return
	}
	m.registry.JoinDuration.WithLabelValues(m.name).Observe(elapsed.Seconds())
	m.registry.QueueDepth.WithLabelValues(m.name, ChannelWork).Set(0)
	m.registry.QueueDepth.WithLabelValues(m.name, ChannelResult).Set(0)
}
