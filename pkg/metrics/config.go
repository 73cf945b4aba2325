package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every forkflow metric name.
const DefaultNamespace = "forkflow"

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to use.
	Registry prometheus.Registerer

	// Namespace overrides the default "forkflow" namespace for metrics.
	Namespace string

	// Labels are constant labels added to all metrics.
	Labels prometheus.Labels
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
		Labels:    nil,
	}
}

// Build returns the registry described by config, or nil when metrics are
// disabled.
func (c Config) Build() *Registry {
	if !c.Enabled {
		return nil
	}
	if c.Registry == prometheus.DefaultRegisterer && c.Namespace == DefaultNamespace && c.Labels == nil {
		return DefaultRegistry
	}
	return NewRegistryWithConfig(c)
}
