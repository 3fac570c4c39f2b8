// Package metrics collects Prometheus counters for the client core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records auth and mutation outcomes. All methods are safe for
// concurrent use; a nil *Collector is a no-op so callers never need to guard.
type Collector struct {
	authAttempts    *prometheus.CounterVec
	togglesApplied  *prometheus.CounterVec
	togglesRolledBk *prometheus.CounterVec
	togglesCoalesce prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedcore_auth_attempts_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		togglesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedcore_toggles_applied_total",
			Help: "Optimistic toggles applied locally, by kind.",
		}, []string{"kind"}),
		togglesRolledBk: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedcore_toggles_rolled_back_total",
			Help: "Optimistic toggles rolled back after a failed remote write, by kind.",
		}, []string{"kind"}),
		togglesCoalesce: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedcore_toggles_coalesced_total",
			Help: "Toggles coalesced into an already in-flight mutation.",
		}),
	}
	reg.MustRegister(c.authAttempts, c.togglesApplied, c.togglesRolledBk, c.togglesCoalesce)
	return c
}

func (c *Collector) RecordAuthAttempt(outcome string) {
	if c == nil {
		return
	}
	c.authAttempts.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordToggleApplied(kind string) {
	if c == nil {
		return
	}
	c.togglesApplied.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordToggleRolledBack(kind string) {
	if c == nil {
		return
	}
	c.togglesRolledBk.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordToggleCoalesced() {
	if c == nil {
		return
	}
	c.togglesCoalesce.Inc()
}
