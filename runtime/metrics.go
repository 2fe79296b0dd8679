// Package runtime - prometheus collectors for the evaluation engine.
package runtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics owns every prometheus collector the engine updates.
// All collectors are registered on construction; a nil Metrics is never
// handed out by New.
type Metrics struct {
	// Evaluations counts completed simulator evaluations by outcome
	// ("ok", "failed", "cancelled", "timeout").
	Evaluations *prometheus.CounterVec

	// CacheHits / CacheMisses count duplicate-detection outcomes.
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Coalesced counts concurrent launches attached to an in-flight entry.
	Coalesced prometheus.Counter

	// RestartRead / RestartWritten count restart-log records.
	RestartRead    prometheus.Counter
	RestartWritten prometheus.Counter

	// Generation is the current GA generation number.
	Generation prometheus.Gauge

	// BestObjective tracks the best (lowest) first-objective value seen.
	BestObjective prometheus.Gauge
}

// NewMetrics builds and registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optiq",
			Name:      "evaluations_total",
			Help:      "Completed simulator evaluations by outcome.",
		}, []string{"outcome"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optiq",
			Name:      "cache_hits_total",
			Help:      "Evaluation-cache lookups answered from the cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optiq",
			Name:      "cache_misses_total",
			Help:      "Evaluation-cache lookups that required a simulator call.",
		}),
		Coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optiq",
			Name:      "cache_coalesced_total",
			Help:      "Concurrent launches attached to an existing in-flight entry.",
		}),
		RestartRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optiq",
			Name:      "restart_records_read_total",
			Help:      "Restart-log records replayed into the cache at startup.",
		}),
		RestartWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optiq",
			Name:      "restart_records_written_total",
			Help:      "Restart-log records appended.",
		}),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "optiq",
			Name:      "ga_generation",
			Help:      "Current GA generation number.",
		}),
		BestObjective: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "optiq",
			Name:      "best_objective",
			Help:      "Best first-objective value observed so far.",
		}),
	}
	reg.MustRegister(
		m.Evaluations, m.CacheHits, m.CacheMisses, m.Coalesced,
		m.RestartRead, m.RestartWritten, m.Generation, m.BestObjective,
	)
	return m
}
