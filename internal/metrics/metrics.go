package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "decision_engine",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Analysis cache lookups by outcome (hit, miss)",
		},
		[]string{"outcome"},
	)

	PlanModes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "decision_engine",
			Subsystem: "continuity",
			Name:      "plans_total",
			Help:      "Analysis plans by mode",
		},
		[]string{"mode"},
	)

	ProviderCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "decision_engine",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Inference provider call latency by stage",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	ProviderFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "decision_engine",
			Subsystem: "provider",
			Name:      "fallbacks_total",
			Help:      "Pipeline runs that degraded to the HOLD fallback",
		},
		[]string{"stage"},
	)

	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "decision_engine",
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Decision records by action and efficiency",
		},
		[]string{"action", "efficiency"},
	)
)

// Register installs the collectors on the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(CacheLookups, PlanModes, ProviderCalls, ProviderFallbacks, Decisions)
	})
}
