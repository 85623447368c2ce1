package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	intentsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlock",
			Subsystem: "intents",
			Name:      "enqueued_total",
			Help:      "Intents buffered into scopes.",
		},
		[]string{"task"},
	)
	intentsCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlock",
			Subsystem: "intents",
			Name:      "captured_total",
			Help:      "Intents captured by ancestor scopes during descendant flushes.",
		},
		[]string{"task"},
	)
	intentsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlock",
			Subsystem: "intents",
			Name:      "dropped_total",
			Help:      "Intents refused at the flush gates, by refusing gate.",
		},
		[]string{"task", "gate"},
	)
	intentsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlock",
			Subsystem: "intents",
			Name:      "dispatched_total",
			Help:      "Intents handed to an executor.",
		},
		[]string{"task"},
	)
	scopeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airlock",
			Subsystem: "scopes",
			Name:      "outcomes_total",
			Help:      "Scopes reaching a terminal state.",
		},
		[]string{"outcome"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "airlock",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Executor dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"task", "success"},
	)
)

// RegisterMetrics registers the airlock collectors with the default
// registry. Safe to call from multiple recorders; registration happens once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			intentsEnqueued,
			intentsCaptured,
			intentsDropped,
			intentsDispatched,
			scopeOutcomes,
			dispatchDuration,
		)
	})
}

func RecordIntentEnqueued(task string) {
	RegisterMetrics()
	intentsEnqueued.WithLabelValues(task).Inc()
}

func RecordIntentCaptured(task string) {
	RegisterMetrics()
	intentsCaptured.WithLabelValues(task).Inc()
}

func RecordIntentDropped(task, gate string) {
	RegisterMetrics()
	intentsDropped.WithLabelValues(task, gate).Inc()
}

func RecordIntentDispatched(task string) {
	RegisterMetrics()
	intentsDispatched.WithLabelValues(task).Inc()
}

func RecordScopeOutcome(outcome string) {
	RegisterMetrics()
	scopeOutcomes.WithLabelValues(outcome).Inc()
}

func RecordDispatch(task string, duration time.Duration, success bool) {
	RegisterMetrics()
	dispatchDuration.WithLabelValues(task, strconv.FormatBool(success)).Observe(duration.Seconds())
}
