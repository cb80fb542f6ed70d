package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels tool executions that returned a result.
	OutcomeSuccess = "success"
	// OutcomeClientError labels executions rejected because of caller input.
	OutcomeClientError = "client_error"
	// OutcomeError labels executions that failed inside the service.
	OutcomeError = "error"
)

var (
	toolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "health_query",
			Name:      "tool_executions_total",
			Help:      "Total number of tool executions, partitioned by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	toolDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "health_query",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	storageFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "health_query",
			Name:      "storage_fallbacks_total",
			Help:      "Searches served from fixture data because storage failed, partitioned by reason.",
		},
		[]string{"reason"},
	)

	searchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "health_query",
			Name:      "search_cache_total",
			Help:      "Search cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches health-query collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		toolExecutionsTotal,
		toolDurationSeconds,
		storageFallbacksTotal,
		searchCacheTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveToolExecution records a tool execution duration and outcome label.
func ObserveToolExecution(tool string, duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeSuccess, OutcomeClientError:
	default:
		outcome = OutcomeError
	}
	toolExecutionsTotal.WithLabelValues(tool, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	toolDurationSeconds.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordStorageFallback counts a search served from fixture data.
func RecordStorageFallback(reason string) {
	storageFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordCacheLookup counts a search cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	searchCacheTotal.WithLabelValues(result).Inc()
}
