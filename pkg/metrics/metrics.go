// Package metrics holds the Prometheus collectors shared by the resolution
// pipeline. Collectors are created eagerly so packages can record values
// without caring whether Register was ever called; only registered collectors
// are exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpstreamRequests counts completed upstream calls by provider and outcome
	// (ok, status, network, decode).
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legatum_upstream_requests_total",
			Help: "Upstream HTTP calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	// UpstreamRetries counts retry attempts after the first call.
	UpstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legatum_upstream_retries_total",
			Help: "Upstream HTTP retries by provider",
		},
		[]string{"provider"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legatum_cache_lookups_total",
			Help: "Memo cache lookups by result",
		},
		[]string{"result"},
	)
	// Resolutions counts resolve calls by the source that answered, or
	// not_found.
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legatum_resolutions_total",
			Help: "Artist resolutions by answering source",
		},
		[]string{"source"},
	)
	// BreakerTransitions counts circuit breaker state changes per provider.
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legatum_breaker_transitions_total",
			Help: "Upstream circuit breaker state changes by provider and new state",
		},
		[]string{"provider", "state"},
	)
	// ThrottledRequests counts HTTP requests rejected with 429.
	ThrottledRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "legatum_throttled_requests_total",
			Help: "HTTP requests rejected by the per-client throttle",
		},
	)
	ImageRescues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legatum_image_rescues_total",
			Help: "Secondary-source image rescue attempts by result",
		},
		[]string{"result"},
	)
	ResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "legatum_resolve_duration_seconds",
			Help:    "Time spent resolving uncached queries",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register adds every collector to reg. It is called once by the entrypoint.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		UpstreamRequests,
		UpstreamRetries,
		BreakerTransitions,
		CacheLookups,
		Resolutions,
		ImageRescues,
		ThrottledRequests,
		ResolveDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
