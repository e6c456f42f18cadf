package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "fetch_total",
		Help:      "Count of upstream data fetches.",
	}, []string{"provider", "status"})
	providerFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of upstream data fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "status"})
	providerCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "cache_lookups_total",
		Help:      "Count of upstream cache lookups.",
	}, []string{"provider", "result"})
)

func ObserveProviderFetch(provider string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	providerFetchTotal.WithLabelValues(provider, status).Inc()
	providerFetchDuration.WithLabelValues(provider, status).Observe(time.Since(started).Seconds())
}

func ObserveProviderCache(provider string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	providerCacheTotal.WithLabelValues(provider, result).Inc()
}
